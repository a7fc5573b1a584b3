// Package authz answers role questions about a session. Nothing is cached;
// every call reads the roles it is given.
package authz

import (
	"slices"

	"github.com/samber/lo"

	"clinic-console/internal/model"
)

// precedence orders roles for picking a single landing view.
var precedence = []model.Role{
	model.RoleAdmin,
	model.RoleDoctor,
	model.RolePharmacist,
	model.RoleReceptionist,
	model.RolePatient,
}

func HasRole(s model.Session, r model.Role) bool {
	return slices.Contains(s.Roles, r)
}

// HasAnyRole reports whether the session holds at least one of roles. An
// empty roles list allows everyone.
func HasAnyRole(s model.Session, roles ...model.Role) bool {
	if len(roles) == 0 {
		return true
	}
	return lo.Some(s.Roles, roles)
}

// PrimaryRole is the highest-ranked role the session holds, PATIENT when it
// holds none that is known.
func PrimaryRole(s model.Session) model.Role {
	for _, r := range precedence {
		if HasRole(s, r) {
			return r
		}
	}
	return model.RolePatient
}

var dashboards = map[model.Role]string{
	model.RoleAdmin:        "/dashboard/admin",
	model.RoleDoctor:       "/dashboard/doctor",
	model.RolePharmacist:   "/dashboard/pharmacist",
	model.RoleReceptionist: "/dashboard/receptionist",
	model.RolePatient:      "/dashboard/patient",
}

// DashboardRoute is where the bare dashboard root sends the session.
func DashboardRoute(s model.Session) string {
	return dashboards[PrimaryRole(s)]
}

type MenuItem struct {
	Label string
	Path  string
	Roles []model.Role
}

var menus = map[model.Role][]MenuItem{
	model.RoleAdmin: {
		{Label: "Users", Path: "/dashboard/users"},
		{Label: "Reports", Path: "/dashboard/reports"},
		{Label: "Settings", Path: "/dashboard/settings"},
	},
	model.RoleDoctor: {
		{Label: "Patients", Path: "/dashboard/patients"},
		{Label: "Appointments", Path: "/dashboard/appointments"},
		{Label: "Prescriptions", Path: "/dashboard/prescriptions"},
	},
	model.RolePharmacist: {
		{Label: "Medicines", Path: "/dashboard/medicines"},
		{Label: "Prescriptions", Path: "/dashboard/prescriptions"},
	},
	model.RoleReceptionist: {
		{Label: "Patients", Path: "/dashboard/patients"},
		{Label: "Appointments", Path: "/dashboard/appointments"},
	},
	model.RolePatient: {
		{Label: "My Appointments", Path: "/dashboard/my-appointments"},
		{Label: "My Prescriptions", Path: "/dashboard/my-prescriptions"},
	},
}

// Menu lists the navigation entries for the session's primary role,
// starting with the dashboard itself.
func Menu(s model.Session) []MenuItem {
	role := PrimaryRole(s)
	out := []MenuItem{{Label: "Dashboard", Path: DashboardRoute(s)}}
	for _, it := range menus[role] {
		it.Roles = []model.Role{role}
		out = append(out, it)
	}
	return out
}
