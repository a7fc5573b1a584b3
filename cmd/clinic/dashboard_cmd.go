package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"clinic-console/internal/model"
	"clinic-console/internal/router"
	"clinic-console/internal/view"
)

func dashboardCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Open the dashboard for your role",
		RunE: func(cmd *cobra.Command, args []string) error {
			d := a.nav.Navigate(router.Dashboard)
			if d.Kind != router.Render || d.Path == router.Login {
				return fmt.Errorf("not signed in, run: clinic login")
			}
			return a.renderDashboard(cmd.Context(), d.Route.Screen, time.Now())
		},
	}
}

// renderDashboard loads what the screen shows and prints it. Loads run one
// after another so each store settles before the next starts.
func (a *app) renderDashboard(ctx context.Context, screen string, now time.Time) error {
	switch screen {
	case "admin":
		if err := a.users.Fetch(ctx); err != nil {
			return err
		}
		return view.Admin(a.out, a.users)
	case "doctor":
		if err := a.appts.FetchByDoctor(ctx, a.me().UserID); err != nil {
			return err
		}
		return view.Doctor(a.out, a.appts, now)
	case "pharmacist":
		if err := a.pharm.FetchMedicines(ctx); err != nil {
			return err
		}
		if err := a.pharm.FetchPrescriptions(ctx); err != nil {
			return err
		}
		return view.Pharmacist(a.out, a.pharm)
	case "receptionist":
		if err := a.appts.Fetch(ctx); err != nil {
			return err
		}
		if err := a.appts.FetchDoctors(ctx); err != nil {
			return err
		}
		if err := a.appts.FetchPatients(ctx); err != nil {
			return err
		}
		return view.Receptionist(a.out, a.appts, now)
	case "patient":
		if err := a.appts.FetchByPatient(ctx, a.me().UserID); err != nil {
			return err
		}
		if err := a.pharm.FetchPrescriptions(ctx); err != nil {
			return err
		}
		return view.Patient(a.out, a.appts, a.pharm, now)
	}
	return fmt.Errorf("no dashboard for screen %q", screen)
}

// ownAppointments loads the list the signed-in user is allowed to see.
func (a *app) ownAppointments(ctx context.Context) error {
	me := a.me()
	switch {
	case a.isStaff(model.RoleAdmin, model.RoleReceptionist):
		return a.appts.Fetch(ctx)
	case a.isStaff(model.RoleDoctor):
		return a.appts.FetchByDoctor(ctx, me.UserID)
	}
	return a.appts.FetchByPatient(ctx, me.UserID)
}
