// Package view renders screens as plain text tables for the terminal.
package view

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samber/lo"

	"clinic-console/internal/authz"
	"clinic-console/internal/model"
	"clinic-console/internal/notify"
	"clinic-console/internal/state"
)

type table struct {
	tw *tabwriter.Writer
}

func newTable(w io.Writer, header ...string) *table {
	t := &table{tw: tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)}
	t.row(header...)
	return t
}

func (t *table) row(cols ...string) {
	fmt.Fprintln(t.tw, strings.Join(cols, "\t"))
}

func (t *table) flush() error { return t.tw.Flush() }

type stat struct {
	title string
	value string
}

func stats(w io.Writer, heading string, ss ...stat) error {
	fmt.Fprintf(w, "%s\n\n", heading)
	t := newTable(w, "", "")
	for _, s := range ss {
		t.row(s.title, s.value)
	}
	if err := t.flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

func count(n int) string { return fmt.Sprint(n) }

func Admin(w io.Writer, u *state.Users) error {
	byRole := u.CountByRole()
	return stats(w, "Admin Dashboard",
		stat{"Total Users", count(len(u.Items()))},
		stat{"Total Doctors", count(byRole[model.RoleDoctor])},
		stat{"Total Patients", count(byRole[model.RolePatient])},
	)
}

func Doctor(w io.Writer, a *state.Appointments, now time.Time) error {
	today := a.On(now)
	all := a.Items()
	patients := lo.Uniq(lo.Map(all, func(x model.Appointment, _ int) model.ID { return x.PatientID }))
	err := stats(w, "Doctor Dashboard",
		stat{"Today's Appointments", count(len(today))},
		stat{"Total Appointments", count(len(all))},
		stat{"Total Patients", count(len(patients))},
		stat{"Completed Today", count(lo.CountBy(today, func(x model.Appointment) bool { return x.Status == model.StatusCompleted }))},
	)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "Today's Appointments")
	return Appointments(w, today)
}

func Pharmacist(w io.Writer, p *state.Pharmacy) error {
	err := stats(w, "Pharmacist Dashboard",
		stat{"Total Medicines", count(len(p.Medicines()))},
		stat{"Prescriptions", count(len(p.Prescriptions()))},
		stat{"Pending Prescriptions", count(p.PendingPrescriptions())},
		stat{"Low Stock Items", count(p.LowStock())},
		stat{"Total Inventory Value", money(p.InventoryValue())},
	)
	if err != nil {
		return err
	}
	low := lo.Filter(p.Medicines(), func(m model.Medicine, _ int) bool { return m.LowStock() })
	if len(low) == 0 {
		return nil
	}
	fmt.Fprintln(w, "Low Stock")
	return Medicines(w, low)
}

func Receptionist(w io.Writer, a *state.Appointments, now time.Time) error {
	today := a.On(now)
	err := stats(w, "Receptionist Dashboard",
		stat{"Today's Appointments", count(len(today))},
		stat{"Doctors", count(len(a.Doctors()))},
		stat{"Patients", count(len(a.Patients()))},
	)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "Today's Appointments")
	return Appointments(w, today)
}

func Patient(w io.Writer, a *state.Appointments, p *state.Pharmacy, now time.Time) error {
	upcoming := a.Upcoming(now)
	err := stats(w, "Patient Dashboard",
		stat{"Upcoming Appointments", count(len(upcoming))},
		stat{"Total Appointments", count(len(a.Items()))},
		stat{"Prescriptions", count(len(p.Prescriptions()))},
	)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "Upcoming Appointments")
	return Appointments(w, upcoming)
}

func money(v float64) string { return fmt.Sprintf("$%.2f", v) }

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func Appointments(w io.Writer, as []model.Appointment) error {
	t := newTable(w, "ID", "DATE", "TIME", "PATIENT", "DOCTOR", "REASON", "STATUS")
	for _, a := range as {
		status := string(a.Status)
		if status == "" {
			status = string(model.StatusScheduled)
		}
		t.row(a.ID.String(), a.Date, a.Time, orDash(lo.Ternary(a.PatientName != "", a.PatientName, a.PatientID.String())),
			orDash(lo.Ternary(a.DoctorName != "", a.DoctorName, a.DoctorID.String())), orDash(a.Reason), status)
	}
	return t.flush()
}

func Medicines(w io.Writer, ms []model.Medicine) error {
	t := newTable(w, "ID", "NAME", "MANUFACTURER", "PRICE", "QTY", "")
	for _, m := range ms {
		t.row(m.ID.String(), m.Name, orDash(m.Manufacturer), money(m.Price), count(m.Quantity), lo.Ternary(m.LowStock(), "low", ""))
	}
	return t.flush()
}

func Prescriptions(w io.Writer, ps []model.Prescription) error {
	t := newTable(w, "ID", "PATIENT", "DOCTOR", "MEDICINES", "STATUS")
	for _, p := range ps {
		t.row(p.ID.String(), orDash(lo.Ternary(p.PatientName != "", p.PatientName, p.PatientID.String())),
			orDash(lo.Ternary(p.DoctorName != "", p.DoctorName, p.DoctorID.String())),
			orDash(strings.Join(p.Medicines, ", ")), string(p.Status))
	}
	return t.flush()
}

func Inventory(w io.Writer, items []model.InventoryItem) error {
	t := newTable(w, "MEDICINE", "NAME", "QTY")
	for _, i := range items {
		t.row(i.MedicineID.String(), orDash(i.Name), count(i.Quantity))
	}
	return t.flush()
}

func Users(w io.Writer, us []model.User) error {
	t := newTable(w, "ID", "USERNAME", "EMAIL", "ROLE", "PHONE")
	for _, u := range us {
		t.row(u.UserID.String(), u.Username, u.Email, u.Role.Label(), orDash(u.Phone))
	}
	return t.flush()
}

func Doctors(w io.Writer, ds []model.Doctor) error {
	t := newTable(w, "ID", "NAME", "SPECIALIZATION", "EMAIL")
	for _, d := range ds {
		t.row(d.ID.String(), d.DisplayName(), orDash(d.Specialization), orDash(d.Email))
	}
	return t.flush()
}

func Patients(w io.Writer, ps []model.Patient) error {
	t := newTable(w, "ID", "NAME", "AGE", "GENDER", "PHONE")
	for _, p := range ps {
		t.row(p.ID.String(), p.DisplayName(), lo.Ternary(p.Age > 0, count(p.Age), "-"), orDash(p.Gender), orDash(p.Phone))
	}
	return t.flush()
}

func Slots(w io.Writer, ss []model.Slot) error {
	t := newTable(w, "TIME", "AVAILABLE")
	for _, s := range ss {
		t.row(s.Time, lo.Ternary(s.Available, "yes", "no"))
	}
	return t.flush()
}

// Menu marks the entry for the current path.
func Menu(w io.Writer, items []authz.MenuItem, current string) error {
	t := newTable(w, "", "MENU", "PATH")
	for _, it := range items {
		t.row(lo.Ternary(it.Path == current, "*", ""), it.Label, it.Path)
	}
	return t.flush()
}

func Session(w io.Writer, s model.Session) error {
	roles := lo.Map(s.Roles, func(r model.Role, _ int) string { return r.Label() })
	t := newTable(w, "USER", "EMAIL", "ROLES", "HOME")
	t.row(s.Username, orDash(s.Email), orDash(strings.Join(roles, ", ")), authz.DashboardRoute(s))
	return t.flush()
}

func Notices(w io.Writer, ns []notify.Notice) {
	for _, n := range ns {
		mark := "ok"
		if n.Level == notify.Failure {
			mark = "error"
		}
		fmt.Fprintf(w, "[%s] %s\n", mark, n.Message)
	}
}
