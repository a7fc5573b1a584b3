package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"clinic-console/internal/model"
	"clinic-console/internal/view"
)

const (
	appointmentsScreen   = "/dashboard/appointments"
	myAppointmentsScreen = "/dashboard/my-appointments"
	patientsScreen       = "/dashboard/patients"
)

func appointmentsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "appointments",
		Aliases: []string{"appt"},
		Short:   "Book, view and manage appointments",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the appointments you can see",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(myAppointmentsScreen); err != nil {
				return err
			}
			if err := a.ownAppointments(cmd.Context()); err != nil {
				return err
			}
			return view.Appointments(a.out, a.appts.Items())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show one appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(myAppointmentsScreen); err != nil {
				return err
			}
			if err := a.appts.Get(cmd.Context(), model.ID(args[0])); err != nil {
				return err
			}
			ap, _ := a.appts.Selected()
			return view.Appointments(a.out, []model.Appointment{ap})
		},
	})

	book := &cobra.Command{
		Use:   "book",
		Short: "Book an appointment",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(myAppointmentsScreen); err != nil {
				return err
			}
			in := appointmentFlags(cmd)
			if in.PatientID == "" {
				in.PatientID = a.me().UserID
			}
			if in.DoctorID == "" || in.Time == "" {
				return fmt.Errorf("--doctor and --time are required")
			}
			ap, err := a.appts.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			return view.Appointments(a.out, []model.Appointment{ap})
		},
	}
	addAppointmentFlags(book)
	cmd.AddCommand(book)

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Reschedule or edit an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(appointmentsScreen); err != nil {
				return err
			}
			in := appointmentFlags(cmd)
			if !cmd.Flags().Changed("date") {
				in.Date = ""
			}
			return a.appts.Update(cmd.Context(), model.ID(args[0]), in)
		},
	}
	addAppointmentFlags(update)
	cmd.AddCommand(update)

	cmd.AddCommand(&cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel an appointment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(myAppointmentsScreen); err != nil {
				return err
			}
			return a.appts.Cancel(cmd.Context(), model.ID(args[0]))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status <id> <scheduled|in-progress|completed|cancelled>",
		Short: "Set an appointment's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(appointmentsScreen); err != nil {
				return err
			}
			st := model.AppointmentStatus(args[1])
			if !st.Valid() {
				return fmt.Errorf("unknown status %q", args[1])
			}
			return a.appts.SetStatus(cmd.Context(), model.ID(args[0]), st)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "checkin <id>",
		Short: "Mark a patient as arrived",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(appointmentsScreen); err != nil {
				return err
			}
			return a.appts.CheckIn(cmd.Context(), model.ID(args[0]))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "complete <id>",
		Short: "Mark an appointment as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(appointmentsScreen); err != nil {
				return err
			}
			return a.appts.Complete(cmd.Context(), model.ID(args[0]))
		},
	})

	slots := &cobra.Command{
		Use:   "slots <doctor-id>",
		Short: "Show a doctor's free and taken times for a day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(myAppointmentsScreen); err != nil {
				return err
			}
			date, _ := cmd.Flags().GetString("date")
			if err := a.appts.FetchSlots(cmd.Context(), model.ID(args[0]), date); err != nil {
				return err
			}
			return view.Slots(a.out, a.appts.Slots())
		},
	}
	slots.Flags().String("date", today(), "day to check (YYYY-MM-DD)")
	cmd.AddCommand(slots)

	return cmd
}

func addAppointmentFlags(cmd *cobra.Command) {
	cmd.Flags().String("patient", "", "patient id")
	cmd.Flags().String("doctor", "", "doctor id")
	cmd.Flags().String("date", today(), "day (YYYY-MM-DD)")
	cmd.Flags().String("time", "", "time (HH:MM)")
	cmd.Flags().String("reason", "", "reason for the visit")
}

func appointmentFlags(cmd *cobra.Command) model.AppointmentRequest {
	var in model.AppointmentRequest
	patient, _ := cmd.Flags().GetString("patient")
	doctor, _ := cmd.Flags().GetString("doctor")
	in.PatientID = model.ID(patient)
	in.DoctorID = model.ID(doctor)
	in.Date, _ = cmd.Flags().GetString("date")
	in.Time, _ = cmd.Flags().GetString("time")
	in.Reason, _ = cmd.Flags().GetString("reason")
	return in
}

func doctorsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctors",
		Short: "Browse the doctor directory",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List doctors",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(myAppointmentsScreen); err != nil {
				return err
			}
			if err := a.appts.FetchDoctors(cmd.Context()); err != nil {
				return err
			}
			return view.Doctors(a.out, a.appts.Doctors())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show one doctor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(myAppointmentsScreen); err != nil {
				return err
			}
			if err := a.appts.GetDoctor(cmd.Context(), model.ID(args[0])); err != nil {
				return err
			}
			d, _ := a.appts.SelectedDoctor()
			return view.Doctors(a.out, []model.Doctor{d})
		},
	})
	return cmd
}

func patientsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patients",
		Short: "Browse patient records",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List patients",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(patientsScreen); err != nil {
				return err
			}
			if err := a.appts.FetchPatients(cmd.Context()); err != nil {
				return err
			}
			return view.Patients(a.out, a.appts.Patients())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show one patient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(patientsScreen); err != nil {
				return err
			}
			if err := a.appts.GetPatient(cmd.Context(), model.ID(args[0])); err != nil {
				return err
			}
			p, _ := a.appts.SelectedPatient()
			return view.Patients(a.out, []model.Patient{p})
		},
	})
	return cmd
}
