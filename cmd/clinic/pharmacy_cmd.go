package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"clinic-console/internal/model"
	"clinic-console/internal/view"
)

const (
	medicinesScreen       = "/dashboard/medicines"
	prescriptionsScreen   = "/dashboard/prescriptions"
	myPrescriptionsScreen = "/dashboard/my-prescriptions"
)

func medicinesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "medicines",
		Aliases: []string{"meds"},
		Short:   "Manage the medicine catalogue",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List medicines",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(medicinesScreen); err != nil {
				return err
			}
			if err := a.pharm.FetchMedicines(cmd.Context()); err != nil {
				return err
			}
			if err := view.Medicines(a.out, a.pharm.Medicines()); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "\n%d low on stock\n", a.pharm.LowStock())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show one medicine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(medicinesScreen); err != nil {
				return err
			}
			if err := a.pharm.GetMedicine(cmd.Context(), model.ID(args[0])); err != nil {
				return err
			}
			m, _ := a.pharm.SelectedMedicine()
			return view.Medicines(a.out, []model.Medicine{m})
		},
	})

	create := &cobra.Command{
		Use:   "create",
		Short: "Add a medicine",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(medicinesScreen); err != nil {
				return err
			}
			var in model.MedicineInput
			overlayMedicine(cmd, &in)
			if in.Name == "" {
				return fmt.Errorf("--name is required")
			}
			m, err := a.pharm.CreateMedicine(cmd.Context(), in)
			if err != nil {
				return err
			}
			return view.Medicines(a.out, []model.Medicine{m})
		},
	}
	addMedicineFlags(create)
	cmd.AddCommand(create)

	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a medicine; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(medicinesScreen); err != nil {
				return err
			}
			id := model.ID(args[0])
			if err := a.pharm.GetMedicine(cmd.Context(), id); err != nil {
				return err
			}
			cur, _ := a.pharm.SelectedMedicine()
			in := model.MedicineInput{
				Name:         cur.Name,
				Description:  cur.Description,
				Price:        cur.Price,
				Quantity:     cur.Quantity,
				Manufacturer: cur.Manufacturer,
			}
			overlayMedicine(cmd, &in)
			return a.pharm.UpdateMedicine(cmd.Context(), id, in)
		},
	}
	addMedicineFlags(update)
	cmd.AddCommand(update)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a medicine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(medicinesScreen); err != nil {
				return err
			}
			return a.pharm.DeleteMedicine(cmd.Context(), model.ID(args[0]))
		},
	})
	return cmd
}

func addMedicineFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "medicine name")
	cmd.Flags().String("description", "", "description")
	cmd.Flags().Float64("price", 0, "unit price")
	cmd.Flags().Int("quantity", 0, "units in stock")
	cmd.Flags().String("manufacturer", "", "manufacturer")
}

// overlayMedicine copies the flags the user actually set onto in.
func overlayMedicine(cmd *cobra.Command, in *model.MedicineInput) {
	f := cmd.Flags()
	if f.Changed("name") {
		in.Name, _ = f.GetString("name")
	}
	if f.Changed("description") {
		in.Description, _ = f.GetString("description")
	}
	if f.Changed("price") {
		in.Price, _ = f.GetFloat64("price")
	}
	if f.Changed("quantity") {
		in.Quantity, _ = f.GetInt("quantity")
	}
	if f.Changed("manufacturer") {
		in.Manufacturer, _ = f.GetString("manufacturer")
	}
}

func prescriptionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "prescriptions",
		Aliases: []string{"rx"},
		Short:   "Write and dispense prescriptions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List prescriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			screen := myPrescriptionsScreen
			if a.isStaff(model.RoleDoctor, model.RolePharmacist) {
				screen = prescriptionsScreen
			}
			if err := a.enter(screen); err != nil {
				return err
			}
			if err := a.pharm.FetchPrescriptions(cmd.Context()); err != nil {
				return err
			}
			return view.Prescriptions(a.out, a.pharm.Prescriptions())
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <id>",
		Short: "Show one prescription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(myPrescriptionsScreen); err != nil {
				return err
			}
			if err := a.pharm.GetPrescription(cmd.Context(), model.ID(args[0])); err != nil {
				return err
			}
			p, _ := a.pharm.SelectedPrescription()
			return view.Prescriptions(a.out, []model.Prescription{p})
		},
	})

	create := &cobra.Command{
		Use:   "create",
		Short: "Write a prescription",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(prescriptionsScreen); err != nil {
				return err
			}
			patient, _ := cmd.Flags().GetString("patient")
			meds, _ := cmd.Flags().GetStringSlice("medicine")
			date, _ := cmd.Flags().GetString("date")
			if patient == "" || len(meds) == 0 {
				return fmt.Errorf("--patient and at least one --medicine are required")
			}
			me := a.me()
			p, err := a.pharm.CreatePrescription(cmd.Context(), model.PrescriptionInput{
				PatientID:  model.ID(patient),
				DoctorID:   me.UserID,
				DoctorName: me.Username,
				Medicines:  meds,
				Date:       date,
			})
			if err != nil {
				return err
			}
			return view.Prescriptions(a.out, []model.Prescription{p})
		},
	}
	create.Flags().String("patient", "", "patient id")
	create.Flags().StringSlice("medicine", nil, "medicine name, repeatable")
	create.Flags().String("date", today(), "issue date (YYYY-MM-DD)")
	cmd.AddCommand(create)

	cmd.AddCommand(&cobra.Command{
		Use:   "status <id> <pending|dispensed|cancelled>",
		Short: "Set a prescription's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(prescriptionsScreen); err != nil {
				return err
			}
			st := model.PrescriptionStatus(args[1])
			if !st.Valid() {
				return fmt.Errorf("unknown status %q", args[1])
			}
			return a.pharm.SetPrescriptionStatus(cmd.Context(), model.ID(args[0]), st)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "dispense <id>",
		Short: "Hand out a pending prescription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(prescriptionsScreen); err != nil {
				return err
			}
			return a.pharm.Dispense(cmd.Context(), model.ID(args[0]))
		},
	})
	return cmd
}

func inventoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Check and adjust stock levels",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Show stock per medicine",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(medicinesScreen); err != nil {
				return err
			}
			if err := a.pharm.FetchInventory(cmd.Context()); err != nil {
				return err
			}
			return view.Inventory(a.out, a.pharm.Inventory())
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "set <medicine-id> <quantity>",
		Short: "Set the stock of a medicine",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.enter(medicinesScreen); err != nil {
				return err
			}
			qty, err := strconv.Atoi(args[1])
			if err != nil || qty < 0 {
				return fmt.Errorf("quantity must be a non-negative integer, got %q", args[1])
			}
			return a.pharm.SetStock(cmd.Context(), model.ID(args[0]), qty)
		},
	})
	return cmd
}
