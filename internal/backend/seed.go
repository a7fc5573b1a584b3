package backend

import (
	"fmt"
	"time"

	"clinic-console/internal/auth"
	"clinic-console/internal/model"
)

// SeedPassword is the password of every seeded account.
const SeedPassword = "clinic-pass"

type seedAccount struct {
	username, email string
	role            model.Role
	specialization  string
}

var seedAccounts = []seedAccount{
	{"admin", "admin@clinic.test", model.RoleAdmin, ""},
	{"dr.grey", "grey@clinic.test", model.RoleDoctor, "General Practice"},
	{"dr.shah", "shah@clinic.test", model.RoleDoctor, "Cardiology"},
	{"pharma", "pharma@clinic.test", model.RolePharmacist, ""},
	{"front.desk", "desk@clinic.test", model.RoleReceptionist, ""},
	{"jane.roe", "jane@clinic.test", model.RolePatient, ""},
	{"omar.ali", "omar@clinic.test", model.RolePatient, ""},
}

// Seed fills an empty clinic with one account per role, a small pharmacy and
// a day of appointments starting at today.
func Seed(c *Clinic, today time.Time) error {
	hash, err := auth.HashPassword(SeedPassword)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	ids := map[string]model.ID{}
	for _, s := range seedAccounts {
		u, err := c.CreateAccount(Account{
			User:           model.User{Username: s.username, Email: s.email, Role: s.role},
			PasswordHash:   hash,
			Specialization: s.specialization,
		})
		if err != nil {
			return fmt.Errorf("seed %s: %w", s.username, err)
		}
		ids[s.username] = u.UserID
	}

	meds := []model.MedicineInput{
		{Name: "Amoxicillin 500mg", Price: 0.45, Quantity: 240, Manufacturer: "Sandoz"},
		{Name: "Ibuprofen 400mg", Price: 0.12, Quantity: 8, Manufacturer: "Bayer"},
		{Name: "Metformin 850mg", Price: 0.2, Quantity: 120, Manufacturer: "Teva"},
		{Name: "Salbutamol inhaler", Price: 6.5, Quantity: 3, Manufacturer: "GSK"},
	}
	for _, m := range meds {
		if _, err := c.CreateMedicine(m); err != nil {
			return fmt.Errorf("seed medicine: %w", err)
		}
	}

	day := today.Format("2006-01-02")
	tomorrow := today.AddDate(0, 0, 1).Format("2006-01-02")
	appts := []model.AppointmentRequest{
		{PatientID: ids["jane.roe"], DoctorID: ids["dr.grey"], Date: day, Time: "09:30", Reason: "Annual checkup"},
		{PatientID: ids["omar.ali"], DoctorID: ids["dr.grey"], Date: day, Time: "11:00", Reason: "Persistent cough"},
		{PatientID: ids["jane.roe"], DoctorID: ids["dr.shah"], Date: tomorrow, Time: "14:00", Reason: "ECG follow-up"},
	}
	for _, a := range appts {
		if _, err := c.CreateAppointment(a); err != nil {
			return fmt.Errorf("seed appointment: %w", err)
		}
	}

	_, err = c.CreatePrescription(model.PrescriptionInput{
		PatientID: ids["omar.ali"],
		DoctorID:  ids["dr.grey"],
		Medicines: []string{"Amoxicillin 500mg"},
		Date:      day,
	})
	return err
}
