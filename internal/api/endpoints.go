package api

import (
	"context"
	"net/http"
	"net/url"

	"clinic-console/internal/model"
)

type Auth struct{ r Requester }

func (a *Auth) Register(ctx context.Context, in Registration) (*AuthResponse, error) {
	out := &AuthResponse{}
	if err := a.r.Do(ctx, http.MethodPost, "/auth/register", nil, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Auth) Login(ctx context.Context, in Credentials) (*AuthResponse, error) {
	out := &AuthResponse{}
	if err := a.r.Do(ctx, http.MethodPost, "/auth/login", nil, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (a *Auth) Logout(ctx context.Context) error {
	return a.r.Do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

func (a *Auth) Me(ctx context.Context) (model.Session, error) {
	var s model.Session
	err := a.r.Do(ctx, http.MethodGet, "/auth/me", nil, nil, &s)
	return s, err
}

type Users struct{ r Requester }

func (u *Users) List(ctx context.Context) ([]model.User, error) {
	var out []model.User
	err := u.r.Do(ctx, http.MethodGet, "/users", nil, nil, &out)
	return out, err
}

func (u *Users) Get(ctx context.Context, id model.ID) (model.User, error) {
	var out model.User
	err := u.r.Do(ctx, http.MethodGet, "/users/"+seg(id), nil, nil, &out)
	return out, err
}

func (u *Users) Update(ctx context.Context, id model.ID, in model.UserUpdate) (model.User, error) {
	var out model.User
	err := u.r.Do(ctx, http.MethodPut, "/users/"+seg(id), nil, in, &out)
	return out, err
}

func (u *Users) Delete(ctx context.Context, id model.ID) error {
	return u.r.Do(ctx, http.MethodDelete, "/users/"+seg(id), nil, nil, nil)
}

type Appointments struct{ r Requester }

func (a *Appointments) List(ctx context.Context) ([]model.Appointment, error) {
	var out []model.Appointment
	err := a.r.Do(ctx, http.MethodGet, "/appointments", nil, nil, &out)
	return out, err
}

func (a *Appointments) Get(ctx context.Context, id model.ID) (model.Appointment, error) {
	var out model.Appointment
	err := a.r.Do(ctx, http.MethodGet, "/appointments/"+seg(id), nil, nil, &out)
	return out, err
}

func (a *Appointments) ByDoctor(ctx context.Context, doctorID model.ID) ([]model.Appointment, error) {
	var out []model.Appointment
	err := a.r.Do(ctx, http.MethodGet, "/appointments/doctor/"+seg(doctorID), nil, nil, &out)
	return out, err
}

func (a *Appointments) ByPatient(ctx context.Context, patientID model.ID) ([]model.Appointment, error) {
	var out []model.Appointment
	err := a.r.Do(ctx, http.MethodGet, "/appointments/patient/"+seg(patientID), nil, nil, &out)
	return out, err
}

func (a *Appointments) Create(ctx context.Context, in model.AppointmentRequest) (model.Appointment, error) {
	var out model.Appointment
	err := a.r.Do(ctx, http.MethodPost, "/appointments", nil, in, &out)
	return out, err
}

func (a *Appointments) Update(ctx context.Context, id model.ID, in model.AppointmentRequest) (model.Appointment, error) {
	var out model.Appointment
	err := a.r.Do(ctx, http.MethodPut, "/appointments/"+seg(id), nil, in, &out)
	return out, err
}

// Cancel ignores the response body; its shape is not guaranteed.
func (a *Appointments) Cancel(ctx context.Context, id model.ID) error {
	return a.r.Do(ctx, http.MethodPatch, "/appointments/"+seg(id)+"/cancel", nil, nil, nil)
}

func (a *Appointments) SetStatus(ctx context.Context, id model.ID, st model.AppointmentStatus) (model.Appointment, error) {
	var out model.Appointment
	body := map[string]model.AppointmentStatus{"status": st}
	err := a.r.Do(ctx, http.MethodPatch, "/appointments/"+seg(id)+"/status", nil, body, &out)
	return out, err
}

func (a *Appointments) AvailableSlots(ctx context.Context, doctorID model.ID, date string) ([]model.Slot, error) {
	var out []model.Slot
	q := url.Values{"doctorId": {doctorID.String()}, "date": {date}}
	err := a.r.Do(ctx, http.MethodGet, "/appointments/available-slots", q, nil, &out)
	return out, err
}

// Directory serves the doctor and patient reference lists.
type Directory struct{ r Requester }

func (d *Directory) Doctors(ctx context.Context) ([]model.Doctor, error) {
	var out []model.Doctor
	err := d.r.Do(ctx, http.MethodGet, "/doctors", nil, nil, &out)
	return out, err
}

func (d *Directory) Doctor(ctx context.Context, id model.ID) (model.Doctor, error) {
	var out model.Doctor
	err := d.r.Do(ctx, http.MethodGet, "/doctors/"+seg(id), nil, nil, &out)
	return out, err
}

func (d *Directory) Patients(ctx context.Context) ([]model.Patient, error) {
	var out []model.Patient
	err := d.r.Do(ctx, http.MethodGet, "/patients", nil, nil, &out)
	return out, err
}

func (d *Directory) Patient(ctx context.Context, id model.ID) (model.Patient, error) {
	var out model.Patient
	err := d.r.Do(ctx, http.MethodGet, "/patients/"+seg(id), nil, nil, &out)
	return out, err
}

type Pharmacy struct{ r Requester }

func (p *Pharmacy) Medicines(ctx context.Context) ([]model.Medicine, error) {
	var out []model.Medicine
	err := p.r.Do(ctx, http.MethodGet, "/medicines", nil, nil, &out)
	return out, err
}

func (p *Pharmacy) Medicine(ctx context.Context, id model.ID) (model.Medicine, error) {
	var out model.Medicine
	err := p.r.Do(ctx, http.MethodGet, "/medicines/"+seg(id), nil, nil, &out)
	return out, err
}

func (p *Pharmacy) CreateMedicine(ctx context.Context, in model.MedicineInput) (model.Medicine, error) {
	var out model.Medicine
	err := p.r.Do(ctx, http.MethodPost, "/medicines", nil, in, &out)
	return out, err
}

func (p *Pharmacy) UpdateMedicine(ctx context.Context, id model.ID, in model.MedicineInput) (model.Medicine, error) {
	var out model.Medicine
	err := p.r.Do(ctx, http.MethodPut, "/medicines/"+seg(id), nil, in, &out)
	return out, err
}

func (p *Pharmacy) DeleteMedicine(ctx context.Context, id model.ID) error {
	return p.r.Do(ctx, http.MethodDelete, "/medicines/"+seg(id), nil, nil, nil)
}

func (p *Pharmacy) Prescriptions(ctx context.Context) ([]model.Prescription, error) {
	var out []model.Prescription
	err := p.r.Do(ctx, http.MethodGet, "/prescriptions", nil, nil, &out)
	return out, err
}

func (p *Pharmacy) Prescription(ctx context.Context, id model.ID) (model.Prescription, error) {
	var out model.Prescription
	err := p.r.Do(ctx, http.MethodGet, "/prescriptions/"+seg(id), nil, nil, &out)
	return out, err
}

func (p *Pharmacy) CreatePrescription(ctx context.Context, in model.PrescriptionInput) (model.Prescription, error) {
	var out model.Prescription
	err := p.r.Do(ctx, http.MethodPost, "/prescriptions", nil, in, &out)
	return out, err
}

func (p *Pharmacy) SetPrescriptionStatus(ctx context.Context, id model.ID, st model.PrescriptionStatus) (model.Prescription, error) {
	var out model.Prescription
	body := map[string]model.PrescriptionStatus{"status": st}
	err := p.r.Do(ctx, http.MethodPatch, "/prescriptions/"+seg(id)+"/status", nil, body, &out)
	return out, err
}

func (p *Pharmacy) Inventory(ctx context.Context) ([]model.InventoryItem, error) {
	var out []model.InventoryItem
	err := p.r.Do(ctx, http.MethodGet, "/inventory", nil, nil, &out)
	return out, err
}

func (p *Pharmacy) SetStock(ctx context.Context, medicineID model.ID, quantity int) (model.InventoryItem, error) {
	var out model.InventoryItem
	body := map[string]int{"quantity": quantity}
	err := p.r.Do(ctx, http.MethodPatch, "/inventory/"+seg(medicineID), nil, body, &out)
	return out, err
}
