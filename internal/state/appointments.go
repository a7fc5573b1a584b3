package state

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"clinic-console/internal/model"
	"clinic-console/internal/notify"
)

type AppointmentsAPI interface {
	List(ctx context.Context) ([]model.Appointment, error)
	Get(ctx context.Context, id model.ID) (model.Appointment, error)
	ByDoctor(ctx context.Context, doctorID model.ID) ([]model.Appointment, error)
	ByPatient(ctx context.Context, patientID model.ID) ([]model.Appointment, error)
	Create(ctx context.Context, in model.AppointmentRequest) (model.Appointment, error)
	Update(ctx context.Context, id model.ID, in model.AppointmentRequest) (model.Appointment, error)
	Cancel(ctx context.Context, id model.ID) error
	SetStatus(ctx context.Context, id model.ID, st model.AppointmentStatus) (model.Appointment, error)
	AvailableSlots(ctx context.Context, doctorID model.ID, date string) ([]model.Slot, error)
}

type DirectoryAPI interface {
	Doctors(ctx context.Context) ([]model.Doctor, error)
	Doctor(ctx context.Context, id model.ID) (model.Doctor, error)
	Patients(ctx context.Context) ([]model.Patient, error)
	Patient(ctx context.Context, id model.ID) (model.Patient, error)
}

// Appointments also carries the doctor and patient lists the booking and
// reception screens need.
type Appointments struct {
	*base
	api AppointmentsAPI
	dir DirectoryAPI

	items    []model.Appointment
	selected *model.Appointment
	doctors  []model.Doctor
	patients []model.Patient
	slots    []model.Slot
	doctor   *model.Doctor
	patient  *model.Patient
}

func NewAppointments(a AppointmentsAPI, dir DirectoryAPI, n notify.Notifier, log zerolog.Logger) *Appointments {
	return &Appointments{base: newBase("appointments", n, log), api: a, dir: dir}
}

func (s *Appointments) Items() []model.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.items)
}

func (s *Appointments) Selected() (model.Appointment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneOne(s.selected)
}

func (s *Appointments) Doctors() []model.Doctor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.doctors)
}

func (s *Appointments) Patients() []model.Patient {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.patients)
}

func (s *Appointments) Slots() []model.Slot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.slots)
}

func (s *Appointments) SelectedDoctor() (model.Doctor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneOne(s.doctor)
}

func (s *Appointments) SelectedPatient() (model.Patient, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneOne(s.patient)
}

// On returns the loaded appointments that fall on day.
func (s *Appointments) On(day time.Time) []model.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Filter(s.items, func(a model.Appointment, _ int) bool { return a.OnDay(day) })
}

// Upcoming returns scheduled appointments from the start of today on.
func (s *Appointments) Upcoming(now time.Time) []model.Appointment {
	y, m, d := now.In(time.Local).Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.Local)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Filter(s.items, func(a model.Appointment, _ int) bool {
		day, ok := a.Day()
		return ok && a.Status == model.StatusScheduled && !day.Before(today)
	})
}

func (s *Appointments) replace(as []model.Appointment) { replaceAll(&s.items, as) }

func (s *Appointments) Fetch(ctx context.Context) error {
	_, err := run(ctx, s.base, op{name: "fetchAppointments", fallback: "Failed to fetch appointments"},
		s.api.List, s.replace)
	return err
}

func (s *Appointments) Get(ctx context.Context, id model.ID) error {
	_, err := run(ctx, s.base, op{name: "fetchAppointment", fallback: "Failed to fetch appointment"},
		func(ctx context.Context) (model.Appointment, error) { return s.api.Get(ctx, id) },
		func(a model.Appointment) { s.selected = &a })
	return err
}

// FetchByDoctor replaces the collection with one doctor's appointments.
func (s *Appointments) FetchByDoctor(ctx context.Context, doctorID model.ID) error {
	_, err := run(ctx, s.base, op{name: "fetchByDoctor", fallback: "Failed to fetch appointments"},
		func(ctx context.Context) ([]model.Appointment, error) { return s.api.ByDoctor(ctx, doctorID) },
		s.replace)
	return err
}

// FetchByPatient replaces the collection with one patient's appointments.
func (s *Appointments) FetchByPatient(ctx context.Context, patientID model.ID) error {
	_, err := run(ctx, s.base, op{name: "fetchByPatient", fallback: "Failed to fetch appointments"},
		func(ctx context.Context) ([]model.Appointment, error) { return s.api.ByPatient(ctx, patientID) },
		s.replace)
	return err
}

func (s *Appointments) Create(ctx context.Context, in model.AppointmentRequest) (model.Appointment, error) {
	return run(ctx, s.base, op{name: "createAppointment", fallback: "Failed to create appointment", success: "Appointment booked successfully"},
		func(ctx context.Context) (model.Appointment, error) { return s.api.Create(ctx, in) },
		func(a model.Appointment) { appendCreated(&s.items, a) })
}

func (s *Appointments) applyUpdate(id model.ID) func(model.Appointment) {
	return func(a model.Appointment) {
		if a.ID == "" {
			a.ID = id
		}
		replaceByResponse(&s.items, a)
		syncSelected(&s.selected, a)
	}
}

func (s *Appointments) Update(ctx context.Context, id model.ID, in model.AppointmentRequest) error {
	_, err := run(ctx, s.base, op{name: "updateAppointment", fallback: "Failed to update appointment", success: "Appointment updated successfully"},
		func(ctx context.Context) (model.Appointment, error) { return s.api.Update(ctx, id, in) },
		s.applyUpdate(id))
	return err
}

func (s *Appointments) SetStatus(ctx context.Context, id model.ID, st model.AppointmentStatus) error {
	_, err := run(ctx, s.base, op{name: "updateAppointmentStatus", fallback: "Failed to update appointment status", success: "Appointment updated successfully"},
		func(ctx context.Context) (model.Appointment, error) { return s.api.SetStatus(ctx, id, st) },
		s.applyUpdate(id))
	return err
}

func (s *Appointments) CheckIn(ctx context.Context, id model.ID) error {
	return s.SetStatus(ctx, id, model.StatusInProgress)
}

func (s *Appointments) Complete(ctx context.Context, id model.ID) error {
	return s.SetStatus(ctx, id, model.StatusCompleted)
}

// Cancel marks the appointment named by id as cancelled. Only the status
// field changes and the response body is ignored.
func (s *Appointments) Cancel(ctx context.Context, id model.ID) error {
	return exec(ctx, s.base, op{name: "cancelAppointment", fallback: "Failed to cancel appointment", success: "Appointment cancelled successfully"},
		func(ctx context.Context) error { return s.api.Cancel(ctx, id) },
		func() {
			setCancelled := func(a *model.Appointment) { a.Status = model.StatusCancelled }
			patchByRequestKey(&s.items, id, setCancelled)
			if s.selected != nil && s.selected.ID == id {
				setCancelled(s.selected)
			}
		})
}

func (s *Appointments) FetchSlots(ctx context.Context, doctorID model.ID, date string) error {
	_, err := run(ctx, s.base, op{name: "fetchSlots", fallback: "Failed to fetch available slots"},
		func(ctx context.Context) ([]model.Slot, error) { return s.api.AvailableSlots(ctx, doctorID, date) },
		func(sl []model.Slot) { replaceAll(&s.slots, sl) })
	return err
}

func (s *Appointments) FetchDoctors(ctx context.Context) error {
	_, err := run(ctx, s.base, op{name: "fetchDoctors", fallback: "Failed to fetch doctors"},
		s.dir.Doctors, func(ds []model.Doctor) { replaceAll(&s.doctors, ds) })
	return err
}

func (s *Appointments) GetDoctor(ctx context.Context, id model.ID) error {
	_, err := run(ctx, s.base, op{name: "fetchDoctor", fallback: "Failed to fetch doctor"},
		func(ctx context.Context) (model.Doctor, error) { return s.dir.Doctor(ctx, id) },
		func(d model.Doctor) { s.doctor = &d })
	return err
}

func (s *Appointments) FetchPatients(ctx context.Context) error {
	_, err := run(ctx, s.base, op{name: "fetchPatients", fallback: "Failed to fetch patients"},
		s.dir.Patients, func(ps []model.Patient) { replaceAll(&s.patients, ps) })
	return err
}

func (s *Appointments) GetPatient(ctx context.Context, id model.ID) error {
	_, err := run(ctx, s.base, op{name: "fetchPatient", fallback: "Failed to fetch patient"},
		func(ctx context.Context) (model.Patient, error) { return s.dir.Patient(ctx, id) },
		func(p model.Patient) { s.patient = &p })
	return err
}
