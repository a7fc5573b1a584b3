package backend

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"

	"clinic-console/internal/model"
)

// Opening hours for bookable slots.
const (
	dayStart = 9 * time.Hour
	dayEnd   = 17 * time.Hour
	slotLen  = 30 * time.Minute
)

func (c *Clinic) Appointments() []model.Appointment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.appointments)
}

func (c *Clinic) Appointment(id model.ID) (model.Appointment, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := lo.Find(c.appointments, func(x model.Appointment) bool { return x.ID == id })
	if !ok {
		return model.Appointment{}, ErrNotFound
	}
	return a, nil
}

func (c *Clinic) AppointmentsWhere(fn func(model.Appointment) bool) []model.Appointment {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lo.Filter(c.appointments, func(a model.Appointment, _ int) bool { return fn(a) })
}

func validDate(d string) bool {
	_, err := time.Parse("2006-01-02", d)
	return err == nil
}

func validTime(t string) bool {
	_, err := time.Parse("15:04", t)
	return err == nil
}

// booked reports whether the doctor already has a live appointment at that
// date and time. skip excludes the appointment being edited.
func (c *Clinic) booked(doctorID model.ID, date, at string, skip model.ID) bool {
	return lo.ContainsBy(c.appointments, func(a model.Appointment) bool {
		return a.ID != skip && a.DoctorID == doctorID && a.Date == date && a.Time == at &&
			a.Status != model.StatusCancelled
	})
}

func (c *Clinic) CreateAppointment(in model.AppointmentRequest) (model.Appointment, error) {
	if in.PatientID == "" || in.DoctorID == "" {
		return model.Appointment{}, invalid("patientId and doctorId required")
	}
	if !validDate(in.Date) || !validTime(in.Time) {
		return model.Appointment{}, invalid("date must be YYYY-MM-DD and time HH:MM")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	doc, ok := c.account(in.DoctorID)
	if !ok || doc.Role != model.RoleDoctor {
		return model.Appointment{}, fmt.Errorf("%w: doctor not found", ErrNotFound)
	}
	pat, ok := c.account(in.PatientID)
	if !ok {
		return model.Appointment{}, fmt.Errorf("%w: patient not found", ErrNotFound)
	}
	if c.booked(in.DoctorID, in.Date, in.Time, "") {
		return model.Appointment{}, fmt.Errorf("%w: time conflicts with existing appointment", ErrConflict)
	}

	a := model.Appointment{
		ID:          c.next(),
		PatientID:   in.PatientID,
		PatientName: lo.CoalesceOrEmpty(in.PatientName, pat.Username),
		DoctorID:    in.DoctorID,
		DoctorName:  lo.CoalesceOrEmpty(in.DoctorName, doc.Username),
		Date:        in.Date,
		Time:        in.Time,
		Reason:      in.Reason,
		Status:      model.StatusScheduled,
	}
	c.appointments = append(c.appointments, a)
	return a, nil
}

func (c *Clinic) UpdateAppointment(id model.ID, in model.AppointmentRequest) (model.Appointment, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, i, ok := lo.FindIndexOf(c.appointments, func(x model.Appointment) bool { return x.ID == id })
	if !ok {
		return model.Appointment{}, ErrNotFound
	}
	a := c.appointments[i]
	if in.Date != "" {
		if !validDate(in.Date) {
			return model.Appointment{}, invalid("date must be YYYY-MM-DD")
		}
		a.Date = in.Date
	}
	if in.Time != "" {
		if !validTime(in.Time) {
			return model.Appointment{}, invalid("time must be HH:MM")
		}
		a.Time = in.Time
	}
	if in.DoctorID != "" {
		doc, ok := c.account(in.DoctorID)
		if !ok || doc.Role != model.RoleDoctor {
			return model.Appointment{}, fmt.Errorf("%w: doctor not found", ErrNotFound)
		}
		a.DoctorID, a.DoctorName = doc.UserID, doc.Username
	}
	if in.Reason != "" {
		a.Reason = in.Reason
	}
	if in.Status != "" {
		if !in.Status.Valid() {
			return model.Appointment{}, invalid("unknown status")
		}
		a.Status = in.Status
	}
	if c.booked(a.DoctorID, a.Date, a.Time, a.ID) && a.Status != model.StatusCancelled {
		return model.Appointment{}, fmt.Errorf("%w: time conflicts with existing appointment", ErrConflict)
	}
	c.appointments[i] = a
	return a, nil
}

func (c *Clinic) SetAppointmentStatus(id model.ID, st model.AppointmentStatus) (model.Appointment, error) {
	if !st.Valid() {
		return model.Appointment{}, invalid("unknown status")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, i, ok := lo.FindIndexOf(c.appointments, func(x model.Appointment) bool { return x.ID == id })
	if !ok {
		return model.Appointment{}, ErrNotFound
	}
	c.appointments[i].Status = st
	return c.appointments[i], nil
}

func (c *Clinic) CancelAppointment(id model.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, i, ok := lo.FindIndexOf(c.appointments, func(x model.Appointment) bool { return x.ID == id })
	if !ok {
		return ErrNotFound
	}
	if c.appointments[i].Status == model.StatusCompleted {
		return invalid("completed appointments cannot be cancelled")
	}
	c.appointments[i].Status = model.StatusCancelled
	return nil
}

// Slots lists the half-hour slots of a working day for one doctor.
func (c *Clinic) Slots(doctorID model.ID, date string) ([]model.Slot, error) {
	if !validDate(date) {
		return nil, invalid("date must be YYYY-MM-DD")
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if a, ok := c.account(doctorID); !ok || a.Role != model.RoleDoctor {
		return nil, fmt.Errorf("%w: doctor not found", ErrNotFound)
	}
	var out []model.Slot
	for t := dayStart; t < dayEnd; t += slotLen {
		at := fmt.Sprintf("%02d:%02d", int(t.Hours()), int(t.Minutes())%60)
		out = append(out, model.Slot{Time: at, Available: !c.booked(doctorID, date, at, "")})
	}
	return out, nil
}

func (c *Clinic) Medicines() []model.Medicine {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.medicines)
}

func (c *Clinic) Medicine(id model.ID) (model.Medicine, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := lo.Find(c.medicines, func(x model.Medicine) bool { return x.ID == id })
	if !ok {
		return model.Medicine{}, ErrNotFound
	}
	return m, nil
}

func checkMedicine(in model.MedicineInput) error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return invalid("name required")
	case in.Price < 0:
		return invalid("price must not be negative")
	case in.Quantity < 0:
		return invalid("quantity must not be negative")
	}
	return nil
}

func (c *Clinic) CreateMedicine(in model.MedicineInput) (model.Medicine, error) {
	if err := checkMedicine(in); err != nil {
		return model.Medicine{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	m := model.Medicine{
		ID:           c.next(),
		Name:         in.Name,
		Description:  in.Description,
		Price:        in.Price,
		Quantity:     in.Quantity,
		Manufacturer: in.Manufacturer,
	}
	c.medicines = append(c.medicines, m)
	return m, nil
}

func (c *Clinic) UpdateMedicine(id model.ID, in model.MedicineInput) (model.Medicine, error) {
	if err := checkMedicine(in); err != nil {
		return model.Medicine{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, i, ok := lo.FindIndexOf(c.medicines, func(x model.Medicine) bool { return x.ID == id })
	if !ok {
		return model.Medicine{}, ErrNotFound
	}
	c.medicines[i] = model.Medicine{
		ID:           id,
		Name:         in.Name,
		Description:  in.Description,
		Price:        in.Price,
		Quantity:     in.Quantity,
		Manufacturer: in.Manufacturer,
	}
	return c.medicines[i], nil
}

func (c *Clinic) DeleteMedicine(id model.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.medicines)
	c.medicines = lo.Reject(c.medicines, func(x model.Medicine, _ int) bool { return x.ID == id })
	if len(c.medicines) == n {
		return ErrNotFound
	}
	return nil
}

func (c *Clinic) Inventory() []model.InventoryItem {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lo.Map(c.medicines, func(m model.Medicine, _ int) model.InventoryItem {
		return model.InventoryItem{MedicineID: m.ID, Name: m.Name, Quantity: m.Quantity}
	})
}

func (c *Clinic) SetStock(id model.ID, quantity int) (model.InventoryItem, error) {
	if quantity < 0 {
		return model.InventoryItem{}, invalid("quantity must not be negative")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, i, ok := lo.FindIndexOf(c.medicines, func(x model.Medicine) bool { return x.ID == id })
	if !ok {
		return model.InventoryItem{}, ErrNotFound
	}
	c.medicines[i].Quantity = quantity
	m := c.medicines[i]
	return model.InventoryItem{MedicineID: m.ID, Name: m.Name, Quantity: m.Quantity}, nil
}

func (c *Clinic) Prescriptions() []model.Prescription {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.prescriptions)
}

func (c *Clinic) PrescriptionsWhere(fn func(model.Prescription) bool) []model.Prescription {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return lo.Filter(c.prescriptions, func(p model.Prescription, _ int) bool { return fn(p) })
}

func (c *Clinic) Prescription(id model.ID) (model.Prescription, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := lo.Find(c.prescriptions, func(x model.Prescription) bool { return x.ID == id })
	if !ok {
		return model.Prescription{}, ErrNotFound
	}
	return p, nil
}

func (c *Clinic) CreatePrescription(in model.PrescriptionInput) (model.Prescription, error) {
	if in.PatientID == "" || len(in.Medicines) == 0 {
		return model.Prescription{}, invalid("patientId and medicines required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	pat, ok := c.account(in.PatientID)
	if !ok || pat.Role != model.RolePatient {
		return model.Prescription{}, fmt.Errorf("%w: patient not found", ErrNotFound)
	}
	doctorName := in.DoctorName
	if doc, ok := c.account(in.DoctorID); ok && doctorName == "" {
		doctorName = doc.Username
	}
	p := model.Prescription{
		ID:          c.next(),
		PatientID:   in.PatientID,
		PatientName: lo.CoalesceOrEmpty(in.PatientName, pat.Username),
		DoctorID:    in.DoctorID,
		DoctorName:  doctorName,
		Medicines:   slices.Clone(in.Medicines),
		Date:        lo.CoalesceOrEmpty(in.Date, c.now().Format("2006-01-02")),
		Status:      model.PrescriptionPending,
	}
	c.prescriptions = append(c.prescriptions, p)
	return p, nil
}

// SetPrescriptionStatus moves a prescription along. Dispensing takes one unit
// of every listed medicine that is in stock.
func (c *Clinic) SetPrescriptionStatus(id model.ID, st model.PrescriptionStatus) (model.Prescription, error) {
	if !st.Valid() {
		return model.Prescription{}, invalid("unknown status")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, i, ok := lo.FindIndexOf(c.prescriptions, func(x model.Prescription) bool { return x.ID == id })
	if !ok {
		return model.Prescription{}, ErrNotFound
	}
	p := &c.prescriptions[i]
	if p.Status != model.PrescriptionPending && st != p.Status {
		return model.Prescription{}, invalid("prescription is already " + string(p.Status))
	}
	if st == model.PrescriptionDispensed && p.Status == model.PrescriptionPending {
		for _, name := range p.Medicines {
			_, j, ok := lo.FindIndexOf(c.medicines, func(m model.Medicine) bool { return strings.EqualFold(m.Name, name) })
			if ok && c.medicines[j].Quantity > 0 {
				c.medicines[j].Quantity--
			}
		}
	}
	p.Status = st
	return *p, nil
}
