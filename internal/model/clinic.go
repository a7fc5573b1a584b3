package model

import (
	"encoding/json"
	"time"
)

type AppointmentStatus string

const (
	StatusScheduled  AppointmentStatus = "scheduled"
	StatusInProgress AppointmentStatus = "in-progress"
	StatusCompleted  AppointmentStatus = "completed"
	StatusCancelled  AppointmentStatus = "cancelled"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Appointment struct {
	ID          ID                `json:"id"`
	PatientID   ID                `json:"patientId"`
	PatientName string            `json:"patientName"`
	DoctorID    ID                `json:"doctorId"`
	DoctorName  string            `json:"doctorName"`
	Date        string            `json:"date"`
	Time        string            `json:"time"`
	Reason      string            `json:"reason"`
	Status      AppointmentStatus `json:"status"`
}

func (a Appointment) Key() ID { return a.ID }

const dateLayout = "2006-01-02"

// Day parses Date as a calendar day. Full timestamps are accepted too.
func (a Appointment) Day() (time.Time, bool) {
	if t, err := time.ParseInLocation(dateLayout, a.Date, time.Local); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, a.Date); err == nil {
		return t.In(time.Local), true
	}
	return time.Time{}, false
}

// OnDay reports whether the appointment falls on the same calendar day as t.
func (a Appointment) OnDay(t time.Time) bool {
	d, ok := a.Day()
	if !ok {
		return false
	}
	y1, m1, d1 := d.Date()
	y2, m2, d2 := t.In(time.Local).Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// AppointmentRequest is the body of POST /appointments and PUT /appointments/{id}.
type AppointmentRequest struct {
	PatientID   ID                `json:"patientId,omitempty"`
	PatientName string            `json:"patientName,omitempty"`
	DoctorID    ID                `json:"doctorId,omitempty"`
	DoctorName  string            `json:"doctorName,omitempty"`
	Date        string            `json:"date,omitempty"`
	Time        string            `json:"time,omitempty"`
	Reason      string            `json:"reason,omitempty"`
	Status      AppointmentStatus `json:"status,omitempty"`
}

type Doctor struct {
	ID             ID     `json:"id"`
	Name           string `json:"name"`
	Username       string `json:"username,omitempty"`
	Specialization string `json:"specialization,omitempty"`
	Email          string `json:"email,omitempty"`
}

func (d Doctor) Key() ID { return d.ID }

// DisplayName falls back to the username when no name is set.
func (d Doctor) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.Username
}

type Patient struct {
	ID       ID     `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
	Age      int    `json:"age,omitempty"`
	Gender   string `json:"gender,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

func (p Patient) Key() ID { return p.ID }

func (p Patient) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Username
}

// Slot is one bookable time. The slots endpoint may answer with bare
// strings ("09:30") or objects.
type Slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

func (s *Slot) UnmarshalJSON(b []byte) error {
	var bare string
	if err := json.Unmarshal(b, &bare); err == nil {
		*s = Slot{Time: bare, Available: true}
		return nil
	}
	type plain Slot
	p := plain{Available: true}
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*s = Slot(p)
	return nil
}
