package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"clinic-console/internal/model"
)

// ownsPatient reports whether the caller may see patientID's records.
// Patients only see their own; everyone else sees all.
func ownsPatient(c echo.Context, patientID model.ID) bool {
	cl := caller(c.Request().Context())
	if has(cl, model.RoleAdmin, model.RoleDoctor, model.RoleReceptionist, model.RolePharmacist) {
		return true
	}
	return model.ID(cl.UserID) == patientID
}

func (h *Handler) ListAppointments(c echo.Context) error {
	return c.JSON(http.StatusOK, h.clinic.Appointments())
}

func (h *Handler) GetAppointment(c echo.Context) error {
	a, err := h.clinic.Appointment(idParam(c))
	if err != nil {
		return fail(err)
	}
	if !ownsPatient(c, a.PatientID) {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) AppointmentsByDoctor(c echo.Context) error {
	id := idParam(c)
	return c.JSON(http.StatusOK, h.clinic.AppointmentsWhere(func(a model.Appointment) bool {
		return a.DoctorID == id
	}))
}

func (h *Handler) AppointmentsByPatient(c echo.Context) error {
	id := idParam(c)
	if !ownsPatient(c, id) {
		return echo.NewHTTPError(http.StatusForbidden, "patients may only view their own appointments")
	}
	return c.JSON(http.StatusOK, h.clinic.AppointmentsWhere(func(a model.Appointment) bool {
		return a.PatientID == id
	}))
}

// CreateAppointment books a visit. A patient always books for themselves.
func (h *Handler) CreateAppointment(c echo.Context) error {
	var req model.AppointmentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	cl := caller(c.Request().Context())
	if !has(cl, model.RoleAdmin, model.RoleReceptionist, model.RoleDoctor) {
		req.PatientID = model.ID(cl.UserID)
	}
	a, err := h.clinic.CreateAppointment(req)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) UpdateAppointment(c echo.Context) error {
	var req model.AppointmentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	a, err := h.clinic.UpdateAppointment(idParam(c), req)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, a)
}

// CancelAppointment answers with a message only; clients must not expect
// the appointment back.
func (h *Handler) CancelAppointment(c echo.Context) error {
	id := idParam(c)
	a, err := h.clinic.Appointment(id)
	if err != nil {
		return fail(err)
	}
	if !ownsPatient(c, a.PatientID) {
		return echo.NewHTTPError(http.StatusForbidden, "not your appointment")
	}
	if err := h.clinic.CancelAppointment(id); err != nil {
		return fail(err)
	}
	return message(c, http.StatusOK, "Appointment cancelled")
}

func (h *Handler) SetAppointmentStatus(c echo.Context) error {
	var req struct {
		Status model.AppointmentStatus `json:"status"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}
	a, err := h.clinic.SetAppointmentStatus(idParam(c), req.Status)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) AvailableSlots(c echo.Context) error {
	doctorID := model.ID(c.QueryParam("doctorId"))
	date := c.QueryParam("date")
	if doctorID == "" || date == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "doctorId and date required")
	}
	slots, err := h.clinic.Slots(doctorID, date)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, slots)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	return c.JSON(http.StatusOK, h.clinic.Doctors())
}

func (h *Handler) GetDoctor(c echo.Context) error {
	d, err := h.clinic.Doctor(idParam(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) ListPatients(c echo.Context) error {
	return c.JSON(http.StatusOK, h.clinic.Patients())
}

func (h *Handler) GetPatient(c echo.Context) error {
	p, err := h.clinic.Patient(idParam(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, p)
}
