package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"clinic-console/internal/model"
)

func (h *Handler) ListMedicines(c echo.Context) error {
	return c.JSON(http.StatusOK, h.clinic.Medicines())
}

func (h *Handler) GetMedicine(c echo.Context) error {
	m, err := h.clinic.Medicine(idParam(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) CreateMedicine(c echo.Context) error {
	var req model.MedicineInput
	if err := bind(c, &req); err != nil {
		return err
	}
	m, err := h.clinic.CreateMedicine(req)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) UpdateMedicine(c echo.Context) error {
	var req model.MedicineInput
	if err := bind(c, &req); err != nil {
		return err
	}
	m, err := h.clinic.UpdateMedicine(idParam(c), req)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) DeleteMedicine(c echo.Context) error {
	if err := h.clinic.DeleteMedicine(idParam(c)); err != nil {
		return fail(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListPrescriptions shows patients only their own prescriptions.
func (h *Handler) ListPrescriptions(c echo.Context) error {
	cl := caller(c.Request().Context())
	if has(cl, model.RoleAdmin, model.RoleDoctor, model.RolePharmacist, model.RoleReceptionist) {
		return c.JSON(http.StatusOK, h.clinic.Prescriptions())
	}
	me := model.ID(cl.UserID)
	return c.JSON(http.StatusOK, h.clinic.PrescriptionsWhere(func(p model.Prescription) bool {
		return p.PatientID == me
	}))
}

func (h *Handler) GetPrescription(c echo.Context) error {
	p, err := h.clinic.Prescription(idParam(c))
	if err != nil {
		return fail(err)
	}
	if !ownsPatient(c, p.PatientID) {
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) CreatePrescription(c echo.Context) error {
	var req model.PrescriptionInput
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.DoctorID == "" {
		req.DoctorID = model.ID(caller(c.Request().Context()).UserID)
	}
	p, err := h.clinic.CreatePrescription(req)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) SetPrescriptionStatus(c echo.Context) error {
	var req struct {
		Status model.PrescriptionStatus `json:"status"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}
	p, err := h.clinic.SetPrescriptionStatus(idParam(c), req.Status)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Inventory(c echo.Context) error {
	return c.JSON(http.StatusOK, h.clinic.Inventory())
}

func (h *Handler) SetStock(c echo.Context) error {
	var req struct {
		Quantity *int `json:"quantity"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}
	if req.Quantity == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "quantity required")
	}
	item, err := h.clinic.SetStock(idParam(c), *req.Quantity)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, item)
}
