package model

import "github.com/samber/lo"

// LowStockThreshold is the quantity below which a medicine counts as low stock.
const LowStockThreshold = 10

type Medicine struct {
	ID           ID      `json:"id"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	Quantity     int     `json:"quantity"`
	Manufacturer string  `json:"manufacturer"`
}

func (m Medicine) Key() ID { return m.ID }

func (m Medicine) LowStock() bool { return m.Quantity < LowStockThreshold }

// MedicineInput is the body of POST /medicines and PUT /medicines/{id}.
type MedicineInput struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	Quantity     int     `json:"quantity"`
	Manufacturer string  `json:"manufacturer"`
}

// LowStockCount counts medicines under LowStockThreshold.
func LowStockCount(ms []Medicine) int {
	return lo.CountBy(ms, Medicine.LowStock)
}

// InventoryValue sums price times quantity over all medicines.
func InventoryValue(ms []Medicine) float64 {
	return lo.SumBy(ms, func(m Medicine) float64 {
		return m.Price * float64(m.Quantity)
	})
}

type PrescriptionStatus string

const (
	PrescriptionPending   PrescriptionStatus = "pending"
	PrescriptionDispensed PrescriptionStatus = "dispensed"
	PrescriptionCancelled PrescriptionStatus = "cancelled"
)

func (s PrescriptionStatus) Valid() bool {
	switch s {
	case PrescriptionPending, PrescriptionDispensed, PrescriptionCancelled:
		return true
	}
	return false
}

type Prescription struct {
	ID          ID                 `json:"id"`
	PatientID   ID                 `json:"patientId"`
	PatientName string             `json:"patientName"`
	DoctorID    ID                 `json:"doctorId"`
	DoctorName  string             `json:"doctorName"`
	Medicines   []string           `json:"medicines"`
	Date        string             `json:"date"`
	Status      PrescriptionStatus `json:"status"`
}

func (p Prescription) Key() ID { return p.ID }

// PrescriptionInput is the body of POST /prescriptions.
type PrescriptionInput struct {
	PatientID   ID       `json:"patientId"`
	PatientName string   `json:"patientName,omitempty"`
	DoctorID    ID       `json:"doctorId,omitempty"`
	DoctorName  string   `json:"doctorName,omitempty"`
	Medicines   []string `json:"medicines"`
	Date        string   `json:"date,omitempty"`
}

// InventoryItem is one row of GET /inventory.
type InventoryItem struct {
	MedicineID ID     `json:"medicineId"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
}

func (i InventoryItem) Key() ID { return i.MedicineID }
