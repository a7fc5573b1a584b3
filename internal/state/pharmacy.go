package state

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"clinic-console/internal/model"
	"clinic-console/internal/notify"
)

type PharmacyAPI interface {
	Medicines(ctx context.Context) ([]model.Medicine, error)
	Medicine(ctx context.Context, id model.ID) (model.Medicine, error)
	CreateMedicine(ctx context.Context, in model.MedicineInput) (model.Medicine, error)
	UpdateMedicine(ctx context.Context, id model.ID, in model.MedicineInput) (model.Medicine, error)
	DeleteMedicine(ctx context.Context, id model.ID) error
	Prescriptions(ctx context.Context) ([]model.Prescription, error)
	Prescription(ctx context.Context, id model.ID) (model.Prescription, error)
	CreatePrescription(ctx context.Context, in model.PrescriptionInput) (model.Prescription, error)
	SetPrescriptionStatus(ctx context.Context, id model.ID, st model.PrescriptionStatus) (model.Prescription, error)
	Inventory(ctx context.Context) ([]model.InventoryItem, error)
	SetStock(ctx context.Context, medicineID model.ID, quantity int) (model.InventoryItem, error)
}

type Pharmacy struct {
	*base
	api PharmacyAPI

	medicines            []model.Medicine
	selectedMedicine     *model.Medicine
	prescriptions        []model.Prescription
	selectedPrescription *model.Prescription
	inventory            []model.InventoryItem
}

func NewPharmacy(a PharmacyAPI, n notify.Notifier, log zerolog.Logger) *Pharmacy {
	return &Pharmacy{base: newBase("pharmacy", n, log), api: a}
}

func (s *Pharmacy) Medicines() []model.Medicine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.medicines)
}

func (s *Pharmacy) SelectedMedicine() (model.Medicine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneOne(s.selectedMedicine)
}

func (s *Pharmacy) Prescriptions() []model.Prescription {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.prescriptions)
}

func (s *Pharmacy) SelectedPrescription() (model.Prescription, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneOne(s.selectedPrescription)
}

func (s *Pharmacy) Inventory() []model.InventoryItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.inventory)
}

func (s *Pharmacy) ClearSelectedMedicine() {
	s.mu.Lock()
	s.selectedMedicine = nil
	s.mu.Unlock()
}

func (s *Pharmacy) ClearSelectedPrescription() {
	s.mu.Lock()
	s.selectedPrescription = nil
	s.mu.Unlock()
}

func (s *Pharmacy) LowStock() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.LowStockCount(s.medicines)
}

func (s *Pharmacy) InventoryValue() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.InventoryValue(s.medicines)
}

func (s *Pharmacy) PendingPrescriptions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.CountBy(s.prescriptions, func(p model.Prescription) bool {
		return p.Status == model.PrescriptionPending
	})
}

func (s *Pharmacy) FetchMedicines(ctx context.Context) error {
	_, err := run(ctx, s.base, op{name: "fetchMedicines", fallback: "Failed to fetch medicines"},
		s.api.Medicines, func(ms []model.Medicine) { replaceAll(&s.medicines, ms) })
	return err
}

func (s *Pharmacy) GetMedicine(ctx context.Context, id model.ID) error {
	_, err := run(ctx, s.base, op{name: "fetchMedicine", fallback: "Failed to fetch medicine"},
		func(ctx context.Context) (model.Medicine, error) { return s.api.Medicine(ctx, id) },
		func(m model.Medicine) { s.selectedMedicine = &m })
	return err
}

func (s *Pharmacy) CreateMedicine(ctx context.Context, in model.MedicineInput) (model.Medicine, error) {
	return run(ctx, s.base, op{name: "createMedicine", fallback: "Failed to create medicine", success: "Medicine created successfully"},
		func(ctx context.Context) (model.Medicine, error) { return s.api.CreateMedicine(ctx, in) },
		func(m model.Medicine) { appendCreated(&s.medicines, m) })
}

func (s *Pharmacy) UpdateMedicine(ctx context.Context, id model.ID, in model.MedicineInput) error {
	_, err := run(ctx, s.base, op{name: "updateMedicine", fallback: "Failed to update medicine", success: "Medicine updated successfully"},
		func(ctx context.Context) (model.Medicine, error) { return s.api.UpdateMedicine(ctx, id, in) },
		func(m model.Medicine) {
			if m.ID == "" {
				m.ID = id
			}
			replaceByResponse(&s.medicines, m)
			syncSelected(&s.selectedMedicine, m)
		})
	return err
}

func (s *Pharmacy) DeleteMedicine(ctx context.Context, id model.ID) error {
	return exec(ctx, s.base, op{name: "deleteMedicine", fallback: "Failed to delete medicine", success: "Medicine deleted successfully"},
		func(ctx context.Context) error { return s.api.DeleteMedicine(ctx, id) },
		func() {
			removeByKey(&s.medicines, id)
			removeByKey(&s.inventory, id)
			if s.selectedMedicine != nil && s.selectedMedicine.ID == id {
				s.selectedMedicine = nil
			}
		})
}

func (s *Pharmacy) FetchPrescriptions(ctx context.Context) error {
	_, err := run(ctx, s.base, op{name: "fetchPrescriptions", fallback: "Failed to fetch prescriptions"},
		s.api.Prescriptions, func(ps []model.Prescription) { replaceAll(&s.prescriptions, ps) })
	return err
}

func (s *Pharmacy) GetPrescription(ctx context.Context, id model.ID) error {
	_, err := run(ctx, s.base, op{name: "fetchPrescription", fallback: "Failed to fetch prescription"},
		func(ctx context.Context) (model.Prescription, error) { return s.api.Prescription(ctx, id) },
		func(p model.Prescription) { s.selectedPrescription = &p })
	return err
}

func (s *Pharmacy) CreatePrescription(ctx context.Context, in model.PrescriptionInput) (model.Prescription, error) {
	return run(ctx, s.base, op{name: "createPrescription", fallback: "Failed to create prescription", success: "Prescription created successfully"},
		func(ctx context.Context) (model.Prescription, error) { return s.api.CreatePrescription(ctx, in) },
		func(p model.Prescription) { appendCreated(&s.prescriptions, p) })
}

func (s *Pharmacy) SetPrescriptionStatus(ctx context.Context, id model.ID, st model.PrescriptionStatus) error {
	_, err := run(ctx, s.base, op{name: "updatePrescriptionStatus", fallback: "Failed to update prescription"},
		func(ctx context.Context) (model.Prescription, error) { return s.api.SetPrescriptionStatus(ctx, id, st) },
		func(p model.Prescription) {
			if p.ID == "" {
				p.ID = id
			}
			replaceByResponse(&s.prescriptions, p)
			syncSelected(&s.selectedPrescription, p)
		})
	return err
}

func (s *Pharmacy) Dispense(ctx context.Context, id model.ID) error {
	return s.SetPrescriptionStatus(ctx, id, model.PrescriptionDispensed)
}

func (s *Pharmacy) FetchInventory(ctx context.Context) error {
	_, err := run(ctx, s.base, op{name: "fetchInventory", fallback: "Failed to fetch inventory"},
		s.api.Inventory, func(items []model.InventoryItem) { replaceAll(&s.inventory, items) })
	return err
}

// SetStock records a new quantity for the medicine named by medicineID. The
// quantity sent is what lands in the read model.
func (s *Pharmacy) SetStock(ctx context.Context, medicineID model.ID, quantity int) error {
	_, err := run(ctx, s.base, op{name: "updateInventory", fallback: "Failed to update inventory", success: "Inventory updated successfully"},
		func(ctx context.Context) (model.InventoryItem, error) { return s.api.SetStock(ctx, medicineID, quantity) },
		func(model.InventoryItem) {
			patchByRequestKey(&s.medicines, medicineID, func(m *model.Medicine) { m.Quantity = quantity })
			patchByRequestKey(&s.inventory, medicineID, func(i *model.InventoryItem) { i.Quantity = quantity })
			if s.selectedMedicine != nil && s.selectedMedicine.ID == medicineID {
				s.selectedMedicine.Quantity = quantity
			}
		})
	return err
}
