package state

import (
	"context"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"clinic-console/internal/model"
	"clinic-console/internal/notify"
)

type fakePharmacy struct {
	medicines     []model.Medicine
	prescriptions []model.Prescription
	inventory     []model.InventoryItem
	reply         model.Medicine
	rxReply       model.Prescription
}

func (f *fakePharmacy) Medicines(context.Context) ([]model.Medicine, error) {
	return append([]model.Medicine(nil), f.medicines...), nil
}
func (f *fakePharmacy) Medicine(_ context.Context, id model.ID) (model.Medicine, error) {
	for _, m := range f.medicines {
		if m.ID == id {
			return m, nil
		}
	}
	return model.Medicine{}, nil
}
func (f *fakePharmacy) CreateMedicine(context.Context, model.MedicineInput) (model.Medicine, error) {
	return f.reply, nil
}
func (f *fakePharmacy) UpdateMedicine(context.Context, model.ID, model.MedicineInput) (model.Medicine, error) {
	return f.reply, nil
}
func (f *fakePharmacy) DeleteMedicine(context.Context, model.ID) error { return nil }
func (f *fakePharmacy) Prescriptions(context.Context) ([]model.Prescription, error) {
	return append([]model.Prescription(nil), f.prescriptions...), nil
}
func (f *fakePharmacy) Prescription(_ context.Context, id model.ID) (model.Prescription, error) {
	return model.Prescription{ID: id}, nil
}
func (f *fakePharmacy) CreatePrescription(context.Context, model.PrescriptionInput) (model.Prescription, error) {
	return f.rxReply, nil
}
func (f *fakePharmacy) SetPrescriptionStatus(context.Context, model.ID, model.PrescriptionStatus) (model.Prescription, error) {
	return f.rxReply, nil
}
func (f *fakePharmacy) Inventory(context.Context) ([]model.InventoryItem, error) {
	return append([]model.InventoryItem(nil), f.inventory...), nil
}
func (f *fakePharmacy) SetStock(_ context.Context, id model.ID, _ int) (model.InventoryItem, error) {
	// answers with a stale quantity; the store must keep what was sent
	return model.InventoryItem{MedicineID: id, Quantity: -1}, nil
}

func seedMedicines() []model.Medicine {
	return []model.Medicine{
		{ID: "1", Name: "Amoxicillin", Price: 2.5, Quantity: 100},
		{ID: "2", Name: "Ibuprofen", Price: 1, Quantity: 4},
		{ID: "3", Name: "Insulin", Price: 30, Quantity: 8},
	}
}

func newPharmacy(t *testing.T, f *fakePharmacy) (*Pharmacy, *notify.Queue) {
	t.Helper()
	q := &notify.Queue{}
	s := NewPharmacy(f, q, zerolog.Nop())
	ctx := context.Background()
	if err := s.FetchMedicines(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.FetchPrescriptions(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.FetchInventory(ctx); err != nil {
		t.Fatal(err)
	}
	return s, q
}

func TestMedicineLifecycle(t *testing.T) {
	f := &fakePharmacy{medicines: seedMedicines()}
	s, q := newPharmacy(t, f)
	ctx := context.Background()

	f.reply = model.Medicine{ID: "4", Name: "Cetirizine", Price: 0.5, Quantity: 50}
	if _, err := s.CreateMedicine(ctx, model.MedicineInput{Name: "Cetirizine"}); err != nil {
		t.Fatal(err)
	}
	if got := s.Medicines(); len(got) != 4 || got[3].ID != "4" {
		t.Fatalf("after create: %+v", got)
	}

	if err := s.GetMedicine(ctx, "2"); err != nil {
		t.Fatal(err)
	}
	f.reply = model.Medicine{ID: "2", Name: "Ibuprofen 400", Price: 1.2, Quantity: 4}
	if err := s.UpdateMedicine(ctx, "2", model.MedicineInput{Name: "Ibuprofen 400"}); err != nil {
		t.Fatal(err)
	}
	want := append(seedMedicines(), model.Medicine{ID: "4", Name: "Cetirizine", Price: 0.5, Quantity: 50})
	want[1] = f.reply
	if got := s.Medicines(); !reflect.DeepEqual(got, want) {
		t.Fatalf("after update: %+v", got)
	}
	if sel, _ := s.SelectedMedicine(); sel.Name != "Ibuprofen 400" {
		t.Fatalf("selected = %+v", sel)
	}

	if err := s.DeleteMedicine(ctx, "2"); err != nil {
		t.Fatal(err)
	}
	got := s.Medicines()
	if len(got) != 3 {
		t.Fatalf("after delete: %+v", got)
	}
	for _, m := range got {
		if m.ID == "2" {
			t.Fatal("deleted medicine still present")
		}
	}
	if _, ok := s.SelectedMedicine(); ok {
		t.Fatal("selected medicine survived delete")
	}

	var msgs []string
	for _, n := range q.Drain() {
		msgs = append(msgs, n.Message)
	}
	wantMsgs := []string{"Medicine created successfully", "Medicine updated successfully", "Medicine deleted successfully"}
	if !reflect.DeepEqual(msgs, wantMsgs) {
		t.Fatalf("notices = %v", msgs)
	}
}

func TestSetStockUsesRequestedQuantity(t *testing.T) {
	f := &fakePharmacy{
		medicines: seedMedicines(),
		inventory: []model.InventoryItem{{MedicineID: "1", Quantity: 100}, {MedicineID: "2", Quantity: 4}},
	}
	s, _ := newPharmacy(t, f)

	if err := s.SetStock(context.Background(), "2", 60); err != nil {
		t.Fatal(err)
	}
	want := seedMedicines()
	want[1].Quantity = 60
	if got := s.Medicines(); !reflect.DeepEqual(got, want) {
		t.Fatalf("medicines = %+v", got)
	}
	if inv := s.Inventory(); inv[1].Quantity != 60 || inv[0].Quantity != 100 {
		t.Fatalf("inventory = %+v", inv)
	}
}

func TestPharmacyDerived(t *testing.T) {
	f := &fakePharmacy{
		medicines: seedMedicines(),
		prescriptions: []model.Prescription{
			{ID: "1", Status: model.PrescriptionPending},
			{ID: "2", Status: model.PrescriptionDispensed},
			{ID: "3", Status: model.PrescriptionPending},
		},
	}
	s, _ := newPharmacy(t, f)

	if n := s.LowStock(); n != 2 {
		t.Fatalf("low stock = %d", n)
	}
	if v := s.InventoryValue(); v != 250+4+240 {
		t.Fatalf("inventory value = %v", v)
	}
	if n := s.PendingPrescriptions(); n != 2 {
		t.Fatalf("pending = %d", n)
	}

	f.rxReply = model.Prescription{ID: "3", Status: model.PrescriptionDispensed}
	if err := s.Dispense(context.Background(), "3"); err != nil {
		t.Fatal(err)
	}
	if n := s.PendingPrescriptions(); n != 1 {
		t.Fatalf("pending after dispense = %d", n)
	}
	if rx := s.Prescriptions(); rx[2].Status != model.PrescriptionDispensed || len(rx) != 3 {
		t.Fatalf("prescriptions = %+v", rx)
	}
}

type fakeUsers struct {
	users []model.User
	reply model.User
}

func (f *fakeUsers) List(context.Context) ([]model.User, error) {
	return append([]model.User(nil), f.users...), nil
}
func (f *fakeUsers) Get(_ context.Context, id model.ID) (model.User, error) {
	for _, u := range f.users {
		if u.UserID == id {
			return u, nil
		}
	}
	return model.User{}, nil
}
func (f *fakeUsers) Update(context.Context, model.ID, model.UserUpdate) (model.User, error) {
	return f.reply, nil
}
func (f *fakeUsers) Delete(context.Context, model.ID) error { return nil }

func TestUsers(t *testing.T) {
	f := &fakeUsers{users: []model.User{
		{UserID: "a", Username: "admin", Role: model.RoleAdmin},
		{UserID: "b", Username: "doc", Role: model.RoleDoctor},
		{UserID: "c", Username: "pat", Role: model.RolePatient},
		{UserID: "d", Username: "pat2", Role: model.RolePatient},
	}}
	s := NewUsers(f, nil, zerolog.Nop())
	ctx := context.Background()
	if err := s.Fetch(ctx); err != nil {
		t.Fatal(err)
	}
	if c := s.CountByRole(); c[model.RolePatient] != 2 || c[model.RoleDoctor] != 1 {
		t.Fatalf("counts = %v", c)
	}
	if err := s.Get(ctx, "b"); err != nil {
		t.Fatal(err)
	}

	f.reply = model.User{UserID: "b", Username: "doc", Email: "doc@clinic.test", Role: model.RoleDoctor}
	if err := s.Update(ctx, "b", model.UserUpdate{Email: "doc@clinic.test"}); err != nil {
		t.Fatal(err)
	}
	if got := s.Items(); got[1].Email != "doc@clinic.test" || got[0].UserID != "a" || got[2].UserID != "c" {
		t.Fatalf("items = %+v", got)
	}
	if sel, _ := s.Selected(); sel.Email != "doc@clinic.test" {
		t.Fatalf("selected = %+v", sel)
	}

	if err := s.Delete(ctx, "c"); err != nil {
		t.Fatal(err)
	}
	if got := s.Items(); len(got) != 3 || got[2].UserID != "d" {
		t.Fatalf("after delete = %+v", got)
	}
	s.ClearSelected()
	if _, ok := s.Selected(); ok {
		t.Fatal("selected not cleared")
	}
}
