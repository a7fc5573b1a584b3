package state

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"runtime"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"google.golang.org/grpc/codes"

	"clinic-console/internal/model"
	"clinic-console/internal/notify"
	"clinic-console/internal/transport"
)

// fakeAppointments serves canned data and records nothing. gate, when set,
// blocks every call until it is closed.
type fakeAppointments struct {
	list     []model.Appointment
	created  model.Appointment
	updated  model.Appointment
	err      error
	gate     chan struct{}
}

func (f *fakeAppointments) wait() {
	if f.gate != nil {
		<-f.gate
	}
}

func (f *fakeAppointments) List(context.Context) ([]model.Appointment, error) {
	f.wait()
	if f.err != nil {
		return nil, f.err
	}
	return append([]model.Appointment(nil), f.list...), nil
}

func (f *fakeAppointments) Get(_ context.Context, id model.ID) (model.Appointment, error) {
	for _, a := range f.list {
		if a.ID == id {
			return a, nil
		}
	}
	return model.Appointment{}, &transport.Error{Code: codes.NotFound, HTTPStatus: http.StatusNotFound}
}

func (f *fakeAppointments) ByDoctor(_ context.Context, id model.ID) ([]model.Appointment, error) {
	var out []model.Appointment
	for _, a := range f.list {
		if a.DoctorID == id {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAppointments) ByPatient(_ context.Context, id model.ID) ([]model.Appointment, error) {
	var out []model.Appointment
	for _, a := range f.list {
		if a.PatientID == id {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAppointments) Create(context.Context, model.AppointmentRequest) (model.Appointment, error) {
	return f.created, f.err
}

func (f *fakeAppointments) Update(context.Context, model.ID, model.AppointmentRequest) (model.Appointment, error) {
	return f.updated, f.err
}

func (f *fakeAppointments) Cancel(context.Context, model.ID) error {
	return f.err
}

func (f *fakeAppointments) SetStatus(_ context.Context, _ model.ID, _ model.AppointmentStatus) (model.Appointment, error) {
	return f.updated, f.err
}

func (f *fakeAppointments) AvailableSlots(context.Context, model.ID, string) ([]model.Slot, error) {
	return []model.Slot{{Time: "09:00", Available: true}}, nil
}

type fakeDirectory struct{}

func (fakeDirectory) Doctors(context.Context) ([]model.Doctor, error) {
	return []model.Doctor{{ID: "2", Name: "Dr. Ada"}}, nil
}
func (fakeDirectory) Doctor(_ context.Context, id model.ID) (model.Doctor, error) {
	return model.Doctor{ID: id}, nil
}
func (fakeDirectory) Patients(context.Context) ([]model.Patient, error) {
	return []model.Patient{{ID: "4"}, {ID: "5"}}, nil
}
func (fakeDirectory) Patient(_ context.Context, id model.ID) (model.Patient, error) {
	return model.Patient{ID: id}, nil
}

func seedAppointments() []model.Appointment {
	return []model.Appointment{
		{ID: "5", PatientID: "4", DoctorID: "2", Date: "2026-10-15", Time: "09:00", Reason: "checkup", Status: model.StatusScheduled},
		{ID: "7", PatientID: "4", DoctorID: "3", Date: "2026-10-16", Time: "10:30", Reason: "follow-up", Status: model.StatusScheduled},
		{ID: "9", PatientID: "6", DoctorID: "2", Date: "2026-10-17", Time: "11:00", Reason: "x-ray", Status: model.StatusCompleted},
	}
}

func newAppointments(t *testing.T, f *fakeAppointments) (*Appointments, *notify.Queue) {
	t.Helper()
	q := &notify.Queue{}
	s := NewAppointments(f, fakeDirectory{}, q, zerolog.Nop())
	if err := s.Fetch(context.Background()); err != nil && f.err == nil {
		t.Fatalf("fetch: %v", err)
	}
	q.Drain()
	return s, q
}

func TestCreateAppendsOne(t *testing.T) {
	f := &fakeAppointments{list: seedAppointments(), created: model.Appointment{ID: "42", Status: model.StatusScheduled}}
	s, q := newAppointments(t, f)

	got, err := s.Create(context.Background(), model.AppointmentRequest{DoctorID: "2"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	items := s.Items()
	if len(items) != 4 {
		t.Fatalf("len = %d, want 4", len(items))
	}
	if items[3].ID != "42" || got.ID != "42" {
		t.Fatalf("last = %+v", items[3])
	}
	notes := q.Drain()
	if len(notes) != 1 || notes[0].Message != "Appointment booked successfully" {
		t.Fatalf("notices = %+v", notes)
	}
}

func TestUpdateReplacesInPlace(t *testing.T) {
	f := &fakeAppointments{list: seedAppointments()}
	s, _ := newAppointments(t, f)
	if err := s.Get(context.Background(), "7"); err != nil {
		t.Fatalf("get: %v", err)
	}

	f.updated = model.Appointment{ID: "7", PatientID: "4", DoctorID: "3", Date: "2026-10-20", Time: "08:00", Reason: "moved", Status: model.StatusScheduled}
	if err := s.Update(context.Background(), "7", model.AppointmentRequest{Date: "2026-10-20"}); err != nil {
		t.Fatalf("update: %v", err)
	}

	want := seedAppointments()
	want[1] = f.updated
	if got := s.Items(); !reflect.DeepEqual(got, want) {
		t.Fatalf("items = %+v\nwant %+v", got, want)
	}
	sel, ok := s.Selected()
	if !ok || sel.Date != "2026-10-20" {
		t.Fatalf("selected = %+v", sel)
	}
}

func TestScopedFetchReplaces(t *testing.T) {
	f := &fakeAppointments{list: seedAppointments()}
	s, _ := newAppointments(t, f)

	if err := s.FetchByDoctor(context.Background(), "2"); err != nil {
		t.Fatalf("by doctor: %v", err)
	}
	if got := s.Items(); len(got) != 2 || got[0].ID != "5" || got[1].ID != "9" {
		t.Fatalf("items = %+v", got)
	}
	if err := s.FetchByPatient(context.Background(), "6"); err != nil {
		t.Fatalf("by patient: %v", err)
	}
	if got := s.Items(); len(got) != 1 || got[0].ID != "9" {
		t.Fatalf("items = %+v", got)
	}
}

func TestFetchIdempotent(t *testing.T) {
	f := &fakeAppointments{list: seedAppointments()}
	s, _ := newAppointments(t, f)
	first := s.Items()
	if err := s.Fetch(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if second := s.Items(); !reflect.DeepEqual(first, second) {
		t.Fatalf("fetch not idempotent:\n%+v\n%+v", first, second)
	}
}

func TestRejectedRecordsMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "server message",
			err:  &transport.Error{Code: codes.FailedPrecondition, HTTPStatus: 422, Message: "Doctor is not available"},
			want: "Doctor is not available",
		},
		{
			name: "server failure without message",
			err:  &transport.Error{Code: codes.Internal, HTTPStatus: 500},
			want: "Failed to create appointment",
		},
		{
			name: "network",
			err:  &transport.Error{Code: codes.Unavailable, Err: errors.New("connection refused")},
			want: "Failed to create appointment",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeAppointments{list: seedAppointments()}
			s, q := newAppointments(t, f)
			f.err = tt.err

			_, err := s.Create(context.Background(), model.AppointmentRequest{})
			var oe *OpError
			if !errors.As(err, &oe) || oe.Message != tt.want {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
			if s.Err() != tt.want {
				t.Fatalf("error slot = %q", s.Err())
			}
			if s.Op("createAppointment") != Rejected || s.Loading() {
				t.Fatalf("op=%v loading=%v", s.Op("createAppointment"), s.Loading())
			}
			if len(s.Items()) != 3 {
				t.Fatal("rejected create changed the collection")
			}
			n := q.Drain()
			if len(n) != 1 || n[0].Level != notify.Failure || n[0].Message != tt.want {
				t.Fatalf("notices = %+v", n)
			}

			s.ClearError()
			if s.Err() != "" {
				t.Fatal("ClearError left a message")
			}
		})
	}
}

func TestStaleResponseLeavesStateAlone(t *testing.T) {
	f := &fakeAppointments{list: seedAppointments()}
	s, q := newAppointments(t, f)
	f.err = transport.ErrStaleSession

	if err := s.Fetch(context.Background()); !errors.Is(err, transport.ErrStaleSession) {
		t.Fatalf("err = %v", err)
	}
	if s.Err() != "" || len(q.Drain()) != 0 || len(s.Items()) != 3 {
		t.Fatalf("stale response leaked into the store")
	}
	if s.Op("fetchAppointments") != Idle {
		t.Fatalf("op = %v", s.Op("fetchAppointments"))
	}
}

func TestLoadingDiscipline(t *testing.T) {
	f := &fakeAppointments{list: seedAppointments()}
	s, _ := newAppointments(t, f)
	if s.Loading() {
		t.Fatal("loading before any call")
	}

	f.gate = make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.Fetch(context.Background())
	}()

	for !s.Loading() {
		runtime.Gosched()
	}
	if s.Op("fetchAppointments") != Pending {
		t.Fatalf("op = %v", s.Op("fetchAppointments"))
	}
	close(f.gate)
	wg.Wait()

	if s.Loading() || s.Op("fetchAppointments") != Fulfilled {
		t.Fatalf("loading=%v op=%v", s.Loading(), s.Op("fetchAppointments"))
	}
}

func TestDirectoryAndSlots(t *testing.T) {
	s, _ := newAppointments(t, &fakeAppointments{list: seedAppointments()})
	ctx := context.Background()
	if err := s.FetchDoctors(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.FetchPatients(ctx); err != nil {
		t.Fatal(err)
	}
	if err := s.FetchSlots(ctx, "2", "2026-10-15"); err != nil {
		t.Fatal(err)
	}
	if len(s.Doctors()) != 1 || len(s.Patients()) != 2 || len(s.Slots()) != 1 {
		t.Fatalf("doctors=%d patients=%d slots=%d", len(s.Doctors()), len(s.Patients()), len(s.Slots()))
	}
	if err := s.GetDoctor(ctx, "2"); err != nil {
		t.Fatal(err)
	}
	if d, ok := s.SelectedDoctor(); !ok || d.ID != "2" {
		t.Fatalf("doctor = %+v", d)
	}
}
