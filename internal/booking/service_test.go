package booking

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/medireservas/medireservas/internal/model"
	"github.com/medireservas/medireservas/internal/rules"
	"github.com/medireservas/medireservas/internal/storage"
)

type captureDispatcher struct {
	mu    sync.Mutex
	notes []rules.Notification
}

func (c *captureDispatcher) Dispatch(_ context.Context, n rules.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notes = append(c.notes, n)
}

func (c *captureDispatcher) last(t *testing.T) rules.Notification {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.notes) == 0 {
		t.Fatal("expected a dispatched notification")
	}
	return c.notes[len(c.notes)-1]
}

func newFixture(t *testing.T) (*Service, *storage.Memory, *captureDispatcher, model.Identity, model.Identity, model.Identity) {
	t.Helper()
	m := storage.NewMemory()
	doctorUser := m.AddUser(model.User{Email: "doctor@test.com", Name: "Dr. Juan Pérez", Role: model.RoleDoctor})
	patientUser := m.AddUser(model.User{Email: "paciente@test.com", Name: "María González", Role: model.RolePatient})
	adminUser := m.AddUser(model.User{Email: "admin@test.com", Name: "Admin", Role: model.RoleAdmin})

	if _, err := m.PutDoctor(context.Background(), model.Doctor{
		ID: doctorUser.ID, Name: doctorUser.Name, Specialty: "Medicina General",
		TimeSlots: []string{"09:00", "09:30", "10:00"}, Active: true,
	}); err != nil {
		t.Fatalf("seed doctor failed: %v", err)
	}

	sink := &captureDispatcher{}
	svc := New(m, sink, slog.Default())
	return svc, m, sink, patientUser.Identity(), doctorUser.Identity(), adminUser.Identity()
}

func TestBook_HappyPath(t *testing.T) {
	svc, _, sink, patient, doctor, _ := newFixture(t)
	ctx := context.Background()

	created, err := svc.Book(ctx, patient, BookRequest{
		DoctorID: doctor.UserID, Date: "2025-07-08", Time: "09:00", VisitType: "Consulta General",
	})
	if err != nil {
		t.Fatalf("book failed: %v", err)
	}
	if created.Status != model.StatusPending {
		t.Fatalf("new booking must be pending, got %s", created.Status)
	}
	if created.PatientEmail != patient.Email || created.PatientName != patient.Name {
		t.Fatalf("patient snapshot wrong: %+v", created)
	}
	if created.DoctorName != "Dr. Juan Pérez" || created.Specialty != "Medicina General" {
		t.Fatalf("doctor snapshot wrong: %+v", created)
	}
	if created.DurationMinutes != rules.DefaultSlotMinutes {
		t.Fatalf("expected default duration, got %d", created.DurationMinutes)
	}
	if n := sink.last(t); n.Event != rules.EventBooked {
		t.Fatalf("expected booked notification, got %s", n.Event)
	}
}

func TestBook_DoubleBookingRejected(t *testing.T) {
	svc, _, _, patient, doctor, _ := newFixture(t)
	ctx := context.Background()

	if _, err := svc.Book(ctx, patient, BookRequest{DoctorID: doctor.UserID, Date: "2025-07-08", Time: "09:00"}); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}
	_, err := svc.Book(ctx, patient, BookRequest{DoctorID: doctor.UserID, Date: "2025-07-08", Time: "09:00"})
	var conflict *rules.SlotConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected SlotConflictError, got %v", err)
	}
}

func TestBook_TwoPatientsSameDoctorSlot(t *testing.T) {
	svc, m, _, patient, doctor, _ := newFixture(t)
	ctx := context.Background()

	other := m.AddUser(model.User{Email: "otro@test.com", Name: "Otro", Role: model.RolePatient}).Identity()
	if _, err := svc.Book(ctx, patient, BookRequest{DoctorID: doctor.UserID, Date: "2025-07-08", Time: "09:00"}); err != nil {
		t.Fatalf("first booking failed: %v", err)
	}
	// The double-booking rule protects the patient, not the doctor slot.
	if _, err := svc.Book(ctx, other, BookRequest{DoctorID: doctor.UserID, Date: "2025-07-08", Time: "09:00"}); err != nil {
		t.Fatalf("second patient should be able to book the same slot: %v", err)
	}
}

func TestBook_CancelThenRebookSameSlot(t *testing.T) {
	svc, _, _, patient, doctor, _ := newFixture(t)
	ctx := context.Background()

	created, err := svc.Book(ctx, patient, BookRequest{DoctorID: doctor.UserID, Date: "2025-07-08", Time: "09:00"})
	if err != nil {
		t.Fatalf("book failed: %v", err)
	}
	if _, err := svc.Transition(ctx, patient, created.ID, model.StatusCancelled); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if _, err := svc.Book(ctx, patient, BookRequest{DoctorID: doctor.UserID, Date: "2025-07-08", Time: "09:00"}); err != nil {
		t.Fatalf("rebooking a cancelled slot should succeed: %v", err)
	}
}

func TestBook_UnknownOrInactiveDoctor(t *testing.T) {
	svc, m, _, patient, doctor, _ := newFixture(t)
	ctx := context.Background()

	if _, err := svc.Book(ctx, patient, BookRequest{DoctorID: "missing", Date: "2025-07-08", Time: "09:00"}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	doc, _ := m.Doctor(ctx, doctor.UserID)
	doc.Active = false
	if _, err := m.PutDoctor(ctx, doc); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	_, err := svc.Book(ctx, patient, BookRequest{DoctorID: doctor.UserID, Date: "2025-07-08", Time: "09:00"})
	var validation *rules.ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError for inactive doctor, got %v", err)
	}
}

func TestBook_AdminBooksForPatient(t *testing.T) {
	svc, _, _, _, doctor, admin := newFixture(t)
	ctx := context.Background()

	created, err := svc.Book(ctx, admin, BookRequest{
		DoctorID: doctor.UserID, Date: "2025-07-08", Time: "09:00",
		PatientName: "Pedro Sánchez", PatientEmail: "pedro@test.com",
	})
	if err != nil {
		t.Fatalf("admin booking failed: %v", err)
	}
	if created.PatientEmail != "pedro@test.com" || created.PatientName != "Pedro Sánchez" {
		t.Fatalf("admin override not applied: %+v", created)
	}
}

func TestTransition_ScopeEnforced(t *testing.T) {
	svc, m, _, patient, doctor, _ := newFixture(t)
	ctx := context.Background()

	created, err := svc.Book(ctx, patient, BookRequest{DoctorID: doctor.UserID, Date: "2025-07-08", Time: "09:00"})
	if err != nil {
		t.Fatalf("book failed: %v", err)
	}

	stranger := m.AddUser(model.User{Email: "otro@test.com", Name: "Otro", Role: model.RolePatient}).Identity()
	if _, err := svc.Transition(ctx, stranger, created.ID, model.StatusCancelled); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for another patient, got %v", err)
	}

	otherDoctor := m.AddUser(model.User{Email: "otra.dra@test.com", Name: "Dra. Otra", Role: model.RoleDoctor}).Identity()
	if _, err := svc.Transition(ctx, otherDoctor, created.ID, model.StatusConfirmed); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for another doctor, got %v", err)
	}

	if _, err := svc.Transition(ctx, doctor, created.ID, model.StatusConfirmed); err != nil {
		t.Fatalf("owning doctor should confirm: %v", err)
	}
}

func TestTransition_ConfirmEmitsNotification(t *testing.T) {
	svc, _, sink, patient, doctor, _ := newFixture(t)
	ctx := context.Background()

	created, _ := svc.Book(ctx, patient, BookRequest{DoctorID: doctor.UserID, Date: "2025-07-08", Time: "09:00"})
	updated, err := svc.Transition(ctx, doctor, created.ID, model.StatusConfirmed)
	if err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if updated.Status != model.StatusConfirmed {
		t.Fatalf("expected confirmed, got %s", updated.Status)
	}
	if n := sink.last(t); n.Event != rules.EventConfirmed || n.Recipient != patient.Email {
		t.Fatalf("unexpected notification: %+v", n)
	}
}

func TestTransition_RejectedLeavesStateAndSilence(t *testing.T) {
	svc, m, sink, patient, doctor, admin := newFixture(t)
	ctx := context.Background()

	created, _ := svc.Book(ctx, patient, BookRequest{DoctorID: doctor.UserID, Date: "2025-07-08", Time: "09:00"})
	if _, err := svc.Transition(ctx, doctor, created.ID, model.StatusConfirmed); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	sink.mu.Lock()
	before := len(sink.notes)
	sink.mu.Unlock()

	// Admins are not exempt from the confirmed lock.
	_, err := svc.Transition(ctx, admin, created.ID, model.StatusCancelled)
	var rejected *rules.TransitionRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected rejection, got %v", err)
	}

	got, _ := m.Appointment(ctx, created.ID)
	if got.Status != model.StatusConfirmed {
		t.Fatalf("rejected transition must not change state, got %s", got.Status)
	}
	sink.mu.Lock()
	after := len(sink.notes)
	sink.mu.Unlock()
	if after != before {
		t.Fatal("rejected transition must not emit a notification")
	}
}

func TestReschedule_DoctorMoveAsksPatientToConfirm(t *testing.T) {
	svc, _, sink, patient, doctor, _ := newFixture(t)
	ctx := context.Background()

	created, _ := svc.Book(ctx, patient, BookRequest{DoctorID: doctor.UserID, Date: "2025-07-08", Time: "09:00"})
	if _, err := svc.Transition(ctx, doctor, created.ID, model.StatusConfirmed); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	updated, err := svc.Reschedule(ctx, doctor, created.ID, "2025-07-09", "10:00")
	if err != nil {
		t.Fatalf("doctor reschedule failed: %v", err)
	}
	if updated.Status != model.StatusPending || updated.PendingReason != model.PendingReasonDoctorReschedule {
		t.Fatalf("expected doctor_reschedule pending state, got %+v", updated)
	}
	if n := sink.last(t); n.Event != rules.EventRescheduled {
		t.Fatalf("expected rescheduled notification, got %s", n.Event)
	}
}

func TestListFor_Scoping(t *testing.T) {
	svc, m, _, patient, doctor, admin := newFixture(t)
	ctx := context.Background()

	other := m.AddUser(model.User{Email: "otro@test.com", Name: "Otro", Role: model.RolePatient}).Identity()
	if _, err := svc.Book(ctx, patient, BookRequest{DoctorID: doctor.UserID, Date: "2025-07-08", Time: "09:00"}); err != nil {
		t.Fatalf("book failed: %v", err)
	}
	if _, err := svc.Book(ctx, other, BookRequest{DoctorID: doctor.UserID, Date: "2025-07-08", Time: "09:30"}); err != nil {
		t.Fatalf("book failed: %v", err)
	}

	mine, _ := svc.ListFor(ctx, patient, storage.Filter{})
	if len(mine) != 1 || mine[0].PatientEmail != patient.Email {
		t.Fatalf("patient view wrong: %+v", mine)
	}

	// A patient cannot widen their view with filters.
	spied, _ := svc.ListFor(ctx, patient, storage.Filter{PatientEmail: other.Email})
	if len(spied) != 1 || spied[0].PatientEmail != patient.Email {
		t.Fatalf("patient filter escape: %+v", spied)
	}

	schedule, _ := svc.ListFor(ctx, doctor, storage.Filter{})
	if len(schedule) != 2 {
		t.Fatalf("doctor should see both bookings, got %d", len(schedule))
	}

	all, _ := svc.ListFor(ctx, admin, storage.Filter{})
	if len(all) != 2 {
		t.Fatalf("admin should see everything, got %d", len(all))
	}
}

func TestSlots_ReflectBookings(t *testing.T) {
	svc, _, _, patient, doctor, _ := newFixture(t)
	ctx := context.Background()

	if _, err := svc.Book(ctx, patient, BookRequest{DoctorID: doctor.UserID, Date: "2025-07-08", Time: "09:30"}); err != nil {
		t.Fatalf("book failed: %v", err)
	}
	slots, err := svc.Slots(ctx, doctor.UserID, "2025-07-08")
	if err != nil {
		t.Fatalf("slots failed: %v", err)
	}
	for _, s := range slots {
		wantAvailable := s.Time != "09:30"
		if s.Available != wantAvailable {
			t.Fatalf("slot %s: available=%v, want %v", s.Time, s.Available, wantAvailable)
		}
	}
}
