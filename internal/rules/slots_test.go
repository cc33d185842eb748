package rules

import (
	"testing"

	"github.com/medireservas/medireservas/internal/model"
)

func gridDoctor() model.Doctor {
	return model.Doctor{
		ID:        "d1",
		Name:      "Dr. Juan Pérez",
		TimeSlots: []string{"09:00", "09:30", "10:00", "10:30"},
		Active:    true,
	}
}

func TestSlotAvailability_EmptyDay(t *testing.T) {
	slots := SlotAvailability(gridDoctor(), "2025-07-08", nil)
	if len(slots) != 4 {
		t.Fatalf("expected 4 slots, got %d", len(slots))
	}
	for _, s := range slots {
		if !s.Available {
			t.Fatalf("slot %s should be available on an empty day", s.Time)
		}
	}
}

func TestSlotAvailability_LongBookingBlocksOverlap(t *testing.T) {
	booked := []model.Appointment{{
		ID: "a1", DoctorID: "d1", Date: "2025-07-08", Time: "09:00",
		DurationMinutes: 60, Status: model.StatusConfirmed,
	}}
	slots := SlotAvailability(gridDoctor(), "2025-07-08", booked)

	// 60 minutes starting 09:00 covers the 09:00 and 09:30 slots.
	want := map[string]bool{"09:00": false, "09:30": false, "10:00": true, "10:30": true}
	for _, s := range slots {
		if s.Available != want[s.Time] {
			t.Fatalf("slot %s: available=%v, want %v", s.Time, s.Available, want[s.Time])
		}
	}
}

func TestSlotAvailability_CancelledDoesNotBlock(t *testing.T) {
	booked := []model.Appointment{{
		ID: "a1", DoctorID: "d1", Date: "2025-07-08", Time: "09:00",
		DurationMinutes: 30, Status: model.StatusCancelled,
	}}
	slots := SlotAvailability(gridDoctor(), "2025-07-08", booked)
	for _, s := range slots {
		if !s.Available {
			t.Fatalf("slot %s blocked by a cancelled booking", s.Time)
		}
	}
}

func TestSlotAvailability_IgnoresOtherDoctorsAndDates(t *testing.T) {
	booked := []model.Appointment{
		{ID: "a1", DoctorID: "d2", Date: "2025-07-08", Time: "09:00", DurationMinutes: 30, Status: model.StatusConfirmed},
		{ID: "a2", DoctorID: "d1", Date: "2025-07-09", Time: "09:00", DurationMinutes: 30, Status: model.StatusConfirmed},
	}
	slots := SlotAvailability(gridDoctor(), "2025-07-08", booked)
	for _, s := range slots {
		if !s.Available {
			t.Fatalf("slot %s blocked by an unrelated booking", s.Time)
		}
	}
}

func TestSlotAvailability_BadDate(t *testing.T) {
	if slots := SlotAvailability(gridDoctor(), "next tuesday", nil); slots != nil {
		t.Fatalf("expected nil for a malformed date, got %v", slots)
	}
}

func TestSlotAvailability_ZeroDurationDefaults(t *testing.T) {
	booked := []model.Appointment{{
		ID: "a1", DoctorID: "d1", Date: "2025-07-08", Time: "09:30",
		DurationMinutes: 0, Status: model.StatusPending,
	}}
	slots := SlotAvailability(gridDoctor(), "2025-07-08", booked)
	for _, s := range slots {
		wantAvailable := s.Time != "09:30"
		if s.Available != wantAvailable {
			t.Fatalf("slot %s: available=%v, want %v", s.Time, s.Available, wantAvailable)
		}
	}
}
