package rules

import (
	"time"

	"github.com/medireservas/medireservas/internal/model"
)

// DefaultSlotMinutes is the booking grid step: a candidate slot occupies a
// half-open 30-minute interval unless the doctor's grid says otherwise.
const DefaultSlotMinutes = 30

type Slot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
}

// SlotAvailability tags each candidate slot of the doctor's grid for one day
// as available or occupied. A slot is occupied when its interval overlaps a
// non-cancelled booking of the same doctor on that date. Appointments for
// other doctors or dates are ignored, so callers may pass an unfiltered set.
func SlotAvailability(doc model.Doctor, date string, booked []model.Appointment) []Slot {
	day, err := ParseDate(date)
	if err != nil {
		return nil
	}

	type interval struct{ start, end time.Time }
	var busy []interval
	for _, a := range booked {
		if a.DoctorID != doc.ID || a.Date != date || a.Status == model.StatusCancelled {
			continue
		}
		start, err := a.StartsAt()
		if err != nil {
			continue
		}
		dur := a.DurationMinutes
		if dur <= 0 {
			dur = DefaultSlotMinutes
		}
		busy = append(busy, interval{start: start, end: start.Add(time.Duration(dur) * time.Minute)})
	}

	slots := make([]Slot, 0, len(doc.TimeSlots))
	for _, clock := range doc.TimeSlots {
		c, err := ParseClock(clock)
		if err != nil {
			continue
		}
		start := time.Date(day.Year(), day.Month(), day.Day(), c.Hour(), c.Minute(), 0, 0, time.UTC)
		end := start.Add(DefaultSlotMinutes * time.Minute)

		occupied := false
		for _, b := range busy {
			// Half-open intervals: [start,end) overlaps [b.start,b.end) iff start < b.end && b.start < end.
			if start.Before(b.end) && b.start.Before(end) {
				occupied = true
				break
			}
		}
		slots = append(slots, Slot{Time: clock, Available: !occupied})
	}
	return slots
}

// ParseDate parses a calendar day in the wire layout (YYYY-MM-DD).
func ParseDate(date string) (time.Time, error) {
	return time.Parse(model.DateLayout, date)
}

// ParseClock parses a 24h wall-clock time in the wire layout (HH:MM).
func ParseClock(clock string) (time.Time, error) {
	return time.Parse(model.TimeLayout, clock)
}
