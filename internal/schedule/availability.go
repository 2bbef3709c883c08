package schedule

import (
	"context"
	"fmt"
)

type AvailableSlot struct {
	Time      string
	Booked    int
	Remaining int
}

type DayAvailability struct {
	Date  Date
	Slots []AvailableSlot
}

// Availability enumerates every business-hours start time for one date
// together with its remaining staff capacity. The calculator itself is
// indifferent to past dates; the "date in the past" rejection belongs to
// the caller-facing boundary.
func (s *Scheduler) Availability(ctx context.Context, date Date) (*DayAvailability, error) {
	const op = "schedule.Scheduler.Availability"

	times, err := s.opts.Hours.Slots()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	booked := make(map[string]int, len(times))
	if len(times) > 0 {
		counts, err := s.bookings.CountActiveByDateTime(ctx, []string{date.Key()}, times)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		for _, c := range counts {
			if c.DateKey == date.Key() {
				booked[c.StartTime] = c.Count
			}
		}
	}

	limits, err := s.SlotLimits(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	slots := make([]AvailableSlot, 0, len(times))
	for _, t := range times {
		slots = append(slots, AvailableSlot{
			Time:      t,
			Booked:    booked[t],
			Remaining: clampAvailable(limits.Staff, booked[t]),
		})
	}

	return &DayAvailability{Date: date, Slots: slots}, nil
}
