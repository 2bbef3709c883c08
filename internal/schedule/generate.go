package schedule

import (
	"context"
	"fmt"

	"clinic-scheduler/pkg/response"
)

// Preference is one recurring (day-of-week, start time) template.
// DayOfWeek follows time.Weekday numbering: 0 = Sunday.
type Preference struct {
	DayOfWeek int
	Time      string
}

// BulkRequest asks for Count future slots projected forward from
// StartDate out of the weekly Preferences, each DurationMinutes long.
// ExcludeDates holds "YYYY-MM-DD" keys that must never be scheduled.
type BulkRequest struct {
	StartDate       Date
	Preferences     []Preference
	Count           int
	DurationMinutes int
	ExcludeDates    []string
}

// GeneratedSlot is one concrete candidate appointment. Nothing is
// persisted here; turning accepted slots into bookings is the caller's
// job. Conflict fields are an advisory snapshot, not a reservation.
type GeneratedSlot struct {
	Date            Date
	StartTime       string
	EndTime         string
	DayOfWeek       int
	PreferenceIndex int
	HasConflict     bool
	ConflictCount   int
}

// scanCeilingDays bounds the forward walk. A satisfiable weekly
// preference yields at least one slot per 7 scanned days, so the bound
// only triggers for infeasible inputs.
func scanCeilingDays(count int) int {
	return 366 + 7*count
}

// Generate walks forward from StartDate matching each day against the
// supplied preferences and emits slots until Count is reached, then
// annotates the result with conflict counts from one batched store
// lookup. Output is chronological; within a day, slots follow input
// preference order, not time-of-day order.
func (s *Scheduler) Generate(ctx context.Context, req BulkRequest) ([]GeneratedSlot, error) {
	const op = "schedule.Scheduler.Generate"

	ends, excluded, err := validateBulkRequest(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	slots := make([]GeneratedSlot, 0, req.Count)
	emitted := make(map[string]struct{}, req.Count)

	ceiling := scanCeilingDays(req.Count)
	day := req.StartDate

	for scanned := 0; len(slots) < req.Count; scanned++ {
		if scanned >= ceiling {
			return nil, fmt.Errorf("%s: scanned %d days for %d slots: %w", op, scanned, req.Count, response.ErrUnsatisfiable)
		}

		if _, skip := excluded[day.Key()]; !skip {
			for i, p := range req.Preferences {
				if p.DayOfWeek != int(day.Weekday()) {
					continue
				}

				// Identical preferences must not produce duplicate
				// (date, startTime) slots.
				slotKey := day.Key() + "T" + p.Time
				if _, dup := emitted[slotKey]; dup {
					continue
				}
				emitted[slotKey] = struct{}{}

				slots = append(slots, GeneratedSlot{
					Date:            day,
					StartTime:       p.Time,
					EndTime:         ends[i],
					DayOfWeek:       int(day.Weekday()),
					PreferenceIndex: i,
				})

				if len(slots) == req.Count {
					break
				}
			}
		}

		day = day.AddDays(1)
	}

	if err := s.annotateConflicts(ctx, slots); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return slots, nil
}

// annotateConflicts fills HasConflict/ConflictCount from a single
// batched count over the distinct dates and times of the generated set.
func (s *Scheduler) annotateConflicts(ctx context.Context, slots []GeneratedSlot) error {
	dates := make([]Date, 0, len(slots))
	times := make([]string, 0, len(slots))
	for _, sl := range slots {
		dates = append(dates, sl.Date)
		times = append(times, sl.StartTime)
	}

	conflicts, err := s.FindConflicts(ctx, dates, times)
	if err != nil {
		return err
	}

	counts := make(map[string]int, len(conflicts))
	for _, c := range conflicts {
		counts[c.Date.Key()+"T"+c.Time] = c.Count
	}

	for i := range slots {
		n := counts[slots[i].Date.Key()+"T"+slots[i].StartTime]
		slots[i].ConflictCount = n
		slots[i].HasConflict = n > 0
	}

	return nil
}

// validateBulkRequest rejects malformed input eagerly, before the walk
// starts. It returns the per-preference end times and the normalized
// exclusion set.
func validateBulkRequest(req BulkRequest) ([]string, map[string]struct{}, error) {
	if req.StartDate.IsZero() {
		return nil, nil, fmt.Errorf("start_date is required: %w", response.ErrValidation)
	}
	if len(req.Preferences) == 0 {
		return nil, nil, fmt.Errorf("preferences must not be empty: %w", response.ErrValidation)
	}
	if req.Count <= 0 {
		return nil, nil, fmt.Errorf("count must be positive: %w", response.ErrValidation)
	}
	if req.DurationMinutes <= 0 {
		return nil, nil, fmt.Errorf("package duration must be positive: %w", response.ErrValidation)
	}

	ends := make([]string, len(req.Preferences))
	for i, p := range req.Preferences {
		if p.DayOfWeek < 0 || p.DayOfWeek > 6 {
			return nil, nil, fmt.Errorf("preference %d: day_of_week %d out of range: %w", i, p.DayOfWeek, response.ErrValidation)
		}
		if !ValidTime(p.Time) {
			return nil, nil, fmt.Errorf("preference %d: invalid time %q: %w", i, p.Time, response.ErrValidation)
		}

		end, err := AddMinutes(p.Time, req.DurationMinutes)
		if err != nil {
			return nil, nil, err
		}
		ends[i] = end
	}

	excluded := make(map[string]struct{}, len(req.ExcludeDates))
	for _, key := range req.ExcludeDates {
		if _, err := ParseDateKey(key); err != nil {
			return nil, nil, err
		}
		excluded[key] = struct{}{}
	}

	return ends, excluded, nil
}
