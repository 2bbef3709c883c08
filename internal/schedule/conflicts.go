package schedule

import (
	"context"
	"fmt"
	"sort"
)

// ConflictInfo describes one (date, time) pair that already carries at
// least one active booking.
type ConflictInfo struct {
	Date      Date
	Time      string
	Count     int
	Available int
}

// FindConflicts returns existing booking counts and residual staff
// capacity for the cross product of dates and times. Both inputs are
// deduplicated; if either is empty the result is empty and the store is
// not called. Pairs without bookings are omitted, not emitted with a
// zero count. The lookup is a single batched query regardless of input
// size.
func (s *Scheduler) FindConflicts(ctx context.Context, dates []Date, times []string) ([]ConflictInfo, error) {
	const op = "schedule.Scheduler.FindConflicts"

	dates = dedupeDates(dates)
	times = dedupeStrings(times)

	if len(dates) == 0 || len(times) == 0 {
		return []ConflictInfo{}, nil
	}

	keys := make([]string, 0, len(dates))
	byKey := make(map[string]Date, len(dates))
	for _, d := range dates {
		keys = append(keys, d.Key())
		byKey[d.Key()] = d
	}

	counts, err := s.bookings.CountActiveByDateTime(ctx, keys, times)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	limits, err := s.SlotLimits(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Staff ceiling: this detector serves staff-facing flows. The portal
	// ceiling is enforced separately at booking creation.
	result := make([]ConflictInfo, 0, len(counts))
	for _, c := range counts {
		if c.Count <= 0 {
			continue
		}
		d, ok := byKey[c.DateKey]
		if !ok {
			continue
		}
		result = append(result, ConflictInfo{
			Date:      d,
			Time:      c.StartTime,
			Count:     c.Count,
			Available: clampAvailable(limits.Staff, c.Count),
		})
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].Time < result[j].Time
	})

	return result, nil
}

func clampAvailable(limit, count int) int {
	if limit <= count {
		return 0
	}
	return limit - count
}

func dedupeDates(dates []Date) []Date {
	seen := make(map[string]struct{}, len(dates))
	out := dates[:0:0]
	for _, d := range dates {
		if _, ok := seen[d.Key()]; ok {
			continue
		}
		seen[d.Key()] = struct{}{}
		out = append(out, d)
	}
	return out
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
