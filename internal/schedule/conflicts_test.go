package schedule

import (
	"context"
	"testing"
	"time"

	"clinic-scheduler/internal/models"
)

func TestFindConflictsEmptyInputShortCircuits(t *testing.T) {
	store := &fakeStore{counts: map[string]int{"2026-03-16T09:00": 2}}
	s := newTestScheduler(store)

	for _, c := range []struct {
		dates []Date
		times []string
	}{
		{nil, []string{"09:00"}},
		{[]Date{NewDate(2026, time.March, 16)}, nil},
		{nil, nil},
	} {
		got, err := s.FindConflicts(context.Background(), c.dates, c.times)
		if err != nil {
			t.Fatalf("FindConflicts error: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected empty result, got %v", got)
		}
	}

	if store.countCalls != 0 {
		t.Fatalf("expected no store calls, got %d", store.countCalls)
	}
}

func TestFindConflictsOmitsFreePairs(t *testing.T) {
	store := &fakeStore{counts: map[string]int{"2026-03-16T09:00": 3}}
	s := newTestScheduler(store)

	got, err := s.FindConflicts(context.Background(),
		[]Date{NewDate(2026, time.March, 16), NewDate(2026, time.March, 17)},
		[]string{"09:00", "10:00"},
	)
	if err != nil {
		t.Fatalf("FindConflicts error: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("expected exactly one conflict entry, got %d: %v", len(got), got)
	}
	c := got[0]
	if c.Date.Key() != "2026-03-16" || c.Time != "09:00" {
		t.Fatalf("unexpected conflict pair: %s %s", c.Date.Key(), c.Time)
	}
	if c.Count != 3 {
		t.Fatalf("expected count 3, got %d", c.Count)
	}
	// Staff limit is 3, so availability clamps at zero.
	if c.Available != 0 {
		t.Fatalf("expected available 0, got %d", c.Available)
	}
}

func TestFindConflictsAvailableNeverNegative(t *testing.T) {
	store := &fakeStore{counts: map[string]int{"2026-03-16T09:00": 7}}
	s := newTestScheduler(store)

	got, err := s.FindConflicts(context.Background(),
		[]Date{NewDate(2026, time.March, 16)}, []string{"09:00"})
	if err != nil {
		t.Fatalf("FindConflicts error: %v", err)
	}
	if got[0].Available != 0 {
		t.Fatalf("expected available clamped to 0, got %d", got[0].Available)
	}
}

func TestFindConflictsDeduplicatesAndBatches(t *testing.T) {
	store := &fakeStore{counts: map[string]int{}}
	s := newTestScheduler(store)

	d := NewDate(2026, time.March, 16)
	_, err := s.FindConflicts(context.Background(),
		[]Date{d, d, NewDate(2026, time.March, 17)},
		[]string{"09:00", "09:00", "10:00"},
	)
	if err != nil {
		t.Fatalf("FindConflicts error: %v", err)
	}

	if store.countCalls != 1 {
		t.Fatalf("expected a single batched store call, got %d", store.countCalls)
	}
	if len(store.lastDates) != 2 {
		t.Fatalf("expected 2 deduplicated dates, got %v", store.lastDates)
	}
	if len(store.lastTimes) != 2 {
		t.Fatalf("expected 2 deduplicated times, got %v", store.lastTimes)
	}
}

func TestFindConflictsSortedByDateThenTime(t *testing.T) {
	store := &fakeStore{counts: map[string]int{
		"2026-03-17T09:00": 1,
		"2026-03-16T10:00": 1,
		"2026-03-16T09:00": 1,
	}}
	s := newTestScheduler(store)

	got, err := s.FindConflicts(context.Background(),
		[]Date{NewDate(2026, time.March, 17), NewDate(2026, time.March, 16)},
		[]string{"10:00", "09:00"},
	)
	if err != nil {
		t.Fatalf("FindConflicts error: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	order := []string{"2026-03-16T09:00", "2026-03-16T10:00", "2026-03-17T09:00"}
	for i, want := range order {
		key := got[i].Date.Key() + "T" + got[i].Time
		if key != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, key)
		}
	}
}

func TestFindConflictsUsesStoredStaffLimit(t *testing.T) {
	store := &fakeStore{
		counts: map[string]int{"2026-03-16T09:00": 2},
		limits: &models.SlotLimits{Staff: intPtr(10)},
	}
	s := newTestScheduler(store)

	got, err := s.FindConflicts(context.Background(),
		[]Date{NewDate(2026, time.March, 16)}, []string{"09:00"})
	if err != nil {
		t.Fatalf("FindConflicts error: %v", err)
	}
	if got[0].Available != 8 {
		t.Fatalf("expected available 8, got %d", got[0].Available)
	}
}
