package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"clinic-scheduler/pkg/response"
)

// 2026-03-16 is a Monday.
func monday() Date { return NewDate(2026, time.March, 16) }

func TestGenerateWeeklySeries(t *testing.T) {
	store := &fakeStore{counts: map[string]int{}}
	s := newTestScheduler(store)

	got, err := s.Generate(context.Background(), BulkRequest{
		StartDate:       monday(),
		Preferences:     []Preference{{DayOfWeek: 1, Time: "09:00"}},
		Count:           3,
		DurationMinutes: 60,
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	want := []string{"2026-03-16", "2026-03-23", "2026-03-30"}
	if len(got) != len(want) {
		t.Fatalf("expected %d slots, got %d", len(want), len(got))
	}
	for i, slot := range got {
		if slot.Date.Key() != want[i] {
			t.Fatalf("slot %d: expected %s, got %s", i, want[i], slot.Date.Key())
		}
		if slot.StartTime != "09:00" || slot.EndTime != "10:00" {
			t.Fatalf("slot %d: unexpected times %s-%s", i, slot.StartTime, slot.EndTime)
		}
		if slot.DayOfWeek != 1 || slot.PreferenceIndex != 0 {
			t.Fatalf("slot %d: unexpected metadata %d/%d", i, slot.DayOfWeek, slot.PreferenceIndex)
		}
		if slot.HasConflict || slot.ConflictCount != 0 {
			t.Fatalf("slot %d: unexpected conflict annotation", i)
		}
	}
}

func TestGenerateStartDateInclusive(t *testing.T) {
	s := newTestScheduler(&fakeStore{counts: map[string]int{}})

	got, err := s.Generate(context.Background(), BulkRequest{
		StartDate:       monday(),
		Preferences:     []Preference{{DayOfWeek: 1, Time: "09:00"}},
		Count:           1,
		DurationMinutes: 30,
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if got[0].Date.Key() != monday().Key() {
		t.Fatalf("expected the start date itself, got %s", got[0].Date.Key())
	}
}

func TestGenerateSkipsExcludedDates(t *testing.T) {
	s := newTestScheduler(&fakeStore{counts: map[string]int{}})

	got, err := s.Generate(context.Background(), BulkRequest{
		StartDate:       monday(),
		Preferences:     []Preference{{DayOfWeek: 1, Time: "09:00"}},
		Count:           3,
		DurationMinutes: 60,
		ExcludeDates:    []string{"2026-03-23"},
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	want := []string{"2026-03-16", "2026-03-30", "2026-04-06"}
	for i, slot := range got {
		if slot.Date.Key() != want[i] {
			t.Fatalf("slot %d: expected %s, got %s", i, want[i], slot.Date.Key())
		}
	}
}

func TestGeneratePreferenceOrderWithinDay(t *testing.T) {
	s := newTestScheduler(&fakeStore{counts: map[string]int{}})

	// Later time listed first: output must follow input preference
	// order within a day, not time-of-day order.
	got, err := s.Generate(context.Background(), BulkRequest{
		StartDate: monday(),
		Preferences: []Preference{
			{DayOfWeek: 1, Time: "15:00"},
			{DayOfWeek: 1, Time: "09:00"},
			{DayOfWeek: 3, Time: "11:00"},
		},
		Count:           5,
		DurationMinutes: 45,
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	type slotKey struct {
		date string
		time string
		pref int
	}
	want := []slotKey{
		{"2026-03-16", "15:00", 0},
		{"2026-03-16", "09:00", 1},
		{"2026-03-18", "11:00", 2},
		{"2026-03-23", "15:00", 0},
		{"2026-03-23", "09:00", 1},
	}
	for i, w := range want {
		got := got[i]
		if got.Date.Key() != w.date || got.StartTime != w.time || got.PreferenceIndex != w.pref {
			t.Fatalf("slot %d: expected %v, got %s %s pref=%d", i, w, got.Date.Key(), got.StartTime, got.PreferenceIndex)
		}
	}
}

func TestGenerateNoDuplicateSlots(t *testing.T) {
	s := newTestScheduler(&fakeStore{counts: map[string]int{}})

	got, err := s.Generate(context.Background(), BulkRequest{
		StartDate: monday(),
		Preferences: []Preference{
			{DayOfWeek: 1, Time: "09:00"},
			{DayOfWeek: 1, Time: "09:00"},
		},
		Count:           4,
		DurationMinutes: 30,
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	seen := make(map[string]struct{})
	for _, slot := range got {
		key := slot.Date.Key() + "T" + slot.StartTime
		if _, dup := seen[key]; dup {
			t.Fatalf("duplicate slot %s", key)
		}
		seen[key] = struct{}{}
	}
}

func TestGenerateAnnotatesConflicts(t *testing.T) {
	store := &fakeStore{counts: map[string]int{
		"2026-03-23T09:00": 2,
	}}
	s := newTestScheduler(store)

	got, err := s.Generate(context.Background(), BulkRequest{
		StartDate:       monday(),
		Preferences:     []Preference{{DayOfWeek: 1, Time: "09:00"}},
		Count:           3,
		DurationMinutes: 60,
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	if got[0].HasConflict || got[2].HasConflict {
		t.Fatal("unexpected conflict on free slots")
	}
	if !got[1].HasConflict || got[1].ConflictCount != 2 {
		t.Fatalf("expected conflict count 2 on second slot, got %v/%d", got[1].HasConflict, got[1].ConflictCount)
	}

	// Candidate generation is pure; conflict annotation is the only
	// store round-trip.
	if store.countCalls != 1 {
		t.Fatalf("expected a single batched store call, got %d", store.countCalls)
	}
}

func TestGenerateValidation(t *testing.T) {
	s := newTestScheduler(&fakeStore{counts: map[string]int{}})

	cases := []struct {
		name string
		req  BulkRequest
	}{
		{"empty preferences", BulkRequest{StartDate: monday(), Count: 1, DurationMinutes: 30}},
		{"zero count", BulkRequest{StartDate: monday(), Preferences: []Preference{{1, "09:00"}}, Count: 0, DurationMinutes: 30}},
		{"negative duration", BulkRequest{StartDate: monday(), Preferences: []Preference{{1, "09:00"}}, Count: 1, DurationMinutes: -30}},
		{"bad weekday", BulkRequest{StartDate: monday(), Preferences: []Preference{{7, "09:00"}}, Count: 1, DurationMinutes: 30}},
		{"bad time", BulkRequest{StartDate: monday(), Preferences: []Preference{{1, "9:00"}}, Count: 1, DurationMinutes: 30}},
		{"midnight crossing", BulkRequest{StartDate: monday(), Preferences: []Preference{{1, "23:30"}}, Count: 1, DurationMinutes: 45}},
		{"bad exclude key", BulkRequest{StartDate: monday(), Preferences: []Preference{{1, "09:00"}}, Count: 1, DurationMinutes: 30, ExcludeDates: []string{"03/23/2026"}}},
		{"zero start date", BulkRequest{Preferences: []Preference{{1, "09:00"}}, Count: 1, DurationMinutes: 30}},
	}

	for _, c := range cases {
		_, err := s.Generate(context.Background(), c.req)
		if !errors.Is(err, response.ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", c.name, err)
		}
	}
}

func TestGenerateUnsatisfiableTerminates(t *testing.T) {
	s := newTestScheduler(&fakeStore{counts: map[string]int{}})

	// Every Monday for two years excluded: the scan ceiling must fire
	// instead of walking forever.
	var excludes []string
	for d := monday(); d.Before(monday().AddDays(800)); d = d.AddDays(7) {
		excludes = append(excludes, d.Key())
	}

	_, err := s.Generate(context.Background(), BulkRequest{
		StartDate:       monday(),
		Preferences:     []Preference{{DayOfWeek: 1, Time: "09:00"}},
		Count:           200,
		DurationMinutes: 30,
		ExcludeDates:    excludes,
	})
	if !errors.Is(err, response.ErrUnsatisfiable) {
		t.Fatalf("expected unsatisfiable error, got %v", err)
	}
}

func TestGenerateLargeCountBounded(t *testing.T) {
	s := newTestScheduler(&fakeStore{counts: map[string]int{}})

	got, err := s.Generate(context.Background(), BulkRequest{
		StartDate:       monday(),
		Preferences:     []Preference{{DayOfWeek: 1, Time: "09:00"}},
		Count:           1000,
		DurationMinutes: 30,
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if len(got) != 1000 {
		t.Fatalf("expected 1000 slots, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if !got[i-1].Date.Before(got[i].Date) {
			t.Fatalf("slots out of chronological order at %d", i)
		}
	}
}

func TestGenerateIdempotent(t *testing.T) {
	store := &fakeStore{counts: map[string]int{"2026-03-16T09:00": 1}}
	s := newTestScheduler(store)

	req := BulkRequest{
		StartDate:       monday(),
		Preferences:     []Preference{{DayOfWeek: 1, Time: "09:00"}, {DayOfWeek: 4, Time: "14:00"}},
		Count:           6,
		DurationMinutes: 50,
	}

	first, err := s.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	second, err := s.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("length mismatch: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("slot %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}
