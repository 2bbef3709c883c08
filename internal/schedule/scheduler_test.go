package schedule

import (
	"context"
	"testing"

	"clinic-scheduler/internal/models"
)

// fakeStore implements BookingCounter and LimitSource over a fixed
// count table keyed "YYYY-MM-DDTHH:mm".
type fakeStore struct {
	counts map[string]int
	limits *models.SlotLimits

	countCalls int
	lastDates  []string
	lastTimes  []string
}

func (f *fakeStore) CountActiveByDateTime(_ context.Context, dateKeys, times []string) ([]models.SlotCount, error) {
	f.countCalls++
	f.lastDates = dateKeys
	f.lastTimes = times

	var out []models.SlotCount
	for _, d := range dateKeys {
		for _, t := range times {
			if n, ok := f.counts[d+"T"+t]; ok && n > 0 {
				out = append(out, models.SlotCount{DateKey: d, StartTime: t, Count: n})
			}
		}
	}
	return out, nil
}

func (f *fakeStore) GetSlotLimits(_ context.Context) (*models.SlotLimits, error) {
	return f.limits, nil
}

func newTestScheduler(store *fakeStore) *Scheduler {
	return NewScheduler(store, store, Options{
		DefaultLimits: Limits{Staff: 3, Portal: 1},
		Hours:         BusinessHours{Open: "09:00", Close: "18:00", IntervalMinutes: 30},
	})
}

func intPtr(n int) *int { return &n }

func TestSlotLimitsDefaults(t *testing.T) {
	s := newTestScheduler(&fakeStore{})

	limits, err := s.SlotLimits(context.Background())
	if err != nil {
		t.Fatalf("SlotLimits error: %v", err)
	}
	if limits.Staff != 3 || limits.Portal != 1 {
		t.Fatalf("expected defaults 3/1, got %d/%d", limits.Staff, limits.Portal)
	}
}

func TestSlotLimitsStored(t *testing.T) {
	s := newTestScheduler(&fakeStore{
		limits: &models.SlotLimits{Staff: intPtr(5)},
	})

	limits, err := s.SlotLimits(context.Background())
	if err != nil {
		t.Fatalf("SlotLimits error: %v", err)
	}
	if limits.Staff != 5 {
		t.Fatalf("expected stored staff limit 5, got %d", limits.Staff)
	}
	if limits.Portal != 1 {
		t.Fatalf("expected default portal limit 1, got %d", limits.Portal)
	}
}

func TestBusinessHoursSlots(t *testing.T) {
	h := BusinessHours{Open: "09:00", Close: "11:00", IntervalMinutes: 45}

	slots, err := h.Slots()
	if err != nil {
		t.Fatalf("Slots error: %v", err)
	}
	// 09:00-09:45 and 09:45-10:30 fit; 10:30-11:15 would end past close.
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d: %v", len(slots), slots)
	}
	if slots[0] != "09:00" || slots[1] != "09:45" {
		t.Fatalf("unexpected slots: %v", slots)
	}
}

func TestBusinessHoursSlotsInvalid(t *testing.T) {
	h := BusinessHours{Open: "9:00", Close: "18:00", IntervalMinutes: 30}
	if _, err := h.Slots(); err == nil {
		t.Fatal("expected error for malformed open time")
	}
}
