package schedule

import (
	"context"
	"fmt"

	"clinic-scheduler/internal/models"
	"clinic-scheduler/pkg/response"
)

// BookingCounter is the single read the scheduler performs against the
// booking store: one batched group-by count over active bookings.
type BookingCounter interface {
	CountActiveByDateTime(ctx context.Context, dateKeys []string, times []string) ([]models.SlotCount, error)
}

// LimitSource reads the configured slot capacity ceilings. A nil result
// or nil fields mean "not configured" and fall back to defaults.
type LimitSource interface {
	GetSlotLimits(ctx context.Context) (*models.SlotLimits, error)
}

// Limits are the resolved per-slot booking ceilings.
type Limits struct {
	Staff  int
	Portal int
}

// BusinessHours describes the offered start times: from Open, stepping
// IntervalMinutes, while the slot still ends at or before Close.
type BusinessHours struct {
	Open            string
	Close           string
	IntervalMinutes int
}

// Slots enumerates the bookable start times for one day.
func (h BusinessHours) Slots() ([]string, error) {
	const op = "schedule.BusinessHours.Slots"

	if !ValidTime(h.Open) {
		return nil, fmt.Errorf("%s: invalid open %q: %w", op, h.Open, response.ErrValidation)
	}
	if !ValidTime(h.Close) {
		return nil, fmt.Errorf("%s: invalid close %q: %w", op, h.Close, response.ErrValidation)
	}
	if h.IntervalMinutes <= 0 {
		return nil, fmt.Errorf("%s: invalid interval %d: %w", op, h.IntervalMinutes, response.ErrValidation)
	}

	open := minutesOf(h.Open)
	closing := minutesOf(h.Close)

	var times []string
	for cur := open; cur+h.IntervalMinutes <= closing; cur += h.IntervalMinutes {
		times = append(times, fmt.Sprintf("%02d:%02d", cur/60, cur%60))
	}

	return times, nil
}

type Options struct {
	DefaultLimits Limits
	Hours         BusinessHours
}

// Scheduler is the appointment scheduling core: conflict detection,
// single-day availability and bulk recurring-slot generation. It owns no
// state and performs no writes; the store is read through BookingCounter
// and LimitSource only.
type Scheduler struct {
	bookings BookingCounter
	limits   LimitSource
	opts     Options
}

func NewScheduler(bookings BookingCounter, limits LimitSource, opts Options) *Scheduler {
	return &Scheduler{bookings: bookings, limits: limits, opts: opts}
}

func (s *Scheduler) Hours() BusinessHours {
	return s.opts.Hours
}

// SlotLimits resolves the capacity ceilings, substituting configured
// defaults for anything absent in the settings store. Absence of
// configuration is the normal default path, not an error.
func (s *Scheduler) SlotLimits(ctx context.Context) (Limits, error) {
	const op = "schedule.Scheduler.SlotLimits"

	resolved := s.opts.DefaultLimits

	stored, err := s.limits.GetSlotLimits(ctx)
	if err != nil {
		return Limits{}, fmt.Errorf("%s: %w", op, err)
	}
	if stored == nil {
		return resolved, nil
	}

	if stored.Staff != nil && *stored.Staff > 0 {
		resolved.Staff = *stored.Staff
	}
	if stored.Portal != nil && *stored.Portal > 0 {
		resolved.Portal = *stored.Portal
	}

	return resolved, nil
}
