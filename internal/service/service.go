package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"clinic-scheduler/api"
	"clinic-scheduler/internal/lock"
	"clinic-scheduler/internal/models"
	"clinic-scheduler/internal/schedule"
	"clinic-scheduler/pkg/response"
)

type Service struct {
	store     Store
	locker    lock.Locker
	scheduler *schedule.Scheduler
}

func NewService(store Store, locker lock.Locker, scheduler *schedule.Scheduler) *Service {
	return &Service{store: store, locker: locker, scheduler: scheduler}
}

type Store interface {
	BeginTx(ctx context.Context) (*sql.Tx, error)

	// Scheduling reads
	CountActiveByDateTime(ctx context.Context, dateKeys []string, times []string) ([]models.SlotCount, error)
	GetSlotLimits(ctx context.Context) (*models.SlotLimits, error)

	// Bookings
	CountActiveForSlotTx(ctx context.Context, tx *sql.Tx, dateKey, startTime string) (int, error)
	CreateBooking(ctx context.Context, tx *sql.Tx, booking *models.Booking) (string, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	ListBookings(ctx context.Context, clientID *string, from, to *time.Time, status *string) ([]*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, bookingID string, status models.BookingStatus) error
	RescheduleBookingTx(ctx context.Context, tx *sql.Tx, bookingID, dateKey, startTime, endTime string) error
	DeleteBooking(ctx context.Context, bookingID string) error

	// Blackout dates
	CreateBlackout(ctx context.Context, blackout *models.BlackoutDate) (string, error)
	GetBlackout(ctx context.Context, id string) (*models.BlackoutDate, error)
	ListBlackouts(ctx context.Context, from time.Time) ([]*models.BlackoutDate, error)
	DeleteBlackout(ctx context.Context, id string) error
}

// Scheduling

func (s *Service) CheckConflicts(ctx context.Context, dateKeys, times []string) ([]api.ConflictInfo, error) {
	const op = "service.CheckConflicts"

	dates := make([]schedule.Date, 0, len(dateKeys))
	for _, key := range dateKeys {
		d, err := schedule.ParseDateKey(key)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		dates = append(dates, d)
	}

	for _, t := range times {
		if !schedule.ValidTime(t) {
			return nil, fmt.Errorf("%s: invalid time %q: %w", op, t, response.ErrValidation)
		}
	}

	conflicts, err := s.scheduler.FindConflicts(ctx, dates, times)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]api.ConflictInfo, 0, len(conflicts))
	for _, c := range conflicts {
		result = append(result, api.ConflictInfo{
			Date:      c.Date.Key(),
			Time:      c.Time,
			Count:     c.Count,
			Available: c.Available,
		})
	}

	return result, nil
}

func (s *Service) GetAvailability(ctx context.Context, dateKey string) (*api.AvailabilityResponse, error) {
	const op = "service.GetAvailability"

	date, err := schedule.ParseDateKey(dateKey)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if date.Before(schedule.Today()) {
		return nil, fmt.Errorf("%s: %w", op, response.ErrDateInPast)
	}

	availability, err := s.scheduler.Availability(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	slots := make([]api.AvailabilitySlot, 0, len(availability.Slots))
	for _, slot := range availability.Slots {
		slots = append(slots, api.AvailabilitySlot{
			Time:      slot.Time,
			Booked:    slot.Booked,
			Remaining: slot.Remaining,
			Available: slot.Remaining > 0,
		})
	}

	return &api.AvailabilityResponse{
		Date:  availability.Date.Key(),
		Slots: slots,
	}, nil
}

func (s *Service) GenerateSchedule(ctx context.Context, req *api.BulkScheduleRequest) ([]api.GeneratedSlot, error) {
	const op = "service.GenerateSchedule"

	startDate, err := schedule.ParseDateKey(req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	preferences := make([]schedule.Preference, 0, len(req.Preferences))
	for _, p := range req.Preferences {
		preferences = append(preferences, schedule.Preference{
			DayOfWeek: p.DayOfWeek,
			Time:      p.Time,
		})
	}

	// Clinic-wide blackout dates join the caller's exclusions.
	excludes := append([]string(nil), req.ExcludeDates...)

	blackouts, err := s.store.ListBlackouts(ctx, startDate.StartOfDay())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, b := range blackouts {
		excludes = append(excludes, b.Date.Format("2006-01-02"))
	}

	slots, err := s.scheduler.Generate(ctx, schedule.BulkRequest{
		StartDate:       startDate,
		Preferences:     preferences,
		Count:           req.Count,
		DurationMinutes: req.PackageDurationMinutes,
		ExcludeDates:    excludes,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]api.GeneratedSlot, 0, len(slots))
	for _, slot := range slots {
		result = append(result, api.GeneratedSlot{
			Date:            slot.Date.Key(),
			StartTime:       slot.StartTime,
			EndTime:         slot.EndTime,
			DayOfWeek:       slot.DayOfWeek,
			PreferenceIndex: slot.PreferenceIndex,
			HasConflict:     slot.HasConflict,
			ConflictCount:   slot.ConflictCount,
		})
	}

	return result, nil
}

// Bookings

func (s *Service) CreateBooking(ctx context.Context, req *api.BookingRequest) (*api.BookingResponse, error) {
	const op = "service.CreateBooking"

	date, err := schedule.ParseDateKey(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if date.Before(schedule.Today()) {
		return nil, fmt.Errorf("%s: %w", op, response.ErrDateInPast)
	}

	if !schedule.ValidTime(req.StartTime) {
		return nil, fmt.Errorf("%s: invalid start_time %q: %w", op, req.StartTime, response.ErrValidation)
	}

	if req.DurationMinutes <= 0 {
		return nil, fmt.Errorf("%s: duration must be positive: %w", op, response.ErrValidation)
	}
	endTime, err := schedule.AddMinutes(req.StartTime, req.DurationMinutes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	source := models.BookingSource(req.Source)
	if source != models.SourceStaff && source != models.SourcePortal {
		return nil, fmt.Errorf("%s: invalid source %q: %w", op, req.Source, response.ErrValidation)
	}

	limits, err := s.scheduler.SlotLimits(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	limit := limits.Staff
	if source == models.SourcePortal {
		limit = limits.Portal
	}

	lockKey := fmt.Sprintf("slot:%sT%s", date.Key(), req.StartTime)

	locked, err := s.locker.Lock(ctx, lockKey, 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("%s: lock error: %w", op, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", op, response.ErrLocked)
	}
	defer func() {
		_ = s.locker.Unlock(ctx, lockKey)
	}()

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", op, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	count, err := s.store.CountActiveForSlotTx(ctx, tx, date.Key(), req.StartTime)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if count >= limit {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, response.ErrSlotNotAvailable)
	}

	booking := &models.Booking{
		ClientID:  req.ClientID,
		StaffID:   req.StaffID,
		Date:      date.Time(),
		StartTime: req.StartTime,
		EndTime:   endTime,
		Source:    source,
		Status:    models.BookingScheduled,
		Notes:     req.Notes,
	}

	bookingID, err := s.store.CreateBooking(ctx, tx, booking)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: create booking: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	return s.GetBooking(ctx, bookingID)
}

func (s *Service) GetBooking(ctx context.Context, id string) (*api.BookingResponse, error) {
	const op = "service.GetBooking"

	booking, err := s.store.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return toBookingResponse(booking), nil
}

func (s *Service) ListBookings(ctx context.Context, clientID *string, from, to *time.Time, status *string) ([]*api.BookingResponse, error) {
	const op = "service.ListBookings"

	bookings, err := s.store.ListBookings(ctx, clientID, from, to, status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.BookingResponse, 0, len(bookings))
	for _, booking := range bookings {
		result = append(result, toBookingResponse(booking))
	}

	return result, nil
}

func (s *Service) CancelBooking(ctx context.Context, bookingID string) (*api.BookingResponse, error) {
	const op = "service.CancelBooking"

	err := s.store.UpdateBookingStatus(ctx, bookingID, models.BookingCancelled)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetBooking(ctx, bookingID)
}

func (s *Service) CheckInBooking(ctx context.Context, bookingID string) (*api.BookingResponse, error) {
	const op = "service.CheckInBooking"

	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if booking.Status != models.BookingScheduled {
		return nil, fmt.Errorf("%s: %w", op, response.ErrSlotNotAvailable)
	}

	err = s.store.UpdateBookingStatus(ctx, bookingID, models.BookingInProgress)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetBooking(ctx, bookingID)
}

func (s *Service) RescheduleBooking(ctx context.Context, req *api.RescheduleRequest) (*api.BookingResponse, error) {
	const op = "service.RescheduleBooking"

	booking, err := s.store.GetBooking(ctx, req.BookingID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if booking.Status != models.BookingScheduled {
		return nil, fmt.Errorf("%s: %w", op, response.ErrSlotNotAvailable)
	}

	date, err := schedule.ParseDateKey(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if date.Before(schedule.Today()) {
		return nil, fmt.Errorf("%s: %w", op, response.ErrDateInPast)
	}

	duration, err := schedule.DurationMinutes(booking.StartTime, booking.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	endTime, err := schedule.AddMinutes(req.StartTime, duration)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	limits, err := s.scheduler.SlotLimits(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	conflicts, err := s.scheduler.FindConflicts(ctx, []schedule.Date{date}, []string{req.StartTime})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for _, c := range conflicts {
		if c.Count >= limits.Staff {
			return nil, fmt.Errorf("%s: %w", op, response.ErrSlotNotAvailable)
		}
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: begin tx: %w", op, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	err = s.store.RescheduleBookingTx(ctx, tx, req.BookingID, date.Key(), req.StartTime, endTime)
	if err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}

	return s.GetBooking(ctx, req.BookingID)
}

func (s *Service) DeleteBooking(ctx context.Context, bookingID string) error {
	const op = "service.DeleteBooking"

	err := s.store.DeleteBooking(ctx, bookingID)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func toBookingResponse(booking *models.Booking) *api.BookingResponse {
	return &api.BookingResponse{
		ID:        booking.ID,
		ClientID:  booking.ClientID,
		StaffID:   booking.StaffID,
		Date:      booking.Date.Format("2006-01-02"),
		StartTime: booking.StartTime,
		EndTime:   booking.EndTime,
		Source:    string(booking.Source),
		Status:    string(booking.Status),
		Notes:     booking.Notes,
	}
}

// Blackout dates

func (s *Service) CreateBlackout(ctx context.Context, req *api.BlackoutRequest) (*api.BlackoutResponse, error) {
	const op = "service.CreateBlackout"

	date, err := schedule.ParseDateKey(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	blackout := &models.BlackoutDate{
		Date:   date.Time(),
		Reason: req.Reason,
	}

	id, err := s.store.CreateBlackout(ctx, blackout)
	if err != nil {
		if errors.Is(err, response.ErrConflict) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrConflict)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.GetBlackout(ctx, id)
}

func (s *Service) GetBlackout(ctx context.Context, id string) (*api.BlackoutResponse, error) {
	const op = "service.GetBlackout"

	blackout, err := s.store.GetBlackout(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return toBlackoutResponse(blackout), nil
}

func (s *Service) ListBlackouts(ctx context.Context, fromKey *string) ([]*api.BlackoutResponse, error) {
	const op = "service.ListBlackouts"

	from := schedule.Today()
	if fromKey != nil {
		parsed, err := schedule.ParseDateKey(*fromKey)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		from = parsed
	}

	blackouts, err := s.store.ListBlackouts(ctx, from.StartOfDay())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]*api.BlackoutResponse, 0, len(blackouts))
	for _, blackout := range blackouts {
		result = append(result, toBlackoutResponse(blackout))
	}

	return result, nil
}

func (s *Service) DeleteBlackout(ctx context.Context, id string) error {
	const op = "service.DeleteBlackout"

	err := s.store.DeleteBlackout(ctx, id)
	if err != nil {
		if errors.Is(err, response.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func toBlackoutResponse(blackout *models.BlackoutDate) *api.BlackoutResponse {
	return &api.BlackoutResponse{
		ID:     blackout.ID,
		Date:   blackout.Date.Format("2006-01-02"),
		Reason: blackout.Reason,
	}
}
