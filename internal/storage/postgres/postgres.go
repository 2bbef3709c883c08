package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"clinic-scheduler/internal/models"
	"clinic-scheduler/pkg/response"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Storage struct {
	db *sql.DB
}

func New(storagePath string) (*Storage, error) {
	const op = "storage.postgres.New"

	db, err := sql.Open("postgres", storagePath)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	if s == nil || s.db == nil {
		return nil
	}

	return s.db.Close()
}

func (s *Storage) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

// #### scheduling ####

// CountActiveByDateTime is the single batched aggregation behind
// conflict detection: one GROUP BY over the (date, start_time) cross
// product, counting only statuses that occupy capacity. Per-pair count
// queries would be O(dates*times) round-trips; this is one.
func (s *Storage) CountActiveByDateTime(ctx context.Context, dateKeys []string, times []string) ([]models.SlotCount, error) {
	const op = "storage.postgres.CountActiveByDateTime"

	rows, err := s.db.QueryContext(ctx, `
		SELECT date, start_time, COUNT(*)
		FROM bookings
		WHERE date = ANY($1::date[])
		  AND start_time = ANY($2)
		  AND status = ANY($3)
		GROUP BY date, start_time`,
		pq.Array(dateKeys), pq.Array(times), pq.Array(models.ActiveStatuses),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var counts []models.SlotCount
	for rows.Next() {
		var date time.Time
		var c models.SlotCount

		if err := rows.Scan(&date, &c.StartTime, &c.Count); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		c.DateKey = date.Format("2006-01-02")
		counts = append(counts, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return counts, nil
}

// GetSlotLimits reads the configured capacity ceilings. Missing rows
// come back as nil fields; the scheduler substitutes defaults.
func (s *Storage) GetSlotLimits(ctx context.Context) (*models.SlotLimits, error) {
	const op = "storage.postgres.GetSlotLimits"

	rows, err := s.db.QueryContext(ctx, `
		SELECT key, value FROM settings
		WHERE key IN ('slot_limit_staff', 'slot_limit_portal')`,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	limits := &models.SlotLimits{}
	for rows.Next() {
		var key string
		var value int

		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		switch key {
		case "slot_limit_staff":
			v := value
			limits.Staff = &v
		case "slot_limit_portal":
			v := value
			limits.Portal = &v
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return limits, nil
}

// #### bookings ####

// CountActiveForSlotTx re-checks slot occupancy inside the creation
// transaction, right before the insert.
func (s *Storage) CountActiveForSlotTx(ctx context.Context, tx *sql.Tx, dateKey, startTime string) (int, error) {
	const op = "storage.postgres.CountActiveForSlotTx"

	var count int
	err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE date = $1::date AND start_time = $2 AND status = ANY($3)`,
		dateKey, startTime, pq.Array(models.ActiveStatuses),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return count, nil
}

func (s *Storage) CreateBooking(ctx context.Context, tx *sql.Tx, booking *models.Booking) (string, error) {
	const op = "storage.postgres.CreateBooking"

	id := uuid.NewString()

	_, err := tx.ExecContext(ctx, `
		INSERT INTO bookings (id, client_id, staff_id, date, start_time, end_time, source, status, notes)
		VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8, $9)`,
		id, booking.ClientID, booking.StaffID, booking.Date.Format("2006-01-02"),
		booking.StartTime, booking.EndTime, booking.Source, booking.Status, booking.Notes,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return "", fmt.Errorf("%s: %w", op, response.ErrConflict)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	const op = "storage.postgres.GetBooking"

	var booking models.Booking
	err := s.db.QueryRowContext(ctx, `
		SELECT id, client_id, staff_id, date, start_time, end_time, source, status, notes, created_at
		FROM bookings WHERE id = $1`, id,
	).Scan(
		&booking.ID, &booking.ClientID, &booking.StaffID, &booking.Date,
		&booking.StartTime, &booking.EndTime, &booking.Source, &booking.Status,
		&booking.Notes, &booking.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &booking, nil
}

func (s *Storage) ListBookings(ctx context.Context, clientID *string, from, to *time.Time, status *string) ([]*models.Booking, error) {
	const op = "storage.postgres.ListBookings"

	query := `
		SELECT id, client_id, staff_id, date, start_time, end_time, source, status, notes, created_at
		FROM bookings`

	var conds []string
	var args []any

	if clientID != nil {
		args = append(args, *clientID)
		conds = append(conds, fmt.Sprintf("client_id = $%d", len(args)))
	}
	if from != nil {
		args = append(args, from.Format("2006-01-02"))
		conds = append(conds, fmt.Sprintf("date >= $%d::date", len(args)))
	}
	if to != nil {
		args = append(args, to.Format("2006-01-02"))
		conds = append(conds, fmt.Sprintf("date <= $%d::date", len(args)))
	}
	if status != nil {
		args = append(args, *status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date, start_time"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		var booking models.Booking

		err := rows.Scan(
			&booking.ID, &booking.ClientID, &booking.StaffID, &booking.Date,
			&booking.StartTime, &booking.EndTime, &booking.Source, &booking.Status,
			&booking.Notes, &booking.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		bookings = append(bookings, &booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return bookings, nil
}

func (s *Storage) UpdateBookingStatus(ctx context.Context, bookingID string, status models.BookingStatus) error {
	const op = "storage.postgres.UpdateBookingStatus"

	res, err := s.db.ExecContext(ctx, `UPDATE bookings SET status = $1 WHERE id = $2`, status, bookingID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

func (s *Storage) RescheduleBookingTx(ctx context.Context, tx *sql.Tx, bookingID, dateKey, startTime, endTime string) error {
	const op = "storage.postgres.RescheduleBookingTx"

	res, err := tx.ExecContext(ctx, `
		UPDATE bookings SET date = $1::date, start_time = $2, end_time = $3
		WHERE id = $4`,
		dateKey, startTime, endTime, bookingID,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return fmt.Errorf("%s: %w", op, response.ErrConflict)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

func (s *Storage) DeleteBooking(ctx context.Context, bookingID string) error {
	const op = "storage.postgres.DeleteBooking"

	res, err := s.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, bookingID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}

// #### blackout dates ####

func (s *Storage) CreateBlackout(ctx context.Context, blackout *models.BlackoutDate) (string, error) {
	const op = "storage.postgres.CreateBlackout"

	id := uuid.NewString()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blackout_dates (id, date, reason)
		VALUES ($1, $2::date, $3)`,
		id, blackout.Date.Format("2006-01-02"), blackout.Reason,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return "", fmt.Errorf("%s: %w", op, response.ErrConflict)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) GetBlackout(ctx context.Context, id string) (*models.BlackoutDate, error) {
	const op = "storage.postgres.GetBlackout"

	var blackout models.BlackoutDate
	err := s.db.QueryRowContext(ctx, `
		SELECT id, date, reason FROM blackout_dates WHERE id = $1`, id,
	).Scan(&blackout.ID, &blackout.Date, &blackout.Reason)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("%s: %w", op, response.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &blackout, nil
}

// ListBlackouts returns blackout dates on or after from.
func (s *Storage) ListBlackouts(ctx context.Context, from time.Time) ([]*models.BlackoutDate, error) {
	const op = "storage.postgres.ListBlackouts"

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, reason FROM blackout_dates
		WHERE date >= $1::date ORDER BY date`,
		from.Format("2006-01-02"),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	defer rows.Close()

	var blackouts []*models.BlackoutDate
	for rows.Next() {
		var blackout models.BlackoutDate

		if err := rows.Scan(&blackout.ID, &blackout.Date, &blackout.Reason); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		blackouts = append(blackouts, &blackout)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return blackouts, nil
}

func (s *Storage) DeleteBlackout(ctx context.Context, id string) error {
	const op = "storage.postgres.DeleteBlackout"

	res, err := s.db.ExecContext(ctx, `DELETE FROM blackout_dates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, response.ErrNotFound)
	}

	return nil
}
