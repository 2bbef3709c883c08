package schedule

import (
	"fmt"
	"regexp"
	"time"

	"clinic-scheduler/pkg/response"
)

const dateKeyLayout = "2006-01-02"

// Date is a calendar date pinned to 12:00:00 UTC. Keeping every date at
// UTC noon makes day arithmetic and comparisons immune to timezone
// drift: adding days or asking "is this before today" can never slip
// across a local midnight boundary.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 12, 0, 0, 0, time.UTC)}
}

// DateOf extracts the calendar date from an arbitrary instant.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date {
	return DateOf(time.Now().UTC())
}

// ParseDateKey parses a strict "YYYY-MM-DD" key.
func ParseDateKey(s string) (Date, error) {
	const op = "schedule.ParseDateKey"

	t, err := time.Parse(dateKeyLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%s: invalid date %q: %w", op, s, response.ErrValidation)
	}

	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

// Time returns the canonical UTC-noon instant.
func (d Date) Time() time.Time {
	return d.t
}

func (d Date) Key() string {
	return d.t.Format(dateKeyLayout)
}

func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

func (d Date) Weekday() time.Weekday {
	return d.t.Weekday()
}

func (d Date) Before(o Date) bool {
	return d.t.Before(o.t)
}

func (d Date) Equal(o Date) bool {
	return d.t.Equal(o.t)
}

func (d Date) IsZero() bool {
	return d.t.IsZero()
}

// StartOfDay returns the inclusive lower UTC bound of the calendar day,
// for use in range queries.
func (d Date) StartOfDay() time.Time {
	return time.Date(d.t.Year(), d.t.Month(), d.t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the inclusive upper UTC bound of the calendar day.
func (d Date) EndOfDay() time.Time {
	return time.Date(d.t.Year(), d.t.Month(), d.t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
}

var timeRe = regexp.MustCompile(`^([01]\d|2[0-3]):([0-5]\d)$`)

// ValidTime reports whether s is a well-formed "HH:mm" time of day.
func ValidTime(s string) bool {
	return timeRe.MatchString(s)
}

// AddMinutes computes hhmm + minutes within the same calendar day.
// Sessions never cross midnight in this domain; a result at or past
// 24:00 is rejected rather than rolled over to the next day.
func AddMinutes(hhmm string, minutes int) (string, error) {
	const op = "schedule.AddMinutes"

	if !ValidTime(hhmm) {
		return "", fmt.Errorf("%s: invalid time %q: %w", op, hhmm, response.ErrValidation)
	}

	total := minutesOf(hhmm) + minutes
	if total >= 24*60 {
		return "", fmt.Errorf("%s: %s + %dmin crosses midnight: %w", op, hhmm, minutes, response.ErrValidation)
	}

	return fmt.Sprintf("%02d:%02d", total/60, total%60), nil
}

// DurationMinutes returns the minutes between two times of the same
// day, e.g. "09:00" and "10:30" give 90.
func DurationMinutes(start, end string) (int, error) {
	const op = "schedule.DurationMinutes"

	if !ValidTime(start) || !ValidTime(end) {
		return 0, fmt.Errorf("%s: invalid range %q-%q: %w", op, start, end, response.ErrValidation)
	}

	d := minutesOf(end) - minutesOf(start)
	if d <= 0 {
		return 0, fmt.Errorf("%s: end %q not after start %q: %w", op, end, start, response.ErrValidation)
	}

	return d, nil
}

// minutesOf assumes s already passed ValidTime.
func minutesOf(s string) int {
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	return h*60 + m
}
