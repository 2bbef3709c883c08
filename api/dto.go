package api

// Scheduling

type SchedulePreference struct {
	DayOfWeek int    `json:"day_of_week"`
	Time      string `json:"time"`
}

type BulkScheduleRequest struct {
	StartDate              string               `json:"start_date"`
	Preferences            []SchedulePreference `json:"preferences"`
	Count                  int                  `json:"count"`
	PackageDurationMinutes int                  `json:"package_duration_minutes"`
	ExcludeDates           []string             `json:"exclude_dates,omitempty"`
}

type GeneratedSlot struct {
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DayOfWeek       int    `json:"day_of_week"`
	PreferenceIndex int    `json:"preference_index"`
	HasConflict     bool   `json:"has_conflict"`
	ConflictCount   int    `json:"conflict_count"`
}

type ConflictInfo struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	Count     int    `json:"count"`
	Available int    `json:"available"`
}

type AvailabilitySlot struct {
	Time      string `json:"time"`
	Booked    int    `json:"booked"`
	Remaining int    `json:"remaining"`
	Available bool   `json:"available"`
}

type AvailabilityResponse struct {
	Date  string             `json:"date"`
	Slots []AvailabilitySlot `json:"slots"`
}

// Bookings

type BookingRequest struct {
	ClientID        string  `json:"client_id"`
	StaffID         *string `json:"staff_id,omitempty"`
	Date            string  `json:"date"`
	StartTime       string  `json:"start_time"`
	DurationMinutes int     `json:"duration_minutes"`
	Source          string  `json:"source"`
	Notes           *string `json:"notes,omitempty"`
}

type BookingResponse struct {
	ID        string  `json:"id"`
	ClientID  string  `json:"client_id"`
	StaffID   *string `json:"staff_id,omitempty"`
	Date      string  `json:"date"`
	StartTime string  `json:"start_time"`
	EndTime   string  `json:"end_time"`
	Source    string  `json:"source"`
	Status    string  `json:"status"`
	Notes     *string `json:"notes,omitempty"`
}

type RescheduleRequest struct {
	BookingID string `json:"booking_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
}

// Blackout dates

type BlackoutRequest struct {
	Date   string  `json:"date"`
	Reason *string `json:"reason,omitempty"`
}

type BlackoutResponse struct {
	ID     string  `json:"id"`
	Date   string  `json:"date"`
	Reason *string `json:"reason,omitempty"`
}
