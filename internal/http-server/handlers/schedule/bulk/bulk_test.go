package bulk

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"clinic-scheduler/api"
	"clinic-scheduler/pkg/response"
)

type fakeGenerator struct {
	slots []api.GeneratedSlot
	err   error

	gotReq *api.BulkScheduleRequest
}

func (f *fakeGenerator) GenerateSchedule(_ context.Context, req *api.BulkScheduleRequest) ([]api.GeneratedSlot, error) {
	f.gotReq = req
	return f.slots, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

const validBody = `{
	"start_date": "2026-03-16",
	"preferences": [{"day_of_week": 1, "time": "09:00"}],
	"count": 3,
	"package_duration_minutes": 60
}`

func TestBulkHandlerOK(t *testing.T) {
	gen := &fakeGenerator{slots: []api.GeneratedSlot{
		{Date: "2026-03-16", StartTime: "09:00", EndTime: "10:00", DayOfWeek: 1},
		{Date: "2026-03-23", StartTime: "09:00", EndTime: "10:00", DayOfWeek: 1, HasConflict: true, ConflictCount: 1},
		{Date: "2026-03-30", StartTime: "09:00", EndTime: "10:00", DayOfWeek: 1},
	}}
	handler := New(discardLogger(), gen)

	req := httptest.NewRequest(http.MethodPost, "/schedule/bulk", strings.NewReader(validBody))
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gen.gotReq.Count != 3 || gen.gotReq.PackageDurationMinutes != 60 {
		t.Fatalf("request not passed through: %+v", gen.gotReq)
	}

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(resp.Slots))
	}
	if !resp.Slots[1].HasConflict || resp.Slots[1].ConflictCount != 1 {
		t.Fatalf("conflict annotation lost: %+v", resp.Slots[1])
	}
}

func TestBulkHandlerMissingFields(t *testing.T) {
	handler := New(discardLogger(), &fakeGenerator{})

	for _, body := range []string{
		`{"preferences": [{"day_of_week": 1, "time": "09:00"}], "count": 3, "package_duration_minutes": 60}`,
		`{"start_date": "2026-03-16", "count": 3, "package_duration_minutes": 60}`,
		`not json`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/schedule/bulk", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestBulkHandlerValidationError(t *testing.T) {
	gen := &fakeGenerator{err: fmt.Errorf("service: %w", response.ErrValidation)}
	handler := New(discardLogger(), gen)

	req := httptest.NewRequest(http.MethodPost, "/schedule/bulk", strings.NewReader(validBody))
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestBulkHandlerUnsatisfiable(t *testing.T) {
	gen := &fakeGenerator{err: fmt.Errorf("service: %w", response.ErrUnsatisfiable)}
	handler := New(discardLogger(), gen)

	req := httptest.NewRequest(http.MethodPost, "/schedule/bulk", strings.NewReader(validBody))
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}

	var resp response.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code != string(response.UNSATISFIABLE) {
		t.Fatalf("expected UNSATISFIABLE code, got %q", resp.Code)
	}
}
