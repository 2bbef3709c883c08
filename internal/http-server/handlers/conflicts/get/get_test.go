package get

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"clinic-scheduler/api"
	"clinic-scheduler/pkg/response"

	"log/slog"
	"os"
)

type fakeChecker struct {
	conflicts []api.ConflictInfo
	err       error

	gotDates []string
	gotTimes []string
}

func (f *fakeChecker) CheckConflicts(_ context.Context, dateKeys, times []string) ([]api.ConflictInfo, error) {
	f.gotDates = dateKeys
	f.gotTimes = times
	return f.conflicts, f.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func TestConflictsHandlerParsesCSV(t *testing.T) {
	checker := &fakeChecker{conflicts: []api.ConflictInfo{
		{Date: "2026-03-16", Time: "09:00", Count: 2, Available: 1},
	}}
	handler := New(discardLogger(), checker)

	req := httptest.NewRequest(http.MethodGet, "/conflicts?dates=2026-03-16,2026-03-17&times=09:00,10:00", nil)
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(checker.gotDates) != 2 || len(checker.gotTimes) != 2 {
		t.Fatalf("expected parsed CSV params, got %v / %v", checker.gotDates, checker.gotTimes)
	}

	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Conflicts) != 1 || resp.Conflicts[0].Count != 2 {
		t.Fatalf("unexpected body: %+v", resp)
	}
}

func TestConflictsHandlerEmptyParams(t *testing.T) {
	checker := &fakeChecker{conflicts: []api.ConflictInfo{}}
	handler := New(discardLogger(), checker)

	req := httptest.NewRequest(http.MethodGet, "/conflicts", nil)
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for empty params, got %d", rec.Code)
	}
}

func TestConflictsHandlerValidationError(t *testing.T) {
	checker := &fakeChecker{err: fmt.Errorf("service: %w", response.ErrValidation)}
	handler := New(discardLogger(), checker)

	req := httptest.NewRequest(http.MethodGet, "/conflicts?dates=nonsense&times=09:00", nil)
	rec := httptest.NewRecorder()

	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var resp response.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code != string(response.VALIDATION_ERROR) {
		t.Fatalf("expected VALIDATION_ERROR code, got %q", resp.Code)
	}
}
