package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"hrdesk/internal/config"
	"hrdesk/internal/metrics"
	"hrdesk/internal/model"
)

type stubLister struct {
	records []model.AttendanceWithUser
	err     error
	calls   chan string
}

func (s *stubLister) Incomplete(_ context.Context, before string) ([]model.AttendanceWithUser, error) {
	if s.calls != nil {
		select {
		case s.calls <- before:
		default:
		}
	}
	return s.records, s.err
}

func incompleteRecord(id, userID string) model.AttendanceWithUser {
	return model.AttendanceWithUser{AttendanceRecord: model.AttendanceRecord{ID: id, UserID: userID, Date: "2025-01-06"}}
}

func TestScanIncompleteDaysSetsGauge(t *testing.T) {
	lister := &stubLister{records: []model.AttendanceWithUser{
		incompleteRecord("a1", "u1"),
		incompleteRecord("a2", "u1"),
		incompleteRecord("a3", "u2"),
	}}
	count, err := ScanIncompleteDays(context.Background(), lister)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 incomplete days, got %d", count)
	}
	if got := testutil.ToFloat64(metrics.IncompleteDays); got != 3 {
		t.Fatalf("expected gauge 3, got %v", got)
	}

	lister.records = nil
	if _, err := ScanIncompleteDays(context.Background(), lister); err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if got := testutil.ToFloat64(metrics.IncompleteDays); got != 0 {
		t.Fatalf("expected gauge reset to 0, got %v", got)
	}
}

func TestScanIncompleteDaysPropagatesError(t *testing.T) {
	lister := &stubLister{err: errors.New("store down")}
	if _, err := ScanIncompleteDays(context.Background(), lister); err == nil {
		t.Fatalf("expected error")
	}
}

func TestStartIncompleteDayJobTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	lister := &stubLister{calls: make(chan string, 1)}
	StartIncompleteDayJob(ctx, config.Config{
		IncompleteDayJobEnabled:  true,
		IncompleteDayJobInterval: 10 * time.Millisecond,
	}, lister)

	select {
	case before := <-lister.calls:
		if before != "" {
			t.Fatalf("expected the job to scan up to today, got %q", before)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("job never ran")
	}
}

func TestStartIncompleteDayJobDisabled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	lister := &stubLister{calls: make(chan string, 1)}
	StartIncompleteDayJob(ctx, config.Config{IncompleteDayJobInterval: 10 * time.Millisecond}, lister)

	select {
	case <-lister.calls:
		t.Fatalf("disabled job must not run")
	case <-time.After(50 * time.Millisecond):
	}
}
