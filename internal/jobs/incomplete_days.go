package jobs

import (
	"context"
	"log"
	"time"

	"hrdesk/internal/config"
	"hrdesk/internal/metrics"
	"hrdesk/internal/model"
)

// IncompleteLister is satisfied by *attendance.Ledger.
type IncompleteLister interface {
	Incomplete(ctx context.Context, before string) ([]model.AttendanceWithUser, error)
}

// StartIncompleteDayJob periodically counts past attendance days that were never
// checked out. It only reports; records are left untouched.
func StartIncompleteDayJob(ctx context.Context, cfg config.Config, ledger IncompleteLister) {
	if !cfg.IncompleteDayJobEnabled {
		return
	}
	if ledger == nil {
		log.Printf("incomplete day job disabled: attendance ledger not configured")
		return
	}
	interval := cfg.IncompleteDayJobInterval
	if interval <= 0 {
		interval = time.Hour
	}
	timeout := cfg.IncompleteDayJobTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tickCtx, cancel := context.WithTimeout(ctx, timeout)
				_, err := ScanIncompleteDays(tickCtx, ledger)
				cancel()
				if err != nil {
					log.Printf("incomplete day job error: %v", err)
				}
			}
		}
	}()
}

// ScanIncompleteDays runs one pass and publishes the count on the gauge.
func ScanIncompleteDays(ctx context.Context, ledger IncompleteLister) (int, error) {
	records, err := ledger.Incomplete(ctx, "")
	if err != nil {
		return 0, err
	}
	metrics.IncompleteDays.Set(float64(len(records)))
	if len(records) > 0 {
		users := make(map[string]struct{}, len(records))
		for _, record := range records {
			users[record.UserID] = struct{}{}
		}
		log.Printf("incomplete day job found %d days without check-out across %d users", len(records), len(users))
	}
	return len(records), nil
}
