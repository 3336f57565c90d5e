// Package attendance records one check-in and at most one check-out per user per
// calendar day.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hrdesk/internal/apperr"
	"hrdesk/internal/clock"
	"hrdesk/internal/lock"
	"hrdesk/internal/metrics"
	"hrdesk/internal/model"
	"hrdesk/internal/store"
)

var (
	ErrAlreadyCheckedIn  = apperr.New(apperr.KindPrecondition, "already_checked_in", "Already checked in today")
	ErrNoCheckInFound    = apperr.New(apperr.KindPrecondition, "no_check_in", "No check-in found for today")
	ErrAlreadyCheckedOut = apperr.New(apperr.KindPrecondition, "already_checked_out", "Already checked out today")
)

type Ledger struct {
	store  store.Attendance
	locker lock.Locker
	clock  clock.Clock
	loc    *time.Location
}

// NewLedger builds a ledger. The calendar day of every operation is taken from clk in
// loc; a nil loc means UTC.
func NewLedger(st store.Attendance, locker lock.Locker, clk clock.Clock, loc *time.Location) *Ledger {
	if clk == nil {
		clk = clock.System{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Ledger{store: st, locker: locker, clock: clk, loc: loc}
}

// Today is the current calendar date in the ledger's location.
func (l *Ledger) Today() string {
	return clock.CalendarDate(l.clock.Now(), l.loc)
}

func (l *Ledger) Location() *time.Location {
	return l.loc
}

func (l *Ledger) CheckIn(ctx context.Context, userID string) (model.AttendanceRecord, error) {
	now := l.clock.Now().UTC()
	date := clock.CalendarDate(now, l.loc)

	unlock, err := l.lock(ctx, lock.AttendanceKey(userID, date))
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	defer unlock()

	_, err = l.store.GetAttendance(ctx, userID, date)
	switch {
	case err == nil:
		return model.AttendanceRecord{}, ErrAlreadyCheckedIn
	case !errors.Is(err, store.ErrNotFound):
		return model.AttendanceRecord{}, fmt.Errorf("check-in lookup: %w", err)
	}

	record := model.AttendanceRecord{
		ID:          uuid.NewString(),
		UserID:      userID,
		Date:        date,
		CheckInTime: &now,
		Status:      model.AttendancePresent,
	}
	if err := l.store.CreateAttendance(ctx, record); err != nil {
		// another instance won the race on the unique key
		if errors.Is(err, store.ErrDuplicate) {
			return model.AttendanceRecord{}, ErrAlreadyCheckedIn
		}
		return model.AttendanceRecord{}, fmt.Errorf("check-in: %w", err)
	}
	metrics.AttendanceEvents.WithLabelValues("check_in").Inc()
	return record, nil
}

func (l *Ledger) CheckOut(ctx context.Context, userID string) (model.AttendanceRecord, error) {
	now := l.clock.Now().UTC()
	date := clock.CalendarDate(now, l.loc)

	unlock, err := l.lock(ctx, lock.AttendanceKey(userID, date))
	if err != nil {
		return model.AttendanceRecord{}, err
	}
	defer unlock()

	record, err := l.store.GetAttendance(ctx, userID, date)
	if errors.Is(err, store.ErrNotFound) {
		return model.AttendanceRecord{}, ErrNoCheckInFound
	}
	if err != nil {
		return model.AttendanceRecord{}, fmt.Errorf("check-out lookup: %w", err)
	}
	if record.CheckOutTime != nil {
		return model.AttendanceRecord{}, ErrAlreadyCheckedOut
	}

	if err := l.store.SetCheckOut(ctx, record.ID, now); err != nil {
		if errors.Is(err, store.ErrStale) {
			return model.AttendanceRecord{}, ErrAlreadyCheckedOut
		}
		return model.AttendanceRecord{}, fmt.Errorf("check-out: %w", err)
	}
	record.CheckOutTime = &now
	metrics.AttendanceEvents.WithLabelValues("check_out").Inc()
	return record, nil
}

func (l *Ledger) ListForUser(ctx context.Context, userID string) ([]model.AttendanceRecord, error) {
	records, err := l.store.ListAttendanceByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

func (l *Ledger) ListAll(ctx context.Context) ([]model.AttendanceWithUser, error) {
	records, err := l.store.ListAttendance(ctx)
	if err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return records, nil
}

// Incomplete lists records dated before `before` that were never checked out. An empty
// before means today. Records are reported, never closed.
func (l *Ledger) Incomplete(ctx context.Context, before string) ([]model.AttendanceWithUser, error) {
	if before == "" {
		before = l.Today()
	}
	records, err := l.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	incomplete := make([]model.AttendanceWithUser, 0)
	for _, record := range records {
		if record.Incomplete(before) {
			incomplete = append(incomplete, record)
		}
	}
	return incomplete, nil
}

func (l *Ledger) lock(ctx context.Context, key string) (func(), error) {
	if l.locker == nil {
		return func() {}, nil
	}
	unlock, err := l.locker.Lock(ctx, key)
	if errors.Is(err, lock.ErrBusy) {
		return nil, apperr.ErrBusy.With(err)
	}
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", key, err)
	}
	return unlock, nil
}
