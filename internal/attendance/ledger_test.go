package attendance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrdesk/internal/apperr"
	"hrdesk/internal/clock"
	"hrdesk/internal/lock"
	"hrdesk/internal/model"
	"hrdesk/internal/store/jsonstore"
)

type movableClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *movableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *movableClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newLedger(t *testing.T, at time.Time) (*Ledger, *movableClock, *jsonstore.Store) {
	t.Helper()
	st := jsonstore.NewMemory()
	clk := &movableClock{now: at}
	return NewLedger(st, lock.NewLocal(time.Second), clk, time.UTC), clk, st
}

func TestCheckInThenCheckOut(t *testing.T) {
	ctx := context.Background()
	in := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	ledger, clk, _ := newLedger(t, in)

	record, err := ledger.CheckIn(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-06", record.Date)
	assert.Equal(t, model.AttendancePresent, record.Status)
	assert.Nil(t, record.CheckOutTime)
	require.NotNil(t, record.CheckInTime)
	assert.True(t, record.CheckInTime.Equal(in))

	out := time.Date(2025, 1, 6, 17, 30, 0, 0, time.UTC)
	clk.Set(out)
	closed, err := ledger.CheckOut(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, closed.CheckOutTime)
	assert.True(t, closed.CheckOutTime.Equal(out))

	records, err := ledger.ListForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.NotNil(t, records[0].CheckOutTime)
}

func TestDoubleCheckInFails(t *testing.T) {
	ctx := context.Background()
	ledger, _, _ := newLedger(t, time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC))

	_, err := ledger.CheckIn(ctx, "u1")
	require.NoError(t, err)
	_, err = ledger.CheckIn(ctx, "u1")
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)
	assert.Equal(t, apperr.KindPrecondition, apperr.KindOf(err))
}

func TestCheckOutWithoutCheckInFails(t *testing.T) {
	ledger, _, _ := newLedger(t, time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC))

	_, err := ledger.CheckOut(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrNoCheckInFound)
}

func TestCheckOutTwiceFails(t *testing.T) {
	ctx := context.Background()
	ledger, clk, _ := newLedger(t, time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC))

	_, err := ledger.CheckIn(ctx, "u1")
	require.NoError(t, err)
	clk.Set(time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC))
	_, err = ledger.CheckOut(ctx, "u1")
	require.NoError(t, err)
	clk.Set(time.Date(2025, 1, 6, 18, 0, 0, 0, time.UTC))
	_, err = ledger.CheckOut(ctx, "u1")
	assert.ErrorIs(t, err, ErrAlreadyCheckedOut)
}

func TestYesterdayStaysOpenAndTodayIsNewDay(t *testing.T) {
	ctx := context.Background()
	ledger, clk, _ := newLedger(t, time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC))

	_, err := ledger.CheckIn(ctx, "u1")
	require.NoError(t, err)

	clk.Set(time.Date(2025, 1, 7, 9, 0, 0, 0, time.UTC))
	_, err = ledger.CheckOut(ctx, "u1")
	assert.ErrorIs(t, err, ErrNoCheckInFound, "a forgotten checkout is never carried into the next day")

	_, err = ledger.CheckIn(ctx, "u1")
	require.NoError(t, err)

	incomplete, err := ledger.Incomplete(ctx, "")
	require.NoError(t, err)
	// the store has no user rows, so the joined listing is empty
	assert.Empty(t, incomplete)
}

func TestIncompleteReportsPastOpenDays(t *testing.T) {
	ctx := context.Background()
	ledger, clk, st := newLedger(t, time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC))
	require.NoError(t, st.CreateUser(ctx, model.User{ID: "u1", Name: "Alice", Email: "a@example.com"}, nil))

	_, err := ledger.CheckIn(ctx, "u1")
	require.NoError(t, err)
	clk.Set(time.Date(2025, 1, 7, 9, 0, 0, 0, time.UTC))
	_, err = ledger.CheckIn(ctx, "u1")
	require.NoError(t, err)

	incomplete, err := ledger.Incomplete(ctx, "")
	require.NoError(t, err)
	require.Len(t, incomplete, 1)
	assert.Equal(t, "2025-01-06", incomplete[0].Date)
	assert.Nil(t, incomplete[0].CheckOutTime)
}

func TestCalendarDateUsesConfiguredLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	st := jsonstore.NewMemory()
	// 23:30 UTC on the 6th is already the 7th two hours east
	ledger := NewLedger(st, nil, clock.Fixed(time.Date(2025, 1, 6, 23, 30, 0, 0, time.UTC)), loc)

	record, err := ledger.CheckIn(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-07", record.Date)
	assert.Equal(t, time.UTC, record.CheckInTime.Location())
}

func TestConcurrentCheckInExactlyOneWins(t *testing.T) {
	ctx := context.Background()
	ledger, _, st := newLedger(t, time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC))

	const workers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		already int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.CheckIn(ctx, "u1")
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case errors.Is(err, ErrAlreadyCheckedIn):
				already++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, workers-1, already)

	records, err := st.ListAttendanceByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestBusyLockSurfacesAsBusy(t *testing.T) {
	st := jsonstore.NewMemory()
	locker := lock.NewLocal(10 * time.Millisecond)
	at := time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)
	ledger := NewLedger(st, locker, clock.Fixed(at), time.UTC)

	unlock, err := locker.Lock(context.Background(), lock.AttendanceKey("u1", "2025-01-06"))
	require.NoError(t, err)
	defer unlock()

	_, err = ledger.CheckIn(context.Background(), "u1")
	assert.ErrorIs(t, err, apperr.ErrBusy)
	assert.Equal(t, apperr.KindBusy, apperr.KindOf(err))
}
