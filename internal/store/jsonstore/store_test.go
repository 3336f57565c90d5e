package jsonstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrdesk/internal/model"
	"hrdesk/internal/store"
)

func TestOpenPersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(dir)
	require.NoError(t, err)

	created := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	company := "Acme"
	user := model.User{ID: "u1", Name: "Alice", Email: "alice@example.com", PasswordHash: "hash", Role: model.RoleAdmin, Position: "Admin", CompanyName: &company, CreatedAt: created}
	require.NoError(t, s.CreateUser(ctx, user, &model.Company{ID: "c1", Name: company, OwnerUserID: "u1", CreatedAt: created}))

	checkIn := created
	require.NoError(t, s.CreateAttendance(ctx, model.AttendanceRecord{ID: "a1", UserID: "u1", Date: "2024-03-04", CheckInTime: &checkIn, Status: model.AttendancePresent}))
	require.NoError(t, s.SetCheckOut(ctx, "a1", created.Add(8*time.Hour)))
	require.NoError(t, s.CreateLeave(ctx, model.LeaveRequest{ID: "l1", UserID: "u1", StartDate: "2024-03-10", EndDate: "2024-03-12", Type: "Annual", Status: model.LeavePending, CreatedAt: created}))

	for _, name := range []string{usersFile, companiesFile, attendanceFile, leavesFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
	}

	reopened, err := Open(dir)
	require.NoError(t, err)

	got, err := reopened.GetUserByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hash", got.PasswordHash)

	record, err := reopened.GetAttendance(ctx, "u1", "2024-03-04")
	require.NoError(t, err)
	require.NotNil(t, record.CheckOutTime)
	assert.True(t, record.CheckOutTime.Equal(created.Add(8*time.Hour)))

	companies, err := reopened.ListCompanies(ctx)
	require.NoError(t, err)
	require.Len(t, companies, 1)
	assert.Equal(t, "Acme", companies[0].Name)

	leaves, err := reopened.ListLeaves(ctx)
	require.NoError(t, err)
	require.Len(t, leaves, 1)
	assert.Equal(t, "Alice", leaves[0].User.Name)
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, usersFile), []byte("{not json"), 0o600))

	_, err := Open(dir)
	require.Error(t, err)
}

func TestOpenTreatsEmptyFileAsEmptyTable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, leavesFile), []byte("\n"), 0o600))

	s, err := Open(dir)
	require.NoError(t, err)
	leaves, err := s.ListLeaves(context.Background())
	require.NoError(t, err)
	assert.Empty(t, leaves)
}

func TestDuplicates(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, s.CreateUser(ctx, model.User{ID: "u1", Email: "bob@example.com"}, &model.Company{ID: "c1", Name: "Acme"}))
	err := s.CreateUser(ctx, model.User{ID: "u2", Email: "Bob@Example.com"}, nil)
	assert.ErrorIs(t, err, store.ErrDuplicate)

	require.NoError(t, s.CreateUser(ctx, model.User{ID: "u3", Email: "carol@example.com"}, &model.Company{ID: "c2", Name: "ACME"}))
	companies, err := s.ListCompanies(ctx)
	require.NoError(t, err)
	assert.Len(t, companies, 1, "company names are unique case-insensitively")

	record := model.AttendanceRecord{ID: "a1", UserID: "u1", Date: "2024-03-04", Status: model.AttendancePresent}
	require.NoError(t, s.CreateAttendance(ctx, record))
	record.ID = "a2"
	assert.ErrorIs(t, s.CreateAttendance(ctx, record), store.ErrDuplicate)
}

func TestConditionalWrites(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	now := time.Date(2024, 3, 4, 17, 0, 0, 0, time.UTC)

	assert.ErrorIs(t, s.SetCheckOut(ctx, "missing", now), store.ErrNotFound)

	require.NoError(t, s.CreateAttendance(ctx, model.AttendanceRecord{ID: "a1", UserID: "u1", Date: "2024-03-04"}))
	require.NoError(t, s.SetCheckOut(ctx, "a1", now))
	assert.ErrorIs(t, s.SetCheckOut(ctx, "a1", now.Add(time.Hour)), store.ErrStale)

	record, err := s.GetAttendance(ctx, "u1", "2024-03-04")
	require.NoError(t, err)
	assert.True(t, record.CheckOutTime.Equal(now), "first checkout wins")

	require.NoError(t, s.CreateLeave(ctx, model.LeaveRequest{ID: "l1", UserID: "u1", Status: model.LeavePending}))
	require.NoError(t, s.DecideLeave(ctx, "l1", model.LeavePending, model.LeaveApproved, now, "admin"))
	assert.ErrorIs(t, s.DecideLeave(ctx, "l1", model.LeavePending, model.LeaveRejected, now, "admin"), store.ErrStale)
	assert.ErrorIs(t, s.DecideLeave(ctx, "nope", model.LeavePending, model.LeaveRejected, now, "admin"), store.ErrNotFound)

	leave, err := s.GetLeave(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, model.LeaveApproved, leave.Status)
	require.NotNil(t, leave.DecidedBy)
	assert.Equal(t, "admin", *leave.DecidedBy)
}

func TestListOrdering(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	base := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.CreateUser(ctx, model.User{ID: "u1", Name: "Zed", Email: "z@example.com"}, nil))
	require.NoError(t, s.CreateUser(ctx, model.User{ID: "u2", Name: "amy", Email: "a@example.com"}, nil))

	for i, date := range []string{"2024-03-02", "2024-03-05", "2024-03-03"} {
		in := base.AddDate(0, 0, i)
		require.NoError(t, s.CreateAttendance(ctx, model.AttendanceRecord{ID: date, UserID: "u1", Date: date, CheckInTime: &in}))
	}
	// orphaned record is excluded from the joined listing
	require.NoError(t, s.CreateAttendance(ctx, model.AttendanceRecord{ID: "ghost", UserID: "gone", Date: "2024-03-09"}))

	own, err := s.ListAttendanceByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, own, 3)
	assert.Equal(t, []string{"2024-03-05", "2024-03-03", "2024-03-02"}, []string{own[0].Date, own[1].Date, own[2].Date})

	all, err := s.ListAttendance(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, "amy", users[0].Name)

	require.NoError(t, s.CreateLeave(ctx, model.LeaveRequest{ID: "old", UserID: "u1", CreatedAt: base}))
	require.NoError(t, s.CreateLeave(ctx, model.LeaveRequest{ID: "new", UserID: "u1", CreatedAt: base.Add(time.Hour)}))
	mine, err := s.ListLeavesByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "new", mine[0].ID)
}
