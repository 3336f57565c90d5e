// Package store defines the persistence contract shared by the postgres, JSON-file
// and in-memory backends.
package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"hrdesk/internal/model"
)

var (
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate reports a unique key violation: email, company name or
	// (user, date) attendance.
	ErrDuplicate = errors.New("store: duplicate key")
	// ErrStale reports a conditional write whose precondition no longer holds.
	ErrStale = errors.New("store: stale write")
)

type Users interface {
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	GetUserByID(ctx context.Context, id string) (model.User, error)
	// CreateUser inserts user and, when company is non-nil and no company with the
	// same name exists yet, the company, in one unit of work.
	CreateUser(ctx context.Context, user model.User, company *model.Company) error
	ListUsers(ctx context.Context) ([]model.User, error)
}

type Companies interface {
	ListCompanies(ctx context.Context) ([]model.Company, error)
}

type Attendance interface {
	GetAttendance(ctx context.Context, userID, date string) (model.AttendanceRecord, error)
	CreateAttendance(ctx context.Context, record model.AttendanceRecord) error
	// SetCheckOut sets the checkout time of a record that has none; ErrStale when it
	// is already set.
	SetCheckOut(ctx context.Context, id string, at time.Time) error
	ListAttendanceByUser(ctx context.Context, userID string) ([]model.AttendanceRecord, error)
	ListAttendance(ctx context.Context) ([]model.AttendanceWithUser, error)
}

type Leaves interface {
	CreateLeave(ctx context.Context, leave model.LeaveRequest) error
	GetLeave(ctx context.Context, id string) (model.LeaveRequest, error)
	// DecideLeave moves a leave from status `from` to `to`; ErrStale when the current
	// status differs from `from`.
	DecideLeave(ctx context.Context, id string, from, to model.LeaveStatus, at time.Time, by string) error
	ListLeavesByUser(ctx context.Context, userID string) ([]model.LeaveRequest, error)
	ListLeaves(ctx context.Context) ([]model.LeaveWithUser, error)
}

type Store interface {
	Users
	Companies
	Attendance
	Leaves
	Close() error
}

// SortAttendance orders records newest day first, then latest check-in first.
func SortAttendance(records []model.AttendanceRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return attendanceLess(records[i], records[j])
	})
}

func SortAttendanceWithUser(records []model.AttendanceWithUser) {
	sort.SliceStable(records, func(i, j int) bool {
		return attendanceLess(records[i].AttendanceRecord, records[j].AttendanceRecord)
	})
}

func attendanceLess(a, b model.AttendanceRecord) bool {
	if a.Date != b.Date {
		return a.Date > b.Date
	}
	return timeAfter(a.CheckInTime, b.CheckInTime)
}

// SortLeaves orders requests newest first.
func SortLeaves(leaves []model.LeaveRequest) {
	sort.SliceStable(leaves, func(i, j int) bool {
		return leaves[i].CreatedAt.After(leaves[j].CreatedAt)
	})
}

func SortLeavesWithUser(leaves []model.LeaveWithUser) {
	sort.SliceStable(leaves, func(i, j int) bool {
		return leaves[i].CreatedAt.After(leaves[j].CreatedAt)
	})
}

func timeAfter(a, b *time.Time) bool {
	switch {
	case a == nil:
		return false
	case b == nil:
		return true
	default:
		return a.After(*b)
	}
}
