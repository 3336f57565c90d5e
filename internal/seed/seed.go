// Package seed inserts a small demo company: an admin, an HR manager and an employee
// with a few attendance days and leave requests. Running it twice changes nothing.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"hrdesk/internal/account"
	"hrdesk/internal/model"
	"hrdesk/internal/store"
)

const CompanyName = "Acme Corp"

type DemoUser struct {
	Key      string
	Name     string
	Email    string
	Password string
	Role     model.Role
	Position string
	Phone    string
}

var DemoUsers = []DemoUser{
	{Key: "admin", Name: "Ava Chen", Email: "admin.demo@hrms.test", Password: "DemoAdmin@123", Role: model.RoleAdmin, Position: "HR Admin", Phone: "555-1010"},
	{Key: "manager", Name: "Liam Patel", Email: "manager.demo@hrms.test", Password: "DemoManager@123", Role: model.RoleHRManager, Position: "HR Manager", Phone: "555-2020"},
	{Key: "employee", Name: "Sofia Reyes", Email: "employee.demo@hrms.test", Password: "DemoEmployee@123", Role: model.RoleEmployee, Position: "Software Engineer", Phone: "555-3030"},
}

type demoDay struct {
	user    string
	date    string
	in, out string
}

var demoDays = []demoDay{
	{user: "admin", date: "2025-12-15", in: "09:05", out: "17:25"},
	{user: "manager", date: "2025-12-15", in: "09:12", out: "18:05"},
	{user: "employee", date: "2025-12-15", in: "10:02", out: "19:10"},
	{user: "employee", date: "2025-12-16", in: "09:45", out: "17:55"},
}

type demoLeave struct {
	user       string
	start, end string
	kind       string
	reason     string
	status     model.LeaveStatus
}

var demoLeaves = []demoLeave{
	{user: "employee", start: "2025-12-20", end: "2025-12-21", kind: "Casual Leave", reason: "Family event", status: model.LeaveApproved},
	{user: "manager", start: "2026-01-05", end: "2026-01-06", kind: "Sick Leave", reason: "Flu recovery", status: model.LeavePending},
}

type Summary struct {
	Users      int
	Attendance int
	Leaves     int
}

// Demo registers the demo accounts through the account service and writes their
// attendance and leaves straight to the store. Existing rows are left alone.
func Demo(ctx context.Context, accounts *account.Service, st store.Store, loc *time.Location) (Summary, error) {
	if loc == nil {
		loc = time.UTC
	}
	var summary Summary
	ids := make(map[string]string, len(DemoUsers))
	for _, demo := range DemoUsers {
		user, err := accounts.Register(ctx, account.RegisterInput{
			Name:        demo.Name,
			Email:       demo.Email,
			Password:    demo.Password,
			Role:        string(demo.Role),
			CompanyName: CompanyName,
			Phone:       demo.Phone,
			Position:    demo.Position,
		})
		switch {
		case err == nil:
			summary.Users++
		case errors.Is(err, account.ErrEmailTaken):
			user, err = st.GetUserByEmail(ctx, demo.Email)
			if err != nil {
				return summary, fmt.Errorf("seed user %s: %w", demo.Email, err)
			}
		default:
			return summary, fmt.Errorf("seed user %s: %w", demo.Email, err)
		}
		ids[demo.Key] = user.ID
	}

	for _, day := range demoDays {
		checkIn, err := time.ParseInLocation("2006-01-02 15:04", day.date+" "+day.in, loc)
		if err != nil {
			return summary, err
		}
		checkOut, err := time.ParseInLocation("2006-01-02 15:04", day.date+" "+day.out, loc)
		if err != nil {
			return summary, err
		}
		in, out := checkIn.UTC(), checkOut.UTC()
		err = st.CreateAttendance(ctx, model.AttendanceRecord{
			ID:           uuid.NewString(),
			UserID:       ids[day.user],
			Date:         day.date,
			CheckInTime:  &in,
			CheckOutTime: &out,
			Status:       model.AttendancePresent,
		})
		switch {
		case err == nil:
			summary.Attendance++
		case errors.Is(err, store.ErrDuplicate):
		default:
			return summary, fmt.Errorf("seed attendance: %w", err)
		}
	}

	for _, demo := range demoLeaves {
		userID := ids[demo.user]
		existing, err := st.ListLeavesByUser(ctx, userID)
		if err != nil {
			return summary, fmt.Errorf("seed leaves: %w", err)
		}
		if hasLeave(existing, demo) {
			continue
		}
		leave := model.LeaveRequest{
			ID:        uuid.NewString(),
			UserID:    userID,
			StartDate: demo.start,
			EndDate:   demo.end,
			Type:      demo.kind,
			Status:    demo.status,
			Reason:    demo.reason,
			CreatedAt: time.Now().UTC(),
		}
		if demo.status.Terminal() {
			decidedAt := leave.CreatedAt
			decidedBy := ids["admin"]
			leave.DecidedAt = &decidedAt
			leave.DecidedBy = &decidedBy
		}
		if err := st.CreateLeave(ctx, leave); err != nil {
			return summary, fmt.Errorf("seed leaves: %w", err)
		}
		summary.Leaves++
	}
	return summary, nil
}

func hasLeave(existing []model.LeaveRequest, demo demoLeave) bool {
	for _, leave := range existing {
		if leave.StartDate == demo.start && leave.EndDate == demo.end && leave.Type == demo.kind {
			return true
		}
	}
	return false
}
