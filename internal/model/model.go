package model

import (
	"strings"
	"time"
)

// DateLayout is the calendar-date format used for attendance days and leave bounds.
const DateLayout = "2006-01-02"

type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleEmployee  Role = "EMPLOYEE"
	RoleHRManager Role = "HR_MANAGER"
)

// ParseRole upper-cases and validates a role name.
func ParseRole(value string) (Role, bool) {
	switch role := Role(strings.ToUpper(strings.TrimSpace(value))); role {
	case RoleAdmin, RoleEmployee, RoleHRManager:
		return role, true
	default:
		return "", false
	}
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	Role         Role      `json:"role"`
	Position     string    `json:"position"`
	CompanyName  *string   `json:"companyName"`
	Phone        *string   `json:"phone"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Profile is the user as returned over the API, without the password hash.
type Profile struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Role        Role      `json:"role"`
	Position    string    `json:"position"`
	CompanyName *string   `json:"companyName"`
	Phone       *string   `json:"phone"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (u User) Profile() Profile {
	return Profile{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		Position:    u.Position,
		CompanyName: u.CompanyName,
		Phone:       u.Phone,
		CreatedAt:   u.CreatedAt,
	}
}

func (u User) Ref() UserRef {
	return UserRef{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Position: u.Position}
}

type UserRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	Position string `json:"position"`
}

type Company struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	OwnerUserID string    `json:"ownerUserId"`
	CreatedAt   time.Time `json:"createdAt"`
}

type AttendanceStatus string

const AttendancePresent AttendanceStatus = "PRESENT"

type AttendanceRecord struct {
	ID           string           `json:"id"`
	UserID       string           `json:"userId"`
	Date         string           `json:"date"`
	CheckInTime  *time.Time       `json:"checkInTime"`
	CheckOutTime *time.Time       `json:"checkOutTime"`
	Status       AttendanceStatus `json:"status"`
}

// Incomplete reports whether the record belongs to a day before today and was never
// checked out.
func (r AttendanceRecord) Incomplete(today string) bool {
	return r.CheckOutTime == nil && r.Date < today
}

type AttendanceWithUser struct {
	AttendanceRecord
	User UserRef `json:"user"`
}

type LeaveStatus string

const (
	LeavePending  LeaveStatus = "PENDING"
	LeaveApproved LeaveStatus = "APPROVED"
	LeaveRejected LeaveStatus = "REJECTED"
)

func (s LeaveStatus) Terminal() bool {
	return s == LeaveApproved || s == LeaveRejected
}

type LeaveRequest struct {
	ID            string      `json:"id"`
	UserID        string      `json:"userId"`
	StartDate     string      `json:"startDate"`
	EndDate       string      `json:"endDate"`
	Type          string      `json:"type"`
	Status        LeaveStatus `json:"status"`
	Reason        string      `json:"reason"`
	AttachmentURL *string     `json:"attachmentUrl,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	DecidedAt     *time.Time  `json:"decidedAt,omitempty"`
	DecidedBy     *string     `json:"decidedBy,omitempty"`
}

type LeaveWithUser struct {
	LeaveRequest
	User UserRef `json:"user"`
}
