package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"hrdesk/internal/model"
)

type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// ParsePeriod accepts day, week or month in any case. Empty means day.
func ParsePeriod(value string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(value))); p {
	case "":
		return PeriodDay, nil
	case PeriodDay, PeriodWeek, PeriodMonth:
		return p, nil
	default:
		return "", fmt.Errorf("unknown view %q", value)
	}
}

// ParseDay parses a YYYY-MM-DD calendar date as midnight UTC.
func ParseDay(value string) (time.Time, error) {
	return time.Parse(model.DateLayout, strings.TrimSpace(value))
}

// WeekStart returns the Monday on or before day.
func WeekStart(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// Bounds returns the inclusive first and last calendar dates of the period holding day.
func Bounds(p Period, day time.Time) (string, string) {
	switch p {
	case PeriodWeek:
		start := WeekStart(day)
		return start.Format(model.DateLayout), start.AddDate(0, 0, 6).Format(model.DateLayout)
	case PeriodMonth:
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start.Format(model.DateLayout), start.AddDate(0, 1, -1).Format(model.DateLayout)
	default:
		d := day.Format(model.DateLayout)
		return d, d
	}
}

// FilterPeriod keeps records whose date falls within the period holding day.
func FilterPeriod(records []model.AttendanceWithUser, p Period, day time.Time) []model.AttendanceWithUser {
	start, end := Bounds(p, day)
	filtered := make([]model.AttendanceWithUser, 0)
	for _, record := range records {
		if record.Date >= start && record.Date <= end {
			filtered = append(filtered, record)
		}
	}
	return filtered
}

type EmployeeRow struct {
	UserID      string  `json:"userId"`
	Name        string  `json:"name"`
	Role        string  `json:"role"`
	DaysPresent int     `json:"daysPresent"`
	TotalHours  float64 `json:"totalHours"`
	ExtraHours  float64 `json:"extraHours"`
}

// Aggregate groups records by user. Undefined hours add nothing but the day still
// counts as present. Rows are ordered by name, then user id.
func Aggregate(records []model.AttendanceWithUser) []EmployeeRow {
	type acc struct {
		row  EmployeeRow
		days map[string]struct{}
	}
	byUser := make(map[string]*acc)
	for _, record := range records {
		key := record.User.ID
		if key == "" {
			key = record.UserID
		}
		entry, ok := byUser[key]
		if !ok {
			entry = &acc{
				row:  EmployeeRow{UserID: key, Name: displayName(record.User), Role: displayRole(record.User)},
				days: make(map[string]struct{}),
			}
			byUser[key] = entry
		}
		entry.days[record.Date] = struct{}{}
		if worked, ok := WorkedHours(record.CheckInTime, record.CheckOutTime); ok {
			entry.row.TotalHours += worked
		}
		if extra, ok := ExtraHours(record.CheckInTime, record.CheckOutTime); ok {
			entry.row.ExtraHours += extra
		}
	}

	rows := make([]EmployeeRow, 0, len(byUser))
	for _, entry := range byUser {
		entry.row.DaysPresent = len(entry.days)
		entry.row.TotalHours = round2(entry.row.TotalHours)
		entry.row.ExtraHours = round2(entry.row.ExtraHours)
		rows = append(rows, entry.row)
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := strings.ToLower(rows[i].Name), strings.ToLower(rows[j].Name)
		if a != b {
			return a < b
		}
		return rows[i].UserID < rows[j].UserID
	})
	return rows
}

type DayRow struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	Name         string     `json:"name"`
	Role         string     `json:"role"`
	Date         string     `json:"date"`
	CheckInTime  *time.Time `json:"checkInTime"`
	CheckOutTime *time.Time `json:"checkOutTime"`
	WorkedHours  string     `json:"workedHours"`
	ExtraHours   string     `json:"extraHours"`
	Status       Status     `json:"status"`
	LateArrival  bool       `json:"lateArrival"`
}

// View is the payload of a report request. Day views fill Days, week and month
// views fill Employees.
type View struct {
	View      Period        `json:"view"`
	Date      string        `json:"date"`
	Start     string        `json:"start"`
	End       string        `json:"end"`
	Query     string        `json:"query,omitempty"`
	Days      []DayRow      `json:"days,omitempty"`
	Employees []EmployeeRow `json:"employees,omitempty"`
}

// Build dispatches to BuildDayView or BuildPeriodView.
func Build(records []model.AttendanceWithUser, p Period, day time.Time, query string, loc *time.Location) View {
	if p == PeriodDay {
		return BuildDayView(records, day, query, loc)
	}
	return BuildPeriodView(records, p, day, query)
}

func BuildDayView(records []model.AttendanceWithUser, day time.Time, query string, loc *time.Location) View {
	filtered := SearchAttendance(FilterPeriod(records, PeriodDay, day), query)
	rows := make([]DayRow, 0, len(filtered))
	for _, record := range filtered {
		worked, workedOK := WorkedHours(record.CheckInTime, record.CheckOutTime)
		extra, extraOK := ExtraHours(record.CheckInTime, record.CheckOutTime)
		rows = append(rows, DayRow{
			ID:           record.ID,
			UserID:       record.UserID,
			Name:         displayName(record.User),
			Role:         displayRole(record.User),
			Date:         record.Date,
			CheckInTime:  record.CheckInTime,
			CheckOutTime: record.CheckOutTime,
			WorkedHours:  FormatHours(worked, workedOK),
			ExtraHours:   FormatHours(extra, extraOK),
			Status:       DayStatus(record.AttendanceRecord),
			LateArrival:  IsLateArrival(record.CheckInTime, loc),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return strings.ToLower(rows[i].Name) < strings.ToLower(rows[j].Name)
	})
	d := day.Format(model.DateLayout)
	return View{View: PeriodDay, Date: d, Start: d, End: d, Query: query, Days: rows}
}

func BuildPeriodView(records []model.AttendanceWithUser, p Period, day time.Time, query string) View {
	start, end := Bounds(p, day)
	rows := Aggregate(FilterPeriod(records, p, day))
	if q := strings.ToLower(strings.TrimSpace(query)); q != "" {
		matched := make([]EmployeeRow, 0, len(rows))
		for _, row := range rows {
			if strings.Contains(strings.ToLower(row.Name), q) {
				matched = append(matched, row)
			}
		}
		rows = matched
	}
	return View{View: p, Date: day.Format(model.DateLayout), Start: start, End: end, Query: query, Employees: rows}
}

// SearchAttendance matches query case-insensitively against the owner's name.
func SearchAttendance(records []model.AttendanceWithUser, query string) []model.AttendanceWithUser {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return records
	}
	matched := make([]model.AttendanceWithUser, 0, len(records))
	for _, record := range records {
		if strings.Contains(strings.ToLower(record.User.Name), q) {
			matched = append(matched, record)
		}
	}
	return matched
}

// SearchLeaves matches query against "<name> <type>".
func SearchLeaves(leaves []model.LeaveWithUser, query string) []model.LeaveWithUser {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return leaves
	}
	matched := make([]model.LeaveWithUser, 0, len(leaves))
	for _, leave := range leaves {
		target := strings.ToLower(leave.User.Name + " " + leave.Type)
		if strings.Contains(target, q) {
			matched = append(matched, leave)
		}
	}
	return matched
}

func displayName(user model.UserRef) string {
	if user.Name == "" {
		return "Unknown"
	}
	return user.Name
}

func displayRole(user model.UserRef) string {
	switch {
	case user.Position != "":
		return user.Position
	case user.Role != "":
		return string(user.Role)
	default:
		return "Employee"
	}
}
