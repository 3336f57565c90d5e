package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"hrdesk/internal/model"
)

func ts(value string) *time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return &t
}

func day(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := ParseDay(value)
	require.NoError(t, err)
	return d
}

func entry(userID, name, date string, in, out *time.Time) model.AttendanceWithUser {
	return model.AttendanceWithUser{
		AttendanceRecord: model.AttendanceRecord{ID: userID + date, UserID: userID, Date: date, CheckInTime: in, CheckOutTime: out, Status: model.AttendancePresent},
		User:             model.UserRef{ID: userID, Name: name, Role: model.RoleEmployee},
	}
}

func TestWorkedAndExtraHours(t *testing.T) {
	in := ts("2025-01-06T09:00:00Z")
	out := ts("2025-01-06T17:30:00Z")

	worked, ok := WorkedHours(in, out)
	require.True(t, ok)
	assert.Equal(t, 8.5, worked)
	assert.Equal(t, "8.50", FormatHours(worked, ok))

	extra, ok := ExtraHours(in, out)
	require.True(t, ok)
	assert.Equal(t, "0.50", FormatHours(extra, ok))
}

func TestHoursUndefined(t *testing.T) {
	in := ts("2025-01-06T09:00:00Z")

	_, ok := WorkedHours(in, nil)
	assert.False(t, ok)
	_, ok = WorkedHours(nil, in)
	assert.False(t, ok)
	_, ok = WorkedHours(in, in)
	assert.False(t, ok, "zero-length interval is undefined")
	_, ok = WorkedHours(in, ts("2025-01-06T08:00:00Z"))
	assert.False(t, ok)

	_, ok = ExtraHours(in, nil)
	assert.False(t, ok)
	assert.Equal(t, "--", FormatHours(0, false))
}

func TestExtraHoursNeverNegative(t *testing.T) {
	extra, ok := ExtraHours(ts("2025-01-06T09:00:00Z"), ts("2025-01-06T12:00:00Z"))
	require.True(t, ok)
	assert.Equal(t, 0.0, extra)
	assert.Equal(t, "0.00", FormatHours(extra, ok))
}

func TestWorkedHoursRounding(t *testing.T) {
	// 1h 20m = 1.3333h
	worked, ok := WorkedHours(ts("2025-01-06T09:00:00Z"), ts("2025-01-06T10:20:00Z"))
	require.True(t, ok)
	assert.Equal(t, 1.33, worked)
}

func TestParsePeriod(t *testing.T) {
	for input, want := range map[string]Period{"": PeriodDay, "Day": PeriodDay, "WEEK": PeriodWeek, " month ": PeriodMonth} {
		got, err := ParsePeriod(input)
		require.NoError(t, err, input)
		assert.Equal(t, want, got)
	}
	_, err := ParsePeriod("year")
	assert.Error(t, err)
}

func TestWeekBoundsStartMonday(t *testing.T) {
	cases := map[string][2]string{
		"2025-01-06": {"2025-01-06", "2025-01-12"}, // Monday
		"2025-01-12": {"2025-01-06", "2025-01-12"}, // Sunday
		"2025-01-01": {"2024-12-30", "2025-01-05"}, // Wednesday across a year
	}
	for input, want := range cases {
		start, end := Bounds(PeriodWeek, day(t, input))
		assert.Equal(t, want[0], start, input)
		assert.Equal(t, want[1], end, input)
	}

	start, end := Bounds(PeriodMonth, day(t, "2024-02-14"))
	assert.Equal(t, "2024-02-01", start)
	assert.Equal(t, "2024-02-29", end)
}

func TestWeekAggregationCountsDistinctDays(t *testing.T) {
	records := []model.AttendanceWithUser{
		entry("u1", "Alice", "2025-01-06", ts("2025-01-06T09:00:00Z"), ts("2025-01-06T17:30:00Z")),
		entry("u1", "Alice", "2025-01-07", ts("2025-01-07T09:00:00Z"), ts("2025-01-07T13:00:00Z")),
		entry("u2", "Bob", "2025-01-08", ts("2025-01-08T09:00:00Z"), nil),
		entry("u1", "Alice", "2025-01-13", ts("2025-01-13T09:00:00Z"), ts("2025-01-13T17:00:00Z")),
	}

	v := BuildPeriodView(records, PeriodWeek, day(t, "2025-01-08"), "")
	assert.Equal(t, "2025-01-06", v.Start)
	assert.Equal(t, "2025-01-12", v.End)
	require.Len(t, v.Employees, 2)

	alice := v.Employees[0]
	assert.Equal(t, "Alice", alice.Name)
	assert.Equal(t, 2, alice.DaysPresent)
	assert.Equal(t, 12.5, alice.TotalHours)
	assert.Equal(t, 0.5, alice.ExtraHours)

	bob := v.Employees[1]
	assert.Equal(t, 1, bob.DaysPresent, "an open day still counts as present")
	assert.Equal(t, 0.0, bob.TotalHours)
	assert.Equal(t, "EMPLOYEE", bob.Role)
}

func TestMonthViewAndSearch(t *testing.T) {
	records := []model.AttendanceWithUser{
		entry("u1", "Alice", "2025-01-06", ts("2025-01-06T09:00:00Z"), ts("2025-01-06T17:00:00Z")),
		entry("u2", "Bob", "2025-01-31", ts("2025-01-31T09:00:00Z"), ts("2025-01-31T17:00:00Z")),
		entry("u2", "Bob", "2025-02-01", ts("2025-02-01T09:00:00Z"), ts("2025-02-01T17:00:00Z")),
	}
	v := BuildPeriodView(records, PeriodMonth, day(t, "2025-01-15"), "BO")
	require.Len(t, v.Employees, 1)
	assert.Equal(t, "Bob", v.Employees[0].Name)
	assert.Equal(t, 1, v.Employees[0].DaysPresent)
}

func TestDayViewStatusAndLateness(t *testing.T) {
	records := []model.AttendanceWithUser{
		entry("u1", "Alice", "2025-01-06", ts("2025-01-06T09:00:00Z"), ts("2025-01-06T17:30:00Z")),
		entry("u2", "bob", "2025-01-06", ts("2025-01-06T10:15:00Z"), nil),
		entry("u3", "Carol", "2025-01-06", nil, nil),
		entry("u1", "Alice", "2025-01-07", ts("2025-01-07T09:00:00Z"), nil),
	}
	v := BuildDayView(records, day(t, "2025-01-06"), "", time.UTC)
	require.Len(t, v.Days, 3)

	assert.Equal(t, "Alice", v.Days[0].Name)
	assert.Equal(t, StatusPresent, v.Days[0].Status)
	assert.Equal(t, "8.50", v.Days[0].WorkedHours)
	assert.False(t, v.Days[0].LateArrival)

	assert.Equal(t, StatusLate, v.Days[1].Status)
	assert.True(t, v.Days[1].LateArrival)
	assert.Equal(t, "--", v.Days[1].WorkedHours)

	assert.Equal(t, StatusAbsent, v.Days[2].Status)
	assert.Equal(t, "--", v.Days[2].ExtraHours)
}

func TestIsLateArrivalUsesLocation(t *testing.T) {
	in := ts("2025-01-06T08:30:00Z")
	assert.False(t, IsLateArrival(in, time.UTC))
	assert.True(t, IsLateArrival(in, time.FixedZone("UTC+2", 2*60*60)))
	assert.False(t, IsLateArrival(nil, nil))
}

func TestSearchLeaves(t *testing.T) {
	leaves := []model.LeaveWithUser{
		{LeaveRequest: model.LeaveRequest{ID: "1", Type: "Sick"}, User: model.UserRef{Name: "Alice"}},
		{LeaveRequest: model.LeaveRequest{ID: "2", Type: "Annual"}, User: model.UserRef{Name: "Bob"}},
	}
	assert.Len(t, SearchLeaves(leaves, ""), 2)
	got := SearchLeaves(leaves, "sick")
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)
	got = SearchLeaves(leaves, "bob ann")
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)
}

func TestWriteWorkbook(t *testing.T) {
	records := []model.AttendanceWithUser{
		entry("u1", "Alice", "2025-01-06", ts("2025-01-06T09:00:00Z"), ts("2025-01-06T17:30:00Z")),
		entry("u1", "Alice", "2025-01-07", ts("2025-01-07T09:00:00Z"), ts("2025-01-07T17:00:00Z")),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, Build(records, PeriodWeek, day(t, "2025-01-06"), "", time.UTC), time.UTC))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(workbookSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Employee", rows[0][0])
	assert.Equal(t, "Alice", rows[1][0])
	assert.Equal(t, "2", rows[1][2])
	assert.Equal(t, "16.5", rows[1][3])

	buf.Reset()
	require.NoError(t, WriteWorkbook(&buf, Build(records, PeriodDay, day(t, "2025-01-06"), "", time.UTC), time.UTC))
	f2, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f2.Close()
	rows, err = f2.GetRows(workbookSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "09:00", rows[1][3])
	assert.Equal(t, "8.50", rows[1][5])
	assert.Equal(t, "Present", rows[1][7])
}
