// Package report derives day, week and month rollups from attendance and leave
// listings. Every function is pure: it never reads the clock or touches storage.
package report

import (
	"math"
	"strconv"
	"time"

	"hrdesk/internal/model"
)

// StandardDay is the threshold beyond which worked time counts as extra.
const StandardDay = 8 * time.Hour

// WorkedHours is out-in in hours, rounded to two decimals. ok is false when either
// bound is missing or the interval is not positive.
func WorkedHours(in, out *time.Time) (float64, bool) {
	if in == nil || out == nil {
		return 0, false
	}
	d := out.Sub(*in)
	if d <= 0 {
		return 0, false
	}
	return round2(d.Hours()), true
}

// ExtraHours is max(0, worked-8) on the rounded worked value.
func ExtraHours(in, out *time.Time) (float64, bool) {
	worked, ok := WorkedHours(in, out)
	if !ok {
		return 0, false
	}
	extra := worked - StandardDay.Hours()
	if extra <= 0 {
		return 0, true
	}
	return round2(extra), true
}

// FormatHours renders v with two decimals, or "--" when undefined.
func FormatHours(v float64, ok bool) string {
	if !ok {
		return "--"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

type Status string

const (
	StatusPresent Status = "Present"
	StatusLate    Status = "Late"
	StatusAbsent  Status = "Absent"
)

// DayStatus is Present once checked out, Late while only checked in, Absent otherwise.
// "Late" here means still clocked in; see IsLateArrival for arrival time.
func DayStatus(record model.AttendanceRecord) Status {
	switch {
	case record.CheckOutTime != nil:
		return StatusPresent
	case record.CheckInTime != nil:
		return StatusLate
	default:
		return StatusAbsent
	}
}

// LateArrivalHour is the first local hour at which a check-in counts as late.
const LateArrivalHour = 10

func IsLateArrival(checkIn *time.Time, loc *time.Location) bool {
	if checkIn == nil {
		return false
	}
	if loc == nil {
		loc = time.UTC
	}
	return checkIn.In(loc).Hour() >= LateArrivalHour
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
