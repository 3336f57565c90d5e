// Package clock supplies "now" to the ledgers so the day boundary is explicit.
package clock

import (
	"time"

	"hrdesk/internal/model"
)

type Clock interface {
	Now() time.Time
}

type System struct{}

func (System) Now() time.Time { return time.Now().UTC() }

// Func adapts a plain function, mostly for tests.
type Func func() time.Time

func (f Func) Now() time.Time { return f() }

// Fixed always returns the same instant.
func Fixed(t time.Time) Clock {
	return Func(func() time.Time { return t })
}

// CalendarDate returns the YYYY-MM-DD day containing t in loc. A nil loc means UTC.
func CalendarDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(model.DateLayout)
}

// LoadLocation resolves a configured timezone name, treating "" and "UTC" as UTC.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || name == "UTC" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}
