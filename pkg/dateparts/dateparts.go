// Package dateparts does civil-calendar arithmetic pinned to one timezone.
//
// Parts values are plain calendar dates. Arithmetic on them never touches a
// wall clock, so DST transitions cannot shift a date. Only Decompose and
// ToMidnight cross between instants and dates, and both go through the
// Calendar's location.
package dateparts

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

const DefaultTimezone = "America/Los_Angeles"

// Parts is a civil date.
type Parts struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

func (p Parts) civil() time.Time {
	return time.Date(p.Year, p.Month, p.Day, 0, 0, 0, 0, time.UTC)
}

func fromCivil(t time.Time) Parts {
	y, m, d := t.Date()
	return Parts{Year: y, Month: m, Day: d}
}

// AddDays returns p shifted by n days.
func (p Parts) AddDays(n int) Parts {
	return fromCivil(p.civil().AddDate(0, 0, n))
}

// AddYears returns p shifted by n years. Feb 29 lands on Mar 1 in a
// non-leap target year.
func (p Parts) AddYears(n int) Parts {
	return fromCivil(p.civil().AddDate(n, 0, 0))
}

// Compare returns -1, 0 or 1.
func (p Parts) Compare(q Parts) int {
	return p.civil().Compare(q.civil())
}

func (p Parts) Before(q Parts) bool { return p.Compare(q) < 0 }
func (p Parts) After(q Parts) bool  { return p.Compare(q) > 0 }

// DaysBetween returns the number of days from a to b, negative when b is
// before a.
func DaysBetween(a, b Parts) int {
	return int(b.civil().Sub(a.civil()).Hours() / 24)
}

func (p Parts) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", p.Year, int(p.Month), p.Day)
}

// Calendar converts between instants and Parts in a fixed location.
type Calendar struct {
	loc *time.Location
}

func New(timezone string) (*Calendar, error) {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", timezone, err)
	}
	return &Calendar{loc: loc}, nil
}

// MustNew is New for package-level and test setup.
func MustNew(timezone string) *Calendar {
	c, err := New(timezone)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Calendar) Location() *time.Location { return c.loc }

// Decompose returns the civil date of t in the calendar's timezone.
func (c *Calendar) Decompose(t time.Time) Parts {
	y, m, d := t.In(c.loc).Date()
	return Parts{Year: y, Month: m, Day: d}
}

func (c *Calendar) Today(now time.Time) Parts { return c.Decompose(now) }

// ToMidnight returns the instant of civil midnight on p. The UTC offset is
// resolved for p itself, not for the current date.
func (c *Calendar) ToMidnight(p Parts) time.Time {
	return time.Date(p.Year, p.Month, p.Day, 0, 0, 0, 0, c.loc)
}

// ISO renders midnight of p as RFC 3339 with the local offset.
func (c *Calendar) ISO(p Parts) string {
	return c.ToMidnight(p).Format(time.RFC3339)
}
