// Package clock pins "today" to one reference timezone so entitlement rows,
// bonus claims and the midnight reset job all agree on day boundaries.
package clock

import (
	"database/sql/driver"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day without a time of day or zone.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return d.utc().Format(dateLayout)
}

// AddDays shifts the date by n calendar days.
func (d Date) AddDays(n int) Date {
	return DateOf(d.utc().AddDate(0, 0, n))
}

func (d Date) Before(other Date) bool {
	return d.utc().Before(other.utc())
}

// In returns midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

func (d Date) utc() time.Time {
	return d.In(time.UTC)
}

// Value stores the date as YYYY-MM-DD text.
func (d Date) Value() (driver.Value, error) {
	return d.String(), nil
}

// Scan accepts the text form written by Value and time values some drivers return.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case string:
		parsed, err := parseStored(v)
		if err != nil {
			return err
		}
		*d = parsed
	case []byte:
		parsed, err := parseStored(string(v))
		if err != nil {
			return err
		}
		*d = parsed
	case time.Time:
		*d = DateOf(v)
	case nil:
		*d = Date{}
	default:
		return fmt.Errorf("scan date: unsupported type %T", src)
	}
	return nil
}

func (Date) GormDataType() string {
	return "text"
}

func parseStored(s string) (Date, error) {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	return ParseDate(s)
}

// Calendar resolves the current day in a fixed reference timezone.
type Calendar struct {
	loc *time.Location
	now func() time.Time
}

// NewCalendar builds a calendar for loc. A nil now falls back to time.Now.
func NewCalendar(loc *time.Location, now func() time.Time) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Calendar{loc: loc, now: now}
}

func (c *Calendar) Location() *time.Location {
	return c.loc
}

// Now returns the current instant in the reference timezone.
func (c *Calendar) Now() time.Time {
	return c.now().In(c.loc)
}

// Today returns the calendar date in the reference timezone, not the caller's.
func (c *Calendar) Today() Date {
	return DateOf(c.Now())
}

// NextReset returns midnight of Today()+1 in the reference timezone.
func (c *Calendar) NextReset() time.Time {
	return c.Today().AddDays(1).In(c.loc)
}
