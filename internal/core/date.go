package core

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

// DateLayout is the boundary format for calendar days.
const DateLayout = "2006-01-02"

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Date is a calendar day. The wrapped time is always midnight UTC so two
// dates compare equal exactly when they name the same day.
type Date struct {
	time.Time
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day t falls on in loc.
func DateOf(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a YYYY-MM-DD string, rejecting impossible days like 2026-02-30.
func ParseDate(s string) (Date, error) {
	if !datePattern.MatchString(s) {
		return Date{}, Validation("Date must be in YYYY-MM-DD format")
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, Validation("Date must be in YYYY-MM-DD format")
	}
	return Date{Time: t}, nil
}

// String returns the YYYY-MM-DD form.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Month returns the month number 1-12.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// StartOfMonth returns the first day of d's month.
func (d Date) StartOfMonth() Date {
	return NewDate(d.Year(), d.Month(), 1)
}

// EndOfMonth returns the last day of d's month.
func (d Date) EndOfMonth() Date {
	return Date{Time: d.StartOfMonth().AddDate(0, 1, -1)}
}

// AddMonths moves to the first day of the month n months away.
func (d Date) AddMonths(n int) Date {
	return Date{Time: d.StartOfMonth().AddDate(0, n, 0)}
}

func (d Date) AddDays(n int) Date {
	return Date{Time: d.AddDate(0, 0, n)}
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }

func (d Date) After(o Date) bool { return d.Time.After(o.Time) }

func (d Date) Equal(o Date) bool { return d.Time.Equal(o.Time) }

// MonthLabel renders the chart label, e.g. "Feb 2026".
func (d Date) MonthLabel() string {
	return d.Format("Jan 2006")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a JSON string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateRange is an inclusive span of calendar days. A zero bound is open.
type DateRange struct {
	From Date
	To   Date
}

// DayRange covers the single day d.
func DayRange(d Date) DateRange {
	return DateRange{From: d, To: d}
}

// MonthRange covers the calendar month containing d.
func MonthRange(d Date) DateRange {
	return DateRange{From: d.StartOfMonth(), To: d.EndOfMonth()}
}

// Contains reports whether d lies within the inclusive bounds.
func (r DateRange) Contains(d Date) bool {
	if !r.From.IsZero() && d.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && d.After(r.To) {
		return false
	}
	return true
}
