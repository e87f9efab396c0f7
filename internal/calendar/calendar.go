// Package calendar maps timeline columns to calendar dates.
package calendar

import "time"

// DefaultSlotsPerDay is the number of columns that make up one calendar day.
const DefaultSlotsPerDay = 4

// Mapper converts between columns and dates.
type Mapper interface {
	DateOf(column int) time.Time
	ColumnOf(date time.Time) int
}

// Linear is a Mapper where column 1 is the first slot of FirstDate and every
// SlotsPerDay consecutive columns share one day. Weekends and holidays are not
// skipped.
type Linear struct {
	FirstDate   time.Time
	SlotsPerDay int
}

// NewLinear returns a Linear mapper anchored at the given date, truncated to
// midnight UTC. slots <= 0 selects DefaultSlotsPerDay.
func NewLinear(first time.Time, slots int) Linear {
	if slots <= 0 {
		slots = DefaultSlotsPerDay
	}
	y, m, d := first.Date()
	return Linear{FirstDate: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), SlotsPerDay: slots}
}

// DateOf returns the day containing column.
func (l Linear) DateOf(column int) time.Time {
	return l.FirstDate.AddDate(0, 0, floorDiv(column-1, l.slots()))
}

// ColumnOf returns the first column of date's day.
func (l Linear) ColumnOf(date time.Time) int {
	y, m, d := date.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	days := int(day.Sub(l.FirstDate).Hours()) / 24
	return days*l.slots() + 1
}

func (l Linear) slots() int {
	if l.SlotsPerDay <= 0 {
		return DefaultSlotsPerDay
	}
	return l.SlotsPerDay
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
