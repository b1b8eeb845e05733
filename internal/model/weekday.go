package model

import "time"

// Weekday is a day-of-week bitmask, one bit per weekday starting at
// Monday. The zero value matches no day at all.
type Weekday int

const (
	Monday Weekday = 1 << iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// AllWeekdays has every day bit set.
const AllWeekdays = Monday | Tuesday | Wednesday | Thursday | Friday | Saturday | Sunday

// WeekdayOf returns the single bit for the weekday of t.
func WeekdayOf(t time.Time) Weekday {
	switch t.Weekday() {
	case time.Sunday:
		return Sunday
	default:
		// time.Monday is 1; our Monday is bit 0.
		return Weekday(1 << (int(t.Weekday()) - 1))
	}
}

// Contains reports whether the mask includes the given day bit.
func (w Weekday) Contains(day Weekday) bool {
	return w&day != 0
}
