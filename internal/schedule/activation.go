package schedule

import (
	"time"

	"github.com/inkwell-labs/inkwell/internal/model"
)

// Clock decides whether a playlist is eligible to display at a given
// instant. EmptyWeekdaysMatchAll controls the zero-bitmask policy: by
// default an empty mask matches no day; with the flag set it matches
// every day.
type Clock struct {
	EmptyWeekdaysMatchAll bool
}

// IsActiveNow applies the activation checks in order: active flag,
// weekday bitmask, then the optional [from, to] time-of-day window
// (inclusive on both ends, skipped unless both bounds are set).
func (c Clock) IsActiveNow(p *model.Playlist, now time.Time) bool {
	if !p.IsActive {
		return false
	}

	mask := p.Weekdays
	if mask == 0 && c.EmptyWeekdaysMatchAll {
		mask = model.AllWeekdays
	}
	if !mask.Contains(model.WeekdayOf(now)) {
		return false
	}

	if p.ActiveFrom != nil && p.ActiveTo != nil {
		n := secondOfDay(now)
		if n < secondOfDay(*p.ActiveFrom) || n > secondOfDay(*p.ActiveTo) {
			return false
		}
	}
	return true
}

func secondOfDay(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}
