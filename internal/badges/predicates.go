// Package badges holds the badge rules: pure predicates over a frozen
// snapshot of a user's activity.
package badges

import (
	"time"

	"golang.org/x/exp/slices"
)

// AtLeast is the threshold comparison every count based badge uses.
func AtLeast(value, threshold int) bool {
	return value >= threshold
}

// civilDays returns the number of calendar days from a to b, counted on
// the dates as seen in loc. DST shifts do not affect the result.
func civilDays(a, b time.Time, loc *time.Location) int {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}

// WeeklyStreak reports whether dates, sorted ascending, contain a run of
// required occurrences spaced exactly seven days apart. A gap over seven
// days restarts the run at the current date. Shorter gaps, including
// duplicates, are skipped and leave the anchor where it was.
func WeeklyStreak(dates []time.Time, required int, loc *time.Location) bool {
	if required <= 0 {
		return true
	}
	if len(dates) < required {
		return false
	}

	streak := 1
	anchor := dates[0]
	if streak >= required {
		return true
	}

	for _, d := range dates[1:] {
		gap := civilDays(anchor, d, loc)
		switch {
		case gap == 7:
			streak++
			anchor = d
		case gap > 7:
			streak = 1
			anchor = d
		default:
			continue
		}
		if streak >= required {
			return true
		}
	}
	return false
}

// OnWeekday keeps the dates that fall on day in loc. Order is preserved.
func OnWeekday(dates []time.Time, day time.Weekday, loc *time.Location) []time.Time {
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		if d.In(loc).Weekday() == day {
			out = append(out, d)
		}
	}
	return out
}

type yearMonth struct {
	year  int
	month time.Month
}

func (ym yearMonth) follows(prev yearMonth) bool {
	if ym.year == prev.year {
		return ym.month == prev.month+1
	}
	return prev.month == time.December && ym.month == time.January && ym.year == prev.year+1
}

func (ym yearMonth) compare(o yearMonth) int {
	if ym.year != o.year {
		return ym.year - o.year
	}
	return int(ym.month) - int(o.month)
}

// MonthlyStreak reports whether the calendar months in dates contain a
// run of required consecutive months. Dates need not be sorted.
func MonthlyStreak(dates []time.Time, required int, loc *time.Location) bool {
	if required <= 0 {
		return true
	}

	seen := make(map[yearMonth]struct{}, len(dates))
	months := make([]yearMonth, 0, len(dates))
	for _, d := range dates {
		y, m, _ := d.In(loc).Date()
		key := yearMonth{year: y, month: m}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		months = append(months, key)
	}
	if len(months) < required {
		return false
	}

	slices.SortFunc(months, func(a, b yearMonth) int { return a.compare(b) })

	run := 1
	if run >= required {
		return true
	}
	for i := 1; i < len(months); i++ {
		if months[i].follows(months[i-1]) {
			run++
		} else {
			run = 1
		}
		if run >= required {
			return true
		}
	}
	return false
}

// InnerCircle reports whether at least friends co-attendees each shared
// at least shared events with the user. Users who attended fewer than
// shared events overall cannot qualify and are rejected up front.
func InnerCircle(attended int, coAttendees map[int64]int, friends, shared int) bool {
	if attended < shared {
		return false
	}
	qualifying := 0
	for _, n := range coAttendees {
		if n >= shared {
			qualifying++
			if qualifying >= friends {
				return true
			}
		}
	}
	return false
}

// InWindow reports whether t's local hour lies in [start, end). The window
// may wrap midnight, e.g. 22 to 4.
func InWindow(t time.Time, start, end int, loc *time.Location) bool {
	h := t.In(loc).Hour()
	if start < end {
		return h >= start && h < end
	}
	return h >= start || h < end
}

// AnyInWindow reports whether any of times starts inside the window.
func AnyInWindow(times []time.Time, start, end int, loc *time.Location) bool {
	return slices.ContainsFunc(times, func(t time.Time) bool {
		return InWindow(t, start, end, loc)
	})
}
