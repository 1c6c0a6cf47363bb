package kpi

import (
	"sort"
	"time"
)

// DayFormat is the storage representation of a local calendar date.
const DayFormat = "2006-01-02"

// DayBounds returns the half-open UTC millisecond range
// [localMidnight(day), localMidnight(day+1)) in loc. Day membership is
// time-zone-sensitive; the same computation feeds both storage queries and
// KPI bucketing.
func DayBounds(day time.Time, loc *time.Location) (startUTCMS, endUTCMS int64) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1)
	return start.UnixMilli(), end.UnixMilli()
}

// LocalDate maps a UTC millisecond timestamp to its local calendar date
// (midnight in loc).
func LocalDate(utcMS int64, loc *time.Location) time.Time {
	t := time.UnixMilli(utcMS).In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// DayPages builds the selectable day list: the union of today and the
// distinct stored dates, deduplicated, newest first, bounded to limit.
// Unparseable stored values are skipped.
func DayPages(today time.Time, stored []string, loc *time.Location, limit int) []time.Time {
	seen := make(map[string]bool)
	var days []time.Time

	add := func(day time.Time) {
		key := day.Format(DayFormat)
		if !seen[key] {
			seen[key] = true
			days = append(days, day)
		}
	}

	add(time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, loc))
	for _, value := range stored {
		day, err := time.ParseInLocation(DayFormat, value, loc)
		if err != nil {
			continue
		}
		add(day)
	}

	sort.Slice(days, func(i, j int) bool {
		return days[i].After(days[j])
	})

	if limit > 0 && len(days) > limit {
		days = days[:limit]
	}

	return days
}
