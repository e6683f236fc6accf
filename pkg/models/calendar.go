package models

import (
	"fmt"
	"strings"
	"time"
)

// Week is one of the four budget weeks of a month.
type Week int

const (
	Week1 Week = 1
	Week2 Week = 2
	Week3 Week = 3
	Week4 Week = 4
)

func (w Week) String() string {
	return fmt.Sprintf("Week %d", int(w))
}

// Valid reports whether the week is in the 1..4 range.
func (w Week) Valid() bool {
	return w >= Week1 && w <= Week4
}

// StartDay maps a week to the day-of-month its bucket starts on:
// Week 1 -> 1, Week 2 -> 8, Week 3 -> 15, Week 4 -> 22.
func (w Week) StartDay() int {
	return (int(w)-1)*7 + 1
}

// ParseWeek accepts "Week 1".."Week 4" as well as a bare digit.
func ParseWeek(s string) (Week, error) {
	s = strings.TrimSpace(s)
	for w := Week1; w <= Week4; w++ {
		if strings.EqualFold(s, w.String()) || s == fmt.Sprintf("%d", int(w)) {
			return w, nil
		}
	}
	return 0, fmt.Errorf("unknown week %q", s)
}

// WeekOfDay buckets a day-of-month into a budget week:
// 1-7 -> Week 1, 8-14 -> Week 2, 15-21 -> Week 3, >21 -> Week 4.
func WeekOfDay(day int) Week {
	switch {
	case day <= 7:
		return Week1
	case day <= 14:
		return Week2
	case day <= 21:
		return Week3
	default:
		return Week4
	}
}

// WeekOfDate buckets a calendar date into its budget week.
func WeekOfDate(t time.Time) Week {
	return WeekOfDay(t.Day())
}

// ParseMonth resolves an English month name ("June") to its time.Month.
func ParseMonth(name string) (time.Month, error) {
	for m := time.January; m <= time.December; m++ {
		if strings.EqualFold(strings.TrimSpace(name), m.String()) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown month %q", name)
}

// BucketDate maps a (week, month, year) bucket to the concrete date the
// derived transaction is stamped with.
func BucketDate(week Week, monthName string, year int) (time.Time, error) {
	month, err := ParseMonth(monthName)
	if err != nil {
		return time.Time{}, err
	}
	if !week.Valid() {
		return time.Time{}, fmt.Errorf("invalid week %d", int(week))
	}
	return time.Date(year, month, week.StartDay(), 0, 0, 0, 0, time.UTC), nil
}
