// Package hours decides whether an order can be placed right now or must be
// scheduled for the next open window. Everything is a pure function of an
// explicit instant and a schedule; callers inject the clock.
package hours

import (
	"fmt"
	"time"
)

// Window is one weekday's opening hours, in minutes since local midnight.
// CloseMinute of 1440 means the window runs until midnight.
type Window struct {
	Weekday     time.Weekday
	OpenMinute  int
	CloseMinute int
}

const midnight = 24 * 60

// Schedule maps weekdays to opening windows. Location is the establishment's
// timezone; instants are converted before any weekday/minute math.
type Schedule struct {
	Windows  map[time.Weekday]Window
	Location *time.Location
}

// DefaultSchedule is the observed configuration: Friday from 18:00, Saturday
// and Sunday from 15:00, all closing at midnight.
func DefaultSchedule(loc *time.Location) *Schedule {
	return &Schedule{
		Windows: map[time.Weekday]Window{
			time.Friday:   {Weekday: time.Friday, OpenMinute: 18 * 60, CloseMinute: midnight},
			time.Saturday: {Weekday: time.Saturday, OpenMinute: 15 * 60, CloseMinute: midnight},
			time.Sunday:   {Weekday: time.Sunday, OpenMinute: 15 * 60, CloseMinute: midnight},
		},
		Location: loc,
	}
}

func (s *Schedule) local(now time.Time) (time.Weekday, int) {
	t := now.In(s.Location)
	return t.Weekday(), t.Hour()*60 + t.Minute()
}

// IsOpen reports whether the establishment accepts orders at the given
// instant. The open minute itself counts as open; one minute before does not.
func (s *Schedule) IsOpen(now time.Time) bool {
	day, minute := s.local(now)
	w, ok := s.Windows[day]
	if !ok {
		return false
	}
	if minute < w.OpenMinute {
		return false
	}
	if w.CloseMinute < midnight && minute >= w.CloseMinute {
		return false
	}
	return true
}

// NextWindow describes the first opening at or after a given instant.
type NextWindow struct {
	Weekday    time.Weekday
	OpenMinute int
	DaysAhead  int
	Label      string
}

// Next finds the next open window: today when the current weekday opens later
// today, otherwise the nearest open weekday within the coming 7 days. The
// second return is false only when the schedule has no open days at all.
func (s *Schedule) Next(now time.Time) (NextWindow, bool) {
	day, minute := s.local(now)
	for ahead := 0; ahead <= 7; ahead++ {
		wd := time.Weekday((int(day) + ahead) % 7)
		w, ok := s.Windows[wd]
		if !ok {
			continue
		}
		if ahead == 0 && minute >= w.OpenMinute {
			continue // already past today's opening; that window is not "next"
		}
		n := NextWindow{Weekday: wd, OpenMinute: w.OpenMinute, DaysAhead: ahead}
		n.Label = label(n)
		return n, true
	}
	return NextWindow{}, false
}

var weekdayNames = map[time.Weekday]string{
	time.Sunday:    "domingo",
	time.Monday:    "segunda-feira",
	time.Tuesday:   "terça-feira",
	time.Wednesday: "quarta-feira",
	time.Thursday:  "quinta-feira",
	time.Friday:    "sexta-feira",
	time.Saturday:  "sábado",
}

// WeekdayName returns the Portuguese name used in outbound messages.
func WeekdayName(d time.Weekday) string {
	return weekdayNames[d]
}

func formatHour(minute int) string {
	h, m := minute/60, minute%60
	if m == 0 {
		return fmt.Sprintf("%dh", h)
	}
	return fmt.Sprintf("%dh%02d", h, m)
}

func label(n NextWindow) string {
	at := formatHour(n.OpenMinute)
	switch {
	case n.DaysAhead == 0:
		return "hoje às " + at
	case n.DaysAhead == 1:
		return "amanhã às " + at
	case n.DaysAhead == 2:
		return weekdayNames[n.Weekday] + " às " + at
	case n.Weekday == time.Saturday || n.Weekday == time.Sunday:
		return "próximo " + weekdayNames[n.Weekday] + " às " + at
	default:
		return "próxima " + weekdayNames[n.Weekday] + " às " + at
	}
}
