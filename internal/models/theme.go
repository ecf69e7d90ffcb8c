package models

import "time"

// Theme is a named group of habits as published in the aggregate tree.
type Theme struct {
	Name   string  `json:"name"`
	Habits []Habit `json:"habits"`
}

// Habit is a recurring action tracked per day within one theme.
// CompleteDates is ordered most-recent-first.
type Habit struct {
	Name          string `json:"name"`
	CreateDate    Date   `json:"create_date"`
	CompleteDates []Date `json:"complete_dates"`
}

// Snapshot is one publication of the full aggregate tree.
type Snapshot struct {
	Sequence    int64     `json:"sequence"`
	PublishedAt time.Time `json:"published_at"`
	Themes      []Theme   `json:"themes"`
}

// Theme finds a theme by name.
func (s Snapshot) Theme(name string) (Theme, bool) {
	for _, t := range s.Themes {
		if t.Name == name {
			return t, true
		}
	}
	return Theme{}, false
}

// Habit finds a habit in the theme by name.
func (t Theme) Habit(name string) (Habit, bool) {
	for _, h := range t.Habits {
		if h.Name == name {
			return h, true
		}
	}
	return Habit{}, false
}

// CompletedOn reports whether the habit was marked done on d.
func (h Habit) CompletedOn(d Date) bool {
	for _, c := range h.CompleteDates {
		if c == d {
			return true
		}
	}
	return false
}

// Streak counts consecutive completed days ending today. A habit not yet done
// today keeps the streak that ended yesterday.
func (h Habit) Streak(today Date) int {
	done := make(map[Date]struct{}, len(h.CompleteDates))
	for _, c := range h.CompleteDates {
		done[c] = struct{}{}
	}

	day := today
	if _, ok := done[day]; !ok {
		day = day.AddDays(-1)
	}

	streak := 0
	for {
		if _, ok := done[day]; !ok {
			return streak
		}
		streak++
		day = day.AddDays(-1)
	}
}
