// Package aggregate turns the flat theme, habit and completion rows into the
// nested tree that subscribers read.
package aggregate

import (
	"cmp"
	"slices"

	"github.com/julianstephens/habitthemes/internal/models"
)

type habitKey struct {
	theme string
	habit string
}

// Build joins rows into themes ordered by name, habits ordered by creation
// date then name, and completion dates newest first. Habits whose theme is
// missing and completions whose habit is missing are dropped. The result
// shares no memory with rows.
func Build(rows models.Rows) []models.Theme {
	themes := make([]models.Theme, 0, len(rows.Themes))
	themeIdx := make(map[string]int, len(rows.Themes))

	sortedThemes := slices.Clone(rows.Themes)
	slices.SortFunc(sortedThemes, func(a, b models.ThemeRow) int {
		return cmp.Compare(a.Name, b.Name)
	})
	for _, t := range sortedThemes {
		if _, ok := themeIdx[t.Name]; ok {
			continue
		}
		themeIdx[t.Name] = len(themes)
		themes = append(themes, models.Theme{Name: t.Name, Habits: []models.Habit{}})
	}

	dates := make(map[habitKey][]models.Date, len(rows.Habits))
	for _, c := range rows.Completions {
		k := habitKey{c.ThemeName, c.HabitName}
		dates[k] = append(dates[k], c.Day)
	}

	habits := slices.Clone(rows.Habits)
	slices.SortFunc(habits, func(a, b models.HabitRow) int {
		if c := a.CreateDate.Compare(b.CreateDate); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})

	seen := make(map[habitKey]bool, len(habits))
	for _, h := range habits {
		i, ok := themeIdx[h.ThemeName]
		if !ok {
			continue
		}
		k := habitKey{h.ThemeName, h.Name}
		if seen[k] {
			continue
		}
		seen[k] = true

		days := dedupeNewestFirst(dates[k])
		themes[i].Habits = append(themes[i].Habits, models.Habit{
			Name:          h.Name,
			CreateDate:    h.CreateDate,
			CompleteDates: days,
		})
	}

	return themes
}

func dedupeNewestFirst(days []models.Date) []models.Date {
	out := slices.Clone(days)
	if out == nil {
		return []models.Date{}
	}
	slices.SortFunc(out, func(a, b models.Date) int { return b.Compare(a) })
	return slices.Compact(out)
}
