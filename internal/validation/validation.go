package validation

import (
	"fmt"
	"strings"

	"github.com/julianstephens/habitthemes/internal/models"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictOrphanHabit           ConflictType = "orphan_habit"
	ConflictOrphanCompletion      ConflictType = "orphan_completion"
	ConflictDuplicateTheme        ConflictType = "duplicate_theme"
	ConflictDuplicateHabit        ConflictType = "duplicate_habit"
	ConflictDuplicateCompletion   ConflictType = "duplicate_completion"
	ConflictBlankName             ConflictType = "blank_name"
	ConflictMissingDate           ConflictType = "missing_date"
	ConflictFutureCompletion      ConflictType = "future_completion"
	ConflictCompletionBeforeHabit ConflictType = "completion_before_habit"
)

// Conflict represents a problem found in the stored rows
type Conflict struct {
	Type        ConflictType
	Description string
	Theme       string
	Habit       string
	Date        models.Date
}

// Warning reports whether the conflict is informational. Warnings never
// fail validation. Both warning kinds can be written through AddDate and
// mark --date.
func (c Conflict) Warning() bool {
	switch c.Type {
	case ConflictFutureCompletion, ConflictCompletionBeforeHabit:
		return true
	}
	return false
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// HasErrors returns true if any conflict is more than a warning
func (vr *ValidationResult) HasErrors() bool {
	for _, c := range vr.Conflicts {
		if !c.Warning() {
			return true
		}
	}
	return false
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, c := range vr.Conflicts {
		prefix := "-"
		if c.Warning() {
			prefix = "- (warning)"
		}
		fmt.Fprintf(&b, "%s %s\n", prefix, c.Description)
	}
	return b.String()
}

// Validator checks persisted rows against the data model invariants.
type Validator struct {
	today models.Date
}

// New creates a new Validator. Completions after today are reported as
// future completions; a zero today disables that check.
func New(today models.Date) *Validator {
	return &Validator{today: today}
}

type habitKey struct {
	theme, habit string
}

// ValidateRows reports rows that break the data model, such as orphans,
// duplicates and blank names, as errors. Dates outside the habit's life so
// far are reported as warnings. The aggregate builder drops the broken rows
// silently, so this is the only place they surface.
func (v *Validator) ValidateRows(rows models.Rows) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}
	add := func(c Conflict) { result.Conflicts = append(result.Conflicts, c) }

	themes := make(map[string]bool, len(rows.Themes))
	for _, t := range rows.Themes {
		if strings.TrimSpace(t.Name) == "" {
			add(Conflict{Type: ConflictBlankName, Description: "Theme with a blank name"})
			continue
		}
		if themes[t.Name] {
			add(Conflict{
				Type:        ConflictDuplicateTheme,
				Description: fmt.Sprintf("Duplicate theme: %q", t.Name),
				Theme:       t.Name,
			})
		}
		themes[t.Name] = true
	}

	habits := make(map[habitKey]models.Date, len(rows.Habits))
	for _, h := range rows.Habits {
		key := habitKey{h.ThemeName, h.Name}
		switch {
		case strings.TrimSpace(h.Name) == "":
			add(Conflict{
				Type:        ConflictBlankName,
				Description: fmt.Sprintf("Habit with a blank name in theme %q", h.ThemeName),
				Theme:       h.ThemeName,
			})
			continue
		case !themes[h.ThemeName]:
			add(Conflict{
				Type:        ConflictOrphanHabit,
				Description: fmt.Sprintf("Habit %q references missing theme %q", h.Name, h.ThemeName),
				Theme:       h.ThemeName,
				Habit:       h.Name,
			})
		}
		if _, dup := habits[key]; dup {
			add(Conflict{
				Type:        ConflictDuplicateHabit,
				Description: fmt.Sprintf("Duplicate habit %q in theme %q", h.Name, h.ThemeName),
				Theme:       h.ThemeName,
				Habit:       h.Name,
			})
			continue
		}
		if h.CreateDate.IsZero() {
			add(Conflict{
				Type:        ConflictMissingDate,
				Description: fmt.Sprintf("Habit %q in theme %q has no creation date", h.Name, h.ThemeName),
				Theme:       h.ThemeName,
				Habit:       h.Name,
			})
		}
		habits[key] = h.CreateDate
	}

	seen := make(map[models.CompletionRow]bool, len(rows.Completions))
	for _, c := range rows.Completions {
		created, ok := habits[habitKey{c.ThemeName, c.HabitName}]
		if !ok {
			add(Conflict{
				Type:        ConflictOrphanCompletion,
				Description: fmt.Sprintf("Completion on %s references missing habit %q in theme %q", c.Day, c.HabitName, c.ThemeName),
				Theme:       c.ThemeName,
				Habit:       c.HabitName,
				Date:        c.Day,
			})
			continue
		}
		if seen[c] {
			add(Conflict{
				Type:        ConflictDuplicateCompletion,
				Description: fmt.Sprintf("Habit %q in theme %q is completed twice on %s", c.HabitName, c.ThemeName, c.Day),
				Theme:       c.ThemeName,
				Habit:       c.HabitName,
				Date:        c.Day,
			})
			continue
		}
		seen[c] = true

		switch {
		case c.Day.IsZero():
			add(Conflict{
				Type:        ConflictMissingDate,
				Description: fmt.Sprintf("Completion of %q in theme %q has no date", c.HabitName, c.ThemeName),
				Theme:       c.ThemeName,
				Habit:       c.HabitName,
			})
		case !v.today.IsZero() && c.Day.After(v.today):
			add(Conflict{
				Type:        ConflictFutureCompletion,
				Description: fmt.Sprintf("Habit %q in theme %q is completed in the future (%s)", c.HabitName, c.ThemeName, c.Day),
				Theme:       c.ThemeName,
				Habit:       c.HabitName,
				Date:        c.Day,
			})
		case !created.IsZero() && c.Day.Before(created):
			add(Conflict{
				Type:        ConflictCompletionBeforeHabit,
				Description: fmt.Sprintf("Habit %q in theme %q is completed on %s, before it was created on %s", c.HabitName, c.ThemeName, c.Day, created),
				Theme:       c.ThemeName,
				Habit:       c.HabitName,
				Date:        c.Day,
			})
		}
	}

	return result
}
