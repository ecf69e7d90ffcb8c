package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"

	"github.com/julianstephens/habitthemes/internal/models"
)

var (
	themeStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	missedStyle = lipgloss.NewStyle().Faint(true)
	metaStyle   = lipgloss.NewStyle().Faint(true)
	enumStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).MarginRight(1)
)

const (
	doneMark   = "✓"
	missedMark = "·"
)

// HabitGrid renders the last days days ending today, oldest first.
func HabitGrid(h models.Habit, today models.Date, days int) string {
	var b strings.Builder
	for i := days - 1; i >= 0; i-- {
		if h.CompletedOn(today.AddDays(-i)) {
			b.WriteString(doneStyle.Render(doneMark))
		} else {
			b.WriteString(missedStyle.Render(missedMark))
		}
	}
	return b.String()
}

func habitLine(h models.Habit, today models.Date, days int) string {
	line := fmt.Sprintf("%s  %s", h.Name, HabitGrid(h, today, days))
	if streak := h.Streak(today); streak > 0 {
		line += metaStyle.Render(fmt.Sprintf("  streak %d", streak))
	}
	return line
}

// RenderThemes prints the theme tree with a completion grid per habit.
func RenderThemes(w io.Writer, themes []models.Theme, today models.Date, days int) {
	if len(themes) == 0 {
		fmt.Fprintln(w, "No themes yet. Add one with 'habitthemes theme add NAME'.")
		return
	}

	for i, theme := range themes {
		t := tree.Root(themeStyle.Render(theme.Name)).
			Enumerator(tree.RoundedEnumerator).
			EnumeratorStyle(enumStyle)
		if len(theme.Habits) == 0 {
			t.Child(metaStyle.Render("(no habits)"))
		}
		for _, h := range theme.Habits {
			t.Child(habitLine(h, today, days))
		}
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, t.String())
	}
}

// WriteJSON prints v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
