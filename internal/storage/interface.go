package storage

import "github.com/julianstephens/habitthemes/internal/models"

// Provider is a durable store for themes, habits and completion dates.
// Implementations are not required to be safe for concurrent mutation; the
// tracker owns a provider from a single goroutine.
type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Themes
	AddTheme(models.ThemeRow) error
	// DeleteTheme removes the theme, its habits and their completions atomically.
	DeleteTheme(name string) error

	// Habits
	AddHabit(models.HabitRow) error
	// DeleteHabit removes the habit and its completions atomically.
	DeleteHabit(themeName, habitName string) error

	// Completions
	AddCompletion(models.CompletionRow) error
	DeleteCompletion(themeName, habitName string, day models.Date) error
	HasCompletion(themeName, habitName string, day models.Date) (bool, error)

	// ImportThemes inserts whole themes with their habits and completions in
	// one transaction.
	ImportThemes([]models.Theme) error

	// LoadRows reads all three tables in one consistent view.
	LoadRows() (models.Rows, error)

	// Utils
	GetConfigPath() string
}
