package models

// ThemeRow is the persisted form of a theme.
type ThemeRow struct {
	Name string `json:"theme_name"`
}

// HabitRow is the persisted form of a habit, keyed by (ThemeName, Name).
type HabitRow struct {
	ThemeName  string `json:"theme_name"`
	Name       string `json:"habit_name"`
	CreateDate Date   `json:"create_date"`
}

// CompletionRow records that a habit was done on Day.
// It is keyed by (ThemeName, HabitName, Day).
type CompletionRow struct {
	ThemeName string `json:"theme_name"`
	HabitName string `json:"habit_name"`
	Day       Date   `json:"day"`
}

// Rows is a consistent read of all three tables.
type Rows struct {
	Themes      []ThemeRow      `json:"themes"`
	Habits      []HabitRow      `json:"habits"`
	Completions []CompletionRow `json:"completions"`
}
