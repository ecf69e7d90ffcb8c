// Package jsonfile keeps the three tables in memory and rewrites a JSON file
// after every successful mutation.
package jsonfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/julianstephens/habitthemes/internal/models"
	"github.com/julianstephens/habitthemes/internal/storage"
)

const fileVersion = 1

type document struct {
	Version int `json:"version"`
	models.Rows
}

type Store struct {
	path string
	doc  *document
}

var _ storage.Provider = (*Store)(nil)

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(s.path); err == nil {
		return s.Load()
	}

	s.doc = &document{Version: fileVersion}
	return s.save(s.doc)
}

func (s *Store) Load() error {
	if s.doc != nil {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("storage not initialized, run 'habitthemes init' first")
		}
		return fmt.Errorf("failed to read storage: %w", err)
	}

	doc := &document{}
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("failed to parse storage: %w", err)
	}
	if doc.Version > fileVersion {
		return fmt.Errorf("storage file version %d is newer than supported version %d", doc.Version, fileVersion)
	}
	doc.Version = fileVersion

	s.doc = doc
	return nil
}

func (s *Store) Close() error {
	s.doc = nil
	return nil
}

// save writes doc to a temp file and renames it over the store file.
func (s *Store) save(doc *document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize storage: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to write storage: %w", err)
	}
	return nil
}

// update applies fn to a copy of the document and commits it only if fn
// succeeds and the file is written.
func (s *Store) update(fn func(doc *document) error) error {
	if s.doc == nil {
		return storage.ErrNotLoaded
	}
	next := &document{
		Version: s.doc.Version,
		Rows: models.Rows{
			Themes:      slices.Clone(s.doc.Themes),
			Habits:      slices.Clone(s.doc.Habits),
			Completions: slices.Clone(s.doc.Completions),
		},
	}
	if err := fn(next); err != nil {
		return err
	}
	if err := s.save(next); err != nil {
		return err
	}
	s.doc = next
	return nil
}

func (d *document) hasTheme(name string) bool {
	return slices.ContainsFunc(d.Themes, func(t models.ThemeRow) bool { return t.Name == name })
}

func (d *document) hasHabit(themeName, habitName string) bool {
	return slices.ContainsFunc(d.Habits, func(h models.HabitRow) bool {
		return h.ThemeName == themeName && h.Name == habitName
	})
}

func (d *document) hasCompletion(c models.CompletionRow) bool {
	return slices.Contains(d.Completions, c)
}

func (d *document) insertTheme(name string) error {
	if d.hasTheme(name) {
		return fmt.Errorf("theme %q: %w", name, storage.ErrDuplicate)
	}
	d.Themes = append(d.Themes, models.ThemeRow{Name: name})
	return nil
}

func (d *document) insertHabit(habit models.HabitRow) error {
	if !d.hasTheme(habit.ThemeName) {
		return storage.ThemeNotFound(habit.ThemeName)
	}
	if d.hasHabit(habit.ThemeName, habit.Name) {
		return fmt.Errorf("habit %q in theme %q: %w", habit.Name, habit.ThemeName, storage.ErrDuplicate)
	}
	d.Habits = append(d.Habits, habit)
	return nil
}

func (s *Store) AddTheme(theme models.ThemeRow) error {
	return s.update(func(doc *document) error {
		return doc.insertTheme(theme.Name)
	})
}

func (s *Store) DeleteTheme(name string) error {
	return s.update(func(doc *document) error {
		if !doc.hasTheme(name) {
			return storage.ThemeNotFound(name)
		}
		doc.Completions = slices.DeleteFunc(doc.Completions, func(c models.CompletionRow) bool { return c.ThemeName == name })
		doc.Habits = slices.DeleteFunc(doc.Habits, func(h models.HabitRow) bool { return h.ThemeName == name })
		doc.Themes = slices.DeleteFunc(doc.Themes, func(t models.ThemeRow) bool { return t.Name == name })
		return nil
	})
}

func (s *Store) AddHabit(habit models.HabitRow) error {
	return s.update(func(doc *document) error {
		return doc.insertHabit(habit)
	})
}

func (s *Store) DeleteHabit(themeName, habitName string) error {
	return s.update(func(doc *document) error {
		if !doc.hasHabit(themeName, habitName) {
			return storage.HabitNotFound(themeName, habitName)
		}
		doc.Completions = slices.DeleteFunc(doc.Completions, func(c models.CompletionRow) bool {
			return c.ThemeName == themeName && c.HabitName == habitName
		})
		doc.Habits = slices.DeleteFunc(doc.Habits, func(h models.HabitRow) bool {
			return h.ThemeName == themeName && h.Name == habitName
		})
		return nil
	})
}

func (s *Store) AddCompletion(c models.CompletionRow) error {
	return s.update(func(doc *document) error {
		if !doc.hasHabit(c.ThemeName, c.HabitName) {
			return storage.HabitNotFound(c.ThemeName, c.HabitName)
		}
		if doc.hasCompletion(c) {
			return fmt.Errorf("completion of %q on %s: %w", c.HabitName, c.Day, storage.ErrDuplicate)
		}
		doc.Completions = append(doc.Completions, c)
		return nil
	})
}

func (s *Store) DeleteCompletion(themeName, habitName string, day models.Date) error {
	target := models.CompletionRow{ThemeName: themeName, HabitName: habitName, Day: day}
	return s.update(func(doc *document) error {
		if !doc.hasCompletion(target) {
			return fmt.Errorf("completion of %q on %s: %w", habitName, day, storage.ErrNotFound)
		}
		doc.Completions = slices.DeleteFunc(doc.Completions, func(c models.CompletionRow) bool { return c == target })
		return nil
	})
}

func (s *Store) HasCompletion(themeName, habitName string, day models.Date) (bool, error) {
	if s.doc == nil {
		return false, storage.ErrNotLoaded
	}
	return s.doc.hasCompletion(models.CompletionRow{ThemeName: themeName, HabitName: habitName, Day: day}), nil
}

func (s *Store) ImportThemes(themes []models.Theme) error {
	return s.update(func(doc *document) error {
		for _, theme := range themes {
			if err := doc.insertTheme(theme.Name); err != nil {
				return err
			}
			for _, habit := range theme.Habits {
				row := models.HabitRow{ThemeName: theme.Name, Name: habit.Name, CreateDate: habit.CreateDate}
				if err := doc.insertHabit(row); err != nil {
					return err
				}
				for _, day := range habit.CompleteDates {
					c := models.CompletionRow{ThemeName: theme.Name, HabitName: habit.Name, Day: day}
					if !doc.hasCompletion(c) {
						doc.Completions = append(doc.Completions, c)
					}
				}
			}
		}
		return nil
	})
}

func (s *Store) LoadRows() (models.Rows, error) {
	if s.doc == nil {
		return models.Rows{}, storage.ErrNotLoaded
	}
	return models.Rows{
		Themes:      slices.Clone(s.doc.Themes),
		Habits:      slices.Clone(s.doc.Habits),
		Completions: slices.Clone(s.doc.Completions),
	}, nil
}

func (s *Store) GetConfigPath() string {
	return s.path
}
