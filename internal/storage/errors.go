package storage

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a theme, habit or completion key does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when creating a key that already exists.
	ErrDuplicate = errors.New("already exists")
	// ErrInvalidArgument is returned for empty or malformed names.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotLoaded is returned when a provider is used before Init or Load.
	ErrNotLoaded = errors.New("storage not loaded")
)

// NormalizeName trims a theme or habit name and rejects empty names.
func NormalizeName(kind, name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("%w: %s name cannot be empty", ErrInvalidArgument, kind)
	}
	return trimmed, nil
}

// ThemeNotFound wraps ErrNotFound for a theme key.
func ThemeNotFound(name string) error {
	return fmt.Errorf("theme %q: %w", name, ErrNotFound)
}

// HabitNotFound wraps ErrNotFound for a habit key.
func HabitNotFound(themeName, habitName string) error {
	return fmt.Errorf("habit %q in theme %q: %w", habitName, themeName, ErrNotFound)
}
