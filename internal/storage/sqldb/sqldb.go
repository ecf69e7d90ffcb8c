// Package sqldb implements the theme/habit/completion tables on top of
// database/sql. The sqlite and postgres providers share it and differ only in
// how they open the connection and which placeholder style they bind.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/julianstephens/habitthemes/internal/models"
	"github.com/julianstephens/habitthemes/internal/storage"
)

// Placeholder selects how "?" parameters are rewritten before execution.
type Placeholder int

const (
	Question Placeholder = iota // SQLite: ?
	Dollar                      // PostgreSQL: $1, $2, ...
)

// Tables runs the domain queries against an open database.
type Tables struct {
	db          *sql.DB
	placeholder Placeholder
}

// New wraps db. db may be nil until the owning provider opens it.
func New(db *sql.DB, placeholder Placeholder) *Tables {
	return &Tables{db: db, placeholder: placeholder}
}

// SetDB replaces the underlying connection.
func (t *Tables) SetDB(db *sql.DB) {
	t.db = db
}

func (t *Tables) bind(query string) string {
	if t.placeholder != Dollar {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// execer is satisfied by *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
}

func (t *Tables) exec(q execer, query string, args ...any) (int64, error) {
	res, err := q.Exec(t.bind(query), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (t *Tables) exists(q execer, query string, args ...any) (bool, error) {
	var one int
	err := q.QueryRow(t.bind(query), args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// inTx runs fn in a transaction, committing only when fn succeeds.
func (t *Tables) inTx(fn func(tx *sql.Tx) error) error {
	if t.db == nil {
		return storage.ErrNotLoaded
	}
	tx, err := t.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (t *Tables) AddTheme(theme models.ThemeRow) error {
	return t.inTx(func(tx *sql.Tx) error {
		return t.insertTheme(tx, theme.Name)
	})
}

func (t *Tables) insertTheme(tx *sql.Tx, name string) error {
	n, err := t.exec(tx, `INSERT INTO themes (theme_name) VALUES (?) ON CONFLICT DO NOTHING`, name)
	if err != nil {
		return fmt.Errorf("failed to add theme: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("theme %q: %w", name, storage.ErrDuplicate)
	}
	return nil
}

func (t *Tables) DeleteTheme(name string) error {
	return t.inTx(func(tx *sql.Tx) error {
		if _, err := t.exec(tx, `DELETE FROM completions WHERE theme_name = ?`, name); err != nil {
			return fmt.Errorf("failed to delete completions: %w", err)
		}
		if _, err := t.exec(tx, `DELETE FROM habits WHERE theme_name = ?`, name); err != nil {
			return fmt.Errorf("failed to delete habits: %w", err)
		}
		n, err := t.exec(tx, `DELETE FROM themes WHERE theme_name = ?`, name)
		if err != nil {
			return fmt.Errorf("failed to delete theme: %w", err)
		}
		if n == 0 {
			return storage.ThemeNotFound(name)
		}
		return nil
	})
}

func (t *Tables) AddHabit(habit models.HabitRow) error {
	return t.inTx(func(tx *sql.Tx) error {
		return t.insertHabit(tx, habit)
	})
}

func (t *Tables) insertHabit(tx *sql.Tx, habit models.HabitRow) error {
	ok, err := t.exists(tx, `SELECT 1 FROM themes WHERE theme_name = ?`, habit.ThemeName)
	if err != nil {
		return fmt.Errorf("failed to look up theme: %w", err)
	}
	if !ok {
		return storage.ThemeNotFound(habit.ThemeName)
	}

	n, err := t.exec(tx, `
		INSERT INTO habits (theme_name, habit_name, create_date)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING`,
		habit.ThemeName, habit.Name, habit.CreateDate)
	if err != nil {
		return fmt.Errorf("failed to add habit: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("habit %q in theme %q: %w", habit.Name, habit.ThemeName, storage.ErrDuplicate)
	}
	return nil
}

func (t *Tables) DeleteHabit(themeName, habitName string) error {
	return t.inTx(func(tx *sql.Tx) error {
		if _, err := t.exec(tx, `DELETE FROM completions WHERE theme_name = ? AND habit_name = ?`, themeName, habitName); err != nil {
			return fmt.Errorf("failed to delete completions: %w", err)
		}
		n, err := t.exec(tx, `DELETE FROM habits WHERE theme_name = ? AND habit_name = ?`, themeName, habitName)
		if err != nil {
			return fmt.Errorf("failed to delete habit: %w", err)
		}
		if n == 0 {
			return storage.HabitNotFound(themeName, habitName)
		}
		return nil
	})
}

func (t *Tables) AddCompletion(c models.CompletionRow) error {
	return t.inTx(func(tx *sql.Tx) error {
		ok, err := t.exists(tx, `SELECT 1 FROM habits WHERE theme_name = ? AND habit_name = ?`, c.ThemeName, c.HabitName)
		if err != nil {
			return fmt.Errorf("failed to look up habit: %w", err)
		}
		if !ok {
			return storage.HabitNotFound(c.ThemeName, c.HabitName)
		}

		n, err := t.insertCompletion(tx, c)
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("completion of %q on %s: %w", c.HabitName, c.Day, storage.ErrDuplicate)
		}
		return nil
	})
}

func (t *Tables) insertCompletion(tx *sql.Tx, c models.CompletionRow) (int64, error) {
	n, err := t.exec(tx, `
		INSERT INTO completions (theme_name, habit_name, day)
		VALUES (?, ?, ?)
		ON CONFLICT DO NOTHING`,
		c.ThemeName, c.HabitName, c.Day)
	if err != nil {
		return 0, fmt.Errorf("failed to add completion: %w", err)
	}
	return n, nil
}

func (t *Tables) DeleteCompletion(themeName, habitName string, day models.Date) error {
	return t.inTx(func(tx *sql.Tx) error {
		n, err := t.exec(tx, `
			DELETE FROM completions
			WHERE theme_name = ? AND habit_name = ? AND day = ?`,
			themeName, habitName, day)
		if err != nil {
			return fmt.Errorf("failed to delete completion: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("completion of %q on %s: %w", habitName, day, storage.ErrNotFound)
		}
		return nil
	})
}

func (t *Tables) HasCompletion(themeName, habitName string, day models.Date) (bool, error) {
	if t.db == nil {
		return false, storage.ErrNotLoaded
	}
	ok, err := t.exists(t.db, `
		SELECT 1 FROM completions
		WHERE theme_name = ? AND habit_name = ? AND day = ?`,
		themeName, habitName, day)
	if err != nil {
		return false, fmt.Errorf("failed to look up completion: %w", err)
	}
	return ok, nil
}

func (t *Tables) ImportThemes(themes []models.Theme) error {
	return t.inTx(func(tx *sql.Tx) error {
		for _, theme := range themes {
			if err := t.insertTheme(tx, theme.Name); err != nil {
				return err
			}
			for _, habit := range theme.Habits {
				row := models.HabitRow{ThemeName: theme.Name, Name: habit.Name, CreateDate: habit.CreateDate}
				if err := t.insertHabit(tx, row); err != nil {
					return err
				}
				for _, day := range habit.CompleteDates {
					c := models.CompletionRow{ThemeName: theme.Name, HabitName: habit.Name, Day: day}
					if _, err := t.insertCompletion(tx, c); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}

// readTxOptions returns the options for the LoadRows snapshot. PostgreSQL
// defaults to READ COMMITTED, where each SELECT sees its own commits.
func (t *Tables) readTxOptions() *sql.TxOptions {
	if t.placeholder == Dollar {
		return &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	return &sql.TxOptions{ReadOnly: true}
}

func (t *Tables) LoadRows() (models.Rows, error) {
	if t.db == nil {
		return models.Rows{}, storage.ErrNotLoaded
	}

	tx, err := t.db.BeginTx(context.Background(), t.readTxOptions())
	if err != nil {
		return models.Rows{}, fmt.Errorf("failed to begin read: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var rows models.Rows

	themeRows, err := tx.Query(`SELECT theme_name FROM themes`)
	if err != nil {
		return models.Rows{}, fmt.Errorf("failed to read themes: %w", err)
	}
	for themeRows.Next() {
		var r models.ThemeRow
		if err := themeRows.Scan(&r.Name); err != nil {
			themeRows.Close()
			return models.Rows{}, err
		}
		rows.Themes = append(rows.Themes, r)
	}
	themeRows.Close()
	if err := themeRows.Err(); err != nil {
		return models.Rows{}, err
	}

	habitRows, err := tx.Query(`SELECT theme_name, habit_name, create_date FROM habits`)
	if err != nil {
		return models.Rows{}, fmt.Errorf("failed to read habits: %w", err)
	}
	for habitRows.Next() {
		var r models.HabitRow
		if err := habitRows.Scan(&r.ThemeName, &r.Name, &r.CreateDate); err != nil {
			habitRows.Close()
			return models.Rows{}, fmt.Errorf("failed to scan habit: %w", err)
		}
		rows.Habits = append(rows.Habits, r)
	}
	habitRows.Close()
	if err := habitRows.Err(); err != nil {
		return models.Rows{}, err
	}

	completionRows, err := tx.Query(`SELECT theme_name, habit_name, day FROM completions`)
	if err != nil {
		return models.Rows{}, fmt.Errorf("failed to read completions: %w", err)
	}
	for completionRows.Next() {
		var r models.CompletionRow
		if err := completionRows.Scan(&r.ThemeName, &r.HabitName, &r.Day); err != nil {
			completionRows.Close()
			return models.Rows{}, fmt.Errorf("failed to scan completion: %w", err)
		}
		rows.Completions = append(rows.Completions, r)
	}
	completionRows.Close()
	if err := completionRows.Err(); err != nil {
		return models.Rows{}, err
	}

	return rows, nil
}
