// Package tracker owns a storage provider and serializes every mutation
// through a single writer goroutine. After each batch of mutations it
// rebuilds the theme tree and publishes it to subscribers.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/julianstephens/habitthemes/internal/aggregate"
	"github.com/julianstephens/habitthemes/internal/events"
	"github.com/julianstephens/habitthemes/internal/logger"
	"github.com/julianstephens/habitthemes/internal/models"
	"github.com/julianstephens/habitthemes/internal/storage"
	"github.com/julianstephens/habitthemes/internal/utils"
)

// ErrClosed is returned for mutations submitted after Close.
var ErrClosed = errors.New("tracker closed")

type Option func(*Tracker)

// WithClock sets the time source used for habit creation dates.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLocation sets the timezone that decides what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(t *Tracker) { t.loc = loc }
}

type command struct {
	op      string
	apply   func(storage.Provider) error
	pending *Pending
}

type Tracker struct {
	provider storage.Provider
	broker   *events.Broker
	now      func() time.Time
	loc      *time.Location

	mu      sync.Mutex
	queue   []command
	started bool
	closed  bool

	wake    chan struct{}
	stop    chan struct{}
	stopped chan struct{}
}

// New wraps an initialized provider. Call Start before reading snapshots.
func New(provider storage.Provider, opts ...Option) *Tracker {
	t := &Tracker{
		provider: provider,
		broker:   events.NewBroker(),
		now:      time.Now,
		loc:      time.Local,
		wake:     make(chan struct{}, 1),
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Start publishes the current contents of the provider and starts the
// writer. Cancelling ctx has the same effect as Close.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	if t.started {
		t.mu.Unlock()
		return errors.New("tracker already started")
	}
	t.started = true
	t.mu.Unlock()

	if err := t.publish(); err != nil {
		t.mu.Lock()
		t.started = false
		// Close ran meanwhile and is waiting for a writer that never started
		closed := t.closed
		var orphaned []command
		if closed {
			orphaned = t.queue
			t.queue = nil
		}
		t.mu.Unlock()

		if closed {
			for _, cmd := range orphaned {
				cmd.pending.resolve(ErrClosed)
			}
			close(t.stopped)
		}
		return err
	}

	go t.run(ctx)
	return nil
}

// Close applies every mutation already queued, stops the writer and closes
// all subscriptions. The provider is left open.
func (t *Tracker) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		<-t.stopped
		return nil
	}
	t.closed = true
	started := t.started
	var orphaned []command
	if !started {
		orphaned = t.queue
		t.queue = nil
	}
	t.mu.Unlock()

	if started {
		close(t.stop)
		<-t.stopped
	} else {
		for _, cmd := range orphaned {
			cmd.pending.resolve(ErrClosed)
		}
		close(t.stopped)
	}

	t.broker.Close()
	return nil
}

// Today returns the current calendar date in the tracker's timezone.
func (t *Tracker) Today() models.Date {
	return utils.TodayIn(t.now(), t.loc)
}

// GetAllThemeHabits subscribes to the theme tree. The latest snapshot is
// delivered immediately, then one per published change.
func (t *Tracker) GetAllThemeHabits() *events.Subscription {
	return t.broker.Subscribe()
}

// Latest returns the most recently published snapshot.
func (t *Tracker) Latest() (models.Snapshot, bool) {
	return t.broker.Latest()
}

func (t *Tracker) AddTheme(name string) *Pending {
	name, err := storage.NormalizeName("theme", name)
	if err != nil {
		return t.reject("add theme", err)
	}
	return t.submit("add theme", func(p storage.Provider) error {
		return p.AddTheme(models.ThemeRow{Name: name})
	})
}

// RemoveTheme deletes the theme with its habits and their completion dates.
func (t *Tracker) RemoveTheme(theme string) *Pending {
	theme, err := storage.NormalizeName("theme", theme)
	if err != nil {
		return t.reject("remove theme", err)
	}
	return t.submit("remove theme", func(p storage.Provider) error {
		return p.DeleteTheme(theme)
	})
}

// AddHabit creates a habit dated today under an existing theme.
func (t *Tracker) AddHabit(name, theme string) *Pending {
	name, err := storage.NormalizeName("habit", name)
	if err != nil {
		return t.reject("add habit", err)
	}
	theme, err = storage.NormalizeName("theme", theme)
	if err != nil {
		return t.reject("add habit", err)
	}
	row := models.HabitRow{ThemeName: theme, Name: name, CreateDate: t.Today()}
	return t.submit("add habit", func(p storage.Provider) error {
		return p.AddHabit(row)
	})
}

// RemoveHabit deletes the habit and its completion dates.
func (t *Tracker) RemoveHabit(habit, theme string) *Pending {
	habit, theme, err := normalizePair(habit, theme)
	if err != nil {
		return t.reject("remove habit", err)
	}
	return t.submit("remove habit", func(p storage.Provider) error {
		return p.DeleteHabit(theme, habit)
	})
}

// AddDate marks the habit complete on date. Marking an already completed
// date succeeds.
func (t *Tracker) AddDate(theme, habit string, date models.Date) *Pending {
	row, err := completion(theme, habit, date)
	if err != nil {
		return t.reject("add date", err)
	}
	return t.submit("add date", func(p storage.Provider) error {
		return addCompletion(p, row)
	})
}

// RemoveDate clears the completion on date. Clearing a date that was never
// completed succeeds.
func (t *Tracker) RemoveDate(theme, habit string, date models.Date) *Pending {
	row, err := completion(theme, habit, date)
	if err != nil {
		return t.reject("remove date", err)
	}
	return t.submit("remove date", func(p storage.Provider) error {
		return removeCompletion(p, row)
	})
}

// ToggleDate completes date if it is open and clears it if it is done.
func (t *Tracker) ToggleDate(theme, habit string, date models.Date) *Pending {
	row, err := completion(theme, habit, date)
	if err != nil {
		return t.reject("toggle date", err)
	}
	return t.submit("toggle date", func(p storage.Provider) error {
		done, err := p.HasCompletion(row.ThemeName, row.HabitName, row.Day)
		if err != nil {
			return err
		}
		if done {
			return removeCompletion(p, row)
		}
		return addCompletion(p, row)
	})
}

// Seed inserts whole themes, with their habits and completion dates, in one
// transaction. Nothing is written if any theme or habit already exists.
func (t *Tracker) Seed(themes []models.Theme) *Pending {
	clean := make([]models.Theme, 0, len(themes))
	for _, theme := range themes {
		name, err := storage.NormalizeName("theme", theme.Name)
		if err != nil {
			return t.reject("seed", err)
		}
		out := models.Theme{Name: name, Habits: make([]models.Habit, 0, len(theme.Habits))}
		for _, h := range theme.Habits {
			habitName, err := storage.NormalizeName("habit", h.Name)
			if err != nil {
				return t.reject("seed", err)
			}
			created := h.CreateDate
			if created.IsZero() {
				created = t.Today()
			}
			out.Habits = append(out.Habits, models.Habit{
				Name:          habitName,
				CreateDate:    created,
				CompleteDates: append([]models.Date(nil), h.CompleteDates...),
			})
		}
		clean = append(clean, out)
	}
	return t.submit("seed", func(p storage.Provider) error {
		return p.ImportThemes(clean)
	})
}

// Refresh republishes the provider's contents. It picks up writes made by
// other processes sharing the same database.
func (t *Tracker) Refresh() *Pending {
	return t.submit("refresh", func(storage.Provider) error { return nil })
}

func normalizePair(habit, theme string) (string, string, error) {
	habit, err := storage.NormalizeName("habit", habit)
	if err != nil {
		return "", "", err
	}
	theme, err = storage.NormalizeName("theme", theme)
	if err != nil {
		return "", "", err
	}
	return habit, theme, nil
}

func completion(theme, habit string, date models.Date) (models.CompletionRow, error) {
	habit, theme, err := normalizePair(habit, theme)
	if err != nil {
		return models.CompletionRow{}, err
	}
	if date.IsZero() {
		return models.CompletionRow{}, fmt.Errorf("%w: date is required", storage.ErrInvalidArgument)
	}
	return models.CompletionRow{ThemeName: theme, HabitName: habit, Day: date}, nil
}

func addCompletion(p storage.Provider, row models.CompletionRow) error {
	err := p.AddCompletion(row)
	if errors.Is(err, storage.ErrDuplicate) {
		logger.Debug("date already completed", "theme", row.ThemeName, "habit", row.HabitName, "date", row.Day)
		return nil
	}
	return err
}

func removeCompletion(p storage.Provider, row models.CompletionRow) error {
	err := p.DeleteCompletion(row.ThemeName, row.HabitName, row.Day)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	return err
}

func (t *Tracker) reject(op string, err error) *Pending {
	logger.Warn("mutation rejected", "op", op, "error", err)
	return resolved(err)
}

func (t *Tracker) submit(op string, apply func(storage.Provider) error) *Pending {
	p := newPending()

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		p.resolve(ErrClosed)
		return p
	}
	t.queue = append(t.queue, command{op: op, apply: apply, pending: p})
	t.mu.Unlock()

	select {
	case t.wake <- struct{}{}:
	default:
	}
	return p
}

func (t *Tracker) run(ctx context.Context) {
	defer close(t.stopped)
	for {
		select {
		case <-t.wake:
			t.drain()
		case <-t.stop:
			t.drain()
			return
		case <-ctx.Done():
			t.mu.Lock()
			t.closed = true
			t.mu.Unlock()
			t.drain()
			t.broker.Close()
			return
		}
	}
}

// drain applies everything queued in submission order and publishes once.
func (t *Tracker) drain() {
	t.mu.Lock()
	batch := t.queue
	t.queue = nil
	t.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	results := make([]error, len(batch))
	applied := false
	for i, cmd := range batch {
		err := cmd.apply(t.provider)
		if err != nil {
			logger.Warn("mutation failed", "op", cmd.op, "error", err)
			results[i] = fmt.Errorf("failed to %s: %w", cmd.op, err)
			continue
		}
		applied = true
	}

	if applied {
		if err := t.publish(); err != nil {
			logger.Error("failed to publish snapshot", "error", err)
		}
	}

	for i, cmd := range batch {
		cmd.pending.resolve(results[i])
	}
}

func (t *Tracker) publish() error {
	rows, err := t.provider.LoadRows()
	if err != nil {
		return fmt.Errorf("failed to load rows: %w", err)
	}
	t.broker.Publish(aggregate.Build(rows))
	return nil
}
