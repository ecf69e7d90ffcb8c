package habits

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/habitthemes/internal/backup"
	"github.com/julianstephens/habitthemes/internal/cli"
	"github.com/julianstephens/habitthemes/internal/config"
	"github.com/julianstephens/habitthemes/internal/models"
	"github.com/julianstephens/habitthemes/internal/storage"
	"github.com/julianstephens/habitthemes/internal/storage/sqlite"
)

func newTestContext(t *testing.T) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default(dir)
	cfg.Timezone = "UTC"
	store := sqlite.NewStore(cfg.Database)
	if err := store.Init(); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}

	var out bytes.Buffer
	ctx := &cli.Context{
		Config: cfg,
		Store:  store,
		Out:    &out,
		Now:    func() time.Time { return time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC) },
	}
	t.Cleanup(func() { _ = ctx.Close() })
	return ctx, &out
}

func latestHabit(t *testing.T, ctx *cli.Context, theme, habit string) (models.Habit, bool) {
	t.Helper()
	tr, err := ctx.Tracker(t.Context())
	if err != nil {
		t.Fatalf("Tracker() error = %v", err)
	}
	snap, ok := tr.Latest()
	if !ok {
		t.Fatal("no snapshot published")
	}
	th, ok := snap.Theme(theme)
	if !ok {
		return models.Habit{}, false
	}
	return th.Habit(habit)
}

func run(t *testing.T, ctx *cli.Context, cmd interface{ Run(*cli.Context) error }) {
	t.Helper()
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("%T.Run() error = %v", cmd, err)
	}
}

func TestAddThemeHabitAndMark(t *testing.T) {
	ctx, out := newTestContext(t)

	run(t, ctx, &ThemeAddCmd{Name: "  Health "})
	run(t, ctx, &HabitAddCmd{Theme: "Health", Name: "Run"})
	run(t, ctx, &MarkCmd{Theme: "Health", Habit: "Run", Date: "today"})
	run(t, ctx, &MarkCmd{Theme: "Health", Habit: "Run", Date: "2024-03-01"})

	for _, want := range []string{`Added theme "Health"`, `Added habit "Run" to "Health"`, `Marked "Run" done on 2024-03-10`} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}

	h, ok := latestHabit(t, ctx, "Health", "Run")
	if !ok {
		t.Fatal("habit not in snapshot")
	}
	if h.CreateDate != models.MustParseDate("2024-03-10") {
		t.Errorf("CreateDate = %s, want 2024-03-10", h.CreateDate)
	}
	want := []models.Date{models.MustParseDate("2024-03-10"), models.MustParseDate("2024-03-01")}
	if len(h.CompleteDates) != 2 || h.CompleteDates[0] != want[0] || h.CompleteDates[1] != want[1] {
		t.Errorf("CompleteDates = %v, want %v", h.CompleteDates, want)
	}
}

func TestMarkUndo(t *testing.T) {
	ctx, out := newTestContext(t)

	run(t, ctx, &ThemeAddCmd{Name: "Health"})
	run(t, ctx, &HabitAddCmd{Theme: "Health", Name: "Run"})
	run(t, ctx, &MarkCmd{Theme: "Health", Habit: "Run", Date: "yesterday"})
	run(t, ctx, &MarkCmd{Theme: "Health", Habit: "Run", Date: "yesterday", Undo: true})

	if !strings.Contains(out.String(), `Cleared "Run" on 2024-03-09`) {
		t.Errorf("unexpected output:\n%s", out.String())
	}
	h, _ := latestHabit(t, ctx, "Health", "Run")
	if len(h.CompleteDates) != 0 {
		t.Errorf("CompleteDates = %v, want none", h.CompleteDates)
	}
}

func TestMarkErrors(t *testing.T) {
	ctx, _ := newTestContext(t)
	run(t, ctx, &ThemeAddCmd{Name: "Health"})

	if err := (&MarkCmd{Theme: "Health", Habit: "Run", Date: "03/10/2024"}).Run(ctx); err == nil {
		t.Error("expected an error for a malformed date")
	}
	err := (&MarkCmd{Theme: "Health", Habit: "Run", Date: "today"}).Run(ctx)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound for a missing habit, got %v", err)
	}
}

func TestToggle(t *testing.T) {
	ctx, out := newTestContext(t)
	run(t, ctx, &ThemeAddCmd{Name: "Health"})
	run(t, ctx, &HabitAddCmd{Theme: "Health", Name: "Run"})

	run(t, ctx, &ToggleCmd{Theme: "Health", Habit: "Run", Date: "today"})
	if !strings.Contains(out.String(), "is now done") {
		t.Errorf("first toggle should mark done:\n%s", out.String())
	}

	out.Reset()
	run(t, ctx, &ToggleCmd{Theme: "Health", Habit: "Run", Date: "today"})
	if !strings.Contains(out.String(), "is now open") {
		t.Errorf("second toggle should clear:\n%s", out.String())
	}
}

func TestAddErrors(t *testing.T) {
	ctx, _ := newTestContext(t)

	if err := (&HabitAddCmd{Theme: "Nope", Name: "Run"}).Run(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	run(t, ctx, &ThemeAddCmd{Name: "Health"})
	if err := (&ThemeAddCmd{Name: "Health"}).Run(ctx); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
	if err := (&ThemeAddCmd{Name: "   "}).Run(ctx); !errors.Is(err, storage.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestRemoveCommandsBackUpFirst(t *testing.T) {
	ctx, out := newTestContext(t)
	run(t, ctx, &ThemeAddCmd{Name: "Health"})
	run(t, ctx, &HabitAddCmd{Theme: "Health", Name: "Run"})

	run(t, ctx, &HabitRemoveCmd{Theme: "Health", Name: "Run"})
	if _, ok := latestHabit(t, ctx, "Health", "Run"); ok {
		t.Error("habit should be removed")
	}

	run(t, ctx, &ThemeRemoveCmd{Name: "Health"})
	tr, _ := ctx.Tracker(t.Context())
	snap, _ := tr.Latest()
	if len(snap.Themes) != 0 {
		t.Errorf("themes = %v, want none", snap.Themes)
	}
	if !strings.Contains(out.String(), `Removed theme "Health"`) {
		t.Errorf("unexpected output:\n%s", out.String())
	}

	mgr := backup.NewManager(ctx.Config.Database, backup.WithDir(ctx.Config.Backups.Dir))
	backups, err := mgr.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(backups) != 2 {
		t.Errorf("expected 2 automatic backups, got %d", len(backups))
	}
}

func TestRemoveWithBackupsDisabled(t *testing.T) {
	ctx, _ := newTestContext(t)
	ctx.Config.Backups.Enabled = false
	run(t, ctx, &ThemeAddCmd{Name: "Health"})
	run(t, ctx, &ThemeRemoveCmd{Name: "Health"})

	backups, err := backup.NewManager(ctx.Config.Database, backup.WithDir(ctx.Config.Backups.Dir)).List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("expected no backups, got %d", len(backups))
	}
}

func TestSeed(t *testing.T) {
	ctx, out := newTestContext(t)
	run(t, ctx, &SeedCmd{})

	if !strings.Contains(out.String(), "Loaded 2 sample themes with 3 habits") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
	h, ok := latestHabit(t, ctx, "Mental Health", "Meditate")
	if !ok {
		t.Fatal("Meditate not seeded")
	}
	if got := h.Streak(models.MustParseDate("2024-03-10")); got != 5 {
		t.Errorf("Streak() = %d, want 5", got)
	}

	if err := (&SeedCmd{}).Run(ctx); err == nil {
		t.Error("seeding twice should fail on duplicate themes")
	}
}
