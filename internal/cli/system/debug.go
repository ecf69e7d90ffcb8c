package system

import (
	"context"
	"fmt"
	"strings"

	"github.com/julianstephens/habitthemes/internal/cli"
	"github.com/julianstephens/habitthemes/internal/storage"
)

type DebugCmd struct {
	DBPath    DebugDBPathCmd    `cmd:"" help:"Show database path."`
	DumpRows  DebugDumpRowsCmd  `cmd:"" help:"Dump the raw stored rows as JSON."`
	DumpHabit DebugDumpHabitCmd `cmd:"" help:"Dump one habit from the aggregate tree as JSON."`
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	// Machine-readable output
	return cli.WriteJSON(ctx.Writer(), map[string]string{
		"path": ctx.Store.GetConfigPath(),
	})
}

type DebugDumpRowsCmd struct{}

func (cmd *DebugDumpRowsCmd) Run(ctx *cli.Context) error {
	rows, err := ctx.Store.LoadRows()
	if err != nil {
		return fmt.Errorf("failed to load rows: %w", err)
	}
	return cli.WriteJSON(ctx.Writer(), rows)
}

type DebugDumpHabitCmd struct {
	Theme string `arg:"" help:"Theme the habit belongs to."`
	Habit string `arg:"" help:"Habit to dump."`
}

func (cmd *DebugDumpHabitCmd) Run(ctx *cli.Context) error {
	t, err := ctx.Tracker(context.Background())
	if err != nil {
		return err
	}
	snap, _ := t.Latest()

	themeName, habitName := strings.TrimSpace(cmd.Theme), strings.TrimSpace(cmd.Habit)
	theme, ok := snap.Theme(themeName)
	if !ok {
		return fmt.Errorf("%w: theme %q", storage.ErrNotFound, themeName)
	}
	habit, ok := theme.Habit(habitName)
	if !ok {
		return fmt.Errorf("%w: habit %q in theme %q", storage.ErrNotFound, habitName, themeName)
	}
	return cli.WriteJSON(ctx.Writer(), habit)
}
