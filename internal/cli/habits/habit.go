package habits

import (
	"context"
	"strings"

	"github.com/julianstephens/habitthemes/internal/cli"
)

type HabitAddCmd struct {
	Theme string `arg:"" help:"Theme the habit belongs to."`
	Name  string `arg:"" help:"Name of the habit."`
}

func (c *HabitAddCmd) Run(ctx *cli.Context) error {
	t, err := ctx.Tracker(context.Background())
	if err != nil {
		return err
	}
	if err := t.AddHabit(c.Name, c.Theme).Wait(context.Background()); err != nil {
		return err
	}
	ctx.Printf("✓ Added habit %q to %q\n", strings.TrimSpace(c.Name), strings.TrimSpace(c.Theme))
	return nil
}

type HabitRemoveCmd struct {
	Theme string `arg:"" help:"Theme the habit belongs to."`
	Name  string `arg:"" help:"Name of the habit to remove."`
}

func (c *HabitRemoveCmd) Run(ctx *cli.Context) error {
	t, err := ctx.Tracker(context.Background())
	if err != nil {
		return err
	}

	ctx.PerformAutomaticBackup()

	if err := t.RemoveHabit(c.Name, c.Theme).Wait(context.Background()); err != nil {
		return err
	}
	ctx.Printf("✓ Removed habit %q from %q\n", strings.TrimSpace(c.Name), strings.TrimSpace(c.Theme))
	return nil
}
