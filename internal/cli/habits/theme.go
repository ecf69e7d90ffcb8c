package habits

import (
	"context"
	"strings"

	"github.com/julianstephens/habitthemes/internal/cli"
)

type ThemeAddCmd struct {
	Name string `arg:"" help:"Name of the theme."`
}

func (c *ThemeAddCmd) Run(ctx *cli.Context) error {
	t, err := ctx.Tracker(context.Background())
	if err != nil {
		return err
	}
	if err := t.AddTheme(c.Name).Wait(context.Background()); err != nil {
		return err
	}
	ctx.Printf("✓ Added theme %q\n", strings.TrimSpace(c.Name))
	return nil
}

type ThemeRemoveCmd struct {
	Name string `arg:"" help:"Name of the theme to remove, with all of its habits."`
}

func (c *ThemeRemoveCmd) Run(ctx *cli.Context) error {
	t, err := ctx.Tracker(context.Background())
	if err != nil {
		return err
	}

	ctx.PerformAutomaticBackup()

	if err := t.RemoveTheme(c.Name).Wait(context.Background()); err != nil {
		return err
	}
	ctx.Printf("✓ Removed theme %q and its habits\n", strings.TrimSpace(c.Name))
	return nil
}
