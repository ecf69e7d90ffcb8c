package habits

import (
	"context"
	"strings"

	"github.com/julianstephens/habitthemes/internal/cli"
	"github.com/julianstephens/habitthemes/internal/tracker"
	"github.com/julianstephens/habitthemes/internal/utils"
)

type MarkCmd struct {
	Theme string `arg:"" help:"Theme the habit belongs to."`
	Habit string `arg:"" help:"Habit to mark."`
	Date  string `help:"Date to mark (YYYY-MM-DD, today or yesterday)." default:"today"`
	Undo  bool   `help:"Clear the completion instead of setting it."`
}

func (c *MarkCmd) Run(ctx *cli.Context) error {
	day, err := utils.ParseDateOrToday(c.Date, ctx.Today())
	if err != nil {
		return err
	}
	t, err := ctx.Tracker(context.Background())
	if err != nil {
		return err
	}

	var p *tracker.Pending
	if c.Undo {
		p = t.RemoveDate(c.Theme, c.Habit, day)
	} else {
		p = t.AddDate(c.Theme, c.Habit, day)
	}
	if err := p.Wait(context.Background()); err != nil {
		return err
	}

	if c.Undo {
		ctx.Printf("✓ Cleared %q on %s\n", strings.TrimSpace(c.Habit), day)
	} else {
		ctx.Printf("✓ Marked %q done on %s\n", strings.TrimSpace(c.Habit), day)
	}
	return nil
}

type ToggleCmd struct {
	Theme string `arg:"" help:"Theme the habit belongs to."`
	Habit string `arg:"" help:"Habit to toggle."`
	Date  string `help:"Date to toggle (YYYY-MM-DD, today or yesterday)." default:"today"`
}

func (c *ToggleCmd) Run(ctx *cli.Context) error {
	day, err := utils.ParseDateOrToday(c.Date, ctx.Today())
	if err != nil {
		return err
	}
	t, err := ctx.Tracker(context.Background())
	if err != nil {
		return err
	}
	if err := t.ToggleDate(c.Theme, c.Habit, day).Wait(context.Background()); err != nil {
		return err
	}

	snap, _ := t.Latest()
	state := "open"
	if theme, ok := snap.Theme(strings.TrimSpace(c.Theme)); ok {
		if h, ok := theme.Habit(strings.TrimSpace(c.Habit)); ok && h.CompletedOn(day) {
			state = "done"
		}
	}
	ctx.Printf("✓ %q on %s is now %s\n", strings.TrimSpace(c.Habit), day, state)
	return nil
}
