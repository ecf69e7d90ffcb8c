package views

import (
	"context"
	"fmt"

	"github.com/julianstephens/habitthemes/internal/cli"
	"github.com/julianstephens/habitthemes/internal/constants"
)

type ListCmd struct {
	Days int  `help:"Number of trailing days to show per habit." default:"${log_days}"`
	JSON bool `help:"Print the theme tree as JSON." name:"json"`
}

func (c *ListCmd) Run(ctx *cli.Context) error {
	if c.Days <= 0 {
		c.Days = constants.DefaultLogDays
	}

	t, err := ctx.Tracker(context.Background())
	if err != nil {
		return err
	}
	snap, ok := t.Latest()
	if !ok {
		return fmt.Errorf("no data published yet")
	}

	if c.JSON {
		return cli.WriteJSON(ctx.Writer(), snap.Themes)
	}
	cli.RenderThemes(ctx.Writer(), snap.Themes, ctx.Today(), c.Days)
	return nil
}
