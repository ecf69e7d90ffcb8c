package habits

import (
	"context"
	"fmt"

	"github.com/julianstephens/habitthemes/internal/cli"
	"github.com/julianstephens/habitthemes/internal/models"
)

type SeedCmd struct{}

func (c *SeedCmd) Run(ctx *cli.Context) error {
	t, err := ctx.Tracker(context.Background())
	if err != nil {
		return err
	}

	themes := models.SampleThemes(ctx.Today())
	if err := t.Seed(themes).Wait(context.Background()); err != nil {
		return fmt.Errorf("failed to load sample data: %w", err)
	}

	habits := 0
	for _, th := range themes {
		habits += len(th.Habits)
	}
	ctx.Printf("✓ Loaded %d sample themes with %d habits\n", len(themes), habits)
	return nil
}
