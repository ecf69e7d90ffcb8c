package views

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"reflect"
	"syscall"
	"time"

	"github.com/julianstephens/habitthemes/internal/cli"
	"github.com/julianstephens/habitthemes/internal/constants"
	"github.com/julianstephens/habitthemes/internal/errors"
	"github.com/julianstephens/habitthemes/internal/logger"
	"github.com/julianstephens/habitthemes/internal/models"
	"github.com/julianstephens/habitthemes/internal/tracker"
)

// WatchCmd prints the theme tree every time it changes. The store is
// re-read every Interval so writes from other processes show up too.
type WatchCmd struct {
	Days     int           `help:"Number of trailing days to show per habit." default:"${log_days}"`
	JSON     bool          `help:"Print each snapshot as JSON." name:"json"`
	Interval time.Duration `help:"How often to re-read the store (0 disables polling)." default:"2s"`
	Count    int           `help:"Exit after this many snapshots (0 = until interrupted)."`
}

type subscription interface {
	C() <-chan models.Snapshot
	Close()
}

type refresher interface {
	Refresh() *tracker.Pending
}

func (c *WatchCmd) Run(ctx *cli.Context) error {
	if c.Days <= 0 {
		c.Days = constants.DefaultLogDays
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	t, err := ctx.Tracker(sigCtx)
	if err != nil {
		return err
	}

	if c.Interval > 0 {
		go poll(sigCtx, t, c.Interval, func(err error) {
			logger.Warn("failed to refresh", "error", err)
			fmt.Fprintln(os.Stderr, errors.Notice(err))
		})
	}
	return c.watch(sigCtx, ctx, t.GetAllThemeHabits())
}

func poll(ctx context.Context, r refresher, interval time.Duration, onErr func(error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Refresh().Wait(ctx); err != nil && ctx.Err() == nil {
				onErr(err)
			}
		}
	}
}

func (c *WatchCmd) watch(runCtx context.Context, ctx *cli.Context, sub subscription) error {
	defer sub.Close()

	var last []models.Theme
	seen := 0
	for {
		select {
		case <-runCtx.Done():
			return nil
		case snap, ok := <-sub.C():
			if !ok {
				return nil
			}
			if seen > 0 && reflect.DeepEqual(snap.Themes, last) {
				continue
			}
			last = snap.Themes
			logger.Debug("snapshot received", "sequence", snap.Sequence)

			if c.JSON {
				if err := cli.WriteJSON(ctx.Writer(), snap); err != nil {
					return err
				}
			} else {
				ctx.Printf("── update #%d at %s ──\n", snap.Sequence, snap.PublishedAt.In(ctx.Location()).Format("15:04:05"))
				cli.RenderThemes(ctx.Writer(), snap.Themes, ctx.Today(), c.Days)
			}

			seen++
			if c.Count > 0 && seen >= c.Count {
				return nil
			}
		}
	}
}
