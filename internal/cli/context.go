package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/julianstephens/habitthemes/internal/backup"
	"github.com/julianstephens/habitthemes/internal/config"
	"github.com/julianstephens/habitthemes/internal/logger"
	"github.com/julianstephens/habitthemes/internal/models"
	"github.com/julianstephens/habitthemes/internal/storage"
	"github.com/julianstephens/habitthemes/internal/storage/jsonfile"
	"github.com/julianstephens/habitthemes/internal/storage/postgres"
	"github.com/julianstephens/habitthemes/internal/storage/sqlite"
	"github.com/julianstephens/habitthemes/internal/tracker"
	"github.com/julianstephens/habitthemes/internal/utils"
)

// Context is passed to every command's Run method.
type Context struct {
	Config *config.Config
	Store  storage.Provider
	Out    io.Writer

	// Now overrides the clock, for tests.
	Now func() time.Time

	tracker *tracker.Tracker
}

// OpenStore picks a provider for dsn: PostgreSQL for connection strings, the
// JSON file store for *.json paths and SQLite for everything else.
func OpenStore(dsn string) (storage.Provider, error) {
	if postgres.IsConnString(dsn) {
		if err := postgres.ValidateConnString(dsn); err != nil {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, fmt.Errorf("PostgreSQL connection strings with embedded credentials are not allowed; use the OS keyring ('habitthemes keyring set'), PGPASSWORD or .pgpass instead")
			}
			return nil, err
		}
		return postgres.New(dsn), nil
	}

	path, err := ExpandHome(dsn)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return jsonfile.NewStore(path), nil
	}
	return sqlite.NewStore(path), nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

func (c *Context) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// Printf writes to the command's output.
func (c *Context) Printf(format string, args ...any) {
	fmt.Fprintf(c.out(), format, args...)
}

// Println writes to the command's output.
func (c *Context) Println(args ...any) {
	fmt.Fprintln(c.out(), args...)
}

// Writer returns the command's output.
func (c *Context) Writer() io.Writer {
	return c.out()
}

// Location is the configured timezone, falling back to local time.
func (c *Context) Location() *time.Location {
	if c.Config == nil {
		return time.Local
	}
	loc, err := utils.LoadLocation(c.Config.Timezone)
	if err != nil {
		logger.Warn("Invalid timezone in config, using local time", "timezone", c.Config.Timezone, "error", err)
		return time.Local
	}
	return loc
}

func (c *Context) clock() func() time.Time {
	if c.Now != nil {
		return c.Now
	}
	return time.Now
}

// Today is the current date in the configured timezone.
func (c *Context) Today() models.Date {
	return utils.TodayIn(c.clock()(), c.Location())
}

// Tracker starts a tracker over the loaded store on first use.
func (c *Context) Tracker(ctx context.Context) (*tracker.Tracker, error) {
	if c.tracker != nil {
		return c.tracker, nil
	}
	t := tracker.New(c.Store,
		tracker.WithClock(c.clock()),
		tracker.WithLocation(c.Location()),
	)
	if err := t.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start tracker: %w", err)
	}
	c.tracker = t
	return t, nil
}

// Close stops the tracker, if one was started, and closes the store.
func (c *Context) Close() error {
	if c.tracker != nil {
		_ = c.tracker.Close()
		c.tracker = nil
	}
	if c.Store == nil {
		return nil
	}
	return c.Store.Close()
}

// SQLitePath returns the database file when the store is SQLite.
func (c *Context) SQLitePath() (string, bool) {
	s, ok := c.Store.(*sqlite.Store)
	if !ok {
		return "", false
	}
	return s.GetConfigPath(), true
}

// BackupManager returns a manager for the SQLite database.
func (c *Context) BackupManager() (*backup.Manager, error) {
	path, ok := c.SQLitePath()
	if !ok {
		return nil, errors.New("backups are only supported for SQLite storage")
	}
	var opts []backup.Option
	if c.Config != nil {
		opts = append(opts, backup.WithDir(c.Config.Backups.Dir), backup.WithKeep(c.Config.Backups.Keep))
	}
	return backup.NewManager(path, opts...), nil
}

// PerformAutomaticBackup creates a backup after destructive commands and
// only logs failures.
func (c *Context) PerformAutomaticBackup() {
	if c.Config != nil && !c.Config.Backups.Enabled {
		return
	}
	mgr, err := c.BackupManager()
	if err != nil {
		return
	}
	if _, err := mgr.Create(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}
