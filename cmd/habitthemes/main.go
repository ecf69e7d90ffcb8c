package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/habitthemes/internal/cli"
	"github.com/julianstephens/habitthemes/internal/cli/backups"
	"github.com/julianstephens/habitthemes/internal/cli/habits"
	"github.com/julianstephens/habitthemes/internal/cli/system"
	"github.com/julianstephens/habitthemes/internal/cli/views"
	"github.com/julianstephens/habitthemes/internal/config"
	"github.com/julianstephens/habitthemes/internal/constants"
	"github.com/julianstephens/habitthemes/internal/errors"
	"github.com/julianstephens/habitthemes/internal/logger"
)

var CLI struct {
	Version  kong.VersionFlag
	Config   string `help:"Config file path." type:"path"`
	DB       string `name:"db" help:"SQLite path, .json path, PostgreSQL connection string or 'keyring'. PostgreSQL credentials must NOT be embedded; use the OS keyring, PGPASSWORD or .pgpass."`
	Debug    bool   `help:"Log debug output to stderr."`
	Timezone string `help:"IANA timezone that decides what 'today' is."`

	Init    system.InitCmd    `cmd:"" help:"Initialize habitthemes storage."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Theme   struct {
		Add    habits.ThemeAddCmd    `cmd:"" help:"Add a theme."`
		Remove habits.ThemeRemoveCmd `cmd:"" help:"Remove a theme with all of its habits."`
	} `cmd:"" help:"Manage themes."`
	Habit struct {
		Add    habits.HabitAddCmd    `cmd:"" help:"Add a habit to a theme."`
		Remove habits.HabitRemoveCmd `cmd:"" help:"Remove a habit and its history."`
	} `cmd:"" help:"Manage habits."`
	Mark   habits.MarkCmd   `cmd:"" help:"Mark a habit done for a day."`
	Toggle habits.ToggleCmd `cmd:"" help:"Flip a habit's completion for a day."`
	List   views.ListCmd    `cmd:"" help:"Show all themes and habits." default:"1"`
	Watch  views.WatchCmd   `cmd:"" help:"Print the theme tree whenever it changes."`
	Seed   habits.SeedCmd   `cmd:"" help:"Load the sample themes and habits."`
	Backup struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage SQLite database backups."`
	Validate system.ValidateCmd `cmd:"" help:"Check stored themes, habits and completions for conflicts."`
	Doctor   system.DoctorCmd   `cmd:"" help:"Run health checks on storage, schema, backups and data."`
	Inspect  system.DebugCmd    `cmd:"" name:"debug" help:"Inspect raw storage state."`
	Keyring  struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store the PostgreSQL connection string in the OS keyring."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show the stored connection string."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Remove the stored connection string."`
		Status system.KeyringStatusCmd `cmd:"" help:"Check whether the OS keyring is available."`
	} `cmd:"" help:"Manage database credentials in the OS keyring."`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Track daily habits grouped into themes"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":  constants.Version,
			"log_days": strconv.Itoa(constants.DefaultLogDays),
		},
	)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		errors.Fatalf("failed to load config: %v", err)
	}
	if CLI.DB != "" {
		cfg.Database = CLI.DB
	}
	if CLI.Debug {
		cfg.Debug = true
	}
	if CLI.Timezone != "" {
		cfg.Timezone = CLI.Timezone
	}

	if err := logger.Init(logger.Config{Debug: cfg.Debug, LogDir: cfg.LogDir}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}

	appCtx := &cli.Context{Config: cfg}

	// Keyring commands manage the credentials and must work without a database
	command := ctx.Command()
	if !strings.HasPrefix(command, "keyring") {
		dsn, err := cfg.ResolveDatabase()
		if err != nil {
			errors.Fatal(err)
		}
		store, err := cli.OpenStore(dsn)
		if err != nil {
			errors.Fatal(err)
		}
		appCtx.Store = store

		// init creates the store and doctor reports load failures itself
		if !strings.HasPrefix(command, "init") && !strings.HasPrefix(command, "doctor") {
			if err := store.Load(); err != nil {
				errors.Fatal(err)
			}
		}
	}

	err = ctx.Run(appCtx)
	if closeErr := appCtx.Close(); closeErr != nil {
		logger.Warn("failed to close storage", "error", closeErr)
	}
	errors.Fatal(err)
}
