package system

import (
	"fmt"
	"time"

	"github.com/julianstephens/habitthemes/internal/cli"
	"github.com/julianstephens/habitthemes/internal/models"
	"github.com/julianstephens/habitthemes/internal/utils"
	"github.com/julianstephens/habitthemes/internal/validation"
)

// schemaVersioner is implemented by the SQL-backed stores.
type schemaVersioner interface {
	SchemaVersion() (current, latest int, err error)
}

type DoctorCmd struct{}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	ctx.Println("Running diagnostics...")
	ctx.Println()

	hasError := false
	report := func(name string, err error) {
		if err != nil {
			ctx.Printf("❌ %s: FAIL\n", name)
			ctx.Printf("   Error: %v\n", err)
			hasError = true
			return
		}
		ctx.Printf("✓ %s: OK\n", name)
	}

	rows, err := checkStorageReachable(ctx)
	report("Storage reachable", err)
	reachable := err == nil

	if reachable {
		report("Schema version", checkSchemaVersion(ctx))
	} else {
		ctx.Println("⊘ Schema version: SKIPPED (storage not reachable)")
	}

	// Backups are advisory
	if err := checkBackupsPresent(ctx); err != nil {
		ctx.Println("⚠ Backups present: WARNING")
		ctx.Printf("   %v\n", err)
	} else {
		ctx.Println("✓ Backups present: OK")
	}

	if reachable {
		report("Data validation", checkValidation(ctx, rows))
	} else {
		ctx.Println("⊘ Data validation: SKIPPED (storage not reachable)")
	}

	report("Clock/timezone", checkClockTimezone(ctx))

	ctx.Println()
	if hasError {
		ctx.Println("Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	ctx.Println("All diagnostics passed!")
	return nil
}

func checkStorageReachable(ctx *cli.Context) (models.Rows, error) {
	if err := ctx.Store.Load(); err != nil {
		return models.Rows{}, fmt.Errorf("failed to load storage: %w", err)
	}
	rows, err := ctx.Store.LoadRows()
	if err != nil {
		return models.Rows{}, fmt.Errorf("failed to read storage: %w", err)
	}
	return rows, nil
}

func checkSchemaVersion(ctx *cli.Context) error {
	v, ok := ctx.Store.(schemaVersioner)
	if !ok {
		// The JSON store versions its own file on load
		return nil
	}

	current, latest, err := v.SchemaVersion()
	if err != nil {
		return err
	}
	switch {
	case current > latest:
		return fmt.Errorf("database schema version (%d) is newer than supported version (%d)", current, latest)
	case current < latest:
		return fmt.Errorf("migrations incomplete: current version %d, latest version %d; run 'habitthemes migrate'", current, latest)
	}
	return nil
}

func checkBackupsPresent(ctx *cli.Context) error {
	mgr, err := ctx.BackupManager()
	if err != nil {
		return err
	}
	backups, err := mgr.List()
	if err != nil {
		return fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return fmt.Errorf("no backups found - consider creating one with 'habitthemes backup create'")
	}
	return nil
}

func checkValidation(ctx *cli.Context, rows models.Rows) error {
	result := validation.New(ctx.Today()).ValidateRows(rows)
	if result.HasErrors() {
		return fmt.Errorf("%d conflict(s) found; run 'habitthemes validate' for details", len(result.Conflicts))
	}
	return nil
}

func checkClockTimezone(ctx *cli.Context) error {
	if ctx.Config != nil && ctx.Config.Timezone != "" {
		if _, err := utils.LoadLocation(ctx.Config.Timezone); err != nil {
			return err
		}
	}

	now := time.Now()
	if ctx.Now != nil {
		now = ctx.Now()
	}
	if now.Year() < 2020 || now.Year() > 2100 {
		return fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	return nil
}
