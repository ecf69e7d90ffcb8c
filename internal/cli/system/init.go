package system

import (
	"fmt"
	"os"

	"github.com/julianstephens/habitthemes/internal/cli"
	"github.com/julianstephens/habitthemes/internal/storage/postgres"
)

type InitCmd struct {
	Force bool `help:"Delete an existing database file before initializing."`
	Save  bool `help:"Write the chosen --db and --timezone to the config file."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	if c.Force {
		if err := c.reset(ctx); err != nil {
			return err
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	ctx.Printf("Initialized habitthemes storage at: %s\n", ctx.Store.GetConfigPath())

	if c.Save {
		if err := ctx.Config.Save(); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		ctx.Printf("Saved config to: %s\n", ctx.Config.Path())
	}
	return nil
}

// reset removes the database file. Server databases are left alone.
func (c *InitCmd) reset(ctx *cli.Context) error {
	if _, ok := ctx.Store.(*postgres.Store); ok {
		return fmt.Errorf("--force only applies to file-based storage")
	}

	path := ctx.Store.GetConfigPath()
	if _, err := os.Stat(path); err == nil {
		if err := ctx.Store.Close(); err != nil {
			return fmt.Errorf("failed to close existing database: %w", err)
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to delete existing database: %w", err)
		}
		ctx.Printf("Deleted existing database at: %s\n", path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to access existing database: %w", err)
	}
	return nil
}
