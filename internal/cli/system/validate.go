package system

import (
	"fmt"

	"github.com/julianstephens/habitthemes/internal/cli"
	"github.com/julianstephens/habitthemes/internal/validation"
)

type ValidateCmd struct{}

func (cmd *ValidateCmd) Run(ctx *cli.Context) error {
	rows, err := ctx.Store.LoadRows()
	if err != nil {
		return fmt.Errorf("failed to load rows: %w", err)
	}

	ctx.Println("Validating themes, habits and completions...")
	result := validation.New(ctx.Today()).ValidateRows(rows)

	ctx.Println()
	ctx.Println(result.FormatReport())

	if result.HasErrors() {
		return fmt.Errorf("validation failed with %d conflict(s)", len(result.Conflicts))
	}
	return nil
}
