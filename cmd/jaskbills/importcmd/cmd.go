// Package importcmd implements the `jaskbills import` command.
package importcmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jask/jaskbills/cmd/jaskbills/shared"
	"github.com/jask/jaskbills/internal/service"
)

// Command implements `jaskbills import`.
type Command struct {
	ctx      *shared.Context
	cmd      *cobra.Command
	provider string
	account  string
}

// New creates the import command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import a bill export with the selected (or given) provider",
		Args:  cobra.ExactArgs(1),
		RunE:  c.run,
	}
	c.cmd.Flags().StringVar(&c.provider, "provider", "", "Provider to parse with (default: the selected provider)")
	c.cmd.Flags().StringVar(&c.account, "account", "", "Account name (default: the provider name)")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	app, err := c.ctx.Open(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	var res service.ImportResult
	if c.provider != "" {
		res, err = app.Bills.ImportWith(cmd.Context(), c.provider, f, c.account)
	} else {
		res, err = app.Bills.Import(cmd.Context(), f, c.account)
	}
	if err != nil {
		return shared.NoSelectionHint(err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s): imported %d, skipped %d, categorised %d\n",
		filepath.Base(args[0]), res.ProviderID, res.Imported, res.Skipped, res.Categorised)
	for _, e := range res.Errors {
		fmt.Fprintf(out, "  %v\n", e)
	}
	return nil
}
