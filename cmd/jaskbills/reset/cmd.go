// Package resetcmd implements the `jaskbills reset` command.
package resetcmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jask/jaskbills/cmd/jaskbills/shared"
)

// Command implements `jaskbills reset`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
	yes bool
}

// New creates the reset command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "reset",
		Short: "Delete all bills, accounts and rules, then restore the default rules",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	c.cmd.Flags().BoolVar(&c.yes, "yes", false, "Confirm the reset")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	if !c.yes {
		return errors.New("refusing to reset without --yes")
	}
	app, err := c.ctx.Open(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	rep, err := app.Maintenance.Reset(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Database reset: removed %d bills, %d rules, %d accounts; default rules restored\n",
		rep.Bills, rep.Rules, rep.Accounts)
	return nil
}
