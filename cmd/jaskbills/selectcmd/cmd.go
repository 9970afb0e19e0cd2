// Package selectcmd implements the `jaskbills select` command.
package selectcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jask/jaskbills/cmd/jaskbills/shared"
)

// Command implements `jaskbills select`.
type Command struct {
	ctx   *shared.Context
	cmd   *cobra.Command
	clear bool
}

// New creates the select command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "select [provider]",
		Short: "Show, set or clear the selected provider",
		Args:  cobra.MaximumNArgs(1),
		RunE:  c.run,
	}
	c.cmd.Flags().BoolVar(&c.clear, "clear", false, "Clear the selection")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	if c.clear && len(args) > 0 {
		return fmt.Errorf("--clear takes no provider")
	}
	app, err := c.ctx.Open(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	out := cmd.OutOrStdout()
	switch {
	case c.clear:
		app.Selection.Clear()
		fmt.Fprintln(out, "Selection cleared")
	case len(args) == 1:
		p, err := app.Providers.Lookup(args[0])
		if err != nil {
			return err
		}
		app.Selection.Write(p.ID)
		fmt.Fprintf(out, "Selected %s (%s)\n", p.ID, p.Name)
	default:
		fmt.Fprintln(out, app.Selection.String())
	}
	return nil
}
