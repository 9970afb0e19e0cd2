// Package rulescmd implements the `jaskbills rules` command.
package rulescmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jask/jaskbills/cmd/jaskbills/shared"
	"github.com/jask/jaskbills/internal/database/repository"
)

// Command implements `jaskbills rules`.
type Command struct {
	ctx      *shared.Context
	cmd      *cobra.Command
	provider string
}

// New creates the rules command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "rules",
		Short: "List categorisation rules of the selected (or given) provider",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
	c.cmd.Flags().StringVar(&c.provider, "provider", "", "Provider to list rules for (default: the selected provider)")
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	app, err := c.ctx.Open(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	var list []repository.Rule
	if c.provider != "" {
		p, err := app.Providers.Lookup(c.provider)
		if err != nil {
			return err
		}
		list, err = app.RuleRepo.ListForProvider(cmd.Context(), p.ID)
		if err != nil {
			return err
		}
	} else {
		list, err = app.Rules.List(cmd.Context())
		if err != nil {
			return shared.NoSelectionHint(err)
		}
	}

	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No rules")
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRIORITY\tTYPE\tPATTERN\tCATEGORY\tENABLED")
	for _, r := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%t\n", r.Priority, r.PatternType, r.Pattern, r.Category, r.Enabled)
	}
	return w.Flush()
}
