// Package providerscmd implements the `jaskbills providers` command.
package providerscmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jask/jaskbills/cmd/jaskbills/shared"
)

// Command implements `jaskbills providers`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the providers command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "providers",
		Short: "List known providers; * marks the selected one",
		Args:  cobra.NoArgs,
		RunE:  c.run,
	}
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

	current, _ := app.Selection.Read()
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\tID\tNAME\tDELIMITER\tDATE FORMAT\tHEADER")
	for _, p := range app.Providers.List() {
		mark := ""
		if strings.EqualFold(p.ID, current) {
			mark = "*"
		}
		delim := p.Delimiter
		if delim == "" {
			delim = "auto"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%q\t%s\t%t\n", mark, p.ID, p.Name, delim, p.DateFormat, p.HasHeader)
	}
	return w.Flush()
}
