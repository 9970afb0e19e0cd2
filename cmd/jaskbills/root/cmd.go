// Package rootcmd wires the root cobra.Command for the jaskbills binary.
package rootcmd

import (
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	importcmd "github.com/jask/jaskbills/cmd/jaskbills/importcmd"
	providerscmd "github.com/jask/jaskbills/cmd/jaskbills/providers"
	resetcmd "github.com/jask/jaskbills/cmd/jaskbills/reset"
	rulescmd "github.com/jask/jaskbills/cmd/jaskbills/rules"
	selectcmd "github.com/jask/jaskbills/cmd/jaskbills/selectcmd"
	"github.com/jask/jaskbills/cmd/jaskbills/shared"
	"github.com/jask/jaskbills/internal/tui"
)

// New creates and returns the root cobra.Command. Without a subcommand it starts the TUI.
func New() *cobra.Command {
	ctx := &shared.Context{}

	root := &cobra.Command{
		Use:           "jaskbills",
		Short:         "Import bank bill exports and categorise them per provider",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return ctx.Logger(cmd.ErrOrStderr())
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, ctx)
		},
	}

	root.PersistentFlags().StringVar(&ctx.ConfigPath, "config", "",
		"Config file (default: $JASKBILLS_CONFIG, then ~/.config/jaskbills/config.toml)")
	root.PersistentFlags().StringVar(&ctx.LogLevel, "log-level", "info", "Log level: debug, info, warn or error")

	root.AddCommand(
		importcmd.New(ctx).Cmd(),
		providerscmd.New(ctx).Cmd(),
		selectcmd.New(ctx).Cmd(),
		rulescmd.New(ctx).Cmd(),
		resetcmd.New(ctx).Cmd(),
	)
	return root
}

func runTUI(cmd *cobra.Command, ctx *shared.Context) error {
	// logs would tear the alt screen; send them to a file when asked, else drop them
	var logOut io.Writer = io.Discard
	if path := os.Getenv("JASKBILLS_LOG_FILE"); path != "" {
		f, err := tea.LogToFile(path, "jaskbills")
		if err != nil {
			return err
		}
		defer f.Close()
		logOut = f
	}
	if err := ctx.Logger(logOut); err != nil {
		return err
	}

	app, err := ctx.Open(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	model := tui.New(cmd.Context(), app.Config, app.Selection, app.Providers, tui.Services{Bills: app.Bills, Rules: app.Rules})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	_, err = p.Run()
	return err
}
