package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/billie-coop/pickpack/internal/app"
	"github.com/billie-coop/pickpack/internal/tui"
	"github.com/billie-coop/pickpack/internal/tui/styles"
)

func newUICommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:         "ui",
		Short:       "Start the interactive package picker",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{modeAnnotation: modeUI},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(cmd, rt)
		},
	}
}

func runUI(cmd *cobra.Command, rt *runtime) error {
	// A second interrupt after the UI has closed kills the running job.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	a, err := app.New(rt.config, rt.logger)
	if err != nil {
		return err
	}

	sub := a.EventBroker.Subscribe()
	if err := a.Start(ctx, true); err != nil {
		return err
	}

	if err := styles.SetTheme(rt.config.Get().Theme); err != nil {
		rt.logger.Warn().Err(err).Msg("using default theme")
	}

	model := tui.New(tui.Options{
		Controller: a.Coordinator,
		Events:     sub,
		Catalog:    a.Catalog,
		InputMode:  a.Runner,
		Settings:   a.Config,
		Logger:     rt.logger.With().Str("component", "tui").Logger(),
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, runErr := p.Run()

	// Nothing drains the UI subscription any more.
	a.EventBroker.Unsubscribe(sub)

	if !a.Coordinator.ControlsEnabled() {
		fmt.Fprintln(cmd.ErrOrStderr(), "Waiting for the running job to finish (Ctrl+C to abort it)...")
	}
	if err := a.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
		rt.logger.Warn().Err(err).Msg("worker did not stop cleanly")
	}

	if runErr != nil {
		return fmt.Errorf("ui: %w", runErr)
	}
	return nil
}
