package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/billie-coop/pickpack/cmd/pickpack/internal/report"
	"github.com/billie-coop/pickpack/internal/app"
	"github.com/billie-coop/pickpack/internal/catalog"
	"github.com/billie-coop/pickpack/internal/events"
	"github.com/billie-coop/pickpack/internal/job"
)

// ErrJobsFailed is returned when a headless batch had failed jobs.
var ErrJobsFailed = errors.New("one or more jobs failed")

func newBatchCommand(rt *runtime, kind job.Kind) *cobra.Command {
	var (
		all     bool
		verbose bool
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   kind.String() + " [name|id]...",
		Short: fmt.Sprintf("%s packages without the interactive UI", title(kind)),
		Long: fmt.Sprintf(`%s the named packages one at a time, in the order given.
Packages are matched by identifier or display name, case-insensitively.
Exits with status 1 if any job fails.`, title(kind)),
		Example: fmt.Sprintf("  %s %s Git.Git \"VS Code\"\n  %s %s --all", cliExecutable, kind, cliExecutable, kind),
		Args: func(cmd *cobra.Command, args []string) error {
			if all && len(args) > 0 {
				return fmt.Errorf("--all cannot be combined with package names")
			}
			if !all && len(args) == 0 {
				return fmt.Errorf("name at least one package, or pass --all")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, rt, kind, args, all, verbose, !noColor)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Select every package in the catalog")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print package manager output")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	return cmd
}

func runBatch(cmd *cobra.Command, rt *runtime, kind job.Kind, names []string, all, verbose, useColor bool) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	a, err := app.New(rt.config, rt.logger)
	if err != nil {
		return err
	}

	var selected []catalog.Package
	if all {
		selected = a.Catalog.All()
	} else if selected, err = a.Catalog.Resolve(names); err != nil {
		return err
	}

	sub := a.EventBroker.Subscribe(
		events.JobStartedEvent,
		events.JobOutputEvent,
		events.JobFinishedEvent,
		events.ControlsEnabledEvent,
	)
	if err := a.Start(ctx, false); err != nil {
		return err
	}

	batch, err := a.Coordinator.StartBatch(selected, kind)
	if err != nil {
		return err
	}
	rep := report.New(cmd.OutOrStdout(), kind, len(selected), verbose, useColor)

	final := batch.Progress
	for ev := range sub {
		switch p := ev.Payload.(type) {
		case events.JobStartedPayload:
			rep.Started(p)
		case events.JobOutputPayload:
			rep.Output(p)
		case events.JobFinishedPayload:
			rep.Finished(p)
			final = p.Progress
		case events.BatchPayload:
			if p.BatchID == batch.ID {
				final = p.Progress
				a.EventBroker.Unsubscribe(sub)
			}
		}
	}

	if err := a.Shutdown(context.WithoutCancel(ctx)); err != nil {
		rt.logger.Warn().Err(err).Msg("worker did not stop cleanly")
	}

	rep.Summary(final)
	rt.logger.Info().
		Str("batch_id", batch.ID).
		Int("succeeded", final.Succeeded).
		Int("failed", final.Failed).
		Msg("batch finished")

	if final.Failed > 0 || final.Completed < final.Total {
		return ErrJobsFailed
	}
	return nil
}

func title(k job.Kind) string {
	s := k.String()
	return strings.ToUpper(s[:1]) + s[1:]
}
