package commands

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/billie-coop/pickpack/internal/config"
	"github.com/billie-coop/pickpack/internal/job"
	"github.com/billie-coop/pickpack/internal/logging"
)

const (
	cliExecutable = "pickpack"

	// Commands annotated with modeUI own the terminal, so they log to a file.
	modeAnnotation = "mode"
	modeUI         = "ui"
)

// runtime is the state PersistentPreRunE prepares for every command.
type runtime struct {
	config  *config.Manager
	logger  zerolog.Logger
	closers []io.Closer
}

// NewCommand constructs the top-level pickpack CLI command.
func NewCommand() *cobra.Command {
	var (
		configFile string
		rt         = &runtime{logger: zerolog.Nop()}
	)

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "Pick packages from a checklist and install them with winget",
		Long: `pickpack shows a categorized checklist of packages. Checked packages are
installed or uninstalled one at a time by the system package manager while
its output streams into a per-job log.

Run without a subcommand to start the interactive picker.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{modeAnnotation: modeUI},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.setup(cmd, configFile)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return rt.close()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(cmd, rt)
		},
	}

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path (default "+config.DefaultPath()+")")
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(newUICommand(rt))
	cmd.AddCommand(newBatchCommand(rt, job.Install))
	cmd.AddCommand(newBatchCommand(rt, job.Uninstall))
	cmd.AddCommand(newListCommand(rt))
	cmd.AddCommand(newCatalogCommand(rt))
	cmd.AddCommand(newConfigCommand(rt))

	return cmd
}

func (rt *runtime) setup(cmd *cobra.Command, configFile string) error {
	if configFile == "" {
		configFile = config.DefaultPath()
	}
	rt.config = config.NewManager(configFile)
	if err := rt.config.Load(cmd.Flags()); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg := rt.config.Get()

	logFile := cfg.Log.File
	if logFile == "" && cmd.Annotations[modeAnnotation] == modeUI {
		logFile = logging.DefaultFile()
	}
	if logFile != "" {
		f, err := logging.OpenLogFile(logFile)
		if err != nil {
			return err
		}
		rt.closers = append(rt.closers, f)
		logging.SetLogWriter(zerolog.ConsoleWriter{Out: f, NoColor: true, TimeFormat: time.RFC3339})
	} else {
		logging.SetLogWriter(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.RFC3339})
	}
	if err := logging.ConfigureGlobalLogging(cfg.Log.Level); err != nil {
		return err
	}

	rt.logger = logging.Component("cli")
	rt.logger.Debug().
		Str("config", configFile).
		Str("command", cmd.CommandPath()).
		Msg("configuration loaded")
	return nil
}

func (rt *runtime) close() error {
	var errs []error
	for _, c := range rt.closers {
		errs = append(errs, c.Close())
	}
	rt.closers = nil
	return errors.Join(errs...)
}
