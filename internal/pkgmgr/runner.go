// Package pkgmgr drives the external package manager (winget by default).
package pkgmgr

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync/atomic"
	"time"
	"unicode"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"

	"github.com/billie-coop/pickpack/internal/job"
	"github.com/billie-coop/pickpack/internal/queue"
)

// DefaultTool is the package manager invoked when none is configured.
const DefaultTool = "winget"

// waitDelay bounds how long Wait lingers after the process is killed.
const waitDelay = 2 * time.Second

// ErrLockHeld is reported when another pickpack process holds the lock
// and the job's context ends before it is released.
var ErrLockHeld = errors.New("package manager is in use by another process")

// Options configures a Runner.
type Options struct {
	// Tool is the command line used to invoke the package manager. It may
	// carry leading arguments, e.g. "wsl winget". Fields are split on
	// whitespace; double-quote a path that contains spaces, e.g.
	// `"C:\Program Files\WinGet\winget.exe" --verbose`.
	Tool string

	// RequireUserInput drops --silent/--disable-interactivity so installers
	// may show their own prompts.
	RequireUserInput bool

	// LockPath, when set, is an advisory lock held for each invocation.
	LockPath string

	// Env is appended to the inherited environment.
	Env []string
}

// Runner executes jobs as package-manager subprocesses. It implements
// queue.Runner.
type Runner struct {
	opts                 Options
	disableInteractivity bool
	requireInput         atomic.Bool
	lock                 *flock.Flock
	logger               zerolog.Logger
}

var _ queue.Runner = (*Runner)(nil)

// New creates a Runner. --disable-interactivity is assumed supported
// until Detect says otherwise.
func New(opts Options, logger zerolog.Logger) *Runner {
	if fields := splitCommand(opts.Tool); len(fields) == 0 || fields[0] == "" {
		opts.Tool = DefaultTool
	}
	r := &Runner{
		opts:                 opts,
		disableInteractivity: true,
		logger:               logger,
	}
	r.requireInput.Store(opts.RequireUserInput)
	if opts.LockPath != "" {
		r.lock = flock.New(opts.LockPath)
	}
	return r
}

// SetRequireUserInput changes the prompt mode for jobs that have not
// started yet.
func (r *Runner) SetRequireUserInput(v bool) { r.requireInput.Store(v) }

// RequireUserInput reports the current prompt mode.
func (r *Runner) RequireUserInput() bool { return r.requireInput.Load() }

// Detect probes the tool version and adjusts optional flags. A failed
// probe is logged and leaves the defaults in place.
func (r *Runner) Detect(ctx context.Context) {
	v, err := r.Version(ctx)
	if err != nil {
		r.logger.Warn().Err(err).Msg("could not determine package manager version")
		return
	}
	r.disableInteractivity = SupportsDisableInteractivity(v)
	r.logger.Info().
		Str("version", v.String()).
		Bool("disable_interactivity", r.disableInteractivity).
		Msg("package manager detected")
}

// Run executes one job, streaming merged stdout/stderr to sink line by line.
func (r *Runner) Run(ctx context.Context, req job.Request, sink queue.LineSink) job.Result {
	if r.lock != nil {
		locked, err := r.lock.TryLockContext(ctx, 250*time.Millisecond)
		if err != nil || !locked {
			if err == nil {
				err = ErrLockHeld
			} else {
				err = fmt.Errorf("%w: %v", ErrLockHeld, err)
			}
			sink(fmt.Sprintf("Failed to %s %s: %v", req.Kind, req.Name, err))
			return job.Result{Outcome: job.FailedLaunch, ExitCode: -1, Err: err}
		}
		defer func() {
			if err := r.lock.Unlock(); err != nil {
				r.logger.Warn().Err(err).Msg("failed to release package manager lock")
			}
		}()
	}

	name, prefix := r.command()
	args := append(prefix, r.Args(req)...)
	sink(fmt.Sprintf("%s: %s %s", verbing(req.Kind), req.Name, strings.Join(args, " ")))

	exitCode, err := r.exec(ctx, name, args, sink)
	switch {
	case err == nil:
		sink(fmt.Sprintf("%s has been %s successfully.", req.Name, pastTense(req.Kind)))
		return job.Result{Outcome: job.Succeeded}

	case isLaunchError(err):
		sink(fmt.Sprintf("Failed to %s %s. Could not start %s: %v", req.Kind, req.Name, name, err))
		return job.Result{Outcome: job.FailedLaunch, ExitCode: -1, Err: err}

	default:
		sink(fmt.Sprintf("%s was not %s (exit code %d: an error occurred, or it is already %s).",
			req.Name, pastTense(req.Kind), exitCode, alreadyState(req.Kind)))
		return job.Result{Outcome: job.FailedExit, ExitCode: exitCode, Err: err}
	}
}

// launchError marks a failure to start the process.
type launchError struct{ err error }

func (e *launchError) Error() string { return e.err.Error() }
func (e *launchError) Unwrap() error { return e.err }

func isLaunchError(err error) bool {
	var le *launchError
	return errors.As(err, &le)
}

// exec starts the process and blocks until its output is drained and it
// has exited. Stdout and stderr share one pipe so lines keep their order.
// Cancelling ctx kills the whole process group and closes the read side,
// so descendants still holding the pipe cannot stall the queue.
func (r *Runner) exec(ctx context.Context, name string, args []string, sink queue.LineSink) (int, error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return -1, &launchError{fmt.Errorf("failed to create output pipe: %w", err)}
	}
	defer pr.Close()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = r.env()
	cmd.Stdout = pw
	cmd.Stderr = pw
	setProcessGroup(cmd)
	cmd.Cancel = func() error { return killProcessGroup(cmd) }
	cmd.WaitDelay = waitDelay

	r.logger.Debug().Str("cmd", name).Strs("args", args).Msg("starting package manager")
	if err := cmd.Start(); err != nil {
		pw.Close()
		return -1, &launchError{err}
	}
	// The child holds its own copy; ours must go for the reader to see EOF.
	pw.Close()

	drained := make(chan struct{})
	watching := make(chan struct{})
	go func() {
		defer close(watching)
		select {
		case <-ctx.Done():
			if err := killProcessGroup(cmd); err != nil && !errors.Is(err, os.ErrProcessDone) {
				r.logger.Debug().Err(err).Msg("failed to kill package manager process group")
			}
			pr.Close()
		case <-drained:
		}
	}()

	scanErr := scanLines(pr, sink)
	close(drained)
	// The child is not reaped until Wait, so a late kill cannot hit a reused pid.
	<-watching
	cutOff := errors.Is(scanErr, os.ErrClosed)
	if scanErr != nil && !cutOff {
		r.logger.Warn().Err(scanErr).Msg("error reading package manager output")
	}

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return exitErr.ExitCode(), fmt.Errorf("%w: %v", ctxErr, err)
			}
			return exitErr.ExitCode(), err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return -1, fmt.Errorf("%w: %v", ctxErr, err)
		}
		return -1, err
	}
	if cutOff {
		// The child exited but a descendant still held the pipe.
		return -1, ctx.Err()
	}
	return 0, nil
}

// scanLines splits on \n, \r\n and bare \r (progress redraws), dropping
// blank lines and spinner frames.
func scanLines(rd io.Reader, sink queue.LineSink) error {
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	scanner.Split(splitCRLF)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || isSpinnerFrame(line) {
			continue
		}
		sink(line)
	}
	return scanner.Err()
}

func splitCRLF(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	for i, b := range data {
		switch b {
		case '\n':
			return i + 1, data[:i], nil
		case '\r':
			if i+1 < len(data) {
				if data[i+1] == '\n' {
					return i + 2, data[:i], nil
				}
				return i + 1, data[:i], nil
			}
			if atEOF {
				return i + 1, data[:i], nil
			}
			// Need one more byte to tell \r from \r\n.
			return 0, nil, nil
		}
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// isSpinnerFrame matches the one-character frames winget redraws in place.
// Longer runs such as "------" are table rules and are kept.
func isSpinnerFrame(line string) bool {
	return len(line) == 1 && strings.ContainsAny(line, `-\|/`)
}

// command splits the configured tool into executable and leading args.
func (r *Runner) command() (string, []string) {
	fields := splitCommand(r.opts.Tool)
	return fields[0], fields[1:]
}

// splitCommand splits s on whitespace. Double quotes group a field and are
// removed; backslashes are literal so Windows paths need no escaping.
func splitCommand(s string) []string {
	var (
		fields  []string
		cur     strings.Builder
		inQuote bool
		started bool
	)
	for _, c := range s {
		switch {
		case c == '"':
			inQuote = !inQuote
			started = true
		case !inQuote && unicode.IsSpace(c):
			if started {
				fields = append(fields, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(c)
			started = true
		}
	}
	if started {
		fields = append(fields, cur.String())
	}
	return fields
}

func (r *Runner) env() []string {
	if len(r.opts.Env) == 0 {
		return nil
	}
	return append(os.Environ(), r.opts.Env...)
}

func verbing(k job.Kind) string {
	if k == job.Uninstall {
		return "Uninstalling"
	}
	return "Installing"
}

func pastTense(k job.Kind) string {
	return k.String() + "ed"
}

func alreadyState(k job.Kind) string {
	if k == job.Uninstall {
		return "not installed"
	}
	return "installed"
}
