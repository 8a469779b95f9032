package pkgmgr

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billie-coop/pickpack/internal/job"
)

const helperEnv = "PICKPACK_HELPER_PROCESS"

// TestHelperProcess is not a real test. The runner re-executes the test
// binary with it as a stand-in package manager.
func TestHelperProcess(t *testing.T) {
	if os.Getenv(helperEnv) != "1" {
		return
	}
	args := os.Args
	for i, a := range args {
		if a == "--" {
			args = args[i+1:]
			break
		}
	}
	if len(args) == 1 && args[0] == "--version" {
		fmt.Println("v1.3.2691")
		os.Exit(0)
	}
	if len(args) < 4 {
		fmt.Fprintln(os.Stderr, "usage: <verb> -e --id <id>")
		os.Exit(64)
	}

	switch args[3] {
	case "ok":
		fmt.Println("Found Thing [ok]")
		fmt.Print("  -\r  \\\r")
		fmt.Println("Downloading")
		fmt.Fprintln(os.Stderr, "warning on stderr")
		fmt.Print("Successfully installed\r\n")
		os.Exit(0)
	case "fail":
		fmt.Fprintln(os.Stderr, "No package found matching input criteria.")
		os.Exit(3)
	case "echo":
		fmt.Println(strings.Join(args, " "))
		os.Exit(0)
	case "hang":
		time.Sleep(time.Minute)
		os.Exit(0)
	case "linger":
		// Leaves a descendant holding stdout, like an installer's helper.
		child := exec.Command(os.Args[0], "-test.run=^TestHelperProcess$", "--", "install", "-e", "--id", "hang")
		child.Stdout = os.Stdout
		child.Stderr = os.Stderr
		if err := child.Start(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		fmt.Println("starting")
		time.Sleep(time.Minute)
		os.Exit(0)
	}
	os.Exit(1)
}

func helperRunner(t *testing.T, opts Options) *Runner {
	t.Helper()
	opts.Tool = `"` + os.Args[0] + `" -test.run=^TestHelperProcess$ --`
	opts.Env = append(opts.Env, helperEnv+"=1")
	return New(opts, zerolog.Nop())
}

func collect() (*[]string, func(string)) {
	var lines []string
	return &lines, func(s string) { lines = append(lines, s) }
}

func TestRunner_Success(t *testing.T) {
	r := helperRunner(t, Options{})
	lines, sink := collect()

	res := r.Run(context.Background(), job.NewRequest("b", "Thing", "ok", job.Install), sink)

	require.Equal(t, job.Succeeded, res.Outcome, "output: %v", *lines)
	assert.Equal(t, 0, res.ExitCode)
	assert.NoError(t, res.Err)

	out := *lines
	require.GreaterOrEqual(t, len(out), 6)
	assert.True(t, strings.HasPrefix(out[0], "Installing: Thing"))
	assert.Equal(t, []string{
		"Found Thing [ok]",
		"Downloading",
		"warning on stderr",
		"Successfully installed",
	}, out[1:5], "spinner frames dropped, stderr interleaved in order")
	assert.Equal(t, "Thing has been installed successfully.", out[len(out)-1])
}

func TestRunner_NonzeroExit(t *testing.T) {
	r := helperRunner(t, Options{})
	lines, sink := collect()

	res := r.Run(context.Background(), job.NewRequest("b", "Nope", "fail", job.Uninstall), sink)

	assert.Equal(t, job.FailedExit, res.Outcome)
	assert.Equal(t, 3, res.ExitCode)
	assert.Error(t, res.Err)
	assert.Contains(t, *lines, "No package found matching input criteria.")
	assert.Contains(t, (*lines)[len(*lines)-1], "was not uninstalled (exit code 3")
}

func TestRunner_LaunchFailure(t *testing.T) {
	r := New(Options{Tool: filepath.Join(t.TempDir(), "no-such-winget")}, zerolog.Nop())
	lines, sink := collect()

	res := r.Run(context.Background(), job.NewRequest("b", "Git", "Git.Git", job.Install), sink)

	assert.Equal(t, job.FailedLaunch, res.Outcome)
	assert.Equal(t, -1, res.ExitCode)
	require.Error(t, res.Err)
	assert.Contains(t, (*lines)[len(*lines)-1], "Failed to install Git. Could not start")
}

func TestRunner_ContextTimeoutKillsProcess(t *testing.T) {
	r := helperRunner(t, Options{})
	_, sink := collect()

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	res := r.Run(ctx, job.NewRequest("b", "Slow", "hang", job.Install), sink)

	assert.Less(t, time.Since(start), 30*time.Second)
	assert.Equal(t, job.FailedExit, res.Outcome)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

func TestRunner_TimeoutKillsLingeringDescendants(t *testing.T) {
	r := helperRunner(t, Options{})
	_, sink := collect()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	res := r.Run(ctx, job.NewRequest("b", "Slow", "linger", job.Install), sink)

	assert.Less(t, time.Since(start), 10*time.Second, "a descendant holding the pipe must not stall the job")
	assert.Equal(t, job.FailedExit, res.Outcome)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}

func TestRunner_LockHeld(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "pickpack.lock")
	other := flock.New(lockPath)
	locked, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	t.Cleanup(func() { other.Unlock() })

	r := helperRunner(t, Options{LockPath: lockPath})
	lines, sink := collect()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	res := r.Run(ctx, job.NewRequest("b", "Thing", "ok", job.Install), sink)

	assert.Equal(t, job.FailedLaunch, res.Outcome)
	assert.ErrorIs(t, res.Err, ErrLockHeld)
	assert.Len(t, *lines, 1)
}

func TestRunner_LockReleasedBetweenJobs(t *testing.T) {
	r := helperRunner(t, Options{LockPath: filepath.Join(t.TempDir(), "pickpack.lock")})
	_, sink := collect()

	for i := 0; i < 2; i++ {
		res := r.Run(context.Background(), job.NewRequest("b", "Thing", "ok", job.Install), sink)
		assert.True(t, res.OK())
	}
}

func TestRunner_DetectOldVersion(t *testing.T) {
	r := helperRunner(t, Options{})
	require.True(t, r.disableInteractivity)

	r.Detect(context.Background())

	assert.False(t, r.disableInteractivity, "helper reports 1.3 which predates --disable-interactivity")
	args := r.Args(job.NewRequest("b", "Git", "Git.Git", job.Uninstall))
	assert.Equal(t, []string{"uninstall", "-e", "--id", "Git.Git", "--silent"}, args)
}

func TestSplitCRLF(t *testing.T) {
	var got []string
	err := scanLines(strings.NewReader("a\r\nb\rc\n\n  \nd"), func(s string) { got = append(got, s) })
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, got)
}

func TestScanLines_KeepsTableRules(t *testing.T) {
	var got []string
	in := "Name   Id\r\n---------\r\n  -\r  \\\r  |\r  /\rGit    Git.Git\n"
	require.NoError(t, scanLines(strings.NewReader(in), func(s string) { got = append(got, s) }))
	assert.Equal(t, []string{"Name   Id", "---------", "Git    Git.Git"}, got)
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"winget", []string{"winget"}},
		{"  wsl   winget ", []string{"wsl", "winget"}},
		{`"C:\Program Files\WinGet\winget.exe" --verbose`, []string{`C:\Program Files\WinGet\winget.exe`, "--verbose"}},
		{`tool --name="a b"`, []string{"tool", "--name=a b"}},
		{`tool ""`, []string{"tool", ""}},
		{"   ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, splitCommand(tt.in))
		})
	}
}

func TestNew_BlankToolFallsBackToDefault(t *testing.T) {
	r := New(Options{Tool: `""`}, zerolog.Nop())
	name, prefix := r.command()
	assert.Equal(t, DefaultTool, name)
	assert.Empty(t, prefix)
}
