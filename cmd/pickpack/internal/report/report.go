// Package report prints headless batch progress: a progress bar while
// jobs run and a colored line per finished job.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/billie-coop/pickpack/internal/events"
	"github.com/billie-coop/pickpack/internal/job"
)

// failureTail is how many output lines are repeated for a failed job.
const failureTail = 5

// Reporter renders one batch.
type Reporter struct {
	out     io.Writer
	kind    job.Kind
	verbose bool
	bar     *progressbar.ProgressBar

	ok   *color.Color
	fail *color.Color
	dim  *color.Color
	bold *color.Color

	failed []job.Result
}

// New creates a reporter for a batch of total jobs. verbose echoes every
// output line; useColor false disables ANSI colors.
func New(out io.Writer, kind job.Kind, total int, verbose, useColor bool) *Reporter {
	r := &Reporter{
		out:     out,
		kind:    kind,
		verbose: verbose,
		ok:      color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
		dim:     color.New(color.Faint),
		bold:    color.New(color.Bold),
	}
	if !useColor {
		for _, c := range []*color.Color{r.ok, r.fail, r.dim, r.bold} {
			c.DisableColor()
		}
	}

	r.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(verbing(kind)),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionEnableColorCodes(useColor),
	)
	return r
}

// Started shows the job's status text next to the bar.
func (r *Reporter) Started(p events.JobStartedPayload) {
	r.bar.Describe(p.Status)
}

// Output echoes a line in verbose mode.
func (r *Reporter) Output(p events.JobOutputPayload) {
	if !r.verbose {
		return
	}
	_ = r.bar.Clear()
	r.dim.Fprintf(r.out, "  %s\n", p.Line)
}

// Finished prints the outcome of one job and advances the bar.
func (r *Reporter) Finished(p events.JobFinishedPayload) {
	res := p.Result
	_ = r.bar.Clear()
	if res.OK() {
		r.ok.Fprintf(r.out, "✓ %s %s", pastTense(r.kind), res.Job.Name)
		r.dim.Fprintf(r.out, " (%s)\n", res.Duration.Round(100*time.Millisecond))
	} else {
		r.failed = append(r.failed, res)
		r.fail.Fprintf(r.out, "✗ %s: %s\n", res.Job.Name, reason(res))
	}
	_ = r.bar.Add(1)
}

// Summary finishes the bar and prints totals, repeating the tail of each
// failed job's output.
func (r *Reporter) Summary(p job.Progress) {
	_ = r.bar.Finish()

	if p.Total == 0 {
		fmt.Fprintln(r.out, "No packages selected.")
		return
	}

	fmt.Fprintln(r.out)
	r.bold.Fprintln(r.out, "Summary:")
	r.ok.Fprintf(r.out, "  ✓ %s: %d\n", pastTense(r.kind), p.Succeeded)
	if p.Failed > 0 {
		r.fail.Fprintf(r.out, "  ✗ Failed: %d\n", p.Failed)
	}
	if skipped := p.Total - p.Completed; skipped > 0 {
		r.dim.Fprintf(r.out, "  - Not run: %d\n", skipped)
	}

	for _, res := range r.failed {
		fmt.Fprintln(r.out)
		r.fail.Fprintf(r.out, "%s (%s):\n", res.Job.Name, res.Job.PackageID)
		lines := res.Output
		if len(lines) > failureTail {
			lines = lines[len(lines)-failureTail:]
		}
		for _, line := range lines {
			r.dim.Fprintf(r.out, "  %s\n", line)
		}
	}
}

func reason(res job.Result) string {
	switch res.Outcome {
	case job.FailedLaunch:
		return fmt.Sprintf("could not start package manager: %v", res.Err)
	case job.FailedExit:
		return fmt.Sprintf("exit code %d", res.ExitCode)
	default:
		return res.Outcome.String()
	}
}

func verbing(k job.Kind) string {
	if k == job.Uninstall {
		return "Uninstalling"
	}
	return "Installing"
}

func pastTense(k job.Kind) string {
	s := k.String() + "ed"
	return strings.ToUpper(s[:1]) + s[1:]
}
