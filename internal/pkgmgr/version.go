package pkgmgr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// minDisableInteractivity is the first winget release that accepts
// --disable-interactivity.
var minDisableInteractivity = semver.MustParse("1.4.0")

// Version runs "<tool> --version" and parses the reported version.
func (r *Runner) Version(ctx context.Context) (*semver.Version, error) {
	name, prefix := r.command()
	cmd := exec.CommandContext(ctx, name, append(prefix, "--version")...)
	cmd.Env = r.env()

	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to query %s version: %w", name, err)
	}
	return parseVersion(out.String())
}

func parseVersion(s string) (*semver.Version, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty version output")
	}
	// winget prints "v1.6.3133"; some wrappers prefix the tool name.
	v, err := semver.NewVersion(fields[len(fields)-1])
	if err != nil {
		return nil, fmt.Errorf("unrecognized version %q: %w", strings.TrimSpace(s), err)
	}
	return v, nil
}

// SupportsDisableInteractivity reports whether v accepts --disable-interactivity.
func SupportsDisableInteractivity(v *semver.Version) bool {
	return v != nil && !v.LessThan(minDisableInteractivity)
}
