package pkgmgr

import (
	"github.com/billie-coop/pickpack/internal/job"
)

// Args builds the package-manager arguments for a job.
//
//	install   -e --id <id> --accept-package-agreements --accept-source-agreements [--silent --disable-interactivity]
//	uninstall -e --id <id> [--silent --disable-interactivity]
func (r *Runner) Args(req job.Request) []string {
	args := []string{req.Kind.String(), "-e", "--id", req.PackageID}
	if req.Kind == job.Install {
		args = append(args, "--accept-package-agreements", "--accept-source-agreements")
	}
	if !r.requireInput.Load() {
		args = append(args, "--silent")
		if r.disableInteractivity {
			args = append(args, "--disable-interactivity")
		}
	}
	return args
}
