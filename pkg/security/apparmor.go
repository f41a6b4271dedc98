package security

import (
	"fmt"
	"os"

	"github.com/cntrtool/cntr/pkg/cntrerr"
)

// applyAppArmor writes "changeprofile <name>" to
// /proc/self/attr/apparmor/exec so the transition takes effect at the
// next execve (spec §4.E). A profile of "unconfined" (or none reported)
// needs no transition; failing to change any other profile is fatal.
func applyAppArmor(profile string) error {
	if profile == "" || profile == "unconfined" {
		return nil
	}

	path := "/proc/self/attr/apparmor/exec"
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		// Older kernels expose this at /proc/self/attr/exec instead.
		path = "/proc/self/attr/exec"
		f, err = os.OpenFile(path, os.O_WRONLY, 0)
		if err != nil {
			return cntrerr.New(cntrerr.SecurityContextFailed, "open apparmor exec attr", err)
		}
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "changeprofile %s", profile); err != nil {
		return cntrerr.New(cntrerr.SecurityContextFailed, fmt.Sprintf("changeprofile %s", profile), err)
	}
	return nil
}
