package security

import (
	"github.com/cntrtool/cntr/pkg/cntrerr"
	"github.com/opencontainers/selinux/go-selinux"
)

// applySELinux mirrors applyAppArmor's transition-at-exec behavior for
// SELinux, using the same library runc uses for exec-context handling
// rather than hand-writing /proc/self/attr/exec (spec §4.E).
func applySELinux(context string) error {
	if context == "" || !selinux.GetEnabled() {
		return nil
	}
	if err := selinux.SetExecLabel(context); err != nil {
		return cntrerr.New(cntrerr.SecurityContextFailed, "set selinux exec label", err)
	}
	return nil
}
