// Package security applies the AppArmor/SELinux profile transition,
// no-new-privs and dumpable flags to the attach child before execve
// (spec §4.E).
package security

import (
	"github.com/cntrtool/cntr/pkg/procfs"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

var log = logrus.WithField("component", "security")

// Mode controls whether AppArmor/SELinux transitions are attempted at
// all (spec §4.E).
type Mode int

const (
	Auto Mode = iota
	Off
)

// Apply performs every step of spec §4.E in order: AppArmor, SELinux,
// no-new-privs, seccomp, then dumpable.
func Apply(label procfs.SecurityLabel, mode Mode, targetHadNoNewPrivs bool, targetSeccompMode string) error {
	if mode != Off {
		if err := applyAppArmor(label.AppArmorProfile); err != nil {
			return err
		}
		if err := applySELinux(label.SELinuxContext); err != nil {
			return err
		}
	}

	if targetHadNoNewPrivs {
		if err := unix.Prctl(unix.PR_SET_NO_NEW_PRIVS, 1, 0, 0, 0); err != nil {
			log.WithError(err).Debug("failed to set no_new_privs, continuing")
		}
	}

	if HasActiveFilter(targetSeccompMode) {
		_ = ApplyPassthroughFilter()
	}

	// Dumpable is set to 0 last, matching a hardened process, only
	// after every /proc/self read this package and pkg/attach need is
	// already done (spec §4.E).
	_ = unix.Prctl(unix.PR_SET_DUMPABLE, 0, 0, 0, 0)

	return nil
}
