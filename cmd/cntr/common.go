package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/cntrtool/cntr/pkg/attach"
	"github.com/cntrtool/cntr/pkg/backend"
	"github.com/cntrtool/cntr/pkg/cntrerr"
	"github.com/cntrtool/cntr/pkg/procfs"
	"github.com/cntrtool/cntr/pkg/security"
	"github.com/spf13/pflag"
	"github.com/syndtr/gocapability/capability"
)

// sharedFlags is the set of flags attach and exec share (spec §6).
type sharedFlags struct {
	types         string
	effectiveUser string
	apparmor      string
	baseDir       string
}

func (f *sharedFlags) register(flags *pflag.FlagSet) {
	flags.StringVarP(&f.types, "types", "t", "", "comma-separated backend try-order (default: "+defaultOrderString()+")")
	flags.StringVar(&f.effectiveUser, "effective-user", "", "user or uid that owns host-created files")
	flags.StringVar(&f.apparmor, "apparmor", "auto", `AppArmor/SELinux handling: "auto" or "off"`)
	flags.StringVar(&f.baseDir, "base-dir", "", "mount point for the container root in attach mode (default: "+attach.DefaultBaseDir+")")
}

func defaultOrderString() string {
	parts := make([]string, len(backend.DefaultOrder))
	for i, k := range backend.DefaultOrder {
		parts[i] = string(k)
	}
	return strings.Join(parts, ",")
}

// backendOrder parses --types, falling back to backend.DefaultOrder,
// per spec §4.A / §6.
func (f *sharedFlags) backendOrder() []backend.Kind {
	if f.types == "" {
		return backend.DefaultOrder
	}
	return backend.ParseKinds(strings.Split(f.types, ","))
}

func (f *sharedFlags) securityMode() security.Mode {
	if strings.EqualFold(f.apparmor, "off") {
		return security.Off
	}
	return security.Auto
}

func (f *sharedFlags) resolvedBaseDir() string {
	if f.baseDir != "" {
		return f.baseDir
	}
	if v := os.Getenv("CNTR_BASE_DIR"); v != "" {
		return v
	}
	return attach.DefaultBaseDir
}

// allowSetcap reports CNTR_ALLOW_SETCAP=1 (spec §6, SPEC_FULL.md
// supplement 5): the operator asserts the binary carries the file
// capabilities it needs instead of running as uid 0.
func allowSetcap() bool {
	return os.Getenv("CNTR_ALLOW_SETCAP") == "1"
}

// checkPrivilege implements spec §4.C's prelude: either real root, or
// file capabilities plus the explicit CNTR_ALLOW_SETCAP=1 opt-in.
func checkPrivilege() error {
	if os.Geteuid() == 0 {
		return nil
	}
	if !allowSetcap() {
		return cntrerr.New(cntrerr.InsufficientPrivilege, "privilege check",
			fmt.Errorf("cntr must run as root, or with file capabilities and CNTR_ALLOW_SETCAP=1"))
	}

	self, err := capability.NewPid2(0)
	if err != nil {
		return cntrerr.New(cntrerr.InsufficientPrivilege, "load own capabilities", err)
	}
	if err := self.Load(); err != nil {
		return cntrerr.New(cntrerr.InsufficientPrivilege, "load own capabilities", err)
	}
	required := []capability.Cap{capability.CAP_SYS_ADMIN, capability.CAP_SYS_PTRACE, capability.CAP_SYS_CHROOT, capability.CAP_SETUID, capability.CAP_SETGID}
	for _, c := range required {
		if !self.Get(capability.EFFECTIVE, c) {
			return cntrerr.New(cntrerr.InsufficientPrivilege, "privilege check",
				fmt.Errorf("missing required capability %s (set CNTR_ALLOW_SETCAP=1 only once the binary has file capabilities)", c))
		}
	}
	return nil
}

// resolveAndCapture runs spec §4.A's backend resolution followed by
// §4.B's snapshot capture, the shared prelude of both attach and exec.
func resolveAndCapture(ctx context.Context, selector string, order []backend.Kind) (*procfs.TargetSnapshot, error) {
	pid, matched, err := backend.Resolve(ctx, order, selector)
	if err != nil {
		return nil, err
	}

	snapshot, err := procfs.Capture(pid, allowSetcap())
	if err != nil {
		return nil, err
	}
	_ = matched // logged by backend.Resolve itself at Warn on ambiguity
	return snapshot, nil
}

func exitCodeForErr(err error) int {
	if err == nil {
		return 0
	}
	return cntrerr.ExitCode(err)
}

// splitCommand applies spec §6's "-- separates the command" convention.
// With no command given, attach defaults to $SHELL (falling back to
// /bin/sh if unset) and exec defaults to /bin/sh outright, since exec
// runs inside the container's own root where $SHELL is the operator's
// host shell, not necessarily anything that exists there.
func splitCommand(mode attach.Mode, args []string) []string {
	if len(args) > 0 {
		return args
	}
	if mode == attach.ModeExec {
		return []string{"/bin/sh"}
	}
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "/bin/sh"
	}
	return []string{shell}
}
