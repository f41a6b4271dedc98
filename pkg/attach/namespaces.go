package attach

import (
	"fmt"

	"github.com/cntrtool/cntr/pkg/cntrerr"
	"github.com/cntrtool/cntr/pkg/procfs"
	"github.com/vishvananda/netns"
	"golang.org/x/sys/unix"
)

// cloneFlagFor maps a namespace kind to the CLONE_NEW* flag setns
// expects (spec §4.C).
func cloneFlagFor(kind procfs.NamespaceKind) int {
	switch kind {
	case procfs.UserNS:
		return unix.CLONE_NEWUSER
	case procfs.Mount:
		return unix.CLONE_NEWNS
	case procfs.UTS:
		return unix.CLONE_NEWUTS
	case procfs.IPC:
		return unix.CLONE_NEWIPC
	case procfs.Net:
		return unix.CLONE_NEWNET
	case procfs.PIDNS:
		return unix.CLONE_NEWPID
	case procfs.Cgroup:
		return unix.CLONE_NEWCGROUP
	default:
		return 0
	}
}

// setnsOne enters a single namespace. The net namespace goes through
// vishvananda/netns's Set, the same open-fd-then-setns pairing
// original_source/src/namespace.rs's is_same/set pair uses for net;
// every other kind goes through a plain setns(2) via x/sys/unix.
func setnsOne(kind procfs.NamespaceKind, handle procfs.NamespaceHandle) error {
	if kind == procfs.Net {
		if err := netns.Set(netns.NsHandle(handle.File.Fd())); err != nil {
			return cntrerr.New(cntrerr.NamespaceEnterFailed, fmt.Sprintf("setns(%s)", kind), err)
		}
		return nil
	}
	if err := unix.Setns(int(handle.File.Fd()), cloneFlagFor(kind)); err != nil {
		return cntrerr.New(cntrerr.NamespaceEnterFailed, fmt.Sprintf("setns(%s)", kind), err)
	}
	return nil
}

// enterNamespaces calls setns on each namespace in plan order. It must
// run on a locked OS thread (spec §5: "threads are forbidden... between
// fork and execve"): setns(CLONE_NEWPID) only affects processes forked
// by the calling thread afterward, never the thread itself, which is
// why a process later started via exec.Command from this same thread
// ends up as the new PID namespace's init — the "second fork" spec
// §4.C and §9 describe.
func enterNamespaces(plan *Plan) error {
	for _, kind := range plan.NamespaceOrder {
		handle, ok := plan.Namespaces[kind]
		if !ok {
			continue
		}
		if err := setnsOne(kind, handle); err != nil {
			return err
		}
	}
	return nil
}

// closeNamespaceHandles releases every namespace FD once the child has
// entered them (spec §5: "closed by the child after entry").
func closeNamespaceHandles(plan *Plan) {
	for _, h := range plan.Namespaces {
		_ = h.Close()
	}
}

// enterNamespacesSubset calls setns for only the kinds in want, in plan
// order, skipping anything the plan already filtered out. It lets the
// attach engine interleave the mount namespace's entry with overlay
// construction (spec §4.D step 2 happens between steps 1 and 3) while
// still respecting the single ordered plan.
func enterNamespacesSubset(plan *Plan, want map[procfs.NamespaceKind]bool) error {
	for _, kind := range plan.NamespaceOrder {
		if !want[kind] {
			continue
		}
		handle, ok := plan.Namespaces[kind]
		if !ok {
			continue
		}
		if err := setnsOne(kind, handle); err != nil {
			return err
		}
	}
	return nil
}
