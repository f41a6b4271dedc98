package attach

import (
	"fmt"

	"github.com/cntrtool/cntr/pkg/procfs"
	"github.com/cntrtool/cntr/pkg/security"
)

// Plan is the flat, pre-allocated record spec §9 asks for: everything
// the namespace-entering, credential-assuming, capability-reinstating
// and cgroup-joining steps need is computed once, up front, so the
// code that actually performs those steps (pkg/attach's goroutine
// locked to its OS thread, standing in for the spec's post-fork child)
// only iterates a plain slice/map instead of making decisions.
type Plan struct {
	// NamespaceOrder lists, in the kernel-mandated sequence (user
	// first if entered at all, then mnt, uts, ipc, net, pid, cgroup;
	// spec §3, §4.C), only the namespaces that actually differ from
	// our own — entering a namespace already shared is a no-op the
	// kernel tolerates but which this plan avoids anyway.
	NamespaceOrder []procfs.NamespaceKind
	Namespaces     map[procfs.NamespaceKind]procfs.NamespaceHandle

	Groups []uint32
	GID    uint32
	UID    uint32

	CgroupPaths map[string]string

	Security     procfs.SecurityLabel
	SecurityMode security.Mode

	NoNewPrivs  bool
	SeccompMode string
}

// nsEntryOrder is the kernel-mandated join order from spec §4.C.
var nsEntryOrder = []procfs.NamespaceKind{
	procfs.UserNS,
	procfs.Mount,
	procfs.UTS,
	procfs.IPC,
	procfs.Net,
	procfs.PIDNS,
	procfs.Cgroup,
}

// BuildPlan computes the Plan for snapshot once, before any namespace
// transition begins.
func BuildPlan(snapshot *procfs.TargetSnapshot, securityMode security.Mode) (*Plan, error) {
	order := make([]procfs.NamespaceKind, 0, len(nsEntryOrder))
	for _, kind := range nsEntryOrder {
		handle, ok := snapshot.Namespaces[kind]
		if !ok {
			continue
		}
		if handle.SameAs(fmt.Sprintf("/proc/self/ns/%s", kind)) {
			continue
		}
		order = append(order, kind)
	}

	return &Plan{
		NamespaceOrder: order,
		Namespaces:     snapshot.Namespaces,
		Groups:         snapshot.Credentials.SupplementaryGroups,
		GID:            snapshot.Credentials.GID,
		UID:            snapshot.Credentials.UID,
		CgroupPaths:    snapshot.CgroupPaths,
		Security:       snapshot.Security,
		SecurityMode:   securityMode,
		NoNewPrivs:     snapshot.NoNewPrivs,
		SeccompMode:    snapshot.SeccompMode,
	}, nil
}

// EntersUserNamespace reports whether the plan will setns into a
// different user namespace. Credential assignment (spec §4.C step 2)
// runs regardless of it.
func (p *Plan) EntersUserNamespace() bool {
	for _, k := range p.NamespaceOrder {
		if k == procfs.UserNS {
			return true
		}
	}
	return false
}
