// Package attach implements the fork/setns/exec engine described in
// spec §4.C: it enters a target's namespaces, assumes its credentials,
// capabilities, cgroup membership and security context, then either
// builds the nested-mount overlay and execs the user's command (Attach
// mode) or chroots into the target's root and execs there (Exec mode).
package attach

import "github.com/cntrtool/cntr/pkg/security"

// Mode selects between the two perspectives spec §1 describes.
type Mode int

const (
	// ModeAttach keeps the host root at / and side-mounts the
	// container's root at BaseDir.
	ModeAttach Mode = iota
	// ModeExec chroots into the target's root.
	ModeExec
)

// DefaultBaseDir is the default mount point for the container's root
// inside an attach session (spec §3, §6).
const DefaultBaseDir = "/var/lib/cntr"

// Request is the parsed front-end request described in spec §3.
type Request struct {
	Mode          Mode
	Selector      string
	BackendsToTry []string // ordered Kind values, as strings to avoid an import cycle with pkg/backend
	Command       []string
	EffectiveUser string // optional
	SecurityMode  security.Mode
	BaseDir       string
	AllowSetcap   bool // CNTR_ALLOW_SETCAP=1
}
