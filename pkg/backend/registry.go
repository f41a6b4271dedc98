// Package backend implements one probe per container engine (spec §4.A):
// given a user-supplied selector, each backend yields candidate PIDs. A
// backend must be pure beyond spawning its own engine's CLI, and must
// tolerate that CLI being absent by returning no candidates rather than
// an error.
package backend

import (
	"context"
	"sort"
	"time"

	"github.com/cntrtool/cntr/pkg/cntrerr"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "backend")

// Kind names one of the fixed, small set of backends (spec §4.A, §6).
type Kind string

const (
	ProcessID  Kind = "process_id"
	Docker     Kind = "docker"
	Podman     Kind = "podman"
	Containerd Kind = "containerd"
	Nspawn     Kind = "nspawn"
	LXC        Kind = "lxc"
	LXD        Kind = "lxd"
	Kubernetes Kind = "kubernetes"
	Command    Kind = "command"
)

// DefaultOrder is every backend except Command, which is ambiguous
// enough that the spec excludes it unless explicitly requested (§4.A).
var DefaultOrder = []Kind{ProcessID, Podman, Docker, Nspawn, LXC, LXD, Containerd, Kubernetes}

// AllKinds is every backend this binary knows how to probe, in the
// order accepted by the -t/--types CLI flag's value list (§6).
var AllKinds = []Kind{ProcessID, Podman, Docker, Nspawn, LXC, LXD, Containerd, Command, Kubernetes}

// ProbeTimeout bounds how long a single backend's auxiliary CLI may run
// before it is treated as "no match" (spec §5: "bounded timeout of 10 s
// per backend").
const ProbeTimeout = 10 * time.Second

// Backend probes one container engine for candidate PIDs matching a
// selector.
type Backend interface {
	Kind() Kind
	Probe(ctx context.Context, selector string) ([]int, error)
}

// registry is the fixed, small set of known backends; there is no
// dynamic plug-in discovery (spec §9).
var registry = map[Kind]Backend{
	ProcessID:  processIDBackend{},
	Docker:     engineInspectBackend{kind: Docker, binary: "docker"},
	Podman:     engineInspectBackend{kind: Podman, binary: "podman"},
	Containerd: containerdBackend{},
	Nspawn:     nspawnBackend{},
	LXC:        lxcBackend{},
	LXD:        lxdBackend{},
	Kubernetes: kubernetesBackend{},
	Command:    commandBackend{},
}

// Lookup returns the Backend implementing kind, or false if kind is
// unknown.
func Lookup(kind Kind) (Backend, bool) {
	b, ok := registry[kind]
	return b, ok
}

// Resolve tries each backend in order against selector, per spec
// §4.A's resolution policy: the first backend to return at least one
// PID wins; ties within that backend resolve to the lowest PID.
// BackendTimeout failures are recovered locally (move to next backend);
// every other backend error is also recovered locally and logged, since
// §7 only treats exhausting every backend as fatal.
func Resolve(ctx context.Context, order []Kind, selector string) (pid int, matchedBackend Kind, err error) {
	for _, kind := range order {
		b, ok := registry[kind]
		if !ok {
			continue
		}

		probeCtx, cancel := context.WithTimeout(ctx, ProbeTimeout)
		pids, probeErr := b.Probe(probeCtx, selector)
		cancel()

		if probeCtx.Err() == context.DeadlineExceeded {
			log.WithField("backend", kind).Debug("backend probe timed out, treating as no match")
			continue
		}
		if probeErr != nil {
			log.WithField("backend", kind).WithError(probeErr).Debug("backend probe failed, trying next backend")
			continue
		}
		if len(pids) == 0 {
			continue
		}

		sort.Ints(pids)
		if len(pids) > 1 {
			log.WithField("backend", kind).WithField("candidates", pids).
				Warn("ambiguous selector: multiple PIDs matched, picking the lowest")
		}
		return pids[0], kind, nil
	}

	return 0, "", cntrerr.New(cntrerr.NoSuchContainer, "resolve selector across all backends", nil)
}

// ParseKinds converts a comma-separated -t/--types flag value into an
// ordered, deduplicated slice of Kind, preserving the order the user
// wrote them in (it is also the try-order passed to Resolve).
func ParseKinds(csv []string) []Kind {
	seen := make(map[Kind]bool, len(csv))
	kinds := make([]Kind, 0, len(csv))
	for _, raw := range csv {
		k := Kind(raw)
		if seen[k] {
			continue
		}
		seen[k] = true
		kinds = append(kinds, k)
	}
	return kinds
}
