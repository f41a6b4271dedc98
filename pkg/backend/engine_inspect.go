package backend

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
)

// engineInspectHit reports whether the engine's CLI binary is on PATH.
func engineInspectHit(binary string) bool {
	_, err := exec.LookPath(binary)
	return err == nil
}

// engineInspectBackend implements the "docker" and "podman" backends,
// which share an identical invocation shape (spec §4.A):
//
//	<engine> inspect --format '{{.State.Pid}}' <selector>
type engineInspectBackend struct {
	kind   Kind
	binary string
}

func (b engineInspectBackend) Kind() Kind { return b.kind }

func (b engineInspectBackend) Probe(ctx context.Context, selector string) ([]int, error) {
	if !engineInspectHit(b.binary) {
		return nil, nil
	}

	cmd := exec.CommandContext(ctx, b.binary, "inspect", "--format", "{{.State.Pid}}", selector)
	out, err := cmd.Output()
	if err != nil {
		// Absence of a match (stopped/unknown container) is not a
		// backend error, it's simply zero candidates.
		return nil, nil
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil || pid == 0 {
		return nil, nil
	}
	return []int{pid}, nil
}
