package backend

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
)

// nspawnBackend implements the "nspawn" backend via
// `machinectl show <selector> -p Leader --value` (spec §4.A).
type nspawnBackend struct{}

func (nspawnBackend) Kind() Kind { return Nspawn }

func (nspawnBackend) Probe(ctx context.Context, selector string) ([]int, error) {
	if _, err := exec.LookPath("machinectl"); err != nil {
		return nil, nil
	}

	out, err := exec.CommandContext(ctx, "machinectl", "show", selector, "-p", "Leader", "--value").Output()
	if err != nil {
		return nil, nil
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(out)))
	if err != nil || pid == 0 {
		return nil, nil
	}
	return []int{pid}, nil
}
