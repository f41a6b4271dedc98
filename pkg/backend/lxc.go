package backend

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
)

// lxcBackend implements the "lxc" backend via `lxc-info -n <selector> -p`
// (spec §4.A), whose output looks like "PID:     12345".
type lxcBackend struct{}

func (lxcBackend) Kind() Kind { return LXC }

func (lxcBackend) Probe(ctx context.Context, selector string) ([]int, error) {
	if _, err := exec.LookPath("lxc-info"); err != nil {
		return nil, nil
	}

	out, err := exec.CommandContext(ctx, "lxc-info", "-n", selector, "-p").Output()
	if err != nil {
		return nil, nil
	}

	fields := strings.Fields(string(out))
	if len(fields) < 2 {
		return nil, nil
	}
	pid, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil || pid == 0 {
		return nil, nil
	}
	return []int{pid}, nil
}
