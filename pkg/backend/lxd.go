package backend

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
)

// lxdBackend implements the "lxd" backend via `lxc info <selector>`
// (spec §4.A), whose output contains a "Pid: 12345" line.
type lxdBackend struct{}

func (lxdBackend) Kind() Kind { return LXD }

func (lxdBackend) Probe(ctx context.Context, selector string) ([]int, error) {
	if _, err := exec.LookPath("lxc"); err != nil {
		return nil, nil
	}

	out, err := exec.CommandContext(ctx, "lxc", "info", selector).Output()
	if err != nil {
		return nil, nil
	}

	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "Pid:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		pid, err := strconv.Atoi(fields[1])
		if err != nil || pid == 0 {
			continue
		}
		return []int{pid}, nil
	}
	return nil, nil
}
