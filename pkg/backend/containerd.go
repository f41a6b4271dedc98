package backend

import (
	"context"
	"encoding/json"
	"os/exec"
	"strconv"
	"strings"
)

// containerdBackend implements the "containerd" backend by invoking
// `ctr -n <namespace> tasks ls`, trying the default namespace and then
// "k8s.io" (spec §4.A), falling back to `crictl inspect` for CRI-managed
// containers.
type containerdBackend struct{}

func (containerdBackend) Kind() Kind { return Containerd }

func (containerdBackend) Probe(ctx context.Context, selector string) ([]int, error) {
	if pid, ok := probeCtrTasks(ctx, selector); ok {
		return []int{pid}, nil
	}
	if pid, ok := probeCrictlInspect(ctx, selector); ok {
		return []int{pid}, nil
	}
	return nil, nil
}

func probeCtrTasks(ctx context.Context, selector string) (int, bool) {
	if _, err := exec.LookPath("ctr"); err != nil {
		return 0, false
	}

	for _, namespace := range []string{"default", "k8s.io"} {
		cmd := exec.CommandContext(ctx, "ctr", "-n", namespace, "tasks", "ls")
		out, err := cmd.Output()
		if err != nil {
			continue
		}
		if pid, ok := parseCtrTasksOutput(string(out), selector); ok {
			return pid, true
		}
	}
	return 0, false
}

// parseCtrTasksOutput scans `ctr tasks ls` tabular output:
//
//	TASK                PID     STATUS
//	my-container        12345   RUNNING
func parseCtrTasksOutput(out, selector string) (int, bool) {
	lines := strings.Split(out, "\n")
	for i, line := range lines {
		if i == 0 {
			continue // header
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if fields[0] != selector {
			continue
		}
		pid, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		return pid, true
	}
	return 0, false
}

type crictlInspectResult struct {
	Info struct {
		Pid int `json:"pid"`
	} `json:"info"`
}

func probeCrictlInspect(ctx context.Context, selector string) (int, bool) {
	if _, err := exec.LookPath("crictl"); err != nil {
		return 0, false
	}

	containerID, ok := resolveCrictlContainerID(ctx, selector)
	if !ok {
		containerID = selector
	}

	out, err := exec.CommandContext(ctx, "crictl", "inspect", containerID).Output()
	if err != nil {
		return 0, false
	}

	var result crictlInspectResult
	if err := json.Unmarshal(out, &result); err != nil || result.Info.Pid == 0 {
		return 0, false
	}
	return result.Info.Pid, true
}

// resolveCrictlContainerID resolves a pod name to the containerID
// crictl needs, via `crictl pods` then `crictl ps --name <selector>`.
func resolveCrictlContainerID(ctx context.Context, selector string) (string, bool) {
	podOut, err := exec.CommandContext(ctx, "crictl", "pods", "--name", selector, "-q").Output()
	if err != nil || len(strings.TrimSpace(string(podOut))) == 0 {
		return "", false
	}

	psOut, err := exec.CommandContext(ctx, "crictl", "ps", "--name", selector, "-q").Output()
	if err != nil {
		return "", false
	}
	id := strings.TrimSpace(strings.SplitN(string(psOut), "\n", 2)[0])
	if id == "" {
		return "", false
	}
	return id, true
}
