package backend

import (
	"context"
)

// kubernetesBackend implements the "kubernetes" backend: resolve pod
// to containerID via `crictl pods`/`crictl ps --name <selector>`, then
// the container PID via `crictl inspect` (spec §4.A). It shares its
// crictl plumbing with the containerd backend, since both ultimately
// go through the CRI.
type kubernetesBackend struct{}

func (kubernetesBackend) Kind() Kind { return Kubernetes }

func (kubernetesBackend) Probe(ctx context.Context, selector string) ([]int, error) {
	if pid, ok := probeCrictlInspect(ctx, selector); ok {
		return []int{pid}, nil
	}
	return nil, nil
}
