package backend

import (
	"context"
	"fmt"
	"os"
	"strconv"
)

// processIDBackend implements the "process_id" backend: if the
// selector parses as a positive integer and /proc/<n> exists, it is
// the answer (spec §4.A).
type processIDBackend struct{}

func (processIDBackend) Kind() Kind { return ProcessID }

func (processIDBackend) Probe(_ context.Context, selector string) ([]int, error) {
	n, err := strconv.Atoi(selector)
	if err != nil || n <= 0 {
		return nil, nil
	}
	if _, err := os.Stat(fmt.Sprintf("/proc/%d", n)); err != nil {
		return nil, nil
	}
	return []int{n}, nil
}
