package backend

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// commandBackend implements the "command" backend: scan /proc/*/cmdline,
// substituting NULs with spaces, and yield every PID whose command line
// contains selector as a substring (spec §4.A). It is excluded from
// DefaultOrder because it is ambiguous (spec §4.A).
type commandBackend struct{}

func (commandBackend) Kind() Kind { return Command }

func (commandBackend) Probe(_ context.Context, selector string) ([]int, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, err
	}

	var matches []int
	for _, entry := range entries {
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}

		data, err := os.ReadFile(filepath.Join("/proc", entry.Name(), "cmdline"))
		if err != nil {
			continue
		}
		cmdline := strings.ReplaceAll(string(data), "\x00", " ")
		cmdline = strings.TrimSpace(cmdline)
		if cmdline == "" {
			continue
		}

		if strings.Contains(cmdline, selector) {
			matches = append(matches, pid)
		}
	}
	return matches, nil
}
