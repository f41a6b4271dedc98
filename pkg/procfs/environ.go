package procfs

import (
	"fmt"
	"os"
	"strings"

	"github.com/cntrtool/cntr/pkg/cntrerr"
)

// readEnviron reads /proc/<pid>/environ, a NUL-separated sequence of
// KEY=value entries that may contain non-UTF-8 bytes (spec §3).
// strings.Split on NUL preserves arbitrary byte content since Go
// strings are just byte slices, not validated UTF-8.
func readEnviron(pid int) ([]string, error) {
	path := fmt.Sprintf("/proc/%d/environ", pid)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cntrerr.New(cntrerr.PermissionDenied, "read /proc/<pid>/environ", err)
	}

	raw := strings.Split(string(data), "\x00")
	entries := make([]string, 0, len(raw))
	for _, e := range raw {
		if e == "" {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}
