package backend

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKindsDedupsPreservingOrder(t *testing.T) {
	got := ParseKinds([]string{"podman", "docker", "podman", "lxc"})
	assert.Equal(t, []Kind{Podman, Docker, LXC}, got)
}

func TestParseKindsEmpty(t *testing.T) {
	assert.Empty(t, ParseKinds(nil))
}

func TestDefaultOrderExcludesCommand(t *testing.T) {
	for _, k := range DefaultOrder {
		assert.NotEqual(t, Command, k, "command backend must not be tried unless explicitly requested")
	}
}

func TestAllKindsCoversEveryRegisteredBackend(t *testing.T) {
	for _, k := range AllKinds {
		_, ok := Lookup(k)
		assert.True(t, ok, "AllKinds entry %s has no registered backend", k)
	}
}

func TestProcessIDBackendProbe(t *testing.T) {
	b, ok := Lookup(ProcessID)
	require.True(t, ok)

	pids, err := b.Probe(context.Background(), fmt.Sprintf("%d", os.Getpid()))
	require.NoError(t, err)
	assert.Equal(t, []int{os.Getpid()}, pids)
}

func TestProcessIDBackendRejectsNonNumeric(t *testing.T) {
	b, _ := Lookup(ProcessID)
	pids, err := b.Probe(context.Background(), "not-a-pid")
	require.NoError(t, err)
	assert.Empty(t, pids)
}

func TestProcessIDBackendRejectsUnknownPid(t *testing.T) {
	b, _ := Lookup(ProcessID)
	// PID 1 is assumed to exist on any host but this selector is
	// guaranteed never to map to a live process.
	pids, err := b.Probe(context.Background(), "999999999")
	require.NoError(t, err)
	assert.Empty(t, pids)
}

func TestCommandBackendMatchesOwnCmdline(t *testing.T) {
	self := os.Getpid()
	raw, err := os.ReadFile(fmt.Sprintf("/proc/%d/cmdline", self))
	require.NoError(t, err)
	if len(raw) == 0 {
		t.Skip("cmdline unavailable for this test binary")
	}

	b, ok := Lookup(Command)
	require.True(t, ok)

	// The test binary's own argv[0] is a substring of its own cmdline by
	// construction, so searching for it must find our own PID.
	selector := string(raw[:min(8, len(raw))])
	pids, err := b.Probe(context.Background(), selector)
	require.NoError(t, err)
	assert.Contains(t, pids, self)
}
