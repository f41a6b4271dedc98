package procfs

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSameMountListEqual(t *testing.T) {
	a := MountSnapshot{"/", "/proc", "/sys"}
	b := MountSnapshot{"/", "/proc", "/sys"}
	assert.True(t, SameMountList(a, b))
}

func TestSameMountListDifferentLength(t *testing.T) {
	a := MountSnapshot{"/", "/proc"}
	b := MountSnapshot{"/", "/proc", "/sys"}
	assert.False(t, SameMountList(a, b))
}

func TestSameMountListDifferentOrder(t *testing.T) {
	a := MountSnapshot{"/", "/proc", "/sys"}
	b := MountSnapshot{"/", "/sys", "/proc"}
	assert.False(t, SameMountList(a, b), "order matters: a reordered mount list is not the same list")
}

func TestSameMountListBothEmpty(t *testing.T) {
	assert.True(t, SameMountList(MountSnapshot{}, MountSnapshot{}))
}

// CaptureMountList is exercised against our own PID only: it is the one
// target every test runner is guaranteed to have permission to read.
func TestCaptureMountListOwnPid(t *testing.T) {
	points, err := CaptureMountList(os.Getpid())
	require.NoError(t, err)
	assert.NotEmpty(t, points)

	again, err := CaptureMountList(os.Getpid())
	require.NoError(t, err)
	assert.True(t, SameMountList(points, again), "mount list must be stable across two reads with no mount activity in between")
}
