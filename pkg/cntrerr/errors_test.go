package cntrerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := New(NoSuchPid, "stat /proc/<pid>", inner)

	require.ErrorIs(t, err, inner)
	assert.True(t, Is(err, NoSuchPid))
	assert.False(t, Is(err, PermissionDenied))
	assert.Equal(t, NoSuchPid, KindOf(err))
}

func TestErrorStringWithAndWithoutCause(t *testing.T) {
	withCause := New(KernelTooOld, "open_tree", errors.New("function not implemented"))
	assert.Contains(t, withCause.Error(), "KernelTooOld")
	assert.Contains(t, withCause.Error(), "open_tree")
	assert.Contains(t, withCause.Error(), "function not implemented")

	withoutCause := New(AmbiguousSelector, "resolve selector", nil)
	assert.Equal(t, "AmbiguousSelector: resolve selector", withoutCause.Error())
}

func TestKindOfNonCntrError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("some other error")))
	assert.False(t, Is(errors.New("some other error"), NoSuchPid))
}

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{InsufficientPrivilege, 126},
		{NoSuchContainer, 127},
		{NoSuchPid, 127},
		{PermissionDenied, 77},
		{KernelTooOld, 95},
		{NamespaceEnterFailed, 125},
		{MountOverlayFailed, 125},
		{SecurityContextFailed, 125},
		{ExecFailed, 127},
		{BackendTimeout, 125},
	}
	for _, c := range cases {
		t.Run(string(c.kind), func(t *testing.T) {
			assert.Equal(t, c.want, ExitCode(New(c.kind, "op", nil)))
		})
	}
}

func TestExitCodeDefaultsOnUnknownErr(t *testing.T) {
	assert.Equal(t, 125, ExitCode(errors.New("unwrapped failure")))
}
