package attach

import (
	"fmt"
	"os/user"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEffectiveUserOnHostEmptyDefaultsToRoot(t *testing.T) {
	uid, gid, err := ResolveEffectiveUserOnHost("")
	require.NoError(t, err)
	assert.Equal(t, uint32(0), uid)
	assert.Equal(t, uint32(0), gid)
}

func TestResolveEffectiveUserOnHostNumeric(t *testing.T) {
	uid, gid, err := ResolveEffectiveUserOnHost("1234")
	require.NoError(t, err)
	assert.Equal(t, uint32(1234), uid)
	assert.Equal(t, uint32(1234), gid)
}

func TestResolveEffectiveUserOnHostByName(t *testing.T) {
	self, err := user.Current()
	require.NoError(t, err)

	uid, gid, err := ResolveEffectiveUserOnHost(self.Username)
	require.NoError(t, err)
	assert.Equal(t, self.Uid, fmt.Sprintf("%d", uid))
	assert.Equal(t, self.Gid, fmt.Sprintf("%d", gid))
}

func TestResolveEffectiveUserOnHostUnknownName(t *testing.T) {
	_, _, err := ResolveEffectiveUserOnHost("this-user-should-not-exist-anywhere")
	assert.Error(t, err)
}
