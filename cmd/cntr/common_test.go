package main

import (
	"testing"

	"github.com/cntrtool/cntr/pkg/attach"
	"github.com/cntrtool/cntr/pkg/backend"
	"github.com/cntrtool/cntr/pkg/security"
	"github.com/stretchr/testify/assert"
)

func TestBackendOrderDefaultsWhenTypesEmpty(t *testing.T) {
	f := &sharedFlags{}
	assert.Equal(t, backend.DefaultOrder, f.backendOrder())
}

func TestBackendOrderParsesTypesFlag(t *testing.T) {
	f := &sharedFlags{types: "docker,lxc"}
	assert.Equal(t, []backend.Kind{backend.Docker, backend.LXC}, f.backendOrder())
}

func TestSecurityModeDefaultsToAuto(t *testing.T) {
	f := &sharedFlags{}
	assert.Equal(t, security.Auto, f.securityMode())
}

func TestSecurityModeOffCaseInsensitive(t *testing.T) {
	f := &sharedFlags{apparmor: "OFF"}
	assert.Equal(t, security.Off, f.securityMode())
}

func TestResolvedBaseDirFlagTakesPriority(t *testing.T) {
	t.Setenv("CNTR_BASE_DIR", "/from/env")
	f := &sharedFlags{baseDir: "/from/flag"}
	assert.Equal(t, "/from/flag", f.resolvedBaseDir())
}

func TestResolvedBaseDirFallsBackToEnv(t *testing.T) {
	t.Setenv("CNTR_BASE_DIR", "/from/env")
	f := &sharedFlags{}
	assert.Equal(t, "/from/env", f.resolvedBaseDir())
}

func TestResolvedBaseDirFallsBackToDefault(t *testing.T) {
	t.Setenv("CNTR_BASE_DIR", "")
	f := &sharedFlags{}
	assert.Equal(t, attach.DefaultBaseDir, f.resolvedBaseDir())
}

func TestAllowSetcap(t *testing.T) {
	t.Setenv("CNTR_ALLOW_SETCAP", "1")
	assert.True(t, allowSetcap())

	t.Setenv("CNTR_ALLOW_SETCAP", "0")
	assert.False(t, allowSetcap())
}

func TestExitCodeForErrNilIsZero(t *testing.T) {
	assert.Equal(t, 0, exitCodeForErr(nil))
}

func TestSplitCommandPrefersArgs(t *testing.T) {
	assert.Equal(t, []string{"echo", "hi"}, splitCommand(attach.ModeAttach, []string{"echo", "hi"}))
}

func TestSplitCommandAttachFallsBackToShellEnv(t *testing.T) {
	t.Setenv("SHELL", "/usr/bin/zsh")
	assert.Equal(t, []string{"/usr/bin/zsh"}, splitCommand(attach.ModeAttach, nil))
}

func TestSplitCommandAttachFallsBackToBinSh(t *testing.T) {
	t.Setenv("SHELL", "")
	assert.Equal(t, []string{"/bin/sh"}, splitCommand(attach.ModeAttach, nil))
}

func TestSplitCommandExecAlwaysDefaultsToBinSh(t *testing.T) {
	t.Setenv("SHELL", "/usr/bin/zsh")
	assert.Equal(t, []string{"/bin/sh"}, splitCommand(attach.ModeExec, nil))
}
