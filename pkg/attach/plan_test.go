package attach

import (
	"fmt"
	"os"
	"testing"

	"github.com/cntrtool/cntr/pkg/procfs"
	"github.com/cntrtool/cntr/pkg/security"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// ownNamespaceHandle opens one of the calling process's own namespace
// files, standing in for a "target" that happens to share every
// namespace with us — the one namespace-entry scenario BuildPlan's
// filtering can be exercised without root or a second process.
func ownNamespaceHandle(t *testing.T, kind procfs.NamespaceKind) procfs.NamespaceHandle {
	t.Helper()
	path := fmt.Sprintf("/proc/self/ns/%s", kind)
	f, err := os.Open(path)
	if err != nil {
		t.Skipf("namespace kind %s not available: %v", kind, err)
	}
	var st unix.Stat_t
	require.NoError(t, unix.Fstat(int(f.Fd()), &st))
	return procfs.NamespaceHandle{Kind: kind, File: f, Inode: st.Ino, Dev: uint64(st.Dev)}
}

func TestBuildPlanSkipsNamespacesAlreadyShared(t *testing.T) {
	snapshot := &procfs.TargetSnapshot{
		Namespaces: map[procfs.NamespaceKind]procfs.NamespaceHandle{
			procfs.Mount: ownNamespaceHandle(t, procfs.Mount),
			procfs.UTS:   ownNamespaceHandle(t, procfs.UTS),
		},
	}
	defer snapshot.Close()

	plan, err := BuildPlan(snapshot, security.Auto)
	require.NoError(t, err)

	// Every namespace in the snapshot is literally our own, so BuildPlan
	// must not schedule entering any of them.
	require.Empty(t, plan.NamespaceOrder)
}

func TestBuildPlanCopiesSnapshotFields(t *testing.T) {
	snapshot := &procfs.TargetSnapshot{
		Namespaces:  map[procfs.NamespaceKind]procfs.NamespaceHandle{},
		Credentials: procfs.Credentials{UID: 1000, GID: 1000, SupplementaryGroups: []uint32{27, 100}},
		CgroupPaths: map[string]string{"memory": "/sys/fs/cgroup/memory/foo"},
		NoNewPrivs:  true,
		SeccompMode: "2",
	}

	plan, err := BuildPlan(snapshot, security.Off)
	require.NoError(t, err)

	require.Equal(t, uint32(1000), plan.UID)
	require.Equal(t, uint32(1000), plan.GID)
	require.Equal(t, []uint32{27, 100}, plan.Groups)
	require.Equal(t, "/sys/fs/cgroup/memory/foo", plan.CgroupPaths["memory"])
	require.True(t, plan.NoNewPrivs)
	require.Equal(t, "2", plan.SeccompMode)
	require.Equal(t, security.Off, plan.SecurityMode)
	require.False(t, plan.EntersUserNamespace())
}

func TestEntersUserNamespaceTrueWhenScheduled(t *testing.T) {
	plan := &Plan{NamespaceOrder: []procfs.NamespaceKind{procfs.UserNS, procfs.Mount}}
	require.True(t, plan.EntersUserNamespace())
}
