package procfs

import (
	"fmt"

	"github.com/moby/sys/mountinfo"
)

// MountSnapshot is a comparable record of one process's mount list, used
// to check spec §8 property 1: the target's own mount namespace is
// unchanged by an attach session built entirely from detached mount
// trees (open_tree/move_mount never touch the target's mountpoints).
type MountSnapshot []string

// CaptureMountList reads every mountpoint visible to pid's mount
// namespace, sorted by moby/sys/mountinfo's own traversal order so two
// captures of the same unchanged namespace compare equal.
func CaptureMountList(pid int) (MountSnapshot, error) {
	infos, err := mountinfo.PidMountInfo(pid)
	if err != nil {
		return nil, fmt.Errorf("read /proc/%d/mountinfo: %w", pid, err)
	}
	points := make(MountSnapshot, len(infos))
	for i, info := range infos {
		points[i] = info.Mountpoint
	}
	return points, nil
}

// SameMountList reports whether two captures of the same process's
// mount namespace are byte-identical, ignoring neither order nor count.
func SameMountList(before, after MountSnapshot) bool {
	if len(before) != len(after) {
		return false
	}
	for i := range before {
		if before[i] != after[i] {
			return false
		}
	}
	return true
}
