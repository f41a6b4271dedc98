package procfs

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/moby/sys/mountinfo"
)

// readCgroupPaths resolves, for the target pid, the absolute on-host
// path of each cgroup controller it belongs to (spec §3's cgroup_paths
// field), following the original implementation's approach
// (original_source/src/cgroup.rs): intersect /proc/cgroups' active
// subsystems with the host's own cgroup mountpoints (parsed here via
// moby/sys/mountinfo rather than hand-rolled mountinfo parsing) and
// /proc/<pid>/cgroup's membership lines.
func readCgroupPaths(pid int) (map[string]string, error) {
	subsystems, err := activeSubsystems()
	if err != nil {
		return nil, err
	}

	mounts, err := cgroupMountpoints(subsystems)
	if err != nil {
		return nil, err
	}

	memberships, err := cgroupMemberships(pid)
	if err != nil {
		return nil, err
	}

	paths := make(map[string]string, len(memberships))
	for controller, relative := range memberships {
		base, ok := mounts[controller]
		if !ok {
			continue
		}
		paths[controller] = joinCgroupPath(base, relative)
	}
	return paths, nil
}

func joinCgroupPath(mountpoint, relative string) string {
	if relative == "" || relative == "/" {
		return mountpoint
	}
	return strings.TrimRight(mountpoint, "/") + "/" + strings.TrimLeft(relative, "/")
}

// activeSubsystems parses /proc/cgroups, returning the subsystem names
// whose hierarchy-count column is non-zero.
func activeSubsystems() (map[string]bool, error) {
	f, err := os.Open("/proc/cgroups")
	if err != nil {
		return nil, fmt.Errorf("open /proc/cgroups: %w", err)
	}
	defer f.Close()

	subsystems := map[string]bool{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 4 && fields[3] != "0" {
			subsystems[fields[0]] = true
		}
	}
	return subsystems, scanner.Err()
}

// cgroupMountpoints maps each named cgroup controller to the absolute
// host path it is mounted at, by scanning our own mountinfo for
// fstype "cgroup" (v1) entries and matching each against the active
// subsystem set. Named hierarchies ("name=<x>" options) are kept under
// their "name=<x>" key, the form /proc/<pid>/cgroup lists them in.
func cgroupMountpoints(subsystems map[string]bool) (map[string]string, error) {
	infos, err := mountinfo.GetMounts(mountinfo.FSTypeFilter("cgroup"))
	if err != nil {
		return nil, fmt.Errorf("read /proc/self/mountinfo: %w", err)
	}

	mounts := map[string]string{}
	for _, info := range infos {
		for _, opt := range strings.Split(info.VFSOptions, ",") {
			if strings.HasPrefix(opt, "name=") {
				mounts[opt] = info.Mountpoint
				continue
			}
			if !subsystems[opt] {
				continue
			}
			mounts[opt] = info.Mountpoint
		}
	}
	return mounts, nil
}

// cgroupMemberships parses /proc/<pid>/cgroup, mapping each
// comma-joined controller list to the cgroup-relative path the target
// belongs to within it.
func cgroupMemberships(pid int) (map[string]string, error) {
	path := fmt.Sprintf("/proc/%d/cgroup", pid)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	memberships := map[string]string{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		idx := strings.Index(line, ":/")
		if idx < 0 {
			continue
		}
		rest := line[:idx]
		fields := strings.SplitN(rest, ":", 2)
		if len(fields) != 2 {
			continue
		}
		relPath := line[idx+1:]
		for _, controller := range strings.Split(fields[1], ",") {
			if controller == "" {
				continue
			}
			memberships[controller] = relPath
		}
	}
	return memberships, scanner.Err()
}
