package procfs

import (
	"fmt"
	"os"
	"strings"

	"github.com/opencontainers/selinux/go-selinux"
)

// readSecurityLabel reads whichever of AppArmor or SELinux the target
// carries (spec §3: "both optional", at most one is normally active).
// When SELinux is enabled only the SELinux context is read, since
// attr/current then holds that context rather than an AppArmor profile.
func readSecurityLabel(pid int) SecurityLabel {
	label := SecurityLabel{}

	if selinux.GetEnabled() {
		if ctx, err := selinux.FileLabel(fmt.Sprintf("/proc/%d/attr/current", pid)); err == nil && ctx != "" {
			label.SELinuxContext = ctx
		}
	} else if profile, ok := readAppArmorProfile(pid); ok {
		label.AppArmorProfile = profile
	}

	return label
}

// readAppArmorProfile reads /proc/<pid>/attr/apparmor/current, falling
// back to the pre-LSM-stacking path /proc/<pid>/attr/current on older
// kernels. The file content is "profile_name (mode)"; only the name is
// kept, matching original_source/src/lsm.rs's read_apparmor_label.
func readAppArmorProfile(pid int) (string, bool) {
	for _, suffix := range []string{"attr/apparmor/current", "attr/current"} {
		path := fmt.Sprintf("/proc/%d/%s", pid, suffix)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		content := strings.TrimRight(string(data), "\n")
		if content == "" {
			continue
		}
		fields := strings.SplitN(content, " ", 2)
		return fields[0], true
	}
	return "", false
}
