package attach

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// joinCgroups writes the calling PID into every controller path the
// snapshot recorded, best-effort: a controller missing on the host is
// skipped rather than failing the attach (spec §4.C step 4).
func joinCgroups(paths map[string]string) {
	pid := os.Getpid()
	for controller, path := range paths {
		tasksFile := filepath.Join(path, "cgroup.procs")
		if err := os.WriteFile(tasksFile, []byte(fmt.Sprintf("%d", pid)), 0644); err != nil {
			logrus.WithField("component", "attach").WithField("controller", controller).
				WithError(err).Debug("failed to join cgroup controller, skipping")
		}
	}
}
