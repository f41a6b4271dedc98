package procfs

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/cntrtool/cntr/pkg/cntrerr"
	"github.com/syndtr/gocapability/capability"
)

// statusResult bundles the pieces of /proc/<pid>/status this package
// needs: credentials, capability sets, no-new-privs and the seccomp
// mode. Capability masks
// arrive in /proc/<pid>/status as hex words (spec §4.B); rather than
// hand-parse them we let gocapability — the library runc itself uses
// for exactly this — do it and hand back its typed Capabilities value
// verbatim, so §4.C step 3 can reinstall it unmodified.
type statusResult struct {
	Credentials  Credentials
	Capabilities capability.Capabilities
	NoNewPrivs   bool
	SeccompMode  string
}

func readStatus(pid int) (*statusResult, error) {
	path := fmt.Sprintf("/proc/%d/status", pid)
	f, err := os.Open(path)
	if err != nil {
		return nil, cntrerr.New(cntrerr.PermissionDenied, "open /proc/<pid>/status", err)
	}
	defer f.Close()

	creds := Credentials{}
	noNewPrivs := false
	seccompMode := ""
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "NoNewPrivs:"):
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				noNewPrivs = fields[1] == "1"
			}
		case strings.HasPrefix(line, "Seccomp:"):
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				seccompMode = fields[1]
			}
		case strings.HasPrefix(line, "Uid:"):
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				creds.UID = parseUint32(fields[1])
			}
			if len(fields) >= 3 {
				creds.EffectiveUIDOnHost = parseUint32(fields[2])
			}
		case strings.HasPrefix(line, "Gid:"):
			fields := strings.Fields(line)
			if len(fields) >= 2 {
				creds.GID = parseUint32(fields[1])
			}
		case strings.HasPrefix(line, "Groups:"):
			fields := strings.Fields(line)
			for _, g := range fields[1:] {
				creds.SupplementaryGroups = append(creds.SupplementaryGroups, parseUint32(g))
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, cntrerr.New(cntrerr.PermissionDenied, "scan /proc/<pid>/status", err)
	}

	caps, err := capability.NewPid2(pid)
	if err != nil {
		return nil, cntrerr.New(cntrerr.PermissionDenied, "read capability sets", err)
	}
	if err := caps.Load(); err != nil {
		return nil, cntrerr.New(cntrerr.PermissionDenied, "load capability sets", err)
	}

	return &statusResult{Credentials: creds, Capabilities: caps, NoNewPrivs: noNewPrivs, SeccompMode: seccompMode}, nil
}

func parseUint32(s string) uint32 {
	v, _ := strconv.ParseUint(s, 10, 32)
	return uint32(v)
}

// leaderFromNSpid inspects the NSpid line of /proc/<pid>/status, which
// lists the PID as seen from the outermost namespace down to the
// target's own innermost PID namespace. When the innermost entry is 1,
// the target already is the container's own init, i.e. its own leader;
// precisely locating a *different* leader process would require
// scanning every /proc/*/status for the same namespace, which is the
// backend's job (most engines already report the leader PID directly),
// so this function only ever confirms "pid is already the leader".
func leaderFromNSpid(pid int) (int, error) {
	path := fmt.Sprintf("/proc/%d/status", pid)
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "NSpid:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0, fmt.Errorf("malformed NSpid line")
		}
		inner, err := strconv.Atoi(fields[len(fields)-1])
		if err != nil {
			return 0, err
		}
		if inner == 1 {
			return pid, nil
		}
		return 0, nil
	}
	return 0, fmt.Errorf("no NSpid line (kernel predates 4.1, or not namespaced)")
}
