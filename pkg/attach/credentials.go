package attach

import (
	"fmt"
	"os/user"
	"strconv"

	"github.com/cntrtool/cntr/pkg/cntrerr"
	"golang.org/x/sys/unix"
)

// assumeCredentials sets supplementary groups, then GID, then UID, in
// that order because setting UID may drop the capability needed to
// still call setgid (spec §4.C step 2).
func assumeCredentials(plan *Plan) error {
	groups := make([]int, len(plan.Groups))
	for i, g := range plan.Groups {
		groups[i] = int(g)
	}
	if err := unix.Setgroups(groups); err != nil {
		return cntrerr.New(cntrerr.NamespaceEnterFailed, "setgroups", err)
	}
	if err := unix.Setresgid(int(plan.GID), int(plan.GID), int(plan.GID)); err != nil {
		return cntrerr.New(cntrerr.NamespaceEnterFailed, "setgid", err)
	}
	if err := unix.Setresuid(int(plan.UID), int(plan.UID), int(plan.UID)); err != nil {
		return cntrerr.New(cntrerr.NamespaceEnterFailed, "setuid", err)
	}
	return nil
}

// ResolveEffectiveUserOnHost looks up effectiveUser on the *host*
// (spec §4.C step 2: "it controls ownership of host-created files"),
// returning its UID and GID. The in-container UID/GID set by
// assumeCredentials is unaffected by this value; applyEffectiveUser
// sets it separately via setfsuid/setfsgid.
func ResolveEffectiveUserOnHost(effectiveUser string) (uint32, uint32, error) {
	if effectiveUser == "" {
		return 0, 0, nil
	}
	u, err := user.Lookup(effectiveUser)
	if err != nil {
		if n, convErr := strconv.Atoi(effectiveUser); convErr == nil {
			return uint32(n), uint32(n), nil
		}
		return 0, 0, fmt.Errorf("looking up effective user %q on host: %w", effectiveUser, err)
	}
	uid, err := strconv.Atoi(u.Uid)
	if err != nil {
		return 0, 0, fmt.Errorf("parsing uid for %q: %w", effectiveUser, err)
	}
	gid, err := strconv.Atoi(u.Gid)
	if err != nil {
		return 0, 0, fmt.Errorf("parsing gid for %q: %w", effectiveUser, err)
	}
	return uint32(uid), uint32(gid), nil
}

// applyEffectiveUser sets the calling thread's filesystem UID/GID to
// effectiveUID/effectiveGID (spec §4.C step 2), so files the command
// creates on the host side of the session are owned by the requested
// user rather than by whatever assumeCredentials just set. setfsuid
// and setfsgid affect only filesystem access checks, not the process's
// real/effective/saved IDs already assumed above.
func applyEffectiveUser(effectiveUID, effectiveGID uint32) {
	if effectiveUID == 0 && effectiveGID == 0 {
		return
	}
	if err := unix.Setfsgid(int(effectiveGID)); err != nil {
		log.WithError(err).Debug("failed to set fsgid for effective user, continuing")
	}
	if err := unix.Setfsuid(int(effectiveUID)); err != nil {
		log.WithError(err).Debug("failed to set fsuid for effective user, continuing")
	}
}
