package attach

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/cntrtool/cntr/pkg/cntrerr"
	"github.com/cntrtool/cntr/pkg/mount"
	"github.com/cntrtool/cntr/pkg/procfs"
	"github.com/cntrtool/cntr/pkg/security"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

var log = logrus.WithField("component", "attach")

// Run is spec §4.C's entry point: given a request and the snapshot
// already captured for its resolved PID, it performs every child-side
// step in order and execs the user's command, returning the exit code
// the CLI front end should use verbatim.
//
// There is no literal fork() here (spec §9's "signal-safe between fork
// and exec" concern does not translate to a garbage-collected runtime);
// instead a single goroutine is locked to its OS thread before any
// setns/credential/capability syscall, exactly so that the exec.Command
// started at the end of that goroutine inherits the thread's already-
// transitioned state, the same way a second fork would inherit a
// setns(CLONE_NEWPID) child's new PID namespace (spec §9).
func Run(req *Request, snapshot *procfs.TargetSnapshot, streams Streams) (int, error) {
	plan, err := BuildPlan(snapshot, req.SecurityMode)
	if err != nil {
		return cntrerr.ExitCode(err), err
	}

	effectiveUID, effectiveGID, err := ResolveEffectiveUserOnHost(req.EffectiveUser)
	if err != nil {
		return cntrerr.ExitCode(err), err
	}

	resChan := make(chan result, 1)
	ptyChan := make(chan *os.File, 1)
	cmdChan := make(chan *exec.Cmd, 1)
	doneChan := make(chan struct{})

	go func() {
		runtime.LockOSThread()
		defer closeNamespaceHandles(plan)

		cmd, ownMountNS, exitCode, err := enterAndPrepare(req, plan, snapshot, effectiveUID, effectiveGID)
		if err != nil {
			close(doneChan)
			resChan <- result{exitCode, err}
			return
		}
		cmdChan <- cmd

		if req.Mode == ModeAttach {
			if srv, derr := startDaemon(req, plan, snapshot, ownMountNS); derr == nil {
				defer srv.Close()
			} else {
				log.WithError(derr).Debug("failed to start exec-socket daemon, continuing without it")
			}
		}

		exitCode, err = runCommand(cmd, streams, ptyChan, doneChan)
		resChan <- result{exitCode, err}
	}()

	return waitForResult(cmdChan, resChan, ptyChan, doneChan, streams.Stdin)
}

// enterAndPrepare runs every child-side step up to (but not including)
// starting the command, per spec §4.C steps 1-6, and returns the
// prepared *exec.Cmd. It must run on the locked OS thread established
// by its caller. In attach mode it also returns a handle on this
// thread's own post-pivot mount namespace, so a later daemon
// connection handled on a different thread can rejoin the same
// composite root rather than whatever namespace that thread started in.
func enterAndPrepare(req *Request, plan *Plan, snapshot *procfs.TargetSnapshot, effectiveUID, effectiveGID uint32) (*exec.Cmd, *os.File, int, error) {
	var ownMountNS *os.File

	var hostTreeFD int
	if req.Mode == ModeAttach {
		fd, err := mount.CaptureHostTree()
		if err != nil {
			return nil, nil, cntrerr.ExitCode(err), err
		}
		hostTreeFD = fd
		defer unix.Close(hostTreeFD)

		// Step 1 (partial) + 4.D step 2: enter only user+mnt now, so the
		// overlay can be built before the remaining namespaces (which
		// includes pid — entering it changes fork semantics) are joined.
		if err := enterNamespacesSubset(plan, map[procfs.NamespaceKind]bool{
			procfs.UserNS: true,
			procfs.Mount:  true,
		}); err != nil {
			return nil, nil, cntrerr.ExitCode(err), err
		}

		if err := mount.Build(hostTreeFD, req.BaseDir); err != nil {
			return nil, nil, cntrerr.ExitCode(err), err
		}

		if f, err := os.Open("/proc/thread-self/ns/mnt"); err == nil {
			ownMountNS = f
		} else {
			log.WithError(err).Debug("failed to pin own mount namespace, exec-socket daemon will not see the overlay")
		}

		if err := enterNamespacesSubset(plan, map[procfs.NamespaceKind]bool{
			procfs.UTS: true, procfs.IPC: true, procfs.Net: true, procfs.PIDNS: true, procfs.Cgroup: true,
		}); err != nil {
			return nil, nil, cntrerr.ExitCode(err), err
		}
	} else {
		if err := enterNamespaces(plan); err != nil {
			return nil, nil, cntrerr.ExitCode(err), err
		}
	}

	// Step 2: credentials.
	if err := assumeCredentials(plan); err != nil {
		return nil, nil, cntrerr.ExitCode(err), err
	}
	applyEffectiveUser(effectiveUID, effectiveGID)

	// Step 3: capabilities.
	if err := reinstateCapabilities(snapshot.Capabilities); err != nil {
		wrapped := cntrerr.New(cntrerr.SecurityContextFailed, "reinstate capabilities", err)
		return nil, nil, cntrerr.ExitCode(wrapped), wrapped
	}

	// Step 4: cgroups.
	joinCgroups(plan.CgroupPaths)

	// Step 5: security context.
	if err := security.Apply(plan.Security, plan.SecurityMode, plan.NoNewPrivs, plan.SeccompMode); err != nil {
		wrapped := cntrerr.New(cntrerr.SecurityContextFailed, "apply security context", err)
		return nil, nil, cntrerr.ExitCode(wrapped), wrapped
	}

	// Step 6: mode split.
	var cmd *exec.Cmd
	var exitCode int
	var err error
	if req.Mode == ModeExec {
		cmd, exitCode, err = prepareExecMode(req, snapshot)
	} else {
		cmd, exitCode, err = prepareAttachMode(req, snapshot)
	}
	return cmd, ownMountNS, exitCode, err
}

func prepareAttachMode(req *Request, snapshot *procfs.TargetSnapshot) (*exec.Cmd, int, error) {
	env := append([]string{}, snapshot.Environment...)
	env = append(env, fmt.Sprintf("CNTR_MOUNTPOINT=%s", req.BaseDir))

	cwd := req.BaseDir
	if hostRootHas(snapshot.CwdPath) {
		cwd = snapshot.CwdPath
	} else {
		log.WithField("cwd", snapshot.CwdPath).Warn("target cwd not reachable from host root, falling back to base_dir")
	}

	cmd := exec.Command(req.Command[0], req.Command[1:]...)
	cmd.Dir = cwd
	cmd.Env = env
	return cmd, 0, nil
}

func prepareExecMode(req *Request, snapshot *procfs.TargetSnapshot) (*exec.Cmd, int, error) {
	if err := unix.Chroot(snapshot.RootPath); err != nil {
		wrapped := cntrerr.New(cntrerr.NamespaceEnterFailed, "chroot", err)
		return nil, cntrerr.ExitCode(wrapped), wrapped
	}
	if err := unix.Chdir("/"); err != nil {
		wrapped := cntrerr.New(cntrerr.NamespaceEnterFailed, "chdir / after chroot", err)
		return nil, cntrerr.ExitCode(wrapped), wrapped
	}

	cmd := exec.Command(req.Command[0], req.Command[1:]...)
	cmd.Dir = "/"
	cmd.Env = append([]string{}, snapshot.Environment...)
	return cmd, 0, nil
}

// hostRootHas reports whether path exists from the perspective of
// the process's current root, used for the cwd fallback decision
// spec §9's open question resolves in favour of base_dir.
func hostRootHas(path string) bool {
	if path == "" || !filepath.IsAbs(path) {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
