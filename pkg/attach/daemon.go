package attach

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"runtime"

	"github.com/cntrtool/cntr/pkg/daemon"
	"github.com/cntrtool/cntr/pkg/procfs"
	"github.com/cntrtool/cntr/pkg/security"
	"github.com/creack/pty"
	"golang.org/x/sys/unix"
)

// startDaemon listens on <base_dir>/.exec.sock for the remainder of
// this attach session (SPEC_FULL.md supplement 1): a second `cntr
// enter` client can join the same session without re-running backend
// resolution, snapshot capture or overlay construction (§4.A, §4.B,
// §4.D). Namespace entry, credentials, capabilities, cgroups and the
// security context are re-applied per connection by runDaemonCommand.
//
// ownMountNS pins the composite mount namespace mount.Build just
// pivoted into on the calling (locked) thread. Namespace membership is
// per-thread, so a connection handled on a different OS thread cannot
// simply inherit it; runDaemonCommand re-enters it explicitly via
// ownMountNS before starting anything.
func startDaemon(req *Request, plan *Plan, snapshot *procfs.TargetSnapshot, ownMountNS *os.File) (*daemon.Server, error) {
	server, err := daemon.Listen(req.BaseDir)
	if err != nil {
		return nil, err
	}

	go server.Serve(func(conn *net.UnixConn) {
		handleDaemonConn(conn, plan, snapshot, ownMountNS)
	})
	return server, nil
}

func handleDaemonConn(conn *net.UnixConn, plan *Plan, snapshot *procfs.TargetSnapshot, ownMountNS *os.File) {
	defer conn.Close()

	var req daemon.ExecRequest
	if err := daemon.ReadJSON(conn, &req); err != nil {
		log.WithError(err).Debug("failed to decode exec-socket request, dropping connection")
		return
	}
	command := req.Command
	if len(command) == 0 {
		command = []string{"/bin/sh"}
	}

	resp := runDaemonCommand(command, req.TTY, conn, plan, snapshot, ownMountNS)
	_ = daemon.WriteJSON(conn, resp)
}

// runDaemonCommand does the full per-connection job on its own locked
// OS thread: re-enter every namespace (including the session's own
// pivoted mount namespace), reassert credentials and capabilities,
// wire stdio across the socket via SCM_RIGHTS, start the command and
// wait for it. It never touches the mount overlay itself — that
// object already exists; this thread only joins it.
func runDaemonCommand(command []string, tty bool, conn *net.UnixConn, plan *Plan, snapshot *procfs.TargetSnapshot, ownMountNS *os.File) daemon.ExecResponse {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	want := make(map[procfs.NamespaceKind]bool, len(plan.NamespaceOrder))
	for _, k := range plan.NamespaceOrder {
		if k != procfs.Mount {
			want[k] = true
		}
	}
	if err := enterNamespacesSubset(plan, want); err != nil {
		return daemon.ExecResponse{Error: err.Error()}
	}
	if ownMountNS != nil {
		if err := unix.Setns(int(ownMountNS.Fd()), unix.CLONE_NEWNS); err != nil {
			return daemon.ExecResponse{Error: fmt.Sprintf("setns(mnt, session root): %v", err)}
		}
	}
	if err := assumeCredentials(plan); err != nil {
		return daemon.ExecResponse{Error: err.Error()}
	}
	if err := reinstateCapabilities(snapshot.Capabilities); err != nil {
		return daemon.ExecResponse{Error: err.Error()}
	}
	joinCgroups(plan.CgroupPaths)
	if err := security.Apply(plan.Security, plan.SecurityMode, plan.NoNewPrivs, plan.SeccompMode); err != nil {
		return daemon.ExecResponse{Error: err.Error()}
	}

	cmd := exec.Command(command[0], command[1:]...)
	cmd.Dir = snapshot.RootPath

	if tty {
		ptmx, err := pty.Start(cmd)
		if err != nil {
			return daemon.ExecResponse{Error: err.Error()}
		}
		defer ptmx.Close()
		if err := daemon.SendFiles(conn, ptmx); err != nil {
			_ = cmd.Process.Kill()
			return daemon.ExecResponse{Error: err.Error()}
		}
		return daemon.ExecResponse{ExitCode: waitExitCode(cmd)}
	}

	r1, w1, err1 := os.Pipe()
	r2, w2, err2 := os.Pipe()
	r3, w3, err3 := os.Pipe()
	if err1 != nil || err2 != nil || err3 != nil {
		return daemon.ExecResponse{Error: "failed to create stdio pipes"}
	}
	defer r1.Close()
	defer w2.Close()
	defer w3.Close()

	cmd.Stdin, cmd.Stdout, cmd.Stderr = r1, w2, w3
	if err := daemon.SendFiles(conn, w1, r2, r3); err != nil {
		w1.Close()
		r2.Close()
		r3.Close()
		return daemon.ExecResponse{Error: err.Error()}
	}
	w1.Close()
	r2.Close()
	r3.Close()

	if err := cmd.Start(); err != nil {
		return daemon.ExecResponse{Error: err.Error()}
	}
	return daemon.ExecResponse{ExitCode: waitExitCode(cmd)}
}

func waitExitCode(cmd *exec.Cmd) int {
	code, _ := exitCodeOf(cmd.Wait())
	return code
}
