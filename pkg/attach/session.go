package attach

import (
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/cntrtool/cntr/pkg/cntrerr"
	"github.com/creack/pty"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Streams bundles the I/O file descriptors an attach or exec session
// inherits from the CLI front end (spec §1: "stdio is inherited").
type Streams struct {
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File
}

// result is the outcome of the locked-thread goroutine standing in for
// spec §4.C's attach child.
type result struct {
	exitCode int
	err      error
}

// runCommand execs cmd, allocating a PTY when stdin is a terminal, and
// translates its outcome into the (exitCode, err) pair spec §6
// describes: "0 iff the user command exits 0; otherwise the user
// command's exit code or 128+signal".
func runCommand(cmd *exec.Cmd, streams Streams, ptyChan chan<- *os.File, doneChan chan struct{}) (int, error) {
	interactive := streams.Stdin != nil && isTerminal(streams.Stdin)

	if interactive {
		ptmx, err := pty.Start(cmd)
		if err != nil {
			close(doneChan)
			wrapped := cntrerr.New(cntrerr.ExecFailed, "start command", err)
			return cntrerr.ExitCode(wrapped), wrapped
		}
		defer ptmx.Close()

		if size, err := pty.GetsizeFull(streams.Stdin); err == nil {
			_ = pty.Setsize(ptmx, size)
		}
		ptyChan <- ptmx

		stdoutDone := make(chan struct{})
		go func() {
			_, _ = io.Copy(ptmx, streams.Stdin)
		}()
		go func() {
			_, _ = io.Copy(streams.Stdout, ptmx)
			close(stdoutDone)
		}()
		<-stdoutDone
		close(doneChan)

		return exitCodeOf(cmd.Wait())
	}

	cmd.Stdin = streams.Stdin
	cmd.Stdout = streams.Stdout
	cmd.Stderr = streams.Stderr
	err := cmd.Run()
	close(doneChan)
	return exitCodeOf(err)
}

// exitCodeOf implements spec §6's exit-code mapping: the user command's
// own exit code, or 128+signal if it died by signal. An error that
// isn't a *exec.ExitError means the command never started at all (e.g.
// the binary doesn't exist), spec §8 scenario 3's ExecFailed/127 case.
func exitCodeOf(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	exitErr, ok := err.(*exec.ExitError)
	if !ok {
		wrapped := cntrerr.New(cntrerr.ExecFailed, "start command", err)
		return cntrerr.ExitCode(wrapped), wrapped
	}
	// (*os.ProcessState).Sys() returns a syscall.WaitStatus on linux;
	// unix.WaitStatus is a distinct, non-aliased type and never matches
	// here.
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal()), nil
	}
	return exitErr.ExitCode(), nil
}

// waitForResult is the "parent" half of spec §5's cancellation model:
// it forwards SIGWINCH to the PTY for the session's lifetime and
// SIGINT/SIGTERM/SIGHUP to the child process once one exists. Before
// cmdChan yields a command there is nothing yet to forward a signal to,
// matching spec §5's "before execve" window where only the namespace
// setup itself is in flight.
func waitForResult(cmdChan <-chan *exec.Cmd, resChan <-chan result, ptyChan <-chan *os.File, doneChan <-chan struct{}, stdin *os.File) (int, error) {
	sigChan := make(chan os.Signal, 4)
	signal.Notify(sigChan, unix.SIGWINCH, unix.SIGINT, unix.SIGTERM, unix.SIGHUP)
	defer signal.Stop(sigChan)

	var cmd *exec.Cmd
	var ptmx *os.File

	for cmd == nil {
		select {
		case cmd = <-cmdChan:
		case res := <-resChan:
			return res.exitCode, res.err
		}
	}

	go func() {
		for {
			select {
			case ptmx = <-ptyChan:
			case sig := <-sigChan:
				switch sig {
				case unix.SIGWINCH:
					if ptmx != nil && stdin != nil {
						if size, err := pty.GetsizeFull(stdin); err == nil {
							_ = pty.Setsize(ptmx, size)
						}
					}
				default:
					if cmd.Process != nil {
						_ = cmd.Process.Signal(sig.(unix.Signal))
					}
				}
			case <-doneChan:
				return
			}
		}
	}()

	res := <-resChan
	return res.exitCode, res.err
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
