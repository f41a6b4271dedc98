package daemon

import (
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"

	"golang.org/x/term"
)

// Enter connects to the daemon socket inside an already-attached
// session at base_dir and runs command there, shuttling stdio through
// the returned PTY when stdin is a terminal, or through three returned
// pipes otherwise. It never touches backend resolution or namespace
// entry: the server on the other end handles namespace entry for each
// connection.
func Enter(baseDir string, command []string, stdin, stdout *os.File) (int, error) {
	path := filepath.Join(baseDir, SocketName)
	addr, err := net.ResolveUnixAddr("unix", path)
	if err != nil {
		return 0, fmt.Errorf("resolving daemon socket %s: %w", path, err)
	}
	conn, err := net.DialUnix("unix", nil, addr)
	if err != nil {
		return 0, fmt.Errorf("connecting to daemon socket %s (is a cntr attach session running?): %w", path, err)
	}
	defer conn.Close()

	interactive := stdin != nil && term.IsTerminal(int(stdin.Fd()))
	req := ExecRequest{Command: command, TTY: interactive}
	if err := WriteJSON(conn, req); err != nil {
		return 0, fmt.Errorf("sending exec request: %w", err)
	}

	if interactive {
		files, err := RecvFiles(conn, 1)
		if err != nil {
			return 0, fmt.Errorf("receiving pty from daemon: %w", err)
		}
		ptmx := files[0]
		defer ptmx.Close()

		go func() { _, _ = io.Copy(ptmx, stdin) }()
		go func() { _, _ = io.Copy(stdout, ptmx) }()
	} else {
		files, err := RecvFiles(conn, 3)
		if err != nil {
			return 0, fmt.Errorf("receiving stdio from daemon: %w", err)
		}
		remoteStdin, remoteStdout, remoteStderr := files[0], files[1], files[2]
		defer remoteStdin.Close()
		defer remoteStdout.Close()
		defer remoteStderr.Close()

		go func() { _, _ = io.Copy(remoteStdin, stdin); remoteStdin.Close() }()
		go func() { _, _ = io.Copy(stdout, remoteStdout) }()
		go func() { _, _ = io.Copy(os.Stderr, remoteStderr) }()
	}

	var resp ExecResponse
	if err := ReadJSON(conn, &resp); err != nil {
		return 0, fmt.Errorf("reading exec response: %w", err)
	}
	if resp.Error != "" {
		return 0, fmt.Errorf("remote exec failed: %s", resp.Error)
	}
	return resp.ExitCode, nil
}
