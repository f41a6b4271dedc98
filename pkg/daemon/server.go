package daemon

import (
	"net"
	"os"
	"path/filepath"
)

// Server listens on <base_dir>/.exec.sock for the lifetime of one
// attach session (spec supplement 1). It knows nothing about
// namespaces, credentials or exec.Cmd: that domain logic belongs to
// whatever calls Serve, since each connection's command must be
// started from a thread that has already setns'd into the session's
// namespaces, something this package has no way to arrange itself.
type Server struct {
	listener *net.UnixListener
	path     string
}

// Listen binds the daemon socket at <base_dir>/.exec.sock, removing a
// stale socket left behind by a previous session (mirrors the
// original's bind_internal, which does the same before bind(2)).
func Listen(baseDir string) (*Server, error) {
	path := filepath.Join(baseDir, SocketName)
	_ = os.Remove(path)

	addr, err := net.ResolveUnixAddr("unix", path)
	if err != nil {
		return nil, err
	}
	l, err := net.ListenUnix("unix", addr)
	if err != nil {
		return nil, err
	}
	return &Server{listener: l, path: path}, nil
}

// Close stops accepting connections and removes the socket file, the
// Go equivalent of the original's Drop impl for DaemonSocket.
func (s *Server) Close() error {
	err := s.listener.Close()
	_ = os.Remove(s.path)
	return err
}

// Serve accepts connections until the listener closes, handing each
// one to handle in its own goroutine. handle owns the full
// request/response cycle: reading the ExecRequest, spawning whatever
// it spawns, and writing the ExecResponse.
func (s *Server) Serve(handle func(conn *net.UnixConn)) {
	for {
		conn, err := s.listener.AcceptUnix()
		if err != nil {
			return
		}
		go handle(conn)
	}
}
