package daemon

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"
)

// SendFiles passes the given descriptors to the peer over a Unix
// socket connection via a single SCM_RIGHTS control message, the
// standard Go idiom for handing FDs across a process boundary (the
// same mechanism libcontainer-style runtimes use for console sockets).
func SendFiles(conn *net.UnixConn, files ...*os.File) error {
	fds := make([]int, len(files))
	for i, f := range files {
		fds[i] = int(f.Fd())
	}
	rights := unix.UnixRights(fds...)
	_, _, err := conn.WriteMsgUnix(nil, rights, nil)
	return err
}

// RecvFiles reads a single SCM_RIGHTS control message off conn and
// returns every file descriptor it carried, wrapped as *os.File.
func RecvFiles(conn *net.UnixConn, want int) ([]*os.File, error) {
	oob := make([]byte, unix.CmsgSpace(4*want))
	_, oobn, _, _, err := conn.ReadMsgUnix(nil, oob)
	if err != nil {
		return nil, err
	}
	msgs, err := unix.ParseSocketControlMessage(oob[:oobn])
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("no control message received")
	}
	fds, err := unix.ParseUnixRights(&msgs[0])
	if err != nil {
		return nil, err
	}
	if len(fds) == 0 {
		return nil, fmt.Errorf("control message carried no file descriptors")
	}
	files := make([]*os.File, len(fds))
	for i, fd := range fds {
		files[i] = os.NewFile(uintptr(fd), "cntr-fd")
	}
	return files, nil
}
