package procfs

import "golang.org/x/sys/unix"

// setDumpable sets PR_SET_DUMPABLE to value and returns a closure that
// restores the previous value. Used to narrow the window in which
// /proc/self/ns/* becomes readable under the CNTR_ALLOW_SETCAP
// workaround (SPEC_FULL.md supplement 5) to just the snapshot read.
func setDumpable(value int) func() {
	previous, _ := unix.PrctlRetInt(unix.PR_GET_DUMPABLE, 0, 0, 0, 0)
	_ = unix.Prctl(unix.PR_SET_DUMPABLE, uintptr(value), 0, 0, 0)
	return func() {
		_ = unix.Prctl(unix.PR_SET_DUMPABLE, uintptr(previous), 0, 0, 0)
	}
}
