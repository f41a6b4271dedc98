// Package mount builds the nested-mount overlay inside the attach
// child's freshly unshared mount namespace (spec §4.D): host root stays
// visible at /, the container's original root becomes visible at
// BaseDir, and a curated set of container-origin identity files are
// bound over their host counterparts.
package mount

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cntrtool/cntr/pkg/cntrerr"
	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

var log = logrus.WithField("component", "mount")

// identityFiles is the curated set of container-origin files bound
// over their host counterparts (spec §4.D property 3). Each one, shadow
// included, is bound only if the container's copy exists and is
// readable.
var identityFiles = []string{
	"/etc/passwd",
	"/etc/group",
	"/etc/hostname",
	"/etc/hosts",
	"/etc/resolv.conf",
	"/etc/shadow",
}

// newRootDir and oldRootDir are scratch paths used during pivot_root.
// newRootDir is created in the container's filesystem and becomes the
// mount point of the new root; oldRootDir is created inside the host
// tree moved onto it and is removed again after pivot_root. The mounts
// made on them stay in this package's private mount namespace.
const (
	newRootDir = "/run/cntr-newroot"
	oldRootDir = newRootDir + "/.cntr-oldroot"
)

// CaptureHostTree opens a detached clone of the host's "/" via
// open_tree(OPEN_TREE_CLONE|AT_RECURSIVE). Must be called before the
// attach child enters the target's mount namespace (spec §4.D step 1):
// the detached tree survives the namespace switch because it is
// referenced by file descriptor, not by path.
func CaptureHostTree() (int, error) {
	fd, err := unix.OpenTree(unix.AT_FDCWD, "/", unix.OPEN_TREE_CLONE|unix.AT_RECURSIVE)
	if err != nil {
		return -1, kernelTooOldOr(cntrerr.MountOverlayFailed, "open_tree(host /)", err)
	}
	return fd, nil
}

// Build assembles the composite root described in spec §4.D, once the
// calling thread has already entered the target's mount namespace
// (and, besides it, at most the target's user namespace so far — spec
// §4.D step 2 precedes step 3 here). hostTreeFD is the detached host tree from CaptureHostTree.
// baseDir is where the container's original root becomes visible.
//
// On return, pivot_root has completed: the calling thread's / is the
// composite root, with the host tree remounted at / and the
// container's original root bind-mounted at baseDir.
func Build(hostTreeFD int, baseDir string) error {
	if err := unix.Unshare(unix.CLONE_NEWNS); err != nil {
		return cntrerr.New(cntrerr.MountOverlayFailed, "unshare mount namespace", err)
	}
	if err := unix.Mount("", "/", "", unix.MS_REC|unix.MS_PRIVATE, ""); err != nil {
		return cntrerr.New(cntrerr.MountOverlayFailed, "make mount tree private", err)
	}

	// Capture the container's own root (we are inside its mount
	// namespace at this point) before we move anything.
	containerTreeFD, err := unix.OpenTree(unix.AT_FDCWD, "/", unix.OPEN_TREE_CLONE|unix.AT_RECURSIVE)
	if err != nil {
		return kernelTooOldOr(cntrerr.MountOverlayFailed, "open_tree(container /)", err)
	}
	defer unix.Close(containerTreeFD)

	if err := os.MkdirAll(newRootDir, 0755); err != nil {
		return cntrerr.New(cntrerr.MountOverlayFailed, "create new root scratch dir", err)
	}
	if err := unix.Mount("tmpfs", newRootDir, "tmpfs", 0, "size=64k"); err != nil {
		return cntrerr.New(cntrerr.MountOverlayFailed, "mount tmpfs for new root", err)
	}

	// Move the detached host tree onto the new root.
	if err := unix.MoveMount(hostTreeFD, "", unix.AT_FDCWD, newRootDir, unix.MOVE_MOUNT_F_EMPTY_PATH); err != nil {
		return cntrerr.New(cntrerr.MountOverlayFailed, "move_mount host tree onto new root", err)
	}

	// Bind the container's original root at <new_root>/<base_dir>.
	containerMountPoint := filepath.Join(newRootDir, baseDir)
	if err := os.MkdirAll(containerMountPoint, 0755); err != nil {
		return cntrerr.New(cntrerr.MountOverlayFailed, "create base_dir mountpoint", err)
	}
	if err := unix.MoveMount(containerTreeFD, "", unix.AT_FDCWD, containerMountPoint, unix.MOVE_MOUNT_F_EMPTY_PATH); err != nil {
		return cntrerr.New(cntrerr.MountOverlayFailed, "move_mount container tree onto base_dir", err)
	}

	if err := os.MkdirAll(oldRootDir, 0700); err != nil {
		return cntrerr.New(cntrerr.MountOverlayFailed, "create pivot_root scratch dir", err)
	}
	if err := unix.PivotRoot(newRootDir, oldRootDir); err != nil {
		return cntrerr.New(cntrerr.MountOverlayFailed, "pivot_root", err)
	}
	if err := os.Chdir("/"); err != nil {
		return cntrerr.New(cntrerr.MountOverlayFailed, "chdir / after pivot_root", err)
	}

	oldRootRelative := "/" + filepath.Base(oldRootDir)
	if err := unix.Unmount(oldRootRelative, unix.MNT_DETACH); err != nil {
		log.WithError(err).Debug("failed to detach old root, continuing (it is private to this namespace anyway)")
	}
	_ = os.RemoveAll(oldRootRelative)

	if err := bindIdentityFiles(baseDir); err != nil {
		log.WithError(err).Warn("failed to bind some identity files, continuing with partial overlay")
	}

	return nil
}

// bindIdentityFiles implements spec §4.D property 3: for each
// identity file, attempt open_tree on <base_dir>/etc/<file> and
// move_mount it over /etc/<file>. Missing or unreadable source files
// are skipped.
// securejoin resolves the source path the same way runc resolves
// container-rootfs-relative paths: base_dir's own contents are
// container-controlled, and a malicious symlink inside it (e.g.
// /etc/passwd -> /etc/shadow -> ../../etc/some-host-file) must not let
// the join escape base_dir.
func bindIdentityFiles(baseDir string) error {
	var firstErr error
	for _, name := range identityFiles {
		source, err := securejoin.SecureJoin(baseDir, name)
		if err != nil {
			continue
		}
		if err := unix.Access(source, unix.R_OK); err != nil {
			continue
		}

		fd, err := unix.OpenTree(unix.AT_FDCWD, source, unix.OPEN_TREE_CLONE)
		if err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("open_tree(%s): %w", source, err)
			}
			continue
		}

		if err := unix.MoveMount(fd, "", unix.AT_FDCWD, name, unix.MOVE_MOUNT_F_EMPTY_PATH); err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("move_mount(%s -> %s): %w", source, name, err)
			}
		}
		unix.Close(fd)
	}
	return firstErr
}

func kernelTooOldOr(fallback cntrerr.Kind, op string, err error) error {
	if err == unix.ENOSYS || err == unix.EOPNOTSUPP {
		return cntrerr.New(cntrerr.KernelTooOld, op, err)
	}
	return cntrerr.New(fallback, op, err)
}
