// Package cntrerr defines the error kinds shared across the discovery,
// inspection, attach, mount and security-context stages, so the CLI can
// map a failure to an exit code without string-matching messages.
package cntrerr

import (
	"errors"
	"fmt"
)

// Kind identifies which of the documented failure modes occurred.
type Kind string

const (
	InsufficientPrivilege Kind = "InsufficientPrivilege"
	NoSuchContainer       Kind = "NoSuchContainer"
	AmbiguousSelector     Kind = "AmbiguousSelector"
	NoSuchPid             Kind = "NoSuchPid"
	PermissionDenied      Kind = "PermissionDenied"
	KernelTooOld          Kind = "KernelTooOld"
	NamespaceEnterFailed  Kind = "NamespaceEnterFailed"
	MountOverlayFailed    Kind = "MountOverlayFailed"
	SecurityContextFailed Kind = "SecurityContextFailed"
	ExecFailed            Kind = "ExecFailed"
	BackendTimeout        Kind = "BackendTimeout"
)

// Error wraps an underlying error with the kind and operation that
// produced it, e.g. "NamespaceEnterFailed: entering mnt namespace: ...".
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error for the given kind and operation.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind of err, or "" if err was not produced by this
// package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// ExitCode maps a core failure to the process exit code a core failure
// uses before execve ever runs (spec §7: "Core failures before execve
// use dedicated codes").
func ExitCode(err error) int {
	switch KindOf(err) {
	case InsufficientPrivilege:
		return 126
	case NoSuchContainer, NoSuchPid:
		return 127
	case PermissionDenied:
		return 77
	case KernelTooOld:
		return 95
	case NamespaceEnterFailed, MountOverlayFailed, SecurityContextFailed:
		return 125
	case ExecFailed:
		return 127
	default:
		return 125
	}
}
