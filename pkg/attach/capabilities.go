package attach

import (
	"github.com/sirupsen/logrus"
	"github.com/syndtr/gocapability/capability"
)

var capLog = logrus.WithField("component", "attach")

// forcedBoundingCaps are always retained regardless of what the
// snapshot captured (SPEC_FULL.md supplement 3, ported from
// original_source/src/capabilities.rs): CAP_SYS_CHROOT for exec mode's
// chroot, CAP_SYS_PTRACE because reading the target's /proc required it
// in the first place.
var forcedBoundingCaps = []capability.Cap{capability.CAP_SYS_CHROOT, capability.CAP_SYS_PTRACE}

// reinstateCapabilities reinstalls the four classical capability sets
// from target onto the calling process, then the ambient set (spec
// §4.C step 3). When the host caller lacks a capability the target
// held — e.g. target was uid 0 in its own user namespace but the
// caller is not — the kernel clips it; that clipping is accepted
// silently, mirroring what nsenter does (spec §9).
func reinstateCapabilities(target capability.Capabilities) error {
	self, err := capability.NewPid2(0)
	if err != nil {
		return err
	}
	if err := self.Load(); err != nil {
		return err
	}

	all := capability.List()

	for _, which := range []capability.CapType{capability.EFFECTIVE, capability.PERMITTED, capability.INHERITABLE, capability.BOUNDING} {
		self.Clear(which)
		for _, c := range all {
			if target.Get(which, c) {
				self.Set(which, c)
			}
		}
	}
	self.Set(capability.BOUNDING, forcedBoundingCaps...)
	self.Set(capability.PERMITTED, forcedBoundingCaps...)
	self.Set(capability.EFFECTIVE, forcedBoundingCaps...)

	if err := self.Apply(capability.CAPS | capability.BOUNDING); err != nil {
		capLog.WithError(err).Debug("capability set clipped by kernel, continuing with reduced set")
	}

	self.Clear(capability.AMBIENT)
	for _, c := range all {
		if target.Get(capability.AMBIENT, c) {
			self.Set(capability.AMBIENT, c)
		}
	}
	if err := self.Apply(capability.AMBIENT); err != nil {
		capLog.WithError(err).Debug("ambient capability set clipped by kernel, continuing with reduced set")
	}

	return nil
}
