package universe

import (
	"lumen/internal/elements"
	"lumen/internal/fault"
)

// StaticMemberUsage is the liveness state machine for statically resolved
// targets: static and top-level members, constructors and super-resolved
// instance members. Two variants exist and the choice is made once, at first
// reference:
//
//	function-shaped targets own a real tear-off capability
//	everything else folds tear-off into normal use
type StaticMemberUsage struct {
	Member elements.MemberID

	granted  Use
	function bool
}

func newStaticMemberUsage(id elements.MemberID, function bool) *StaticMemberUsage {
	return &StaticMemberUsage{Member: id, function: function}
}

// Granted returns the cumulative capability set.
func (u *StaticMemberUsage) Granted() Use { return u.granted }

// IsLive reports whether any capability has been granted.
func (u *StaticMemberUsage) IsLive() bool { return u.granted != 0 }

// HasNormalUse reports whether the target has been used directly.
func (u *StaticMemberUsage) HasNormalUse() bool { return u.granted.Has(UseNormal) }

// HasTearOff reports whether the target has been referenced as a value.
func (u *StaticMemberUsage) HasTearOff() bool { return u.granted.Has(UseTearOff) }

// checkVariant asserts the function/general decision is stable for the
// lifetime of the usage.
func (u *StaticMemberUsage) checkVariant(function bool) {
	fault.Check(u.function == function,
		"static usage variant changed for member %d", uint32(u.Member))
}

// NormalUse grants the ordinary-use capability and returns the delta.
func (u *StaticMemberUsage) NormalUse() Use {
	return u.add(UseNormal)
}

// TearOff grants the tear-off capability and returns the delta. Tearing off
// a function also counts as using it normally; on a non-function target a
// tear-off degrades to a normal use.
func (u *StaticMemberUsage) TearOff() Use {
	if u.function {
		return u.add(UseTearOff | UseNormal)
	}
	return u.add(UseNormal)
}

func (u *StaticMemberUsage) add(use Use) Use {
	delta := use &^ u.granted
	u.granted |= use
	return delta
}
