package universe

import (
	"lumen/internal/elements"
)

// MemberUsage is the per-instance-member liveness state machine. Capabilities
// accumulate monotonically; each transition returns only what it newly added.
//
// Which capabilities a member can still be waiting for is fixed by its kind
// at creation:
//
//	field      normal read+write (read only when the field is read-only)
//	getter     normal read
//	setter     normal write
//	method     normal invoke, closurization read (tear-off)
//
// A usage stays in a pending bucket exactly while the matching pending mask
// has unmet bits.
type MemberUsage struct {
	Member elements.MemberID

	granted        Use
	pendingNormal  Use
	pendingClosure Use
	native         bool
	kind           elements.MemberKind
}

func newMemberUsage(id elements.MemberID, member *elements.Member) *MemberUsage {
	u := &MemberUsage{
		Member: id,
		native: member.IsNative(),
		kind:   member.Kind,
	}
	switch member.Kind {
	case elements.MemberField:
		u.pendingNormal = UseRead | UseWrite
		if member.HasFlag(elements.MemberReadOnly) {
			u.pendingNormal = UseRead
		}
	case elements.MemberGetter:
		u.pendingNormal = UseRead
	case elements.MemberSetter:
		u.pendingNormal = UseWrite
	case elements.MemberMethod:
		u.pendingNormal = UseInvoked
		u.pendingClosure = UseRead
	}
	return u
}

// Granted returns the cumulative capability set.
func (u *MemberUsage) Granted() Use { return u.granted }

// IsLive reports whether any capability has been granted.
func (u *MemberUsage) IsLive() bool { return u.granted != 0 }

// IsNative reports whether the member is host-implemented. Fixed at creation.
func (u *MemberUsage) IsNative() bool { return u.native }

// HasRead reports whether the member has been read or torn off.
func (u *MemberUsage) HasRead() bool { return u.granted.Has(UseRead) }

// HasWrite reports whether the member has been written.
func (u *MemberUsage) HasWrite() bool { return u.granted.Has(UseWrite) }

// HasInvoke reports whether the member has been called.
func (u *MemberUsage) HasInvoke() bool { return u.granted.Has(UseInvoked) }

// HasPendingNormalUse reports whether some read/write/invoke applicable to
// the member has not been demanded yet.
func (u *MemberUsage) HasPendingNormalUse() bool {
	return u.pendingNormal&^u.granted != 0
}

// HasPendingClosurizationUse reports whether the member could still be torn
// off but has not been.
func (u *MemberUsage) HasPendingClosurizationUse() bool {
	return u.pendingClosure&^u.granted != 0
}

// Read grants the read capability and returns the delta.
func (u *MemberUsage) Read() Use {
	return u.add(UseRead)
}

// Write grants the write capability and returns the delta.
func (u *MemberUsage) Write() Use {
	return u.add(UseWrite)
}

// Invoke grants the capability a call demands and returns the delta. Calling
// a field or getter reads it; the value call happens elsewhere. Invoke on a
// setter grants nothing.
func (u *MemberUsage) Invoke() Use {
	switch u.kind {
	case elements.MemberField, elements.MemberGetter:
		return u.Read()
	case elements.MemberSetter:
		return 0
	default:
		return u.add(UseInvoked)
	}
}

// fullUse grants every capability the member kind can carry, including
// tear-off for methods. Used for members reachable from outside the analyzed
// world, e.g. native members.
func (u *MemberUsage) fullUse() Use {
	return u.add(u.pendingNormal | u.pendingClosure)
}

func (u *MemberUsage) add(use Use) Use {
	delta := use &^ u.granted
	u.granted |= use
	return delta
}
