package universe

import "lumen/internal/elements"

// ClassUsage is the per-class liveness state machine. Both flags are
// monotonic: once set they never clear, and instantiated implies implemented.
type ClassUsage struct {
	Class elements.ClassID

	instantiated bool
	implemented  bool
}

func newClassUsage(cls elements.ClassID) *ClassUsage {
	return &ClassUsage{Class: cls}
}

// IsInstantiated reports whether some value is constructed from this class
// or one of its subclasses.
func (u *ClassUsage) IsInstantiated() bool { return u.instantiated }

// IsImplemented reports whether the class is the type of some instantiated
// value, directly or through a subtype.
func (u *ClassUsage) IsImplemented() bool { return u.implemented }

// Instantiate marks the class instantiated and returns the newly added
// capabilities. Instantiation carries implementation with it.
func (u *ClassUsage) Instantiate() Use {
	var delta Use
	if !u.instantiated {
		u.instantiated = true
		delta |= UseInstantiated
	}
	if !u.implemented {
		u.implemented = true
		delta |= UseImplemented
	}
	return delta
}

// Implement marks the class implemented and returns the newly added
// capabilities.
func (u *ClassUsage) Implement() Use {
	if u.implemented {
		return 0
	}
	u.implemented = true
	return UseImplemented
}
