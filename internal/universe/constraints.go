package universe

import (
	"lumen/internal/elements"
	"lumen/internal/names"
)

// ReceiverConstraint approximates which runtime receivers can flow into one
// dispatch site. A nil constraint on a dynamic use means "any receiver".
type ReceiverConstraint interface {
	// CanHit reports whether a receiver satisfying the constraint may carry
	// member under the given name.
	CanHit(member elements.MemberID, name names.ID, w *elements.World) bool
}

// AnyReceiver is the universal constraint: every receiver passes.
type AnyReceiver struct{}

func (AnyReceiver) CanHit(elements.MemberID, names.ID, *elements.World) bool { return true }

// TypedReceiver constrains the receiver to instances of Class or a subtype.
type TypedReceiver struct {
	Class elements.ClassID
}

func (c TypedReceiver) CanHit(member elements.MemberID, _ names.ID, w *elements.World) bool {
	return w.IsInheritedIn(member, c.Class)
}

// Constraints is the growing receiver-constraint set attached to one
// registered selector.
type Constraints interface {
	// CanHit reports whether any accumulated constraint admits member.
	CanHit(member elements.MemberID, name names.ID, w *elements.World) bool
	// Add merges another receiver constraint and reports whether the set
	// grew. Constraint sets only grow.
	Add(c ReceiverConstraint) bool
}

// Strategy decides how receiver constraints are represented per selector.
type Strategy interface {
	NewConstraints(sel Selector) Constraints
}

// TypedStrategy tracks the set of receiver classes seen per selector and
// answers CanHit through the class hierarchy. This is the precise default.
type TypedStrategy struct{}

func (TypedStrategy) NewConstraints(Selector) Constraints {
	return &typedConstraints{}
}

type typedConstraints struct {
	classes map[elements.ClassID]struct{}
	all     bool
}

func (c *typedConstraints) Add(rc ReceiverConstraint) bool {
	if c.all {
		return false
	}
	switch rc := rc.(type) {
	case nil:
		c.promoteAll()
		return true
	case AnyReceiver:
		c.promoteAll()
		return true
	case TypedReceiver:
		if !rc.Class.IsValid() {
			c.promoteAll()
			return true
		}
		if c.classes == nil {
			c.classes = make(map[elements.ClassID]struct{}, 4)
		}
		if _, ok := c.classes[rc.Class]; ok {
			return false
		}
		c.classes[rc.Class] = struct{}{}
		return true
	default:
		// Unknown constraint shapes are handled soundly: assume anything.
		c.promoteAll()
		return true
	}
}

func (c *typedConstraints) promoteAll() {
	c.all = true
	c.classes = nil
}

func (c *typedConstraints) CanHit(member elements.MemberID, name names.ID, w *elements.World) bool {
	if c.all {
		return true
	}
	for cls := range c.classes {
		if (TypedReceiver{Class: cls}).CanHit(member, name, w) {
			return true
		}
	}
	return false
}

// AnyReceiverStrategy drops receiver information entirely: every registered
// selector hits every name/shape-compatible member. Cheaper and strictly
// more conservative than TypedStrategy.
type AnyReceiverStrategy struct{}

func (AnyReceiverStrategy) NewConstraints(Selector) Constraints {
	return universalConstraints{}
}

type universalConstraints struct{}

func (universalConstraints) CanHit(elements.MemberID, names.ID, *elements.World) bool { return true }

// Add reports no growth: the set is already universal.
func (universalConstraints) Add(ReceiverConstraint) bool { return false }
