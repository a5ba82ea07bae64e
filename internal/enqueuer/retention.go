package enqueuer

import (
	"fmt"
	"strings"

	"lumen/internal/elements"
	"lumen/internal/universe"
)

// CauseKind says how an entity first became live.
type CauseKind uint8

const (
	CauseNone       CauseKind = iota
	CauseRoot                 // registered as an entry point
	CauseImpact               // reached while applying another member's impact
	CauseActivation           // reached while enumerating an instantiated class's members
)

// String returns the string representation of CauseKind.
func (k CauseKind) String() string {
	switch k {
	case CauseRoot:
		return "root"
	case CauseImpact:
		return "impact"
	case CauseActivation:
		return "activation"
	default:
		return "none"
	}
}

// Cause records the work item that first made an entity live.
// Member is set for CauseImpact, Class for CauseActivation.
type Cause struct {
	Kind   CauseKind
	Member elements.MemberID
	Class  elements.ClassID
}

// Step is one link in a retention chain. Exactly one of Member and Class
// is valid; Use is the accumulated capability set of that entity.
type Step struct {
	Member elements.MemberID
	Class  elements.ClassID
	Use    universe.Use
	Cause  Cause
}

// Display renders a step for the explain command, e.g.
// "Point.x [read] <- activation of Point".
func (s Step) Display(w *elements.World) string {
	var sb strings.Builder
	if s.Member.IsValid() {
		sb.WriteString(w.MemberDisplay(s.Member))
	} else {
		sb.WriteString(w.ClassName(s.Class))
	}
	fmt.Fprintf(&sb, " [%s]", s.Use)

	switch s.Cause.Kind {
	case CauseRoot:
		sb.WriteString(" <- root")
	case CauseImpact:
		fmt.Fprintf(&sb, " <- impact of %s", w.MemberDisplay(s.Cause.Member))
	case CauseActivation:
		fmt.Fprintf(&sb, " <- activation of %s", w.ClassName(s.Cause.Class))
	}
	return sb.String()
}

// retention accumulates liveness provenance during the fixpoint run.
// The first recorded cause wins; use deltas keep accumulating.
type retention struct {
	memberCause map[elements.MemberID]Cause
	memberUse   map[elements.MemberID]universe.Use
	classCause  map[elements.ClassID]Cause
	classUse    map[elements.ClassID]universe.Use
}

func newRetention() *retention {
	return &retention{
		memberCause: make(map[elements.MemberID]Cause),
		memberUse:   make(map[elements.MemberID]universe.Use),
		classCause:  make(map[elements.ClassID]Cause),
		classUse:    make(map[elements.ClassID]universe.Use),
	}
}

func (r *retention) recordMember(id elements.MemberID, delta universe.Use, cause Cause) {
	if _, ok := r.memberCause[id]; !ok {
		r.memberCause[id] = cause
	}
	r.memberUse[id] |= delta
}

func (r *retention) recordClass(cls elements.ClassID, delta universe.Use, cause Cause) {
	if _, ok := r.classCause[cls]; !ok {
		r.classCause[cls] = cause
	}
	r.classUse[cls] |= delta
}

// explainMember walks first causes from a member back to a root.
// Visited guards cap the walk even if the recorded edges ever form a loop.
func (r *retention) explainMember(id elements.MemberID) []Step {
	if _, ok := r.memberCause[id]; !ok {
		return nil
	}

	var steps []Step
	seenMembers := make(map[elements.MemberID]struct{})
	seenClasses := make(map[elements.ClassID]struct{})

	member := id
	for member.IsValid() {
		if _, dup := seenMembers[member]; dup {
			break
		}
		seenMembers[member] = struct{}{}

		cause, ok := r.memberCause[member]
		if !ok {
			break
		}
		steps = append(steps, Step{Member: member, Use: r.memberUse[member], Cause: cause})

		switch cause.Kind {
		case CauseImpact:
			member = cause.Member

		case CauseActivation:
			// Hop through the class, then resume from the member whose
			// impact instantiated it.
			cls := cause.Class
			if _, dup := seenClasses[cls]; dup {
				return steps
			}
			seenClasses[cls] = struct{}{}

			ccause, ok := r.classCause[cls]
			if !ok {
				return steps
			}
			steps = append(steps, Step{Class: cls, Use: r.classUse[cls], Cause: ccause})
			if ccause.Kind != CauseImpact || !ccause.Member.IsValid() {
				return steps
			}
			member = ccause.Member

		default:
			return steps
		}
	}
	return steps
}

func (r *retention) explainClass(cls elements.ClassID) []Step {
	cause, ok := r.classCause[cls]
	if !ok {
		return nil
	}

	steps := []Step{{Class: cls, Use: r.classUse[cls], Cause: cause}}
	if cause.Kind == CauseImpact && cause.Member.IsValid() {
		steps = append(steps, r.explainMember(cause.Member)...)
	}
	return steps
}
