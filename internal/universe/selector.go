package universe

import (
	"lumen/internal/elements"
	"lumen/internal/names"
)

// SelectorKind is the call kind of a dispatch site.
type SelectorKind uint8

const (
	SelectorInvalid SelectorKind = iota
	// SelectorInvoke is a call: receiver.name(args).
	SelectorInvoke
	// SelectorGetter is a read or tear-off: receiver.name.
	SelectorGetter
	// SelectorSetter is a write: receiver.name = value.
	SelectorSetter
)

func (k SelectorKind) String() string {
	switch k {
	case SelectorInvoke:
		return "invoke"
	case SelectorGetter:
		return "get"
	case SelectorSetter:
		return "set"
	default:
		return "invalid"
	}
}

// Selector is the receiver-independent shape of a dispatch site: member name,
// call kind and, for invokes, the argument shape. Selectors with equal name,
// kind and shape are the same registry key.
type Selector struct {
	Kind SelectorKind
	Name names.ID
	Call CallStructure // meaningful for SelectorInvoke only
}

// NewInvokeSelector builds an invoke selector for name with the given shape.
func NewInvokeSelector(name names.ID, call CallStructure) Selector {
	return Selector{Kind: SelectorInvoke, Name: name, Call: call}
}

// NewGetterSelector builds a get selector for name.
func NewGetterSelector(name names.ID) Selector {
	return Selector{Kind: SelectorGetter, Name: name}
}

// NewSetterSelector builds a set selector for name.
func NewSetterSelector(name names.ID) Selector {
	return Selector{Kind: SelectorSetter, Name: name}
}

// selectorKey is the comparable registry key for a selector.
type selectorKey struct {
	kind SelectorKind
	name names.ID
	call string
}

func (s Selector) key() selectorKey {
	k := selectorKey{kind: s.Kind, name: s.Name}
	if s.Kind == SelectorInvoke {
		k.call = s.Call.encode()
	}
	return k
}

// AppliesTo reports whether this selector can target member, judged purely
// by name and shape. Receiver feasibility is the constraint set's concern,
// never this predicate's.
func (s Selector) AppliesTo(member *elements.Member) bool {
	if member == nil || member.Name != s.Name {
		return false
	}
	switch s.Kind {
	case SelectorGetter:
		// Reads hit fields and getters; on a method a read is a tear-off.
		switch member.Kind {
		case elements.MemberField, elements.MemberGetter, elements.MemberMethod:
			return true
		}
		return false
	case SelectorSetter:
		switch member.Kind {
		case elements.MemberField:
			return !member.HasFlag(elements.MemberReadOnly)
		case elements.MemberSetter:
			return true
		}
		return false
	case SelectorInvoke:
		switch member.Kind {
		case elements.MemberField, elements.MemberGetter:
			// Calling a field or getter invokes the value it yields; any
			// argument shape may apply to that value.
			return true
		case elements.MemberMethod:
			return s.Call.Matches(member.Structure)
		}
		return false
	}
	return false
}

// Display renders the selector for traces and reports.
func (s Selector) Display(tab *names.Table) string {
	name := tab.MustLookup(s.Name)
	switch s.Kind {
	case SelectorInvoke:
		return name + s.Call.Display(tab)
	case SelectorGetter:
		return "get:" + name
	case SelectorSetter:
		return "set:" + name
	default:
		return "invalid:" + name
	}
}
