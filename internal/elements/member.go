package elements

import "lumen/internal/names"

// MemberKind classifies the semantic shape of a member.
type MemberKind uint8

const (
	MemberInvalid MemberKind = iota
	MemberField
	MemberGetter
	MemberSetter
	MemberMethod
	MemberConstructor
)

func (k MemberKind) String() string {
	switch k {
	case MemberField:
		return "field"
	case MemberGetter:
		return "getter"
	case MemberSetter:
		return "setter"
	case MemberMethod:
		return "method"
	case MemberConstructor:
		return "constructor"
	default:
		return "invalid"
	}
}

// MemberFlags encode misc member attributes for quick checks.
type MemberFlags uint8

const (
	// MemberStatic marks a class-level member without a receiver.
	MemberStatic MemberFlags = 1 << iota
	// MemberTopLevel marks a member declared outside any class.
	MemberTopLevel
	// MemberNative marks a member whose body lives in the host platform.
	// Native members are considered reachable the moment their class is.
	MemberNative
	// MemberReadOnly marks a field without a setter.
	MemberReadOnly
	// MemberAbstract marks an instance member without a body.
	MemberAbstract
)

// HasFlag returns true if the given flag is set.
func (f MemberFlags) HasFlag(flag MemberFlags) bool {
	return f&flag != 0
}

// Param describes one declared parameter.
type Param struct {
	Name     names.ID
	Optional bool // optional positional
	Named    bool // named (implies optional)
}

// ParameterStructure is the shape of a member's parameter list, the only part
// of a signature that call-site matching looks at.
type ParameterStructure struct {
	Required   uint8
	Optional   uint8 // optional positional
	Named      []names.ID
	TypeParams uint8
}

// TotalPositional returns the maximum number of positional arguments.
func (p ParameterStructure) TotalPositional() int {
	return int(p.Required) + int(p.Optional)
}

// HasNamed reports whether name is among the declared named parameters.
func (p ParameterStructure) HasNamed(name names.ID) bool {
	for _, n := range p.Named {
		if n == name {
			return true
		}
	}
	return false
}

// Member describes a declared member. Instances are arena-owned; refer to
// them by MemberID.
type Member struct {
	Name      names.ID
	Kind      MemberKind
	Flags     MemberFlags
	Owner     ClassID // NoClassID for top-level members
	Params    []Param
	Structure ParameterStructure // derived from Params at build time
}

// HasFlag reports whether flag is set on the member.
func (m *Member) HasFlag(flag MemberFlags) bool { return m.Flags.HasFlag(flag) }

// IsInstanceMember reports whether the member dispatches on a receiver.
func (m *Member) IsInstanceMember() bool {
	return m.Owner.IsValid() &&
		!m.Flags.HasFlag(MemberStatic) &&
		!m.Flags.HasFlag(MemberTopLevel) &&
		m.Kind != MemberConstructor
}

// IsStaticOrTopLevel reports whether the member is schedulable without a
// receiver.
func (m *Member) IsStaticOrTopLevel() bool {
	return m.Flags.HasFlag(MemberStatic) || m.Flags.HasFlag(MemberTopLevel)
}

// IsFunction reports whether the member is function-shaped (has a body that
// is invoked rather than read or written).
func (m *Member) IsFunction() bool {
	return m.Kind == MemberMethod || m.Kind == MemberConstructor
}

// IsNative reports whether the member body lives in the host platform.
func (m *Member) IsNative() bool { return m.Flags.HasFlag(MemberNative) }
