package universe

import "lumen/internal/elements"

// TypeUseKind says how a type is used.
type TypeUseKind uint8

const (
	TypeUseInvalid TypeUseKind = iota
	// TypeInstantiation constructs a value of the type.
	TypeInstantiation
	// TypeIsCheck tests a value against the type at runtime.
	TypeIsCheck
)

func (k TypeUseKind) String() string {
	switch k {
	case TypeInstantiation:
		return "instantiation"
	case TypeIsCheck:
		return "is-check"
	default:
		return "invalid"
	}
}

// TypeUse is one observed use of a type.
type TypeUse struct {
	Kind TypeUseKind
	Type elements.TypeID
}
