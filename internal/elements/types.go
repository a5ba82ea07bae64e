package elements

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"lumen/internal/names"
)

// TypeKind classifies an interned instance type.
type TypeKind uint8

const (
	TypeInvalid TypeKind = iota
	// TypeDynamic is the unknown/any type.
	TypeDynamic
	// TypeClass is a (possibly generic) class instantiation.
	TypeClass
	// TypeVariable is an unsubstituted type variable, kept only so type
	// arguments recorded before substitution stay representable.
	TypeVariable
)

// Type is the structural descriptor behind a TypeID.
type Type struct {
	Kind  TypeKind
	Class ClassID  // for TypeClass
	Args  []TypeID // for TypeClass
	Name  names.ID // for TypeVariable
}

// typeInterner provides stable TypeIDs by hashing structural keys.
type typeInterner struct {
	types   []Type
	index   map[string]TypeID
	dynamic TypeID
}

func newTypeInterner() *typeInterner {
	in := &typeInterner{
		types: make([]Type, 1, 32), // index 0 reserved for NoTypeID
		index: make(map[string]TypeID, 32),
	}
	in.dynamic = in.intern(Type{Kind: TypeDynamic})
	return in
}

func typeKey(t Type) string {
	var b strings.Builder
	b.WriteByte(byte('0' + t.Kind))
	b.WriteByte(':')
	b.WriteString(strconv.FormatUint(uint64(t.Class), 10))
	b.WriteByte(':')
	b.WriteString(strconv.FormatUint(uint64(t.Name), 10))
	for _, a := range t.Args {
		b.WriteByte('#')
		b.WriteString(strconv.FormatUint(uint64(a), 10))
	}
	return b.String()
}

func (in *typeInterner) intern(t Type) TypeID {
	if t.Kind == TypeInvalid {
		return NoTypeID
	}
	key := typeKey(t)
	if id, ok := in.index[key]; ok {
		return id
	}
	// Own the argument slice so later caller mutation cannot alias the table.
	t.Args = slices.Clone(t.Args)
	id := TypeID(len(in.types))
	in.types = append(in.types, t)
	in.index[key] = id
	return id
}

func (in *typeInterner) lookup(id TypeID) (Type, bool) {
	if !id.IsValid() || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// DynamicType returns the interned dynamic type.
func (w *World) DynamicType() TypeID { return w.types.dynamic }

// InternClassType returns a stable TypeID for cls instantiated with args.
// A nil or empty args slice yields the raw class type.
func (w *World) InternClassType(cls ClassID, args []TypeID) TypeID {
	if !cls.IsValid() {
		return NoTypeID
	}
	return w.types.intern(Type{Kind: TypeClass, Class: cls, Args: args})
}

// InternTypeVariable returns a stable TypeID for the named type variable.
func (w *World) InternTypeVariable(name names.ID) TypeID {
	return w.types.intern(Type{Kind: TypeVariable, Name: name})
}

// Type returns the descriptor behind id; ok is false for an unknown ID.
func (w *World) Type(id TypeID) (Type, bool) {
	return w.types.lookup(id)
}

// ClassOfType returns the class behind a TypeClass ID, or NoClassID.
func (w *World) ClassOfType(id TypeID) ClassID {
	t, ok := w.types.lookup(id)
	if !ok || t.Kind != TypeClass {
		return NoClassID
	}
	return t.Class
}

// TypeString renders a type for reports and traces.
func (w *World) TypeString(id TypeID) string {
	t, ok := w.types.lookup(id)
	if !ok {
		return "<invalid>"
	}
	switch t.Kind {
	case TypeDynamic:
		return "dynamic"
	case TypeVariable:
		return w.names.MustLookup(t.Name)
	case TypeClass:
		base := w.ClassName(t.Class)
		if len(t.Args) == 0 {
			return base
		}
		parts := make([]string, len(t.Args))
		for i, a := range t.Args {
			parts[i] = w.TypeString(a)
		}
		return fmt.Sprintf("%s<%s>", base, strings.Join(parts, ", "))
	default:
		return "<invalid>"
	}
}
