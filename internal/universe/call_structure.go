package universe

import (
	"slices"
	"strconv"
	"strings"

	"lumen/internal/elements"
	"lumen/internal/names"
)

// CallStructure is the argument shape of a call site: how many positional
// arguments, which named arguments, how many explicit type arguments. It
// carries no receiver or argument types.
type CallStructure struct {
	Positional uint8
	Named      []names.ID // canonically sorted
	TypeArgs   uint8
}

// NewCallStructure builds a call structure. The named argument list is cloned
// and sorted so equal shapes produce equal keys.
func NewCallStructure(positional int, named []names.ID, typeArgs int) CallStructure {
	cs := CallStructure{
		Positional: uint8(positional),
		TypeArgs:   uint8(typeArgs),
	}
	if len(named) > 0 {
		cs.Named = slices.Clone(named)
		slices.Sort(cs.Named)
	}
	return cs
}

// ArgumentCount is the total number of value arguments at the call site.
func (cs CallStructure) ArgumentCount() int { return int(cs.Positional) + len(cs.Named) }

// Matches reports whether a call of this shape can target a function with
// the given declared parameter structure.
func (cs CallStructure) Matches(p elements.ParameterStructure) bool {
	if cs.Positional < p.Required {
		return false
	}
	if int(cs.Positional) > p.TotalPositional() {
		return false
	}
	if cs.TypeArgs != 0 && p.TypeParams != 0 && cs.TypeArgs != p.TypeParams {
		return false
	}
	if cs.TypeArgs != 0 && p.TypeParams == 0 {
		return false
	}
	for _, n := range cs.Named {
		if !p.HasNamed(n) {
			return false
		}
	}
	return true
}

// encode renders a canonical key fragment: positional, type args and the
// sorted named-argument IDs.
func (cs CallStructure) encode() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(int(cs.Positional)))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(int(cs.TypeArgs)))
	for _, n := range cs.Named {
		b.WriteByte(',')
		b.WriteString(strconv.FormatUint(uint64(n), 10))
	}
	return b.String()
}

// Display renders the shape for traces and reports, e.g. "(2)", "(1,{a,b})"
// or "<1>(0)".
func (cs CallStructure) Display(tab *names.Table) string {
	var b strings.Builder
	if cs.TypeArgs > 0 {
		b.WriteByte('<')
		b.WriteString(strconv.Itoa(int(cs.TypeArgs)))
		b.WriteByte('>')
	}
	b.WriteByte('(')
	b.WriteString(strconv.Itoa(int(cs.Positional)))
	if len(cs.Named) > 0 {
		b.WriteString(",{")
		for i, n := range cs.Named {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(tab.MustLookup(n))
		}
		b.WriteByte('}')
	}
	b.WriteByte(')')
	return b.String()
}
