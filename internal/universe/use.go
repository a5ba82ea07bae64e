package universe

import "strings"

// Use is a small capability bit-set. Transitions on usage state machines
// return the capabilities they newly added, so callers can test "did anything
// change" without re-deriving state.
type Use uint8

const (
	// UseRead marks a field/getter read or a method tear-off.
	UseRead Use = 1 << iota
	// UseWrite marks a field/setter write.
	UseWrite
	// UseInvoked marks a call through an invoke selector or a direct call.
	UseInvoked
	// UseInstantiated marks a class some value is constructed from.
	UseInstantiated
	// UseImplemented marks a class that is the type of some instantiated
	// value, directly or through a subtype.
	UseImplemented
	// UseTearOff marks a static/top-level function referenced as a value.
	UseTearOff
	// UseNormal marks an ordinary statically-resolved use.
	UseNormal
)

// IsEmpty reports whether no capability was added.
func (u Use) IsEmpty() bool { return u == 0 }

// Has reports whether all bits of flag are present.
func (u Use) Has(flag Use) bool { return u&flag == flag }

var useNames = []struct {
	bit  Use
	name string
}{
	{UseRead, "read"},
	{UseWrite, "write"},
	{UseInvoked, "invoked"},
	{UseInstantiated, "instantiated"},
	{UseImplemented, "implemented"},
	{UseTearOff, "tearoff"},
	{UseNormal, "normal"},
}

func (u Use) String() string {
	if u == 0 {
		return "none"
	}
	var parts []string
	for _, e := range useNames {
		if u.Has(e.bit) {
			parts = append(parts, e.name)
		}
	}
	return strings.Join(parts, "|")
}
