package universe

import (
	"lumen/internal/elements"
)

// StaticUseKind says how a statically resolved target is used.
type StaticUseKind uint8

const (
	StaticUseInvalid StaticUseKind = iota
	// StaticInvoke calls a static or top-level function.
	StaticInvoke
	// StaticGet reads a static or top-level field or getter.
	StaticGet
	// StaticSet writes a static or top-level field or setter.
	StaticSet
	// StaticInit evaluates a static field initializer.
	StaticInit
	// StaticTearOff references a static or top-level function as a value.
	StaticTearOff
	// SuperTearOff references a super-resolved instance method as a value;
	// the method needs a synthesized super getter.
	SuperTearOff
	// ConstructorInvoke calls a generative constructor.
	ConstructorInvoke
	// ConstConstructorInvoke calls a constructor in a constant context.
	ConstConstructorInvoke
	// RedirectingConstructorInvoke calls a constructor through a
	// redirecting factory.
	RedirectingConstructorInvoke
	// DirectInvoke calls an instance member without virtual dispatch, e.g.
	// a super call or a devirtualized call.
	DirectInvoke
	// FieldGet reads an instance field the compiler resolved statically,
	// e.g. a closure box. Recorded but never enqueued through this path.
	FieldGet
	// FieldSet writes such a field. Recorded but never enqueued.
	FieldSet
	// ClosureUse touches a local closure. Never enqueued.
	ClosureUse
	// CallMethodUse touches the synthesized call method of a closure.
	// Never enqueued.
	CallMethodUse
)

var staticUseKindNames = [...]string{
	StaticUseInvalid:             "invalid",
	StaticInvoke:                 "invoke",
	StaticGet:                    "get",
	StaticSet:                    "set",
	StaticInit:                   "init",
	StaticTearOff:                "tearoff",
	SuperTearOff:                 "super-tearoff",
	ConstructorInvoke:            "constructor-invoke",
	ConstConstructorInvoke:       "const-constructor-invoke",
	RedirectingConstructorInvoke: "redirecting-constructor-invoke",
	DirectInvoke:                 "direct-invoke",
	FieldGet:                     "field-get",
	FieldSet:                     "field-set",
	ClosureUse:                   "closure-use",
	CallMethodUse:                "call-method-use",
}

func (k StaticUseKind) String() string {
	if int(k) < len(staticUseKindNames) {
		return staticUseKindNames[k]
	}
	return "invalid"
}

// ParseStaticUseKind maps the wire spelling of a kind back to its value.
func ParseStaticUseKind(s string) (StaticUseKind, bool) {
	for i, name := range staticUseKindNames {
		if name == s && StaticUseKind(i) != StaticUseInvalid {
			return StaticUseKind(i), true
		}
	}
	return StaticUseInvalid, false
}

// StaticUse is one observed use of a statically resolved target.
type StaticUse struct {
	Kind     StaticUseKind
	Member   elements.MemberID
	Call     CallStructure // for the invoke kinds
	TypeArgs []elements.TypeID
}
