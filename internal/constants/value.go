// Package constants models compile-time constant values and their
// dependency-ordered emission.
package constants

import (
	"strconv"
	"strings"

	"lumen/internal/elements"
)

// Kind classifies a constant value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindNull
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
	KindInstance
	KindReference
)

var kindNames = [...]string{
	KindInvalid:   "invalid",
	KindNull:      "null",
	KindBool:      "bool",
	KindInt:       "int",
	KindFloat:     "float",
	KindString:    "string",
	KindList:      "list",
	KindMap:       "map",
	KindInstance:  "instance",
	KindReference: "reference",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// Value is one constant. Values are immutable after construction; structural
// equality goes through Key.
type Value interface {
	Kind() Kind
	// Dependencies returns the constants this one refers to, in a stable
	// order. Emission must place every dependency before its dependent.
	Dependencies() []Value
	// Key is a canonical structural identity, used for dedup and as the
	// default emission pre-order.
	Key() string
	String() string
}

// NullValue is the null constant.
type NullValue struct{}

func (NullValue) Kind() Kind            { return KindNull }
func (NullValue) Dependencies() []Value { return nil }
func (NullValue) Key() string           { return "null" }
func (NullValue) String() string        { return "null" }

// BoolValue is a boolean constant.
type BoolValue struct {
	Value bool
}

func (BoolValue) Kind() Kind            { return KindBool }
func (BoolValue) Dependencies() []Value { return nil }

func (v BoolValue) Key() string    { return "bool:" + strconv.FormatBool(v.Value) }
func (v BoolValue) String() string { return strconv.FormatBool(v.Value) }

// IntValue is an integer constant.
type IntValue struct {
	Value int64
}

func (IntValue) Kind() Kind            { return KindInt }
func (IntValue) Dependencies() []Value { return nil }

func (v IntValue) Key() string    { return "int:" + strconv.FormatInt(v.Value, 10) }
func (v IntValue) String() string { return strconv.FormatInt(v.Value, 10) }

// FloatValue is a floating-point constant.
type FloatValue struct {
	Value float64
}

func (FloatValue) Kind() Kind            { return KindFloat }
func (FloatValue) Dependencies() []Value { return nil }

func (v FloatValue) Key() string {
	return "float:" + strconv.FormatFloat(v.Value, 'g', -1, 64)
}

func (v FloatValue) String() string {
	return strconv.FormatFloat(v.Value, 'g', -1, 64)
}

// StringValue is a string constant.
type StringValue struct {
	Value string
}

func (StringValue) Kind() Kind            { return KindString }
func (StringValue) Dependencies() []Value { return nil }

func (v StringValue) Key() string    { return "string:" + strconv.Quote(v.Value) }
func (v StringValue) String() string { return strconv.Quote(v.Value) }

// ListValue is a constant list literal.
type ListValue struct {
	Elements []Value
}

func (ListValue) Kind() Kind { return KindList }

func (v ListValue) Dependencies() []Value { return v.Elements }

func (v ListValue) Key() string {
	var b strings.Builder
	b.WriteString("list:[")
	for i, e := range v.Elements {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(e.Key())
	}
	b.WriteByte(']')
	return b.String()
}

func (v ListValue) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, e := range v.Elements {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(e.String())
	}
	b.WriteByte(']')
	return b.String()
}

// MapValue is a constant map literal. Keys and Values run in parallel and
// keep literal order.
type MapValue struct {
	Keys   []Value
	Values []Value
}

func (MapValue) Kind() Kind { return KindMap }

func (v MapValue) Dependencies() []Value {
	deps := make([]Value, 0, len(v.Keys)*2)
	for i := range v.Keys {
		deps = append(deps, v.Keys[i], v.Values[i])
	}
	return deps
}

func (v MapValue) Key() string {
	var b strings.Builder
	b.WriteString("map:{")
	for i := range v.Keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(v.Keys[i].Key())
		b.WriteByte(':')
		b.WriteString(v.Values[i].Key())
	}
	b.WriteByte('}')
	return b.String()
}

func (v MapValue) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i := range v.Keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(v.Keys[i].String())
		b.WriteString(": ")
		b.WriteString(v.Values[i].String())
	}
	b.WriteByte('}')
	return b.String()
}

// FieldValue pairs one instance field with its constant value.
type FieldValue struct {
	Field elements.MemberID
	Value Value
}

// InstanceValue is a constant object: a class plus its field values in
// declaration order.
type InstanceValue struct {
	Class  elements.ClassID
	Fields []FieldValue
}

func (InstanceValue) Kind() Kind { return KindInstance }

func (v InstanceValue) Dependencies() []Value {
	deps := make([]Value, len(v.Fields))
	for i, f := range v.Fields {
		deps[i] = f.Value
	}
	return deps
}

func (v InstanceValue) Key() string {
	var b strings.Builder
	b.WriteString("instance:")
	b.WriteString(strconv.FormatUint(uint64(v.Class), 10))
	b.WriteByte('{')
	for i, f := range v.Fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(uint64(f.Field), 10))
		b.WriteByte('=')
		b.WriteString(f.Value.Key())
	}
	b.WriteByte('}')
	return b.String()
}

func (v InstanceValue) String() string {
	var b strings.Builder
	b.WriteString("const class#")
	b.WriteString(strconv.FormatUint(uint64(v.Class), 10))
	b.WriteByte('(')
	for i, f := range v.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(f.Value.String())
	}
	b.WriteByte(')')
	return b.String()
}

// ReferenceValue is a named alias of another constant, e.g. a const
// top-level binding referenced from other constants.
type ReferenceValue struct {
	Name   string
	Target Value
}

func (ReferenceValue) Kind() Kind { return KindReference }

func (v ReferenceValue) Dependencies() []Value { return []Value{v.Target} }

func (v ReferenceValue) Key() string    { return "ref:" + v.Name }
func (v ReferenceValue) String() string { return "&" + v.Name }
