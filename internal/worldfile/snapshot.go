package worldfile

// Magic opens every .lmw file.
const Magic = "LMW1"

// SchemaVersion is the current wire schema. Decoders reject snapshots
// written with any other version.
const SchemaVersion uint16 = 1

// Snapshot is the decoded form of one .lmw file: everything one frontend
// module contributes to the closed world.
type Snapshot struct {
	Schema    uint16
	Module    string
	Imports   []string
	Classes   []Class
	TopLevel  []Member
	Impacts   []Impact
	Constants []Constant
	Roots     []MemberRef
}

// Class is one class declaration.
type Class struct {
	Name       string
	Abstract   bool
	Native     bool
	Superclass *ClassRef // nil for a root class
	Interfaces []ClassRef
	Members    []Member
}

// ClassRef names a class. An empty Module means the declaring snapshot's
// own module.
type ClassRef struct {
	Module string
	Name   string
}

func (r ClassRef) String() string {
	if r.Module == "" {
		return r.Name
	}
	return r.Module + ":" + r.Name
}

// Member is one member declaration, either inside a Class or top-level.
type Member struct {
	Name       string
	Kind       string // field, getter, setter, method, constructor
	Static     bool
	Native     bool
	ReadOnly   bool
	Abstract   bool
	Params     []Param
	TypeParams uint8
}

// Param is one declared parameter.
type Param struct {
	Name     string
	Optional bool
	Named    bool
}

// MemberRef names a member. An empty Class targets a top-level member; an
// empty Module means the declaring snapshot's own module.
type MemberRef struct {
	Module string
	Class  string
	Name   string
}

func (r MemberRef) String() string {
	s := r.Name
	if r.Class != "" {
		s = r.Class + "." + s
	}
	if r.Module != "" {
		s = r.Module + ":" + s
	}
	return s
}

// TypeRef is the wire form of a type: the dynamic type, or a class applied
// to zero or more type arguments.
type TypeRef struct {
	Dynamic bool
	Class   ClassRef
	Args    []TypeRef
}

func (t TypeRef) String() string {
	if t.Dynamic {
		return "dynamic"
	}
	s := t.Class.String()
	if len(t.Args) > 0 {
		s += "<"
		for i, a := range t.Args {
			if i > 0 {
				s += ","
			}
			s += a.String()
		}
		s += ">"
	}
	return s
}

// Impact is the batch of uses the frontend observed while compiling one
// member body. The member must belong to the declaring module.
type Impact struct {
	Of           MemberRef
	Instantiates []TypeRef
	IsChecks     []TypeRef
	Dynamic      []DynamicUse
	Static       []StaticUse
	Constants    []ConstantUse
}

// DynamicUse is one virtual dispatch site.
type DynamicUse struct {
	Kind       string // invoke, get, set
	Name       string
	Positional uint8
	Named      []string
	TypeArgs   []TypeRef
	Receiver   *ClassRef // nil when the receiver is unconstrained
}

// StaticUse is one statically resolved use. Kind uses the same spellings as
// universe.StaticUseKind.
type StaticUse struct {
	Kind       string
	Target     MemberRef
	Positional uint8
	Named      []string
	TypeArgs   []TypeRef
}

// Constant is one named entry of the module's constant pool.
type Constant struct {
	Name  string
	Value Value
}

// ConstantUse references a pool constant from an impact.
type ConstantUse struct {
	Name     string
	Implicit bool
}

// Value is the wire form of a constant value. Kind selects which of the
// remaining fields are meaningful.
type Value struct {
	Kind   string // null, bool, int, float, string, list, map, instance, ref
	Bool   bool
	Int    int64
	Float  float64
	Str    string
	Items  []Value // list elements
	Keys   []Value // map keys, parallel to Values
	Values []Value // map values
	Class  *ClassRef
	Fields []FieldInit
	Ref    string // name of another pool constant in the same module
}

// FieldInit pairs an instance field name with its constant value.
type FieldInit struct {
	Name  string
	Value Value
}
