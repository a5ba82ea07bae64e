package worldfile

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// The TOML authoring form of a snapshot. Hand-written fixtures and the
// `lumen pack` command use it; the analyzer itself only reads the binary
// form. References are compact strings:
//
//	class ref   Name            same module
//	            mod:Name        imported module
//	member ref  name            top-level, same module
//	            Class.name      class member, same module
//	            mod:Class.name  class member, imported module
//	type ref    dynamic | Name | mod:Name | List<int,dynamic>
//	param       x | [x] | {x}   required, optional positional, named

type descDoc struct {
	Module    string         `toml:"module"`
	Imports   []string       `toml:"imports"`
	Classes   []descClass    `toml:"classes"`
	TopLevel  []descMember   `toml:"toplevel"`
	Impacts   []descImpact   `toml:"impacts"`
	Constants []descConstant `toml:"constants"`
	Roots     []string       `toml:"roots"`
}

type descClass struct {
	Name       string       `toml:"name"`
	Abstract   bool         `toml:"abstract"`
	Native     bool         `toml:"native"`
	Super      string       `toml:"super"`
	Interfaces []string     `toml:"interfaces"`
	Members    []descMember `toml:"members"`
}

type descMember struct {
	Name       string   `toml:"name"`
	Kind       string   `toml:"kind"`
	Static     bool     `toml:"static"`
	Native     bool     `toml:"native"`
	ReadOnly   bool     `toml:"readonly"`
	Abstract   bool     `toml:"abstract"`
	Params     []string `toml:"params"`
	TypeParams int      `toml:"typeparams"`
}

type descImpact struct {
	Of           string         `toml:"of"`
	Instantiates []string       `toml:"instantiates"`
	IsChecks     []string       `toml:"ischecks"`
	Dynamic      []descDynamic  `toml:"dynamic"`
	Static       []descStatic   `toml:"static"`
	Constants    []descConstUse `toml:"constants"`
}

// descDynamic selects its kind by which of invoke/get/set is set.
type descDynamic struct {
	Invoke     string   `toml:"invoke"`
	Get        string   `toml:"get"`
	Set        string   `toml:"set"`
	Positional int      `toml:"positional"`
	Named      []string `toml:"named"`
	TypeArgs   []string `toml:"typeargs"`
	Receiver   string   `toml:"receiver"`
}

type descStatic struct {
	Kind       string   `toml:"kind"`
	Target     string   `toml:"target"`
	Positional int      `toml:"positional"`
	Named      []string `toml:"named"`
	TypeArgs   []string `toml:"typeargs"`
}

type descConstUse struct {
	Name     string `toml:"name"`
	Implicit bool   `toml:"implicit"`
}

type descConstant struct {
	Name  string    `toml:"name"`
	Value descValue `toml:"value"`
}

type descValue struct {
	Kind   string      `toml:"kind"`
	Bool   bool        `toml:"bool"`
	Int    int64       `toml:"int"`
	Float  float64     `toml:"float"`
	Str    string      `toml:"string"`
	Items  []descValue `toml:"items"`
	Keys   []descValue `toml:"keys"`
	Values []descValue `toml:"values"`
	Class  string      `toml:"class"`
	Fields []descField `toml:"fields"`
	Ref    string      `toml:"ref"`
}

type descField struct {
	Name  string    `toml:"name"`
	Value descValue `toml:"value"`
}

// DecodeTOMLDesc parses the TOML authoring form into a snapshot.
func DecodeTOMLDesc(data []byte) (*Snapshot, error) {
	var doc descDoc
	meta, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if !meta.IsDefined("module") || strings.TrimSpace(doc.Module) == "" {
		return nil, fmt.Errorf("missing module name")
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown key %q", undecoded[0].String())
	}
	return doc.toSnapshot()
}

func (d *descDoc) toSnapshot() (*Snapshot, error) {
	s := &Snapshot{
		Schema:  SchemaVersion,
		Module:  d.Module,
		Imports: d.Imports,
	}
	for i, c := range d.Classes {
		cls, err := c.toClass()
		if err != nil {
			return nil, fmt.Errorf("classes[%d] (%s): %w", i, c.Name, err)
		}
		s.Classes = append(s.Classes, cls)
	}
	for i, m := range d.TopLevel {
		mem, err := m.toMember()
		if err != nil {
			return nil, fmt.Errorf("toplevel[%d] (%s): %w", i, m.Name, err)
		}
		s.TopLevel = append(s.TopLevel, mem)
	}
	for i, im := range d.Impacts {
		imp, err := im.toImpact()
		if err != nil {
			return nil, fmt.Errorf("impacts[%d] (%s): %w", i, im.Of, err)
		}
		s.Impacts = append(s.Impacts, imp)
	}
	for i, c := range d.Constants {
		v, err := c.Value.toValue()
		if err != nil {
			return nil, fmt.Errorf("constants[%d] (%s): %w", i, c.Name, err)
		}
		s.Constants = append(s.Constants, Constant{Name: c.Name, Value: v})
	}
	for i, r := range d.Roots {
		ref, err := parseMemberRef(r)
		if err != nil {
			return nil, fmt.Errorf("roots[%d]: %w", i, err)
		}
		s.Roots = append(s.Roots, ref)
	}
	return s, nil
}

func (c *descClass) toClass() (Class, error) {
	cls := Class{
		Name:     c.Name,
		Abstract: c.Abstract,
		Native:   c.Native,
	}
	if c.Super != "" {
		ref, err := parseClassRef(c.Super)
		if err != nil {
			return Class{}, fmt.Errorf("super: %w", err)
		}
		cls.Superclass = &ref
	}
	for _, s := range c.Interfaces {
		ref, err := parseClassRef(s)
		if err != nil {
			return Class{}, fmt.Errorf("interfaces: %w", err)
		}
		cls.Interfaces = append(cls.Interfaces, ref)
	}
	for i, m := range c.Members {
		mem, err := m.toMember()
		if err != nil {
			return Class{}, fmt.Errorf("members[%d] (%s): %w", i, m.Name, err)
		}
		cls.Members = append(cls.Members, mem)
	}
	return cls, nil
}

func (m *descMember) toMember() (Member, error) {
	if m.TypeParams < 0 || m.TypeParams > 255 {
		return Member{}, fmt.Errorf("typeparams out of range: %d", m.TypeParams)
	}
	mem := Member{
		Name:       m.Name,
		Kind:       m.Kind,
		Static:     m.Static,
		Native:     m.Native,
		ReadOnly:   m.ReadOnly,
		Abstract:   m.Abstract,
		TypeParams: uint8(m.TypeParams),
	}
	if mem.Kind == "" {
		mem.Kind = "method"
	}
	for _, p := range m.Params {
		param, err := parseParam(p)
		if err != nil {
			return Member{}, err
		}
		mem.Params = append(mem.Params, param)
	}
	return mem, nil
}

func (im *descImpact) toImpact() (Impact, error) {
	of, err := parseMemberRef(im.Of)
	if err != nil {
		return Impact{}, fmt.Errorf("of: %w", err)
	}
	out := Impact{Of: of}
	for _, s := range im.Instantiates {
		t, err := parseTypeRef(s)
		if err != nil {
			return Impact{}, fmt.Errorf("instantiates: %w", err)
		}
		out.Instantiates = append(out.Instantiates, t)
	}
	for _, s := range im.IsChecks {
		t, err := parseTypeRef(s)
		if err != nil {
			return Impact{}, fmt.Errorf("ischecks: %w", err)
		}
		out.IsChecks = append(out.IsChecks, t)
	}
	for i, d := range im.Dynamic {
		use, err := d.toDynamicUse()
		if err != nil {
			return Impact{}, fmt.Errorf("dynamic[%d]: %w", i, err)
		}
		out.Dynamic = append(out.Dynamic, use)
	}
	for i, st := range im.Static {
		use, err := st.toStaticUse()
		if err != nil {
			return Impact{}, fmt.Errorf("static[%d]: %w", i, err)
		}
		out.Static = append(out.Static, use)
	}
	for _, c := range im.Constants {
		out.Constants = append(out.Constants, ConstantUse{Name: c.Name, Implicit: c.Implicit})
	}
	return out, nil
}

func (d *descDynamic) toDynamicUse() (DynamicUse, error) {
	use := DynamicUse{Named: d.Named}
	set := 0
	if d.Invoke != "" {
		use.Kind, use.Name = "invoke", d.Invoke
		set++
	}
	if d.Get != "" {
		use.Kind, use.Name = "get", d.Get
		set++
	}
	if d.Set != "" {
		use.Kind, use.Name = "set", d.Set
		set++
	}
	if set != 1 {
		return DynamicUse{}, fmt.Errorf("exactly one of invoke, get, set must be given")
	}
	if d.Positional < 0 || d.Positional > 255 {
		return DynamicUse{}, fmt.Errorf("positional out of range: %d", d.Positional)
	}
	use.Positional = uint8(d.Positional)
	for _, s := range d.TypeArgs {
		t, err := parseTypeRef(s)
		if err != nil {
			return DynamicUse{}, fmt.Errorf("typeargs: %w", err)
		}
		use.TypeArgs = append(use.TypeArgs, t)
	}
	if d.Receiver != "" {
		ref, err := parseClassRef(d.Receiver)
		if err != nil {
			return DynamicUse{}, fmt.Errorf("receiver: %w", err)
		}
		use.Receiver = &ref
	}
	return use, nil
}

func (st *descStatic) toStaticUse() (StaticUse, error) {
	target, err := parseMemberRef(st.Target)
	if err != nil {
		return StaticUse{}, fmt.Errorf("target: %w", err)
	}
	if st.Positional < 0 || st.Positional > 255 {
		return StaticUse{}, fmt.Errorf("positional out of range: %d", st.Positional)
	}
	use := StaticUse{
		Kind:       st.Kind,
		Target:     target,
		Positional: uint8(st.Positional),
		Named:      st.Named,
	}
	if use.Kind == "" {
		use.Kind = "invoke"
	}
	for _, s := range st.TypeArgs {
		t, err := parseTypeRef(s)
		if err != nil {
			return StaticUse{}, fmt.Errorf("typeargs: %w", err)
		}
		use.TypeArgs = append(use.TypeArgs, t)
	}
	return use, nil
}

func (v *descValue) toValue() (Value, error) {
	out := Value{Kind: v.Kind}
	switch v.Kind {
	case "null":
	case "bool":
		out.Bool = v.Bool
	case "int":
		out.Int = v.Int
	case "float":
		out.Float = v.Float
	case "string":
		out.Str = v.Str
	case "list":
		for i, item := range v.Items {
			iv, err := item.toValue()
			if err != nil {
				return Value{}, fmt.Errorf("items[%d]: %w", i, err)
			}
			out.Items = append(out.Items, iv)
		}
	case "map":
		if len(v.Keys) != len(v.Values) {
			return Value{}, fmt.Errorf("map has %d keys but %d values", len(v.Keys), len(v.Values))
		}
		for i := range v.Keys {
			kv, err := v.Keys[i].toValue()
			if err != nil {
				return Value{}, fmt.Errorf("keys[%d]: %w", i, err)
			}
			vv, err := v.Values[i].toValue()
			if err != nil {
				return Value{}, fmt.Errorf("values[%d]: %w", i, err)
			}
			out.Keys = append(out.Keys, kv)
			out.Values = append(out.Values, vv)
		}
	case "instance":
		if v.Class == "" {
			return Value{}, fmt.Errorf("instance value needs a class")
		}
		ref, err := parseClassRef(v.Class)
		if err != nil {
			return Value{}, fmt.Errorf("class: %w", err)
		}
		out.Class = &ref
		for i, f := range v.Fields {
			fv, err := f.Value.toValue()
			if err != nil {
				return Value{}, fmt.Errorf("fields[%d] (%s): %w", i, f.Name, err)
			}
			out.Fields = append(out.Fields, FieldInit{Name: f.Name, Value: fv})
		}
	case "ref":
		if v.Ref == "" {
			return Value{}, fmt.Errorf("ref value needs a target name")
		}
		out.Ref = v.Ref
	default:
		return Value{}, fmt.Errorf("unknown value kind %q", v.Kind)
	}
	return out, nil
}

func parseParam(s string) (Param, error) {
	switch {
	case strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]"):
		name := s[1 : len(s)-1]
		if name == "" {
			return Param{}, fmt.Errorf("malformed parameter %q", s)
		}
		return Param{Name: name, Optional: true}, nil
	case strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}"):
		name := s[1 : len(s)-1]
		if name == "" {
			return Param{}, fmt.Errorf("malformed parameter %q", s)
		}
		return Param{Name: name, Named: true}, nil
	case s == "" || strings.ContainsAny(s, "[]{}"):
		return Param{}, fmt.Errorf("malformed parameter %q", s)
	default:
		return Param{Name: s}, nil
	}
}

func parseClassRef(s string) (ClassRef, error) {
	mod, rest, ok := strings.Cut(s, ":")
	if !ok {
		mod, rest = "", s
	}
	if rest == "" || strings.ContainsAny(rest, ":.<>,") {
		return ClassRef{}, fmt.Errorf("malformed class reference %q", s)
	}
	return ClassRef{Module: mod, Name: rest}, nil
}

func parseMemberRef(s string) (MemberRef, error) {
	mod, rest, ok := strings.Cut(s, ":")
	if !ok {
		mod, rest = "", s
	}
	cls, name, dotted := strings.Cut(rest, ".")
	if !dotted {
		cls, name = "", rest
	} else if cls == "" {
		return MemberRef{}, fmt.Errorf("malformed member reference %q", s)
	}
	if name == "" || strings.ContainsAny(name, ":.<>,") || strings.ContainsAny(cls, ":.<>,") {
		return MemberRef{}, fmt.Errorf("malformed member reference %q", s)
	}
	return MemberRef{Module: mod, Class: cls, Name: name}, nil
}

// parseTypeRef parses "dynamic", a class reference, or a generic application
// like "List<Map<string,int>,dynamic>".
func parseTypeRef(s string) (TypeRef, error) {
	p := &typeParser{src: s}
	t, err := p.parse()
	if err != nil {
		return TypeRef{}, err
	}
	if p.pos != len(p.src) {
		return TypeRef{}, fmt.Errorf("malformed type reference %q", s)
	}
	return t, nil
}

type typeParser struct {
	src string
	pos int
}

func (p *typeParser) parse() (TypeRef, error) {
	start := p.pos
	for p.pos < len(p.src) && !strings.ContainsRune("<>,", rune(p.src[p.pos])) {
		p.pos++
	}
	head := strings.TrimSpace(p.src[start:p.pos])
	if head == "" {
		return TypeRef{}, fmt.Errorf("malformed type reference %q", p.src)
	}
	if head == "dynamic" {
		return TypeRef{Dynamic: true}, nil
	}
	ref, err := parseClassRef(head)
	if err != nil {
		return TypeRef{}, err
	}
	t := TypeRef{Class: ref}
	if p.pos < len(p.src) && p.src[p.pos] == '<' {
		p.pos++
		for {
			arg, err := p.parse()
			if err != nil {
				return TypeRef{}, err
			}
			t.Args = append(t.Args, arg)
			if p.pos < len(p.src) && p.src[p.pos] == ',' {
				p.pos++
				continue
			}
			break
		}
		if p.pos >= len(p.src) || p.src[p.pos] != '>' {
			return TypeRef{}, fmt.Errorf("malformed type reference %q", p.src)
		}
		p.pos++
	}
	return t, nil
}
