package worldfile

import (
	"fmt"

	"lumen/internal/constants"
	"lumen/internal/diag"
	"lumen/internal/elements"
	"lumen/internal/names"
	"lumen/internal/universe"
)

// Source pairs a decoded snapshot with the path it came from. The path only
// feeds diagnostic loci.
type Source struct {
	Path string
	Snap *Snapshot
}

// LinkResult is a linked program: the frozen element world, the impact
// table keyed by member, and the analysis roots in snapshot order.
type LinkResult struct {
	World   *elements.World
	Impacts map[elements.MemberID]*universe.Impact
	Roots   []elements.MemberID
	Modules []string
}

// ImpactOf returns the impact recorded for a member, or nil. It satisfies
// the enqueuer's impact source.
func (r *LinkResult) ImpactOf(id elements.MemberID) *universe.Impact {
	return r.Impacts[id]
}

// Link resolves a set of snapshots into one closed world. Every problem is
// reported as a diagnostic; the returned error only says that linking
// failed. Snapshots must arrive in dependency order if constants are to
// display nicely, but correctness does not depend on it.
func Link(sources []Source, reporter diag.Reporter) (*LinkResult, error) {
	l := &linker{
		rep:          reporter,
		b:            elements.NewBuilder(),
		scopes:       make(map[string]*moduleScope, len(sources)),
		classMembers: make(map[elements.ClassID]map[string]elements.MemberID),
	}

	for _, src := range sources {
		l.declareModule(src)
	}
	for _, sc := range l.order {
		l.checkImports(sc)
	}
	for _, sc := range l.order {
		l.patchHierarchy(sc)
	}

	world, err := l.b.Build()
	if err != nil {
		l.errorf(diag.LinkInheritanceCycle, diag.Locus{}, "%v", err)
		return nil, l.failure()
	}

	res := &LinkResult{
		World:   world,
		Impacts: make(map[elements.MemberID]*universe.Impact),
	}
	for _, sc := range l.order {
		res.Modules = append(res.Modules, sc.name)
	}
	for _, sc := range l.order {
		l.resolveImpacts(sc, world, res)
	}
	seenRoots := make(map[elements.MemberID]bool)
	for _, sc := range l.order {
		l.resolveRoots(sc, world, res, seenRoots)
	}

	if l.errs > 0 {
		return nil, l.failure()
	}
	return res, nil
}

type linker struct {
	rep  diag.Reporter
	b    *elements.Builder
	errs int

	scopes       map[string]*moduleScope
	order        []*moduleScope
	classMembers map[elements.ClassID]map[string]elements.MemberID
}

// moduleScope is the per-module name universe: what the snapshot declared
// and what it may see.
type moduleScope struct {
	name     string
	file     string
	snap     *Snapshot
	imports  map[string]bool
	classes  map[string]elements.ClassID
	declared []declaredClass // classes that made it past dedup, in order
	topLevel map[string]elements.MemberID
	consts   map[string]*constEntry
}

type declaredClass struct {
	def *Class
	id  elements.ClassID
}

const (
	constUnresolved = iota
	constResolving
	constDone
	constFailed
)

type constEntry struct {
	def   *Value
	value constants.Value
	state uint8
}

func (l *linker) errorf(code diag.Code, at diag.Locus, format string, args ...any) {
	l.errs++
	l.rep.Report(code, diag.SevError, at, fmt.Sprintf(format, args...), nil)
}

func (l *linker) warnf(code diag.Code, at diag.Locus, format string, args ...any) {
	l.rep.Report(code, diag.SevWarning, at, fmt.Sprintf(format, args...), nil)
}

func (l *linker) failure() error {
	return fmt.Errorf("worldfile: linking failed (%d diagnostics)", l.errs)
}

func (l *linker) declareModule(src Source) {
	s := src.Snap
	if s.Module == "" {
		l.errorf(diag.SnapEmptyModuleName, diag.Locus{File: src.Path, Path: "module"},
			"snapshot declares no module name")
		return
	}
	if prev, dup := l.scopes[s.Module]; dup {
		l.errs++
		l.rep.Report(diag.LinkDuplicateModule, diag.SevError,
			diag.Locus{File: src.Path, Path: "module"},
			fmt.Sprintf("module %q is already declared", s.Module),
			[]diag.Note{{Locus: diag.Locus{File: prev.file, Path: "module"}, Msg: "first declared here"}})
		return
	}

	sc := &moduleScope{
		name:     s.Module,
		file:     src.Path,
		snap:     s,
		imports:  make(map[string]bool, len(s.Imports)),
		classes:  make(map[string]elements.ClassID, len(s.Classes)),
		topLevel: make(map[string]elements.MemberID, len(s.TopLevel)),
		consts:   make(map[string]*constEntry, len(s.Constants)),
	}
	l.scopes[s.Module] = sc
	l.order = append(l.order, sc)

	for _, imp := range s.Imports {
		sc.imports[imp] = true
	}

	for ci := range s.Classes {
		c := &s.Classes[ci]
		at := diag.Locus{File: sc.file, Path: "classes." + c.Name}
		if c.Name == "" {
			l.errorf(diag.SnapBadPayload, diag.Locus{File: sc.file, Path: fmt.Sprintf("classes[%d]", ci)},
				"class has an empty name")
			continue
		}
		if _, dup := sc.classes[c.Name]; dup {
			l.errorf(diag.SnapDuplicateClass, at, "class %q declared twice in module %q", c.Name, sc.name)
			continue
		}
		var flags elements.ClassFlags
		if c.Abstract {
			flags |= elements.ClassAbstract
		}
		if c.Native {
			flags |= elements.ClassNative
		}
		id := l.b.AddClass(elements.ClassDef{Module: sc.name, Name: c.Name, Flags: flags})
		sc.classes[c.Name] = id
		sc.declared = append(sc.declared, declaredClass{def: c, id: id})
		l.classMembers[id] = make(map[string]elements.MemberID, len(c.Members))
		for mi := range c.Members {
			l.declareMember(sc, id, c.Name, &c.Members[mi])
		}
	}
	for mi := range s.TopLevel {
		l.declareMember(sc, elements.NoClassID, "", &s.TopLevel[mi])
	}

	for ci := range s.Constants {
		c := &s.Constants[ci]
		at := diag.Locus{File: sc.file, Path: "constants." + c.Name}
		if c.Name == "" {
			l.errorf(diag.SnapBadConstant, diag.Locus{File: sc.file, Path: fmt.Sprintf("constants[%d]", ci)},
				"constant has an empty name")
			continue
		}
		if _, dup := sc.consts[c.Name]; dup {
			l.errorf(diag.SnapBadConstant, at, "constant %q declared twice in module %q", c.Name, sc.name)
			continue
		}
		sc.consts[c.Name] = &constEntry{def: &c.Value}
	}
}

func (l *linker) declareMember(sc *moduleScope, owner elements.ClassID, ownerName string, m *Member) {
	path := "toplevel." + m.Name
	if owner.IsValid() {
		path = "classes." + ownerName + ".members." + m.Name
	}
	at := diag.Locus{File: sc.file, Path: path}

	if m.Name == "" {
		l.errorf(diag.SnapBadPayload, at, "member has an empty name")
		return
	}
	kind, ok := parseMemberKind(m.Kind)
	if !ok {
		l.errorf(diag.SnapBadMemberKind, at, "unknown member kind %q", m.Kind)
		return
	}
	if kind == elements.MemberConstructor && !owner.IsValid() {
		l.errorf(diag.SnapBadMemberKind, at, "top-level member %q cannot be a constructor", m.Name)
		return
	}

	scope := sc.topLevel
	if owner.IsValid() {
		scope = l.classMembers[owner]
	}
	if _, dup := scope[m.Name]; dup {
		l.errorf(diag.SnapDuplicateMember, at, "member %q declared twice", m.Name)
		return
	}

	var flags elements.MemberFlags
	if m.Static {
		flags |= elements.MemberStatic
	}
	if m.Native {
		flags |= elements.MemberNative
	}
	if m.ReadOnly {
		flags |= elements.MemberReadOnly
	}
	if m.Abstract {
		flags |= elements.MemberAbstract
	}

	params := make([]elements.Param, 0, len(m.Params))
	for _, p := range m.Params {
		if p.Name == "" {
			l.errorf(diag.SnapBadParameter, at, "parameter of %q has an empty name", m.Name)
			return
		}
		params = append(params, elements.Param{
			Name:     l.b.Intern(p.Name),
			Optional: p.Optional,
			Named:    p.Named,
		})
	}

	id := l.b.AddMember(elements.MemberDef{
		Owner:      owner,
		Name:       m.Name,
		Kind:       kind,
		Flags:      flags,
		Params:     params,
		TypeParams: m.TypeParams,
	})
	scope[m.Name] = id
}

func (l *linker) checkImports(sc *moduleScope) {
	at := diag.Locus{File: sc.file, Path: "imports"}
	for _, imp := range sc.snap.Imports {
		if imp == sc.name {
			continue
		}
		if _, ok := l.scopes[imp]; !ok {
			l.errorf(diag.LinkMissingImport, at, "imported module %q is not part of the program", imp)
		}
	}
}

func (l *linker) patchHierarchy(sc *moduleScope) {
	for _, dc := range sc.declared {
		c, id := dc.def, dc.id
		if c.Superclass != nil {
			at := diag.Locus{File: sc.file, Path: "classes." + c.Name + ".super"}
			if sup, why := l.lookupClass(sc, *c.Superclass); why != "" {
				l.errorf(diag.LinkDanglingSuper, at, "superclass %s: %s", c.Superclass, why)
			} else {
				l.b.Class(id).Superclass = sup
			}
		}
		for _, ifc := range c.Interfaces {
			at := diag.Locus{File: sc.file, Path: "classes." + c.Name + ".interfaces"}
			if impl, why := l.lookupClass(sc, ifc); why != "" {
				l.errorf(diag.LinkDanglingInterface, at, "interface %s: %s", ifc, why)
			} else {
				cls := l.b.Class(id)
				cls.Interfaces = append(cls.Interfaces, impl)
			}
		}
	}
}

// lookupClass resolves a class reference from sc's point of view. On
// failure it returns a human-readable reason; the caller owns the code.
func (l *linker) lookupClass(sc *moduleScope, ref ClassRef) (elements.ClassID, string) {
	target := sc
	if ref.Module != "" && ref.Module != sc.name {
		if !sc.imports[ref.Module] {
			return elements.NoClassID, fmt.Sprintf("module %q is not imported by %q", ref.Module, sc.name)
		}
		other, ok := l.scopes[ref.Module]
		if !ok {
			return elements.NoClassID, fmt.Sprintf("module %q is not part of the program", ref.Module)
		}
		target = other
	}
	id, ok := target.classes[ref.Name]
	if !ok {
		return elements.NoClassID, fmt.Sprintf("no class %q in module %q", ref.Name, target.name)
	}
	return id, ""
}

// lookupMember resolves a member reference from sc's point of view.
func (l *linker) lookupMember(sc *moduleScope, ref MemberRef) (elements.MemberID, string) {
	target := sc
	if ref.Module != "" && ref.Module != sc.name {
		if !sc.imports[ref.Module] {
			return elements.NoMemberID, fmt.Sprintf("module %q is not imported by %q", ref.Module, sc.name)
		}
		other, ok := l.scopes[ref.Module]
		if !ok {
			return elements.NoMemberID, fmt.Sprintf("module %q is not part of the program", ref.Module)
		}
		target = other
	}
	if ref.Class == "" {
		id, ok := target.topLevel[ref.Name]
		if !ok {
			return elements.NoMemberID, fmt.Sprintf("no top-level member %q in module %q", ref.Name, target.name)
		}
		return id, ""
	}
	cls, ok := target.classes[ref.Class]
	if !ok {
		return elements.NoMemberID, fmt.Sprintf("no class %q in module %q", ref.Class, target.name)
	}
	id, ok := l.classMembers[cls][ref.Name]
	if !ok {
		return elements.NoMemberID, fmt.Sprintf("class %q has no member %q", ref.Class, ref.Name)
	}
	return id, ""
}

// resolveType interns the wire type against the built world.
func (l *linker) resolveType(sc *moduleScope, t TypeRef, w *elements.World) (elements.TypeID, string) {
	if t.Dynamic {
		return w.DynamicType(), ""
	}
	cls, why := l.lookupClass(sc, t.Class)
	if why != "" {
		return elements.NoTypeID, why
	}
	var args []elements.TypeID
	for _, a := range t.Args {
		id, why := l.resolveType(sc, a, w)
		if why != "" {
			return elements.NoTypeID, why
		}
		args = append(args, id)
	}
	return w.InternClassType(cls, args), ""
}

func (l *linker) resolveImpacts(sc *moduleScope, w *elements.World, res *LinkResult) {
	for ii := range sc.snap.Impacts {
		im := &sc.snap.Impacts[ii]
		at := diag.Locus{File: sc.file, Path: fmt.Sprintf("impacts[%d]", ii)}

		if im.Of.Module != "" && im.Of.Module != sc.name {
			l.errorf(diag.LinkForeignImpact, at,
				"impact of %s: module %q cannot speak for module %q", im.Of, sc.name, im.Of.Module)
			continue
		}
		of, why := l.lookupMember(sc, im.Of)
		if why != "" {
			l.errorf(diag.LinkDanglingTarget, at, "impact of %s: %s", im.Of, why)
			continue
		}

		imp := res.Impacts[of]
		if imp == nil {
			imp = &universe.Impact{}
			res.Impacts[of] = imp
		}

		for _, t := range im.Instantiates {
			if tid, why := l.resolveType(sc, t, w); why != "" {
				l.errorf(diag.LinkBadTypeRef, at, "instantiates %s: %s", t, why)
			} else {
				imp.TypeUses = append(imp.TypeUses, universe.TypeUse{Kind: universe.TypeInstantiation, Type: tid})
			}
		}
		for _, t := range im.IsChecks {
			if tid, why := l.resolveType(sc, t, w); why != "" {
				l.errorf(diag.LinkBadTypeRef, at, "is-check %s: %s", t, why)
			} else {
				imp.TypeUses = append(imp.TypeUses, universe.TypeUse{Kind: universe.TypeIsCheck, Type: tid})
			}
		}
		for di := range im.Dynamic {
			dat := diag.Locus{File: sc.file, Path: fmt.Sprintf("impacts[%d].dynamic[%d]", ii, di)}
			if use, ok := l.resolveDynamic(sc, &im.Dynamic[di], w, dat); ok {
				imp.DynamicUses = append(imp.DynamicUses, use)
			}
		}
		for si := range im.Static {
			sat := diag.Locus{File: sc.file, Path: fmt.Sprintf("impacts[%d].static[%d]", ii, si)}
			if use, ok := l.resolveStatic(sc, &im.Static[si], w, sat); ok {
				imp.StaticUses = append(imp.StaticUses, use)
			}
		}
		for _, cu := range im.Constants {
			if v, ok := l.resolveConstant(sc, cu.Name, w, at); ok {
				if cu.Implicit {
					imp.Constants = append(imp.Constants, constants.ImplicitUse(v))
				} else {
					imp.Constants = append(imp.Constants, constants.DirectUse(v))
				}
			}
		}
	}
}

func (l *linker) resolveDynamic(sc *moduleScope, d *DynamicUse, w *elements.World, at diag.Locus) (universe.DynamicUse, bool) {
	name := w.Names().Intern(d.Name)

	var typeArgs []elements.TypeID
	for _, t := range d.TypeArgs {
		tid, why := l.resolveType(sc, t, w)
		if why != "" {
			l.errorf(diag.LinkBadTypeRef, at, "type argument %s: %s", t, why)
			return universe.DynamicUse{}, false
		}
		typeArgs = append(typeArgs, tid)
	}

	var sel universe.Selector
	switch d.Kind {
	case "invoke":
		named := make([]names.ID, 0, len(d.Named))
		for _, n := range d.Named {
			named = append(named, w.Names().Intern(n))
		}
		call := universe.NewCallStructure(int(d.Positional), named, len(typeArgs))
		sel = universe.NewInvokeSelector(name, call)
	case "get", "set":
		if d.Positional != 0 || len(d.Named) != 0 || len(typeArgs) != 0 {
			l.errorf(diag.SnapBadImpact, at, "%s of %q cannot carry arguments", d.Kind, d.Name)
			return universe.DynamicUse{}, false
		}
		if d.Kind == "get" {
			sel = universe.NewGetterSelector(name)
		} else {
			sel = universe.NewSetterSelector(name)
		}
	default:
		l.errorf(diag.SnapBadImpact, at, "unknown dynamic use kind %q", d.Kind)
		return universe.DynamicUse{}, false
	}

	var constraint universe.ReceiverConstraint
	if d.Receiver != nil {
		cls, why := l.lookupClass(sc, *d.Receiver)
		if why != "" {
			l.errorf(diag.LinkBadTypeRef, at, "receiver %s: %s", d.Receiver, why)
			return universe.DynamicUse{}, false
		}
		constraint = universe.TypedReceiver{Class: cls}
	}

	return universe.DynamicUse{Selector: sel, Constraint: constraint, TypeArgs: typeArgs}, true
}

func (l *linker) resolveStatic(sc *moduleScope, st *StaticUse, w *elements.World, at diag.Locus) (universe.StaticUse, bool) {
	kind, ok := universe.ParseStaticUseKind(st.Kind)
	if !ok {
		l.errorf(diag.SnapBadImpact, at, "unknown static use kind %q", st.Kind)
		return universe.StaticUse{}, false
	}
	target, why := l.lookupMember(sc, st.Target)
	if why != "" {
		l.errorf(diag.LinkDanglingTarget, at, "%s of %s: %s", st.Kind, st.Target, why)
		return universe.StaticUse{}, false
	}

	var typeArgs []elements.TypeID
	for _, t := range st.TypeArgs {
		tid, why := l.resolveType(sc, t, w)
		if why != "" {
			l.errorf(diag.LinkBadTypeRef, at, "type argument %s: %s", t, why)
			return universe.StaticUse{}, false
		}
		typeArgs = append(typeArgs, tid)
	}
	named := make([]names.ID, 0, len(st.Named))
	for _, n := range st.Named {
		named = append(named, w.Names().Intern(n))
	}

	return universe.StaticUse{
		Kind:     kind,
		Member:   target,
		Call:     universe.NewCallStructure(int(st.Positional), named, len(typeArgs)),
		TypeArgs: typeArgs,
	}, true
}

// resolveConstant resolves a pool constant by name, caching the result. The
// returned value is wrapped in a module-qualified reference so reports and
// emission keep the authored name.
func (l *linker) resolveConstant(sc *moduleScope, name string, w *elements.World, at diag.Locus) (constants.Value, bool) {
	e, ok := sc.consts[name]
	if !ok {
		l.errorf(diag.LinkDanglingTarget, at, "constant %q is not in the pool of module %q", name, sc.name)
		return nil, false
	}
	switch e.state {
	case constDone:
		return l.wrapConst(sc, name, e.value), true
	case constFailed:
		return nil, false
	case constResolving:
		l.errorf(diag.SnapBadConstant, at, "constant %q is defined in terms of itself", name)
		e.state = constFailed
		return nil, false
	}
	e.state = constResolving
	v, why := l.buildValue(sc, e.def, w, at)
	if why != "" {
		l.errorf(diag.SnapBadConstant, at, "constant %q: %s", name, why)
		e.state = constFailed
		return nil, false
	}
	e.state = constDone
	e.value = v
	return l.wrapConst(sc, name, v), true
}

func (l *linker) wrapConst(sc *moduleScope, name string, v constants.Value) constants.Value {
	return constants.ReferenceValue{Name: sc.name + "." + name, Target: v}
}

func (l *linker) buildValue(sc *moduleScope, v *Value, w *elements.World, at diag.Locus) (constants.Value, string) {
	switch v.Kind {
	case "null":
		return constants.NullValue{}, ""
	case "bool":
		return constants.BoolValue{Value: v.Bool}, ""
	case "int":
		return constants.IntValue{Value: v.Int}, ""
	case "float":
		return constants.FloatValue{Value: v.Float}, ""
	case "string":
		return constants.StringValue{Value: v.Str}, ""
	case "list":
		elems := make([]constants.Value, 0, len(v.Items))
		for i := range v.Items {
			ev, why := l.buildValue(sc, &v.Items[i], w, at)
			if why != "" {
				return nil, why
			}
			elems = append(elems, ev)
		}
		return constants.ListValue{Elements: elems}, ""
	case "map":
		if len(v.Keys) != len(v.Values) {
			return nil, fmt.Sprintf("map has %d keys but %d values", len(v.Keys), len(v.Values))
		}
		keys := make([]constants.Value, 0, len(v.Keys))
		vals := make([]constants.Value, 0, len(v.Values))
		for i := range v.Keys {
			kv, why := l.buildValue(sc, &v.Keys[i], w, at)
			if why != "" {
				return nil, why
			}
			vv, why := l.buildValue(sc, &v.Values[i], w, at)
			if why != "" {
				return nil, why
			}
			keys = append(keys, kv)
			vals = append(vals, vv)
		}
		return constants.MapValue{Keys: keys, Values: vals}, ""
	case "instance":
		if v.Class == nil {
			return nil, "instance value has no class"
		}
		cls, why := l.lookupClass(sc, *v.Class)
		if why != "" {
			return nil, why
		}
		fields := make([]constants.FieldValue, 0, len(v.Fields))
		for i := range v.Fields {
			f := &v.Fields[i]
			field, ok := l.classMembers[cls][f.Name]
			if !ok {
				return nil, fmt.Sprintf("class %q has no field %q", v.Class.Name, f.Name)
			}
			if w.Member(field).Kind != elements.MemberField {
				return nil, fmt.Sprintf("%q is not a field of class %q", f.Name, v.Class.Name)
			}
			fv, why := l.buildValue(sc, &f.Value, w, at)
			if why != "" {
				return nil, why
			}
			fields = append(fields, constants.FieldValue{Field: field, Value: fv})
		}
		return constants.InstanceValue{Class: cls, Fields: fields}, ""
	case "ref":
		inner, ok := l.resolveConstant(sc, v.Ref, w, at)
		if !ok {
			return nil, fmt.Sprintf("reference to %q did not resolve", v.Ref)
		}
		return inner, ""
	default:
		return nil, fmt.Sprintf("unknown value kind %q", v.Kind)
	}
}

func (l *linker) resolveRoots(sc *moduleScope, w *elements.World, res *LinkResult, seen map[elements.MemberID]bool) {
	for ri, ref := range sc.snap.Roots {
		at := diag.Locus{File: sc.file, Path: fmt.Sprintf("roots[%d]", ri)}
		id, why := l.lookupMember(sc, ref)
		if why != "" {
			l.errorf(diag.LinkDanglingRoot, at, "root %s: %s", ref, why)
			continue
		}
		m := w.Member(id)
		if !m.IsStaticOrTopLevel() && m.Kind != elements.MemberConstructor {
			l.errorf(diag.LinkRootNotCallable, at,
				"root %s is an instance %s and cannot start the analysis", ref, m.Kind)
			continue
		}
		if seen[id] {
			l.warnf(diag.LinkDuplicateRoot, at, "root %s is already listed", ref)
			continue
		}
		seen[id] = true
		res.Roots = append(res.Roots, id)
	}
}

func parseMemberKind(s string) (elements.MemberKind, bool) {
	switch s {
	case "field":
		return elements.MemberField, true
	case "getter":
		return elements.MemberGetter, true
	case "setter":
		return elements.MemberSetter, true
	case "method":
		return elements.MemberMethod, true
	case "constructor":
		return elements.MemberConstructor, true
	}
	return elements.MemberInvalid, false
}
