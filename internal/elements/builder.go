package elements

import (
	"fmt"

	"lumen/internal/names"
)

// ClassDef is the input shape for Builder.AddClass.
type ClassDef struct {
	Module     string
	Name       string
	Flags      ClassFlags
	Superclass ClassID
	Interfaces []ClassID
}

// MemberDef is the input shape for Builder.AddMember.
type MemberDef struct {
	Owner      ClassID // NoClassID for a top-level member
	Name       string
	Kind       MemberKind
	Flags      MemberFlags
	Params     []Param
	TypeParams uint8
}

// Builder accumulates the element graph supplied by frontend snapshots and
// freezes it into a World. IDs handed out by the builder stay valid in the
// built World.
type Builder struct {
	names   *names.Table
	classes *Classes
	members *Members
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		names:   names.NewTable(),
		classes: NewClasses(0),
		members: NewMembers(0),
	}
}

// Names exposes the name table so callers can intern parameter and selector
// names against the same IDs the built World will use.
func (b *Builder) Names() *names.Table { return b.names }

// Class returns a mutable view of an allocated class. Loaders use it to patch
// superclass and interface links once every class has an ID.
func (b *Builder) Class(id ClassID) *Class { return b.classes.Get(id) }

// Member returns a mutable view of an allocated member.
func (b *Builder) Member(id MemberID) *Member { return b.members.Get(id) }

// Intern is shorthand for Names().Intern.
func (b *Builder) Intern(s string) names.ID { return b.names.Intern(s) }

// AddClass allocates a class and returns its ID.
func (b *Builder) AddClass(def ClassDef) ClassID {
	return b.classes.New(&Class{
		Name:       b.names.Intern(def.Name),
		Module:     def.Module,
		Flags:      def.Flags,
		Superclass: def.Superclass,
		Interfaces: def.Interfaces,
	})
}

// AddMember allocates a member, attaches it to its owner and returns its ID.
// Top-level members (no owner) are flagged MemberTopLevel automatically.
func (b *Builder) AddMember(def MemberDef) MemberID {
	flags := def.Flags
	if !def.Owner.IsValid() {
		flags |= MemberTopLevel
	}
	id := b.members.New(&Member{
		Name:      b.names.Intern(def.Name),
		Kind:      def.Kind,
		Flags:     flags,
		Owner:     def.Owner,
		Params:    def.Params,
		Structure: deriveStructure(def.Params, def.TypeParams),
	})
	if owner := b.classes.Get(def.Owner); owner != nil {
		owner.Members = append(owner.Members, id)
	}
	return id
}

func deriveStructure(params []Param, typeParams uint8) ParameterStructure {
	var s ParameterStructure
	s.TypeParams = typeParams
	for _, p := range params {
		switch {
		case p.Named:
			s.Named = append(s.Named, p.Name)
		case p.Optional:
			s.Optional++
		default:
			s.Required++
		}
	}
	return s
}

// Build validates the hierarchy and freezes the graph into a World.
func (b *Builder) Build() (*World, error) {
	w := &World{
		names:   b.names,
		classes: b.classes,
		members: b.members,
		types:   newTypeInterner(),
	}
	if err := w.checkAcyclic(); err != nil {
		return nil, err
	}
	w.precompute()
	return w, nil
}

func (w *World) checkAcyclic() error {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make([]uint8, w.classes.Len()+1)

	var visit func(id ClassID) error
	visit = func(id ClassID) error {
		if !id.IsValid() {
			return nil
		}
		if int(id) >= len(state) {
			return fmt.Errorf("elements: dangling class reference %d", id)
		}
		switch state[id] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("elements: class hierarchy cycle through %s", w.ClassName(id))
		}
		state[id] = visiting
		cls := w.classes.Get(id)
		if err := visit(cls.Superclass); err != nil {
			return err
		}
		for _, iface := range cls.Interfaces {
			if err := visit(iface); err != nil {
				return err
			}
		}
		state[id] = done
		return nil
	}

	for id := ClassID(1); int(id) <= w.classes.Len(); id++ {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}
