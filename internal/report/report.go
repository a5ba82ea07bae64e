// Package report turns a finished liveness analysis into a deterministic
// summary of the live world: which classes exist at runtime, in what
// capacity each member is used, which statics are referenced and which
// constants must be emitted, in order. The model is plain data so it can be
// rendered as text or JSON and round-trip through the driver's result cache.
package report

import (
	"sort"

	"lumen/internal/constants"
	"lumen/internal/elements"
	"lumen/internal/enqueuer"
	"lumen/internal/universe"
)

// Inputs carries run provenance that lives outside the universe.
type Inputs struct {
	Program  string
	Strategy string
	Modules  []string // dependency-first program order
	Stats    enqueuer.Stats
}

// Member is one live instance member with its granted capabilities.
type Member struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Read    bool   `json:"read,omitempty"`
	Written bool   `json:"written,omitempty"`
	Invoked bool   `json:"invoked,omitempty"`
	// TornOff marks a method referenced as a value; its implicit getter must
	// be emitted.
	TornOff bool `json:"torn_off,omitempty"`
	// NeedsSuperGetter marks a method torn off through super.
	NeedsSuperGetter bool `json:"needs_super_getter,omitempty"`
}

// Class is one class the analysis touched.
type Class struct {
	Module       string   `json:"module"`
	Name         string   `json:"name"`
	Abstract     bool     `json:"abstract,omitempty"`
	Native       bool     `json:"native,omitempty"`
	Instantiated bool     `json:"instantiated"`
	Direct       bool     `json:"directly_instantiated"`
	Implemented  bool     `json:"implemented"`
	Members      []Member `json:"members,omitempty"`
}

// Display renders the class as the CLI spells it, e.g. "core:Circle".
func (c Class) Display() string {
	if c.Module == "" {
		return c.Name
	}
	return c.Module + ":" + c.Name
}

// Static is one live statically-resolved target.
type Static struct {
	Name    string `json:"name"` // Owner.name, or just name for top-level
	Kind    string `json:"kind"`
	Used    bool   `json:"used,omitempty"`
	TornOff bool   `json:"torn_off,omitempty"`
}

// Constant is one entry of the constant emission order.
type Constant struct {
	Kind    string `json:"kind"`
	Display string `json:"display"`
}

// Stats summarizes the run for the report footer.
type Stats struct {
	Roots            int `json:"roots"`
	WorkItems        int `json:"work_items"`
	ImpactsApplied   int `json:"impacts_applied"`
	ClassesProcessed int `json:"classes_processed"`
	LiveClasses      int `json:"live_classes"`
	LiveMembers      int `json:"live_members"`
	LiveStatics      int `json:"live_statics"`
	Constants        int `json:"constants"`
}

// Report is the renderable, cacheable analysis summary. Every slice is
// sorted; building the same universe twice yields identical reports.
type Report struct {
	Program  string   `json:"program"`
	Strategy string   `json:"strategy"`
	Modules  []string `json:"modules"`
	Classes  []Class  `json:"classes"`
	Statics  []Static `json:"statics"`
	// StaticFields lists static and top-level fields referenced anywhere;
	// the backend must allocate their storage cells.
	StaticFields []string `json:"static_fields,omitempty"`
	// ClosurizedStatics lists static and top-level functions referenced as
	// values; the backend must emit their closure wrappers.
	ClosurizedStatics []string   `json:"closurized_statics,omitempty"`
	Constants         []Constant `json:"constants,omitempty"`
	Stats             Stats      `json:"stats"`
}

// Build assembles the report from a universe after a fixpoint run.
func Build(u *universe.Universe, in Inputs) *Report {
	w := u.World()
	r := &Report{
		Program:  in.Program,
		Strategy: in.Strategy,
		Modules:  in.Modules,
	}

	direct := make(map[elements.ClassID]bool)
	for _, cls := range u.DirectlyInstantiatedClasses() {
		direct[cls] = true
	}
	super := make(map[elements.MemberID]bool)
	for _, m := range u.MethodsNeedingSuperGetter() {
		super[m] = true
	}

	index := make(map[elements.ClassID]int)
	for _, cu := range u.ClassUsages() {
		cls := w.Class(cu.Class)
		index[cu.Class] = len(r.Classes)
		r.Classes = append(r.Classes, Class{
			Module:       cls.Module,
			Name:         w.ClassName(cu.Class),
			Abstract:     cls.IsAbstract(),
			Native:       cls.IsNative(),
			Instantiated: cu.IsInstantiated(),
			Direct:       direct[cu.Class],
			Implemented:  cu.IsImplemented(),
		})
	}

	liveMembers := 0
	for _, mu := range u.MemberUsages() {
		if !mu.IsLive() {
			continue
		}
		member := w.Member(mu.Member)
		row := Member{
			Name:             w.MemberName(mu.Member),
			Kind:             member.Kind.String(),
			Written:          mu.HasWrite(),
			Invoked:          mu.HasInvoke(),
			NeedsSuperGetter: super[mu.Member],
		}
		// A read on a method is a tear-off, not a field read.
		if member.Kind == elements.MemberMethod {
			row.TornOff = mu.HasRead()
		} else {
			row.Read = mu.HasRead()
		}
		idx, ok := index[member.Owner]
		if !ok {
			// A live member of an untouched class would have tripped the
			// enqueuer's verification; tolerate it here and keep going.
			continue
		}
		r.Classes[idx].Members = append(r.Classes[idx].Members, row)
		liveMembers++
	}

	sort.Slice(r.Classes, func(i, j int) bool {
		if r.Classes[i].Module != r.Classes[j].Module {
			return r.Classes[i].Module < r.Classes[j].Module
		}
		return r.Classes[i].Name < r.Classes[j].Name
	})
	for i := range r.Classes {
		members := r.Classes[i].Members
		sort.Slice(members, func(a, b int) bool { return members[a].Name < members[b].Name })
	}

	for _, su := range u.StaticUsages() {
		if !su.IsLive() {
			continue
		}
		member := w.Member(su.Member)
		r.Statics = append(r.Statics, Static{
			Name:    w.MemberDisplay(su.Member),
			Kind:    member.Kind.String(),
			Used:    su.HasNormalUse(),
			TornOff: su.HasTearOff(),
		})
	}
	sort.Slice(r.Statics, func(i, j int) bool { return r.Statics[i].Name < r.Statics[j].Name })

	r.StaticFields = displayMembers(w, u.ReferencedStaticFields())
	r.ClosurizedStatics = displayMembers(w, u.ClosurizedStatics())

	for _, v := range u.ConstantsForEmission(constants.ByKey) {
		r.Constants = append(r.Constants, Constant{
			Kind:    v.Kind().String(),
			Display: v.String(),
		})
	}

	r.Stats = Stats{
		Roots:            in.Stats.Roots,
		WorkItems:        in.Stats.WorkItems,
		ImpactsApplied:   in.Stats.ImpactsApplied,
		ClassesProcessed: in.Stats.ClassesProcessed,
		LiveClasses:      len(r.Classes),
		LiveMembers:      liveMembers,
		LiveStatics:      len(r.Statics),
		Constants:        len(r.Constants),
	}
	return r
}

func displayMembers(w *elements.World, ids []elements.MemberID) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = w.MemberDisplay(id)
	}
	sort.Strings(out)
	return out
}
