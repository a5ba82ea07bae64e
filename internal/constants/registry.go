package constants

// UseKind distinguishes how a constant became live.
type UseKind uint8

const (
	// UseDirect marks a constant the compiled code itself mentions.
	UseDirect UseKind = iota
	// UseImplicit marks a constant pulled in by the runtime or by another
	// constant, e.g. a default parameter value.
	UseImplicit
)

func (k UseKind) String() string {
	if k == UseDirect {
		return "direct"
	}
	return "implicit"
}

// Use is one observed constant use.
type Use struct {
	Value Value
	Kind  UseKind
}

// DirectUse wraps v as a direct use.
func DirectUse(v Value) Use { return Use{Value: v, Kind: UseDirect} }

// ImplicitUse wraps v as an implicit use.
func ImplicitUse(v Value) Use { return Use{Value: v, Kind: UseImplicit} }

// Registry is the set of constants registered for emission. Registration
// order is preserved as the default emission pre-order.
type Registry struct {
	values []Value
	index  map[string]int
	direct map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		index:  make(map[string]int),
		direct: make(map[string]struct{}),
	}
}

// Register records a constant use. It returns true when the constant was not
// registered before. A later direct use upgrades an implicit registration
// without counting as new.
func (r *Registry) Register(u Use) bool {
	if u.Value == nil {
		return false
	}
	key := u.Value.Key()
	if u.Kind == UseDirect {
		r.direct[key] = struct{}{}
	}
	if _, ok := r.index[key]; ok {
		return false
	}
	r.index[key] = len(r.values)
	r.values = append(r.values, u.Value)
	return true
}

// Has reports whether an equal constant is registered.
func (r *Registry) Has(v Value) bool {
	if v == nil {
		return false
	}
	_, ok := r.index[v.Key()]
	return ok
}

// IsDirect reports whether the constant saw a direct use.
func (r *Registry) IsDirect(v Value) bool {
	if v == nil {
		return false
	}
	_, ok := r.direct[v.Key()]
	return ok
}

// Len reports how many distinct constants are registered.
func (r *Registry) Len() int { return len(r.values) }

// Values returns the registered constants in registration order.
func (r *Registry) Values() []Value {
	out := make([]Value, len(r.values))
	copy(out, r.values)
	return out
}
