package names

import "slices"

// ID identifies an interned name. The zero ID is reserved for "no name".
type ID uint32

const NoID ID = 0

// IsValid reports whether the ID refers to an interned name.
func (id ID) IsValid() bool { return id != NoID }

// Table interns member and class names so the analysis can key its maps on
// compact IDs instead of strings.
type Table struct {
	byID  []string
	index map[string]ID
}

// NewTable creates a table with the empty string pre-interned as NoID.
func NewTable() *Table {
	return &Table{
		byID:  []string{""},
		index: map[string]ID{"": 0},
	}
}

// Intern returns the ID for s, allocating one on first sight.
func (t *Table) Intern(s string) ID {
	if id, ok := t.index[s]; ok {
		return id
	}
	// Copy so the table never aliases a caller-owned buffer.
	cpy := string([]byte(s))
	id := ID(len(t.byID))
	t.byID = append(t.byID, cpy)
	t.index[cpy] = id
	return id
}

// Lookup returns the name for id, or ("", false) for an unknown ID.
func (t *Table) Lookup(id ID) (string, bool) {
	if int(id) >= len(t.byID) {
		return "", false
	}
	return t.byID[id], true
}

// MustLookup returns the name for id and panics on an unknown ID.
func (t *Table) MustLookup(id ID) string {
	s, ok := t.Lookup(id)
	if !ok {
		panic("names: invalid ID")
	}
	return s
}

// Has reports whether id is interned.
func (t *Table) Has(id ID) bool {
	return int(id) < len(t.byID)
}

// Len reports the number of interned names, excluding the empty sentinel.
func (t *Table) Len() int { return len(t.byID) - 1 }

// Sorted returns all interned names except the sentinel in lexical order.
// Handy for deterministic report output.
func (t *Table) Sorted() []string {
	if len(t.byID) <= 1 {
		return nil
	}
	out := slices.Clone(t.byID[1:])
	slices.Sort(out)
	return out
}
