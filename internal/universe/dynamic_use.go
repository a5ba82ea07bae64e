package universe

import (
	"strconv"
	"strings"

	"lumen/internal/elements"
	"lumen/internal/names"
)

// DynamicUse is one observed virtual dispatch: a selector, an optional
// receiver constraint and the explicit type arguments of a generic call.
// A nil Constraint means the receiver is unknown.
type DynamicUse struct {
	Selector   Selector
	Constraint ReceiverConstraint
	TypeArgs   []elements.TypeID
}

// Display renders the use for traces and reports.
func (d DynamicUse) Display(tab *names.Table) string {
	return d.Selector.Display(tab)
}

// key identifies selector plus type arguments, for dedup of the
// generic-invocation record.
func (d DynamicUse) key() string {
	var b strings.Builder
	k := d.Selector.key()
	b.WriteString(strconv.FormatUint(uint64(k.name), 10))
	b.WriteByte('/')
	b.WriteString(k.call)
	for _, t := range d.TypeArgs {
		b.WriteByte(',')
		b.WriteString(strconv.FormatUint(uint64(t), 10))
	}
	return b.String()
}
