package report

import (
	"strings"

	"golang.org/x/text/cases"
)

// Filter returns a copy of the report keeping only the classes, statics and
// name lists whose display name contains query. Matching is case-folded per
// Unicode, so "circle" finds "Circle" and "STRASSE" finds "straße". Stats
// and the constant pool are kept as-is; an empty query returns r unchanged.
func Filter(r *Report, query string) *Report {
	if query == "" {
		return r
	}
	fold := cases.Fold()
	needle := fold.String(query)
	match := func(s string) bool {
		return strings.Contains(fold.String(s), needle)
	}

	out := *r
	out.Classes = nil
	for _, cls := range r.Classes {
		if match(cls.Display()) {
			out.Classes = append(out.Classes, cls)
			continue
		}
		// Keep the class when any of its members matches, with only the
		// matching members.
		var kept []Member
		for _, m := range cls.Members {
			if match(m.Name) {
				kept = append(kept, m)
			}
		}
		if len(kept) > 0 {
			cls.Members = kept
			out.Classes = append(out.Classes, cls)
		}
	}

	out.Statics = nil
	for _, s := range r.Statics {
		if match(s.Name) {
			out.Statics = append(out.Statics, s)
		}
	}
	out.StaticFields = filterNames(r.StaticFields, match)
	out.ClosurizedStatics = filterNames(r.ClosurizedStatics, match)
	return &out
}

func filterNames(names []string, match func(string) bool) []string {
	var out []string
	for _, name := range names {
		if match(name) {
			out = append(out, name)
		}
	}
	return out
}
