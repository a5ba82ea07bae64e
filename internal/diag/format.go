package diag

import (
	"fmt"
	"sort"
	"strings"
)

type renderedDiagnostic struct {
	Severity string
	Code     string
	Locus    string
	Message  string
}

// FormatDiagnostics renders diagnostics into a stable, single-line-per-entry
// representation suitable for golden files and CLI short output. Entries are
// sorted deterministically and returned as a single string (empty when there
// is nothing to render).
func FormatDiagnostics(diags []Diagnostic, includeNotes bool) string {
	if len(diags) == 0 {
		return ""
	}

	rendered := make([]renderedDiagnostic, 0, len(diags))
	for i := range diags {
		rendered = appendRendered(rendered, &diags[i], includeNotes)
	}

	sort.SliceStable(rendered, func(i, j int) bool {
		di, dj := rendered[i], rendered[j]
		if di.Locus != dj.Locus {
			return di.Locus < dj.Locus
		}
		if di.Severity != dj.Severity {
			return di.Severity < dj.Severity
		}
		if di.Code != dj.Code {
			return di.Code < dj.Code
		}
		return di.Message < dj.Message
	})

	var b strings.Builder
	for i, d := range rendered {
		fmt.Fprintf(&b, "%s %s %s %s", d.Severity, d.Code, d.Locus, d.Message)
		if i < len(rendered)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func appendRendered(out []renderedDiagnostic, d *Diagnostic, includeNotes bool) []renderedDiagnostic {
	out = append(out, renderedDiagnostic{
		Severity: severityLabel(d.Severity),
		Code:     d.Code.ID(),
		Locus:    d.Primary.String(),
		Message:  flattenMessage(d.Message),
	})
	if !includeNotes {
		return out
	}
	for _, n := range d.Notes {
		out = append(out, renderedDiagnostic{
			Severity: "note",
			Code:     d.Code.ID(),
			Locus:    n.Locus.String(),
			Message:  flattenMessage(n.Msg),
		})
	}
	return out
}

func severityLabel(s Severity) string {
	switch s {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	default:
		return "info"
	}
}

// flattenMessage keeps every entry on one line.
func flattenMessage(msg string) string {
	return strings.Join(strings.Fields(msg), " ")
}
