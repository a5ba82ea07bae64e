package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// TextOptions control the text renderer.
type TextOptions struct {
	Width int  // terminal columns; 0 falls back to 80
	Plain bool // drop styling even on capable terminals
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	classStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	flagStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

type styler struct{ plain bool }

func (s styler) text(st lipgloss.Style, v string) string {
	if s.plain {
		return v
	}
	return st.Render(v)
}

// RenderText renders the report for a terminal. The output is deterministic
// for a given report and width.
func RenderText(r *Report, opts TextOptions) string {
	width := opts.Width
	if width <= 0 {
		width = 80
	}

	st := styler{plain: opts.Plain}

	var b strings.Builder
	header := fmt.Sprintf("%s: live world (%s strategy)", r.Program, r.Strategy)
	b.WriteString(st.text(titleStyle, truncate(header, width)))
	b.WriteString("\n")
	b.WriteString(st.text(mutedStyle, truncate("modules: "+strings.Join(r.Modules, ", "), width)))
	b.WriteString("\n\n")

	if len(r.Classes) > 0 {
		b.WriteString(st.text(sectionStyle, "classes"))
		b.WriteString("\n")
		for _, cls := range r.Classes {
			renderClass(&b, cls, width, st)
		}
		b.WriteString("\n")
	}

	if len(r.Statics) > 0 {
		b.WriteString(st.text(sectionStyle, "statics"))
		b.WriteString("\n")
		for _, s := range r.Statics {
			caps := make([]string, 0, 2)
			if s.Used {
				caps = append(caps, "used")
			}
			if s.TornOff {
				caps = append(caps, "torn-off")
			}
			line := fmt.Sprintf("  %s  %s", padName(s.Name, width/2), s.Kind)
			if len(caps) > 0 {
				line += "  " + strings.Join(caps, " ")
			}
			b.WriteString(truncate(line, width))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	renderNameList(&b, "static fields", r.StaticFields, width, st)
	renderNameList(&b, "closurized statics", r.ClosurizedStatics, width, st)

	if len(r.Constants) > 0 {
		b.WriteString(st.text(sectionStyle, "constants"))
		b.WriteString(st.text(mutedStyle, " (emission order)"))
		b.WriteString("\n")
		for _, c := range r.Constants {
			b.WriteString(truncate(fmt.Sprintf("  %-8s %s", c.Kind, c.Display), width))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	stats := r.Stats
	b.WriteString(st.text(mutedStyle, truncate(fmt.Sprintf(
		"%d classes, %d members, %d statics, %d constants; %d roots, %d work items, %d impacts",
		stats.LiveClasses, stats.LiveMembers, stats.LiveStatics, stats.Constants,
		stats.Roots, stats.WorkItems, stats.ImpactsApplied), width)))
	b.WriteString("\n")
	return b.String()
}

func renderClass(b *strings.Builder, cls Class, width int, st styler) {
	var flags []string
	if cls.Abstract {
		flags = append(flags, "abstract")
	}
	if cls.Native {
		flags = append(flags, "native")
	}
	if cls.Direct {
		flags = append(flags, "direct")
	} else if cls.Instantiated {
		flags = append(flags, "instantiated")
	}
	if cls.Implemented && !cls.Instantiated {
		flags = append(flags, "implemented only")
	}

	line := "  " + st.text(classStyle, cls.Display())
	if len(flags) > 0 {
		line += " " + st.text(flagStyle, "["+strings.Join(flags, ", ")+"]")
	}
	b.WriteString(line)
	b.WriteString("\n")

	for _, m := range cls.Members {
		b.WriteString(truncate(fmt.Sprintf("    %s  %-11s %s",
			m.Capabilities(), m.Kind, m.Name), width))
		if m.NeedsSuperGetter {
			b.WriteString(st.text(mutedStyle, "  (super getter)"))
		}
		b.WriteString("\n")
	}
}

// Capabilities renders the granted capability set as fixed-width cells:
// r(ead) w(rite) i(nvoke) t(ear-off).
func (m Member) Capabilities() string {
	cell := func(on bool, c byte) byte {
		if on {
			return c
		}
		return '-'
	}
	return string([]byte{
		cell(m.Read, 'r'),
		cell(m.Written, 'w'),
		cell(m.Invoked, 'i'),
		cell(m.TornOff, 't'),
	})
}

func renderNameList(b *strings.Builder, title string, names []string, width int, st styler) {
	if len(names) == 0 {
		return
	}
	b.WriteString(st.text(sectionStyle, title))
	b.WriteString("\n")
	for _, name := range names {
		b.WriteString(truncate("  "+name, width))
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func padName(name string, width int) string {
	if width < 16 {
		width = 16
	}
	if runewidth.StringWidth(name) >= width {
		return name
	}
	return runewidth.FillRight(name, width)
}

func truncate(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
