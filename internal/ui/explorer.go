// Package ui hosts the interactive terminal front ends of the lumen CLI.
package ui

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"lumen/internal/report"
)

var (
	explorerTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	explorerHintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// reportItem is one browsable entry: a class, a static, or a synthetic
// section like the constant pool.
type reportItem struct {
	title  string
	desc   string
	detail string
}

func (i reportItem) Title() string       { return i.title }
func (i reportItem) Description() string { return i.desc }
func (i reportItem) FilterValue() string { return i.title }

type explorerModel struct {
	list      list.Model
	view      viewport.Model
	opened    bool
	openTitle string
	width     int
	height    int
}

// NewExplorer returns a Bubble Tea model that browses a finished report:
// a filterable entry list, with a scrollable detail pane per entry.
func NewExplorer(rep *report.Report) tea.Model {
	l := list.New(buildItems(rep), list.NewDefaultDelegate(), 0, 0)
	l.Title = fmt.Sprintf("%s: live world (%s strategy)", rep.Program, rep.Strategy)
	return &explorerModel{list: l, view: viewport.New(0, 0)}
}

// RunExplorer opens the interactive browser over a report and blocks until
// the user quits.
func RunExplorer(rep *report.Report) error {
	program := tea.NewProgram(NewExplorer(rep), tea.WithOutput(os.Stdout), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func (m *explorerModel) Init() tea.Cmd {
	return nil
}

func (m *explorerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height)
		m.view.Width = msg.Width
		m.view.Height = max(msg.Height-3, 1)
		return m, nil

	case tea.KeyMsg:
		if m.opened {
			switch msg.String() {
			case "q", "ctrl+c":
				return m, tea.Quit
			case "esc", "backspace":
				m.opened = false
				return m, nil
			}
		} else if m.list.FilterState() != list.Filtering {
			switch msg.String() {
			case "q", "ctrl+c":
				return m, tea.Quit
			case "enter":
				if item, ok := m.list.SelectedItem().(reportItem); ok {
					m.opened = true
					m.openTitle = item.title
					m.view.SetContent(item.detail)
					m.view.GotoTop()
				}
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	if m.opened {
		m.view, cmd = m.view.Update(msg)
	} else {
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m *explorerModel) View() string {
	if !m.opened {
		return m.list.View()
	}
	var b strings.Builder
	b.WriteString(explorerTitleStyle.Render(truncate(m.openTitle, m.width)))
	b.WriteString("\n")
	b.WriteString(m.view.View())
	b.WriteString("\n")
	b.WriteString(explorerHintStyle.Render("esc to go back, q to quit"))
	return b.String()
}

func buildItems(rep *report.Report) []list.Item {
	items := make([]list.Item, 0, len(rep.Classes)+len(rep.Statics)+2)
	items = append(items, reportItem{
		title:  "overview",
		desc:   fmt.Sprintf("%s, %s", plural(len(rep.Modules), "module"), plural(rep.Stats.Roots, "root")),
		detail: overviewDetail(rep),
	})
	for _, cls := range rep.Classes {
		items = append(items, reportItem{
			title:  cls.Display(),
			desc:   classSummary(cls),
			detail: classDetail(cls),
		})
	}
	for _, s := range rep.Statics {
		items = append(items, reportItem{
			title:  s.Name,
			desc:   staticSummary(s),
			detail: staticDetail(s, rep),
		})
	}
	if len(rep.Constants) > 0 {
		items = append(items, reportItem{
			title:  "constants",
			desc:   plural(len(rep.Constants), "entry") + " in emission order",
			detail: constantsDetail(rep),
		})
	}
	return items
}

func overviewDetail(rep *report.Report) string {
	var b strings.Builder
	b.WriteString("modules (dependency first)\n")
	for _, mod := range rep.Modules {
		fmt.Fprintf(&b, "  %s\n", mod)
	}
	stats := rep.Stats
	fmt.Fprintf(&b, "\nlive: %d classes, %d members, %d statics, %d constants\n",
		stats.LiveClasses, stats.LiveMembers, stats.LiveStatics, stats.Constants)
	fmt.Fprintf(&b, "work: %d roots, %d work items, %d impacts, %d classes processed\n",
		stats.Roots, stats.WorkItems, stats.ImpactsApplied, stats.ClassesProcessed)
	return b.String()
}

func classSummary(cls report.Class) string {
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
	summary := plural(len(cls.Members), "live member")
	if len(flags) > 0 {
		summary += "  [" + strings.Join(flags, ", ") + "]"
	}
	return summary
}

func classDetail(cls report.Class) string {
	var b strings.Builder
	if len(cls.Members) == 0 {
		b.WriteString("no live members\n")
		return b.String()
	}
	b.WriteString("capabilities: r(ead) w(rite) i(nvoke) t(ear-off)\n\n")
	for _, m := range cls.Members {
		fmt.Fprintf(&b, "%s  %-11s %s", m.Capabilities(), m.Kind, m.Name)
		if m.NeedsSuperGetter {
			b.WriteString("  (super getter)")
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func staticSummary(s report.Static) string {
	parts := []string{s.Kind}
	if s.Used {
		parts = append(parts, "used")
	}
	if s.TornOff {
		parts = append(parts, "torn-off")
	}
	return strings.Join(parts, ", ")
}

func staticDetail(s report.Static, rep *report.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "kind: %s\n", s.Kind)
	if s.Used {
		b.WriteString("has a normal use (call or read)\n")
	}
	if s.TornOff {
		b.WriteString("referenced as a value; a closure wrapper will be emitted\n")
	}
	if slices.Contains(rep.StaticFields, s.Name) {
		b.WriteString("storage cell required\n")
	}
	return b.String()
}

func constantsDetail(rep *report.Report) string {
	var b strings.Builder
	b.WriteString("emission order, dependencies first\n\n")
	for i, c := range rep.Constants {
		fmt.Fprintf(&b, "%3d  %-9s %s\n", i+1, c.Kind, c.Display)
	}
	return b.String()
}

func plural(n int, what string) string {
	if n == 1 {
		return "1 " + what
	}
	if strings.HasSuffix(what, "y") {
		return fmt.Sprintf("%d %sies", n, strings.TrimSuffix(what, "y"))
	}
	return fmt.Sprintf("%d %ss", n, what)
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
