// Package ux formats CLI output.
package ux

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/HendryAvila/polly/internal/inventory"
	"github.com/HendryAvila/polly/internal/journal"
	"github.com/HendryAvila/polly/internal/pipeline"
	"github.com/HendryAvila/polly/internal/validator"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	markStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
)

const colGap = 2

// actionStyle colours a next action by how far along it is.
func actionStyle(a pipeline.NextAction) lipgloss.Style {
	switch a {
	case pipeline.Complete:
		return okStyle
	case pipeline.NeedsDiscovery:
		return dimStyle
	default:
		return warnStyle
	}
}

// table lays out rows in left-aligned columns sized to their content.
// styles, when non-nil, returns the style of cell (row, col).
func table(header []string, rows [][]string, styles func(row, col int) lipgloss.Style) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, r := range rows {
		for i, c := range r {
			if w := lipgloss.Width(c); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	line := func(cells []string, style func(col int) lipgloss.Style) {
		for i, c := range cells {
			pad := widths[i] - lipgloss.Width(c)
			if i < len(cells)-1 {
				pad += colGap
			} else {
				pad = 0
			}
			b.WriteString(style(i).Render(c))
			b.WriteString(strings.Repeat(" ", pad))
		}
		b.WriteByte('\n')
	}

	line(header, func(int) lipgloss.Style { return headerStyle })
	for ri, r := range rows {
		line(r, func(col int) lipgloss.Style {
			if styles == nil {
				return lipgloss.NewStyle()
			}
			return styles(ri, col)
		})
	}
	return b.String()
}

// --- Status ---

// Status renders the inventory as a table with one row per feature, the
// suggested feature marked, followed by scan warnings.
func Status(inv *inventory.Inventory, resume *pipeline.Resume) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", headerStyle.Render("Project:"), inv.Root)

	if inv.Empty() {
		b.WriteString(dimStyle.Render("No features yet. Start with discovery or capture an idea."))
		b.WriteByte('\n')
		writeWarnings(&b, inv.Warnings)
		return b.String()
	}

	header := []string{"", "FEATURE", "STATUS", "INCREMENTS", "PROMPTS", "NEXT"}
	rows := make([][]string, 0, len(resume.Order))
	actions := make([]pipeline.NextAction, 0, len(resume.Order))
	for _, slug := range resume.Order {
		r := inv.Records[slug]
		a := resume.Actions[slug]
		mark := ""
		if slug == resume.Suggested {
			mark = "→"
		}
		rows = append(rows, []string{
			mark,
			slug,
			string(r.Status),
			fmt.Sprint(r.IncrementCount),
			fmt.Sprintf("%d/%d", r.PromptCount, r.IncrementCount),
			string(a),
		})
		actions = append(actions, a)
	}

	b.WriteString(table(header, rows, func(row, col int) lipgloss.Style {
		switch col {
		case 0:
			return markStyle
		case 5:
			return actionStyle(actions[row])
		default:
			return lipgloss.NewStyle()
		}
	}))

	if resume.Suggested != "" {
		fmt.Fprintf(&b, "\n%s %s: %s\n",
			markStyle.Render("Suggested:"), resume.Suggested,
			pipeline.Describe(resume.Actions[resume.Suggested]))
	} else {
		fmt.Fprintf(&b, "\n%s\n", okStyle.Render("Every feature is complete."))
	}
	writeWarnings(&b, inv.Warnings)
	return b.String()
}

func writeWarnings(b *strings.Builder, warnings []inventory.Warning) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s\n", headerStyle.Render("Warnings:"))
	for _, w := range warnings {
		fmt.Fprintf(b, "  %s %s\n", warnStyle.Render("!"), w.String())
	}
}

// --- Validation ---

// Violations renders plan violations, blocking ones first.
func Violations(vs []validator.Violation) string {
	if len(vs) == 0 {
		return okStyle.Render("Plan is valid.") + "\n"
	}
	var b strings.Builder
	for _, blocking := range []bool{true, false} {
		for _, v := range vs {
			if v.Blocking() != blocking {
				continue
			}
			style := warnStyle
			if blocking {
				style = errStyle
			}
			fmt.Fprintf(&b, "%s\n", style.Render(v.String()))
		}
	}
	return b.String()
}

// --- History ---

// History renders journal entries newest first.
func History(entries []journal.Entry) string {
	if len(entries) == 0 {
		return dimStyle.Render("No journal entries.") + "\n"
	}
	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{e.CreatedAt, e.Operation, e.Kind, e.Slug, e.Path}
	}
	return table([]string{"WHEN", "OP", "KIND", "SLUG", "PATH"}, rows, func(_, col int) lipgloss.Style {
		if col == 0 {
			return dimStyle
		}
		return lipgloss.NewStyle()
	})
}

// --- One-liners ---

// Success formats a confirmation line.
func Success(format string, args ...any) string {
	return okStyle.Render("✓") + " " + fmt.Sprintf(format, args...)
}

// Warning formats a warning line.
func Warning(format string, args ...any) string {
	return warnStyle.Render("!") + " " + fmt.Sprintf(format, args...)
}

// Error formats an error line.
func Error(err error) string {
	return errStyle.Render("error:") + " " + err.Error()
}
