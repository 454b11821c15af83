package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// View renders the tree pane beside the source viewport, or the
// picker when it has focus.
func (m *Model) View() string {
	if !m.ready {
		return "loading..."
	}
	if m.focus == focusPicker {
		return m.picker.View()
	}

	body := lipgloss.JoinHorizontal(
		lipgloss.Top,
		treeBoxStyle.Render(m.renderTree()),
		m.view.View(),
	)
	return lipgloss.JoinVertical(lipgloss.Left, body, m.statusLine())
}

func (m *Model) treeWidth() int {
	w := m.width * 2 / 5
	if w < 24 {
		w = 24
	}
	return w
}

func (m *Model) renderTree() string {
	if len(m.rows) == 0 {
		return dimStyle.Render("no specs")
	}
	height := max(1, m.height-3)
	top := 0
	if m.cursor >= height {
		top = m.cursor - height + 1
	}

	var b strings.Builder
	width := m.treeWidth()
	for i := top; i < len(m.rows) && i < top+height; i++ {
		node := m.rows[i]
		line := strings.Repeat("  ", depth(node)) + node.Icon() + " " + node.Label()
		line = truncate(line, width)

		style := rowStyle
		switch {
		case i == m.cursor:
			style = cursorRowStyle
		case node.Pending:
			style = pendingRowStyle
		case node.Focused:
			style = focusedRowStyle
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderSource styles the highlighted node's lines against the rest of
// the document.
func (m *Model) renderSource() string {
	lines := strings.Split(m.source, "\n")
	if m.highlight == nil {
		return m.source
	}
	from := lineOf(m.source, m.highlight.Start)
	to := lineOf(m.source, m.highlight.End)

	var b strings.Builder
	for i, line := range lines {
		if i >= from && i <= to {
			b.WriteString(highlightLineStyle.Render(line))
		} else {
			b.WriteString(line)
		}
		if i < len(lines)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m *Model) statusLine() string {
	count := 0
	if m.outline != nil {
		count = m.outline.Len()
	}
	left := fmt.Sprintf("%s  %d nodes", m.path, count)
	if m.status != "" {
		left += "  " + m.status
	}
	hints := dimStyle.Render("enter highlight/jump · / pick · space fold · r refresh · q quit")
	return statusStyle.Width(max(0, m.width)).Render(left + "  " + hints)
}

func lineOf(source string, offset int) int {
	if offset > len(source) {
		offset = len(source)
	}
	return strings.Count(source[:offset], "\n")
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if width <= 0 || len(runes) <= width {
		return s
	}
	if width == 1 {
		return string(runes[:1])
	}
	return string(runes[:width-1]) + "…"
}
