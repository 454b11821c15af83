package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lexcodex/specnav/outline"
	"github.com/lexcodex/specnav/session"
)

// Update applies incoming Bubble Tea messages to mutate the Model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)
	case outlineLoadedMsg:
		return m.handleOutlineLoaded(msg)
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.focus {
		case focusPicker:
			return m.handlePickerKey(msg)
		default:
			return m.handleTreeKey(msg)
		}
	}
	return m, nil
}

// handleResize splits the terminal into the tree pane and the source
// viewport. The picker always gets the full window when focused.
func (m *Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	statusHeight := 1
	bodyHeight := max(1, msg.Height-statusHeight)
	sourceWidth := max(20, msg.Width-m.treeWidth()-4)

	if !m.ready {
		m.view = viewport.New(sourceWidth, bodyHeight-2)
		m.ready = true
	} else {
		m.view.Width = sourceWidth
		m.view.Height = bodyHeight - 2
	}
	m.view.SetContent(m.renderSource())
	m.picker.SetSize(msg.Width, bodyHeight)
	return m, nil
}

func (m *Model) handleOutlineLoaded(msg outlineLoadedMsg) (tea.Model, tea.Cmd) {
	m.outline = msg.outline
	m.rows = m.visibleRows()
	if m.cursor >= len(m.rows) {
		m.cursor = max(0, len(m.rows)-1)
	}
	if m.outline == nil {
		m.status = "no structure detected"
	} else {
		m.status = ""
	}
	// The highlighted node may have been rebuilt; rebind by key so the
	// decoration tracks the fresh tree.
	if m.highlight != nil {
		m.highlight = m.findByKey(m.highlight.Key())
	}
	m.picker.SetItems(pickerItems(m.outline))
	if m.ready {
		m.view.SetContent(m.renderSource())
	}
	return m, nil
}

func (m *Model) handleTreeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
		return m, nil
	case " ":
		if node := m.currentRow(); node != nil && len(node.Children) > 0 {
			key := node.Key()
			m.collapsed[key] = !m.collapsed[key]
			m.rows = m.visibleRows()
			if m.cursor >= len(m.rows) {
				m.cursor = len(m.rows) - 1
			}
		}
		return m, nil
	case "enter":
		return m.activateNode(m.currentRow())
	case "/", "p":
		return m.openPicker()
	case "r":
		m.sess.Invalidate()
		m.status = "refreshing"
		return m, m.loadOutline
	case "esc":
		m.highlight = nil
		if m.ready {
			m.view.SetContent(m.renderSource())
		}
		return m, nil
	case "pgup", "pgdown", "home", "end":
		var cmd tea.Cmd
		m.view, cmd = m.view.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handlePickerKey routes keys to the bubbles list and mirrors its
// active item into the source pane. Accepting navigates; dismissing
// restores the pre-picker scroll position and clears the highlight.
func (m *Model) handlePickerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if m.picker.FilterState() != list.Filtering {
			if item, ok := m.picker.SelectedItem().(pickerItem); ok {
				return m.navigateTo(item.node)
			}
			return m.dismissPicker()
		}
	case "esc":
		if m.picker.FilterState() == list.Unfiltered {
			return m.dismissPicker()
		}
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	// Moving through the list highlights the active item in place.
	if item, ok := m.picker.SelectedItem().(pickerItem); ok {
		m.applyHighlight(item.node)
	}
	return m, cmd
}

func (m *Model) openPicker() (tea.Model, tea.Cmd) {
	m.focus = focusPicker
	m.savedScroll = m.view.YOffset
	m.picker.ResetFilter()
	m.picker.Select(0)
	return m, nil
}

func (m *Model) dismissPicker() (tea.Model, tea.Cmd) {
	m.focus = focusTree
	m.highlight = nil
	if m.ready {
		m.view.SetContent(m.renderSource())
		m.view.SetYOffset(m.savedScroll)
	}
	return m, nil
}

// activateNode feeds the gesture through the session's click tracking.
// A repeat within the threshold navigates, anything else highlights.
func (m *Model) activateNode(node *outline.Node) (tea.Model, tea.Cmd) {
	if node == nil {
		return m, nil
	}
	switch m.sess.Activate(node) {
	case session.ActionNavigate:
		return m.navigateTo(node)
	default:
		m.applyHighlight(node)
		return m, nil
	}
}

func (m *Model) navigateTo(node *outline.Node) (tea.Model, tea.Cmd) {
	m.chosen = &Location{Path: m.path, Offset: node.Start}
	return m, tea.Quit
}

// applyHighlight decorates the node's extent in the source pane and
// scrolls it into view without moving the tree cursor.
func (m *Model) applyHighlight(node *outline.Node) {
	m.highlight = node
	if !m.ready {
		return
	}
	m.view.SetContent(m.renderSource())
	line := lineOf(m.source, node.Start)
	if line < m.view.YOffset || line >= m.view.YOffset+m.view.Height {
		m.view.SetYOffset(max(0, line-m.view.Height/3))
	}
}

func (m *Model) findByKey(key outline.NodeKey) *outline.Node {
	if m.outline == nil {
		return nil
	}
	for _, node := range m.outline.Flat {
		if node.Key() == key {
			return node
		}
	}
	return nil
}

// Refresh re-fetches the outline outside the Bubble Tea loop, for
// callers embedding the model.
func (m *Model) Refresh(ctx context.Context) {
	m.handleOutlineLoaded(outlineLoadedMsg{outline: m.sess.Outline(ctx)})
}
