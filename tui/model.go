// Package tui is the terminal presenter for a spec outline: a tree
// pane over the source viewport, plus a filterable picker across the
// flat node list. Activation gestures go through the session's click
// disambiguation, so a repeated activation within the threshold
// navigates while a single one highlights.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lexcodex/specnav/outline"
	"github.com/lexcodex/specnav/session"
)

// focusArea selects which pane receives key input.
type focusArea int

const (
	focusTree focusArea = iota
	focusPicker
)

// Location is the navigation target the browser exits with when the
// user accepts a node.
type Location struct {
	Path   string
	Offset int
}

// Model drives the outline browser.
type Model struct {
	sess   *session.Session
	path   string
	source string

	outline   *outline.Outline
	rows      []*outline.Node
	cursor    int
	collapsed map[outline.NodeKey]bool

	picker      list.Model
	view        viewport.Model
	focus       focusArea
	savedScroll int

	highlight *outline.Node
	chosen    *Location
	status    string
	width     int
	height    int
	ready     bool
}

// New builds the browser model for one document.
func New(sess *session.Session, path, source string) *Model {
	m := &Model{
		sess:      sess,
		path:      path,
		source:    source,
		collapsed: make(map[outline.NodeKey]bool),
	}
	m.picker = newPicker()
	return m
}

// Run blocks until the browser exits and returns the accepted
// navigation target, if any.
func Run(ctx context.Context, sess *session.Session, path, source string) (*Location, error) {
	model := New(sess, path, source)
	program := tea.NewProgram(model, tea.WithContext(ctx), tea.WithAltScreen())
	final, err := program.Run()
	if err != nil {
		return nil, err
	}
	m, ok := final.(*Model)
	if !ok {
		return nil, fmt.Errorf("unexpected final model %T", final)
	}
	return m.chosen, nil
}

// Chosen returns the accepted navigation target, nil when the browser
// was dismissed.
func (m *Model) Chosen() *Location { return m.chosen }

type outlineLoadedMsg struct {
	outline *outline.Outline
}

// Init requests the first outline fetch.
func (m *Model) Init() tea.Cmd {
	return m.loadOutline
}

func (m *Model) loadOutline() tea.Msg {
	return outlineLoadedMsg{outline: m.sess.Outline(context.Background())}
}

// visibleRows flattens the tree in pre-order, skipping children of
// collapsed containers.
func (m *Model) visibleRows() []*outline.Node {
	if m.outline == nil {
		return nil
	}
	var rows []*outline.Node
	var walk func(nodes []*outline.Node)
	walk = func(nodes []*outline.Node) {
		for _, node := range nodes {
			rows = append(rows, node)
			if !m.collapsed[node.Key()] {
				walk(node.Children)
			}
		}
	}
	walk(m.outline.Roots)
	return rows
}

func (m *Model) currentRow() *outline.Node {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor]
}

func depth(node *outline.Node) int {
	d := 0
	for p := node.Parent; p != nil; p = p.Parent {
		d++
	}
	return d
}
