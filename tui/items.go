package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/lexcodex/specnav/outline"
)

// pickerItem adapts an outline node to the bubbles list. Filtering
// matches against the full ancestor path so "adds calc" finds a spec
// by its describe chain.
type pickerItem struct {
	node *outline.Node
}

func (i pickerItem) Title() string {
	return i.node.Icon() + " " + i.node.Label()
}

func (i pickerItem) Description() string {
	var parts []string
	for p := i.node.Parent; p != nil; p = p.Parent {
		parts = append([]string{p.Label()}, parts...)
	}
	if len(parts) == 0 {
		return "top level"
	}
	return strings.Join(parts, " › ")
}

func (i pickerItem) FilterValue() string {
	return i.Description() + " " + i.node.Label()
}

func newPicker() list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(colorSecondary).BorderForeground(colorSecondary)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(colorDim).BorderForeground(colorSecondary)

	picker := list.New(nil, delegate, 0, 0)
	picker.Title = "Jump to spec"
	picker.SetShowStatusBar(false)
	picker.SetFilteringEnabled(true)
	picker.Styles.Title = titleStyle
	return picker
}

func pickerItems(o *outline.Outline) []list.Item {
	if o == nil {
		return nil
	}
	items := make([]list.Item, 0, o.Len())
	for _, node := range o.Flat {
		items = append(items, pickerItem{node: node})
	}
	return items
}
