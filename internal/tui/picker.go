package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/jaskbills/internal/provider"
	"github.com/jask/jaskbills/internal/selection"
)

// picker is the provider chooser shared by both tabs. It only ever writes
// the selection; views learn about the result through their subscriptions.
type picker struct {
	sel       *selection.Selection
	keys      keyMap
	providers []provider.Provider
	open      bool
	cursor    int
}

func newPicker(sel *selection.Selection, reg *provider.Registry, keys keyMap) *picker {
	p := &picker{sel: sel, keys: keys}
	if reg != nil {
		p.providers = reg.List()
	}
	return p
}

func (p *picker) show() {
	p.open = true
	p.cursor = 0
	if id, ok := p.sel.Read(); ok {
		for i, pr := range p.providers {
			if pr.ID == id {
				p.cursor = i
				break
			}
		}
	}
}

func (p *picker) update(m tea.KeyMsg) {
	switch {
	case key.Matches(m, p.keys.Close, p.keys.Picker):
		p.open = false
	case key.Matches(m, p.keys.Up):
		if p.cursor > 0 {
			p.cursor--
		}
	case key.Matches(m, p.keys.Down):
		if p.cursor < len(p.providers)-1 {
			p.cursor++
		}
	case key.Matches(m, p.keys.Enter):
		if p.cursor < len(p.providers) {
			p.sel.Write(p.providers[p.cursor].ID)
		}
		p.open = false
	case key.Matches(m, p.keys.Clear):
		p.sel.Clear()
		p.open = false
	}
}

func (p *picker) render() string {
	lines := []string{titleStyle.Render("Select provider")}
	current, _ := p.sel.Read()
	for i, pr := range p.providers {
		mark := " "
		if pr.ID == current {
			mark = "*"
		}
		lines = append(lines, fmt.Sprintf("%s%s %-10s %s", cursorPrefix(i == p.cursor), mark, pr.ID, pr.Name))
	}
	lines = append(lines, renderFooter(p.keys.Enter, p.keys.Clear, p.keys.Close))
	return pickerStyle.Render(joinLines(lines...))
}

func providerHeader(reg *provider.Registry, id string, ok bool) string {
	if !ok {
		return headerStyle.Render("Provider: none")
	}
	if reg != nil {
		if p, found := reg.Get(id); found {
			return headerStyle.Render(fmt.Sprintf("Provider: %s (%s)", p.Name, p.ID))
		}
		if s, found := reg.Suggest(id); found {
			return errorStyle.Render(fmt.Sprintf("Provider: %s (unknown, did you mean %s?)", id, s))
		}
	}
	return errorStyle.Render(fmt.Sprintf("Provider: %s (unknown)", id))
}
