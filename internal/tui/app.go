// Package tui is the terminal interface: a Rules tab and a Bills tab that
// share one provider selection.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jask/jaskbills/internal/config"
	"github.com/jask/jaskbills/internal/provider"
	"github.com/jask/jaskbills/internal/selection"
	"github.com/jask/jaskbills/internal/service"
)

type Services struct {
	Bills *service.BillService
	Rules *service.RuleService
}

type view interface {
	title() string
	header() string
	capturing() bool
	sync() tea.Cmd
	update(tea.KeyMsg) tea.Cmd
	handle(tea.Msg) tea.Cmd
	render() string
	close()
}

const (
	tabRules = iota
	tabBills
)

type selectionChangedMsg struct{}

type errMsg struct{ error }

// App ties the tabs together. Every tab receives the same selection handle.
type App struct {
	ctx    context.Context
	sel    *selection.Selection
	wake   chan struct{}
	keys   keyMap
	views  []view
	active int
	picker *picker
	status string
}

func New(ctx context.Context, cfg config.Config, sel *selection.Selection, reg *provider.Registry, services Services) *App {
	wake := make(chan struct{}, 1)
	keys := newKeyMap()
	bills := newBillsView(ctx, sel, reg, services.Bills, keys, wake)
	if cfg.UI.CurrencySymbol != "" {
		bills.currency = cfg.UI.CurrencySymbol
	}
	if cfg.UI.DateFormat != "" {
		bills.dateFormat = cfg.UI.DateFormat
	}
	return &App{
		ctx:    ctx,
		sel:    sel,
		wake:   wake,
		keys:   keys,
		views:  []view{newRulesView(ctx, sel, reg, services.Rules, keys, wake), bills},
		picker: newPicker(sel, reg, keys),
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(append(a.syncViews(), a.listen())...)
}

// Close drops the tabs' subscriptions.
func (a *App) Close() {
	for _, v := range a.views {
		v.close()
	}
}

func (a *App) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-a.wake:
			return selectionChangedMsg{}
		case <-a.ctx.Done():
			return nil
		}
	}
}

func (a *App) syncViews() []tea.Cmd {
	var cmds []tea.Cmd
	for _, v := range a.views {
		if cmd := v.sync(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return cmds
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.KeyMsg:
		return a, a.handleKey(m)
	case selectionChangedMsg:
		return a, tea.Batch(append(a.syncViews(), a.listen())...)
	case errMsg:
		a.status = "error: " + m.Error()
		return a, nil
	}
	var cmds []tea.Cmd
	for _, v := range a.views {
		if cmd := v.handle(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	return a, tea.Batch(cmds...)
}

func (a *App) handleKey(m tea.KeyMsg) tea.Cmd {
	if m.String() == "ctrl+c" {
		return tea.Quit
	}
	if a.picker.open {
		a.picker.update(m)
		return nil
	}
	cur := a.views[a.active]
	if cur.capturing() {
		return cur.update(m)
	}
	switch {
	case key.Matches(m, a.keys.Quit):
		return tea.Quit
	case key.Matches(m, a.keys.NextTab):
		a.active = (a.active + 1) % len(a.views)
	case key.Matches(m, a.keys.PrevTab):
		a.active = (a.active + len(a.views) - 1) % len(a.views)
	case key.Matches(m, a.keys.RulesTab):
		a.active = tabRules
	case key.Matches(m, a.keys.BillsTab):
		a.active = tabBills
	case key.Matches(m, a.keys.Picker):
		a.picker.show()
	default:
		a.status = ""
		return cur.update(m)
	}
	return nil
}

func (a *App) View() string {
	tabs := make([]string, 0, len(a.views))
	for i, v := range a.views {
		label := strings.Join([]string{string(rune('1' + i)), v.title()}, " ")
		if i == a.active {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	body := []string{lipgloss.JoinHorizontal(lipgloss.Top, tabs...), a.views[a.active].render()}
	if a.picker.open {
		body = append(body, "", a.picker.render())
	}
	if a.status != "" {
		body = append(body, "", errorStyle.Render(a.status))
	}
	body = append(body, renderFooter(a.keys.NextTab, a.keys.RulesTab, a.keys.BillsTab, a.keys.Picker, a.keys.Quit))
	return joinLines(body...)
}
