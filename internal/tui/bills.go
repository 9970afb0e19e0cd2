package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/jaskbills/internal/database/repository"
	"github.com/jask/jaskbills/internal/provider"
	"github.com/jask/jaskbills/internal/selection"
	"github.com/jask/jaskbills/internal/service"
)

const billsLimit = 200

type billsMsg struct {
	provider string
	bills    []repository.Bill
}

type importDoneMsg struct {
	provider string
	file     string
	result   service.ImportResult
}

type similarMsg struct {
	bill    repository.Bill
	matches []repository.Bill
}

// billsView imports bill files with the selected provider and lists the results.
type billsView struct {
	ctx        context.Context
	sel        *selection.Selection
	providers  *provider.Registry
	svc        *service.BillService
	watch      *watch
	keys       keyMap
	currency   string
	dateFormat string

	current    string
	selected   bool
	bills      []repository.Bill
	cursor     int
	importing  bool
	importPath textinput.Model
	lastImport *service.ImportResult
	status     string
}

func newBillsView(ctx context.Context, sel *selection.Selection, reg *provider.Registry, svc *service.BillService, keys keyMap, wake chan<- struct{}) *billsView {
	return &billsView{
		ctx:        ctx,
		sel:        sel,
		providers:  reg,
		svc:        svc,
		watch:      newWatch(sel, wake),
		keys:       keys,
		currency:   "$",
		dateFormat: "02/01/2006",
		importPath: newInput("CSV path: ", "ANZ 040226.csv"),
	}
}

func (v *billsView) title() string { return "Bills" }

func (v *billsView) capturing() bool { return v.importing }

func (v *billsView) close() { v.watch.unsubscribe() }

func (v *billsView) sync() tea.Cmd {
	id, ok, changed := v.watch.take()
	if !changed {
		return nil
	}
	v.current, v.selected = id, ok
	v.bills, v.cursor, v.status = nil, 0, ""
	return v.load()
}

func (v *billsView) load() tea.Cmd {
	if v.svc == nil {
		return nil
	}
	want, ok := v.current, v.selected
	return func() tea.Msg {
		f := repository.BillFilters{Limit: billsLimit}
		if ok {
			f.ProviderID = want
		}
		list, err := v.svc.List(v.ctx, f)
		if err != nil {
			return errMsg{err}
		}
		return billsMsg{provider: want, bills: list}
	}
}

func (v *billsView) handle(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case billsMsg:
		if m.provider != v.current {
			return nil
		}
		v.bills = m.bills
		if v.cursor >= len(v.bills) {
			v.cursor = max(len(v.bills)-1, 0)
		}
	case importDoneMsg:
		res := m.result
		v.lastImport = &res
		summary := fmt.Sprintf("%s (%s): imported %d, skipped %d, categorised %d", filepath.Base(m.file), m.provider, res.Imported, res.Skipped, res.Categorised)
		if len(res.Errors) > 0 {
			summary += fmt.Sprintf(", errors %d", len(res.Errors))
		}
		v.status = summary
		return v.load()
	case similarMsg:
		if len(m.matches) == 0 {
			v.status = fmt.Sprintf("no bills similar to %q", m.bill.Description)
			return nil
		}
		descs := make([]string, 0, len(m.matches))
		for _, b := range m.matches {
			descs = append(descs, b.Date.Format(v.dateFormat)+" "+b.Description)
		}
		v.status = fmt.Sprintf("%d similar: %s", len(m.matches), strings.Join(descs, "; "))
	}
	return nil
}

func (v *billsView) update(m tea.KeyMsg) tea.Cmd {
	if v.importing {
		return v.updateImport(m)
	}
	switch {
	case key.Matches(m, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
		}
	case key.Matches(m, v.keys.Down):
		if v.cursor < len(v.bills)-1 {
			v.cursor++
		}
	case key.Matches(m, v.keys.Import):
		if !v.selected {
			v.status = "pick a provider first (p)"
			return nil
		}
		v.importing, v.status = true, ""
		v.importPath.Reset()
		return v.importPath.Focus()
	case key.Matches(m, v.keys.Similar):
		if v.cursor < len(v.bills) && v.svc != nil {
			b := v.bills[v.cursor]
			return func() tea.Msg {
				matches, err := v.svc.Similar(v.ctx, b)
				if err != nil {
					return errMsg{err}
				}
				return similarMsg{bill: b, matches: matches}
			}
		}
	}
	return nil
}

func (v *billsView) updateImport(m tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(m, v.keys.Close):
		v.importing = false
		v.importPath.Blur()
		return nil
	case key.Matches(m, v.keys.Enter):
		path := strings.TrimSpace(v.importPath.Value())
		if path == "" {
			v.status = "enter a CSV path"
			return nil
		}
		v.importing = false
		v.importPath.Blur()
		return v.importCmd(path)
	}
	var cmd tea.Cmd
	v.importPath, cmd = v.importPath.Update(m)
	return cmd
}

func (v *billsView) importCmd(path string) tea.Cmd {
	if v.svc == nil {
		return func() tea.Msg { return errMsg{fmt.Errorf("bill service not configured")} }
	}
	abs := path
	if p, err := filepath.Abs(path); err == nil {
		abs = p
	}
	v.status = "importing..."
	want := v.current
	return func() tea.Msg {
		f, err := os.Open(abs)
		if err != nil {
			return errMsg{fmt.Errorf("open %s: %w", abs, err)}
		}
		defer f.Close()

		res, err := v.svc.Import(v.ctx, f, "")
		if err != nil {
			return errMsg{err}
		}
		return importDoneMsg{provider: want, file: abs, result: res}
	}
}

func (v *billsView) header() string {
	return providerHeader(v.providers, v.current, v.selected)
}

func (v *billsView) render() string {
	lines := []string{titleStyle.Render("Bills"), v.header(), ""}
	if !v.selected {
		lines = append(lines, dimStyle.Render("No provider selected: showing every provider. Press p to pick one."))
	}
	if len(v.bills) == 0 {
		lines = append(lines, dimStyle.Render("No bills. Press i to import a CSV."))
	}
	for i, b := range v.bills {
		cat := "-"
		if b.Category != nil {
			cat = *b.Category
		}
		lines = append(lines, fmt.Sprintf("%s%s  %12s  %-40s %s",
			cursorPrefix(i == v.cursor), b.Date.Format(v.dateFormat), formatCents(v.currency, b.AmountCents), truncate(b.Description, 40), cat))
	}
	if v.importing {
		lines = append(lines, "", v.importPath.View(), renderFooter(v.keys.Enter, v.keys.Close))
	}
	if v.lastImport != nil && len(v.lastImport.Errors) > 0 {
		msg := "First error: " + v.lastImport.Errors[0].Error()
		if n := len(v.lastImport.Errors); n > 1 {
			msg += fmt.Sprintf(" (+%d more)", n-1)
		}
		lines = append(lines, "", errorStyle.Render(msg))
	}
	if v.status != "" {
		lines = append(lines, "", v.status)
	}
	lines = append(lines, "", renderFooter(v.keys.Up, v.keys.Import, v.keys.Similar))
	return joinLines(lines...)
}
