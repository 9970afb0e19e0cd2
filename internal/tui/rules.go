package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/jaskbills/internal/database/repository"
	"github.com/jask/jaskbills/internal/provider"
	"github.com/jask/jaskbills/internal/selection"
	"github.com/jask/jaskbills/internal/service"
)

type rulesMsg struct {
	provider string
	rules    []repository.Rule
}

type rulesChangedMsg struct {
	provider string
	status   string
}

// rulesView lists and edits the rules of the selected provider.
type rulesView struct {
	ctx       context.Context
	sel       *selection.Selection
	providers *provider.Registry
	svc       *service.RuleService
	watch     *watch
	keys      keyMap

	current  string
	selected bool
	rules    []repository.Rule
	cursor   int
	adding   bool
	input    textinput.Model
	status   string
}

func newRulesView(ctx context.Context, sel *selection.Selection, reg *provider.Registry, svc *service.RuleService, keys keyMap, wake chan<- struct{}) *rulesView {
	return &rulesView{
		ctx:       ctx,
		sel:       sel,
		providers: reg,
		svc:       svc,
		watch:     newWatch(sel, wake),
		keys:      keys,
		input:     newInput("New rule: ", "WOOLWORTHS -> Groceries"),
	}
}

func (v *rulesView) title() string { return "Rules" }

func (v *rulesView) capturing() bool { return v.adding }

func (v *rulesView) close() { v.watch.unsubscribe() }

func (v *rulesView) sync() tea.Cmd {
	id, ok, changed := v.watch.take()
	if !changed {
		return nil
	}
	v.current, v.selected = id, ok
	v.rules, v.cursor, v.status = nil, 0, ""
	if !ok {
		return nil
	}
	return v.load()
}

func (v *rulesView) load() tea.Cmd {
	if v.svc == nil {
		return nil
	}
	want := v.current
	return func() tea.Msg {
		list, err := v.svc.List(v.ctx)
		if err != nil {
			return errMsg{err}
		}
		return rulesMsg{provider: want, rules: list}
	}
}

func (v *rulesView) handle(msg tea.Msg) tea.Cmd {
	switch m := msg.(type) {
	case rulesMsg:
		if m.provider != v.current {
			return nil
		}
		v.rules = m.rules
		if v.cursor >= len(v.rules) {
			v.cursor = max(len(v.rules)-1, 0)
		}
	case rulesChangedMsg:
		if m.provider != v.current {
			return nil
		}
		v.status = m.status
		return v.load()
	}
	return nil
}

func (v *rulesView) update(m tea.KeyMsg) tea.Cmd {
	if v.adding {
		return v.updateAdding(m)
	}
	switch {
	case key.Matches(m, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
		}
	case key.Matches(m, v.keys.Down):
		if v.cursor < len(v.rules)-1 {
			v.cursor++
		}
	case key.Matches(m, v.keys.Add):
		if !v.selected {
			v.status = "pick a provider first (p)"
			return nil
		}
		v.adding, v.status = true, ""
		v.input.Reset()
		return v.input.Focus()
	case key.Matches(m, v.keys.Toggle):
		if r, ok := v.cursorRule(); ok {
			return v.mutate(func() (string, error) {
				on, err := v.svc.Toggle(v.ctx, r.ID)
				if err != nil {
					return "", err
				}
				if on {
					return fmt.Sprintf("enabled %q", r.Name), nil
				}
				return fmt.Sprintf("disabled %q", r.Name), nil
			})
		}
	case key.Matches(m, v.keys.Delete):
		if r, ok := v.cursorRule(); ok {
			return v.mutate(func() (string, error) {
				if err := v.svc.Delete(v.ctx, r.ID); err != nil {
					return "", err
				}
				return fmt.Sprintf("deleted %q", r.Name), nil
			})
		}
	case key.Matches(m, v.keys.Apply):
		if v.selected {
			return v.mutate(func() (string, error) {
				n, err := v.svc.Apply(v.ctx)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("categorised %d bills", n), nil
			})
		}
	}
	return nil
}

func (v *rulesView) updateAdding(m tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(m, v.keys.Close):
		v.adding = false
		v.input.Blur()
		return nil
	case key.Matches(m, v.keys.Enter):
		in, err := parseRuleInput(v.input.Value())
		if err != nil {
			v.status = err.Error()
			return nil
		}
		v.adding = false
		v.input.Blur()
		return v.mutate(func() (string, error) {
			r, err := v.svc.Add(v.ctx, in)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("added %q -> %s", r.Name, r.Category), nil
		})
	}
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(m)
	return cmd
}

func (v *rulesView) mutate(fn func() (string, error)) tea.Cmd {
	if v.svc == nil {
		return nil
	}
	want := v.current
	return func() tea.Msg {
		status, err := fn()
		if err != nil {
			return errMsg{err}
		}
		return rulesChangedMsg{provider: want, status: status}
	}
}

func (v *rulesView) cursorRule() (repository.Rule, bool) {
	if v.cursor < 0 || v.cursor >= len(v.rules) {
		return repository.Rule{}, false
	}
	return v.rules[v.cursor], true
}

func (v *rulesView) header() string {
	return providerHeader(v.providers, v.current, v.selected)
}

func (v *rulesView) render() string {
	lines := []string{titleStyle.Render("Rules"), v.header(), ""}
	switch {
	case !v.selected:
		lines = append(lines, dimStyle.Render("No provider selected. Press p to pick one."))
	case len(v.rules) == 0:
		lines = append(lines, dimStyle.Render("No rules yet. Press a to add one."))
	default:
		for i, r := range v.rules {
			state := "on "
			if !r.Enabled {
				state = "off"
			}
			lines = append(lines, fmt.Sprintf("%s[%s] %-3d %-8s %-28s -> %s",
				cursorPrefix(i == v.cursor), state, r.Priority, r.PatternType, truncate(r.Pattern, 28), r.Category))
		}
	}
	if v.adding {
		lines = append(lines, "", v.input.View(),
			dimStyle.Render("pattern -> category   (prefix expr: or = for expression/exact rules)"))
	}
	if v.status != "" {
		lines = append(lines, "", v.status)
	}
	lines = append(lines, "", renderFooter(v.keys.Add, v.keys.Toggle, v.keys.Delete, v.keys.Apply))
	return joinLines(lines...)
}

// parseRuleInput reads "pattern -> category". A leading "expr:" makes an
// expression rule and a leading "=" an exact match; otherwise it is a
// case-insensitive contains match.
func parseRuleInput(s string) (service.RuleInput, error) {
	i := strings.LastIndex(s, "->")
	if i < 0 {
		return service.RuleInput{}, errors.New("expected pattern -> category")
	}
	pattern := strings.TrimSpace(s[:i])
	in := service.RuleInput{Category: strings.TrimSpace(s[i+2:]), PatternType: repository.PatternContains}
	switch {
	case strings.HasPrefix(pattern, "expr:"):
		in.PatternType = repository.PatternExpr
		pattern = strings.TrimSpace(strings.TrimPrefix(pattern, "expr:"))
	case strings.HasPrefix(pattern, "="):
		in.PatternType = repository.PatternExact
		pattern = strings.TrimSpace(strings.TrimPrefix(pattern, "="))
	}
	if pattern == "" {
		return service.RuleInput{}, errors.New("pattern is empty")
	}
	if in.Category == "" {
		return service.RuleInput{}, errors.New("category is empty")
	}
	in.Pattern = pattern
	return in, nil
}
