package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
)

type keyMap struct {
	Quit     key.Binding
	NextTab  key.Binding
	PrevTab  key.Binding
	RulesTab key.Binding
	BillsTab key.Binding
	Picker   key.Binding
	Up       key.Binding
	Down     key.Binding
	Enter    key.Binding
	Close    key.Binding
	Clear    key.Binding

	Add    key.Binding
	Toggle key.Binding
	Delete key.Binding
	Apply  key.Binding

	Import  key.Binding
	Similar key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		NextTab:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		PrevTab:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
		RulesTab: key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "rules")),
		BillsTab: key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "bills")),
		Picker:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "provider")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("j/k", "navigate")),
		Down:     key.NewBinding(key.WithKeys("down", "j")),
		Enter:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Close:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Clear:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),

		Add:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Toggle: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		Delete: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
		Apply:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "apply to bills")),

		Import:  key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "import")),
		Similar: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "similar bills")),
	}
}

var (
	helpKeyStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	helpDescStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func renderFooter(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, binding := range bindings {
		help := binding.Help()
		if help.Key == "" && help.Desc == "" {
			continue
		}
		parts = append(parts, helpKeyStyle.Render(help.Key)+" "+helpDescStyle.Render(help.Desc))
	}
	return strings.Join(parts, "  ")
}

// newInput returns a single-line prompt with a steady cursor.
func newInput(prompt, placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = prompt
	ti.Placeholder = placeholder
	ti.CharLimit = 512
	ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}
