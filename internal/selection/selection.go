// Package selection holds the provider selection shared by the rules and bills views.
//
// A Selection is created once at startup and handed to every consumer by
// pointer. Consumers never copy the value; they read it, write it, or
// subscribe to it through the same handle.
package selection

import "strings"

// Selection is the currently selected parser/provider identifier, or none.
type Selection struct {
	cell *Cell[string]
}

// New returns an empty selection.
func New() *Selection {
	return &Selection{cell: NewCell[string]()}
}

// Read returns the selected provider ID. ok is false when nothing is selected.
func (s *Selection) Read() (id string, ok bool) {
	return s.cell.Get()
}

// Write selects id. Any string is accepted, including ones no provider knows about.
func (s *Selection) Write(id string) {
	s.cell.Set(id)
}

// Clear removes the selection.
func (s *Selection) Clear() {
	s.cell.Clear()
}

// Subscribe registers fn to run after every Write or Clear.
func (s *Selection) Subscribe(fn Observer[string]) (unsubscribe func()) {
	return s.cell.Subscribe(fn)
}

// String is used by status lines.
func (s *Selection) String() string {
	id, ok := s.Read()
	if !ok || strings.TrimSpace(id) == "" {
		return "none"
	}
	return id
}
