package tui

import (
	"sync"

	"github.com/jask/jaskbills/internal/selection"
)

// watch mirrors the shared selection for one view. Observers can fire on any
// goroutine, so the value is parked here and the program is woken through a
// one-slot channel; the view picks the latest value up on its next sync.
type watch struct {
	mu          sync.Mutex
	id          string
	ok          bool
	dirty       bool
	unsubscribe func()
}

func newWatch(sel *selection.Selection, wake chan<- struct{}) *watch {
	w := &watch{}
	w.unsubscribe = sel.Subscribe(func(id string, ok bool) {
		w.mu.Lock()
		w.id, w.ok, w.dirty = id, ok, true
		w.mu.Unlock()
		select {
		case wake <- struct{}{}:
		default:
		}
	})
	w.mu.Lock()
	if !w.dirty {
		w.id, w.ok = sel.Read()
		w.dirty = true
	}
	w.mu.Unlock()
	return w
}

// take returns the latest value and whether it changed since the last call.
func (w *watch) take() (string, bool, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	changed := w.dirty
	w.dirty = false
	return w.id, w.ok, changed
}
