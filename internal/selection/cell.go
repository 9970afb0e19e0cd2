package selection

import "sync"

// Observer is called after every write to a Cell. ok is false when the cell was cleared.
type Observer[T any] func(v T, ok bool)

type subscriber[T any] struct {
	id uint64
	fn Observer[T]
}

// Cell is a single-slot register shared by reference. Writes always win and
// every write fans out to the subscribers registered at the time of the write.
type Cell[T any] struct {
	mu     sync.Mutex
	value  T
	ok     bool
	nextID uint64
	seq    uint64
	subs   []subscriber[T]
}

// NewCell returns an empty cell.
func NewCell[T any]() *Cell[T] {
	return &Cell[T]{}
}

// Get returns the current value. ok is false when nothing has been set.
func (c *Cell[T]) Get() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.ok
}

// Set replaces the value and notifies subscribers, even when v equals the current value.
func (c *Cell[T]) Set(v T) {
	c.write(v, true)
}

// Clear drops the value and notifies subscribers.
func (c *Cell[T]) Clear() {
	var zero T
	c.write(zero, false)
}

// Subscribe registers fn. The returned func removes it and is safe to call repeatedly.
func (c *Cell[T]) Subscribe(fn Observer[T]) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	c.mu.Lock()
	c.nextID++
	id := c.nextID
	c.subs = append(c.subs, subscriber[T]{id: id, fn: fn})
	c.mu.Unlock()

	return func() { c.remove(id) }
}

func (c *Cell[T]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// write stores the value under the lock and dispatches outside it, so an
// observer can call back into the cell. A dispatch stops once a newer write
// lands; that write notifies with the newer value.
func (c *Cell[T]) write(v T, ok bool) {
	c.mu.Lock()
	c.value, c.ok = v, ok
	c.seq++
	seq := c.seq
	subs := make([]subscriber[T], len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	for _, s := range subs {
		current, active := c.deliverable(s.id, seq)
		if !current {
			return
		}
		if !active {
			continue
		}
		s.fn(v, ok)
	}
}

// deliverable reports whether write seq is still the latest and whether
// subscriber id is still registered.
func (c *Cell[T]) deliverable(id, seq uint64) (current, active bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.seq != seq {
		return false, false
	}
	for _, s := range c.subs {
		if s.id == id {
			return true, true
		}
	}
	return true, false
}

func (c *Cell[T]) remove(id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, s := range c.subs {
		if s.id == id {
			c.subs = append(c.subs[:i:i], c.subs[i+1:]...)
			return
		}
	}
}
