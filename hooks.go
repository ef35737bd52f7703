package glsl

import "fmt"

// Hooks is an ordered collection of before/after-render callbacks. Add
// returns a remove function; Run invokes every callback in insertion
// order, removing any that return false. A callback that panics is
// recovered, wrapped in a HookError naming the offending hook's stable
// id, and the panic is re-raised via the returned error so the caller's
// run loop can decide what to do with it — subsequent callbacks in the
// same Run do not execute.
type Hooks struct {
	nextID  int
	entries []hookEntry
}

type hookEntry struct {
	id int
	cb func(ClockState) bool
}

// NewHooks creates an empty Hooks collection.
func NewHooks() *Hooks {
	return &Hooks{}
}

// Add registers cb and returns a function that removes it. cb returning
// false is equivalent to calling the remove function after the current
// Run finishes.
func (h *Hooks) Add(cb func(ClockState) bool) func() {
	h.nextID++
	id := h.nextID
	h.entries = append(h.entries, hookEntry{id: id, cb: cb})
	return func() {
		h.removeID(id)
	}
}

func (h *Hooks) removeID(id int) {
	for i, e := range h.entries {
		if e.id == id {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			return
		}
	}
}

// Run invokes every hook in insertion order with state. A hook
// returning false is dropped before Run returns. A hook that panics
// stops the run and the panic is returned as a HookError.
func (h *Hooks) Run(state ClockState) (err error) {
	var toRemove []int
	for _, e := range h.entries {
		keep, runErr := h.runOne(e, state)
		if runErr != nil {
			err = runErr
			break
		}
		if !keep {
			toRemove = append(toRemove, e.id)
		}
	}
	for _, id := range toRemove {
		h.removeID(id)
	}
	return err
}

func (h *Hooks) runOne(e hookEntry, state ClockState) (keep bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			cause, ok := r.(error)
			if !ok {
				cause = panicValueError{r}
			}
			err = HookError{HookID: e.id, Cause: cause}
		}
	}()
	return e.cb(state), nil
}

// Destroy empties the collection.
func (h *Hooks) Destroy() {
	h.entries = nil
}

type panicValueError struct {
	v any
}

func (p panicValueError) Error() string {
	if s, ok := p.v.(string); ok {
		return s
	}
	return fmt.Sprint(p.v)
}
