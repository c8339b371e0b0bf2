package rules

import (
	"fmt"
	"sync/atomic"
)

// Holder publishes the active rule set. Readers call Get on every request and
// see either the old or the new set, never a partial one.
type Holder struct {
	cur  atomic.Pointer[Set]
	subs []func(*Set)
}

// NewHolder creates a holder seeded with s, or with Default when s is nil.
func NewHolder(s *Set) *Holder {
	if s == nil {
		s = Default()
	}
	h := &Holder{}
	h.cur.Store(s)
	return h
}

// Get returns the active rule set.
func (h *Holder) Get() *Set {
	return h.cur.Load()
}

// OnSwap registers fn to run after every successful swap. Not safe to call
// concurrently with Swap; register during wiring.
func (h *Holder) OnSwap(fn func(*Set)) {
	h.subs = append(h.subs, fn)
}

// Swap replaces the active rule set.
func (h *Holder) Swap(s *Set) error {
	if s == nil {
		return fmt.Errorf("rules: swap with nil set")
	}
	h.cur.Store(s)
	for _, fn := range h.subs {
		fn(s)
	}
	return nil
}

// LoadFile parses path and swaps it in. The active set is kept on error.
func (h *Holder) LoadFile(path string) error {
	s, err := Load(path)
	if err != nil {
		return err
	}
	return h.Swap(s)
}
