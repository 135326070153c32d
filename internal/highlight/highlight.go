// Package highlight manages the single visual marker the assistant may
// place on a page element.
package highlight

import (
	"sync"
	"time"

	"github.com/themobileprof/voicepilot/internal/dom"
)

// MarkerClass is the reserved class added to the highlighted element.
// Adding and removing this class is the only page mutation the
// assistant performs.
const MarkerClass = "voicepilot-highlight"

// DefaultDuration is how long a highlight stays before auto-clearing.
const DefaultDuration = 4 * time.Second

// Highlighter applies the marker class to one element at a time.
type Highlighter struct {
	mu       sync.Mutex
	duration time.Duration
	active   *dom.Element
	timer    *time.Timer
}

// NewHighlighter creates a new highlighter
func NewHighlighter() *Highlighter {
	return &Highlighter{duration: DefaultDuration}
}

// SetDuration overrides the auto-clear delay.
func (h *Highlighter) SetDuration(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.duration = d
}

// Apply highlights el, clearing any previous highlight first. The
// marker auto-clears after the configured duration. A nil element
// only clears.
func (h *Highlighter) Apply(el *dom.Element) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clearLocked()
	if el == nil {
		return
	}

	el.AddClass(MarkerClass)
	h.active = el
	h.timer = time.AfterFunc(h.duration, func() { h.expire(el) })
}

// Clear removes the current highlight, if any, and discards its timer.
func (h *Highlighter) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clearLocked()
}

// Active returns the currently highlighted element, if any.
func (h *Highlighter) Active() *dom.Element {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active
}

func (h *Highlighter) clearLocked() {
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	if h.active != nil {
		h.active.RemoveClass(MarkerClass)
		h.active = nil
	}
}

// expire is the timer path; it only clears if the highlight it was
// armed for is still the active one.
func (h *Highlighter) expire(el *dom.Element) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.active != el {
		return
	}
	el.RemoveClass(MarkerClass)
	h.active = nil
	h.timer = nil
}
