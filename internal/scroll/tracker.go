// Package scroll derives whether a log view should follow new output from
// the viewport's scroll position.
package scroll

// DefaultThreshold absorbs rounding jitter when deciding "at bottom".
const DefaultThreshold = 10

// Tracker holds the auto-scroll flag. It is updated by two independent
// signals, an explicit toggle and scroll observations; the last one wins.
type Tracker struct {
	threshold  int
	autoScroll bool
}

// New returns a tracker with auto-scroll enabled. A negative threshold is
// treated as zero.
func New(threshold int) *Tracker {
	if threshold < 0 {
		threshold = 0
	}
	return &Tracker{threshold: threshold, autoScroll: true}
}

// Enabled reports whether new output should scroll the view to the bottom.
func (t *Tracker) Enabled() bool {
	return t.autoScroll
}

// Threshold returns the configured slack in scroll units.
func (t *Tracker) Threshold() int {
	return t.threshold
}

// AtBottom reports whether the given position counts as the bottom.
func (t *Tracker) AtBottom(scrollTop, scrollHeight, viewportHeight int) bool {
	return scrollTop+viewportHeight >= scrollHeight-t.threshold
}

// Observe updates the flag from a scroll position and returns the new value.
func (t *Tracker) Observe(scrollTop, scrollHeight, viewportHeight int) bool {
	atBottom := t.AtBottom(scrollTop, scrollHeight, viewportHeight)
	if atBottom != t.autoScroll {
		t.autoScroll = atBottom
	}
	return t.autoScroll
}

// Toggle flips the flag unconditionally. It is the only way to turn
// following back on while the view is scrolled up.
func (t *Tracker) Toggle() bool {
	t.autoScroll = !t.autoScroll
	return t.autoScroll
}
