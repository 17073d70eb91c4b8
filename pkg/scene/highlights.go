package scene

import "time"

// Highlight windows. Entries expire individually; the sets exist only
// to drive pulse animation and never affect layout or hit-testing.
const (
	mineTTL  = 10 * time.Second
	otherTTL = 8 * time.Second
	votedTTL = 6 * time.Second

	maxOthers = 5
	maxVoted  = 5
)

type highlightEntry struct {
	id      string
	expires time.Time
}

// HighlightSet tracks three bounded, time-expiring sets of point ids:
// the viewer's latest point (at most one), other participants' recent
// points (at most five, most recent first), and recently voted points
// (at most five, FIFO eviction). The clock is injected so expiry is
// testable with simulated time.
type HighlightSet struct {
	now    func() time.Time
	mine   highlightEntry
	others []highlightEntry
	voted  []highlightEntry
}

// NewHighlightSet returns an empty set reading time from now.
func NewHighlightSet(now func() time.Time) *HighlightSet {
	if now == nil {
		now = time.Now
	}
	return &HighlightSet{now: now}
}

// SetMine replaces the "my latest point" slot.
func (h *HighlightSet) SetMine(id string) {
	h.mine = highlightEntry{id: id, expires: h.now().Add(mineTTL)}
}

// AddOther records another participant's new point, most recent
// first. An id already present moves to the front with a fresh
// window.
func (h *HighlightSet) AddOther(id string) {
	entry := highlightEntry{id: id, expires: h.now().Add(otherTTL)}
	kept := h.others[:0]
	for _, e := range h.others {
		if e.id != id {
			kept = append(kept, e)
		}
	}
	h.others = append([]highlightEntry{entry}, kept...)
	if len(h.others) > maxOthers {
		h.others = h.others[:maxOthers]
	}
}

// AddVoted records a vote pulse. The set holds at most five entries;
// the oldest gives way first. Re-voting an id already present just
// refreshes its window.
func (h *HighlightSet) AddVoted(id string) {
	for i := range h.voted {
		if h.voted[i].id == id {
			h.voted[i].expires = h.now().Add(votedTTL)
			return
		}
	}
	h.voted = append(h.voted, highlightEntry{id: id, expires: h.now().Add(votedTTL)})
	if len(h.voted) > maxVoted {
		h.voted = h.voted[1:]
	}
}

// Sweep drops every entry whose window has passed.
func (h *HighlightSet) Sweep() {
	now := h.now()
	if h.mine.id != "" && !now.Before(h.mine.expires) {
		h.mine = highlightEntry{}
	}
	h.others = sweepEntries(h.others, now)
	h.voted = sweepEntries(h.voted, now)
}

func sweepEntries(entries []highlightEntry, now time.Time) []highlightEntry {
	kept := entries[:0]
	for _, e := range entries {
		if now.Before(e.expires) {
			kept = append(kept, e)
		}
	}
	return kept
}

// Drop removes an id from every set, regardless of expiry.
func (h *HighlightSet) Drop(id string) {
	h.Retain(func(kept string) bool { return kept != id })
}

// Retain keeps only ids for which keep returns true.
func (h *HighlightSet) Retain(keep func(id string) bool) {
	if h.mine.id != "" && !keep(h.mine.id) {
		h.mine = highlightEntry{}
	}
	others := h.others[:0]
	for _, e := range h.others {
		if keep(e.id) {
			others = append(others, e)
		}
	}
	h.others = others
	voted := h.voted[:0]
	for _, e := range h.voted {
		if keep(e.id) {
			voted = append(voted, e)
		}
	}
	h.voted = voted
}

// Active reports whether anything is highlighted. The animation
// phaser runs only while this is true.
func (h *HighlightSet) Active() bool {
	return h.mine.id != "" || len(h.others) > 0 || len(h.voted) > 0
}

// Mine returns the viewer's latest point id, if the window is still
// open.
func (h *HighlightSet) Mine() (string, bool) {
	return h.mine.id, h.mine.id != ""
}

// IsMine reports whether id is the viewer's highlighted latest point.
func (h *HighlightSet) IsMine(id string) bool {
	return id != "" && h.mine.id == id
}

// IsOther reports whether id is in the recent-others set.
func (h *HighlightSet) IsOther(id string) bool {
	for _, e := range h.others {
		if e.id == id {
			return true
		}
	}
	return false
}

// IsVoted reports whether id is in the recently-voted set.
func (h *HighlightSet) IsVoted(id string) bool {
	for _, e := range h.voted {
		if e.id == id {
			return true
		}
	}
	return false
}

// Contains reports whether id is highlighted in any set.
func (h *HighlightSet) Contains(id string) bool {
	return h.IsMine(id) || h.IsOther(id) || h.IsVoted(id)
}
