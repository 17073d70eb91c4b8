package scene

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// Filter narrows the rendered emphasis to points matching a user, a
// cluster, and/or a keyword set. Non-matching points are dimmed, not
// removed; the filter never affects layout or hit-testing.
type Filter struct {
	// UserID, when set, matches only that participant's points.
	UserID string
	// ClusterID, when set, matches only points whose weak cluster
	// reference equals it.
	ClusterID *int

	keywords []string
	matcher  *ahocorasick.Matcher
}

// SetKeywords installs a keyword dimension compiled into a
// multi-pattern matcher. Words are lowercased and blanks dropped; an
// empty list removes the dimension.
func (f *Filter) SetKeywords(words []string) {
	f.keywords = f.keywords[:0]
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			f.keywords = append(f.keywords, w)
		}
	}
	if len(f.keywords) == 0 {
		f.matcher = nil
		return
	}
	f.matcher = ahocorasick.NewStringMatcher(f.keywords)
}

// Keywords returns the installed keyword list.
func (f *Filter) Keywords() []string { return f.keywords }

// Active reports whether any dimension is set.
func (f *Filter) Active() bool {
	return f.UserID != "" || f.ClusterID != nil || f.matcher != nil
}

// Matches reports whether the point satisfies every active dimension.
func (f *Filter) Matches(p *Point) bool {
	if p == nil {
		return false
	}
	if f.UserID != "" && p.UserID != f.UserID {
		return false
	}
	if f.ClusterID != nil {
		if p.ClusterID == nil || *p.ClusterID != *f.ClusterID {
			return false
		}
	}
	if f.matcher != nil {
		text := strings.ToLower(p.Text + " " + p.FormattedText)
		if len(f.matcher.Match([]byte(text))) == 0 {
			return false
		}
	}
	return true
}

// Clear removes every dimension.
func (f *Filter) Clear() {
	f.UserID = ""
	f.ClusterID = nil
	f.keywords = nil
	f.matcher = nil
}
