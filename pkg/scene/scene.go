// Package scene holds the client-side copy of an idea-mapping
// session: every submitted point, the current cluster regions, the
// selection and hover state, and the short-lived highlight sets that
// drive pulse animation. The state is mutated only by Apply (server
// events) and by the local interaction setters, and it is always
// reconstructible by replaying the event stream since the last
// snapshot.
package scene

import (
	"sort"
	"time"

	"ideamap/pkg/geometry"
)

// Point is one submitted idea placed on the 2D plane. Only VoteCount
// and HasVoted (vote events) and X, Y and ClusterID (coordinate
// recompute events) change after creation.
type Point struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	UserName       string    `json:"user_name"`
	X              float64   `json:"x"`
	Y              float64   `json:"y"`
	ClusterID      *int      `json:"cluster_id"`
	Novelty        float64   `json:"novelty"`
	Text           string    `json:"text"`
	FormattedText  string    `json:"formatted_text"`
	ClosestPriorID string    `json:"closest_prior_id"`
	CreatedAt      time.Time `json:"created_at"`
	VoteCount      int       `json:"vote_count"`
	HasVoted       bool      `json:"has_voted"`
}

// Position returns the point's data-space coordinates.
func (p *Point) Position() geometry.Point2D {
	return geometry.Point2D{X: p.X, Y: p.Y}
}

// DisplayText prefers the formatted text when the backend produced
// one.
func (p *Point) DisplayText() string {
	if p.FormattedText != "" {
		return p.FormattedText
	}
	return p.Text
}

// ClusterRegion is a labeled convex-hull grouping of points. Regions
// are swapped wholesale on cluster events and never patched, so a
// Point's ClusterID is a weak reference resolved by lookup at use
// time.
type ClusterRegion struct {
	ID         int                `json:"id"`
	Label      string             `json:"label"`
	Hull       []geometry.Point2D `json:"hull"`
	Count      int                `json:"count"`
	AvgNovelty float64            `json:"avg_novelty"`
}

// Drawable reports whether the region has enough hull vertices to
// form a polygon. Smaller hulls are kept for label lookups but never
// drawn.
func (c *ClusterRegion) Drawable() bool {
	return len(c.Hull) >= 3
}

// ScoreRow is one leaderboard entry.
type ScoreRow struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Votes    int    `json:"votes"`
	Ideas    int    `json:"ideas"`
}

// SessionStatus mirrors the session_status_changed payload.
type SessionStatus struct {
	Status         string `json:"status"`
	AcceptingIdeas bool   `json:"accepting_ideas"`
}

// State is the reduced scene. It is owned by exactly one goroutine
// (the game loop); nothing here locks.
type State struct {
	// ViewerID identifies the local participant. Vote events for
	// this id flip HasVoted, and created points owned by it get the
	// "my latest" highlight.
	ViewerID string

	// FirstSeen gates discovery highlights: it must return true the
	// first time an id is offered and false afterwards. Nil treats
	// every created point as newly discovered.
	FirstSeen func(id string) bool

	points   []*Point
	byID     map[string]*Point
	regions  []ClusterRegion
	byRegion map[int]int

	selectedID    string
	hoveredID     string
	hoveredRegion *int

	Highlights *HighlightSet
	Filter     Filter

	scoreboard   []ScoreRow
	status       SessionStatus
	participants int
}

// NewState returns an empty scene for the given viewer.
func NewState(viewerID string) *State {
	return &State{
		ViewerID:   viewerID,
		byID:       make(map[string]*Point),
		byRegion:   make(map[int]int),
		Highlights: NewHighlightSet(time.Now),
		status:     SessionStatus{Status: "active", AcceptingIdeas: true},
	}
}

// Points returns the live point slice in arrival order. Callers must
// treat it as read-only.
func (s *State) Points() []*Point { return s.points }

// PointByID resolves a point id, nil when absent.
func (s *State) PointByID(id string) *Point { return s.byID[id] }

// Len returns the number of points.
func (s *State) Len() int { return len(s.points) }

// Regions returns the cluster regions sorted by id.
func (s *State) Regions() []ClusterRegion { return s.regions }

// RegionByID resolves a cluster id against the current region set.
// The weak reference held by Point.ClusterID may dangle between a
// coordinate update and the following cluster swap; callers must
// treat a miss as "unclustered".
func (s *State) RegionByID(id int) (*ClusterRegion, bool) {
	i, ok := s.byRegion[id]
	if !ok {
		return nil, false
	}
	return &s.regions[i], true
}

// RegionLabel returns the label for a point's cluster reference, or
// "" when the point is unclustered or the reference dangles.
func (s *State) RegionLabel(p *Point) string {
	if p == nil || p.ClusterID == nil {
		return ""
	}
	r, ok := s.RegionByID(*p.ClusterID)
	if !ok {
		return ""
	}
	return r.Label
}

func (s *State) swapRegions(regions []ClusterRegion) {
	sorted := make([]ClusterRegion, len(regions))
	copy(sorted, regions)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	// Renderers fill hulls as triangle fans, which assumes convex,
	// ordered vertices. Normalize on arrival so a payload with
	// shuffled vertices still draws correctly.
	for i := range sorted {
		if len(sorted[i].Hull) >= 3 {
			sorted[i].Hull = geometry.ConvexHull(sorted[i].Hull)
		}
	}
	s.regions = sorted
	s.byRegion = make(map[int]int, len(sorted))
	for i := range sorted {
		s.byRegion[sorted[i].ID] = i
	}
}

// Select marks a point as selected; an empty id clears the selection.
func (s *State) Select(id string) {
	if id != "" && s.byID[id] == nil {
		return
	}
	s.selectedID = id
}

// ClearSelection drops the current selection.
func (s *State) ClearSelection() { s.selectedID = "" }

// Selected returns the selected point, nil when none.
func (s *State) Selected() *Point { return s.byID[s.selectedID] }

// SelectedID returns the selected point id, "" when none.
func (s *State) SelectedID() string { return s.selectedID }

// SetHover records the hover resolution for the current frame: a
// point id, a region id, or neither.
func (s *State) SetHover(pointID string, regionID *int) {
	s.hoveredID = pointID
	s.hoveredRegion = regionID
}

// Hovered returns the hovered point, nil when none.
func (s *State) Hovered() *Point { return s.byID[s.hoveredID] }

// HoveredRegion returns the hovered region, nil when none (or when
// the id no longer resolves).
func (s *State) HoveredRegion() *ClusterRegion {
	if s.hoveredRegion == nil {
		return nil
	}
	r, ok := s.RegionByID(*s.hoveredRegion)
	if !ok {
		return nil
	}
	return r
}

// Scoreboard returns the latest leaderboard rows.
func (s *State) Scoreboard() []ScoreRow { return s.scoreboard }

// SetScoreboard replaces the leaderboard rows. The polling fallback
// uses this; the scoreboard_updated event lands in the same place.
func (s *State) SetScoreboard(rows []ScoreRow) { s.scoreboard = rows }

// Status returns the last announced session status.
func (s *State) Status() SessionStatus { return s.status }

// Participants returns the last known participant count.
func (s *State) Participants() int { return s.participants }

// markSeen runs the discovery gate, treating a nil gate as
// "always new".
func (s *State) markSeen(id string) bool {
	if s.FirstSeen == nil {
		return true
	}
	return s.FirstSeen(id)
}

func (s *State) upsertPoint(p Point) *Point {
	if existing := s.byID[p.ID]; existing != nil {
		*existing = p
		return existing
	}
	stored := new(Point)
	*stored = p
	s.points = append(s.points, stored)
	s.byID[p.ID] = stored
	return stored
}

func (s *State) removePoint(id string) {
	if s.byID[id] == nil {
		return
	}
	delete(s.byID, id)
	for i, p := range s.points {
		if p.ID == id {
			s.points = append(s.points[:i], s.points[i+1:]...)
			break
		}
	}
	if s.selectedID == id {
		s.selectedID = ""
	}
	if s.hoveredID == id {
		s.hoveredID = ""
	}
	s.Highlights.Drop(id)
}

// LoadSnapshot replaces points and regions wholesale from a full
// refetch. The selection survives when its point does; highlights for
// vanished points are dropped; nothing new is highlighted. Every
// point is offered to the discovery gate so a later duplicate
// idea_created replay is not mistaken for a discovery.
func (s *State) LoadSnapshot(points []Point, regions []ClusterRegion) {
	s.points = make([]*Point, 0, len(points))
	s.byID = make(map[string]*Point, len(points))
	for i := range points {
		p := new(Point)
		*p = points[i]
		s.points = append(s.points, p)
		s.byID[p.ID] = p
		s.markSeen(p.ID)
	}
	s.swapRegions(regions)
	if s.selectedID != "" && s.byID[s.selectedID] == nil {
		s.selectedID = ""
	}
	if s.hoveredID != "" && s.byID[s.hoveredID] == nil {
		s.hoveredID = ""
	}
	s.Highlights.Retain(func(id string) bool { return s.byID[id] != nil })
}
