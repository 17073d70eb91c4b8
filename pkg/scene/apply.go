package scene

// Effect tells the caller what a reduced event requires beyond the
// local mutation.
type Effect int

const (
	// EffectNone means the event was fully absorbed locally.
	EffectNone Effect = iota
	// EffectRefetch means local state is stale and the caller must
	// request a fresh snapshot. Emitted when the server recomputes
	// layouts out of band.
	EffectRefetch
)

// Apply reduces one event into the scene and reports the required
// follow-up. Events for unknown point ids are ignored; the feed is
// best-effort and a snapshot always resynchronizes.
func (s *State) Apply(ev Event) Effect {
	switch e := ev.(type) {
	case IdeaCreated:
		if s.markSeen(e.Point.ID) {
			if s.ViewerID != "" && e.Point.UserID == s.ViewerID {
				s.Highlights.SetMine(e.Point.ID)
			} else {
				s.Highlights.AddOther(e.Point.ID)
			}
		}
		if e.CoordinatesRecalculated {
			// Every position may have shifted; appending the one
			// point would place it in a layout that no longer
			// exists.
			return EffectRefetch
		}
		s.upsertPoint(e.Point)

	case CoordinatesUpdated:
		for _, u := range e.Updates {
			p := s.byID[u.PointID]
			if p == nil {
				continue
			}
			p.X = u.X
			p.Y = u.Y
			p.ClusterID = u.ClusterID
		}

	case ClustersUpdated:
		s.swapRegions(e.Clusters)

	case ClustersRecalculated:
		return EffectRefetch

	case VoteAdded:
		if p := s.byID[e.PointID]; p != nil {
			// No dedupe: delivery is at least once, so a replayed
			// vote double counts until the next snapshot corrects
			// it.
			p.VoteCount++
			if s.ViewerID != "" && e.UserID == s.ViewerID {
				p.HasVoted = true
			}
			s.Highlights.AddVoted(p.ID)
		}

	case VoteRemoved:
		if p := s.byID[e.PointID]; p != nil {
			if p.VoteCount > 0 {
				p.VoteCount--
			}
			if s.ViewerID != "" && e.UserID == s.ViewerID {
				p.HasVoted = false
			}
		}

	case IdeaDeleted:
		s.removePoint(e.PointID)

	case ScoreboardUpdated:
		s.scoreboard = e.Rankings

	case SessionStatusChanged:
		s.status = SessionStatus{Status: e.Status, AcceptingIdeas: e.AcceptingIdeas}

	case UserJoined:
		if e.ParticipantCount > 0 {
			s.participants = e.ParticipantCount
		} else {
			s.participants++
		}

	case SnapshotLoaded:
		s.LoadSnapshot(e.Points, e.Clusters)

	case Pong:
		// Heartbeat acknowledgment only.
	}
	return EffectNone
}
