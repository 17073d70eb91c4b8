package scene

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Event type tags as they appear on the wire.
const (
	TypeIdeaCreated          = "idea_created"
	TypeCoordinatesUpdated   = "coordinates_updated"
	TypeClustersUpdated      = "clusters_updated"
	TypeClustersRecalculated = "clusters_recalculated"
	TypeVoteAdded            = "vote_added"
	TypeVoteRemoved          = "vote_removed"
	TypeIdeaDeleted          = "idea_deleted"
	TypeScoreboardUpdated    = "scoreboard_updated"
	TypeSessionStatusChanged = "session_status_changed"
	TypeUserJoined           = "user_joined"
	TypePong                 = "pong"
	TypeSnapshot             = "snapshot"
)

// ErrUnknownEvent marks envelope tags this client does not understand.
// Callers log and drop such events; they are not a reason to
// disconnect.
var ErrUnknownEvent = errors.New("unknown event type")

// Event is one reducible scene mutation, either decoded from the
// push channel or synthesized locally (snapshot loads).
type Event interface {
	// Type returns the wire tag of the event.
	Type() string
}

// IdeaCreated announces a new point. When CoordinatesRecalculated is
// set the server has shifted existing positions too, so a local
// append is insufficient and the whole scene must be refetched.
type IdeaCreated struct {
	Point                   Point `json:"point"`
	CoordinatesRecalculated bool  `json:"coordinates_recalculated"`
}

// CoordinateUpdate repositions one existing point.
type CoordinateUpdate struct {
	PointID   string  `json:"point_id"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	ClusterID *int    `json:"cluster_id"`
}

// CoordinatesUpdated patches point positions in place.
type CoordinatesUpdated struct {
	Updates []CoordinateUpdate `json:"updates"`
}

// ClustersUpdated replaces the cluster region set wholesale.
type ClustersUpdated struct {
	Clusters []ClusterRegion `json:"clusters"`
}

// ClustersRecalculated carries no payload; it signals that the scene
// must be refetched.
type ClustersRecalculated struct{}

// VoteAdded increments a point's vote count.
type VoteAdded struct {
	PointID string `json:"point_id"`
	UserID  string `json:"user_id"`
}

// VoteRemoved decrements a point's vote count.
type VoteRemoved struct {
	PointID string `json:"point_id"`
	UserID  string `json:"user_id"`
}

// IdeaDeleted removes a point.
type IdeaDeleted struct {
	PointID string `json:"point_id"`
}

// ScoreboardUpdated replaces the leaderboard rows.
type ScoreboardUpdated struct {
	Rankings []ScoreRow `json:"rankings"`
}

// SessionStatusChanged announces the session lifecycle state.
type SessionStatusChanged struct {
	Status         string `json:"status"`
	AcceptingIdeas bool   `json:"accepting_ideas"`
}

// UserJoined announces a new participant.
type UserJoined struct {
	UserID           string `json:"user_id"`
	UserName         string `json:"user_name"`
	ParticipantCount int    `json:"participant_count"`
}

// Pong acknowledges a heartbeat ping. No state effect.
type Pong struct{}

// SnapshotLoaded is synthesized locally when a full refetch returns;
// it replaces points and regions wholesale through the same reducer
// path as wire events, keeping the scene replayable.
type SnapshotLoaded struct {
	Points   []Point
	Clusters []ClusterRegion
}

func (IdeaCreated) Type() string          { return TypeIdeaCreated }
func (CoordinatesUpdated) Type() string   { return TypeCoordinatesUpdated }
func (ClustersUpdated) Type() string      { return TypeClustersUpdated }
func (ClustersRecalculated) Type() string { return TypeClustersRecalculated }
func (VoteAdded) Type() string            { return TypeVoteAdded }
func (VoteRemoved) Type() string          { return TypeVoteRemoved }
func (IdeaDeleted) Type() string          { return TypeIdeaDeleted }
func (ScoreboardUpdated) Type() string    { return TypeScoreboardUpdated }
func (SessionStatusChanged) Type() string { return TypeSessionStatusChanged }
func (UserJoined) Type() string           { return TypeUserJoined }
func (Pong) Type() string                 { return TypePong }
func (SnapshotLoaded) Type() string       { return TypeSnapshot }

// finite rejects NaN and infinities; coordinates that are not finite
// would poison every transform they touch.
func finite(value interface{}) error {
	f, ok := value.(float64)
	if !ok {
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return errors.New("must be a finite number")
	}
	return nil
}

// Validate checks the fields a reducible point cannot do without.
func (p Point) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ID, validation.Required),
		validation.Field(&p.UserID, validation.Required),
		validation.Field(&p.X, validation.By(finite)),
		validation.Field(&p.Y, validation.By(finite)),
		validation.Field(&p.Novelty, validation.Min(0.0)),
	)
}

// Validate checks one coordinate patch.
func (u CoordinateUpdate) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.PointID, validation.Required),
		validation.Field(&u.X, validation.By(finite)),
		validation.Field(&u.Y, validation.By(finite)),
	)
}

// Validate checks a region's hull for poisonous coordinates.
func (c ClusterRegion) Validate() error {
	for i, v := range c.Hull {
		if math.IsNaN(v.X) || math.IsInf(v.X, 0) || math.IsNaN(v.Y) || math.IsInf(v.Y, 0) {
			return fmt.Errorf("hull[%d]: must be finite", i)
		}
	}
	return nil
}

// Validate checks the nested point.
func (e IdeaCreated) Validate() error {
	if err := e.Point.Validate(); err != nil {
		return fmt.Errorf("point: %w", err)
	}
	return nil
}

// Validate checks every patch in the batch.
func (e CoordinatesUpdated) Validate() error {
	for i, u := range e.Updates {
		if err := u.Validate(); err != nil {
			return fmt.Errorf("updates[%d]: %w", i, err)
		}
	}
	return nil
}

// Validate checks every region in the replacement set.
func (e ClustersUpdated) Validate() error {
	for i, c := range e.Clusters {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("clusters[%d]: %w", i, err)
		}
	}
	return nil
}

// Validate requires the vote's point reference.
func (e VoteAdded) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.PointID, validation.Required),
	)
}

// Validate requires the vote's point reference.
func (e VoteRemoved) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.PointID, validation.Required),
	)
}

// Validate requires the deletion's point reference.
func (e IdeaDeleted) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.PointID, validation.Required),
	)
}

// DecodeEvent parses one wire message into a typed event. The message
// is a JSON object tagged by a "type" field; unknown tags return
// ErrUnknownEvent and malformed or invalid payloads return a
// descriptive error. Either way the caller logs and drops; a bad
// message never tears the connection down.
func DecodeEvent(data []byte) (Event, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	var (
		ev  Event
		err error
	)
	switch env.Type {
	case TypeIdeaCreated:
		var e IdeaCreated
		err = json.Unmarshal(data, &e)
		ev = e
	case TypeCoordinatesUpdated:
		var e CoordinatesUpdated
		err = json.Unmarshal(data, &e)
		ev = e
	case TypeClustersUpdated:
		var e ClustersUpdated
		err = json.Unmarshal(data, &e)
		ev = e
	case TypeClustersRecalculated:
		ev = ClustersRecalculated{}
	case TypeVoteAdded:
		var e VoteAdded
		err = json.Unmarshal(data, &e)
		ev = e
	case TypeVoteRemoved:
		var e VoteRemoved
		err = json.Unmarshal(data, &e)
		ev = e
	case TypeIdeaDeleted:
		var e IdeaDeleted
		err = json.Unmarshal(data, &e)
		ev = e
	case TypeScoreboardUpdated:
		var e ScoreboardUpdated
		err = json.Unmarshal(data, &e)
		ev = e
	case TypeSessionStatusChanged:
		var e SessionStatusChanged
		err = json.Unmarshal(data, &e)
		ev = e
	case TypeUserJoined:
		var e UserJoined
		err = json.Unmarshal(data, &e)
		ev = e
	case TypePong:
		ev = Pong{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", env.Type, err)
	}
	if v, ok := ev.(validation.Validatable); ok {
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", env.Type, err)
		}
	}
	return ev, nil
}
