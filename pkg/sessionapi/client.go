// Package sessionapi is the HTTP side of a brainstorm session: the
// snapshot and scoreboard reads plus the idea and vote commands. The
// websocket feed (pkg/livesync) carries everything the server pushes;
// this client covers what the viewer asks for.
package sessionapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ideamap/pkg/scene"
)

const defaultTimeout = 10 * time.Second

var (
	// ErrRejected marks a request the server refused (4xx). The error
	// text carries the server's reason when the body had one.
	ErrRejected = errors.New("rejected")
	// ErrNotFound marks a 404 for a session or point that is gone.
	ErrNotFound = errors.New("not found")
)

// Client talks to one session on one server. Commands carry the viewer
// identity the server expects; failures come back as errors and are
// never retried here. The zero Timeout of a caller-supplied HTTPClient
// is respected as-is.
type Client struct {
	BaseURL    string
	SessionID  string
	ViewerID   string
	ViewerName string
	// AdminKey, when set, is sent as X-Admin-Key on delete calls.
	AdminKey string

	HTTPClient *http.Client

	log *zap.Logger
}

// NewClient builds a client for one session. A nil logger disables
// logging.
func NewClient(baseURL, sessionID, viewerID, viewerName string, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		SessionID:  sessionID,
		ViewerID:   viewerID,
		ViewerName: viewerName,
		HTTPClient: &http.Client{Timeout: defaultTimeout},
		log:        log,
	}
}

// Snapshot is the whole-session image served by the snapshot endpoint.
// Loading it replaces local state wholesale.
type Snapshot struct {
	Points   []scene.Point         `json:"points"`
	Clusters []scene.ClusterRegion `json:"clusters"`
}

type submitRequest struct {
	Text           string `json:"text"`
	FormattedText  string `json:"formatted_text,omitempty"`
	SkipFormatting bool   `json:"skip_formatting"`
	UserID         string `json:"user_id"`
	UserName       string `json:"user_name"`
	RequestID      string `json:"request_id"`
}

type voteRequest struct {
	UserID string `json:"user_id"`
}

type scoreboardResponse struct {
	Rankings []scene.ScoreRow `json:"rankings"`
}

// FetchSnapshot loads the full session image.
func (c *Client) FetchSnapshot(ctx context.Context) (*Snapshot, error) {
	u := fmt.Sprintf("%s/api/sessions/%s/snapshot?viewer=%s",
		c.BaseURL, url.PathEscape(c.SessionID), url.QueryEscape(c.ViewerID))
	req, err := c.newRequest(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := c.send(req, &snap); err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	c.log.Debug("snapshot fetched",
		zap.Int("points", len(snap.Points)),
		zap.Int("clusters", len(snap.Clusters)))
	return &snap, nil
}

// FetchScoreboard loads the current contributor rankings.
func (c *Client) FetchScoreboard(ctx context.Context) ([]scene.ScoreRow, error) {
	u := fmt.Sprintf("%s/api/sessions/%s/scoreboard", c.BaseURL, url.PathEscape(c.SessionID))
	req, err := c.newRequest(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	var body scoreboardResponse
	if err := c.send(req, &body); err != nil {
		return nil, fmt.Errorf("fetch scoreboard: %w", err)
	}
	return body.Rankings, nil
}

// SubmitIdea posts a new idea and returns the created point. Every call
// carries a fresh request id so the server can deduplicate resubmits.
func (c *Client) SubmitIdea(ctx context.Context, text, formatted string, skipFormatting bool) (*scene.Point, error) {
	u := fmt.Sprintf("%s/api/sessions/%s/ideas", c.BaseURL, url.PathEscape(c.SessionID))
	req, err := c.newRequest(ctx, http.MethodPost, u, submitRequest{
		Text:           text,
		FormattedText:  formatted,
		SkipFormatting: skipFormatting,
		UserID:         c.ViewerID,
		UserName:       c.ViewerName,
		RequestID:      uuid.NewString(),
	})
	if err != nil {
		return nil, err
	}
	var created scene.Point
	if err := c.send(req, &created); err != nil {
		return nil, fmt.Errorf("submit idea: %w", err)
	}
	c.log.Debug("idea submitted", zap.String("point_id", created.ID))
	return &created, nil
}

// CastVote votes for a point as the viewer.
func (c *Client) CastVote(ctx context.Context, pointID string) error {
	u := fmt.Sprintf("%s/api/sessions/%s/points/%s/vote",
		c.BaseURL, url.PathEscape(c.SessionID), url.PathEscape(pointID))
	req, err := c.newRequest(ctx, http.MethodPost, u, voteRequest{UserID: c.ViewerID})
	if err != nil {
		return err
	}
	if err := c.send(req, nil); err != nil {
		return fmt.Errorf("cast vote: %w", err)
	}
	return nil
}

// RetractVote removes the viewer's vote from a point.
func (c *Client) RetractVote(ctx context.Context, pointID string) error {
	u := fmt.Sprintf("%s/api/sessions/%s/points/%s/vote?user_id=%s",
		c.BaseURL, url.PathEscape(c.SessionID), url.PathEscape(pointID), url.QueryEscape(c.ViewerID))
	req, err := c.newRequest(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return err
	}
	if err := c.send(req, nil); err != nil {
		return fmt.Errorf("retract vote: %w", err)
	}
	return nil
}

// DeleteIdea removes a point from the session. The server decides who
// may delete what; the admin key is attached when configured.
func (c *Client) DeleteIdea(ctx context.Context, pointID string) error {
	u := fmt.Sprintf("%s/api/sessions/%s/points/%s",
		c.BaseURL, url.PathEscape(c.SessionID), url.PathEscape(pointID))
	req, err := c.newRequest(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return err
	}
	if c.AdminKey != "" {
		req.Header.Set("X-Admin-Key", c.AdminKey)
	}
	if err := c.send(req, nil); err != nil {
		return fmt.Errorf("delete idea: %w", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, rawURL string, body any) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, rd)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) send(req *http.Request, out any) error {
	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return statusError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// statusError turns a non-2xx response into a sentinel-wrapped error.
// 4xx bodies are JSON {error} objects; anything else falls back to the
// HTTP status line.
func statusError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	msg := resp.Status
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	case resp.StatusCode < 500:
		return fmt.Errorf("%w: %s", ErrRejected, msg)
	default:
		return fmt.Errorf("server error: %s", msg)
	}
}
