package sessionapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"ideamap/pkg/scene"
)

func newTestClient(srvURL string) *Client {
	return NewClient(srvURL, "s1", "v1", "Viewer One", nil)
}

func TestFetchSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		if r.URL.Path != "/api/sessions/s1/snapshot" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("viewer"); got != "v1" {
			t.Errorf("viewer = %q, want v1", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"points": [
				{"id": "p1", "user_id": "u1", "user_name": "Ada", "x": 1.5, "y": -2,
				 "cluster_id": 0, "novelty": 0.8, "text": "bike lanes",
				 "created_at": "2025-11-03T10:00:00Z", "vote_count": 2, "has_voted": true}
			],
			"clusters": [
				{"id": 0, "label": "transport",
				 "hull": [{"x":0,"y":0},{"x":4,"y":0},{"x":2,"y":3}],
				 "count": 1, "avg_novelty": 0.8}
			]
		}`))
	}))
	defer srv.Close()

	snap, err := newTestClient(srv.URL).FetchSnapshot(context.Background())
	if err != nil {
		t.Fatalf("FetchSnapshot() error = %v", err)
	}
	if len(snap.Points) != 1 || len(snap.Clusters) != 1 {
		t.Fatalf("snapshot = %d points, %d clusters, want 1 and 1", len(snap.Points), len(snap.Clusters))
	}
	p := snap.Points[0]
	if p.ID != "p1" || p.ClusterID == nil || *p.ClusterID != 0 || !p.HasVoted {
		t.Errorf("point decoded wrong: %+v", p)
	}
	if snap.Clusters[0].Label != "transport" || len(snap.Clusters[0].Hull) != 3 {
		t.Errorf("cluster decoded wrong: %+v", snap.Clusters[0])
	}
}

func TestSubmitIdea(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/sessions/s1/ideas" {
			t.Errorf("got %s %s", r.Method, r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["text"] != "more trees" || req["user_id"] != "v1" || req["user_name"] != "Viewer One" {
			t.Errorf("request fields wrong: %+v", req)
		}
		if req["skip_formatting"] != true {
			t.Errorf("skip_formatting = %v, want true", req["skip_formatting"])
		}
		if id, _ := req["request_id"].(string); id == "" {
			t.Error("request_id missing")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "p9", "user_id": "v1", "user_name": "Viewer One",
			"x": 0, "y": 0, "text": "more trees",
			"created_at": "2025-11-03T10:00:00Z"}`))
	}))
	defer srv.Close()

	created, err := newTestClient(srv.URL).SubmitIdea(context.Background(), "more trees", "", true)
	if err != nil {
		t.Fatalf("SubmitIdea() error = %v", err)
	}
	if created.ID != "p9" {
		t.Errorf("created.ID = %q, want p9", created.ID)
	}
}

func TestCastVote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/sessions/s1/points/p1/vote" {
			t.Errorf("got %s %s", r.Method, r.URL.Path)
		}
		var req voteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID != "v1" {
			t.Errorf("vote body = %+v, err = %v", req, err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := newTestClient(srv.URL).CastVote(context.Background(), "p1"); err != nil {
		t.Fatalf("CastVote() error = %v", err)
	}
}

func TestRetractVote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/sessions/s1/points/p1/vote" {
			t.Errorf("got %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("user_id"); got != "v1" {
			t.Errorf("user_id = %q, want v1", got)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := newTestClient(srv.URL).RetractVote(context.Background(), "p1"); err != nil {
		t.Fatalf("RetractVote() error = %v", err)
	}
}

func TestDeleteIdeaAdminKey(t *testing.T) {
	var gotKey atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/sessions/s1/points/p1" {
			t.Errorf("got %s %s", r.Method, r.URL.Path)
		}
		gotKey.Store(r.Header.Get("X-Admin-Key"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	if err := c.DeleteIdea(context.Background(), "p1"); err != nil {
		t.Fatalf("DeleteIdea() error = %v", err)
	}
	if k, _ := gotKey.Load().(string); k != "" {
		t.Errorf("admin key sent without configuration: %q", k)
	}

	c.AdminKey = "sekrit"
	if err := c.DeleteIdea(context.Background(), "p1"); err != nil {
		t.Fatalf("DeleteIdea() with key error = %v", err)
	}
	if k, _ := gotKey.Load().(string); k != "sekrit" {
		t.Errorf("admin key = %q, want sekrit", k)
	}
}

func TestRejectedCarriesServerReason(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "session is not accepting ideas"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).SubmitIdea(context.Background(), "x", "", false)
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("error = %v, want ErrRejected", err)
	}
	if !strings.Contains(err.Error(), "session is not accepting ideas") {
		t.Errorf("error %q lost the server reason", err)
	}
}

func TestNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "no such point"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).CastVote(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if errors.Is(err, ErrRejected) {
		t.Error("404 must not double as ErrRejected")
	}
}

func TestServerErrorIsNotRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).CastVote(context.Background(), "p1")
	if err == nil {
		t.Fatal("expected an error for a 500")
	}
	if errors.Is(err, ErrRejected) || errors.Is(err, ErrNotFound) {
		t.Errorf("5xx mapped to a client sentinel: %v", err)
	}
}

func TestPollScoreboard(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sessions/s1/scoreboard" {
			t.Errorf("path = %s", r.URL.Path)
		}
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"rankings": [{"user_id": "u1", "user_name": "Ada", "votes": 5, "ideas": 2}]}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var delivered atomic.Int32
	done := make(chan struct{})
	go func() {
		defer close(done)
		newTestClient(srv.URL).PollScoreboard(ctx, 20*time.Millisecond, func(rows []scene.ScoreRow) {
			if len(rows) == 1 && rows[0].UserID == "u1" && rows[0].Votes == 5 {
				delivered.Add(1)
			}
		})
	}()

	// Immediate fetch plus at least two ticks.
	deadline := time.Now().Add(2 * time.Second)
	for delivered.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if n := delivered.Load(); n < 3 {
		t.Fatalf("delivered %d scoreboard updates, want at least 3", n)
	}

	cancel()
	<-done
	settled := delivered.Load()
	time.Sleep(100 * time.Millisecond)
	if delivered.Load() != settled {
		t.Error("poller kept delivering after cancel")
	}
}
