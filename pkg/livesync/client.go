// Package livesync maintains the push channel that keeps a scene in
// step with the server: a websocket client with a heartbeat, a
// constant-backoff reconnect, and ordered best-effort delivery of
// typed events to a single handler.
package livesync

import (
	"fmt"
	"net/url"
	"path"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"ideamap/pkg/scene"
)

// Status is the connection state, surfaced in the viewer HUD. A
// transport failure is never an error to the user, only a status.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

const (
	// DefaultHeartbeatInterval paces the keep-alive pings that
	// surface half-open connections.
	DefaultHeartbeatInterval = 30 * time.Second
	// DefaultReconnectBackoff is the fixed wait before a redial.
	// Constant rather than exponential so operators can predict
	// client behavior during an outage.
	DefaultReconnectBackoff = 3 * time.Second
)

// connSession pairs one websocket connection with the stop channel
// shared by its read and heartbeat goroutines. shutdown is safe to
// call from either side and runs once.
type connSession struct {
	conn *websocket.Conn
	stop chan struct{}
	once sync.Once
}

func (s *connSession) shutdown() {
	s.once.Do(func() {
		close(s.stop)
		s.conn.Close()
	})
}

// Client is a reconnecting consumer of a session's event feed. Events
// are delivered in arrival order to the single Handler; deliveries
// are best-effort and a full snapshot refetch always resynchronizes.
type Client struct {
	// URL is the session-scoped websocket endpoint.
	URL string
	// HeartbeatInterval and ReconnectBackoff default to the package
	// constants when zero.
	HeartbeatInterval time.Duration
	ReconnectBackoff  time.Duration
	// Handler receives every decoded event. It runs on the client's
	// read goroutine and must stay short and non-blocking.
	Handler func(ev scene.Event)
	// OnStatus, when set, observes every status transition. Same
	// goroutine rules as Handler.
	OnStatus func(st Status)

	log *zap.Logger

	mu        sync.Mutex
	status    Status
	session   *connSession
	reconnect *time.Timer
	closed    bool
}

// NewClient returns a client for the given websocket URL. Connect
// starts it; Disconnect ends it for good.
func NewClient(wsURL string, handler func(scene.Event), log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		URL:               wsURL,
		HeartbeatInterval: DefaultHeartbeatInterval,
		ReconnectBackoff:  DefaultReconnectBackoff,
		Handler:           handler,
		log:               log,
	}
}

// SessionURL derives the websocket endpoint for a session from the
// server's HTTP base URL.
func SessionURL(base, sessionID, viewerID string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = path.Join(u.Path, "ws", "sessions", sessionID)
	q := u.Query()
	q.Set("viewer", viewerID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Status returns the current connection state.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Client) setStatus(st Status) {
	c.mu.Lock()
	changed := c.status != st
	c.status = st
	cb := c.OnStatus
	c.mu.Unlock()
	if changed && cb != nil {
		cb(st)
	}
}

// Connect starts the connection attempt. It returns immediately; the
// status callback reports progress. Calling Connect after Disconnect
// does nothing.
func (c *Client) Connect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()
	go c.dial()
}

func (c *Client) dial() {
	c.setStatus(StatusConnecting)
	conn, _, err := websocket.DefaultDialer.Dial(c.URL, nil)
	if err != nil {
		c.log.Warn("dial failed", zap.String("url", c.URL), zap.Error(err))
		c.setStatus(StatusDisconnected)
		c.scheduleReconnect()
		return
	}

	session := &connSession{conn: conn, stop: make(chan struct{})}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close()
		return
	}
	c.session = session
	c.mu.Unlock()

	c.setStatus(StatusConnected)
	c.log.Info("connected", zap.String("url", c.URL))
	go c.heartbeatLoop(session)
	go c.readLoop(session)
}

func (c *Client) readLoop(session *connSession) {
	for {
		_, data, err := session.conn.ReadMessage()
		if err != nil {
			c.connectionLost(session, err)
			return
		}
		ev, derr := scene.DecodeEvent(data)
		if derr != nil {
			// A bad frame is dropped, never a reason to tear the
			// connection down.
			c.log.Warn("dropping malformed event", zap.Error(derr), zap.Int("bytes", len(data)))
			continue
		}
		if c.Handler != nil {
			c.Handler(ev)
		}
	}
}

func (c *Client) heartbeatLoop(session *connSession) {
	interval := c.HeartbeatInterval
	if interval <= 0 {
		interval = DefaultHeartbeatInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-session.stop:
			return
		case <-ticker.C:
			if err := session.conn.WriteJSON(map[string]string{"type": "ping"}); err != nil {
				c.log.Warn("heartbeat failed", zap.Error(err))
				// Closing forces the read loop into its error path,
				// which owns the reconnect decision.
				session.shutdown()
				return
			}
		}
	}
}

// connectionLost runs when the read loop exits. After an explicit
// Disconnect it only cleans up; otherwise it marks the client
// disconnected and schedules the single reconnect attempt.
func (c *Client) connectionLost(session *connSession, err error) {
	session.shutdown()
	c.mu.Lock()
	if c.session == session {
		c.session = nil
	}
	wasClosed := c.closed
	c.mu.Unlock()

	if wasClosed {
		return
	}
	c.setStatus(StatusDisconnected)
	c.log.Info("connection lost",
		zap.Error(err),
		zap.Duration("reconnect_in", c.backoff()))
	c.scheduleReconnect()
}

func (c *Client) backoff() time.Duration {
	if c.ReconnectBackoff <= 0 {
		return DefaultReconnectBackoff
	}
	return c.ReconnectBackoff
}

// scheduleReconnect arms the redial timer. At most one attempt is
// ever pending; Disconnect disarms it.
func (c *Client) scheduleReconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.reconnect != nil {
		return
	}
	c.reconnect = time.AfterFunc(c.backoff(), func() {
		c.mu.Lock()
		c.reconnect = nil
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return
		}
		c.dial()
	})
}

// Disconnect stops the client for good: heartbeat first, then the
// pending reconnect, then the socket. Nothing fires afterwards. Safe
// to call more than once.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	session := c.session
	c.session = nil
	timer := c.reconnect
	c.reconnect = nil
	c.mu.Unlock()

	if session != nil {
		session.shutdown()
	}
	if timer != nil {
		timer.Stop()
	}
	c.setStatus(StatusDisconnected)
	c.log.Info("disconnected")
}
