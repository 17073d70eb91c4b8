package sessionapi

import (
	"context"
	"time"

	"go.uber.org/zap"

	"ideamap/pkg/scene"
)

// DefaultPollInterval is the scoreboard polling cadence. The websocket
// usually delivers scoreboard updates first; polling covers quiet or
// degraded connections.
const DefaultPollInterval = 10 * time.Second

// PollScoreboard fetches the scoreboard immediately and then on every
// tick, handing each result to fn until ctx is cancelled. A failed
// fetch is logged and skipped; the next tick tries again. Runs on the
// caller's goroutine.
func (c *Client) PollScoreboard(ctx context.Context, interval time.Duration, fn func([]scene.ScoreRow)) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	poll := func() {
		rows, err := c.FetchScoreboard(ctx)
		if err != nil {
			if ctx.Err() == nil {
				c.log.Warn("scoreboard poll failed", zap.Error(err))
			}
			return
		}
		fn(rows)
	}

	poll()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			poll()
		}
	}
}
