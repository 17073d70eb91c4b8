// Command ideamap-probe is the headless client for idea map sessions:
// it tails the live event feed, dumps snapshots as JSON or GeoJSON, and
// drives submissions, votes, and deletions from scripts.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	_ "github.com/joho/godotenv/autoload"
	geojson "github.com/paulmach/go.geojson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ideamap/pkg/livesync"
	"ideamap/pkg/scene"
	"ideamap/pkg/sessionapi"
)

const requestTimeout = 30 * time.Second

var cli struct {
	Server   string `help:"Base URL of the idea map server." env:"IDEAMAP_SERVER" default:"http://localhost:8080"`
	Session  string `help:"Session id." env:"IDEAMAP_SESSION" required:""`
	Viewer   string `help:"Viewer id; a random one is derived when empty." env:"IDEAMAP_VIEWER"`
	Name     string `help:"Display name for submissions." env:"IDEAMAP_NAME" default:"probe"`
	AdminKey string `help:"Admin key for privileged calls." env:"IDEAMAP_ADMIN_KEY"`
	Debug    bool   `help:"Verbose logging on stderr."`

	Watch    watchCmd    `cmd:"" help:"Stream session events to stdout as JSON lines."`
	Snapshot snapshotCmd `cmd:"" help:"Dump the current session snapshot."`
	Submit   submitCmd   `cmd:"" help:"Submit an idea and print its point id."`
	Vote     voteCmd     `cmd:"" help:"Vote for a point."`
	Unvote   unvoteCmd   `cmd:"" help:"Retract a vote."`
	Delete   deleteCmd   `cmd:"" help:"Delete a point (admin)."`
}

type runContext struct {
	api    *sessionapi.Client
	log    *zap.Logger
	viewer string
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("ideamap-probe"),
		kong.Description("Headless command-line client for idea map sessions."),
		kong.UsageOnError(),
	)
	kctx.FatalIfErrorf(validation.ValidateStruct(&cli,
		validation.Field(&cli.Server, validation.Required, is.URL),
		validation.Field(&cli.Session, validation.Required),
	))

	log := buildLogger(cli.Debug)
	defer log.Sync()

	viewerID := cli.Viewer
	if viewerID == "" {
		viewerID = uuid.NewString()
	}
	api := sessionapi.NewClient(cli.Server, cli.Session, viewerID, cli.Name, log)
	api.AdminKey = cli.AdminKey

	kctx.FatalIfErrorf(kctx.Run(&runContext{api: api, log: log, viewer: viewerID}))
}

func buildLogger(debug bool) *zap.Logger {
	var (
		log *zap.Logger
		err error
	)
	if debug {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	return log
}

type watchCmd struct {
	IncludePongs bool `help:"Include heartbeat acknowledgments in the output."`
}

func (c *watchCmd) Run(rc *runContext) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wsURL, err := livesync.SessionURL(cli.Server, cli.Session, rc.viewer)
	if err != nil {
		return fmt.Errorf("derive websocket url: %w", err)
	}

	events := make(chan scene.Event, 64)
	client := livesync.NewClient(wsURL, func(ev scene.Event) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	}, rc.log)
	client.OnStatus = func(st livesync.Status) {
		rc.log.Info("connection", zap.String("status", st.String()))
	}

	enc := json.NewEncoder(os.Stdout)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		client.Connect()
		<-ctx.Done()
		client.Disconnect()
		return nil
	})
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case ev := <-events:
				if _, ok := ev.(scene.Pong); ok && !c.IncludePongs {
					continue
				}
				line := struct {
					Type string      `json:"type"`
					Data scene.Event `json:"data"`
				}{Type: ev.Type(), Data: ev}
				if err := enc.Encode(line); err != nil {
					return err
				}
			}
		}
	})
	return g.Wait()
}

type snapshotCmd struct {
	Format string `help:"Output format." enum:"json,geojson" default:"json"`
}

func (c *snapshotCmd) Run(rc *runContext) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	snap, err := rc.api.FetchSnapshot(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if c.Format == "geojson" {
		return enc.Encode(toGeoJSON(snap))
	}
	return enc.Encode(snap)
}

// toGeoJSON maps the abstract layout onto geographic tooling so the
// session opens in anything that reads features: ideas become point
// features and cluster hulls become polygons.
func toGeoJSON(snap *sessionapi.Snapshot) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, p := range snap.Points {
		f := geojson.NewPointFeature([]float64{p.X, p.Y})
		f.SetProperty("id", p.ID)
		f.SetProperty("text", p.DisplayText())
		f.SetProperty("user_id", p.UserID)
		f.SetProperty("user_name", p.UserName)
		f.SetProperty("votes", p.VoteCount)
		f.SetProperty("novelty", p.Novelty)
		if p.ClusterID != nil {
			f.SetProperty("cluster_id", *p.ClusterID)
		}
		fc.AddFeature(f)
	}
	for _, cl := range snap.Clusters {
		if len(cl.Hull) < 3 {
			continue
		}
		ring := make([][]float64, 0, len(cl.Hull)+1)
		for _, v := range cl.Hull {
			ring = append(ring, []float64{v.X, v.Y})
		}
		ring = append(ring, []float64{cl.Hull[0].X, cl.Hull[0].Y})
		f := geojson.NewPolygonFeature([][][]float64{ring})
		f.SetProperty("cluster_id", cl.ID)
		f.SetProperty("label", cl.Label)
		f.SetProperty("count", cl.Count)
		f.SetProperty("avg_novelty", cl.AvgNovelty)
		fc.AddFeature(f)
	}
	return fc
}

type submitCmd struct {
	Text           string `arg:"" help:"Idea text."`
	Formatted      string `help:"Pre-formatted display text."`
	SkipFormatting bool   `help:"Ask the server to keep the text verbatim."`
}

func (c *submitCmd) Run(rc *runContext) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	p, err := rc.api.SubmitIdea(ctx, c.Text, c.Formatted, c.SkipFormatting)
	if err != nil {
		return err
	}
	fmt.Println(p.ID)
	return nil
}

type voteCmd struct {
	PointID string `arg:"" help:"Point id."`
}

func (c *voteCmd) Run(rc *runContext) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	return rc.api.CastVote(ctx, c.PointID)
}

type unvoteCmd struct {
	PointID string `arg:"" help:"Point id."`
}

func (c *unvoteCmd) Run(rc *runContext) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	return rc.api.RetractVote(ctx, c.PointID)
}

type deleteCmd struct {
	PointID string `arg:"" help:"Point id."`
}

func (c *deleteCmd) Run(rc *runContext) error {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	return rc.api.DeleteIdea(ctx, c.PointID)
}
