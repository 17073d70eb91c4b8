// Command ideamap-viewer opens a live window onto a collaborative
// idea map session: points stream in over a websocket, clusters and
// scores follow, and the map stays explorable with mouse and keyboard.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/hajimehoshi/ebiten/v2"
	_ "github.com/joho/godotenv/autoload"
	_ "github.com/silbinarywolf/preferdiscretegpu"
	"go.uber.org/zap"

	"ideamap/pkg/livesync"
	"ideamap/pkg/mapengine"
	"ideamap/pkg/scene"
	"ideamap/pkg/seenstore"
	"ideamap/pkg/sessionapi"
)

var cli struct {
	Server     string   `help:"Base URL of the idea map server." env:"IDEAMAP_SERVER" default:"http://localhost:8080"`
	Session    string   `help:"Session id to join." env:"IDEAMAP_SESSION" required:""`
	Viewer     string   `help:"Viewer id; a random one is derived when empty." env:"IDEAMAP_VIEWER"`
	Name       string   `help:"Display name sent with submissions and votes." env:"IDEAMAP_NAME" default:"viewer"`
	Width      int      `help:"Window width." default:"1280"`
	Height     int      `help:"Window height." default:"720"`
	TPS        int      `help:"Engine ticks per second." default:"60"`
	DataDir    string   `help:"Directory for the seen-idea store; empty disables persistence." env:"IDEAMAP_DATA_DIR"`
	AudioDir   string   `help:"Directory of MP3s for session ambience; empty disables audio." env:"IDEAMAP_AUDIO_DIR"`
	CaptureDir string   `help:"Directory for F12 frame captures; empty disables capture." env:"IDEAMAP_CAPTURE_DIR"`
	Keywords   []string `help:"Keyword filter applied at startup."`
	AdminKey   string   `help:"Admin key for privileged calls." env:"IDEAMAP_ADMIN_KEY"`
	Debug      bool     `help:"Verbose development logging."`
}

func validateCLI() error {
	return validation.ValidateStruct(&cli,
		validation.Field(&cli.Server, validation.Required, is.URL),
		validation.Field(&cli.Session, validation.Required),
		validation.Field(&cli.Width, validation.Min(320)),
		validation.Field(&cli.Height, validation.Min(240)),
		validation.Field(&cli.TPS, validation.Min(1), validation.Max(240)),
	)
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

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("ideamap-viewer"),
		kong.Description("Live window onto a collaborative idea map session."),
		kong.UsageOnError(),
	)
	kctx.FatalIfErrorf(validateCLI())

	log := buildLogger(cli.Debug)
	defer log.Sync()

	if err := run(log); err != nil {
		log.Fatal("viewer exited", zap.Error(err))
	}
}

func run(log *zap.Logger) error {
	viewerID := cli.Viewer
	if viewerID == "" {
		viewerID = uuid.NewString()
	}
	log.Info("joining session",
		zap.String("server", cli.Server),
		zap.String("session", cli.Session),
		zap.String("viewer", viewerID))

	st := scene.NewState(viewerID)
	st.Filter.SetKeywords(cli.Keywords)

	if cli.DataDir != "" {
		store, err := seenstore.Open(filepath.Join(cli.DataDir, "seen"), log)
		if err != nil {
			log.Warn("seen store unavailable, every idea will read as new", zap.Error(err))
		} else {
			defer store.Close()
			st.FirstSeen = store.FirstSeen
		}
	}

	api := sessionapi.NewClient(cli.Server, cli.Session, viewerID, cli.Name, log)
	api.AdminKey = cli.AdminKey

	eng, err := mapengine.NewEngine(cli.Width, cli.Height, st, log)
	if err != nil {
		return err
	}
	eng.Snapshot = func(ctx context.Context) ([]scene.Point, []scene.ClusterRegion, error) {
		snap, err := api.FetchSnapshot(ctx)
		if err != nil {
			return nil, nil, err
		}
		return snap.Points, snap.Clusters, nil
	}
	eng.Voter = api
	eng.CaptureDir = cli.CaptureDir

	// The first paint does not wait for the websocket.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		snap, err := api.FetchSnapshot(ctx)
		if err != nil {
			log.Warn("initial snapshot failed, waiting for live events", zap.Error(err))
			return
		}
		eng.PostEvent(scene.SnapshotLoaded{Points: snap.Points, Clusters: snap.Clusters})
	}()

	wsURL, err := livesync.SessionURL(cli.Server, cli.Session, viewerID)
	if err != nil {
		return fmt.Errorf("derive websocket url: %w", err)
	}
	feed := livesync.NewClient(wsURL, eng.PostEvent, log)
	feed.OnStatus = eng.PostStatus
	feed.Connect()
	defer feed.Disconnect()

	pollCtx, cancelPoll := context.WithCancel(context.Background())
	defer cancelPoll()
	go api.PollScoreboard(pollCtx, sessionapi.DefaultPollInterval, func(rows []scene.ScoreRow) {
		eng.PostEvent(scene.ScoreboardUpdated{Rankings: rows})
	})

	if cli.AudioDir != "" {
		player := mapengine.NewAudioPlayer(cli.AudioDir, eng.PostNowPlaying, log)
		player.Start()
		defer player.Shutdown()
	}

	eng.InitTextures()
	ebiten.SetWindowSize(cli.Width, cli.Height)
	ebiten.SetWindowTitle("Idea Map: " + cli.Session)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(cli.TPS)
	if err := ebiten.RunGame(eng); err != nil {
		return fmt.Errorf("run viewer: %w", err)
	}
	return nil
}
