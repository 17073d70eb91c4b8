package mapengine

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dhowden/tag"
	"github.com/hajimehoshi/ebiten/v2/audio"
	mp3 "github.com/hajimehoshi/go-mp3"
	"go.uber.org/zap"
)

// NowPlayingFunc receives track metadata when playback moves to a new
// file.
type NowPlayingFunc func(song, artist string)

const (
	audioSampleRate = 44100
	fadeDuration    = 5 * time.Second
	audioRetryDelay = 5 * time.Second
)

// AudioPlayer loops random MP3s from a directory as session ambience.
// Playback runs on its own goroutine; Shutdown fades out and waits for
// it to finish.
type AudioPlayer struct {
	Dir        string
	OnMetadata NowPlayingFunc

	log          *zap.Logger
	audioContext *audio.Context
	stopChan     chan struct{}
	stoppedChan  chan struct{}
	stopping     atomic.Bool
}

func NewAudioPlayer(dir string, onMetadata NowPlayingFunc, log *zap.Logger) *AudioPlayer {
	if log == nil {
		log = zap.NewNop()
	}
	return &AudioPlayer{
		Dir:         dir,
		OnMetadata:  onMetadata,
		log:         log,
		stopChan:    make(chan struct{}),
		stoppedChan: make(chan struct{}),
	}
}

// Shutdown fades the current track out and blocks until playback has
// stopped. Call it once.
func (p *AudioPlayer) Shutdown() {
	p.stopping.Store(true)
	close(p.stopChan)
	<-p.stoppedChan
	p.log.Info("audio player stopped")
}

// Start launches the playback loop. A missing or empty directory is
// retried quietly so tracks can be dropped in while a session runs.
func (p *AudioPlayer) Start() {
	go func() {
		defer close(p.stoppedChan)
		for {
			select {
			case <-p.stopChan:
				return
			default:
			}

			tracks, err := p.scanTracks()
			if err != nil {
				p.log.Warn("scan audio directory", zap.String("dir", p.Dir), zap.Error(err))
				if !p.wait(audioRetryDelay) {
					return
				}
				continue
			}
			if len(tracks) == 0 {
				if !p.wait(audioRetryDelay) {
					return
				}
				continue
			}

			path := tracks[rand.Intn(len(tracks))]
			if err := p.playTrack(path); err != nil {
				p.log.Warn("play track", zap.String("path", path), zap.Error(err))
				if !p.wait(audioRetryDelay) {
					return
				}
			}
			if p.stopping.Load() {
				return
			}
		}
	}()
}

func (p *AudioPlayer) wait(d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-p.stopChan:
		return false
	}
}

func (p *AudioPlayer) scanTracks() ([]string, error) {
	var tracks []string
	err := filepath.Walk(p.Dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(strings.ToLower(info.Name()), ".mp3") {
			tracks = append(tracks, path)
		}
		return nil
	})
	return tracks, err
}

func (p *AudioPlayer) playTrack(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	song, artist := trackMetadata(f, path)
	if p.OnMetadata != nil {
		p.OnMetadata(song, artist)
	}

	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	d, err := mp3.NewDecoder(f)
	if err != nil {
		return err
	}

	if p.audioContext == nil {
		p.audioContext = audio.NewContext(audioSampleRate)
	}
	player, err := p.audioContext.NewPlayer(d)
	if err != nil {
		return err
	}
	defer player.Close()
	player.Play()
	p.log.Info("playing", zap.String("song", song), zap.String("artist", artist))

	// 16-bit stereo, so 4 bytes per sample frame.
	duration := time.Duration(d.Length()) * time.Second / time.Duration(d.SampleRate()*4)
	start := time.Now()
	var stoppingAt time.Time
	for player.IsPlaying() {
		if p.stopping.Load() && stoppingAt.IsZero() {
			stoppingAt = time.Now()
		}

		remaining := duration - time.Since(start)
		vol := 1.0
		if remaining <= fadeDuration {
			vol = float64(remaining) / float64(fadeDuration)
		}
		if !stoppingAt.IsZero() {
			stopVol := 1.0 - float64(time.Since(stoppingAt))/float64(fadeDuration)
			if stopVol < vol {
				vol = stopVol
			}
			if stopVol <= 0 {
				break
			}
		}
		if vol < 0 {
			vol = 0
		}
		player.SetVolume(vol)

		if remaining <= 0 {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	return nil
}

// trackMetadata reads ID3 tags, falling back to an "artist - title"
// filename convention.
func trackMetadata(f *os.File, path string) (song, artist string) {
	if m, err := tag.ReadFrom(f); err == nil {
		song, artist = m.Title(), m.Artist()
	}
	if song == "" {
		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		song, artist = base, ""
		if parts := strings.SplitN(base, " - ", 2); len(parts) == 2 {
			artist, song = parts[0], parts[1]
		}
	}
	return song, artist
}
