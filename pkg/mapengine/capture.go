package mapengine

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"
)

// captureFrame writes the composed frame as a PNG under CaptureDir.
// Pixels are copied out synchronously because the GPU image is only
// valid on the game loop; encoding and disk IO run in a goroutine.
func (e *Engine) captureFrame(img *ebiten.Image, timestamp time.Time) {
	if e.CaptureDir == "" {
		return
	}
	if err := os.MkdirAll(e.CaptureDir, 0o755); err != nil {
		e.log.Error("create capture directory", zap.String("dir", e.CaptureDir), zap.Error(err))
		return
	}

	filename := fmt.Sprintf("ideamap-%s.png", timestamp.Format("20060102-150405"))
	path := filepath.Join(e.CaptureDir, filename)

	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	img.ReadPixels(rgba.Pix)

	log := e.log
	go func() {
		f, err := os.Create(path)
		if err != nil {
			log.Error("create capture file", zap.String("path", path), zap.Error(err))
			return
		}
		defer func() {
			if err := f.Close(); err != nil {
				log.Error("close capture file", zap.String("path", path), zap.Error(err))
			}
		}()
		if err := png.Encode(f, rgba); err != nil {
			log.Error("encode capture", zap.String("path", path), zap.Error(err))
			return
		}
		log.Info("captured frame", zap.String("path", path))
	}()
}
