package source

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/streamview/streamview/pkg/config"
	"github.com/streamview/streamview/pkg/logger"
	"github.com/streamview/streamview/pkg/media"
)

var l = logger.New(false)

func TestRGBAToI420Uniform(t *testing.T) {
	tests := []struct {
		name    string
		c       color.RGBA
		y, u, v byte
	}{
		{name: "black", c: color.RGBA{A: 0xff}, y: 16, u: 128, v: 128},
		{name: "white", c: color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, y: 235, u: 128, v: 128},
		{name: "red", c: color.RGBA{R: 0xff, A: 0xff}, y: 81, u: 90, v: 240},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const w, h = 16, 16
			img := image.NewRGBA(image.Rect(0, 0, w, h))
			draw.Draw(img, img.Bounds(), &image.Uniform{C: tt.c}, image.Point{}, draw.Src)
			out := make([]byte, w*h*3/2)
			rgbaToI420(img, out)

			if got := out[0]; absDiff(got, tt.y) > 1 {
				t.Errorf("Y = %d, want ~%d", got, tt.y)
			}
			if got := out[w*h]; absDiff(got, tt.u) > 1 {
				t.Errorf("U = %d, want ~%d", got, tt.u)
			}
			if got := out[w*h+w*h/4]; absDiff(got, tt.v) > 1 {
				t.Errorf("V = %d, want ~%d", got, tt.v)
			}
		})
	}
}

func absDiff(a, b byte) int {
	d := int(a) - int(b)
	if d < 0 {
		return -d
	}
	return d
}

func TestRunEmitsAndStops(t *testing.T) {
	conf := config.Source{Width: 64, Height: 36, Fps: 100, SampleRate: 8000, Channels: 1}
	s := New(conf, l)

	var videos, audios atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx,
			func(f media.VideoFrame) {
				if f.Format != media.PixelFormatI420 || len(f.Data) != 64*36*3/2 {
					t.Errorf("bad video frame: %v %d", f.Format, len(f.Data))
				}
				videos.Add(1)
			},
			func(f media.AudioFrame) {
				if f.Channels != 1 || f.SampleRate != 8000 {
					t.Errorf("bad audio frame: %+v", f)
				}
				audios.Add(1)
			})
	}()

	deadline := time.After(5 * time.Second)
	for videos.Load() < 3 || audios.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("source stalled: %d video, %d audio", videos.Load(), audios.Load())
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("source did not stop on cancel")
	}
}
