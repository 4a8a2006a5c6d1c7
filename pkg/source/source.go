// Package source generates a synthetic media stream for the demo app:
// color bars with a moving cursor as I420 video and a sine tone as
// mixed PCM audio. It stands in for the real media engine.
package source

import (
	"context"
	"image"
	"image/color"
	"math"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/streamview/streamview/pkg/config"
	"github.com/streamview/streamview/pkg/logger"
	"github.com/streamview/streamview/pkg/media"
)

const (
	toneHz    = 440
	audioStep = 20 * time.Millisecond
	// pattern is drawn small and upscaled to the output size
	patternW = 320
	patternH = 180
)

var bars = []color.RGBA{
	{R: 0xc0, G: 0xc0, B: 0xc0, A: 0xff},
	{R: 0xc0, G: 0xc0, B: 0x00, A: 0xff},
	{R: 0x00, G: 0xc0, B: 0xc0, A: 0xff},
	{R: 0x00, G: 0xc0, B: 0x00, A: 0xff},
	{R: 0xc0, G: 0x00, B: 0xc0, A: 0xff},
	{R: 0xc0, G: 0x00, B: 0x00, A: 0xff},
	{R: 0x00, G: 0x00, B: 0xc0, A: 0xff},
}

// Source produces frames at the configured rate until its context is
// canceled.
type Source struct {
	conf config.Source
	log  *logger.Logger

	pattern *image.RGBA
	scaled  *image.RGBA
	yuv     []byte
	phase   float64
}

func New(conf config.Source, log *logger.Logger) *Source {
	return &Source{
		conf:    conf,
		log:     log.Extend(log.With().Str("m", "source")),
		pattern: image.NewRGBA(image.Rect(0, 0, patternW, patternH)),
		scaled:  image.NewRGBA(image.Rect(0, 0, conf.Width, conf.Height)),
		yuv:     make([]byte, conf.Width*conf.Height*3/2),
	}
}

// Run feeds the callbacks until ctx is canceled. The callbacks are
// invoked from two separate goroutines, never concurrently with
// themselves.
func (s *Source) Run(ctx context.Context, onVideo func(media.VideoFrame), onAudio func(media.AudioFrame)) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.videoLoop(ctx, onVideo) })
	g.Go(func() error { return s.audioLoop(ctx, onAudio) })
	err := g.Wait()
	if err == context.Canceled {
		return nil
	}
	return err
}

func (s *Source) videoLoop(ctx context.Context, emit func(media.VideoFrame)) error {
	fps := s.conf.Fps
	if fps <= 0 {
		fps = 30
	}
	tick := time.NewTicker(time.Second / time.Duration(fps))
	defer tick.Stop()

	s.log.Info().Msgf("video source %dx%d@%d", s.conf.Width, s.conf.Height, fps)
	for n := 0; ; n++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
		s.drawPattern(n)
		draw.ApproxBiLinear.Scale(s.scaled, s.scaled.Bounds(), s.pattern, s.pattern.Bounds(), draw.Src, nil)
		rgbaToI420(s.scaled, s.yuv)
		// frames are immutable after handoff, the scratch buffer is not
		data := make([]byte, len(s.yuv))
		copy(data, s.yuv)
		emit(media.VideoFrame{
			Format: media.PixelFormatI420,
			Buffer: media.BufferTypeByteArray,
			W:      s.conf.Width,
			H:      s.conf.Height,
			Data:   data,
		})
	}
}

func (s *Source) audioLoop(ctx context.Context, emit func(media.AudioFrame)) error {
	rate, channels := s.conf.SampleRate, s.conf.Channels
	if rate <= 0 {
		rate = 48000
	}
	if channels <= 0 {
		channels = 2
	}
	samples := rate / int(time.Second/audioStep)
	buf := make([]byte, samples*channels*2)

	tick := time.NewTicker(audioStep)
	defer tick.Stop()

	s.log.Info().Msgf("audio source %dHz ch=%d", rate, channels)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
		s.fillTone(buf, rate, channels)
		data := make([]byte, len(buf))
		copy(data, buf)
		emit(media.AudioFrame{Data: data, SampleRate: rate, Channels: channels})
	}
}

// drawPattern paints the color bars and a white cursor sweeping one
// column per frame.
func (s *Source) drawPattern(n int) {
	barW := patternW / len(bars)
	for i, c := range bars {
		r := image.Rect(i*barW, 0, (i+1)*barW, patternH)
		draw.Draw(s.pattern, r, &image.Uniform{C: c}, image.Point{}, draw.Src)
	}
	cursor := image.Rect(n%patternW, 0, n%patternW+4, patternH)
	draw.Draw(s.pattern, cursor, image.White, image.Point{}, draw.Src)
}

func (s *Source) fillTone(buf []byte, rate, channels int) {
	step := 2 * math.Pi * toneHz / float64(rate)
	for i := 0; i < len(buf)/(channels*2); i++ {
		v := int16(math.Sin(s.phase) * 0.2 * math.MaxInt16)
		s.phase += step
		for c := 0; c < channels; c++ {
			off := (i*channels + c) * 2
			buf[off] = byte(v)
			buf[off+1] = byte(v >> 8)
		}
	}
	if s.phase > 2*math.Pi {
		s.phase -= 2 * math.Pi
	}
}

// rgbaToI420 converts with BT.601 studio-swing coefficients, chroma
// subsampled by point sampling.
func rgbaToI420(img *image.RGBA, out []byte) {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	yp := out[:w*h]
	up := out[w*h : w*h+w*h/4]
	vp := out[w*h+w*h/4:]

	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			r, g, b := int(row[x*4]), int(row[x*4+1]), int(row[x*4+2])
			yp[y*w+x] = clamp(((66*r + 129*g + 25*b + 128) >> 8) + 16)
		}
	}
	for y := 0; y < h; y += 2 {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x += 2 {
			r, g, b := int(row[x*4]), int(row[x*4+1]), int(row[x*4+2])
			i := (y/2)*(w/2) + x/2
			up[i] = clamp(((-38*r - 74*g + 112*b + 128) >> 8) + 128)
			vp[i] = clamp(((112*r - 94*g - 18*b + 128) >> 8) + 128)
		}
	}
}

func clamp(v int) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
