// Package audio plays the mixed PCM stream through a lazily opened
// streaming device. The device format is fixed by the first frame;
// the stream is expected to keep that signature for its lifetime.
package audio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/streamview/streamview/pkg/config"
	"github.com/streamview/streamview/pkg/logger"
	"github.com/streamview/streamview/pkg/media"
	"github.com/streamview/streamview/pkg/metrics"
)

// ErrChannelCount marks a frame with a channel count other than 1 or 2.
var ErrChannelCount = errors.New("audio: unsupported channel count")

// Spec is the format a playback device is opened with.
type Spec struct {
	SampleRate int
	Channels   int
	// Samples is the device buffer size in sample frames.
	Samples int
}

type device interface {
	Queue(data []byte) error
	Pause(on bool)
	Close()
}

type opener func(s Spec) (device, error)

// Sink owns one playback device. Opened on the first frame, written
// on the render worker thread, closed exactly once by the player's
// stop operation on the caller's thread.
type Sink struct {
	mu     sync.Mutex
	dev    device
	spec   Spec
	conf   config.Audio
	open   opener
	log    *logger.Logger
	closed bool
}

func NewSink(conf config.Audio, log *logger.Logger) *Sink {
	return &Sink{
		conf: conf,
		open: sdlOpen,
		log:  log.Extend(log.With().Str("m", "audio")),
	}
}

// Play opens the device matching the first frame's format if needed
// and queues the frame's samples.
func (s *Sink) Play(f media.AudioFrame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	if s.dev == nil {
		if f.Channels != 1 && f.Channels != 2 {
			return fmt.Errorf("%w: %d", ErrChannelCount, f.Channels)
		}
		samples := s.conf.BufferSamples
		if samples <= 0 {
			samples = minBufferSamples(f.SampleRate)
		}
		spec := Spec{SampleRate: f.SampleRate, Channels: f.Channels, Samples: samples}
		dev, err := s.open(spec)
		if err != nil {
			return fmt.Errorf("audio open: %w", err)
		}
		s.dev, s.spec = dev, spec
		s.dev.Pause(false)
		s.log.Info().Msgf("audio sink open: %dHz ch=%d buf=%d",
			spec.SampleRate, spec.Channels, spec.Samples)
	}

	if err := s.dev.Queue(f.Data); err != nil {
		return err
	}
	metrics.AudioBytes.Add(float64(len(f.Data)))
	return nil
}

// Close stops and releases the device. Frames arriving afterwards are
// dropped. Safe to call more than once.
func (s *Sink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	if s.dev != nil {
		s.dev.Pause(true)
		s.dev.Close()
		s.dev = nil
		s.log.Debug().Msg("audio sink closed")
	}
}

// minBufferSamples returns the smallest power-of-two buffer holding at
// least 20 ms at the given rate, no less than 512 frames.
func minBufferSamples(rate int) int {
	n := rate / 50
	p := 512
	for p < n {
		p <<= 1
	}
	return p
}
