package audio

import (
	"errors"
	"testing"

	"github.com/streamview/streamview/pkg/config"
	"github.com/streamview/streamview/pkg/logger"
	"github.com/streamview/streamview/pkg/media"
)

var l = logger.New(false)

type fakeDevice struct {
	queued  int
	paused  []bool
	closed  int
	failing bool
}

func (d *fakeDevice) Queue(data []byte) error {
	if d.failing {
		return errors.New("device gone")
	}
	d.queued += len(data)
	return nil
}
func (d *fakeDevice) Pause(on bool) { d.paused = append(d.paused, on) }
func (d *fakeDevice) Close()        { d.closed++ }

func newTestSink(conf config.Audio) (*Sink, *fakeDevice, *[]Spec) {
	dev := &fakeDevice{}
	var opened []Spec
	s := NewSink(conf, l)
	s.open = func(spec Spec) (device, error) {
		opened = append(opened, spec)
		return dev, nil
	}
	return s, dev, &opened
}

func frame(channels int) media.AudioFrame {
	return media.AudioFrame{Data: make([]byte, 960*channels), SampleRate: 48000, Channels: channels}
}

func TestPlayChannelCounts(t *testing.T) {
	tests := []struct {
		channels int
		wantErr  bool
	}{
		{channels: 1},
		{channels: 2},
		{channels: 0, wantErr: true},
		{channels: 3, wantErr: true},
		{channels: 6, wantErr: true},
	}
	for _, tt := range tests {
		s, _, opened := newTestSink(config.Audio{})
		err := s.Play(frame(tt.channels))
		if tt.wantErr {
			if !errors.Is(err, ErrChannelCount) {
				t.Errorf("ch=%d: err = %v, want ErrChannelCount", tt.channels, err)
			}
			if len(*opened) != 0 {
				t.Errorf("ch=%d: device opened for a rejected frame", tt.channels)
			}
			continue
		}
		if err != nil {
			t.Errorf("ch=%d: %v", tt.channels, err)
		}
		if len(*opened) != 1 {
			t.Fatalf("ch=%d: opened %d devices, want 1", tt.channels, len(*opened))
		}
		spec := (*opened)[0]
		if spec.Channels != tt.channels || spec.SampleRate != 48000 {
			t.Errorf("ch=%d: opened with %+v", tt.channels, spec)
		}
		if min := 48000 / 50; spec.Samples < min {
			t.Errorf("ch=%d: buffer %d below device minimum %d", tt.channels, spec.Samples, min)
		}
		if spec.Samples&(spec.Samples-1) != 0 {
			t.Errorf("ch=%d: buffer %d is not a power of two", tt.channels, spec.Samples)
		}
	}
}

func TestPlayOpensOnce(t *testing.T) {
	s, dev, opened := newTestSink(config.Audio{})
	for i := 0; i < 10; i++ {
		if err := s.Play(frame(2)); err != nil {
			t.Fatal(err)
		}
	}
	if len(*opened) != 1 {
		t.Errorf("opened %d devices, want 1", len(*opened))
	}
	if dev.queued != 10*960*2 {
		t.Errorf("queued %d bytes, want %d", dev.queued, 10*960*2)
	}
	if len(dev.paused) != 1 || dev.paused[0] {
		t.Errorf("device not unpaused on open: %v", dev.paused)
	}
}

func TestBufferSamplesOverride(t *testing.T) {
	s, _, opened := newTestSink(config.Audio{BufferSamples: 4096})
	if err := s.Play(frame(2)); err != nil {
		t.Fatal(err)
	}
	if got := (*opened)[0].Samples; got != 4096 {
		t.Errorf("buffer = %d, want 4096", got)
	}
}

func TestCloseIsFinal(t *testing.T) {
	s, dev, opened := newTestSink(config.Audio{})
	if err := s.Play(frame(2)); err != nil {
		t.Fatal(err)
	}

	s.Close()
	s.Close()
	if dev.closed != 1 {
		t.Errorf("device closed %d times, want 1", dev.closed)
	}

	// late frames are dropped without reopening
	if err := s.Play(frame(2)); err != nil {
		t.Errorf("late frame errored: %v", err)
	}
	if len(*opened) != 1 {
		t.Errorf("device reopened after close")
	}
}

func TestCloseWithoutOpen(t *testing.T) {
	s, dev, _ := newTestSink(config.Audio{})
	s.Close()
	if dev.closed != 0 {
		t.Errorf("closed a device that was never opened")
	}
}

func TestMinBufferSamples(t *testing.T) {
	tests := []struct {
		rate int
		want int
	}{
		{rate: 8000, want: 512},
		{rate: 16000, want: 512},
		{rate: 44100, want: 1024},
		{rate: 48000, want: 1024},
		{rate: 96000, want: 2048},
	}
	for _, tt := range tests {
		if got := minBufferSamples(tt.rate); got != tt.want {
			t.Errorf("minBufferSamples(%d) = %d, want %d", tt.rate, got, tt.want)
		}
	}
}
