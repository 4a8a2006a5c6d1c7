// Package player wires the render worker, the audio sink and the
// display surface into one playback unit for a single remote stream.
package player

import (
	"context"
	"time"

	"github.com/rs/xid"

	"github.com/streamview/streamview/pkg/audio"
	"github.com/streamview/streamview/pkg/config"
	"github.com/streamview/streamview/pkg/logger"
	"github.com/streamview/streamview/pkg/media"
	"github.com/streamview/streamview/pkg/metrics"
	"github.com/streamview/streamview/pkg/render"
	"github.com/streamview/streamview/pkg/surface"
)

// teardownWait bounds the synchronous GPU teardown on surface loss.
const teardownWait = 5 * time.Second

// Sink abstracts the audio output owned by the player.
type Sink interface {
	render.AudioSink
	Close()
}

// Player renders one video stream and plays the mixed audio that
// accompanies it. Frames for other streams are discarded.
type Player struct {
	id     xid.ID
	log    *logger.Logger
	stream media.Stream
	worker *render.Worker
	sink   Sink
	view   surface.View

	renderOpts []render.Option
}

type Option func(*Player)

// WithSink overrides the audio output.
func WithSink(s Sink) Option { return func(p *Player) { p.sink = s } }

// WithRenderOptions forwards options to the render worker.
func WithRenderOptions(opts ...render.Option) Option {
	return func(p *Player) { p.renderOpts = append(p.renderOpts, opts...) }
}

func New(conf config.Player, log *logger.Logger, opts ...Option) *Player {
	p := &Player{
		id: xid.New(),
		stream: media.Stream{
			UserID: conf.Stream.UserID,
			Type:   media.StreamType(conf.Stream.Type),
		},
	}
	p.log = log.Extend(log.With().Str("m", "player").Str("id", p.id.String()))
	for _, o := range opts {
		o(p)
	}
	if p.sink == nil {
		p.sink = audio.NewSink(conf.Audio, log)
	}
	p.worker = render.NewWorker(conf.Video, p.sink, log, p.renderOpts...)
	p.worker.Start()
	p.log.Info().Msgf("player created for stream %s/%d", p.stream.UserID, p.stream.Type)
	return p
}

// Start attaches the player to a view. A nil view leaves the player
// running headless; frames are dropped until a surface shows up.
func (p *Player) Start(v surface.View) {
	if v == nil {
		p.log.Warn().Msg("no view attached, rendering is off")
		return
	}
	p.view = v
	v.SetListener(p)
}

// Stop detaches from the view, closes the audio device on the calling
// thread and queues the GPU teardown behind any in-flight work. Safe
// to call more than once.
func (p *Player) Stop() {
	if p.view != nil {
		p.view.SetListener(nil)
		p.view = nil
	}
	p.sink.Close()
	p.worker.Stop()
	p.log.Info().Msg("player stopped")
}

// Done closes when the render worker has fully torn down.
func (p *Player) Done() <-chan struct{} { return p.worker.Done() }

// OnVideoFrame feeds one decoded video frame. Frames whose stream
// identity does not match the configured one are dropped.
func (p *Player) OnVideoFrame(userID string, st media.StreamType, f *media.VideoFrame) {
	if f == nil {
		return
	}
	if userID != p.stream.UserID || st != p.stream.Type {
		metrics.FramesDropped.WithLabelValues(metrics.ReasonStream).Inc()
		return
	}
	// the producer flushes its pipeline before we touch the texture
	if f.Texture != nil && f.Texture.Sync != nil {
		f.Texture.Sync()
	}
	p.worker.Render(*f)
}

// OnMixedAudioFrame feeds one frame of the mixed room audio.
func (p *Player) OnMixedAudioFrame(f *media.AudioFrame) {
	if f == nil || len(f.Data) == 0 {
		return
	}
	p.worker.PlayAudio(*f)
}

// SurfaceAvailable implements surface.Listener.
func (p *Player) SurfaceAvailable(s render.Surface, width, height int) {
	p.worker.SurfaceAvailable(s, width, height)
}

// SurfaceResized implements surface.Listener.
func (p *Player) SurfaceResized(_ render.Surface, width, height int) {
	p.worker.SurfaceResized(width, height)
}

// SurfaceDestroyed implements surface.Listener: it blocks until the
// worker has let go of the GPU context, then lets the view release the
// surface.
func (p *Player) SurfaceDestroyed(render.Surface) bool {
	ctx, cancel := context.WithTimeout(context.Background(), teardownWait)
	defer cancel()
	p.worker.SurfaceDestroyed(ctx)
	return false
}
