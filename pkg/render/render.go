// Package render owns the GPU side of the player: a single worker
// goroutine locked to an OS thread executes every GL and audio-sink
// operation, so the rendering context is never touched concurrently.
// All other threads only enqueue commands.
package render

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/streamview/streamview/pkg/config"
	"github.com/streamview/streamview/pkg/logger"
	"github.com/streamview/streamview/pkg/media"
	"github.com/streamview/streamview/pkg/metrics"
	"github.com/streamview/streamview/pkg/render/geom"
)

// Context is the worker-owned GPU context bound to the display
// surface. Created lazily on the first frame after a surface is
// available, destroyed before the surface goes away.
type Context interface {
	MakeCurrent() error
	Release() error
	Destroy()
	Swap()
}

// Surface is a display surface the worker can draw into.
type Surface interface {
	Size() (w, h int)
	// NewContext creates a rendering context for the surface.
	// The share hint, when non-nil, refers to the context owning
	// externally produced textures. Sharing is best-effort: the
	// implementation may only honor it when the producer's context
	// is current on the calling thread at creation time.
	NewContext(share any) (Context, error)
}

// DrawPath is one of the two draw strategies: pass-through texture
// sampling or planar upload-and-draw.
type DrawPath interface {
	Init() error
	Draw(f media.VideoFrame, pos, tex []float32, outW, outH int) error
	Destroy()
}

// PathFactory constructs the draw strategy for a classified path.
type PathFactory func(p Path) DrawPath

// AudioSink receives queued audio frames on the worker thread.
type AudioSink interface {
	Play(f media.AudioFrame) error
}

type commandKind int

const (
	cmdRender commandKind = iota
	cmdAudio
	cmdRun
	cmdStop
)

type command struct {
	kind  commandKind
	video media.VideoFrame
	audio media.AudioFrame
	run   func()
	done  chan struct{}
}

// Worker serializes render, audio and lifecycle commands in
// submission order on a dedicated thread.
type Worker struct {
	log   *logger.Logger
	queue chan command
	done  chan struct{}

	// size is the only field shared across threads without the queue:
	// written by the UI thread on resize, read by the worker per frame.
	size atomic.Uint64

	sink  AudioSink
	paths PathFactory

	// worker-thread state
	surf    Surface
	ctx     Context
	texPath DrawPath
	yuvPath DrawPath
	geo     *geom.Cache
}

type Option func(*Worker)

// WithPaths overrides the draw strategy factory.
func WithPaths(f PathFactory) Option { return func(w *Worker) { w.paths = f } }

func NewWorker(conf config.Video, sink AudioSink, log *logger.Logger, opts ...Option) *Worker {
	q := conf.Queue
	if q <= 0 {
		q = 64
	}
	w := &Worker{
		log:   log.Extend(log.With().Str("m", "render")),
		queue: make(chan command, q),
		done:  make(chan struct{}),
		sink:  sink,
		paths: defaultPaths,
		geo: geom.NewCache(
			geom.ParseScale(conf.Scale), geom.ParseRotation(conf.Rotation), conf.FlipVertical),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

func (w *Worker) Start() { go w.loop() }

// Done closes when the worker has fully torn down and stopped.
func (w *Worker) Done() <-chan struct{} { return w.done }

// Render queues one video frame. Fire-and-forget: when the queue is
// congested or the worker has stopped, the frame is dropped and the
// next one supersedes it.
func (w *Worker) Render(f media.VideoFrame) {
	if reason := w.submit(command{kind: cmdRender, video: f}); reason != "" {
		metrics.FramesDropped.WithLabelValues(reason).Inc()
	}
}

// PlayAudio queues one mixed audio frame.
func (w *Worker) PlayAudio(f media.AudioFrame) {
	if reason := w.submit(command{kind: cmdAudio, audio: f}); reason != "" {
		metrics.FramesDropped.WithLabelValues(reason).Inc()
	}
}

// SurfaceAvailable publishes a new surface to the worker. Unlike
// frames, the surface handoff must not be dropped, so the send blocks
// when the queue is congested.
func (w *Worker) SurfaceAvailable(s Surface, width, height int) {
	w.size.Store(packSize(width, height))
	select {
	case w.queue <- command{kind: cmdRun, run: func() { w.surf = s }}:
		w.log.Info().Msgf("surface available %dx%d", width, height)
	case <-w.done:
	}
}

// SurfaceResized updates the output size; cached geometry goes stale
// and is recomputed on the next frame.
func (w *Worker) SurfaceResized(width, height int) {
	w.size.Store(packSize(width, height))
	w.log.Info().Msgf("surface resized %dx%d", width, height)
}

// SurfaceDestroyed tears down the GPU context and blocks until done,
// so the caller may release the surface afterwards. Must not be called
// from the worker thread.
func (w *Worker) SurfaceDestroyed(ctx context.Context) {
	w.RunAndWait(ctx, func() {
		w.teardownGL()
		w.surf = nil
	})
}

// Stop queues the final teardown behind all already-submitted work
// and stops the worker loop. Unconditional cleanup: it always runs.
func (w *Worker) Stop() {
	select {
	case <-w.done:
		return
	default:
	}
	select {
	case w.queue <- command{kind: cmdStop}:
	case <-w.done:
	}
}

// RunAndWait executes fn on the worker thread and blocks until it
// completes. A canceled ctx abandons the wait with a warning; the
// completion guarantee is then best-effort only.
func (w *Worker) RunAndWait(ctx context.Context, fn func()) {
	c := command{kind: cmdRun, run: fn, done: make(chan struct{})}
	select {
	case w.queue <- c:
	case <-w.done:
		// already stopped, GL state is gone
		return
	}
	select {
	case <-c.done:
	case <-w.done:
	case <-ctx.Done():
		w.log.Warn().Msg("teardown wait interrupted")
	}
}

// submit enqueues without blocking and reports the drop reason,
// empty on success.
func (w *Worker) submit(c command) string {
	select {
	case <-w.done:
		return metrics.ReasonStopped
	default:
	}
	select {
	case w.queue <- c:
		return ""
	default:
		return metrics.ReasonQueueFull
	}
}

func (w *Worker) loop() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for c := range w.queue {
		switch c.kind {
		case cmdRender:
			w.render(c.video)
		case cmdAudio:
			w.playAudio(c.audio)
		case cmdRun:
			c.run()
			if c.done != nil {
				close(c.done)
			}
		case cmdStop:
			w.teardownGL()
			close(w.done)
			return
		}
	}
}

func (w *Worker) render(f media.VideoFrame) {
	path := Classify(f)
	if path == PathUnsupported || f.W <= 0 || f.H <= 0 {
		w.log.Warn().Msgf("unsupported video frame: buffer=%v format=%v %dx%d",
			f.Buffer, f.Format, f.W, f.H)
		metrics.FramesDropped.WithLabelValues(metrics.ReasonUnsupported).Inc()
		return
	}

	outW, outH := unpackSize(w.size.Load())

	if w.ctx == nil {
		if w.surf == nil || outW <= 0 || outH <= 0 {
			metrics.FramesDropped.WithLabelValues(metrics.ReasonNoSurface).Inc()
			return
		}
		var share any
		if f.Texture != nil {
			share = f.Texture.Share
		}
		ctx, err := w.surf.NewContext(share)
		if err != nil {
			w.log.Error().Err(err).Msg("render context creation failed")
			metrics.FramesDropped.WithLabelValues(metrics.ReasonNoContext).Inc()
			return
		}
		w.ctx = ctx
	}

	if outW <= 0 || outH <= 0 {
		metrics.FramesDropped.WithLabelValues(metrics.ReasonNoSurface).Inc()
		return
	}

	p := w.pathFor(path)
	if p == nil {
		metrics.FramesDropped.WithLabelValues(metrics.ReasonNoContext).Inc()
		return
	}

	pos, tex, updated := w.geo.Buffers(f.W, f.H, outW, outH)
	if updated {
		metrics.GeometryRecalcs.Inc()
		w.log.Debug().Msgf("geometry %dx%d -> %dx%d", f.W, f.H, outW, outH)
	}

	if err := w.ctx.MakeCurrent(); err != nil {
		w.log.Error().Err(err).Msg("context bind failed")
		metrics.FramesDropped.WithLabelValues(metrics.ReasonDraw).Inc()
		return
	}
	if err := p.Draw(f, pos, tex, outW, outH); err != nil {
		w.log.Error().Err(err).Msg("draw failed")
		metrics.FramesDropped.WithLabelValues(metrics.ReasonDraw).Inc()
		return
	}
	w.ctx.Swap()
	metrics.FramesRendered.Inc()
}

// pathFor returns the draw strategy for p, lazily constructing and
// initializing it against the current context on first use.
func (w *Worker) pathFor(p Path) DrawPath {
	var slot *DrawPath
	switch p {
	case PathTexture:
		slot = &w.texPath
	case PathPlanar:
		slot = &w.yuvPath
	default:
		return nil
	}
	if *slot != nil {
		return *slot
	}

	np := w.paths(p)
	if np == nil {
		return nil
	}
	if err := w.ctx.MakeCurrent(); err != nil {
		w.log.Error().Err(err).Msg("context bind failed")
		return nil
	}
	if err := np.Init(); err != nil {
		w.log.Error().Err(err).Msgf("filter init failed for %v", p)
		return nil
	}
	*slot = np
	w.log.Debug().Msgf("initialized %v path", p)
	return np
}

func (w *Worker) playAudio(f media.AudioFrame) {
	if w.sink == nil {
		return
	}
	if err := w.sink.Play(f); err != nil {
		w.log.Error().Err(err).Msg("audio playback failed")
		metrics.FramesDropped.WithLabelValues(metrics.ReasonAudio).Inc()
	}
}

// teardownGL destroys the filters and the GPU context.
// Idempotent: safe to run when nothing is initialized.
func (w *Worker) teardownGL() {
	if w.ctx == nil && w.texPath == nil && w.yuvPath == nil {
		return
	}
	if w.ctx != nil {
		_ = w.ctx.MakeCurrent()
	}
	if w.texPath != nil {
		w.texPath.Destroy()
		w.texPath = nil
	}
	if w.yuvPath != nil {
		w.yuvPath.Destroy()
		w.yuvPath = nil
	}
	if w.ctx != nil {
		_ = w.ctx.Release()
		w.ctx.Destroy()
		w.ctx = nil
		metrics.Teardowns.Inc()
	}
}

func packSize(w, h int) uint64 { return uint64(uint32(w))<<32 | uint64(uint32(h)) }

func unpackSize(v uint64) (w, h int) { return int(int32(v >> 32)), int(int32(uint32(v))) }
