package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Drop reasons for the frames_dropped counter.
const (
	ReasonUnsupported = "unsupported"
	ReasonNoSurface   = "no_surface"
	ReasonNoContext   = "no_context"
	ReasonQueueFull   = "queue_full"
	ReasonStopped     = "stopped"
	ReasonDraw        = "draw"
	ReasonStream      = "stream"
	ReasonAudio       = "audio"
)

var (
	FramesRendered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamview_frames_rendered_total",
		Help: "Count of video frames drawn to the surface.",
	})
	FramesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamview_frames_dropped_total",
		Help: "Count of frames discarded before drawing, by reason.",
	}, []string{"reason"})
	GeometryRecalcs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamview_geometry_recalcs_total",
		Help: "Count of vertex/texture buffer recomputations.",
	})
	AudioBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamview_audio_bytes_total",
		Help: "Count of PCM bytes queued to the audio device.",
	})
	Teardowns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "streamview_teardowns_total",
		Help: "Count of GPU context teardowns.",
	})
)
