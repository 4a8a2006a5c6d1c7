// Package media defines the inbound frame contract of the player:
// the data the external media engine pushes through its callbacks.
package media

import "errors"

// ErrUnsupportedFrame marks a video frame whose buffer type and
// pixel format combination has no render path.
var ErrUnsupportedFrame = errors.New("media: unsupported frame type")

type PixelFormat int

const (
	PixelFormatUnknown PixelFormat = iota
	// PixelFormatI420 is the only supported planar format:
	// 8-bit Y plane followed by quarter-size U and V planes.
	PixelFormatI420
)

type BufferType int

const (
	BufferTypeNone BufferType = iota
	// BufferTypeTexture marks a GPU-resident frame.
	BufferTypeTexture
	// BufferTypeByteArray marks a planar frame in main memory.
	BufferTypeByteArray
)

type StreamType int

const (
	StreamBig StreamType = iota
	StreamSub
)

// Stream identifies one video stream of one user.
type Stream struct {
	UserID string
	Type   StreamType
}

// Texture is a GPU-resident frame payload. The producing engine keeps
// ownership of the underlying GL object; the renderer only samples it
// for the duration of a single draw.
type Texture struct {
	// ID is the GL texture name.
	ID uint32
	// Share is an opaque handle of the context owning the texture,
	// used as a sharing hint when the render context is created.
	Share any
	// Sync, when set, is invoked on the producer's thread right before
	// the frame is handed over. Producers working on their own GL
	// context set it to a full pipeline flush so the texture contents
	// are complete before cross-context sampling.
	Sync func()
}

// VideoFrame is a single frame of video in one of two representations:
// a GPU texture (Texture set, Buffer = BufferTypeTexture) or a planar
// byte buffer (Data set, Buffer = BufferTypeByteArray).
// Frames are immutable once handed to the player.
type VideoFrame struct {
	Format  PixelFormat
	Buffer  BufferType
	W, H    int
	Texture *Texture
	// Data holds W*H*3/2 bytes of I420 planes for planar frames.
	Data []byte
}

// AudioFrame is a buffer of interleaved 16-bit PCM samples,
// already mixed by the engine.
type AudioFrame struct {
	Data       []byte
	SampleRate int
	// Channels is 1 or 2; everything else is rejected by the sink.
	Channels int
}
