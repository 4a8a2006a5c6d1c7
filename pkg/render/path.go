package render

import (
	"github.com/streamview/streamview/pkg/media"
	"github.com/streamview/streamview/pkg/render/gles"
)

// Path is the draw strategy selected for a video frame.
type Path int

const (
	PathUnsupported Path = iota
	PathTexture
	PathPlanar
)

func (p Path) String() string {
	switch p {
	case PathTexture:
		return "texture"
	case PathPlanar:
		return "planar"
	}
	return "unsupported"
}

// Classify picks the draw path for a frame: Texture when it carries a
// GPU texture handle, Planar when it is an I420 byte buffer, and
// Unsupported for every other combination.
func Classify(f media.VideoFrame) Path {
	switch {
	case f.Buffer == media.BufferTypeTexture && f.Texture != nil:
		return PathTexture
	case f.Buffer == media.BufferTypeByteArray && f.Format == media.PixelFormatI420:
		return PathPlanar
	default:
		return PathUnsupported
	}
}

func defaultPaths(p Path) DrawPath {
	switch p {
	case PathTexture:
		return gles.NewFilter()
	case PathPlanar:
		return gles.NewI420Filter()
	}
	return nil
}
