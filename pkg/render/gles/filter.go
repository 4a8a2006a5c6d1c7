package gles

import (
	"errors"

	"github.com/go-gl/gl/v2.1/gl"

	"github.com/streamview/streamview/pkg/media"
)

var errNotInitialized = errors.New("gles: filter is not initialized")

const textureFragmentShader = `
varying vec2 textureCoordinate;
uniform sampler2D inputImageTexture;
void main() {
    gl_FragColor = texture2D(inputImageTexture, textureCoordinate);
}
`

// Filter samples an external GPU texture onto the surface quad.
type Filter struct {
	prog       uint32
	aPos, aTex int32
	uImage     int32
}

func NewFilter() *Filter { return &Filter{} }

func (f *Filter) Init() error {
	prog, err := newProgram(vertexShader, textureFragmentShader)
	if err != nil {
		return err
	}
	f.prog = prog
	f.aPos = gl.GetAttribLocation(prog, gl.Str("position\x00"))
	f.aTex = gl.GetAttribLocation(prog, gl.Str("inputTextureCoordinate\x00"))
	f.uImage = gl.GetUniformLocation(prog, gl.Str("inputImageTexture\x00"))
	return nil
}

func (f *Filter) Draw(frame media.VideoFrame, pos, tex []float32, outW, outH int) error {
	if f.prog == 0 {
		return errNotInitialized
	}
	if frame.Texture == nil {
		return media.ErrUnsupportedFrame
	}

	beginFrame(outW, outH)
	gl.UseProgram(f.prog)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, frame.Texture.ID)
	gl.Uniform1i(f.uImage, 0)
	drawQuad(f.aPos, f.aTex, pos, tex)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return nil
}

func (f *Filter) Destroy() {
	if f.prog != 0 {
		gl.DeleteProgram(f.prog)
		f.prog = 0
	}
}
