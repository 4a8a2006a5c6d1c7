package gles

import (
	"fmt"

	"github.com/go-gl/gl/v2.1/gl"

	"github.com/streamview/streamview/pkg/media"
)

// BT.601 limited-range-ish conversion, matching the usual
// GPUImage-style YUV filters.
const i420FragmentShader = `
varying vec2 textureCoordinate;
uniform sampler2D yTexture;
uniform sampler2D uTexture;
uniform sampler2D vTexture;
void main() {
    float y = texture2D(yTexture, textureCoordinate).r;
    float u = texture2D(uTexture, textureCoordinate).r - 0.5;
    float v = texture2D(vTexture, textureCoordinate).r - 0.5;
    float r = y + 1.402 * v;
    float g = y - 0.344 * u - 0.714 * v;
    float b = y + 1.772 * u;
    gl_FragColor = vec4(r, g, b, 1.0);
}
`

// I420Filter uploads the three planes of an I420 frame into internal
// textures and draws them through the YUV-to-RGB shader.
type I420Filter struct {
	prog       uint32
	aPos, aTex int32
	uPlane     [3]int32
	planes     [3]uint32
}

func NewI420Filter() *I420Filter { return &I420Filter{} }

func (f *I420Filter) Init() error {
	prog, err := newProgram(vertexShader, i420FragmentShader)
	if err != nil {
		return err
	}
	f.prog = prog
	f.aPos = gl.GetAttribLocation(prog, gl.Str("position\x00"))
	f.aTex = gl.GetAttribLocation(prog, gl.Str("inputTextureCoordinate\x00"))
	f.uPlane[0] = gl.GetUniformLocation(prog, gl.Str("yTexture\x00"))
	f.uPlane[1] = gl.GetUniformLocation(prog, gl.Str("uTexture\x00"))
	f.uPlane[2] = gl.GetUniformLocation(prog, gl.Str("vTexture\x00"))

	gl.GenTextures(3, &f.planes[0])
	for _, t := range f.planes {
		gl.BindTexture(gl.TEXTURE_2D, t)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
		gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	}
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return nil
}

func (f *I420Filter) Draw(frame media.VideoFrame, pos, tex []float32, outW, outH int) error {
	if f.prog == 0 {
		return errNotInitialized
	}
	w, h := frame.W, frame.H
	need, err := i420Size(w, h)
	if err != nil {
		return err
	}
	if len(frame.Data) < need {
		return fmt.Errorf("i420: short frame buffer: %d < %d", len(frame.Data), need)
	}

	beginFrame(outW, outH)
	gl.UseProgram(f.prog)
	f.loadPlanes(frame.Data, w, h)
	drawQuad(f.aPos, f.aTex, pos, tex)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return nil
}

// i420Size returns the packed buffer length for a frame. The format is
// defined only for even dimensions; odd sizes would misplace the
// chroma plane offsets.
func i420Size(w, h int) (int, error) {
	if w <= 0 || h <= 0 || w%2 != 0 || h%2 != 0 {
		return 0, fmt.Errorf("i420: unsupported frame size %dx%d", w, h)
	}
	return w * h * 3 / 2, nil
}

// loadPlanes respecifies the Y, U, V textures from a packed I420 buffer.
func (f *I420Filter) loadPlanes(data []byte, w, h int) {
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	offsets := [3]int{0, w * h, w * h * 5 / 4}
	for i, t := range f.planes {
		pw, ph := w, h
		if i > 0 {
			pw, ph = w/2, h/2
		}
		gl.ActiveTexture(gl.TEXTURE0 + uint32(i))
		gl.BindTexture(gl.TEXTURE_2D, t)
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.LUMINANCE, int32(pw), int32(ph), 0,
			gl.LUMINANCE, gl.UNSIGNED_BYTE, gl.Ptr(&data[offsets[i]]))
		gl.Uniform1i(f.uPlane[i], int32(i))
	}
	gl.ActiveTexture(gl.TEXTURE0)
}

func (f *I420Filter) Destroy() {
	if f.prog == 0 {
		return
	}
	gl.DeleteTextures(3, &f.planes[0])
	gl.DeleteProgram(f.prog)
	f.prog = 0
	f.planes = [3]uint32{}
}
