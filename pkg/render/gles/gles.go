// Package gles holds the two GL draw paths of the renderer:
// a pass-through textured quad and an I420 upload-and-draw.
// Every function here must run on the render worker thread with
// a current GL context.
package gles

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v2.1/gl"
)

// Finish blocks until the GL pipeline of the calling thread's current
// context is fully executed. Texture producers call it before handing
// a frame over to another context.
func Finish() { gl.Finish() }

const vertexShader = `
attribute vec4 position;
attribute vec4 inputTextureCoordinate;
varying vec2 textureCoordinate;
void main() {
    gl_Position = position;
    textureCoordinate = inputTextureCoordinate.xy;
}
`

func compileShader(src string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)
	csources, free := gl.Strs(src + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		infoLog := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(infoLog))
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("shader compile: %v", infoLog)
	}
	return shader, nil
}

func newProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	vs, err := compileShader(vertexSrc, gl.VERTEX_SHADER)
	if err != nil {
		return 0, err
	}
	fs, err := compileShader(fragmentSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vs)
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vs)
	gl.AttachShader(program, fs)
	gl.LinkProgram(program)
	gl.DeleteShader(vs)
	gl.DeleteShader(fs)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		infoLog := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(infoLog))
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("program link: %v", infoLog)
	}
	return program, nil
}

// beginFrame targets the default framebuffer and clears it
// to the output surface size.
func beginFrame(w, h int) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, int32(w), int32(h))
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

// drawQuad draws a textured triangle strip from client-side
// coordinate buffers.
func drawQuad(aPos, aTex int32, pos, tex []float32) {
	gl.EnableVertexAttribArray(uint32(aPos))
	gl.VertexAttribPointer(uint32(aPos), 2, gl.FLOAT, false, 0, gl.Ptr(&pos[0]))
	gl.EnableVertexAttribArray(uint32(aTex))
	gl.VertexAttribPointer(uint32(aTex), 2, gl.FLOAT, false, 0, gl.Ptr(&tex[0]))
	gl.DrawArrays(gl.TRIANGLE_STRIP, 0, 4)
	gl.DisableVertexAttribArray(uint32(aTex))
	gl.DisableVertexAttribArray(uint32(aPos))
}
