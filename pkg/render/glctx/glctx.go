// Package glctx manages a GL rendering context bound to an SDL
// window surface. A context belongs to exactly one thread at a time:
// create, MakeCurrent, draw, Release, Destroy all happen on the
// render worker thread.
package glctx

import (
	"fmt"
	"sync"

	"github.com/go-gl/gl/v2.1/gl"
	"github.com/veandco/go-sdl2/sdl"
)

type Context struct {
	w   *sdl.Window
	ctx sdl.GLContext
}

var glInit sync.Once

// New creates a GL context for the window surface and makes it
// current on the calling thread. A non-nil share hint requests object
// sharing so externally produced textures stay accessible. SDL shares
// only with the context current on the calling thread at creation
// time; when nothing is current here, the hint has no effect and the
// producer must hand frames over as byte buffers instead.
func New(w *sdl.Window, share any) (*Context, error) {
	if share != nil {
		if err := sdl.GLSetAttribute(sdl.GL_SHARE_WITH_CURRENT_CONTEXT, 1); err != nil {
			return nil, fmt.Errorf("gl share: %w", err)
		}
		// the attribute is process-global, later non-shared
		// creations must not inherit it
		defer func() { _ = sdl.GLSetAttribute(sdl.GL_SHARE_WITH_CURRENT_CONTEXT, 0) }()
	}

	ctx, err := w.GLCreateContext()
	if err != nil {
		return nil, fmt.Errorf("gl context: %w", err)
	}

	var initErr error
	glInit.Do(func() { initErr = gl.InitWithProcAddrFunc(sdl.GLGetProcAddress) })
	if initErr != nil {
		sdl.GLDeleteContext(ctx)
		return nil, fmt.Errorf("gl bindings: %w", initErr)
	}

	return &Context{w: w, ctx: ctx}, nil
}

func (c *Context) MakeCurrent() error { return c.w.GLMakeCurrent(c.ctx) }

// Release detaches the context from the calling thread.
// Must precede Destroy.
func (c *Context) Release() error { return c.w.GLMakeCurrent(nil) }

func (c *Context) Destroy() {
	if c.ctx != nil {
		sdl.GLDeleteContext(c.ctx)
		c.ctx = nil
	}
}

func (c *Context) Swap() { c.w.GLSwap() }
