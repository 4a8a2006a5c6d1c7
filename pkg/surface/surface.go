// Package surface owns the display window and its lifecycle. A
// Listener subscribes to surface events; the window pushes
// availability, resize and destruction notifications in order.
package surface

import (
	"sync"

	"github.com/streamview/streamview/pkg/config"
	"github.com/streamview/streamview/pkg/logger"
	"github.com/streamview/streamview/pkg/render"
	"github.com/streamview/streamview/pkg/render/glctx"
	"github.com/veandco/go-sdl2/sdl"
)

// Listener receives surface lifecycle events. SurfaceDestroyed blocks
// until the subscriber no longer touches the surface; its return value
// tells the window whether the subscriber releases the surface itself.
type Listener interface {
	SurfaceAvailable(s render.Surface, width, height int)
	SurfaceResized(s render.Surface, width, height int)
	SurfaceDestroyed(s render.Surface) (release bool)
}

// View is a swappable display target for the player.
type View interface {
	SetListener(l Listener)
}

// Window is an SDL window acting as both the view and the drawable
// surface handed to the render worker.
type Window struct {
	win *sdl.Window
	log *logger.Logger

	mu       sync.Mutex
	listener Listener
}

// NewWindow creates a resizable GL-capable window. Call on the main
// thread.
func NewWindow(conf config.Window, log *logger.Logger) (*Window, error) {
	if err := sdl.InitSubSystem(sdl.INIT_VIDEO); err != nil {
		return nil, err
	}
	if err := sdl.GLSetAttribute(sdl.GL_DOUBLEBUFFER, 1); err != nil {
		return nil, err
	}
	win, err := sdl.CreateWindow(conf.Title,
		sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED,
		int32(conf.Width), int32(conf.Height),
		sdl.WINDOW_OPENGL|sdl.WINDOW_RESIZABLE|sdl.WINDOW_ALLOW_HIGHDPI)
	if err != nil {
		return nil, err
	}
	return &Window{
		win: win,
		log: log.Extend(log.With().Str("m", "window")),
	}, nil
}

// Size returns the drawable size in pixels, which differs from the
// window size on high-DPI displays.
func (w *Window) Size() (int, int) {
	dw, dh := w.win.GLGetDrawableSize()
	return int(dw), int(dh)
}

// NewContext implements render.Surface.
func (w *Window) NewContext(share any) (render.Context, error) {
	return glctx.New(w.win, share)
}

// SetListener subscribes l to lifecycle events. The window already
// exists, so availability fires immediately. A nil l unsubscribes.
func (w *Window) SetListener(l Listener) {
	w.mu.Lock()
	w.listener = l
	w.mu.Unlock()
	if l != nil {
		width, height := w.Size()
		l.SurfaceAvailable(w, width, height)
	}
}

func (w *Window) getListener() Listener {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.listener
}

// Pump processes window events until the user closes the window or
// stop is closed. Call on the main thread.
func (w *Window) Pump(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}
		ev := sdl.WaitEventTimeout(100)
		if ev == nil {
			continue
		}
		switch e := ev.(type) {
		case *sdl.QuitEvent:
			return
		case *sdl.WindowEvent:
			switch e.Event {
			case sdl.WINDOWEVENT_SIZE_CHANGED:
				width, height := w.Size()
				if l := w.getListener(); l != nil {
					l.SurfaceResized(w, width, height)
				}
			case sdl.WINDOWEVENT_CLOSE:
				return
			}
		}
	}
}

// Close notifies the listener that the surface is going away, waits
// for it to let go, then destroys the window. Call on the main thread.
func (w *Window) Close() {
	if l := w.getListener(); l != nil {
		if released := l.SurfaceDestroyed(w); released {
			w.log.Debug().Msg("surface released by listener")
		}
	}
	if w.win != nil {
		if err := w.win.Destroy(); err != nil {
			w.log.Error().Err(err).Msg("window destroy failed")
		}
		w.win = nil
	}
	sdl.QuitSubSystem(sdl.INIT_VIDEO)
}
