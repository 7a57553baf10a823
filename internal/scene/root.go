package scene

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/thrive/thrive/internal/display"
	"github.com/thrive/thrive/internal/scripting"
	"go.uber.org/zap"
)

// DefaultSceneManager is the only scene manager type.
const DefaultSceneManager = "DefaultSceneManager"

var (
	ErrNoRenderTarget = errors.New("root has no render target")
	ErrReleased       = errors.New("root released")
)

// FrameStats describes the last rendered frame.
type FrameStats struct {
	Frame     uint64
	Nodes     int
	Viewports int
	Glyphs    int
	Overlay   []string
}

// Root is the top of the rendering backend: renderer plugins, the render
// target, scene managers and viewports.
type Root struct {
	plugins   *scripting.Host
	window    *display.Window
	managers  []*Manager
	viewports []*Viewport
	stats     FrameStats
	released  bool
	log       *zap.Logger
}

// NewRoot loads the renderer plugins listed in the plugin manifest. An empty
// path loads none.
func NewRoot(pluginManifest string, log *zap.Logger) (*Root, error) {
	var manifest *scripting.Manifest
	if pluginManifest != "" {
		m, err := scripting.LoadManifest(pluginManifest)
		if err != nil {
			return nil, err
		}
		manifest = m
	}
	host, err := scripting.NewHost(manifest, log)
	if err != nil {
		return nil, err
	}
	log.Info("rendering root created", zap.Strings("plugins", host.Plugins()))
	return &Root{plugins: host, log: log}, nil
}

func (r *Root) Plugins() *scripting.Host { return r.plugins }
func (r *Root) Window() *display.Window  { return r.window }
func (r *Root) LastFrame() FrameStats    { return r.stats }

// Initialise binds the render target.
func (r *Root) Initialise(w *display.Window) error {
	if r.released {
		return ErrReleased
	}
	if r.window != nil {
		return errors.New("root already initialised")
	}
	r.window = w
	return nil
}

func (r *Root) CreateSceneManager(kind string) (*Manager, error) {
	if r.released {
		return nil, ErrReleased
	}
	if kind != DefaultSceneManager {
		return nil, fmt.Errorf("create scene manager: unknown type %q", kind)
	}
	m := newManager(kind)
	r.managers = append(r.managers, m)
	return m, nil
}

// AddViewport shows cam on the whole target. Z-orders are unique; higher
// z-orders draw on top.
func (r *Root) AddViewport(cam *Camera, zOrder int) (*Viewport, error) {
	for _, v := range r.viewports {
		if v.zOrder == zOrder {
			return nil, fmt.Errorf("add viewport: z-order %d already in use", zOrder)
		}
	}
	v := &Viewport{camera: cam, zOrder: zOrder, Width: 1, Height: 1}
	r.viewports = append(r.viewports, v)
	sort.Slice(r.viewports, func(i, j int) bool { return r.viewports[i].zOrder < r.viewports[j].zOrder })
	return v, nil
}

func (r *Root) RemoveViewport(v *Viewport) {
	for i, x := range r.viewports {
		if x == v {
			r.viewports = append(r.viewports[:i], r.viewports[i+1:]...)
			return
		}
	}
}

// Viewports returns the viewports in draw order.
func (r *Root) Viewports() []*Viewport {
	out := make([]*Viewport, len(r.viewports))
	copy(out, r.viewports)
	return out
}

// RenderOneFrame draws every viewport, runs the plugin frame listeners and
// presents the frame.
func (r *Root) RenderOneFrame(dt time.Duration) error {
	if r.released {
		return ErrReleased
	}
	if r.window == nil {
		return ErrNoRenderTarget
	}
	screen := r.window.Screen()
	sw, sh := screen.Size()
	mono := r.window.Config().ColorMode == display.ColorMono
	screen.Clear()

	stats := FrameStats{Frame: r.stats.Frame + 1, Viewports: len(r.viewports)}
	for _, v := range r.viewports {
		n, err := rasterize(screen, v, sw, sh, mono)
		if err != nil {
			return fmt.Errorf("render viewport %d: %w", v.zOrder, err)
		}
		stats.Glyphs += n
	}
	for _, m := range r.managers {
		stats.Nodes += m.NodeCount()
	}

	stats.Overlay = r.plugins.FrameEnded(scripting.FrameStats{
		Frame:     stats.Frame,
		DT:        dt,
		Nodes:     stats.Nodes,
		Viewports: stats.Viewports,
		Glyphs:    stats.Glyphs,
	})
	st := cellStyle(ColourWhite, ColourBlack, mono)
	for i, line := range stats.Overlay {
		if i >= sh {
			break
		}
		drawText(screen, 0, i, sw, line, st)
	}
	screen.Show()
	r.stats = stats
	return nil
}

// Release closes the plugins and drops every scene manager and viewport.
// Further calls are no-ops.
func (r *Root) Release() {
	if r == nil || r.released {
		return
	}
	r.released = true
	r.plugins.Close()
	r.viewports = nil
	r.managers = nil
	r.window = nil
	r.log.Info("rendering root released", zap.Uint64("frames", r.stats.Frame))
}
