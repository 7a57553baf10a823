package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"
	"golang.org/x/text/width"
)

// ErrCameraDetached means a viewport's camera has no node in the scene
// graph. The scene state is inconsistent and the frame cannot be drawn.
var ErrCameraDetached = errors.New("viewport camera is not attached to the scene graph")

// cellAspect is a terminal cell's width over its height.
const cellAspect = 0.5

func runeWidth(r rune) int {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	}
	return 1
}

func glyphRune(r rune, mode PolygonMode) rune {
	switch mode {
	case PolygonWireframe:
		return '+'
	case PolygonPoints:
		return '.'
	}
	return r
}

func cellStyle(fg, bg Colour, mono bool) tcell.Style {
	if !mono {
		return tcell.StyleDefault.Foreground(fg.Tcell()).Background(bg.Tcell())
	}
	st := tcell.StyleDefault
	switch l := fg.Luminance(); {
	case l > 0.66:
		st = st.Bold(true)
	case l < 0.33:
		st = st.Dim(true)
	}
	return st
}

// rasterize draws one viewport and returns the number of glyphs that passed
// the depth test.
func rasterize(s tcell.Screen, v *Viewport, sw, sh int, mono bool) (int, error) {
	x0, y0, w, h := v.Rect(sw, sh)
	if w <= 0 || h <= 0 {
		return 0, nil
	}
	cam := v.camera
	if cam != nil && (cam.Node() == nil || !cam.Node().InGraph()) {
		return 0, fmt.Errorf("camera %s: %w", cam.Name(), ErrCameraDetached)
	}
	var sky SkyPlane
	if cam != nil {
		sky = cam.Manager().SkyPlane()
	}
	rowBg := make([]Colour, h)
	for y := range rowBg {
		rowBg[y] = v.Background
		if sky.Enabled {
			t := 0.0
			if h > 1 {
				t = float64(y) / float64(h-1)
			}
			rowBg[y] = sky.At(t)
		}
		st := cellStyle(ColourBlack, rowBg[y], mono)
		for x := 0; x < w; x++ {
			s.SetContent(x0+x, y0+y, ' ', nil, st)
		}
	}
	// A viewport without a camera shows only its background.
	if cam == nil {
		return 0, nil
	}
	mgr := cam.Manager()

	node := cam.Node()
	eye := node.DerivedPosition()
	inv := node.DerivedOrientation().Conjugate()
	f := cam.focal()
	aspect := float64(w) * cellAspect / float64(h)
	depth := make([]float64, w*h)
	for i := range depth {
		depth[i] = math.Inf(1)
	}
	ambient := mgr.AmbientLight()
	lights := mgr.Lights()

	drawn := 0
	for _, e := range mgr.Entities() {
		en := e.Node()
		if !e.Visible || en == nil || !en.InGraph() {
			continue
		}
		for _, g := range e.mesh.Glyphs {
			world := en.ToWorld(g.Pos)
			view := inv.Rotate(world.Sub(eye))
			z := -view.Z
			if z < cam.NearClip || z > cam.FarClip {
				continue
			}
			cx := int(math.Floor((view.X*f/(z*aspect) + 1) / 2 * float64(w)))
			cy := int(math.Floor((1 - view.Y*f/z) / 2 * float64(h)))
			r := glyphRune(g.Rune, cam.PolygonMode)
			rw := runeWidth(r)
			if cx < 0 || cy < 0 || cx+rw > w || cy >= h {
				continue
			}
			i := cy*w + cx
			if z >= depth[i] {
				continue
			}
			light := ambient
			for _, l := range lights {
				light = light.Add(l.Diffuse.Scale(l.Attenuation(world)))
			}
			for k := 0; k < rw; k++ {
				depth[i+k] = z
			}
			s.SetContent(x0+cx, y0+cy, r, nil, cellStyle(g.Colour.Mul(light.Clamp()), rowBg[cy], mono))
			drawn++
		}
	}
	return drawn, nil
}

// drawText writes s from (x, y), clipped to the target width.
func drawText(s tcell.Screen, x, y, sw int, text string, st tcell.Style) {
	for _, r := range text {
		rw := runeWidth(r)
		if x+rw > sw {
			return
		}
		s.SetContent(x, y, r, nil, st)
		x += rw
	}
}
