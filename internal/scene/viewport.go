package scene

// Viewport is a rectangle of the render target showing one camera. The
// rectangle is relative to the target size, in [0,1].
type Viewport struct {
	camera     *Camera
	zOrder     int
	Left, Top  float64
	Width      float64
	Height     float64
	Background Colour
}

func (v *Viewport) Camera() *Camera     { return v.camera }
func (v *Viewport) SetCamera(c *Camera) { v.camera = c }
func (v *Viewport) ZOrder() int         { return v.zOrder }

func (v *Viewport) SetDimensions(left, top, width, height float64) {
	v.Left, v.Top, v.Width, v.Height = left, top, width, height
}

// Rect returns the viewport's cell rectangle on a target of sw x sh cells,
// clipped to the target.
func (v *Viewport) Rect(sw, sh int) (x, y, w, h int) {
	x = int(v.Left * float64(sw))
	y = int(v.Top * float64(sh))
	w = int(v.Width * float64(sw))
	h = int(v.Height * float64(sh))
	if x+w > sw {
		w = sw - x
	}
	if y+h > sh {
		h = sh - y
	}
	return x, y, w, h
}
