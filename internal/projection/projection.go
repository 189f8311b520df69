// Package projection maps between screen pixels and video pixels for the
// annotation canvas. A Projection is an immutable value computed from the
// video size, viewport size, zoom scale and pan offset; View memoizes it.
package projection

import (
	"math"

	"github.com/vannot/vannot/internal/geometry"
)

const (
	MinScale = 0.5
	MaxScale = 3.5
)

// Size is the natural pixel size of the video.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Viewport is the on-screen area the video is fitted into. Padding is the
// total padding across both sides of each axis.
type Viewport struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Padding float64 `json:"padding"`
}

// Projection converts between canvas (video-pixel) space and screen space.
type Projection struct {
	// Factor is the number of video pixels per screen pixel.
	Factor  float64        `json:"factor"`
	Origin  geometry.Point `json:"origin"`
	Padding float64        `json:"padding"`

	toScreen Matrix2D
	toCanvas Matrix2D
}

// Compute builds the projection. The video is fitted to the padding-adjusted
// viewport along whichever axis constrains it, then zoomed by scale around
// the viewport center and shifted by pan (screen pixels).
func Compute(video Size, viewport Viewport, scale float64, pan geometry.Point) Projection {
	availW := viewport.Width - viewport.Padding
	availH := viewport.Height - viewport.Padding
	if scale <= 0 {
		scale = 1
	}

	var factor float64
	var origin geometry.Point
	if video.Width <= 0 || video.Height <= 0 || availW <= 0 || availH <= 0 {
		factor = 1 / scale
		origin = pan
	} else {
		videoAspect := video.Width / video.Height
		viewportAspect := availW / availH
		if viewportAspect > videoAspect {
			factor = video.Height / availH
		} else {
			factor = video.Width / availW
		}
		factor /= scale

		origin = geometry.Point{
			X: availW/2 - (video.Width/2)/factor + pan.X,
			Y: availH/2 - (video.Height/2)/factor + pan.Y,
		}
	}

	half := viewport.Padding / 2
	toScreen := Translate(origin.X+half, origin.Y+half).Multiply(Scale(1/factor, 1/factor))
	return Projection{
		Factor:   factor,
		Origin:   origin,
		Padding:  viewport.Padding,
		toScreen: toScreen,
		toCanvas: toScreen.Invert(),
	}
}

// ToScreen projects a canvas point onto the screen.
func (p Projection) ToScreen(pt geometry.Point) geometry.Point {
	return p.toScreen.Apply(pt)
}

// ToCanvas projects a screen point into canvas space.
func (p Projection) ToCanvas(pt geometry.Point) geometry.Point {
	return p.toCanvas.Apply(pt)
}

// ScreenDistance converts a distance in screen pixels into canvas pixels.
func (p Projection) ScreenDistance(px float64) float64 {
	return px * p.Factor
}

// Matrix returns the canvas-to-screen transform, e.g. for an SVG transform
// attribute.
func (p Projection) Matrix() Matrix2D {
	return p.toScreen
}

// View holds the inputs of a projection and recomputes it lazily on first
// read after any of them change.
type View struct {
	video    Size
	viewport Viewport
	scale    float64
	pan      geometry.Point

	cached Projection
	valid  bool
}

// NewView creates a view at 1x zoom with no pan.
func NewView(video Size) *View {
	return &View{video: video, scale: 1}
}

func (v *View) Scale() float64 { return v.scale }
func (v *View) Pan() geometry.Point { return v.pan }
func (v *View) Viewport() Viewport { return v.viewport }
func (v *View) Video() Size { return v.video }
func (v *View) invalidate() { v.valid = false }
func (v *View) SetVideo(s Size) { v.video = s; v.invalidate() }
func (v *View) SetViewport(vp Viewport) { v.viewport = vp; v.invalidate() }
func (v *View) SetPan(p geometry.Point) { v.pan = p; v.invalidate() }

// SetScale sets the zoom factor, clamped to [MinScale, MaxScale].
func (v *View) SetScale(scale float64) {
	v.scale = ClampScale(scale)
	v.invalidate()
}

// ZoomAt changes the scale while keeping the canvas point under anchor
// (screen pixels) visually stationary.
func (v *View) ZoomAt(scale float64, anchor geometry.Point) {
	under := v.Projection().ToCanvas(anchor)
	v.SetScale(scale)
	moved := v.Projection().ToScreen(under)
	v.SetPan(geometry.Point{X: v.pan.X + anchor.X - moved.X, Y: v.pan.Y + anchor.Y - moved.Y})
}

// Projection returns the memoized projection.
func (v *View) Projection() Projection {
	if !v.valid {
		v.cached = Compute(v.video, v.viewport, v.scale, v.pan)
		v.valid = true
	}
	return v.cached
}

// ClampScale limits a zoom factor to the supported range.
func ClampScale(scale float64) float64 {
	if math.IsNaN(scale) {
		return 1
	}
	return min(max(scale, MinScale), MaxScale)
}
