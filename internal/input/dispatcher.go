package input

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/vannot/vannot/internal/canvas"
	"github.com/vannot/vannot/internal/geometry"
)

const (
	// WheelSensitivity converts wheel delta units into relative scale growth.
	WheelSensitivity = 0.002
	// SignLockDuration is how long zoom direction stays locked after the
	// scale crosses 1x.
	SignLockDuration = 500 * time.Millisecond
)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// WithLogger sets the logger used for gesture debug output.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.log = l
	}
}

// drag is the gesture captured on pointer-down.
type drag struct {
	action  Draggable
	down    Event
	memo    any
	started bool
}

// Dispatcher turns pointer events into canvas operations. Only one drag is
// tracked at a time; it always ends on pointer-up.
type Dispatcher struct {
	c   *canvas.Canvas
	now func() time.Time
	log *slog.Logger

	current *drag

	lockSign  int
	lockUntil time.Time

	handled metric.Int64Counter
	drags   metric.Int64Counter
}

// New creates a dispatcher driving c. Metrics go to the global OTel meter.
func New(c *canvas.Canvas, opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		c:   c,
		now: time.Now,
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}

	m := meter()
	var err error
	d.handled, err = m.Int64Counter(
		"input.actions.handled",
		metric.WithDescription("Pointer actions that handled an event"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating handled counter: %w", err)
	}
	d.drags, err = m.Int64Counter(
		"input.drags.started",
		metric.WithDescription("Drags that moved past pointer-down"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating drags counter: %w", err)
	}
	return d, nil
}

// Dragging reports whether a press has been captured by a draggable action.
func (d *Dispatcher) Dragging() bool {
	return d.current != nil
}

func (d *Dispatcher) locate(e Event) Event {
	e.Canvas = d.c.Projection().ToCanvas(e.Screen)
	return e
}

// PointerDown runs the press action sets for the current state.
func (d *Dispatcher) PointerDown(e Event) {
	e = d.locate(e)
	d.c.SetMouse(e.Canvas)
	if d.current != nil {
		d.finish()
	}

	state := d.c.State()
	for _, set := range pressActions(state) {
		for _, a := range set {
			if d.try(a, e, state) {
				break
			}
		}
	}
}

func (d *Dispatcher) try(a Action, e Event, state canvas.State) bool {
	switch a := a.(type) {
	case Immediate:
		if !a.run(d.c, e) {
			return false
		}
		d.count(a.name, state)
		return true
	case Draggable:
		if !a.test(d.c, e) {
			return false
		}
		d.current = &drag{action: a, down: e}
		d.count(a.name, state)
		return true
	}
	return false
}

func (d *Dispatcher) count(name string, state canvas.State) {
	d.log.Debug("input action", "action", name, "state", state.String())
	d.handled.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("action", name),
		attribute.String("state", state.String()),
	))
}

// PointerMove tracks the pointer and drives the captured drag, initializing
// it on the first move.
func (d *Dispatcher) PointerMove(e Event) {
	e = d.locate(e)
	d.c.SetMouse(e.Canvas)
	if d.current == nil {
		return
	}

	g := d.current
	if !g.started {
		g.memo = g.action.init(d.c, g.down)
		g.started = true
		d.c.SetDragging(true)
		d.drags.Add(context.Background(), 1, metric.WithAttributes(attribute.String("action", g.action.name)))
	}
	g.memo = g.action.drag(d.c, g.memo, e)
}

// PointerUp ends a drag, or runs the release actions when the press never
// moved.
func (d *Dispatcher) PointerUp(e Event) {
	e = d.locate(e)
	d.c.SetMouse(e.Canvas)

	if d.current == nil || !d.current.started {
		state := d.c.State()
		for _, set := range releaseActions(state) {
			for _, a := range set {
				if d.try(a, e, state) {
					break
				}
			}
		}
	}
	d.finish()
}

func (d *Dispatcher) finish() {
	g := d.current
	d.current = nil
	if g == nil || !g.started {
		return
	}
	g.action.end(d.c, g.memo)
	d.c.SetDragging(false)
}

// SetSpace switches to the pan tool while space is held.
func (d *Dispatcher) SetSpace(held bool) {
	if held {
		d.c.SetToolOverride(canvas.ToolPan)
	} else {
		d.c.SetToolOverride("")
	}
}

// Wheel zooms around the pointer. Once the scale crosses 1x, wheel input in
// the opposite direction is ignored for SignLockDuration.
func (d *Dispatcher) Wheel(deltaY float64, screen geometry.Point) {
	growth := -deltaY * WheelSensitivity
	if growth == 0 || math.IsNaN(growth) {
		return
	}
	sign := 1
	if growth < 0 {
		sign = -1
	}

	now := d.now()
	if now.Before(d.lockUntil) && sign != d.lockSign {
		return
	}

	scale := d.c.Scale()
	next := scale * (1 + growth)
	if (scale < 1 && next >= 1) || (scale > 1 && next <= 1) {
		d.lockSign = sign
		d.lockUntil = now.Add(SignLockDuration)
	}
	d.c.ZoomAt(next, screen)
}
