package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vannot/vannot/internal/canvas"
	"github.com/vannot/vannot/internal/event"
	"github.com/vannot/vannot/internal/geometry"
	"github.com/vannot/vannot/internal/projection"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadArgs        = errors.New("bad command arguments")
)

type command func(h *Hub, args json.RawMessage) error

// simple wraps a canvas call that takes no arguments.
func simple(fn func(c *canvas.Canvas)) command {
	return func(h *Hub, _ json.RawMessage) error {
		fn(h.canvas)
		return nil
	}
}

func decode[T any](args json.RawMessage) (T, error) {
	var v T
	if len(args) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(args, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrBadArgs, err)
	}
	return v, nil
}

func required[T any](name string, v *T) (T, error) {
	if v == nil {
		var zero T
		return zero, fmt.Errorf("%w: %s is required", ErrBadArgs, name)
	}
	return *v, nil
}

var commands = map[string]command{
	"startShape":      simple(func(c *canvas.Canvas) { c.StartShape() }),
	"endShape":        simple((*canvas.Canvas).EndShape),
	"undoDrawPoint":   simple((*canvas.Canvas).UndoDrawPoint),
	"copyLast":        simple((*canvas.Canvas).CopyLast),
	"deselect":        simple((*canvas.Canvas).Deselect),
	"expandSelection": simple((*canvas.Canvas).ExpandSelection),
	"deleteSelected":  simple((*canvas.Canvas).RemoveSelectedShapes),
	"removeSelectedPoints": simple(func(c *canvas.Canvas) {
		c.RemovePoints(c.Selected().Points)
	}),
	"formInstance": simple(func(c *canvas.Canvas) {
		c.FormInstance(c.Selected().WholeShapes)
	}),
	"breakInstance": simple(func(c *canvas.Canvas) {
		c.BreakInstance(c.Selected().WholeShapes)
	}),
	"resetViewport": simple((*canvas.Canvas).ResetViewport),

	"duplicate": func(h *Hub, args json.RawMessage) error {
		a, err := decode[struct {
			Delta float64 `json:"delta"`
		}](args)
		if err != nil {
			return err
		}
		h.canvas.DuplicateSelected(a.Delta)
		return nil
	},

	"assignObject": func(h *Hub, args json.RawMessage) error {
		a, err := decode[struct {
			ObjectID *int `json:"objectId"`
		}](args)
		if err != nil {
			return err
		}
		id, err := required("objectId", a.ObjectID)
		if err != nil {
			return err
		}
		if !h.canvas.AssignObject(id) {
			return fmt.Errorf("%w: no object %d", ErrBadArgs, id)
		}
		return nil
	},

	"setInstanceClass": func(h *Hub, args json.RawMessage) error {
		a, err := decode[struct {
			Class string `json:"class"`
		}](args)
		if err != nil {
			return err
		}
		h.canvas.SetInstanceClass(h.canvas.Selected().Instance, a.Class)
		return nil
	},

	"selectInstance": func(h *Hub, args json.RawMessage) error {
		a, err := decode[struct {
			ID *int `json:"id"`
		}](args)
		if err != nil {
			return err
		}
		id, err := required("id", a.ID)
		if err != nil {
			return err
		}
		h.canvas.SelectInstance(id)
		return nil
	},

	"selectPoints": func(h *Hub, args json.RawMessage) error {
		a, err := decode[struct {
			Points []canvas.PointRef `json:"points"`
		}](args)
		if err != nil {
			return err
		}
		points := make([]*geometry.Point, 0, len(a.Points))
		for _, ref := range a.Points {
			p := h.canvas.Resolve(ref)
			if p == nil {
				return fmt.Errorf("%w: no point %d/%d", ErrBadArgs, ref.ShapeID, ref.Index)
			}
			points = append(points, p)
		}
		h.canvas.SelectPoints(points)
		return nil
	},

	"setFrame": setFrame,
	"seek":     setFrame,

	"prevFrame": func(h *Hub, _ json.RawMessage) error {
		if f := h.canvas.Document().PrevFrame(h.canvas.FrameNumber()); f != nil {
			h.seek(f.Frame)
		}
		return nil
	},

	"nextFrame": func(h *Hub, _ json.RawMessage) error {
		if f := h.canvas.Document().NextFrame(h.canvas.FrameNumber()); f != nil {
			h.seek(f.Frame)
		}
		return nil
	},

	"setTool": func(h *Hub, args json.RawMessage) error {
		a, err := decode[struct {
			Tool canvas.Tool `json:"tool"`
		}](args)
		if err != nil {
			return err
		}
		switch a.Tool {
		case canvas.ToolSelect, canvas.ToolPan:
			h.canvas.SetTool(a.Tool)
			return nil
		}
		return fmt.Errorf("%w: unknown tool %q", ErrBadArgs, a.Tool)
	},

	"setViewport": func(h *Hub, args json.RawMessage) error {
		vp, err := decode[projection.Viewport](args)
		if err != nil {
			return err
		}
		if vp.Width <= 0 || vp.Height <= 0 {
			return fmt.Errorf("%w: viewport must have a positive size", ErrBadArgs)
		}
		h.canvas.SetViewport(vp)
		return nil
	},

	"setScale": func(h *Hub, args json.RawMessage) error {
		a, err := decode[struct {
			Scale *float64 `json:"scale"`
		}](args)
		if err != nil {
			return err
		}
		scale, err := required("scale", a.Scale)
		if err != nil {
			return err
		}
		h.canvas.SetScale(scale)
		return nil
	},

	"setVideo": func(h *Hub, args json.RawMessage) error {
		a, err := decode[struct {
			Width  float64 `json:"width"`
			Height float64 `json:"height"`
		}](args)
		if err != nil {
			return err
		}
		if a.Width <= 0 || a.Height <= 0 {
			return fmt.Errorf("%w: video must have a positive size", ErrBadArgs)
		}
		h.canvas.SetVideo(a.Width, a.Height)
		return nil
	},

	"save": func(h *Hub, _ json.RawMessage) error {
		ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
		defer cancel()
		_, err := h.save(ctx)
		return err
	},
}

func setFrame(h *Hub, args json.RawMessage) error {
	a, err := decode[struct {
		Frame *int `json:"frame"`
	}](args)
	if err != nil {
		return err
	}
	frame, err := required("frame", a.Frame)
	if err != nil {
		return err
	}
	if frame < 0 {
		return fmt.Errorf("%w: negative frame", ErrBadArgs)
	}
	h.seek(frame)
	return nil
}

// seek moves the canvas to frame. Crossing between unannotated frames
// relabels the canvas frame silently, so the frame topic is marked here for
// renderers.
func (h *Hub) seek(frame int) {
	before := h.canvas.FrameNumber()
	h.canvas.SetFrame(frame)
	if h.canvas.FrameNumber() != before {
		h.batch.Emit(event.Frame)
	}
}

func (h *Hub) runCommand(name string, args json.RawMessage) error {
	cmd, ok := commands[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, name)
	}
	return cmd(h, args)
}
