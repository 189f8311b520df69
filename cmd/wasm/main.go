//go:build js && wasm

// Command wasm runs the canvas in the browser for offline editing. The page
// drives it through the global vannotCanvas object and polls render() once
// per animation frame.
package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/vannot/vannot/internal/canvas"
	"github.com/vannot/vannot/internal/document"
	"github.com/vannot/vannot/internal/event"
	"github.com/vannot/vannot/internal/geometry"
	"github.com/vannot/vannot/internal/input"
	"github.com/vannot/vannot/internal/projection"
)

var (
	cv    *canvas.Canvas
	disp  *input.Dispatcher
	batch = event.NewBatch()
)

type pointerArgs struct {
	Target input.TargetRef `json:"target"`
	Shift  bool            `json:"shift"`
	Ctrl   bool            `json:"ctrl"`
	Alt    bool            `json:"alt"`
	X      float64         `json:"x"`
	Y      float64         `json:"y"`
}

func main() {
	if err := load(document.NewSampleDocument("sailing.mp4")); err != nil {
		panic(err)
	}

	api := js.Global().Get("Object").New()

	// --- Commands (page → canvas) ---
	api.Set("loadDocument", js.FuncOf(loadDocument))
	api.Set("pointerDown", js.FuncOf(pointer(func(e input.Event) { disp.PointerDown(e) })))
	api.Set("pointerMove", js.FuncOf(pointer(func(e input.Event) { disp.PointerMove(e) })))
	api.Set("pointerUp", js.FuncOf(pointer(func(e input.Event) { disp.PointerUp(e) })))
	api.Set("wheel", js.FuncOf(wheel))
	api.Set("setSpace", js.FuncOf(setSpace))
	api.Set("setFrame", js.FuncOf(setFrame))
	api.Set("setTool", js.FuncOf(setTool))
	api.Set("setViewport", js.FuncOf(setViewport))
	api.Set("startShape", js.FuncOf(simple(func() { cv.StartShape() })))
	api.Set("endShape", js.FuncOf(simple(func() { cv.EndShape() })))
	api.Set("undoDrawPoint", js.FuncOf(simple(func() { cv.UndoDrawPoint() })))
	api.Set("copyLast", js.FuncOf(simple(func() { cv.CopyLast() })))
	api.Set("deselect", js.FuncOf(simple(func() { cv.Deselect() })))
	api.Set("deleteSelected", js.FuncOf(simple(func() { cv.RemoveSelectedShapes() })))
	api.Set("formInstance", js.FuncOf(simple(func() { cv.FormInstance(cv.Selected().WholeShapes) })))
	api.Set("breakInstance", js.FuncOf(simple(func() { cv.BreakInstance(cv.Selected().WholeShapes) })))

	// --- Queries (page ← canvas) ---
	api.Set("render", js.FuncOf(render))
	api.Set("getDocument", js.FuncOf(getDocument))

	js.Global().Set("vannotCanvas", api)
	js.Global().Set("vannotWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func load(doc *document.Document) error {
	c := canvas.New(doc, batch, 0)
	d, err := input.New(c)
	if err != nil {
		return err
	}
	cv, disp = c, d
	batch.Emit(event.All)
	return nil
}

func fail(err error) any {
	return js.ValueOf(map[string]any{"error": err.Error()})
}

func ok() any {
	return js.ValueOf(map[string]any{"ok": true})
}

func loadDocument(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return js.ValueOf(map[string]any{"error": "missing document JSON"})
	}
	doc, err := document.Parse([]byte(args[0].String()))
	if err != nil {
		return fail(err)
	}
	if err := load(doc); err != nil {
		return fail(err)
	}
	return ok()
}

// pointer adapts a dispatcher entry point taking one JSON-encoded pointerArgs.
func pointer(fn func(input.Event)) func(js.Value, []js.Value) any {
	return func(this js.Value, args []js.Value) any {
		if len(args) < 1 {
			return js.ValueOf(map[string]any{"error": "missing pointer event"})
		}
		var p pointerArgs
		if err := json.Unmarshal([]byte(args[0].String()), &p); err != nil {
			return fail(err)
		}
		target, err := input.Resolve(cv, p.Target)
		if err != nil {
			return fail(err)
		}
		fn(input.Event{
			Target:    target,
			Modifiers: input.Modifiers{Shift: p.Shift, Ctrl: p.Ctrl, Alt: p.Alt},
			Screen:    geometry.Point{X: p.X, Y: p.Y},
		})
		return nil
	}
}

func simple(fn func()) func(js.Value, []js.Value) any {
	return func(js.Value, []js.Value) any {
		fn()
		return nil
	}
}

func wheel(this js.Value, args []js.Value) any {
	if len(args) < 3 {
		return nil
	}
	disp.Wheel(args[0].Float(), geometry.Point{X: args[1].Float(), Y: args[2].Float()})
	return nil
}

func setSpace(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return nil
	}
	disp.SetSpace(args[0].Bool())
	return nil
}

func setFrame(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return nil
	}
	cv.SetFrame(args[0].Int())
	return nil
}

func setTool(this js.Value, args []js.Value) any {
	if len(args) < 1 {
		return nil
	}
	switch t := canvas.Tool(args[0].String()); t {
	case canvas.ToolSelect, canvas.ToolPan:
		cv.SetTool(t)
	}
	return nil
}

func setViewport(this js.Value, args []js.Value) any {
	if len(args) < 2 {
		return nil
	}
	vp := projection.Viewport{Width: args[0].Float(), Height: args[1].Float()}
	if len(args) > 2 {
		vp.Padding = args[2].Float()
	}
	if vp.Width > 0 && vp.Height > 0 {
		cv.SetViewport(vp)
	}
	return nil
}

// render returns {dirty, snapshot} for everything changed since the last
// call, or null when nothing did.
func render(this js.Value, args []js.Value) any {
	dirty := batch.Flush()
	if dirty == 0 {
		return js.Null()
	}
	snap, err := cv.SnapshotJSON()
	if err != nil {
		return fail(err)
	}
	names := make([]any, 0)
	for _, n := range dirty.Names() {
		names = append(names, n)
	}
	return js.ValueOf(map[string]any{
		"dirty":    names,
		"snapshot": snap,
	})
}

func getDocument(this js.Value, args []js.Value) any {
	clean, err := cv.Document().Clone()
	if err != nil {
		return fail(err)
	}
	data, err := json.Marshal(clean.Normalize())
	if err != nil {
		return fail(err)
	}
	return js.ValueOf(string(data))
}
