package canvas

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vannot/vannot/internal/document"
	"github.com/vannot/vannot/internal/event"
	"github.com/vannot/vannot/internal/geometry"
	"github.com/vannot/vannot/internal/projection"
)

// newTestCanvas returns a canvas whose projection is the identity: a square
// video fitted into a same-sized viewport.
func newTestCanvas(t *testing.T, frame int) (*Canvas, *event.Recorder) {
	t.Helper()
	doc := document.NewEmptyDocument(document.Video{Width: 1000, Height: 1000, FPS: 25, Duration: 250})
	rec := &event.Recorder{}
	c := New(doc, rec, frame)
	c.SetViewport(projection.Viewport{Width: 1000, Height: 1000})
	rec.Reset()
	return c, rec
}

func drawShape(c *Canvas, coords ...float64) *document.Shape {
	c.StartShape()
	for i := 0; i+1 < len(coords); i += 2 {
		c.AppendDrawPoint(geometry.Point{X: coords[i], Y: coords[i+1]})
	}
	s := c.WIP()
	c.EndShape()
	return s
}

func square(c *Canvas, x, y, size float64) *document.Shape {
	return drawShape(c, x, y, x+size, y, x+size, y+size, x, y+size)
}

func TestScenarioDrawShape(t *testing.T) {
	c, rec := newTestCanvas(t, 0)

	wip := c.StartShape()
	require.NotNil(t, wip)
	assert.True(t, wip.WIP)
	assert.Empty(t, wip.Points)
	assert.Equal(t, document.UnassignedObjectID, wip.ObjectID)
	assert.Equal(t, StateDrawing, c.State())

	c.AppendDrawPoint(geometry.Point{X: 10, Y: 10})
	c.AppendDrawPoint(geometry.Point{X: 50, Y: 10})
	c.AppendDrawPoint(geometry.Point{X: 50, Y: 50})
	c.EndShape()

	assert.False(t, wip.WIP)
	assert.Len(t, wip.Points, 3)
	assert.Same(t, wip, c.Selected().Shape)
	assert.Equal(t, StateShapes, c.State())
	assert.True(t, rec.Union().Has(event.Shapes|event.Points|event.Selected))
	assert.Same(t, c.Frame(), c.Document().FrameAt(0))
}

func TestEndShapeDiscardsShortShape(t *testing.T) {
	c, _ := newTestCanvas(t, 3)
	drawShape(c, 0, 0, 10, 10)

	assert.Empty(t, c.Frame().Shapes)
	assert.Nil(t, c.Document().FrameAt(3), "empty frame must not be stored")
	assert.Equal(t, StateNormal, c.State())
}

func TestEndShapeWithoutWIPIsNoop(t *testing.T) {
	c, rec := newTestCanvas(t, 0)
	c.EndShape()
	c.UndoDrawPoint()
	c.AppendDrawPoint(geometry.Point{})
	assert.Empty(t, rec.Events)
}

func TestUndoDrawPointAndSegment(t *testing.T) {
	c, _ := newTestCanvas(t, 0)
	c.StartShape()
	_, _, ok := c.WIPSegment()
	assert.False(t, ok)

	c.AppendDrawPoint(geometry.Point{X: 1, Y: 1})
	c.AppendDrawPoint(geometry.Point{X: 2, Y: 2})
	c.SetMouse(geometry.Point{X: 9, Y: 9})

	from, to, ok := c.WIPSegment()
	require.True(t, ok)
	assert.Equal(t, geometry.Point{X: 2, Y: 2}, from)
	assert.Equal(t, geometry.Point{X: 9, Y: 9}, to)

	c.UndoDrawPoint()
	assert.Len(t, c.WIP().Points, 1)
}

func TestScenarioDuplicateSelected(t *testing.T) {
	c, _ := newTestCanvas(t, 0)
	s := square(c, 0, 0, 20)
	s.ObjectID = 2
	c.FormInstance([]*document.Shape{s})
	c.SelectShape(s)

	dups := c.DuplicateSelected(10)
	require.Len(t, dups, 1)
	dup := dups[0]

	assert.NotEqual(t, s.ID, dup.ID)
	assert.Equal(t, 2, dup.ObjectID)
	assert.Nil(t, dup.InstanceID)
	require.Len(t, dup.Points, 4)
	for i, p := range dup.Points {
		assert.Equal(t, s.Points[i].X+10, p.X)
		assert.Equal(t, s.Points[i].Y+10, p.Y)
		assert.NotSame(t, s.Points[i], p)
	}
	assert.Same(t, dup, c.Selected().Shape)
	assert.Len(t, c.Frame().Shapes, 2)
}

func TestDuplicateSelectedNeedsWholeShapes(t *testing.T) {
	c, _ := newTestCanvas(t, 0)
	s := square(c, 0, 0, 20)
	c.SelectPoints(s.Points[:1])
	assert.Nil(t, c.DuplicateSelected(0))
	assert.Len(t, c.Frame().Shapes, 1)
}

func TestScenarioFormInstance(t *testing.T) {
	c, rec := newTestCanvas(t, 5)
	a := square(c, 0, 0, 10)
	b := square(c, 50, 50, 10)
	rec.Reset()

	in := c.FormInstance([]*document.Shape{a, b})
	require.NotNil(t, in)
	require.Len(t, c.Document().Instances, 1)
	require.NotNil(t, a.InstanceID)
	require.NotNil(t, b.InstanceID)
	assert.Equal(t, in.ID, *a.InstanceID)
	assert.Equal(t, in.ID, *b.InstanceID)
	assert.True(t, rec.Union().Has(event.Instances))

	c.SelectShapes([]*document.Shape{a, b})
	assert.Same(t, in, c.Selected().Instance)
	assert.False(t, c.Selected().Instanceless)

	// a subset of the instance is not the instance
	c.SelectShape(a)
	assert.Nil(t, c.Selected().Instance)
	assert.Len(t, c.Selected().Instances, 1)
}

func TestFormInstancePrunesReplacedInstance(t *testing.T) {
	c, _ := newTestCanvas(t, 0)
	a := square(c, 0, 0, 10)
	b := square(c, 50, 50, 10)

	first := c.FormInstance([]*document.Shape{a})
	second := c.FormInstance([]*document.Shape{a, b})

	assert.Nil(t, c.Document().Instance(first.ID))
	assert.NotNil(t, c.Document().Instance(second.ID))
	assert.Nil(t, c.FormInstance(nil))
}

func TestInstancelessSelection(t *testing.T) {
	c, _ := newTestCanvas(t, 0)
	a := square(c, 0, 0, 10)
	b := square(c, 50, 50, 10)
	in := c.FormInstance([]*document.Shape{a})

	c.SelectShapes([]*document.Shape{a, b})
	sel := c.Selected()
	assert.True(t, sel.Instanceless)
	require.Len(t, sel.Instances, 1)
	assert.Same(t, in, sel.Instances[0])
	assert.Nil(t, sel.Instance)
}

func TestScenarioLasso(t *testing.T) {
	c, _ := newTestCanvas(t, 0)
	s := drawShape(c, 10, 10, 200, 10, 200, 200, 50, 90, 90, 50)
	c.Deselect()

	// corners reversed on purpose
	c.SetLasso(&geometry.Box{Min: geometry.Point{X: 100, Y: 100}, Max: geometry.Point{X: 0, Y: 0}})

	sel := c.Selected()
	require.Len(t, sel.Points, 3)
	for _, i := range []int{0, 3, 4} {
		assert.True(t, sel.HasPoint(s.Points[i]), "point %d", i)
	}
	assert.False(t, sel.HasPoint(&geometry.Point{X: 10, Y: 10}), "selection is by identity")
	assert.Equal(t, StatePoints, c.State())
	require.NotNil(t, c.Lasso())
	assert.Equal(t, geometry.Point{X: 0, Y: 0}, c.Lasso().Min)
}

func TestLassoDegenerateAndNil(t *testing.T) {
	c, rec := newTestCanvas(t, 0)
	s := square(c, 0, 0, 10)
	c.SelectShape(s)

	rec.Reset()
	c.SetLasso(nil)
	assert.Nil(t, c.Lasso())
	assert.Equal(t, []event.Topic{event.Lasso}, rec.Events)
	assert.Len(t, c.Selected().Points, 4, "hiding the lasso keeps the selection")

	c.SetLasso(&geometry.Box{Min: geometry.Point{X: 0, Y: 0}, Max: geometry.Point{X: 0, Y: 50}})
	assert.Empty(t, c.Selected().Points)
	assert.Equal(t, StateNormal, c.State())
}

func TestScenarioRemoveLastViablePoint(t *testing.T) {
	c, rec := newTestCanvas(t, 0)
	s := drawShape(c, 0, 0, 10, 0, 10, 10)
	c.SelectPoints([]*geometry.Point{s.Points[0]})
	require.Equal(t, StatePoints, c.State())
	rec.Reset()

	c.RemovePoints([]*geometry.Point{s.Points[0]})

	assert.Empty(t, c.Frame().Shapes)
	assert.Contains(t, rec.Events, event.Points|event.Shapes)
	assert.Empty(t, c.Selected().Points)
	assert.Equal(t, StateNormal, c.State())
	assert.Nil(t, c.Document().FrameAt(0))
}

func TestRemovePointsReselectsSurvivor(t *testing.T) {
	c, _ := newTestCanvas(t, 0)
	s := drawShape(c, 0, 0, 10, 0, 20, 5, 10, 10, 0, 10)
	drop := []*geometry.Point{s.Points[1], s.Points[2]}
	c.SelectPoints(drop)

	c.RemovePoints(drop)

	require.Len(t, s.Points, 3)
	assert.Same(t, s, c.Selected().Shape)
	assert.Equal(t, StateShapes, c.State())
}

func TestRemovePointsWholeAndPartial(t *testing.T) {
	c, _ := newTestCanvas(t, 0)
	whole := square(c, 0, 0, 10)
	partial := drawShape(c, 100, 100, 150, 100, 150, 150, 100, 150)
	keep := square(c, 300, 300, 10)

	points := append([]*geometry.Point{}, whole.Points...)
	points = append(points, partial.Points[0])
	c.SelectPoints(points)
	require.Len(t, c.Selected().WholeShapes, 1)
	require.Len(t, c.Selected().PartialShapes, 1)

	c.RemovePoints(points)

	assert.Equal(t, []*document.Shape{partial, keep}, c.Frame().Shapes)
	assert.Len(t, partial.Points, 3)
	assert.Empty(t, c.Selected().Points, "no reselect when a whole shape was involved")
}

func TestThreePointFloor(t *testing.T) {
	c, _ := newTestCanvas(t, 0)
	for n := 1; n <= 5; n++ {
		s := drawShape(c, 0, 0, 10, 0, 20, 5, 10, 10, 0, 10)
		c.SelectPoints(s.Points[:n])
		c.RemovePoints(s.Points[:n])
		for _, shape := range c.Frame().Shapes {
			assert.GreaterOrEqual(t, len(shape.Points), 3)
		}
	}
}

func TestRemoveShapeShrinksSelection(t *testing.T) {
	c, _ := newTestCanvas(t, 0)
	a := square(c, 0, 0, 10)
	b := square(c, 50, 50, 10)
	c.SelectShapes([]*document.Shape{a, b})

	c.RemoveShape(a)

	assert.Equal(t, []*document.Shape{b}, c.Frame().Shapes)
	assert.Same(t, b, c.Selected().Shape)
}

func TestRemoveSelectedShapes(t *testing.T) {
	c, _ := newTestCanvas(t, 0)
	a := square(c, 0, 0, 10)
	b := square(c, 50, 50, 10)
	c.SelectShapes([]*document.Shape{a, b})

	c.RemoveSelectedShapes()
	assert.Empty(t, c.Frame().Shapes)
	assert.Equal(t, StateNormal, c.State())
}

func TestRemovingLastMemberPrunesInstance(t *testing.T) {
	c, rec := newTestCanvas(t, 0)
	a := square(c, 0, 0, 10)
	in := c.FormInstance([]*document.Shape{a})
	rec.Reset()

	c.RemoveShape(a)
	assert.Nil(t, c.Document().Instance(in.ID))
	assert.True(t, rec.Union().Has(event.Instances))
}

func TestToggleShape(t *testing.T) {
	c, _ := newTestCanvas(t, 0)
	a := square(c, 0, 0, 10)
	b := square(c, 50, 50, 10)
	c.SelectShape(a)

	c.ToggleShape(b)
	assert.Len(t, c.Selected().WholeShapes, 2)

	c.ToggleShape(a)
	assert.Same(t, b, c.Selected().Shape)
}

func TestExpandSelection(t *testing.T) {
	c, _ := newTestCanvas(t, 0)
	a := square(c, 0, 0, 10)
	b := square(c, 50, 50, 10)
	c.SelectPoints([]*geometry.Point{a.Points[0], b.Points[2]})
	require.Equal(t, StatePoints, c.State())

	c.ExpandSelection()
	assert.Len(t, c.Selected().WholeShapes, 2)
	assert.Equal(t, StateShapes, c.State())
}

func TestSelectInstance(t *testing.T) {
	c, _ := newTestCanvas(t, 0)
	a := square(c, 0, 0, 10)
	square(c, 20, 20, 10)
	b := square(c, 50, 50, 10)
	in := c.FormInstance([]*document.Shape{a, b})
	c.Deselect()

	c.SelectInstance(in.ID)
	assert.ElementsMatch(t, []*document.Shape{a, b}, c.Selected().WholeShapes)
	assert.Same(t, in, c.Selected().Instance)
}

func TestSelectPointsIgnoresForeignPoints(t *testing.T) {
	c, _ := newTestCanvas(t, 0)
	a := square(c, 0, 0, 10)
	c.SelectPoints([]*geometry.Point{{X: 1, Y: 1}, a.Points[0], a.Points[0]})
	assert.Equal(t, []*geometry.Point{a.Points[0]}, c.Selected().Points)
}

func TestSelectionConsistency(t *testing.T) {
	c, _ := newTestCanvas(t, 0)
	a := drawShape(c, 0, 0, 10, 0, 10, 10)
	b := square(c, 50, 50, 10)
	all := append(append([]*geometry.Point{}, a.Points...), b.Points...)

	for mask := 0; mask < 1<<len(all); mask++ {
		var pick []*geometry.Point
		for i, p := range all {
			if mask&(1<<i) != 0 {
				pick = append(pick, p)
			}
		}
		c.SelectPoints(pick)
		sel := c.Selected()

		for _, p := range sel.Points {
			_, ok := c.Ref(p)
			assert.True(t, ok)
		}
		for _, s := range sel.WholeShapes {
			assert.NotContains(t, sel.PartialShapes, s)
		}
		assert.LessOrEqual(t, len(sel.WholeShapes)+len(sel.PartialShapes), 2)
		assert.NotPanics(t, func() { c.State() })
	}
}

func TestStatePanicsOnForeignSelection(t *testing.T) {
	c, _ := newTestCanvas(t, 0)
	square(c, 0, 0, 10)
	c.setSelectedPoints([]*geometry.Point{{X: 1, Y: 1}})
	assert.Panics(t, func() { c.State() })
}

func TestSetFrame(t *testing.T) {
	c, rec := newTestCanvas(t, 0)
	start := c.Frame()

	// empty frame to empty frame is relabelled in place
	c.SetFrame(1)
	assert.Same(t, start, c.Frame())
	assert.Equal(t, 1, c.FrameNumber())
	assert.Empty(t, rec.Events)

	s := square(c, 0, 0, 10)
	require.Same(t, c.Frame(), c.Document().FrameAt(1))

	rec.Reset()
	c.SetFrame(2)
	assert.Contains(t, rec.Events, event.Frame)
	assert.Empty(t, c.Selected().Points, "selection never crosses frames")

	c.SetFrame(3)
	c.SetFrame(1)
	assert.Equal(t, []*document.Shape{s}, c.Frame().Shapes)
	require.Len(t, c.Document().Frames, 1)

	rec.Reset()
	c.SetFrame(1)
	assert.Empty(t, rec.Events, "same frame is a no-op")
}

func TestFramePruning(t *testing.T) {
	c, _ := newTestCanvas(t, 0)
	for _, f := range []int{4, 9, 2, 9, 7, 0, 11} {
		c.SetFrame(f)
		if f%2 == 0 {
			square(c, 0, 0, 10)
		}
		for _, stored := range c.Document().Frames {
			assert.NotEmpty(t, stored.Shapes, "frame %d stored empty", stored.Frame)
		}
	}

	c.SetFrame(4)
	c.SelectShapes(c.Frame().Shapes)
	c.RemoveSelectedShapes()
	assert.Nil(t, c.Document().FrameAt(4))
}

func TestCopyLast(t *testing.T) {
	c, _ := newTestCanvas(t, 0)
	a := square(c, 0, 0, 10)
	b := square(c, 20, 0, 10)
	plain := square(c, 40, 0, 10)
	d := square(c, 60, 0, 10)
	x := c.FormInstance([]*document.Shape{a, b})
	c.SetInstanceClass(x, "car")
	y := c.FormInstance([]*document.Shape{d})
	c.StartShape()
	c.AppendDrawPoint(geometry.Point{X: 1, Y: 1})

	c.SetFrame(5)
	c.CopyLast()

	copies := c.Frame().Shapes
	require.Len(t, copies, 4, "wip shapes are not copied")
	assert.Len(t, c.Document().Instances, 4)

	ca, cb, cplain, cd := copies[0], copies[1], copies[2], copies[3]
	require.NotNil(t, ca.InstanceID)
	require.NotNil(t, cb.InstanceID)
	require.NotNil(t, cd.InstanceID)
	assert.Nil(t, cplain.InstanceID)
	assert.Equal(t, *ca.InstanceID, *cb.InstanceID, "one new instance per source instance")
	assert.NotEqual(t, x.ID, *ca.InstanceID)
	assert.NotEqual(t, y.ID, *cd.InstanceID)
	assert.NotEqual(t, *ca.InstanceID, *cd.InstanceID)

	newX := c.Document().Instance(*ca.InstanceID)
	require.NotNil(t, newX.Class)
	assert.Equal(t, "car", *newX.Class)
	assert.Nil(t, c.Document().Instance(*cd.InstanceID).Class)

	assert.Equal(t, plain.ObjectID, cplain.ObjectID)
	assert.Equal(t, *a.Points[0], *ca.Points[0])
	assert.NotSame(t, a.Points[0], ca.Points[0])
	assert.Len(t, c.Selected().WholeShapes, 4)
	assert.Equal(t, StateShapes, c.State())
}

func TestCopyLastWithoutPriorFrame(t *testing.T) {
	c, rec := newTestCanvas(t, 10)
	c.CopyLast()
	assert.Empty(t, rec.Events)

	square(c, 0, 0, 10)
	rec.Reset()
	c.CopyLast()
	assert.Empty(t, rec.Events, "the active frame itself is not a source")
}

func TestBreakInstance(t *testing.T) {
	c, _ := newTestCanvas(t, 0)
	a := square(c, 0, 0, 10)
	b := square(c, 50, 50, 10)
	other := square(c, 100, 100, 10)
	in := c.FormInstance([]*document.Shape{a, b})
	c.SelectShape(other)

	c.BreakInstance([]*document.Shape{a})

	assert.Nil(t, a.InstanceID)
	assert.Nil(t, b.InstanceID)
	assert.Nil(t, c.Document().Instance(in.ID))
	assert.ElementsMatch(t, []*document.Shape{a, b}, c.Selected().WholeShapes)
}

func TestSetInstanceClass(t *testing.T) {
	c, rec := newTestCanvas(t, 0)
	c.SetInstanceClass(nil, "car")
	assert.Empty(t, rec.Events)

	a := square(c, 0, 0, 10)
	in := c.FormInstance([]*document.Shape{a})
	c.SetInstanceClass(in, "boat")
	require.NotNil(t, in.Class)
	assert.Equal(t, "boat", *in.Class)

	c.SetInstanceClass(in, "")
	assert.Nil(t, in.Class)
}

func TestInstanceOutline(t *testing.T) {
	c, _ := newTestCanvas(t, 0)
	a := square(c, 0, 0, 10)
	b := square(c, 5, 0, 10)
	in := c.FormInstance([]*document.Shape{a, b})

	wkt, err := c.InstanceOutline(in.ID)
	require.NoError(t, err)
	assert.Contains(t, wkt, "POLYGON")

	_, err = c.InstanceOutline(12345)
	assert.ErrorIs(t, err, geometry.ErrDegeneratePolygon)
}

func TestAssignObject(t *testing.T) {
	c, _ := newTestCanvas(t, 0)
	c.Document().Objects = append(c.Document().Objects, &document.Object{ID: 500, Title: "Car"})
	a := square(c, 0, 0, 10)

	assert.False(t, c.AssignObject(999))
	assert.True(t, c.AssignObject(500))
	assert.Equal(t, 500, a.ObjectID)
}

func TestInsertPointKeepsWholeSelection(t *testing.T) {
	c, _ := newTestCanvas(t, 0)
	s := square(c, 0, 0, 100)

	p := c.InsertPoint(s, s.Points[0], geometry.Point{X: 50, Y: 0})
	require.NotNil(t, p)
	require.Len(t, s.Points, 5)
	assert.Same(t, p, s.Points[1])
	assert.Same(t, s, c.Selected().Shape)

	assert.Nil(t, c.InsertPoint(s, &geometry.Point{}, geometry.Point{}))
}

func TestMovePoints(t *testing.T) {
	c, rec := newTestCanvas(t, 0)
	s := square(c, 0, 0, 10)
	rec.Reset()

	c.MovePoints(s.Points[:2], 5, -5)
	assert.Equal(t, geometry.Point{X: 5, Y: -5}, *s.Points[0])
	assert.Equal(t, geometry.Point{X: 10, Y: 10}, *s.Points[2])
	assert.Equal(t, []event.Topic{event.Points}, rec.Events)
}

func TestImplicitPoints(t *testing.T) {
	c, _ := newTestCanvas(t, 0)
	s := square(c, 0, 0, 100)

	c.SetMouse(geometry.Point{X: 50, Y: 3})
	imp := c.ImplicitPoints()
	require.Len(t, imp.Points, 1)
	assert.Equal(t, geometry.Point{X: 50, Y: 0}, imp.Points[0].Coords)
	assert.Same(t, s.Points[0], imp.Points[0].After)
	assert.Equal(t, 0, imp.Points[0].AfterIndex)
	require.NotNil(t, imp.Object)
	assert.Equal(t, document.UnassignedObjectID, imp.Object.ID)

	// memoized until the mouse moves
	assert.Same(t, imp, c.ImplicitPoints())

	c.SetMouse(geometry.Point{X: 75, Y: 50})
	imp = c.ImplicitPoints()
	require.Len(t, imp.Points, 1)
	assert.Equal(t, geometry.Point{X: 100, Y: 50}, imp.Points[0].Coords)
	assert.Equal(t, 1, imp.Points[0].AfterIndex)

	c.SetMouse(geometry.Point{X: 500, Y: 500})
	assert.Empty(t, c.ImplicitPoints().Points)

	c.Deselect()
	c.SetMouse(geometry.Point{X: 50, Y: 3})
	assert.Empty(t, c.ImplicitPoints().Points)
}

func TestImplicitPointsFollowZoom(t *testing.T) {
	c, _ := newTestCanvas(t, 0)
	tri := drawShape(c, 0, 0, 25, 0, 0, 25)
	c.SetMouse(geometry.Point{X: 12.5, Y: 0})
	assert.Empty(t, c.ImplicitPoints().Points, "edges shorter than the far distance")

	c.SetScale(2)
	imp := c.ImplicitPoints()
	require.NotEmpty(t, imp.Points)
	assert.Same(t, tri, imp.Shape)
	require.Len(t, imp.Points, 1)
	assert.Equal(t, geometry.Point{X: 12.5, Y: 0}, imp.Points[0].Coords)
}

func TestImplicitPointsIgnoreViewportFit(t *testing.T) {
	c, _ := newTestCanvas(t, 0)
	c.SetVideo(2000, 2000)
	require.Equal(t, 2.0, c.Projection().Factor)
	require.Equal(t, 1.0, c.Scale())

	drawShape(c, 0, 0, 600, 0, 600, 600, 0, 600)
	c.SetMouse(geometry.Point{X: 300, Y: 60})
	assert.Empty(t, c.ImplicitPoints().Points, "60 video px is beyond the far distance")

	c.SetMouse(geometry.Point{X: 300, Y: 30})
	imp := c.ImplicitPoints()
	require.Len(t, imp.Points, 1)
	assert.Equal(t, geometry.Point{X: 300, Y: 0}, imp.Points[0].Coords)
}

func TestToolOverride(t *testing.T) {
	c, rec := newTestCanvas(t, 0)
	assert.Equal(t, ToolSelect, c.Tool())

	c.SetToolOverride(ToolPan)
	assert.Equal(t, ToolPan, c.Tool())
	c.SetToolOverride(ToolPan)
	assert.Len(t, rec.Events, 1)

	c.SetToolOverride("")
	assert.Equal(t, ToolSelect, c.Tool())
}

func TestProjectionSettersEmit(t *testing.T) {
	c, rec := newTestCanvas(t, 0)
	c.SetScale(2)
	c.SetPan(geometry.Point{X: 10})
	c.ZoomAt(1.5, geometry.Point{X: 100, Y: 100})
	assert.Equal(t, []event.Topic{event.Projection, event.Projection, event.Projection}, rec.Events)

	c.ResetViewport()
	assert.Equal(t, 1.0, c.Scale())
	assert.Equal(t, geometry.Point{}, c.Pan())
}

func TestSetVideo(t *testing.T) {
	c, rec := newTestCanvas(t, 0)
	c.SetVideo(2000, 1000)

	assert.Equal(t, 2000.0, c.Document().Video.Width)
	assert.Equal(t, 2.0, c.Projection().Factor)
	assert.Equal(t, []event.Topic{event.Projection}, rec.Events)
}

func TestIDsAreUnique(t *testing.T) {
	c, _ := newTestCanvas(t, 0)
	a := square(c, 0, 0, 10)
	b := square(c, 20, 20, 10)
	c.FormInstance([]*document.Shape{a, b})
	c.SelectShape(a)
	c.DuplicateSelected(5)
	c.SetFrame(1)
	c.CopyLast()

	seen := map[int]bool{}
	last := -1
	check := func(id int) {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	for _, f := range c.Document().Frames {
		for _, s := range f.Shapes {
			check(s.ID)
			last = max(last, s.ID)
		}
	}
	for _, in := range c.Document().Instances {
		check(in.ID)
		last = max(last, in.ID)
	}
	assert.Less(t, last, c.Document().SeqID)
}

func TestSnapshot(t *testing.T) {
	c, _ := newTestCanvas(t, 7)
	s := square(c, 0, 0, 10)
	in := c.FormInstance([]*document.Shape{s})
	c.SelectShape(s)

	snap := c.Snapshot()
	assert.Equal(t, 7, snap.Frame)
	assert.Equal(t, "shapes", snap.State)
	require.NotNil(t, snap.Selected.Shape)
	assert.Equal(t, s.ID, *snap.Selected.Shape)
	require.NotNil(t, snap.Selected.Instance)
	assert.Equal(t, in.ID, *snap.Selected.Instance)
	assert.Len(t, snap.Selected.Points, 4)
	assert.Len(t, snap.Projection.Matrix, 6)

	raw, err := c.SnapshotJSON()
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Equal(t, "select", decoded["tool"])
	assert.Equal(t, "freeform", decoded["instanceMode"])
}

func TestRefResolve(t *testing.T) {
	c, _ := newTestCanvas(t, 0)
	s := square(c, 0, 0, 10)

	ref, ok := c.Ref(s.Points[2])
	require.True(t, ok)
	assert.Equal(t, PointRef{ShapeID: s.ID, Index: 2}, ref)
	assert.Same(t, s.Points[2], c.Resolve(ref))
	assert.Nil(t, c.Resolve(PointRef{ShapeID: s.ID, Index: 9}))
	assert.Nil(t, c.Resolve(PointRef{ShapeID: -5}))
}
