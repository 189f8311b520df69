package document

import "github.com/vannot/vannot/internal/geometry"

func poly(coords ...float64) []*geometry.Point {
	out := make([]*geometry.Point, 0, len(coords)/2)
	for i := 0; i+1 < len(coords); i += 2 {
		out = append(out, &geometry.Point{X: coords[i], Y: coords[i+1]})
	}
	return out
}

// NewSampleDocument returns a small annotated document used to seed a fresh
// store: two buoys tracked across a few frames of a sailing clip.
func NewSampleDocument(source string) *Document {
	doc := &Document{
		Video: Video{
			Duration: 900,
			FPS:      30,
			Width:    1280,
			Height:   720,
			Source:   source,
		},
		App: &App{Title: "vannot"},
	}

	port := &Object{ID: doc.AllocateID(), Title: "Port buoy", Color: "#d62728"}
	starboard := &Object{ID: doc.AllocateID(), Title: "Starboard buoy", Color: "#2ca02c"}
	hull := &Object{ID: doc.AllocateID(), Title: "Hull", Color: "#1f77b4"}
	doc.Objects = []*Object{port, starboard, hull}

	boat := &Instance{ID: doc.AllocateID()}
	doc.Instances = []*Instance{boat}

	for i, frame := range []int{0, 15, 30} {
		dx := float64(i) * 12
		doc.Frames = append(doc.Frames, &Frame{
			Frame: frame,
			Shapes: []*Shape{
				{ID: doc.AllocateID(), ObjectID: port.ID, Points: poly(200+dx, 400, 230+dx, 400, 230+dx, 440, 200+dx, 440)},
				{ID: doc.AllocateID(), ObjectID: starboard.ID, Points: poly(900-dx, 380, 925-dx, 380, 912-dx, 415)},
				{ID: doc.AllocateID(), ObjectID: hull.ID, InstanceID: &boat.ID, Points: poly(520+dx, 300, 700+dx, 300, 680+dx, 360, 540+dx, 360)},
			},
		})
	}

	doc.Labels = []*Label{
		{ID: doc.AllocateID(), Title: "Rounding mark", Segments: [][2]int{{0, 45}, {300, 360}}},
	}

	return doc.Normalize()
}
