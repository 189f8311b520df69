package document

import (
	"github.com/vannot/vannot/internal/geometry"
)

// UnassignedObjectID is the id of the system object every new shape starts on.
const UnassignedObjectID = -1

type InstanceMode string

const (
	InstanceModeFreeform InstanceMode = "freeform"
	InstanceModePreset   InstanceMode = "preset"
	InstanceModeNone     InstanceMode = "none"
)

// Document is the persisted annotation data for one video.
type Document struct {
	SeqID           int             `json:"_seqId"`
	Video           Video           `json:"video"`
	Objects         []*Object       `json:"objects"`
	Frames          []*Frame        `json:"frames"`
	Instances       []*Instance     `json:"instances"`
	InstanceClasses []InstanceClass `json:"instanceClasses"`
	Labels          []*Label        `json:"labels"`
	App             *App            `json:"app,omitempty"`
	SaveURL         string          `json:"saveUrl,omitempty"`
}

type Video struct {
	Duration int     `json:"duration"`
	FPS      float64 `json:"fps"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Source   string  `json:"source"`
}

// Object is a track: a named, colored category that shapes belong to.
type Object struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Color  string `json:"color"`
	System bool   `json:"system,omitempty"`
}

type Frame struct {
	Frame  int      `json:"frame"`
	Shapes []*Shape `json:"shapes"`
}

type Shape struct {
	ID         int               `json:"id"`
	ObjectID   int               `json:"objectId"`
	Points     []*geometry.Point `json:"points"`
	InstanceID *int              `json:"instanceId,omitempty"`
	WIP        bool              `json:"wip,omitempty"`
}

type Instance struct {
	ID    int     `json:"id"`
	Class *string `json:"class,omitempty"`
}

type InstanceClass struct {
	ID    string `json:"id"`
	Color string `json:"color,omitempty"`
}

// Label marks time ranges of the video, each segment being [start, end]
// frame numbers.
type Label struct {
	ID       int      `json:"id"`
	Title    string   `json:"title"`
	Segments [][2]int `json:"segments"`
}

type App struct {
	Title        string       `json:"title,omitempty"`
	Favicon      string       `json:"favicon,omitempty"`
	InstanceMode InstanceMode `json:"instanceMode,omitempty"`
}

// AllocateID returns the next id in the document-wide sequence shared by
// shapes, instances and objects.
func (d *Document) AllocateID() int {
	id := d.SeqID
	d.SeqID++
	return id
}

// Mode reports how instances may be formed. An explicit app setting wins;
// otherwise documents that ship instance classes use presets.
func (d *Document) Mode() InstanceMode {
	if d.App != nil && d.App.InstanceMode != "" {
		return d.App.InstanceMode
	}
	if len(d.InstanceClasses) > 0 {
		return InstanceModePreset
	}
	return InstanceModeFreeform
}

// FrameAt returns the stored entry for frame, or nil.
func (d *Document) FrameAt(frame int) *Frame {
	for _, f := range d.Frames {
		if f.Frame == frame {
			return f
		}
	}
	return nil
}

// PrevFrame returns the closest non-empty frame strictly before frame.
// Frames are not assumed to be sorted.
func (d *Document) PrevFrame(frame int) *Frame {
	var best *Frame
	for _, f := range d.Frames {
		if f.Frame < frame && len(f.Shapes) > 0 && (best == nil || f.Frame > best.Frame) {
			best = f
		}
	}
	return best
}

// NextFrame returns the closest non-empty frame strictly after frame.
func (d *Document) NextFrame(frame int) *Frame {
	var best *Frame
	for _, f := range d.Frames {
		if f.Frame > frame && len(f.Shapes) > 0 && (best == nil || f.Frame < best.Frame) {
			best = f
		}
	}
	return best
}

// AddFrame appends f to the store.
func (d *Document) AddFrame(f *Frame) {
	d.Frames = append(d.Frames, f)
}

// RemoveFrame splices f out of the store by identity.
func (d *Document) RemoveFrame(f *Frame) {
	for i, x := range d.Frames {
		if x == f {
			d.Frames = append(d.Frames[:i], d.Frames[i+1:]...)
			return
		}
	}
}

func (d *Document) Instance(id int) *Instance {
	for _, in := range d.Instances {
		if in.ID == id {
			return in
		}
	}
	return nil
}

// RemoveInstance drops the instance record with the given id.
func (d *Document) RemoveInstance(id int) {
	for i, in := range d.Instances {
		if in.ID == id {
			d.Instances = append(d.Instances[:i], d.Instances[i+1:]...)
			return
		}
	}
}

func (d *Document) Object(id int) *Object {
	for _, o := range d.Objects {
		if o.ID == id {
			return o
		}
	}
	return nil
}

// InstanceRefs counts shapes across every frame that reference instance id.
func (d *Document) InstanceRefs(id int) int {
	n := 0
	for _, f := range d.Frames {
		for _, s := range f.Shapes {
			if s.InstanceID != nil && *s.InstanceID == id {
				n++
			}
		}
	}
	return n
}

// PruneInstances removes instance records no shape references anymore.
// It reports whether anything was removed.
func (d *Document) PruneInstances() bool {
	live := make(map[int]bool)
	for _, f := range d.Frames {
		for _, s := range f.Shapes {
			if s.InstanceID != nil {
				live[*s.InstanceID] = true
			}
		}
	}
	kept := d.Instances[:0]
	for _, in := range d.Instances {
		if live[in.ID] {
			kept = append(kept, in)
		}
	}
	removed := len(kept) != len(d.Instances)
	clear(d.Instances[len(kept):])
	d.Instances = kept
	return removed
}

// Normalize fills required fields and drops empty frames. It mutates d and
// returns it for chaining.
func (d *Document) Normalize() *Document {
	if d.Objects == nil {
		d.Objects = []*Object{}
	}
	if d.Object(UnassignedObjectID) == nil {
		unassigned := &Object{ID: UnassignedObjectID, Title: "Unassigned", Color: "#aaa", System: true}
		d.Objects = append([]*Object{unassigned}, d.Objects...)
	}
	if d.Frames == nil {
		d.Frames = []*Frame{}
	}
	if d.Instances == nil {
		d.Instances = []*Instance{}
	}
	if d.InstanceClasses == nil {
		d.InstanceClasses = []InstanceClass{}
	}
	if d.Labels == nil {
		d.Labels = []*Label{}
	}

	frames := d.Frames[:0]
	for _, f := range d.Frames {
		if len(f.Shapes) > 0 {
			frames = append(frames, f)
		}
	}
	clear(d.Frames[len(frames):])
	d.Frames = frames

	d.PruneInstances()
	d.bumpSeq()
	return d
}

// bumpSeq moves the sequence past every id already in use.
func (d *Document) bumpSeq() {
	next := d.SeqID
	see := func(id int) {
		if id >= next {
			next = id + 1
		}
	}
	for _, o := range d.Objects {
		see(o.ID)
	}
	for _, in := range d.Instances {
		see(in.ID)
	}
	for _, l := range d.Labels {
		see(l.ID)
	}
	for _, f := range d.Frames {
		for _, s := range f.Shapes {
			see(s.ID)
		}
	}
	d.SeqID = next
}

// NewEmptyDocument creates a normalized document for a video with no
// annotations yet.
func NewEmptyDocument(video Video) *Document {
	return (&Document{Video: video}).Normalize()
}
