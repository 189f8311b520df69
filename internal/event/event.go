// Package event carries change notifications from the canvas view-model to
// whatever redraws it.
package event

import "strings"

// Topic names one aspect of canvas state that changed. Topics are bits so
// several can be carried in one Set.
type Topic uint16

const (
	Frame Topic = 1 << iota
	Selected
	Lasso
	Mouse
	Points
	Shapes
	Instances
	Tool
	Projection
)

// All is every topic. A redraw of All repaints everything.
const All = Frame | Selected | Lasso | Mouse | Points | Shapes | Instances | Tool | Projection

var topicNames = []struct {
	t    Topic
	name string
}{
	{Frame, "frame"},
	{Selected, "selected"},
	{Lasso, "lasso"},
	{Mouse, "mouse"},
	{Points, "points"},
	{Shapes, "shapes"},
	{Instances, "instances"},
	{Tool, "tool"},
	{Projection, "projection"},
}

// Set is a union of topics.
type Set = Topic

func (t Topic) Has(other Topic) bool {
	return t&other == other
}

// Names lists the topics in t in declaration order.
func (t Topic) Names() []string {
	var out []string
	for _, tn := range topicNames {
		if t&tn.t != 0 {
			out = append(out, tn.name)
		}
	}
	return out
}

func (t Topic) String() string {
	if t == 0 {
		return "none"
	}
	return strings.Join(t.Names(), "|")
}

// Parse maps a topic name back to its Topic.
func Parse(name string) (Topic, bool) {
	for _, tn := range topicNames {
		if tn.name == name {
			return tn.t, true
		}
	}
	return 0, false
}

// Emitter receives change notifications.
type Emitter interface {
	Emit(t Topic)
}

// Bus fans a notification out to the subscribers of each topic it carries.
// It is not safe for concurrent use; the canvas that owns it is driven from
// a single goroutine.
type Bus struct {
	subs   map[Topic][]*subscription
	nextID int
}

type subscription struct {
	id int
	fn func(Topic)
}

func NewBus() *Bus {
	return &Bus{subs: make(map[Topic][]*subscription)}
}

// Subscribe registers fn for every topic in topics. fn gets the single topic
// that fired. The returned func removes the subscription.
func (b *Bus) Subscribe(topics Topic, fn func(Topic)) (unsubscribe func()) {
	b.nextID++
	sub := &subscription{id: b.nextID, fn: fn}
	for _, tn := range topicNames {
		if topics&tn.t != 0 {
			b.subs[tn.t] = append(b.subs[tn.t], sub)
		}
	}
	return func() {
		for t, list := range b.subs {
			for i, s := range list {
				if s.id == sub.id {
					b.subs[t] = append(list[:i], list[i+1:]...)
					break
				}
			}
		}
	}
}

// Emit notifies subscribers of each topic in t.
func (b *Bus) Emit(t Topic) {
	for _, tn := range topicNames {
		if t&tn.t == 0 {
			continue
		}
		for _, s := range b.subs[tn.t] {
			s.fn(tn.t)
		}
	}
}

// Recorder is an Emitter that keeps every emission, for tests.
type Recorder struct {
	Events []Topic
}

func (r *Recorder) Emit(t Topic) {
	r.Events = append(r.Events, t)
}

// Union returns every topic recorded so far.
func (r *Recorder) Union() Set {
	var s Set
	for _, t := range r.Events {
		s |= t
	}
	return s
}

func (r *Recorder) Reset() {
	r.Events = nil
}
