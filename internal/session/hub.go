// Package session serves one annotation document to connected renderers.
// A single goroutine owns the canvas; every input, command and HTTP request
// against the document is funneled through it.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/vannot/vannot/internal/canvas"
	"github.com/vannot/vannot/internal/document"
	"github.com/vannot/vannot/internal/event"
	"github.com/vannot/vannot/internal/geometry"
	"github.com/vannot/vannot/internal/input"
	"github.com/vannot/vannot/internal/store"
	"github.com/vannot/vannot/internal/typeid"
)

var (
	ErrStopped = errors.New("session stopped")
	ErrNoStore = errors.New("session has no store")
)

const (
	shutdownSaveTimeout = 10 * time.Second
	saveTimeout         = 10 * time.Second
)

type Options struct {
	Store      store.Store
	DocumentID string
	// Autosave, when positive, saves edited documents on that period.
	Autosave time.Duration
	Logger   *slog.Logger
}

type inbound struct {
	client *Client
	msg    *Message
}

type job struct {
	fn   func() error
	done chan error
}

// SaveResult describes a completed save.
type SaveResult struct {
	Snapshot *store.Snapshot `json:"snapshot"`
	// NewFrames are the frames annotated since the previous save; their
	// images still need to be captured.
	NewFrames []int `json:"newFrames"`
}

type Changes struct {
	Changed   bool  `json:"changed"`
	NewFrames []int `json:"newFrames"`
}

type Hub struct {
	id         string
	log        *slog.Logger
	store      store.Store
	documentID string
	autosave   time.Duration

	// owned by the Run goroutine
	canvas     *canvas.Canvas
	input      *input.Dispatcher
	batch      *event.Batch
	bus        *event.Bus
	checkpoint *store.Checkpoint
	edited     bool
	space      bool
	seq        int64
	clients    map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	inbound    chan inbound
	jobs       chan job

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewHub creates a session editing doc. Call Run to start it.
func NewHub(doc *document.Document, opts Options) (*Hub, error) {
	h := &Hub{
		id:         typeid.NewSessionID(),
		log:        opts.Logger,
		store:      opts.Store,
		documentID: opts.DocumentID,
		autosave:   opts.Autosave,
		batch:      event.NewBatch(),
		bus:        event.NewBus(),
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		inbound:    make(chan inbound),
		jobs:       make(chan job),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	if h.log == nil {
		h.log = slog.Default()
	}
	h.log = h.log.With("session", h.id)

	h.bus.Subscribe(event.Shapes|event.Points|event.Instances, func(event.Topic) {
		h.edited = true
	})
	if err := h.load(doc); err != nil {
		return nil, err
	}
	return h, nil
}

func (h *Hub) ID() string {
	return h.id
}

// load swaps in a new document, resetting all view state.
func (h *Hub) load(doc *document.Document) error {
	c := canvas.New(doc, event.Multi{h.batch, h.bus}, 0)
	d, err := input.New(c, input.WithLogger(h.log))
	if err != nil {
		return fmt.Errorf("create dispatcher: %w", err)
	}
	cp, err := store.NewCheckpoint(doc)
	if err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	h.canvas, h.input, h.checkpoint = c, d, cp
	h.edited = false
	h.space = false
	h.batch.Emit(event.All)
	return nil
}

// Run processes events until ctx is done or Stop is called, then saves the
// document one last time.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	var tick <-chan time.Time
	if h.autosave > 0 && h.store != nil {
		t := time.NewTicker(h.autosave)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		case in := <-h.inbound:
			h.handleMessage(in.client, in.msg)
		case j := <-h.jobs:
			j.done <- j.fn()
		case <-h.batch.Ready:
			h.flush()
		case <-tick:
			h.autosaveNow(ctx)
		case <-h.stop:
			h.shutdown()
			return
		case <-ctx.Done():
			h.shutdown()
			return
		}
	}
}

// Stop ends Run and waits for the final save.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
	<-h.done
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownSaveTimeout)
	defer cancel()
	h.autosaveNow(ctx)

	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) deliver(c *Client, msg *Message) bool {
	select {
	case h.inbound <- inbound{client: c, msg: msg}:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) addClient(c *Client) {
	h.clients[c] = struct{}{}
	if msg, err := newMessage(TypeWelcome, 0, WelcomePayload{SessionID: h.id, ClientID: c.ID}); err == nil {
		c.Send(msg)
	}
	if msg := h.stateMessage(event.All); msg != nil {
		c.Send(msg)
	}
	h.log.Info("client joined", "client", c.ID, "clients", len(h.clients))
}

func (h *Hub) removeClient(c *Client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	h.log.Info("client left", "client", c.ID, "clients", len(h.clients))
}

func (h *Hub) broadcast(msg *Message) {
	for c := range h.clients {
		c.Send(msg)
	}
}

// flush sends one state message for everything marked since the last one.
func (h *Hub) flush() {
	dirty := h.batch.Flush()
	if dirty == 0 || len(h.clients) == 0 {
		return
	}
	if msg := h.stateMessage(dirty); msg != nil {
		h.broadcast(msg)
	}
}

func (h *Hub) stateMessage(dirty event.Set) *Message {
	h.seq++
	msg, err := newMessage(TypeState, h.seq, StatePayload{
		Dirty:    dirty.Names(),
		Snapshot: h.canvas.Snapshot(),
	})
	if err != nil {
		h.log.Error("marshal state", "error", err)
		return nil
	}
	return msg
}

func (h *Hub) sendError(c *Client, seq int64, err error) {
	msg, merr := newMessage(TypeError, seq, ErrorPayload{Message: err.Error()})
	if merr != nil {
		return
	}
	c.Send(msg)
}

func (h *Hub) handleMessage(sender *Client, msg *Message) {
	if err := h.apply(msg); err != nil {
		h.log.Warn("message rejected", "type", msg.Type, "client", sender.ID, "error", err)
		h.sendError(sender, msg.Seq, err)
	}
}

// apply runs one renderer message against the canvas.
func (h *Hub) apply(msg *Message) error {
	switch msg.Type {
	case TypePointerDown, TypePointerMove, TypePointerUp:
		var p PointerPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("invalid pointer payload: %w", err)
		}
		target, err := input.Resolve(h.canvas, p.Target)
		if err != nil {
			// the renderer may be a frame behind while moving
			if msg.Type != TypePointerMove {
				return err
			}
			target = input.Target{Kind: input.TargetBackground}
		}
		h.setSpace(p.Modifiers.Space)
		e := input.Event{
			Target:    target,
			Modifiers: input.Modifiers{Shift: p.Modifiers.Shift, Ctrl: p.Modifiers.Ctrl, Alt: p.Modifiers.Alt},
			Screen:    geometry.Point{X: p.X, Y: p.Y},
		}
		switch msg.Type {
		case TypePointerDown:
			h.input.PointerDown(e)
		case TypePointerMove:
			h.input.PointerMove(e)
		default:
			h.input.PointerUp(e)
		}

	case TypeWheel:
		var p WheelPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("invalid wheel payload: %w", err)
		}
		h.input.Wheel(p.DeltaY, geometry.Point{X: p.X, Y: p.Y})

	case TypeKey:
		var p KeyPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("invalid key payload: %w", err)
		}
		if p.Key == "space" {
			h.setSpace(p.Down)
		}

	case TypeCommand:
		var p CommandPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return fmt.Errorf("invalid command payload: %w", err)
		}
		return h.runCommand(p.Name, p.Args)

	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
	return nil
}

func (h *Hub) setSpace(held bool) {
	if held == h.space {
		return
	}
	h.space = held
	h.input.SetSpace(held)
}

// --- Requests from other goroutines ---

func (h *Hub) do(ctx context.Context, fn func() error) error {
	j := job{fn: fn, done: make(chan error, 1)}
	select {
	case h.jobs <- j:
	case <-h.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Exec runs fn on the session goroutine. fn must not retain c.
func (h *Hub) Exec(ctx context.Context, fn func(c *canvas.Canvas) error) error {
	return h.do(ctx, func() error { return fn(h.canvas) })
}

// Document returns the normalized document as JSON.
func (h *Hub) Document(ctx context.Context) ([]byte, error) {
	var out []byte
	err := h.do(ctx, func() error {
		clean, err := h.canvas.Document().Clone()
		if err != nil {
			return err
		}
		out, err = json.Marshal(clean.Normalize())
		return err
	})
	return out, err
}

// Replace swaps the edited document for doc. Unsaved edits are lost.
func (h *Hub) Replace(ctx context.Context, doc *document.Document) error {
	return h.do(ctx, func() error {
		if err := h.load(doc); err != nil {
			return err
		}
		h.log.Info("document replaced")
		return nil
	})
}

// Changes reports what a save would write.
func (h *Hub) Changes(ctx context.Context) (*Changes, error) {
	var out *Changes
	err := h.do(ctx, func() error {
		changed, err := h.checkpoint.Changed(h.canvas.Document())
		if err != nil {
			return err
		}
		out = &Changes{Changed: changed, NewFrames: h.checkpoint.NewFrames(h.canvas.Document())}
		return nil
	})
	return out, err
}

// Save stores the document now.
func (h *Hub) Save(ctx context.Context) (*SaveResult, error) {
	var out *SaveResult
	err := h.do(ctx, func() error {
		var err error
		out, err = h.save(ctx)
		return err
	})
	return out, err
}

func (h *Hub) save(ctx context.Context) (*SaveResult, error) {
	if h.store == nil {
		return nil, ErrNoStore
	}
	doc := h.canvas.Document()
	frames := h.checkpoint.NewFrames(doc)

	snap, err := store.Save(ctx, h.store, h.documentID, doc)
	if err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}
	if err := h.checkpoint.Reset(doc); err != nil {
		return nil, err
	}
	h.edited = false
	h.log.Info("document saved", "document", h.documentID, "version", snap.Version, "newFrames", len(frames))

	if msg, err := newMessage(TypeSaved, 0, SavedPayload{Version: snap.Version, NewFrames: frames}); err == nil {
		h.broadcast(msg)
	}
	return &SaveResult{Snapshot: snap, NewFrames: frames}, nil
}

func (h *Hub) autosaveNow(ctx context.Context) {
	if !h.edited || h.store == nil {
		return
	}
	changed, err := h.checkpoint.Changed(h.canvas.Document())
	if err != nil {
		h.log.Error("autosave diff", "error", err)
		return
	}
	if !changed {
		h.edited = false
		return
	}
	if _, err := h.save(ctx); err != nil {
		h.log.Error("autosave", "error", err)
	}
}
