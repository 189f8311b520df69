// Package api serves the edited document over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/vannot/vannot/internal/canvas"
	"github.com/vannot/vannot/internal/document"
	"github.com/vannot/vannot/internal/geometry"
	"github.com/vannot/vannot/internal/session"
)

const maxDocumentSize = 32 << 20

// Session is the part of session.Hub the handlers use.
type Session interface {
	Document(ctx context.Context) ([]byte, error)
	Replace(ctx context.Context, doc *document.Document) error
	Save(ctx context.Context) (*session.SaveResult, error)
	Changes(ctx context.Context) (*session.Changes, error)
	Exec(ctx context.Context, fn func(c *canvas.Canvas) error) error
}

type Handler struct {
	session Session
}

func NewHandler(s Session) *Handler {
	return &Handler{session: s}
}

// Register mounts the document routes on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/document", h.GetDocument).Methods("GET", "OPTIONS")
	r.HandleFunc("/document", h.PutDocument).Methods("PUT", "OPTIONS")
	r.HandleFunc("/document/save", h.Save).Methods("POST", "OPTIONS")
	r.HandleFunc("/document/changes", h.Changes).Methods("GET", "OPTIONS")
	r.HandleFunc("/canvas", h.Canvas).Methods("GET", "OPTIONS")
	r.HandleFunc("/instances/{instanceId}/outline", h.Outline).Methods("GET", "OPTIONS")
}

func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	data, err := h.session.Document(r.Context())
	if err != nil {
		handleSessionError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *Handler) PutDocument(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxDocumentSize))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "request too large"})
		return
	}
	doc, err := document.Parse(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid document"})
		return
	}

	if err := h.session.Replace(r.Context(), doc); err != nil {
		handleSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	res, err := h.session.Save(r.Context())
	if err != nil {
		handleSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) Changes(w http.ResponseWriter, r *http.Request) {
	res, err := h.session.Changes(r.Context())
	if err != nil {
		handleSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Canvas returns the current render snapshot, for renderers that poll.
func (h *Handler) Canvas(w http.ResponseWriter, r *http.Request) {
	var data []byte
	err := h.session.Exec(r.Context(), func(c *canvas.Canvas) error {
		var err error
		// marshal here: the snapshot shares shapes with the live document
		data, err = json.Marshal(c.Snapshot())
		return err
	})
	if err != nil {
		handleSessionError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

type outlineResponse struct {
	InstanceID int     `json:"instanceId"`
	Frame      int     `json:"frame"`
	WKT        string  `json:"wkt"`
	Area       float64 `json:"area"`
}

// Outline returns the merged outline of an instance on the active frame.
func (h *Handler) Outline(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["instanceId"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid instance id"})
		return
	}

	var resp outlineResponse
	err = h.session.Exec(r.Context(), func(c *canvas.Canvas) error {
		shapes := c.ShapesInInstance(id)
		if len(shapes) == 0 {
			return errNoInstance
		}
		wkt, err := c.InstanceOutline(id)
		if err != nil {
			return err
		}
		var area float64
		for _, s := range shapes {
			area += geometry.Area(s.Points)
		}
		resp = outlineResponse{InstanceID: id, Frame: c.FrameNumber(), WKT: wkt, Area: area}
		return nil
	})
	if err != nil {
		handleSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

var errNoInstance = errors.New("instance has no shapes on this frame")

func handleSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errNoInstance):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, geometry.ErrDegeneratePolygon):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	case errors.Is(err, session.ErrNoStore):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "no store configured"})
	case errors.Is(err, session.ErrStopped):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "session stopped"})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "request cancelled"})
	default:
		slog.Error("document request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
