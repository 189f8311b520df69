package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/vannot/vannot/internal/asset"
	"github.com/vannot/vannot/internal/document"
	"github.com/vannot/vannot/internal/session"
)

const maxRequestSize = 1 << 20 // 1MB

// Session is the part of the editing session the exporter reads.
type Session interface {
	Document(ctx context.Context) ([]byte, error)
	Changes(ctx context.Context) (*session.Changes, error)
}

type Handler struct {
	ffmpegPath string
	session    Session
	assets     *asset.Handler
}

func NewHandler(ffmpegPath string, sess Session, assets *asset.Handler) *Handler {
	return &Handler{ffmpegPath: ffmpegPath, session: sess, assets: assets}
}

type exportRequest struct {
	Frames []int `json:"frames"`
}

type Frame struct {
	Frame int    `json:"frame"`
	URL   string `json:"url"`
}

type exportResponse struct {
	Frames []Frame `json:"frames"`
}

// ExportFrames handles POST /export/frames. It extracts a PNG of each
// requested frame from the document's video source. With no frames in the
// body it extracts the frames annotated since the last save.
func (h *Handler) ExportFrames(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestSize)

	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	for _, f := range req.Frames {
		if f < 0 {
			http.Error(w, "invalid frame: "+strconv.Itoa(f), http.StatusBadRequest)
			return
		}
	}

	ctx := r.Context()
	if len(req.Frames) == 0 {
		changes, err := h.session.Changes(ctx)
		if err != nil {
			slog.Error("read session changes", "error", err)
			http.Error(w, "session unavailable", http.StatusServiceUnavailable)
			return
		}
		req.Frames = changes.NewFrames
	}

	data, err := h.session.Document(ctx)
	if err != nil {
		slog.Error("read session document", "error", err)
		http.Error(w, "session unavailable", http.StatusServiceUnavailable)
		return
	}
	doc, err := document.Parse(data)
	if err != nil {
		slog.Error("parse session document", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if doc.Video.Source == "" || doc.Video.FPS <= 0 {
		http.Error(w, "document has no video source", http.StatusUnprocessableEntity)
		return
	}
	src, err := h.assets.Resolve(doc.Video.Source)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	slog.Info("export started", "source", doc.Video.Source, "frames", len(req.Frames))

	resp := exportResponse{Frames: make([]Frame, 0, len(req.Frames))}
	for _, frame := range req.Frames {
		if err := h.extract(ctx, src, doc.Video.FPS, frame); err != nil {
			slog.Error("ffmpeg failed", "error", err, "frame", frame)
			http.Error(w, fmt.Sprintf("extracting frame %d failed: %v", frame, err), http.StatusInternalServerError)
			return
		}
		resp.Frames = append(resp.Frames, Frame{
			Frame: frame,
			URL:   "/assets/" + asset.FramesDir + "/" + asset.FrameFilename(frame),
		})
	}

	slog.Info("export complete", "frames", len(resp.Frames))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// extract writes a single frame next to its final path, then moves it in
// place.
func (h *Handler) extract(ctx context.Context, src string, fps float64, frame int) error {
	final := h.assets.FramePath(frame)
	tmp := filepath.Join(filepath.Dir(final), ".export-"+asset.FrameFilename(frame))
	defer os.Remove(tmp)

	if err := h.runFfmpeg(ctx, frameArgs(src, fps, frame, tmp)...); err != nil {
		return err
	}
	return os.Rename(tmp, final)
}

// frameArgs seeks to the frame's timestamp before opening the input so ffmpeg
// only decodes from the nearest keyframe.
func frameArgs(src string, fps float64, frame int, out string) []string {
	return []string{
		"-ss", strconv.FormatFloat(float64(frame)/fps, 'f', 6, 64),
		"-i", src,
		"-frames:v", "1",
		"-f", "image2",
		"-c:v", "png",
		out,
	}
}

func (h *Handler) runFfmpeg(ctx context.Context, args ...string) error {
	// -y overwrites output without prompting
	fullArgs := append([]string{"-y", "-loglevel", "error"}, args...)
	cmd := exec.CommandContext(ctx, h.ffmpegPath, fullArgs...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%v: %s", err, stderr.String())
	}
	return nil
}
