package asset

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
)

const maxUploadSize = 20 << 20 // 20MB

// FramesDir is the asset subdirectory holding captured frame images.
const FramesDir = "frames"

// UploadResponse is returned from the frame capture endpoint.
type UploadResponse struct {
	Frame  int    `json:"frame"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Handler serves the video sources and captured frame images.
type Handler struct {
	dir string // directory holding videos and the frames subdirectory
}

// NewHandler creates a new asset handler rooted at dir.
func NewHandler(dir string) *Handler {
	if err := os.MkdirAll(filepath.Join(dir, FramesDir), 0755); err != nil {
		slog.Error("create asset dir", "error", err, "dir", dir)
	}
	return &Handler{dir: dir}
}

// FramePath is where the image of frame is stored.
func (h *Handler) FramePath(frame int) string {
	return filepath.Join(h.dir, FramesDir, FrameFilename(frame))
}

func FrameFilename(frame int) string {
	return fmt.Sprintf("frame_%06d.png", frame)
}

// UploadFrame handles POST /frames/{frame}/image: a PNG or JPEG capture of
// one video frame, as the raw body or a multipart "file" field. It is stored
// as PNG.
func (h *Handler) UploadFrame(w http.ResponseWriter, r *http.Request) {
	frame, err := strconv.Atoi(mux.Vars(r)["frame"])
	if err != nil || frame < 0 {
		http.Error(w, "invalid frame", http.StatusBadRequest)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	src := r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			http.Error(w, "file too large (max 20MB)", http.StatusBadRequest)
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "missing file field", http.StatusBadRequest)
			return
		}
		defer file.Close()
		src = file
	}

	img, _, err := image.Decode(src)
	if err != nil {
		http.Error(w, "invalid image: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.writeFrame(frame, img); err != nil {
		slog.Error("store frame image", "error", err, "frame", frame)
		http.Error(w, "failed to save file", http.StatusInternalServerError)
		return
	}

	bounds := img.Bounds()
	resp := UploadResponse{
		Frame:  frame,
		URL:    "/assets/" + FramesDir + "/" + FrameFilename(frame),
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// writeFrame encodes to a temporary file first so readers never see a
// partial image.
func (h *Handler) writeFrame(frame int, img image.Image) error {
	final := h.FramePath(frame)
	tmp, err := os.CreateTemp(filepath.Dir(final), ".upload-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return fmt.Errorf("encode png: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), final)
}

// Serve returns an http.Handler that serves videos and frame images,
// honoring range requests for video seeking.
func (h *Handler) Serve() http.Handler {
	fs := http.FileServer(http.Dir(h.dir))
	return http.StripPrefix("/assets/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// frames are rewritten on recapture
		if strings.HasPrefix(r.URL.Path, FramesDir+"/") {
			w.Header().Set("Cache-Control", "no-cache")
		} else {
			w.Header().Set("Cache-Control", "public, max-age=3600")
		}
		fs.ServeHTTP(w, r)
	}))
}

var ErrOutsideAssets = errors.New("source outside asset directory")

// Resolve maps a document video source to something ffmpeg can open: remote
// URLs pass through, anything else must name a file under the asset dir.
func (h *Handler) Resolve(source string) (string, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return source, nil
	}
	name := strings.TrimPrefix(source, "/assets/")
	if !filepath.IsLocal(name) {
		return "", fmt.Errorf("%w: %q", ErrOutsideAssets, source)
	}
	return filepath.Join(h.dir, name), nil
}
