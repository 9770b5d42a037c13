package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"github.com/ragchat/ragchat/internal/document"
	"github.com/ragchat/ragchat/internal/log"
)

// MaxUploadSize caps the accepted upload body.
const MaxUploadSize = 50 << 20 // 50 MiB

// Ingestor processes a saved upload into stored chunks.
type Ingestor interface {
	Ingest(ctx context.Context, path string, meta document.Metadata) (int, error)
}

// UploadHandler accepts document uploads and feeds them to the ingest
// pipeline.
type UploadHandler struct {
	ingestor  Ingestor
	uploadDir string
	logger    log.Logger
}

// NewUploadHandler creates an upload handler storing files under uploadDir.
func NewUploadHandler(ingestor Ingestor, uploadDir string, logger log.Logger) *UploadHandler {
	return &UploadHandler{ingestor: ingestor, uploadDir: uploadDir, logger: logger}
}

// RegisterRoutes registers upload routes on the given mux.
func (h *UploadHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /upload", h.upload)
}

// UploadResponse is the success body for an upload.
type UploadResponse struct {
	Message string `json:"message"`
	Chunks  int    `json:"chunks"`
}

// upload saves the multipart file and ingests it. A file whose type the
// loader rejects is removed before the 400 goes out, so unsupported uploads
// leave nothing behind.
func (h *UploadHandler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form", err.Error())
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field", "")
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	if filename == "" || filename == "." || strings.ContainsAny(filename, "/\\") {
		writeError(w, http.StatusBadRequest, "invalid file name", "")
		return
	}

	meta := document.Metadata{
		FileName:  filename,
		UserID:    formValueOrDefault(r, "user_id", "unknown"),
		SessionID: formValueOrDefault(r, "session_id", "unknown"),
	}

	dst := filepath.Join(h.uploadDir, filename)
	if err := h.saveFile(file, dst); err != nil {
		h.logger.Error("failed to save upload", "file", filename, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save file", "")
		return
	}

	// A client disconnect must not abort ingestion of an already-saved file.
	ctx := context.WithoutCancel(r.Context())
	chunks, err := h.ingestor.Ingest(ctx, dst, meta)
	if err != nil {
		if errors.Is(err, document.ErrUnsupportedType) {
			if rmErr := os.Remove(dst); rmErr != nil {
				h.logger.Warn("failed to remove unsupported upload", "file", dst, "error", rmErr)
			}
			writeError(w, http.StatusBadRequest, "Unsupported file type", "only .pdf and .docx are accepted")
			return
		}
		h.logger.Error("ingest failed", "file", filename, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to process file", err.Error())
		return
	}

	h.logger.Info("upload processed", "file", filename, "chunks", chunks, "user_id", meta.UserID)
	writeJSON(w, http.StatusOK, UploadResponse{
		Message: fmt.Sprintf("Processed %d chunks from %s", chunks, filename),
		Chunks:  chunks,
	})
}

// saveFile writes the upload to dst under a file lock, so concurrent uploads
// of the same name cannot interleave writes.
func (h *UploadHandler) saveFile(src io.Reader, dst string) error {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return fmt.Errorf("creating upload dir: %w", err)
	}

	lockPath := dst + ".lock"
	lock := flock.New(lockPath)
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("locking %s: %w", dst, err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			h.logger.Warn("failed to release upload lock", "file", dst, "error", err)
			return
		}
		if err := os.Remove(lockPath); err != nil && !os.IsNotExist(err) {
			h.logger.Warn("failed to remove upload lock file", "file", lockPath, "error", err)
		}
	}()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return fmt.Errorf("writing %s: %w", dst, err)
	}
	return out.Close()
}

func formValueOrDefault(r *http.Request, key, def string) string {
	if v := r.FormValue(key); v != "" {
		return v
	}
	return def
}
