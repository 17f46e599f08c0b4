package upload

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rpattn/btlportal/internal/repository"
)

// downloadRetention bounds how long annotated reports stay on disk.
const downloadRetention = 24 * time.Hour

// Handler exposes the upload pipeline as HTTP endpoints.
type Handler struct {
	service   *Service
	logs      repository.UploadLogRepository
	publicDir string
	uploadDir string
}

// NewHTTPHandler wraps the service with the upload and log endpoints.
func NewHTTPHandler(service *Service, logs repository.UploadLogRepository, publicDir, uploadDir string) http.Handler {
	return &Handler{
		service:   service,
		logs:      logs,
		publicDir: publicDir,
		uploadDir: uploadDir,
	}
}

type uploadResponse struct {
	Message     string   `json:"message"`
	Errors      []string `json:"errors,omitempty"`
	DownloadURL string   `json:"downloadUrl,omitempty"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost:
		h.handleUpload(w, r)
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/logs"):
		h.handleListLogs(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, uploadResponse{Message: fmt.Sprintf("invalid form data: %v", err)})
		return
	}

	file, header, err := r.FormFile("excelFile")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, uploadResponse{Message: "excelFile field is required"})
		return
	}
	defer file.Close()

	if err := CheckExtension(header.Filename); err != nil {
		writeJSON(w, http.StatusBadRequest, uploadResponse{Message: "Only Excel files (.xlsx, .xls) are allowed"})
		return
	}

	tempPath, err := h.saveTemp(file, header.Filename)
	if err != nil {
		log.Printf("[upload] failed to stage upload %s: %v", header.Filename, err)
		writeJSON(w, http.StatusInternalServerError, uploadResponse{Message: "Error processing the file."})
		return
	}
	// The staged copy is always removed, whatever the outcome.
	defer func() { _ = os.Remove(tempPath) }()

	staged, err := os.Open(tempPath)
	if err != nil {
		log.Printf("[upload] failed to reopen staged upload %s: %v", tempPath, err)
		writeJSON(w, http.StatusInternalServerError, uploadResponse{Message: "Error processing the file."})
		return
	}
	defer staged.Close()

	result, err := h.service.Process(r.Context(), Request{FileName: header.Filename, Data: staged})
	if err != nil {
		log.Printf("[upload] batch %s failed: %v", result.BatchID, err)
		writeJSON(w, http.StatusInternalServerError, uploadResponse{Message: "Error processing the file."})
		return
	}

	response := uploadResponse{
		Message: result.Message,
		Errors:  result.Errors,
	}

	if len(result.Annotated) > 0 {
		downloadURL, err := h.publishAnnotated(result.Annotated)
		if err != nil {
			log.Printf("[upload] batch %s: failed to publish annotated report: %v", result.BatchID, err)
			writeJSON(w, http.StatusInternalServerError, uploadResponse{Message: "Error processing the file."})
			return
		}
		response.DownloadURL = downloadURL
	}

	status := http.StatusBadRequest
	if result.Committed {
		status = http.StatusOK
	}
	log.Printf("[upload] batch %s file=%s rows=%d committed=%d rejected=%d",
		result.BatchID, header.Filename, result.TotalRows, result.CommittedRows, result.RejectedRows)
	writeJSON(w, status, response)
}

func (h *Handler) handleListLogs(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, err := h.logs.ListRecent(r.Context(), limit, offset)
	if err != nil {
		log.Printf("[upload] failed to list logs: %v", err)
		writeJSON(w, http.StatusInternalServerError, uploadResponse{Message: "Error listing upload logs."})
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// saveTemp stages the upload on disk so the pipeline reads a stable copy.
func (h *Handler) saveTemp(file io.Reader, fileName string) (string, error) {
	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}
	temp, err := os.CreateTemp(h.uploadDir, "upload-*"+strings.ToLower(filepath.Ext(fileName)))
	if err != nil {
		return "", fmt.Errorf("failed to create temp upload: %w", err)
	}
	defer temp.Close()

	if _, err := io.Copy(temp, file); err != nil {
		_ = os.Remove(temp.Name())
		return "", fmt.Errorf("failed to write temp upload: %w", err)
	}
	return temp.Name(), nil
}

// publishAnnotated writes the report under the public downloads directory with
// a timestamp-based name and returns its URL path.
func (h *Handler) publishAnnotated(annotated []byte) (string, error) {
	downloadsDir := filepath.Join(h.publicDir, "downloads")
	if err := os.MkdirAll(downloadsDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create downloads directory: %w", err)
	}

	name := fmt.Sprintf("annotated_%d.xlsx", time.Now().UnixNano())
	if err := os.WriteFile(filepath.Join(downloadsDir, name), annotated, 0o644); err != nil {
		return "", fmt.Errorf("failed to write annotated report: %w", err)
	}

	pruneDownloads(downloadsDir)

	return "/downloads/" + name, nil
}

// pruneDownloads drops reports older than the retention window. Best effort.
func pruneDownloads(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	cutoff := time.Now().Add(-downloadRetention)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(dir, entry.Name()))
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
