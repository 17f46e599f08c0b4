package upload

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rpattn/btlportal/internal/domain"

	"github.com/google/uuid"
)

func multipartUpload(t *testing.T, fileName string, contents []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("excelFile", fileName)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(contents); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func newTestHandler(t *testing.T, refs *stubRefRepo, events *stubExecRepo, logs *stubLogRepo) (http.Handler, string) {
	t.Helper()
	publicDir := t.TempDir()
	uploadDir := t.TempDir()
	service := NewService(refs, events, logs)
	return NewHTTPHandler(service, logs, publicDir, uploadDir), publicDir
}

func TestUploadEndToEndSuccess(t *testing.T) {
	refs := newStubRefRepo()
	events := &stubExecRepo{}
	logs := &stubLogRepo{}
	handler, publicDir := newTestHandler(t, refs, events, logs)

	data := buildWorkbook(t,
		standardHeaders,
		[]any{"Karnataka", "South", "Dealer A", "SAP001", "Glow Sign Board", "Sqft", "Backlit", "2025-06-20"},
		[]any{"Kerala", "South", "Dealer B", "SAP002", "Wall Painting", "Sqft", "", "2025-06-21"},
		[]any{"Punjab", "North", "Dealer C", "SAP003", "Glow Sign Board", "Sqft", "Acrylic", "2025-06-22"},
	)
	body, contentType := multipartUpload(t, "events.xlsx", data)

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.Message != "File uploaded and all data inserted successfully." {
		t.Fatalf("unexpected message: %s", response.Message)
	}
	if !strings.HasPrefix(response.DownloadURL, "/downloads/annotated_") {
		t.Fatalf("unexpected download url: %s", response.DownloadURL)
	}
	if len(events.inserted) != 3 {
		t.Fatalf("expected 3 committed records, got %d", len(events.inserted))
	}

	reportPath := filepath.Join(publicDir, filepath.FromSlash(strings.TrimPrefix(response.DownloadURL, "/")))
	reportBytes, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("annotated report not published: %v", err)
	}
	rows := readSheet(t, reportBytes, AnnotatedSheetName)
	if len(rows) != 4 {
		t.Fatalf("expected header + 3 entries, got %d", len(rows))
	}
	errorCol := len(standardHeaders)
	for _, row := range rows[1:] {
		if errorCol < len(row) && strings.TrimSpace(row[errorCol]) != "" {
			t.Fatalf("expected empty Error column in report, got %q", row[errorCol])
		}
	}
}

func TestUploadValidationFailureReturnsAnnotatedReport(t *testing.T) {
	refs := newStubRefRepo()
	events := &stubExecRepo{}
	logs := &stubLogRepo{}
	handler, publicDir := newTestHandler(t, refs, events, logs)

	data := buildWorkbook(t,
		standardHeaders,
		[]any{"Karnataka", "South", "Dealer A", "SAP001", "Glow Sign Board", "Meter", "", "2025-06-20"},
	)
	body, contentType := multipartUpload(t, "events.xlsx", data)

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}

	var response uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.Message != "Validation failed" {
		t.Fatalf("unexpected message: %s", response.Message)
	}
	if len(response.Errors) != 1 || !strings.Contains(response.Errors[0], "Invalid UOM 'Meter'") {
		t.Fatalf("unexpected errors: %v", response.Errors)
	}
	if response.DownloadURL == "" {
		t.Fatalf("validation failure must still expose the annotated report")
	}
	if len(events.inserted) != 0 {
		t.Fatalf("expected zero inserts, got %d", len(events.inserted))
	}
	if _, err := os.Stat(filepath.Join(publicDir, filepath.FromSlash(strings.TrimPrefix(response.DownloadURL, "/")))); err != nil {
		t.Fatalf("annotated report missing: %v", err)
	}
}

func TestUploadRejectsNonExcelExtension(t *testing.T) {
	handler, _ := newTestHandler(t, newStubRefRepo(), &stubExecRepo{}, &stubLogRepo{})

	body, contentType := multipartUpload(t, "events.csv", []byte("State,Zone\n"))
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Only Excel files") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestUploadStructuralFailureHasNoDownload(t *testing.T) {
	handler, _ := newTestHandler(t, newStubRefRepo(), &stubExecRepo{}, &stubLogRepo{})

	data := buildWorkbook(t, []any{"State"})
	body, contentType := multipartUpload(t, "events.xlsx", data)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var response uploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.Message != "Uploaded Excel file is empty or invalid." {
		t.Fatalf("unexpected message: %s", response.Message)
	}
	if response.DownloadURL != "" {
		t.Fatalf("structural failure must not produce a report, got %s", response.DownloadURL)
	}
}

func TestUploadInfrastructureFailureIsGeneric(t *testing.T) {
	refs := newStubRefRepo()
	refs.failWith = os.ErrDeadlineExceeded
	handler, _ := newTestHandler(t, refs, &stubExecRepo{}, &stubLogRepo{})

	data := buildWorkbook(t,
		standardHeaders,
		[]any{"Karnataka", "South", "Dealer A", "SAP001", "Glow Sign Board", "Sqft", "", "2025-06-20"},
	)
	body, contentType := multipartUpload(t, "events.xlsx", data)
	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Error processing the file.") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "deadline") {
		t.Fatalf("internal detail leaked to caller: %s", rec.Body.String())
	}
}

func TestUploadLogsEndpoint(t *testing.T) {
	logs := &stubLogRepo{}
	handler, _ := newTestHandler(t, newStubRefRepo(), &stubExecRepo{}, logs)

	rowNumber := 3
	logs.entries = append(logs.entries, domain.UploadLogEntry{
		BatchID:      uuid.New(),
		FileName:     "events.xlsx",
		RowNumber:    &rowNumber,
		ErrorMessage: "Invalid Element 'Bogus'",
	})

	req := httptest.NewRequest(http.MethodGet, "/upload/logs", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid Element 'Bogus'") {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}
