package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rpattn/btlportal/internal/domain"
	"github.com/rpattn/btlportal/internal/repository"

	"github.com/google/uuid"
)

// Service runs the upload pipeline: parse, validate every row, then either
// commit the whole batch or annotate it with per-row errors. Any rejected row
// blocks the entire commit; there is no partial insert.
type Service struct {
	refs      repository.ReferenceRepository
	events    repository.ExecutionRepository
	logs      repository.UploadLogRepository
	validator *RowValidator
}

// NewService creates a new upload service.
func NewService(
	refs repository.ReferenceRepository,
	events repository.ExecutionRepository,
	logs repository.UploadLogRepository,
) *Service {
	return &Service{
		refs:      refs,
		events:    events,
		logs:      logs,
		validator: NewRowValidator(refs),
	}
}

// Request describes one upload.
type Request struct {
	FileName string
	Data     io.Reader
}

// Result reports the batch outcome. Committed false with a nil Annotated means
// the batch failed structurally before any row was read.
type Result struct {
	BatchID       uuid.UUID `json:"batchId"`
	Message       string    `json:"message"`
	Errors        []string  `json:"errors,omitempty"`
	TotalRows     int       `json:"totalRows"`
	CommittedRows int       `json:"committedRows"`
	RejectedRows  int       `json:"rejectedRows"`
	Committed     bool      `json:"committed"`
	Annotated     []byte    `json:"-"`
}

const (
	msgEmptyUpload      = "Uploaded Excel file is empty or invalid."
	msgValidationFailed = "Validation failed"
	msgUploadSucceeded  = "File uploaded and all data inserted successfully."
)

// Process runs one upload end to end. Validation and structural failures are
// reported inside the Result; the returned error is reserved for
// infrastructure faults (store unreachable, report serialization).
func (s *Service) Process(ctx context.Context, req Request) (Result, error) {
	result := Result{BatchID: uuid.New()}

	if req.Data == nil {
		return result, errors.New("data reader is required")
	}

	table, err := ParseWorkbook(req.Data)
	if err != nil {
		// Unreadable workbooks get the same client-facing outcome as empty ones.
		result.Message = msgEmptyUpload
		return result, nil
	}

	if len(table.Rows) == 0 {
		result.Message = msgEmptyUpload
		return result, nil
	}

	if missing := missingColumns(table.Headers); len(missing) > 0 {
		result.Message = fmt.Sprintf("Missing required columns: %s", strings.Join(missing, ", "))
		return result, nil
	}

	result.TotalRows = len(table.Rows)

	accepted := make([]domain.ExecutionEvent, 0, len(table.Rows))
	verdicts := make([]domain.RowVerdict, 0, len(table.Rows))

	for i := range table.Rows {
		rowNumber := i + 2 // header occupies spreadsheet row 1
		verdict, err := s.validator.Validate(ctx, table.RowMap(i), rowNumber)
		if err != nil {
			return result, fmt.Errorf("row %d: %w", rowNumber, err)
		}
		verdicts = append(verdicts, verdict)

		if verdict.Error != "" {
			result.RejectedRows++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %s", rowNumber, verdict.Error))
			s.logRowError(ctx, result.BatchID, req.FileName, rowNumber, verdict.Error)
			continue
		}
		accepted = append(accepted, *verdict.Event)
	}

	annotated, err := SerializeAnnotated(withNormalizedDates(table, verdicts), verdicts)
	if err != nil {
		return result, fmt.Errorf("failed to build annotated report: %w", err)
	}
	result.Annotated = annotated

	if result.RejectedRows > 0 {
		result.Message = msgValidationFailed
		return result, nil
	}

	committed, err := s.events.InsertAll(ctx, accepted)
	if err != nil {
		return result, fmt.Errorf("failed to insert execution events: %w", err)
	}
	result.CommittedRows = committed
	result.Committed = true
	result.Message = msgUploadSucceeded
	return result, nil
}

func missingColumns(headers []string) []string {
	present := make(map[string]bool, len(headers))
	for _, header := range headers {
		present[header] = true
	}
	var missing []string
	for _, required := range RequiredColumns {
		if !present[required] {
			missing = append(missing, required)
		}
	}
	return missing
}

// withNormalizedDates rewrites the Date of Execution column so the annotated
// report shows canonical dates wherever one was derivable.
func withNormalizedDates(table Table, verdicts []domain.RowVerdict) Table {
	dateCol := -1
	for i, header := range table.Headers {
		if header == ColumnDateOfExecution {
			dateCol = i
			break
		}
	}
	if dateCol < 0 {
		return table
	}

	rows := make([][]string, len(table.Rows))
	for i, row := range table.Rows {
		copied := append([]string(nil), row...)
		if i < len(verdicts) && verdicts[i].NormalizedDate != "" && dateCol < len(copied) {
			copied[dateCol] = verdicts[i].NormalizedDate
		}
		rows[i] = copied
	}
	return Table{Headers: table.Headers, Rows: rows}
}

func (s *Service) logRowError(ctx context.Context, batchID uuid.UUID, fileName string, rowNumber int, message string) {
	if s.logs == nil {
		return
	}
	entry := domain.UploadLogEntry{
		BatchID:      batchID,
		FileName:     fileName,
		RowNumber:    &rowNumber,
		ErrorMessage: message,
	}
	_ = s.logs.Record(ctx, entry)
}
