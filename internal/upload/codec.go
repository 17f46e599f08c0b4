package upload

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rpattn/btlportal/internal/domain"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned when an uploaded file is not an Excel workbook.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Table holds the parsed first sheet of an upload: header labels in original
// order plus data rows padded to header width.
type Table struct {
	Headers []string
	Rows    [][]string
}

// RowMap returns row i keyed by header label.
func (t Table) RowMap(i int) map[string]string {
	values := make(map[string]string, len(t.Headers))
	for col, header := range t.Headers {
		if col < len(t.Rows[i]) {
			values[header] = t.Rows[i][col]
		} else {
			values[header] = ""
		}
	}
	return values
}

// CheckExtension validates the upload file name before any parsing happens.
func CheckExtension(fileName string) error {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xls":
		return nil
	default:
		return fmt.Errorf("%w: only .xlsx and .xls files are allowed", ErrUnsupportedFormat)
	}
}

// ParseWorkbook reads the first sheet of an Excel workbook. The first
// non-empty row becomes the header; fully empty rows are dropped. A workbook
// with no data rows yields an empty table, not an error, so the orchestrator
// can report it as an empty batch.
func ParseWorkbook(r io.Reader) (Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return Table{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Table{}, nil
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return Table{}, fmt.Errorf("failed to read rows from workbook: %w", err)
	}

	var headers []string
	var rows [][]string
	for _, record := range records {
		if isEmptyRow(record) {
			continue
		}
		if headers == nil {
			headers = make([]string, len(record))
			for i, cell := range record {
				headers[i] = strings.TrimSpace(cell)
			}
			continue
		}
		rows = append(rows, padRow(record, len(headers)))
	}

	if headers == nil {
		return Table{}, nil
	}

	return Table{Headers: headers, Rows: rows}, nil
}

// AnnotatedSheetName is the single sheet of the report workbook.
const AnnotatedSheetName = "Annotated"

// SerializeAnnotated builds the downloadable report: the original table plus
// Error and Suggestion columns, one entry per input row in original order.
func SerializeAnnotated(table Table, verdicts []domain.RowVerdict) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", AnnotatedSheetName); err != nil {
		return nil, fmt.Errorf("failed to name annotated sheet: %w", err)
	}

	header := make([]any, 0, len(table.Headers)+2)
	for _, h := range table.Headers {
		header = append(header, h)
	}
	header = append(header, "Error", "Suggestion")
	if err := f.SetSheetRow(AnnotatedSheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write annotated header: %w", err)
	}

	for i, row := range table.Rows {
		cells := make([]any, 0, len(table.Headers)+2)
		for col := range table.Headers {
			if col < len(row) {
				cells = append(cells, row[col])
			} else {
				cells = append(cells, "")
			}
		}
		var errText, suggestion string
		if i < len(verdicts) {
			errText = verdicts[i].Error
			suggestion = verdicts[i].Suggestion
		}
		cells = append(cells, errText, suggestion)

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to compute cell name: %w", err)
		}
		if err := f.SetSheetRow(AnnotatedSheetName, cell, &cells); err != nil {
			return nil, fmt.Errorf("failed to write annotated row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize annotated workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func padRow(row []string, length int) []string {
	if len(row) >= length {
		return row[:length]
	}
	padded := make([]string, length)
	copy(padded, row)
	return padded
}
