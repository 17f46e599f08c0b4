package upload

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rpattn/btlportal/internal/domain"
	"github.com/rpattn/btlportal/internal/repository"
)

// Column labels expected in the upload header.
const (
	ColumnState           = "State"
	ColumnZone            = "Zone"
	ColumnDealerName      = "Dealer Name"
	ColumnDealerSAPCode   = "Dealer SAP Code"
	ColumnElement         = "Element"
	ColumnUOM             = "UOM"
	ColumnAttribute       = "Attribute"
	ColumnDateOfExecution = "Date of Execution"
)

// RequiredColumns lists every header an upload must carry.
var RequiredColumns = []string{
	ColumnState,
	ColumnZone,
	ColumnDealerName,
	ColumnDealerSAPCode,
	ColumnElement,
	ColumnUOM,
	ColumnAttribute,
	ColumnDateOfExecution,
}

// RowValidator runs the per-row validation chain: Element, then Attribute
// (only when present), then UOM. The first failing check decides the verdict
// and later checks are skipped.
type RowValidator struct {
	refs repository.ReferenceRepository
}

// NewRowValidator creates a validator over the given reference store.
func NewRowValidator(refs repository.ReferenceRepository) *RowValidator {
	return &RowValidator{refs: refs}
}

// rowState is the accumulating partial result each check stage advances.
type rowState struct {
	row           map[string]string
	elementName   string
	attributeName string
	uom           string
	element       domain.ReferenceElement
	attributeID   *int64
	verdict       domain.RowVerdict
}

// checkStage advances the state or terminates the row with a verdict error.
// The returned error is reserved for infrastructure faults.
type checkStage func(ctx context.Context, state *rowState) (rejected bool, err error)

// Validate produces the verdict for one row. Business-rule failures land in
// the verdict; only infrastructure failures come back as an error.
func (v *RowValidator) Validate(ctx context.Context, row map[string]string, rowNumber int) (domain.RowVerdict, error) {
	state := &rowState{
		row:           row,
		elementName:   strings.TrimSpace(row[ColumnElement]),
		attributeName: strings.TrimSpace(row[ColumnAttribute]),
		uom:           strings.TrimSpace(row[ColumnUOM]),
		verdict: domain.RowVerdict{
			RowNumber:      rowNumber,
			NormalizedDate: NormalizeDate(row[ColumnDateOfExecution]),
		},
	}

	stages := []checkStage{
		v.checkElement,
		v.checkAttribute,
		v.checkUOM,
	}
	for _, stage := range stages {
		rejected, err := stage(ctx, state)
		if err != nil {
			return domain.RowVerdict{}, err
		}
		if rejected {
			return state.verdict, nil
		}
	}

	state.verdict.Event = &domain.ExecutionEvent{
		State:           row[ColumnState],
		Zone:            row[ColumnZone],
		DealerName:      row[ColumnDealerName],
		DealerSAPCode:   row[ColumnDealerSAPCode],
		ElementID:       state.element.ID,
		AttributeID:     state.attributeID,
		UOM:             state.uom,
		DateOfExecution: state.verdict.NormalizedDate,
	}
	return state.verdict, nil
}

func (v *RowValidator) checkElement(ctx context.Context, state *rowState) (bool, error) {
	element, err := v.refs.ResolveElement(ctx, state.elementName)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			state.verdict.Error = fmt.Sprintf("Invalid Element '%s'", state.elementName)
			state.verdict.Suggestion = fmt.Sprintf("Ensure '%s' exists in Elements table", state.elementName)
			return true, nil
		}
		return false, err
	}
	state.element = element
	return false, nil
}

func (v *RowValidator) checkAttribute(ctx context.Context, state *rowState) (bool, error) {
	// Attribute is optional; a blank cell means no lookup and a null id.
	if state.attributeName == "" {
		return false, nil
	}

	attribute, err := v.refs.ResolveAttribute(ctx, state.attributeName, state.element.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			state.verdict.Error = fmt.Sprintf("Invalid Attribute '%s' for '%s'", state.attributeName, state.element.Name)
			state.verdict.Suggestion = fmt.Sprintf("Ensure Attribute '%s' is mapped to Element '%s' in Attributes table", state.attributeName, state.element.Name)
			return true, nil
		}
		return false, err
	}
	state.attributeID = &attribute.ID
	return false, nil
}

func (v *RowValidator) checkUOM(ctx context.Context, state *rowState) (bool, error) {
	expected := "Unknown"
	canonical, err := v.refs.ResolveUOM(ctx, state.element.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}
	if err == nil {
		expected = canonical.UOM
	}

	if err != nil || state.uom != canonical.UOM {
		state.verdict.Error = fmt.Sprintf("Invalid UOM '%s' for '%s'", state.uom, state.element.Name)
		state.verdict.Suggestion = fmt.Sprintf("Expected '%s'", expected)
		return true, nil
	}
	return false, nil
}
