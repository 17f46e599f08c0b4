package domain

import "errors"

// ErrNotFound signals that a reference lookup matched no row. It is a normal
// lookup outcome, interpreted by the row validator as a validation failure,
// never as an infrastructure fault.
var ErrNotFound = errors.New("not found")

// ReferenceElement is a marketing-execution category, matched by exact name.
type ReferenceElement struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ReferenceAttribute is an optional sub-classification scoped to one element.
// The same attribute name may exist under different elements as distinct rows.
type ReferenceAttribute struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ElementID int64  `json:"element_id"`
}

// ReferenceUOM is the canonical unit of measure for one element. Reference
// data carries at most one row per element.
type ReferenceUOM struct {
	ElementID int64  `json:"element_id"`
	UOM       string `json:"uom"`
}
