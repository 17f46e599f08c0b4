package domain

// ExecutionEvent is one validated dealer marketing execution row, ready for
// insertion. Built only from rows that passed every validation stage.
type ExecutionEvent struct {
	State           string `json:"state"`
	Zone            string `json:"zone"`
	DealerName      string `json:"dealer_name"`
	DealerSAPCode   string `json:"dealer_sap_code"`
	ElementID       int64  `json:"element_id"`
	AttributeID     *int64 `json:"attribute_id,omitempty"`
	UOM             string `json:"uom"`
	DateOfExecution string `json:"date_of_execution"`
}

// RowVerdict is the outcome of validating one spreadsheet row. Error empty
// means the row is insertable and Event is populated; otherwise Error holds
// the first failing check's message and Event is nil.
type RowVerdict struct {
	RowNumber  int    `json:"row_number"`
	Error      string `json:"error,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
	// NormalizedDate is derived for every row, pass or fail, so the annotated
	// report always shows a canonical date where one is derivable.
	NormalizedDate string `json:"normalized_date,omitempty"`
	Event          *ExecutionEvent
}
