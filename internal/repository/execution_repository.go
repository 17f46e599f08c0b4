package repository

import (
	"context"
	"fmt"

	"github.com/rpattn/btlportal/internal/db"
	"github.com/rpattn/btlportal/internal/domain"

	"github.com/jackc/pgx/v5"
)

type executionRepository struct {
	conn *db.Connection
}

// NewExecutionRepository wires the execution-events store.
func NewExecutionRepository(conn *db.Connection) ExecutionRepository {
	return &executionRepository{conn: conn}
}

func (r *executionRepository) InsertAll(ctx context.Context, records []domain.ExecutionEvent) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	committed := 0
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		for _, record := range records {
			var attributeID any
			if record.AttributeID != nil {
				attributeID = *record.AttributeID
			}
			var dateOfExecution any
			if record.DateOfExecution != "" {
				dateOfExecution = record.DateOfExecution
			}

			_, err := tx.Exec(
				ctx,
				`INSERT INTO dealer_marketing_execution
				 (state, zone, dealer_name, dealer_sap_code, element_id, attribute_id, uom, date_of_execution)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				record.State,
				record.Zone,
				record.DealerName,
				record.DealerSAPCode,
				record.ElementID,
				attributeID,
				record.UOM,
				dateOfExecution,
			)
			if err != nil {
				return fmt.Errorf("failed to insert execution event: %w", err)
			}
			committed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return committed, nil
}
