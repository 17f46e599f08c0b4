package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/rpattn/btlportal/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type referenceRepository struct {
	pool *pgxpool.Pool
}

// NewReferenceRepository wires a repository backed by pgxpool.
func NewReferenceRepository(pool *pgxpool.Pool) ReferenceRepository {
	return &referenceRepository{pool: pool}
}

func (r *referenceRepository) ResolveElement(ctx context.Context, name string) (domain.ReferenceElement, error) {
	var element domain.ReferenceElement
	err := r.pool.QueryRow(
		ctx,
		`SELECT id, element_name FROM elements WHERE element_name = $1`,
		name,
	).Scan(&element.ID, &element.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ReferenceElement{}, domain.ErrNotFound
		}
		return domain.ReferenceElement{}, fmt.Errorf("failed to resolve element: %w", err)
	}
	return element, nil
}

func (r *referenceRepository) ResolveAttribute(ctx context.Context, name string, elementID int64) (domain.ReferenceAttribute, error) {
	var attribute domain.ReferenceAttribute
	err := r.pool.QueryRow(
		ctx,
		`SELECT id, attribute_name, element_id FROM attributes WHERE attribute_name = $1 AND element_id = $2`,
		name,
		elementID,
	).Scan(&attribute.ID, &attribute.Name, &attribute.ElementID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ReferenceAttribute{}, domain.ErrNotFound
		}
		return domain.ReferenceAttribute{}, fmt.Errorf("failed to resolve attribute: %w", err)
	}
	return attribute, nil
}

func (r *referenceRepository) ResolveUOM(ctx context.Context, elementID int64) (domain.ReferenceUOM, error) {
	// Reference data carries at most one UOM per element; LIMIT 1 keeps a
	// violated invariant from becoming a row-validation failure.
	var uom domain.ReferenceUOM
	err := r.pool.QueryRow(
		ctx,
		`SELECT element_id, uom FROM uoms WHERE element_id = $1 ORDER BY element_id LIMIT 1`,
		elementID,
	).Scan(&uom.ElementID, &uom.UOM)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ReferenceUOM{}, domain.ErrNotFound
		}
		return domain.ReferenceUOM{}, fmt.Errorf("failed to resolve uom: %w", err)
	}
	return uom, nil
}
