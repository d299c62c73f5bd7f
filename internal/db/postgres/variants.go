package postgres

import (
	"context"
	"database/sql"

	"github.com/splitpilot/splitpilot/internal/db"
	lsql "github.com/splitpilot/splitpilot/pkg/sql"
)

type Variants struct {
	db *lsql.Instance
}

var _ db.VariantService = &Variants{}

func NewVariants(instance *lsql.Instance) db.VariantService {
	return &Variants{
		db: instance,
	}
}

const variantColumns = `id, experiment_id, name, weight, is_control, config, sort_order, impressions, conversions, revenue`

func (v *Variants) ListVariants(ctx context.Context, experimentId string) ([]*db.Variant, error) {
	query := `
	SELECT ` + variantColumns + `
	FROM variants
	WHERE experiment_id = ?
	ORDER BY sort_order ASC
	`
	rows, err := v.db.QueryContext(ctx, query, experimentId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	variants := make([]*db.Variant, 0)
	for rows.Next() {
		variant, err := variantFromRow(rows)
		if err != nil {
			return nil, err
		}
		variants = append(variants, variant)
	}
	return variants, rows.Err()
}

func (v *Variants) GetVariant(ctx context.Context, experimentId string, variantId string) (*db.Variant, error) {
	query := `
	SELECT ` + variantColumns + `
	FROM variants
	WHERE id = ? AND experiment_id = ?
	`
	row := v.db.QueryRowContext(ctx, query, variantId, experimentId)
	return variantFromRow(row)
}

// Counter updates are single relative-update statements. The row-level
// serialization of the backing store is the only coordination, so concurrent
// recorders cannot lose increments.

func (v *Variants) RecordImpression(ctx context.Context, experimentId string, variantId string) error {
	query := `
	UPDATE variants SET impressions = impressions + 1
	WHERE id = ? AND experiment_id = ?
	`
	res, err := v.db.ExecContext(ctx, query, variantId, experimentId)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (v *Variants) RecordConversion(ctx context.Context, experimentId string, variantId string, revenue float64) error {
	query := `
	UPDATE variants SET conversions = conversions + 1, revenue = revenue + ?
	WHERE id = ? AND experiment_id = ?
	`
	res, err := v.db.ExecContext(ctx, query, revenue, variantId, experimentId)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func variantFromRow(row lsql.RowScanner) (*db.Variant, error) {
	variant := &db.Variant{}
	config := sql.NullString{}
	if err := row.Scan(&variant.Id, &variant.ExperimentId, &variant.Name, &variant.Weight,
		&variant.IsControl, &config, &variant.Position,
		&variant.Impressions, &variant.Conversions, &variant.Revenue); err != nil {
		return nil, err
	}
	if config.Valid {
		variant.Config = &config.String
	}
	return variant, nil
}
