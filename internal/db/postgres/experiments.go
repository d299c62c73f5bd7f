package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/splitpilot/splitpilot/internal/db"
	lsql "github.com/splitpilot/splitpilot/pkg/sql"
)

type Experiments struct {
	db *lsql.Instance
}

var _ db.ExperimentService = &Experiments{}

func NewExperiments(instance *lsql.Instance) db.ExperimentService {
	return &Experiments{
		db: instance,
	}
}

const experimentColumns = `e.id, e.store_id, e.name, e.description, e.metric, e.status, e.confidence, e.leading_variant, e.created_ts, e.updated_ts`

func (e *Experiments) CreateExperiment(ctx context.Context, ownerId string, experiment *db.Experiment, variants []*db.Variant) (*db.Experiment, error) {
	now := time.Now()
	experiment.CreatedTs = now
	experiment.UpdatedTs = now

	err := e.db.Transaction(ctx, func(ctx context.Context, tx *lsql.Tx) error {
		// The insert is guarded by the ownership subselect so an unknown or
		// foreign store inserts nothing.
		query := `
		INSERT INTO experiments (id, store_id, name, description, metric, status, created_ts, updated_ts)
		SELECT ?, s.id, ?, ?, ?, ?, ?, ?
		FROM stores s
		WHERE s.id = ? AND s.owner_id = ?
		`
		res, err := tx.ExecContext(ctx, query,
			experiment.Id, experiment.Name, experiment.Description, experiment.Metric,
			experiment.Status, experiment.CreatedTs, experiment.UpdatedTs,
			experiment.StoreId, ownerId)
		if err != nil {
			return err
		}
		if rows, _ := res.RowsAffected(); rows == 0 {
			return sql.ErrNoRows
		}

		for _, variant := range variants {
			query := `
			INSERT INTO variants (id, experiment_id, name, weight, is_control, config, sort_order, impressions, conversions, revenue)
			VALUES (?, ?, ?, ?, ?, ?, ?, 0, 0, 0)
			`
			if _, err := tx.ExecContext(ctx, query,
				variant.Id, experiment.Id, variant.Name, variant.Weight,
				variant.IsControl, variant.Config, variant.Position); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return experiment, nil
}

func (e *Experiments) GetExperiment(ctx context.Context, storeId string, ownerId string, id string) (*db.Experiment, error) {
	query := `
	SELECT ` + experimentColumns + `
	FROM experiments e
	JOIN stores s ON s.id = e.store_id
	WHERE e.id = ? AND e.store_id = ? AND s.owner_id = ?
	`
	row := e.db.QueryRowContext(ctx, query, id, storeId, ownerId)
	return experimentFromRow(row)
}

func (e *Experiments) GetExperimentStatus(ctx context.Context, storeId string, ownerId string, id string) (string, error) {
	query := `
	SELECT e.status
	FROM experiments e
	JOIN stores s ON s.id = e.store_id
	WHERE e.id = ? AND e.store_id = ? AND s.owner_id = ?
	`
	var status string
	if err := e.db.QueryRowContext(ctx, query, id, storeId, ownerId).Scan(&status); err != nil {
		return "", err
	}
	return status, nil
}

func (e *Experiments) checkStoreOwnership(ctx context.Context, storeId string, ownerId string) error {
	query := `
	SELECT id FROM stores WHERE id = ? AND owner_id = ?
	`
	var id string
	return e.db.QueryRowContext(ctx, query, storeId, ownerId).Scan(&id)
}

func (e *Experiments) ListExperiments(ctx context.Context, storeId string, ownerId string, pageSize int64, pageNumber int64) ([]*db.Experiment, error) {
	// An unowned store must list the same as a missing one, which a bare
	// join cannot distinguish from an empty page.
	if err := e.checkStoreOwnership(ctx, storeId, ownerId); err != nil {
		return nil, err
	}

	tail, err := e.db.GenerateLimitAndOrderCondition(pageSize, pageNumber, "e.created_ts", true)
	if err != nil {
		return nil, err
	}
	query := `
	SELECT ` + experimentColumns + `
	FROM experiments e
	WHERE e.store_id = ?` + tail

	rows, err := e.db.QueryContext(ctx, query, storeId)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	experiments := make([]*db.Experiment, 0)
	for rows.Next() {
		experiment, err := experimentFromRow(rows)
		if err != nil {
			return nil, err
		}
		experiments = append(experiments, experiment)
	}
	return experiments, rows.Err()
}

func (e *Experiments) CountExperiments(ctx context.Context, storeId string, ownerId string) (int64, error) {
	if err := e.checkStoreOwnership(ctx, storeId, ownerId); err != nil {
		return 0, err
	}
	query := `
	SELECT COUNT(*) FROM experiments WHERE store_id = ?
	`
	var count int64
	if err := e.db.QueryRowContext(ctx, query, storeId).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (e *Experiments) UpdateExperiment(ctx context.Context, ownerId string, experiment *db.Experiment) error {
	experiment.UpdatedTs = time.Now()
	query := `
	UPDATE experiments SET name = ?, description = ?, status = ?, updated_ts = ?
	WHERE id = ? AND store_id IN (SELECT id FROM stores WHERE id = ? AND owner_id = ?)
	`
	res, err := e.db.ExecContext(ctx, query,
		experiment.Name, experiment.Description, experiment.Status, experiment.UpdatedTs,
		experiment.Id, experiment.StoreId, ownerId)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (e *Experiments) DeleteExperiment(ctx context.Context, storeId string, ownerId string, id string) error {
	return e.db.Transaction(ctx, func(ctx context.Context, tx *lsql.Tx) error {
		query := `
		DELETE FROM variants
		WHERE experiment_id IN (
			SELECT e.id FROM experiments e
			JOIN stores s ON s.id = e.store_id
			WHERE e.id = ? AND e.store_id = ? AND s.owner_id = ?
		)
		`
		if _, err := tx.ExecContext(ctx, query, id, storeId, ownerId); err != nil {
			return err
		}

		query = `
		DELETE FROM experiments
		WHERE id = ? AND store_id IN (SELECT id FROM stores WHERE id = ? AND owner_id = ?)
		`
		res, err := tx.ExecContext(ctx, query, id, storeId, ownerId)
		if err != nil {
			return err
		}
		if rows, _ := res.RowsAffected(); rows == 0 {
			return sql.ErrNoRows
		}
		return nil
	})
}

func (e *Experiments) GetExperimentById(ctx context.Context, id string) (*db.Experiment, error) {
	query := `
	SELECT ` + experimentColumns + `
	FROM experiments e
	WHERE e.id = ?
	`
	row := e.db.QueryRowContext(ctx, query, id)
	return experimentFromRow(row)
}

func (e *Experiments) ListExperimentIdsByStatus(ctx context.Context, status string) ([]string, error) {
	query := `
	SELECT id FROM experiments WHERE status = ?
	`
	rows, err := e.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (e *Experiments) UpdateExperimentResults(ctx context.Context, id string, confidence *float64, leadingVariant *string) error {
	query := `
	UPDATE experiments SET confidence = ?, leading_variant = ?
	WHERE id = ?
	`
	res, err := e.db.ExecContext(ctx, query, confidence, leadingVariant, id)
	if err != nil {
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func experimentFromRow(row lsql.RowScanner) (*db.Experiment, error) {
	experiment := &db.Experiment{}
	description := sql.NullString{}
	confidence := sql.NullFloat64{}
	leadingVariant := sql.NullString{}
	if err := row.Scan(&experiment.Id, &experiment.StoreId, &experiment.Name, &description,
		&experiment.Metric, &experiment.Status, &confidence, &leadingVariant,
		&experiment.CreatedTs, &experiment.UpdatedTs); err != nil {
		return nil, err
	}
	if description.Valid {
		experiment.Description = &description.String
	}
	if confidence.Valid {
		experiment.Confidence = &confidence.Float64
	}
	if leadingVariant.Valid {
		experiment.LeadingVariant = &leadingVariant.String
	}
	return experiment, nil
}
