package db

import (
	"context"
	"time"
)

type Experiment struct {
	Id             string
	StoreId        string
	Name           string
	Description    *string
	Metric         string
	Status         string
	Confidence     *float64
	LeadingVariant *string
	CreatedTs      time.Time
	UpdatedTs      time.Time
}

// ExperimentService is the persistence contract for experiments. Owner-scoped
// reads and writes are single authorized queries joining the stores table, so
// an ownership mismatch is indistinguishable from absence (sql.ErrNoRows).
type ExperimentService interface {
	// CreateExperiment inserts the experiment and its variants in one
	// transaction. The insert is authorized against the owner's store and
	// returns sql.ErrNoRows when the store is absent or not owned.
	CreateExperiment(ctx context.Context, ownerId string, experiment *Experiment, variants []*Variant) (*Experiment, error)
	GetExperiment(ctx context.Context, storeId string, ownerId string, id string) (*Experiment, error)
	// GetExperimentStatus reads the current status only, for fresh gating
	// checks on the event-recording path.
	GetExperimentStatus(ctx context.Context, storeId string, ownerId string, id string) (string, error)
	ListExperiments(ctx context.Context, storeId string, ownerId string, pageSize int64, pageNumber int64) ([]*Experiment, error)
	CountExperiments(ctx context.Context, storeId string, ownerId string) (int64, error)
	UpdateExperiment(ctx context.Context, ownerId string, experiment *Experiment) error
	DeleteExperiment(ctx context.Context, storeId string, ownerId string, id string) error

	// Unscoped reads/writes for the background results reconciler.
	GetExperimentById(ctx context.Context, id string) (*Experiment, error)
	ListExperimentIdsByStatus(ctx context.Context, status string) ([]string, error)
	UpdateExperimentResults(ctx context.Context, id string, confidence *float64, leadingVariant *string) error
}
