package results

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/splitpilot/splitpilot/internal/db"
	"github.com/splitpilot/splitpilot/internal/experiments"
	"github.com/splitpilot/splitpilot/pkg/app"
	"github.com/splitpilot/splitpilot/pkg/reconciler"
)

// Reconciler periodically recomputes significance for every running test and
// stores the snapshot on the experiment row, so list responses can show a
// leading variant without touching the counters tables per request.
type Reconciler struct {
	config *Config
	db     db.Database
}

func NewReconciler(config *Config, db db.Database) *Reconciler {
	return &Reconciler{
		config: config,
		db:     db,
	}
}

func (r *Reconciler) Name() string {
	return "results-reconciler"
}

func (r *Reconciler) Reboot(_ context.Context) {}

func (r *Reconciler) Resync(ctx context.Context, queue *reconciler.ReconcileQueue[string]) {
	if !r.config.Enabled {
		return
	}
	log.Debugln("beginning test results reconciler resync")

	ids, err := r.db.Experiments().ListExperimentIdsByStatus(ctx, string(experiments.StatusRunning))
	if err != nil {
		log.Printf("failed to query database: %s", err)
		return
	}

	if len(ids) > 0 {
		log.Debugf("queueing %d tests for results reconciliation", len(ids))
	}
	for _, id := range ids {
		queue.Add(id)
	}

	log.Debugln("completing reconciler resync")
}

func (r *Reconciler) Reconcile(ctx context.Context, items []reconciler.ReconcileItem[string]) {
	log.Debugf("reconciling results for %d tests", len(items))
	for _, item := range items {
		item.Callback(r.reconcileOne(ctx, item.ID))
	}
}

func (r *Reconciler) reconcileOne(ctx context.Context, id string) error {
	experiment, err := r.db.Experiments().GetExperimentById(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Deleted between resync and reconcile, nothing to do.
			return nil
		}
		log.Printf("failed to fetch test %s for results reconciliation: %s", id, err)
		return err
	}

	variants, err := r.db.Variants().ListVariants(ctx, experiment.Id)
	if err != nil {
		log.Printf("failed to fetch variants for test %s: %s", id, err)
		return err
	}

	results := experiments.ComputeResults(variants)
	var confidence *float64
	if results.LeadingVariantId != nil {
		confidence = &results.Confidence
	}

	err = r.db.Experiments().UpdateExperimentResults(ctx, experiment.Id, confidence, results.LeadingVariantId)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		log.Printf("failed to store results for test %s: %s", id, err)
		return err
	}
	return nil
}

func NewReconcilerManager(app *app.Instance, cfg *Config, rec *Reconciler) (*reconciler.Manager[string], error) {
	log.Println("test results reconciler initializing")
	reconcilerConfig, err := reconciler.NewConfig(cfg.ResyncFrequency, cfg.MaxWorkers, cfg.RunMaxItems)
	if err != nil {
		return nil, err
	}
	return reconciler.NewManager[string](app.Context(), reconcilerConfig, rec), nil
}
