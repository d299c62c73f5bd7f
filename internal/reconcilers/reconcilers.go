package reconcilers

import (
	"github.com/splitpilot/splitpilot/internal/reconcilers/results"
	"github.com/splitpilot/splitpilot/pkg/app"
	"github.com/splitpilot/splitpilot/pkg/reconciler"
)

type ReconcilerSet struct {
	ResultsReconciler *results.Reconciler

	resultsManager *reconciler.Manager[string]
}

func NewReconcilerSet(app *app.Instance, resultsCfg *results.Config, resultsReconciler *results.Reconciler) *ReconcilerSet {
	resultsManager, err := results.NewReconcilerManager(app, resultsCfg, resultsReconciler)
	if err != nil {
		panic(err)
	}

	return &ReconcilerSet{
		ResultsReconciler: resultsReconciler,

		resultsManager: resultsManager,
	}
}

func (r *ReconcilerSet) Start() {
	r.resultsManager.Start()
}

func (r *ReconcilerSet) Finish() {
	r.resultsManager.Finish()
}
