package experiments

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/splitpilot/splitpilot/internal/db"
	"github.com/splitpilot/splitpilot/pkg/app"
)

const (
	EventImpression = "impression"
	EventConversion = "conversion"
)

// Notifier is told about experiments reaching a terminal state. Delivery is
// best effort and must not block the request path.
type Notifier interface {
	ExperimentCompleted(ctx context.Context, store *db.Store, experiment *db.Experiment, variants []*db.Variant)
}

type Service struct {
	database db.Database
	notifier Notifier
}

func NewService(database db.Database, notifier Notifier) *Service {
	return &Service{
		database: database,
		notifier: notifier,
	}
}

type VariantParams struct {
	Name      string
	Weight    int64
	IsControl bool
	Config    *string
}

type CreateParams struct {
	Name        string
	Description *string
	Metric      string
	Variants    []VariantParams
}

func (s *Service) Create(ctx context.Context, storeId string, ownerId string, params CreateParams) (*db.Experiment, []*db.Variant, error) {
	if params.Name == "" {
		return nil, nil, NewValidationError("test name must not be empty")
	}
	if len(params.Variants) < 2 {
		return nil, nil, NewValidationError("a test needs at least 2 variants, got %d", len(params.Variants))
	}
	seen := make(map[string]struct{}, len(params.Variants))
	for _, variant := range params.Variants {
		if variant.Name == "" {
			return nil, nil, NewValidationError("variant name must not be empty")
		}
		if _, ok := seen[variant.Name]; ok {
			return nil, nil, NewValidationError("duplicate variant name %q", variant.Name)
		}
		seen[variant.Name] = struct{}{}
		if variant.Weight < 0 {
			return nil, nil, NewValidationError("variant %q has negative weight %d", variant.Name, variant.Weight)
		}
	}

	metric := params.Metric
	if metric == "" {
		metric = "conversion_rate"
	}

	experiment := &db.Experiment{
		Id:          uuid.NewString(),
		StoreId:     storeId,
		Name:        params.Name,
		Description: params.Description,
		Metric:      metric,
		Status:      string(StatusDraft),
	}
	variants := make([]*db.Variant, len(params.Variants))
	for i, vp := range params.Variants {
		variants[i] = &db.Variant{
			Id:           uuid.NewString(),
			ExperimentId: experiment.Id,
			Name:         vp.Name,
			Weight:       vp.Weight,
			IsControl:    vp.IsControl,
			Config:       vp.Config,
			Position:     int64(i),
		}
	}

	created, err := s.database.Experiments().CreateExperiment(ctx, ownerId, experiment, variants)
	if err != nil {
		return nil, nil, s.mapNotFound(err, "store %s not found", storeId)
	}
	return created, variants, nil
}

func (s *Service) Get(ctx context.Context, storeId string, ownerId string, id string) (*db.Experiment, []*db.Variant, error) {
	experiment, err := s.database.Experiments().GetExperiment(ctx, storeId, ownerId, id)
	if err != nil {
		return nil, nil, s.mapNotFound(err, "test %s not found", id)
	}
	variants, err := s.database.Variants().ListVariants(ctx, experiment.Id)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	return experiment, variants, nil
}

func (s *Service) List(ctx context.Context, storeId string, ownerId string, pageSize int64, pageNumber int64) ([]*db.Experiment, int64, error) {
	experiments, err := s.database.Experiments().ListExperiments(ctx, storeId, ownerId, pageSize, pageNumber)
	if err != nil {
		return nil, 0, s.mapNotFound(err, "store %s not found", storeId)
	}
	total, err := s.database.Experiments().CountExperiments(ctx, storeId, ownerId)
	if err != nil {
		return nil, 0, s.mapNotFound(err, "store %s not found", storeId)
	}
	return experiments, total, nil
}

type UpdateParams struct {
	Name        *string
	Description *string
	Status      *Status
}

func (s *Service) Update(ctx context.Context, storeId string, ownerId string, id string, params UpdateParams) (*db.Experiment, error) {
	experiment, err := s.database.Experiments().GetExperiment(ctx, storeId, ownerId, id)
	if err != nil {
		return nil, s.mapNotFound(err, "test %s not found", id)
	}

	completing := false
	if params.Status != nil {
		requested := *params.Status
		if !requested.Valid() {
			return nil, NewValidationError("unknown status %q", requested)
		}
		if err := Transition(Status(experiment.Status), requested); err != nil {
			return nil, err
		}
		completing = requested == StatusCompleted && experiment.Status != string(StatusCompleted)
		experiment.Status = string(requested)
	}
	if params.Name != nil {
		if *params.Name == "" {
			return nil, NewValidationError("test name must not be empty")
		}
		experiment.Name = *params.Name
	}
	if params.Description != nil {
		experiment.Description = params.Description
	}

	if err := s.database.Experiments().UpdateExperiment(ctx, ownerId, experiment); err != nil {
		return nil, s.mapNotFound(err, "test %s not found", id)
	}

	if completing && s.notifier != nil {
		s.notifyCompleted(ctx, storeId, ownerId, experiment)
	}

	return experiment, nil
}

// notifyCompleted hands the completed experiment to the notifier on a
// detached context so webhook delivery survives the request.
func (s *Service) notifyCompleted(ctx context.Context, storeId string, ownerId string, experiment *db.Experiment) {
	store, err := s.database.Stores().GetStoreForOwner(ctx, storeId, ownerId)
	if err != nil {
		log.Printf("skipping completion notification for test %s: %s", experiment.Id, err)
		return
	}
	variants, err := s.database.Variants().ListVariants(ctx, experiment.Id)
	if err != nil {
		log.Printf("skipping completion notification for test %s: %s", experiment.Id, err)
		return
	}
	go func() {
		notifyCtx, cancel := app.BackgroundTimeoutContext()
		defer cancel()
		s.notifier.ExperimentCompleted(notifyCtx, store, experiment, variants)
	}()
}

func (s *Service) Delete(ctx context.Context, storeId string, ownerId string, id string) error {
	experiment, err := s.database.Experiments().GetExperiment(ctx, storeId, ownerId, id)
	if err != nil {
		return s.mapNotFound(err, "test %s not found", id)
	}
	if experiment.Status != string(StatusDraft) {
		return NewInvalidStateError("only draft tests can be deleted, test is %s", experiment.Status)
	}
	if err := s.database.Experiments().DeleteExperiment(ctx, storeId, ownerId, id); err != nil {
		return s.mapNotFound(err, "test %s not found", id)
	}
	return nil
}

// RecordEvent increments the variant's counters. The parent status is
// re-read here rather than trusted from an earlier load, since it can change
// between the caller's check and this call.
func (s *Service) RecordEvent(ctx context.Context, storeId string, ownerId string, id string, variantId string, eventType string, revenue *float64) error {
	if eventType != EventImpression && eventType != EventConversion {
		return NewValidationError("unknown event type %q, expected %q or %q", eventType, EventImpression, EventConversion)
	}
	if revenue != nil && *revenue < 0 {
		return NewValidationError("revenue must not be negative")
	}

	status, err := s.database.Experiments().GetExperimentStatus(ctx, storeId, ownerId, id)
	if err != nil {
		return s.mapNotFound(err, "test %s not found", id)
	}
	if status != string(StatusRunning) {
		return NewInvalidStateError("test is not running")
	}

	switch eventType {
	case EventImpression:
		err = s.database.Variants().RecordImpression(ctx, id, variantId)
	case EventConversion:
		amount := 0.0
		if revenue != nil {
			amount = *revenue
		}
		err = s.database.Variants().RecordConversion(ctx, id, variantId, amount)
	}
	if err != nil {
		return s.mapNotFound(err, "variant %s not found", variantId)
	}
	return nil
}

// AssignVariant buckets a visitor into one of the test's variants.
func (s *Service) AssignVariant(ctx context.Context, storeId string, ownerId string, id string, visitorId string) (*db.Variant, error) {
	if visitorId == "" {
		return nil, NewValidationError("visitor_id must not be empty")
	}
	experiment, err := s.database.Experiments().GetExperiment(ctx, storeId, ownerId, id)
	if err != nil {
		return nil, s.mapNotFound(err, "test %s not found", id)
	}
	if experiment.Status != string(StatusRunning) {
		return nil, NewInvalidStateError("test is not running")
	}
	variants, err := s.database.Variants().ListVariants(ctx, experiment.Id)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return Assign(experiment.Id, visitorId, variants)
}

// mapNotFound translates the storage layer's no-rows result into the domain
// error. Ownership mismatches surface the same way as true absence.
func (s *Service) mapNotFound(err error, format string, args ...interface{}) error {
	if errors.Is(err, sql.ErrNoRows) {
		return NewNotFoundError(format, args...)
	}
	return errors.WithStack(err)
}
