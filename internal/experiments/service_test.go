package experiments

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splitpilot/splitpilot/internal/db"
)

type fixture struct {
	database *db.MockDatabase
	service  *Service
	storeId  string
	ownerId  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := db.NewMockDatabase()
	ownerId := uuid.NewString()
	store, err := database.Stores().CreateStore(context.Background(), &db.Store{
		OwnerId: ownerId,
		Name:    "test store",
	})
	require.NoError(t, err)
	return &fixture{
		database: database,
		service:  NewService(database, nil),
		storeId:  store.Id,
		ownerId:  ownerId,
	}
}

func twoVariants() []VariantParams {
	return []VariantParams{
		{Name: "control", Weight: 50, IsControl: true},
		{Name: "variant_a", Weight: 50},
	}
}

func (f *fixture) create(t *testing.T) *db.Experiment {
	t.Helper()
	experiment, _, err := f.service.Create(context.Background(), f.storeId, f.ownerId, CreateParams{
		Name:     "cta copy",
		Metric:   "conversion_rate",
		Variants: twoVariants(),
	})
	require.NoError(t, err)
	return experiment
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var validationErr *ValidationError

	_, _, err := f.service.Create(ctx, f.storeId, f.ownerId, CreateParams{
		Name:     "",
		Variants: twoVariants(),
	})
	assert.ErrorAs(t, err, &validationErr)

	_, _, err = f.service.Create(ctx, f.storeId, f.ownerId, CreateParams{
		Name:     "one armed",
		Variants: []VariantParams{{Name: "control", Weight: 100}},
	})
	assert.ErrorAs(t, err, &validationErr)

	_, _, err = f.service.Create(ctx, f.storeId, f.ownerId, CreateParams{
		Name: "duplicate names",
		Variants: []VariantParams{
			{Name: "control", Weight: 50},
			{Name: "control", Weight: 50},
		},
	})
	assert.ErrorAs(t, err, &validationErr)

	_, _, err = f.service.Create(ctx, f.storeId, f.ownerId, CreateParams{
		Name: "negative weight",
		Variants: []VariantParams{
			{Name: "control", Weight: -1},
			{Name: "variant_a", Weight: 50},
		},
	})
	assert.ErrorAs(t, err, &validationErr)
}

func TestCreateUnknownStore(t *testing.T) {
	f := newFixture(t)

	var notFound *NotFoundError
	_, _, err := f.service.Create(context.Background(), uuid.NewString(), f.ownerId, CreateParams{
		Name:     "orphan",
		Variants: twoVariants(),
	})
	assert.ErrorAs(t, err, &notFound)
}

func TestOwnershipConflatedWithAbsence(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	experiment := f.create(t)

	var notFound *NotFoundError

	// Another owner sees the same NotFound as a missing test.
	_, _, err := f.service.Get(ctx, f.storeId, uuid.NewString(), experiment.Id)
	require.ErrorAs(t, err, &notFound)
	_, _, err = f.service.Get(ctx, f.storeId, f.ownerId, uuid.NewString())
	require.ErrorAs(t, err, &notFound)
}

func TestUpdateTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	experiment := f.create(t)
	assert.Equal(t, string(StatusDraft), experiment.Status)

	running := StatusRunning
	updated, err := f.service.Update(ctx, f.storeId, f.ownerId, experiment.Id, UpdateParams{Status: &running})
	require.NoError(t, err)
	assert.Equal(t, string(StatusRunning), updated.Status)

	// draft is not reachable from running
	draft := StatusDraft
	_, err = f.service.Update(ctx, f.storeId, f.ownerId, experiment.Id, UpdateParams{Status: &draft})
	var transitionErr *InvalidTransitionError
	assert.ErrorAs(t, err, &transitionErr)

	// same-status update is an idempotent no-op
	_, err = f.service.Update(ctx, f.storeId, f.ownerId, experiment.Id, UpdateParams{Status: &running})
	assert.NoError(t, err)

	// unknown statuses are rejected before the state machine runs
	bogus := Status("archived")
	_, err = f.service.Update(ctx, f.storeId, f.ownerId, experiment.Id, UpdateParams{Status: &bogus})
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestUpdateFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	experiment := f.create(t)

	name := "new name"
	description := "longer form"
	updated, err := f.service.Update(ctx, f.storeId, f.ownerId, experiment.Id, UpdateParams{
		Name:        &name,
		Description: &description,
	})
	require.NoError(t, err)
	assert.Equal(t, "new name", updated.Name)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "longer form", *updated.Description)
	assert.Equal(t, string(StatusDraft), updated.Status)
}

func TestDeletePrecondition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	experiment := f.create(t)

	running := StatusRunning
	_, err := f.service.Update(ctx, f.storeId, f.ownerId, experiment.Id, UpdateParams{Status: &running})
	require.NoError(t, err)

	var stateErr *InvalidStateError
	err = f.service.Delete(ctx, f.storeId, f.ownerId, experiment.Id)
	assert.ErrorAs(t, err, &stateErr)
}

func TestDeleteDraftRemovesVariants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	experiment := f.create(t)

	require.NoError(t, f.service.Delete(ctx, f.storeId, f.ownerId, experiment.Id))

	var notFound *NotFoundError
	_, _, err := f.service.Get(ctx, f.storeId, f.ownerId, experiment.Id)
	assert.ErrorAs(t, err, &notFound)

	variants, err := f.database.Variants().ListVariants(ctx, experiment.Id)
	require.NoError(t, err)
	assert.Empty(t, variants)
}

func TestRecordEventGating(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	experiment := f.create(t)
	variants, err := f.database.Variants().ListVariants(ctx, experiment.Id)
	require.NoError(t, err)
	variant := variants[0]

	var stateErr *InvalidStateError

	// draft blocks events
	err = f.service.RecordEvent(ctx, f.storeId, f.ownerId, experiment.Id, variant.Id, EventImpression, nil)
	require.ErrorAs(t, err, &stateErr)

	running := StatusRunning
	_, err = f.service.Update(ctx, f.storeId, f.ownerId, experiment.Id, UpdateParams{Status: &running})
	require.NoError(t, err)

	require.NoError(t, f.service.RecordEvent(ctx, f.storeId, f.ownerId, experiment.Id, variant.Id, EventImpression, nil))
	revenue := 19.99
	require.NoError(t, f.service.RecordEvent(ctx, f.storeId, f.ownerId, experiment.Id, variant.Id, EventConversion, &revenue))

	got, err := f.database.Variants().GetVariant(ctx, experiment.Id, variant.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Impressions)
	assert.Equal(t, int64(1), got.Conversions)
	assert.InDelta(t, 19.99, got.Revenue, 0.0001)

	// paused blocks events again
	paused := StatusPaused
	_, err = f.service.Update(ctx, f.storeId, f.ownerId, experiment.Id, UpdateParams{Status: &paused})
	require.NoError(t, err)
	err = f.service.RecordEvent(ctx, f.storeId, f.ownerId, experiment.Id, variant.Id, EventImpression, nil)
	assert.ErrorAs(t, err, &stateErr)
}

func TestRecordEventValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	experiment := f.create(t)

	var validationErr *ValidationError

	// event types are exact, no aliasing
	for _, eventType := range []string{"", "Impression", "IMPRESSION", "view", "click"} {
		err := f.service.RecordEvent(ctx, f.storeId, f.ownerId, experiment.Id, uuid.NewString(), eventType, nil)
		assert.ErrorAs(t, err, &validationErr, "event type %q", eventType)
	}

	negative := -1.0
	err := f.service.RecordEvent(ctx, f.storeId, f.ownerId, experiment.Id, uuid.NewString(), EventConversion, &negative)
	assert.ErrorAs(t, err, &validationErr)
}

func TestAssignVariantRequiresRunning(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	experiment := f.create(t)

	var stateErr *InvalidStateError
	_, err := f.service.AssignVariant(ctx, f.storeId, f.ownerId, experiment.Id, "visitor-1")
	assert.ErrorAs(t, err, &stateErr)

	var validationErr *ValidationError
	_, err = f.service.AssignVariant(ctx, f.storeId, f.ownerId, experiment.Id, "")
	assert.ErrorAs(t, err, &validationErr)
}

func TestEndToEndScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	experiment, variants, err := f.service.Create(ctx, f.storeId, f.ownerId, CreateParams{
		Name:   "homepage hero",
		Metric: "conversion_rate",
		Variants: []VariantParams{
			{Name: "control", Weight: 50, IsControl: true},
			{Name: "variant_a", Weight: 50},
		},
	})
	require.NoError(t, err)
	require.Len(t, variants, 2)
	assert.Equal(t, string(StatusDraft), experiment.Status)

	running := StatusRunning
	_, err = f.service.Update(ctx, f.storeId, f.ownerId, experiment.Id, UpdateParams{Status: &running})
	require.NoError(t, err)

	assigned, err := f.service.AssignVariant(ctx, f.storeId, f.ownerId, experiment.Id, "visitor-1")
	require.NoError(t, err)
	again, err := f.service.AssignVariant(ctx, f.storeId, f.ownerId, experiment.Id, "visitor-1")
	require.NoError(t, err)
	assert.Equal(t, assigned.Id, again.Id)

	require.NoError(t, f.service.RecordEvent(ctx, f.storeId, f.ownerId, experiment.Id, assigned.Id, EventImpression, nil))
	got, err := f.database.Variants().GetVariant(ctx, experiment.Id, assigned.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Impressions)

	completed := StatusCompleted
	_, err = f.service.Update(ctx, f.storeId, f.ownerId, experiment.Id, UpdateParams{Status: &completed})
	require.NoError(t, err)

	var stateErr *InvalidStateError
	err = f.service.RecordEvent(ctx, f.storeId, f.ownerId, experiment.Id, assigned.Id, EventImpression, nil)
	assert.ErrorAs(t, err, &stateErr)
}
