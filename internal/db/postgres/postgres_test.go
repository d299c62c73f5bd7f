package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/splitpilot/splitpilot/internal/db"
	"github.com/splitpilot/splitpilot/internal/db/postgres"
	sqlitemig "github.com/splitpilot/splitpilot/internal/migrations/sqlite"
	lsql "github.com/splitpilot/splitpilot/pkg/sql"
	lmigration "github.com/splitpilot/splitpilot/pkg/sql/migration"
)

// The implementations are engine-agnostic through the sql layer, so the
// tests run them against a throwaway sqlite database.
func newTestDatabase(t *testing.T) db.Database {
	t.Helper()

	cfg, err := lsql.NewTestingConfig(t)
	require.NoError(t, err)

	migration, err := lmigration.NewMigration(cfg, map[string]lmigration.MigrationSet{
		"sqlite": {AssetNames: sqlitemig.AssetNames, Asset: sqlitemig.Asset},
	})
	require.NoError(t, err)
	require.NoError(t, migration.Run(nil))
	require.NoError(t, migration.DB.Close())

	instance, err := postgres.NewInstance(cfg)
	require.NoError(t, err)
	t.Cleanup(func() {
		instance.Close()
	})

	return postgres.NewDatabase(
		postgres.NewUsers(instance),
		postgres.NewStores(instance),
		postgres.NewExperiments(instance),
		postgres.NewVariants(instance),
		postgres.NewTokens(instance),
	)
}

type seeded struct {
	db      db.Database
	ownerId string
	storeId string
}

func seed(t *testing.T) *seeded {
	t.Helper()
	database := newTestDatabase(t)
	ctx := context.Background()

	user, err := database.Users().CreateUser(ctx, &db.User{Email: uuid.NewString() + "@example.com"})
	require.NoError(t, err)
	store, err := database.Stores().CreateStore(ctx, &db.Store{OwnerId: user.Id, Name: "shop"})
	require.NoError(t, err)

	return &seeded{db: database, ownerId: user.Id, storeId: store.Id}
}

func (s *seeded) createExperiment(t *testing.T, name string) (*db.Experiment, []*db.Variant) {
	t.Helper()
	experiment := &db.Experiment{
		Id:      uuid.NewString(),
		StoreId: s.storeId,
		Name:    name,
		Metric:  "conversion_rate",
		Status:  "draft",
	}
	variants := []*db.Variant{
		{Id: uuid.NewString(), ExperimentId: experiment.Id, Name: "control", Weight: 50, IsControl: true, Position: 0},
		{Id: uuid.NewString(), ExperimentId: experiment.Id, Name: "variant_a", Weight: 50, Position: 1},
	}
	created, err := s.db.Experiments().CreateExperiment(context.Background(), s.ownerId, experiment, variants)
	require.NoError(t, err)
	return created, variants
}

func TestCreateAndGetExperiment(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	experiment, variants := s.createExperiment(t, "cta wording")

	got, err := s.db.Experiments().GetExperiment(ctx, s.storeId, s.ownerId, experiment.Id)
	require.NoError(t, err)
	assert.Equal(t, experiment.Id, got.Id)
	assert.Equal(t, "cta wording", got.Name)
	assert.Equal(t, "draft", got.Status)
	assert.Nil(t, got.Confidence)

	gotVariants, err := s.db.Variants().ListVariants(ctx, experiment.Id)
	require.NoError(t, err)
	require.Len(t, gotVariants, 2)
	assert.Equal(t, variants[0].Id, gotVariants[0].Id)
	assert.Equal(t, variants[1].Id, gotVariants[1].Id)
	assert.True(t, gotVariants[0].IsControl)
	assert.Equal(t, int64(0), gotVariants[0].Impressions)
}

func TestOwnershipConflation(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	experiment, _ := s.createExperiment(t, "hidden")

	// A different owner gets the same error as a missing experiment.
	_, err := s.db.Experiments().GetExperiment(ctx, s.storeId, uuid.NewString(), experiment.Id)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	_, err = s.db.Experiments().GetExperiment(ctx, s.storeId, s.ownerId, uuid.NewString())
	assert.ErrorIs(t, err, sql.ErrNoRows)
	_, err = s.db.Experiments().ListExperiments(ctx, s.storeId, uuid.NewString(), 10, 0)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCreateExperimentUnknownStore(t *testing.T) {
	s := seed(t)
	experiment := &db.Experiment{
		Id:      uuid.NewString(),
		StoreId: uuid.NewString(),
		Name:    "orphan",
		Metric:  "conversion_rate",
		Status:  "draft",
	}
	_, err := s.db.Experiments().CreateExperiment(context.Background(), s.ownerId, experiment, nil)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListExperimentsPagination(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	var newest string
	for _, name := range []string{"first", "second", "third"} {
		experiment, _ := s.createExperiment(t, name)
		newest = experiment.Id
		time.Sleep(5 * time.Millisecond)
	}

	total, err := s.db.Experiments().CountExperiments(ctx, s.storeId, s.ownerId)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	page, err := s.db.Experiments().ListExperiments(ctx, s.storeId, s.ownerId, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, newest, page[0].Id)

	page, err = s.db.Experiments().ListExperiments(ctx, s.storeId, s.ownerId, 2, 1)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestUpdateExperiment(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	experiment, _ := s.createExperiment(t, "old name")

	experiment.Name = "new name"
	experiment.Status = "running"
	require.NoError(t, s.db.Experiments().UpdateExperiment(ctx, s.ownerId, experiment))

	status, err := s.db.Experiments().GetExperimentStatus(ctx, s.storeId, s.ownerId, experiment.Id)
	require.NoError(t, err)
	assert.Equal(t, "running", status)

	// Not updatable by another owner
	err = s.db.Experiments().UpdateExperiment(ctx, uuid.NewString(), experiment)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDeleteExperimentRemovesVariants(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	experiment, _ := s.createExperiment(t, "short lived")

	err := s.db.Experiments().DeleteExperiment(ctx, s.storeId, uuid.NewString(), experiment.Id)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, s.db.Experiments().DeleteExperiment(ctx, s.storeId, s.ownerId, experiment.Id))

	_, err = s.db.Experiments().GetExperiment(ctx, s.storeId, s.ownerId, experiment.Id)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	variants, err := s.db.Variants().ListVariants(ctx, experiment.Id)
	require.NoError(t, err)
	assert.Empty(t, variants)
}

func TestCounters(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	experiment, variants := s.createExperiment(t, "counting")
	variant := variants[0]

	require.NoError(t, s.db.Variants().RecordImpression(ctx, experiment.Id, variant.Id))
	require.NoError(t, s.db.Variants().RecordImpression(ctx, experiment.Id, variant.Id))
	require.NoError(t, s.db.Variants().RecordConversion(ctx, experiment.Id, variant.Id, 12.50))

	got, err := s.db.Variants().GetVariant(ctx, experiment.Id, variant.Id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Impressions)
	assert.Equal(t, int64(1), got.Conversions)
	assert.InDelta(t, 12.50, got.Revenue, 0.0001)

	err = s.db.Variants().RecordImpression(ctx, experiment.Id, uuid.NewString())
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestExperimentResults(t *testing.T) {
	s := seed(t)
	ctx := context.Background()
	experiment, variants := s.createExperiment(t, "results")

	experiment.Status = "running"
	require.NoError(t, s.db.Experiments().UpdateExperiment(ctx, s.ownerId, experiment))

	ids, err := s.db.Experiments().ListExperimentIdsByStatus(ctx, "running")
	require.NoError(t, err)
	assert.Contains(t, ids, experiment.Id)

	confidence := 0.97
	require.NoError(t, s.db.Experiments().UpdateExperimentResults(ctx, experiment.Id, &confidence, &variants[1].Id))

	got, err := s.db.Experiments().GetExperimentById(ctx, experiment.Id)
	require.NoError(t, err)
	require.NotNil(t, got.Confidence)
	assert.InDelta(t, 0.97, *got.Confidence, 0.0001)
	require.NotNil(t, got.LeadingVariant)
	assert.Equal(t, variants[1].Id, *got.LeadingVariant)
}

func TestTokens(t *testing.T) {
	s := seed(t)
	ctx := context.Background()

	token := &db.ApiToken{
		TokenHash: uuid.NewString(),
		UserId:    s.ownerId,
		Name:      "ci token",
	}
	_, err := s.db.Tokens().CreateToken(ctx, token)
	require.NoError(t, err)

	userId, err := s.db.Tokens().GetUserIdByTokenHash(ctx, token.TokenHash)
	require.NoError(t, err)
	assert.Equal(t, s.ownerId, userId)

	_, err = s.db.Tokens().GetUserIdByTokenHash(ctx, "unknown")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
