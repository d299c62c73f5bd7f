package db

import (
	"context"
	"database/sql"
	"sort"
	"time"

	"github.com/google/uuid"
	"pgregory.net/rapid"
)

// In-memory implementations of the service interfaces, used by the API and
// service tests. They mirror the real layer's contract, including returning
// sql.ErrNoRows for both absence and ownership mismatches.

type MockDatabase struct {
	users       *UsersMock
	stores      *StoresMock
	experiments *ExperimentsMock
	variants    *VariantsMock
	tokens      *TokensMock
}

func NewMockDatabase() *MockDatabase {
	stores := &StoresMock{}
	variants := &VariantsMock{}
	experiments := &ExperimentsMock{stores: stores, variants: variants}
	return &MockDatabase{
		users:       &UsersMock{},
		stores:      stores,
		experiments: experiments,
		variants:    variants,
		tokens:      &TokensMock{},
	}
}

func (m *MockDatabase) Users() UserService             { return m.users }
func (m *MockDatabase) Stores() StoreService           { return m.stores }
func (m *MockDatabase) Experiments() ExperimentService { return m.experiments }
func (m *MockDatabase) Variants() VariantService       { return m.variants }
func (m *MockDatabase) Tokens() TokenService           { return m.tokens }

var _ Database = &MockDatabase{}

type UsersMock struct {
	Users []*User
}

func (u *UsersMock) CreateUser(_ context.Context, user *User) (*User, error) {
	if user.Id == "" {
		user.Id = uuid.NewString()
	}
	if user.CreatedTs.IsZero() {
		user.CreatedTs = time.Now()
	}
	u.Users = append(u.Users, user)
	return user, nil
}

func (u *UsersMock) GetUserByEmail(_ context.Context, email string) (*User, error) {
	for _, user := range u.Users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

var _ UserService = &UsersMock{}

type StoresMock struct {
	Stores []*Store
}

func (s *StoresMock) CreateStore(_ context.Context, store *Store) (*Store, error) {
	if store.Id == "" {
		store.Id = uuid.NewString()
	}
	if store.CreatedTs.IsZero() {
		store.CreatedTs = time.Now()
	}
	s.Stores = append(s.Stores, store)
	return store, nil
}

func (s *StoresMock) GetStoreForOwner(_ context.Context, storeId string, ownerId string) (*Store, error) {
	for _, store := range s.Stores {
		if store.Id == storeId && store.OwnerId == ownerId {
			return store, nil
		}
	}
	return nil, sql.ErrNoRows
}

var _ StoreService = &StoresMock{}

type ExperimentsMock struct {
	Experiments []*Experiment
	stores      *StoresMock
	variants    *VariantsMock
}

func (e *ExperimentsMock) CreateExperiment(ctx context.Context, ownerId string, experiment *Experiment, variants []*Variant) (*Experiment, error) {
	if _, err := e.stores.GetStoreForOwner(ctx, experiment.StoreId, ownerId); err != nil {
		return nil, err
	}
	if experiment.Id == "" {
		experiment.Id = uuid.NewString()
	}
	now := time.Now()
	if experiment.CreatedTs.IsZero() {
		experiment.CreatedTs = now
		experiment.UpdatedTs = now
	}
	e.Experiments = append(e.Experiments, experiment)
	for i, variant := range variants {
		if variant.Id == "" {
			variant.Id = uuid.NewString()
		}
		variant.ExperimentId = experiment.Id
		variant.Position = int64(i)
		e.variants.Variants = append(e.variants.Variants, variant)
	}
	return experiment, nil
}

func (e *ExperimentsMock) GetExperiment(ctx context.Context, storeId string, ownerId string, id string) (*Experiment, error) {
	if _, err := e.stores.GetStoreForOwner(ctx, storeId, ownerId); err != nil {
		return nil, err
	}
	for _, experiment := range e.Experiments {
		if experiment.Id == id && experiment.StoreId == storeId {
			return experiment, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (e *ExperimentsMock) GetExperimentStatus(ctx context.Context, storeId string, ownerId string, id string) (string, error) {
	experiment, err := e.GetExperiment(ctx, storeId, ownerId, id)
	if err != nil {
		return "", err
	}
	return experiment.Status, nil
}

func (e *ExperimentsMock) ListExperiments(ctx context.Context, storeId string, ownerId string, pageSize int64, pageNumber int64) ([]*Experiment, error) {
	if _, err := e.stores.GetStoreForOwner(ctx, storeId, ownerId); err != nil {
		return nil, err
	}
	matches := make([]*Experiment, 0)
	for _, experiment := range e.Experiments {
		if experiment.StoreId == storeId {
			matches = append(matches, experiment)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].CreatedTs.After(matches[j].CreatedTs)
	})
	start := pageNumber * pageSize
	if start >= int64(len(matches)) {
		return []*Experiment{}, nil
	}
	end := start + pageSize
	if end > int64(len(matches)) {
		end = int64(len(matches))
	}
	return matches[start:end], nil
}

func (e *ExperimentsMock) CountExperiments(ctx context.Context, storeId string, ownerId string) (int64, error) {
	if _, err := e.stores.GetStoreForOwner(ctx, storeId, ownerId); err != nil {
		return 0, err
	}
	var count int64
	for _, experiment := range e.Experiments {
		if experiment.StoreId == storeId {
			count++
		}
	}
	return count, nil
}

func (e *ExperimentsMock) UpdateExperiment(ctx context.Context, ownerId string, experiment *Experiment) error {
	existing, err := e.GetExperiment(ctx, experiment.StoreId, ownerId, experiment.Id)
	if err != nil {
		return err
	}
	existing.Name = experiment.Name
	existing.Description = experiment.Description
	existing.Status = experiment.Status
	existing.UpdatedTs = time.Now()
	return nil
}

func (e *ExperimentsMock) DeleteExperiment(ctx context.Context, storeId string, ownerId string, id string) error {
	if _, err := e.GetExperiment(ctx, storeId, ownerId, id); err != nil {
		return err
	}
	for i, experiment := range e.Experiments {
		if experiment.Id == id {
			e.Experiments = append(e.Experiments[:i], e.Experiments[i+1:]...)
			break
		}
	}
	remaining := e.variants.Variants[:0]
	for _, variant := range e.variants.Variants {
		if variant.ExperimentId != id {
			remaining = append(remaining, variant)
		}
	}
	e.variants.Variants = remaining
	return nil
}

func (e *ExperimentsMock) GetExperimentById(_ context.Context, id string) (*Experiment, error) {
	for _, experiment := range e.Experiments {
		if experiment.Id == id {
			return experiment, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (e *ExperimentsMock) ListExperimentIdsByStatus(_ context.Context, status string) ([]string, error) {
	ids := make([]string, 0)
	for _, experiment := range e.Experiments {
		if experiment.Status == status {
			ids = append(ids, experiment.Id)
		}
	}
	return ids, nil
}

func (e *ExperimentsMock) UpdateExperimentResults(ctx context.Context, id string, confidence *float64, leadingVariant *string) error {
	experiment, err := e.GetExperimentById(ctx, id)
	if err != nil {
		return err
	}
	experiment.Confidence = confidence
	experiment.LeadingVariant = leadingVariant
	return nil
}

var _ ExperimentService = &ExperimentsMock{}

type VariantsMock struct {
	Variants []*Variant
}

func (v *VariantsMock) ListVariants(_ context.Context, experimentId string) ([]*Variant, error) {
	matches := make([]*Variant, 0)
	for _, variant := range v.Variants {
		if variant.ExperimentId == experimentId {
			matches = append(matches, variant)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Position < matches[j].Position
	})
	return matches, nil
}

func (v *VariantsMock) GetVariant(_ context.Context, experimentId string, variantId string) (*Variant, error) {
	for _, variant := range v.Variants {
		if variant.Id == variantId && variant.ExperimentId == experimentId {
			return variant, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (v *VariantsMock) RecordImpression(ctx context.Context, experimentId string, variantId string) error {
	variant, err := v.GetVariant(ctx, experimentId, variantId)
	if err != nil {
		return err
	}
	variant.Impressions++
	return nil
}

func (v *VariantsMock) RecordConversion(ctx context.Context, experimentId string, variantId string, revenue float64) error {
	variant, err := v.GetVariant(ctx, experimentId, variantId)
	if err != nil {
		return err
	}
	variant.Conversions++
	variant.Revenue += revenue
	return nil
}

var _ VariantService = &VariantsMock{}

type TokensMock struct {
	Tokens []*ApiToken
}

func (t *TokensMock) CreateToken(_ context.Context, token *ApiToken) (*ApiToken, error) {
	if token.CreatedTs.IsZero() {
		token.CreatedTs = time.Now()
	}
	t.Tokens = append(t.Tokens, token)
	return token, nil
}

func (t *TokensMock) GetUserIdByTokenHash(_ context.Context, tokenHash string) (string, error) {
	for _, token := range t.Tokens {
		if token.TokenHash == tokenHash {
			return token.UserId, nil
		}
	}
	return "", sql.ErrNoRows
}

var _ TokenService = &TokensMock{}

func VariantGenerator() *rapid.Generator[*Variant] {
	return rapid.Custom(func(t *rapid.T) *Variant {
		return &Variant{
			Id:        uuid.NewString(),
			Name:      rapid.StringMatching("[a-z][a-z0-9_-]{2,15}").Draw(t, "name"),
			Weight:    rapid.Int64Range(0, 100).Draw(t, "weight"),
			IsControl: rapid.Bool().Draw(t, "isControl"),
		}
	})
}

func ExperimentGenerator(storeId string) *rapid.Generator[*Experiment] {
	return rapid.Custom(func(t *rapid.T) *Experiment {
		return &Experiment{
			Id:      uuid.NewString(),
			StoreId: storeId,
			Name:    rapid.StringMatching("[a-zA-Z][a-zA-Z0-9 ]{2,30}").Draw(t, "name"),
			Metric:  rapid.SampledFrom([]string{"conversion_rate", "revenue", "click_through"}).Draw(t, "metric"),
			Status:  "draft",
		}
	})
}
