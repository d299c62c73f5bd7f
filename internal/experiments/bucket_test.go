package experiments

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/splitpilot/splitpilot/internal/db"
)

func makeVariants(weights ...int64) []*db.Variant {
	variants := make([]*db.Variant, len(weights))
	for i, weight := range weights {
		variants[i] = &db.Variant{
			Id:       uuid.NewString(),
			Name:     fmt.Sprintf("variant-%d", i),
			Weight:   weight,
			Position: int64(i),
		}
	}
	return variants
}

func TestAssignEmptyVariants(t *testing.T) {
	_, err := Assign(uuid.NewString(), "visitor-1", nil)
	var notFound *NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestAssignDeterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		experimentId := rapid.StringMatching("[a-f0-9-]{36}").Draw(t, "experimentId")
		visitorId := rapid.StringMatching(".{1,64}").Draw(t, "visitorId")
		variants := makeVariants(50, 30, 20)

		first, err := Assign(experimentId, visitorId, variants)
		if err != nil {
			t.Fatalf("assign failed: %v", err)
		}
		for i := 0; i < 5; i++ {
			again, err := Assign(experimentId, visitorId, variants)
			if err != nil {
				t.Fatalf("assign failed: %v", err)
			}
			if again.Id != first.Id {
				t.Fatalf("assignment not stable: %s then %s", first.Id, again.Id)
			}
		}
	})
}

func TestAssignDependsOnBothIds(t *testing.T) {
	variants := makeVariants(50, 50)
	expA := uuid.NewString()
	expB := uuid.NewString()

	// With enough visitors, the two experiments must disagree somewhere,
	// otherwise the experiment id is not feeding the hash.
	differs := false
	for i := 0; i < 1000 && !differs; i++ {
		visitor := fmt.Sprintf("visitor-%d", i)
		a, err := Assign(expA, visitor, variants)
		require.NoError(t, err)
		b, err := Assign(expB, visitor, variants)
		require.NoError(t, err)
		differs = a.Id != b.Id
	}
	assert.True(t, differs)
}

func TestAssignWeightProportionality(t *testing.T) {
	const visitors = 100000
	experimentId := uuid.NewString()
	variants := makeVariants(50, 30, 20)

	counts := make(map[string]int)
	for i := 0; i < visitors; i++ {
		variant, err := Assign(experimentId, fmt.Sprintf("visitor-%d", i), variants)
		require.NoError(t, err)
		counts[variant.Id]++
	}

	assert.InDelta(t, 0.50, float64(counts[variants[0].Id])/visitors, 0.02)
	assert.InDelta(t, 0.30, float64(counts[variants[1].Id])/visitors, 0.02)
	assert.InDelta(t, 0.20, float64(counts[variants[2].Id])/visitors, 0.02)
}

func TestAssignZeroWeightsFallsBackToUniform(t *testing.T) {
	const visitors = 100000
	experimentId := uuid.NewString()
	variants := makeVariants(0, 0, 0)

	counts := make(map[string]int)
	for i := 0; i < visitors; i++ {
		variant, err := Assign(experimentId, fmt.Sprintf("visitor-%d", i), variants)
		require.NoError(t, err)
		require.NotNil(t, variant)
		counts[variant.Id]++
	}

	for _, variant := range variants {
		assert.InDelta(t, 1.0/3.0, float64(counts[variant.Id])/visitors, 0.02)
	}
}

func TestAssignZeroWeightVariantNeverPicked(t *testing.T) {
	experimentId := uuid.NewString()
	variants := makeVariants(100, 0)

	for i := 0; i < 1000; i++ {
		variant, err := Assign(experimentId, fmt.Sprintf("visitor-%d", i), variants)
		require.NoError(t, err)
		assert.Equal(t, variants[0].Id, variant.Id)
	}
}
