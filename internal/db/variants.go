package db

import (
	"context"
)

type Variant struct {
	Id           string
	ExperimentId string
	Name         string
	Weight       int64
	IsControl    bool
	Config       *string
	Position     int64
	Impressions  int64
	Conversions  int64
	Revenue      float64
}

type VariantService interface {
	// ListVariants returns the experiment's variants ordered by position
	// ascending (creation order), which is also the bucketing walk order.
	ListVariants(ctx context.Context, experimentId string) ([]*Variant, error)
	GetVariant(ctx context.Context, experimentId string, variantId string) (*Variant, error)

	// Counter updates are single relative-update statements so concurrent
	// writers never lose increments.
	RecordImpression(ctx context.Context, experimentId string, variantId string) error
	RecordConversion(ctx context.Context, experimentId string, variantId string, revenue float64) error
}
