package restapi

import (
	"time"

	"github.com/splitpilot/splitpilot/internal/db"
	"github.com/splitpilot/splitpilot/internal/experiments"
)

type VariantRequest struct {
	Name      string  `json:"name"`
	Weight    int64   `json:"weight"`
	IsControl bool    `json:"is_control"`
	Config    *string `json:"config,omitempty"`
}

type CreateTestRequest struct {
	Name        string           `json:"name"`
	Description *string          `json:"description,omitempty"`
	Metric      string           `json:"metric,omitempty"`
	Variants    []VariantRequest `json:"variants"`
}

type UpdateTestRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
}

type EventRequest struct {
	VariantId string   `json:"variant_id"`
	EventType string   `json:"event_type"`
	Revenue   *float64 `json:"revenue,omitempty"`
}

type EventResponse struct {
	Recorded bool `json:"recorded"`
}

type ListQuery struct {
	Page    int64 `schema:"page"`
	PerPage int64 `schema:"per_page"`
}

type AssignQuery struct {
	VisitorId string `schema:"visitor_id"`
}

type VariantResponse struct {
	Id             string   `json:"id"`
	Name           string   `json:"name"`
	Weight         int64    `json:"weight"`
	IsControl      bool     `json:"is_control"`
	Config         *string  `json:"config,omitempty"`
	Impressions    int64    `json:"impressions"`
	Conversions    int64    `json:"conversions"`
	Revenue        float64  `json:"revenue"`
	ConversionRate *float64 `json:"conversion_rate,omitempty"`
	CILower        *float64 `json:"ci_lower,omitempty"`
	CIUpper        *float64 `json:"ci_upper,omitempty"`
}

type TestResponse struct {
	Id             string            `json:"id"`
	StoreId        string            `json:"store_id"`
	Name           string            `json:"name"`
	Description    *string           `json:"description,omitempty"`
	Metric         string            `json:"metric"`
	Status         string            `json:"status"`
	Confidence     *float64          `json:"confidence,omitempty"`
	LeadingVariant *string           `json:"leading_variant,omitempty"`
	CreatedTs      time.Time         `json:"created_ts"`
	UpdatedTs      time.Time         `json:"updated_ts"`
	Variants       []VariantResponse `json:"variants,omitempty"`
}

type TestListResponse struct {
	Items   []TestResponse `json:"items"`
	Total   int64          `json:"total"`
	Page    int64          `json:"page"`
	PerPage int64          `json:"per_page"`
}

type AssignmentResponse struct {
	TestId      string  `json:"test_id"`
	VariantId   string  `json:"variant_id"`
	VariantName string  `json:"variant_name"`
	Config      *string `json:"config,omitempty"`
}

func toTestResponse(experiment *db.Experiment, variants []*db.Variant, results *experiments.Results) TestResponse {
	response := TestResponse{
		Id:             experiment.Id,
		StoreId:        experiment.StoreId,
		Name:           experiment.Name,
		Description:    experiment.Description,
		Metric:         experiment.Metric,
		Status:         experiment.Status,
		Confidence:     experiment.Confidence,
		LeadingVariant: experiment.LeadingVariant,
		CreatedTs:      experiment.CreatedTs,
		UpdatedTs:      experiment.UpdatedTs,
	}
	if results != nil {
		if results.LeadingVariantId != nil {
			response.LeadingVariant = results.LeadingVariantId
			confidence := results.Confidence
			response.Confidence = &confidence
		}
		response.Variants = make([]VariantResponse, len(variants))
		for i, variant := range variants {
			vr := results.Variants[i]
			response.Variants[i] = toVariantResponse(variant)
			rate := vr.Rate
			lower := vr.CILower
			upper := vr.CIUpper
			response.Variants[i].ConversionRate = &rate
			response.Variants[i].CILower = &lower
			response.Variants[i].CIUpper = &upper
		}
	} else if variants != nil {
		response.Variants = make([]VariantResponse, len(variants))
		for i, variant := range variants {
			response.Variants[i] = toVariantResponse(variant)
		}
	}
	return response
}

func toVariantResponse(variant *db.Variant) VariantResponse {
	return VariantResponse{
		Id:          variant.Id,
		Name:        variant.Name,
		Weight:      variant.Weight,
		IsControl:   variant.IsControl,
		Config:      variant.Config,
		Impressions: variant.Impressions,
		Conversions: variant.Conversions,
		Revenue:     variant.Revenue,
	}
}
