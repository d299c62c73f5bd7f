package notify

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/splitpilot/splitpilot/internal/db"
	"github.com/splitpilot/splitpilot/internal/experiments"
	"github.com/splitpilot/splitpilot/pkg/httpclient"
)

type WebhookVariant struct {
	Id          string  `json:"id"`
	Name        string  `json:"name"`
	IsControl   bool    `json:"is_control"`
	Impressions int64   `json:"impressions"`
	Conversions int64   `json:"conversions"`
	Revenue     float64 `json:"revenue"`
}

type WebhookPayload struct {
	Event          string           `json:"event"`
	TestId         string           `json:"test_id"`
	TestName       string           `json:"test_name"`
	StoreId        string           `json:"store_id"`
	Status         string           `json:"status"`
	LeadingVariant *string          `json:"leading_variant,omitempty"`
	Confidence     *float64         `json:"confidence,omitempty"`
	Variants       []WebhookVariant `json:"variants"`
}

// WebhookNotifier posts a completion payload to the store's webhook URL, if
// one is configured. Failures are logged and dropped, the store owner can
// always poll the results endpoint.
type WebhookNotifier struct {
	client *httpclient.Instance
}

var _ experiments.Notifier = &WebhookNotifier{}

func NewWebhookNotifier(client *httpclient.Instance) *WebhookNotifier {
	return &WebhookNotifier{
		client: client,
	}
}

func (n *WebhookNotifier) ExperimentCompleted(ctx context.Context, store *db.Store, experiment *db.Experiment, variants []*db.Variant) {
	if store.WebhookUrl == nil || *store.WebhookUrl == "" {
		return
	}

	results := experiments.ComputeResults(variants)
	payload := WebhookPayload{
		Event:          "test.completed",
		TestId:         experiment.Id,
		TestName:       experiment.Name,
		StoreId:        experiment.StoreId,
		Status:         experiment.Status,
		LeadingVariant: results.LeadingVariantId,
		Variants:       make([]WebhookVariant, len(variants)),
	}
	if results.LeadingVariantId != nil {
		confidence := results.Confidence
		payload.Confidence = &confidence
	}
	for i, variant := range variants {
		payload.Variants[i] = WebhookVariant{
			Id:          variant.Id,
			Name:        variant.Name,
			IsControl:   variant.IsControl,
			Impressions: variant.Impressions,
			Conversions: variant.Conversions,
			Revenue:     variant.Revenue,
		}
	}

	request := httpclient.NewRequest(ctx, http.MethodPost, *store.WebhookUrl,
		httpclient.BodyObj(payload),
		httpclient.RetryAttempts(3),
		httpclient.RetryFixedDelay(2*time.Second),
		httpclient.RetryIf(httpclient.RetryIfBaseError),
	)
	if herr := n.client.DoNoResponse(request); herr != nil {
		log.Printf("webhook delivery for test %s to %s failed: %s", experiment.Id, *store.WebhookUrl, herr)
	}
}
