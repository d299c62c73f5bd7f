package restapi

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/schema"

	"github.com/splitpilot/splitpilot/internal/config"
	"github.com/splitpilot/splitpilot/internal/experiments"
	sbhttp "github.com/splitpilot/splitpilot/pkg/serverbase/http"
	sbhttpbase "github.com/splitpilot/splitpilot/pkg/serverbase/http/base"
)

type TestsAPI struct {
	cfg     *config.Config
	service *experiments.Service
	decoder *schema.Decoder
}

func NewTestsAPI(cfg *config.Config, service *experiments.Service) *TestsAPI {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	return &TestsAPI{
		cfg:     cfg,
		service: service,
		decoder: decoder,
	}
}

func (a *TestsAPI) CreateTest(request *sbhttpbase.Request) {
	ctx := request.Request.Context()
	storeId := request.Params["store_id"]

	var body CreateTestRequest
	if err := json.NewDecoder(request.Request.Body).Decode(&body); err != nil {
		sbhttp.ReturnError(request.Writer, http.StatusBadRequest, "invalid request body", err)
		return
	}

	params := experiments.CreateParams{
		Name:        body.Name,
		Description: body.Description,
		Metric:      body.Metric,
		Variants:    make([]experiments.VariantParams, len(body.Variants)),
	}
	for i, variant := range body.Variants {
		params.Variants[i] = experiments.VariantParams{
			Name:      variant.Name,
			Weight:    variant.Weight,
			IsControl: variant.IsControl,
			Config:    variant.Config,
		}
	}

	experiment, variants, err := a.service.Create(ctx, storeId, OwnerIdFromContext(ctx), params)
	if err != nil {
		returnServiceError(request.Writer, err)
		return
	}
	sbhttp.WriteJson(request.Writer, http.StatusCreated, toTestResponse(experiment, variants, nil))
}

func (a *TestsAPI) ListTests(request *sbhttpbase.Request) {
	ctx := request.Request.Context()
	storeId := request.Params["store_id"]

	var query ListQuery
	if err := a.decoder.Decode(&query, request.Request.URL.Query()); err != nil {
		sbhttp.ReturnError(request.Writer, http.StatusBadRequest, "invalid query parameters", err)
		return
	}
	if query.Page < 1 {
		query.Page = 1
	}
	if query.PerPage < 1 {
		query.PerPage = a.cfg.DefaultPageSize
	}
	if query.PerPage > a.cfg.MaxPageSize {
		query.PerPage = a.cfg.MaxPageSize
	}

	tests, total, err := a.service.List(ctx, storeId, OwnerIdFromContext(ctx), query.PerPage, query.Page-1)
	if err != nil {
		returnServiceError(request.Writer, err)
		return
	}

	response := TestListResponse{
		Items:   make([]TestResponse, len(tests)),
		Total:   total,
		Page:    query.Page,
		PerPage: query.PerPage,
	}
	for i, experiment := range tests {
		response.Items[i] = toTestResponse(experiment, nil, nil)
	}
	sbhttp.WriteJson(request.Writer, http.StatusOK, response)
}

func (a *TestsAPI) GetTest(request *sbhttpbase.Request) {
	ctx := request.Request.Context()

	experiment, variants, err := a.service.Get(ctx, request.Params["store_id"], OwnerIdFromContext(ctx), request.Params["test_id"])
	if err != nil {
		returnServiceError(request.Writer, err)
		return
	}

	results := experiments.ComputeResults(variants)
	sbhttp.WriteJson(request.Writer, http.StatusOK, toTestResponse(experiment, variants, results))
}

func (a *TestsAPI) UpdateTest(request *sbhttpbase.Request) {
	ctx := request.Request.Context()

	var body UpdateTestRequest
	if err := json.NewDecoder(request.Request.Body).Decode(&body); err != nil {
		sbhttp.ReturnError(request.Writer, http.StatusBadRequest, "invalid request body", err)
		return
	}

	params := experiments.UpdateParams{
		Name:        body.Name,
		Description: body.Description,
	}
	if body.Status != nil {
		status := experiments.Status(*body.Status)
		params.Status = &status
	}

	experiment, err := a.service.Update(ctx, request.Params["store_id"], OwnerIdFromContext(ctx), request.Params["test_id"], params)
	if err != nil {
		returnServiceError(request.Writer, err)
		return
	}
	sbhttp.WriteJson(request.Writer, http.StatusOK, toTestResponse(experiment, nil, nil))
}

func (a *TestsAPI) DeleteTest(request *sbhttpbase.Request) {
	ctx := request.Request.Context()

	err := a.service.Delete(ctx, request.Params["store_id"], OwnerIdFromContext(ctx), request.Params["test_id"])
	if err != nil {
		returnServiceError(request.Writer, err)
		return
	}
	request.Writer.WriteHeader(http.StatusNoContent)
}

func (a *TestsAPI) RecordEvent(request *sbhttpbase.Request) {
	ctx := request.Request.Context()

	var body EventRequest
	if err := json.NewDecoder(request.Request.Body).Decode(&body); err != nil {
		sbhttp.ReturnError(request.Writer, http.StatusBadRequest, "invalid request body", err)
		return
	}

	err := a.service.RecordEvent(ctx, request.Params["store_id"], OwnerIdFromContext(ctx), request.Params["test_id"],
		body.VariantId, body.EventType, body.Revenue)
	if err != nil {
		returnServiceError(request.Writer, err)
		return
	}
	sbhttp.WriteJson(request.Writer, http.StatusOK, EventResponse{Recorded: true})
}

func (a *TestsAPI) AssignVariant(request *sbhttpbase.Request) {
	ctx := request.Request.Context()

	var query AssignQuery
	if err := a.decoder.Decode(&query, request.Request.URL.Query()); err != nil {
		sbhttp.ReturnError(request.Writer, http.StatusBadRequest, "invalid query parameters", err)
		return
	}

	testId := request.Params["test_id"]
	variant, err := a.service.AssignVariant(ctx, request.Params["store_id"], OwnerIdFromContext(ctx), testId, query.VisitorId)
	if err != nil {
		returnServiceError(request.Writer, err)
		return
	}
	sbhttp.WriteJson(request.Writer, http.StatusOK, AssignmentResponse{
		TestId:      testId,
		VariantId:   variant.Id,
		VariantName: variant.Name,
		Config:      variant.Config,
	})
}
