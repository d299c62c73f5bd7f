package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/splitpilot/splitpilot/internal/config"
	"github.com/splitpilot/splitpilot/internal/db"
	"github.com/splitpilot/splitpilot/internal/experiments"
	sbhttpbase "github.com/splitpilot/splitpilot/pkg/serverbase/http/base"
)

type fixture struct {
	api      *TestsAPI
	auth     *Auth
	database *db.MockDatabase
	ownerId  string
	storeId  string
	token    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := db.NewMockDatabase()
	ctx := context.Background()

	user, err := database.Users().CreateUser(ctx, &db.User{Email: "owner@example.com"})
	require.NoError(t, err)
	store, err := database.Stores().CreateStore(ctx, &db.Store{OwnerId: user.Id, Name: "shop"})
	require.NoError(t, err)

	token := "test-token"
	_, err = database.Tokens().CreateToken(ctx, &db.ApiToken{
		TokenHash: HashToken(token),
		UserId:    user.Id,
		Name:      "ci",
	})
	require.NoError(t, err)

	cfg := &config.Config{DefaultPageSize: 20, MaxPageSize: 100}
	service := experiments.NewService(database, nil)
	return &fixture{
		api:      NewTestsAPI(cfg, service),
		auth:     NewAuth(database),
		database: database,
		ownerId:  user.Id,
		storeId:  store.Id,
		token:    token,
	}
}

func (f *fixture) call(t *testing.T, handler sbhttpbase.HandleFunc, method string, target string, params map[string]string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	request := httptest.NewRequest(method, target, reader)
	request = request.WithContext(WithOwnerId(request.Context(), f.ownerId))
	recorder := httptest.NewRecorder()
	handler(&sbhttpbase.Request{
		Writer:  recorder,
		Request: request,
		Params:  params,
	})
	return recorder
}

func (f *fixture) createTest(t *testing.T) TestResponse {
	t.Helper()
	recorder := f.call(t, f.api.CreateTest, "POST", "/v1/stores/"+f.storeId+"/ab-tests",
		map[string]string{"store_id": f.storeId},
		CreateTestRequest{
			Name: "checkout button",
			Variants: []VariantRequest{
				{Name: "control", Weight: 50, IsControl: true},
				{Name: "treatment", Weight: 50},
			},
		})
	require.Equal(t, http.StatusCreated, recorder.Code)
	var response TestResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	return response
}

func (f *fixture) testParams(testId string) map[string]string {
	return map[string]string{"store_id": f.storeId, "test_id": testId}
}

func (f *fixture) startTest(t *testing.T, testId string) {
	t.Helper()
	status := "running"
	recorder := f.call(t, f.api.UpdateTest, "PATCH", "/v1/stores/"+f.storeId+"/ab-tests/"+testId,
		f.testParams(testId), UpdateTestRequest{Status: &status})
	require.Equal(t, http.StatusOK, recorder.Code)
}

func TestCreateAndGetTest(t *testing.T) {
	f := newFixture(t)
	created := f.createTest(t)
	assert.Equal(t, "draft", created.Status)
	assert.Equal(t, "conversion_rate", created.Metric)
	require.Len(t, created.Variants, 2)

	recorder := f.call(t, f.api.GetTest, "GET", "/v1/stores/"+f.storeId+"/ab-tests/"+created.Id,
		f.testParams(created.Id), nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var response TestResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, created.Id, response.Id)
	require.Len(t, response.Variants, 2)
	require.NotNil(t, response.Variants[0].ConversionRate)
	assert.Equal(t, 0.0, *response.Variants[0].ConversionRate)
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)

	recorder := f.call(t, f.api.CreateTest, "POST", "/v1/stores/"+f.storeId+"/ab-tests",
		map[string]string{"store_id": f.storeId},
		CreateTestRequest{
			Name:     "solo",
			Variants: []VariantRequest{{Name: "only", Weight: 100}},
		})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	request := httptest.NewRequest("POST", "/v1/stores/"+f.storeId+"/ab-tests", strings.NewReader("{not json"))
	recorder = httptest.NewRecorder()
	f.api.CreateTest(&sbhttpbase.Request{
		Writer:  recorder,
		Request: request,
		Params:  map[string]string{"store_id": f.storeId},
	})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestGetTestNotFound(t *testing.T) {
	f := newFixture(t)

	recorder := f.call(t, f.api.GetTest, "GET", "/v1/stores/"+f.storeId+"/ab-tests/missing",
		f.testParams("missing"), nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
	assert.Contains(t, body["error"], "not found")
}

func TestForeignStoreLooksAbsent(t *testing.T) {
	f := newFixture(t)
	created := f.createTest(t)

	stranger, err := f.database.Users().CreateUser(context.Background(), &db.User{Email: "stranger@example.com"})
	require.NoError(t, err)

	request := httptest.NewRequest("GET", "/v1/stores/"+f.storeId+"/ab-tests/"+created.Id, nil)
	request = request.WithContext(WithOwnerId(request.Context(), stranger.Id))
	recorder := httptest.NewRecorder()
	f.api.GetTest(&sbhttpbase.Request{
		Writer:  recorder,
		Request: request,
		Params:  f.testParams(created.Id),
	})
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestListPagination(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		recorder := f.call(t, f.api.CreateTest, "POST", "/v1/stores/"+f.storeId+"/ab-tests",
			map[string]string{"store_id": f.storeId},
			CreateTestRequest{
				Name: fmt.Sprintf("test %d", i),
				Variants: []VariantRequest{
					{Name: "control", Weight: 50, IsControl: true},
					{Name: "treatment", Weight: 50},
				},
			})
		require.Equal(t, http.StatusCreated, recorder.Code)
	}

	recorder := f.call(t, f.api.ListTests, "GET", "/v1/stores/"+f.storeId+"/ab-tests",
		map[string]string{"store_id": f.storeId}, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var response TestListResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, int64(3), response.Total)
	assert.Equal(t, int64(1), response.Page)
	assert.Equal(t, int64(20), response.PerPage)
	assert.Len(t, response.Items, 3)

	recorder = f.call(t, f.api.ListTests, "GET", "/v1/stores/"+f.storeId+"/ab-tests?per_page=2&page=2",
		map[string]string{"store_id": f.storeId}, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, int64(3), response.Total)
	assert.Equal(t, int64(2), response.Page)
	assert.Len(t, response.Items, 1)
}

func TestUpdateTransitionRejected(t *testing.T) {
	f := newFixture(t)
	created := f.createTest(t)

	status := "completed"
	recorder := f.call(t, f.api.UpdateTest, "PATCH", "/v1/stores/"+f.storeId+"/ab-tests/"+created.Id,
		f.testParams(created.Id), UpdateTestRequest{Status: &status})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	var body map[string]string
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&body))
	assert.Contains(t, body["error"], "cannot transition")
}

func TestDeletePrecondition(t *testing.T) {
	f := newFixture(t)
	created := f.createTest(t)
	f.startTest(t, created.Id)

	recorder := f.call(t, f.api.DeleteTest, "DELETE", "/v1/stores/"+f.storeId+"/ab-tests/"+created.Id,
		f.testParams(created.Id), nil)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	draft := f.createTest(t)
	recorder = f.call(t, f.api.DeleteTest, "DELETE", "/v1/stores/"+f.storeId+"/ab-tests/"+draft.Id,
		f.testParams(draft.Id), nil)
	assert.Equal(t, http.StatusNoContent, recorder.Code)
}

func TestRecordEventGating(t *testing.T) {
	f := newFixture(t)
	created := f.createTest(t)
	variantId := created.Variants[0].Id

	recorder := f.call(t, f.api.RecordEvent, "POST", "/v1/stores/"+f.storeId+"/ab-tests/"+created.Id+"/events",
		f.testParams(created.Id), EventRequest{VariantId: variantId, EventType: "impression"})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	f.startTest(t, created.Id)

	recorder = f.call(t, f.api.RecordEvent, "POST", "/v1/stores/"+f.storeId+"/ab-tests/"+created.Id+"/events",
		f.testParams(created.Id), EventRequest{VariantId: variantId, EventType: "impression"})
	require.Equal(t, http.StatusOK, recorder.Code)

	var response EventResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.True(t, response.Recorded)

	revenue := 12.5
	recorder = f.call(t, f.api.RecordEvent, "POST", "/v1/stores/"+f.storeId+"/ab-tests/"+created.Id+"/events",
		f.testParams(created.Id), EventRequest{VariantId: variantId, EventType: "conversion", Revenue: &revenue})
	require.Equal(t, http.StatusOK, recorder.Code)

	variant, err := f.database.Variants().GetVariant(context.Background(), created.Id, variantId)
	require.NoError(t, err)
	assert.Equal(t, int64(1), variant.Impressions)
	assert.Equal(t, int64(1), variant.Conversions)
	assert.Equal(t, 12.5, variant.Revenue)
}

func TestRecordEventUnknownType(t *testing.T) {
	f := newFixture(t)
	created := f.createTest(t)
	f.startTest(t, created.Id)

	recorder := f.call(t, f.api.RecordEvent, "POST", "/v1/stores/"+f.storeId+"/ab-tests/"+created.Id+"/events",
		f.testParams(created.Id), EventRequest{VariantId: created.Variants[0].Id, EventType: "click"})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestAssignVariant(t *testing.T) {
	f := newFixture(t)
	created := f.createTest(t)

	recorder := f.call(t, f.api.AssignVariant, "GET",
		"/v1/stores/"+f.storeId+"/ab-tests/"+created.Id+"/variant?visitor_id=v1",
		f.testParams(created.Id), nil)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	f.startTest(t, created.Id)

	recorder = f.call(t, f.api.AssignVariant, "GET",
		"/v1/stores/"+f.storeId+"/ab-tests/"+created.Id+"/variant",
		f.testParams(created.Id), nil)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)

	rapid.Check(t, func(rt *rapid.T) {
		visitorId := rapid.StringMatching("[a-zA-Z0-9-]{1,32}").Draw(rt, "visitorId")

		first := f.call(t, f.api.AssignVariant, "GET",
			"/v1/stores/"+f.storeId+"/ab-tests/"+created.Id+"/variant?visitor_id="+visitorId,
			f.testParams(created.Id), nil)
		require.Equal(t, http.StatusOK, first.Code)
		var a AssignmentResponse
		require.NoError(t, json.NewDecoder(first.Body).Decode(&a))

		second := f.call(t, f.api.AssignVariant, "GET",
			"/v1/stores/"+f.storeId+"/ab-tests/"+created.Id+"/variant?visitor_id="+visitorId,
			f.testParams(created.Id), nil)
		require.Equal(t, http.StatusOK, second.Code)
		var b AssignmentResponse
		require.NoError(t, json.NewDecoder(second.Body).Decode(&b))

		assert.Equal(t, a.VariantId, b.VariantId)
		assert.Equal(t, created.Id, a.TestId)
	})
}

func TestAuthMiddleware(t *testing.T) {
	f := newFixture(t)

	invoke := func(authorization string) (*httptest.ResponseRecorder, bool, string) {
		request := httptest.NewRequest("GET", "/v1/stores/"+f.storeId+"/ab-tests", nil)
		if authorization != "" {
			request.Header.Set("Authorization", authorization)
		}
		recorder := httptest.NewRecorder()
		called := false
		ownerId := ""
		f.auth.Middleware()(&sbhttpbase.Request{
			Writer:  recorder,
			Request: request,
			Params:  map[string]string{"store_id": f.storeId},
		}, func(request *sbhttpbase.Request) {
			called = true
			ownerId = OwnerIdFromContext(request.Request.Context())
		})
		return recorder, called, ownerId
	}

	recorder, called, _ := invoke("")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.False(t, called)

	recorder, called, _ = invoke("Bearer wrong-token")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.False(t, called)

	recorder, called, ownerId := invoke("Bearer " + f.token)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, called)
	assert.Equal(t, f.ownerId, ownerId)
}
