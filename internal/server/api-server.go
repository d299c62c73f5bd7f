package server

import (
	"context"

	"github.com/splitpilot/splitpilot/internal/config"
	"github.com/splitpilot/splitpilot/internal/restapi"
	"github.com/splitpilot/splitpilot/pkg/app"
	"github.com/splitpilot/splitpilot/pkg/http/interceptors"
	interceptors_inflight "github.com/splitpilot/splitpilot/pkg/interceptors/in-flight"
	sbhttpbase "github.com/splitpilot/splitpilot/pkg/serverbase/http/base"
	sbhttpserver "github.com/splitpilot/splitpilot/pkg/serverbase/http/server"
	lsql "github.com/splitpilot/splitpilot/pkg/sql"
)

// ApiServer exposes the store-scoped test endpoints. All routes sit behind
// bearer auth and the in-flight limiter.
type ApiServer struct {
	app      *app.Instance
	cfg      *config.Config
	db       *lsql.Instance
	api      *restapi.TestsAPI
	auth     *restapi.Auth
	inflight *interceptors_inflight.Interceptor
}

var _ sbhttpserver.Server = &ApiServer{}

func NewApiServer(app *app.Instance, cfg *config.Config, db *lsql.Instance,
	api *restapi.TestsAPI, auth *restapi.Auth, inflight *interceptors_inflight.Interceptor) *ApiServer {
	return &ApiServer{
		app:      app,
		cfg:      cfg,
		db:       db,
		api:      api,
		auth:     auth,
		inflight: inflight,
	}
}

func NewHttpServers(apiServer *ApiServer) []sbhttpserver.Server {
	return []sbhttpserver.Server{
		apiServer,
	}
}

// Ready fails if we cannot ping the database in a reasonable time
func (s *ApiServer) Ready(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Live doesn't do any check. Just answering the request is enough evidence we're alive
func (s *ApiServer) Live(ctx context.Context) error {
	return nil
}

func (s *ApiServer) Shutdown() error {
	return nil
}

func (s *ApiServer) GetHandlers() []sbhttpserver.HandleDescription {
	authed := []sbhttpbase.RegistrableMiddleware{
		s.inflight.ToHTTP(),
		s.auth.Middleware(),
	}
	withBody := append([]sbhttpbase.RegistrableMiddleware{}, authed...)
	withBody = append(withBody, interceptors.HttpServerLimitSizeInterceptor(s.cfg.MaxBodyBytes))

	return []sbhttpserver.HandleDescription{
		{Method: "POST", Path: "/v1/stores/:store_id/ab-tests", Handler: s.api.CreateTest, Middleware: withBody},
		{Method: "GET", Path: "/v1/stores/:store_id/ab-tests", Handler: s.api.ListTests, Middleware: authed},
		{Method: "GET", Path: "/v1/stores/:store_id/ab-tests/:test_id", Handler: s.api.GetTest, Middleware: authed},
		{Method: "PATCH", Path: "/v1/stores/:store_id/ab-tests/:test_id", Handler: s.api.UpdateTest, Middleware: withBody},
		{Method: "DELETE", Path: "/v1/stores/:store_id/ab-tests/:test_id", Handler: s.api.DeleteTest, Middleware: authed},
		{Method: "POST", Path: "/v1/stores/:store_id/ab-tests/:test_id/events", Handler: s.api.RecordEvent, Middleware: withBody},
		{Method: "GET", Path: "/v1/stores/:store_id/ab-tests/:test_id/variant", Handler: s.api.AssignVariant, Middleware: authed},
	}
}
