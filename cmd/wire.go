//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/splitpilot/splitpilot/internal/config"
	"github.com/splitpilot/splitpilot/internal/db/postgres"
	"github.com/splitpilot/splitpilot/internal/experiments"
	"github.com/splitpilot/splitpilot/internal/notify"
	"github.com/splitpilot/splitpilot/internal/reconcilers"
	recresults "github.com/splitpilot/splitpilot/internal/reconcilers/results"
	"github.com/splitpilot/splitpilot/internal/restapi"
	"github.com/splitpilot/splitpilot/internal/server"
	"github.com/splitpilot/splitpilot/pkg/app"
	"github.com/splitpilot/splitpilot/pkg/httpclient"
	interceptors_inflight "github.com/splitpilot/splitpilot/pkg/interceptors/in-flight"
	sbhttpserver "github.com/splitpilot/splitpilot/pkg/serverbase/http/server"
	lsql "github.com/splitpilot/splitpilot/pkg/sql"
)

// wire up the dependencies.
func InitializeDependencies() (*dependencies, error) {
	wire.Build(config.NewConfigFromEnv, app.NewInstance,
		sbhttpserver.NewConfigFromEnv, sbhttpserver.NewInstance,
		lsql.NewConfigFromEnv, postgres.NewInstance,
		postgres.NewUsers, postgres.NewStores, postgres.NewExperiments,
		postgres.NewVariants, postgres.NewTokens, postgres.NewDatabase,
		NewMigration,
		httpclient.NewConfigFromEnv, httpclient.NewInstance,
		notify.NewWebhookNotifier,
		wire.Bind(new(experiments.Notifier), new(*notify.WebhookNotifier)),
		experiments.NewService,
		restapi.NewTestsAPI, restapi.NewAuth,
		interceptors_inflight.NewConfigFromEnv, interceptors_inflight.NewInterceptor,
		server.NewApiServer, server.NewHttpServers,
		recresults.NewConfigFromEnv, recresults.NewReconciler,
		reconcilers.NewReconcilerSet,
		newDependencies)
	return &dependencies{}, nil
}
