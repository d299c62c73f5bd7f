package main

import (
	log "github.com/sirupsen/logrus"

	"github.com/splitpilot/splitpilot/internal/config"
	"github.com/splitpilot/splitpilot/internal/db"
	postgresmig "github.com/splitpilot/splitpilot/internal/migrations/postgres"
	sqlitemig "github.com/splitpilot/splitpilot/internal/migrations/sqlite"
	"github.com/splitpilot/splitpilot/internal/reconcilers"
	"github.com/splitpilot/splitpilot/pkg/app"
	sbhttpserver "github.com/splitpilot/splitpilot/pkg/serverbase/http/server"
	lsql "github.com/splitpilot/splitpilot/pkg/sql"
	lmigration "github.com/splitpilot/splitpilot/pkg/sql/migration"
)

type dependencies struct {
	cfg         *config.Config
	app         *app.Instance
	svc         *sbhttpserver.Instance
	servers     []sbhttpserver.Server
	database    db.Database
	migration   *lmigration.Migration
	reconcilers *reconcilers.ReconcilerSet
}

func NewMigration(appCfg *config.Config, cfg *lsql.Config) (*lmigration.Migration, error) {
	if appCfg.Migrate {
		return lmigration.NewMigration(cfg, map[string]lmigration.MigrationSet{
			"postgres": {AssetNames: postgresmig.AssetNames, Asset: postgresmig.Asset},
			"sqlite":   {AssetNames: sqlitemig.AssetNames, Asset: sqlitemig.Asset},
		})
	}
	return nil, nil
}

func newDependencies(app *app.Instance, cfg *config.Config, svc *sbhttpserver.Instance,
	servers []sbhttpserver.Server, database db.Database, migration *lmigration.Migration,
	reconcilerSet *reconcilers.ReconcilerSet) *dependencies {
	return &dependencies{
		cfg:         cfg,
		app:         app,
		svc:         svc,
		servers:     servers,
		database:    database,
		migration:   migration,
		reconcilers: reconcilerSet,
	}
}

func main() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
	log.SetReportCaller(true)
	deps, err := InitializeDependencies()
	if err != nil {
		log.Fatalf("failed to initialize app: %v", err)
	}

	if deps.cfg.Migrate {
		if err := deps.migration.Run(deps.cfg.MigrationVersion); err != nil {
			panic(err)
		}
	}

	if err := deps.svc.Register(sbhttpserver.NewMultiServer(deps.servers)); err != nil {
		panic(err)
	}
	if err := deps.svc.Serve(); err != nil {
		panic(err)
	}

	deps.reconcilers.Start()
	defer deps.reconcilers.Finish()

	deps.app.WaitForFinish()
}
