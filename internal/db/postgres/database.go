package postgres

import (
	log "github.com/sirupsen/logrus"

	"github.com/splitpilot/splitpilot/internal/db"
	lsql "github.com/splitpilot/splitpilot/pkg/sql"
)

type Database struct {
	users       db.UserService
	stores      db.StoreService
	experiments db.ExperimentService
	variants    db.VariantService
	tokens      db.TokenService
}

var _ db.Database = &Database{}

func NewInstance(cfg *lsql.Config) (*lsql.Instance, error) {
	if cfg.DatabaseName == "" {
		panic("database name is empty")
	}
	log.Printf("Connecting to %s database %s", cfg.Engine, cfg.DatabaseName)
	return lsql.NewInstance(cfg)
}

func NewDatabase(users db.UserService, stores db.StoreService, experiments db.ExperimentService, variants db.VariantService, tokens db.TokenService) db.Database {
	return &Database{
		users:       users,
		stores:      stores,
		experiments: experiments,
		variants:    variants,
		tokens:      tokens,
	}
}

func (d *Database) Users() db.UserService             { return d.users }
func (d *Database) Stores() db.StoreService           { return d.stores }
func (d *Database) Experiments() db.ExperimentService { return d.experiments }
func (d *Database) Variants() db.VariantService       { return d.variants }
func (d *Database) Tokens() db.TokenService           { return d.tokens }
