package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/asthmaguard/internal/dbx"
	"github.com/dmitrijs2005/asthmaguard/internal/server/repositories/asthmaforms"
	"github.com/dmitrijs2005/asthmaguard/internal/server/repositories/sensors"
	"github.com/dmitrijs2005/asthmaguard/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can
// choose between the pool, a single connection and a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	AsthmaForms(db dbx.DBTX) asthmaforms.Repository
	Sensors(db dbx.DBTX) sensors.Repository
}
