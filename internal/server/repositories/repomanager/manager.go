package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/tradehub/internal/dbx"
	"github.com/dmitrijs2005/tradehub/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/tradehub/internal/server/repositories/refreshtokens"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
