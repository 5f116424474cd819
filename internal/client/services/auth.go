// Package services contains the application services of the TradeHub CLI.
// This file keeps the signed-in session: it persists the identity and token
// pair in the local database and restores them on start.
package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/tradehub/internal/client/adapter"
	"github.com/dmitrijs2005/tradehub/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/tradehub/internal/client/repositories/wishlist"
	"github.com/dmitrijs2005/tradehub/internal/common"
	"github.com/dmitrijs2005/tradehub/internal/dbx"
	"github.com/dmitrijs2005/tradehub/internal/logging"
)

// Metadata keys of the persisted session.
const (
	KeyUserID       = "user_id"
	KeyEmail        = "email"
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
)

// Accounts is the part of the service adapter dealing with identities.
type Accounts interface {
	Ping(ctx context.Context) adapter.Result
	SignUp(ctx context.Context, email, password, fullName string) (adapter.Identity, adapter.Result)
	SignIn(ctx context.Context, email, password string) (adapter.Identity, adapter.Result)
	SignOut(ctx context.Context) adapter.Result
	DeleteAccount(ctx context.Context, id adapter.Identity, password string) adapter.Result
}

// TokenHolder is implemented by client.Client.
type TokenHolder interface {
	SetTokens(accessToken, refreshToken string)
	OnTokens(fn func(accessToken, refreshToken string))
	Close() error
}

// AuthService defines session operations for the CLI. Passwords are taken
// as byte slices so callers can wipe them afterwards.
type AuthService interface {
	// Restore loads a persisted session; ok is false when there is none.
	Restore(ctx context.Context) (id adapter.Identity, ok bool)
	Register(ctx context.Context, email string, password []byte, fullName string) (adapter.Identity, adapter.Result)
	Login(ctx context.Context, email string, password []byte) (adapter.Identity, adapter.Result)
	// Logout always forgets the local session, even if the server call fails.
	Logout(ctx context.Context) adapter.Result
	// DeleteAccount also removes the local session and wishlist of id.
	DeleteAccount(ctx context.Context, id adapter.Identity, password []byte) adapter.Result
	Ping(ctx context.Context) adapter.Result
	Close(ctx context.Context) error
}

type authService struct {
	api    Accounts
	tokens TokenHolder
	db     *sql.DB
	logger logging.Logger
}

// NewAuthService wires token persistence into tokens: every new pair,
// including transparently refreshed ones, is written to db.
func NewAuthService(api Accounts, tokens TokenHolder, db *sql.DB, l logging.Logger) AuthService {
	a := &authService{api: api, tokens: tokens, db: db, logger: l.With("module", "auth_service")}
	tokens.OnTokens(a.persistTokens)
	return a
}

func (a *authService) persistTokens(accessToken, refreshToken string) {
	ctx := context.Background()
	err := dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if accessToken == "" && refreshToken == "" {
			if err := repo.Delete(ctx, KeyAccessToken); err != nil {
				return err
			}
			return repo.Delete(ctx, KeyRefreshToken)
		}
		if err := repo.Set(ctx, KeyAccessToken, accessToken); err != nil {
			return err
		}
		return repo.Set(ctx, KeyRefreshToken, refreshToken)
	})
	if err != nil {
		a.logger.Error(ctx, "failed to persist tokens", "error", err)
	}
}

func (a *authService) Restore(ctx context.Context) (adapter.Identity, bool) {
	repo := metadata.NewSQLiteRepository(a.db)

	values := make(map[string]string, 4)
	for _, k := range []string{KeyUserID, KeyEmail, KeyAccessToken, KeyRefreshToken} {
		v, err := repo.Get(ctx, k)
		if err != nil {
			if !errors.Is(err, common.ErrorNotFound) {
				a.logger.Error(ctx, "failed to restore session", "error", err)
			}
			return adapter.Identity{}, false
		}
		values[k] = v
	}

	a.tokens.SetTokens(values[KeyAccessToken], values[KeyRefreshToken])
	return adapter.Identity{UserID: values[KeyUserID], Email: values[KeyEmail]}, true
}

func (a *authService) saveIdentity(ctx context.Context, id adapter.Identity) error {
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, KeyUserID, id.UserID); err != nil {
			return err
		}
		return repo.Set(ctx, KeyEmail, id.Email)
	})
}

func (a *authService) startSession(ctx context.Context, id adapter.Identity, res adapter.Result) (adapter.Identity, adapter.Result) {
	if !res.OK() {
		return adapter.Identity{}, res
	}
	if err := a.saveIdentity(ctx, id); err != nil {
		// the session still works for this run
		a.logger.Error(ctx, "failed to save session", "error", err)
	}
	return id, res
}

func (a *authService) Register(ctx context.Context, email string, password []byte, fullName string) (adapter.Identity, adapter.Result) {
	id, res := a.api.SignUp(ctx, email, string(password), fullName)
	return a.startSession(ctx, id, res)
}

func (a *authService) Login(ctx context.Context, email string, password []byte) (adapter.Identity, adapter.Result) {
	id, res := a.api.SignIn(ctx, email, string(password))
	return a.startSession(ctx, id, res)
}

func (a *authService) Logout(ctx context.Context) adapter.Result {
	res := a.api.SignOut(ctx)
	a.tokens.SetTokens("", "")
	if err := a.clearSession(ctx); err != nil {
		return adapter.Result{Status: adapter.Transient, Err: err}
	}
	return res
}

func (a *authService) DeleteAccount(ctx context.Context, id adapter.Identity, password []byte) adapter.Result {
	res := a.api.DeleteAccount(ctx, id, string(password))
	if !res.OK() {
		return res
	}
	a.tokens.SetTokens("", "")

	err := dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := metadata.NewSQLiteRepository(tx).Clear(ctx); err != nil {
			return err
		}
		return wishlist.NewSQLiteRepository(tx).Clear(ctx, id.UserID)
	})
	if err != nil {
		a.logger.Error(ctx, "failed to clear local data", "error", err)
	}
	return res
}

func (a *authService) clearSession(ctx context.Context) error {
	return metadata.NewSQLiteRepository(a.db).Clear(ctx)
}

func (a *authService) Ping(ctx context.Context) adapter.Result {
	return a.api.Ping(ctx)
}

func (a *authService) Close(ctx context.Context) error {
	return a.tokens.Close()
}
