// Package services contains the server-side business logic: AuthService for
// accounts and tokens, MarketService for profiles, listings and images.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dmitrijs2005/tradehub/internal/common"
	"github.com/dmitrijs2005/tradehub/internal/cryptox"
	"github.com/dmitrijs2005/tradehub/internal/dbx"
	"github.com/dmitrijs2005/tradehub/internal/logging"
	"github.com/dmitrijs2005/tradehub/internal/server/auth"
	"github.com/dmitrijs2005/tradehub/internal/server/config"
	"github.com/dmitrijs2005/tradehub/internal/server/models"
	"github.com/dmitrijs2005/tradehub/internal/server/repositories/repomanager"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Session is the result of a successful sign-up or sign-in.
type Session struct {
	Identity auth.Identity
	Tokens   *TokenPair
}

// ProfileStore is the part of MarketService the account lifecycle needs.
type ProfileStore interface {
	CreateProfile(ctx context.Context, id auth.Identity, fullName string) error
	DeleteProfileData(ctx context.Context, userID string) error
}

// AuthService is the identity provider: accounts with Argon2id password
// hashes, JWT access tokens and rotating refresh tokens.
type AuthService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	profiles                     ProfileStore
	logger                       logging.Logger
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, profiles ProfileStore, cfg *config.Config, l logging.Logger) *AuthService {
	return &AuthService{
		db:                           db,
		repomanager:                  m,
		profiles:                     profiles,
		logger:                       l.With("module", "auth_service"),
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// SignUp creates an account and its user document, then signs the new
// identity in. If the user document cannot be created the account and its
// refresh tokens are removed again so the email stays free.
func (s *AuthService) SignUp(ctx context.Context, email, password, fullName string) (*Session, error) {
	email = normalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	hash, salt := cryptox.HashPassword([]byte(password))
	account := &models.Account{Email: email, PasswordHash: hash, Salt: salt}

	var session *Session
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err := s.repomanager.Accounts(tx).Create(ctx, account)
		if err != nil {
			return err
		}
		id := auth.Identity{UserID: created.ID, Email: created.Email}
		pair, err := s.generateTokenPair(ctx, id, tx)
		if err != nil {
			return err
		}
		session = &Session{Identity: id, Tokens: pair}
		return nil
	}); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating account: %w", err)
	}

	if err := s.profiles.CreateProfile(ctx, session.Identity, fullName); err != nil {
		s.removeAccount(ctx, session.Identity.UserID)
		return nil, fmt.Errorf("error creating profile: %w", err)
	}

	s.logger.Info(ctx, "account created", "user", session.Identity.UserID)
	return session, nil
}

// SignIn checks the password and returns a new session. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	account, err := s.repomanager.Accounts(s.db).GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	if !cryptox.VerifyPassword([]byte(password), account.Salt, account.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}

	id := auth.Identity{UserID: account.ID, Email: account.Email}
	pair, err := s.generateTokenPair(ctx, id, s.db)
	if err != nil {
		return nil, err
	}
	return &Session{Identity: id, Tokens: pair}, nil
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.repomanager.RefreshTokens(s.db)

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expires.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	account, err := s.repomanager.Accounts(s.db).GetByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error loading account: %w", err)
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.RefreshTokens(tx)
		if err := repoTx.Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, auth.Identity{UserID: account.ID, Email: account.Email}, tx)
		return genErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// SignOut revokes refreshToken. Unknown tokens are ignored.
func (s *AuthService) SignOut(ctx context.Context, refreshToken string) error {
	if err := s.repomanager.RefreshTokens(s.db).Delete(ctx, refreshToken); err != nil {
		return fmt.Errorf("error deleting refresh token: %w", err)
	}
	return nil
}

// DeleteAccount re-checks the password, removes the identity's products and
// user document, then the account and all its refresh tokens.
func (s *AuthService) DeleteAccount(ctx context.Context, id auth.Identity, password string) error {
	if id.IsZero() {
		return common.ErrorUnauthorized
	}

	account, err := s.repomanager.Accounts(s.db).GetByID(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorUnauthorized
		}
		return fmt.Errorf("error loading account: %w", err)
	}
	if !cryptox.VerifyPassword([]byte(password), account.Salt, account.PasswordHash) {
		return common.ErrorUnauthorized
	}

	if err := s.profiles.DeleteProfileData(ctx, id.UserID); err != nil {
		return err
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).DeleteByUser(ctx, id.UserID); err != nil {
			return err
		}
		return s.repomanager.Accounts(tx).Delete(ctx, id.UserID)
	}); err != nil {
		return fmt.Errorf("error deleting account: %w", err)
	}

	s.logger.Info(ctx, "account deleted", "user", id.UserID)
	return nil
}

// removeAccount undoes a half-finished sign-up.
func (s *AuthService) removeAccount(ctx context.Context, userID string) {
	ctx = context.WithoutCancel(ctx)
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).DeleteByUser(ctx, userID); err != nil {
			return err
		}
		return s.repomanager.Accounts(tx).Delete(ctx, userID)
	}); err != nil {
		s.logger.Error(ctx, "error removing account after failed sign-up", "user", userID, "error", err)
	}
}

// Identify resolves an access token to the identity it was issued for.
func (s *AuthService) Identify(accessToken string) (auth.Identity, error) {
	return auth.ParseToken(accessToken, s.jwtSecret)
}

func (s *AuthService) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

func (s *AuthService) generateTokenPair(ctx context.Context, id auth.Identity, tx dbx.DBTX) (*TokenPair, error) {
	access, err := auth.GenerateToken(id, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := s.generateRefreshToken()
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := s.repomanager.RefreshTokens(tx).Create(ctx, id.UserID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: malformed email", common.ErrorInvalidArgument)
	}
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrorInvalidArgument, MinPasswordLength)
	}
	return nil
}
