package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dmitrijs2005/tradehub/internal/client/adapter"
	"github.com/dmitrijs2005/tradehub/internal/client/client"
	"github.com/dmitrijs2005/tradehub/internal/client/config"
	"github.com/dmitrijs2005/tradehub/internal/client/repositories/wishlist"
	"github.com/dmitrijs2005/tradehub/internal/client/services"
	"github.com/dmitrijs2005/tradehub/internal/client/state"
	"github.com/dmitrijs2005/tradehub/internal/filex"
	"github.com/dmitrijs2005/tradehub/internal/logging"
	"github.com/dmitrijs2005/tradehub/internal/models"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const (
	databaseFile        = "tradehub.db"
	onlineCheckInterval = 15 * time.Second
)

// catalog is the part of the service adapter used directly by commands; the
// rest goes through the state containers.
type catalog interface {
	GetUser(ctx context.Context, userID string) (*models.User, adapter.Result)
	GetProduct(ctx context.Context, productID string) (*models.Product, adapter.Result)
	UploadImage(ctx context.Context, id adapter.Identity, fileName, contentType string, data []byte) (string, adapter.Result)
}

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	authService services.AuthService
	catalog     catalog

	products *state.Products
	user     *state.User
	wishlist *state.Wishlist

	identity adapter.Identity
	unwatch  func()

	modeMu sync.Mutex
	mode   Mode

	reader *bufio.Reader
	out    io.Writer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stderr, c.LogLevel)

	dir, err := filex.EnsureSubdDir(c.DataDir)
	if err != nil {
		return nil, fmt.Errorf("error preparing data directory: %w", err)
	}

	db, err := client.InitDatabase(ctx, filepath.Join(dir, databaseFile))
	if err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}

	apiClient, err := client.NewTradeHubClient(c.ServerEndpointAddr, c.RequestTimeout)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	api := adapter.New(apiClient, logger)

	return &App{
		config:      c,
		logger:      logger.With("module", "cli"),
		db:          db,
		authService: services.NewAuthService(api, apiClient, db, logger),
		catalog:     api,
		products:    state.NewProducts(api, logger),
		user:        state.NewUser(api, logger),
		wishlist:    state.NewWishlist(wishlist.NewSQLiteRepository(db), logger),
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
	}, nil
}

// Run restores the previous session and blocks in the REPL until the user
// exits or ctx is done.
func (a *App) Run(ctx context.Context) {
	defer a.close(ctx)

	fmt.Fprintln(a.out, "Welcome to TradeHub (type 'help' for commands)")

	if id, ok := a.authService.Restore(ctx); ok {
		a.signedIn(ctx, id)
		fmt.Fprintf(a.out, "Signed in as %s\n", id.Email)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.StartOnlineStatusWatcher(watchCtx, onlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) close(ctx context.Context) {
	a.stopWatch()
	a.products.Close()
	a.user.Close()
	a.wishlist.Close()
	if err := a.authService.Close(ctx); err != nil {
		a.logger.Warn(ctx, "error closing client", "error", err)
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn(ctx, "error closing database", "error", err)
	}
}

func (a *App) isLoggedIn() bool {
	return !a.identity.IsZero()
}

func (a *App) getStatus() string {
	s := ""
	if a.identity.Email != "" {
		s = a.identity.Email + " "
	}
	s += string(a.getMode())
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

func (a *App) getMode() Mode {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	return a.mode
}

func (a *App) setMode(mode Mode) {
	a.modeMu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.modeMu.Unlock()

	if changed {
		a.logger.Info(context.Background(), "connectivity changed", "mode", string(mode))
	}
}

// StartOnlineStatusWatcher pings the server every interval and flips the
// mode shown in the prompt.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	a.checkOnline(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if a.authService.Ping(ctx).OK() {
		a.setMode(ModeOnline)
	} else {
		a.setMode(ModeOffline)
	}
}

// signedIn installs id and warms the user and wishlist containers.
func (a *App) signedIn(ctx context.Context, id adapter.Identity) {
	a.identity = id
	if _, res := a.user.Load(ctx, id.UserID); !res.OK() {
		a.logger.Warn(ctx, "profile not loaded", "status", res.Status.String())
	}
	if _, res := a.wishlist.Load(ctx, id.UserID); !res.OK() {
		a.logger.Warn(ctx, "wishlist not loaded", "error", res.Message())
	}
}

// signedOut drops every piece of per-user state.
func (a *App) signedOut(ctx context.Context) {
	a.stopWatch()
	a.identity = adapter.Identity{}
	a.products.Reset(ctx)
	a.user.Reset(ctx)
	a.wishlist.Reset(ctx)
}

func resultError(op string, res adapter.Result) error {
	if res.OK() {
		return nil
	}
	return fmt.Errorf("%s failed (%s): %s", op, res.Status, res.Message())
}
