// Package grpc exposes the AuthService and MarketService over the
// tradehub.Marketplace gRPC service.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/tradehub/internal/logging"
	"github.com/dmitrijs2005/tradehub/internal/models"
	"github.com/dmitrijs2005/tradehub/internal/server/auth"
	"github.com/dmitrijs2005/tradehub/internal/server/metrics"
	"github.com/dmitrijs2005/tradehub/internal/server/services"
	"github.com/dmitrijs2005/tradehub/internal/transport"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
)

type AuthService interface {
	SignUp(ctx context.Context, email, password, fullName string) (*services.Session, error)
	SignIn(ctx context.Context, email, password string) (*services.Session, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	SignOut(ctx context.Context, refreshToken string) error
	DeleteAccount(ctx context.Context, id auth.Identity, password string) error
	Identify(accessToken string) (auth.Identity, error)
}

type MarketService interface {
	SaveUser(ctx context.Context, id auth.Identity, userID string, patch models.UserPatch) (*models.User, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
	CreateProduct(ctx context.Context, id auth.Identity, in models.ProductInput) (*models.Product, error)
	ListProducts(ctx context.Context, q models.ProductQuery) ([]models.Product, int64, error)
	GetProduct(ctx context.Context, productID string) (*models.Product, error)
	UpdateProduct(ctx context.Context, id auth.Identity, productID string, patch models.ProductPatch) (*models.Product, error)
	DeleteProduct(ctx context.Context, id auth.Identity, productID string) error
	WatchProducts(ctx context.Context, q models.ProductQuery) (<-chan services.ProductSnapshot, error)
	UploadImage(ctx context.Context, id auth.Identity, fileName, contentType string, data []byte) (string, error)
}

type GRPCServer struct {
	transport.UnimplementedMarketplaceServer
	address  string
	auth     AuthService
	market   MarketService
	logger   logging.Logger
	metrics  metrics.MetricsCollector
	limiters *peerLimiters
}

func NewGRPCServer(a string, l logging.Logger, as AuthService, ms MarketService, m metrics.MetricsCollector, limit rate.Limit, burst int) *GRPCServer {
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		auth:     as,
		market:   ms,
		metrics:  m,
		limiters: newPeerLimiters(limit, burst),
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.MaxRecvMsgSize(services.MaxImageSize+1<<20),
		grpc.ChainUnaryInterceptor(s.metricsInterceptor, s.rateLimitInterceptor, s.accessTokenInterceptor),
		grpc.ChainStreamInterceptor(s.rateLimitStreamInterceptor, s.accessTokenStreamInterceptor),
	)
	transport.RegisterMarketplaceServer(srv, s)
	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
