package grpc

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/tradehub/internal/common"
	"github.com/dmitrijs2005/tradehub/internal/server/auth"
	"github.com/dmitrijs2005/tradehub/internal/transport"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// publicMethods can be called without an access token.
var publicMethods = map[string]bool{
	transport.MarketplacePingMethod:         true,
	transport.MarketplaceSignUpMethod:       true,
	transport.MarketplaceSignInMethod:       true,
	transport.MarketplaceRefreshTokenMethod: true,
	transport.MarketplaceSignOutMethod:      true,
}

func accessTokenFromContext(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AccessTokenHeaderName)
		if len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

// authenticate resolves the access token of ctx and stores the identity in
// the returned context.
func (s *GRPCServer) authenticate(ctx context.Context) (context.Context, error) {
	accessToken := accessTokenFromContext(ctx)
	if len(accessToken) == 0 {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	id, err := s.auth.Identify(accessToken)
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) {
			return nil, status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
		}
		return nil, status.Error(codes.Unauthenticated, common.ErrInvalidToken.Error())
	}

	return auth.WithIdentity(ctx, id), nil
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if publicMethods[info.FullMethod] {
		return handler(ctx, req)
	}

	ctx, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}
	return handler(ctx, req)
}

type identityStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *identityStream) Context() context.Context { return w.ctx }

func (s *GRPCServer) accessTokenStreamInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	if publicMethods[info.FullMethod] {
		return handler(srv, ss)
	}

	ctx, err := s.authenticate(ss.Context())
	if err != nil {
		return err
	}
	return handler(srv, &identityStream{ServerStream: ss, ctx: ctx})
}

func (s *GRPCServer) metricsInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.metrics.RecordRPC(info.FullMethod, status.Code(err).String(), time.Since(start))
	return resp, err
}

func (s *GRPCServer) rateLimitInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if !s.limiters.allow(peerKey(ctx)) {
		s.metrics.RecordRateLimited(info.FullMethod)
		return nil, status.Error(codes.ResourceExhausted, "rate limit exceeded")
	}
	return handler(ctx, req)
}

func (s *GRPCServer) rateLimitStreamInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	if !s.limiters.allow(peerKey(ss.Context())) {
		s.metrics.RecordRateLimited(info.FullMethod)
		return status.Error(codes.ResourceExhausted, "rate limit exceeded")
	}
	return handler(srv, ss)
}

func peerKey(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return ""
	}
	return p.Addr.String()
}

// maxTrackedPeers bounds the limiter table; it is reset when full.
const maxTrackedPeers = 10000

// peerLimiters keeps one token bucket per remote address. A non-positive
// limit disables limiting.
type peerLimiters struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

func newPeerLimiters(limit rate.Limit, burst int) *peerLimiters {
	return &peerLimiters{limit: limit, burst: burst, limiters: make(map[string]*rate.Limiter)}
}

func (p *peerLimiters) allow(key string) bool {
	if p.limit <= 0 {
		return true
	}

	p.mu.Lock()
	l, ok := p.limiters[key]
	if !ok {
		if len(p.limiters) >= maxTrackedPeers {
			p.limiters = make(map[string]*rate.Limiter)
		}
		l = rate.NewLimiter(p.limit, p.burst)
		p.limiters[key] = l
	}
	p.mu.Unlock()

	return l.Allow()
}
