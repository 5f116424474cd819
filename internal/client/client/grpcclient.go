package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dmitrijs2005/tradehub/internal/common"
	"github.com/dmitrijs2005/tradehub/internal/models"
	"github.com/dmitrijs2005/tradehub/internal/transport"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type GRPCClient struct {
	endpointURL    string
	requestTimeout time.Duration
	conn           *grpc.ClientConn
	client         transport.MarketplaceClient

	mu            sync.Mutex
	accessToken   string
	refreshToken  string
	tokenListener func(accessToken, refreshToken string)
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	if token != "" {
		md.Set(common.AccessTokenHeaderName, token)
	}

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) tokens() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accessToken, s.refreshToken
}

// storeTokens installs a new pair and tells the listener, if any.
func (s *GRPCClient) storeTokens(accessToken, refreshToken string) {
	s.mu.Lock()
	s.accessToken = accessToken
	s.refreshToken = refreshToken
	listener := s.tokenListener
	s.mu.Unlock()

	if listener != nil {
		listener(accessToken, refreshToken)
	}
}

// accessTokenInterceptor attaches the access token and, when the server
// reports it expired, refreshes the pair once and retries the call.
func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if _, ok := ctx.Deadline(); !ok && s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	accessToken, refreshToken := s.tokens()
	err := invoker(withAccessToken(ctx, accessToken), method, req, reply, cc, opts...)
	if err == nil {
		return nil
	}

	if !isTokenExpired(err) || refreshToken == "" {
		return err
	}

	accessToken, err = s.refresh(ctx, refreshToken)
	if err != nil {
		return err
	}

	return invoker(withAccessToken(ctx, accessToken), method, req, reply, cc, opts...)
}

func isTokenExpired(err error) bool {
	st, ok := status.FromError(err)
	return ok && st.Code() == codes.Unauthenticated && st.Message() == common.ErrTokenExpired.Error()
}

// refresh trades refreshToken for a new pair, installs it and returns the new
// access token.
func (s *GRPCClient) refresh(ctx context.Context, refreshToken string) (string, error) {
	resp, err := s.client.RefreshToken(ctx, &transport.RefreshTokenRequest{RefreshToken: refreshToken})
	if err != nil {
		return "", err
	}
	s.storeTokens(resp.AccessToken, resp.RefreshToken)
	return resp.AccessToken, nil
}

func (s *GRPCClient) accessTokenStreamInterceptor(
	ctx context.Context,
	desc *grpc.StreamDesc,
	cc *grpc.ClientConn,
	method string,
	streamer grpc.Streamer,
	opts ...grpc.CallOption,
) (grpc.ClientStream, error) {
	accessToken, _ := s.tokens()
	return streamer(withAccessToken(ctx, accessToken), desc, cc, method, opts...)
}

func NewTradeHubClient(endpointURL string, requestTimeout time.Duration) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, requestTimeout: requestTimeout}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient(opts ...grpc.DialOption) error {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
		grpc.WithStreamInterceptor(s.accessTokenStreamInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(s.endpointURL, opts...)
	if err != nil {
		return err
	}
	s.conn = conn
	s.client = transport.NewMarketplaceClient(conn)
	return nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) SetTokens(accessToken, refreshToken string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = accessToken
	s.refreshToken = refreshToken
}

// OnTokens registers fn to be called whenever the token pair changes
// because of a sign-in or a transparent refresh.
func (s *GRPCClient) OnTokens(fn func(accessToken, refreshToken string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenListener = fn
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp, err := s.client.Ping(ctx, &transport.PingRequest{})
	if err != nil {
		return mapError(err)
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) session(resp *transport.SessionResponse) *Session {
	s.storeTokens(resp.AccessToken, resp.RefreshToken)
	return &Session{
		UserID:       resp.UserID,
		Email:        resp.Email,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
	}
}

func (s *GRPCClient) SignUp(ctx context.Context, email, password, fullName string) (*Session, error) {
	resp, err := s.client.SignUp(ctx, &transport.SignUpRequest{Email: email, Password: password, FullName: fullName})
	if err != nil {
		return nil, mapError(err)
	}
	return s.session(resp), nil
}

func (s *GRPCClient) SignIn(ctx context.Context, email, password string) (*Session, error) {
	resp, err := s.client.SignIn(ctx, &transport.SignInRequest{Email: email, Password: password})
	if err != nil {
		return nil, mapError(err)
	}
	return s.session(resp), nil
}

// SignOut revokes the refresh token on the server and forgets both tokens
// locally, even when the server cannot be reached.
func (s *GRPCClient) SignOut(ctx context.Context) error {
	_, refreshToken := s.tokens()
	s.storeTokens("", "")
	if refreshToken == "" {
		return nil
	}
	if _, err := s.client.SignOut(ctx, &transport.SignOutRequest{RefreshToken: refreshToken}); err != nil {
		return mapError(err)
	}
	return nil
}

func (s *GRPCClient) DeleteAccount(ctx context.Context, password string) error {
	if _, err := s.client.DeleteAccount(ctx, &transport.DeleteAccountRequest{Password: password}); err != nil {
		return mapError(err)
	}
	s.storeTokens("", "")
	return nil
}

func (s *GRPCClient) SaveUser(ctx context.Context, userID string, patch models.UserPatch) (*models.User, error) {
	resp, err := s.client.SaveUser(ctx, &transport.SaveUserRequest{UserID: userID, Patch: patch})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.User, nil
}

func (s *GRPCClient) GetUser(ctx context.Context, userID string) (*models.User, error) {
	resp, err := s.client.GetUser(ctx, &transport.GetUserRequest{UserID: userID})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.User, nil
}

func (s *GRPCClient) CreateProduct(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	resp, err := s.client.CreateProduct(ctx, &transport.CreateProductRequest{Product: in})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Product, nil
}

// GetProducts also returns the store revision the list reflects.
func (s *GRPCClient) GetProducts(ctx context.Context, q models.ProductQuery) ([]models.Product, int64, error) {
	resp, err := s.client.GetProducts(ctx, &transport.GetProductsRequest{Query: q})
	if err != nil {
		return nil, 0, mapError(err)
	}
	if resp.Products == nil {
		return []models.Product{}, resp.Revision, nil
	}
	return resp.Products, resp.Revision, nil
}

func (s *GRPCClient) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	resp, err := s.client.GetProduct(ctx, &transport.GetProductRequest{ID: id})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Product, nil
}

func (s *GRPCClient) UpdateProduct(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	resp, err := s.client.UpdateProduct(ctx, &transport.UpdateProductRequest{ID: id, Patch: patch})
	if err != nil {
		return nil, mapError(err)
	}
	return resp.Product, nil
}

func (s *GRPCClient) DeleteProduct(ctx context.Context, id string) error {
	if _, err := s.client.DeleteProduct(ctx, &transport.DeleteProductRequest{ID: id}); err != nil {
		return mapError(err)
	}
	return nil
}

func (s *GRPCClient) UploadImage(ctx context.Context, fileName, contentType string, data []byte) (string, error) {
	resp, err := s.client.UploadImage(ctx, &transport.UploadImageRequest{FileName: fileName, ContentType: contentType, Data: data})
	if err != nil {
		return "", mapError(err)
	}
	return resp.URL, nil
}

var errStreamClosed = fmt.Errorf("%w: watch stream closed by server", ErrUnavailable)

type productsStream = grpc.ServerStreamingClient[transport.ProductsResponse]

// openWatch opens the stream and waits for its first message, which is where
// an authentication failure shows up.
func (s *GRPCClient) openWatch(ctx context.Context, q models.ProductQuery) (productsStream, *transport.ProductsResponse, error) {
	stream, err := s.client.WatchProducts(ctx, &transport.WatchProductsRequest{Query: q})
	if err != nil {
		return nil, nil, err
	}
	first, err := stream.Recv()
	if err != nil {
		return nil, nil, err
	}
	return stream, first, nil
}

// WatchProducts opens a server stream for q, refreshing an expired access
// token once like unary calls do. The returned channel is closed when ctx is
// cancelled or the stream ends; any other end of the stream, including a
// clean close by the server, is delivered as a final event with Err set.
func (s *GRPCClient) WatchProducts(ctx context.Context, q models.ProductQuery) (<-chan ProductsEvent, error) {
	stream, first, err := s.openWatch(ctx, q)
	if isTokenExpired(err) {
		if _, refreshToken := s.tokens(); refreshToken != "" {
			if _, rerr := s.refresh(ctx, refreshToken); rerr != nil {
				return nil, mapError(rerr)
			}
			stream, first, err = s.openWatch(ctx, q)
		}
	}
	switch {
	case errors.Is(err, io.EOF):
		return nil, errStreamClosed
	case err != nil:
		return nil, mapError(err)
	}

	out := make(chan ProductsEvent)
	go func() {
		defer close(out)
		msg := first
		for {
			var ev ProductsEvent
			switch {
			case msg != nil:
				ev = ProductsEvent{Products: msg.Products, Revision: msg.Revision}
				if ev.Products == nil {
					ev.Products = []models.Product{}
				}
			case ctx.Err() != nil:
				return
			case errors.Is(err, io.EOF):
				ev = ProductsEvent{Err: errStreamClosed}
			default:
				ev = ProductsEvent{Err: mapError(err)}
			}

			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
			if ev.Err != nil {
				return
			}
			msg, err = stream.Recv()
			if err != nil {
				msg = nil
			}
		}
	}()

	return out, nil
}
