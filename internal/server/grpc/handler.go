package grpc

import (
	"context"

	"github.com/dmitrijs2005/tradehub/internal/server/auth"
	"github.com/dmitrijs2005/tradehub/internal/transport"
	"google.golang.org/grpc"
)

func (s *GRPCServer) Ping(ctx context.Context, req *transport.PingRequest) (*transport.PingResponse, error) {
	return &transport.PingResponse{Status: "OK"}, nil
}

func (s *GRPCServer) SignUp(ctx context.Context, req *transport.SignUpRequest) (*transport.SessionResponse, error) {
	s.logger.Info(ctx, "Registration request")

	session, err := s.auth.SignUp(ctx, req.Email, req.Password, req.FullName)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Registered", "user", session.Identity.UserID)
	return &transport.SessionResponse{
		UserID:       session.Identity.UserID,
		Email:        session.Identity.Email,
		AccessToken:  session.Tokens.AccessToken,
		RefreshToken: session.Tokens.RefreshToken,
	}, nil
}

func (s *GRPCServer) SignIn(ctx context.Context, req *transport.SignInRequest) (*transport.SessionResponse, error) {
	session, err := s.auth.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &transport.SessionResponse{
		UserID:       session.Identity.UserID,
		Email:        session.Identity.Email,
		AccessToken:  session.Tokens.AccessToken,
		RefreshToken: session.Tokens.RefreshToken,
	}, nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *transport.RefreshTokenRequest) (*transport.RefreshTokenResponse, error) {
	pair, err := s.auth.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &transport.RefreshTokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

func (s *GRPCServer) SignOut(ctx context.Context, req *transport.SignOutRequest) (*transport.Empty, error) {
	if err := s.auth.SignOut(ctx, req.RefreshToken); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &transport.Empty{}, nil
}

func (s *GRPCServer) DeleteAccount(ctx context.Context, req *transport.DeleteAccountRequest) (*transport.Empty, error) {
	id, _ := auth.IdentityFromContext(ctx)
	if err := s.auth.DeleteAccount(ctx, id, req.Password); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &transport.Empty{}, nil
}

func (s *GRPCServer) SaveUser(ctx context.Context, req *transport.SaveUserRequest) (*transport.UserResponse, error) {
	id, _ := auth.IdentityFromContext(ctx)
	user, err := s.market.SaveUser(ctx, id, req.UserID, req.Patch)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &transport.UserResponse{User: user}, nil
}

func (s *GRPCServer) GetUser(ctx context.Context, req *transport.GetUserRequest) (*transport.UserResponse, error) {
	user, err := s.market.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &transport.UserResponse{User: user}, nil
}

func (s *GRPCServer) CreateProduct(ctx context.Context, req *transport.CreateProductRequest) (*transport.ProductResponse, error) {
	id, _ := auth.IdentityFromContext(ctx)
	product, err := s.market.CreateProduct(ctx, id, req.Product)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &transport.ProductResponse{Product: product}, nil
}

func (s *GRPCServer) GetProducts(ctx context.Context, req *transport.GetProductsRequest) (*transport.ProductsResponse, error) {
	products, revision, err := s.market.ListProducts(ctx, req.Query)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &transport.ProductsResponse{Products: products, Revision: revision}, nil
}

func (s *GRPCServer) GetProduct(ctx context.Context, req *transport.GetProductRequest) (*transport.ProductResponse, error) {
	product, err := s.market.GetProduct(ctx, req.ID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &transport.ProductResponse{Product: product}, nil
}

func (s *GRPCServer) UpdateProduct(ctx context.Context, req *transport.UpdateProductRequest) (*transport.ProductResponse, error) {
	id, _ := auth.IdentityFromContext(ctx)
	product, err := s.market.UpdateProduct(ctx, id, req.ID, req.Patch)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &transport.ProductResponse{Product: product}, nil
}

func (s *GRPCServer) DeleteProduct(ctx context.Context, req *transport.DeleteProductRequest) (*transport.Empty, error) {
	id, _ := auth.IdentityFromContext(ctx)
	if err := s.market.DeleteProduct(ctx, id, req.ID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &transport.Empty{}, nil
}

func (s *GRPCServer) UploadImage(ctx context.Context, req *transport.UploadImageRequest) (*transport.UploadImageResponse, error) {
	id, _ := auth.IdentityFromContext(ctx)
	url, err := s.market.UploadImage(ctx, id, req.FileName, req.ContentType, req.Data)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &transport.UploadImageResponse{URL: url}, nil
}

// WatchProducts sends the current result of the query and a new one after
// every change, until the client goes away.
func (s *GRPCServer) WatchProducts(req *transport.WatchProductsRequest, stream grpc.ServerStreamingServer[transport.ProductsResponse]) error {
	ctx := stream.Context()

	snapshots, err := s.market.WatchProducts(ctx, req.Query)
	if err != nil {
		return s.toStatus(ctx, err)
	}

	for snap := range snapshots {
		if snap.Err != nil {
			return s.toStatus(ctx, snap.Err)
		}
		if err := stream.Send(&transport.ProductsResponse{Products: snap.Products, Revision: snap.Revision}); err != nil {
			return err
		}
	}
	return nil
}
