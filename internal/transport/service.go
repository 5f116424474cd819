package transport

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "tradehub.Marketplace"

const (
	MarketplacePingMethod          = "/tradehub.Marketplace/Ping"
	MarketplaceSignUpMethod        = "/tradehub.Marketplace/SignUp"
	MarketplaceSignInMethod        = "/tradehub.Marketplace/SignIn"
	MarketplaceRefreshTokenMethod  = "/tradehub.Marketplace/RefreshToken"
	MarketplaceSignOutMethod       = "/tradehub.Marketplace/SignOut"
	MarketplaceDeleteAccountMethod = "/tradehub.Marketplace/DeleteAccount"
	MarketplaceSaveUserMethod      = "/tradehub.Marketplace/SaveUser"
	MarketplaceGetUserMethod       = "/tradehub.Marketplace/GetUser"
	MarketplaceCreateProductMethod = "/tradehub.Marketplace/CreateProduct"
	MarketplaceGetProductsMethod   = "/tradehub.Marketplace/GetProducts"
	MarketplaceGetProductMethod    = "/tradehub.Marketplace/GetProduct"
	MarketplaceUpdateProductMethod = "/tradehub.Marketplace/UpdateProduct"
	MarketplaceDeleteProductMethod = "/tradehub.Marketplace/DeleteProduct"
	MarketplaceUploadImageMethod   = "/tradehub.Marketplace/UploadImage"
	MarketplaceWatchProductsMethod = "/tradehub.Marketplace/WatchProducts"
)

// MarketplaceServer is the server API for the tradehub.Marketplace service.
type MarketplaceServer interface {
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	SignUp(context.Context, *SignUpRequest) (*SessionResponse, error)
	SignIn(context.Context, *SignInRequest) (*SessionResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*RefreshTokenResponse, error)
	SignOut(context.Context, *SignOutRequest) (*Empty, error)
	DeleteAccount(context.Context, *DeleteAccountRequest) (*Empty, error)
	SaveUser(context.Context, *SaveUserRequest) (*UserResponse, error)
	GetUser(context.Context, *GetUserRequest) (*UserResponse, error)
	CreateProduct(context.Context, *CreateProductRequest) (*ProductResponse, error)
	GetProducts(context.Context, *GetProductsRequest) (*ProductsResponse, error)
	GetProduct(context.Context, *GetProductRequest) (*ProductResponse, error)
	UpdateProduct(context.Context, *UpdateProductRequest) (*ProductResponse, error)
	DeleteProduct(context.Context, *DeleteProductRequest) (*Empty, error)
	UploadImage(context.Context, *UploadImageRequest) (*UploadImageResponse, error)
	WatchProducts(*WatchProductsRequest, grpc.ServerStreamingServer[ProductsResponse]) error
}

// UnimplementedMarketplaceServer answers codes.Unimplemented for every
// method. Embed it to stay forward compatible.
type UnimplementedMarketplaceServer struct{}

func (UnimplementedMarketplaceServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method Ping not implemented")
}
func (UnimplementedMarketplaceServer) SignUp(context.Context, *SignUpRequest) (*SessionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SignUp not implemented")
}
func (UnimplementedMarketplaceServer) SignIn(context.Context, *SignInRequest) (*SessionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SignIn not implemented")
}
func (UnimplementedMarketplaceServer) RefreshToken(context.Context, *RefreshTokenRequest) (*RefreshTokenResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RefreshToken not implemented")
}
func (UnimplementedMarketplaceServer) SignOut(context.Context, *SignOutRequest) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method SignOut not implemented")
}
func (UnimplementedMarketplaceServer) DeleteAccount(context.Context, *DeleteAccountRequest) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteAccount not implemented")
}
func (UnimplementedMarketplaceServer) SaveUser(context.Context, *SaveUserRequest) (*UserResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SaveUser not implemented")
}
func (UnimplementedMarketplaceServer) GetUser(context.Context, *GetUserRequest) (*UserResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetUser not implemented")
}
func (UnimplementedMarketplaceServer) CreateProduct(context.Context, *CreateProductRequest) (*ProductResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateProduct not implemented")
}
func (UnimplementedMarketplaceServer) GetProducts(context.Context, *GetProductsRequest) (*ProductsResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetProducts not implemented")
}
func (UnimplementedMarketplaceServer) GetProduct(context.Context, *GetProductRequest) (*ProductResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetProduct not implemented")
}
func (UnimplementedMarketplaceServer) UpdateProduct(context.Context, *UpdateProductRequest) (*ProductResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UpdateProduct not implemented")
}
func (UnimplementedMarketplaceServer) DeleteProduct(context.Context, *DeleteProductRequest) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteProduct not implemented")
}
func (UnimplementedMarketplaceServer) UploadImage(context.Context, *UploadImageRequest) (*UploadImageResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method UploadImage not implemented")
}
func (UnimplementedMarketplaceServer) WatchProducts(*WatchProductsRequest, grpc.ServerStreamingServer[ProductsResponse]) error {
	return status.Error(codes.Unimplemented, "method WatchProducts not implemented")
}

func RegisterMarketplaceServer(s grpc.ServiceRegistrar, srv MarketplaceServer) {
	s.RegisterService(&MarketplaceServiceDesc, srv)
}

// unaryHandler adapts a MarketplaceServer method expression to a
// grpc.MethodHandler.
func unaryHandler[Req, Resp any](fullMethod string, call func(MarketplaceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(MarketplaceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(MarketplaceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

func watchProductsHandler(srv any, stream grpc.ServerStream) error {
	m := new(WatchProductsRequest)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(MarketplaceServer).WatchProducts(m, &grpc.GenericServerStream[WatchProductsRequest, ProductsResponse]{ServerStream: stream})
}

var MarketplaceServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*MarketplaceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Ping", Handler: unaryHandler(MarketplacePingMethod, MarketplaceServer.Ping)},
		{MethodName: "SignUp", Handler: unaryHandler(MarketplaceSignUpMethod, MarketplaceServer.SignUp)},
		{MethodName: "SignIn", Handler: unaryHandler(MarketplaceSignInMethod, MarketplaceServer.SignIn)},
		{MethodName: "RefreshToken", Handler: unaryHandler(MarketplaceRefreshTokenMethod, MarketplaceServer.RefreshToken)},
		{MethodName: "SignOut", Handler: unaryHandler(MarketplaceSignOutMethod, MarketplaceServer.SignOut)},
		{MethodName: "DeleteAccount", Handler: unaryHandler(MarketplaceDeleteAccountMethod, MarketplaceServer.DeleteAccount)},
		{MethodName: "SaveUser", Handler: unaryHandler(MarketplaceSaveUserMethod, MarketplaceServer.SaveUser)},
		{MethodName: "GetUser", Handler: unaryHandler(MarketplaceGetUserMethod, MarketplaceServer.GetUser)},
		{MethodName: "CreateProduct", Handler: unaryHandler(MarketplaceCreateProductMethod, MarketplaceServer.CreateProduct)},
		{MethodName: "GetProducts", Handler: unaryHandler(MarketplaceGetProductsMethod, MarketplaceServer.GetProducts)},
		{MethodName: "GetProduct", Handler: unaryHandler(MarketplaceGetProductMethod, MarketplaceServer.GetProduct)},
		{MethodName: "UpdateProduct", Handler: unaryHandler(MarketplaceUpdateProductMethod, MarketplaceServer.UpdateProduct)},
		{MethodName: "DeleteProduct", Handler: unaryHandler(MarketplaceDeleteProductMethod, MarketplaceServer.DeleteProduct)},
		{MethodName: "UploadImage", Handler: unaryHandler(MarketplaceUploadImageMethod, MarketplaceServer.UploadImage)},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "WatchProducts",
			Handler:       watchProductsHandler,
			ServerStreams: true,
		},
	},
	Metadata: "tradehub/marketplace",
}
