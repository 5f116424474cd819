package transport

import "github.com/dmitrijs2005/tradehub/internal/models"

type Empty struct{}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse is returned by SignUp and SignIn.
type SessionResponse struct {
	UserID       string `json:"userId"`
	Email        string `json:"email"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type RefreshTokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type SignOutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type DeleteAccountRequest struct {
	Password string `json:"password"`
}

type SaveUserRequest struct {
	UserID string           `json:"userId"`
	Patch  models.UserPatch `json:"patch"`
}

type GetUserRequest struct {
	UserID string `json:"userId"`
}

type UserResponse struct {
	User *models.User `json:"user"`
}

type CreateProductRequest struct {
	Product models.ProductInput `json:"product"`
}

type GetProductRequest struct {
	ID string `json:"id"`
}

type ProductResponse struct {
	Product *models.Product `json:"product"`
}

type GetProductsRequest struct {
	Query models.ProductQuery `json:"query"`
}

// ProductsResponse answers GetProducts and is the message of the
// WatchProducts stream. Revision is the store revision the list reflects.
type ProductsResponse struct {
	Products []models.Product `json:"products"`
	Revision int64            `json:"revision,omitempty"`
}

type UpdateProductRequest struct {
	ID    string              `json:"id"`
	Patch models.ProductPatch `json:"patch"`
}

type DeleteProductRequest struct {
	ID string `json:"id"`
}

type UploadImageRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType,omitempty"`
	Data        []byte `json:"data"`
}

type UploadImageResponse struct {
	URL string `json:"url"`
}

type WatchProductsRequest struct {
	Query models.ProductQuery `json:"query"`
}
