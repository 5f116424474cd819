package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/tradehub/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the identity of the signed-in account.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Email  string `json:"email,omitempty"`
}

func GenerateToken(id Identity, secretKey []byte, validityDuration time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   id.UserID,
		},
		UserID: id.UserID,
		Email:  id.Email,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken validates tokenString and returns the identity it was issued
// for. An expired token yields common.ErrTokenExpired, anything else that
// fails validation yields common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, common.ErrTokenExpired
		}
		return Identity{}, common.ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" {
		return Identity{}, common.ErrInvalidToken
	}

	return Identity{UserID: claims.UserID, Email: claims.Email}, nil
}

// GetUserIDFromToken is ParseToken for callers that only need the id.
func GetUserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	id, err := ParseToken(tokenString, secretKey)
	if err != nil {
		return "", err
	}
	return id.UserID, nil
}
