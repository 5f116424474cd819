// Package common contains shared constants and sentinel errors used across
// TradeHub components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// Collection names of the document store.
const (
	CollectionUsers    = "users"
	CollectionProducts = "products"
)

// CategoryAll is the pseudo-category that disables category filtering.
const CategoryAll = "Tous"

// Categories lists the well-known product categories in display order.
var Categories = []string{"Femmes", "Hommes", "Enfants", "Maison", "Électronique", "Animaux"}

// MaxImageSize bounds a single image upload, in bytes.
const MaxImageSize = 10 << 20
