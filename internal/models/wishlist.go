package models

import "time"

// WishlistEntry is something the user would like to get in exchange.
// Entries live only in the client's local database.
type WishlistEntry struct {
	ID        int64
	Title     string
	Image     string
	CreatedAt time.Time
}
