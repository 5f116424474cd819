// Package models defines the marketplace entities exchanged between the
// TradeHub server and its clients.
package models

import "time"

// User is the profile document kept in the "users" collection. Its ID is the
// identity id issued at sign-up.
type User struct {
	ID             string    `json:"id"`
	FullName       string    `json:"fullName,omitempty"`
	Email          string    `json:"email,omitempty"`
	City           string    `json:"city,omitempty"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// UserPatch carries the profile fields to merge; nil fields are left alone.
type UserPatch struct {
	FullName       *string `json:"fullName,omitempty"`
	Email          *string `json:"email,omitempty"`
	City           *string `json:"city,omitempty"`
	ProfilePicture *string `json:"profilePicture,omitempty"`
}

// IsEmpty reports whether the patch would change nothing.
func (p UserPatch) IsEmpty() bool {
	return p.FullName == nil && p.Email == nil && p.City == nil && p.ProfilePicture == nil
}

// Fields returns the patch as document fields.
func (p UserPatch) Fields() map[string]any {
	m := make(map[string]any, 4)
	if p.FullName != nil {
		m["fullName"] = *p.FullName
	}
	if p.Email != nil {
		m["email"] = *p.Email
	}
	if p.City != nil {
		m["city"] = *p.City
	}
	if p.ProfilePicture != nil {
		m["profilePicture"] = *p.ProfilePicture
	}
	return m
}

// Apply merges the patch over u and returns the result.
func (p UserPatch) Apply(u User) User {
	if p.FullName != nil {
		u.FullName = *p.FullName
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.City != nil {
		u.City = *p.City
	}
	if p.ProfilePicture != nil {
		u.ProfilePicture = *p.ProfilePicture
	}
	return u
}
