package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProductPatch_ApplyKeepsOwner(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	p := Product{ID: "p1", Name: "Velo", Description: "bleu", Condition: "Used", UserID: "u1", CreatedAt: created}

	images := []string{"a.jpg"}
	got := ProductPatch{Name: String("Vélo"), Images: &images}.Apply(p)

	assert.Equal(t, "Vélo", got.Name)
	assert.Equal(t, "bleu", got.Description)
	assert.Equal(t, []string{"a.jpg"}, got.Images)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, created, got.CreatedAt)

	images[0] = "changed.jpg"
	assert.Equal(t, "a.jpg", got.Images[0])
}

func TestProductPatch_FieldsAndEmpty(t *testing.T) {
	assert.True(t, ProductPatch{}.IsEmpty())
	assert.Empty(t, ProductPatch{}.Fields())

	f := ProductPatch{Condition: String("Good"), Category: String("Maison")}.Fields()
	assert.Equal(t, map[string]any{"condition": "Good", "category": "Maison"}, f)
	_, hasOwner := f["userId"]
	assert.False(t, hasOwner)
}

func TestProductInput_Fields(t *testing.T) {
	f := ProductInput{Name: "iPhone 12", Description: "Brand new", Condition: "New"}.Fields()
	assert.Equal(t, map[string]any{"name": "iPhone 12", "description": "Brand new", "condition": "New"}, f)
}

func TestUserPatch_ApplyAndFields(t *testing.T) {
	u := User{ID: "u1", FullName: "Jean Dupont", City: "Lyon"}
	patch := UserPatch{City: String("Paris"), ProfilePicture: String("https://img/p.png")}

	got := patch.Apply(u)
	assert.Equal(t, "Jean Dupont", got.FullName)
	assert.Equal(t, "Paris", got.City)
	assert.Equal(t, "https://img/p.png", got.ProfilePicture)

	assert.Equal(t, map[string]any{"city": "Paris", "profilePicture": "https://img/p.png"}, patch.Fields())
	assert.False(t, patch.IsEmpty())
	assert.True(t, UserPatch{}.IsEmpty())
}
