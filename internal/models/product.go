package models

import "time"

// Product is a listing offered for exchange, stored in the "products"
// collection. UserID is the owning identity and never changes after creation.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Condition   string    `json:"condition"`
	Image       string    `json:"image,omitempty"`
	Images      []string  `json:"images,omitempty"`
	Category    string    `json:"category,omitempty"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ProductInput is the caller-supplied part of a new listing. The owner is
// taken from the authenticated identity, never from the input.
type ProductInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Condition   string   `json:"condition"`
	Image       string   `json:"image,omitempty"`
	Images      []string `json:"images,omitempty"`
	Category    string   `json:"category,omitempty"`
}

// Fields returns the input as document fields.
func (in ProductInput) Fields() map[string]any {
	m := map[string]any{
		"name":        in.Name,
		"description": in.Description,
		"condition":   in.Condition,
	}
	if in.Image != "" {
		m["image"] = in.Image
	}
	if len(in.Images) > 0 {
		m["images"] = in.Images
	}
	if in.Category != "" {
		m["category"] = in.Category
	}
	return m
}

// ProductPatch carries a partial update. It has no owner field, so applying
// a patch can never move a listing to another user.
type ProductPatch struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Condition   *string   `json:"condition,omitempty"`
	Image       *string   `json:"image,omitempty"`
	Images      *[]string `json:"images,omitempty"`
	Category    *string   `json:"category,omitempty"`
}

func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Condition == nil &&
		p.Image == nil && p.Images == nil && p.Category == nil
}

func (p ProductPatch) Fields() map[string]any {
	m := make(map[string]any, 6)
	if p.Name != nil {
		m["name"] = *p.Name
	}
	if p.Description != nil {
		m["description"] = *p.Description
	}
	if p.Condition != nil {
		m["condition"] = *p.Condition
	}
	if p.Image != nil {
		m["image"] = *p.Image
	}
	if p.Images != nil {
		m["images"] = *p.Images
	}
	if p.Category != nil {
		m["category"] = *p.Category
	}
	return m
}

// Apply merges the patch over pr and returns the result.
func (p ProductPatch) Apply(pr Product) Product {
	if p.Name != nil {
		pr.Name = *p.Name
	}
	if p.Description != nil {
		pr.Description = *p.Description
	}
	if p.Condition != nil {
		pr.Condition = *p.Condition
	}
	if p.Image != nil {
		pr.Image = *p.Image
	}
	if p.Images != nil {
		pr.Images = append([]string(nil), (*p.Images)...)
	}
	if p.Category != nil {
		pr.Category = *p.Category
	}
	return pr
}

// ProductQuery selects listings. Empty fields do not filter; a Category of
// common.CategoryAll means every category. Results are newest first.
type ProductQuery struct {
	OwnerID  string `json:"ownerId,omitempty"`
	Category string `json:"category,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// String returns a pointer to s, for building patches.
func String(s string) *string { return &s }
