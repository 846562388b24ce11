package models

import "time"

type MenuItem struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description" yaml:"description"`
	Price       int64     `json:"price" yaml:"price"`
	Category    string    `json:"category" yaml:"category"`
	Image       string    `json:"image,omitempty" yaml:"image"`
	Available   bool      `json:"available" yaml:"available"`
	IsVeg       bool      `json:"isVeg" yaml:"is_veg"`
	IsSpicy     bool      `json:"isSpicy" yaml:"is_spicy"`
	IsSignature bool      `json:"isSignature" yaml:"is_signature"`
	Tags        []string  `json:"tags,omitempty" yaml:"tags"`
	CreatedAt   time.Time `json:"createdAt" yaml:"-"`
	UpdatedAt   time.Time `json:"updatedAt" yaml:"-"`
}

func (m MenuItem) Clone() MenuItem {
	out := m
	if m.Tags != nil {
		out.Tags = append([]string(nil), m.Tags...)
	}
	return out
}

type MenuItemInput struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Price       int64    `json:"price" validate:"required"`
	Category    string   `json:"category" validate:"required"`
	Image       string   `json:"image"`
	Available   bool     `json:"available"`
	IsVeg       bool     `json:"isVeg"`
	IsSpicy     bool     `json:"isSpicy"`
	IsSignature bool     `json:"isSignature"`
	Tags        []string `json:"tags"`
}

func (in MenuItemInput) NewMenuItem() MenuItem {
	item := MenuItem{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Category:    in.Category,
		Image:       in.Image,
		Available:   in.Available,
		IsVeg:       in.IsVeg,
		IsSpicy:     in.IsSpicy,
		IsSignature: in.IsSignature,
	}
	if in.Tags != nil {
		item.Tags = append([]string(nil), in.Tags...)
	}
	return item
}

// MenuItemPatch carries the fields of a partial update. Nil means "keep".
type MenuItemPatch struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Price       *int64    `json:"price"`
	Category    *string   `json:"category"`
	Image       *string   `json:"image"`
	Available   *bool     `json:"available"`
	IsVeg       *bool     `json:"isVeg"`
	IsSpicy     *bool     `json:"isSpicy"`
	IsSignature *bool     `json:"isSignature"`
	Tags        *[]string `json:"tags"`
}

// Apply merges the provided fields over item and stamps UpdatedAt.
func (p MenuItemPatch) Apply(item *MenuItem, at time.Time) {
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Price != nil {
		item.Price = *p.Price
	}
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.Image != nil {
		item.Image = *p.Image
	}
	if p.Available != nil {
		item.Available = *p.Available
	}
	if p.IsVeg != nil {
		item.IsVeg = *p.IsVeg
	}
	if p.IsSpicy != nil {
		item.IsSpicy = *p.IsSpicy
	}
	if p.IsSignature != nil {
		item.IsSignature = *p.IsSignature
	}
	if p.Tags != nil {
		item.Tags = append([]string(nil), (*p.Tags)...)
	}
	item.UpdatedAt = at
}
