package models

import (
	"fmt"
	"time"
)

// Product is a catalog garment. Sizes and Colors enumerate the offered
// variants; Stock is shared across variants.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Category    string   `json:"category,omitempty"`
	Price       float64  `json:"price"`
	Sizes       []string `json:"sizes,omitempty"`
	Colors      []string `json:"colors,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	Stock       int      `json:"stock"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (p *Product) RecordID() string { return p.ID }

func (p *Product) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("product id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("product name is required")
	}
	if p.Price < 0 {
		return fmt.Errorf("product price must not be negative")
	}
	if p.Stock < 0 {
		return fmt.Errorf("product stock must not be negative")
	}
	return nil
}

// OffersSize reports whether size is an offered variant. Products with no
// declared sizes accept any.
func (p *Product) OffersSize(size string) bool {
	if len(p.Sizes) == 0 {
		return true
	}
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}

// OffersColor mirrors OffersSize for colors.
func (p *Product) OffersColor(color string) bool {
	if len(p.Colors) == 0 {
		return true
	}
	for _, c := range p.Colors {
		if c == color {
			return true
		}
	}
	return false
}
