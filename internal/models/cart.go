package models

import (
	"fmt"
	"time"
)

// CartItem is one merged line: the same product in the same size and color
// always occupies a single line with summed quantity.
type CartItem struct {
	ID        string  `json:"id"`
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Size      string  `json:"size,omitempty"`
	Color     string  `json:"color,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	LineTotal float64 `json:"lineTotal"`
}

// Cart is a user's single shopping cart. ItemCount and Total are derived
// fields recomputed from the lines against the current catalog.
type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Items     []CartItem `json:"items"`
	ItemCount int        `json:"itemCount"`
	Total     float64    `json:"total"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func (c *Cart) RecordID() string { return c.ID }

func (c *Cart) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("cart id is required")
	}
	if c.UserID == "" {
		return fmt.Errorf("cart user id is required")
	}
	for i := range c.Items {
		if c.Items[i].ProductID == "" {
			return fmt.Errorf("cart item %d has no product id", i)
		}
		if c.Items[i].Quantity < 1 {
			return fmt.Errorf("cart item %d has non-positive quantity", i)
		}
	}
	return nil
}
