package models

import (
	"fmt"
	"time"
)

// Closet item sources.
const (
	ClosetSourcePurchase = "purchase"
	ClosetSourceTryOn    = "tryon"
	ClosetSourceManual   = "manual"
)

// ClosetItem is a product saved to a user's virtual closet. A user holds
// at most one closet entry per product.
type ClosetItem struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	ProductID string    `json:"productId"`
	Source    string    `json:"source"`
	AddedAt   time.Time `json:"addedAt"`
}

func (c *ClosetItem) RecordID() string { return c.ID }

func (c *ClosetItem) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("closet item id is required")
	}
	if c.UserID == "" {
		return fmt.Errorf("closet item user id is required")
	}
	if c.ProductID == "" {
		return fmt.Errorf("closet item product id is required")
	}
	switch c.Source {
	case ClosetSourcePurchase, ClosetSourceTryOn, ClosetSourceManual:
	default:
		return fmt.Errorf("invalid closet source %q", c.Source)
	}
	return nil
}
