package models

import (
	"fmt"
	"time"
)

// OrderStatus is the order lifecycle. Pending -> paid -> shipped ->
// delivered; pending and paid orders may be cancelled.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Cancellable reports whether an order in this status may still be
// cancelled (with stock restoration).
func (s OrderStatus) Cancellable() bool {
	return s == OrderStatusPending || s == OrderStatusPaid
}

func (s OrderStatus) valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// OrderItem snapshots a cart line at checkout time: later catalog price
// changes never alter a placed order.
type OrderItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Size      string  `json:"size,omitempty"`
	Color     string  `json:"color,omitempty"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	LineTotal float64 `json:"lineTotal"`
}

type Order struct {
	ID              string      `json:"id"`
	UserID          string      `json:"userId"`
	Items           []OrderItem `json:"items"`
	Subtotal        float64     `json:"subtotal"`
	ShippingFee     float64     `json:"shippingFee"`
	Tax             float64     `json:"tax"`
	Total           float64     `json:"total"`
	Status          OrderStatus `json:"status"`
	ShippingAddress string      `json:"shippingAddress,omitempty"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

func (o *Order) RecordID() string { return o.ID }

func (o *Order) Validate() error {
	if o.ID == "" {
		return fmt.Errorf("order id is required")
	}
	if o.UserID == "" {
		return fmt.Errorf("order user id is required")
	}
	if !o.Status.valid() {
		return fmt.Errorf("invalid order status %q", o.Status)
	}
	if len(o.Items) == 0 {
		return fmt.Errorf("order has no items")
	}
	for i := range o.Items {
		if o.Items[i].Quantity < 1 {
			return fmt.Errorf("order item %d has non-positive quantity", i)
		}
	}
	return nil
}
