package models

import (
	"fmt"
	"time"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusConfirmed PaymentStatus = "confirmed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// PaymentMethods are the accepted payment method tags.
var PaymentMethods = []string{"card", "paypal", "apple_pay"}

// Payment is a simulated payment attempt against an order. Amount is
// snapshotted from the order total at creation.
type Payment struct {
	ID        string        `json:"id"`
	OrderID   string        `json:"orderId"`
	UserID    string        `json:"userId"`
	Amount    float64       `json:"amount"`
	Method    string        `json:"method"`
	Status    PaymentStatus `json:"status"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func (p *Payment) RecordID() string { return p.ID }

func (p *Payment) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("payment id is required")
	}
	if p.OrderID == "" {
		return fmt.Errorf("payment order id is required")
	}
	if p.UserID == "" {
		return fmt.Errorf("payment user id is required")
	}
	switch p.Status {
	case PaymentStatusPending, PaymentStatusConfirmed, PaymentStatusFailed:
	default:
		return fmt.Errorf("invalid payment status %q", p.Status)
	}
	return nil
}

// ValidPaymentMethod reports whether method is one of PaymentMethods.
func ValidPaymentMethod(method string) bool {
	for _, m := range PaymentMethods {
		if m == method {
			return true
		}
	}
	return false
}
