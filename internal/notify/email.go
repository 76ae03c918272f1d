// Package notify sends transactional email through SendGrid. Sends are
// fire-and-forget: order flow never blocks or fails on mail problems.
package notify

import (
	"fmt"
	"log"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"virtual-fit-backend/internal/models"
)

type Mailer struct {
	client   *sendgrid.Client
	from     *mail.Email
	disabled bool
}

// NewMailer builds the mailer. An empty API key disables sending; the
// mailer stays usable and logs what it would have sent.
func NewMailer(apiKey, fromName, fromEmail string) *Mailer {
	m := &Mailer{
		from:     mail.NewEmail(fromName, fromEmail),
		disabled: apiKey == "",
	}
	if !m.disabled {
		m.client = sendgrid.NewSendClient(apiKey)
	}
	return m
}

// SendOrderConfirmation emails the order summary. Errors are returned for
// the caller to log; callers must not fail the order on them.
func (m *Mailer) SendOrderConfirmation(toEmail string, order *models.Order) error {
	if m == nil || toEmail == "" {
		return nil
	}

	subject := fmt.Sprintf("Order %s confirmed", order.ID)
	text := fmt.Sprintf(
		"Thanks for your order!\n\nItems: %d\nSubtotal: $%.2f\nShipping: $%.2f\nTax: $%.2f\nTotal: $%.2f\n",
		len(order.Items), order.Subtotal, order.ShippingFee, order.Tax, order.Total,
	)
	html := fmt.Sprintf(
		"<p>Thanks for your order!</p><p>Items: %d<br>Subtotal: $%.2f<br>Shipping: $%.2f<br>Tax: $%.2f<br><strong>Total: $%.2f</strong></p>",
		len(order.Items), order.Subtotal, order.ShippingFee, order.Tax, order.Total,
	)

	if m.disabled {
		log.Printf("notify: sendgrid disabled, skipping confirmation for order %s to %s", order.ID, toEmail)
		return nil
	}

	to := mail.NewEmail("", toEmail)
	message := mail.NewSingleEmail(m.from, subject, to, text, html)
	response, err := m.client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send order confirmation: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("failed to send order confirmation: status %d: %s", response.StatusCode, response.Body)
	}
	return nil
}
