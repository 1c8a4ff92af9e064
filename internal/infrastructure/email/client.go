// Package email provides the email client for sending transactional emails.
package email

import (
	"fmt"
	"os"

	"github.com/multikonnect/cartwatch/internal/infrastructure/email/templates"
	"github.com/resendlabs/resend-go"
)

// Service defines the interface for sending emails, allowing for mock
// implementations in tests.
type Service interface {
	SendCartRecoveryEmail(toEmail, name, recoveryURL, discountCode string, items []templates.RecoveryItem, total float64) error
}

// ResendClient is the concrete implementation of the email Service using the
// Resend API.
type ResendClient struct {
	client    *resend.Client
	fromEmail string
	fromName  string
}

// NewService creates a new email service client, returning the Service interface.
func NewService() (Service, error) {
	apiKey := os.Getenv("RESEND_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY environment variable is required")
	}

	fromEmail := os.Getenv("EMAIL_FROM")
	if fromEmail == "" {
		fromEmail = "noreply@multikonnect.com"
	}

	fromName := os.Getenv("EMAIL_FROM_NAME")
	if fromName == "" {
		fromName = "MultiKonnect"
	}

	return &ResendClient{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}, nil
}

// SendCartRecoveryEmail composes and sends the abandoned cart reminder email.
func (c *ResendClient) SendCartRecoveryEmail(toEmail, name, recoveryURL, discountCode string, items []templates.RecoveryItem, total float64) error {
	subject := "You left something in your cart"

	content := templates.GetRecoveryEmailContent(templates.RecoveryEmailProps{
		Name:         name,
		Items:        items,
		Total:        total,
		RecoveryURL:  recoveryURL,
		DiscountCode: discountCode,
		ExpiresDays:  30,
	})

	htmlContent := templates.GetEmailLayout(templates.EmailLayoutProps{
		Preheader: "Your cart is waiting for you",
		Content:   content,
	})

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail),
		To:      []string{toEmail},
		Subject: subject,
		Html:    htmlContent,
	}

	_, err := c.client.Emails.Send(params)
	if err != nil {
		return fmt.Errorf("failed to send recovery email via Resend: %w", err)
	}

	return nil
}
