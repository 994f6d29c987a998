package notify

import (
	"context"

	"github.com/wneessen/go-mail"
)

// Export internal functions for testing
var (
	Classify     = classify
	Preformatted = preformatted
)

// SendForTest runs a delivery and returns the classified error instead of logging it
func (x *Email) SendForTest(ctx context.Context, subject, md string) error {
	return x.send(ctx, subject, md)
}

// NewEmailWithoutTLS creates an email sink that talks plain SMTP
func NewEmailWithoutTLS(cfg EmailConfig) *Email {
	return &Email{cfg: cfg, tlsPolicy: mail.NoTLS}
}
