package notify

import (
	"context"
	"errors"
	"log/slog"
	"net/textproto"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mindforge/pkg/domain/model"
	"github.com/secmon-lab/mindforge/pkg/utils/logging"
	"github.com/wneessen/go-mail"
)

const smtpTimeout = 30 * time.Second

// EmailConfig holds SMTP delivery settings
type EmailConfig struct {
	Enabled  bool
	Sender   string
	Receiver string
	Server   string
	Port     int
	Username string // defaults to Sender
	Password string `masq:"secret"`
}

// Missing lists the required settings that are not set
func (c EmailConfig) Missing() []string {
	var missing []string
	if c.Sender == "" {
		missing = append(missing, "sender_email")
	}
	if c.Receiver == "" {
		missing = append(missing, "receiver_email")
	}
	if c.Server == "" {
		missing = append(missing, "smtp_server")
	}
	if c.Port <= 0 {
		missing = append(missing, "smtp_port")
	}
	return missing
}

// Failure reasons attached to notification errors as the "reason" value
const (
	ReasonIncomplete = "incomplete_config"
	ReasonAuth       = "auth"
	ReasonTransport  = "transport"
)

// Email sends notifications as HTML mail over SMTP with STARTTLS
type Email struct {
	cfg       EmailConfig
	tlsPolicy mail.TLSPolicy
}

var _ Sink = &Email{}

// NewEmail creates an email sink
func NewEmail(cfg EmailConfig) *Email {
	return &Email{cfg: cfg, tlsPolicy: mail.TLSMandatory}
}

// Notify sends the message. It never returns an error: a disabled sink is a silent
// no-op; incomplete settings are a warning; auth and transport failures are logged.
func (x *Email) Notify(ctx context.Context, subject, md string) {
	logger := logging.From(ctx)

	if err := x.send(ctx, subject, md); err != nil {
		reason := ReasonTransport
		var ge *goerr.Error
		if errors.As(err, &ge) {
			if r, ok := ge.Values()["reason"].(string); ok {
				reason = r
			}
		}
		if reason == ReasonIncomplete {
			logger.Warn("email notification skipped", slog.String("error", err.Error()))
			return
		}
		logger.Error("email notification failed", slog.String("reason", reason), slog.String("error", err.Error()))
		return
	}
}

func (x *Email) send(ctx context.Context, subject, md string) error {
	if !x.cfg.Enabled {
		logging.From(ctx).Debug("email notification disabled")
		return nil
	}
	if missing := x.cfg.Missing(); len(missing) > 0 {
		return goerr.Wrap(model.ErrNotification, "email configuration incomplete",
			goerr.V("reason", ReasonIncomplete), goerr.V("missing", missing))
	}

	msg := mail.NewMsg()
	if err := msg.From(x.cfg.Sender); err != nil {
		return goerr.Wrap(model.ErrNotification, "invalid sender address",
			goerr.V("reason", ReasonIncomplete), goerr.V("cause", err.Error()))
	}
	if err := msg.To(x.cfg.Receiver); err != nil {
		return goerr.Wrap(model.ErrNotification, "invalid receiver address",
			goerr.V("reason", ReasonIncomplete), goerr.V("cause", err.Error()))
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, RenderHTML(md))
	msg.AddAlternativeString(mail.TypeTextPlain, md)

	opts := []mail.Option{
		mail.WithPort(x.cfg.Port),
		mail.WithTLSPolicy(x.tlsPolicy),
		mail.WithTimeout(smtpTimeout),
	}
	if x.cfg.Password != "" {
		username := x.cfg.Username
		if username == "" {
			username = x.cfg.Sender
		}
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(username),
			mail.WithPassword(x.cfg.Password),
		)
	}

	client, err := mail.NewClient(x.cfg.Server, opts...)
	if err != nil {
		return goerr.Wrap(model.ErrNotification, "failed to create SMTP client",
			goerr.V("reason", ReasonIncomplete), goerr.V("cause", err.Error()))
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return goerr.Wrap(model.ErrNotification, "failed to send email",
			goerr.V("reason", classify(err)),
			goerr.V("server", x.cfg.Server),
			goerr.V("cause", err.Error()))
	}

	logging.From(ctx).Info("email notification sent", slog.String("subject", subject))
	return nil
}

// classify maps an SMTP error to ReasonAuth or ReasonTransport
func classify(err error) string {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) && (tpErr.Code == 534 || tpErr.Code == 535) {
		return ReasonAuth
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "auth") {
		return ReasonAuth
	}
	return ReasonTransport
}
