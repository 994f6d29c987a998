package notify

import (
	"context"
	"log/slog"

	"github.com/secmon-lab/mindforge/pkg/utils/logging"
	"github.com/slack-go/slack"
)

// Slack posts notifications to an incoming webhook
type Slack struct {
	webhookURL string
}

var _ Sink = &Slack{}

// NewSlack creates a webhook sink. An empty URL disables it.
func NewSlack(webhookURL string) *Slack {
	return &Slack{webhookURL: webhookURL}
}

func (x *Slack) Notify(ctx context.Context, subject, md string) {
	if x.webhookURL == "" {
		return
	}

	msg := &slack.WebhookMessage{
		Text: subject,
		Blocks: &slack.Blocks{BlockSet: []slack.Block{
			slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType, truncate(subject, 150), false, false)),
			slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType, truncate(md, 3000), false, false), nil, nil),
		}},
	}

	if err := slack.PostWebhookContext(ctx, x.webhookURL, msg); err != nil {
		logging.From(ctx).Error("slack notification failed", slog.String("error", err.Error()))
		return
	}
	logging.From(ctx).Info("slack notification sent", slog.String("subject", subject))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
