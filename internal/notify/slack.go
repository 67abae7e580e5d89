// Package notify sends operator alerts to a Slack incoming webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Notifier delivers out-of-band alerts for failures that need operator
// attention. Implementations must never fail the caller.
type Notifier interface {
	Notify(ctx context.Context, title, message string)
}

// SlackNotifier posts alerts to a Slack incoming webhook. With an empty
// webhook URL every call is a silent no-op.
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
	logger     zerolog.Logger
}

func NewSlackNotifier(webhookURL string, logger zerolog.Logger) *SlackNotifier {
	return &SlackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 5 * time.Second},
		logger:     logger,
	}
}

// Notify posts the message. Delivery problems are logged as warnings and
// swallowed; an unreachable webhook must never take the uploader down.
func (n *SlackNotifier) Notify(ctx context.Context, title, message string) {
	if n.webhookURL == "" {
		n.logger.Debug().Msg("slack webhook not configured, skipping notification")
		return
	}

	payload, err := json.Marshal(map[string]string{
		"text": fmt.Sprintf("*%s*\n%s", title, message),
	})
	if err != nil {
		n.logger.Warn().Err(err).Msg("failed to encode slack payload")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		n.logger.Warn().Err(err).Msg("failed to build slack request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn().Err(err).Msg("failed to send slack notification")
		return
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || strings.TrimSpace(string(body)) != "ok" {
		n.logger.Warn().
			Int("status", resp.StatusCode).
			Str("response", string(body)).
			Msg("slack webhook rejected notification")
	}
}
