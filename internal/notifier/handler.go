// Package notifier forwards placed orders to the business inbox through the
// mailer service.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/storefront/internal/domain"
	"github.com/joao-fontenele/storefront/internal/messaging"
)

type Handler struct {
	mailerURL  string
	recipient  string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewHandler(mailerURL, recipient string, client *http.Client, logger *slog.Logger) *Handler {
	return &Handler{
		mailerURL:  mailerURL,
		recipient:  recipient,
		httpClient: client,
		logger:     logger,
	}
}

type mail struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Handle is a messaging.HandlerFunc for order.placed events. Malformed
// events are rejected as permanent; mailer failures are retryable.
func (h *Handler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return messaging.Permanent(fmt.Errorf("unmarshal order placed event: %w", err))
	}
	if event.OrderNumber == "" {
		return messaging.Permanent(errors.New("order placed event without order number"))
	}

	h.logger.Info("processing order placed event", "order_number", event.OrderNumber, "user_id", event.UserID)

	if err := h.send(ctx, compose(h.recipient, event)); err != nil {
		h.logger.Error("failed to notify business", "error", err, "order_number", event.OrderNumber)
		return fmt.Errorf("notify business: %w", err)
	}

	h.logger.Info("business notified", "order_number", event.OrderNumber)
	return nil
}

func compose(to string, event domain.OrderPlacedEvent) mail {
	body := event.Message
	if event.DeepLink != "" {
		body += "\n\nReply to the customer on WhatsApp:\n" + event.DeepLink
	}
	return mail{
		To:      to,
		Subject: fmt.Sprintf("New order %s from %s", event.OrderNumber, event.CustomerName),
		Body:    body,
	}
}

func (h *Handler) send(ctx context.Context, m mail) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.mailerURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mailer returned status %d", resp.StatusCode)
	}

	return nil
}
