package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cristianortiz/auctionEase/internal/auction/domain"
	"github.com/google/uuid"
)

// WebhookSender posts each message as JSON to a single URL.
type WebhookSender struct {
	url    string
	client *http.Client
}

func NewWebhookSender(url string) *WebhookSender {
	return &WebhookSender{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type webhookPayload struct {
	Kind      domain.MessageKind `json:"kind"`
	AuctionID uuid.UUID          `json:"auction_id"`
	UserID    uuid.UUID          `json:"user_id"`
	Username  string             `json:"username"`
	Email     string             `json:"email"`
	Subject   string             `json:"subject"`
	Body      string             `json:"body"`
}

func (w *WebhookSender) Name() string { return "webhook" }

func (w *WebhookSender) Send(ctx context.Context, msg domain.Message) error {
	body, err := json.Marshal(webhookPayload{
		Kind:      msg.Kind,
		AuctionID: msg.AuctionID,
		UserID:    msg.To.ID,
		Username:  msg.To.Username,
		Email:     msg.To.Email,
		Subject:   msg.Subject,
		Body:      msg.Body,
	})
	if err != nil {
		return fmt.Errorf("webhook: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook: unexpected status %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
