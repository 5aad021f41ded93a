package smsgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/zlucky/raffle-backend/internal/config"
)

// Gateway represents an SMS gateway interface
type Gateway interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

// AfroMessageGateway sends SMS through the AfroMessage API
type AfroMessageGateway struct {
	endpoint   string
	apiKey     string
	senderID   string
	mock       bool
	httpClient *http.Client
}

// NewAfroMessageGateway creates a new AfroMessage gateway
func NewAfroMessageGateway(cfg *config.Config) Gateway {
	return &AfroMessageGateway{
		endpoint: cfg.SMS.Endpoint,
		apiKey:   cfg.SMS.APIKey,
		senderID: cfg.SMS.SenderID,
		mock:     cfg.SMS.MockSMS,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Message string `json:"message"`
}

// SendSMS sends a single SMS. The recipient must already be in
// international +251 format.
func (g *AfroMessageGateway) SendSMS(ctx context.Context, phone, message string) (string, error) {
	if g.mock {
		return fmt.Sprintf("AFRO-MOCK-MSG-%d", time.Now().UnixNano()), nil
	}

	if !strings.HasPrefix(phone, "+251") {
		return "", fmt.Errorf("phone %q is not in international format", phone)
	}

	body, err := json.Marshal(sendRequest{From: g.senderID, To: phone, Message: message})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("afromessage request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("afromessage returned %d: %s", resp.StatusCode, string(detail))
	}

	var result struct {
		Response struct {
			MessageID string `json:"message_id"`
		} `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("afromessage response decode failed: %w", err)
	}
	return result.Response.MessageID, nil
}
