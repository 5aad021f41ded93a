package chapa

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/zlucky/raffle-backend/internal/config"
)

// Gateway is the payment gateway surface the engines depend on.
type Gateway interface {
	Initialize(ctx context.Context, req *InitializeRequest) (*InitializeResponse, error)
	Verify(ctx context.Context, txRef string) (*VerifyResult, error)
}

// InitializeRequest is the checkout initialization payload. The wire
// encoding lives in initializePayload; this is the caller-facing form.
type InitializeRequest struct {
	Amount      int64
	Currency    string
	Email       string
	FirstName   string
	PhoneNumber string
	TxRef       string
	CallbackURL string
	ReturnURL   string
	Title       string
	Description string
}

// InitializeResponse carries the hosted checkout handle
type InitializeResponse struct {
	CheckoutURL string
}

// VerifyResult is the gateway's view of a transaction
type VerifyResult struct {
	Success       bool
	Amount        int64
	TransactionID string
	Details       map[string]interface{}
}

// Client calls the Chapa REST API
type Client struct {
	baseURL    string
	secretKey  string
	mock       bool
	httpClient *http.Client
}

// NewClient creates a Chapa API client
func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:   cfg.Chapa.BaseURL,
		secretKey: cfg.Chapa.SecretKey,
		mock:      cfg.Chapa.MockGateway,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type initializePayload struct {
	Amount      string         `json:"amount"`
	Currency    string         `json:"currency"`
	Email       string         `json:"email"`
	FirstName   string         `json:"first_name"`
	PhoneNumber string         `json:"phone_number"`
	TxRef       string         `json:"tx_ref"`
	CallbackURL string         `json:"callback_url"`
	ReturnURL   string         `json:"return_url"`
	Custom      *customization `json:"customization,omitempty"`
}

type customization struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

type apiEnvelope struct {
	Status  string          `json:"status"`
	Message json.RawMessage `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Initialize creates a hosted checkout session for the given reference.
func (c *Client) Initialize(ctx context.Context, req *InitializeRequest) (*InitializeResponse, error) {
	if c.mock {
		return &InitializeResponse{
			CheckoutURL: fmt.Sprintf("https://checkout.chapa.test/%s", req.TxRef),
		}, nil
	}

	payload := initializePayload{
		Amount:      fmt.Sprintf("%d", req.Amount),
		Currency:    req.Currency,
		Email:       req.Email,
		FirstName:   req.FirstName,
		PhoneNumber: req.PhoneNumber,
		TxRef:       req.TxRef,
		CallbackURL: req.CallbackURL,
		ReturnURL:   req.ReturnURL,
	}
	if req.Title != "" || req.Description != "" {
		payload.Custom = &customization{Title: req.Title, Description: req.Description}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transaction/initialize", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("chapa initialize request failed: %w", err)
	}
	defer resp.Body.Close()

	var envelope apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("chapa initialize response decode failed: %w", err)
	}
	if envelope.Status != "success" {
		return nil, fmt.Errorf("chapa initialize rejected: %s", string(envelope.Message))
	}

	var data struct {
		CheckoutURL string `json:"checkout_url"`
	}
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, fmt.Errorf("chapa initialize data decode failed: %w", err)
	}

	return &InitializeResponse{CheckoutURL: data.CheckoutURL}, nil
}

// Verify asks the gateway for the final state of a transaction.
func (c *Client) Verify(ctx context.Context, txRef string) (*VerifyResult, error) {
	if c.mock {
		return &VerifyResult{Success: true, TransactionID: "mock-" + txRef}, nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transaction/verify/"+txRef, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("chapa verify request failed: %w", err)
	}
	defer resp.Body.Close()

	var envelope struct {
		Status string `json:"status"`
		Data   struct {
			Status        string      `json:"status"`
			Amount        json.Number `json:"amount"`
			TransactionID string      `json:"reference"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("chapa verify response decode failed: %w", err)
	}

	result := &VerifyResult{
		Success:       envelope.Status == "success" && envelope.Data.Status == "success",
		TransactionID: envelope.Data.TransactionID,
		Details: map[string]interface{}{
			"status": envelope.Data.Status,
			"amount": envelope.Data.Amount.String(),
		},
	}
	amount, err := envelope.Data.Amount.Int64()
	if err != nil {
		// Prices are whole minor units; a fractional or malformed
		// amount must never compare equal to a stored price.
		amount = -1
	}
	result.Amount = amount
	return result, nil
}
