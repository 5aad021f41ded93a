package qrcode

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/zlucky/raffle-backend/internal/config"
)

// Generator produces a durable image URL encoding a public event URL.
// Invoked once at event creation; the reservation/sale core never
// touches images.
type Generator interface {
	Generate(ctx context.Context, eventID, publicURL string) (string, error)
}

// HTTPGenerator delegates rendering to an external QR image service
// that serves stable URLs for encoded content.
type HTTPGenerator struct {
	endpoint   string
	mock       bool
	httpClient *http.Client
}

// NewHTTPGenerator creates a Generator from config
func NewHTTPGenerator(cfg *config.Config) Generator {
	return &HTTPGenerator{
		endpoint: cfg.QRCode.Endpoint,
		mock:     cfg.QRCode.MockQR,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Generate returns the image URL for the given public event URL.
func (g *HTTPGenerator) Generate(ctx context.Context, eventID, publicURL string) (string, error) {
	imageURL := fmt.Sprintf("%s?size=500x500&data=%s", g.endpoint, url.QueryEscape(publicURL))
	if g.mock {
		return imageURL, nil
	}

	// The service renders on GET; probe it once so a misconfigured
	// endpoint fails event creation instead of producing dead links.
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, imageURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("qr service unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("qr service returned %d", resp.StatusCode)
	}
	return imageURL, nil
}
