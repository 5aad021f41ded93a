package chapa

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SignatureHeader is the header Chapa signs webhook deliveries with.
const SignatureHeader = "X-Chapa-Signature"

// WebhookPayload is the body of a gateway webhook delivery
type WebhookPayload struct {
	TxRef         string `json:"tx_ref"`
	Status        string `json:"status"`
	TransactionID string `json:"trx_id"`
}

// VerifySignature checks the HMAC-SHA256 hex signature of a raw webhook
// body. An empty signature never verifies.
func VerifySignature(payload []byte, signature, secret string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
