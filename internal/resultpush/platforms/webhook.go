package platforms

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

const SignatureHeader = "X-Arena-Signature"

// WebhookAdapter posts Message.Payload as JSON. With a secret, the body is
// signed with HMAC-SHA256 and the hex digest sent in SignatureHeader.
type WebhookAdapter struct {
	client *HTTPClient
}

func NewWebhookAdapter(client *HTTPClient) *WebhookAdapter {
	return &WebhookAdapter{client: client}
}

func (a *WebhookAdapter) Name() string {
	return "webhook"
}

func (a *WebhookAdapter) Send(ctx context.Context, endpoint, secret string, msg Message) error {
	raw, err := json.Marshal(msg.Payload)
	if err != nil {
		return err
	}
	var headers map[string]string
	if secret != "" {
		headers = map[string]string{SignatureHeader: Sign(secret, raw)}
	}
	return a.client.PostRaw(ctx, endpoint, headers, raw)
}

func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
