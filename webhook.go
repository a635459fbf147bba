package sayna

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// WebhookReceiver verifies and decodes SIP webhook deliveries forwarded by
// the Sayna service. Deliveries carry an HS256 JWT in the Authorization
// header, signed with the shared webhook secret; the token's "sha256" claim
// is the base64-encoded SHA-256 digest of the raw request body.
type WebhookReceiver struct {
	secret []byte
}

// NewWebhookReceiver creates a receiver for the given shared secret.
func NewWebhookReceiver(secret string) *WebhookReceiver {
	return &WebhookReceiver{secret: []byte(secret)}
}

// Receive verifies the delivery signature against the raw body and decodes
// the payload. authHeader is the Authorization header value, with or without
// a "Bearer " prefix. A failed verification returns a *ValidationError.
func (r *WebhookReceiver) Receive(authHeader string, body []byte) (*WebhookSIPOutput, error) {
	tokenStr := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if tokenStr == "" {
		return nil, NewValidationError("Authorization", "missing webhook token")
	}

	token, err := jwt.Parse(tokenStr, func(*jwt.Token) (any, error) {
		return r.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, NewValidationError("Authorization", "invalid webhook token: "+err.Error())
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, NewValidationError("Authorization", "unexpected webhook token claims")
	}
	claimed, _ := claims["sha256"].(string)
	if claimed == "" {
		return nil, NewValidationError("Authorization", "webhook token is missing the sha256 claim")
	}

	digest := sha256.Sum256(body)
	expected := base64.StdEncoding.EncodeToString(digest[:])
	if subtle.ConstantTimeCompare([]byte(claimed), []byte(expected)) != 1 {
		return nil, NewValidationError("Authorization", "webhook body digest mismatch")
	}

	var out WebhookSIPOutput
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, NewValidationError("body", "invalid webhook payload: "+err.Error())
	}
	return &out, nil
}

// SignWebhook produces the Authorization header value for a delivery of
// body, signed with secret. Exposed for test harnesses and for services
// re-forwarding webhooks downstream.
func SignWebhook(secret string, body []byte) (string, error) {
	digest := sha256.Sum256(body)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sha256": base64.StdEncoding.EncodeToString(digest[:]),
	})
	return token.SignedString([]byte(secret))
}
