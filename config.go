package sayna

import (
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config holds all options for creating a Sayna client.
// Only URL is required.
type Config struct {
	// URL is the Sayna WebSocket endpoint.
	// Format: wss://{host}/ws (ws:// is accepted for local development)
	// Required: Yes
	URL string

	// APIKey authenticates both the WebSocket handshake and REST calls.
	// It is sent as an Authorization: Bearer header.
	// Required: No (only when the server enforces authentication)
	APIKey string

	// DialTimeout sets the maximum time to wait for WebSocket connection
	// establishment. If zero, no timeout is applied beyond the Connect
	// context's own deadline.
	// Recommended: 15-30 seconds
	// Required: No
	DialTimeout time.Duration

	// HandshakeHeaders allows adding custom headers to the WebSocket
	// handshake request. Useful for proxy authentication, tracing headers, etc.
	// Required: No
	HandshakeHeaders http.Header

	// HTTPClient overrides the client used for REST calls.
	// Required: No (defaults to a client with a 30 second timeout)
	HTTPClient *http.Client

	// Logger is called for significant events and can be used for debugging
	// and monitoring. Events include: ws_connected, bad_message_json, and
	// other operational events. The fields parameter contains structured
	// data relevant to each event.
	// Required: No (if nil, no logging occurs)
	Logger func(event string, fields map[string]any)

	// StructuredLogger provides advanced structured logging with
	// configurable levels. If both Logger and StructuredLogger are provided,
	// StructuredLogger takes precedence. Use NewLogger() or
	// NewLoggerFromEnv() to create one.
	// Required: No (if nil, falls back to Logger or no logging)
	StructuredLogger *Logger
}

// ValidateConfig performs configuration validation.
func ValidateConfig(cfg Config) error {
	if cfg.URL == "" {
		return NewValidationError("URL", "cannot be empty")
	}

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return NewValidationError("URL", "invalid URL format")
	}
	switch u.Scheme {
	case "ws", "wss", "http", "https":
	default:
		return NewValidationError("URL", "scheme must be ws, wss, http or https")
	}

	if cfg.DialTimeout < 0 {
		return NewValidationError("DialTimeout", "cannot be negative")
	}

	return nil
}

// restBaseURL derives the REST API base URL from the WebSocket endpoint:
// wss:// becomes https://, ws:// becomes http://, and a trailing /ws path
// segment is stripped.
func restBaseURL(wsURL string) string {
	base := wsURL
	if strings.HasPrefix(base, "wss://") {
		base = "https://" + strings.TrimPrefix(base, "wss://")
	} else if strings.HasPrefix(base, "ws://") {
		base = "http://" + strings.TrimPrefix(base, "ws://")
	}
	base = strings.TrimSuffix(base, "/ws")
	return strings.TrimSuffix(base, "/")
}
