package sayna

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// REST API methods. The base URL is derived from the WebSocket URL at
// construction time; wss://host/ws serves its REST API at https://host.

// Health checks the server health status.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	var out HealthResponse
	err := c.restJSON(ctx, http.MethodGet, "/", nil, &out)
	return out, err
}

// Voices retrieves the catalogue of text-to-speech voices grouped by
// provider name.
func (c *Client) Voices(ctx context.Context) (map[string][]VoiceDescriptor, error) {
	out := map[string][]VoiceDescriptor{}
	if err := c.restJSON(ctx, http.MethodGet, "/voices", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Speak synthesizes text to speech in a single REST call, without a
// WebSocket session. It returns the raw audio bytes and the response
// headers, which include Content-Type, x-audio-format and x-sample-rate.
func (c *Client) Speak(ctx context.Context, text string, ttsConfig TTSConfig) ([]byte, http.Header, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil, NewValidationError("text", "cannot be empty")
	}

	body, err := json.Marshal(SpeakRequest{Text: text, TTSConfig: ttsConfig})
	if err != nil {
		return nil, nil, fmt.Errorf("sayna: encode speak request: %w", err)
	}

	resp, err := c.restDo(ctx, http.MethodPost, "/speak", body)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, nil, restError(resp)
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, NewServerError(resp.StatusCode, fmt.Sprintf("read audio body: %v", err))
	}
	return audio, resp.Header, nil
}

// LiveKitToken issues a LiveKit access token for a participant.
func (c *Client) LiveKitToken(ctx context.Context, roomName, participantName, participantIdentity string) (LiveKitTokenResponse, error) {
	var out LiveKitTokenResponse
	switch {
	case strings.TrimSpace(roomName) == "":
		return out, NewValidationError("room_name", "cannot be blank")
	case strings.TrimSpace(participantName) == "":
		return out, NewValidationError("participant_name", "cannot be blank")
	case strings.TrimSpace(participantIdentity) == "":
		return out, NewValidationError("participant_identity", "cannot be blank")
	}

	req := LiveKitTokenRequest{
		RoomName:            roomName,
		ParticipantName:     participantName,
		ParticipantIdentity: participantIdentity,
	}
	err := c.restJSON(ctx, http.MethodPost, "/livekit/token", req, &out)
	return out, err
}

// SIPHooks lists the configured SIP webhook hooks.
func (c *Client) SIPHooks(ctx context.Context) ([]SIPHook, error) {
	var out SIPHooksResponse
	if err := c.restJSON(ctx, http.MethodGet, "/sip/hooks", nil, &out); err != nil {
		return nil, err
	}
	return out.Hooks, nil
}

// SetSIPHooks adds or replaces SIP webhook hooks; hooks with matching hosts
// are replaced. It returns the resulting full hook list.
func (c *Client) SetSIPHooks(ctx context.Context, hooks []SIPHook) ([]SIPHook, error) {
	var out SIPHooksResponse
	req := SIPHooksResponse{Hooks: hooks}
	if err := c.restJSON(ctx, http.MethodPost, "/sip/hooks", req, &out); err != nil {
		return nil, err
	}
	return out.Hooks, nil
}

// restJSON performs a REST round trip with JSON bodies on both sides.
func (c *Client) restJSON(ctx context.Context, method, path string, in, out any) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("sayna: encode request: %w", err)
		}
	}

	resp, err := c.restDo(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return restError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return NewServerError(resp.StatusCode, fmt.Sprintf("decode JSON response: %v", err))
	}
	return nil
}

func (c *Client) restDo(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.restURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("sayna: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, NewConnectionError(c.restURL+path, method, err)
	}
	return resp, nil
}

// restError maps an error response to the Sayna error taxonomy: 5xx becomes
// a *ServerError, 4xx a *ValidationError carrying the server's message.
func restError(resp *http.Response) error {
	msg := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))

	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
		msg = payload.Error
	}

	if resp.StatusCode >= 500 {
		return NewServerError(resp.StatusCode, msg)
	}
	return &ValidationError{Message: msg}
}
