package sayna

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newRESTClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(Config{URL: server.URL + "/ws", APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c, server
}

func TestHealth(t *testing.T) {
	c, _ := newRESTClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" || r.Method != http.MethodGet {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewEncoder(w).Encode(HealthResponse{Status: "OK"})
	}))

	out, err := c.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if out.Status != "OK" {
		t.Errorf("Status = %q, want OK", out.Status)
	}
}

func TestVoices(t *testing.T) {
	c, _ := newRESTClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/voices" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"elevenlabs":[{"id":"v1","name":"Aria","sample":"https://cdn/a.mp3","accent":"american","gender":"female","language":"en"}]}`))
	}))

	voices, err := c.Voices(context.Background())
	if err != nil {
		t.Fatalf("Voices: %v", err)
	}
	list := voices["elevenlabs"]
	if len(list) != 1 || list[0].ID != "v1" || list[0].Name != "Aria" {
		t.Errorf("unexpected voices: %+v", voices)
	}
}

func TestSpeak(t *testing.T) {
	audio := []byte{0x52, 0x49, 0x46, 0x46} // RIFF
	c, _ := newRESTClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/speak" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req SpeakRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode speak request: %v", err)
		}
		if req.Text != "hello" || req.TTSConfig.VoiceID != "v1" {
			t.Errorf("unexpected speak request: %+v", req)
		}
		w.Header().Set("Content-Type", "audio/wav")
		w.Header().Set("x-audio-format", "linear16")
		w.Header().Set("x-sample-rate", "16000")
		w.Write(audio)
	}))

	got, headers, err := c.Speak(context.Background(), "hello", TTSConfig{Provider: "elevenlabs", VoiceID: "v1"})
	if err != nil {
		t.Fatalf("Speak: %v", err)
	}
	if string(got) != string(audio) {
		t.Errorf("audio = %v, want %v", got, audio)
	}
	if headers.Get("x-audio-format") != "linear16" {
		t.Errorf("x-audio-format = %q", headers.Get("x-audio-format"))
	}
	if headers.Get("x-sample-rate") != "16000" {
		t.Errorf("x-sample-rate = %q", headers.Get("x-sample-rate"))
	}
}

func TestSpeak_EmptyText(t *testing.T) {
	c, err := NewClient(Config{URL: "ws://sayna.test/ws"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, _, err = c.Speak(context.Background(), "   ", TTSConfig{})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "text" {
		t.Errorf("Field = %q, want text", verr.Field)
	}
}

func TestLiveKitToken(t *testing.T) {
	c, _ := newRESTClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/livekit/token" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req LiveKitTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode token request: %v", err)
		}
		json.NewEncoder(w).Encode(LiveKitTokenResponse{
			Token:               "jwt-token",
			RoomName:            req.RoomName,
			ParticipantIdentity: req.ParticipantIdentity,
			LiveKitURL:          "wss://livekit.test",
		})
	}))

	out, err := c.LiveKitToken(context.Background(), "room-1", "Alice", "user-1")
	if err != nil {
		t.Fatalf("LiveKitToken: %v", err)
	}
	if out.Token != "jwt-token" || out.RoomName != "room-1" {
		t.Errorf("unexpected response: %+v", out)
	}
}

func TestLiveKitToken_BlankFields(t *testing.T) {
	c, err := NewClient(Config{URL: "ws://sayna.test/ws"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	tests := []struct {
		name                       string
		room, pname, pidentity     string
		wantField                  string
	}{
		{"blank room", "", "Alice", "user-1", "room_name"},
		{"blank name", "room-1", " ", "user-1", "participant_name"},
		{"blank identity", "room-1", "Alice", "", "participant_identity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.LiveKitToken(context.Background(), tt.room, tt.pname, tt.pidentity)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestSIPHooks(t *testing.T) {
	c, _ := newRESTClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sip/hooks" {
			t.Errorf("path = %s", r.URL.Path)
		}
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(`{"hooks":[{"host":"sip.example.com","url":"https://app.example.com/hook"}]}`))
		case http.MethodPost:
			var req SIPHooksResponse
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode hooks request: %v", err)
			}
			json.NewEncoder(w).Encode(req)
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))

	hooks, err := c.SIPHooks(context.Background())
	if err != nil {
		t.Fatalf("SIPHooks: %v", err)
	}
	if len(hooks) != 1 || hooks[0].Host != "sip.example.com" {
		t.Errorf("unexpected hooks: %+v", hooks)
	}

	updated, err := c.SetSIPHooks(context.Background(), []SIPHook{{Host: "other.example.com", URL: "https://app.example.com/other"}})
	if err != nil {
		t.Fatalf("SetSIPHooks: %v", err)
	}
	if len(updated) != 1 || updated[0].Host != "other.example.com" {
		t.Errorf("unexpected hooks: %+v", updated)
	}
}

func TestRESTError_ClientError(t *testing.T) {
	c, _ := newRESTClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"voice_id is required"}`))
	}))

	_, err := c.Voices(context.Background())
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Message != "voice_id is required" {
		t.Errorf("Message = %q, want server-provided message", verr.Message)
	}
}

func TestRESTError_ServerError(t *testing.T) {
	c, _ := newRESTClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"upstream tts failed"}`))
	}))

	_, err := c.Health(context.Background())
	var serr *ServerError
	if !errors.As(err, &serr) {
		t.Fatalf("expected ServerError, got %v", err)
	}
	if serr.Status != http.StatusBadGateway {
		t.Errorf("Status = %d, want 502", serr.Status)
	}
	if serr.Message != "upstream tts failed" {
		t.Errorf("Message = %q", serr.Message)
	}
	if !errors.Is(err, ErrServer) {
		t.Error("expected error to match ErrServer")
	}
}

func TestRESTError_NonJSONBody(t *testing.T) {
	c, _ := newRESTClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("Internal Server Error"))
	}))

	_, err := c.Health(context.Background())
	var serr *ServerError
	if !errors.As(err, &serr) {
		t.Fatalf("expected ServerError, got %v", err)
	}
	if serr.Status != http.StatusInternalServerError {
		t.Errorf("Status = %d", serr.Status)
	}
}

func TestRESTError_ConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c, err := NewClient(Config{URL: url + "/ws"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	_, err = c.Health(context.Background())
	var cerr *ConnectionError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConnectionError, got %v", err)
	}
	if !errors.Is(err, ErrConnectionFailed) {
		t.Error("expected error to match ErrConnectionFailed")
	}
}
