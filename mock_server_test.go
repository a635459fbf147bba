package sayna

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"nhooyr.io/websocket"
)

// fakeTransport is an in-memory transport for deterministic unit tests.
// Frames pushed through push* are delivered to the dispatch loop in order;
// writes are recorded for assertions.
type fakeTransport struct {
	frames  chan frame
	readErr chan error

	mu     sync.Mutex
	texts  [][]byte
	binary [][]byte
	closed bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		frames:  make(chan frame, 32),
		readErr: make(chan error, 1),
	}
}

func (f *fakeTransport) ReadFrame(ctx context.Context) (frame, error) {
	select {
	case fr := <-f.frames:
		return fr, nil
	case err := <-f.readErr:
		return frame{}, err
	case <-ctx.Done():
		return frame{}, ctx.Err()
	}
}

func (f *fakeTransport) WriteText(_ context.Context, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, append([]byte(nil), data...))
	return nil
}

func (f *fakeTransport) WriteBinary(_ context.Context, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.binary = append(f.binary, append([]byte(nil), data...))
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) pushRaw(data string) {
	f.frames <- frame{kind: frameText, data: []byte(data)}
}

func (f *fakeTransport) pushBinary(data []byte) {
	f.frames <- frame{kind: frameBinary, data: data}
}

func (f *fakeTransport) failRead(err error) {
	f.readErr <- err
}

func (f *fakeTransport) sentTexts() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.texts))
	copy(out, f.texts)
	return out
}

func (f *fakeTransport) sentBinary() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.binary))
	copy(out, f.binary)
	return out
}

func (f *fakeTransport) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// newFakeClient returns a client whose dialer hands out the given fake
// transport instead of touching the network.
func newFakeClient(t *testing.T) (*Client, *fakeTransport) {
	t.Helper()
	ft := newFakeTransport()
	c, err := NewClient(Config{URL: "ws://sayna.test/ws"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c.dial = func(context.Context, string, http.Header) (transport, error) {
		return ft, nil
	}
	return c, ft
}

// connectReady drives a fake client through connect and the ready handshake.
func connectReady(t *testing.T, c *Client, ft *fakeTransport) {
	t.Helper()
	ready := make(chan struct{})
	c.OnReady(func(ReadyMessage) { close(ready) })

	err := c.Connect(context.Background(), ConnectOptions{
		STT: &STTConfig{Provider: "deepgram", Language: "en-US", SampleRate: 16000, Channels: 1, Encoding: "linear16", Model: "nova-3"},
		TTS: &TTSConfig{Provider: "elevenlabs", VoiceID: "v1", SpeakingRate: 1.0, AudioFormat: "linear16", SampleRate: 16000, Model: "m1"},
	})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	ft.pushRaw(`{"type":"ready","livekit_url":"wss://x","livekit_room_name":"room-1"}`)
	waitSignal(t, ready, "timed out waiting for ready")
}

func waitSignal(t *testing.T, ch <-chan struct{}, msg string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal(msg)
	}
}

// mockServer is a WebSocket server that behaves like a Sayna endpoint: it
// answers the config handshake with a ready message and records everything
// the client sends.
type mockServer struct {
	t      *testing.T
	server *httptest.Server

	mu       sync.Mutex
	received []map[string]any
}

func newMockServer(t *testing.T) *mockServer {
	ms := &mockServer{t: t}
	ms.server = httptest.NewServer(http.HandlerFunc(ms.handleWebSocket))
	return ms
}

func (ms *mockServer) Close() {
	ms.server.Close()
}

// URL returns the WebSocket URL for the mock server.
func (ms *mockServer) URL() string {
	return "ws" + strings.TrimPrefix(ms.server.URL, "http") + "/ws"
}

func (ms *mockServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // For testing only
	})
	if err != nil {
		ms.t.Errorf("failed to upgrade to websocket: %v", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	for {
		typ, data, err := conn.Read(r.Context())
		if err != nil {
			return // Connection closed
		}
		if typ != websocket.MessageText {
			continue
		}

		var msg map[string]any
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		ms.mu.Lock()
		ms.received = append(ms.received, msg)
		ms.mu.Unlock()

		// Acknowledge the handshake the way the real server does.
		if msg["type"] == "config" {
			ready := `{"type":"ready","livekit_url":"wss://livekit.test","livekit_room_name":"mock-room","sayna_participant_identity":"sayna-ai","sayna_participant_name":"Sayna AI"}`
			if err := conn.Write(r.Context(), websocket.MessageText, []byte(ready)); err != nil {
				return
			}
		}
	}
}

// waitForMessage blocks until the client has sent a message of the given
// type or the timeout elapses.
func (ms *mockServer) waitForMessage(typ string, timeout time.Duration) (map[string]any, bool) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		ms.mu.Lock()
		for _, msg := range ms.received {
			if msg["type"] == typ {
				ms.mu.Unlock()
				return msg, true
			}
		}
		ms.mu.Unlock()
		time.Sleep(10 * time.Millisecond)
	}
	return nil, false
}
