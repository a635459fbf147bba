// Package sayna provides a Go client for the Sayna real-time voice API.
//
// The client opens a persistent WebSocket connection carrying control
// messages as JSON text frames and audio as binary frames, negotiates a
// session with a configuration handshake, and dispatches inbound messages
// to typed callback handlers. The same client also exposes the Sayna REST
// API: health checks, the voice catalogue, LiveKit token issuance and
// one-shot speech synthesis.
//
// Key features:
//   - WebSocket session with a connect/ready/closed lifecycle
//   - Event-driven architecture with callback handlers
//   - Raw audio streaming in both directions as binary frames
//   - LiveKit room integration (tokens, data messages, participants)
//   - Verified SIP webhook receiving
//
// Basic usage:
//
//	client, err := sayna.NewClient(sayna.Config{
//		URL:    "wss://api.sayna.ai/ws",
//		APIKey: "your-api-key",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client.OnSTTResult(func(r sayna.STTResultMessage) {
//		if r.IsSpeechFinal {
//			_ = client.SendSpeak(ctx, r.Transcript)
//		}
//	})
//
//	err = client.Connect(ctx, sayna.ConnectOptions{
//		STT: &sttConfig,
//		TTS: &ttsConfig,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Disconnect()
//
// Send operations (SendSpeak, SendClear, SendMessage, SendAudio) require the
// session to be ready: they return ErrNotConnected before Connect and
// ErrNotReady while the configuration handshake is still pending. Callbacks
// run serially on the dispatch loop goroutine in arrival order; a handler
// that needs concurrency should hand off to its own goroutine.
//
// The client never reconnects on its own. When the transport drops, the
// session moves to a closed state and the host decides whether to call
// Connect again.
package sayna
