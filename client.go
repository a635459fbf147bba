package sayna

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// sendTimeout bounds individual WebSocket writes.
const sendTimeout = 15 * time.Second

// connState tracks the session lifecycle.
type connState int

const (
	stateIdle connState = iota
	stateConnecting
	stateConnected // configuration sent, ready not yet acknowledged
	stateReady
	stateClosed // transport failed; Connect may be called again
)

// Client is a connection to a Sayna server. It manages the WebSocket session
// lifecycle, dispatches inbound messages to registered callbacks, and exposes
// the Sayna REST API. The client is safe for concurrent use across multiple
// goroutines.
//
// Register callbacks before calling Connect so no early message is missed;
// late registration is permitted and takes effect for subsequent messages.
type Client struct {
	cfg     Config
	restURL string
	httpc   *http.Client
	dial    dialFunc

	// Connection state
	mu         sync.Mutex // Protects state, conn, loop handles and session fields
	state      connState
	conn       transport
	readCancel context.CancelFunc
	loopDone   chan struct{}
	writeMu    sync.Mutex // Serializes writes to the WebSocket

	// Session fields, populated by the ready message and reset on disconnect
	livekitRoomName          string
	livekitURL               string
	saynaParticipantIdentity string
	saynaParticipantName     string

	// Event handlers - called from the dispatch loop goroutine
	handlerMu                 sync.RWMutex
	onReady                   func(ReadyMessage)
	onSTTResult               func(STTResultMessage)
	onMessage                 func(MessageMessage)
	onError                   func(ErrorMessage)
	onParticipantDisconnected func(ParticipantDisconnectedMessage)
	onTTSPlaybackComplete     func(TTSPlaybackCompleteMessage)
	onAudio                   func([]byte)
}

// NewClient validates cfg and creates a client. No network I/O occurs until
// Connect is called; REST methods are usable immediately.
func NewClient(cfg Config) (*Client, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}

	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		cfg:     cfg,
		restURL: restBaseURL(cfg.URL),
		httpc:   httpc,
		dial:    dialWebSocket,
	}, nil
}

// ConnectOptions is the configuration bundle supplied at connect time.
type ConnectOptions struct {
	// STT and TTS configure the speech pipelines. Both are required unless
	// TextOnly is set.
	STT *STTConfig
	TTS *TTSConfig

	// LiveKit optionally requests a LiveKit room for the session.
	LiveKit *LiveKitConfig

	// TextOnly disables audio streaming; the speech configs become optional.
	TextOnly bool
}

// Connect opens the WebSocket connection, sends the configuration handshake
// and starts the dispatch loop. It validates the bundle before any network
// I/O: when audio is enabled (the default), both STT and TTS configs are
// required and a *ValidationError is returned otherwise.
//
// Calling Connect while already connected is a no-op with a warning. After a
// transport failure or a Disconnect the client may be connected again.
func (c *Client) Connect(ctx context.Context, opts ConnectOptions) error {
	c.mu.Lock()
	switch c.state {
	case stateConnecting, stateConnected, stateReady:
		c.mu.Unlock()
		c.logWarn("already_connected", map[string]any{"url": c.cfg.URL})
		return nil
	}

	audio := !opts.TextOnly
	if audio && (opts.STT == nil || opts.TTS == nil) {
		c.mu.Unlock()
		return &ValidationError{Message: "stt and tts configs are required when audio is enabled"}
	}
	c.state = stateConnecting
	c.mu.Unlock()

	// Prepare authentication and custom headers
	h := http.Header{}
	for k, vals := range c.cfg.HandshakeHeaders {
		for _, v := range vals {
			h.Add(k, v)
		}
	}
	if c.cfg.APIKey != "" {
		h.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	dialCtx := ctx
	if c.cfg.DialTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.cfg.DialTimeout)
		defer cancel()
	}

	conn, err := c.dial(dialCtx, c.cfg.URL, h)
	if err != nil {
		c.mu.Lock()
		c.state = stateClosed
		c.mu.Unlock()
		return NewConnectionError(c.cfg.URL, "dial", err)
	}

	cfgMsg := ConfigMessage{
		Type:      typeConfig,
		Audio:     audio,
		STTConfig: opts.STT,
		TTSConfig: opts.TTS,
		LiveKit:   opts.LiveKit,
	}
	data, err := json.Marshal(cfgMsg)
	if err == nil {
		err = conn.WriteText(ctx, data)
	}
	if err != nil {
		_ = conn.Close()
		c.mu.Lock()
		c.state = stateClosed
		c.mu.Unlock()
		return NewConnectionError(c.cfg.URL, "send config", err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.mu.Lock()
	c.conn = conn
	c.readCancel = cancel
	c.loopDone = done
	c.state = stateConnected
	c.mu.Unlock()

	c.logInfo("ws_connected", map[string]any{"url": c.cfg.URL})
	go c.readLoop(loopCtx, conn, done)
	return nil
}

// Disconnect tears the session down: it cancels the dispatch loop, waits for
// it to terminate, closes the WebSocket, resets session state and releases
// idle REST connections. Each step is best-effort; a failure is logged and
// the remaining steps still run. Calling Disconnect while not connected is a
// no-op with a warning.
//
// Disconnect must not be called from an event callback: it waits for the
// dispatch loop, and callbacks run on that loop. Spawn a goroutine instead.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	if c.conn == nil {
		c.mu.Unlock()
		c.logWarn("not_connected", nil)
		return nil
	}
	cancel := c.readCancel
	done := c.loopDone
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.readCancel = nil
	c.loopDone = nil
	c.resetSessionLocked()
	c.state = stateIdle
	c.mu.Unlock()

	var firstErr error
	if conn != nil {
		if err := conn.Close(); err != nil {
			c.logError("ws_close_failed", map[string]any{"err": err})
			firstErr = NewConnectionError(c.cfg.URL, "close", err)
		}
	}

	// Released last, regardless of prior failures.
	c.httpc.CloseIdleConnections()

	c.logInfo("disconnected", map[string]any{"url": c.cfg.URL})
	return firstErr
}

// resetSessionLocked clears the ready-handshake fields. Caller holds c.mu.
func (c *Client) resetSessionLocked() {
	c.livekitRoomName = ""
	c.livekitURL = ""
	c.saynaParticipantIdentity = ""
	c.saynaParticipantName = ""
}

// Connected reports whether the WebSocket is connected.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == stateConnected || c.state == stateReady
}

// Ready reports whether the server has acknowledged the configuration
// handshake. Send operations are only valid once Ready returns true.
func (c *Client) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == stateReady
}

// LiveKitRoomName returns the LiveKit room name, or "" before ready.
func (c *Client) LiveKitRoomName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.livekitRoomName
}

// LiveKitURL returns the LiveKit server URL, or "" before ready.
func (c *Client) LiveKitURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.livekitURL
}

// SaynaParticipantIdentity returns the agent participant identity, or ""
// before ready or when LiveKit is not enabled.
func (c *Client) SaynaParticipantIdentity() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saynaParticipantIdentity
}

// SaynaParticipantName returns the agent participant display name, or ""
// before ready or when LiveKit is not enabled.
func (c *Client) SaynaParticipantName() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saynaParticipantName
}

// Event handler registration methods
// Registration overwrites any previous handler for the same event kind;
// registering nil clears it. Handlers run on the dispatch loop goroutine in
// arrival order, so a slow handler delays delivery of subsequent messages.

// OnReady registers a callback for the ready handshake acknowledgement.
func (c *Client) OnReady(fn func(ReadyMessage)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onReady = fn
}

// OnSTTResult registers a callback for speech-to-text results.
func (c *Client) OnSTTResult(fn func(STTResultMessage)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onSTTResult = fn
}

// OnMessage registers a callback for participant data messages.
func (c *Client) OnMessage(fn func(MessageMessage)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onMessage = fn
}

// OnError registers a callback for server error messages.
func (c *Client) OnError(fn func(ErrorMessage)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onError = fn
}

// OnParticipantDisconnected registers a callback for participant departures.
func (c *Client) OnParticipantDisconnected(fn func(ParticipantDisconnectedMessage)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onParticipantDisconnected = fn
}

// OnTTSPlaybackComplete registers a callback for TTS playback completion.
func (c *Client) OnTTSPlaybackComplete(fn func(TTSPlaybackCompleteMessage)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onTTSPlaybackComplete = fn
}

// OnAudio registers a callback for raw TTS audio frames.
func (c *Client) OnAudio(fn func([]byte)) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	c.onAudio = fn
}

// Send operations
// All of them require the session to be Ready: ErrNotConnected is returned
// before Connect or after close, ErrNotReady while the handshake is pending.

// SpeakOption customizes a SendSpeak call.
type SpeakOption func(*SpeakMessage)

// WithoutFlush keeps pending TTS audio instead of flushing it first.
func WithoutFlush() SpeakOption {
	return func(m *SpeakMessage) { m.Flush = Ptr(false) }
}

// WithoutInterruption prevents later speak/clear commands from interrupting
// this speech.
func WithoutInterruption() SpeakOption {
	return func(m *SpeakMessage) { m.AllowInterruption = Ptr(false) }
}

// SendSpeak queues text for TTS synthesis. By default pending audio is
// flushed first and the speech may be interrupted.
func (c *Client) SendSpeak(ctx context.Context, text string, opts ...SpeakOption) error {
	msg := SpeakMessage{
		Type:              typeSpeak,
		Text:              text,
		Flush:             Ptr(true),
		AllowInterruption: Ptr(true),
	}
	for _, opt := range opts {
		opt(&msg)
	}
	return c.send(ctx, msg)
}

// SendClear clears queued TTS audio and resets LiveKit audio buffers.
func (c *Client) SendClear(ctx context.Context) error {
	return c.send(ctx, ClearMessage{Type: typeClear})
}

// MessageOption customizes a SendMessage call.
type MessageOption func(*SendMessageMessage)

// WithTopic overrides the LiveKit topic (default "messages").
func WithTopic(topic string) MessageOption {
	return func(m *SendMessageMessage) { m.Topic = Ptr(topic) }
}

// WithDebug attaches debug metadata to the message.
func WithDebug(debug map[string]any) MessageOption {
	return func(m *SendMessageMessage) { m.Debug = debug }
}

// SendMessage publishes a data message to the LiveKit room.
func (c *Client) SendMessage(ctx context.Context, message, role string, opts ...MessageOption) error {
	msg := SendMessageMessage{
		Type:    typeSendMessage,
		Message: message,
		Role:    role,
		Topic:   Ptr("messages"),
	}
	for _, opt := range opts {
		opt(&msg)
	}
	return c.send(ctx, msg)
}

// SendAudio streams raw audio bytes to the STT pipeline. The sample rate and
// encoding must match the STT config sent at connect time.
func (c *Client) SendAudio(ctx context.Context, audio []byte) error {
	conn, err := c.readyConn()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteBinary(ctx, audio); err != nil {
		return NewConnectionError(c.cfg.URL, "write", err)
	}
	return nil
}

// readyConn returns the transport if the session is Ready, or the state
// gating error otherwise.
func (c *Client) readyConn() (transport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case stateReady:
		if c.conn == nil {
			return nil, ErrNotConnected
		}
		return c.conn, nil
	case stateConnected:
		return nil, ErrNotReady
	default:
		return nil, ErrNotConnected
	}
}

func (c *Client) send(ctx context.Context, payload any) error {
	conn, err := c.readyConn()
	if err != nil {
		return err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return NewConnectionError(c.cfg.URL, "encode", err)
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteText(ctx, data); err != nil {
		return NewConnectionError(c.cfg.URL, "write", err)
	}
	return nil
}

// Dispatch loop

// readLoop is the single consumer of inbound frames. It runs from the moment
// the config message is sent until the transport closes, errors, or
// Disconnect cancels ctx. A malformed frame or a panicking callback never
// terminates the loop; only transport-level failure does.
func (c *Client) readLoop(ctx context.Context, conn transport, done chan struct{}) {
	defer close(done)

	for {
		f, err := conn.ReadFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				// Cancelled by Disconnect, which owns the teardown.
				c.logDebug("read_loop_cancelled", nil)
				return
			}
			c.logError("ws_read_failed", map[string]any{"err": err})
			c.teardownAfterFailure(conn)
			return
		}

		switch f.kind {
		case frameText:
			c.handleText(f.data)
		case frameBinary:
			c.handleBinary(f.data)
		}
	}
}

// teardownAfterFailure is the loop's exit action for transport errors: the
// session moves to Closed and the dead transport is released.
func (c *Client) teardownAfterFailure(conn transport) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.readCancel = nil
	c.resetSessionLocked()
	c.state = stateClosed
	c.mu.Unlock()
	_ = conn.Close()
}

func (c *Client) handleText(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.logError("bad_message_json", map[string]any{"err": err, "raw_data": string(data)})
		return
	}

	switch env.Type {
	case typeReady:
		msg, err := decodeReady(data)
		if err != nil {
			c.logError("bad_message", map[string]any{"type": env.Type, "err": err})
			return
		}
		c.handleReady(msg)
	case typeSTTResult:
		msg, err := decodeSTTResult(data)
		if err != nil {
			c.logError("bad_message", map[string]any{"type": env.Type, "err": err})
			return
		}
		c.handlerMu.RLock()
		fn := c.onSTTResult
		c.handlerMu.RUnlock()
		if fn != nil {
			c.invoke(env.Type, func() { fn(msg) })
		}
	case typeError:
		msg, err := decodeServerError(data)
		if err != nil {
			c.logError("bad_message", map[string]any{"type": env.Type, "err": err})
			return
		}
		c.logError("server_error", map[string]any{"message": msg.Message})
		c.handlerMu.RLock()
		fn := c.onError
		c.handlerMu.RUnlock()
		if fn != nil {
			c.invoke(env.Type, func() { fn(msg) })
		}
	case typeMessage:
		msg, err := decodeParticipantMessage(data)
		if err != nil {
			c.logError("bad_message", map[string]any{"type": env.Type, "err": err})
			return
		}
		c.handlerMu.RLock()
		fn := c.onMessage
		c.handlerMu.RUnlock()
		if fn != nil {
			c.invoke(env.Type, func() { fn(msg) })
		}
	case typeParticipantDisconnected:
		msg, err := decodeParticipantDisconnected(data)
		if err != nil {
			c.logError("bad_message", map[string]any{"type": env.Type, "err": err})
			return
		}
		c.logInfo("participant_disconnected", map[string]any{"identity": msg.Participant.Identity})
		c.handlerMu.RLock()
		fn := c.onParticipantDisconnected
		c.handlerMu.RUnlock()
		if fn != nil {
			c.invoke(env.Type, func() { fn(msg) })
		}
	case typeTTSPlaybackComplete:
		msg, err := decodeTTSPlaybackComplete(data)
		if err != nil {
			c.logError("bad_message", map[string]any{"type": env.Type, "err": err})
			return
		}
		c.handlerMu.RLock()
		fn := c.onTTSPlaybackComplete
		c.handlerMu.RUnlock()
		if fn != nil {
			c.invoke(env.Type, func() { fn(msg) })
		}
	default:
		c.logWarn("unknown_message_type", map[string]any{"type": env.Type})
	}
}

// handleReady flips the session to Ready and freezes the handshake fields
// before the callback runs.
func (c *Client) handleReady(msg ReadyMessage) {
	c.mu.Lock()
	if c.state == stateConnected {
		c.state = stateReady
		c.livekitURL = msg.LiveKitURL
		if msg.LiveKitRoomName != nil {
			c.livekitRoomName = *msg.LiveKitRoomName
		}
		if msg.SaynaParticipantIdentity != nil {
			c.saynaParticipantIdentity = *msg.SaynaParticipantIdentity
		}
		if msg.SaynaParticipantName != nil {
			c.saynaParticipantName = *msg.SaynaParticipantName
		}
	}
	c.mu.Unlock()

	c.logInfo("ready", map[string]any{"livekit_room": c.LiveKitRoomName()})

	c.handlerMu.RLock()
	fn := c.onReady
	c.handlerMu.RUnlock()
	if fn != nil {
		c.invoke(typeReady, func() { fn(msg) })
	}
}

func (c *Client) handleBinary(data []byte) {
	c.handlerMu.RLock()
	fn := c.onAudio
	c.handlerMu.RUnlock()
	if fn != nil {
		c.invoke("audio", func() { fn(data) })
	}
}

// invoke runs a callback, containing any panic so a misbehaving handler
// cannot take down the dispatch loop.
func (c *Client) invoke(kind string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logError("callback_panic", map[string]any{"type": kind, "panic": r})
		}
	}()
	fn()
}

// Logging helpers

func (c *Client) logDebug(event string, fields map[string]any) {
	if c.cfg.StructuredLogger != nil {
		c.cfg.StructuredLogger.Debug(event, fields)
	} else if c.cfg.Logger != nil {
		c.cfg.Logger(event, fields)
	}
}

func (c *Client) logInfo(event string, fields map[string]any) {
	if c.cfg.StructuredLogger != nil {
		c.cfg.StructuredLogger.Info(event, fields)
	} else if c.cfg.Logger != nil {
		c.cfg.Logger(event, fields)
	}
}

func (c *Client) logWarn(event string, fields map[string]any) {
	if c.cfg.StructuredLogger != nil {
		c.cfg.StructuredLogger.Warn(event, fields)
	} else if c.cfg.Logger != nil {
		c.cfg.Logger("WARN: "+event, fields)
	}
}

func (c *Client) logError(event string, fields map[string]any) {
	if c.cfg.StructuredLogger != nil {
		c.cfg.StructuredLogger.Error(event, fields)
	} else if c.cfg.Logger != nil {
		c.cfg.Logger("ERROR: "+event, fields)
	}
}
