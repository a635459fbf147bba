package sayna

import (
	"context"
	"net/http"

	"nhooyr.io/websocket"
)

// maxFrameSize bounds inbound frames; audio frames can be large.
const maxFrameSize = 4 << 20

// frameKind classifies an inbound WebSocket frame.
type frameKind int

const (
	frameText frameKind = iota
	frameBinary
)

// frame is one inbound WebSocket message.
type frame struct {
	kind frameKind
	data []byte
}

// transport is the duplex socket contract the client runs on. Control
// messages travel as text frames, audio as binary frames. ReadFrame blocks
// until a frame arrives, the peer closes, or ctx is cancelled; any error
// return means the transport is no longer usable.
type transport interface {
	ReadFrame(ctx context.Context) (frame, error)
	WriteText(ctx context.Context, data []byte) error
	WriteBinary(ctx context.Context, data []byte) error
	Close() error
}

// dialFunc opens a transport. It is a Client field so tests can substitute
// a fake and observe that validation failures never reach the network.
type dialFunc func(ctx context.Context, url string, header http.Header) (transport, error)

// wsTransport implements transport over nhooyr.io/websocket.
type wsTransport struct {
	conn *websocket.Conn
}

func dialWebSocket(ctx context.Context, url string, header http.Header) (transport, error) {
	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{HTTPHeader: header})
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(maxFrameSize)
	return &wsTransport{conn: conn}, nil
}

func (t *wsTransport) ReadFrame(ctx context.Context) (frame, error) {
	typ, data, err := t.conn.Read(ctx)
	if err != nil {
		return frame{}, err
	}
	if typ == websocket.MessageText {
		return frame{kind: frameText, data: data}, nil
	}
	return frame{kind: frameBinary, data: data}, nil
}

func (t *wsTransport) WriteText(ctx context.Context, data []byte) error {
	return t.conn.Write(ctx, websocket.MessageText, data)
}

func (t *wsTransport) WriteBinary(ctx context.Context, data []byte) error {
	return t.conn.Write(ctx, websocket.MessageBinary, data)
}

func (t *wsTransport) Close() error {
	return t.conn.Close(websocket.StatusNormalClosure, "disconnect")
}
