package session

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"sync"

	"github.com/coder/websocket"
)

// Transport is one message-oriented socket connection. Implementations must
// support concurrent writes; reads happen from a single goroutine.
type Transport interface {
	ReadMessage(ctx context.Context) ([]byte, error)
	WriteMessage(ctx context.Context, data []byte) error
	Close(code int, reason string)
}

// Dialer opens a fresh Transport. The engine calls it once per connect
// attempt.
type Dialer func(ctx context.Context) (Transport, error)

// wsTransport wraps coder/websocket with a thread-safe write method.
type wsTransport struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// NewDialer returns a Dialer for the chat service endpoint. insecure relaxes
// certificate validation; the deployed endpoint uses a self-signed cert, so
// this is a configuration concern, not a protocol one.
func NewDialer(socketURL string, insecure bool) Dialer {
	client := http.DefaultClient
	if insecure {
		client = &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		}
	}
	return func(ctx context.Context) (Transport, error) {
		conn, _, err := websocket.Dial(ctx, socketURL, &websocket.DialOptions{HTTPClient: client})
		if err != nil {
			return nil, fmt.Errorf("session: ws dial: %w", err)
		}
		conn.SetReadLimit(1 << 20) // 1MB
		return &wsTransport{conn: conn}, nil
	}
}

// ReadMessage reads the next websocket message. Blocks until a message
// arrives, the context is cancelled, or the connection is closed.
func (t *wsTransport) ReadMessage(ctx context.Context) ([]byte, error) {
	_, data, err := t.conn.Read(ctx)
	return data, err
}

// WriteMessage sends one text frame. Thread-safe.
func (t *wsTransport) WriteMessage(ctx context.Context, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn.Write(ctx, websocket.MessageText, data)
}

// Close sends a close frame and shuts down the connection.
func (t *wsTransport) Close(code int, reason string) {
	t.conn.Close(websocket.StatusCode(code), reason)
}
