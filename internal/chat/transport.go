package chat

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/teatok-app/teatok-tui/internal/models"
)

// Transport is one live connection to the messaging server. Implementations
// may or may not reconnect on their own; the session never assumes either.
type Transport interface {
	Connect() error
	Close() error
	Emit(event models.EventType, payload interface{}) error
	Receive() (models.Envelope, error)
}

type wsTransport struct {
	url string

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWebsocketTransport returns a Transport speaking the backend's named
// event envelope over a websocket.
func NewWebsocketTransport(url string) Transport {
	return &wsTransport{url: url}
}

func (t *wsTransport) Connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(t.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", t.url, err)
	}

	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()
	return nil
}

func (t *wsTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

func (t *wsTransport) Emit(event models.EventType, payload interface{}) error {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		raw = data
	}

	data, err := json.Marshal(models.Envelope{Type: event, Payload: raw})
	if err != nil {
		return err
	}

	// gorilla/websocket allows one concurrent writer.
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return fmt.Errorf("transport closed")
	}
	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) Receive() (models.Envelope, error) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return models.Envelope{}, fmt.Errorf("transport closed")
	}

	_, data, err := conn.ReadMessage()
	if err != nil {
		return models.Envelope{}, err
	}

	var env models.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return models.Envelope{}, err
	}
	return env, nil
}
