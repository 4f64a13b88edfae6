// Package chat is the real-time synchronization layer: it owns the live
// socket session for the logged-in user, tracks presence and typing state
// from server events, dispatches outgoing messages over the socket with a
// REST fallback, and holds the active conversation snapshot.
//
// The server is authoritative for everything. Conversation snapshots are
// applied wholesale, last write wins, and nothing is queued or retried:
// a failed fallback send requires a new user-initiated send.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teatok-app/teatok-tui/internal/api"
	"github.com/teatok-app/teatok-tui/internal/debug"
	"github.com/teatok-app/teatok-tui/internal/models"
)

var (
	ErrEmptyMessage = errors.New("message content is empty")
	ErrNoReceiver   = errors.New("no receiver for message")
)

// DefaultTypingWindow is the inactivity delay before a typing-stop is
// emitted for the local user.
const DefaultTypingWindow = time.Second

// Event is a named frame delivered to the UI layer after the session has
// applied it to its trackers and view state.
type Event struct {
	Type    models.EventType
	Payload json.RawMessage
}

// Fallback is the request/response surface used when no live session is
// connected. *api.Client satisfies it.
type Fallback interface {
	SendMessage(ctx context.Context, req models.SendMessagePayload) (*api.SendResult, error)
}

// Config wires a Client. Dial must return a fresh Transport per call: a
// session is never rebuilt on a stale connection.
type Config struct {
	Dial         func() (Transport, error)
	Fallback     Fallback
	TypingWindow time.Duration
	// EventBuffer sizes the UI event channel. Events are dropped, not
	// blocked on, when the consumer falls behind.
	EventBuffer int
}

// Client is the chat session for one user id. At most one live transport
// exists at a time; Open tears down any prior session before dialing.
type Client struct {
	dial     func() (Transport, error)
	fallback Fallback

	mu         sync.RWMutex
	transport  Transport
	userID     string
	connected  bool
	generation int

	presence *Presence
	typing   *TypingState
	active   *models.Chat

	emitter *typingEmitter
	events  chan Event
}

func New(cfg Config) *Client {
	window := cfg.TypingWindow
	if window <= 0 {
		window = DefaultTypingWindow
	}
	buffer := cfg.EventBuffer
	if buffer <= 0 {
		buffer = 64
	}

	c := &Client{
		dial:     cfg.Dial,
		fallback: cfg.Fallback,
		presence: newPresence(),
		typing:   newTypingState(),
		events:   make(chan Event, buffer),
	}
	c.emitter = newTypingEmitter(window, c.emitTypingStart, c.emitTypingStop)
	return c
}

// Open establishes the session for userID, replacing any existing one.
// An empty id clears the session without opening a new connection. The
// join signal is emitted before Open returns, so it precedes any send.
func (c *Client) Open(userID string) error {
	c.Close()
	if userID == "" {
		return models.ErrNotAuthenticated
	}

	transport, err := c.dial()
	if err != nil {
		return err
	}
	if err := transport.Connect(); err != nil {
		debug.Log("chat: connect error: %v", err)
		c.forward(Event{Type: models.EventConnectError})
		return err
	}

	if err := transport.Emit(models.EventJoinChat, userID); err != nil {
		transport.Close()
		debug.Log("chat: join error: %v", err)
		return err
	}

	c.mu.Lock()
	c.transport = transport
	c.userID = userID
	c.connected = true
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	c.forward(Event{Type: models.EventConnect})
	go c.readLoop(transport, gen)
	return nil
}

// Close tears down the live session, releasing the transport. Events from
// the torn-down connection are not delivered after Close returns.
func (c *Client) Close() {
	c.emitter.stop()

	c.mu.Lock()
	transport := c.transport
	c.transport = nil
	c.userID = ""
	wasConnected := c.connected
	c.connected = false
	c.generation++
	c.mu.Unlock()

	c.presence.replaceAll(nil)
	c.typing.reset()

	if transport != nil {
		transport.Close()
	}
	if wasConnected {
		c.forward(Event{Type: models.EventDisconnect})
	}
}

// Connected reports whether a live session exists. The flag is purely
// observational; sends route to the fallback path while it is false.
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func (c *Client) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// Presence is the online-users store, read-only for consumers.
func (c *Client) Presence() *Presence { return c.presence }

// Typing is the remote typing-flag store, read-only for consumers.
func (c *Client) Typing() *TypingState { return c.typing }

// Events delivers applied server events to the UI layer.
func (c *Client) Events() <-chan Event { return c.events }

func (c *Client) readLoop(transport Transport, gen int) {
	for {
		env, err := transport.Receive()
		if err != nil {
			c.mu.Lock()
			live := gen == c.generation
			if live {
				c.connected = false
			}
			c.mu.Unlock()
			if live {
				debug.Log("chat: disconnected: %v", err)
				c.forward(Event{Type: models.EventDisconnect})
			}
			return
		}
		if !c.handle(env, gen) {
			return
		}
	}
}

// handle applies one inbound event under the session lock and reports
// whether the originating connection is still current.
func (c *Client) handle(env models.Envelope, gen int) bool {
	c.mu.Lock()
	if gen != c.generation {
		c.mu.Unlock()
		return false
	}

	switch env.Type {
	case models.EventChatStatus:
		debug.Log("chat: status: %s", env.Payload)

	case models.EventUserOnline:
		var p models.PresencePayload
		if json.Unmarshal(env.Payload, &p) == nil && p.UserID != "" {
			c.presence.add(p.UserID)
		}

	case models.EventOnlineUsers:
		var p models.OnlineUsersPayload
		if json.Unmarshal(env.Payload, &p) == nil {
			c.presence.replaceAll(p.Users)
		}

	case models.EventUserOffline:
		var p models.PresencePayload
		if json.Unmarshal(env.Payload, &p) == nil && p.UserID != "" {
			c.presence.remove(p.UserID)
		}

	case models.EventUserTyping:
		var p models.UserTypingPayload
		if json.Unmarshal(env.Payload, &p) == nil && p.UserID != "" {
			c.typing.set(p.UserID, p.IsTyping)
		}

	case models.EventReceiveMessage:
		var p models.ChatSnapshotPayload
		if json.Unmarshal(env.Payload, &p) == nil && p.Chat != nil {
			c.applySnapshotLocked(p.Chat, false)
		}

	case models.EventMessageSent:
		var p models.ChatSnapshotPayload
		if json.Unmarshal(env.Payload, &p) == nil && p.Chat != nil {
			c.applySnapshotLocked(p.Chat, true)
		}

	case models.EventMessageError:
		debug.Log("chat: message error: %s", env.Payload)

	case models.EventMessagesRead:
		// Read receipts only matter through the next snapshot; surfaced
		// to the UI below for an optional list refresh.
	}
	c.mu.Unlock()

	c.forward(Event{Type: env.Type, Payload: env.Payload})
	return true
}

func (c *Client) forward(ev Event) {
	select {
	case c.events <- ev:
	default:
		// Drop rather than block the read loop on a slow consumer.
	}
}

// SendMessage dispatches a direct message. With a live session it emits
// over the socket and returns immediately; the server echo updates the
// view state later. Disconnected, it calls the REST fallback once: no
// retries and no optimistic insertion, errors go back to the caller.
func (c *Client) SendMessage(ctx context.Context, senderID, receiverID, content string, msgType models.MessageType) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrEmptyMessage
	}
	if receiverID == "" {
		return ErrNoReceiver
	}
	if msgType == "" {
		msgType = models.MessageTypeText
	}

	payload := models.SendMessagePayload{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		Type:       msgType,
	}

	c.mu.RLock()
	transport, connected := c.transport, c.connected
	c.mu.RUnlock()

	if connected && transport != nil {
		if err := transport.Emit(models.EventSendMessage, payload); err != nil {
			// Fire and forget: live-path failures surface only via the
			// message-error event or the eventual disconnect.
			debug.Log("chat: emit send-message: %v", err)
		}
		return nil
	}

	result, err := c.fallback.SendMessage(ctx, payload)
	if err != nil {
		return err
	}
	if result != nil && result.Chat != nil {
		c.mu.Lock()
		c.applySnapshotLocked(result.Chat, true)
		c.mu.Unlock()
	}
	return nil
}

// MarkAsRead emits a read marker over the live session. There is no
// fallback: disconnected, the marker is silently dropped.
func (c *Client) MarkAsRead(chatID, userID, messageID string) {
	c.mu.RLock()
	transport, connected := c.transport, c.connected
	c.mu.RUnlock()
	if !connected || transport == nil {
		return
	}
	payload := models.MarkReadPayload{ChatID: chatID, UserID: userID, MessageID: messageID}
	if err := transport.Emit(models.EventMarkRead, payload); err != nil {
		debug.Log("chat: emit mark-read: %v", err)
	}
}

// InputActivity records a keystroke by the local user in a conversation,
// driving the debounced typing-start/typing-stop emission.
func (c *Client) InputActivity(chatID, userID, receiverID string) {
	c.emitter.keystroke(chatID, userID, receiverID)
}

// StopTyping ends the local composition immediately, as on a successful
// send or when leaving the conversation.
func (c *Client) StopTyping() {
	c.emitter.stop()
}

func (c *Client) emitTypingStart(chatID, userID, receiverID string) {
	c.emitTyping(models.EventTypingStart, chatID, userID, receiverID)
}

func (c *Client) emitTypingStop(chatID, userID, receiverID string) {
	c.emitTyping(models.EventTypingStop, chatID, userID, receiverID)
}

func (c *Client) emitTyping(event models.EventType, chatID, userID, receiverID string) {
	c.mu.RLock()
	transport, connected := c.transport, c.connected
	c.mu.RUnlock()
	if !connected || transport == nil {
		return
	}
	payload := models.TypingPayload{ChatID: chatID, UserID: userID, ReceiverID: receiverID}
	if err := transport.Emit(event, payload); err != nil {
		debug.Log("chat: emit %s: %v", event, err)
	}
}

// SetActiveChat replaces the active conversation wholesale. nil clears it.
func (c *Client) SetActiveChat(chat *models.Chat) {
	c.mu.Lock()
	c.active = chat
	c.mu.Unlock()
}

// ActiveChat returns the last server snapshot (or placeholder) selected.
func (c *Client) ActiveChat() *models.Chat {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// applySnapshotLocked merges a server conversation snapshot into the view
// state. A snapshot replaces the active conversation only when the ids
// match, except that a send acknowledgment also supersedes a client-side
// placeholder, which never receives server-addressed events of its own.
func (c *Client) applySnapshotLocked(chat *models.Chat, sendAck bool) {
	if c.active == nil || chat.ID == "" {
		return
	}
	if c.active.ID == chat.ID || (sendAck && c.active.IsPlaceholder()) {
		c.active = chat
	}
}

// NewPlaceholderChat builds the client-only conversation shown when the
// user starts a chat with someone with no prior history. It is replaced by
// the server's snapshot after the first successful send or fetch.
func NewPlaceholderChat(self, other models.Participant) *models.Chat {
	now := time.Now().UTC().Format(time.RFC3339)
	return &models.Chat{
		ID:           models.PlaceholderPrefix + uuid.NewString(),
		Participants: []models.Participant{self, other},
		Messages:     []models.ChatMessage{},
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
