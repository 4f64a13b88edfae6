package chat

import (
	"sync"
	"time"
)

// TypingState holds the remote "is typing" flag per counterpart user id.
// Incoming events are trusted verbatim; no local expiry is applied.
type TypingState struct {
	mu    sync.RWMutex
	users map[string]bool
}

func newTypingState() *TypingState {
	return &TypingState{users: make(map[string]bool)}
}

func (t *TypingState) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.users = make(map[string]bool)
}

func (t *TypingState) set(userID string, isTyping bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.users[userID] = isTyping
}

// IsTyping reports the last typing flag the server sent for userID.
func (t *TypingState) IsTyping(userID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.users[userID]
}

// typingEmitter debounces outgoing typing signals for the local user.
// The first keystroke emits a start; each keystroke resets the stop timer;
// the timer firing (or an explicit stop, e.g. on send) emits a stop.
type typingEmitter struct {
	mu     sync.Mutex
	window time.Duration
	active bool
	timer  *time.Timer

	chatID     string
	userID     string
	receiverID string

	emitStart func(chatID, userID, receiverID string)
	emitStop  func(chatID, userID, receiverID string)
}

func newTypingEmitter(window time.Duration, start, stop func(chatID, userID, receiverID string)) *typingEmitter {
	return &typingEmitter{window: window, emitStart: start, emitStop: stop}
}

func (e *typingEmitter) keystroke(chatID, userID, receiverID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Switching conversations mid-composition closes out the old one.
	if e.active && e.chatID != chatID {
		e.stopLocked()
	}

	e.chatID, e.userID, e.receiverID = chatID, userID, receiverID

	if !e.active {
		e.active = true
		e.emitStart(chatID, userID, receiverID)
	}

	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.window, e.expire)
}

func (e *typingEmitter) expire() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

// stop ends composition immediately, emitting a stop if one is owed.
func (e *typingEmitter) stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

func (e *typingEmitter) stopLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	if !e.active {
		return
	}
	e.active = false
	e.emitStop(e.chatID, e.userID, e.receiverID)
}
