package chat

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type typingRecorder struct {
	mu     sync.Mutex
	starts []time.Time
	stops  []time.Time
}

func (r *typingRecorder) start(chatID, userID, receiverID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts = append(r.starts, time.Now())
}

func (r *typingRecorder) stop(chatID, userID, receiverID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops = append(r.stops, time.Now())
}

func (r *typingRecorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.starts), len(r.stops)
}

func TestTypingStateVerbatim(t *testing.T) {
	s := newTypingState()

	s.set("u2", true)
	assert.True(t, s.IsTyping("u2"))

	// The remote flag is trusted until the next event for that id.
	s.set("u2", false)
	assert.False(t, s.IsTyping("u2"))
	assert.False(t, s.IsTyping("unknown"))
}

func TestTypingEmitterDebounce(t *testing.T) {
	rec := &typingRecorder{}
	window := 100 * time.Millisecond
	e := newTypingEmitter(window, rec.start, rec.stop)

	begin := time.Now()
	// Keystrokes inside the window keep the composition alive.
	e.keystroke("c1", "u1", "u2")
	time.Sleep(30 * time.Millisecond)
	e.keystroke("c1", "u1", "u2")
	time.Sleep(30 * time.Millisecond)
	e.keystroke("c1", "u1", "u2")

	starts, stops := rec.counts()
	require.Equal(t, 1, starts, "start emitted once per composition")
	require.Equal(t, 0, stops, "no stop while keystrokes keep arriving")

	// The stop fires one window after the last keystroke, not the first.
	deadline := time.Now().Add(400 * time.Millisecond)
	for {
		if _, stops = rec.counts(); stops > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.Equal(t, 1, stops, "stop emitted after inactivity")

	rec.mu.Lock()
	stopAt := rec.stops[0]
	rec.mu.Unlock()
	lastKeystroke := begin.Add(60 * time.Millisecond)
	assert.GreaterOrEqual(t, stopAt.Sub(lastKeystroke), window-10*time.Millisecond,
		"stop must not fire before the window elapses after the last keystroke")
}

func TestTypingEmitterStopOnSend(t *testing.T) {
	rec := &typingRecorder{}
	e := newTypingEmitter(time.Minute, rec.start, rec.stop)

	e.keystroke("c1", "u1", "u2")
	e.stop()

	starts, stops := rec.counts()
	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, stops, "send stops typing immediately")

	// A stop with no open composition emits nothing.
	e.stop()
	_, stops = rec.counts()
	assert.Equal(t, 1, stops)

	// The next keystroke opens a new composition.
	e.keystroke("c1", "u1", "u2")
	starts, _ = rec.counts()
	assert.Equal(t, 2, starts)
}

func TestTypingEmitterConversationSwitch(t *testing.T) {
	rec := &typingRecorder{}
	e := newTypingEmitter(time.Minute, rec.start, rec.stop)

	e.keystroke("c1", "u1", "u2")
	e.keystroke("c2", "u1", "u3")

	starts, stops := rec.counts()
	assert.Equal(t, 2, starts, "new conversation opens a new composition")
	assert.Equal(t, 1, stops, "old conversation is closed out first")
}
