package chat

import (
	"sort"
	"sync"
)

// Presence is the set of user ids the server currently reports online.
// It is written only by the session's event handler; consumers read it.
// Once the session disconnects the set is stale and should be treated as
// unknown.
type Presence struct {
	mu    sync.RWMutex
	users map[string]struct{}
}

func newPresence() *Presence {
	return &Presence{users: make(map[string]struct{})}
}

func (p *Presence) replaceAll(users []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users = make(map[string]struct{}, len(users))
	for _, u := range users {
		p.users[u] = struct{}{}
	}
}

func (p *Presence) add(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users[userID] = struct{}{}
}

func (p *Presence) remove(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.users, userID)
}

// Online reports whether the server has announced userID as connected.
func (p *Presence) Online(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.users[userID]
	return ok
}

// List returns the online user ids, sorted.
func (p *Presence) List() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]string, 0, len(p.users))
	for u := range p.users {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

func (p *Presence) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.users)
}
