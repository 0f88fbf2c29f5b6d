package relay

import (
	"sort"
	"sync"
)

// ConnID identifies one transport connection (a socket.io socket id).
type ConnID string

// Presence is the online-user set. Each user keeps the set of connections
// that announced it, so an abrupt disconnect can take the user offline
// once its last connection is gone.
type Presence struct {
	mu    sync.Mutex
	users map[string]map[ConnID]struct{}
}

func NewPresence() *Presence {
	return &Presence{users: make(map[string]map[ConnID]struct{})}
}

// Add reports whether the set of online users changed.
func (p *Presence) Add(conn ConnID, userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	conns, ok := p.users[userID]
	if !ok {
		conns = make(map[ConnID]struct{})
		p.users[userID] = conns
	}
	conns[conn] = struct{}{}
	return !ok
}

// Remove drops the user whatever connections it still has.
func (p *Presence) Remove(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.users[userID]; !ok {
		return false
	}
	delete(p.users, userID)
	return true
}

// Users returns the users bound to conn.
func (p *Presence) Users(conn ConnID) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	users := []string{}
	for userID, conns := range p.users {
		if _, ok := conns[conn]; ok {
			users = append(users, userID)
		}
	}
	sort.Strings(users)
	return users
}

// Detach unbinds conn from every user and removes users left without a
// live connection. It reports whether the set changed.
func (p *Presence) Detach(conn ConnID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	changed := false
	for userID, conns := range p.users {
		if _, ok := conns[conn]; !ok {
			continue
		}
		delete(conns, conn)
		if len(conns) == 0 {
			delete(p.users, userID)
			changed = true
		}
	}
	return changed
}

// Snapshot returns the online users sorted, never nil.
func (p *Presence) Snapshot() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	users := make([]string, 0, len(p.users))
	for userID := range p.users {
		users = append(users, userID)
	}
	sort.Strings(users)
	return users
}

func (p *Presence) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.users)
}

func (p *Presence) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users = make(map[string]map[ConnID]struct{})
}
