package server

import (
	"encoding/json"
	"sync"

	"github.com/skyloft/kitedrift/internal/game"
)

type subscriber struct {
	ch     chan []byte
	roomID int64
}

// Gateway is the process-wide connection registry: one outbound queue per
// connected user, plus the user's current room association. Broadcasts are
// read-mostly and never block the simulation; a slow subscriber just loses
// messages.
type Gateway struct {
	mu   sync.RWMutex
	subs map[int64]*subscriber
}

func NewGateway() *Gateway {
	return &Gateway{subs: make(map[int64]*subscriber)}
}

// Connect registers the user and returns the channel their socket's write
// pump drains. Reconnecting replaces any previous registration.
func (g *Gateway) Connect(userID int64) chan []byte {
	ch := make(chan []byte, 64)
	g.mu.Lock()
	g.subs[userID] = &subscriber{ch: ch}
	g.mu.Unlock()
	return ch
}

// Disconnect removes the registration, but only if ch still belongs to the
// user; a reconnect may have replaced it already.
func (g *Gateway) Disconnect(userID int64, ch chan []byte) {
	g.mu.Lock()
	if sub, ok := g.subs[userID]; ok && sub.ch == ch {
		delete(g.subs, userID)
	}
	g.mu.Unlock()
}

// Associate records which room the user's broadcasts should follow.
func (g *Gateway) Associate(userID, roomID int64) {
	g.mu.Lock()
	if sub, ok := g.subs[userID]; ok {
		sub.roomID = roomID
	}
	g.mu.Unlock()
}

// Dissociate detaches the user from room broadcasts without dropping the
// connection.
func (g *Gateway) Dissociate(userID int64) {
	g.mu.Lock()
	if sub, ok := g.subs[userID]; ok {
		sub.roomID = 0
	}
	g.mu.Unlock()
}

// ToRoom fans a message out to every connection associated with the room.
func (g *Gateway) ToRoom(roomID int64, msg game.Message) {
	data, _ := json.Marshal(msg)
	g.mu.RLock()
	for _, sub := range g.subs {
		if sub.roomID != roomID {
			continue
		}
		select {
		case sub.ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	g.mu.RUnlock()
}

// ToUser delivers a message to one user, if connected.
func (g *Gateway) ToUser(userID int64, msg game.Message) {
	data, _ := json.Marshal(msg)
	g.mu.RLock()
	if sub, ok := g.subs[userID]; ok {
		select {
		case sub.ch <- data:
		default:
		}
	}
	g.mu.RUnlock()
}
