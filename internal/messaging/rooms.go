// internal/messaging/rooms.go
// Room membership and fan-out, kept behind an interface so the relay
// logic is testable without a transport and so a multi-process backplane
// could be substituted later. The in-memory implementation is explicitly
// single-process; that is the current scaling boundary.

package messaging

import (
	"encoding/json"
	"log"
	"sync"
)

// RoomRegistry tracks which connections are in which rooms and fans
// events out to them.
type RoomRegistry interface {
	// Attach registers a connection's outbound queue. Must be called
	// before any Join for that connection.
	Attach(connID string, send chan<- []byte)
	// Detach removes the connection from every room and forgets its queue.
	Detach(connID string)

	Join(connID, room string)
	Leave(connID, room string)

	// Broadcast delivers an event to every connection in the room.
	// Connections with a full queue are skipped, not blocked on.
	Broadcast(room string, event Event)

	// Members returns the connection ids currently in the room.
	Members(room string) []string
}

type memoryRoomRegistry struct {
	mu    sync.RWMutex
	rooms map[string]map[string]bool
	conns map[string]chan<- []byte
	// reverse index so Detach does not scan every room
	joined map[string]map[string]bool
}

// NewMemoryRoomRegistry returns the single-process registry.
func NewMemoryRoomRegistry() RoomRegistry {
	return &memoryRoomRegistry{
		rooms:  make(map[string]map[string]bool),
		conns:  make(map[string]chan<- []byte),
		joined: make(map[string]map[string]bool),
	}
}

func (r *memoryRoomRegistry) Attach(connID string, send chan<- []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[connID] = send
	r.joined[connID] = make(map[string]bool)
}

func (r *memoryRoomRegistry) Detach(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for room := range r.joined[connID] {
		delete(r.rooms[room], connID)
		if len(r.rooms[room]) == 0 {
			delete(r.rooms, room)
		}
	}
	delete(r.joined, connID)
	delete(r.conns, connID)
}

func (r *memoryRoomRegistry) Join(connID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, attached := r.conns[connID]; !attached {
		return
	}
	if r.rooms[room] == nil {
		r.rooms[room] = make(map[string]bool)
	}
	r.rooms[room][connID] = true
	r.joined[connID][room] = true
}

func (r *memoryRoomRegistry) Leave(connID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms[room], connID)
	if len(r.rooms[room]) == 0 {
		delete(r.rooms, room)
	}
	delete(r.joined[connID], room)
}

func (r *memoryRoomRegistry) Broadcast(room string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshalling %s event: %v", event.Event, err)
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for connID := range r.rooms[room] {
		send, ok := r.conns[connID]
		if !ok {
			continue
		}
		select {
		case send <- data:
		default:
			// Slow consumer; the connection's own pump will notice.
			recordEventDropped(event.Event)
		}
	}
}

func (r *memoryRoomRegistry) Members(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := make([]string, 0, len(r.rooms[room]))
	for connID := range r.rooms[room] {
		members = append(members, connID)
	}
	return members
}
