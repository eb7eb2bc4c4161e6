package broadcast

import (
	"errors"
	"sync"

	"github.com/campuseats/campus-eats/utils"
)

// DefaultMaxRoomMembers bounds a single room so a buggy client loop cannot
// grow membership without limit.
const DefaultMaxRoomMembers = 512

var (
	ErrRoomFull = errors.New("room is full")

	errNotOwnRoom     = errors.New("may only join own user room")
	errNotOutletStaff = errors.New("outlet room requires staff of that outlet")
)

// Hub is the in-process publish/subscribe broadcaster. Rooms are created
// implicitly on first join and drain to empty when connections close; the
// hub keeps no memory of a connection's memberships after it disconnects,
// so rejoining after a reconnect is the client's responsibility.
//
// Hubs are constructed explicitly and passed by reference so tests can run
// isolated instances.
type Hub struct {
	mu             sync.RWMutex
	rooms          map[string]map[*Client]struct{}
	MaxRoomMembers int
}

func NewHub() *Hub {
	return &Hub{
		rooms:          make(map[string]map[*Client]struct{}),
		MaxRoomMembers: DefaultMaxRoomMembers,
	}
}

// Join adds the client to a room. Joining a room the client is already in
// has no effect.
func (h *Hub) Join(c *Client, room string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	if _, ok := members[c]; ok {
		return nil
	}
	if len(members) >= h.MaxRoomMembers {
		return ErrRoomFull
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
	return nil
}

// Leave removes the client from a room, dropping the room once empty.
func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
}

// LeaveAll removes the client from every room it joined. Called when the
// connection closes.
func (h *Hub) LeaveAll(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room := range c.rooms {
		h.leaveLocked(c, room)
	}
}

func (h *Hub) leaveLocked(c *Client, room string) {
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c)
	delete(c.rooms, room)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// RoomSize reports the current member count of a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Publish delivers an event to every current member of the room.
// Publishing to an empty or unknown room is a no-op, never an error:
// broadcast is advisory and disconnected clients resynchronize with a full
// fetch on reconnect.
func (h *Hub) Publish(room, event string, data interface{}) {
	frame, err := Encode(event, data)
	if err != nil {
		utils.ErrorLogger.Printf("broadcast: encode %s: %v", event, err)
		return
	}

	h.mu.Lock()
	var slow []*Client
	for c := range h.rooms[room] {
		if !c.enqueue(frame) {
			slow = append(slow, c)
		}
	}
	for _, c := range slow {
		for r := range c.rooms {
			h.leaveLocked(c, r)
		}
	}
	h.mu.Unlock()

	for _, c := range slow {
		utils.InfoLogger.Printf("broadcast: dropping slow client user=%d", c.identity.UserID)
		c.shutdown()
	}
}

// BroadcastAll delivers an event to every connected client in every room.
// A client in several rooms receives the event once.
func (h *Hub) BroadcastAll(event string, data interface{}) {
	frame, err := Encode(event, data)
	if err != nil {
		utils.ErrorLogger.Printf("broadcast: encode %s: %v", event, err)
		return
	}

	h.mu.Lock()
	seen := make(map[*Client]struct{})
	var slow []*Client
	for _, members := range h.rooms {
		for c := range members {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			if !c.enqueue(frame) {
				slow = append(slow, c)
			}
		}
	}
	for _, c := range slow {
		for r := range c.rooms {
			h.leaveLocked(c, r)
		}
	}
	h.mu.Unlock()

	for _, c := range slow {
		c.shutdown()
	}
}
