package hub

import (
	"sync"
	"time"

	"github.com/Tomato-onionn/GSS-Room-Service/internal/domain"
)

// Registry tracks which signaling connections currently occupy which room.
// It owns two coupled indices: rooms (roomID -> connectionID -> entry) and
// conns (connectionID -> roomID). One lock guards both so that a connection
// can never be observed in one index but not the other. Critical sections
// are memory-only; no lock is ever held across a network send.
type Registry struct {
	mu    sync.RWMutex
	rooms map[uint]map[string]*domain.PresenceEntry
	conns map[string]uint
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[uint]map[string]*domain.PresenceEntry),
		conns: make(map[string]uint),
	}
}

// Eviction reports a membership the connection lost as a side effect of
// joining another room.
type Eviction struct {
	RoomID uint
	Entry  domain.PresenceEntry
}

// Join inserts the connection into roomID with all media flags off, first
// removing it from any room it previously occupied (a connection belongs to
// at most one room). Returns a snapshot of the room's full membership after
// the join, plus the eviction if there was one.
func (r *Registry) Join(roomID uint, connID, displayName, userID string) ([]domain.PresenceEntry, *Eviction) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted *Eviction
	if prevRoom, ok := r.conns[connID]; ok {
		if entry := r.removeLocked(prevRoom, connID); entry != nil {
			evicted = &Eviction{RoomID: prevRoom, Entry: *entry}
		}
	}

	entry := &domain.PresenceEntry{
		ConnectionID: connID,
		DisplayName:  displayName,
		UserID:       userID,
		JoinedAt:     time.Now(),
	}
	members, ok := r.rooms[roomID]
	if !ok {
		members = make(map[string]*domain.PresenceEntry)
		r.rooms[roomID] = members
	}
	members[connID] = entry
	r.conns[connID] = roomID

	return r.snapshotLocked(roomID), evicted
}

// Leave removes the connection from roomID. Leaving a room the connection is
// not in is a no-op, not an error: an explicit leave and the transport
// disconnect may both ask for the same removal.
func (r *Registry) Leave(roomID uint, connID string) (domain.PresenceEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.removeLocked(roomID, connID)
	if entry == nil {
		return domain.PresenceEntry{}, false
	}
	return *entry, true
}

// UpdateMedia flips the camera/mic flags of the connection's entry. A stale
// update racing a leave is silently ignored.
func (r *Registry) UpdateMedia(roomID uint, connID string, cameraOn, micOn bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.entryLocked(roomID, connID)
	if entry == nil {
		return false
	}
	entry.IsCameraOn = cameraOn
	entry.IsMicOn = micOn
	return true
}

// UpdateScreenShare flips the screen-share flag, same rules as UpdateMedia.
func (r *Registry) UpdateScreenShare(roomID uint, connID string, sharing bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := r.entryLocked(roomID, connID)
	if entry == nil {
		return false
	}
	entry.IsScreenSharing = sharing
	return true
}

// MembersOf returns a copy of the room's membership. Unknown rooms yield an
// empty slice.
func (r *Registry) MembersOf(roomID uint) []domain.PresenceEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshotLocked(roomID)
}

// RoomOf is the reverse lookup used by disconnect handling.
func (r *Registry) RoomOf(connID string) (uint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	roomID, ok := r.conns[connID]
	return roomID, ok
}

// RoomCount returns the number of rooms with at least one live connection.
func (r *Registry) RoomCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// removeLocked deletes the entry from both indices and prunes the room when
// it becomes empty. Caller holds the write lock.
func (r *Registry) removeLocked(roomID uint, connID string) *domain.PresenceEntry {
	members, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	entry, ok := members[connID]
	if !ok {
		return nil
	}
	delete(members, connID)
	if current, ok := r.conns[connID]; ok && current == roomID {
		delete(r.conns, connID)
	}
	if len(members) == 0 {
		delete(r.rooms, roomID)
	}
	return entry
}

func (r *Registry) entryLocked(roomID uint, connID string) *domain.PresenceEntry {
	members, ok := r.rooms[roomID]
	if !ok {
		return nil
	}
	return members[connID]
}

func (r *Registry) snapshotLocked(roomID uint) []domain.PresenceEntry {
	members := r.rooms[roomID]
	out := make([]domain.PresenceEntry, 0, len(members))
	for _, entry := range members {
		out = append(out, *entry)
	}
	return out
}
