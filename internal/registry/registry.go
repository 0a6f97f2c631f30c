// Package registry is the source of truth for which sessions exist, their
// identity and admin status, and the rooms each is subscribed to. It is a
// pure in-memory state store: it never emits events and never touches the
// transport layer, which keeps its invariants testable in isolation.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nvaziri/roomhub/internal/domain"
)

// session is the internal mutable record. Only snapshots leave the registry.
type session struct {
	sessionID   string
	identityID  string
	displayName string
	isAdmin     bool
	rooms       map[string]struct{}
	currentRoom string
	joinedAt    time.Time
}

func (s *session) snapshot() domain.Session {
	rooms := make([]string, 0, len(s.rooms))
	for r := range s.rooms {
		rooms = append(rooms, r)
	}
	sort.Strings(rooms)
	return domain.Session{
		SessionID:   s.sessionID,
		IdentityID:  s.identityID,
		DisplayName: s.displayName,
		IsAdmin:     s.isAdmin,
		Rooms:       rooms,
		CurrentRoom: s.currentRoom,
		JoinedAt:    s.joinedAt,
	}
}

// Registry holds every live session keyed by its connection handle. Room
// membership is derived from the sessions on read; only each room's creation
// time is tracked on the side, since it cannot be recomputed.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session
	rooms    map[string]time.Time
}

func New() *Registry {
	return &Registry{
		sessions: make(map[string]*session),
		rooms:    make(map[string]time.Time),
	}
}

// CreateSession registers a new session under the given connection handle
// with a fresh identity id, subscribed to the notifications room only.
// Display-name validation is the router's job, not the registry's.
func (r *Registry) CreateSession(handle, displayName string, isAdmin bool) domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := &session{
		sessionID:   handle,
		identityID:  uuid.NewString(),
		displayName: displayName,
		isAdmin:     isAdmin,
		rooms:       map[string]struct{}{domain.NotificationsRoom: {}},
		currentRoom: domain.NotificationsRoom,
		joinedAt:    time.Now(),
	}
	r.sessions[handle] = s
	if _, ok := r.rooms[domain.NotificationsRoom]; !ok {
		r.rooms[domain.NotificationsRoom] = s.joinedAt
	}
	return s.snapshot()
}

// DestroySession removes the session and unwinds every room membership it
// holds, dropping any room left without members.
func (r *Registry) DestroySession(handle string) (domain.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[handle]
	if !ok {
		return domain.Session{}, false
	}
	snap := s.snapshot()
	delete(r.sessions, handle)
	for room := range s.rooms {
		r.dropRoomIfEmpty(room)
	}
	return snap, true
}

// Lookup returns a snapshot of the session for the handle, if one exists.
func (r *Registry) Lookup(handle string) (domain.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[handle]
	if !ok {
		return domain.Session{}, false
	}
	return s.snapshot(), true
}

// Subscribe adds the session to the named room. Re-subscribing to a room the
// session is already in is a reported failure, not a silent no-op, so the
// caller can tell "nothing happened" from "you're already there".
func (r *Registry) Subscribe(handle, room string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[handle]
	if !ok {
		return domain.ErrNoSession
	}
	if _, joined := s.rooms[room]; joined {
		return domain.ErrAlreadySubscribed
	}
	s.rooms[room] = struct{}{}
	s.currentRoom = room
	if _, ok := r.rooms[room]; !ok {
		r.rooms[room] = time.Now()
	}
	return nil
}

// Unsubscribe removes the session from the named room. Leaving the
// notifications room is always forbidden: it is the one room every identity
// must stay reachable on for administrative broadcasts.
func (r *Registry) Unsubscribe(handle, room string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[handle]
	if !ok {
		return domain.ErrNoSession
	}
	if room == domain.NotificationsRoom {
		return domain.ErrForbidden
	}
	if _, joined := s.rooms[room]; !joined {
		return domain.ErrNotSubscribed
	}
	delete(s.rooms, room)
	if s.currentRoom == room {
		s.currentRoom = domain.NotificationsRoom
	}
	r.dropRoomIfEmpty(room)
	return nil
}

// MembersOf returns snapshots of every session subscribed to the room.
// A room nobody is in yields an empty slice, never an error.
func (r *Registry) MembersOf(room string) []domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.membersLocked(room)
}

// AllRooms returns a snapshot of every live room with its derived member
// count.
func (r *Registry) AllRooms() []domain.Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms := make([]domain.Room, 0, len(r.rooms))
	for name, createdAt := range r.rooms {
		rooms = append(rooms, domain.Room{
			Name:        name,
			MemberCount: len(r.membersLocked(name)),
			CreatedAt:   createdAt,
		})
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })
	return rooms
}

// SessionCount returns the number of live sessions.
func (r *Registry) SessionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) membersLocked(room string) []domain.Session {
	var members []domain.Session
	for _, s := range r.sessions {
		if _, joined := s.rooms[room]; joined {
			members = append(members, s.snapshot())
		}
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i].SessionID < members[j].SessionID
	})
	return members
}

func (r *Registry) dropRoomIfEmpty(room string) {
	for _, s := range r.sessions {
		if _, joined := s.rooms[room]; joined {
			return
		}
	}
	delete(r.rooms, room)
}
