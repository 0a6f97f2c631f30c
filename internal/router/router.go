// Package router validates inbound events against registry state and policy,
// applies the required registry mutation, and computes the exact recipient
// set for every outbound event. One handler per inbound event kind, wired
// through an explicit dispatch table so each handler is testable without a
// live connection.
package router

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/nvaziri/roomhub/internal/domain"
	"github.com/nvaziri/roomhub/internal/metrics"
	"github.com/nvaziri/roomhub/internal/port"
	"github.com/nvaziri/roomhub/internal/registry"
	"github.com/nvaziri/roomhub/pkg/logger"
)

const adminUsername = "admin"

// Credentials are rejected with one opaque reason; a bad username must not
// read differently from a bad password.
const authFailedReason = "invalid credentials"

// Handlers return deliveries or a domain error; the error is turned into an
// outbound error event or a silent drop in one place, failure below.
type handlerFunc func(handle string, ev domain.Event) ([]port.Delivery, error)

type Router struct {
	// One lock around every handler invocation: each handler is a
	// read-then-write sequence over the registry plus a recipient-set
	// computation that must see the same state. Registry operations are
	// bounded map work, so holding it for a whole handler is fine.
	mu sync.Mutex

	reg         *registry.Registry
	dispatcher  port.Dispatcher
	adminSecret string
	logger      logger.Logger
	handlers    map[domain.EventType]handlerFunc
}

func New(reg *registry.Registry, d port.Dispatcher, adminSecret string, logg logger.Logger) *Router {
	rt := &Router{
		reg:         reg,
		dispatcher:  d,
		adminSecret: adminSecret,
		logger:      logg,
	}
	rt.handlers = map[domain.EventType]handlerFunc{
		domain.EventLogin:          rt.handleLogin,
		domain.EventAdminLogin:     rt.handleAdminLogin,
		domain.EventAdminBroadcast: rt.handleAdminBroadcast,
		domain.EventJoinRoom:       rt.handleJoinRoom,
		domain.EventLeaveRoom:      rt.handleLeaveRoom,
		domain.EventMessage:        rt.handleMessage,
		domain.EventStartTyping:    rt.handleStartTyping,
		domain.EventStopTyping:     rt.handleStopTyping,
		domain.EventDisconnect:     rt.handleDisconnect,
	}
	return rt
}

// Handle processes one inbound event for the given connection handle and
// dispatches the resulting deliveries. The registry mutation and the
// recipient-set computation happen atomically; dispatch happens after the
// lock is released, since recipients are stable handles.
func (rt *Router) Handle(handle string, ev domain.Event) []port.Delivery {
	rt.mu.Lock()
	h, ok := rt.handlers[ev.Type]
	if !ok {
		rt.mu.Unlock()
		rt.logger.Debugf("unknown event type %q from %s", ev.Type, handle)
		metrics.EventsDropped.WithLabelValues("unknown_event").Inc()
		return nil
	}
	deliveries, err := h(handle, ev)
	rt.mu.Unlock()

	if err != nil {
		deliveries = rt.failure(handle, ev.Type, err)
	}

	metrics.EventsProcessed.WithLabelValues(string(ev.Type)).Inc()
	for _, d := range deliveries {
		metrics.FanoutDeliveries.Add(float64(len(d.Recipients)))
		if err := rt.dispatcher.Dispatch(d); err != nil {
			metrics.DispatchErrors.Inc()
			rt.logger.Errorf("dispatch %s failed: %v", d.Event.Type, err)
		}
	}
	return deliveries
}

// failure is the single seam translating the error taxonomy into outbound
// events. Validation, auth, and room errors are reported to the caller;
// not-authenticated and not-authorized are dropped without a reply so that
// capability gates are not discoverable by probing.
func (rt *Router) failure(handle string, kind domain.EventType, err error) []port.Delivery {
	var vErr *domain.ValidationError
	var aErr *domain.AuthError
	var rErr *domain.RoomError

	switch {
	case errors.As(err, &vErr):
		if kind == domain.EventLogin || kind == domain.EventAdminLogin {
			return []port.Delivery{errTo(handle, domain.EventLoginError, vErr.Reason, "")}
		}
		return []port.Delivery{errTo(handle, domain.EventRoomError, vErr.Reason, "")}
	case errors.As(err, &aErr):
		return []port.Delivery{errTo(handle, domain.EventLoginError, aErr.Reason, "")}
	case errors.As(err, &rErr):
		return []port.Delivery{errTo(handle, domain.EventRoomError, rErr.Reason, rErr.Room)}
	case errors.Is(err, domain.ErrNotAuthenticated), errors.Is(err, domain.ErrNoSession):
		metrics.EventsDropped.WithLabelValues("not_authenticated").Inc()
		return nil
	case errors.Is(err, domain.ErrNotAuthorized):
		metrics.EventsDropped.WithLabelValues("not_authorized").Inc()
		return nil
	default:
		// A handler returned something outside the taxonomy; abandon the
		// request rather than guess at a reply.
		rt.logger.Errorf("%s from %s failed: %v", kind, handle, err)
		metrics.EventsDropped.WithLabelValues("internal_error").Inc()
		return nil
	}
}

func (rt *Router) handleLogin(handle string, ev domain.Event) ([]port.Delivery, error) {
	name := strings.TrimSpace(ev.DisplayName)
	if name == "" {
		return nil, &domain.ValidationError{Reason: "display name is required"}
	}
	return rt.createSession(handle, name, false)
}

func (rt *Router) handleAdminLogin(handle string, ev domain.Event) ([]port.Delivery, error) {
	if ev.Username != adminUsername || ev.Password != rt.adminSecret {
		return nil, &domain.AuthError{Reason: authFailedReason}
	}
	name := strings.TrimSpace(ev.DisplayName)
	if name == "" {
		name = adminUsername
	}
	return rt.createSession(handle, name, true)
}

// createSession is the shared tail of Login and AdminLogin: a session is
// created, the caller gets loginSuccess, and everyone already on the
// notifications room learns about the arrival.
func (rt *Router) createSession(handle, name string, isAdmin bool) ([]port.Delivery, error) {
	if _, exists := rt.reg.Lookup(handle); exists {
		return nil, &domain.ValidationError{Reason: "already logged in"}
	}

	others := sessionIDs(rt.reg.MembersOf(domain.NotificationsRoom))
	s := rt.reg.CreateSession(handle, name, isAdmin)
	metrics.ActiveSessions.Set(float64(rt.reg.SessionCount()))

	deliveries := []port.Delivery{{
		Event: domain.Event{
			Type:        domain.EventLoginSuccess,
			IdentityID:  s.IdentityID,
			DisplayName: s.DisplayName,
			IsAdmin:     s.IsAdmin,
		},
		Recipients: []string{handle},
	}}
	if len(others) > 0 {
		deliveries = append(deliveries, port.Delivery{
			Event: domain.Event{
				Type:        domain.EventUserJoined,
				DisplayName: s.DisplayName,
				Room:        domain.NotificationsRoom,
				Timestamp:   domain.Now(),
			},
			Recipients: others,
		})
	}
	rt.logger.Infof("%s logged in (admin=%v identity=%s)", s.DisplayName, s.IsAdmin, s.IdentityID)
	return deliveries, nil
}

// handleAdminBroadcast fails silently for absent or non-admin callers;
// broadcast capability is not discoverable by probing.
func (rt *Router) handleAdminBroadcast(handle string, ev domain.Event) ([]port.Delivery, error) {
	caller, ok := rt.reg.Lookup(handle)
	if !ok {
		return nil, domain.ErrNotAuthenticated
	}
	if !caller.IsAdmin {
		return nil, domain.ErrNotAuthorized
	}

	members := sessionIDs(rt.reg.MembersOf(domain.NotificationsRoom))
	return []port.Delivery{{
		Event: domain.Event{
			Type:      domain.EventNotification,
			ID:        uuid.NewString(),
			Body:      ev.Body,
			IsAdmin:   true,
			Timestamp: domain.Now(),
		},
		Recipients: members,
	}}, nil
}

func (rt *Router) handleJoinRoom(handle string, ev domain.Event) ([]port.Delivery, error) {
	caller, ok := rt.reg.Lookup(handle)
	if !ok {
		return nil, domain.ErrNotAuthenticated
	}
	room := strings.TrimSpace(ev.Room)
	if room == "" {
		return nil, &domain.ValidationError{Reason: "room name is required"}
	}

	switch err := rt.reg.Subscribe(handle, room); {
	case err == nil:
	case errors.Is(err, domain.ErrAlreadySubscribed):
		return nil, &domain.RoomError{Reason: "already in room", Room: room}
	default:
		return nil, err
	}

	deliveries := []port.Delivery{{
		Event: domain.Event{
			Type:        domain.EventRoomJoined,
			Room:        room,
			DisplayName: caller.DisplayName,
		},
		Recipients: []string{handle},
	}}
	// Post-join membership minus the joiner.
	if others := excluding(sessionIDs(rt.reg.MembersOf(room)), handle); len(others) > 0 {
		deliveries = append(deliveries, port.Delivery{
			Event: domain.Event{
				Type:        domain.EventUserJoined,
				DisplayName: caller.DisplayName,
				Room:        room,
				Timestamp:   domain.Now(),
			},
			Recipients: others,
		})
	}
	rt.logger.Infof("%s joined room %s", caller.DisplayName, room)
	return deliveries, nil
}

func (rt *Router) handleLeaveRoom(handle string, ev domain.Event) ([]port.Delivery, error) {
	caller, ok := rt.reg.Lookup(handle)
	if !ok {
		return nil, domain.ErrNotAuthenticated
	}
	room := strings.TrimSpace(ev.Room)

	// Snapshot the remaining members before the mutation removes the caller.
	remaining := excluding(sessionIDs(rt.reg.MembersOf(room)), handle)

	switch err := rt.reg.Unsubscribe(handle, room); {
	case err == nil:
	case errors.Is(err, domain.ErrForbidden):
		return nil, &domain.RoomError{Reason: "cannot leave the notifications room", Room: room}
	case errors.Is(err, domain.ErrNotSubscribed):
		return nil, &domain.RoomError{Reason: "not in room", Room: room}
	default:
		return nil, err
	}

	deliveries := []port.Delivery{{
		Event: domain.Event{
			Type:        domain.EventRoomLeft,
			Room:        room,
			DisplayName: caller.DisplayName,
		},
		Recipients: []string{handle},
	}}
	if len(remaining) > 0 {
		deliveries = append(deliveries, port.Delivery{
			Event: domain.Event{
				Type:        domain.EventUserLeft,
				DisplayName: caller.DisplayName,
				Room:        room,
				Timestamp:   domain.Now(),
			},
			Recipients: remaining,
		})
	}
	rt.logger.Infof("%s left room %s", caller.DisplayName, room)
	return deliveries, nil
}

// handleMessage delivers to every member of the resolved room, caller
// included, so the caller's own echo is authoritative. The claimed sender is
// always overwritten with the authenticated identity, and a caller not
// subscribed to the resolved room is silently dropped: a session cannot
// inject messages into a room it has not joined.
func (rt *Router) handleMessage(handle string, ev domain.Event) ([]port.Delivery, error) {
	caller, ok := rt.reg.Lookup(handle)
	if !ok {
		return nil, domain.ErrNotAuthenticated
	}
	room := strings.TrimSpace(ev.Room)
	if room == "" {
		room = caller.CurrentRoom
	}
	if !caller.Subscribed(room) {
		return nil, domain.ErrNotAuthorized
	}

	return []port.Delivery{{
		Event: domain.Event{
			Type:        domain.EventMessage,
			ID:          uuid.NewString(),
			Body:        ev.Body,
			DisplayName: caller.DisplayName,
			Room:        room,
			Timestamp:   domain.Now(),
		},
		Recipients: sessionIDs(rt.reg.MembersOf(room)),
	}}, nil
}

func (rt *Router) handleStartTyping(handle string, ev domain.Event) ([]port.Delivery, error) {
	return rt.typingSignal(handle, domain.EventTyping)
}

func (rt *Router) handleStopTyping(handle string, ev domain.Event) ([]port.Delivery, error) {
	return rt.typingSignal(handle, domain.EventStopTyping)
}

// typingSignal fans the ephemeral signal out to every other member of the
// caller's current room. Repeats are re-delivered without error; debouncing
// is a client concern.
func (rt *Router) typingSignal(handle string, kind domain.EventType) ([]port.Delivery, error) {
	caller, ok := rt.reg.Lookup(handle)
	if !ok {
		return nil, domain.ErrNotAuthenticated
	}
	others := excluding(sessionIDs(rt.reg.MembersOf(caller.CurrentRoom)), handle)
	if len(others) == 0 {
		return nil, nil
	}
	return []port.Delivery{{
		Event: domain.Event{
			Type:        kind,
			DisplayName: caller.DisplayName,
			Room:        caller.CurrentRoom,
		},
		Recipients: others,
	}}, nil
}

// handleDisconnect destroys the session and tells the remaining members of
// every room it was in. The only handler that fans out to many rooms, and a
// no-op when no session exists for the handle.
func (rt *Router) handleDisconnect(handle string, ev domain.Event) ([]port.Delivery, error) {
	s, ok := rt.reg.DestroySession(handle)
	if !ok {
		return nil, nil
	}
	metrics.ActiveSessions.Set(float64(rt.reg.SessionCount()))

	ts := domain.Now()
	var deliveries []port.Delivery
	for _, room := range s.Rooms {
		remaining := sessionIDs(rt.reg.MembersOf(room))
		if len(remaining) == 0 {
			continue
		}
		deliveries = append(deliveries, port.Delivery{
			Event: domain.Event{
				Type:        domain.EventUserLeft,
				DisplayName: s.DisplayName,
				Room:        room,
				Timestamp:   ts,
			},
			Recipients: remaining,
		})
	}
	rt.logger.Infof("%s disconnected", s.DisplayName)
	return deliveries, nil
}

func errTo(handle string, kind domain.EventType, reason, room string) port.Delivery {
	return port.Delivery{
		Event:      domain.Event{Type: kind, Reason: reason, Room: room},
		Recipients: []string{handle},
	}
}

func sessionIDs(sessions []domain.Session) []string {
	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.SessionID)
	}
	return ids
}

func excluding(ids []string, handle string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != handle {
			out = append(out, id)
		}
	}
	return out
}
