package domain

import "time"

// NotificationsRoom is the room every session is permanently subscribed to.
// Administrative broadcasts are delivered on it, so leaving it is forbidden.
const NotificationsRoom = "notifications"

type EventType string

// Inbound event kinds (client to server).
const (
	EventLogin          EventType = "login"
	EventAdminLogin     EventType = "adminLogin"
	EventAdminBroadcast EventType = "adminBroadcast"
	EventJoinRoom       EventType = "joinRoom"
	EventLeaveRoom      EventType = "leaveRoom"
	EventStartTyping    EventType = "startTyping"
	EventStopTyping     EventType = "stopTyping"
	EventDisconnect     EventType = "disconnect"
)

// Outbound event kinds (server to client).
const (
	EventLoginSuccess EventType = "loginSuccess"
	EventLoginError   EventType = "loginError"
	EventRoomJoined   EventType = "roomJoined"
	EventRoomLeft     EventType = "roomLeft"
	EventRoomError    EventType = "roomError"
	EventUserJoined   EventType = "userJoined"
	EventUserLeft     EventType = "userLeft"
	EventNotification EventType = "notification"
	EventTyping       EventType = "typing"
)

// EventMessage is both an inbound kind (send) and an outbound kind (deliver).
// EventStopTyping likewise flows in both directions.
const EventMessage EventType = "message"

// Event is the single envelope carried on the wire in both directions.
// Fields not used by a given kind are omitted.
type Event struct {
	Type        EventType `json:"type"`
	ID          string    `json:"id,omitempty"`
	IdentityID  string    `json:"identityId,omitempty"`
	DisplayName string    `json:"displayName,omitempty"`
	Username    string    `json:"username,omitempty"`
	Password    string    `json:"password,omitempty"`
	Body        string    `json:"body,omitempty"`
	Room        string    `json:"room,omitempty"`
	IsAdmin     bool      `json:"isAdmin,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	Timestamp   int64     `json:"timestamp,omitempty"`
}

// Now returns the timestamp stamped onto outbound events, in unix
// milliseconds.
func Now() int64 {
	return time.Now().UnixMilli()
}

// Session is a read-only snapshot of one registered session.
type Session struct {
	SessionID   string
	IdentityID  string
	DisplayName string
	IsAdmin     bool
	Rooms       []string
	CurrentRoom string
	JoinedAt    time.Time
}

// Subscribed reports whether the snapshot includes the given room.
func (s Session) Subscribed(room string) bool {
	for _, r := range s.Rooms {
		if r == room {
			return true
		}
	}
	return false
}

// Room is a read-only snapshot used by the introspection surface.
type Room struct {
	Name        string    `json:"name"`
	MemberCount int       `json:"memberCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Member is one entry of a room member listing.
type Member struct {
	DisplayName string `json:"displayName"`
	IsAdmin     bool   `json:"isAdmin"`
}
