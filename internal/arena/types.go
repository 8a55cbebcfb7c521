package arena

import (
	"time"

	"github.com/google/uuid"

	"github.com/G4briel-Rodrigues/xadrez-novo/internal/rules"
)

// Role is what a connection is inside a room.
type Role string

const (
	RoleWhite     Role = "white"
	RoleBlack     Role = "black"
	RoleSpectator Role = "spectator"
)

// Seat binds a connection to a color. At most one connection per color.
type Seat struct {
	Conn     uuid.UUID
	Nickname string
}

// Match is the live game of a room. Exactly one match may exist per room; the
// slot is nil between games.
type Match struct {
	ID        string
	Position  *rules.Position
	MovesSAN  []string
	StartedAt time.Time
}

// Clock is the per-room countdown pair. gen identifies the current countdown:
// ticks stamped with an older generation are ignored, so a superseded timer
// can never decrement a new match.
type Clock struct {
	WhiteSeconds int
	BlackSeconds int
	Running      bool

	gen  uint64
	stop chan struct{}
}

// Room is one named arena. Seats and spectators are the authoritative record
// of who may act; Match and Clock are owned by the Coordinator.
type Room struct {
	Name string

	White *Seat
	Black *Seat
	// Spectators maps connection id to nickname.
	Spectators map[uuid.UUID]string

	Match  *Match
	Clock  Clock
	Ballot map[uuid.UUID]struct{}
}

func newRoom(name string) *Room {
	return &Room{
		Name:       name,
		Spectators: make(map[uuid.UUID]string),
		Ballot:     make(map[uuid.UUID]struct{}),
	}
}

func (r *Room) seatedCount() int {
	n := 0
	if r.White != nil {
		n++
	}
	if r.Black != nil {
		n++
	}
	return n
}

func (r *Room) seat(color rules.Color) *Seat {
	if color == rules.White {
		return r.White
	}
	return r.Black
}

// seatOf returns the seat and color occupied by conn, if any.
func (r *Room) seatOf(conn uuid.UUID) (*Seat, rules.Color, bool) {
	if r.White != nil && r.White.Conn == conn {
		return r.White, rules.White, true
	}
	if r.Black != nil && r.Black.Conn == conn {
		return r.Black, rules.Black, true
	}
	return nil, "", false
}

func (r *Room) contains(conn uuid.UUID) bool {
	if _, _, ok := r.seatOf(conn); ok {
		return true
	}
	_, ok := r.Spectators[conn]
	return ok
}

// nicknameOf resolves a member connection to its nickname.
func (r *Room) nicknameOf(conn uuid.UUID) (string, bool) {
	if seat, _, ok := r.seatOf(conn); ok {
		return seat.Nickname, true
	}
	nick, ok := r.Spectators[conn]
	return nick, ok
}

// Registry is the fixed room set, built once at startup. Rooms are never
// created or destroyed afterwards.
type Registry struct {
	rooms map[string]*Room
	names []string
}

func NewRegistry(names []string) *Registry {
	reg := &Registry{rooms: make(map[string]*Room, len(names))}
	for _, name := range names {
		if _, dup := reg.rooms[name]; dup {
			continue
		}
		reg.rooms[name] = newRoom(name)
		reg.names = append(reg.names, name)
	}
	return reg
}

func (reg *Registry) Lookup(name string) (*Room, bool) {
	room, ok := reg.rooms[name]
	return room, ok
}

// All iterates rooms in registration order.
func (reg *Registry) All() []*Room {
	out := make([]*Room, 0, len(reg.names))
	for _, name := range reg.names {
		out = append(out, reg.rooms[name])
	}
	return out
}
