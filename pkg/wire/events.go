// Package wire defines the JSON messages exchanged between clients and the
// server. Every frame carries a Type discriminator; inbound frames share a
// single envelope, outbound frames are one struct per event.
package wire

// Inbound event types.
const (
	TypeJoin    = "join"
	TypeMove    = "move"
	TypeChat    = "chat"
	TypeRematch = "rematch"
)

// Outbound event types.
const (
	TypeLoggedIn        = "logged_in"
	TypeError           = "error"
	TypeMatchStarted    = "match_started"
	TypeSnapshot        = "snapshot"
	TypeBoardUpdated    = "board_updated"
	TypeClockSync       = "clock_sync"
	TypeGameOver        = "game_over"
	TypeRankingUpdated  = "ranking_updated"
	TypeRematchProgress = "rematch_progress"
	TypeChatMessage     = "chat_message"
	TypeOpponentLeft    = "opponent_left"
)

// Inbound is the envelope for all client → server frames. Unused fields stay
// empty depending on Type.
type Inbound struct {
	Type     string `json:"type"`
	Nickname string `json:"nickname,omitempty"`
	Password string `json:"password,omitempty"`
	Room     string `json:"room,omitempty"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	Color    string `json:"color,omitempty"`
	Text     string `json:"text,omitempty"`
}

// RankEntry is one leaderboard row, ordered by wins descending.
type RankEntry struct {
	Nickname string `json:"nickname"`
	Wins     int64  `json:"wins"`
}

type LoggedIn struct {
	Type     string      `json:"type"`
	Nickname string      `json:"nickname"`
	Role     string      `json:"role"` // "white" | "black" | "spectator"
	Room     string      `json:"room"`
	Ranking  []RankEntry `json:"ranking"`
}

type Error struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type MatchStarted struct {
	Type  string `json:"type"`
	Room  string `json:"room"`
	FEN   string `json:"fen"`
	White string `json:"white"`
	Black string `json:"black"`
}

// Snapshot is sent privately to a connection joining a room whose match is
// already underway.
type Snapshot struct {
	Type         string `json:"type"`
	Room         string `json:"room"`
	FEN          string `json:"fen"`
	Turn         string `json:"turn"`
	WhiteSeconds int    `json:"white_seconds"`
	BlackSeconds int    `json:"black_seconds"`
}

type BoardUpdated struct {
	Type     string `json:"type"`
	Room     string `json:"room"`
	FEN      string `json:"fen"`
	LastMove string `json:"last_move"` // SAN
	Turn     string `json:"turn"`
}

type ClockSync struct {
	Type         string `json:"type"`
	Room         string `json:"room"`
	WhiteSeconds int    `json:"white_seconds"`
	BlackSeconds int    `json:"black_seconds"`
}

type GameOver struct {
	Type    string `json:"type"`
	Room    string `json:"room"`
	Result  string `json:"result"` // "checkmate" | "draw" | "timeout"
	Winner  string `json:"winner,omitempty"`
	Message string `json:"message"`
}

type RankingUpdated struct {
	Type    string      `json:"type"`
	Ranking []RankEntry `json:"ranking"`
}

type RematchProgress struct {
	Type     string `json:"type"`
	Room     string `json:"room"`
	Accepted int    `json:"accepted"`
	Needed   int    `json:"needed"`
}

type ChatMessage struct {
	Type string `json:"type"`
	Room string `json:"room"`
	From string `json:"from"`
	Text string `json:"text"`
}

type OpponentLeft struct {
	Type    string `json:"type"`
	Room    string `json:"room"`
	Message string `json:"message"`
}
