// Package arena is the session coordinator: it owns room membership, match
// state, clocks and rematch ballots for every configured room. All state is
// mutated by a single goroutine consuming one event channel, so handlers run
// to completion and events within a room are totally ordered without locks.
package arena

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/G4briel-Rodrigues/xadrez-novo/internal/history"
	"github.com/G4briel-Rodrigues/xadrez-novo/internal/msgcat"
	"github.com/G4briel-Rodrigues/xadrez-novo/internal/obslog"
	"github.com/G4briel-Rodrigues/xadrez-novo/internal/rules"
	"github.com/G4briel-Rodrigues/xadrez-novo/internal/store"
	"github.com/G4briel-Rodrigues/xadrez-novo/pkg/wire"
)

// Broadcaster is the publish/subscribe fabric the coordinator emits through.
// Publish targets one room topic, PublishAll every connection, SendTo exactly
// one connection.
type Broadcaster interface {
	Subscribe(room string, conn uuid.UUID)
	Unsubscribe(room string, conn uuid.UUID)
	Publish(room string, event any)
	PublishAll(event any)
	SendTo(conn uuid.UUID, event any)
}

// Config carries the coordinator knobs.
type Config struct {
	Rooms        []string
	ClockSeconds int
	RankingSize  int
}

type eventKind int

const (
	evJoin eventKind = iota
	evMove
	evChat
	evRematch
	evDisconnect
	evTick
)

type event struct {
	kind     eventKind
	conn     uuid.UUID
	nickname string
	password string
	room     string
	from     string
	to       string
	color    string
	text     string
	gen      uint64
}

type Coordinator struct {
	cfg      Config
	registry *Registry
	users    *store.Users
	cat      *msgcat.Catalog
	bus      Broadcaster
	repo     *history.Repository

	events chan event
}

func New(cfg Config, users *store.Users, cat *msgcat.Catalog, bus Broadcaster) *Coordinator {
	if cfg.ClockSeconds <= 0 {
		cfg.ClockSeconds = 300
	}
	if cfg.RankingSize <= 0 {
		cfg.RankingSize = 5
	}
	return &Coordinator{
		cfg:      cfg,
		registry: NewRegistry(cfg.Rooms),
		users:    users,
		cat:      cat,
		bus:      bus,
		events:   make(chan event, 256),
	}
}

// AttachHistory wires the optional match archive.
func (c *Coordinator) AttachHistory(r *history.Repository) {
	if c != nil {
		c.repo = r
	}
}

// Run consumes events until ctx is cancelled. It is the only goroutine that
// touches room state.
func (c *Coordinator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.stopAllClocks()
			return
		case ev := <-c.events:
			c.handle(ev)
		}
	}
}

// Join, Move, Chat, RequestRematch and Disconnect enqueue events from
// transport goroutines; they never touch room state themselves.

func (c *Coordinator) Join(conn uuid.UUID, nickname, password, room string) {
	c.events <- event{kind: evJoin, conn: conn, nickname: nickname, password: password, room: room}
}

func (c *Coordinator) Move(conn uuid.UUID, room, from, to, color string) {
	c.events <- event{kind: evMove, conn: conn, room: room, from: from, to: to, color: color}
}

func (c *Coordinator) Chat(conn uuid.UUID, room, text string) {
	c.events <- event{kind: evChat, conn: conn, room: room, text: text}
}

func (c *Coordinator) RequestRematch(conn uuid.UUID, room string) {
	c.events <- event{kind: evRematch, conn: conn, room: room}
}

func (c *Coordinator) Disconnect(conn uuid.UUID) {
	c.events <- event{kind: evDisconnect, conn: conn}
}

func (c *Coordinator) handle(ev event) {
	switch ev.kind {
	case evJoin:
		c.handleJoin(ev.conn, ev.nickname, ev.password, ev.room)
	case evMove:
		c.handleMove(ev.conn, ev.room, ev.from, ev.to, ev.color)
	case evChat:
		c.handleChat(ev.conn, ev.room, ev.text)
	case evRematch:
		c.handleRematch(ev.conn, ev.room)
	case evDisconnect:
		c.handleDisconnect(ev.conn)
	case evTick:
		c.handleTick(ev.room, ev.gen)
	}
}

// handleJoin is the admission path: authenticate, assign a role, subscribe,
// and start a match when the second seat fills.
func (c *Coordinator) handleJoin(conn uuid.UUID, nickname, password, roomName string) {
	room, ok := c.registry.Lookup(roomName)
	if !ok {
		c.bus.SendTo(conn, wire.Error{Type: wire.TypeError, Code: "no_such_room", Message: "Canal inexistente."})
		return
	}

	ctx := context.Background()
	if err := c.users.Authenticate(ctx, nickname, password); err != nil {
		if errors.Is(err, store.ErrBadCredential) {
			c.bus.SendTo(conn, wire.Error{Type: wire.TypeError, Code: "bad_credential", Message: "Senha incorreta."})
			return
		}
		obslog.L().Error("admission_store_error", zap.String("nickname", nickname), zap.Error(err))
		c.bus.SendTo(conn, wire.Error{Type: wire.TypeError, Code: "internal", Message: "Falha ao autenticar."})
		return
	}

	role := RoleSpectator
	freshSeat := false
	switch _, seatedColor, seated := room.seatOf(conn); {
	case seated:
		// Repeated join from a seated connection keeps its seat; it must
		// never occupy the other one too.
		role = Role(seatedColor)
	case room.contains(conn):
		// Already a spectator.
	case room.White == nil:
		room.White = &Seat{Conn: conn, Nickname: nickname}
		role = RoleWhite
		freshSeat = true
	case room.Black == nil:
		room.Black = &Seat{Conn: conn, Nickname: nickname}
		role = RoleBlack
		freshSeat = true
	default:
		room.Spectators[conn] = nickname
	}
	c.bus.Subscribe(room.Name, conn)

	// Either color can be the one that fills the second seat, e.g. white
	// refilled after a mid-match disconnect freed it.
	if freshSeat && room.seatedCount() == 2 && room.Match == nil {
		c.startMatch(room)
	} else if room.Match != nil {
		c.bus.SendTo(conn, wire.Snapshot{
			Type:         wire.TypeSnapshot,
			Room:         room.Name,
			FEN:          room.Match.Position.FEN(),
			Turn:         string(room.Match.Position.Turn()),
			WhiteSeconds: room.Clock.WhiteSeconds,
			BlackSeconds: room.Clock.BlackSeconds,
		})
	}

	ranking, err := c.users.TopN(ctx, c.cfg.RankingSize)
	if err != nil {
		obslog.L().Warn("ranking_load_error", zap.Error(err))
	}
	c.bus.SendTo(conn, wire.LoggedIn{
		Type:     wire.TypeLoggedIn,
		Nickname: nickname,
		Role:     string(role),
		Room:     room.Name,
		Ranking:  ranking,
	})
	obslog.L().Info("player_joined",
		zap.String("room", room.Name),
		zap.String("nickname", nickname),
		zap.String("role", string(role)),
	)
}

// handleMove validates and applies one move. Illegal, mistimed and spoofed
// submissions are dropped without a reply; only legal moves produce traffic.
func (c *Coordinator) handleMove(conn uuid.UUID, roomName, from, to, color string) {
	room, ok := c.registry.Lookup(roomName)
	if !ok || room.Match == nil {
		return
	}
	claimed, ok := rules.ParseColor(color)
	if !ok {
		return
	}
	seat := room.seat(claimed)
	if seat == nil || seat.Conn != conn {
		return
	}
	pos := room.Match.Position
	if pos.Turn() != claimed {
		return
	}
	san, err := pos.Apply(from, to)
	if err != nil {
		return
	}
	room.Match.MovesSAN = append(room.Match.MovesSAN, san)

	c.bus.Publish(room.Name, wire.BoardUpdated{
		Type:     wire.TypeBoardUpdated,
		Room:     room.Name,
		FEN:      pos.FEN(),
		LastMove: san,
		Turn:     string(pos.Turn()),
	})

	switch pos.Status() {
	case rules.StatusCheckmate:
		c.stopClock(room)
		c.finishDecisive(room, claimed, "checkmate")
	case rules.StatusDraw:
		c.stopClock(room)
		c.finishDraw(room)
	}
}

func (c *Coordinator) handleChat(conn uuid.UUID, roomName, text string) {
	room, ok := c.registry.Lookup(roomName)
	if !ok {
		return
	}
	nick, ok := room.nicknameOf(conn)
	if !ok {
		return
	}
	c.bus.Publish(room.Name, wire.ChatMessage{
		Type: wire.TypeChatMessage,
		Room: room.Name,
		From: nick,
		Text: text,
	})
}

// handleRematch records a ballot and starts a fresh match once both seated
// players have asked. Spectator ballots are kept but only seated ballots
// count toward the trigger.
func (c *Coordinator) handleRematch(conn uuid.UUID, roomName string) {
	room, ok := c.registry.Lookup(roomName)
	if !ok || !room.contains(conn) || room.Match != nil {
		return
	}
	room.Ballot[conn] = struct{}{}

	needed := room.seatedCount()
	accepted := 0
	for ballot := range room.Ballot {
		if _, _, seated := room.seatOf(ballot); seated {
			accepted++
		}
	}
	c.bus.Publish(room.Name, wire.RematchProgress{
		Type:     wire.TypeRematchProgress,
		Room:     room.Name,
		Accepted: accepted,
		Needed:   needed,
	})
	obslog.L().Info("rematch_request",
		zap.String("room", room.Name),
		zap.Int("accepted", accepted),
		zap.Int("needed", needed),
	)
	if needed == 2 && accepted == needed {
		c.startMatch(room)
	}
}

// handleDisconnect removes the connection from every room it occupies. A
// seated player leaving mid-match collapses the match without awarding a win;
// spectators leave without side effects.
func (c *Coordinator) handleDisconnect(conn uuid.UUID) {
	for _, room := range c.registry.All() {
		if !room.contains(conn) {
			continue
		}
		if room.White != nil && room.White.Conn == conn {
			room.White = nil
		}
		if room.Black != nil && room.Black.Conn == conn {
			room.Black = nil
		}
		delete(room.Spectators, conn)
		delete(room.Ballot, conn)
		c.bus.Unsubscribe(room.Name, conn)

		if room.Match != nil && room.seatedCount() < 2 {
			c.stopClock(room)
			room.Match = nil
			room.Ballot = make(map[uuid.UUID]struct{})
			c.bus.Publish(room.Name, wire.OpponentLeft{
				Type:    wire.TypeOpponentLeft,
				Room:    room.Name,
				Message: c.text("room.opponent_left", nil, "Partida encerrada."),
			})
			obslog.L().Info("match_abandoned", zap.String("room", room.Name))
		}
	}
}

// handleTick advances the running clock of one room by one second. Stale
// ticks (older generation, stopped clock, cleared match) are benign no-ops.
func (c *Coordinator) handleTick(roomName string, gen uint64) {
	room, ok := c.registry.Lookup(roomName)
	if !ok || room.Match == nil || !room.Clock.Running || gen != room.Clock.gen {
		return
	}

	var remaining int
	loser := room.Match.Position.Turn()
	if loser == rules.White {
		room.Clock.WhiteSeconds--
		remaining = room.Clock.WhiteSeconds
	} else {
		room.Clock.BlackSeconds--
		remaining = room.Clock.BlackSeconds
	}
	c.bus.Publish(room.Name, wire.ClockSync{
		Type:         wire.TypeClockSync,
		Room:         room.Name,
		WhiteSeconds: room.Clock.WhiteSeconds,
		BlackSeconds: room.Clock.BlackSeconds,
	})
	if remaining > 0 {
		return
	}

	c.stopClock(room)
	obslog.L().Info("clock_expired", zap.String("room", room.Name), zap.String("loser", string(loser)))
	c.finishDecisive(room, loser.Opponent(), "timeout")
}

// startMatch creates a fresh match, resets the clock and ballot, announces
// the start and begins ticking. Used both on second-seat admission and on
// rematch consensus.
func (c *Coordinator) startMatch(room *Room) {
	room.Match = &Match{
		ID:        fmt.Sprintf("m-%d-%s", time.Now().UnixNano(), uuid.NewString()[:8]),
		Position:  rules.NewPosition(),
		StartedAt: time.Now(),
	}
	room.Clock.WhiteSeconds = c.cfg.ClockSeconds
	room.Clock.BlackSeconds = c.cfg.ClockSeconds
	room.Ballot = make(map[uuid.UUID]struct{})

	c.bus.Publish(room.Name, wire.MatchStarted{
		Type:  wire.TypeMatchStarted,
		Room:  room.Name,
		FEN:   room.Match.Position.FEN(),
		White: room.White.Nickname,
		Black: room.Black.Nickname,
	})
	c.startClock(room)
	obslog.L().Info("match_started",
		zap.String("room", room.Name),
		zap.String("match_id", room.Match.ID),
		zap.String("white", room.White.Nickname),
		zap.String("black", room.Black.Nickname),
	)
}

// finishDecisive ends the match with a winner: win count, global ranking,
// room announcement, archive. The room and its seats persist for a rematch.
func (c *Coordinator) finishDecisive(room *Room, winner rules.Color, method string) {
	ctx := context.Background()
	seat := room.seat(winner)

	var msg string
	if seat != nil {
		if _, err := c.users.IncrementWins(ctx, seat.Nickname); err != nil {
			obslog.L().Error("win_persist_error", zap.String("nickname", seat.Nickname), zap.Error(err))
		}
		full, err := c.users.TopN(ctx, 0)
		if err != nil {
			obslog.L().Warn("ranking_load_error", zap.Error(err))
		} else {
			c.bus.PublishAll(wire.RankingUpdated{Type: wire.TypeRankingUpdated, Ranking: full})
		}
		msg = c.text("game_over."+method, map[string]string{"Winner": seat.Nickname}, "Fim de jogo.")
	} else {
		msg = c.text("game_over."+method+"_unseated", map[string]string{"Color": colorPT(winner)}, "Fim de jogo.")
	}

	winnerNick := ""
	if seat != nil {
		winnerNick = seat.Nickname
	}
	c.bus.Publish(room.Name, wire.GameOver{
		Type:    wire.TypeGameOver,
		Room:    room.Name,
		Result:  method,
		Winner:  winnerNick,
		Message: msg,
	})
	obslog.L().Info("match_finished",
		zap.String("room", room.Name),
		zap.String("method", method),
		zap.String("winner", winnerNick),
	)
	c.archive(room, string(winner), method)
	room.Match = nil
}

func (c *Coordinator) finishDraw(room *Room) {
	c.bus.Publish(room.Name, wire.GameOver{
		Type:    wire.TypeGameOver,
		Room:    room.Name,
		Result:  "draw",
		Message: c.text("game_over.draw", nil, "Empate."),
	})
	obslog.L().Info("match_finished", zap.String("room", room.Name), zap.String("method", "draw"))
	c.archive(room, "draw", "draw")
	room.Match = nil
}

func (c *Coordinator) archive(room *Room, result, method string) {
	if c.repo == nil || room.Match == nil {
		return
	}
	white, black := "", ""
	if room.White != nil {
		white = room.White.Nickname
	}
	if room.Black != nil {
		black = room.Black.Nickname
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := c.repo.SaveResult(ctx, &history.MatchResult{
		MatchID:   room.Match.ID,
		Room:      room.Name,
		White:     white,
		Black:     black,
		Result:    result,
		Method:    method,
		MovesSAN:  room.Match.MovesSAN,
		StartedAt: room.Match.StartedAt,
		EndedAt:   time.Now(),
	})
	if err != nil {
		obslog.L().Error("match_archive_error", zap.String("match_id", room.Match.ID), zap.Error(err))
	}
}

// startClock supersedes any previous countdown for the room and launches a
// new one. The room name travels as an argument, never by closure over loop
// variables, so a rematch restart always ticks the room it was asked for.
func (c *Coordinator) startClock(room *Room) {
	if room.Clock.stop != nil {
		close(room.Clock.stop)
	}
	room.Clock.gen++
	room.Clock.stop = make(chan struct{})
	room.Clock.Running = true
	go c.runTicker(room.Name, room.Clock.gen, room.Clock.stop)
}

func (c *Coordinator) stopClock(room *Room) {
	if room.Clock.stop != nil {
		close(room.Clock.stop)
		room.Clock.stop = nil
	}
	room.Clock.Running = false
}

func (c *Coordinator) stopAllClocks() {
	for _, room := range c.registry.All() {
		c.stopClock(room)
	}
}

func (c *Coordinator) runTicker(roomName string, gen uint64, stop chan struct{}) {
	t := time.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			select {
			case c.events <- event{kind: evTick, room: roomName, gen: gen}:
			case <-stop:
				return
			}
		}
	}
}

func (c *Coordinator) text(key string, data map[string]string, fallback string) string {
	if c.cat == nil {
		return fallback
	}
	msg, err := c.cat.Render(key, data)
	if err != nil {
		obslog.L().Warn("message_render_error", zap.String("key", key), zap.Error(err))
		return fallback
	}
	return msg
}

func colorPT(c rules.Color) string {
	if c == rules.White {
		return "brancas"
	}
	return "pretas"
}
