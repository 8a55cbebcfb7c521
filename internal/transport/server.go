package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/G4briel-Rodrigues/xadrez-novo/internal/obslog"
	"github.com/G4briel-Rodrigues/xadrez-novo/pkg/wire"
)

const writeTimeout = 10 * time.Second

// Coordinator receives the decoded client intents.
type Coordinator interface {
	Join(conn uuid.UUID, nickname, password, room string)
	Move(conn uuid.UUID, room, from, to, color string)
	Chat(conn uuid.UUID, room, text string)
	RequestRematch(conn uuid.UUID, room string)
	Disconnect(conn uuid.UUID)
}

// Server upgrades HTTP requests to websockets and pumps frames between each
// client and the coordinator.
type Server struct {
	hub   *Hub
	coord Coordinator
}

func NewServer(hub *Hub, coord Coordinator) *Server {
	return &Server{hub: hub, coord: coord}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	return mux
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		obslog.L().Warn("ws_accept_error", zap.Error(err))
		return
	}

	id := uuid.New()
	send := s.hub.Register(id)
	obslog.L().Info("ws_connected", zap.String("conn", id.String()))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go s.writeLoop(ctx, c, send)
	s.readLoop(ctx, c, id)

	s.hub.Remove(id)
	s.coord.Disconnect(id)
	c.Close(websocket.StatusNormalClosure, "")
	obslog.L().Info("ws_disconnected", zap.String("conn", id.String()))
}

func (s *Server) readLoop(ctx context.Context, c *websocket.Conn, id uuid.UUID) {
	for {
		var in wire.Inbound
		if err := wsjson.Read(ctx, c, &in); err != nil {
			return
		}
		switch in.Type {
		case wire.TypeJoin:
			s.coord.Join(id, in.Nickname, in.Password, in.Room)
		case wire.TypeMove:
			s.coord.Move(id, in.Room, in.From, in.To, in.Color)
		case wire.TypeChat:
			s.coord.Chat(id, in.Room, in.Text)
		case wire.TypeRematch:
			s.coord.RequestRematch(id, in.Room)
		default:
			obslog.L().Debug("ws_unknown_type",
				zap.String("conn", id.String()),
				zap.String("type", in.Type))
		}
	}
}

func (s *Server) writeLoop(ctx context.Context, c *websocket.Conn, send <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-send:
			if !ok {
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
