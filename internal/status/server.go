// Package status exposes a small operational HTTP surface: liveness and the
// current win ranking.
package status

import (
	"context"
	"encoding/json"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/G4briel-Rodrigues/xadrez-novo/internal/obslog"
	"github.com/G4briel-Rodrigues/xadrez-novo/internal/store"
)

type Server struct {
	users       *store.Users
	rankingSize int
	srv         *fasthttp.Server
}

func New(users *store.Users, rankingSize int) *Server {
	s := &Server{users: users, rankingSize: rankingSize}
	s.srv = &fasthttp.Server{
		Handler: s.route,
		Name:    "xadrez-status",
	}
	return s
}

func (s *Server) ListenAndServe(addr string) error {
	return s.srv.ListenAndServe(addr)
}

func (s *Server) Shutdown() error {
	return s.srv.Shutdown()
}

func (s *Server) route(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/healthz":
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("ok")
	case "/ranking":
		s.handleRanking(ctx)
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	}
}

func (s *Server) handleRanking(ctx *fasthttp.RequestCtx) {
	entries, err := s.users.TopN(context.Background(), s.rankingSize)
	if err != nil {
		obslog.L().Error("status_ranking_error", zap.Error(err))
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	body, err := json.Marshal(entries)
	if err != nil {
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetBody(body)
}
