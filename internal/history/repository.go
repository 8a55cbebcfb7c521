// Package history archives finished matches in Postgres. The archive is
// optional: when no DATABASE_URL is configured the coordinator runs without
// it, and a failed insert is logged, never shown to players.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (*Repository, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(4)
	db.SetConnMaxLifetime(30 * time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

// MatchResult describes one finished match.
type MatchResult struct {
	MatchID   string
	Room      string
	White     string
	Black     string
	Result    string // "white" | "black" | "draw"
	Method    string // "checkmate" | "timeout" | "draw"
	MovesSAN  []string
	StartedAt time.Time
	EndedAt   time.Time
}

// SaveResult inserts a finished match. Repeated saves of the same match id
// overwrite the previous row.
func (r *Repository) SaveResult(ctx context.Context, m *MatchResult) error {
	if r == nil || r.db == nil || m == nil {
		return nil
	}
	pgn := buildPGN(m)
	duration := m.EndedAt.Sub(m.StartedAt).Milliseconds()
	if duration < 0 {
		duration = 0
	}

	const q = `INSERT INTO matches (
	    match_id, room, white_nickname, black_nickname,
	    result, result_method, pgn, started_at, ended_at, duration_ms
	  ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	  ON CONFLICT (match_id) DO UPDATE SET
	    result=EXCLUDED.result,
	    result_method=EXCLUDED.result_method,
	    pgn=EXCLUDED.pgn,
	    ended_at=EXCLUDED.ended_at,
	    duration_ms=EXCLUDED.duration_ms`

	_, err := r.db.ExecContext(ctx, q,
		m.MatchID, m.Room, m.White, m.Black,
		m.Result, strings.TrimSpace(m.Method), pgn,
		m.StartedAt, m.EndedAt, duration,
	)
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	return nil
}

func buildPGN(m *MatchResult) string {
	result := pgnResult(m.Result)
	var b strings.Builder
	date := m.EndedAt
	if date.IsZero() {
		date = time.Now()
	}
	b.WriteString("[Event \"Xadrez Online\"]\n")
	b.WriteString(fmt.Sprintf("[Site \"%s\"]\n", sanitizePGN(m.Room)))
	b.WriteString(fmt.Sprintf("[Date \"%04d.%02d.%02d\"]\n", date.Year(), int(date.Month()), date.Day()))
	b.WriteString(fmt.Sprintf("[White \"%s\"]\n", sanitizePGN(m.White)))
	b.WriteString(fmt.Sprintf("[Black \"%s\"]\n", sanitizePGN(m.Black)))
	if strings.TrimSpace(m.Method) != "" {
		b.WriteString(fmt.Sprintf("[Termination \"%s\"]\n", sanitizePGN(strings.ToLower(m.Method))))
	}
	b.WriteString(fmt.Sprintf("[Result \"%s\"]\n\n", result))

	for i := 0; i < len(m.MovesSAN); i += 2 {
		b.WriteString(fmt.Sprintf("%d. %s", i/2+1, strings.TrimSpace(m.MovesSAN[i])))
		if i+1 < len(m.MovesSAN) {
			b.WriteString(" ")
			b.WriteString(strings.TrimSpace(m.MovesSAN[i+1]))
		}
		b.WriteString(" ")
	}
	b.WriteString(result)
	return b.String()
}

func pgnResult(result string) string {
	switch strings.ToLower(strings.TrimSpace(result)) {
	case "white":
		return "1-0"
	case "black":
		return "0-1"
	case "draw":
		return "1/2-1/2"
	default:
		return "*"
	}
}

func sanitizePGN(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}
