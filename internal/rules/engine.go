// Package rules adapts the chess move-legality engine. The coordinator treats
// it as an oracle: feed it a move, get the new position back or a rejection,
// and ask whether the game has ended.
package rules

import (
	"errors"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// Color identifies a side of the board.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

// ParseColor returns the Color for s, accepting the short "w"/"b" forms.
func ParseColor(s string) (Color, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, true
	case "black", "b":
		return Black, true
	}
	return "", false
}

// Status classifies the position after the latest move.
type Status string

const (
	StatusOngoing   Status = "ongoing"
	StatusCheckmate Status = "checkmate"
	// StatusDraw covers stalemate, repetition, fifty-move rule and
	// insufficient material alike; the coordinator does not distinguish.
	StatusDraw Status = "draw"
)

var ErrIllegalMove = errors.New("illegal move")

// Position is a mutable game position. Not safe for concurrent use; the
// coordinator serializes all access.
type Position struct {
	game *nchess.Game
}

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	return &Position{game: nchess.NewGame()}
}

func (p *Position) FEN() string { return p.game.FEN() }

// Turn reports the side to move.
func (p *Position) Turn() Color {
	return colorFrom(p.game.Position().Turn())
}

// Apply plays the move from→to and returns its SAN description. Promotions
// always resolve to a queen. Returns ErrIllegalMove if the engine rejects the
// move; the position is unchanged in that case.
func (p *Position) Apply(from, to string) (string, error) {
	uci := strings.ToLower(strings.TrimSpace(from) + strings.TrimSpace(to))
	if len(uci) != 4 {
		return "", ErrIllegalMove
	}
	pos := p.game.Position()
	notation := nchess.UCINotation{}
	if mv, err := notation.Decode(pos, uci); err == nil {
		san := nchess.AlgebraicNotation{}.Encode(pos, mv)
		if err := p.game.Move(mv, nil); err == nil {
			return san, nil
		}
	}
	// A bare from+to decodes without a promotion piece and is then rejected
	// by the game when the pawn reaches the last rank. Retry as a queen
	// promotion before giving up.
	mv, err := notation.Decode(pos, uci+"q")
	if err != nil {
		return "", ErrIllegalMove
	}
	san := nchess.AlgebraicNotation{}.Encode(pos, mv)
	if err := p.game.Move(mv, nil); err != nil {
		return "", ErrIllegalMove
	}
	return san, nil
}

// Status reports whether the game has reached a terminal state.
func (p *Position) Status() Status {
	switch p.game.Outcome() {
	case nchess.NoOutcome:
		return StatusOngoing
	}
	if p.game.Method() == nchess.Checkmate {
		return StatusCheckmate
	}
	return StatusDraw
}

func colorFrom(c nchess.Color) Color {
	if c == nchess.White {
		return White
	}
	return Black
}
