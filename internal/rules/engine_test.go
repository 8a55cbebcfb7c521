package rules

import (
	"strings"
	"testing"
)

func apply(t *testing.T, p *Position, moves ...[2]string) {
	t.Helper()
	for _, m := range moves {
		if _, err := p.Apply(m[0], m[1]); err != nil {
			t.Fatalf("Apply(%s%s): %v", m[0], m[1], err)
		}
	}
}

func TestApplyLegalAndIllegal(t *testing.T) {
	p := NewPosition()
	if p.Turn() != White {
		t.Fatalf("starting turn = %s, want white", p.Turn())
	}

	// Pawn three squares forward is not a chess move.
	before := p.FEN()
	if _, err := p.Apply("e2", "e5"); err != ErrIllegalMove {
		t.Fatalf("Apply(e2e5) err = %v, want ErrIllegalMove", err)
	}
	if p.FEN() != before {
		t.Fatalf("position changed after rejected move")
	}

	san, err := p.Apply("e2", "e4")
	if err != nil {
		t.Fatalf("Apply(e2e4): %v", err)
	}
	if san != "e4" {
		t.Fatalf("SAN = %q, want e4", san)
	}
	if p.Turn() != Black {
		t.Fatalf("turn after e4 = %s, want black", p.Turn())
	}
	if p.Status() != StatusOngoing {
		t.Fatalf("status after one move = %s", p.Status())
	}
}

func TestTurnOrderRejectsWrongSide(t *testing.T) {
	p := NewPosition()
	apply(t, p, [2]string{"e2", "e4"})
	// Moving another white pawn while black is to move must be illegal.
	if _, err := p.Apply("d2", "d4"); err != ErrIllegalMove {
		t.Fatalf("white moving on black's turn: err = %v, want ErrIllegalMove", err)
	}
}

func TestFoolsMateIsCheckmate(t *testing.T) {
	p := NewPosition()
	apply(t, p,
		[2]string{"f2", "f3"},
		[2]string{"e7", "e5"},
		[2]string{"g2", "g4"},
	)
	san, err := p.Apply("d8", "h4")
	if err != nil {
		t.Fatalf("Apply(d8h4): %v", err)
	}
	if !strings.HasSuffix(san, "#") {
		t.Fatalf("mating move SAN = %q, want trailing #", san)
	}
	if p.Status() != StatusCheckmate {
		t.Fatalf("status = %s, want checkmate", p.Status())
	}
	// The mated side is to move; the winner is its opponent.
	if p.Turn() != White || p.Turn().Opponent() != Black {
		t.Fatalf("turn after mate = %s, want white (black wins)", p.Turn())
	}
}

func TestAutoQueenPromotion(t *testing.T) {
	p := NewPosition()
	apply(t, p,
		[2]string{"g2", "g4"},
		[2]string{"h7", "h5"},
		[2]string{"g4", "h5"},
		[2]string{"g7", "g6"},
		[2]string{"h5", "g6"},
		[2]string{"g8", "f6"},
		[2]string{"g6", "g7"},
		[2]string{"f6", "g8"},
	)
	san, err := p.Apply("g7", "h8")
	if err != nil {
		t.Fatalf("promotion capture gxh8: %v", err)
	}
	if !strings.Contains(san, "=Q") {
		t.Fatalf("promotion SAN = %q, want queen promotion", san)
	}
}

func TestAutoQueenPromotionOnStraightPush(t *testing.T) {
	p := NewPosition()
	apply(t, p,
		[2]string{"h2", "h4"},
		[2]string{"g7", "g5"},
		[2]string{"h4", "g5"},
		[2]string{"g8", "f6"},
		[2]string{"g5", "g6"},
		[2]string{"h7", "h6"},
		[2]string{"g6", "g7"},
		[2]string{"h6", "h5"},
	)
	san, err := p.Apply("g7", "g8")
	if err != nil {
		t.Fatalf("promotion push g8: %v", err)
	}
	if !strings.Contains(san, "=Q") {
		t.Fatalf("promotion SAN = %q, want queen promotion", san)
	}
	if p.Turn() != Black {
		t.Fatalf("turn after promotion = %s, want black", p.Turn())
	}
}

func TestStalemateIsDraw(t *testing.T) {
	p := NewPosition()
	// Fastest known stalemate (Sam Loyd, 10 ply).
	apply(t, p,
		[2]string{"e2", "e3"},
		[2]string{"a7", "a5"},
		[2]string{"d1", "h5"},
		[2]string{"a8", "a6"},
		[2]string{"h5", "a5"},
		[2]string{"h7", "h5"},
		[2]string{"h2", "h4"},
		[2]string{"a6", "h6"},
		[2]string{"a5", "c7"},
		[2]string{"f7", "f6"},
		[2]string{"c7", "d7"},
		[2]string{"e8", "f7"},
		[2]string{"d7", "b7"},
		[2]string{"d8", "d3"},
		[2]string{"b7", "b8"},
		[2]string{"d3", "h7"},
		[2]string{"b8", "c8"},
		[2]string{"f7", "g6"},
	)
	if _, err := p.Apply("c8", "e6"); err != nil {
		t.Fatalf("Apply(c8e6): %v", err)
	}
	if p.Status() != StatusDraw {
		t.Fatalf("status = %s, want draw", p.Status())
	}
}
