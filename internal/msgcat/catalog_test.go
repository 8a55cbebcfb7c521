package msgcat

import (
	"strings"
	"testing"
)

func TestRenderDefaults(t *testing.T) {
	c, err := New("")
	if err != nil {
		t.Fatalf("msgcat.New: %v", err)
	}

	got, err := c.Render("game_over.checkmate", map[string]string{"Winner": "ana"})
	if err != nil {
		t.Fatalf("Render checkmate: %v", err)
	}
	if !strings.Contains(got, "ana") || !strings.Contains(got, "XEQUE-MATE") {
		t.Fatalf("unexpected checkmate text: %q", got)
	}

	if _, err := c.Render("game_over.draw", nil); err != nil {
		t.Fatalf("Render draw: %v", err)
	}
	if _, err := c.Render("nope.missing", nil); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}
