package ui

import (
	"errors"
	"slices"
	"testing"
)

func TestStatusLines(t *testing.T) {
	s := Status{Sim: "life", Steps: 12, Tiles: "2x2", TPS: 30}
	want := []string{"life  step 12", "tiles 2x2  30 tps  running"}
	if got := s.Lines(); !slices.Equal(got, want) {
		t.Fatalf("Lines() = %q, expected %q", got, want)
	}

	s.Paused, s.TPS = true, 0
	if got := s.Lines()[1]; got != "tiles 2x2  unpaced  paused" {
		t.Fatalf("paused line %q", got)
	}

	s.Err = errors.New("link down")
	if got := s.Lines(); len(got) != 3 || got[2] != "link down" || got[1] != "tiles 2x2  unpaced  failed" {
		t.Fatalf("failed status %q", got)
	}
}
