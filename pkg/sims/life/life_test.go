package life

import (
	"slices"
	"testing"

	"gridsim/pkg/core"
	"gridsim/pkg/sims"
)

func blinker(t *testing.T, opts sims.Options) *sims.Runner[uint8, uint8, struct{}] {
	t.Helper()
	life, err := New(Config{Width: 6, Height: 6}, opts)
	if err != nil {
		t.Fatal(err)
	}
	cells := make([]uint8, 36)
	set := func(x, y int) { cells[y*6+x] = 1 }
	set(2, 1)
	set(2, 2)
	set(2, 3)
	if err := life.Load(cells); err != nil {
		t.Fatal(err)
	}
	return life
}

func expectLive(t *testing.T, cells []uint8, step int, live ...[2]int) {
	t.Helper()
	expects := map[[2]int]bool{}
	for _, p := range live {
		expects[p] = true
	}
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			alive := cells[y*6+x] == 1
			if shouldBeAlive := expects[[2]int{x, y}]; shouldBeAlive != alive {
				t.Fatalf("step %d cell (%d,%d) alive=%v, expected %v", step, x, y, alive, shouldBeAlive)
			}
		}
	}
}

func TestBlinkerOscillation(t *testing.T) {
	tiles := []string{"1x1", "2x2", "3x2"}
	for _, layout := range tiles {
		opts := sims.DefaultOptions()
		topo, err := sims.ParseTiles(layout)
		if err != nil {
			t.Fatal(err)
		}
		opts.Tiles = topo
		life := blinker(t, opts)

		if err := life.Step(); err != nil {
			t.Fatalf("%s: %v", layout, err)
		}
		expectLive(t, life.Cells(), 1, [2]int{1, 2}, [2]int{2, 2}, [2]int{3, 2})

		if err := life.Step(); err != nil {
			t.Fatalf("%s: %v", layout, err)
		}
		expectLive(t, life.Cells(), 2, [2]int{2, 1}, [2]int{2, 2}, [2]int{2, 3})
		life.Close()
	}
}

func TestResetIsDeterministic(t *testing.T) {
	a, err := New(Config{Width: 16, Height: 8, Density: 0.4}, sims.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(Config{Width: 16, Height: 8, Density: 0.4}, sims.Options{Tiles: a.Tiles(), Workers: 3, Codec: "binary"})
	if err != nil {
		t.Fatal(err)
	}
	a.Reset(42)
	b.Reset(42)
	for i := 0; i < 5; i++ {
		if err := a.Step(); err != nil {
			t.Fatal(err)
		}
		if err := b.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if !slices.Equal(a.Cells(), b.Cells()) {
		t.Fatalf("same seed produced different boards")
	}
	if a.Steps() != 5 {
		t.Fatalf("Steps() = %d", a.Steps())
	}
}

func TestFromMap(t *testing.T) {
	c := FromMap(map[string]string{"w": "40", "h": "-3", "density": "0.5"})
	if c.Width != 40 || c.Height != DefaultConfig().Height || c.Density != 0.5 {
		t.Fatalf("FromMap = %+v", c)
	}
	if _, ok := core.Sims()["life"]; !ok {
		t.Fatalf("life is not registered")
	}
}
