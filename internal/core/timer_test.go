package core

import (
	"context"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestFixedStepPacing(t *testing.T) {
	c := &clock{t: time.Unix(100, 0)}
	fs := NewFixedStep(10)
	fs.now = c.now

	if !fs.ShouldStep() {
		t.Fatalf("first poll should step")
	}
	c.t = c.t.Add(50 * time.Millisecond)
	if fs.ShouldStep() {
		t.Fatalf("stepped after half an interval")
	}
	c.t = c.t.Add(60 * time.Millisecond)
	if !fs.ShouldStep() {
		t.Fatalf("did not step after a full interval")
	}

	// A long stall yields at most two back-to-back steps.
	c.t = c.t.Add(5 * time.Second)
	steps := 0
	for fs.ShouldStep() {
		steps++
		if steps > 10 {
			break
		}
	}
	if steps != 2 {
		t.Fatalf("stall produced %d steps, expected 2", steps)
	}
	if fs.TPS() != 10 {
		t.Fatalf("TPS() = %d", fs.TPS())
	}
}

func TestUnpacedNeverWaits(t *testing.T) {
	fs := NewFixedStep(0)
	for i := 0; i < 3; i++ {
		if !fs.ShouldStep() {
			t.Fatalf("unpaced poll %d did not step", i)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := fs.Wait(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestWaitHonorsContext(t *testing.T) {
	fs := NewFixedStep(1)
	fs.ShouldStep()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := fs.Wait(ctx); err != context.Canceled {
		t.Fatalf("Wait on canceled ctx = %v", err)
	}
}
