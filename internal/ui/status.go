package ui

import (
	"fmt"
	"strings"
)

// Status is the run state shown over the grid.
type Status struct {
	Sim    string
	Steps  int
	Tiles  string
	TPS    int
	Paused bool
	Err    error
}

// Lines formats the status as short text rows.
func (s Status) Lines() []string {
	state := "running"
	switch {
	case s.Err != nil:
		state = "failed"
	case s.Paused:
		state = "paused"
	}
	rate := "unpaced"
	if s.TPS > 0 {
		rate = fmt.Sprintf("%d tps", s.TPS)
	}
	lines := []string{
		fmt.Sprintf("%s  step %d", s.Sim, s.Steps),
		fmt.Sprintf("tiles %s  %s  %s", s.Tiles, rate, state),
	}
	if s.Err != nil {
		lines = append(lines, s.Err.Error())
	}
	return lines
}

func (s Status) String() string { return strings.Join(s.Lines(), "\n") }
