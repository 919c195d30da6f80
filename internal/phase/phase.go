// Package phase maps a game's numeric round pointer to its named phase.
//
// Every view derives the phase from here so that the game list, the
// controller and the status bar agree on thresholds.
package phase

import (
	"strconv"

	"github.com/daviddao/purelands_viewer/internal/gameapi"
)

// Step is one phase of a game era.
type Step struct {
	ID          int
	Name        string
	Description string
	Action      string
}

// Steps lists the phases in order. Round n of an era is Steps[n].
var Steps = []Step{
	{ID: 0, Name: "Entry & Setup", Description: "Agents purchase tickets and enter the game", Action: "Start Entry & Setup"},
	{ID: 1, Name: "Introductions", Description: "Agents meet and share preferences", Action: "Begin Introductions"},
	{ID: 2, Name: "Alliance Formation", Description: "Agents form alliances and make deals", Action: "Start Alliance Formation"},
	{ID: 3, Name: "Final Decision", Description: "Agents make their shape choices", Action: "Make Final Decisions"},
}

const (
	notStarted = "Not started"
	finished   = "Round finished"
)

// For returns the step for round, if round is within the era.
func For(round int) (Step, bool) {
	if round < 0 || round >= len(Steps) {
		return Step{}, false
	}
	return Steps[round], true
}

// Name returns the display name of round.
func Name(round int) string {
	if round < 0 {
		return notStarted
	}
	if s, ok := For(round); ok {
		return s.Name
	}
	return finished
}

// NameOf is Name for an optional round pointer, as listed by GET /games.
func NameOf(round *int) string {
	if round == nil {
		return finished
	}
	return Name(*round)
}

// Status is the display state of a step relative to the game.
type Status int

const (
	Pending Status = iota
	Active
	Processing
	Done
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case Active:
		return "active"
	case Processing:
		return "processing"
	case Done:
		return "done"
	}
	return "?"
}

// StatusOf returns the state of step within st.
func StatusOf(step Step, st gameapi.GameState) Status {
	if !st.Started() {
		return Pending
	}
	switch {
	case st.CurrentRound > step.ID:
		return Done
	case st.CurrentRound == step.ID:
		if st.IsProcessing {
			return Processing
		}
		return Active
	}
	return Pending
}

// Progress returns the completed fraction of the era, clamped to [0, 1].
func Progress(round int) float64 {
	p := float64(round+1) / float64(len(Steps))
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// ActionLabel returns the label of the "advance" action for st, or "" when
// no advance is possible because the game is complete.
func ActionLabel(st gameapi.GameState) string {
	if st.IsProcessing {
		return "Processing..."
	}
	if !st.Started() {
		return Steps[0].Action
	}
	if st.Complete() {
		return ""
	}
	if s, ok := For(st.CurrentRound); ok {
		return s.Action
	}
	return ""
}

// Summary is the one-line progress text of the controller.
func Summary(st gameapi.GameState) string {
	switch {
	case !st.Started():
		return "Ready to begin game"
	case st.Complete():
		return "Game completed"
	}
	return "Round " + strconv.Itoa(st.CurrentRound) + " of " + strconv.Itoa(len(Steps)-1)
}
