// Package snapshot builds immutable data snapshots from the game service.
//
// A DataSnapshot captures the game list and, when a game is selected, its
// aggregate state and per-agent records at a point in time. Snapshots are
// rebuilt on every poll and swapped wholesale into the UI model; a failed
// build leaves the previous snapshot in place.
package snapshot

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/daviddao/purelands_viewer/internal/gameapi"
	"github.com/daviddao/purelands_viewer/internal/phase"
)

// Source is the slice of the game service a snapshot is built from.
type Source interface {
	ListGames(ctx context.Context) ([]gameapi.Game, error)
	GameState(ctx context.Context, gameID string) (gameapi.GameState, error)
	Agents(ctx context.Context, gameID string) (map[string]gameapi.AgentState, error)
}

// AgentView is one agent of the selected game, merged from the agents
// endpoint and the game list.
type AgentView struct {
	Name         string
	Tokens       float64
	Choice       string
	Allies       []string
	Personality  string
	Messages     int
	Thoughts     int
	Deals        int
	TopPerformer bool
}

// DataSnapshot is an immutable, self-contained view of the game service.
type DataSnapshot struct {
	Games []gameapi.Game

	// Selected game. State is nil when no game is selected.
	GameID string
	State  *gameapi.GameState
	Agents []AgentView // sorted by name

	Phase       string
	TopBalance  float64
	TotalTokens float64

	// Timestamp of snapshot creation.
	BuiltAt time.Time
}

// Game returns the list entry of the selected game.
func (s *DataSnapshot) Game() (gameapi.Game, bool) {
	if s == nil {
		return gameapi.Game{}, false
	}
	for _, g := range s.Games {
		if g.ID == s.GameID {
			return g, true
		}
	}
	return gameapi.Game{}, false
}

// AgentNames returns the selected game's agents in display order.
func (s *DataSnapshot) AgentNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.Agents))
	for i, a := range s.Agents {
		names[i] = a.Name
	}
	return names
}

// Build fetches the game list and, when gameID is set, the game's state and
// agents, all concurrently. Any failure fails the whole build.
func Build(ctx context.Context, src Source, gameID string) (*DataSnapshot, error) {
	var (
		games  []gameapi.Game
		state  gameapi.GameState
		agents map[string]gameapi.AgentState
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		games, err = src.ListGames(gctx)
		if err != nil {
			return fmt.Errorf("list games: %w", err)
		}
		return nil
	})
	if gameID != "" {
		g.Go(func() error {
			var err error
			state, err = src.GameState(gctx, gameID)
			if err != nil {
				return fmt.Errorf("game %s state: %w", gameID, err)
			}
			return nil
		})
		g.Go(func() error {
			var err error
			agents, err = src.Agents(gctx, gameID)
			if err != nil {
				return fmt.Errorf("game %s agents: %w", gameID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := &DataSnapshot{
		Games:   games,
		GameID:  gameID,
		BuiltAt: time.Now(),
	}
	if gameID == "" {
		return snap, nil
	}

	snap.State = &state
	snap.Phase = phase.Name(state.CurrentRound)
	if !state.Started() {
		snap.Phase = phase.Name(-1)
	}

	var personalities map[string]string
	if game, ok := snap.Game(); ok {
		personalities = make(map[string]string, len(game.Agents))
		for _, a := range game.Agents {
			personalities[a.Name] = a.Personality
		}
	}

	snap.Agents = make([]AgentView, 0, len(agents))
	for name, a := range agents {
		snap.Agents = append(snap.Agents, AgentView{
			Name:        name,
			Tokens:      a.Tokens,
			Choice:      a.Choice,
			Allies:      a.Allies,
			Personality: personalities[name],
			Messages:    len(a.Messages),
			Thoughts:    len(a.Thoughts),
			Deals:       len(a.Deals),
		})
		snap.TotalTokens += a.Tokens
		if a.Tokens > snap.TopBalance {
			snap.TopBalance = a.Tokens
		}
	}
	sort.Slice(snap.Agents, func(i, j int) bool { return snap.Agents[i].Name < snap.Agents[j].Name })

	// Ties share the top spot. Nobody leads while all balances are zero.
	if snap.TopBalance > 0 {
		for i := range snap.Agents {
			snap.Agents[i].TopPerformer = snap.Agents[i].Tokens == snap.TopBalance
		}
	}
	return snap, nil
}
