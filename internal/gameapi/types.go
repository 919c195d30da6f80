package gameapi

import (
	"encoding/json"
	"strings"
	"time"
)

// Game is one entry of the game roster returned by GET /games.
type Game struct {
	ID           string      `json:"game_id"`
	TicketPrice  float64     `json:"ticket_price"`
	Agents       []GameAgent `json:"agents"`
	CurrentRound *int        `json:"current_round"`
	Era          int         `json:"era,omitempty"`
}

// GameAgent is an agent as listed inside a Game.
type GameAgent struct {
	Name        string   `json:"name"`
	Tokens      float64  `json:"tokens"`
	Personality string   `json:"personality"`
	Choice      *string  `json:"choice"`
	Allies      []string `json:"allies"`
}

// AgentConfig describes one agent in a create-game request.
type AgentConfig struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	InitialTokens float64 `json:"initial_tokens"`
	Personality   string  `json:"personality"`
}

// GameConfig is the body of POST /game/create.
type GameConfig struct {
	TicketPrice float64       `json:"ticket_price"`
	Agents      []AgentConfig `json:"agents"`
}

// GameResponse is returned by create, reset and progress.
type GameResponse struct {
	Message string `json:"message"`
	GameID  string `json:"game_id"`
}

// AgentState is the per-agent record returned by GET /game/{id}/agents.
type AgentState struct {
	Tokens   float64   `json:"tokens"`
	Choice   string    `json:"choice"`
	Allies   []string  `json:"allies"`
	Messages []Message `json:"messages"`
	Thoughts []Thought `json:"thoughts"`
	Deals    []Deal    `json:"deals"`
}

// Message is one agent-to-agent chat message.
type Message struct {
	From      string    `json:"from_agent"`
	To        string    `json:"to_agent"`
	Content   string    `json:"content"`
	Timestamp Timestamp `json:"timestamp"`
	Round     int       `json:"round_number"`
	Era       int       `json:"era,omitempty"`
}

// Thought is one thought-process entry recorded for an agent.
type Thought struct {
	Agent     string    `json:"agent_name"`
	Content   string    `json:"content"`
	Timestamp Timestamp `json:"timestamp"`
	Round     int       `json:"round_number"`
	Era       int       `json:"era,omitempty"`
}

// Deal is a proposal exchanged between two agents.
type Deal struct {
	Proposer  string    `json:"proposer"`
	Receiver  string    `json:"receiver"`
	Content   string    `json:"content"`
	Status    string    `json:"status"`
	Timestamp Timestamp `json:"timestamp"`
	Round     int       `json:"round_number"`
}

// Interactions is the body of GET /game/{id}/agent-interactions/{a}/{b}.
type Interactions struct {
	Messages  []Message       `json:"messages"`
	Deals     []Deal          `json:"deals"`
	Alliances json.RawMessage `json:"alliances,omitempty"`
}

// AgentSnapshot is the compact per-agent state inside GameState.
type AgentSnapshot struct {
	Tokens    float64  `json:"tokens"`
	Choice    string   `json:"choice"`
	Alliances []string `json:"alliances"`
}

// GameState is the aggregate state returned by GET /game/{id}/state.
type GameState struct {
	CurrentRound    int                      `json:"current_round"`
	Era             int                      `json:"era"`
	Status          string                   `json:"game_status"`
	IsProcessing    bool                     `json:"is_processing"`
	AgentStates     map[string]AgentSnapshot `json:"agent_states"`
	RoundsCompleted []int                    `json:"rounds_completed"`
	Results         *Results                 `json:"results"`
	Rewards         *Rewards                 `json:"rewards"`
}

// StatusNotStarted is the game_status of a freshly created game.
const StatusNotStarted = "not_started"

// Started reports whether the first round has been kicked off.
func (s GameState) Started() bool {
	return s.Status != "" && s.Status != StatusNotStarted
}

// Complete reports whether results are available.
func (s GameState) Complete() bool {
	return s.Results != nil
}

// Results is the outcome of a finished game.
type Results struct {
	WinningShapes      []string            `json:"winning_shapes"`
	Winners            []string            `json:"winners"`
	ChoiceDistribution map[string][]string `json:"choice_distribution"`
}

// Draw reports whether the game ended without winners.
func (r *Results) Draw() bool {
	return r != nil && len(r.Winners) == 0
}

// Rewards is the payout breakdown of a finished game.
type Rewards struct {
	TotalEscrow float64           `json:"total_escrow"`
	Winners     map[string]Reward `json:"winners"`
}

// Reward is one winner's payout.
type Reward struct {
	Reward        float64 `json:"reward"`
	InitialTokens float64 `json:"initial_tokens"`
	FinalTokens   float64 `json:"final_tokens"`
}

// Timestamp decodes the service's timestamps, which are not always RFC 3339:
// naive ISO strings without a zone and space-separated forms also occur.
// An unparseable value keeps its raw text and a zero Time.
type Timestamp struct {
	Time time.Time
	Raw  string
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses s with every accepted layout.
func ParseTimestamp(s string) Timestamp {
	ts := Timestamp{Raw: s}
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			ts.Time = t
			break
		}
	}
	return ts
}

// At returns a Timestamp for t, mainly for tests and fixtures.
func At(t time.Time) Timestamp {
	return Timestamp{Time: t, Raw: t.Format(time.RFC3339Nano)}
}

// Before orders two timestamps. Zero (unparseable) times sort first.
func (t Timestamp) Before(o Timestamp) bool {
	return t.Time.Before(o.Time)
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*t = ParseTimestamp(s)
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Raw != "" {
		return json.Marshal(t.Raw)
	}
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// Clock renders the timestamp as HH:MM in local time, or the raw text.
func (t Timestamp) Clock() string {
	if t.Time.IsZero() {
		return t.Raw
	}
	return t.Time.Local().Format("15:04")
}
