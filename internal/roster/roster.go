// Package roster describes the agents entered into a new game.
package roster

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/daviddao/purelands_viewer/internal/gameapi"
)

// DefaultTicketPrice is the entry fee used when a roster does not set one.
const DefaultTicketPrice = 100

// DefaultSize is the number of agents in the default roster.
const DefaultSize = 4

//go:embed roster.schema.json
var schemaJSON string

var schema = jsonschema.MustCompileString("roster.schema.json", schemaJSON)

// ErrIncomplete is returned when an agent has no personality.
var ErrIncomplete = errors.New("every agent needs a personality")

// Agent is one roster entry.
type Agent struct {
	Name          string  `yaml:"name" json:"name"`
	InitialTokens float64 `yaml:"initial_tokens" json:"initial_tokens"`
	Personality   string  `yaml:"personality,omitempty" json:"personality,omitempty"`
}

// Roster is a game setup: ticket price plus agents.
type Roster struct {
	TicketPrice float64 `yaml:"ticket_price" json:"ticket_price"`
	Agents      []Agent `yaml:"agents" json:"agents"`
}

// Default returns four agents "Agent 1".."Agent 4" with balances 1001..1004
// and empty personalities.
func Default() *Roster {
	r := &Roster{TicketPrice: DefaultTicketPrice}
	for i := 1; i <= DefaultSize; i++ {
		r.Agents = append(r.Agents, Agent{
			Name:          "Agent " + strconv.Itoa(i),
			InitialTokens: float64(1000 + i),
		})
	}
	return r
}

// Load reads a YAML roster file and validates it.
func Load(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML roster.
func Parse(data []byte) (*Roster, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	if err := validateDoc(doc); err != nil {
		return nil, err
	}
	r := &Roster{}
	if err := yaml.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}
	if err := r.checkNames(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks r against the roster schema and requires unique names.
func (r *Roster) Validate() error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode roster: %w", err)
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("encode roster: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("invalid roster: %w", err)
	}
	return r.checkNames()
}

// Complete reports whether every agent has a personality, which the setup
// form requires before a game can be created.
func (r *Roster) Complete() error {
	for _, a := range r.Agents {
		if strings.TrimSpace(a.Personality) == "" {
			return fmt.Errorf("%s: %w", a.Name, ErrIncomplete)
		}
	}
	return nil
}

// Missing returns how many agents still lack a personality.
func (r *Roster) Missing() int {
	n := 0
	for _, a := range r.Agents {
		if strings.TrimSpace(a.Personality) == "" {
			n++
		}
	}
	return n
}

// GameConfig converts r into a create-game request. Agent ids are "1".."n"
// in roster order.
func (r *Roster) GameConfig() gameapi.GameConfig {
	cfg := gameapi.GameConfig{
		TicketPrice: r.TicketPrice,
		Agents:      make([]gameapi.AgentConfig, len(r.Agents)),
	}
	for i, a := range r.Agents {
		cfg.Agents[i] = gameapi.AgentConfig{
			ID:            strconv.Itoa(i + 1),
			Name:          a.Name,
			InitialTokens: a.InitialTokens,
			Personality:   strings.TrimSpace(a.Personality),
		}
	}
	return cfg
}

func (r *Roster) checkNames() error {
	seen := make(map[string]bool, len(r.Agents))
	for _, a := range r.Agents {
		if seen[a.Name] {
			return fmt.Errorf("invalid roster: duplicate agent name %q", a.Name)
		}
		seen[a.Name] = true
	}
	return nil
}

// validateDoc runs the schema over a YAML document. yaml.v3 decodes
// mappings as map[string]any but numbers as Go ints, so the document is
// normalised through JSON first.
func validateDoc(doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("parse roster: %w", err)
	}
	var norm any
	if err := json.Unmarshal(data, &norm); err != nil {
		return fmt.Errorf("parse roster: %w", err)
	}
	if err := schema.Validate(norm); err != nil {
		return fmt.Errorf("invalid roster: %w", err)
	}
	return nil
}
