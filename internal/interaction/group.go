// Package interaction turns the flat message and thought-process feeds of a
// game into the two-party, era/round grouped view shown by the viewer.
//
// A GroupedView is rebuilt from scratch on every poll and replaces the
// previous one wholesale. The Aggregator owns the view for one viewer
// session and guards it against results that belong to an older selection.
package interaction

import (
	"sort"

	"github.com/daviddao/purelands_viewer/internal/gameapi"
)

// DefaultEra is assigned to records from deployments without an era concept.
const DefaultEra = 1

// Selection is the agent pair currently being viewed.
type Selection struct {
	Primary     string
	Counterpart string
}

// Complete reports whether both agents are chosen.
func (s Selection) Complete() bool {
	return s.Primary != "" && s.Counterpart != ""
}

// Matches reports whether {sender, receiver} is exactly the selected pair,
// in either direction.
func (s Selection) Matches(sender, receiver string) bool {
	return (sender == s.Primary && receiver == s.Counterpart) ||
		(sender == s.Counterpart && receiver == s.Primary)
}

// Involves reports whether agent is one of the two selected agents.
func (s Selection) Involves(agent string) bool {
	return agent != "" && (agent == s.Primary || agent == s.Counterpart)
}

// ScrollAnchor holds the scroll offsets of the chat and thoughts panels.
type ScrollAnchor struct {
	Chat     int
	Thoughts int
}

// GroupedView is the era -> round nested view of one agent pair.
// Within a round, messages and each agent's thoughts are ordered by
// ascending timestamp.
type GroupedView struct {
	Messages map[int]map[int][]gameapi.Message
	Thoughts map[int]map[int]map[string][]gameapi.Thought
}

// NewGroupedView returns an empty view.
func NewGroupedView() GroupedView {
	return GroupedView{
		Messages: make(map[int]map[int][]gameapi.Message),
		Thoughts: make(map[int]map[int]map[string][]gameapi.Thought),
	}
}

// Empty reports whether the view holds neither messages nor thoughts.
func (v GroupedView) Empty() bool {
	return len(v.Messages) == 0 && len(v.Thoughts) == 0
}

// MessageCount returns the number of messages across all buckets.
func (v GroupedView) MessageCount() int {
	n := 0
	for _, rounds := range v.Messages {
		for _, msgs := range rounds {
			n += len(msgs)
		}
	}
	return n
}

// ThoughtCount returns the number of thoughts across all buckets.
func (v GroupedView) ThoughtCount() int {
	n := 0
	for _, rounds := range v.Thoughts {
		for _, agents := range rounds {
			for _, ts := range agents {
				n += len(ts)
			}
		}
	}
	return n
}

// Eras returns the eras holding messages, ascending.
func (v GroupedView) Eras() []int {
	return sortedKeys(v.Messages)
}

// Rounds returns the rounds of era holding messages, ascending.
func (v GroupedView) Rounds(era int) []int {
	return sortedKeys(v.Messages[era])
}

// ThoughtEras returns the eras holding thoughts, ascending.
func (v GroupedView) ThoughtEras() []int {
	return sortedKeys(v.Thoughts)
}

// ThoughtRounds returns the rounds of era holding thoughts, ascending.
func (v GroupedView) ThoughtRounds(era int) []int {
	return sortedKeys(v.Thoughts[era])
}

// ThoughtAgents returns the agents with thoughts in (era, round), sorted by name.
func (v GroupedView) ThoughtAgents(era, round int) []string {
	agents := v.Thoughts[era][round]
	out := make([]string, 0, len(agents))
	for name := range agents {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func sortedKeys[V any](m map[int]V) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func eraOf(era int) int {
	if era == 0 {
		return DefaultEra
	}
	return era
}

type messageKey struct {
	from, to, ts, content string
}

// Group filters messages and thoughts to sel and nests them by era and
// round. Messages that repeat the same (sender, receiver, timestamp,
// content) are kept once. Equal timestamps keep their input order.
// The inputs are not modified.
func Group(sel Selection, messages []gameapi.Message, thoughts []gameapi.Thought) GroupedView {
	v := NewGroupedView()

	seen := make(map[messageKey]struct{}, len(messages))
	for _, m := range messages {
		if !sel.Matches(m.From, m.To) {
			continue
		}
		k := messageKey{m.From, m.To, m.Timestamp.Raw, m.Content}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}

		era := eraOf(m.Era)
		rounds, ok := v.Messages[era]
		if !ok {
			rounds = make(map[int][]gameapi.Message)
			v.Messages[era] = rounds
		}
		rounds[m.Round] = append(rounds[m.Round], m)
	}

	for _, t := range thoughts {
		if !sel.Involves(t.Agent) {
			continue
		}
		era := eraOf(t.Era)
		rounds, ok := v.Thoughts[era]
		if !ok {
			rounds = make(map[int]map[string][]gameapi.Thought)
			v.Thoughts[era] = rounds
		}
		agents, ok := rounds[t.Round]
		if !ok {
			agents = make(map[string][]gameapi.Thought)
			rounds[t.Round] = agents
		}
		agents[t.Agent] = append(agents[t.Agent], t)
	}

	for _, rounds := range v.Messages {
		for _, msgs := range rounds {
			sort.SliceStable(msgs, func(i, j int) bool {
				return msgs[i].Timestamp.Before(msgs[j].Timestamp)
			})
		}
	}
	for _, rounds := range v.Thoughts {
		for _, agents := range rounds {
			for _, ts := range agents {
				sort.SliceStable(ts, func(i, j int) bool {
					return ts[i].Timestamp.Before(ts[j].Timestamp)
				})
			}
		}
	}
	return v
}
