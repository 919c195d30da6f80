package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// --- Key bindings ---

type keyMap struct {
	Quit        key.Binding
	Tab         key.Binding
	Refresh     key.Binding
	Up          key.Binding
	Down        key.Binding
	Left        key.Binding
	Right       key.Binding
	Help        key.Binding
	Enter       key.Binding
	Esc         key.Binding
	Primary     key.Binding
	Counterpart key.Binding
	Progress    key.Binding
	Reset       key.Binding
}

var keys = keyMap{
	Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Tab:         key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next view")),
	Refresh:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Up:          key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("k/up", "up")),
	Down:        key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("j/down", "down")),
	Left:        key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("h", "chat panel")),
	Right:       key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("l", "thoughts panel")),
	Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Enter:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select game")),
	Esc:         key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Primary:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "cycle primary agent")),
	Counterpart: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "cycle counterpart")),
	Progress:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "advance round")),
	Reset:       key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "new round")),
}

// viewKeys maps single keys to views for fast navigation.
var viewKeys = map[string]viewID{
	"g": viewGames,
	"c": viewGame,
	"b": viewBalances,
	"m": viewComms,
	"n": viewSetup,
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Refresh, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Refresh, k.Up, k.Down, k.Enter},
		{k.Primary, k.Counterpart, k.Left, k.Right},
		{k.Progress, k.Reset, k.Esc, k.Help, k.Quit},
	}
}

// contextHelp returns help text appropriate for the current view.
func contextHelp(v viewID) string {
	switch v {
	case viewGames:
		return "j/k: select | enter: open game | g/c/b/m/n: views | tab: next | ?: help | q: quit"
	case viewGame:
		return "p: advance round | R: new round | g/c/b/m/n: views | tab: next | ?: help | q: quit"
	case viewComms:
		return "a/x: pick agents | h/l: panel | j/k: scroll | g/c/b/m/n: views | ?: help | q: quit"
	case viewSetup:
		return "tab/shift+tab: field | enter: create game | esc: back | ctrl+c: quit"
	default:
		return "j/k: scroll | g/c/b/m/n: views | tab: next | ?: help | q: quit"
	}
}

// --- Views ---

type viewID int

const (
	viewGames viewID = iota
	viewGame
	viewBalances
	viewComms
	viewSetup
	viewCount // sentinel
)

func (v viewID) String() string {
	switch v {
	case viewGames:
		return "Games"
	case viewGame:
		return "Game"
	case viewBalances:
		return "Balances"
	case viewComms:
		return "Communications"
	case viewSetup:
		return "New Game"
	}
	return "?"
}

// parseViewFlag maps a --view flag string to a viewID.
func parseViewFlag(s string) (viewID, error) {
	switch strings.ToLower(s) {
	case "games", "g":
		return viewGames, nil
	case "game", "controller", "c":
		return viewGame, nil
	case "balances", "b":
		return viewBalances, nil
	case "communications", "chat", "m":
		return viewComms, nil
	case "setup", "new", "n":
		return viewSetup, nil
	default:
		return 0, fmt.Errorf("unknown view %q (valid: games, game, balances, chat, setup)", s)
	}
}

// panelID is the focused panel of the communications view.
type panelID int

const (
	panelChat panelID = iota
	panelThoughts
)
