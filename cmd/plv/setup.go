package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/daviddao/purelands_viewer/internal/gameapi"
	"github.com/daviddao/purelands_viewer/internal/roster"
)

// setupForm collects the ticket price and one personality per agent of
// the default roster. Field 0 is the price.
type setupForm struct {
	base       *roster.Roster
	fields     []textinput.Model
	focus      int
	submitting bool
	err        string
}

func newSetupForm() setupForm {
	base := roster.Default()
	price := textinput.New()
	price.Prompt = "Ticket price: "
	price.SetValue(strconv.Itoa(roster.DefaultTicketPrice))
	price.CharLimit = 12

	fields := []textinput.Model{price}
	for _, a := range base.Agents {
		ti := textinput.New()
		ti.Prompt = fmt.Sprintf("%s: ", a.Name)
		ti.Placeholder = "E.g., 'Aggressive trader who takes risks...'"
		ti.CharLimit = 500
		fields = append(fields, ti)
	}
	return setupForm{base: base, fields: fields}
}

func (f *setupForm) setWidth(width int) {
	for i := range f.fields {
		f.fields[i].Width = max(20, width-len(f.fields[i].Prompt)-6)
	}
}

func (f *setupForm) focusField(i int) tea.Cmd {
	if len(f.fields) == 0 {
		return nil
	}
	i = (i + len(f.fields)) % len(f.fields)
	f.blur()
	f.focus = i
	return f.fields[i].Focus()
}

func (f *setupForm) blur() {
	for i := range f.fields {
		f.fields[i].Blur()
	}
}

func (f setupForm) update(msg tea.Msg) (setupForm, tea.Cmd) {
	if len(f.fields) == 0 {
		return f, nil
	}
	var cmd tea.Cmd
	f.fields[f.focus], cmd = f.fields[f.focus].Update(msg)
	return f, cmd
}

// roster builds the roster from the form, validated for submission.
func (f setupForm) roster() (*roster.Roster, error) {
	r := *f.base
	r.Agents = append([]roster.Agent(nil), f.base.Agents...)

	priceText := strings.TrimSpace(f.fields[0].Value())
	price, err := strconv.ParseFloat(priceText, 64)
	if err != nil {
		return nil, fmt.Errorf("ticket price %q is not a number", priceText)
	}
	r.TicketPrice = price
	for i := range r.Agents {
		r.Agents[i].Personality = f.fields[i+1].Value()
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	if err := r.Complete(); err != nil {
		return nil, err
	}
	return &r, nil
}

// missing counts agents without a personality.
func (f setupForm) missing() int {
	n := 0
	for _, ti := range f.fields[1:] {
		if strings.TrimSpace(ti.Value()) == "" {
			n++
		}
	}
	return n
}

func (f setupForm) buttonLabel() string {
	if f.submitting {
		return "Creating game..."
	}
	n := f.missing()
	switch n {
	case 0:
		return "Start Game"
	case 1:
		return "Configure 1 more agent"
	}
	return fmt.Sprintf("Configure %d more agents", n)
}

// updateSetup routes keys while the setup form has focus. Letters go to the
// focused input, so the single-key shortcuts are not available here.
func (m uiModel) updateSetup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		m.shutdown()
		return m, tea.Quit
	case "esc":
		return m.switchView(viewGames)
	case "tab", "down":
		return m, m.setup.focusField(m.setup.focus + 1)
	case "shift+tab", "up":
		return m, m.setup.focusField(m.setup.focus - 1)
	case "enter":
		if m.setup.focus < len(m.setup.fields)-1 && m.setup.missing() > 0 {
			return m, m.setup.focusField(m.setup.focus + 1)
		}
		return m, m.submitSetup()
	}
	var cmd tea.Cmd
	m.setup, cmd = m.setup.update(msg)
	return m, cmd
}

func (m *uiModel) submitSetup() tea.Cmd {
	if m.setup.submitting {
		return nil
	}
	r, err := m.setup.roster()
	if err != nil {
		m.setup.err = err.Error()
		return nil
	}
	m.setup.err = ""
	cfg := r.GameConfig()
	cmd := m.runAction("create", "", func(ctx context.Context, svc service, _ string) (gameapi.GameResponse, error) {
		return svc.CreateGame(ctx, cfg)
	})
	if cmd != nil {
		m.setup.submitting = true
	}
	return cmd
}
