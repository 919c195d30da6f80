package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/daviddao/purelands_viewer/internal/config"
	"github.com/daviddao/purelands_viewer/internal/datasource"
	"github.com/daviddao/purelands_viewer/internal/gameapi"
	"github.com/daviddao/purelands_viewer/internal/interaction"
	"github.com/daviddao/purelands_viewer/internal/poll"
	"github.com/daviddao/purelands_viewer/internal/snapshot"
)

// service is the game service as the viewer uses it.
type service interface {
	snapshot.Source
	interaction.Source
	CreateGame(ctx context.Context, cfg gameapi.GameConfig) (gameapi.GameResponse, error)
	ProgressRound(ctx context.Context, gameID string) (gameapi.GameResponse, error)
	ResetGame(ctx context.Context, gameID string) (gameapi.GameResponse, error)
}

// Poll task names.
const (
	taskSnapshot = "snapshot"
	taskChat     = "chat"
)

// Loading indicator timing: shown once a fetch has run this long, then kept
// on screen at least loadingMinShown to avoid flicker.
const (
	loadingDelay    = 200 * time.Millisecond
	loadingMinShown = 500 * time.Millisecond
)

// --- Messages ---

type snapshotReadyMsg struct {
	gameID string
	snap   *snapshot.DataSnapshot
	err    error
}

// chatTickMsg asks for an interaction refresh. gen ties it to the selection
// that started the poll; ticks of an older selection are dropped.
type chatTickMsg struct{ gen int }

type interactionsLoadedMsg struct {
	res interaction.Result
}

type actionDoneMsg struct {
	op     string
	gameID string
	resp   gameapi.GameResponse
	err    error
}

type configChangedMsg struct{}

type tickMsg struct{}

// bridge delivers messages from background goroutines into the program.
// Sends never block the caller: a poll task being stopped from Update must
// not wait on the event loop that is stopping it.
type bridge struct {
	mu   sync.Mutex
	send func(tea.Msg)
}

func (b *bridge) attach(p *tea.Program) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.send = func(msg tea.Msg) { go p.Send(msg) }
}

// Send forwards msg, or drops it when no program is attached.
func (b *bridge) Send(msg tea.Msg) {
	if b == nil {
		return
	}
	b.mu.Lock()
	send := b.send
	b.mu.Unlock()
	if send != nil {
		send(msg)
	}
}

// --- Model ---

type uiModel struct {
	svc     service
	cfg     *config.Config
	cfgPath string
	watcher *datasource.Watcher
	log     *zap.Logger
	tasks   *poll.Group
	bridge  *bridge
	ctx     context.Context
	cancel  context.CancelFunc

	snap   *snapshot.DataSnapshot
	gameID string
	agg    *interaction.Aggregator

	activeView   viewID
	width        int
	height       int
	scrollPos    int
	selectedGame int

	focus        panelID
	chat         viewport.Model
	thoughts     viewport.Model
	chatGen      int
	chatSeq      uint64
	chatInFlight bool
	chatStarted  time.Time
	loadingShown time.Time
	spinner      spinner.Model
	md           *markdownCache

	setup setupForm
	busy  bool // create, progress or reset in flight

	help     help.Model
	showHelp bool

	status      string
	err         error
	errSource   string
	lastRefresh time.Time
}

// markdownCache keeps one glamour renderer per wrap width.
type markdownCache struct {
	width    int
	renderer *glamour.TermRenderer
}

func (c *markdownCache) render(s string, width int) string {
	if c.renderer == nil || c.width != width {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return s
		}
		c.renderer, c.width = r, width
	}
	out, err := c.renderer.Render(s)
	if err != nil {
		return s
	}
	return out
}

func newModel(ctx context.Context, svc service, cfg *config.Config, cfgPath string, snap *snapshot.DataSnapshot, gameID string, log *zap.Logger) uiModel {
	if log == nil {
		log = zap.NewNop()
	}
	if snap == nil {
		snap = &snapshot.DataSnapshot{GameID: gameID}
	}
	ctx, cancel := context.WithCancel(ctx)
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = spinnerStyle
	return uiModel{
		svc:         svc,
		cfg:         cfg,
		cfgPath:     cfgPath,
		log:         log,
		tasks:       &poll.Group{},
		bridge:      &bridge{},
		ctx:         ctx,
		cancel:      cancel,
		snap:        snap,
		gameID:      gameID,
		agg:         interaction.New(svc, gameID),
		chat:        viewport.New(0, 0),
		thoughts:    viewport.New(0, 0),
		spinner:     sp,
		md:          &markdownCache{},
		setup:       newSetupForm(),
		help:        help.New(),
		lastRefresh: time.Now(),
	}
}

func (m uiModel) Init() tea.Cmd {
	m.restartSnapshotPoll()
	cmds := []tea.Cmd{tickEvery(), m.refreshSnapshot()}
	// A pair chosen on the command line is fetched right away.
	if m.tasks.Running(taskChat) {
		gen := m.chatGen
		cmds = append(cmds, func() tea.Msg { return chatTickMsg{gen: gen} })
	}
	return tea.Batch(cmds...)
}

func tickEvery() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg{}
	})
}

func (m uiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.activeView == viewSetup {
			return m.updateSetup(msg)
		}

		// Check single-key view shortcuts first (always available).
		if v, ok := viewKeys[msg.String()]; ok {
			return m.switchView(v)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			m.shutdown()
			return m, tea.Quit

		case key.Matches(msg, keys.Tab):
			return m.switchView((m.activeView + 1) % viewCount)

		case key.Matches(msg, keys.Esc):
			if m.activeView != viewGames {
				return m.switchView(viewGames)
			}

		case key.Matches(msg, keys.Refresh):
			cmds := []tea.Cmd{m.refreshSnapshot()}
			if m.activeView == viewComms {
				cmds = append(cmds, m.fetchInteractions())
			}
			return m, tea.Batch(cmds...)

		case key.Matches(msg, keys.Enter):
			if m.activeView == viewGames && m.selectedGame < len(m.snap.Games) {
				cmd := m.selectGame(m.snap.Games[m.selectedGame].ID)
				m.activeView = viewGame
				m.scrollPos = 0
				return m, cmd
			}

		case key.Matches(msg, keys.Up):
			m.scroll(-1)

		case key.Matches(msg, keys.Down):
			m.scroll(1)

		case key.Matches(msg, keys.Left):
			if m.activeView == viewComms {
				m.focus = panelChat
			}

		case key.Matches(msg, keys.Right):
			if m.activeView == viewComms {
				m.focus = panelThoughts
			}

		case key.Matches(msg, keys.Primary):
			if m.activeView == viewComms {
				return m, m.cyclePrimary()
			}

		case key.Matches(msg, keys.Counterpart):
			if m.activeView == viewComms {
				return m, m.cycleCounterpart()
			}

		case key.Matches(msg, keys.Progress):
			return m, m.progressRound()

		case key.Matches(msg, keys.Reset):
			return m, m.resetGame()

		case key.Matches(msg, keys.Help):
			m.showHelp = !m.showHelp
			m.layoutPanels()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.setup.setWidth(msg.Width)
		m.syncPanels(m.currentAnchor())

	case snapshotReadyMsg:
		if msg.gameID != m.gameID {
			return m, nil
		}
		if msg.err != nil {
			m.log.Warn("snapshot refresh failed", zap.String("game", msg.gameID), zap.Error(msg.err))
			m.setErr("snapshot", msg.err)
			return m, nil
		}
		if msg.snap != nil {
			m.snap = msg.snap
			m.lastRefresh = time.Now()
			m.clearErr("snapshot")
			// Clamp selectedGame after the game list shrinks.
			if len(m.snap.Games) == 0 {
				m.selectedGame = 0
			} else if m.selectedGame >= len(m.snap.Games) {
				m.selectedGame = len(m.snap.Games) - 1
			}
		}

	case chatTickMsg:
		if msg.gen != m.chatGen {
			return m, nil
		}
		return m, m.fetchInteractions()

	case interactionsLoadedMsg:
		return m, m.commitInteractions(msg.res)

	case spinner.TickMsg:
		if !m.chatInFlight && !m.loadingVisible() {
			m.loadingShown = time.Time{}
			return m, nil
		}
		if m.chatInFlight && m.loadingShown.IsZero() && time.Since(m.chatStarted) >= loadingDelay {
			m.loadingShown = time.Now()
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case actionDoneMsg:
		return m, m.actionDone(msg)

	case configChangedMsg:
		return m, m.reloadConfig()

	case tickMsg:
		return m, tickEvery()
	}

	if m.activeView == viewSetup {
		var cmd tea.Cmd
		m.setup, cmd = m.setup.update(msg)
		return m, cmd
	}
	return m, nil
}

func (m uiModel) switchView(v viewID) (tea.Model, tea.Cmd) {
	m.activeView = v
	m.scrollPos = 0
	if v == viewSetup {
		return m, m.setup.focusField(m.setup.focus)
	}
	m.setup.blur()
	if v == viewComms {
		m.syncPanels(m.currentAnchor())
	}
	return m, nil
}

func (m *uiModel) scroll(delta int) {
	switch m.activeView {
	case viewGames:
		m.selectedGame += delta
		if m.selectedGame >= len(m.snap.Games) {
			m.selectedGame = len(m.snap.Games) - 1
		}
		if m.selectedGame < 0 {
			m.selectedGame = 0
		}
	case viewComms:
		vp := &m.chat
		if m.focus == panelThoughts {
			vp = &m.thoughts
		}
		if delta < 0 {
			vp.LineUp(-delta)
		} else {
			vp.LineDown(delta)
		}
	default:
		// View() clamps if we overshoot.
		m.scrollPos += delta
		if m.scrollPos < 0 {
			m.scrollPos = 0
		}
		if limit := m.maxScroll(); m.scrollPos > limit {
			m.scrollPos = limit
		}
	}
}

func (m uiModel) maxScroll() int {
	n := 20 + 8*len(m.snap.Agents)
	if m.snap.State != nil && m.snap.State.Results != nil {
		n += 4 * (len(m.snap.State.Results.ChoiceDistribution) + len(m.snap.Agents))
	}
	return n
}

func (m *uiModel) shutdown() {
	if m.cancel != nil {
		m.cancel()
	}
	m.tasks.StopAll()
	if m.watcher != nil {
		m.watcher.Close()
	}
}

func (m *uiModel) setErr(source string, err error) {
	m.err = err
	m.errSource = source
}

func (m *uiModel) clearErr(source string) {
	if m.errSource == source {
		m.err = nil
		m.errSource = ""
	}
}

// --- Snapshot refresh ---

func (m uiModel) refreshSnapshot() tea.Cmd {
	if m.svc == nil {
		return nil
	}
	svc, gameID, ctx := m.svc, m.gameID, m.ctx
	return func() tea.Msg {
		snap, err := snapshot.Build(ctx, svc, gameID)
		return snapshotReadyMsg{gameID: gameID, snap: snap, err: err}
	}
}

// restartSnapshotPoll replaces the snapshot poll with one bound to the
// current game and interval.
func (m uiModel) restartSnapshotPoll() {
	if m.svc == nil || m.cfg == nil {
		return
	}
	svc, gameID, b := m.svc, m.gameID, m.bridge
	m.tasks.Replace(taskSnapshot, poll.Start(m.ctx, m.cfg.Poll.Interval, func(ctx context.Context) {
		snap, err := snapshot.Build(ctx, svc, gameID)
		if ctx.Err() != nil {
			return
		}
		b.Send(snapshotReadyMsg{gameID: gameID, snap: snap, err: err})
	}))
}

func (m *uiModel) selectGame(id string) tea.Cmd {
	if id == m.gameID {
		return m.refreshSnapshot()
	}
	m.gameID = id
	m.agg.SetGame(id)
	m.snap = &snapshot.DataSnapshot{Games: m.snap.Games, GameID: id, BuiltAt: m.snap.BuiltAt}
	m.clearErr("snapshot")
	m.clearErr("chat")
	m.syncPanels(interaction.ScrollAnchor{})
	m.restartSnapshotPoll()
	return tea.Batch(m.restartChatPoll(), m.refreshSnapshot())
}

// --- Interaction stream ---

func (m uiModel) currentAnchor() interaction.ScrollAnchor {
	return interaction.ScrollAnchor{Chat: m.chat.YOffset, Thoughts: m.thoughts.YOffset}
}

func (m *uiModel) changeSelection(primary, counterpart string) tea.Cmd {
	m.agg.ChangeSelection(primary, counterpart)
	m.clearErr("chat")
	m.syncPanels(interaction.ScrollAnchor{})
	return m.restartChatPoll()
}

// restartChatPoll stops the interaction poll of the previous selection and,
// when a full pair is selected, fetches immediately and polls from then on.
func (m *uiModel) restartChatPoll() tea.Cmd {
	if !m.startChatPoll() {
		return nil
	}
	return m.fetchInteractions()
}

// startChatPoll replaces the interaction poll without fetching. It reports
// whether a poll is running.
func (m *uiModel) startChatPoll() bool {
	m.chatGen++
	m.chatInFlight = false
	if !m.agg.Selection().Complete() || m.cfg == nil {
		m.tasks.Stop(taskChat)
		return false
	}
	gen, b := m.chatGen, m.bridge
	m.tasks.Replace(taskChat, poll.Start(m.ctx, m.cfg.Poll.Interval, func(context.Context) {
		b.Send(chatTickMsg{gen: gen})
	}))
	return true
}

// fetchInteractions starts one refresh unless one is already running.
func (m *uiModel) fetchInteractions() tea.Cmd {
	if m.chatInFlight {
		return nil
	}
	req, err := m.agg.Begin(m.currentAnchor())
	if err != nil {
		return nil
	}
	m.chatInFlight = true
	m.chatSeq = req.Seq
	m.chatStarted = time.Now()
	src, ctx := m.agg.Source(), m.ctx
	return tea.Batch(
		func() tea.Msg {
			return interactionsLoadedMsg{res: interaction.Fetch(ctx, src, req)}
		},
		m.spinner.Tick,
	)
}

func (m *uiModel) commitInteractions(res interaction.Result) tea.Cmd {
	if res.Request.Seq == m.chatSeq {
		m.chatInFlight = false
	}
	_, err := m.agg.Commit(res)
	switch {
	case errors.Is(err, interaction.ErrStaleResult):
		m.log.Debug("stale interactions discarded",
			zap.String("game", res.Request.GameID),
			zap.String("primary", res.Request.Selection.Primary),
			zap.String("counterpart", res.Request.Selection.Counterpart))
		return nil
	case err != nil:
		m.log.Warn("interaction refresh failed", zap.String("game", res.Request.GameID), zap.Error(err))
		m.setErr("chat", err)
		return nil
	}
	m.clearErr("chat")
	m.syncPanels(m.agg.Anchor())
	return nil
}

func (m uiModel) loadingVisible() bool {
	if m.loadingShown.IsZero() {
		return false
	}
	return m.chatInFlight || time.Since(m.loadingShown) < loadingMinShown
}

func (m *uiModel) cyclePrimary() tea.Cmd {
	names := m.snap.AgentNames()
	if len(names) == 0 {
		m.status = "no agents in this game"
		return nil
	}
	sel := m.agg.Selection()
	next := cycle(names, sel.Primary, "")
	counterpart := sel.Counterpart
	if counterpart == next {
		counterpart = ""
	}
	return m.changeSelection(next, counterpart)
}

func (m *uiModel) cycleCounterpart() tea.Cmd {
	sel := m.agg.Selection()
	if sel.Primary == "" {
		m.status = "select a primary agent first (a)"
		return nil
	}
	next := cycle(m.snap.AgentNames(), sel.Counterpart, sel.Primary)
	if next == "" {
		m.status = "no other agent to pair with"
		return nil
	}
	return m.changeSelection(sel.Primary, next)
}

// cycle returns the name after current in names, wrapping, skipping skip.
func cycle(names []string, current, skip string) string {
	var candidates []string
	for _, n := range names {
		if n != skip {
			candidates = append(candidates, n)
		}
	}
	if len(candidates) == 0 {
		return ""
	}
	for i, n := range candidates {
		if n == current {
			return candidates[(i+1)%len(candidates)]
		}
	}
	return candidates[0]
}

// --- Actions ---

func (m *uiModel) progressRound() tea.Cmd {
	if m.gameID == "" {
		m.status = "select a game first"
		return nil
	}
	if st := m.snap.State; st != nil && (st.IsProcessing || st.Complete()) {
		m.status = "round cannot be advanced now"
		return nil
	}
	return m.runAction("progress", m.gameID, func(ctx context.Context, svc service, id string) (gameapi.GameResponse, error) {
		return svc.ProgressRound(ctx, id)
	})
}

func (m *uiModel) resetGame() tea.Cmd {
	if m.gameID == "" {
		m.status = "select a game first"
		return nil
	}
	if st := m.snap.State; st == nil || !st.Complete() {
		m.status = "a new round can start once the game is complete"
		return nil
	}
	return m.runAction("reset", m.gameID, func(ctx context.Context, svc service, id string) (gameapi.GameResponse, error) {
		return svc.ResetGame(ctx, id)
	})
}

func (m *uiModel) runAction(op, gameID string, fn func(context.Context, service, string) (gameapi.GameResponse, error)) tea.Cmd {
	if m.busy {
		return nil
	}
	m.busy = true
	m.status = op + "..."
	svc, ctx := m.svc, m.ctx
	return func() tea.Msg {
		resp, err := fn(ctx, svc, gameID)
		return actionDoneMsg{op: op, gameID: gameID, resp: resp, err: err}
	}
}

func (m *uiModel) actionDone(msg actionDoneMsg) tea.Cmd {
	m.busy = false
	m.setup.submitting = false
	if msg.err != nil {
		m.log.Warn("action failed", zap.String("op", msg.op), zap.String("game", msg.gameID), zap.Error(msg.err))
		m.status = ""
		m.setErr(msg.op, msg.err)
		if msg.op == "create" {
			m.setup.err = msg.err.Error()
		}
		return nil
	}
	m.clearErr(msg.op)
	m.log.Info("action done", zap.String("op", msg.op), zap.String("game", msg.resp.GameID))
	m.status = msg.resp.Message
	if m.status == "" {
		m.status = msg.op + " ok"
	}
	if msg.op == "create" && msg.resp.GameID != "" {
		m.setup = newSetupForm()
		m.setup.setWidth(m.width)
		m.activeView = viewGame
		return m.selectGame(msg.resp.GameID)
	}
	return m.refreshSnapshot()
}

// --- Config reload ---

func (m *uiModel) reloadConfig() tea.Cmd {
	if m.cfgPath == "" {
		return nil
	}
	next, err := config.Load(m.cfgPath)
	if err == nil {
		err = next.Validate()
	}
	if err != nil {
		m.log.Warn("config reload failed", zap.String("path", m.cfgPath), zap.Error(err))
		m.setErr("config", fmt.Errorf("config reload: %w", err))
		return nil
	}
	m.clearErr("config")

	// Service and log settings need a restart; polling and display apply now.
	intervalChanged := next.Poll.Interval != m.cfg.Poll.Interval
	cfg := *m.cfg
	cfg.Poll = next.Poll
	cfg.UI = next.UI
	m.cfg = &cfg
	m.log.Info("config reloaded", zap.String("path", m.cfgPath), zap.Duration("interval", cfg.Poll.Interval))
	m.status = "config reloaded"

	m.syncPanels(m.currentAnchor())
	if !intervalChanged {
		return nil
	}
	m.restartSnapshotPoll()
	return m.restartChatPoll()
}
