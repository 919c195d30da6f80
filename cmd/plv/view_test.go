package main

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/daviddao/purelands_viewer/internal/config"
	"github.com/daviddao/purelands_viewer/internal/gameapi"
	"github.com/daviddao/purelands_viewer/internal/interaction"
	"github.com/daviddao/purelands_viewer/internal/snapshot"
)

// fakeService is an in-memory game service.
type fakeService struct {
	mu       sync.Mutex
	games    []gameapi.Game
	state    gameapi.GameState
	agents   map[string]gameapi.AgentState
	messages []gameapi.Message
	thoughts []gameapi.Thought
	err      error
	created  []gameapi.GameConfig
	progress int
}

func (f *fakeService) ListGames(ctx context.Context) ([]gameapi.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.games, f.err
}

func (f *fakeService) GameState(ctx context.Context, gameID string) (gameapi.GameState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state, f.err
}

func (f *fakeService) Agents(ctx context.Context, gameID string) (map[string]gameapi.AgentState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.agents, f.err
}

func (f *fakeService) AgentInteractions(ctx context.Context, gameID, a, b string) (gameapi.Interactions, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return gameapi.Interactions{Messages: f.messages}, f.err
}

func (f *fakeService) ThoughtProcesses(ctx context.Context, gameID string) ([]gameapi.Thought, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.thoughts, f.err
}

func (f *fakeService) CreateGame(ctx context.Context, cfg gameapi.GameConfig) (gameapi.GameResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, cfg)
	return gameapi.GameResponse{Message: "Game created", GameID: "g2"}, f.err
}

func (f *fakeService) ProgressRound(ctx context.Context, gameID string) (gameapi.GameResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress++
	return gameapi.GameResponse{Message: "Round progressed", GameID: gameID}, f.err
}

func (f *fakeService) ResetGame(ctx context.Context, gameID string) (gameapi.GameResponse, error) {
	return gameapi.GameResponse{Message: "Game reset", GameID: gameID}, f.err
}

func intPtr(i int) *int { return &i }

func ts(minute int) gameapi.Timestamp {
	return gameapi.At(time.Date(2025, 1, 1, 12, minute, 0, 0, time.UTC))
}

func testService() *fakeService {
	return &fakeService{
		games: []gameapi.Game{
			{ID: "g1", TicketPrice: 100, CurrentRound: intPtr(1), Agents: []gameapi.GameAgent{
				{Name: "Alice", Personality: "Bold trader"}, {Name: "Bob"}, {Name: "Carol"},
			}},
			{ID: "g9", TicketPrice: 250, Agents: []gameapi.GameAgent{{Name: "Zed"}}},
		},
		state: gameapi.GameState{CurrentRound: 1, Era: 2, Status: "in_progress"},
		agents: map[string]gameapi.AgentState{
			"Alice": {Tokens: 1500, Choice: "circle", Allies: []string{"Bob"}},
			"Bob":   {Tokens: 900},
			"Carol": {Tokens: 1200},
		},
		messages: []gameapi.Message{
			{From: "Bob", To: "Alice", Content: "deal?", Timestamp: ts(5), Round: 2, Era: 2},
			{From: "Alice", To: "Bob", Content: "hello bob", Timestamp: ts(1), Round: 1, Era: 2},
		},
		thoughts: []gameapi.Thought{
			{Agent: "Alice", Content: "Bob seems keen", Timestamp: ts(2), Round: 1, Era: 2},
			{Agent: "Carol", Content: "secret plan", Timestamp: ts(3), Round: 1, Era: 2},
		},
	}
}

// testModel creates a uiModel bound to svc with game g1 loaded. Poll
// intervals are long enough that no tick fires during a test.
func testModel(t *testing.T, svc *fakeService) uiModel {
	t.Helper()
	cfg := config.Default()
	cfg.Poll.Interval = time.Hour
	cfg.UI.Markdown = false
	snap, err := snapshot.Build(context.Background(), svc, "g1")
	if err != nil {
		t.Fatalf("snapshot.Build: %v", err)
	}
	m := newModel(context.Background(), svc, cfg, "", snap, "g1", nil)
	t.Cleanup(m.shutdown)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(uiModel)
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m uiModel, keys ...string) (uiModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(keyMsg(k))
		m = next.(uiModel)
	}
	return m, cmd
}

// fetchFor runs one interaction refresh for the aggregator's current selection.
func fetchFor(t *testing.T, m uiModel) interaction.Result {
	t.Helper()
	req, err := m.agg.Begin(m.currentAnchor())
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	return interaction.Fetch(context.Background(), m.svc, req)
}

func TestParseViewFlag(t *testing.T) {
	tests := []struct {
		input string
		want  viewID
		err   bool
	}{
		{"games", viewGames, false},
		{"Games", viewGames, false},
		{"g", viewGames, false},
		{"game", viewGame, false},
		{"controller", viewGame, false},
		{"balances", viewBalances, false},
		{"b", viewBalances, false},
		{"chat", viewComms, false},
		{"communications", viewComms, false},
		{"setup", viewSetup, false},
		{"n", viewSetup, false},
		{"bogus", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseViewFlag(tt.input)
			if tt.err {
				if err == nil {
					t.Errorf("parseViewFlag(%q) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Errorf("parseViewFlag(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("parseViewFlag(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestViewIDString(t *testing.T) {
	tests := []struct {
		v    viewID
		want string
	}{
		{viewGames, "Games"},
		{viewGame, "Game"},
		{viewBalances, "Balances"},
		{viewComms, "Communications"},
		{viewSetup, "New Game"},
		{viewID(99), "?"},
	}

	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("viewID(%d).String() = %q, want %q", int(tt.v), got, tt.want)
		}
	}
}

func TestViewLoading(t *testing.T) {
	m := testModel(t, testService())
	m.width = 0
	if got := m.View(); got != "Loading..." {
		t.Errorf("View() = %q, want Loading...", got)
	}
}

func TestRenderGamesListsGames(t *testing.T) {
	m := testModel(t, testService())
	out := m.renderGames()
	for _, want := range []string{"g1", "g9", "Introductions", "Round finished", "250"} {
		if !strings.Contains(out, want) {
			t.Errorf("renderGames missing %q:\n%s", want, out)
		}
	}
}

func TestRenderGamesEmpty(t *testing.T) {
	svc := testService()
	svc.games = nil
	m := testModel(t, svc)
	if out := m.renderGames(); !strings.Contains(out, "no games yet") {
		t.Errorf("expected empty state, got:\n%s", out)
	}
}

func TestRenderGameShowsPhases(t *testing.T) {
	m := testModel(t, testService())
	out := m.renderGame()
	for _, want := range []string{"Game g1", "era 2", "Round 1 of 3", "Entry & Setup", "Final Decision", "p: Begin Introductions"} {
		if !strings.Contains(out, want) {
			t.Errorf("renderGame missing %q:\n%s", want, out)
		}
	}
}

func TestRenderGameNotStarted(t *testing.T) {
	svc := testService()
	svc.state = gameapi.GameState{Status: gameapi.StatusNotStarted}
	m := testModel(t, svc)
	out := m.renderGame()
	if !strings.Contains(out, "Ready to begin game") || !strings.Contains(out, "Start Entry & Setup") {
		t.Errorf("renderGame not-started state wrong:\n%s", out)
	}
}

func TestRenderGameDrawAndRewards(t *testing.T) {
	svc := testService()
	svc.state = gameapi.GameState{
		CurrentRound: 4,
		Status:       "completed",
		Results: &gameapi.Results{
			WinningShapes:      []string{"circle"},
			ChoiceDistribution: map[string][]string{"circle": {"Alice"}},
		},
		Rewards: &gameapi.Rewards{
			TotalEscrow: 4000,
			Winners:     map[string]gameapi.Reward{"Alice": {Reward: 2500, InitialTokens: 1000, FinalTokens: 3500}},
		},
	}
	m := testModel(t, svc)
	out := m.renderGame()
	for _, want := range []string{"Game completed", "Draw", "circle", "2,500", "4,000", "R: New round"} {
		if !strings.Contains(out, want) {
			t.Errorf("renderGame missing %q:\n%s", want, out)
		}
	}
}

func TestRenderBalances(t *testing.T) {
	m := testModel(t, testService())
	out := m.renderBalances()
	for _, want := range []string{"Alice", "1,500", "circle", "Bob", "top", "Bold trader"} {
		if !strings.Contains(out, want) {
			t.Errorf("renderBalances missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "top") != 1 {
		t.Errorf("expected exactly one top performer:\n%s", out)
	}
}

func TestRenderCommsEmptyStates(t *testing.T) {
	m := testModel(t, testService())
	m, _ = press(m, "m")
	if !strings.Contains(m.chat.View(), "Select agents to view their conversation history") {
		t.Errorf("chat empty state missing:\n%s", m.chat.View())
	}
	if !strings.Contains(m.thoughts.View(), "No thoughts recorded") {
		t.Errorf("thought empty state missing:\n%s", m.thoughts.View())
	}
}

func TestInteractionsCommitRendersGroupedView(t *testing.T) {
	m := testModel(t, testService())
	m.agg.ChangeSelection("Alice", "Bob")
	next, _ := m.Update(interactionsLoadedMsg{res: fetchFor(t, m)})
	m = next.(uiModel)

	chat := m.chat.View()
	for _, want := range []string{"Era 2", "Round 1", "Round 2", "hello bob", "deal?"} {
		if !strings.Contains(chat, want) {
			t.Errorf("chat missing %q:\n%s", want, chat)
		}
	}
	if strings.Index(chat, "hello bob") > strings.Index(chat, "deal?") {
		t.Errorf("round 1 should precede round 2:\n%s", chat)
	}
	thoughts := m.thoughts.View()
	if !strings.Contains(thoughts, "Bob seems keen") {
		t.Errorf("thoughts missing Alice's entry:\n%s", thoughts)
	}
	if strings.Contains(thoughts, "secret plan") {
		t.Errorf("thoughts should not include agents outside the pair:\n%s", thoughts)
	}
}

func TestSelectionChangeClearsPanels(t *testing.T) {
	m := testModel(t, testService())
	m.agg.ChangeSelection("Alice", "Bob")
	next, _ := m.Update(interactionsLoadedMsg{res: fetchFor(t, m)})
	m = next.(uiModel)

	m.changeSelection("Alice", "Carol")
	if strings.Contains(m.chat.View(), "hello bob") {
		t.Errorf("old conversation still shown after selection change:\n%s", m.chat.View())
	}
	if !m.agg.View().Empty() {
		t.Error("aggregator view should be empty after selection change")
	}
}

func TestStaleInteractionsIgnored(t *testing.T) {
	m := testModel(t, testService())
	m.agg.ChangeSelection("Alice", "Bob")
	stale := fetchFor(t, m)

	m.changeSelection("Alice", "Carol")
	next, _ := m.Update(interactionsLoadedMsg{res: stale})
	m = next.(uiModel)

	if strings.Contains(m.chat.View(), "hello bob") {
		t.Errorf("stale result was installed:\n%s", m.chat.View())
	}
	if m.err != nil {
		t.Errorf("stale result should not surface an error, got %v", m.err)
	}
}

func TestInteractionErrorKeepsView(t *testing.T) {
	svc := testService()
	m := testModel(t, svc)
	m.agg.ChangeSelection("Alice", "Bob")
	next, _ := m.Update(interactionsLoadedMsg{res: fetchFor(t, m)})
	m = next.(uiModel)

	svc.mu.Lock()
	svc.err = errors.New("service down")
	svc.mu.Unlock()
	next, _ = m.Update(interactionsLoadedMsg{res: fetchFor(t, m)})
	m = next.(uiModel)

	if m.err == nil || !strings.Contains(m.err.Error(), "service down") {
		t.Errorf("expected error in status, got %v", m.err)
	}
	if !strings.Contains(m.chat.View(), "hello bob") {
		t.Errorf("previous conversation should stay visible:\n%s", m.chat.View())
	}
	if !strings.Contains(m.renderStatusBar(), "service down") {
		t.Errorf("status bar should show the error:\n%s", m.renderStatusBar())
	}
}

func TestSnapshotErrorKeepsData(t *testing.T) {
	m := testModel(t, testService())
	before := m.snap
	next, _ := m.Update(snapshotReadyMsg{gameID: "g1", err: errors.New("timeout")})
	m = next.(uiModel)
	if m.snap != before {
		t.Error("snapshot should be kept on error")
	}
	if m.err == nil {
		t.Error("expected error to be recorded")
	}

	next, _ = m.Update(snapshotReadyMsg{gameID: "g1", snap: before})
	m = next.(uiModel)
	if m.err != nil {
		t.Errorf("successful refresh should clear the snapshot error, got %v", m.err)
	}
}

func TestSnapshotForOtherGameIgnored(t *testing.T) {
	m := testModel(t, testService())
	before := m.snap
	next, _ := m.Update(snapshotReadyMsg{gameID: "other", snap: &snapshot.DataSnapshot{GameID: "other"}})
	m = next.(uiModel)
	if m.snap != before {
		t.Error("snapshot for another game should be ignored")
	}
}

func TestSelectedGameClampedOnSnapshotRefresh(t *testing.T) {
	m := testModel(t, testService())
	m.selectedGame = 1
	next, _ := m.Update(snapshotReadyMsg{gameID: "g1", snap: &snapshot.DataSnapshot{GameID: "g1", Games: m.snap.Games[:1]}})
	m = next.(uiModel)
	if m.selectedGame != 0 {
		t.Errorf("selectedGame = %d, want 0", m.selectedGame)
	}
}

func TestStaleChatTickDropped(t *testing.T) {
	m := testModel(t, testService())
	_, cmd := m.Update(chatTickMsg{gen: m.chatGen + 1})
	if cmd != nil {
		t.Error("tick of another generation should be dropped")
	}
}

func TestUpdateTabCyclesViews(t *testing.T) {
	m := testModel(t, testService())
	want := []viewID{viewGame, viewBalances, viewComms, viewSetup}
	for _, v := range want {
		next, _ := m.Update(keyMsg("tab"))
		m = next.(uiModel)
		if m.activeView != v {
			t.Fatalf("activeView = %v, want %v", m.activeView, v)
		}
	}
}

func TestUpdateViewShortcuts(t *testing.T) {
	tests := []struct {
		key  string
		want viewID
	}{
		{"c", viewGame},
		{"b", viewBalances},
		{"m", viewComms},
		{"n", viewSetup},
	}
	for _, tt := range tests {
		m := testModel(t, testService())
		m, _ = press(m, tt.key)
		if m.activeView != tt.want {
			t.Errorf("key %q: activeView = %v, want %v", tt.key, m.activeView, tt.want)
		}
	}
}

func TestSetupCapturesLetters(t *testing.T) {
	m := testModel(t, testService())
	m, _ = press(m, "n", "down", "g")
	if m.activeView != viewSetup {
		t.Fatalf("letters should go to the form, activeView = %v", m.activeView)
	}
	if got := m.setup.fields[1].Value(); got != "g" {
		t.Errorf("field value = %q, want %q", got, "g")
	}
	m, _ = press(m, "esc")
	if m.activeView != viewGames {
		t.Errorf("esc should leave setup, activeView = %v", m.activeView)
	}
}

func TestUpdateHelpToggle(t *testing.T) {
	m := testModel(t, testService())
	m, _ = press(m, "?")
	if !m.showHelp {
		t.Fatal("? should show help")
	}
	m, _ = press(m, "?")
	if m.showHelp {
		t.Error("? should hide help")
	}
}

func TestUpdateUpDownGames(t *testing.T) {
	m := testModel(t, testService())
	m, _ = press(m, "j", "j", "j")
	if m.selectedGame != 1 {
		t.Errorf("selectedGame = %d, want 1 (clamped)", m.selectedGame)
	}
	m, _ = press(m, "k", "k")
	if m.selectedGame != 0 {
		t.Errorf("selectedGame = %d, want 0", m.selectedGame)
	}
}

func TestEnterSelectsGame(t *testing.T) {
	m := testModel(t, testService())
	m.agg.ChangeSelection("Alice", "Bob")
	m, cmd := press(m, "j", "enter")
	if m.gameID != "g9" || m.activeView != viewGame {
		t.Errorf("gameID = %q view = %v, want g9 in Game view", m.gameID, m.activeView)
	}
	if m.agg.GameID() != "g9" || m.agg.Selection().Complete() {
		t.Error("switching games should reset the agent selection")
	}
	if cmd == nil {
		t.Error("expected a snapshot refresh command")
	}
}

func TestCycleAgents(t *testing.T) {
	m := testModel(t, testService())
	m, _ = press(m, "m", "a")
	if got := m.agg.Selection().Primary; got != "Alice" {
		t.Fatalf("primary = %q, want Alice", got)
	}
	m, _ = press(m, "x")
	if got := m.agg.Selection().Counterpart; got != "Bob" {
		t.Fatalf("counterpart = %q, want Bob", got)
	}
	if !m.tasks.Running(taskChat) {
		t.Error("a complete pair should start the interaction poll")
	}
	m, _ = press(m, "a")
	sel := m.agg.Selection()
	if sel.Primary != "Bob" || sel.Counterpart != "" {
		t.Errorf("selection = %+v, want primary Bob and no counterpart", sel)
	}
	if m.tasks.Running(taskChat) {
		t.Error("an incomplete pair should stop the interaction poll")
	}
}

func TestCycle(t *testing.T) {
	names := []string{"A", "B", "C"}
	tests := []struct {
		current, skip, want string
	}{
		{"", "", "A"},
		{"A", "", "B"},
		{"C", "", "A"},
		{"A", "B", "C"},
		{"", "A", "B"},
	}
	for _, tt := range tests {
		if got := cycle(names, tt.current, tt.skip); got != tt.want {
			t.Errorf("cycle(%q, skip %q) = %q, want %q", tt.current, tt.skip, got, tt.want)
		}
	}
	if got := cycle([]string{"A"}, "", "A"); got != "" {
		t.Errorf("cycle with only skipped name = %q, want empty", got)
	}
}

func TestProgressRound(t *testing.T) {
	svc := testService()
	m := testModel(t, svc)
	m, cmd := press(m, "p")
	if cmd == nil || !m.busy {
		t.Fatal("p should start a progress action")
	}
	msg := cmd()
	done, ok := msg.(actionDoneMsg)
	if !ok || done.op != "progress" {
		t.Fatalf("cmd() = %#v, want progress actionDoneMsg", msg)
	}
	next, _ := m.Update(done)
	m = next.(uiModel)
	if m.busy || m.status != "Round progressed" || svc.progress != 1 {
		t.Errorf("busy=%v status=%q progress=%d", m.busy, m.status, svc.progress)
	}
}

func TestProgressRoundBlockedWhileProcessing(t *testing.T) {
	svc := testService()
	svc.state.IsProcessing = true
	m := testModel(t, svc)
	if _, cmd := press(m, "p"); cmd != nil {
		t.Error("progress should be blocked while the service is processing")
	}
}

func TestResetRequiresCompleteGame(t *testing.T) {
	m := testModel(t, testService())
	m, cmd := press(m, "R")
	if cmd != nil {
		t.Error("reset should be blocked before the game completes")
	}
	if !strings.Contains(m.status, "complete") {
		t.Errorf("status = %q", m.status)
	}
}

func TestSetupSubmit(t *testing.T) {
	svc := testService()
	m := testModel(t, svc)
	m, _ = press(m, "n")
	if got := m.setup.buttonLabel(); got != "Configure 4 more agents" {
		t.Errorf("buttonLabel = %q", got)
	}
	for i := 1; i < len(m.setup.fields); i++ {
		m.setup.fields[i].SetValue("personality " + string(rune('A'+i)))
	}
	if got := m.setup.buttonLabel(); got != "Start Game" {
		t.Errorf("buttonLabel = %q, want Start Game", got)
	}

	cmd := m.submitSetup()
	if cmd == nil {
		t.Fatalf("submit failed: %s", m.setup.err)
	}
	next, _ := m.Update(cmd())
	m = next.(uiModel)
	if len(svc.created) != 1 || len(svc.created[0].Agents) != 4 || svc.created[0].TicketPrice != 100 {
		t.Fatalf("created = %+v", svc.created)
	}
	if m.gameID != "g2" || m.activeView != viewGame {
		t.Errorf("gameID = %q view = %v, want g2 in Game view", m.gameID, m.activeView)
	}
}

func TestSetupRejectsIncomplete(t *testing.T) {
	m := testModel(t, testService())
	m.setup.fields[1].SetValue("only one")
	if cmd := m.submitSetup(); cmd != nil {
		t.Error("submit should fail with missing personalities")
	}
	if m.setup.err == "" {
		t.Error("expected a form error")
	}
}

func TestRenderTitleBar(t *testing.T) {
	m := testModel(t, testService())
	out := m.renderTitleBar()
	for _, want := range []string{"purelands viewer", "2 games", "game g1", "Introductions"} {
		if !strings.Contains(out, want) {
			t.Errorf("title bar missing %q: %s", want, out)
		}
	}
}

func TestRenderTabBar(t *testing.T) {
	m := testModel(t, testService())
	out := m.renderTabBar()
	for v := viewID(0); v < viewCount; v++ {
		if !strings.Contains(out, v.String()) {
			t.Errorf("tab bar missing %q", v.String())
		}
	}
}

func TestViewFullRenderEachView(t *testing.T) {
	for v := viewID(0); v < viewCount; v++ {
		m := testModel(t, testService())
		m.activeView = v
		out := m.View()
		if !strings.Contains(out, "purelands viewer") {
			t.Errorf("%v: missing title bar", v)
		}
		for i, line := range strings.Split(out, "\n") {
			if w := lipgloss.Width(line); w > m.width {
				t.Errorf("%v: line %d is %d wide, terminal is %d", v, i, w, m.width)
			}
		}
	}
}

func TestSplitPaneGamesView(t *testing.T) {
	m := testModel(t, testService())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
	m = next.(uiModel)
	out := m.View()
	if !strings.Contains(out, "│") || !strings.Contains(out, "Phases") {
		t.Errorf("wide games view should show game detail alongside:\n%s", out)
	}
}

func TestContextHelp(t *testing.T) {
	for v := viewID(0); v < viewCount; v++ {
		if contextHelp(v) == "" {
			t.Errorf("contextHelp(%v) is empty", v)
		}
	}
	if !strings.Contains(contextHelp(viewComms), "a/x") {
		t.Error("comms help should mention agent selection")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		s    string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello world", 5, "hello..."},
		{"", 3, ""},
	}
	for _, tt := range tests {
		if got := truncate(tt.s, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.s, tt.n, got, tt.want)
		}
	}
}

func TestShortDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{5 * time.Second, "5s"},
		{90 * time.Second, "1m30s"},
		{65 * time.Minute, "1h5m"},
		{-1 * time.Second, "0s"},
	}

	for _, tt := range tests {
		if got := shortDuration(tt.d); got != tt.want {
			t.Errorf("shortDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		s     string
		width int
		want  []string
	}{
		{"short", 10, []string{"short"}},
		{"hello big world", 9, []string{"hello big", "world"}},
		{"abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"one\ntwo", 10, []string{"one", "two"}},
	}
	for _, tt := range tests {
		got := wrapText(tt.s, tt.width)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("wrapText(%q, %d) = %q, want %q", tt.s, tt.width, got, tt.want)
		}
	}
}

func TestTruncateLines(t *testing.T) {
	got := truncateLines("abcdef\nxy", 3)
	if got != "abc\nxy" {
		t.Errorf("truncateLines = %q", got)
	}
	if got := truncateLines("abc", 0); got != "abc" {
		t.Errorf("width 0 should be a no-op, got %q", got)
	}
}

func TestUnionInts(t *testing.T) {
	got := unionInts([]int{1, 3, 5}, []int{2, 3, 6})
	want := []int{1, 2, 3, 5, 6}
	if len(got) != len(want) {
		t.Fatalf("unionInts = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unionInts = %v, want %v", got, want)
		}
	}
}

func TestMarkdownCacheRender(t *testing.T) {
	c := &markdownCache{}
	out := c.render("**bold** move", 40)
	if !strings.Contains(out, "bold") || strings.Contains(out, "**") {
		t.Errorf("render = %q", out)
	}
	first := c.renderer
	c.render("again", 40)
	if c.renderer != first {
		t.Error("renderer should be reused for the same width")
	}
	c.render("again", 60)
	if c.renderer == first {
		t.Error("renderer should be rebuilt for a new width")
	}
}
