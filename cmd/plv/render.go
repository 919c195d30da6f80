package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"github.com/daviddao/purelands_viewer/internal/gameapi"
	"github.com/daviddao/purelands_viewer/internal/interaction"
	"github.com/daviddao/purelands_viewer/internal/phase"
	"github.com/daviddao/purelands_viewer/internal/snapshot"
)

// --- Styles ---

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Background(lipgloss.Color("#1E1E2E")).
			Padding(0, 1)

	tabActiveStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#CDD6F4")).
			Background(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#6C7086")).
				Background(lipgloss.Color("#313244")).
				Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#89B4FA"))

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A6E3A1"))

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A6E3A1")).
			Bold(true)

	processingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F9E2AF")).
			Bold(true)

	tokenStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAB387"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F38BA8")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086"))

	msgFromStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#89B4FA")).
			Bold(true)

	msgToStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A6E3A1"))

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7C3AED"))

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#313244")).
			Padding(0, 1)

	topCardStyle = cardStyle.
			BorderForeground(lipgloss.Color("#F9E2AF"))

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#CDD6F4"))

	panelFocusStyle = panelTitleStyle.
			Foreground(lipgloss.Color("#7C3AED")).
			Underline(true)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#CDD6F4")).
			Background(lipgloss.Color("#1E1E2E"))
)

const cardWidth = 30

// --- View rendering ---

func (m uiModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(m.renderTitleBar())
	b.WriteRune('\n')

	b.WriteString(m.renderTabBar())
	b.WriteRune('\n')
	b.WriteRune('\n')

	contentHeight := m.contentHeight()

	var content string
	switch m.activeView {
	case viewComms:
		content = m.renderComms()
	case viewSetup:
		content = m.renderSetup()
	default:
		// Split-pane: game list + selected game side by side on wide terminals.
		if m.activeView == viewGames && m.splitPanels() && m.gameID != "" && m.snap.State != nil {
			leftWidth := m.width/2 - 1
			rightWidth := m.width - leftWidth - 3 // 3 for separator
			content = renderSplitPane(m.renderGames(), m.renderGame(), leftWidth, rightWidth, contentHeight)
			break
		}
		switch m.activeView {
		case viewGames:
			content = m.renderGames()
		case viewGame:
			content = m.renderGame()
		case viewBalances:
			content = m.renderBalances()
		}

		// Apply scroll using a local variable; View is a value receiver.
		lines := strings.Split(content, "\n")
		scrollPos := m.scrollPos
		if scrollPos >= len(lines) {
			scrollPos = max(0, len(lines)-1)
		}
		if scrollPos > 0 {
			lines = lines[scrollPos:]
		}
		if len(lines) > contentHeight {
			lines = lines[:contentHeight]
		}
		content = strings.Join(lines, "\n")
	}

	// Truncate each line to terminal width so content doesn't wrap
	// on resize. Uses ANSI-aware width measurement.
	content = truncateLines(content, m.width)

	b.WriteString(content)

	// Pad to fill screen.
	rendered := strings.Count(b.String(), "\n")
	for rendered < m.height-2 {
		b.WriteRune('\n')
		rendered++
	}

	if m.showHelp {
		b.WriteString(m.help.View(keys))
	} else {
		b.WriteString(m.renderStatusBar())
	}

	return b.String()
}

func (m uiModel) contentHeight() int {
	h := m.height - 5 // title + tabs + status + padding
	if m.showHelp {
		h -= 3
	}
	return max(1, h)
}

func (m uiModel) splitPanels() bool {
	split := 120
	if m.cfg != nil && m.cfg.UI.SplitWidth > 0 {
		split = m.cfg.UI.SplitWidth
	}
	return m.width >= split
}

func (m uiModel) renderTitleBar() string {
	title := titleStyle.Render("purelands viewer")
	parts := []string{fmt.Sprintf("%d games", len(m.snap.Games))}
	if m.gameID != "" {
		parts = append(parts, "game "+m.gameID)
		if st := m.snap.State; st != nil {
			parts = append(parts, m.snap.Phase, fmt.Sprintf("era %d", max(st.Era, 1)))
		}
	}
	stats := dimStyle.Render(strings.Join(parts, " | "))
	gap := strings.Repeat(" ", max(0, m.width-lipgloss.Width(title)-lipgloss.Width(stats)-2))
	return title + gap + stats
}

func (m uiModel) renderTabBar() string {
	var tabs []string
	for i := viewID(0); i < viewCount; i++ {
		if i == m.activeView {
			tabs = append(tabs, tabActiveStyle.Render(i.String()))
		} else {
			tabs = append(tabs, tabInactiveStyle.Render(i.String()))
		}
	}
	return strings.Join(tabs, " ")
}

func (m uiModel) renderStatusBar() string {
	var left string
	switch {
	case m.err != nil:
		left = " " + errorStyle.Render("error: "+m.err.Error())
	case m.status != "":
		left = " " + m.status
	default:
		left = " " + contextHelp(m.activeView)
	}
	right := "refreshed " + shortDuration(time.Since(m.lastRefresh)) + " ago "
	if m.loadingVisible() {
		right = m.spinner.View() + " loading | " + right
	}
	left = ansi.Truncate(left, max(0, m.width-lipgloss.Width(right)-1), "…")
	gap := strings.Repeat(" ", max(0, m.width-lipgloss.Width(left)-lipgloss.Width(right)))
	return statusBarStyle.Render(left + gap + right)
}

// --- Games view ---

func (m uiModel) renderGames() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Games"))
	b.WriteRune('\n')

	if len(m.snap.Games) == 0 {
		b.WriteString(dimStyle.Render("  (no games yet, press n to create one)"))
		b.WriteRune('\n')
		return b.String()
	}

	b.WriteString(dimStyle.Render(fmt.Sprintf("  %-14s %-10s %-7s %s",
		"ID", "Ticket", "Agents", "Phase")))
	b.WriteRune('\n')

	for i, g := range m.snap.Games {
		cursor := "  "
		if i == m.selectedGame {
			cursor = "> "
		}
		marker := " "
		if g.ID == m.gameID {
			marker = "*"
		}
		line := fmt.Sprintf("%s%-14s %-10s %-7d %s %s",
			cursor, truncate(g.ID, 11), formatTokens(g.TicketPrice), len(g.Agents), phase.NameOf(g.CurrentRound), marker)
		switch {
		case i == m.selectedGame:
			b.WriteString(activeStyle.Bold(true).Render(line))
		case g.ID == m.gameID:
			b.WriteString(activeStyle.Render(line))
		default:
			b.WriteString(line)
		}
		b.WriteRune('\n')
	}
	return b.String()
}

// --- Game controller view ---

func (m uiModel) renderGame() string {
	var b strings.Builder
	st := m.snap.State
	if m.gameID == "" || st == nil {
		b.WriteString(headerStyle.Render("Game"))
		b.WriteRune('\n')
		if m.gameID == "" {
			b.WriteString(dimStyle.Render("  (no game selected, pick one in Games (g) or create one (n))"))
		} else {
			b.WriteString(dimStyle.Render("  (loading game " + m.gameID + ")"))
		}
		b.WriteRune('\n')
		return b.String()
	}

	b.WriteString(headerStyle.Render(fmt.Sprintf("Game %s", m.gameID)))
	b.WriteString(dimStyle.Render(fmt.Sprintf("  era %d", max(st.Era, 1))))
	if g, ok := m.snap.Game(); ok {
		b.WriteString(dimStyle.Render("  ticket " + formatTokens(g.TicketPrice)))
	}
	b.WriteRune('\n')
	b.WriteString("  " + phase.Summary(*st))
	b.WriteRune('\n')

	round := st.CurrentRound
	if !st.Started() {
		round = -1
	}
	b.WriteString("  " + progressBar(phase.Progress(round), 30))
	b.WriteRune('\n')
	b.WriteRune('\n')

	b.WriteString(headerStyle.Render("Phases"))
	b.WriteRune('\n')
	for _, step := range phase.Steps {
		status := phase.StatusOf(step, *st)
		icon, style := stepIcon(status)
		b.WriteString(fmt.Sprintf("  %s %s\n", style.Render(icon), style.Render(step.Name)))
		b.WriteString(dimStyle.Render("      " + step.Description))
		b.WriteRune('\n')
	}
	b.WriteRune('\n')

	if label := phase.ActionLabel(*st); label != "" {
		if st.IsProcessing || m.busy {
			b.WriteString(processingStyle.Render("  " + label))
		} else {
			b.WriteString("  p: " + label)
		}
		b.WriteRune('\n')
	}

	if st.Complete() {
		b.WriteString(m.renderResults(st))
	}
	return b.String()
}

func stepIcon(s phase.Status) (string, lipgloss.Style) {
	switch s {
	case phase.Done:
		return "✓", doneStyle
	case phase.Active:
		return "▶", activeStyle
	case phase.Processing:
		return "⟳", processingStyle
	}
	return "○", dimStyle
}

func progressBar(frac float64, width int) string {
	filled := int(frac*float64(width) + 0.5)
	filled = min(max(filled, 0), width)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("%s %3.0f%%", activeStyle.Render(bar), frac*100)
}

func (m uiModel) renderResults(st *gameapi.GameState) string {
	var b strings.Builder
	res := st.Results
	b.WriteRune('\n')
	b.WriteString(headerStyle.Render("Results"))
	b.WriteRune('\n')
	b.WriteString("  Winning shapes: " + joinOr(res.WinningShapes, "none"))
	b.WriteRune('\n')
	if res.Draw() {
		b.WriteString("  Winners: " + processingStyle.Render("Draw"))
	} else {
		b.WriteString("  Winners: " + doneStyle.Render(strings.Join(res.Winners, ", ")))
	}
	b.WriteRune('\n')

	if len(res.ChoiceDistribution) > 0 {
		b.WriteString("  Choices:")
		b.WriteRune('\n')
		shapes := make([]string, 0, len(res.ChoiceDistribution))
		for shape := range res.ChoiceDistribution {
			shapes = append(shapes, shape)
		}
		sort.Strings(shapes)
		for _, shape := range shapes {
			b.WriteString(fmt.Sprintf("    %-10s %s\n", shape, joinOr(res.ChoiceDistribution[shape], "nobody")))
		}
	}

	if rw := st.Rewards; rw != nil {
		b.WriteRune('\n')
		b.WriteString(headerStyle.Render("Reward distribution"))
		b.WriteString(dimStyle.Render("  escrow " + formatTokens(rw.TotalEscrow)))
		b.WriteRune('\n')
		names := make([]string, 0, len(rw.Winners))
		for name := range rw.Winners {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			r := rw.Winners[name]
			b.WriteString(fmt.Sprintf("  %-14s +%s  %s -> %s\n",
				name, tokenStyle.Render(formatTokens(r.Reward)), formatTokens(r.InitialTokens), formatTokens(r.FinalTokens)))
		}
	}
	b.WriteRune('\n')
	b.WriteString("  R: New round")
	b.WriteRune('\n')
	return b.String()
}

// --- Balances view ---

func (m uiModel) renderBalances() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Agent Balances"))
	if m.snap.TotalTokens > 0 {
		b.WriteString(dimStyle.Render("  total " + formatTokens(m.snap.TotalTokens)))
	}
	b.WriteRune('\n')

	if m.gameID == "" {
		b.WriteString(dimStyle.Render("  (no game selected)"))
		b.WriteRune('\n')
		return b.String()
	}
	if len(m.snap.Agents) == 0 {
		b.WriteString(dimStyle.Render("  (no agents)"))
		b.WriteRune('\n')
		return b.String()
	}

	cards := make([]string, len(m.snap.Agents))
	for i, a := range m.snap.Agents {
		cards[i] = renderAgentCard(a)
	}
	perRow := max(1, m.width/(cardWidth+4))
	var rows []string
	for i := 0; i < len(cards); i += perRow {
		end := min(i+perRow, len(cards))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:end]...))
	}
	b.WriteString(lipgloss.JoinVertical(lipgloss.Left, rows...))
	b.WriteRune('\n')
	return b.String()
}

func renderAgentCard(a snapshot.AgentView) string {
	var b strings.Builder
	name := msgFromStyle.Render(a.Name)
	if a.TopPerformer {
		name += " " + processingStyle.Render("★ top")
	}
	b.WriteString(name)
	b.WriteRune('\n')
	b.WriteString(fmt.Sprintf("%-8s %s\n", "Balance", tokenStyle.Render(formatTokens(a.Tokens))))
	b.WriteString(fmt.Sprintf("%-8s %s\n", "Choice", orNone(a.Choice)))
	b.WriteString(fmt.Sprintf("%-8s %s\n", "Allies", joinOr(a.Allies, "none")))
	if a.Personality != "" {
		lines := wrapText(a.Personality, cardWidth-2)
		if len(lines) > 2 {
			lines = append(lines[:2], "...")
		}
		b.WriteString(dimStyle.Render(strings.Join(lines, "\n")))
		b.WriteRune('\n')
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("%d msgs, %d thoughts, %d deals", a.Messages, a.Thoughts, a.Deals)))

	style := cardStyle
	if a.TopPerformer {
		style = topCardStyle
	}
	return style.Width(cardWidth).Render(b.String())
}

// --- Communications view ---

func (m uiModel) renderComms() string {
	var b strings.Builder
	sel := m.agg.Selection()
	b.WriteString(headerStyle.Render("Primary: "))
	b.WriteString(msgFromStyle.Render(orNone(sel.Primary)))
	b.WriteString(headerStyle.Render("   Counterpart: "))
	b.WriteString(msgToStyle.Render(orNone(sel.Counterpart)))
	if m.loadingVisible() {
		b.WriteString("  " + m.spinner.View())
	}
	b.WriteRune('\n')
	if m.gameID == "" {
		b.WriteString(dimStyle.Render("(no game selected)"))
	} else if names := m.snap.AgentNames(); len(names) > 0 {
		b.WriteString(dimStyle.Render("agents: " + strings.Join(names, ", ")))
	}
	b.WriteRune('\n')

	chat := m.panelTitle("Chat", panelChat) + "\n" + m.chat.View()
	thoughts := m.panelTitle("Thoughts", panelThoughts) + "\n" + m.thoughts.View()
	if m.splitPanels() {
		b.WriteString(renderSplitPane(chat, thoughts, m.chat.Width, m.thoughts.Width, m.chat.Height+1))
	} else {
		b.WriteString(chat)
		b.WriteRune('\n')
		b.WriteString(thoughts)
	}
	return b.String()
}

func (m uiModel) panelTitle(name string, p panelID) string {
	sel := m.agg.Selection()
	if sel.Complete() && p == panelChat {
		name += fmt.Sprintf(" %s <-> %s", sel.Primary, sel.Counterpart)
	}
	if m.focus == p {
		return panelFocusStyle.Render(name)
	}
	return panelTitleStyle.Render(name)
}

// layoutPanels sizes the chat and thought viewports for the current window.
func (m *uiModel) layoutPanels() {
	if m.width == 0 {
		return
	}
	area := m.contentHeight() - 2 // selection line + agent list
	if m.splitPanels() {
		w := (m.width - 3) / 2
		m.chat.Width, m.chat.Height = w, max(1, area-1)
		m.thoughts.Width, m.thoughts.Height = m.width-3-w, max(1, area-1)
		return
	}
	h := max(1, (area-2)/2)
	m.chat.Width, m.chat.Height = m.width, h
	m.thoughts.Width, m.thoughts.Height = m.width, h
}

// syncPanels re-renders both panels from the installed view and restores
// anchor. The viewport clamps offsets beyond the new content.
func (m *uiModel) syncPanels(anchor interaction.ScrollAnchor) {
	m.layoutPanels()
	v := m.agg.View()
	m.chat.SetContent(renderChat(v, m.agg.Selection(), m.chat.Width))
	var md func(string, int) string
	if m.cfg != nil && m.cfg.UI.Markdown && m.md != nil {
		md = m.md.render
	}
	m.thoughts.SetContent(renderThoughts(v, m.thoughts.Width, md))
	m.chat.SetYOffset(anchor.Chat)
	m.thoughts.SetYOffset(anchor.Thoughts)
}

// renderChat renders the pair's messages grouped Era > Round.
func renderChat(v interaction.GroupedView, sel interaction.Selection, width int) string {
	if v.MessageCount() == 0 {
		title := "No messages yet"
		if !sel.Complete() {
			title = "No conversation selected"
		}
		return dimStyle.Render(title) + "\n" +
			dimStyle.Render("Select agents to view their conversation history")
	}

	bodyIndent := "    "
	bodyWidth := max(20, width-len(bodyIndent)-1)

	var b strings.Builder
	for _, era := range v.Eras() {
		b.WriteString(headerStyle.Render(fmt.Sprintf("Era %d", era)))
		b.WriteRune('\n')
		for _, round := range v.Rounds(era) {
			b.WriteString(roundHeader(round))
			b.WriteRune('\n')
			for _, msg := range v.Messages[era][round] {
				ts := dimStyle.Render("[" + msg.Timestamp.Clock() + "]")
				b.WriteString(fmt.Sprintf("  %s %s -> %s\n", ts, msgFromStyle.Render(msg.From), msgToStyle.Render(msg.To)))
				for _, line := range wrapText(msg.Content, bodyWidth) {
					b.WriteString(bodyIndent)
					b.WriteString(line)
					b.WriteRune('\n')
				}
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderThoughts renders thoughts grouped Era > Round > Agent. md, when
// set, renders each thought as markdown.
func renderThoughts(v interaction.GroupedView, width int, md func(string, int) string) string {
	if v.ThoughtCount() == 0 {
		return dimStyle.Render("No thoughts recorded") + "\n" +
			dimStyle.Render("Agent thought processes will appear here")
	}

	bodyIndent := "    "
	bodyWidth := max(20, width-len(bodyIndent)-1)

	var b strings.Builder
	for _, era := range v.ThoughtEras() {
		b.WriteString(headerStyle.Render(fmt.Sprintf("Era %d", era)))
		b.WriteRune('\n')
		for _, round := range v.ThoughtRounds(era) {
			b.WriteString(roundHeader(round))
			b.WriteRune('\n')
			for _, agent := range v.ThoughtAgents(era, round) {
				b.WriteString("  " + msgFromStyle.Render(agent))
				b.WriteRune('\n')
				for _, th := range v.Thoughts[era][round][agent] {
					b.WriteString(bodyIndent + dimStyle.Render("["+th.Timestamp.Clock()+"]"))
					b.WriteRune('\n')
					if md != nil {
						for _, line := range strings.Split(strings.Trim(md(th.Content, bodyWidth), "\n"), "\n") {
							b.WriteString(bodyIndent)
							b.WriteString(line)
							b.WriteRune('\n')
						}
						continue
					}
					for _, line := range wrapText(th.Content, bodyWidth) {
						b.WriteString(bodyIndent)
						b.WriteString(line)
						b.WriteRune('\n')
					}
				}
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func roundHeader(round int) string {
	label := fmt.Sprintf(" Round %d", round)
	if s, ok := phase.For(round); ok {
		label += " (" + s.Name + ")"
	}
	return activeStyle.Render(label)
}

// --- Setup view ---

func (m uiModel) renderSetup() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Agent Configuration"))
	b.WriteRune('\n')
	b.WriteString(dimStyle.Render("Each agent can be given a unique personality and strategy."))
	b.WriteRune('\n')
	b.WriteRune('\n')
	for i, f := range m.setup.fields {
		b.WriteString(f.View())
		b.WriteRune('\n')
		if i == 0 {
			b.WriteRune('\n')
		}
	}
	b.WriteRune('\n')
	label := "[ " + m.setup.buttonLabel() + " ]"
	if m.setup.missing() == 0 && !m.setup.submitting {
		b.WriteString(doneStyle.Render(label))
	} else {
		b.WriteString(dimStyle.Render(label))
	}
	b.WriteRune('\n')
	if m.setup.err != "" {
		b.WriteString(errorStyle.Render(m.setup.err))
		b.WriteRune('\n')
	}
	return b.String()
}

// --- Split-pane rendering ---

// renderSplitPane renders two content panes side by side with a vertical separator.
func renderSplitPane(left, right string, leftWidth, rightWidth, maxHeight int) string {
	leftLines := strings.Split(left, "\n")
	rightLines := strings.Split(right, "\n")

	// Pad to equal height.
	maxLines := min(max(len(leftLines), len(rightLines)), maxHeight)
	for len(leftLines) < maxLines {
		leftLines = append(leftLines, "")
	}
	for len(rightLines) < maxLines {
		rightLines = append(rightLines, "")
	}

	sep := dimStyle.Render("│")
	var b strings.Builder
	for i := 0; i < maxLines; i++ {
		b.WriteString(padOrTruncate(leftLines[i], leftWidth))
		b.WriteString(" ")
		b.WriteString(sep)
		b.WriteString(" ")
		b.WriteString(ansi.Truncate(rightLines[i], rightWidth, ""))
		b.WriteRune('\n')
	}
	return b.String()
}

// padOrTruncate pads or truncates a styled line to the target visible width.
func padOrTruncate(s string, width int) string {
	w := lipgloss.Width(s)
	if w > width {
		return ansi.Truncate(s, width, "")
	}
	return s + strings.Repeat(" ", width-w)
}

// --- Helpers ---

// formatTokens renders a token amount with thousands separators.
func formatTokens(v float64) string {
	return humanize.Commaf(v)
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func joinOr(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	return strings.Join(items, ", ")
}

// truncateLines truncates each line in content to at most width visible
// characters, preserving ANSI escape codes. This prevents terminal line
// wrapping when the window is resized narrower.
func truncateLines(content string, width int) string {
	if width <= 0 {
		return content
	}
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if lipgloss.Width(line) > width {
			lines[i] = ansi.Truncate(line, width, "")
		}
	}
	return strings.Join(lines, "\n")
}

// wrapText breaks s into lines of at most width characters, splitting on word
// boundaries where possible. If a single word exceeds width it is hard-split.
// Embedded newlines are respected; each paragraph is wrapped independently.
func wrapText(s string, width int) []string {
	if width <= 0 {
		width = 80
	}

	paragraphs := strings.Split(s, "\n")
	var lines []string
	for _, para := range paragraphs {
		lines = append(lines, wrapParagraph(para, width)...)
	}
	return lines
}

// wrapParagraph wraps a single paragraph (no embedded newlines) to width.
// Widths are counted in runes so multi-byte text is never split mid-rune.
func wrapParagraph(s string, width int) []string {
	r := []rune(s)
	if len(r) <= width {
		return []string{s}
	}

	var lines []string
	for len(r) > 0 {
		if len(r) <= width {
			lines = append(lines, string(r))
			break
		}
		// Try to break at a space at or before position width.
		cut := -1
		for i := width; i > 0; i-- {
			if r[i] == ' ' {
				cut = i
				break
			}
		}
		if cut <= 0 {
			// No space found, hard-split at width.
			lines = append(lines, string(r[:width]))
			r = r[width:]
		} else {
			lines = append(lines, string(r[:cut]))
			r = r[cut+1:] // skip the space
		}
	}
	return lines
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func shortDuration(d time.Duration) string {
	if d < 0 {
		return "0s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}
