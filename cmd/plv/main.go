// plv is a real-time TUI dashboard for the Purelands multi-agent
// negotiation game.
//
// It polls the game service for the game roster, the selected game's state
// and its agents, and shows the two-party conversation and thought
// processes of a chosen agent pair grouped by era and round.
//
// Usage:
//
//	plv                          # Auto-discover .purelands/config.yaml
//	plv --api http://host:8000   # Use a specific game service
//	plv --game 3 --view chat     # Open game 3 in the communications view
//	plv --json --game 3          # Dump current state as JSON and exit
//	plv --json --game 3 --pair "Agent 1,Agent 2"
//	plv --refresh 5s             # Set the polling interval
//	plv games | state | progress | reset | create | chat
//	plv --version                # Print version and exit
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/daviddao/purelands_viewer/internal/config"
	"github.com/daviddao/purelands_viewer/internal/datasource"
	"github.com/daviddao/purelands_viewer/internal/gameapi"
	"github.com/daviddao/purelands_viewer/internal/interaction"
	"github.com/daviddao/purelands_viewer/internal/logging"
	"github.com/daviddao/purelands_viewer/internal/phase"
	"github.com/daviddao/purelands_viewer/internal/snapshot"
)

// Version is set via ldflags at build time (e.g. -X main.Version=v0.1.0).
var Version = "dev"

// rootOptions holds the flags shared by the root command and subcommands.
type rootOptions struct {
	configPath string
	apiURL     string
	verbose    bool

	json    bool
	view    string
	game    string
	pair    string
	refresh time.Duration
}

// app is the wiring every command starts from.
type app struct {
	cfg     *config.Config
	cfgPath string
	log     *zap.Logger
	client  *gameapi.Client
}

// openApp resolves config, logger and client. The TUI logs to a file since
// it owns the terminal; one-shot commands log to stderr.
func openApp(opts *rootOptions, tui bool) (*app, error) {
	cfg, path, err := datasource.Open(opts.configPath, opts.apiURL)
	if err != nil {
		return nil, err
	}
	if opts.refresh > 0 {
		cfg.Poll.Interval = opts.refresh
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("--refresh: %w", err)
		}
	}

	var log *zap.Logger
	if tui {
		level, err := logging.Level(cfg.Log.Level, opts.verbose)
		if err != nil {
			return nil, err
		}
		log, err = logging.File(cfg.Log.Path, level)
		if err != nil {
			return nil, err
		}
	} else {
		log, err = logging.Stderr(opts.verbose)
		if err != nil {
			return nil, err
		}
	}

	client, err := datasource.NewClient(cfg, log)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	log.Debug("service resolved",
		zap.String("api", client.BaseURL()),
		zap.String("config", path),
		zap.Duration("interval", cfg.Poll.Interval))
	return &app{cfg: cfg, cfgPath: path, log: log, client: client}, nil
}

func (a *app) close() {
	_ = a.log.Sync()
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "plv",
		Short: "Real-time dashboard for the Purelands negotiation game",
		Long: `plv watches a Purelands game service and shows games, phases, agent
balances and the conversation between any two agents.

Configuration is read from $PURELANDS_CONFIG or .purelands/config.yaml in the
current directory or any parent. PURELANDS_API_URL, PURELANDS_REFRESH and
PURELANDS_LOG override the file; flags override both.`,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.json {
				return runJSON(cmd.Context(), cmd.OutOrStdout(), opts)
			}
			return runViewer(cmd.Context(), opts)
		},
	}
	cmd.SetVersionTemplate("plv {{.Version}}\n")

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "path to config.yaml (default: auto-discover)")
	pf.StringVar(&opts.apiURL, "api", "", "game service base URL (overrides config)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	f := cmd.Flags()
	f.BoolVar(&opts.json, "json", false, "dump current state as JSON and exit (no TUI)")
	f.StringVar(&opts.view, "view", "", "start in specific view (games|game|balances|chat|setup)")
	f.StringVar(&opts.game, "game", "", "select a game on startup")
	f.StringVar(&opts.pair, "pair", "", `agent pair to show, as "primary,counterpart"`)
	f.DurationVar(&opts.refresh, "refresh", 0, "polling interval (overrides config)")

	cmd.AddCommand(
		newGamesCmd(opts),
		newStateCmd(opts),
		newProgressCmd(opts),
		newResetCmd(opts),
		newCreateCmd(opts),
		newChatCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "plv: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// parsePair splits a "primary,counterpart" flag value.
func parsePair(s string) (interaction.Selection, error) {
	if s == "" {
		return interaction.Selection{}, nil
	}
	a, b, ok := strings.Cut(s, ",")
	sel := interaction.Selection{Primary: strings.TrimSpace(a), Counterpart: strings.TrimSpace(b)}
	if !ok || !sel.Complete() {
		return sel, fmt.Errorf("--pair %q: want \"primary,counterpart\"", s)
	}
	if sel.Primary == sel.Counterpart {
		return sel, fmt.Errorf("--pair %q: agents must differ", s)
	}
	return sel, nil
}

// --- Viewer ---

func runViewer(ctx context.Context, opts *rootOptions) error {
	start := viewGames
	if opts.view != "" {
		v, err := parseViewFlag(opts.view)
		if err != nil {
			return err
		}
		start = v
	}
	sel, err := parsePair(opts.pair)
	if err != nil {
		return err
	}
	if sel.Complete() && opts.game == "" {
		return errors.New("--pair needs --game")
	}

	a, err := openApp(opts, true)
	if err != nil {
		return err
	}
	defer a.close()

	// A service that is down at startup is reported in the status bar; the
	// poll keeps retrying.
	snap, snapErr := snapshot.Build(ctx, a.client, opts.game)
	if snapErr != nil {
		a.log.Warn("initial snapshot failed", zap.String("game", opts.game), zap.Error(snapErr))
	}

	m := newModel(ctx, a.client, a.cfg, a.cfgPath, snap, opts.game, a.log)
	m.activeView = start
	if snapErr != nil {
		m.setErr("snapshot", snapErr)
	}
	if sel.Complete() {
		m.agg.ChangeSelection(sel.Primary, sel.Counterpart)
		m.startChatPoll()
	}

	if a.cfgPath != "" {
		w, err := datasource.NewWatcher(a.cfgPath)
		if err != nil {
			a.log.Warn("config watch disabled", zap.String("path", a.cfgPath), zap.Error(err))
		} else {
			m.watcher = w
		}
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	m.bridge.attach(p)

	// Feed config file changes into the TUI.
	if m.watcher != nil {
		go func() {
			for range m.watcher.Changes() {
				m.bridge.Send(configChangedMsg{})
			}
		}()
	}

	_, err = p.Run()
	m.shutdown()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// --- JSON output ---

// jsonOutput is the structure for --json mode.
type jsonOutput struct {
	API          string            `json:"api"`
	Games        []jsonGame        `json:"games"`
	Game         *jsonGameDetail   `json:"game,omitempty"`
	Conversation *jsonConversation `json:"conversation,omitempty"`
	BuiltAt      string            `json:"built_at"`
}

type jsonGame struct {
	ID          string  `json:"game_id"`
	TicketPrice float64 `json:"ticket_price"`
	Agents      int     `json:"agents"`
	Phase       string  `json:"phase"`
}

type jsonGameDetail struct {
	ID          string           `json:"game_id"`
	Era         int              `json:"era"`
	Round       int              `json:"current_round"`
	Status      string           `json:"game_status"`
	Phase       string           `json:"phase"`
	Processing  bool             `json:"is_processing"`
	TotalTokens float64          `json:"total_tokens"`
	Agents      []jsonAgent      `json:"agents"`
	Results     *gameapi.Results `json:"results,omitempty"`
	Rewards     *gameapi.Rewards `json:"rewards,omitempty"`
}

type jsonAgent struct {
	Name         string   `json:"name"`
	Tokens       float64  `json:"tokens"`
	Choice       string   `json:"choice,omitempty"`
	Allies       []string `json:"allies"`
	Personality  string   `json:"personality,omitempty"`
	TopPerformer bool     `json:"top_performer"`
}

type jsonConversation struct {
	Primary     string    `json:"primary"`
	Counterpart string    `json:"counterpart"`
	Eras        []jsonEra `json:"eras"`
}

type jsonEra struct {
	Era    int         `json:"era"`
	Rounds []jsonRound `json:"rounds"`
}

type jsonRound struct {
	Round    int               `json:"round"`
	Messages []gameapi.Message `json:"messages"`
	Thoughts []gameapi.Thought `json:"thoughts"`
}

func runJSON(ctx context.Context, out io.Writer, opts *rootOptions) error {
	sel, err := parsePair(opts.pair)
	if err != nil {
		return err
	}
	if sel.Complete() && opts.game == "" {
		return errors.New("--pair needs --game")
	}

	a, err := openApp(opts, false)
	if err != nil {
		return err
	}
	defer a.close()

	snap, err := snapshot.Build(ctx, a.client, opts.game)
	if err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}

	var conv *jsonConversation
	if sel.Complete() {
		agg := interaction.New(a.client, opts.game)
		agg.ChangeSelection(sel.Primary, sel.Counterpart)
		v, err := agg.Refresh(ctx, interaction.ScrollAnchor{})
		if err != nil {
			return fmt.Errorf("conversation: %w", err)
		}
		conv = buildConversation(sel, v)
	}

	result := buildJSONOutput(snap, conv)
	result.API = a.client.BaseURL()
	return writeJSON(out, result)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("json: %w", err)
	}
	return nil
}

// buildJSONOutput converts a snapshot into the JSON output structure.
func buildJSONOutput(snap *snapshot.DataSnapshot, conv *jsonConversation) jsonOutput {
	games := make([]jsonGame, len(snap.Games))
	for i, g := range snap.Games {
		games[i] = jsonGame{
			ID:          g.ID,
			TicketPrice: g.TicketPrice,
			Agents:      len(g.Agents),
			Phase:       phase.NameOf(g.CurrentRound),
		}
	}

	out := jsonOutput{
		Games:        games,
		Conversation: conv,
		BuiltAt:      snap.BuiltAt.Format(time.RFC3339),
	}
	if st := snap.State; st != nil {
		agents := make([]jsonAgent, len(snap.Agents))
		for i, ag := range snap.Agents {
			allies := ag.Allies
			if allies == nil {
				allies = []string{}
			}
			agents[i] = jsonAgent{
				Name:         ag.Name,
				Tokens:       ag.Tokens,
				Choice:       ag.Choice,
				Allies:       allies,
				Personality:  ag.Personality,
				TopPerformer: ag.TopPerformer,
			}
		}
		out.Game = &jsonGameDetail{
			ID:          snap.GameID,
			Era:         max(st.Era, interaction.DefaultEra),
			Round:       st.CurrentRound,
			Status:      st.Status,
			Phase:       snap.Phase,
			Processing:  st.IsProcessing,
			TotalTokens: snap.TotalTokens,
			Agents:      agents,
			Results:     st.Results,
			Rewards:     st.Rewards,
		}
	}
	return out
}

// buildConversation flattens a grouped view into eras and rounds, ascending.
// A round appears when it holds messages or thoughts.
func buildConversation(sel interaction.Selection, v interaction.GroupedView) *jsonConversation {
	conv := &jsonConversation{Primary: sel.Primary, Counterpart: sel.Counterpart, Eras: []jsonEra{}}
	for _, era := range unionInts(v.Eras(), v.ThoughtEras()) {
		je := jsonEra{Era: era}
		for _, round := range unionInts(v.Rounds(era), v.ThoughtRounds(era)) {
			jr := jsonRound{
				Round:    round,
				Messages: append([]gameapi.Message{}, v.Messages[era][round]...),
				Thoughts: []gameapi.Thought{},
			}
			for _, agent := range v.ThoughtAgents(era, round) {
				jr.Thoughts = append(jr.Thoughts, v.Thoughts[era][round][agent]...)
			}
			je.Rounds = append(je.Rounds, jr)
		}
		conv.Eras = append(conv.Eras, je)
	}
	return conv
}

// unionInts merges two ascending slices without duplicates.
func unionInts(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case j >= len(b) || (i < len(a) && a[i] < b[j]):
			out = append(out, a[i])
			i++
		case i >= len(a) || b[j] < a[i]:
			out = append(out, b[j])
			j++
		default:
			out = append(out, a[i])
			i++
			j++
		}
	}
	return out
}
