package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/daviddao/purelands_viewer/internal/gameapi"
	"github.com/daviddao/purelands_viewer/internal/interaction"
	"github.com/daviddao/purelands_viewer/internal/phase"
	"github.com/daviddao/purelands_viewer/internal/roster"
	"github.com/daviddao/purelands_viewer/internal/snapshot"
)

// One-shot subcommands. Each opens its own client and prints to the
// command's output writer.

func newGamesCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "games",
		Short: "List games known to the service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts, false)
			if err != nil {
				return err
			}
			defer a.close()

			games, err := a.client.ListGames(cmd.Context())
			if err != nil {
				return fmt.Errorf("list games: %w", err)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), buildJSONOutput(&snapshot.DataSnapshot{Games: games}, nil).Games)
			}
			printGames(cmd.OutOrStdout(), games)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printGames(w io.Writer, games []gameapi.Game) {
	if len(games) == 0 {
		fmt.Fprintln(w, "no games yet")
		return
	}
	fmt.Fprintf(w, "%-14s %-10s %-7s %s\n", "ID", "TICKET", "AGENTS", "PHASE")
	for _, g := range games {
		fmt.Fprintf(w, "%-14s %-10s %-7d %s\n", g.ID, formatTokens(g.TicketPrice), len(g.Agents), phase.NameOf(g.CurrentRound))
	}
}

func newStateCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "state <game>",
		Short: "Show a game's phase, results and agent balances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts, false)
			if err != nil {
				return err
			}
			defer a.close()

			snap, err := snapshot.Build(cmd.Context(), a.client, args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), buildJSONOutput(snap, nil).Game)
			}
			printState(cmd.OutOrStdout(), snap)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printState(w io.Writer, snap *snapshot.DataSnapshot) {
	st := snap.State
	fmt.Fprintf(w, "game %s  era %d  %s\n", snap.GameID, max(st.Era, interaction.DefaultEra), phase.Summary(*st))
	fmt.Fprintf(w, "phase: %s\n", snap.Phase)
	if label := phase.ActionLabel(*st); label != "" {
		fmt.Fprintf(w, "next:  %s\n", label)
	}
	if res := st.Results; res != nil {
		winners := strings.Join(res.Winners, ", ")
		if res.Draw() {
			winners = "Draw"
		}
		fmt.Fprintf(w, "winning shapes: %s\n", joinOr(res.WinningShapes, "none"))
		fmt.Fprintf(w, "winners: %s\n", winners)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-14s %12s %-10s %s\n", "AGENT", "TOKENS", "CHOICE", "ALLIES")
	for _, ag := range snap.Agents {
		name := ag.Name
		if ag.TopPerformer {
			name += " *"
		}
		fmt.Fprintf(w, "%-14s %12s %-10s %s\n", name, formatTokens(ag.Tokens), orNone(ag.Choice), joinOr(ag.Allies, "-"))
	}
}

func newProgressCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "progress <game>",
		Short: "Advance a game to its next round",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts, false)
			if err != nil {
				return err
			}
			defer a.close()

			resp, err := a.client.ProgressRound(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("progress game %s: %w", args[0], err)
			}
			a.log.Info("round advanced", zap.String("game", args[0]))
			fmt.Fprintln(cmd.OutOrStdout(), responseText(resp, "round advanced"))
			return nil
		},
	}
}

func newResetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <game>",
		Short: "Start a new round (era) of a completed game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts, false)
			if err != nil {
				return err
			}
			defer a.close()

			resp, err := a.client.ResetGame(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("reset game %s: %w", args[0], err)
			}
			a.log.Info("game reset", zap.String("game", args[0]))
			fmt.Fprintln(cmd.OutOrStdout(), responseText(resp, "game reset"))
			return nil
		},
	}
}

func newCreateCmd(opts *rootOptions) *cobra.Command {
	var (
		rosterPath    string
		personalities []string
		ticketPrice   float64
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a game from a roster file or personalities",
		Long: `Create a game. Agents come from --roster, or from the default roster of
four agents. -p sets personalities in order, overriding the roster's.

Every agent needs a personality before the game can be created.`,
		Example: `  plv create --roster roster.yaml
  plv create -p "Aggressive trader" -p "Cautious saver" -p "Diplomat" -p "Opportunist"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := roster.Default()
			if rosterPath != "" {
				var err error
				if r, err = roster.Load(rosterPath); err != nil {
					return err
				}
			}
			if len(personalities) > len(r.Agents) {
				return fmt.Errorf("%d personalities for %d agents", len(personalities), len(r.Agents))
			}
			for i, p := range personalities {
				r.Agents[i].Personality = p
			}
			if cmd.Flags().Changed("ticket-price") {
				r.TicketPrice = ticketPrice
			}
			if err := r.Validate(); err != nil {
				return err
			}
			if err := r.Complete(); err != nil {
				return err
			}

			a, err := openApp(opts, false)
			if err != nil {
				return err
			}
			defer a.close()

			resp, err := a.client.CreateGame(cmd.Context(), r.GameConfig())
			if err != nil {
				return fmt.Errorf("create game: %w", err)
			}
			a.log.Info("game created", zap.String("game", resp.GameID), zap.Int("agents", len(r.Agents)))
			fmt.Fprintf(cmd.OutOrStdout(), "%s (game %s)\n", responseText(resp, "game created"), resp.GameID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&rosterPath, "roster", "", "roster YAML file")
	f.StringArrayVarP(&personalities, "personality", "p", nil, "agent personality, in roster order (repeatable)")
	f.Float64Var(&ticketPrice, "ticket-price", roster.DefaultTicketPrice, "ticket price")
	return cmd
}

func newChatCmd(opts *rootOptions) *cobra.Command {
	var (
		asJSON bool
		width  int
	)
	cmd := &cobra.Command{
		Use:   "chat <game> <primary> <counterpart>",
		Short: "Print the conversation and thoughts of two agents",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := parsePair(args[1] + "," + args[2])
			if err != nil {
				return err
			}

			a, err := openApp(opts, false)
			if err != nil {
				return err
			}
			defer a.close()

			agg := interaction.New(a.client, args[0])
			agg.ChangeSelection(sel.Primary, sel.Counterpart)
			v, err := agg.Refresh(cmd.Context(), interaction.ScrollAnchor{})
			if err != nil {
				return fmt.Errorf("game %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, buildConversation(sel, v))
			}
			fmt.Fprintf(out, "%s <-> %s\n\n", sel.Primary, sel.Counterpart)
			fmt.Fprintln(out, renderChat(v, sel, width))
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Thoughts")
			fmt.Fprintln(out, renderThoughts(v, width, nil))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().IntVar(&width, "width", 100, "wrap width")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "plv %s\n", Version)
		},
	}
}

func responseText(resp gameapi.GameResponse, fallback string) string {
	if resp.Message != "" {
		return resp.Message
	}
	return fallback
}
