package interaction

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/daviddao/purelands_viewer/internal/gameapi"
)

var (
	// ErrMissingSelection is returned when a refresh is attempted before
	// both agents of the pair are chosen. Callers should not poll then.
	ErrMissingSelection = errors.New("interaction: agent pair not selected")

	// ErrStaleResult is returned by Commit for a result that was requested
	// under a previous selection or game, or that is older than the view
	// already installed.
	ErrStaleResult = errors.New("interaction: stale result discarded")
)

// FetchError reports which of the two feeds failed.
type FetchError struct {
	Source string // "interactions" or "thoughts"
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Source is the slice of the game service the aggregator reads from.
type Source interface {
	AgentInteractions(ctx context.Context, gameID, agentA, agentB string) (gameapi.Interactions, error)
	ThoughtProcesses(ctx context.Context, gameID string) ([]gameapi.Thought, error)
}

// Request identifies one refresh attempt.
type Request struct {
	GameID    string
	Selection Selection
	Seq       uint64
}

// Result is the outcome of Fetch for a Request.
type Result struct {
	Request Request
	View    GroupedView
	Err     error
}

// Aggregator holds the grouped view of one viewer session. It is owned by
// a single goroutine (the UI loop); only Fetch may run elsewhere.
type Aggregator struct {
	src    Source
	gameID string
	sel    Selection

	view   GroupedView
	anchor ScrollAnchor

	seq       uint64 // last issued
	committed uint64 // last installed
	lastErr   error
}

// New returns an aggregator for gameID with no selection.
func New(src Source, gameID string) *Aggregator {
	return &Aggregator{
		src:    src,
		gameID: gameID,
		view:   NewGroupedView(),
	}
}

// GameID returns the game being viewed.
func (a *Aggregator) GameID() string { return a.gameID }

// Selection returns the current agent pair.
func (a *Aggregator) Selection() Selection { return a.sel }

// View returns the installed grouped view.
func (a *Aggregator) View() GroupedView { return a.view }

// Anchor returns the scroll offsets to restore after the latest rebuild.
func (a *Aggregator) Anchor() ScrollAnchor { return a.anchor }

// LastError returns the error of the most recent failed refresh, or nil
// once a refresh has succeeded.
func (a *Aggregator) LastError() error { return a.lastErr }

// ChangeSelection switches to a new pair. The view and scroll anchor are
// cleared before it returns, and every request issued so far becomes stale.
// counterpart may be empty while the second agent is still being chosen.
func (a *Aggregator) ChangeSelection(primary, counterpart string) {
	a.sel = Selection{Primary: primary, Counterpart: counterpart}
	a.reset()
}

// SetGame switches the aggregator to another game, clearing the selection.
func (a *Aggregator) SetGame(gameID string) {
	if gameID == a.gameID {
		return
	}
	a.gameID = gameID
	a.sel = Selection{}
	a.reset()
}

func (a *Aggregator) reset() {
	a.view = NewGroupedView()
	a.anchor = ScrollAnchor{}
	a.lastErr = nil
	// Anything in flight now has a sequence number at or below committed.
	a.seq++
	a.committed = a.seq
}

// Begin captures the current scroll offsets and issues a request for the
// current selection.
func (a *Aggregator) Begin(current ScrollAnchor) (Request, error) {
	if !a.sel.Complete() {
		return Request{}, ErrMissingSelection
	}
	a.anchor = current
	a.seq++
	return Request{GameID: a.gameID, Selection: a.sel, Seq: a.seq}, nil
}

// Fetch loads both feeds for req concurrently and groups them. It touches
// no aggregator state and is safe to run off the UI goroutine. Either feed
// failing fails the result as a whole.
func Fetch(ctx context.Context, src Source, req Request) Result {
	var (
		interactions gameapi.Interactions
		thoughts     []gameapi.Thought
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		interactions, err = src.AgentInteractions(gctx, req.GameID, req.Selection.Primary, req.Selection.Counterpart)
		if err != nil {
			return &FetchError{Source: "interactions", Err: err}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		thoughts, err = src.ThoughtProcesses(gctx, req.GameID)
		if err != nil {
			return &FetchError{Source: "thoughts", Err: err}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{Request: req, Err: err}
	}
	return Result{
		Request: req,
		View:    Group(req.Selection, interactions.Messages, thoughts),
	}
}

// Commit installs res if it still belongs to the current game and selection
// and is newer than the installed view. A failed result leaves the previous
// view in place and returns the fetch error.
func (a *Aggregator) Commit(res Result) (GroupedView, error) {
	req := res.Request
	if req.GameID != a.gameID || req.Selection != a.sel || req.Seq <= a.committed {
		return a.view, ErrStaleResult
	}
	if res.Err != nil {
		a.lastErr = res.Err
		return a.view, res.Err
	}
	a.view = res.View
	a.committed = req.Seq
	a.lastErr = nil
	return a.view, nil
}

// Refresh runs Begin, Fetch and Commit in sequence.
func (a *Aggregator) Refresh(ctx context.Context, current ScrollAnchor) (GroupedView, error) {
	req, err := a.Begin(current)
	if err != nil {
		return a.view, err
	}
	return a.Commit(Fetch(ctx, a.src, req))
}

// Source returns the feed the aggregator was built with.
func (a *Aggregator) Source() Source { return a.src }
