// Package engine wires together the board, evaluator, and search layers behind a small
// API the UCI driver (or any other front end) drives (spec 4.10).
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mwkent/chess-ai/pkg/board"
	"github.com/mwkent/chess-ai/pkg/board/fen"
	"github.com/mwkent/chess-ai/pkg/search"
	"github.com/mwkent/chess-ai/pkg/search/searchctl"
	"github.com/seekerror/build"
	"github.com/seekerror/logw"
)

var version = build.NewVersion(0, 1, 0)

// Options are engine creation/runtime options, changeable via UCI setoption (spec 4.10).
type Options struct {
	// MaxDepth limits iterative deepening. Zero means unbounded (deadline-limited only).
	MaxDepth int
	// ForcedMateDepth bounds the Forced-Mate Prober's iterative deepening (spec 4.5).
	ForcedMateDepth int
	// HashMB enables the transposition table when nonzero; the table has a fixed size
	// whatever the value. Zero disables it.
	HashMB uint
	// Chess960 sets the board's Chess960 flag. Move generation and castling still use the
	// standard A/H rook squares; no Chess960 rook lookup is applied.
	Chess960 bool
}

func (o Options) String() string {
	return fmt.Sprintf("{depth=%v, mateDepth=%v, hash=%vMB, chess960=%v}", o.MaxDepth, o.ForcedMateDepth, o.HashMB, o.Chess960)
}

// Option is an engine creation option (functional options, teacher idiom).
type Option func(*Engine)

func WithMaxDepth(depth int) Option {
	return func(e *Engine) { e.opts.MaxDepth = depth }
}

func WithForcedMateDepth(depth int) Option {
	return func(e *Engine) { e.opts.ForcedMateDepth = depth }
}

func WithHashSizeMB(mb uint) Option {
	return func(e *Engine) { e.opts.HashMB = mb }
}

// Engine encapsulates game state, search dispatch, and the active search handle.
type Engine struct {
	zt   *board.ZobristTable
	opts Options

	b      *board.Board
	tt     search.TranspositionTable
	active searchctl.Handle
	mu     sync.Mutex
}

// New constructs an engine at the initial position.
func New(ctx context.Context, opts ...Option) *Engine {
	e := &Engine{zt: board.NewZobristTable(0)}
	for _, fn := range opts {
		fn(e)
	}
	_ = e.Reset(ctx, fen.Initial)

	logw.Infof(ctx, "Initialized engine, options=%v", e.opts)
	return e
}

func (e *Engine) Name() string   { return fmt.Sprintf("chess-ai %v", version) }
func (e *Engine) Author() string { return "mwkent" }

func (e *Engine) Options() Options {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opts
}

func (e *Engine) SetMaxDepth(depth int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts.MaxDepth = depth
}

// SetHashSizeMB changes the configured hash setting; it takes effect on the next Reset,
// which builds a fixed-size transposition table when the value is nonzero and none when it
// is zero (the teacher's Reset-rebuilds-TT pattern).
func (e *Engine) SetHashSizeMB(mb uint) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts.HashMB = mb
}

func (e *Engine) SetChess960(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts.Chess960 = on
	if e.b != nil {
		e.b.SetChess960(on)
	}
}

// Board returns an exclusive fork of the current board, safe for a search goroutine to
// mutate without racing the engine's own state (spec 5).
func (e *Engine) Board() *board.Board {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.b.Fork()
}

// Position returns the current position as FEN.
func (e *Engine) Position() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return fen.Encode(e.b.Position(), e.b.Turn(), e.b.NoProgress(), e.b.FullMoves())
}

// Reset rebuilds the board (and transposition table) from the given FEN, halting any
// active search first (spec 4.10: ucinewgame/position).
func (e *Engine) Reset(ctx context.Context, position string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.haltActiveLocked(ctx)

	pos, turn, noprogress, fullmoves, err := fen.Decode(position)
	if err != nil {
		return fmt.Errorf("invalid position %q: %w", position, err)
	}
	e.b = board.NewBoard(e.zt, pos, turn, noprogress, fullmoves)
	e.b.SetChess960(e.opts.Chess960)

	if e.opts.HashMB > 0 {
		e.tt = search.NewTranspositionTable()
	} else {
		e.tt = search.NoTranspositionTable{}
	}

	logw.Infof(ctx, "Reset to %v", position)
	return nil
}

// Move plays a UCI move string against the current position (an opponent move relayed by
// the GUI).
func (e *Engine) Move(ctx context.Context, uci string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.haltActiveLocked(ctx)

	m, ok := e.b.PushUCI(uci)
	if !ok {
		return fmt.Errorf("illegal move: %v", uci)
	}
	logw.Infof(ctx, "Move %v", m)
	return nil
}

// Go starts a search on a forked board with the given time budget and returns a handle
// plus a channel that receives the final Calculation once, either on natural completion or
// Halt (spec 4.10: "go").
func (e *Engine) Go(ctx context.Context, deadline time.Duration) (searchctl.Handle, <-chan search.Calculation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active != nil {
		return nil, nil, fmt.Errorf("search already active")
	}

	b := e.b.Fork()
	calc := search.NewCalculator(b, e.tt, e.opts.MaxDepth)
	calc.ForcedMateDepth = e.opts.ForcedMateDepth

	var l searchctl.Launcher
	handle, out := l.Launch(ctx, calc, b, deadline)
	e.active = handle

	return handle, out, nil
}

// Halt stops the active search, if any, and returns its best result.
func (e *Engine) Halt(ctx context.Context) (search.Calculation, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.haltActiveLocked(ctx)
}

func (e *Engine) haltActiveLocked(ctx context.Context) (search.Calculation, bool) {
	if e.active == nil {
		return search.Calculation{}, false
	}
	result := e.active.Halt()
	e.active = nil
	logw.Infof(ctx, "Search halted: %+v", result)
	return result, true
}
