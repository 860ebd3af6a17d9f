// Package uci contains a driver for running the engine under the UCI protocol.
//
// See: http://wbec-ridderkerk.nl/html/UCIProtocol.html
package uci

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mwkent/chess-ai/pkg/board"
	"github.com/mwkent/chess-ai/pkg/board/fen"
	"github.com/mwkent/chess-ai/pkg/engine"
	"github.com/mwkent/chess-ai/pkg/eval"
	"github.com/mwkent/chess-ai/pkg/search"
	"github.com/mwkent/chess-ai/pkg/search/searchctl"
	"github.com/seekerror/logw"
	"go.uber.org/atomic"
)

const ProtocolName = "uci"

// Driver implements a UCI driver for an Engine. It is activated once the GUI sends "uci".
// NewDriver runs its command loop (process) on a goroutine of its own; reading standard
// input is the caller's responsibility (spec 5: "a separate thread of control only for
// reading standard input").
type Driver struct {
	e *engine.Engine

	out chan<- string

	active       atomic.Bool // a "go" is outstanding and awaiting bestmove
	lastPosition string      // last "position" line, for the common-prefix fast path

	quit   chan struct{}
	closed atomic.Bool
}

// NewDriver starts processing in on its own goroutine and returns the output line channel.
func NewDriver(ctx context.Context, e *engine.Engine, in <-chan string) (*Driver, <-chan string) {
	out := make(chan string, 100)
	d := &Driver{e: e, out: out, quit: make(chan struct{})}
	go d.process(ctx, in)
	return d, out
}

func (d *Driver) Close() {
	if d.closed.CAS(false, true) {
		close(d.quit)
	}
}

// Closed returns a channel that's closed once the driver's processing loop has exited.
func (d *Driver) Closed() <-chan struct{} {
	return d.quit
}

func (d *Driver) process(ctx context.Context, in <-chan string) {
	defer d.Close()
	defer close(d.out)

	logw.Infof(ctx, "UCI protocol initialized")

	d.out <- fmt.Sprintf("id name %v", d.e.Name())
	d.out <- fmt.Sprintf("id author %v", d.e.Author())
	d.out <- "option name Hash type spin default 0 min 0 max 4096"
	d.out <- "option name UCI_Chess960 type check default false"
	d.out <- "uciok"

	for {
		select {
		case line, ok := <-in:
			if !ok {
				logw.Infof(ctx, "Input stream closed. Exiting")
				return
			}
			if d.dispatch(ctx, line) {
				return
			}

		case <-d.quit:
			d.ensureInactive(ctx)
			logw.Infof(ctx, "Driver closed")
			return
		}
	}
}

// dispatch handles one input line. Returns true if the driver should exit (received
// "quit"). Unparseable lines are logged and skipped, never fatal (spec 7: protocol errors
// are logged and the offending line is skipped).
func (d *Driver) dispatch(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd, args := strings.ToLower(parts[0]), parts[1:]

	switch cmd {
	case "isready":
		d.out <- "readyok"

	case "debug":
		// Accepted and ignored: this engine always logs at the same level (spec 7).

	case "setoption":
		d.handleSetOption(ctx, args)

	case "ucinewgame":
		d.ensureInactive(ctx)
		d.lastPosition = ""

	case "position":
		d.handlePosition(ctx, line, args)

	case "go":
		d.handleGo(ctx, line, args)

	case "stop":
		result, ok := d.e.Halt(ctx)
		if ok {
			d.searchCompleted(ctx, result)
		}

	case "ponderhit":
		// Pondering is stubbed only (non-goal); nothing to switch.

	case "quit":
		return true

	// Non-standard debug command: print the current position's FEN (spec 6.2).
	case "fen":
		d.out <- fmt.Sprintf("info string %v", d.e.Position())

	default:
		logw.Warningf(ctx, "Unknown command %q: %v", cmd, args)
	}
	return false
}

func (d *Driver) handleSetOption(ctx context.Context, args []string) {
	var name, value string
	if len(args) > 1 {
		name = args[1]
	}
	if len(args) > 3 {
		value = strings.Join(args[3:], " ")
	}

	switch name {
	case "Hash":
		if n, err := strconv.Atoi(value); err == nil && n >= 0 {
			d.e.SetHashSizeMB(uint(n))
		}
	case "UCI_Chess960":
		d.e.SetChess960(value == "true")
	default:
		logw.Warningf(ctx, "Unsupported option %q", name)
	}
}

func (d *Driver) handlePosition(ctx context.Context, line string, args []string) {
	d.ensureInactive(ctx)

	if d.lastPosition != "" && strings.HasPrefix(line, d.lastPosition) {
		moves := strings.TrimSpace(strings.TrimPrefix(line, d.lastPosition))
		for _, arg := range strings.Fields(moves) {
			if arg == "moves" {
				continue
			}
			if err := d.e.Move(ctx, arg); err != nil {
				logw.Errorf(ctx, "Invalid position move %q: %v: %v", arg, line, err)
				return
			}
		}
		d.lastPosition = line
		return
	}

	position := fen.Initial
	if len(args) >= 7 && args[0] == "fen" {
		position = strings.Join(args[1:7], " ")
	}
	if err := d.e.Reset(ctx, position); err != nil {
		logw.Errorf(ctx, "Invalid position: %v: %v", line, err)
		return
	}

	move := false
	for _, arg := range args {
		if arg == "moves" {
			move = true
			continue
		}
		if !move {
			continue
		}
		if err := d.e.Move(ctx, arg); err != nil {
			logw.Errorf(ctx, "Invalid position move %q: %v: %v", arg, line, err)
			return
		}
	}
	d.lastPosition = line
}

func (d *Driver) handleGo(ctx context.Context, line string, args []string) {
	d.ensureInactive(ctx)

	var wtime, btime, winc, binc, moveDepth int
	movetime := time.Duration(0)

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "wtime", "btime", "winc", "binc", "depth", "movetime", "movestogo":
			i++
			if i == len(args) {
				logw.Errorf(ctx, "No argument for %v: %v", args[i-1], line)
				return
			}
			n, err := strconv.Atoi(args[i])
			if err != nil {
				logw.Errorf(ctx, "Invalid argument for %v: %v", line, err)
				return
			}
			switch args[i-1] {
			case "wtime":
				wtime = n
			case "btime":
				btime = n
			case "winc":
				winc = n
			case "binc":
				binc = n
			case "depth":
				moveDepth = n
			case "movetime":
				movetime = time.Duration(n) * time.Millisecond
			}
		case "infinite":
			// Sets no deadline of its own: the zero-deadline fallback below still applies
			// the think-time heuristic, and an explicit "stop" can end the search earlier.
		default:
			// searchmoves/ponder/mate/nodes: silently ignored (not part of this surface).
		}
	}

	deadline := movetime
	if deadline == 0 {
		deadline = searchctl.Deadline(d.boardTurn(), d.boardFullMoves(), wtime, winc, btime, binc)
	}
	if moveDepth > 0 {
		d.e.SetMaxDepth(moveDepth)
	}

	_, out, err := d.e.Go(ctx, deadline)
	if err != nil {
		logw.Errorf(ctx, "go failed: %v", err)
		return
	}
	d.active.Store(true)

	go func() {
		for result := range out {
			d.searchCompleted(ctx, result)
		}
	}()
}

func (d *Driver) boardTurn() board.Color {
	return d.e.Board().Turn()
}

func (d *Driver) boardFullMoves() int {
	return d.e.Board().FullMoves()
}

func (d *Driver) ensureInactive(ctx context.Context) {
	if result, ok := d.e.Halt(ctx); ok {
		d.searchCompleted(ctx, result)
	}
}

func (d *Driver) searchCompleted(ctx context.Context, result search.Calculation) {
	if !d.active.CAS(true, false) {
		return // stale or duplicate completion
	}
	if result.Move.IsNull() {
		d.out <- "bestmove 0000"
		return
	}
	d.out <- printInfo(result)
	d.out <- fmt.Sprintf("bestmove %v", result.Move)
}

func printInfo(result search.Calculation) string {
	parts := []string{"info", fmt.Sprintf("depth %v", result.DepthReached)}
	if eval.IsMating(result.Score) {
		parts = append(parts, fmt.Sprintf("score mate %v", mateDistance(result.Score)))
	} else {
		parts = append(parts, fmt.Sprintf("score cp %v", int(result.Score)))
	}
	if result.Elapsed > 0 {
		parts = append(parts, fmt.Sprintf("time %v", result.Elapsed.Milliseconds()))
	}
	parts = append(parts, "pv", result.Move.String())
	return strings.Join(parts, " ")
}

// mateDistance renders a mating score as a move count (not plies), matching UCI's
// "score mate <y>" convention; negative when the side to move is the one getting mated.
func mateDistance(s eval.Score) int {
	plies := int(eval.MaxEval - s)
	if s < 0 {
		plies = int(s - eval.MinEval)
	}
	moves := (plies + 1) / 2
	if s < 0 {
		return -moves
	}
	return moves
}
