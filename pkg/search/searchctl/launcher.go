package searchctl

import (
	"context"
	"sync"
	"time"

	"github.com/mwkent/chess-ai/pkg/board"
	"github.com/mwkent/chess-ai/pkg/search"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/util/contextx"
	"github.com/seekerror/stdlib/pkg/util/iox"
)

// Handle lets the engine manage an in-flight search: stop it and retrieve the best result
// found so far (spec 5: "stop" either flips the cancellation flag or signals the deadline).
type Handle interface {
	// Halt stops the search, if running, and returns the best result found. Idempotent.
	Halt() search.Calculation
}

// Launcher runs a Calculator in the background, so the UCI driver's input-reading thread
// is never blocked on search (spec 5, 6.2: "go" returns immediately and "bestmove" arrives
// asynchronously).
type Launcher struct{}

// Launch starts a calculation on b (which the caller must own exclusively -- typically a
// Board.Fork) with the given deadline, and returns a Handle plus a channel that receives
// exactly one Calculation when the search completes or is halted.
func (Launcher) Launch(ctx context.Context, calc *search.Calculator, b *board.Board, deadline time.Duration) (Handle, <-chan search.Calculation) {
	out := make(chan search.Calculation, 1)
	h := &handle{quit: iox.NewAsyncCloser(), finished: make(chan struct{})}

	go h.process(ctx, calc, deadline, out)

	return h, out
}

type handle struct {
	quit     iox.AsyncCloser
	finished chan struct{}

	mu     sync.Mutex
	result search.Calculation
}

func (h *handle) process(ctx context.Context, calc *search.Calculator, deadline time.Duration, out chan search.Calculation) {
	defer close(out)
	defer close(h.finished)

	wctx, cancel := contextx.WithQuitCancel(ctx, h.quit.Closed())
	defer cancel()

	result := calc.Calculate(wctx, deadline)
	if contextx.IsCancelled(wctx) {
		logw.Debugf(ctx, "Search halted before deadline: %v", result)
	}

	h.mu.Lock()
	h.result = result
	h.mu.Unlock()

	out <- result
}

// Halt stops the search, if still running, and blocks until it has unwound, returning the
// best result found so far. Idempotent: halting an already-finished search just returns its
// result (spec 5: "a timeout firing after the search has already returned is a no-op").
func (h *handle) Halt() search.Calculation {
	h.quit.Close()
	<-h.finished

	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result
}
