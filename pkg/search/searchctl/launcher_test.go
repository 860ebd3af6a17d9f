package searchctl_test

import (
	"context"
	"testing"
	"time"

	"github.com/mwkent/chess-ai/pkg/board"
	"github.com/mwkent/chess-ai/pkg/board/fen"
	"github.com/mwkent/chess-ai/pkg/search"
	"github.com/mwkent/chess-ai/pkg/search/searchctl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBoard(t *testing.T, f string) *board.Board {
	t.Helper()
	pos, turn, noprogress, fullmoves, err := fen.Decode(f)
	require.NoError(t, err)
	zt := board.NewZobristTable(0)
	return board.NewBoard(zt, pos, turn, noprogress, fullmoves)
}

func TestLauncherDeliversResultOnCompletion(t *testing.T) {
	ctx := context.Background()

	b := newBoard(t, fen.Initial)
	calc := search.NewCalculator(b, search.NoTranspositionTable{}, 2)

	var l searchctl.Launcher
	_, out := l.Launch(ctx, calc, b, 200*time.Millisecond)

	select {
	case result := <-out:
		assert.False(t, result.Move.IsNull())
	case <-time.After(2 * time.Second):
		t.Fatal("launcher never delivered a result")
	}
}

func TestLauncherHaltReturnsBestSoFar(t *testing.T) {
	ctx := context.Background()

	b := newBoard(t, fen.Initial)
	calc := search.NewCalculator(b, search.NoTranspositionTable{}, 0) // unbounded depth

	var l searchctl.Launcher
	handle, out := l.Launch(ctx, calc, b, 5*time.Second)

	result := handle.Halt()
	assert.False(t, result.Move.IsNull(), "halting mid-search should still return a legal move")

	select {
	case fromChan := <-out:
		assert.Equal(t, result.Move, fromChan.Move)
	case <-time.After(2 * time.Second):
		t.Fatal("process goroutine never closed out after Halt")
	}
}

func TestLauncherHaltIsIdempotent(t *testing.T) {
	ctx := context.Background()

	b := newBoard(t, fen.Initial)
	calc := search.NewCalculator(b, search.NoTranspositionTable{}, 1)

	var l searchctl.Launcher
	handle, _ := l.Launch(ctx, calc, b, time.Second)

	first := handle.Halt()
	second := handle.Halt()
	assert.Equal(t, first.Move, second.Move)
}
