package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/mwkent/chess-ai/pkg/board/fen"
	"github.com/mwkent/chess-ai/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngineStartsAtInitialPosition(t *testing.T) {
	ctx := context.Background()
	e := engine.New(ctx)

	assert.Equal(t, fen.Initial, e.Position())
}

func TestEngineResetAndMove(t *testing.T) {
	ctx := context.Background()
	e := engine.New(ctx)

	require.NoError(t, e.Reset(ctx, fen.Initial))
	require.NoError(t, e.Move(ctx, "e2e4"))

	assert.NotEqual(t, fen.Initial, e.Position())
}

func TestEngineMoveRejectsIllegalMove(t *testing.T) {
	ctx := context.Background()
	e := engine.New(ctx)

	err := e.Move(ctx, "e2e5")
	assert.Error(t, err)
}

func TestEngineGoAndHalt(t *testing.T) {
	ctx := context.Background()
	e := engine.New(ctx, engine.WithMaxDepth(2))

	_, out, err := e.Go(ctx, 500*time.Millisecond)
	require.NoError(t, err)

	select {
	case result := <-out:
		assert.False(t, result.Move.IsNull())
	case <-time.After(2 * time.Second):
		t.Fatal("search never completed")
	}

	_, ok := e.Halt(ctx)
	assert.True(t, ok, "a finished search stays active until halted; Halt returns its result")
}

func TestEngineGoRejectsConcurrentSearch(t *testing.T) {
	ctx := context.Background()
	e := engine.New(ctx, engine.WithMaxDepth(0))

	_, _, err := e.Go(ctx, 5*time.Second)
	require.NoError(t, err)

	_, _, err = e.Go(ctx, 5*time.Second)
	assert.Error(t, err)

	e.Halt(ctx)
}
