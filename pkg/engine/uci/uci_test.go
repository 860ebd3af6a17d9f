package uci_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mwkent/chess-ai/pkg/engine"
	"github.com/mwkent/chess-ai/pkg/engine/uci"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUCIHandshake(t *testing.T) {
	ctx := context.Background()
	e := engine.New(ctx)

	in := make(chan string, 10)
	_, out := uci.NewDriver(ctx, e, in)

	lines := collect(t, out, 5)
	require.GreaterOrEqual(t, len(lines), 3)
	assert.True(t, strings.HasPrefix(lines[0], "id name"))
	assert.True(t, strings.HasPrefix(lines[1], "id author"))
	assert.Equal(t, "uciok", lines[len(lines)-1])

	in <- "isready"
	assert.Equal(t, "readyok", next(t, out))

	close(in)
}

func TestUCIPositionAndGoProducesBestmove(t *testing.T) {
	ctx := context.Background()
	e := engine.New(ctx, engine.WithMaxDepth(2))

	in := make(chan string, 10)
	_, out := uci.NewDriver(ctx, e, in)
	drain(t, out, "uciok")

	in <- "position startpos"
	in <- "go movetime 100"

	bestmove := waitForPrefix(t, out, "bestmove", 3*time.Second)
	assert.True(t, strings.HasPrefix(bestmove, "bestmove "))
	assert.NotEqual(t, "bestmove 0000", bestmove)

	close(in)
}

func collect(t *testing.T, out <-chan string, n int) []string {
	t.Helper()
	var lines []string
	for i := 0; i < n; i++ {
		select {
		case l := <-out:
			lines = append(lines, l)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for line %d", i)
		}
	}
	return lines
}

func next(t *testing.T, out <-chan string) string {
	t.Helper()
	select {
	case l := <-out:
		return l
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a line")
		return ""
	}
}

func drain(t *testing.T, out <-chan string, until string) {
	t.Helper()
	for {
		l := next(t, out)
		if l == until {
			return
		}
	}
}

func waitForPrefix(t *testing.T, out <-chan string, prefix string, timeout time.Duration) string {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case l := <-out:
			if strings.HasPrefix(l, prefix) {
				return l
			}
		case <-deadline:
			t.Fatalf("timed out waiting for a line with prefix %q", prefix)
			return ""
		}
	}
}
