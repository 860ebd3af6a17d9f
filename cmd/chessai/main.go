package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mwkent/chess-ai/pkg/engine"
	"github.com/mwkent/chess-ai/pkg/engine/uci"
	"github.com/seekerror/logw"
)

var (
	maxDepth  = flag.Int("depth", 0, "Maximum search depth (0 means unbounded, deadline-limited only)")
	mateDepth = flag.Int("mate-depth", 0, "Forced-mate prober depth (0 uses the engine default)")
	hashMB    = flag.Uint("hash", 64, "Enables the fixed-size transposition table when nonzero (0 disables it)")
)

func init() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `usage: chessai [options]

chessai is a UCI chess engine.
Options:
`)
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	ctx := context.Background()

	// Invariant-violation panics on the main goroutine are caught once here rather than
	// swallowed deeper in the call graph (spec 7). The search runs on a launcher goroutine,
	// so a panic raised there (e.g. in pkg/eval/incremental.go) is not recovered here.
	defer func() {
		if r := recover(); r != nil {
			logw.Exitf(ctx, "panic: %v", r)
		}
	}()

	e := engine.New(ctx,
		engine.WithMaxDepth(*maxDepth),
		engine.WithForcedMateDepth(*mateDepth),
		engine.WithHashSizeMB(*hashMB),
	)

	in := engine.ReadStdinLines(ctx)
	switch <-in {
	case uci.ProtocolName:
		driver, out := uci.NewDriver(ctx, e, in)
		go engine.WriteStdoutLines(ctx, out)

		<-driver.Closed()

	default:
		flag.Usage()
		logw.Exitf(ctx, "Protocol not supported")
	}
}
