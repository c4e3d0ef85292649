package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	dragon "github.com/dylhunn/dragontoothmg"
	"github.com/pkg/profile"

	"github.com/clanpj/duo/engine"
	"github.com/clanpj/duo/logx"
)

func main() {
	fen := flag.String("fen", dragon.Startpos, "position to search")
	depth := flag.Int("depth", 10, "alpha-beta depth")
	nodes := flag.Int64("nodes", 0, "node budget; 0 for none")
	algorithm := flag.String("algorithm", "alphabeta", "alphabeta or montecarlo")
	threads := flag.Int("threads", 1, "monte-carlo worker threads")
	mode := flag.String("profile", "cpu", "cpu, mem or block")
	flag.Parse()

	logx.SetLevel("debug")
	log := logx.NewLogger(os.Stderr)

	// Bad input exits before the profiler starts, so a profile is always complete
	board, alg, err := parseArgs(*fen, *algorithm)
	if err != nil {
		log.Fatal().Err(err).Msg("bad arguments")
	}

	var opt func(*profile.Profile)
	switch *mode {
	case "mem":
		opt = profile.MemProfile
	case "block":
		opt = profile.BlockProfile
	default:
		opt = profile.CPUProfile
	}
	defer profile.Start(opt, profile.ProfilePath("."), profile.NoShutdownHook).Stop()

	params := engine.DefaultSearchParams()
	params.Depth = *depth
	params.Nodes = *nodes
	params.Infinite = true
	params.Threads = *threads

	ctx := engine.NewSearchContext(board, params)
	ctx.SetLogger(log)

	var search engine.Engine
	if alg == engine.MonteCarloSearch {
		mc := engine.NewMonteCarlo(nil)
		mc.SetLogger(log)
		search = mc
		if ctx.Params.Nodes <= 0 {
			ctx.Params.Nodes = 1000000
		}
	} else {
		ab := engine.NewAlphaBeta(engine.NewTranspositionTable(engine.DefaultHashMB), engine.NewMaterialEvaluator())
		ab.SetLogger(log)
		search = ab
	}

	start := time.Now()
	move := search.Search(ctx)
	elapsed := time.Since(start)

	log.Info().
		Str("fen", *fen).
		Stringer("algorithm", alg).
		Str("bestmove", engine.MoveString(move)).
		Int64("nodes", ctx.Nodes()).
		Dur("elapsed", elapsed).
		Msg("profiled search done")
	ctx.Stats.Log(log)
}

func parseArgs(fen string, algorithm string) (dragon.Board, engine.SearchAlgorithmT, error) {
	board, err := engine.ParseFen(fen)
	if err != nil {
		return board, engine.AlphaBetaSearch, err
	}
	alg, ok := engine.ParseSearchAlgorithm(algorithm)
	if !ok {
		return board, alg, fmt.Errorf("unknown search algorithm %q", algorithm)
	}
	return board, alg, nil
}
