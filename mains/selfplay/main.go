package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/clanpj/duo/engine"
	"github.com/clanpj/duo/logx"
	"github.com/clanpj/duo/selfplay"
)

func main() {
	games := flag.Int("games", 10, "number of games")
	parallel := flag.Int("parallel", 2, "games played at once")
	moveTime := flag.Duration("movetime", 100*time.Millisecond, "time per move")
	nodes := flag.Int64("nodes", 0, "node budget per move; 0 for time only")
	mctsThreads := flag.Int("mcts-threads", 1, "monte-carlo workers per move")
	maxPlies := flag.Int("max-plies", 400, "adjudicate a draw after this many plies")
	startFen := flag.String("fen", "", "start position; empty for the standard one")
	output := flag.String("out", "selfplay.pgn.zst", "PGN output, zstd-compressed if it ends in .zst")
	pawnEval := flag.Bool("pawn-eval", false, "alpha-beta scores pawn structure on top of material")
	evalEngine := flag.String("eval-engine", "", "UCI engine for monte-carlo simulations instead of random playouts")
	verify := flag.Bool("verify", true, "re-read the output and check every game replays")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	logx.SetLevel(*logLevel)
	log := logx.NewLogger(os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var simEval engine.Evaluator
	if *evalEngine != "" {
		eval, err := engine.NewUCIEvaluator(*evalEngine, engine.UCIEvalDepth, log)
		if err != nil {
			log.Fatal().Err(err).Str("path", *evalEngine).Msg("failed to start eval engine")
		}
		defer eval.Close()
		simEval = eval
	}

	pairing := func() (selfplay.Player, selfplay.Player) {
		var abEval engine.Evaluator = engine.NewMaterialEvaluator()
		if *pawnEval {
			abEval = engine.NewPawnStructureEvaluator()
		}
		ab := engine.NewAlphaBeta(engine.NewTranspositionTable(64), abEval)
		ab.SetLogger(log.Level(zerolog.WarnLevel))
		mc := engine.NewMonteCarlo(simEval)
		mc.SetLogger(log.Level(zerolog.WarnLevel))
		return selfplay.Player{Name: "AlphaBeta", Engine: ab}, selfplay.Player{Name: "MonteCarlo", Engine: mc}
	}

	cfg := selfplay.MatchConfig{
		StartFEN: *startFen,
		MaxPlies: *maxPlies,
		MoveParams: func() engine.SearchParams {
			params := engine.DefaultSearchParams()
			params.MoveTime = *moveTime
			params.Threads = *mctsThreads
			if *nodes > 0 {
				params.Nodes = *nodes
			}
			return params
		},
	}

	start := time.Now()
	played, err := selfplay.PlayMatch(ctx, pairing, *games, *parallel, cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("match interrupted")
	}

	if err := selfplay.WritePGNFile(*output, played); err != nil {
		log.Fatal().Err(err).Str("path", *output).Msg("failed to write PGN")
	}

	points, finished := selfplay.Score(played, "AlphaBeta")
	log.Info().
		Int("games", finished).
		Float64("alphabeta", points).
		Float64("montecarlo", float64(finished)-points).
		Dur("elapsed", time.Since(start)).
		Str("path", *output).
		Msg("match finished")

	if *verify {
		n, err := selfplay.VerifyPGN(*output)
		if err != nil {
			log.Fatal().Err(err).Int("games", n).Msg("PGN verification failed")
		}
		log.Info().Int("games", n).Msg("PGN verified")
	}
}
