package engine

import (
	"fmt"
	"sync"

	dragon "github.com/dylhunn/dragontoothmg"
	"github.com/freeeve/uci"
	"github.com/rs/zerolog"
)

var UCIEvalDepth = 8

// UCIEvaluator scores positions with an external UCI engine searched to a
// fixed depth. Move ordering lookups come from the material tables.
// The external process handles one position at a time.
type UCIEvaluator struct {
	mu       sync.Mutex
	engine   *uci.Engine
	depth    int
	material *MaterialEvaluator
	log      zerolog.Logger
}

func NewUCIEvaluator(path string, depth int, log zerolog.Logger) (*UCIEvaluator, error) {
	engine, err := uci.NewEngine(path)
	if err != nil {
		return nil, fmt.Errorf("create engine: %w", err)
	}

	opts := uci.Options{
		Hash:    16,
		Threads: 1,
		MultiPV: 1,
		Ponder:  false,
		OwnBook: false,
	}
	if err := engine.SetOptions(opts); err != nil {
		engine.Close()
		return nil, fmt.Errorf("set options: %w", err)
	}

	if depth < 1 {
		depth = UCIEvalDepth
	}
	return &UCIEvaluator{engine: engine, depth: depth, material: NewMaterialEvaluator(), log: log}, nil
}

func (e *UCIEvaluator) PieceValue(piece dragon.Piece) EvalCp {
	return e.material.PieceValue(piece)
}

func (e *UCIEvaluator) PieceSquareValue(piece dragon.Piece, white bool, square uint8) EvalCp {
	return e.material.PieceSquareValue(piece, white, square)
}

// Evaluate returns the external engine's score for the side to move.
// Failures are logged and score as a draw.
func (e *UCIEvaluator) Evaluate(ctx *SearchContext, board *dragon.Board) EvalCp {
	fen := board.ToFen()

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.engine.SetFEN(fen); err != nil {
		e.log.Warn().Err(err).Str("fen", fen).Msg("set FEN failed")
		return DrawEval
	}

	results, err := e.engine.GoDepth(e.depth, uci.HighestDepthOnly)
	if err != nil {
		e.log.Warn().Err(err).Str("fen", fen).Msg("external eval failed")
		return DrawEval
	}
	if len(results.Results) == 0 {
		e.log.Warn().Str("fen", fen).Msg("no results from external engine")
		return DrawEval
	}

	best := results.Results[0]
	for _, r := range results.Results {
		if r.Depth > best.Depth {
			best = r
		}
	}

	// Scores are already from the side-to-move's perspective
	if best.Mate {
		if best.Score > 0 {
			return MateValue - EvalCp(2*best.Score-1)
		}
		return -MateValue + EvalCp(-2*best.Score)
	}
	return min(max(EvalCp(best.Score), -MateThreshold+1), MateThreshold-1)
}

func (e *UCIEvaluator) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.engine.Close()
}
