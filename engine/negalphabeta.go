package engine

import (
	dragon "github.com/dylhunn/dragontoothmg"
	"github.com/rs/zerolog"
)

// AlphaBeta is the deterministic engine: iterative deepening negamax with
// aspiration windows, null-move pruning, PVS and quiescence search.
type AlphaBeta struct {
	tt   *TranspositionTable
	eval Evaluator
	log  zerolog.Logger
}

func NewAlphaBeta(tt *TranspositionTable, eval Evaluator) *AlphaBeta {
	if tt == nil {
		tt = NewTranspositionTable(DefaultHashMB)
	}
	if eval == nil {
		eval = NewMaterialEvaluator()
	}
	return &AlphaBeta{tt: tt, eval: eval, log: zerolog.Nop()}
}

func (ab *AlphaBeta) SetLogger(log zerolog.Logger) {
	ab.log = log
}

// SetEvaluator takes effect from the next search. nil restores the material evaluator.
func (ab *AlphaBeta) SetEvaluator(eval Evaluator) {
	if eval == nil {
		eval = NewMaterialEvaluator()
	}
	ab.eval = eval
}

func (ab *AlphaBeta) Evaluator() Evaluator {
	return ab.eval
}

func (ab *AlphaBeta) TT() *TranspositionTable {
	return ab.tt
}

// Per-search state
type SearchT struct {
	ctx   *SearchContext
	board *dragon.Board
	tt    *TranspositionTable
	eval  Evaluator
	stats *SearchStatsT
}

func (ab *AlphaBeta) Search(ctx *SearchContext) dragon.Move {
	board := ctx.Board()
	fenBefore := board.ToFen()
	defer checkFenUnchanged(ab.log, fenBefore, board)

	rootMoves := ctx.RootMoves()
	if len(rootMoves) == 0 {
		return NoMove
	}
	if len(rootMoves) == 1 {
		return rootMoves[0]
	}

	s := &SearchT{ctx: ctx, board: board, tt: ab.tt, eval: ab.eval, stats: &ctx.Stats}

	maxDepth := ctx.Params.Depth
	if maxDepth <= 0 || maxDepth > MaxDepth {
		maxDepth = MaxDepth
	}

	bestMove := NoMove
	score := DrawEval
	depth := 0
	for depth = MinDepth; depth <= maxDepth; depth++ {
		window := EvalCp(AspirationWindow)
		alpha, beta := -MaxValue, MaxValue
		if depth >= AspirationMinDepth {
			alpha, beta = max(score-window, -MaxValue), min(score+window, MaxValue)
		}

		stopped := false
		for {
			eval := s.NegAlphaBeta(alpha, beta, depth, 0, true)
			if ctx.ShouldStop() {
				stopped = true
				break
			}
			score = eval
			if move := ctx.pvMove(); move != NoMove {
				bestMove = move
			}

			if score <= alpha {
				alpha = max(score-window, -MaxValue)
				beta = (alpha + beta) / 2
			} else if score >= beta {
				beta = min(score+window, MaxValue)
			} else {
				break
			}
			s.stats.AspirationRetries++
			window += window / 4
		}

		if stopped {
			// A partial first iteration is better than nothing
			if bestMove == NoMove {
				bestMove = ctx.pvMove()
			}
			break
		}

		ctx.Report(SearchInfo{Depth: depth, Score: score, Nodes: ctx.Nodes(), Elapsed: ctx.Elapsed(), Pv: ctx.PvLine()})
	}

	if bestMove == NoMove {
		bestMove = firstMove(rootMoves)
	}

	ab.log.Info().
		Int("depth", depth-1).
		Int32("score", int32(score)).
		Int64("nodes", ctx.Nodes()).
		Dur("elapsed", ctx.Elapsed()).
		Str("move", MoveString(bestMove)).
		Msg("alpha-beta search complete")
	s.stats.Log(ab.log)

	return bestMove
}

// Negamax alpha-beta, fail-soft. Returns the eval from the side-to-move's perspective.
func (s *SearchT) NegAlphaBeta(alpha EvalCp, beta EvalCp, depthToGo int, depthFromRoot int, allowNullMove bool) EvalCp {
	if depthToGo <= 0 || depthFromRoot >= MaxDepth {
		return s.QSearchNegAlphaBeta(alpha, beta, depthFromRoot)
	}
	s.ctx.ClearPv(depthFromRoot)

	s.ctx.AddNodes(1)
	if s.ctx.ShouldStop() {
		return DrawEval
	}

	board := s.board
	zobrist := board.Hash()
	if depthFromRoot > 0 && (s.ctx.History.IsRepetition(zobrist) || board.Halfmoveclock >= 100) {
		s.stats.PosRepetitions++
		return DrawEval
	}
	s.stats.NonLeafs++

	// Mate distance pruning - no point looking for mates longer than one we already have
	if depthFromRoot > 0 {
		alpha = max(alpha, -MateValue+EvalCp(depthFromRoot))
		beta = min(beta, MateValue-EvalCp(depthFromRoot+1))
		if alpha >= beta {
			return alpha
		}
	}
	origAlpha := alpha

	hashMove := NoMove
	if UseTT {
		if ttEntry, isHit := s.tt.Get(zobrist, depthFromRoot); isHit {
			s.stats.TTHits++
			hashMove = ttEntry.BestMove
			if depthFromRoot > 0 && ttEntry.DepthToGo >= depthToGo {
				switch ttEntry.EvalType {
				case TTEvalExact:
					s.stats.TTExactHits++
					return ttEntry.Eval
				case TTEvalLowerBound:
					alpha = max(alpha, ttEntry.Eval)
				case TTEvalUpperBound:
					beta = min(beta, ttEntry.Eval)
				}
				if alpha >= beta {
					s.stats.TTBoundCuts++
					return ttEntry.Eval
				}
			}
		}
	}

	isInCheck := board.OurKingInCheck()

	if nullMoveEval, isCut := s.nullMove(depthToGo, depthFromRoot, beta, allowNullMove, isInCheck, zobrist); isCut {
		return nullMoveEval
	}

	var moves []dragon.Move
	if depthFromRoot == 0 {
		moves = s.ctx.RootMoves()
	} else {
		moves = board.GenerateLegalMoves()
	}

	if len(moves) == 0 {
		if isInCheck {
			// checkmate - closer to root is better
			s.stats.Mates++
			return -MateValue + EvalCp(depthFromRoot)
		}
		s.stats.Stalemates++
		return DrawEval
	}

	if depthFromRoot == 0 && len(s.ctx.moveScores) > 0 {
		orderRootMoves(s.ctx, moves)
	} else {
		orderMoves(s.ctx, s.eval, board, moves, hashMove, depthFromRoot)
	}

	// Check extension
	newDepthToGo := depthToGo - 1
	if isInCheck {
		newDepthToGo = depthToGo
	}

	bestEval := -MaxValue
	bestMove := NoMove
	for i, move := range moves {
		isQuiet := move.Promote() == dragon.Nothing && !IsCapture(board, move)

		unapply := board.Apply(move)
		childZobrist := board.Hash()
		s.ctx.History.Add(childZobrist)

		var eval EvalCp
		if i == 0 {
			eval = -s.NegAlphaBeta(-beta, -alpha, newDepthToGo, depthFromRoot+1, true)
		} else {
			// Scout with a null window, re-search if it lands inside the window
			eval = -s.NegAlphaBeta(-alpha-1, -alpha, newDepthToGo, depthFromRoot+1, true)
			if alpha < eval && eval < beta {
				s.stats.PVSResearches++
				eval = -s.NegAlphaBeta(-beta, -alpha, newDepthToGo, depthFromRoot+1, true)
			}
		}

		s.ctx.History.Remove(childZobrist)
		unapply()

		// Bail cleanly without polluting the TT if we have timed out
		if s.ctx.ShouldStop() {
			return DrawEval
		}

		if depthFromRoot == 0 {
			s.ctx.moveScores[move] = eval
		}

		if eval > bestEval {
			bestEval, bestMove = eval, move
		}

		if eval >= beta {
			s.stats.CutNodes++
			if i == 0 {
				s.stats.FirstChildCuts++
			}
			if isQuiet {
				s.ctx.killers.addKillerMove(move, depthFromRoot)
			}
			if UseTT {
				s.tt.Put(zobrist, eval, depthToGo, TTEvalLowerBound, move, depthFromRoot)
			}
			return eval
		}

		if eval > alpha {
			alpha = eval
			s.ctx.UpdatePv(move, depthFromRoot)
		}
	}

	if UseTT {
		evalType := TTEvalUpperBound
		if alpha > origAlpha {
			evalType = TTEvalExact
		}
		s.tt.Put(zobrist, bestEval, depthToGo, evalType, bestMove, depthFromRoot)
	}

	return bestEval
}

// Try the null-move heuristic. Returns the eval and true if the node can be cut.
func (s *SearchT) nullMove(depthToGo int, depthFromRoot int, beta EvalCp, allowNullMove bool, isInCheck bool, zobrist uint64) (EvalCp, bool) {
	// Never 2 null moves in a row, and never in check otherwise king gets captured.
	// Pawn-only endings are zugzwang-prone so we skip them too.
	if !HeurUseNullMove || !allowNullMove || isInCheck || depthFromRoot == 0 || depthToGo <= NullMoveReduction {
		return DrawEval, false
	}
	if !hasNonPawnMaterial(s.board) || s.eval.Evaluate(s.ctx, s.board) < beta {
		return DrawEval, false
	}

	unapply := applyNullMove(s.board)
	nullMoveEval := -s.NegAlphaBeta(-beta, -beta+1, depthToGo-NullMoveReduction, depthFromRoot+1, false)
	unapply()

	if s.ctx.ShouldStop() || nullMoveEval < beta {
		return DrawEval, false
	}

	// Mates found after passing aren't real mates
	if IsMateScore(nullMoveEval) {
		nullMoveEval = beta
	}
	s.stats.NullMoveCuts++
	if UseTT {
		s.tt.Put(zobrist, nullMoveEval, depthToGo, TTEvalLowerBound, NoMove, depthFromRoot)
	}
	return nullMoveEval, true
}
