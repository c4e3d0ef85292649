package engine

import (
	"fmt"
	"sync/atomic"
	"time"

	dragon "github.com/dylhunn/dragontoothmg"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"
)

// MonteCarlo is the stochastic engine: UCT tree search advanced by random
// playouts, or by an evaluator when one is configured. One tree per call.
type MonteCarlo struct {
	Temperature float64
	eval        Evaluator // nil for random playouts
	log         zerolog.Logger

	playouts           atomic.Int64
	simulationFailures atomic.Int64
}

func NewMonteCarlo(eval Evaluator) *MonteCarlo {
	return &MonteCarlo{Temperature: DefaultTemperature, eval: eval, log: zerolog.Nop()}
}

func (mc *MonteCarlo) SetLogger(log zerolog.Logger) {
	mc.log = log
}

func (mc *MonteCarlo) SetEvaluator(eval Evaluator) {
	mc.eval = eval
}

// Each worker has its own board, history and random source and shares the tree.
type mctsWorker struct {
	id      int
	mc      *MonteCarlo
	ctx     *SearchContext
	board   dragon.Board
	history HistoryTableT
	rng     *frand.RNG
}

func (mc *MonteCarlo) newWorker(id int, ctx *SearchContext) *mctsWorker {
	return &mctsWorker{
		id:      id,
		mc:      mc,
		ctx:     ctx,
		board:   *ctx.Board(),
		history: ctx.History.Clone(),
		rng:     frand.New(),
	}
}

func (mc *MonteCarlo) Search(ctx *SearchContext) dragon.Move {
	board := ctx.Board()
	fenBefore := board.ToFen()
	defer checkFenUnchanged(mc.log, fenBefore, board)

	rootMoves := ctx.RootMoves()
	if len(rootMoves) == 0 {
		return NoMove
	}
	if len(rootMoves) == 1 {
		return rootMoves[0]
	}

	mc.playouts.Store(0)
	mc.simulationFailures.Store(0)

	root := newTreeNode(NoMove, board.Wtomove)
	threads := max(ctx.Params.Threads, 1)

	var g errgroup.Group
	for i := 1; i < threads; i++ {
		w := mc.newWorker(i, ctx)
		g.Go(func() error {
			w.run(root, false)
			return nil
		})
	}
	mc.newWorker(0, ctx).run(root, true)
	_ = g.Wait()

	bestMove := firstMove(rootMoves)
	if best := root.pickBest(); best != nil {
		bestMove = best.move
	}

	mc.log.Info().
		Int("threads", threads).
		Int64("nodes", ctx.Nodes()).
		Int64("root-hits", root.Hits()).
		Int64("playouts", mc.playouts.Load()).
		Int64("simulation-failures", mc.simulationFailures.Load()).
		Dur("elapsed", ctx.Elapsed()).
		Str("move", MoveString(bestMove)).
		Msg("monte-carlo search complete")

	return bestMove
}

// Iterate until the context says stop. The primary worker also reports progress.
func (w *mctsWorker) run(root *TreeNode, isPrimary bool) {
	lastReport := time.Now()
	for !w.ctx.ShouldStop() {
		result := w.searchMove(root, 0)
		root.update(result)

		if isPrimary && time.Since(lastReport) >= ReportInterval {
			lastReport = time.Now()
			w.report(root)
		}
	}
	if isPrimary {
		w.report(root)
	}
}

func (w *mctsWorker) report(root *TreeNode) {
	line := root.bestLine()
	score := DrawEval
	if best := root.pickBest(); best != nil {
		// Smoothed win rate scaled to something a GUI can show
		score = EvalCp(best.winRate()*200) - 100
	}
	w.ctx.Report(SearchInfo{Depth: len(line), Score: score, Nodes: w.ctx.Nodes(), Elapsed: w.ctx.Elapsed(), Pv: line})
}

// One descent from node. Returns the result for the side to move at node:
// +1 win, -1 loss, 0 draw.
func (w *mctsWorker) searchMove(node *TreeNode, ply int) int64 {
	w.ctx.AddNodes(1)

	if result, isTerminal := node.isTerminal(); isTerminal {
		return result
	}

	board := &w.board
	if ply > 0 && w.isDraw() {
		return 0
	}
	if ply >= MaxDepth {
		return 0
	}

	if !node.isExpanded() {
		moves := board.GenerateLegalMoves()
		if ply == 0 {
			moves = w.ctx.filterSearchMoves(moves)
		}
		if len(moves) == 0 {
			result := int64(0)
			if board.OurKingInCheck() {
				result = -1
			}
			node.terminate(result)
			return result
		}
		node.expand(moves)

		child := node.selectChild(w.mc.Temperature)
		unapply := w.applyMove(child.move)
		result := -w.simulate()
		unapply()
		child.update(result)
		return result
	}

	child := node.selectChild(w.mc.Temperature)
	unapply := w.applyMove(child.move)
	result := -w.searchMove(child, ply+1)
	unapply()
	child.update(result)
	return result
}

func (w *mctsWorker) applyMove(move dragon.Move) func() {
	unapply := w.board.Apply(move)
	zobrist := w.board.Hash()
	w.history.Add(zobrist)
	return func() {
		w.history.Remove(zobrist)
		unapply()
	}
}

// Draw by threefold repetition, insufficient material or the 50-move rule
func (w *mctsWorker) isDraw() bool {
	return w.history[w.board.Hash()] >= 3 ||
		w.board.Halfmoveclock >= 100 ||
		IsInsufficientMaterial(&w.board)
}

// Score the worker's current position for its side to move. A simulation
// that panics, in a playout or inside the evaluator, counts as a draw.
func (w *mctsWorker) simulate() (result int64) {
	defer func() {
		if r := recover(); r != nil {
			w.mc.simulationFailures.Add(1)
			w.mc.log.Warn().Int("worker", w.id).Str("fen", w.board.ToFen()).Str("panic", fmt.Sprint(r)).Msg("simulation failed")
			result = 0
		}
	}()

	if w.mc.eval == nil {
		return w.playout()
	}
	w.ctx.AddNodes(1)
	if len(w.board.GenerateLegalMoves()) == 0 {
		if w.board.OurKingInCheck() {
			return -1
		}
		return 0
	}
	eval := w.mc.eval.Evaluate(w.ctx, &w.board)
	switch {
	case eval > 0:
		return 1
	case eval < 0:
		return -1
	}
	return 0
}

// Uniform random game from the current position.
func (w *mctsWorker) playout() int64 {
	w.mc.playouts.Add(1)

	board := w.board // private copy, the worker's board is never touched
	added := make([]uint64, 0, 128)
	// Runs on panic too, so the history is clean for the next descent
	defer func() {
		for _, zobrist := range added {
			w.history.Remove(zobrist)
		}
	}()

	// Result from the playout's first mover's point of view
	sign := int64(1)
	quietPlies := int(board.Halfmoveclock)
	for plies := 0; plies < MaxPlayoutPlies; plies++ {
		w.ctx.AddNodes(1)

		moves := board.GenerateLegalMoves()
		if len(moves) == 0 {
			if board.OurKingInCheck() {
				return -sign
			}
			return 0
		}
		if quietPlies >= 100 || IsInsufficientMaterial(&board) {
			return 0
		}

		move := moves[w.rng.Intn(len(moves))]
		mover, victim := moveVictim(&board, move)
		if mover == dragon.Pawn || victim != dragon.Nothing {
			quietPlies = 0
		} else {
			quietPlies++
		}

		board.Apply(move)
		zobrist := board.Hash()
		added = append(added, zobrist)
		if w.history.Add(zobrist) >= 3 {
			return 0
		}
		sign = -sign
	}
	return 0
}
