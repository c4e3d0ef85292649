package engine

import (
	"testing"

	dragon "github.com/dylhunn/dragontoothmg"
)

func nodeParams(nodes int64, threads int) SearchParams {
	params := DefaultSearchParams()
	params.Infinite = true
	params.Nodes = nodes
	params.Threads = threads
	return params
}

func mcSearch(fen string, eval Evaluator, params SearchParams) (dragon.Move, *SearchContext) {
	mc := NewMonteCarlo(eval)
	ctx := NewSearchContext(dragon.ParseFen(fen), params)
	return mc.Search(ctx), ctx
}

func TestMonteCarloMateInOne(t *testing.T) {
	tests := []struct {
		name  string
		fen   string
		nodes int64
		mates []string
	}{
		{"rook", "k7/8/1K6/2R5/8/8/8/8 w - - 0 1", 5000, []string{"c5c8"}},
		{"bishops", "k7/8/1K1B4/8/2B5/8/8/8 w - - 0 1", 20000, []string{"c4d5"}},
		{"rook and knight", "3k4/8/3NK3/8/8/8/8/2R5 w - - 0 1", 20000, []string{"c1c8"}},
		// Promoting to a rook mates as well
		{"promotion", "3k4/5P2/3K4/8/8/8/8/2R5 w - - 0 1", 20000, []string{"f7f8q", "f7f8r"}},
	}
	for _, tt := range tests {
		move, _ := mcSearch(tt.fen, nil, nodeParams(tt.nodes, 1))
		got := MoveString(move)
		found := false
		for _, mate := range tt.mates {
			found = found || got == mate
		}
		if !found {
			t.Errorf("%s: expected one of %v, got %s", tt.name, tt.mates, got)
		}
	}
}

func TestMonteCarloMateInOneThreaded(t *testing.T) {
	move, ctx := mcSearch("k7/8/1K6/2R5/8/8/8/8 w - - 0 1", nil, nodeParams(20000, 4))
	if got := MoveString(move); got != "c5c8" {
		t.Errorf("expected c5c8, got %s", got)
	}
	if ctx.Nodes() < 20000 {
		t.Errorf("stopped early at %d nodes", ctx.Nodes())
	}
}

func TestMonteCarloSingleLegalMove(t *testing.T) {
	move, ctx := mcSearch("7k/8/8/8/8/8/1q6/K7 w - - 0 1", nil, nodeParams(5000, 2))
	if got := MoveString(move); got != "a1b2" {
		t.Errorf("expected a1b2, got %s", got)
	}
	if ctx.Nodes() != 0 {
		t.Errorf("a forced move should not be searched, visited %d nodes", ctx.Nodes())
	}
}

func TestMonteCarloNoLegalMoves(t *testing.T) {
	move, _ := mcSearch("3k4/7R/2Q5/8/8/8/8/3K4 b - - 0 1", nil, nodeParams(1000, 1))
	if move != NoMove {
		t.Errorf("stalemated side returned %s", MoveString(move))
	}
}

func TestMonteCarloLeavesBoardUnchanged(t *testing.T) {
	for _, threads := range []int{1, 3} {
		board := dragon.ParseFen("r1bqkbnr/pppp1ppp/2n5/4p3/2B1P3/5Q2/PPPP1PPP/RNB1K1NR w KQkq - 2 3")
		before := board.ToFen()
		ctx := NewSearchContext(board, nodeParams(3000, threads))
		NewMonteCarlo(nil).Search(ctx)
		if after := ctx.Board().ToFen(); after != before {
			t.Errorf("%d threads: board changed: %s -> %s", threads, before, after)
		}
	}
}

func TestMonteCarloStoppedBeforeStart(t *testing.T) {
	board := dragon.ParseFen(dragon.Startpos)
	ctx := NewSearchContext(board, nodeParams(0, 2))
	ctx.Stop()

	move := NewMonteCarlo(nil).Search(ctx)
	if _, err := FindMove(&board, MoveString(move)); err != nil {
		t.Errorf("stopped search should still return a legal move: %v", err)
	}
}

func TestMonteCarloWithEvaluator(t *testing.T) {
	// Only the rook capture avoids being a queen down
	move, _ := mcSearch("k7/8/8/3q4/8/8/8/K2R4 w - - 0 1", NewMaterialEvaluator(), nodeParams(3000, 1))
	if got := MoveString(move); got != "d1d5" {
		t.Errorf("expected d1d5, got %s", got)
	}
}

func TestMonteCarloReportsProgress(t *testing.T) {
	reporter := &recordingReporter{}
	mc := NewMonteCarlo(nil)
	ctx := NewSearchContext(dragon.ParseFen(dragon.Startpos), nodeParams(2000, 1))
	ctx.SetReporter(reporter)

	mc.Search(ctx)
	if len(reporter.infos) == 0 {
		t.Fatalf("expected a final progress report")
	}
	last := reporter.infos[len(reporter.infos)-1]
	if len(last.Pv) == 0 || last.Nodes < 2000 {
		t.Errorf("unexpected final report %+v", last)
	}
}

func TestMonteCarloSearchMoves(t *testing.T) {
	params := nodeParams(3000, 2)
	params.SearchMoves = []string{"a2a3", "h2h3"}
	move, _ := mcSearch(dragon.Startpos, nil, params)
	if got := MoveString(move); got != "a2a3" && got != "h2h3" {
		t.Errorf("search left the requested moves: %s", got)
	}
}

func TestPlayoutKeepsWorkerState(t *testing.T) {
	ctx := NewSearchContext(dragon.ParseFen(dragon.Startpos), nodeParams(0, 1))
	w := NewMonteCarlo(nil).newWorker(0, ctx)
	before := w.board.ToFen()
	historyLen := len(w.history)

	for i := 0; i < 20; i++ {
		if result := w.playout(); result < -1 || result > 1 {
			t.Fatalf("playout result %d out of range", result)
		}
	}
	if w.board.ToFen() != before {
		t.Errorf("playout moved the worker's board")
	}
	if len(w.history) != historyLen {
		t.Errorf("playout left %d history entries behind", len(w.history)-historyLen)
	}
}

// Has material piece values but panics whenever asked for a score
type failingEvaluator struct {
	MaterialEvaluator
}

func (e *failingEvaluator) Evaluate(ctx *SearchContext, board *dragon.Board) EvalCp {
	panic("evaluator failed")
}

func TestMonteCarloEvaluatorPanics(t *testing.T) {
	fen := "k7/8/1K6/2R5/8/8/8/8 w - - 0 1"
	mc := NewMonteCarlo(&failingEvaluator{})
	ctx := NewSearchContext(dragon.ParseFen(fen), nodeParams(2000, 2))

	move := mc.Search(ctx)
	// The mate is found without asking the evaluator
	if got := MoveString(move); got != "c5c8" {
		t.Errorf("expected c5c8, got %s", got)
	}
	if mc.simulationFailures.Load() == 0 {
		t.Errorf("expected failed simulations to be counted")
	}
	if after := ctx.Board().ToFen(); after != fen {
		t.Errorf("board changed: %s", after)
	}

	w := mc.newWorker(0, NewSearchContext(dragon.ParseFen(dragon.Startpos), nodeParams(0, 1)))
	failures := mc.simulationFailures.Load()
	if result := w.simulate(); result != 0 {
		t.Errorf("failed simulation scored %d, want 0", result)
	}
	if mc.simulationFailures.Load() != failures+1 {
		t.Errorf("failed simulation was not counted")
	}
}
