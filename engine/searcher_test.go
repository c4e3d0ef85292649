package engine

import (
	"errors"
	"sync"
	"testing"
	"time"

	dragon "github.com/dylhunn/dragontoothmg"
	"github.com/rs/zerolog"
)

type chanReporter struct {
	mu       sync.Mutex
	messages []string
	best     chan dragon.Move
}

func newChanReporter() *chanReporter {
	return &chanReporter{best: make(chan dragon.Move, 8)}
}

func (r *chanReporter) Info(SearchInfo) {}

func (r *chanReporter) Message(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msg)
}

func (r *chanReporter) BestMove(move dragon.Move) { r.best <- move }

func (r *chanReporter) waitBest(t *testing.T) dragon.Move {
	t.Helper()
	select {
	case move := <-r.best:
		return move
	case <-time.After(30 * time.Second):
		t.Fatalf("no bestmove reported")
	}
	return NoMove
}

func TestSearcherStopBeforeSearch(t *testing.T) {
	s := NewSearcher(nil, zerolog.Nop())
	s.Stop()
	s.Stop()
	s.Wait()
	if s.Searching() {
		t.Errorf("idle searcher claims to be searching")
	}
}

func TestSearcherSearchesCurrentPosition(t *testing.T) {
	reporter := newChanReporter()
	s := NewSearcher(reporter, zerolog.Nop())

	if err := s.SetupPosition("6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", nil); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := s.Start(depthParams(4)); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := MoveString(reporter.waitBest(t)); got != "a1a8" {
		t.Errorf("expected a1a8, got %s", got)
	}
	s.Wait()
	if s.Searching() {
		t.Errorf("searcher still busy after reporting")
	}
}

func TestSearcherRejectsConcurrentStart(t *testing.T) {
	reporter := newChanReporter()
	s := NewSearcher(reporter, zerolog.Nop())

	params := DefaultSearchParams()
	params.Infinite = true
	params.Nodes = 0
	if err := s.Start(params); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Start(params); !errors.Is(err, ErrSearchInProgress) {
		t.Errorf("expected ErrSearchInProgress, got %v", err)
	}

	s.Stop()
	move := reporter.waitBest(t)
	board := dragon.ParseFen(dragon.Startpos)
	if _, err := FindMove(&board, MoveString(move)); err != nil {
		t.Errorf("stopped search reported an illegal move: %v", err)
	}

	reporter.mu.Lock()
	defer reporter.mu.Unlock()
	if len(reporter.messages) != 1 {
		t.Errorf("expected one advisory message, got %q", reporter.messages)
	}
}

func TestSearcherStartAfterStop(t *testing.T) {
	reporter := newChanReporter()
	s := NewSearcher(reporter, zerolog.Nop())

	params := DefaultSearchParams()
	params.Infinite = true
	params.Nodes = 0
	if err := s.Start(params); err != nil {
		t.Fatalf("start: %v", err)
	}
	s.Stop()
	// Accepted straight away; runs once the stopped search has unwound
	if err := s.Start(depthParams(2)); err != nil {
		t.Fatalf("restart: %v", err)
	}
	reporter.waitBest(t)
	reporter.waitBest(t)
}

func TestSearcherSetupPosition(t *testing.T) {
	s := NewSearcher(nil, zerolog.Nop())

	if err := s.SetupPosition(dragon.Startpos, []string{"e2e4", "e7e5", "g1f3"}); err != nil {
		t.Fatalf("setup: %v", err)
	}
	board := s.Board()
	if board.Wtomove {
		t.Errorf("expected black to move")
	}
	want := board.ToFen()

	if err := s.SetupPosition(dragon.Startpos, []string{"e2e4", "e2e4"}); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("expected ErrIllegalMove, got %v", err)
	}
	if err := s.SetupPosition("not a fen", nil); err == nil {
		t.Errorf("expected an error for a bad FEN")
	}
	board = s.Board()
	if got := board.ToFen(); got != want {
		t.Errorf("failed setup changed the position to %s", got)
	}

	s.NewGame()
	board = s.Board()
	start := dragon.ParseFen(dragon.Startpos)
	if !board.Wtomove || board.ToFen() != start.ToFen() {
		t.Errorf("new game did not reset the position")
	}
}

func TestSearcherRepetitionHistory(t *testing.T) {
	s := NewSearcher(nil, zerolog.Nop())
	moves := []string{"g1f3", "g8f6", "f3g1", "f6g8", "g1f3"}
	if err := s.SetupPosition(dragon.Startpos, moves); err != nil {
		t.Fatalf("setup: %v", err)
	}

	s.mu.Lock()
	history := NewHistoryTable(s.history...)
	s.mu.Unlock()
	board := s.Board()
	if !history.IsRepetition(board.Hash()) {
		t.Errorf("position after %v should count as repeated", moves)
	}
}

func TestSearcherMonteCarlo(t *testing.T) {
	reporter := newChanReporter()
	s := NewSearcher(reporter, zerolog.Nop())
	s.SetAlgorithm(MonteCarloSearch)
	s.SetThreads(2)

	if err := s.SetupPosition("k7/8/1K6/2R5/8/8/8/8 w - - 0 1", nil); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := s.Start(nodeParams(20000, 0)); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := MoveString(reporter.waitBest(t)); got != "c5c8" {
		t.Errorf("expected c5c8, got %s", got)
	}
}

// Records the parameters of every search it is handed.
type paramsEngine struct {
	params chan SearchParams
}

func (e *paramsEngine) Search(ctx *SearchContext) dragon.Move {
	e.params <- ctx.Params
	return firstMove(ctx.RootMoves())
}

func TestSearcherUsesThreadsOption(t *testing.T) {
	reporter := newChanReporter()
	s := NewSearcher(reporter, zerolog.Nop())
	recorder := &paramsEngine{params: make(chan SearchParams, 2)}
	s.engines[AlphaBetaSearch] = recorder

	if err := s.Options().Set("Threads", "4"); err != nil {
		t.Fatalf("set threads: %v", err)
	}
	if err := s.Start(DefaultSearchParams()); err != nil {
		t.Fatalf("start: %v", err)
	}
	reporter.waitBest(t)
	if got := (<-recorder.params).Threads; got != 4 {
		t.Errorf("search ran with %d threads, want 4", got)
	}

	// An explicit count in the request wins
	params := DefaultSearchParams()
	params.Threads = 2
	if err := s.Start(params); err != nil {
		t.Fatalf("start: %v", err)
	}
	reporter.waitBest(t)
	if got := (<-recorder.params).Threads; got != 2 {
		t.Errorf("search ran with %d threads, want 2", got)
	}
}

func TestSearcherSettingsRefusedWhileSearching(t *testing.T) {
	reporter := newChanReporter()
	s := NewSearcher(reporter, zerolog.Nop())
	options := s.Options()

	params := DefaultSearchParams()
	params.Infinite = true
	params.Nodes = 0
	if err := s.Start(params); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Each must come straight back rather than wait for the search
	for _, set := range []struct{ name, value string }{
		{"Hash", "4"},
		{"Temperature", "75"},
		{"Evaluator", "PawnStructure"},
	} {
		if err := options.Set(set.name, set.value); !errors.Is(err, ErrSearchInProgress) {
			t.Errorf("set %s during a search: got %v, want ErrSearchInProgress", set.name, err)
		}
	}
	if err := s.SetSimulationEvaluator(NewMaterialEvaluator()); !errors.Is(err, ErrSearchInProgress) {
		t.Errorf("simulation evaluator during a search: got %v", err)
	}

	s.Stop()
	reporter.waitBest(t)
	s.Wait()

	if err := options.Set("Hash", "4"); err != nil || s.HashMB() != 4 {
		t.Errorf("set Hash after the search: %v, size %d", err, s.HashMB())
	}
	if err := options.Set("Evaluator", "PawnStructure"); err != nil || s.EvaluatorName() != "PawnStructure" {
		t.Errorf("set Evaluator after the search: %v", err)
	}
}
