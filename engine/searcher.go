package engine

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	dragon "github.com/dylhunn/dragontoothmg"
	"github.com/rs/zerolog"
)

var ErrSearchInProgress = errors.New("search in progress")

// Searcher owns the game position and runs at most one search at a time on
// whichever engine is selected. Searches run in the background; results go
// to the Reporter.
type Searcher struct {
	mu sync.Mutex

	board   dragon.Board
	history []uint64 // hashes of every game position, current one last

	tt         *TranspositionTable
	alphaBeta  *AlphaBeta
	monteCarlo *MonteCarlo
	engines    map[SearchAlgorithmT]Engine
	algorithm  SearchAlgorithmT
	threads    int

	current *SearchContext // nil when idle or stopped
	done    chan struct{}  // closed when the latest search goroutine exits

	reporter Reporter
	log      zerolog.Logger
}

func NewSearcher(reporter Reporter, log zerolog.Logger) *Searcher {
	if reporter == nil {
		reporter = nopReporter{}
	}
	eval := NewMaterialEvaluator()
	tt := NewTranspositionTable(DefaultHashMB)
	alphaBeta := NewAlphaBeta(tt, eval)
	alphaBeta.SetLogger(log)
	monteCarlo := NewMonteCarlo(nil)
	monteCarlo.SetLogger(log)

	s := &Searcher{
		tt:         tt,
		alphaBeta:  alphaBeta,
		monteCarlo: monteCarlo,
		engines: map[SearchAlgorithmT]Engine{
			AlphaBetaSearch:  alphaBeta,
			MonteCarloSearch: monteCarlo,
		},
		algorithm: SearchAlgorithm,
		threads:   DefaultThreads,
		reporter:  reporter,
		log:       log,
	}
	s.resetBoard()
	return s
}

func (s *Searcher) resetBoard() {
	s.board = dragon.ParseFen(dragon.Startpos)
	s.history = []uint64{s.board.Hash()}
}

// ParseFen parses a FEN, reporting malformed input as an error rather than a panic.
func ParseFen(fen string) (board dragon.Board, err error) {
	fields := strings.Fields(fen)
	if len(fields) < 4 || strings.Count(fields[0], "/") != 7 {
		return board, fmt.Errorf("invalid FEN %q", fen)
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid FEN %q: %v", fen, r)
		}
	}()
	return dragon.ParseFen(fen), nil
}

// SetupPosition sets the game position from a FEN followed by UCI moves.
// On error the previous position is kept.
func (s *Searcher) SetupPosition(fen string, moves []string) error {
	board, err := ParseFen(fen)
	if err != nil {
		return err
	}
	history := []uint64{board.Hash()}
	for _, moveStr := range moves {
		move, err := FindMove(&board, moveStr)
		if err != nil {
			return fmt.Errorf("setup position: %w", err)
		}
		board.Apply(move)
		history = append(history, board.Hash())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.board = board
	s.history = history
	return nil
}

// Board returns a copy of the current game position.
func (s *Searcher) Board() dragon.Board {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board
}

// Start launches a search and returns immediately. While a search is
// outstanding it does nothing but report an advisory message.
func (s *Searcher) Start(params SearchParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		s.reporter.Message("search already in progress")
		return ErrSearchInProgress
	}

	if params.Threads <= 0 {
		params.Threads = s.threads
	}
	ctx := NewSearchContext(s.board, params)
	ctx.History = NewHistoryTable(s.history...)
	ctx.SetReporter(s.reporter)
	ctx.SetLogger(s.log)

	engine := s.engines[s.algorithm]
	prev := s.done
	done := make(chan struct{})
	s.current = ctx
	s.done = done

	go func() {
		defer close(done)
		// A stopped search may still be unwinding
		if prev != nil {
			<-prev
		}
		move := engine.Search(ctx)

		s.mu.Lock()
		if s.current == ctx {
			s.current = nil
		}
		s.mu.Unlock()

		s.reporter.BestMove(move)
	}()
	return nil
}

// Stop asks the outstanding search, if any, to finish. Always safe.
func (s *Searcher) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		s.current.Stop()
		s.current = nil
	}
}

// Wait blocks until the latest search has reported its move.
func (s *Searcher) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (s *Searcher) Searching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// NewGame resets the position and forgets cached results.
func (s *Searcher) NewGame() {
	s.Stop()
	s.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetBoard()
	s.tt.Clear()
}

func (s *Searcher) Algorithm() SearchAlgorithmT {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.algorithm
}

func (s *Searcher) SetAlgorithm(algorithm SearchAlgorithmT) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.algorithm = algorithm
}

func (s *Searcher) Threads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threads
}

func (s *Searcher) SetThreads(threads int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threads = max(threads, 1)
}

// Settings the search goroutine reads can only change between searches,
// including while a stopped search unwinds. Call with s.mu held.
func (s *Searcher) checkIdle() error {
	if s.done == nil {
		return nil
	}
	select {
	case <-s.done:
		return nil
	default:
		return ErrSearchInProgress
	}
}

// SetHash resizes the transposition table. It fails while a search runs.
func (s *Searcher) SetHash(sizeMB int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkIdle(); err != nil {
		return fmt.Errorf("Hash: %w", err)
	}
	if sizeMB != s.tt.SizeMB() {
		s.tt.Resize(sizeMB)
	}
	return nil
}

func (s *Searcher) HashMB() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tt.SizeMB()
}

func (s *Searcher) Temperature() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.monteCarlo.Temperature
}

func (s *Searcher) SetTemperature(temperature float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkIdle(); err != nil {
		return fmt.Errorf("Temperature: %w", err)
	}
	s.monteCarlo.Temperature = temperature
	return nil
}

// SetSimulationEvaluator replaces random playouts with eval; nil restores them.
func (s *Searcher) SetSimulationEvaluator(eval Evaluator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkIdle(); err != nil {
		return fmt.Errorf("simulation evaluator: %w", err)
	}
	s.monteCarlo.SetEvaluator(eval)
	return nil
}

// EvaluatorName is "PawnStructure" or "Material", whichever alpha-beta uses.
func (s *Searcher) EvaluatorName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.alphaBeta.Evaluator().(*PawnStructureEvaluator); ok {
		return "PawnStructure"
	}
	return "Material"
}

func (s *Searcher) SetEvaluatorName(name string) error {
	var eval Evaluator
	switch strings.ToLower(name) {
	case "material":
		eval = NewMaterialEvaluator()
	case "pawnstructure":
		eval = NewPawnStructureEvaluator()
	default:
		return fmt.Errorf("Evaluator %q: %w", name, ErrBadOptionValue)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkIdle(); err != nil {
		return fmt.Errorf("Evaluator: %w", err)
	}
	s.alphaBeta.SetEvaluator(eval)
	return nil
}
