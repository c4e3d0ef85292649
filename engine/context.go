package engine

import (
	"sync/atomic"
	"time"

	dragon "github.com/dylhunn/dragontoothmg"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// Budget and limits for one search, fixed when the search starts.
type SearchParams struct {
	WhiteTime      time.Duration
	BlackTime      time.Duration
	WhiteIncrement time.Duration
	BlackIncrement time.Duration
	MoveTime       time.Duration
	Depth          int
	Nodes          int64
	MovesToGo      int
	SearchMoves    []string // restrict the root to these UCI moves if non-empty
	Infinite       bool
	Ponder         bool
	Threads        int // <= 0 takes the searcher's setting
	Start          time.Time
}

func DefaultSearchParams() SearchParams {
	return SearchParams{
		WhiteTime: 60000000 * time.Millisecond,
		BlackTime: 60000000 * time.Millisecond,
		MoveTime:  60000 * time.Millisecond,
		Depth:     MaxDepth,
		Nodes:     50000000,
		MovesToGo: 1,
		Start:     time.Now(),
	}
}

// Progress of a running search
type SearchInfo struct {
	Depth   int
	Score   EvalCp
	Nodes   int64
	Elapsed time.Duration
	Pv      []dragon.Move
}

// A Reporter receives progress, advisory messages and the final move.
// Calls are made from search goroutines and must not block.
type Reporter interface {
	Info(info SearchInfo)
	Message(msg string)
	BestMove(move dragon.Move)
}

type nopReporter struct{}

func (nopReporter) Info(SearchInfo)      {}
func (nopReporter) Message(string)       {}
func (nopReporter) BestMove(dragon.Move) {}

// SearchContext is the mutable state of exactly one in-flight search.
// The stop flag, node counter and deadline are shared by every worker;
// the rest belongs to the deterministic engine's single thread.
type SearchContext struct {
	Params  SearchParams
	History HistoryTableT
	Stats   SearchStatsT

	board    dragon.Board
	stopped  atomic.Bool
	nodes    atomic.Int64
	deadline time.Time // zero for no deadline

	// Triangular PV: pv[ply] is the best line found from ply onwards, pvLen[ply] long
	pv         [MaxDepth + 1][MaxDepth]dragon.Move
	pvLen      [MaxDepth + 1]int
	moveScores map[dragon.Move]EvalCp
	killers    KillerMoveTableT

	reporter Reporter
	log      zerolog.Logger
}

// NewSearchContext takes its own copy of the board.
func NewSearchContext(board dragon.Board, params SearchParams) *SearchContext {
	if params.Start.IsZero() {
		params.Start = time.Now()
	}
	ctx := &SearchContext{
		Params:     params,
		History:    NewHistoryTable(board.Hash()),
		board:      board,
		moveScores: make(map[dragon.Move]EvalCp),
		reporter:   nopReporter{},
		log:        zerolog.Nop(),
	}
	ctx.deadline = computeDeadline(&ctx.board, &params)
	return ctx
}

// remaining/40 + increment for the side to move, capped by the move time.
func computeDeadline(board *dragon.Board, params *SearchParams) time.Time {
	if params.Infinite || params.Ponder {
		return time.Time{}
	}
	remaining, increment := params.WhiteTime, params.WhiteIncrement
	if !board.Wtomove {
		remaining, increment = params.BlackTime, params.BlackIncrement
	}
	budget := remaining/40 + increment
	if params.MoveTime > 0 && params.MoveTime < budget {
		budget = params.MoveTime
	}
	return params.Start.Add(budget)
}

func (ctx *SearchContext) SetReporter(reporter Reporter) {
	if reporter == nil {
		reporter = nopReporter{}
	}
	ctx.reporter = reporter
}

func (ctx *SearchContext) SetLogger(log zerolog.Logger) {
	ctx.log = log
}

func (ctx *SearchContext) Board() *dragon.Board {
	return &ctx.board
}

func (ctx *SearchContext) Deadline() time.Time {
	return ctx.deadline
}

// ShouldStop is called at every node by every worker.
func (ctx *SearchContext) ShouldStop() bool {
	if ctx.stopped.Load() {
		return true
	}
	if ctx.Params.Nodes > 0 && ctx.nodes.Load() >= ctx.Params.Nodes {
		return true
	}
	return !ctx.deadline.IsZero() && !time.Now().Before(ctx.deadline)
}

// Stop is safe to call any number of times from any goroutine.
func (ctx *SearchContext) Stop() {
	ctx.stopped.Store(true)
}

func (ctx *SearchContext) Stopped() bool {
	return ctx.stopped.Load()
}

func (ctx *SearchContext) AddNodes(n int64) int64 {
	return ctx.nodes.Add(n)
}

func (ctx *SearchContext) Nodes() int64 {
	return ctx.nodes.Load()
}

func (ctx *SearchContext) Elapsed() time.Duration {
	return time.Since(ctx.Params.Start)
}

// ClearPv forgets the line at ply. Called on entry to every node so a
// parent never picks up a line left behind by a superseded sibling.
func (ctx *SearchContext) ClearPv(ply int) {
	if ply >= 0 && ply <= MaxDepth {
		ctx.pvLen[ply] = 0
	}
}

// UpdatePv installs move as the choice at ply followed by the line its
// child search just recorded at ply+1.
func (ctx *SearchContext) UpdatePv(move dragon.Move, ply int) {
	if ply < 0 || ply >= MaxDepth {
		return
	}
	line := &ctx.pv[ply]
	line[0] = move
	n := copy(line[1:], ctx.pv[ply+1][:ctx.pvLen[ply+1]])
	ctx.pvLen[ply] = 1 + n
}

// PvLine is the recorded line from the root.
func (ctx *SearchContext) PvLine() []dragon.Move {
	return append([]dragon.Move(nil), ctx.pv[0][:ctx.pvLen[0]]...)
}

// First move of the root line, NoMove if there is none yet
func (ctx *SearchContext) pvMove() dragon.Move {
	if ctx.pvLen[0] == 0 {
		return NoMove
	}
	return ctx.pv[0][0]
}

// Legal root moves, restricted to the requested subset when one was given
// and it matches anything.
func (ctx *SearchContext) RootMoves() []dragon.Move {
	return ctx.filterSearchMoves(ctx.board.GenerateLegalMoves())
}

func (ctx *SearchContext) filterSearchMoves(moves []dragon.Move) []dragon.Move {
	if len(ctx.Params.SearchMoves) == 0 {
		return moves
	}
	allowed := lo.Filter(moves, func(move dragon.Move, _ int) bool {
		return lo.Contains(ctx.Params.SearchMoves, move.String())
	})
	if len(allowed) == 0 {
		return moves
	}
	return allowed
}

func (ctx *SearchContext) Report(info SearchInfo) {
	ctx.reporter.Info(info)
}
