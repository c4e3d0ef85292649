package engine

import (
	"time"

	dragon "github.com/dylhunn/dragontoothmg"
)

// Configuration options
type SearchAlgorithmT int

const (
	AlphaBetaSearch SearchAlgorithmT = iota
	MonteCarloSearch
)

var SearchAlgorithm = AlphaBetaSearch
var HeurUseNullMove = true
var NullMoveReduction = 3
var UseTT = true
var UseKillerMoves = true
var AspirationWindow = 16
var AspirationMinDepth = 4
var DefaultTemperature = 1.5
var DefaultHashMB = 128
var DefaultThreads = 1
var ReportInterval = 3 * time.Second

// Random playouts are abandoned as drawn beyond this many plies
var MaxPlayoutPlies = 1024

func (a SearchAlgorithmT) String() string {
	if a == MonteCarloSearch {
		return "MonteCarlo"
	}
	return "AlphaBeta"
}

func ParseSearchAlgorithm(s string) (SearchAlgorithmT, bool) {
	switch s {
	case "alphabeta", "AlphaBeta", "ab":
		return AlphaBetaSearch, true
	case "montecarlo", "MonteCarlo", "mcts":
		return MonteCarloSearch, true
	}
	return AlphaBetaSearch, false
}

const MinDepth = 1
const MaxDepth = 100
const NoMove dragon.Move = 0
