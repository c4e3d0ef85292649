package engine

import (
	dragon "github.com/dylhunn/dragontoothmg"
	"github.com/rs/zerolog"
)

// An Engine picks a move for the context's position, honouring its budget.
// It returns NoMove only if the position has no legal move.
type Engine interface {
	Search(ctx *SearchContext) dragon.Move
}

// Every applied move must have been undone by the time a search returns.
func checkFenUnchanged(log zerolog.Logger, before string, board *dragon.Board) {
	if after := board.ToFen(); after != before {
		log.Error().Str("before", before).Str("after", after).Msg("position changed during search")
	}
}

func firstMove(moves []dragon.Move) dragon.Move {
	if len(moves) == 0 {
		return NoMove
	}
	return moves[0]
}
