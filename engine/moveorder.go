package engine

import (
	"sort"

	dragon "github.com/dylhunn/dragontoothmg"
)

// Ordering tiers, well clear of any MVV-LVA or piece-square score
const (
	hashMoveOrder    = 1 << 24
	captureOrder     = 1 << 20
	promotionOrder   = 1 << 19
	killerMoveOrder  = 1 << 18
	killerOrderDelta = 1 << 10
)

type scoredMoveT struct {
	move  dragon.Move
	score int
}

// Order moves most promising first: hash move, then captures by
// most-valuable-victim/least-valuable-attacker, promotions, killers, and finally
// quiet moves by piece-square improvement.
func orderMoves(ctx *SearchContext, eval Evaluator, board *dragon.Board, moves []dragon.Move, hashMove dragon.Move, ply int) {
	scored := make([]scoredMoveT, len(moves))
	white := board.Wtomove
	for i, move := range moves {
		scored[i] = scoredMoveT{move: move, score: moveOrderScore(ctx, eval, board, move, hashMove, white, ply)}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	for i := range scored {
		moves[i] = scored[i].move
	}
}

func moveOrderScore(ctx *SearchContext, eval Evaluator, board *dragon.Board, move dragon.Move, hashMove dragon.Move, white bool, ply int) int {
	if move == hashMove {
		return hashMoveOrder
	}
	mover, victim := moveVictim(board, move)
	from, to := move.From(), move.To()
	score := int(eval.PieceSquareValue(mover, white, to) - eval.PieceSquareValue(mover, white, from))

	if victim != dragon.Nothing {
		score += captureOrder + 8*int(eval.PieceValue(victim)) - int(eval.PieceValue(mover))
	}
	if promote := move.Promote(); promote != dragon.Nothing {
		score += promotionOrder + int(eval.PieceValue(promote))
	}
	if victim == dragon.Nothing && UseKillerMoves {
		if index := ctx.killers.killerMoveIndex(move, ply); index != MoveNotFound {
			score += killerMoveOrder - index*killerOrderDelta
		}
	}
	return score
}

// Root moves by the previous iteration's scores. Moves without a score
// (first iteration or not yet searched) keep their relative order at the back.
func orderRootMoves(ctx *SearchContext, moves []dragon.Move) {
	if len(ctx.moveScores) == 0 {
		return
	}
	sort.SliceStable(moves, func(i, j int) bool {
		si, iok := ctx.moveScores[moves[i]]
		sj, jok := ctx.moveScores[moves[j]]
		if iok != jok {
			return iok
		}
		return si > sj
	})
}
