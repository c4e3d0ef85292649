// Pawn structure terms, in centi-pawns from white's perspective

package engine

import (
	"math/bits"

	dragon "github.com/dylhunn/dragontoothmg"
)

// Indexed by rank from the owner's side, so rank 1 is the home rank
var passedPawnRankBonus = [8]EvalCp{0, 13, 20, 28, 37, 45, 60, 0}

// Percent of the passed pawn bonus, on top of it
var connectedPasserPercent EvalCp = 50

var doubledPawnPenalty EvalCp = -13
var pawnIslandPenalty EvalCp = -7
var isolatedPawnPenalty EvalCp = -9 // in addition to the island penalty
var connectedPawnBonus EvalCp = 15
var sideBySidePawnBonus EvalCp = 9 // on top of connectedPawnBonus

var PawnStructurePercent EvalCp = 65

func byRank(wPieces uint64, bPieces uint64, rankVal *[8]EvalCp) EvalCp {
	eval := EvalCp(0)
	for wPieces != 0 {
		square := uint8(bits.TrailingZeros64(wPieces))
		wPieces &= wPieces - 1
		eval += rankVal[rankOf(square)]
	}
	for bPieces != 0 {
		square := uint8(bits.TrailingZeros64(bPieces))
		bPieces &= bPieces - 1
		eval -= rankVal[7-rankOf(square)]
	}
	return eval
}

// Squares beside, diagonally in front of, or diagonally behind a pawn
func pawnNeighbours(pawns uint64) (all uint64, sideBySide uint64) {
	sideBySide = east(pawns) | west(pawns)
	all = north(sideBySide) | sideBySide | south(sideBySide)
	return
}

func passedPawnsEval(wPawns uint64, bPawns uint64) EvalCp {
	wPassed := wPawns &^ blackPawnFrontSpan(bPawns)
	bPassed := bPawns &^ whitePawnFrontSpan(wPawns)

	eval := byRank(wPassed, bPassed, &passedPawnRankBonus)

	wNeighbours, _ := pawnNeighbours(wPawns)
	bNeighbours, _ := pawnNeighbours(bPawns)
	eval += byRank(wPassed&wNeighbours, bPassed&bNeighbours, &passedPawnRankBonus) * connectedPasserPercent / 100

	return eval
}

// Each pawn with a friendly pawn in front of it on the same file counts once
func doubledPawnsEval(wPawns uint64, bPawns uint64) EvalCp {
	wDoubled := bits.OnesCount64(northFill(north(wPawns)) & wPawns)
	bDoubled := bits.OnesCount64(southFill(south(bPawns)) & bPawns)
	return EvalCp(wDoubled-bDoubled) * doubledPawnPenalty
}

// Islands are runs of adjacent occupied files; an isolated pawn file is an island of width one
func pawnIslands(files uint8) (nIslands int, nIsolated int) {
	width := 0
	for i := 0; i <= 8; i++ {
		if i < 8 && files&(1<<i) != 0 {
			width++
			continue
		}
		if width != 0 {
			nIslands++
			if width == 1 {
				nIsolated++
			}
		}
		width = 0
	}
	return
}

func pawnIslandsEvalForColour(pawns uint64) EvalCp {
	nIslands, nIsolated := pawnIslands(fileSet(pawns))
	// The first island is free
	if nIslands > 0 {
		nIslands--
	}
	return EvalCp(nIslands)*pawnIslandPenalty + EvalCp(nIsolated)*isolatedPawnPenalty
}

func connectedPawnsEvalForColour(pawns uint64) EvalCp {
	all, sideBySide := pawnNeighbours(pawns)
	return EvalCp(bits.OnesCount64(all&pawns))*connectedPawnBonus +
		EvalCp(bits.OnesCount64(sideBySide&pawns))*sideBySidePawnBonus
}

// PawnStructureEval scores passed, doubled, isolated and connected pawns
// and pawn islands, from white's perspective.
func PawnStructureEval(board *dragon.Board) EvalCp {
	wPawns := board.White.Pawns
	bPawns := board.Black.Pawns

	eval := passedPawnsEval(wPawns, bPawns) +
		doubledPawnsEval(wPawns, bPawns) +
		pawnIslandsEvalForColour(wPawns) - pawnIslandsEvalForColour(bPawns) +
		connectedPawnsEvalForColour(wPawns) - connectedPawnsEvalForColour(bPawns)

	return eval * PawnStructurePercent / 100
}

// PawnStructureEvaluator adds pawn structure to material and piece-square values.
type PawnStructureEvaluator struct {
	MaterialEvaluator
}

func NewPawnStructureEvaluator() *PawnStructureEvaluator {
	return &PawnStructureEvaluator{}
}

func (e *PawnStructureEvaluator) Evaluate(ctx *SearchContext, board *dragon.Board) EvalCp {
	eval := StaticEval(board) + PawnStructureEval(board)
	if board.Wtomove {
		return eval
	}
	return -eval
}
