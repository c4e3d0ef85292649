package engine

import (
	"math/bits"

	dragon "github.com/dylhunn/dragontoothmg"
)

// Eval in centi-pawns, i.e. 100 === 1 pawn
type EvalCp int32

// Scores live strictly inside [-MaxValue, MaxValue]. Mate at ply p scores MateValue-p.
const MaxValue EvalCp = 40000
const MateValue EvalCp = 39000

// Anything beyond this is a mate score
const MateThreshold EvalCp = MateValue - MaxDepth

const DrawEval EvalCp = 0

// An Evaluator scores a position from the side-to-move's perspective.
// PieceValue and PieceSquareValue are used for move ordering.
type Evaluator interface {
	Evaluate(ctx *SearchContext, board *dragon.Board) EvalCp
	PieceValue(piece dragon.Piece) EvalCp
	PieceSquareValue(piece dragon.Piece, white bool, square uint8) EvalCp
}

func IsMateScore(eval EvalCp) bool {
	return eval > MateThreshold || eval < -MateThreshold
}

// Piece values
const nothingVal = 0
const pawnVal = 100
const knightVal = 330
const bishopVal = 320
const rookVal = 500
const queenVal = 900
const kingVal = 0

var pieceVals = [7]EvalCp{
	nothingVal,
	pawnVal,
	knightVal,
	bishopVal,
	rookVal,
	queenVal,
	kingVal}

var nothingPosVals = [64]int8{}

// Tables are from white's point of view in dragon square order (A1 == 0).
// Black squares are mirrored vertically.
var pawnPosVals = [64]int8{
	0, 0, 0, 0, 0, 0, 0, 0,
	5, 10, 10, -20, -20, 10, 10, 5,
	5, -5, -10, 0, 0, -10, -5, 5,
	0, 0, 0, 20, 20, 0, 0, 0,
	5, 5, 10, 25, 25, 10, 5, 5,
	10, 10, 20, 30, 30, 20, 10, 10,
	50, 50, 50, 50, 50, 50, 50, 50,
	0, 0, 0, 0, 0, 0, 0, 0}

var knightPosVals = [64]int8{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50}

var bishopPosVals = [64]int8{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 5, 0, 0, 0, 0, 5, -10,
	-10, 10, 10, 10, 10, 10, 10, -10,
	-10, 0, 10, 10, 10, 10, 0, -10,
	-10, 5, 5, 10, 10, 5, 5, -10,
	-10, 0, 5, 10, 10, 5, 0, -10,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-20, -10, -10, -10, -10, -10, -10, -20}

var rookPosVals = [64]int8{
	0, 0, 0, 5, 5, 0, 0, 0,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	5, 10, 10, 10, 10, 10, 10, 5,
	0, 0, 0, 0, 0, 0, 0, 0}

var queenPosVals = [64]int8{
	-20, -10, -10, -5, -5, -10, -10, -20,
	-10, 0, 5, 0, 0, 0, 0, -10,
	-10, 5, 5, 5, 5, 5, 0, -10,
	0, 0, 5, 5, 5, 5, 0, -5,
	-5, 0, 5, 5, 5, 5, 0, -5,
	-10, 0, 5, 5, 5, 5, 0, -10,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-20, -10, -10, -5, -5, -10, -10, -20}

var kingPosVals = [64]int8{
	20, 30, 10, 0, 0, 10, 30, 20,
	20, 20, 0, 0, 0, 0, 20, 20,
	-10, -20, -20, -20, -20, -20, -20, -10,
	-20, -30, -30, -40, -40, -30, -30, -20,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30}

var kingEndgamePosVals = [64]int8{
	-50, -30, -30, -30, -30, -30, -30, -50,
	-30, -30, 0, 0, 0, 0, -30, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -20, -10, 0, 0, -10, -20, -30,
	-50, -40, -30, -20, -20, -30, -40, -50}

var piecePosVals = [7]*[64]int8{
	&nothingPosVals,
	&pawnPosVals,
	&knightPosVals,
	&bishopPosVals,
	&rookPosVals,
	&queenPosVals,
	&kingPosVals}

// Index into a white-perspective table
func posValIndex(white bool, square uint8) uint8 {
	if white {
		return square
	}
	return square ^ 56
}

// Material plus piece-square tables, with the king table blended towards
// the endgame table as non-king material comes off.
type MaterialEvaluator struct{}

func NewMaterialEvaluator() *MaterialEvaluator {
	return &MaterialEvaluator{}
}

func (e *MaterialEvaluator) PieceValue(piece dragon.Piece) EvalCp {
	if int(piece) >= len(pieceVals) {
		return 0
	}
	return pieceVals[piece]
}

func (e *MaterialEvaluator) PieceSquareValue(piece dragon.Piece, white bool, square uint8) EvalCp {
	if int(piece) >= len(piecePosVals) {
		return 0
	}
	return EvalCp(piecePosVals[piece][posValIndex(white, square)])
}

func (e *MaterialEvaluator) Evaluate(ctx *SearchContext, board *dragon.Board) EvalCp {
	eval := StaticEval(board)
	if board.Wtomove {
		return eval
	}
	return -eval
}

// Static eval from white's perspective
func StaticEval(board *dragon.Board) EvalCp {
	whitePiecesVal := piecesEval(&board.White)
	blackPiecesVal := piecesEval(&board.Black)

	endGameRatio := EndGameRatio(whitePiecesVal + blackPiecesVal)

	whitePosVal := piecesPosVal(&board.White, true, endGameRatio)
	blackPosVal := piecesPosVal(&board.Black, false, endGameRatio)

	return whitePiecesVal - blackPiecesVal + whitePosVal - blackPosVal
}

func piecesEval(bitboards *dragon.Bitboards) EvalCp {
	eval := EvalCp(0)
	eval += pawnVal * EvalCp(bits.OnesCount64(bitboards.Pawns))
	eval += knightVal * EvalCp(bits.OnesCount64(bitboards.Knights))
	eval += bishopVal * EvalCp(bits.OnesCount64(bitboards.Bishops))
	eval += rookVal * EvalCp(bits.OnesCount64(bitboards.Rooks))
	eval += queenVal * EvalCp(bits.OnesCount64(bitboards.Queens))
	return eval
}

// Material value (both sides) at which we start/finish blending into the endgame
const EndGamePiecesValHi EvalCp = 6000
const EndGamePiecesValLo EvalCp = 2400

// 0.0 in the opening, 1.0 in the deep endgame
func EndGameRatio(bAndWPiecesVal EvalCp) float64 {
	if bAndWPiecesVal >= EndGamePiecesValHi {
		return 0.0
	}
	if bAndWPiecesVal <= EndGamePiecesValLo {
		return 1.0
	}
	return float64(EndGamePiecesValHi-bAndWPiecesVal) / float64(EndGamePiecesValHi-EndGamePiecesValLo)
}

func piecesPosVal(bitboards *dragon.Bitboards, white bool, endGameRatio float64) EvalCp {
	eval := EvalCp(0)
	eval += pieceTypePiecesPosVal(bitboards.Pawns, &pawnPosVals, white)
	eval += pieceTypePiecesPosVal(bitboards.Knights, &knightPosVals, white)
	eval += pieceTypePiecesPosVal(bitboards.Bishops, &bishopPosVals, white)
	eval += pieceTypePiecesPosVal(bitboards.Rooks, &rookPosVals, white)
	eval += pieceTypePiecesPosVal(bitboards.Queens, &queenPosVals, white)

	kingMidVal := pieceTypePiecesPosVal(bitboards.Kings, &kingPosVals, white)
	kingEndVal := pieceTypePiecesPosVal(bitboards.Kings, &kingEndgamePosVals, white)
	eval += EvalCp(float64(kingMidVal)*(1.0-endGameRatio) + float64(kingEndVal)*endGameRatio)

	return eval
}

func pieceTypePiecesPosVal(bitmask uint64, posVals *[64]int8, white bool) EvalCp {
	eval := EvalCp(0)
	for bitmask != 0 {
		square := uint8(bits.TrailingZeros64(bitmask))
		bitmask &= bitmask - 1
		eval += EvalCp(posVals[posValIndex(white, square)])
	}
	return eval
}
