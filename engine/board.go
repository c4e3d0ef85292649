// Position queries the rules library doesn't give us directly.
// Note bit 0 (low bit) is square A1, bit 63 (hi bit) is square H8

package engine

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"

	dragon "github.com/dylhunn/dragontoothmg"
)

var ErrIllegalMove = errors.New("illegal move")

const (
	lightSquares uint64 = 0x55aa55aa55aa55aa // b1, d1, ... a2, c2, ...
	darkSquares  uint64 = ^lightSquares
)

func ourBitboards(board *dragon.Board) *dragon.Bitboards {
	if board.Wtomove {
		return &board.White
	}
	return &board.Black
}

func theirBitboards(board *dragon.Board) *dragon.Bitboards {
	if board.Wtomove {
		return &board.Black
	}
	return &board.White
}

func pieceOn(bbs *dragon.Bitboards, square uint8) dragon.Piece {
	bit := uint64(1) << square
	switch {
	case bbs.All&bit == 0:
		return dragon.Nothing
	case bbs.Pawns&bit != 0:
		return dragon.Pawn
	case bbs.Knights&bit != 0:
		return dragon.Knight
	case bbs.Bishops&bit != 0:
		return dragon.Bishop
	case bbs.Rooks&bit != 0:
		return dragon.Rook
	case bbs.Queens&bit != 0:
		return dragon.Queen
	case bbs.Kings&bit != 0:
		return dragon.King
	}
	return dragon.Nothing
}

// PieceAt returns the piece on a square and whether it is white.
func PieceAt(board *dragon.Board, square uint8) (dragon.Piece, bool) {
	if piece := pieceOn(&board.White, square); piece != dragon.Nothing {
		return piece, true
	}
	return pieceOn(&board.Black, square), false
}

// Piece being moved and the piece being captured, Nothing for a quiet move.
// En passant captures report a pawn victim.
func moveVictim(board *dragon.Board, move dragon.Move) (mover dragon.Piece, victim dragon.Piece) {
	from, to := move.From(), move.To()
	mover = pieceOn(ourBitboards(board), from)
	victim = pieceOn(theirBitboards(board), to)
	if victim == dragon.Nothing && mover == dragon.Pawn && from%8 != to%8 {
		victim = dragon.Pawn
	}
	return mover, victim
}

func IsCapture(board *dragon.Board, move dragon.Move) bool {
	_, victim := moveVictim(board, move)
	return victim != dragon.Nothing
}

// Captures and queen promotions - the q-search move set
func noisyMoves(board *dragon.Board, moves []dragon.Move) []dragon.Move {
	noisy := make([]dragon.Move, 0, len(moves))
	for _, move := range moves {
		promote := move.Promote()
		if promote != dragon.Nothing && promote != dragon.Queen {
			continue
		}
		if promote == dragon.Queen || IsCapture(board, move) {
			noisy = append(noisy, move)
		}
	}
	return noisy
}

// True iff the side to move has something other than king and pawns
func hasNonPawnMaterial(board *dragon.Board) bool {
	ours := ourBitboards(board)
	return ours.Kings|ours.Pawns != ours.All
}

// Neither side can possibly mate: bare kings, a single minor piece, or
// only same-coloured bishops.
func IsInsufficientMaterial(board *dragon.Board) bool {
	w, b := &board.White, &board.Black
	if w.Pawns|b.Pawns|w.Rooks|b.Rooks|w.Queens|b.Queens != 0 {
		return false
	}
	knights := w.Knights | b.Knights
	bishops := w.Bishops | b.Bishops
	minors := bits.OnesCount64(knights | bishops)
	if minors <= 1 {
		return true
	}
	if knights == 0 && (bishops&lightSquares == 0 || bishops&darkSquares == 0) {
		return true
	}
	return false
}

// Hand the move to the opponent. The board is restored exactly by the
// returned closure.
func applyNullMove(board *dragon.Board) func() {
	saved := *board
	fields := strings.Fields(board.ToFen())
	if len(fields) >= 4 {
		if fields[1] == "w" {
			fields[1] = "b"
		} else {
			fields[1] = "w"
		}
		fields[3] = "-"
	}
	*board = dragon.ParseFen(strings.Join(fields, " "))
	return func() { *board = saved }
}

// FindMove resolves a UCI move string against the legal moves of the position.
func FindMove(board *dragon.Board, uciMove string) (dragon.Move, error) {
	want := strings.ToLower(uciMove)
	for _, move := range board.GenerateLegalMoves() {
		if move.String() == want {
			return move, nil
		}
	}
	return NoMove, fmt.Errorf("%s in %s: %w", uciMove, board.ToFen(), ErrIllegalMove)
}

func MoveString(move dragon.Move) string {
	if move == NoMove {
		return "0000"
	}
	return move.String()
}

func MovesString(moves []dragon.Move) string {
	strs := make([]string, len(moves))
	for i, move := range moves {
		strs[i] = MoveString(move)
	}
	return strings.Join(strs, " ")
}
