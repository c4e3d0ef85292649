package selfplay

import (
	"strings"

	dragon "github.com/dylhunn/dragontoothmg"

	"github.com/clanpj/duo/engine"
)

var pieceLetters = [7]string{"", "", "N", "B", "R", "Q", "K"}

func squareName(square uint8) string {
	return string([]byte{'a' + square%8, '1' + square/8})
}

// SAN renders a legal move in standard algebraic notation for board.
func SAN(board *dragon.Board, move dragon.Move) string {
	from, to := move.From(), move.To()
	piece, _ := engine.PieceAt(board, from)
	isCapture := engine.IsCapture(board, move)

	var sb strings.Builder
	switch {
	case piece == dragon.King && (from%8 == 4) && (to%8 == 6 || to%8 == 2) && from/8 == to/8:
		if to%8 == 6 {
			sb.WriteString("O-O")
		} else {
			sb.WriteString("O-O-O")
		}
	case piece == dragon.Pawn:
		if isCapture {
			sb.WriteByte('a' + from%8)
			sb.WriteByte('x')
		}
		sb.WriteString(squareName(to))
		if promote := move.Promote(); promote != dragon.Nothing {
			sb.WriteByte('=')
			sb.WriteString(pieceLetters[promote])
		}
	default:
		sb.WriteString(pieceLetters[piece])
		sb.WriteString(disambiguation(board, move, piece))
		if isCapture {
			sb.WriteByte('x')
		}
		sb.WriteString(squareName(to))
	}

	unapply := board.Apply(move)
	if board.OurKingInCheck() {
		if len(board.GenerateLegalMoves()) == 0 {
			sb.WriteByte('#')
		} else {
			sb.WriteByte('+')
		}
	}
	unapply()

	return sb.String()
}

// File, rank or both of the origin square when another piece of the same
// kind can reach the same square.
func disambiguation(board *dragon.Board, move dragon.Move, piece dragon.Piece) string {
	from, to := move.From(), move.To()
	var rivals []uint8
	for _, other := range board.GenerateLegalMoves() {
		otherFrom := other.From()
		if other.To() != to || otherFrom == from {
			continue
		}
		if otherPiece, _ := engine.PieceAt(board, otherFrom); otherPiece == piece {
			rivals = append(rivals, otherFrom)
		}
	}
	if len(rivals) == 0 {
		return ""
	}

	sameFile, sameRank := false, false
	for _, rival := range rivals {
		sameFile = sameFile || rival%8 == from%8
		sameRank = sameRank || rival/8 == from/8
	}
	name := squareName(from)
	switch {
	case !sameFile:
		return name[:1]
	case !sameRank:
		return name[1:]
	}
	return name
}
