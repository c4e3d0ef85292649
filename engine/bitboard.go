// Bitboard shifts and fills for pawn structure.
// Note bit 0 (low bit) is square A1, bit 63 (hi bit) is square H8

package engine

const fileA uint64 = 0x0101010101010101
const fileH uint64 = 0x8080808080808080

func north(bb uint64) uint64 { return bb << 8 }

func south(bb uint64) uint64 { return bb >> 8 }

// Pieces on the edge file fall off the board
func west(bb uint64) uint64 { return (bb &^ fileA) >> 1 }

func east(bb uint64) uint64 { return (bb &^ fileH) << 1 }

func northFill(bb uint64) uint64 {
	bb |= bb << 8
	bb |= bb << 16
	bb |= bb << 32
	return bb
}

func southFill(bb uint64) uint64 {
	bb |= bb >> 8
	bb |= bb >> 16
	bb |= bb >> 32
	return bb
}

// Every square in front of a pawn or on an adjacent file ahead of it.
// An enemy pawn outside this set can never stop it.
func whitePawnFrontSpan(pawns uint64) uint64 {
	ahead := north(pawns)
	return northFill(ahead | west(ahead) | east(ahead))
}

func blackPawnFrontSpan(pawns uint64) uint64 {
	ahead := south(pawns)
	return southFill(ahead | west(ahead) | east(ahead))
}

// Occupied files collapsed onto the first rank
func fileSet(bb uint64) uint8 {
	bb |= bb >> 32
	bb |= bb >> 16
	bb |= bb >> 8
	return uint8(bb)
}

func rankOf(square uint8) uint8 { return square >> 3 }
