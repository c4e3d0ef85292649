package engine

import (
	"testing"

	dragon "github.com/dylhunn/dragontoothmg"
)

func squareBit(name string) uint64 {
	return uint64(1) << (uint(name[1]-'1')*8 + uint(name[0]-'a'))
}

func squareBits(names ...string) uint64 {
	bb := uint64(0)
	for _, name := range names {
		bb |= squareBit(name)
	}
	return bb
}

func TestPawnIslands(t *testing.T) {
	tests := []struct {
		files    uint8
		islands  int
		isolated int
	}{
		{0, 0, 0},
		{0xff, 1, 0},
		{0x81, 2, 2},
		{0xb7, 3, 1}, // abc ef h
	}
	for _, tt := range tests {
		islands, isolated := pawnIslands(tt.files)
		if islands != tt.islands || isolated != tt.isolated {
			t.Errorf("files 0x%02x: got %d islands %d isolated, want %d %d", tt.files, islands, isolated, tt.islands, tt.isolated)
		}
	}
}

func TestPawnStructureTerms(t *testing.T) {
	if got := doubledPawnsEval(squareBits("e2", "e3"), 0); got != doubledPawnPenalty {
		t.Errorf("doubled pawns: got %d", got)
	}
	if got := connectedPawnsEvalForColour(squareBits("d4", "e4")); got != 2*connectedPawnBonus+2*sideBySidePawnBonus {
		t.Errorf("side by side pawns: got %d", got)
	}
	if got := connectedPawnsEvalForColour(squareBits("d4", "e5")); got != 2*connectedPawnBonus {
		t.Errorf("diagonal pawns: got %d", got)
	}
	// d5 and e5 both passed and connected on the fifth rank
	want := 2*passedPawnRankBonus[4] + 2*passedPawnRankBonus[4]*connectedPasserPercent/100
	if got := passedPawnsEval(squareBits("d5", "e5"), 0); got != want {
		t.Errorf("connected passers: got %d, want %d", got, want)
	}
	// Each pawn can be stopped by the other
	if got := passedPawnsEval(squareBit("e4"), squareBit("d5")); got != 0 {
		t.Errorf("blocked pawns are not passed, got %d", got)
	}
}

func TestPawnStructureEval(t *testing.T) {
	tests := []struct {
		fen  string
		want EvalCp
	}{
		{dragon.Startpos, 0},
		// Isolated passer on the sixth
		{"4k3/8/4P3/8/8/8/8/4K3 w - - 0 1", (passedPawnRankBonus[5] + isolatedPawnPenalty) * PawnStructurePercent / 100},
		{"4k3/8/8/8/8/4p3/8/4K3 w - - 0 1", -(passedPawnRankBonus[5] + isolatedPawnPenalty) * PawnStructurePercent / 100},
	}
	for _, tt := range tests {
		board := dragon.ParseFen(tt.fen)
		if got := PawnStructureEval(&board); got != tt.want {
			t.Errorf("%s: got %d, want %d", tt.fen, got, tt.want)
		}
	}
}

func TestPawnStructureEvaluator(t *testing.T) {
	eval := NewPawnStructureEvaluator()
	white := dragon.ParseFen("4k3/8/4P3/8/8/8/8/4K3 w - - 0 1")
	black := dragon.ParseFen("4k3/8/4P3/8/8/8/8/4K3 b - - 0 1")

	want := StaticEval(&white) + PawnStructureEval(&white)
	if got := eval.Evaluate(nil, &white); got != want {
		t.Errorf("white to move: got %d, want %d", got, want)
	}
	if got := eval.Evaluate(nil, &black); got != -want {
		t.Errorf("black to move: got %d, want %d", got, -want)
	}
	if eval.PieceValue(dragon.Rook) != rookVal {
		t.Errorf("piece values should come from material")
	}

	ab := NewAlphaBeta(NewTranspositionTable(1), eval)
	ctx := NewSearchContext(dragon.ParseFen("6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1"), depthParams(3))
	if got := MoveString(ab.Search(ctx)); got != "a1a8" {
		t.Errorf("expected mate a1a8, got %s", got)
	}
}
