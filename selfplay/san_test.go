package selfplay

import (
	"testing"

	dragon "github.com/dylhunn/dragontoothmg"

	"github.com/clanpj/duo/engine"
)

func TestSAN(t *testing.T) {
	tests := []struct {
		fen  string
		move string
		want string
	}{
		{dragon.Startpos, "e2e4", "e4"},
		{dragon.Startpos, "g1f3", "Nf3"},
		{"rnbqkbnr/ppp1pppp/8/3p4/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2", "e4d5", "exd5"},
		{"rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3", "e5f6", "exf6"},
		{"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1g1", "O-O"},
		{"r3k2r/8/8/8/8/8/8/R3K2R b KQkq - 0 1", "e8c8", "O-O-O"},
		{"8/P6k/8/8/8/8/8/K7 w - - 0 1", "a7a8q", "a8=Q"},
		{"8/P6k/8/8/8/8/8/K7 w - - 0 1", "a7a8n", "a8=N"},
		{"6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1", "a1a8", "Ra8#"},
		{"4k3/8/8/8/8/8/8/R3K3 w - - 0 1", "a1a8", "Ra8+"},
		// Knights on b1 and f3 can both reach d2
		{"4k3/8/8/8/8/5N2/8/1N2K3 w - - 0 1", "b1d2", "Nbd2"},
		// Rooks on the same file need the rank
		{"4k3/R7/8/8/8/8/R7/4K3 w - - 0 1", "a2a5", "R2a5"},
		// Three queens: file and rank are both shared
		{"4k3/8/8/8/Q1Q5/8/Q7/4K3 w - - 0 1", "a4b3", "Qa4b3"},
	}
	for _, tt := range tests {
		board := dragon.ParseFen(tt.fen)
		before := board.ToFen()
		move, err := engine.FindMove(&board, tt.move)
		if err != nil {
			t.Errorf("%s: %v", tt.fen, err)
			continue
		}
		if got := SAN(&board, move); got != tt.want {
			t.Errorf("%s %s: got %s, want %s", tt.fen, tt.move, got, tt.want)
		}
		if board.ToFen() != before {
			t.Errorf("SAN changed the board")
		}
	}
}
