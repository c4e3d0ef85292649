package engine

import (
	"os"
	"path/filepath"
	"testing"

	dragon "github.com/dylhunn/dragontoothmg"
	"github.com/rs/zerolog"
)

func TestUCIEvaluatorMissingBinary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no-such-engine")
	if _, err := NewUCIEvaluator(path, 1, zerolog.Nop()); err == nil {
		t.Errorf("expected an error starting %s", path)
	}
}

// Set DUO_UCI_ENGINE to the path of a UCI engine, e.g. stockfish, to run this.
func TestUCIEvaluatorScores(t *testing.T) {
	path := os.Getenv("DUO_UCI_ENGINE")
	if path == "" {
		t.Skip("DUO_UCI_ENGINE not set")
	}
	eval, err := NewUCIEvaluator(path, 6, zerolog.Nop())
	if err != nil {
		t.Fatalf("start %s: %v", path, err)
	}
	defer eval.Close()

	// White is a queen up; the score flips with the side to move
	white := dragon.ParseFen("4k3/8/8/8/8/8/8/3QK3 w - - 0 1")
	black := dragon.ParseFen("4k3/8/8/8/8/8/8/3QK3 b - - 0 1")
	if got := eval.Evaluate(nil, &white); got <= 0 {
		t.Errorf("queen up with white to move scored %d", got)
	}
	if got := eval.Evaluate(nil, &black); got >= 0 {
		t.Errorf("queen down with black to move scored %d", got)
	}

	mate := dragon.ParseFen("6k1/5ppp/8/8/8/8/8/R5K1 w - - 0 1")
	if got := eval.Evaluate(nil, &mate); got != MateValue-1 {
		t.Errorf("mate in one scored %d, want %d", got, MateValue-1)
	}
}
