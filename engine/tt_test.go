package engine

import (
	"sync"
	"testing"

	dragon "github.com/dylhunn/dragontoothmg"
)

func TestTTSizeIsPowerOfTwo(t *testing.T) {
	for _, mb := range []int{0, 1, 3, 16} {
		tt := NewTranspositionTable(mb)
		n := tt.Len()
		if n == 0 || n&(n-1) != 0 {
			t.Errorf("%dMB: %d slots is not a power of 2", mb, n)
		}
		if n*ttSlotBytes > max(mb, 1)*1024*1024 {
			t.Errorf("%dMB: %d slots exceeds the budget", mb, n)
		}
	}
}

func TestTTPutGet(t *testing.T) {
	tt := NewTranspositionTable(1)
	board := dragon.ParseFen(dragon.Startpos)
	move := mustFindMove(t, &board, "e2e4")
	zobrist := board.Hash()

	if _, ok := tt.Get(zobrist, 0); ok {
		t.Fatalf("empty table returned a hit")
	}

	tt.Put(zobrist, -123, 7, TTEvalLowerBound, move, 0)
	entry, ok := tt.Get(zobrist, 0)
	if !ok {
		t.Fatalf("expected a hit after put")
	}
	want := TTEntryT{Eval: -123, DepthToGo: 7, EvalType: TTEvalLowerBound, BestMove: move}
	if entry != want {
		t.Errorf("got %+v, want %+v", entry, want)
	}

	// Same slot, different key
	if _, ok := tt.Get(zobrist^(tt.mask+1), 0); ok {
		t.Errorf("colliding key returned a hit")
	}
}

func TestTTReplacement(t *testing.T) {
	tt := NewTranspositionTable(1)
	const zobrist = uint64(0x1234567890abcdef)

	tt.Put(zobrist, 10, 6, TTEvalLowerBound, NoMove, 0)

	// Shallower bound does not replace
	tt.Put(zobrist, 20, 3, TTEvalUpperBound, NoMove, 0)
	if entry, _ := tt.Get(zobrist, 0); entry.Eval != 10 {
		t.Errorf("shallower bound replaced a deeper entry: %+v", entry)
	}

	// Equal depth bound does not replace
	tt.Put(zobrist, 30, 6, TTEvalUpperBound, NoMove, 0)
	if entry, _ := tt.Get(zobrist, 0); entry.Eval != 10 {
		t.Errorf("equal-depth bound replaced the entry: %+v", entry)
	}

	// Exact always replaces
	tt.Put(zobrist, 40, 1, TTEvalExact, NoMove, 0)
	if entry, _ := tt.Get(zobrist, 0); entry.Eval != 40 || entry.EvalType != TTEvalExact {
		t.Errorf("exact result did not replace: %+v", entry)
	}

	// Deeper replaces
	tt.Put(zobrist, 50, 2, TTEvalLowerBound, NoMove, 0)
	if entry, _ := tt.Get(zobrist, 0); entry.Eval != 50 {
		t.Errorf("deeper bound did not replace: %+v", entry)
	}
}

func TestTTMateScoresArePlyRelative(t *testing.T) {
	tt := NewTranspositionTable(1)
	const zobrist = uint64(42)

	// Mate in 5 plies from the root, found at ply 3
	tt.Put(zobrist, MateValue-5, 4, TTEvalExact, NoMove, 3)

	// Reached again at ply 7 the same mate is 4 plies further from the root
	entry, ok := tt.Get(zobrist, 7)
	if !ok {
		t.Fatalf("expected a hit")
	}
	if entry.Eval != MateValue-9 {
		t.Errorf("got %d, want %d", entry.Eval, MateValue-9)
	}

	tt.Put(zobrist, -(MateValue - 4), 4, TTEvalExact, NoMove, 2)
	if entry, _ := tt.Get(zobrist, 2); entry.Eval != -(MateValue - 4) {
		t.Errorf("mated score changed at the same ply: %d", entry.Eval)
	}

	// Ordinary scores are untouched
	tt.Put(zobrist, 250, 4, TTEvalExact, NoMove, 3)
	if entry, _ := tt.Get(zobrist, 9); entry.Eval != 250 {
		t.Errorf("non-mate score adjusted: %d", entry.Eval)
	}
}

func TestTTClear(t *testing.T) {
	tt := NewTranspositionTable(1)
	for z := uint64(1); z < 100; z++ {
		tt.Put(z, EvalCp(z), 1, TTEvalExact, NoMove, 0)
	}
	tt.Clear()
	for z := uint64(1); z < 100; z++ {
		if _, ok := tt.Get(z, 0); ok {
			t.Fatalf("entry %d survived clear", z)
		}
	}
}

func TestTTConcurrentAccess(t *testing.T) {
	tt := NewTranspositionTable(1)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 10000; i++ {
				z := uint64(i%64) * 0x9e3779b97f4a7c15
				tt.Put(z, EvalCp(i%64), w+1, TTEvalExact, NoMove, 0)
				if entry, ok := tt.Get(z, 0); ok && entry.Eval != EvalCp(i%64) {
					t.Errorf("torn read: key %x eval %d", z, entry.Eval)
					return
				}
			}
		}(w)
	}
	wg.Wait()
}
