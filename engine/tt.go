// Transposition table for the deterministic search.
// Lock-free: each slot holds the packed entry and tag = key ^ packed. A reader
// that sees a half-written slot recomputes a key that doesn't match and treats
// it as a miss.

package engine

import (
	"sync/atomic"

	dragon "github.com/dylhunn/dragontoothmg"
)

// The eval for a TT entry can be exact, a lower bound, or an upper bound
type TTEvalT uint8

const (
	TTInvalid TTEvalT = iota // must be the 0 item
	TTEvalExact
	TTEvalLowerBound // from beta cut-off
	TTEvalUpperBound // from alpha cut-off
)

func (t TTEvalT) String() string {
	switch t {
	case TTEvalExact:
		return "exact"
	case TTEvalLowerBound:
		return "lowerbound"
	case TTEvalUpperBound:
		return "upperbound"
	}
	return "invalid"
}

type TTEntryT struct {
	Eval      EvalCp
	DepthToGo int
	EvalType  TTEvalT
	BestMove  dragon.Move
}

// Packed layout: eval in bits 0-31, depth 32-39, eval type 40-41, move 42-57.
// A valid entry always has a non-zero eval type so a zero data word is an empty slot.
const (
	ttDepthShift = 32
	ttTypeShift  = 40
	ttMoveShift  = 42
)

type ttSlotT struct {
	tag  uint64
	data uint64
}

const ttSlotBytes = 16

type TranspositionTable struct {
	slots  []ttSlotT
	mask   uint64
	sizeMB int
}

func NewTranspositionTable(sizeMB int) *TranspositionTable {
	tt := &TranspositionTable{}
	tt.Resize(sizeMB)
	return tt
}

func roundDownToPowerOf2(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	p := uint64(1)
	for p<<1 <= n {
		p <<= 1
	}
	return p
}

// Resize reallocates an empty table. Not safe while a search is using the table.
func (tt *TranspositionTable) Resize(sizeMB int) {
	if sizeMB < 1 {
		sizeMB = 1
	}
	nSlots := roundDownToPowerOf2(uint64(sizeMB) * 1024 * 1024 / ttSlotBytes)
	tt.slots = make([]ttSlotT, nSlots)
	tt.mask = nSlots - 1
	tt.sizeMB = sizeMB
}

func (tt *TranspositionTable) SizeMB() int {
	return tt.sizeMB
}

func (tt *TranspositionTable) Len() int {
	return len(tt.slots)
}

// Clear zeroes every slot.
func (tt *TranspositionTable) Clear() {
	for i := range tt.slots {
		atomic.StoreUint64(&tt.slots[i].data, 0)
		atomic.StoreUint64(&tt.slots[i].tag, 0)
	}
}

func packTTEntry(eval EvalCp, depthToGo int, evalType TTEvalT, bestMove dragon.Move) uint64 {
	if depthToGo < 0 {
		depthToGo = 0
	} else if depthToGo > 255 {
		depthToGo = 255
	}
	return uint64(uint32(eval)) |
		uint64(depthToGo)<<ttDepthShift |
		uint64(evalType&3)<<ttTypeShift |
		uint64(bestMove)<<ttMoveShift
}

func unpackTTEntry(data uint64) TTEntryT {
	return TTEntryT{
		Eval:      EvalCp(int32(uint32(data))),
		DepthToGo: int(uint8(data >> ttDepthShift)),
		EvalType:  TTEvalT((data >> ttTypeShift) & 3),
		BestMove:  dragon.Move(uint16(data >> ttMoveShift)),
	}
}

// Mate scores are stored relative to the node rather than the root.
func evalToTT(eval EvalCp, ply int) EvalCp {
	if eval > MateThreshold {
		return eval + EvalCp(ply)
	}
	if eval < -MateThreshold {
		return eval - EvalCp(ply)
	}
	return eval
}

func evalFromTT(eval EvalCp, ply int) EvalCp {
	if eval > MateThreshold {
		return eval - EvalCp(ply)
	}
	if eval < -MateThreshold {
		return eval + EvalCp(ply)
	}
	return eval
}

// Put stores a result unless the slot holds something better: we overwrite
// empty slots, shallower entries, and always for exact results.
func (tt *TranspositionTable) Put(zobrist uint64, eval EvalCp, depthToGo int, evalType TTEvalT, bestMove dragon.Move, ply int) {
	slot := &tt.slots[zobrist&tt.mask]

	old := atomic.LoadUint64(&slot.data)
	if old != 0 && evalType != TTEvalExact && depthToGo <= unpackTTEntry(old).DepthToGo {
		return
	}

	data := packTTEntry(evalToTT(eval, ply), depthToGo, evalType, bestMove)
	atomic.StoreUint64(&slot.data, data)
	atomic.StoreUint64(&slot.tag, zobrist^data)
}

// Get returns the entry for the position with mate scores relative to ply.
func (tt *TranspositionTable) Get(zobrist uint64, ply int) (TTEntryT, bool) {
	slot := &tt.slots[zobrist&tt.mask]

	data := atomic.LoadUint64(&slot.data)
	tag := atomic.LoadUint64(&slot.tag)
	if data == 0 || tag^data != zobrist {
		return TTEntryT{}, false
	}

	entry := unpackTTEntry(data)
	entry.Eval = evalFromTT(entry.Eval, ply)
	return entry, true
}
