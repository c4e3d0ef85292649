package engine

import (
	"fmt"

	"github.com/rs/zerolog"
)

// Counters for the deterministic search. Single-threaded so no atomics.
type SearchStatsT struct {
	NonLeafs          uint64 // #interior nodes visited
	QNodes            uint64 // #nodes visited in qsearch
	Mates             uint64 // #checkmate terminal nodes
	Stalemates        uint64 // #stalemate terminal nodes
	PosRepetitions    uint64 // #nodes with repeated position
	TTHits            uint64 // #nodes with successful TT lookup
	TTExactHits       uint64 // #nodes returning an exact TT value
	TTBoundCuts       uint64 // #nodes cut by a TT bound narrowing the window
	NullMoveCuts      uint64 // #nodes that cut due to null move heuristic
	CutNodes          uint64 // #(beta-)cut nodes
	FirstChildCuts    uint64 // #cut nodes that cut on the first child searched
	PVSResearches     uint64 // #scout searches that needed a full-window re-search
	QPatCuts          uint64 // #qnodes with stand pat cut
	AspirationRetries uint64 // #root re-searches after the score left the window
}

func perC(n uint64, N uint64) string {
	if N == 0 {
		return fmt.Sprintf("%d [-]", n)
	}
	return fmt.Sprintf("%d [%.2f%%]", n, float64(n)/float64(N)*100)
}

func (s *SearchStatsT) Log(log zerolog.Logger) {
	log.Debug().
		Uint64("non-leafs", s.NonLeafs).
		Uint64("q-nodes", s.QNodes).
		Uint64("mates", s.Mates).
		Uint64("stalemates", s.Stalemates).
		Str("repetitions", perC(s.PosRepetitions, s.NonLeafs)).
		Str("tt-hits", perC(s.TTHits, s.NonLeafs)).
		Str("tt-exact", perC(s.TTExactHits, s.NonLeafs)).
		Str("tt-bound-cuts", perC(s.TTBoundCuts, s.NonLeafs)).
		Str("null-cuts", perC(s.NullMoveCuts, s.NonLeafs)).
		Str("cut-nodes", perC(s.CutNodes, s.NonLeafs)).
		Str("1st-child-cuts", perC(s.FirstChildCuts, s.CutNodes)).
		Uint64("pvs-researches", s.PVSResearches).
		Str("q-pat-cuts", perC(s.QPatCuts, s.QNodes)).
		Uint64("aspiration-retries", s.AspirationRetries).
		Msg("search stats")
}
