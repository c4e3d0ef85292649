// Position history for repetition checks

package engine

// Map: zobrist -> count
type HistoryTableT map[uint64]int

func NewHistoryTable(zobrists ...uint64) HistoryTableT {
	ht := make(HistoryTableT, len(zobrists)+MaxDepth)
	for _, zobrist := range zobrists {
		ht.Add(zobrist)
	}
	return ht
}

// Add a position and return the resulting count for this position
func (ht HistoryTableT) Add(zobrist uint64) int {
	count := ht[zobrist]
	count++
	ht[zobrist] = count
	return count
}

// Remove a position and return the resulting count for this position.
// Removes entries with count zero so the history table doesn't explode in size.
func (ht HistoryTableT) Remove(zobrist uint64) int {
	count := ht[zobrist]
	count--
	if count > 0 {
		ht[zobrist] = count
	} else {
		delete(ht, zobrist)
	}
	return count
}

// Inside the search we treat 2-fold repetition as a draw.
func (ht HistoryTableT) IsRepetition(zobrist uint64) bool {
	return ht[zobrist] > 1
}

func (ht HistoryTableT) Clone() HistoryTableT {
	clone := make(HistoryTableT, len(ht)+MaxDepth)
	for zobrist, count := range ht {
		clone[zobrist] = count
	}
	return clone
}
