// Killer moves: quiet moves that recently caused a beta cut at the same depth-from-root.
// We keep a small most-recent-first list per ply.

package engine

import (
	dragon "github.com/dylhunn/dragontoothmg"
)

const NKillersPerDepth = 2

const MoveNotFound = -1

type KillerMoveTableT [MaxDepth][NKillersPerDepth]dragon.Move

// Install a new killer move
func (kt *KillerMoveTableT) addKillerMove(move dragon.Move, depthFromRoot int) {
	if move == NoMove || depthFromRoot >= MaxDepth {
		return
	}

	depthKillers := &kt[depthFromRoot]

	moveIndex := 0
	for ; moveIndex < NKillersPerDepth; moveIndex++ {
		if depthKillers[moveIndex] == move {
			break
		}
	}

	// Shift up to make space for the new move at the front
	for i := moveIndex; 0 < i; i-- {
		if i < NKillersPerDepth {
			depthKillers[i] = depthKillers[i-1]
		}
	}

	depthKillers[0] = move
}

// Return the index of the given move in the killers list, or MoveNotFound
func (kt *KillerMoveTableT) killerMoveIndex(move dragon.Move, depthFromRoot int) int {
	if depthFromRoot >= MaxDepth {
		return MoveNotFound
	}
	depthKillers := &kt[depthFromRoot]

	for i := 0; i < NKillersPerDepth; i++ {
		if depthKillers[i] == move {
			return i
		}
	}

	return MoveNotFound
}
