package engine

import (
	"math"
	"sync"
	"sync/atomic"

	dragon "github.com/dylhunn/dragontoothmg"
)

// UCT score of a child nobody has visited yet. Finite but above anything the
// formula produces, so unvisited children are tried first, in move order.
const unvisitedUCT = 1e9

// TreeNode is shared by all workers. Counters are atomic; the child list is
// built exactly once and never changes afterwards.
type TreeNode struct {
	move        dragon.Move
	whiteToMove bool // side to move after move

	hits   atomic.Int64
	wins   atomic.Int64 // for the side that played move
	losses atomic.Int64

	once     sync.Once
	expanded atomic.Bool
	children []*TreeNode

	terminal atomic.Bool
	result   atomic.Int64
}

func newTreeNode(move dragon.Move, whiteToMove bool) *TreeNode {
	return &TreeNode{move: move, whiteToMove: whiteToMove}
}

func (n *TreeNode) Move() dragon.Move { return n.move }
func (n *TreeNode) Hits() int64       { return n.hits.Load() }
func (n *TreeNode) Wins() int64       { return n.wins.Load() }
func (n *TreeNode) Losses() int64     { return n.losses.Load() }

// Children is nil until the node has been expanded.
func (n *TreeNode) Children() []*TreeNode {
	if !n.expanded.Load() {
		return nil
	}
	return n.children
}

func (n *TreeNode) isExpanded() bool {
	return n.expanded.Load()
}

// Create one child per move. Concurrent callers all return after the single
// expansion is complete.
func (n *TreeNode) expand(moves []dragon.Move) {
	n.once.Do(func() {
		children := make([]*TreeNode, len(moves))
		for i, move := range moves {
			children[i] = newTreeNode(move, !n.whiteToMove)
		}
		n.children = children
		n.expanded.Store(true)
	})
}

func (n *TreeNode) terminate(result int64) {
	n.result.Store(result)
	n.terminal.Store(true)
}

func (n *TreeNode) isTerminal() (int64, bool) {
	if !n.terminal.Load() {
		return 0, false
	}
	return n.result.Load(), true
}

// One visit; positive results count as wins, negative as losses, draws as neither.
func (n *TreeNode) update(result int64) {
	n.hits.Add(1)
	if result > 0 {
		n.wins.Add(1)
	} else if result < 0 {
		n.losses.Add(1)
	}
}

func (n *TreeNode) uct(parentHits float64, temperature float64) float64 {
	hits := n.hits.Load()
	if hits == 0 {
		return unvisitedUCT
	}
	childHits := float64(hits)
	exploit := float64(n.wins.Load()) / (childHits + temperature)
	explore := temperature * math.Sqrt(math.Log(math.Max(parentHits, 1))/childHits)
	return exploit + explore
}

// Tree policy: the child with the highest UCT score, first one on ties.
func (n *TreeNode) selectChild(temperature float64) *TreeNode {
	parentHits := float64(n.hits.Load())
	var best *TreeNode
	bestScore := math.Inf(-1)
	for _, child := range n.Children() {
		score := child.uct(parentHits, temperature)
		if score > bestScore {
			best, bestScore = child, score
		}
	}
	return best
}

// Laplace-smoothed win rate used to choose the final move.
func (n *TreeNode) winRate() float64 {
	return float64(n.wins.Load()) / float64(n.hits.Load()+1)
}

// The child with the best smoothed win rate, nil if there are no children.
func (n *TreeNode) pickBest() *TreeNode {
	var best *TreeNode
	bestRate := math.Inf(-1)
	for _, child := range n.Children() {
		if rate := child.winRate(); rate > bestRate {
			best, bestRate = child, rate
		}
	}
	return best
}

// Follow pickBest down the tree.
func (n *TreeNode) bestLine() []dragon.Move {
	line := make([]dragon.Move, 0, 16)
	for node := n.pickBest(); node != nil && len(line) < MaxDepth; node = node.pickBest() {
		line = append(line, node.move)
	}
	return line
}
