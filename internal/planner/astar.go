package planner

import "container/heap"

// astar implements A* over the occupancy grid with the Manhattan
// distance heuristic. Moves are 4-connected and cost 1 each, which
// keeps the heuristic admissible and consistent, so the first time the
// goal is popped from the frontier its cost is optimal.
//
// The frontier is a binary heap with lazy deletion: relaxing a cell
// pushes a fresh entry instead of decreasing the key of the old one,
// and a popped entry whose cost no longer matches the best known cost
// for its cell is stale and skipped. Equal-f ties break on insertion
// order, which makes repeated searches over identical input walk cells
// in the same order and return identical paths.

// conn4 lists the orthogonal neighbour offsets as (row, col) deltas.
// Down before the lateral moves matters: a lane transition then settles
// into the new row before sweeping across it.
var conn4 = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// Search returns a minimum-length 4-connected path from start to goal,
// both endpoints included. It returns nil when start or goal is blocked
// or out of bounds, and when no unblocked route exists.
func Search(g *Grid, start, goal Cell) []Cell {
	if g.Blocked(start) || g.Blocked(goal) {
		return nil
	}

	bestCost := map[Cell]int{start: 0}
	cameFrom := make(map[Cell]Cell)

	seq := 0
	frontier := &cellHeap{{cell: start, f: manhattan(start, goal)}}

	for frontier.Len() > 0 {
		cur := heap.Pop(frontier).(*cellEntry)
		if cur.cost != bestCost[cur.cell] {
			continue // stale entry superseded by a later relaxation
		}
		if cur.cell == goal {
			return reconstruct(cameFrom, start, goal)
		}
		for _, d := range conn4 {
			next := Cell{Row: cur.cell.Row + d[0], Col: cur.cell.Col + d[1]}
			if g.Blocked(next) {
				continue
			}
			tentative := cur.cost + 1
			if prev, seen := bestCost[next]; seen && tentative >= prev {
				continue
			}
			bestCost[next] = tentative
			cameFrom[next] = cur.cell
			seq++
			heap.Push(frontier, &cellEntry{
				cell: next,
				cost: tentative,
				f:    tentative + manhattan(next, goal),
				seq:  seq,
			})
		}
	}
	return nil
}

func reconstruct(cameFrom map[Cell]Cell, start, goal Cell) []Cell {
	path := []Cell{goal}
	for cur := goal; cur != start; {
		cur = cameFrom[cur]
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func manhattan(a, b Cell) int {
	return intAbs(a.Row-b.Row) + intAbs(a.Col-b.Col)
}

func intAbs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// cellEntry is one frontier candidate: a cell with the path cost it was
// relaxed at. Stale entries (cost behind the best-cost map) stay in the
// heap until popped and discarded.
type cellEntry struct {
	cell Cell
	cost int // g: steps from start
	f    int // g + Manhattan remainder
	seq  int // insertion order, breaks f ties
}

type cellHeap []*cellEntry

func (h cellHeap) Len() int { return len(h) }
func (h cellHeap) Less(i, j int) bool {
	if h[i].f != h[j].f {
		return h[i].f < h[j].f
	}
	return h[i].seq < h[j].seq
}
func (h cellHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *cellHeap) Push(x interface{}) { *h = append(*h, x.(*cellEntry)) }
func (h *cellHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
