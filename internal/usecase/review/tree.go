package review

import (
	"fmt"
	"strconv"
	"sync"

	"leela_client/internal/domain/board"
	"leela_client/internal/domain/gtp"
	"leela_client/internal/domain/review"
	"leela_client/internal/domain/sgf"
)

// MemoryTree keeps the room's game tree in memory. It backs sessions that
// have no interactive board attached.
type MemoryTree struct {
	mu       sync.Mutex
	state    review.GameTreeState
	size     int
	editable bool
}

func NewMemoryTree() *MemoryTree {
	return &MemoryTree{state: review.EmptyState(), size: board.DefaultSize}
}

// Import loads the main line of an SGF record and rewinds to the start.
func (t *MemoryTree) Import(sgfText string, editable bool) (review.GameTreeState, error) {
	state, size, err := StateFromSGF(sgfText)
	if err != nil {
		return review.GameTreeState{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = state
	t.size = size
	t.editable = editable
	return state.Clone(), nil
}

func (t *MemoryTree) ReturnToMainBranch() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state.BranchCursor = -1
}

func (t *MemoryTree) Load(state review.GameTreeState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = state.Clone()
	if n := len(state.HistorySnapshots); n > 0 {
		t.size = len(state.HistorySnapshots[n-1])
	}
}

func (t *MemoryTree) State() review.GameTreeState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Clone()
}

func (t *MemoryTree) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.size
}

func (t *MemoryTree) Editable() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.editable
}

// StateFromSGF replays the main line of an SGF record. Cursors are left at -1.
func StateFromSGF(sgfText string) (review.GameTreeState, int, error) {
	state := review.EmptyState()
	size := board.DefaultSize
	if sgfText == "" {
		return state, size, nil
	}

	record, err := sgf.Parse(sgfText)
	if err != nil {
		return state, size, err
	}
	if sz, ok := record.Property("SZ"); ok {
		if n, err := strconv.Atoi(sz); err == nil && n > 0 {
			size = n
		}
	}

	snap := board.NewSnapshot(size)
	for _, node := range record.MainLine() {
		for _, color := range []gtp.Color{gtp.ColorBlack, gtp.ColorWhite} {
			values, ok := node.Properties[string(color)]
			if !ok || len(values) == 0 {
				continue
			}
			move, next, err := replay(snap, color, values[0], size)
			if err != nil {
				return state, size, err
			}
			snap = next
			state.History = append(state.History, move)
			state.HistorySnapshots = append(state.HistorySnapshots, snap)
		}
	}
	return state, size, nil
}

func replay(snap board.Snapshot, color gtp.Color, point string, size int) (review.MoveRecord, board.Snapshot, error) {
	if point == "" || (point == "tt" && size <= 19) {
		return review.MoveRecord{Color: color, Pass: true}, snap, nil
	}
	c, err := board.SGFToCartesian(point, size)
	if err != nil {
		return review.MoveRecord{}, nil, err
	}
	stone := board.Black
	if color == gtp.ColorWhite {
		stone = board.White
	}
	next, err := snap.Place(board.CartesianToArray(c, size), stone)
	if err != nil {
		return review.MoveRecord{}, nil, fmt.Errorf("replay %s[%s]: %w", color, point, err)
	}
	return review.MoveRecord{Color: color, CartesianCoord: c}, next, nil
}
