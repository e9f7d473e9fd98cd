package board

import (
	"fmt"

	errs "leela_client/internal/errors"
)

// Clone copies every row of s.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for i, row := range s {
		out[i] = append([]StoneState{}, row...)
	}
	return out
}

func (c StoneState) Opponent() StoneState {
	switch c {
	case Black:
		return White
	case White:
		return Black
	}
	return Empty
}

// Place returns a new snapshot with stone put at p and opposing groups left
// without liberties removed. A move that leaves its own group without
// liberties is kept as is; suicide rules are the server's concern.
func (s Snapshot) Place(p ArrayPosition, stone StoneState) (Snapshot, error) {
	size := len(s)
	if !p.Valid(size) {
		return nil, fmt.Errorf("%w: row %d col %d", errs.ErrInvalidCoordinate, p.Row, p.Col)
	}
	if s.At(p) != Empty {
		return nil, fmt.Errorf("%w: row %d col %d is occupied", errs.ErrInvalidCoordinate, p.Row, p.Col)
	}

	next := s.Clone()
	next[p.Row][p.Col] = stone
	for _, n := range neighbours(p, size) {
		if next.At(n) != stone.Opponent() {
			continue
		}
		group, libs := next.group(n)
		if libs == 0 {
			for _, g := range group {
				next[g.Row][g.Col] = Empty
			}
		}
	}
	return next, nil
}

func (s Snapshot) group(start ArrayPosition) (stones []ArrayPosition, liberties int) {
	size := len(s)
	color := s.At(start)
	seen := map[ArrayPosition]bool{start: true}
	libs := map[ArrayPosition]bool{}
	stack := []ArrayPosition{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		stones = append(stones, cur)
		for _, n := range neighbours(cur, size) {
			switch s.At(n) {
			case Empty:
				libs[n] = true
			case color:
				if !seen[n] {
					seen[n] = true
					stack = append(stack, n)
				}
			}
		}
	}
	return stones, len(libs)
}

func neighbours(p ArrayPosition, size int) []ArrayPosition {
	out := make([]ArrayPosition, 0, 4)
	for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		n := ArrayPosition{Row: p.Row + d[0], Col: p.Col + d[1]}
		if n.Valid(size) {
			out = append(out, n)
		}
	}
	return out
}
