package board

// StoneState is the content of one intersection.
type StoneState int

const (
	Empty StoneState = iota
	Black
	White
)

// Snapshot is a full board, indexed by ArrayPosition.
type Snapshot [][]StoneState

func NewSnapshot(size int) Snapshot {
	s := make(Snapshot, size)
	for i := range s {
		s[i] = make([]StoneState, size)
	}
	return s
}

func (s Snapshot) At(p ArrayPosition) StoneState {
	return s[p.Row][p.Col]
}

// VirtualBoard is a panning viewport over a Size x Size board. The viewport
// is Size+2*Margin cells wide and wraps around the edges of the real board.
type VirtualBoard struct {
	Size   int
	Margin int
	OffX   int
	OffY   int
}

func NewVirtualBoard(size, margin int) VirtualBoard {
	return VirtualBoard{Size: size, Margin: margin}
}

func (v VirtualBoard) Dim() int {
	return v.Size + 2*v.Margin
}

// RealCell maps viewport cell (i, j) to the stored cell it displays.
func (v VirtualBoard) RealCell(i, j int) ArrayPosition {
	return ArrayPosition{Row: wrap(i-v.OffX, v.Size), Col: wrap(j-v.OffY, v.Size)}
}

// Pan returns the viewport shifted by (dx, dy). Offsets are kept in [0, Size).
func (v VirtualBoard) Pan(dx, dy int) VirtualBoard {
	v.OffX = wrap(v.OffX+dx, v.Size)
	v.OffY = wrap(v.OffY+dy, v.Size)
	return v
}

// Project builds the viewport contents for a stored snapshot. The snapshot
// is only read. A board without cells, or a snapshot smaller than Size,
// projects to an empty viewport.
func (v VirtualBoard) Project(s Snapshot) Snapshot {
	dim := max(v.Dim(), 0)
	if v.Size <= 0 || len(s) < v.Size {
		return NewSnapshot(dim)
	}
	view := make(Snapshot, dim)
	for i := 0; i < dim; i++ {
		view[i] = make([]StoneState, dim)
		for j := 0; j < dim; j++ {
			view[i][j] = s.At(v.RealCell(i, j))
		}
	}
	return view
}

func wrap(n, size int) int {
	if size <= 0 {
		return 0
	}
	m := n % size
	if m < 0 {
		m += size
	}
	return m
}
