package review

import (
	"testing"

	"leela_client/internal/domain/board"
	"leela_client/internal/domain/gtp"
)

func TestMemoryTreeImport(t *testing.T) {
	tree := NewMemoryTree()
	state, err := tree.Import("(;GM[1]SZ[9];B[ee];W[];B[cc](;W[gg])(;W[cg]))", true)
	if err != nil {
		t.Fatal(err)
	}
	if tree.Size() != 9 || !tree.Editable() {
		t.Fatalf("size = %d editable = %v", tree.Size(), tree.Editable())
	}
	if len(state.History) != 4 || state.Cursor != -1 {
		t.Fatalf("state = %+v", state)
	}
	if !state.History[1].Pass || state.History[1].Color != gtp.ColorWhite {
		t.Fatalf("pass move = %+v", state.History[1])
	}
	if state.History[0].CartesianCoord != (board.Cartesian{X: 5, Y: 5}) {
		t.Fatalf("first move = %+v", state.History[0])
	}
	last := state.HistorySnapshots[3]
	if last[6][6] != board.White || last[4][4] != board.Black || last[2][2] != board.Black {
		t.Fatal("snapshot does not match replayed moves")
	}

	tree.Load(state)
	tree.ReturnToMainBranch()
	if got := tree.State(); got.BranchCursor != -1 || len(got.History) != 4 {
		t.Fatalf("state = %+v", got)
	}
}

func TestStateFromEmptySGF(t *testing.T) {
	state, size, err := StateFromSGF("")
	if err != nil || size != board.DefaultSize || len(state.History) != 0 {
		t.Fatalf("state = %+v size = %d err = %v", state, size, err)
	}
	if _, _, err := StateFromSGF("(;SZ[9];B[zz])"); err == nil {
		t.Fatal("off-board move accepted")
	}
}
