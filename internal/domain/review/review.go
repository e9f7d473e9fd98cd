package review

import (
	"fmt"

	"leela_client/internal/domain/board"
	"leela_client/internal/domain/gtp"
	errs "leela_client/internal/errors"
)

// MoveRecord is one entry of the game history. Pass moves carry no coordinate.
type MoveRecord struct {
	Color          gtp.Color       `json:"color"`
	CartesianCoord board.Cartesian `json:"cartesianCoord"`
	Pass           bool            `json:"pass,omitempty"`
}

// Notation returns the move in board notation ("D4", "pass").
func (m MoveRecord) Notation() (string, error) {
	if m.Pass {
		return "pass", nil
	}
	return board.CartesianToString(m.CartesianCoord)
}

// GameTreeState is an immutable view of the shared game tree. Cursor fields
// are indices into History/HistorySnapshots or -1.
type GameTreeState struct {
	Cursor           int              `json:"cursor"`
	BranchCursor     int              `json:"branchCursor"`
	HistoryCursor    int              `json:"historyCursor"`
	History          []MoveRecord     `json:"history"`
	HistorySnapshots []board.Snapshot `json:"historySnapshots"`
}

func EmptyState() GameTreeState {
	return GameTreeState{
		Cursor:           -1,
		BranchCursor:     -1,
		HistoryCursor:    -1,
		History:          []MoveRecord{},
		HistorySnapshots: []board.Snapshot{},
	}
}

// Validate reports ErrInvalidState unless every move has a snapshot and every
// cursor is -1 or an index into History.
func (s GameTreeState) Validate() error {
	if len(s.HistorySnapshots) != len(s.History) {
		return fmt.Errorf("%w: %d moves but %d snapshots", errs.ErrInvalidState, len(s.History), len(s.HistorySnapshots))
	}
	last := len(s.History) - 1
	cursors := []struct {
		name  string
		value int
	}{
		{"cursor", s.Cursor},
		{"branchCursor", s.BranchCursor},
		{"historyCursor", s.HistoryCursor},
	}
	for _, c := range cursors {
		if c.value < -1 || c.value > last {
			return fmt.Errorf("%w: %s %d outside [-1, %d]", errs.ErrInvalidState, c.name, c.value, last)
		}
	}
	return nil
}

// Clone copies the history slices so the result shares nothing mutable with s.
func (s GameTreeState) Clone() GameTreeState {
	out := s
	out.History = append([]MoveRecord{}, s.History...)
	out.HistorySnapshots = make([]board.Snapshot, len(s.HistorySnapshots))
	for i, snap := range s.HistorySnapshots {
		cp := make(board.Snapshot, len(snap))
		for r, row := range snap {
			cp[r] = append([]board.StoneState{}, row...)
		}
		out.HistorySnapshots[i] = cp
	}
	return out
}

// RoomEntry is the join request.
type RoomEntry struct {
	RoomID   string `json:"roomId"`
	UUID     string `json:"uuid"`
	Nickname string `json:"nickname"`
}

type RoomInfo struct {
	IsOwner   bool   `json:"isOwner"`
	SGF       string `json:"sgf"`
	Owner     string `json:"owner,omitempty"`
	ChatBroID string `json:"chatBroId,omitempty"`
}

// RoomState is the wire form of a state push. Absent cursors decode as nil.
type RoomState struct {
	RoomID           string           `json:"roomId"`
	Cursor           *int             `json:"cursor,omitempty"`
	BranchCursor     *int             `json:"branchCursor,omitempty"`
	HistoryCursor    *int             `json:"historyCursor,omitempty"`
	History          []MoveRecord     `json:"history"`
	HistorySnapshots []board.Snapshot `json:"historySnapshots"`
}

func NewRoomState(roomID string, s GameTreeState) RoomState {
	cursor, branch, hist := s.Cursor, s.BranchCursor, s.HistoryCursor
	rs := RoomState{
		RoomID:           roomID,
		Cursor:           &cursor,
		BranchCursor:     &branch,
		HistoryCursor:    &hist,
		History:          s.History,
		HistorySnapshots: s.HistorySnapshots,
	}
	if rs.History == nil {
		rs.History = []MoveRecord{}
	}
	if rs.HistorySnapshots == nil {
		rs.HistorySnapshots = []board.Snapshot{}
	}
	return rs
}

// TreeState fills in defaults: missing cursors become -1, missing lists empty.
func (rs RoomState) TreeState() GameTreeState {
	s := EmptyState()
	if rs.Cursor != nil {
		s.Cursor = *rs.Cursor
	}
	if rs.BranchCursor != nil {
		s.BranchCursor = *rs.BranchCursor
	}
	if rs.HistoryCursor != nil {
		s.HistoryCursor = *rs.HistoryCursor
	}
	if rs.History != nil {
		s.History = rs.History
	}
	if rs.HistorySnapshots != nil {
		s.HistorySnapshots = rs.HistorySnapshots
	}
	return s
}

// RoomMessage is the outbound chat push.
type RoomMessage struct {
	RoomID  string `json:"roomId"`
	Message string `json:"message"`
}
