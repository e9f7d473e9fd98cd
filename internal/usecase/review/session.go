package review

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"leela_client/internal/domain/board"
	"leela_client/internal/domain/event"
	"leela_client/internal/domain/gtp"
	"leela_client/internal/domain/review"
	errs "leela_client/internal/errors"
)

type RoomTransport interface {
	EnterReviewRoom(ctx context.Context, entry review.RoomEntry) (*review.RoomInfo, error)
	LeaveReviewRoom(roomID string) error
	UpdateReviewRoomState(state review.RoomState) error
	SendReviewRoomMessage(roomID, message string) error
	OnReviewRoomState(fn func(review.RoomState)) (unsubscribe func())
	OnReviewRoomMessage(fn func(string)) (unsubscribe func())
	OnConnected(fn func()) (unsubscribe func())
}

// GameTree is the board the session drives.
type GameTree interface {
	Import(sgf string, editable bool) (review.GameTreeState, error)
	ReturnToMainBranch()
	Load(state review.GameTreeState)
}

type StateStore interface {
	SaveRoomState(ctx context.Context, roomID string, state review.GameTreeState) error
	LoadRoomState(ctx context.Context, roomID string) (review.GameTreeState, bool, error)
}

type EventSink interface {
	Publish(eventType, roomID string, data map[string]any) error
}

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseJoining
	PhaseSynced
	PhaseLeft
)

func (p Phase) String() string {
	switch p {
	case PhaseJoining:
		return "joining"
	case PhaseSynced:
		return "synced"
	case PhaseLeft:
		return "left"
	}
	return "idle"
}

const storeTimeout = 3 * time.Second

type Option func(*Session)

func WithStateStore(store StateStore) Option {
	return func(s *Session) { s.store = store }
}

func WithEvents(events EventSink) Option {
	return func(s *Session) { s.events = events }
}

func WithMessageBar(bar *MessageBar) Option {
	return func(s *Session) { s.bar = bar }
}

// Session is one client's membership in a review room. The owner is the only
// writer of the room state; observers mirror whatever the server pushes.
type Session struct {
	entry     review.RoomEntry
	transport RoomTransport
	tree      GameTree
	store     StateStore
	events    EventSink
	bar       *MessageBar
	log       *zap.SugaredLogger

	mu         sync.Mutex
	phase      Phase
	joinedOnce bool
	isOwner    bool
	info       review.RoomInfo
	state      review.GameTreeState
	unsubs     []func()
}

func NewSession(entry review.RoomEntry, transport RoomTransport, tree GameTree, log *zap.SugaredLogger, opts ...Option) *Session {
	s := &Session{
		entry:     entry,
		transport: transport,
		tree:      tree,
		log:       log.With("roomId", entry.RoomID),
		state:     review.EmptyState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.bar == nil {
		s.bar = NewMessageBar(nil, DefaultMessageFade, DefaultMessageSettle)
	}
	return s
}

func (s *Session) RoomID() string {
	return s.entry.RoomID
}

func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) IsOwner() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isOwner
}

func (s *Session) Info() review.RoomInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}

func (s *Session) State() review.GameTreeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *Session) Message() (string, bool) {
	return s.bar.Current()
}

// Restore loads the last state cached for the room, if any. It is meant to
// run before Join so the board is not empty while the server answers.
func (s *Session) Restore(ctx context.Context) (bool, error) {
	if s.store == nil {
		return false, nil
	}
	state, ok, err := s.store.LoadRoomState(ctx, s.entry.RoomID)
	if err != nil || !ok {
		return false, err
	}
	if err := state.Validate(); err != nil {
		return false, fmt.Errorf("cached state of %s: %w", s.entry.RoomID, err)
	}

	s.mu.Lock()
	s.state = state
	s.tree.Load(state.Clone())
	s.mu.Unlock()

	s.log.Infow("room state restored", "moves", len(state.History))
	return true, nil
}

// Join enters the room. Ownership is fixed by the first successful join and
// kept across re-joins after a reconnect. The room SGF seeds the board only
// while the local history is empty. A synced session stays synced while it
// re-joins, and a failed join leaves the phase as it was.
func (s *Session) Join(ctx context.Context) error {
	s.mu.Lock()
	if s.phase == PhaseLeft && s.joinedOnce {
		s.mu.Unlock()
		return errs.ErrRoomNotFound
	}
	prev := s.phase
	if prev != PhaseSynced {
		s.phase = PhaseJoining
	}
	if s.unsubs == nil {
		s.unsubs = []func(){
			s.transport.OnReviewRoomState(s.applyRemote),
			s.transport.OnReviewRoomMessage(s.bar.Push),
			s.transport.OnConnected(s.rejoin),
		}
	}
	s.mu.Unlock()

	info, err := s.transport.EnterReviewRoom(ctx, s.entry)
	if err != nil {
		s.restorePhase(prev)
		return fmt.Errorf("enter review room %s: %w", s.entry.RoomID, err)
	}
	if info == nil {
		s.mu.Lock()
		s.phase = PhaseLeft
		s.mu.Unlock()
		return errs.ErrRoomNotFound
	}

	s.mu.Lock()
	if !s.joinedOnce {
		s.isOwner = info.IsOwner
		s.joinedOnce = true
	}
	s.info = *info
	s.info.IsOwner = s.isOwner

	state, err := s.tree.Import(info.SGF, s.isOwner)
	if err != nil {
		if s.phase == PhaseJoining {
			s.phase = prev
		}
		s.mu.Unlock()
		return fmt.Errorf("import room sgf: %w", err)
	}
	if len(s.state.History) == 0 {
		s.state = state
	} else {
		s.tree.Load(s.state.Clone())
	}
	s.phase = PhaseSynced
	isOwner := s.isOwner
	s.mu.Unlock()

	s.log.Infow("joined review room", "isOwner", isOwner, "owner", info.Owner)
	s.emit(event.RoomJoined, map[string]any{"isOwner": isOwner, "uuid": s.entry.UUID})
	return nil
}

// restorePhase undoes the Joining mark unless Leave ran meanwhile.
func (s *Session) restorePhase(prev Phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase == PhaseJoining {
		s.phase = prev
	}
}

func (s *Session) rejoin() {
	if s.Phase() == PhaseLeft {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.Join(ctx); err != nil {
		s.log.Warnw("rejoin failed", "error", err)
	}
}

// Publish replaces the room state and pushes it to the server. Only the owner
// may publish, and only a state that passes Validate.
func (s *Session) Publish(ctx context.Context, state review.GameTreeState) error {
	if err := state.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	if s.phase != PhaseSynced {
		s.mu.Unlock()
		return errs.ErrNotSynced
	}
	if !s.isOwner {
		s.mu.Unlock()
		return errs.ErrNotOwner
	}
	s.state = state.Clone()
	s.tree.Load(state.Clone())
	s.mu.Unlock()

	if err := s.transport.UpdateReviewRoomState(review.NewRoomState(s.entry.RoomID, state)); err != nil {
		return fmt.Errorf("publish room state: %w", err)
	}
	s.save(ctx, state)
	s.emit(event.StatePublished, map[string]any{"moves": len(state.History), "cursor": state.Cursor})
	return nil
}

// Play appends a move after the current cursor, dropping anything past it,
// and publishes the result.
func (s *Session) Play(ctx context.Context, move review.MoveRecord) (review.GameTreeState, error) {
	cur := s.State()
	next := cur.Clone()
	keep := min(cur.Cursor+1, len(next.History), len(next.HistorySnapshots))
	if keep < 0 {
		keep = 0
	}
	next.History = next.History[:keep]
	next.HistorySnapshots = next.HistorySnapshots[:keep]

	size := board.DefaultSize
	snap := board.NewSnapshot(size)
	if keep > 0 {
		snap = next.HistorySnapshots[keep-1]
		size = len(snap)
	}
	if !move.Pass {
		if !move.CartesianCoord.Valid(size) {
			return cur, fmt.Errorf("%w: (%d,%d)", errs.ErrInvalidCoordinate, move.CartesianCoord.X, move.CartesianCoord.Y)
		}
		stone := board.Black
		if move.Color == gtp.ColorWhite {
			stone = board.White
		}
		placed, err := snap.Place(board.CartesianToArray(move.CartesianCoord, size), stone)
		if err != nil {
			return cur, err
		}
		snap = placed
	}

	next.History = append(next.History, move)
	next.HistorySnapshots = append(next.HistorySnapshots, snap)
	next.Cursor = len(next.History) - 1
	next.HistoryCursor = next.Cursor
	if err := s.Publish(ctx, next); err != nil {
		return cur, err
	}
	return next, nil
}

// Navigate moves the cursor by delta, clamped to [-1, len(history)-1].
func (s *Session) Navigate(ctx context.Context, delta int) (review.GameTreeState, error) {
	next := s.State()
	next.Cursor += delta
	if next.Cursor < -1 {
		next.Cursor = -1
	}
	if last := len(next.History) - 1; next.Cursor > last {
		next.Cursor = last
	}
	if err := s.Publish(ctx, next); err != nil {
		return s.State(), err
	}
	return next, nil
}

func (s *Session) applyRemote(rs review.RoomState) {
	if rs.RoomID != "" && rs.RoomID != s.entry.RoomID {
		return
	}

	s.mu.Lock()
	if s.phase != PhaseSynced || s.isOwner {
		s.mu.Unlock()
		return
	}
	incoming := rs.TreeState()
	if len(s.state.History) > 0 && len(incoming.History) == 0 {
		s.tree.ReturnToMainBranch()
	}
	s.state = incoming
	s.tree.Load(incoming.Clone())
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	s.save(ctx, incoming)
	s.emit(event.StateApplied, map[string]any{"moves": len(incoming.History), "cursor": incoming.Cursor})
}

func (s *Session) SendMessage(text string) error {
	if s.Phase() != PhaseSynced {
		return errs.ErrNotSynced
	}
	if err := s.transport.SendReviewRoomMessage(s.entry.RoomID, text); err != nil {
		return fmt.Errorf("send room message: %w", err)
	}
	s.emit(event.RoomMessage, map[string]any{"uuid": s.entry.UUID, "nickname": s.entry.Nickname})
	return nil
}

// Leave exits the room for good. The session cannot be joined again.
func (s *Session) Leave() error {
	s.mu.Lock()
	if s.phase == PhaseLeft {
		s.mu.Unlock()
		return nil
	}
	s.phase = PhaseLeft
	s.joinedOnce = true
	unsubs := s.unsubs
	s.unsubs = nil
	s.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	s.bar.Stop()

	err := s.transport.LeaveReviewRoom(s.entry.RoomID)
	s.emit(event.RoomLeft, map[string]any{"uuid": s.entry.UUID})
	return err
}

func (s *Session) save(ctx context.Context, state review.GameTreeState) {
	if s.store == nil {
		return
	}
	if err := s.store.SaveRoomState(ctx, s.entry.RoomID, state); err != nil {
		s.log.Warnw("room state not cached", "error", err)
	}
}

func (s *Session) emit(eventType string, data map[string]any) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(eventType, s.entry.RoomID, data); err != nil {
		s.log.Warnw("event not published", "type", eventType, "error", err)
	}
}
