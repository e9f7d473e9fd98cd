package review

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"leela_client/internal/domain/review"
	errs "leela_client/internal/errors"
)

// Rooms keeps one session per joined review room for the local user.
type Rooms struct {
	transport RoomTransport
	user      review.RoomEntry
	fade      time.Duration
	opts      []Option
	log       *zap.SugaredLogger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRooms(transport RoomTransport, uuid, nickname string, fade time.Duration, log *zap.SugaredLogger, opts ...Option) *Rooms {
	return &Rooms{
		transport: transport,
		user:      review.RoomEntry{UUID: uuid, Nickname: nickname},
		fade:      fade,
		opts:      opts,
		log:       log,
		sessions:  make(map[string]*Session),
	}
}

// Join returns the synced session for roomID, creating and joining it if
// needed. Cached state is restored before the server is asked.
func (r *Rooms) Join(ctx context.Context, roomID string) (*Session, error) {
	r.mu.Lock()
	s, ok := r.sessions[roomID]
	if !ok || s.Phase() == PhaseLeft {
		entry := r.user
		entry.RoomID = roomID
		bar := NewMessageBar(&logDisplay{log: r.log.With("roomId", roomID)}, r.fade, DefaultMessageSettle)
		opts := append(append([]Option{}, r.opts...), WithMessageBar(bar))
		s = NewSession(entry, r.transport, NewMemoryTree(), r.log, opts...)
		r.sessions[roomID] = s
	}
	r.mu.Unlock()

	if s.Phase() == PhaseSynced {
		return s, nil
	}
	if _, err := s.Restore(ctx); err != nil {
		r.log.Warnw("room state not restored", "roomId", roomID, "error", err)
	}
	if err := s.Join(ctx); err != nil {
		if errors.Is(err, errs.ErrRoomNotFound) {
			r.drop(roomID, s)
		}
		return nil, err
	}
	return s, nil
}

func (r *Rooms) Get(roomID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[roomID]
	if !ok {
		return nil, errs.ErrRoomNotFound
	}
	return s, nil
}

func (r *Rooms) Leave(roomID string) error {
	s, err := r.Get(roomID)
	if err != nil {
		return err
	}
	r.drop(roomID, s)
	return s.Leave()
}

// Close leaves every room.
func (r *Rooms) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for roomID, s := range sessions {
		if err := s.Leave(); err != nil {
			r.log.Warnw("leave room failed", "roomId", roomID, "error", err)
		}
	}
}

func (r *Rooms) drop(roomID string, s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[roomID] == s {
		delete(r.sessions, roomID)
	}
}

// logDisplay shows room messages in the client log.
type logDisplay struct {
	log *zap.SugaredLogger
}

func (d *logDisplay) Show(text string) {
	d.log.Infow("room message", "message", text)
}

func (d *logDisplay) Hide() {}
