package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"leela_client/internal/domain/review"
)

const roomStateTTL = 24 * time.Hour

// RoomStateStore keeps the last-known game tree of every review room so a
// restarted client can show it before the room is re-joined.
type RoomStateStore struct {
	redis *redis.Client
	log   *zap.SugaredLogger
}

func NewRoomStateStore(redis *redis.Client, log *zap.SugaredLogger) *RoomStateStore {
	return &RoomStateStore{
		redis: redis,
		log:   log,
	}
}

func roomStateKey(roomID string) string {
	return "review:room:" + roomID
}

func (r *RoomStateStore) SaveRoomState(ctx context.Context, roomID string, state review.GameTreeState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode room state: %w", err)
	}
	if err := r.redis.Set(ctx, roomStateKey(roomID), data, roomStateTTL).Err(); err != nil {
		return fmt.Errorf("save room state %s: %w", roomID, err)
	}
	return nil
}

// LoadRoomState returns ok=false when nothing is stored for the room.
func (r *RoomStateStore) LoadRoomState(ctx context.Context, roomID string) (state review.GameTreeState, ok bool, err error) {
	val, err := r.redis.Get(ctx, roomStateKey(roomID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return review.GameTreeState{}, false, nil
	}
	if err != nil {
		return review.GameTreeState{}, false, fmt.Errorf("load room state %s: %w", roomID, err)
	}

	if err := json.Unmarshal(val, &state); err != nil {
		r.log.Warnw("dropping corrupt room state", "roomId", roomID, "error", err)
		r.redis.Del(ctx, roomStateKey(roomID))
		return review.GameTreeState{}, false, nil
	}
	return state, true, nil
}

func (r *RoomStateStore) DeleteRoomState(ctx context.Context, roomID string) error {
	return r.redis.Del(ctx, roomStateKey(roomID)).Err()
}
