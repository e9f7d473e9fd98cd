package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"leela_client/internal/domain/game"
	"leela_client/internal/domain/gtp"
	"leela_client/internal/domain/review"
	errs "leela_client/internal/errors"
	"leela_client/internal/usecase/command"
)

// Control message names shared with the game server.
const (
	SysRequestAI             = "requestAI"
	SysEnterReviewRoom       = "enterReviewRoom"
	SysLeaveReviewRoom       = "leaveReviewRoom"
	SysUpdateReviewRoomState = "updateReviewRoomState"
	SysReviewRoomState       = "reviewRoomStateUpdate"
	SysReviewRoomMessage     = "reviewRoomMessage"
)

// Byo-yomi used for timed games: 25 stones in 25 minutes.
const (
	byoYomiSeconds = 25 * 60
	byoYomiStones  = 25
)

// Exec sends cmd and waits for its decoded response. Engine failures are
// returned as ErrEngineFailure.
func (c *GameClient) Exec(ctx context.Context, cmd gtp.Command) (gtp.Response, error) {
	f, err := c.Send(cmd)
	if err != nil {
		return gtp.Response{}, err
	}
	text, err := f.Wait(ctx)
	if err != nil {
		return gtp.Response{}, err
	}
	resp, err := gtp.ParseResponse(text)
	if err != nil {
		return gtp.Response{}, err
	}
	return resp, resp.Err()
}

// InitBoard prepares the engine for a new game. All commands are sent before
// any response is awaited.
func (c *GameClient) InitBoard(ctx context.Context, cfg game.BoardConfig) error {
	cmds := []gtp.Command{command.BoardSize(cfg.Size), command.ClearBoard()}
	if cfg.Komi > 0 {
		cmds = append(cmds, command.Komi(cfg.Komi))
	}
	if cfg.Handicap > 0 {
		cmds = append(cmds, command.FixedHandicap(cfg.Handicap))
	}
	if cfg.TimeMinutes > 0 {
		cmds = append(cmds, command.TimeSettings(cfg.TimeMinutes*60, byoYomiSeconds, byoYomiStones))
	}

	futures := make([]*Future[string], 0, len(cmds))
	for _, cmd := range cmds {
		f, err := c.Send(cmd)
		if err != nil {
			return fmt.Errorf("%s: %w", cmd.Name, err)
		}
		futures = append(futures, f)
	}

	for i, f := range futures {
		text, err := f.Wait(ctx)
		if err != nil {
			return fmt.Errorf("%s: %w", cmds[i].Name, err)
		}
		resp, err := gtp.ParseResponse(text)
		if err != nil {
			return fmt.Errorf("%s: %w", cmds[i].Name, err)
		}
		if err := resp.Err(); err != nil {
			return fmt.Errorf("%s: %w", cmds[i].Name, err)
		}
	}
	return nil
}

// Genmove asks the engine for a move and returns its content ("Q16", "pass",
// "resign").
func (c *GameClient) Genmove(ctx context.Context, color gtp.Color) (string, error) {
	resp, err := c.Exec(ctx, command.Genmove(color))
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}

// RequestAI asks the server for an engine seat. It returns whether one was
// granted and the server's queue position or seat number.
func (c *GameClient) RequestAI(ctx context.Context) (bool, int, error) {
	f, err := c.SendSystem(SysRequestAI, nil)
	if err != nil {
		return false, -1, err
	}
	args, err := f.Wait(ctx)
	if err != nil {
		return false, -1, err
	}

	var out []any
	if err := json.Unmarshal(args, &out); err != nil || len(out) != 2 {
		return false, -1, fmt.Errorf("%w: requestAI reply %s", errs.ErrMalformedResponse, args)
	}
	ok, _ := out[0].(bool)
	n, _ := out[1].(float64)
	return ok, int(n), nil
}

// EnterReviewRoom joins a room. A nil info with a nil error means the server
// does not know the room.
func (c *GameClient) EnterReviewRoom(ctx context.Context, entry review.RoomEntry) (*review.RoomInfo, error) {
	f, err := c.SendSystem(SysEnterReviewRoom, entry)
	if err != nil {
		return nil, err
	}
	args, err := f.Wait(ctx)
	if err != nil {
		return nil, err
	}
	if isFalsy(args) {
		return nil, nil
	}

	var info review.RoomInfo
	if err := json.Unmarshal(args, &info); err != nil {
		return nil, fmt.Errorf("%w: enterReviewRoom reply: %v", errs.ErrMalformedResponse, err)
	}
	return &info, nil
}

func (c *GameClient) LeaveReviewRoom(roomID string) error {
	return c.NotifySystem(SysLeaveReviewRoom, roomID)
}

func (c *GameClient) UpdateReviewRoomState(state review.RoomState) error {
	return c.NotifySystem(SysUpdateReviewRoomState, state)
}

func (c *GameClient) SendReviewRoomMessage(roomID, message string) error {
	return c.NotifySystem(SysReviewRoomMessage, review.RoomMessage{RoomID: roomID, Message: message})
}

func (c *GameClient) OnReviewRoomState(fn func(review.RoomState)) (unsubscribe func()) {
	return c.Subscribe(SysReviewRoomState, func(args json.RawMessage) {
		var state review.RoomState
		if err := json.Unmarshal(args, &state); err != nil {
			c.log.Warnw("discarding malformed room state", "error", err)
			return
		}
		fn(state)
	})
}

func (c *GameClient) OnReviewRoomMessage(fn func(string)) (unsubscribe func()) {
	return c.Subscribe(SysReviewRoomMessage, func(args json.RawMessage) {
		var msg string
		if err := json.Unmarshal(args, &msg); err != nil {
			c.log.Warnw("discarding malformed room message", "error", err)
			return
		}
		fn(msg)
	})
}

func isFalsy(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	switch string(v) {
	case "", "null", "false", "0", `""`:
		return true
	}
	return false
}
