package event

import "time"

const (
	RoomJoined     = "room_joined"
	RoomLeft       = "room_left"
	StatePublished = "state_published"
	StateApplied   = "state_applied"
	RoomMessage    = "room_message"
	GameStarted    = "game_started"
	MovePlayed     = "move_played"
	GameFinished   = "game_finished"
)

// Event is the JSON body of every record written to the events topic.
// RoomID carries the game id for play events.
type Event struct {
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	RoomID    string         `json:"roomId"`
	Data      map[string]any `json:"data,omitempty"`
}
