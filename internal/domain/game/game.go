package game

import (
	"time"

	"leela_client/internal/domain/gtp"
)

const (
	StatusActive   = "active"
	StatusFinished = "finished"
)

// BoardConfig describes a new game against the engine. Zero values for Komi,
// Handicap and TimeMinutes leave the engine defaults in place.
type BoardConfig struct {
	Size        int       `json:"board_size"`
	Komi        float64   `json:"komi"`
	Handicap    int       `json:"handicap"`
	TimeMinutes int       `json:"time"`
	Color       gtp.Color `json:"color"`
}

const (
	PassMove   = "pass"
	ResignMove = "resign"
)

type Move struct {
	Color       gtp.Color `json:"color" bson:"color"`
	Coordinates string    `json:"coordinates" bson:"coordinates"`
	SgfPoint    string    `json:"sgf_point,omitempty" bson:"sgf_point,omitempty"`
}

// GameRecord is an archived game played against the engine.
type GameRecord struct {
	ID         string     `json:"id" bson:"_id"`
	BoardSize  int        `json:"board_size" bson:"board_size"`
	Komi       float64    `json:"komi" bson:"komi"`
	Handicap   int        `json:"handicap" bson:"handicap"`
	Player     string     `json:"player" bson:"player"`
	Color      gtp.Color  `json:"color" bson:"color"`
	Moves      []Move     `json:"moves" bson:"moves"`
	Result     string     `json:"result" bson:"result"`
	SGF        string     `json:"sgf,omitempty" bson:"sgf,omitempty"`
	Status     string     `json:"status" bson:"status"`
	CreatedAt  time.Time  `json:"created_at" bson:"created_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" bson:"finished_at,omitempty"`
}
