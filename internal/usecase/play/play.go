package play

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"leela_client/internal/domain/board"
	"leela_client/internal/domain/event"
	"leela_client/internal/domain/game"
	"leela_client/internal/domain/gtp"
	"leela_client/internal/domain/sgf"
	errs "leela_client/internal/errors"
	"leela_client/internal/usecase/command"
)

const EngineName = "Leela Zero"

type EngineClient interface {
	InitBoard(ctx context.Context, cfg game.BoardConfig) error
	Exec(ctx context.Context, cmd gtp.Command) (gtp.Response, error)
	Genmove(ctx context.Context, color gtp.Color) (string, error)
	RequestAI(ctx context.Context) (bool, int, error)
}

type GameArchive interface {
	SaveGame(ctx context.Context, record game.GameRecord) error
}

type EventSink interface {
	Publish(eventType, roomID string, data map[string]any) error
}

// PlaySession runs one game at a time against the remote engine.
type PlaySession struct {
	client  EngineClient
	archive GameArchive
	events  EventSink
	player  string
	log     *zap.SugaredLogger

	mu     sync.Mutex
	active *game.GameRecord
}

// NewPlaySession accepts nil archive and events.
func NewPlaySession(client EngineClient, archive GameArchive, events EventSink, player string, log *zap.SugaredLogger) *PlaySession {
	return &PlaySession{
		client:  client,
		archive: archive,
		events:  events,
		player:  player,
		log:     log,
	}
}

// GenmoveResult is the engine's reply. Coord is nil for pass and resign.
type GenmoveResult struct {
	Move   game.Move        `json:"move"`
	Coord  *board.Cartesian `json:"coord,omitempty"`
	Pass   bool             `json:"pass"`
	Resign bool             `json:"resign"`
}

func (p *PlaySession) Start(ctx context.Context, cfg game.BoardConfig) (game.GameRecord, error) {
	if cfg.Size <= 0 {
		cfg.Size = command.DefaultBoardSize
	}
	if cfg.Color == "" {
		cfg.Color = gtp.ColorBlack
	}
	if err := checkColor(cfg.Color); err != nil {
		return game.GameRecord{}, err
	}

	if err := p.client.InitBoard(ctx, cfg); err != nil {
		return game.GameRecord{}, fmt.Errorf("init board: %w", err)
	}

	record := game.GameRecord{
		ID:        uuid.NewString(),
		BoardSize: cfg.Size,
		Komi:      cfg.Komi,
		Handicap:  cfg.Handicap,
		Player:    p.player,
		Color:     cfg.Color,
		Moves:     []game.Move{},
		Status:    game.StatusActive,
		CreatedAt: time.Now(),
	}

	p.mu.Lock()
	p.active = &record
	p.mu.Unlock()

	p.log.Infow("game started", "gameId", record.ID, "size", cfg.Size, "komi", cfg.Komi, "handicap", cfg.Handicap)
	p.emit(event.GameStarted, record.ID, map[string]any{"size": cfg.Size, "color": cfg.Color})
	return record, nil
}

func (p *PlaySession) Current() (game.GameRecord, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active == nil {
		return game.GameRecord{}, false
	}
	return copyRecord(*p.active), true
}

func (p *PlaySession) activeSize() (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active == nil {
		return 0, errs.ErrNoActiveGame
	}
	return p.active.BoardSize, nil
}

// Play sends a stone placement. The coordinate is checked locally first.
func (p *PlaySession) Play(ctx context.Context, color gtp.Color, coord board.Cartesian) (game.Move, error) {
	if err := checkColor(color); err != nil {
		return game.Move{}, err
	}
	size, err := p.activeSize()
	if err != nil {
		return game.Move{}, err
	}
	if !coord.Valid(size) {
		return game.Move{}, fmt.Errorf("%w: (%d,%d) on %dx%d board", errs.ErrInvalidCoordinate, coord.X, coord.Y, size, size)
	}
	notation, err := board.CartesianToString(coord)
	if err != nil {
		return game.Move{}, err
	}

	if _, err := p.client.Exec(ctx, command.Play(color, notation)); err != nil {
		return game.Move{}, fmt.Errorf("play %s %s: %w", color, notation, err)
	}

	point, _ := board.CartesianToSGF(coord, size)
	move := game.Move{Color: color, Coordinates: notation, SgfPoint: point}
	p.appendMove(move)
	return move, nil
}

func (p *PlaySession) Pass(ctx context.Context, color gtp.Color) (game.Move, error) {
	if err := checkColor(color); err != nil {
		return game.Move{}, err
	}
	if _, err := p.activeSize(); err != nil {
		return game.Move{}, err
	}
	if _, err := p.client.Exec(ctx, command.Play(color, game.PassMove)); err != nil {
		return game.Move{}, fmt.Errorf("pass %s: %w", color, err)
	}
	move := game.Move{Color: color, Coordinates: game.PassMove}
	p.appendMove(move)
	return move, nil
}

// Genmove asks the engine to move for color. A resignation finishes the game.
func (p *PlaySession) Genmove(ctx context.Context, color gtp.Color) (GenmoveResult, error) {
	if err := checkColor(color); err != nil {
		return GenmoveResult{}, err
	}
	size, err := p.activeSize()
	if err != nil {
		return GenmoveResult{}, err
	}

	reply, err := p.client.Genmove(ctx, color)
	if err != nil {
		return GenmoveResult{}, fmt.Errorf("genmove %s: %w", color, err)
	}

	switch strings.ToLower(strings.TrimSpace(reply)) {
	case game.PassMove:
		move := game.Move{Color: color, Coordinates: game.PassMove}
		p.appendMove(move)
		return GenmoveResult{Move: move, Pass: true}, nil
	case game.ResignMove:
		move := game.Move{Color: color, Coordinates: game.ResignMove}
		result := fmt.Sprintf("%s+R", color.Opponent())
		if _, err := p.finish(ctx, result); err != nil {
			return GenmoveResult{}, err
		}
		return GenmoveResult{Move: move, Resign: true}, nil
	}

	coord, err := board.StringToCartesian(reply)
	if err != nil {
		return GenmoveResult{}, fmt.Errorf("%w: genmove reply %q", errs.ErrMalformedResponse, reply)
	}
	point, err := board.CartesianToSGF(coord, size)
	if err != nil {
		return GenmoveResult{}, fmt.Errorf("%w: genmove reply %q", errs.ErrMalformedResponse, reply)
	}
	notation, _ := board.CartesianToString(coord)
	move := game.Move{Color: color, Coordinates: notation, SgfPoint: point}
	p.appendMove(move)
	return GenmoveResult{Move: move, Coord: &coord}, nil
}

func (p *PlaySession) Undo(ctx context.Context) error {
	if _, err := p.activeSize(); err != nil {
		return err
	}
	if _, err := p.client.Exec(ctx, command.Undo()); err != nil {
		return fmt.Errorf("undo: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active != nil && len(p.active.Moves) > 0 {
		p.active.Moves = p.active.Moves[:len(p.active.Moves)-1]
	}
	return nil
}

// RequestAI asks the server for an engine seat.
func (p *PlaySession) RequestAI(ctx context.Context) (bool, int, error) {
	return p.client.RequestAI(ctx)
}

// Finish scores the game, archives it and clears the active game.
func (p *PlaySession) Finish(ctx context.Context) (game.GameRecord, error) {
	if _, err := p.activeSize(); err != nil {
		return game.GameRecord{}, err
	}
	resp, err := p.client.Exec(ctx, command.FinalScore())
	if err != nil {
		return game.GameRecord{}, fmt.Errorf("final score: %w", err)
	}
	return p.finish(ctx, strings.TrimSpace(resp.Content))
}

func (p *PlaySession) finish(ctx context.Context, result string) (game.GameRecord, error) {
	p.mu.Lock()
	if p.active == nil {
		p.mu.Unlock()
		return game.GameRecord{}, errs.ErrNoActiveGame
	}
	record := copyRecord(*p.active)
	p.active = nil
	p.mu.Unlock()

	now := time.Now()
	record.Result = result
	record.Status = game.StatusFinished
	record.FinishedAt = &now
	record.SGF = RecordSGF(record)

	if p.archive != nil {
		if err := p.archive.SaveGame(ctx, record); err != nil {
			return record, fmt.Errorf("archive game: %w", err)
		}
	}
	p.log.Infow("game finished", "gameId", record.ID, "result", result, "moves", len(record.Moves))
	p.emit(event.GameFinished, record.ID, map[string]any{"result": result, "moves": len(record.Moves)})
	return record, nil
}

func checkColor(c gtp.Color) error {
	if !c.Valid() {
		return fmt.Errorf("%w: color %q", errs.ErrMalformedRequest, c)
	}
	return nil
}

func (p *PlaySession) appendMove(move game.Move) {
	p.mu.Lock()
	var id string
	if p.active != nil {
		p.active.Moves = append(p.active.Moves, move)
		id = p.active.ID
	}
	p.mu.Unlock()
	p.emit(event.MovePlayed, id, map[string]any{"color": move.Color, "move": move.Coordinates})
}

func (p *PlaySession) emit(eventType, gameID string, data map[string]any) {
	if p.events == nil {
		return
	}
	if err := p.events.Publish(eventType, gameID, data); err != nil {
		p.log.Warnw("event not published", "type", eventType, "error", err)
	}
}

func copyRecord(r game.GameRecord) game.GameRecord {
	r.Moves = append([]game.Move{}, r.Moves...)
	return r
}

// RecordSGF renders a game record as an SGF main line.
func RecordSGF(record game.GameRecord) string {
	black, white := record.Player, EngineName
	if record.Color == gtp.ColorWhite {
		black, white = EngineName, record.Player
	}

	root := &sgf.GameTree{
		Nodes: []sgf.Node{
			{
				Properties: map[string][]string{
					"FF": {"4"},
					"GM": {"1"},
					"SZ": {strconv.Itoa(record.BoardSize)},
					"PB": {black},
					"PW": {white},
					"DT": {record.CreatedAt.Format("2006-01-02")},
					"RE": {record.Result},
					"KM": {strconv.FormatFloat(record.Komi, 'f', -1, 64)},
				},
			},
		},
	}
	if record.Handicap > 0 {
		root.Nodes[0].Properties["HA"] = []string{strconv.Itoa(record.Handicap)}
	}

	for _, move := range record.Moves {
		if move.Coordinates == game.ResignMove {
			continue
		}
		root.Nodes = append(root.Nodes, sgf.Node{
			Properties: map[string][]string{
				string(move.Color): {move.SgfPoint},
			},
		})
	}
	return sgf.Serialize(&sgf.SGF{Root: root})
}
