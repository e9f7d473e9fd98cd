package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"leela_client/internal/domain/game"
	errs "leela_client/internal/errors"
)

const gamesCollection = "games"

// GameArchive stores finished games played against the engine.
type GameArchive struct {
	mongo *mongo.Database
	log   *zap.SugaredLogger
}

func NewGameArchive(mongo *mongo.Database, log *zap.SugaredLogger) *GameArchive {
	return &GameArchive{
		mongo: mongo,
		log:   log,
	}
}

func (g *GameArchive) SaveGame(ctx context.Context, record game.GameRecord) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	collection := g.mongo.Collection(gamesCollection)
	opts := options.Replace().SetUpsert(true)
	if _, err := collection.ReplaceOne(ctx, bson.M{"_id": record.ID}, record, opts); err != nil {
		return fmt.Errorf("save game %s: %w", record.ID, err)
	}

	g.log.Infow("game archived", "gameId", record.ID, "moves", len(record.Moves), "result", record.Result)
	return nil
}

func (g *GameArchive) GetGameByID(ctx context.Context, id string) (game.GameRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var record game.GameRecord
	err := g.mongo.Collection(gamesCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return game.GameRecord{}, errs.ErrGameNotFound
	}
	if err != nil {
		return game.GameRecord{}, fmt.Errorf("find game %s: %w", id, err)
	}
	return record, nil
}

func (g *GameArchive) ListRecentGames(ctx context.Context, limit int64) ([]game.GameRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cursor, err := g.mongo.Collection(gamesCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer cursor.Close(ctx)

	result := make([]game.GameRecord, 0)
	for cursor.Next(ctx) {
		var record game.GameRecord
		if err := cursor.Decode(&record); err != nil {
			return result, fmt.Errorf("decode game: %w", err)
		}
		result = append(result, record)
	}
	return result, cursor.Err()
}
