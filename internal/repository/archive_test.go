package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
	"go.uber.org/zap"

	"leela_client/internal/domain/game"
	"leela_client/internal/domain/gtp"
	errs "leela_client/internal/errors"
)

func TestGameArchive(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	log := zap.NewNop().Sugar()

	mt.Run("save upserts", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
			bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: "g1"}}}},
		))
		archive := NewGameArchive(mt.DB, log)
		record := game.GameRecord{
			ID:        "g1",
			BoardSize: 19,
			Komi:      6.5,
			Color:     gtp.ColorBlack,
			Moves:     []game.Move{{Color: gtp.ColorBlack, Coordinates: "D4", SgfPoint: "dp"}},
			Status:    game.StatusFinished,
			Result:    "B+R",
			CreatedAt: time.Now(),
		}
		if err := archive.SaveGame(context.Background(), record); err != nil {
			mt.Fatal(err)
		}
	})

	mt.Run("find by id", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + gamesCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "g1"},
			{Key: "board_size", Value: 9},
			{Key: "result", Value: "W+3.5"},
			{Key: "moves", Value: bson.A{bson.D{{Key: "color", Value: "B"}, {Key: "coordinates", Value: "E5"}}}},
		}))
		archive := NewGameArchive(mt.DB, log)
		record, err := archive.GetGameByID(context.Background(), "g1")
		if err != nil {
			mt.Fatal(err)
		}
		if record.BoardSize != 9 || record.Result != "W+3.5" || len(record.Moves) != 1 || record.Moves[0].Coordinates != "E5" {
			mt.Fatalf("record = %+v", record)
		}
	})

	mt.Run("find missing", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + gamesCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		archive := NewGameArchive(mt.DB, log)
		_, err := archive.GetGameByID(context.Background(), "nope")
		if !errors.Is(err, errs.ErrGameNotFound) {
			mt.Fatalf("err = %v", err)
		}
	})

	mt.Run("list recent", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + gamesCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "g2"}, {Key: "status", Value: game.StatusFinished}},
			bson.D{{Key: "_id", Value: "g1"}, {Key: "status", Value: game.StatusActive}},
		))
		archive := NewGameArchive(mt.DB, log)
		games, err := archive.ListRecentGames(context.Background(), 10)
		if err != nil {
			mt.Fatal(err)
		}
		if len(games) != 2 || games[0].ID != "g2" || games[1].Status != game.StatusActive {
			mt.Fatalf("games = %+v", games)
		}
	})
}
