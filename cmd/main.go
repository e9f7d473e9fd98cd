package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"leela_client/internal/adapters"
	"leela_client/internal/bootstrap"
	playDelivery "leela_client/internal/delivery/play"
	reviewDelivery "leela_client/internal/delivery/review"
	ownMiddleware "leela_client/internal/middleware"
	"leela_client/internal/repository"
	playuc "leela_client/internal/usecase/play"
	reviewuc "leela_client/internal/usecase/review"
)

type mainDeliveryHandler struct {
	play   *playDelivery.PlayHandler
	review *reviewDelivery.ReviewHandler
}

// storageAdapters holds the optional backends. A nil field means the backend
// is not configured.
type storageAdapters struct {
	redisAdapter *adapters.AdapterRedis
	mongoAdapter *adapters.AdapterMongo
	kafkaAdapter *adapters.AdapterKafka
}

func main() {
	logger := NewLogger()
	defer logger.Sync()

	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		logger.Errorw("Failed to setup configuration", "error", err)
		return
	}
	if cfg.UserUUID == "" {
		cfg.UserUUID = uuid.NewString()
	}
	if cfg.Nickname == "" {
		cfg.Nickname = "guest-" + cfg.UserUUID[:8]
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go handleShutdown(cancel, logger)

	storage := initStorageAdapters(ctx, logger, cfg)
	defer storage.Close(context.Background())

	client := repository.NewGameClient(cfg, logger)
	if err := client.Open(ctx); err != nil {
		logger.Warnw("Game server unavailable, retrying in background", "url", cfg.ServerURL(), "error", err)
	}
	defer client.Close()

	handlers, rooms := initializeDeliveryHandlers(cfg, logger, client, storage)
	defer rooms.Close()

	r := chi.NewRouter()
	handlers.Router(r, cfg.IsLocalCors)

	srv := &http.Server{Addr: cfg.LocalPort, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Infof("Local API is running on %s", cfg.LocalPort)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Errorw("Failed to start server", "error", err)
	}
}

func NewLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger.Sugar()
}

func (h *mainDeliveryHandler) Router(r *chi.Mux, isLocalCors bool) {
	if isLocalCors {
		r.Use(ownMiddleware.CORS)
	}
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h.play.Routes(r)
	h.review.Routes(r)
}

func initStorageAdapters(ctx context.Context, log *zap.SugaredLogger, cfg *bootstrap.Config) *storageAdapters {
	storage := &storageAdapters{}

	if cfg.RedisUrl != "" {
		redisAdapter := adapters.NewAdapterRedis(cfg, log)
		if err := redisAdapter.Init(ctx); err != nil {
			log.Warnw("Redis disabled", "error", err)
		} else {
			storage.redisAdapter = redisAdapter
		}
	}

	if cfg.MongoUri != "" {
		mongoAdapter := adapters.NewAdapterMongo(cfg, log)
		if err := mongoAdapter.Init(ctx); err != nil {
			log.Warnw("MongoDB disabled", "error", err)
		} else {
			storage.mongoAdapter = mongoAdapter
		}
	}

	if len(cfg.KafkaBrokers) > 0 {
		kafkaAdapter := adapters.NewAdapterKafka(cfg, log)
		if err := kafkaAdapter.Init(ctx); err != nil {
			log.Warnw("Kafka disabled", "error", err)
		} else {
			storage.kafkaAdapter = kafkaAdapter
		}
	}

	return storage
}

func (s *storageAdapters) Close(ctx context.Context) {
	if s.kafkaAdapter != nil {
		_ = s.kafkaAdapter.Close(ctx)
	}
	if s.mongoAdapter != nil {
		_ = s.mongoAdapter.Close(ctx)
	}
	if s.redisAdapter != nil {
		_ = s.redisAdapter.Close(ctx)
	}
}

func initializeDeliveryHandlers(
	cfg *bootstrap.Config,
	log *zap.SugaredLogger,
	client *repository.GameClient,
	storage *storageAdapters,
) (*mainDeliveryHandler, *reviewuc.Rooms) {
	var (
		archive     *repository.GameArchive
		events      *repository.EventPublisher
		reviewOpts  []reviewuc.Option
		playArchive playuc.GameArchive
		playEvents  playuc.EventSink
		listArchive playDelivery.GameArchive
	)

	if storage.mongoAdapter != nil {
		archive = repository.NewGameArchive(storage.mongoAdapter.Database, log)
		playArchive, listArchive = archive, archive
	}
	if storage.kafkaAdapter != nil {
		events = repository.NewEventPublisher(storage.kafkaAdapter.GetProducer(), cfg.KafkaTopic, log)
		playEvents = events
		reviewOpts = append(reviewOpts, reviewuc.WithEvents(events))
	}
	if storage.redisAdapter != nil {
		store := repository.NewRoomStateStore(storage.redisAdapter.GetClient(), log)
		reviewOpts = append(reviewOpts, reviewuc.WithStateStore(store))
	}

	playSession := playuc.NewPlaySession(client, playArchive, playEvents, cfg.Nickname, log)
	rooms := reviewuc.NewRooms(client, cfg.UserUUID, cfg.Nickname, reviewuc.DefaultMessageFade, log, reviewOpts...)

	return &mainDeliveryHandler{
		play:   playDelivery.NewPlayHandler(log, playSession, listArchive),
		review: reviewDelivery.NewReviewHandler(log, rooms),
	}, rooms
}

func handleShutdown(cancelFunc context.CancelFunc, log *zap.SugaredLogger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("Received shutdown signal")
	cancelFunc()
}
