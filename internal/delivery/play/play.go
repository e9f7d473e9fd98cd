package play

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"leela_client/internal/domain/board"
	"leela_client/internal/domain/game"
	"leela_client/internal/domain/gtp"
	errs "leela_client/internal/errors"
	"leela_client/internal/httpresponse"
	playuc "leela_client/internal/usecase/play"
	"leela_client/internal/utils"
)

const defaultListLimit = 20

type GameArchive interface {
	GetGameByID(ctx context.Context, id string) (game.GameRecord, error)
	ListRecentGames(ctx context.Context, limit int64) ([]game.GameRecord, error)
}

type PlayHandler struct {
	log     *zap.SugaredLogger
	playUC  *playuc.PlaySession
	archive GameArchive
}

// NewPlayHandler accepts a nil archive; the archive routes then answer 503.
func NewPlayHandler(log *zap.SugaredLogger, playUC *playuc.PlaySession, archive GameArchive) *PlayHandler {
	return &PlayHandler{
		log:     log,
		playUC:  playUC,
		archive: archive,
	}
}

type MoveRequest struct {
	Color gtp.Color `json:"color"`
	X     int       `json:"x"`
	Y     int       `json:"y"`
	Pass  bool      `json:"pass,omitempty"`
}

type GenmoveRequest struct {
	Color gtp.Color `json:"color"`
}

type RequestAIResponse struct {
	Granted bool `json:"granted"`
	Seat    int  `json:"seat"`
}

func (h *PlayHandler) Routes(r chi.Router) {
	r.Route("/play", func(r chi.Router) {
		r.Post("/new", h.HandleNewGame)
		r.Get("/current", h.HandleCurrentGame)
		r.Post("/move", h.HandleMove)
		r.Post("/genmove", h.HandleGenmove)
		r.Post("/undo", h.HandleUndo)
		r.Post("/requestAI", h.HandleRequestAI)
		r.Post("/finish", h.HandleFinish)
		r.Get("/games", h.HandleListGames)
		r.Get("/games/{gameId}", h.HandleGetGame)
	})
}

func (h *PlayHandler) HandleNewGame(w http.ResponseWriter, r *http.Request) {
	var cfg game.BoardConfig
	if err := utils.DecodeJSONRequest(r, &cfg); err != nil {
		h.log.Errorw("bad new game request", "error", err)
		httpresponse.WriteError(w, err)
		return
	}

	record, err := h.playUC.Start(r.Context(), cfg)
	if err != nil {
		h.log.Errorw("start game failed", "error", err)
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, record)
}

func (h *PlayHandler) HandleCurrentGame(w http.ResponseWriter, r *http.Request) {
	record, ok := h.playUC.Current()
	if !ok {
		httpresponse.WriteResponseWithStatus(w, http.StatusNoContent, nil)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, record)
}

func (h *PlayHandler) HandleMove(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		httpresponse.WriteError(w, err)
		return
	}

	color, err := parseColor(req.Color, gtp.ColorBlack)
	if err != nil {
		httpresponse.WriteError(w, err)
		return
	}

	var move game.Move
	if req.Pass {
		move, err = h.playUC.Pass(r.Context(), color)
	} else {
		move, err = h.playUC.Play(r.Context(), color, board.Cartesian{X: req.X, Y: req.Y})
	}
	if err != nil {
		h.log.Warnw("move rejected", "x", req.X, "y", req.Y, "error", err)
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, move)
}

func (h *PlayHandler) HandleGenmove(w http.ResponseWriter, r *http.Request) {
	var req GenmoveRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	color, err := parseColor(req.Color, gtp.ColorWhite)
	if err != nil {
		httpresponse.WriteError(w, err)
		return
	}

	res, err := h.playUC.Genmove(r.Context(), color)
	if err != nil {
		h.log.Errorw("genmove failed", "error", err)
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, res)
}

func (h *PlayHandler) HandleUndo(w http.ResponseWriter, r *http.Request) {
	if err := h.playUC.Undo(r.Context()); err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	record, _ := h.playUC.Current()
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, record)
}

func (h *PlayHandler) HandleRequestAI(w http.ResponseWriter, r *http.Request) {
	granted, seat, err := h.playUC.RequestAI(r.Context())
	if err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, RequestAIResponse{Granted: granted, Seat: seat})
}

func (h *PlayHandler) HandleFinish(w http.ResponseWriter, r *http.Request) {
	record, err := h.playUC.Finish(r.Context())
	if err != nil {
		h.log.Errorw("finish game failed", "error", err)
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, record)
}

func (h *PlayHandler) HandleListGames(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		httpresponse.WriteResponseWithStatus(w, http.StatusServiceUnavailable, "game archive is not configured")
		return
	}
	limit := int64(defaultListLimit)
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest, "limit must be a positive number")
			return
		}
		limit = n
	}

	games, err := h.archive.ListRecentGames(r.Context(), limit)
	if err != nil {
		h.log.Errorw("list games failed", "error", err)
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, games)
}

func (h *PlayHandler) HandleGetGame(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		httpresponse.WriteResponseWithStatus(w, http.StatusServiceUnavailable, "game archive is not configured")
		return
	}
	record, err := h.archive.GetGameByID(r.Context(), chi.URLParam(r, "gameId"))
	if err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, record)
}

// parseColor applies def to an absent color and rejects anything but B or W.
func parseColor(c, def gtp.Color) (gtp.Color, error) {
	if c == "" {
		return def, nil
	}
	if !c.Valid() {
		return "", fmt.Errorf("%w: color %q", errs.ErrMalformedRequest, c)
	}
	return c, nil
}
