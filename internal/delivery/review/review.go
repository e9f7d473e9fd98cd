package review

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"leela_client/internal/domain/review"
	"leela_client/internal/httpresponse"
	reviewuc "leela_client/internal/usecase/review"
	"leela_client/internal/utils"
)

type ReviewHandler struct {
	log   *zap.SugaredLogger
	rooms *reviewuc.Rooms
}

func NewReviewHandler(log *zap.SugaredLogger, rooms *reviewuc.Rooms) *ReviewHandler {
	return &ReviewHandler{
		log:   log,
		rooms: rooms,
	}
}

type JoinResponse struct {
	IsOwner   bool                 `json:"isOwner"`
	Owner     string               `json:"owner,omitempty"`
	ChatBroID string               `json:"chatBroId,omitempty"`
	State     review.GameTreeState `json:"state"`
}

type MessageRequest struct {
	Message string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
	Visible bool   `json:"visible"`
}

type CursorRequest struct {
	Delta int `json:"delta"`
}

func (h *ReviewHandler) Routes(r chi.Router) {
	r.Route("/review/{roomId}", func(r chi.Router) {
		r.Post("/join", h.HandleJoin)
		r.Post("/leave", h.HandleLeave)
		r.Get("/state", h.HandleGetState)
		r.Post("/state", h.HandlePublishState)
		r.Post("/move", h.HandleMove)
		r.Post("/cursor", h.HandleCursor)
		r.Get("/message", h.HandleGetMessage)
		r.Post("/message", h.HandleSendMessage)
	})
}

func (h *ReviewHandler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomId")
	s, err := h.rooms.Join(r.Context(), roomID)
	if err != nil {
		h.log.Warnw("join review room failed", "roomId", roomID, "error", err)
		httpresponse.WriteError(w, err)
		return
	}

	info := s.Info()
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, JoinResponse{
		IsOwner:   s.IsOwner(),
		Owner:     info.Owner,
		ChatBroID: info.ChatBroID,
		State:     s.State(),
	})
}

func (h *ReviewHandler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	if err := h.rooms.Leave(chi.URLParam(r, "roomId")); err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, nil)
}

func (h *ReviewHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	s, err := h.rooms.Get(chi.URLParam(r, "roomId"))
	if err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, s.State())
}

func (h *ReviewHandler) HandlePublishState(w http.ResponseWriter, r *http.Request) {
	s, err := h.rooms.Get(chi.URLParam(r, "roomId"))
	if err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	// Decoded through the wire form so absent cursors become -1.
	var body review.RoomState
	if err := utils.DecodeJSONRequest(r, &body); err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	if err := s.Publish(r.Context(), body.TreeState()); err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, s.State())
}

func (h *ReviewHandler) HandleMove(w http.ResponseWriter, r *http.Request) {
	s, err := h.rooms.Get(chi.URLParam(r, "roomId"))
	if err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	var move review.MoveRecord
	if err := utils.DecodeJSONRequest(r, &move); err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	state, err := s.Play(r.Context(), move)
	if err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, state)
}

func (h *ReviewHandler) HandleCursor(w http.ResponseWriter, r *http.Request) {
	s, err := h.rooms.Get(chi.URLParam(r, "roomId"))
	if err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	var req CursorRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	state, err := s.Navigate(r.Context(), req.Delta)
	if err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, state)
}

func (h *ReviewHandler) HandleGetMessage(w http.ResponseWriter, r *http.Request) {
	s, err := h.rooms.Get(chi.URLParam(r, "roomId"))
	if err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	text, visible := s.Message()
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, MessageResponse{Message: text, Visible: visible})
}

func (h *ReviewHandler) HandleSendMessage(w http.ResponseWriter, r *http.Request) {
	s, err := h.rooms.Get(chi.URLParam(r, "roomId"))
	if err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	var req MessageRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	if err := s.SendMessage(req.Message); err != nil {
		httpresponse.WriteError(w, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, nil)
}
