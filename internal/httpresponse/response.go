package httpresponse

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	errs "leela_client/internal/errors"
)

type Response[T any] struct {
	Status int `json:"Status"`
	Body   any `json:"Body,omitempty"`
}

type ErrorResponse struct {
	ErrorDescription string `json:"ErrorDescription"`
}

const INTERNALERRORJSON = "{\"status\": 500,\"body\":{\"error\": \"Internal server error\"}}"

const MALFORMEDJSON_errorDesc = "json unmarshalling error"

func WriteResponseWithStatus(w http.ResponseWriter, status int, body any) {
	jsonByte, err := marshalStatusJson(status, body)
	if err != nil {
		WriteInternalErrorResponse(w)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(jsonByte)
}

// WriteError picks the status for err and writes its text as the body.
func WriteError(w http.ResponseWriter, err error) {
	WriteResponseWithStatus(w, StatusFromError(err), ErrorResponse{ErrorDescription: err.Error()})
}

func StatusFromError(err error) int {
	switch {
	case errors.Is(err, errs.ErrInvalidCoordinate), errors.Is(err, errs.ErrMalformedRequest),
		errors.Is(err, errs.ErrInvalidState):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, errs.ErrRoomNotFound), errors.Is(err, errs.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrNotSynced), errors.Is(err, errs.ErrNoActiveGame):
		return http.StatusConflict
	case errors.Is(err, errs.ErrEngineFailure):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errs.ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, errs.ErrNotConnected), errors.Is(err, errs.ErrConnectionLost), errors.Is(err, errs.ErrClientClosed):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func marshalStatusJson(status int, body any) ([]byte, error) {
	response := Response[any]{
		Status: status,
		Body:   body,
	}
	marshal, err := json.Marshal(response)
	if err != nil {
		return nil, err
	}
	return marshal, nil
}

func WriteInternalErrorResponse(w http.ResponseWriter) {
	// like http.Error but with a JSON content type
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(500)
	_, _ = fmt.Fprintln(w, INTERNALERRORJSON)
}
