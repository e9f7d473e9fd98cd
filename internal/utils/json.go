package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	errs "leela_client/internal/errors"
)

func DecodeJSONRequest(r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read request body: %v", errs.ErrMalformedRequest, err)
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()
	if err = decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", errs.ErrMalformedRequest, err)
	}
	return nil
}
