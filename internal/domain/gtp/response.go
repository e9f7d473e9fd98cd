package gtp

import (
	"fmt"
	"strconv"
	"strings"

	errs "leela_client/internal/errors"
)

// Response is a decoded engine reply: "=<id> <content>" on success or
// "?<id> <message>" on failure.
type Response struct {
	ID      *int64
	Content string
	Error   bool
}

func ParseResponse(text string) (Response, error) {
	text = strings.TrimRight(text, " \t\r\n")
	if text == "" {
		return Response{}, fmt.Errorf("%w: empty gtp response", errs.ErrMalformedResponse)
	}

	var resp Response
	switch text[0] {
	case '=':
	case '?':
		resp.Error = true
	default:
		return Response{}, fmt.Errorf("%w: gtp response %q", errs.ErrMalformedResponse, text)
	}

	rest := text[1:]
	n := 0
	for n < len(rest) && rest[n] >= '0' && rest[n] <= '9' {
		n++
	}
	if n > 0 {
		id, err := strconv.ParseInt(rest[:n], 10, 64)
		if err != nil {
			return Response{}, fmt.Errorf("%w: gtp id in %q", errs.ErrMalformedResponse, text)
		}
		resp.ID = &id
	}
	resp.Content = strings.TrimLeft(rest[n:], " \t")

	return resp, nil
}

// Err returns ErrEngineFailure carrying the engine message for failed replies.
func (r Response) Err() error {
	if !r.Error {
		return nil
	}
	return fmt.Errorf("%w: %s", errs.ErrEngineFailure, r.Content)
}

func (r Response) String() string {
	var b strings.Builder
	if r.Error {
		b.WriteByte('?')
	} else {
		b.WriteByte('=')
	}
	if r.ID != nil {
		b.WriteString(strconv.FormatInt(*r.ID, 10))
	}
	if r.Content != "" {
		b.WriteByte(' ')
		b.WriteString(r.Content)
	}
	b.WriteString("\n\n")
	return b.String()
}
