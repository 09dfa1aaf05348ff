package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// SSE writes Server-Sent Events frames on an echo response. The status line
// is committed by Start, so errors known before the first frame can still be
// rendered as a normal JSON response.
type SSE struct {
	c       echo.Context
	started bool
}

func NewSSE(c echo.Context) *SSE {
	return &SSE{c: c}
}

func (s *SSE) Started() bool { return s.started }

func (s *SSE) Start() {
	if s.started {
		return
	}
	h := s.c.Response().Header()
	h.Set(echo.HeaderContentType, "text/event-stream")
	h.Set(echo.HeaderCacheControl, "no-cache")
	h.Set(echo.HeaderConnection, "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	s.c.Response().WriteHeader(http.StatusOK)
	s.c.Response().Flush()
	s.started = true
}

// Event writes one frame. An empty event name sends a default "message".
func (s *SSE) Event(event string, data interface{}) error {
	s.Start()

	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}

	w := s.c.Response()
	if event != "" {
		if _, err := fmt.Fprintf(w, "event: %s\n", event); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", raw); err != nil {
		return err
	}
	w.Flush()
	return nil
}

// Ping writes a comment frame that keeps idle proxies from closing the stream.
func (s *SSE) Ping() error {
	s.Start()
	if _, err := fmt.Fprint(s.c.Response(), ": ping\n\n"); err != nil {
		return err
	}
	s.c.Response().Flush()
	return nil
}
