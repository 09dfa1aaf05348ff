package portfolio

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	commonhttp "bitbucket.org/Amartha/go-fp-portfolio/internal/common/http"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/models"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/session"
)

const eventError = "error"

// serveStream relays a live query as Server-Sent Events. Nothing is written
// before the first snapshot, so a stream that fails right away still gets a
// plain JSON error with the matching status.
func serveStream[T any](
	c echo.Context,
	keepAlive time.Duration,
	open func(ctx context.Context) (session.Stream[T], error),
	toSnapshot func(T) models.StreamSnapshot,
) error {
	ctx := c.Request().Context()

	stream, err := open(ctx)
	if err != nil {
		return commonhttp.HandleServiceError(c, err)
	}
	defer stream.Cancel()

	sse := commonhttp.NewSSE(c)
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case v, ok := <-stream.Updates():
			if !ok {
				return closeStream(c, sse, stream.Err())
			}
			if err := sse.Event("", toSnapshot(v)); err != nil {
				xlog.Debug(ctx, "[SSE] client gone", xlog.Err(err))
				return nil
			}
		case <-ticker.C:
			if !sse.Started() {
				continue
			}
			if err := sse.Ping(); err != nil {
				return nil
			}
		}
	}
}

func closeStream(c echo.Context, sse *commonhttp.SSE, err error) error {
	if err == nil {
		// cancelled, the client went away
		return nil
	}
	if !sse.Started() {
		return commonhttp.HandleServiceError(c, err)
	}

	frame := commonhttp.NewRestErrorResponseModel(commonhttp.StatusFromError(err), err)
	if werr := sse.Event(eventError, frame); werr != nil {
		xlog.Debug(c.Request().Context(), "[SSE] failed write error frame", xlog.Err(werr))
	}
	return nil
}
