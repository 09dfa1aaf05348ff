package middleware

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/exp/slices"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog"
)

// teeWriter copies the response body into buf while it is written to the client.
type teeWriter struct {
	http.ResponseWriter
	buf *bytes.Buffer
}

func (w *teeWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *teeWriter) Flush() {
	err := http.NewResponseController(w.ResponseWriter).Flush()
	if err != nil && errors.Is(err, http.ErrNotSupported) {
		panic(errors.New("response writer flushing is not supported"))
	}
}

func (w *teeWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return http.NewResponseController(w.ResponseWriter).Hijack()
}

func (w *teeWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

var maskedHeaders = []string{"authorization", "cookie", "set-cookie", "x-secret-key"}

func requestHeaderJSON(h http.Header) string {
	out := make(map[string][]string, len(h))
	for k, vals := range h {
		if slices.Contains(maskedHeaders, strings.ToLower(k)) {
			out[k] = []string{"*****"}
			continue
		}
		out[k] = vals
	}
	b, _ := json.Marshal(out)
	return string(b)
}

func readBody(req *http.Request) []byte {
	if req.Body == nil {
		return nil
	}
	body, _ := io.ReadAll(req.Body)
	req.Body = io.NopCloser(bytes.NewReader(body))
	return body
}

// parseRequestBody reads the body and puts it back for the next handler.
func (m *AppMiddleware) parseRequestBody(c echo.Context) []byte {
	return readBody(c.Request())
}

// getResponseBodyBuffer tees everything written to the response from now on.
func (m *AppMiddleware) getResponseBodyBuffer(c echo.Context) *bytes.Buffer {
	buf := new(bytes.Buffer)
	c.Response().Writer = &teeWriter{ResponseWriter: c.Response().Writer, buf: buf}
	return buf
}

var excludedLogs = []string{
	"/api/health",
	"/api/health/ready",
	"/metrics",
}

// isStream reports live query routes. Their response is never buffered, it
// lasts as long as the client stays connected.
func isStream(c echo.Context) bool {
	return strings.HasSuffix(c.Path(), "/stream")
}

// Logger writes one entry per request. Streams get theirs when the client
// goes away, with the session duration as latency and no response body.
func (m *AppMiddleware) Logger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if slices.Contains(excludedLogs, c.Path()) {
				return next(c)
			}

			start := time.Now()
			req := c.Request()
			stream := isStream(c)
			reqBody := readBody(req)

			resBody := new(bytes.Buffer)
			if !stream {
				resBody = m.getResponseBodyBuffer(c)
			}

			if err := next(c); err != nil {
				c.Error(err)
			}

			latency := time.Since(start)
			status := c.Response().Status
			fields := []xlog.Field{
				xlog.String("method", req.Method),
				xlog.String("route", c.Path()),
				xlog.String("url_path", req.URL.String()),
				xlog.String("account_id", c.Param("accountId")),
				xlog.String("request_body", string(reqBody)),
				xlog.String("request_header", requestHeaderJSON(req.Header)),
				xlog.Int("status", status),
				xlog.Duration("latency", latency),
				xlog.String("idempotency_key", req.Header.Get(HeaderIdempotencyKey)),
			}
			if stream {
				fields = append(fields, xlog.Bool("stream", true))
			} else {
				fields = append(fields, xlog.String("response", resBody.String()))
			}

			ctx := req.Context()
			message := fmt.Sprintf("%d %s %s %v", status, req.Method, req.URL.Path, latency)
			switch {
			case status >= http.StatusInternalServerError:
				xlog.Error(ctx, message, fields...)
			case status >= http.StatusBadRequest:
				xlog.Warn(ctx, message, fields...)
			default:
				xlog.Info(ctx, message, fields...)
			}
			return nil
		}
	}
}
