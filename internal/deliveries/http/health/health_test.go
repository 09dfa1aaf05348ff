package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog"
)

func TestMain(m *testing.M) {
	xlog.InitForTest()
	os.Exit(m.Run())
}

func up(context.Context) error { return nil }

func Test_Handler(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		checks   []Check
		wantCode int
		wantRes  string
	}{
		{
			name:     "liveness ignores dependencies",
			path:     "/api/health",
			checks:   []Check{{Name: "cache", Ping: func(context.Context) error { return errors.New("connection refused") }}},
			wantCode: http.StatusOK,
			wantRes:  `{"kind":"health","status":"server is up and running"}`,
		},
		{
			name:     "ready without dependencies",
			path:     "/api/health/ready",
			wantCode: http.StatusOK,
			wantRes:  `{"kind":"readiness","status":"ready","checks":{}}`,
		},
		{
			name:     "ready with doc store and cache",
			path:     "/api/health/ready",
			checks:   []Check{{Name: "doc_store", Ping: up}, {Name: "cache", Ping: up}},
			wantCode: http.StatusOK,
			wantRes:  `{"kind":"readiness","status":"ready","checks":{"doc_store":"up","cache":"up"}}`,
		},
		{
			name: "cache down",
			path: "/api/health/ready",
			checks: []Check{
				{Name: "doc_store", Ping: up},
				{Name: "cache", Ping: func(context.Context) error { return errors.New("connection refused") }},
			},
			wantCode: http.StatusServiceUnavailable,
			wantRes:  `{"kind":"readiness","status":"not ready","checks":{"doc_store":"up","cache":"down: connection refused"}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := echo.New()
			New(app.Group("/api"), tt.checks...)

			rec := httptest.NewRecorder()
			app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			require.Equal(t, tt.wantCode, rec.Code)
			require.JSONEq(t, tt.wantRes, rec.Body.String())
		})
	}
}
