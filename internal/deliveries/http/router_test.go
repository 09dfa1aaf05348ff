package http

import (
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/metrics"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/config"
	mockRepo "bitbucket.org/Amartha/go-fp-portfolio/internal/repositories/mock"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/services/mock"
)

func TestMain(m *testing.M) {
	xlog.InitForTest()
	os.Exit(m.Run())
}

func TestNewHTTPServer_Routes(t *testing.T) {
	mockCtrl := gomock.NewController(t)
	reg := prometheus.NewRegistry()

	conf := config.Config{
		App:       config.App{Name: "go-fp-portfolio", Env: "prod", HTTPPort: 9567},
		SecretKey: "s3cret",
	}
	srv := NewHTTPServer(conf, nil,
		mockRepo.NewMockCacheRepository(mockCtrl),
		mock.NewMockLedgerService(mockCtrl),
		mock.NewMockSubscriptionService(mockCtrl),
		mock.NewMockReconService(mockCtrl),
		metrics.NewWithRegistry(reg, reg),
	)
	assert.Equal(t, ":9567", srv.addr)

	tests := []struct {
		name     string
		method   string
		target   string
		header   map[string]string
		wantCode int
	}{
		{name: "health", method: nethttp.MethodGet, target: "/api/health", wantCode: nethttp.StatusOK},
		{name: "health trailing slash", method: nethttp.MethodGet, target: "/api/health/", wantCode: nethttp.StatusOK},
		{name: "metrics", method: nethttp.MethodGet, target: "/metrics", wantCode: nethttp.StatusOK},
		{name: "v1 without secret", method: nethttp.MethodGet, target: "/api/v1/accounts/A1/stream", wantCode: nethttp.StatusUnauthorized},
		{name: "unknown route", method: nethttp.MethodGet, target: "/nope", wantCode: nethttp.StatusNotFound},
		{name: "pprof hidden on prod", method: nethttp.MethodGet, target: "/debug/pprof/", wantCode: nethttp.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.target, nil)
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			assert.Equal(t, tc.wantCode, rec.Code)
		})
	}
}
