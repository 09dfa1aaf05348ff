package monitoring

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog"
)

func Test_getSegmentName(t *testing.T) {
	tests := []struct {
		name         string
		fullFuncName string
		want         string
	}{
		{
			name:         "pointer receiver",
			fullFuncName: "bitbucket.org/Amartha/go-fp-portfolio/internal/services.(*ledger).ApplyAccountTransaction",
			want:         "services.ledger.ApplyAccountTransaction",
		},
		{
			name:         "value receiver",
			fullFuncName: "bitbucket.org/Amartha/go-fp-portfolio/internal/repositories.docRepository.Atomic",
			want:         "repositories.docRepository.Atomic",
		},
		{
			name:         "function",
			fullFuncName: "bitbucket.org/Amartha/go-fp-portfolio/internal/mergejoin.New",
			want:         "mergejoin.New",
		},
		{
			name:         "stdlib",
			fullFuncName: "net/http.(*Server).Serve",
			want:         "http.Server.Serve",
		},
		{
			name:         "main",
			fullFuncName: "main.main",
			want:         "main.main",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getSegmentName(tt.fullFuncName))
		})
	}
}

func Test_layerOf(t *testing.T) {
	assert.Equal(t, LayerService, layerOf("/src/internal/services/ledger.go"))
	assert.Equal(t, LayerRepository, layerOf("/src/internal/repositories/doc_account.go"))
	assert.Equal(t, LayerDelivery, layerOf("/src/internal/deliveries/http/v1/account/account.go"))
	assert.Equal(t, LayerDocStore, layerOf("/src/internal/docstore/pgstore/store.go"))
	assert.Equal(t, LayerUnknown, layerOf("/src/internal/mergejoin/engine.go"))
}

func TestMonitor_DetectsCaller(t *testing.T) {
	xlog.InitForTest()

	m := New(context.Background())
	assert.Equal(t, "monitoring.TestMonitor_DetectsCaller", m.SegmentName())
	assert.Equal(t, LayerUnknown, m.Layer())
	m.Finish(WithFinishCheckError(errors.New("boom")))

	m = New(context.Background(), WithSegmentName("ledger.apply"), WithLayer(LayerService), WithAttribute("accountId", "A1"))
	assert.Equal(t, "ledger.apply", m.SegmentName())
	assert.Equal(t, LayerService, m.Layer())
	m.Finish()
}
