package repositories

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/config"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/docstore/badgerstore"
)

func TestMain(m *testing.M) {
	xlog.InitForTest()
	os.Exit(m.Run())
}

type docRepoTestSuite struct {
	suite.Suite
	ctx   context.Context
	store *badgerstore.Store
	repo  *Repository
}

func (s *docRepoTestSuite) SetupTest() {
	store, err := badgerstore.OpenInMemory()
	require.NoError(s.T(), err)

	s.ctx = context.Background()
	s.store = store
	s.repo = NewDocRepository(store, config.Config{
		Subscription: config.Subscription{FilterCatalogByAccount: true},
	})
}

func (s *docRepoTestSuite) TearDownTest() {
	s.NoError(s.store.Close())
}
