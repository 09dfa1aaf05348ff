package portfolio

import (
	"os"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/mock/gomock"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/http/middleware"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/config"
	mockRepo "bitbucket.org/Amartha/go-fp-portfolio/internal/repositories/mock"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/services/mock"
)

type testPortfolioHelper struct {
	router                  *echo.Echo
	mockCtrl                *gomock.Controller
	mockCacheRepo           *mockRepo.MockCacheRepository
	mockLedgerService       *mock.MockLedgerService
	mockSubscriptionService *mock.MockSubscriptionService
	mockReconService        *mock.MockReconService
}

func portfolioTestHelper(t *testing.T) testPortfolioHelper {
	t.Helper()

	mockCtrl := gomock.NewController(t)

	mockLedgerSvc := mock.NewMockLedgerService(mockCtrl)
	mockSubscriptionSvc := mock.NewMockSubscriptionService(mockCtrl)
	mockReconSvc := mock.NewMockReconService(mockCtrl)
	mockCacheRepo := mockRepo.NewMockCacheRepository(mockCtrl)

	app := echo.New()
	v1Group := app.Group("/api/v1")
	m := middleware.NewMiddleware(config.Config{}, mockCacheRepo)

	New(v1Group, mockLedgerSvc, mockSubscriptionSvc, mockReconSvc, time.Minute, m)

	return testPortfolioHelper{
		router:                  app,
		mockCtrl:                mockCtrl,
		mockCacheRepo:           mockCacheRepo,
		mockLedgerService:       mockLedgerSvc,
		mockSubscriptionService: mockSubscriptionSvc,
		mockReconService:        mockReconSvc,
	}
}

// allowIdempotency lets every POST through the idempotency middleware as a
// first attempt.
func (h testPortfolioHelper) allowIdempotency() {
	h.mockCacheRepo.EXPECT().Get(gomock.Any(), gomock.Any()).Return("", common.ErrDataNotFound).AnyTimes()
	h.mockCacheRepo.EXPECT().SetIfNotExists(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(true, nil).AnyTimes()
	h.mockCacheRepo.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	h.mockCacheRepo.EXPECT().Del(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
}

func TestMain(m *testing.M) {
	xlog.InitForTest()
	os.Exit(m.Run())
}
