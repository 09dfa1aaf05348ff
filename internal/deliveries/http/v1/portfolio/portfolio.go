package portfolio

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	commonhttp "bitbucket.org/Amartha/go-fp-portfolio/internal/common/http"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/http/middleware"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/validation"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/models"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/services"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/session"
)

const defaultKeepAlive = 15 * time.Second

type portfolioHandler struct {
	ledgerService       services.LedgerService
	subscriptionService services.SubscriptionService
	reconService        services.ReconService
	keepAlive           time.Duration
}

// New portfolio handler will initialize the accounts/ resources endpoint
func New(app *echo.Group,
	ledgerSrv services.LedgerService,
	subscriptionSrv services.SubscriptionService,
	reconSrv services.ReconService,
	keepAlive time.Duration,
	m middleware.AppMiddleware) {
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}
	ph := portfolioHandler{
		ledgerService:       ledgerSrv,
		subscriptionService: subscriptionSrv,
		reconService:        reconSrv,
		keepAlive:           keepAlive,
	}
	accounts := app.Group("/accounts")
	accounts.GET("/:accountId/stream", ph.streamAccount())
	accounts.GET("/:accountId/holdings/stream", ph.streamHoldings())
	accounts.GET("/:accountId/transactions/stream", ph.streamTransactions())
	accounts.GET("/:accountId/holdings/:instrumentId/transactions/stream", ph.streamHoldingTransactions())
	accounts.POST("/:accountId/transactions", ph.addAccountTransaction(), m.CheckIdempotentRequest())
	accounts.POST("/:accountId/holdings/:instrumentId/transactions", ph.addHoldingTransaction(), m.CheckIdempotentRequest())
	accounts.GET("/:accountId/reconciliation", ph.reconcileAccount())
}

// @Summary 	Stream an account
// @Description Server-Sent Events of the account document. Every frame carries the whole account.
// @Tags 		Accounts
// @Produce		text/event-stream
// @Param	X-Secret-Key header string true "X-Secret-Key"
// @Param	accountId path string true "account id"
// @Success 200 {object} models.StreamSnapshot "one data frame per snapshot"
// @Failure 404 {object} http.RestErrorResponseModel "account not found"
// @Failure 502 {object} http.RestErrorResponseModel "the change feed failed"
// @Router /v1/accounts/{accountId}/stream [get]
func (ph portfolioHandler) streamAccount() echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.DoStreamAccountRequest
		if ok, err := bindAndValidate(c, &req); !ok {
			return err
		}

		return serveStream(c, ph.keepAlive, func(ctx context.Context) (session.Stream[models.Account], error) {
			return ph.subscriptionService.OpenAccount(ctx, req.AccountID)
		}, models.NewAccountSnapshot)
	}
}

// @Summary 	Stream the holdings of an account
// @Description Server-Sent Events of the holdings joined with the instrument catalog offered to the account.
// @Tags 		Accounts
// @Produce		text/event-stream
// @Param	X-Secret-Key header string true "X-Secret-Key"
// @Param	accountId path string true "account id"
// @Success 200 {object} models.StreamSnapshot "one data frame per snapshot"
// @Failure 502 {object} http.RestErrorResponseModel "the change feed failed"
// @Router /v1/accounts/{accountId}/holdings/stream [get]
func (ph portfolioHandler) streamHoldings() echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.DoStreamAccountRequest
		if ok, err := bindAndValidate(c, &req); !ok {
			return err
		}

		return serveStream(c, ph.keepAlive, func(ctx context.Context) (session.Stream[[]models.MergedHolding], error) {
			return ph.subscriptionService.OpenHoldings(ctx, req.AccountID)
		}, models.NewHoldingsSnapshot)
	}
}

// @Summary 	Stream the ledger of an account
// @Tags 		Accounts
// @Produce		text/event-stream
// @Param	X-Secret-Key header string true "X-Secret-Key"
// @Param	accountId path string true "account id"
// @Success 200 {object} models.StreamSnapshot "one data frame per snapshot"
// @Router /v1/accounts/{accountId}/transactions/stream [get]
func (ph portfolioHandler) streamTransactions() echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.DoStreamAccountRequest
		if ok, err := bindAndValidate(c, &req); !ok {
			return err
		}

		return serveStream(c, ph.keepAlive, func(ctx context.Context) (session.Stream[[]models.Transaction], error) {
			return ph.subscriptionService.OpenTransactions(ctx, req.AccountID)
		}, models.NewTransactionsSnapshot)
	}
}

// @Summary 	Stream the ledger of a holding
// @Tags 		Accounts
// @Produce		text/event-stream
// @Param	X-Secret-Key header string true "X-Secret-Key"
// @Param	accountId path string true "account id"
// @Param	instrumentId path string true "instrument id"
// @Success 200 {object} models.StreamSnapshot "one data frame per snapshot"
// @Router /v1/accounts/{accountId}/holdings/{instrumentId}/transactions/stream [get]
func (ph portfolioHandler) streamHoldingTransactions() echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.DoStreamHoldingTransactionsRequest
		if ok, err := bindAndValidate(c, &req); !ok {
			return err
		}

		return serveStream(c, ph.keepAlive, func(ctx context.Context) (session.Stream[[]models.InstrumentTransaction], error) {
			return ph.subscriptionService.OpenHoldingTransactions(ctx, req.AccountID, req.InstrumentID)
		}, models.NewInstrumentTransactionsSnapshot)
	}
}

// @Summary 	Apply an account transaction
// @Description Moves the account balance by amount, up for a credit, and records the ledger entry.
// @Tags 		Accounts
// @Accept		json
// @Produce		json
// @Param	X-Secret-Key header string true "X-Secret-Key"
// @Param	X-Idempotency-Key header string true "X-Idempotency-Key"
// @Param	accountId path string true "account id"
// @Param	payload body models.DoAccountTransactionRequest true "A JSON object containing amount and credit"
// @Success 201 {object} models.Transaction "the recorded ledger entry"
// @Failure 404 {object} http.RestErrorResponseModel "account not found"
// @Failure 422 {object} http.RestErrorValidationResponseModel "invalid payload"
// @Failure 500 {object} http.RestErrorResponseModel "partial ledger update or store error"
// @Router /v1/accounts/{accountId}/transactions [post]
func (ph portfolioHandler) addAccountTransaction() echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.DoAccountTransactionRequest
		if ok, err := bindAndValidate(c, &req); !ok {
			return err
		}

		trx, err := ph.ledgerService.ApplyAccountTransaction(c.Request().Context(), req.AccountID, *req.Amount, req.Credit)
		if err != nil {
			return commonhttp.HandleServiceError(c, err)
		}

		return commonhttp.RestSuccessResponse(c, http.StatusCreated, trx)
	}
}

// @Summary 	Apply a holding transaction
// @Description Moves the holding quantity and settles its value at the current instrument price against the account balance.
// @Tags 		Accounts
// @Accept		json
// @Produce		json
// @Param	X-Secret-Key header string true "X-Secret-Key"
// @Param	X-Idempotency-Key header string true "X-Idempotency-Key"
// @Param	accountId path string true "account id"
// @Param	instrumentId path string true "instrument id"
// @Param	payload body models.DoHoldingTransactionRequest true "A JSON object containing quantity and credit"
// @Success 201 {object} models.InstrumentTransaction "the recorded holding ledger entry"
// @Failure 404 {object} http.RestErrorResponseModel "account or instrument not found"
// @Failure 422 {object} http.RestErrorValidationResponseModel "invalid payload"
// @Failure 500 {object} http.RestErrorResponseModel "partial ledger update or store error"
// @Router /v1/accounts/{accountId}/holdings/{instrumentId}/transactions [post]
func (ph portfolioHandler) addHoldingTransaction() echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.DoHoldingTransactionRequest
		if ok, err := bindAndValidate(c, &req); !ok {
			return err
		}

		itrx, err := ph.ledgerService.ApplyHoldingTransaction(c.Request().Context(), req.AccountID, req.InstrumentID, *req.Quantity, req.Credit)
		if err != nil {
			return commonhttp.HandleServiceError(c, err)
		}

		return commonhttp.RestSuccessResponse(c, http.StatusCreated, itrx)
	}
}

// @Summary 	Reconcile an account
// @Description Compares the account balance with the sum of its ledger.
// @Tags 		Accounts
// @Produce		json
// @Param	X-Secret-Key header string true "X-Secret-Key"
// @Param	accountId path string true "account id"
// @Success 200 {object} models.ReconResult "balance, ledger sum and drift"
// @Failure 404 {object} http.RestErrorResponseModel "account not found"
// @Router /v1/accounts/{accountId}/reconciliation [get]
func (ph portfolioHandler) reconcileAccount() echo.HandlerFunc {
	return func(c echo.Context) error {
		var req models.DoStreamAccountRequest
		if ok, err := bindAndValidate(c, &req); !ok {
			return err
		}

		res, err := ph.reconService.ReconcileAccount(c.Request().Context(), req.AccountID)
		if err != nil {
			return commonhttp.HandleServiceError(c, err)
		}

		return commonhttp.RestSuccessResponse(c, http.StatusOK, res)
	}
}

// bindAndValidate reports false once it has written the error response.
func bindAndValidate(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, commonhttp.RestErrorResponse(c, http.StatusBadRequest, err)
	}
	if err := validation.ValidateStruct(req); err != nil {
		return false, commonhttp.RestErrorValidationResponse(c, err)
	}
	return true, nil
}
