package ledger_recon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Shopify/sarama"
	"github.com/google/uuid"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/kafka"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/retry"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog/ctxdata"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/models"
	"bitbucket.org/Amartha/go-fp-portfolio/internal/services"
)

type LedgerReconHandler struct {
	kafka.BaseHandler
	recon   services.ReconService
	retryer retry.Retryer
}

func NewLedgerReconHandler(base kafka.BaseHandler, recon services.ReconService, retryer retry.Retryer) *LedgerReconHandler {
	return &LedgerReconHandler{
		BaseHandler: base,
		recon:       recon,
		retryer:     retryer,
	}
}

// Setup is run at the beginning of a new session, before ConsumeClaim
func (h *LedgerReconHandler) Setup(_ sarama.ConsumerGroupSession) error {
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited
func (h *LedgerReconHandler) Cleanup(_ sarama.ConsumerGroupSession) error {
	return nil
}

func (h *LedgerReconHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			h.consume(session, message)
		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *LedgerReconHandler) consume(session sarama.ConsumerGroupSession, message *sarama.ConsumerMessage) {
	ctx := ctxdata.Sets(session.Context(),
		ctxdata.SetCorrelationId(correlationID(message)),
		ctxdata.SetHost(h.ClientID),
	)

	start := time.Now()
	logField := h.CreateLogField(message)

	var parked bool
	err := h.retryer.Retry(ctx, func() error {
		return h.processMessage(ctx, message)
	}, func(lastErr error, attempts int) error {
		parked = true
		h.Nack(ctx, session, message, lastErr, attempts)
		return nil
	})
	h.RecordMetrics(start, message, err)

	logField = append(logField, xlog.Duration("response-time", time.Since(start)))
	if parked || err != nil {
		xlog.Warn(ctx, h.LogPrefix, append(logField, xlog.Err(err))...)
		return
	}

	xlog.Info(ctx, h.LogPrefix, logField...)
	h.Ack(session, message)
}

func (h *LedgerReconHandler) processMessage(ctx context.Context, message *sarama.ConsumerMessage) error {
	var event models.LedgerEvent
	if err := json.Unmarshal(message.Value, &event); err != nil {
		return h.retryer.StopRetryWithErr(fmt.Errorf("error unmarshal json: %w", err))
	}
	if event.AccountID == "" {
		return h.retryer.StopRetryWithErr(fmt.Errorf("%w: event without accountId", common.ErrInvalidInput))
	}

	_, err := h.recon.ReconcileAccount(ctx, event.AccountID)
	if code, _ := models.ErrorCodeOf(err); code == models.ErrCodeNotFound || errors.Is(err, common.ErrNotFound) {
		return h.retryer.StopRetryWithErr(err)
	}
	return err
}

func correlationID(message *sarama.ConsumerMessage) string {
	for _, header := range message.Headers {
		if header != nil && string(header.Key) == ctxdata.HeaderCorrelationID && len(header.Value) > 0 {
			return string(header.Value)
		}
	}
	return uuid.New().String()
}
