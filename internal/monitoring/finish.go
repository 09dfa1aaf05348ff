package monitoring

import (
	"time"

	"bitbucket.org/Amartha/go-fp-portfolio/internal/common/xlog"
)

var messagePrefix = map[string]string{
	LayerRepository: "[REPOSITORY]",
	LayerService:    "[SERVICE]",
	LayerDelivery:   "[DELIVERY]",
	LayerDocStore:   "[DOCSTORE]",
	LayerUnknown:    "[-]",
}

type finishOptions struct {
	err        error
	xlogFields []xlog.Field
}

type FinishOption func(*finishOptions)

func WithFinishCheckError(err error) FinishOption {
	return func(o *finishOptions) {
		o.err = err
	}
}

func WithFinishXlogFields(fields ...xlog.Field) FinishOption {
	return func(o *finishOptions) {
		o.xlogFields = append(o.xlogFields, fields...)
	}
}

// Finish ends the segment and logs the outcome. Successful calls are only
// logged for the service and delivery layers, errors for every layer.
func (m *Monitor) Finish(opts ...FinishOption) {
	fOpts := &finishOptions{}
	for _, opt := range opts {
		opt(fOpts)
	}

	fields := append(fOpts.xlogFields,
		xlog.String("segment", m.segmentName),
		xlog.Duration("processDuration", time.Since(m.start)))

	if fOpts.err != nil {
		fields = append(fields, xlog.String("status", "error"), xlog.Err(fOpts.err))
		xlog.Warn(m.ctx, messagePrefix[m.layer], fields...)
		if m.segment != nil {
			m.segment.AddAttribute("error", fOpts.err.Error())
		}
	} else if m.layer == LayerDelivery || m.layer == LayerService {
		fields = append(fields, xlog.String("status", "success"))
		xlog.Info(m.ctx, messagePrefix[m.layer], fields...)
	}

	if m.segment != nil {
		m.segment.End()
	}
}
