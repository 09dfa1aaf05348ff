package monitoring

import (
	"context"
	"runtime"
	"strings"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

const (
	LayerRepository = "repositories"
	LayerService    = "services"
	LayerDelivery   = "deliveries"
	LayerDocStore   = "docstore"
	LayerUnknown    = "unknown"
)

// layers is matched against the caller's file path, first hit wins.
var layers = []string{LayerRepository, LayerService, LayerDelivery, LayerDocStore}

type Monitor struct {
	ctx         context.Context
	segmentName string
	layer       string
	start       time.Time

	segment *newrelic.Segment
}

type initOptions struct {
	layer       string
	segmentName string
	attributes  map[string]any
}

type InitOption func(*initOptions)

func WithLayer(layer string) InitOption {
	return func(o *initOptions) {
		o.layer = layer
	}
}

func WithSegmentName(segmentName string) InitOption {
	return func(o *initOptions) {
		o.segmentName = segmentName
	}
}

// WithAttribute adds a segment attribute, e.g. the account id of a ledger call.
func WithAttribute(key string, value any) InitOption {
	return func(o *initOptions) {
		if o.attributes == nil {
			o.attributes = make(map[string]any)
		}
		o.attributes[key] = value
	}
}

// New starts a segment named after the calling function. It must be called
// directly from the function being measured.
func New(ctx context.Context, opts ...InitOption) *Monitor {
	fOpts := &initOptions{}
	for _, opt := range opts {
		opt(fOpts)
	}

	if fOpts.segmentName == "" {
		// skip=1 is the caller of New, keep this call here
		pc, file, _, ok := runtime.Caller(1)
		fOpts.segmentName = "unknown"
		if ok {
			if fn := runtime.FuncForPC(pc); fn != nil {
				fOpts.segmentName = getSegmentName(fn.Name())
			}
		}
		if fOpts.layer == "" {
			fOpts.layer = layerOf(file)
		}
	}
	if fOpts.layer == "" {
		fOpts.layer = LayerUnknown
	}

	segment := newrelic.FromContext(ctx).StartSegment(fOpts.segmentName)
	if segment != nil {
		segment.AddAttribute("layer", fOpts.layer)
		for k, v := range fOpts.attributes {
			segment.AddAttribute(k, v)
		}
	}

	return &Monitor{
		ctx:         ctx,
		segmentName: fOpts.segmentName,
		layer:       fOpts.layer,
		start:       time.Now(),
		segment:     segment,
	}
}

func layerOf(file string) string {
	for _, l := range layers {
		if strings.Contains(file, "/"+l+"/") {
			return l
		}
	}
	return LayerUnknown
}

func (m *Monitor) Layer() string { return m.layer }

func (m *Monitor) SegmentName() string { return m.segmentName }
