// Package ctxdata carries request scoped values that every log line should
// include, such as the correlation id.
package ctxdata

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const (
	HeaderCorrelationID = "X-Correlation-Id"
	HeaderRequestID     = "X-Request-Id"
)

type ctxKey struct{}

type Data struct {
	CorrelationID string
	Host          string
	Method        string
	Path          string
}

type Setter func(d *Data)

func SetCorrelationId(id string) Setter {
	return func(d *Data) { d.CorrelationID = id }
}

func SetHost(host string) Setter {
	return func(d *Data) { d.Host = host }
}

func SetRoute(method, path string) Setter {
	return func(d *Data) {
		d.Method = method
		d.Path = path
	}
}

// Sets returns a copy of ctx whose data has every setter applied on top of
// whatever the parent context already carried.
func Sets(ctx context.Context, setters ...Setter) context.Context {
	d := Get(ctx)
	for _, set := range setters {
		set(&d)
	}
	return context.WithValue(ctx, ctxKey{}, d)
}

func Get(ctx context.Context) Data {
	if ctx == nil {
		return Data{}
	}
	d, _ := ctx.Value(ctxKey{}).(Data)
	return d
}

func GetCorrelationId(ctx context.Context) string {
	return Get(ctx).CorrelationID
}

// SetContextFromHTTP takes the correlation id from the incoming headers, or
// generates one when the caller did not send any.
func SetContextFromHTTP(ctx context.Context, r *http.Request) context.Context {
	id := r.Header.Get(HeaderCorrelationID)
	if id == "" {
		id = r.Header.Get(HeaderRequestID)
	}
	if id == "" {
		id = uuid.New().String()
	}
	return Sets(ctx,
		SetCorrelationId(id),
		SetHost(r.Host),
		SetRoute(r.Method, r.URL.Path),
	)
}
