package models

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"
)

const (
	IdempotencyStatusProcessFinished = "finished"
	IdempotencyStatusProcessPending  = "pending"

	TTLIdempotency = 24 * time.Hour
)

type Idempotency struct {
	CacheKey string `json:"cacheKey"`

	StatusProcess string `json:"status"`

	// Fingerprint identifies the request payload sent under the key.
	Fingerprint     string            `json:"fingerprint"`
	HTTPStatusCode  int               `json:"httpStatusCode"`
	ResponseBody    string            `json:"responseBody"`
	ResponseHeaders map[string]string `json:"responseHeaders"`
}

// NewIdempotency fingerprints the route together with the body, so reusing a
// key on another endpoint is rejected as a different payload.
func NewIdempotency(key, route, status string, requestBody []byte) *Idempotency {
	h := sha1.New()
	h.Write([]byte(route))
	h.Write([]byte{0})
	h.Write(requestBody)

	return &Idempotency{
		CacheKey:      fmt.Sprintf("fp-portfolio:idempotency:%s", key),
		StatusProcess: status,
		Fingerprint:   hex.EncodeToString(h.Sum(nil)),
	}
}

func (i *Idempotency) SetResponse(httpStatusCode int, responseHeaders map[string]string, responseBody string) {
	i.HTTPStatusCode = httpStatusCode
	i.ResponseHeaders = responseHeaders
	i.ResponseBody = responseBody
	i.StatusProcess = IdempotencyStatusProcessFinished
}
