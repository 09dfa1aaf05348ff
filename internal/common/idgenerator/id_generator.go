// Package idgenerator assigns document ids. Ids start with the creation time
// in milliseconds so that a collection listed in id order is also listed in
// creation order. A generator never hands out the same millisecond twice, so
// ids created within one millisecond still sort in creation order.
package idgenerator

import (
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Generator interface {
	Generate(prefixes ...string) string
}

type IDGenerator struct {
	now func() time.Time

	mu   sync.Mutex
	last int64
}

func New() Generator {
	return &IDGenerator{now: time.Now}
}

// Generate returns "<prefix>-<epoch ms, 13 digits><base64url uuid>", or the
// id without prefix when none is given.
func (g *IDGenerator) Generate(prefixes ...string) string {
	prefix := strings.Join(prefixes, "-")
	id := fmt.Sprintf("%013d%s", g.tick(), encode(uuid.New()))

	if prefix == "" {
		return id
	}
	return prefix + "-" + id
}

func encode(id uuid.UUID) string {
	return base64.RawURLEncoding.EncodeToString(id[:])
}

// tick returns the current epoch millisecond, moved past the last one handed
// out when the clock has not advanced.
func (g *IDGenerator) tick() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return ms
}
