// Package idgen implements domain.IDGenerator: a process-wide monotonic,
// unique 64-bit id source for newly created schema entities.
package idgen

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Generator produces ids shaped like a simplified snowflake: the high
// bits carry milliseconds since a fixed epoch, the low bits an
// atomically-incrementing sequence. This keeps ids roughly
// time-ordered (useful for debugging and store indexing) while
// guaranteeing uniqueness within a single process without coordination.
type Generator struct {
	epochMs int64
	seq     uint64
}

// epoch anchors the timestamp component; arbitrary but fixed so ids don't
// waste bits on decades that have already passed.
var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

const sequenceBits = 16

// New returns a Generator seeded from the current time and a random
// sequence offset (via uuid's entropy source) so multiple dispatcher
// processes sharing a store are unlikely to collide even though each
// generator is otherwise only unique within its own process.
func New() *Generator {
	seed := uuid.New()
	offset := uint64(seed[0])<<8 | uint64(seed[1])
	return &Generator{seq: offset}
}

// Next returns the next id. Safe for concurrent use.
func (g *Generator) Next() uint64 {
	seq := atomic.AddUint64(&g.seq, 1) & (1<<sequenceBits - 1)
	ms := uint64(time.Since(epoch).Milliseconds())
	return ms<<sequenceBits | seq
}
