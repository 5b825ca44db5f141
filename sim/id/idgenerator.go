// Package id generates identifiers for events, handles, and named objects.
package id

import (
	"strconv"
	"sync/atomic"

	"github.com/rs/xid"
)

// IDGenerator produces unique identifiers.
type IDGenerator interface {
	Generate() string
}

// NewIDGenerator returns a generator that emits "1", "2", "3", ... which keeps
// single-threaded simulations deterministic.
func NewIDGenerator() IDGenerator {
	return &sequentialIDGenerator{}
}

// NewXIDGenerator returns a generator whose IDs are globally unique across
// processes. It is used to name recordings and unnamed schedulers.
func NewXIDGenerator() IDGenerator {
	return xidGenerator{}
}

type sequentialIDGenerator struct {
	nextID uint64
}

func (g *sequentialIDGenerator) Generate() string {
	idNumber := atomic.AddUint64(&g.nextID, 1)
	id := strconv.FormatUint(idNumber, 10)

	return id
}

type xidGenerator struct{}

func (xidGenerator) Generate() string {
	return xid.New().String()
}

var defaultGenerator = NewIDGenerator()

// Generate returns an ID from the process-wide sequential generator.
func Generate() string {
	return defaultGenerator.Generate()
}
