package domain

import (
	"context"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// QuotePartitionKey groups every stored quote under one partition.
const QuotePartitionKey = "cotizacion"

// rowKeySuffixLen is the base36 width of the random part of a row key.
const rowKeySuffixLen = 12

// Quote is the persisted form of a quote request.
type Quote struct {
	PartitionKey  string    `json:"partitionKey"`
	RowKey        string    `json:"rowKey"`
	Nombre        string    `json:"nombre"`
	Email         string    `json:"email"`
	TipoEvento    string    `json:"tipoEvento"` // resolved label
	FechaEvento   string    `json:"fechaEvento"`
	Mensaje       string    `json:"mensaje"`
	FechaCreacion time.Time `json:"fechaCreacion"`
}

// QuoteRepository is an append-only row store for quotes.
type QuoteRepository interface {
	// EnsureTable creates the backing table if missing. Must be idempotent.
	EnsureTable(ctx context.Context) error
	Create(ctx context.Context, quote *Quote) error
	// Ping checks the backend is reachable, for health reporting.
	Ping(ctx context.Context) error
}

// RowKeyGenerator builds "{epoch-millis}-{base36 suffix}" row keys.
//
// Uniqueness is probabilistic: the suffix carries 62 random bits taken from a
// version 4 UUID. A monotonic sequence would be needed for a hard guarantee.
type RowKeyGenerator struct {
	Now func() time.Time
}

// NewRowKeyGenerator returns a generator on the wall clock.
func NewRowKeyGenerator() *RowKeyGenerator {
	return &RowKeyGenerator{Now: time.Now}
}

// Next returns a new row key and the timestamp it was derived from.
func (g *RowKeyGenerator) Next() (string, time.Time) {
	now := time.Now
	if g != nil && g.Now != nil {
		now = g.Now
	}
	ts := now()
	return fmt.Sprintf("%d-%s", ts.UnixMilli(), randomSuffix()), ts
}

func randomSuffix() string {
	id := uuid.New()
	// the top two bits of byte 8 are the variant; masking to 62 bits drops them
	n := binary.BigEndian.Uint64(id[8:16]) & (1<<62 - 1)
	s := strconv.FormatUint(n, 36)
	if len(s) < rowKeySuffixLen {
		s = strings.Repeat("0", rowKeySuffixLen-len(s)) + s
	}
	return s
}
