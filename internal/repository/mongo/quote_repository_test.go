package mongo

import (
	"testing"
	"time"

	"subsonic-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestQuoteDocumentFields(t *testing.T) {
	santiago := time.FixedZone("CLT", -3*60*60)
	q := &domain.Quote{
		PartitionKey:  domain.QuotePartitionKey,
		RowKey:        "1700000000000-abc",
		Nombre:        "Ana",
		Email:         "ana@example.com",
		TipoEvento:    "Matrimonio",
		FechaEvento:   "2025-03-15",
		Mensaje:       "Hola",
		FechaCreacion: time.Date(2025, 1, 1, 9, 0, 0, 0, santiago),
	}

	raw, err := bson.Marshal(newQuoteDocument(q))
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))

	assert.Equal(t, "cotizacion", doc["partitionKey"])
	assert.Equal(t, "1700000000000-abc", doc["rowKey"])
	assert.Equal(t, "Matrimonio", doc["tipoEvento"])
	assert.Equal(t, "2025-03-15", doc["fechaEvento"])
	assert.Len(t, doc, 8)
	assert.Equal(t, time.UTC, newQuoteDocument(q).FechaCreacion.Location())
}
