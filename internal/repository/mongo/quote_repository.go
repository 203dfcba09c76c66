package mongo

import (
	"context"
	"fmt"
	"time"

	"subsonic-backend/internal/domain"
	"subsonic-backend/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// quoteDocument is the stored shape of a quote.
type quoteDocument struct {
	PartitionKey  string    `bson:"partitionKey"`
	RowKey        string    `bson:"rowKey"`
	Nombre        string    `bson:"nombre"`
	Email         string    `bson:"email"`
	TipoEvento    string    `bson:"tipoEvento"`
	FechaEvento   string    `bson:"fechaEvento"`
	Mensaje       string    `bson:"mensaje"`
	FechaCreacion time.Time `bson:"fechaCreacion"`
}

func newQuoteDocument(q *domain.Quote) quoteDocument {
	return quoteDocument{
		PartitionKey:  q.PartitionKey,
		RowKey:        q.RowKey,
		Nombre:        q.Nombre,
		Email:         q.Email,
		TipoEvento:    q.TipoEvento,
		FechaEvento:   q.FechaEvento,
		Mensaje:       q.Mensaje,
		FechaCreacion: q.FechaCreacion.UTC(),
	}
}

// QuoteRepository stores quotes as documents in one collection.
type QuoteRepository struct {
	db         *mongo.Database
	collection string
}

// NewQuoteRepository binds the repository to a database and collection name.
func NewQuoteRepository(db *mongo.Database, collection string) *QuoteRepository {
	return &QuoteRepository{db: db, collection: collection}
}

// EnsureTable creates the collection and its (partitionKey, rowKey) unique index.
func (r *QuoteRepository) EnsureTable(ctx context.Context) error {
	if err := r.db.CreateCollection(ctx, r.collection); err != nil && !database.IsNamespaceExists(err) {
		return fmt.Errorf("create collection %s: %w", r.collection, err)
	}

	_, err := r.db.Collection(r.collection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "partitionKey", Value: 1}, {Key: "rowKey", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("partition_row_unique"),
	})
	if err != nil {
		return fmt.Errorf("create index on %s: %w", r.collection, err)
	}
	return nil
}

// Create inserts one quote document.
func (r *QuoteRepository) Create(ctx context.Context, q *domain.Quote) error {
	if _, err := r.db.Collection(r.collection).InsertOne(ctx, newQuoteDocument(q)); err != nil {
		return fmt.Errorf("insert quote %s: %w", q.RowKey, err)
	}
	return nil
}

// Ping checks the primary is reachable.
func (r *QuoteRepository) Ping(ctx context.Context) error {
	return r.db.Client().Ping(ctx, readpref.Primary())
}
