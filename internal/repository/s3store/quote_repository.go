// Package s3store keeps quotes as one JSON object per row in an S3 bucket.
package s3store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"subsonic-backend/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// ErrRowExists is returned when an object already exists at the row key.
var ErrRowExists = errors.New("s3store: row already exists")

// API is the subset of *s3.Client the repository uses.
type API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type QuoteRepository struct {
	client API
	bucket string
	prefix string
	table  string
	region string
}

func NewQuoteRepository(client API, bucket, prefix, table, region string) *QuoteRepository {
	return &QuoteRepository{
		client: client,
		bucket: bucket,
		prefix: prefix,
		table:  table,
		region: region,
	}
}

// ObjectKey is "{prefix}/{table}/{partition}/{rowKey}.json".
func (r *QuoteRepository) ObjectKey(q *domain.Quote) string {
	return path.Join(r.prefix, r.table, q.PartitionKey, q.RowKey+".json")
}

// EnsureTable makes sure the bucket exists; the "table" is only a key prefix.
func (r *QuoteRepository) EnsureTable(ctx context.Context) error {
	_, err := r.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(r.bucket)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	if !errors.As(err, &notFound) {
		return fmt.Errorf("head bucket %s: %w", r.bucket, err)
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(r.bucket)}
	if r.region != "" && r.region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(r.region),
		}
	}
	if _, err := r.client.CreateBucket(ctx, input); err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("create bucket %s: %w", r.bucket, err)
	}
	return nil
}

// Create writes the quote as JSON, refusing to overwrite an existing row.
func (r *QuoteRepository) Create(ctx context.Context, q *domain.Quote) error {
	body, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("marshal quote: %w", err)
	}

	key := r.ObjectKey(q)
	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		IfNoneMatch: aws.String("*"),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed" {
			return fmt.Errorf("%w: %s", ErrRowExists, key)
		}
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func (r *QuoteRepository) Ping(ctx context.Context) error {
	_, err := r.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(r.bucket)})
	return err
}
