package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/ignite/offer-monitor/internal/config"
	"github.com/ignite/offer-monitor/internal/datanorm"
	"github.com/ignite/offer-monitor/internal/workbook"
)

// S3Source loads a performance snapshot from a CSV or xlsx object.
type S3Source struct {
	aws    *AWSStorage
	bucket string
	key    string
}

// NewS3Source creates a snapshot source for the configured object.
func NewS3Source(ctx context.Context, cfg config.S3SourceConfig) (*S3Source, error) {
	if cfg.Bucket == "" || cfg.Key == "" {
		return nil, fmt.Errorf("s3 source needs bucket and key")
	}
	a, err := NewAWSStorage(ctx, cfg.Bucket, "", cfg.Region, cfg.AWSProfile)
	if err != nil {
		return nil, err
	}
	return &S3Source{aws: a, bucket: cfg.Bucket, key: cfg.Key}, nil
}

// Load fetches and decodes the object.
func (s *S3Source) Load(ctx context.Context) (*datanorm.Snapshot, error) {
	data, err := s.aws.GetBytesFromBucket(ctx, s.bucket, s.key)
	if err != nil {
		return nil, err
	}
	snap, err := workbook.Decode(s.key, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode s3://%s/%s: %w", s.bucket, s.key, err)
	}
	snap.Origin = fmt.Sprintf("s3://%s/%s", s.bucket, s.key)
	log.Printf("[storage] loaded %d records from %s", len(snap.Performance.Records), snap.Origin)
	return snap, nil
}
