package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Content types of archived objects.
const (
	ContentTypeJSON = "application/json"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// AWSStorage provides S3-backed report archiving and snapshot retrieval
type AWSStorage struct {
	s3Client s3API
	bucket   string
	prefix   string
	region   string
}

// LoadAWSConfig loads the default credential chain, optionally pinned to a
// shared profile.
func LoadAWSConfig(ctx context.Context, region, profile string) (aws.Config, error) {
	if profile != "" {
		return config.LoadDefaultConfig(ctx,
			config.WithRegion(region),
			config.WithSharedConfigProfile(profile),
		)
	}
	return config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
	)
}

// NewAWSStorage creates a new AWS storage instance
func NewAWSStorage(ctx context.Context, bucket, prefix, region, profile string) (*AWSStorage, error) {
	cfg, err := LoadAWSConfig(ctx, region, profile)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return newAWSStorage(s3.NewFromConfig(cfg), bucket, prefix, region), nil
}

func newAWSStorage(client s3API, bucket, prefix, region string) *AWSStorage {
	return &AWSStorage{s3Client: client, bucket: bucket, prefix: prefix, region: region}
}

// Bucket returns the default bucket.
func (s *AWSStorage) Bucket() string { return s.bucket }

func (s *AWSStorage) key(key string) string {
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}

// PutBytes uploads raw bytes under the storage prefix.
func (s *AWSStorage) PutBytes(ctx context.Context, key, contentType string, data []byte) error {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(key)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("putting object to S3: %w", err)
	}
	return nil
}

// SaveToS3 saves data to S3 as JSON
func (s *AWSStorage) SaveToS3(ctx context.Context, key string, data interface{}) error {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling data: %w", err)
	}
	return s.PutBytes(ctx, key, ContentTypeJSON, jsonData)
}

// GetFromS3 retrieves JSON data from S3
func (s *AWSStorage) GetFromS3(ctx context.Context, key string, target interface{}) error {
	data, err := s.GetBytesFromBucket(ctx, s.bucket, s.key(key))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("unmarshaling S3 data: %w", err)
	}
	return nil
}

// GetBytesFromBucket retrieves a raw object from a specific bucket. An
// empty bucket selects the default one. The key is used as given.
func (s *AWSStorage) GetBytesFromBucket(ctx context.Context, bucket, key string) ([]byte, error) {
	targetBucket := bucket
	if targetBucket == "" {
		targetBucket = s.bucket
	}

	result, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(targetBucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("getting object from S3 bucket %s: %w", targetBucket, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("reading S3 object body: %w", err)
	}
	return data, nil
}
