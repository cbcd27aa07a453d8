package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"nutriguard/internal/pkg/common"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"
)

// S3API S3Store 使用到的 S3 操作
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Store S3 物件儲存
type S3Store struct {
	client    S3API
	bucket    string
	prefix    string
	retention time.Duration
	now       func() time.Time
}

// NewS3Store 以預設 AWS 憑證鏈建立 S3 儲存
func NewS3Store(ctx context.Context, bucket, region, prefix string, retention time.Duration) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewS3StoreWithClient(s3.NewFromConfig(awsCfg), bucket, prefix, retention), nil
}

// NewS3StoreWithClient 以既有客戶端建立 S3 儲存
func NewS3StoreWithClient(client S3API, bucket, prefix string, retention time.Duration) *S3Store {
	return &S3Store{client: client, bucket: bucket, prefix: prefix, retention: retention, now: time.Now}
}

func (s *S3Store) key(id string) string {
	return s.prefix + id
}

// Save 上傳物件
func (s *S3Store) Save(ctx context.Context, ext string, data []byte) (*Upload, error) {
	up := newUpload(ext, data)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(up.ID)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(up.ContentType),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}
	return up, nil
}

// Read 下載物件
func (s *S3Store) Read(ctx context.Context, id string) ([]byte, error) {
	if !ValidUploadID(id) {
		return nil, ErrInvalidUploadID
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(id)),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to download from S3: %w", err)
	}
	defer out.Body.Close()

	if out.LastModified != nil && expired(*out.LastModified, s.retention, s.now()) {
		return nil, common.ErrNotFound
	}

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read S3 object: %w", err)
	}
	return data, nil
}

// Sweep 刪除過期物件
func (s *S3Store) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	removed := 0
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return removed, fmt.Errorf("failed to list S3 objects: %w", err)
		}
		for _, obj := range page.Contents {
			if obj.LastModified == nil || !obj.LastModified.Before(cutoff) {
				continue
			}
			key := aws.ToString(obj.Key)
			if !ValidUploadID(strings.TrimPrefix(key, s.prefix)) {
				continue
			}
			if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(s.bucket),
				Key:    obj.Key,
			}); err != nil {
				common.LogWarn("刪除過期物件失敗", zap.String("key", key), zap.Error(err))
				continue
			}
			removed++
		}
	}
	return removed, nil
}
