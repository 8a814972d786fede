package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"portal/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// CallbackArchive keeps the raw bodies of gateway callbacks for audit
type CallbackArchive interface {
	Store(ctx context.Context, externalRef, status string, body []byte, receivedAt time.Time) (string, error)
}

type minioArchive struct {
	client *minio.Client
	bucket string
}

// NewCallbackArchive returns a MinIO backed archive, or a no-op one when no endpoint is configured
func NewCallbackArchive(ctx context.Context, cfg config.MinioConfig, logger *zap.Logger) (CallbackArchive, error) {
	if cfg.Endpoint == "" {
		logger.Info("minio not configured, callback archive disabled")
		return noopArchive{}, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, err
	}

	archive := &minioArchive{client: client, bucket: cfg.Bucket}
	if err := archive.ensureBucketExists(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket %s: %w", cfg.Bucket, err)
	}
	return archive, nil
}

func (m *minioArchive) ensureBucketExists(ctx context.Context) error {
	found, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if !found {
		return m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{})
	}
	return nil
}

func archiveObjectName(externalRef, status string, receivedAt time.Time) string {
	return fmt.Sprintf("callbacks/%s/%s-%s-%d.json", receivedAt.UTC().Format("2006/01/02"), externalRef, status, receivedAt.UnixNano())
}

func (m *minioArchive) Store(ctx context.Context, externalRef, status string, body []byte, receivedAt time.Time) (string, error) {
	name := archiveObjectName(externalRef, status, receivedAt)
	_, err := m.client.PutObject(ctx, m.bucket, name, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", err
	}
	return name, nil
}

type noopArchive struct{}

func (noopArchive) Store(ctx context.Context, externalRef, status string, body []byte, receivedAt time.Time) (string, error) {
	return "", nil
}
