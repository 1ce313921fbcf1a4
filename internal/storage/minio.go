package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/reqforge/reqforge/internal/brd"
)

const exportURLExpiry = 15 * time.Minute

// MinIOStorage is a thin wrapper around the minio client used for document
// exports.
type MinIOStorage struct {
	client *minio.Client
	bucket string
}

// NewMinIOStorage creates a new MinIO storage client and ensures the bucket exists.
func NewMinIOStorage(cfg *MinIOConfig) (*MinIOStorage, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	s := &MinIOStorage{client: mc, bucket: cfg.Bucket}
	// ensure bucket exists (idempotent)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		// ignore "already exists" style errors
		exist, xerr := mc.BucketExists(ctx, s.bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	return s, nil
}

// ExportBRD renders the document as plain text, stores it under a key derived
// from the document id, and returns a presigned download URL.
func (s *MinIOStorage) ExportBRD(ctx context.Context, d *brd.BRD) (string, error) {
	body := renderExport(d)
	key := fmt.Sprintf("exports/%s.txt", d.ID)
	if err := s.UploadFile(ctx, key, bytes.NewReader(body), int64(len(body)), "text/plain; charset=utf-8"); err != nil {
		return "", fmt.Errorf("export upload: %w", err)
	}
	return s.GetPresignedURL(ctx, key, exportURLExpiry)
}

func renderExport(d *brd.BRD) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Business Requirements Document: %s\n\n", d.ProductName)
	fmt.Fprintf(&buf, "Goals: %s\n", d.Goals)
	if d.Features != "" {
		fmt.Fprintf(&buf, "Features: %s\n", d.Features)
	}
	fmt.Fprintf(&buf, "\n%s\n", d.Content)
	return buf.Bytes()
}

// UploadFile uploads data from reader to the configured bucket using the provided key.
func (s *MinIOStorage) UploadFile(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, reader, size, minio.PutObjectOptions{ContentType: contentType})
	return err
}

// GetPresignedURL returns a presigned GET URL valid for the given duration.
func (s *MinIOStorage) GetPresignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	reqParams := make(url.Values)
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, expires, reqParams)
	if err != nil {
		return "", err
	}
	return presigned.String(), nil
}
