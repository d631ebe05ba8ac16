// Package archive copies generated reports to S3-compatible storage and
// issues pre-signed download URLs for them. When no bucket is configured
// the NoopArchiver is used and reports live only in the database.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hyperengineering/snsreport/internal/config"
)

// ErrNotConfigured is returned when report archiving is not configured.
var ErrNotConfigured = errors.New("report archive not configured")

// Format is the file format of an archived report.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
)

// Document is one report rendering to archive.
type Document struct {
	ClientID string
	ReportID string
	Markdown string
	HTML     string
}

// Archiver stores reports and hands out download URLs.
type Archiver interface {
	// Put uploads both renderings of a report.
	Put(ctx context.Context, doc Document) error

	// PresignedURL returns a pre-signed GET URL for one rendering.
	// Returns ErrNotConfigured when archiving is disabled.
	PresignedURL(ctx context.Context, clientID, reportID string, format Format) (url string, expiry time.Time, err error)
}

// s3Client defines the minimal minio.Client operations used by S3Archiver.
type s3Client interface {
	PutObject(ctx context.Context, bucket, objectName string, data []byte, contentType string) error
	PresignedGetObject(ctx context.Context, bucket, objectName string, expiry time.Duration) (*url.URL, error)
}

// minioClientWrapper adapts *minio.Client to s3Client.
type minioClientWrapper struct {
	client *minio.Client
}

func (w *minioClientWrapper) PutObject(ctx context.Context, bucket, objectName string, data []byte, contentType string) error {
	_, err := w.client.PutObject(ctx, bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (w *minioClientWrapper) PresignedGetObject(ctx context.Context, bucket, objectName string, expiry time.Duration) (*url.URL, error) {
	return w.client.PresignedGetObject(ctx, bucket, objectName, expiry, nil)
}

// S3Archiver archives reports to S3-compatible storage.
type S3Archiver struct {
	client    s3Client
	bucket    string
	urlExpiry time.Duration
}

// Put uploads the Markdown and HTML renderings of doc.
func (a *S3Archiver) Put(ctx context.Context, doc Document) error {
	if err := a.client.PutObject(ctx, a.bucket, objectKey(doc.ClientID, doc.ReportID, FormatMarkdown),
		[]byte(doc.Markdown), "text/markdown; charset=utf-8"); err != nil {
		return fmt.Errorf("upload markdown report: %w", err)
	}
	if err := a.client.PutObject(ctx, a.bucket, objectKey(doc.ClientID, doc.ReportID, FormatHTML),
		[]byte(doc.HTML), "text/html; charset=utf-8"); err != nil {
		return fmt.Errorf("upload html report: %w", err)
	}
	return nil
}

// PresignedURL returns a pre-signed GET URL for an archived rendering.
func (a *S3Archiver) PresignedURL(ctx context.Context, clientID, reportID string, format Format) (string, time.Time, error) {
	presigned, err := a.client.PresignedGetObject(ctx, a.bucket, objectKey(clientID, reportID, format), a.urlExpiry)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate pre-signed URL: %w", err)
	}
	return presigned.String(), time.Now().Add(a.urlExpiry), nil
}

// NoopArchiver is used when archiving is not configured.
type NoopArchiver struct{}

// Put always returns ErrNotConfigured.
func (NoopArchiver) Put(ctx context.Context, doc Document) error {
	return ErrNotConfigured
}

// PresignedURL always returns ErrNotConfigured.
func (NoopArchiver) PresignedURL(ctx context.Context, clientID, reportID string, format Format) (string, time.Time, error) {
	return "", time.Time{}, ErrNotConfigured
}

// New creates the Archiver selected by configuration: NoopArchiver when the
// bucket is empty, S3Archiver otherwise.
func New(cfg config.ArchiveConfig) (Archiver, error) {
	if cfg.Bucket == "" {
		return NoopArchiver{}, nil
	}

	useSSL := true
	if cfg.UseSSL != nil {
		useSSL = *cfg.UseSSL
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: useSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 client: %w", err)
	}

	return &S3Archiver{
		client:    &minioClientWrapper{client: client},
		bucket:    cfg.Bucket,
		urlExpiry: time.Duration(cfg.URLExpiry),
	}, nil
}

// objectKey is {client_id}/reports/{report_id}.{format}.
func objectKey(clientID, reportID string, format Format) string {
	return clientID + "/reports/" + reportID + "." + string(format)
}
