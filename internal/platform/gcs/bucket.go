// Package gcs is the evidence object store: angle photographs, claim damage
// images, claim attachments, and generated avatars live in GCS buckets. The
// pipelines only ever see resolved object keys; raw upload streams stop at
// the handlers.
package gcs

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/suresight/suresight-backend/internal/pkg/logger"
)

type BucketCategory string

const (
	BucketCategoryEvidence BucketCategory = "evidence"
	BucketCategoryDocument BucketCategory = "document"
	BucketCategoryAvatar   BucketCategory = "avatar"
)

type Object struct {
	Data        []byte
	ContentType string
}

type BucketService interface {
	UploadFile(ctx context.Context, category BucketCategory, key string, contentType string, file io.Reader) error
	FetchObject(ctx context.Context, category BucketCategory, key string) (*Object, error)
	DeleteFile(ctx context.Context, category BucketCategory, key string) error
	GetPublicURL(category BucketCategory, key string) string
}

type bucketService struct {
	log           *logger.Logger
	storageClient *storage.Client
	bucketName    string
	publicBaseURL string
}

func NewBucketService(log *logger.Logger) (BucketService, error) {
	serviceLog := log.With("service", "BucketService")

	bucketName := strings.TrimSpace(os.Getenv("EVIDENCE_GCS_BUCKET_NAME"))
	if bucketName == "" {
		return nil, fmt.Errorf("missing EVIDENCE_GCS_BUCKET_NAME")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var opts []option.ClientOption
	if emulator := strings.TrimSpace(os.Getenv("STORAGE_EMULATOR_HOST")); emulator != "" {
		serviceLog.Info("Using storage emulator", "host", emulator)
		opts = append(opts, option.WithoutAuthentication())
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("init storage client: %w", err)
	}

	publicBaseURL := strings.TrimRight(strings.TrimSpace(os.Getenv("EVIDENCE_PUBLIC_BASE_URL")), "/")

	return &bucketService{
		log:           serviceLog,
		storageClient: client,
		bucketName:    bucketName,
		publicBaseURL: publicBaseURL,
	}, nil
}

func (bs *bucketService) objectKey(category BucketCategory, key string) string {
	return fmt.Sprintf("%s/%s", category, strings.TrimLeft(key, "/"))
}

func (bs *bucketService) UploadFile(ctx context.Context, category BucketCategory, key string, contentType string, file io.Reader) error {
	w := bs.storageClient.Bucket(bs.bucketName).Object(bs.objectKey(category, key)).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize upload %s: %w", key, err)
	}
	return nil
}

func (bs *bucketService) FetchObject(ctx context.Context, category BucketCategory, key string) (*Object, error) {
	r, err := bs.storageClient.Bucket(bs.bucketName).Object(bs.objectKey(category, key)).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return &Object{Data: data, ContentType: r.Attrs.ContentType}, nil
}

func (bs *bucketService) DeleteFile(ctx context.Context, category BucketCategory, key string) error {
	err := bs.storageClient.Bucket(bs.bucketName).Object(bs.objectKey(category, key)).Delete(ctx)
	if err != nil && err != storage.ErrObjectNotExist {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (bs *bucketService) GetPublicURL(category BucketCategory, key string) string {
	if bs.publicBaseURL != "" {
		return fmt.Sprintf("%s/%s", bs.publicBaseURL, bs.objectKey(category, key))
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bs.bucketName, bs.objectKey(category, key))
}
