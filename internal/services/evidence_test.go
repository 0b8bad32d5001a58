package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/suresight/suresight-backend/internal/pkg/apperr"
	"github.com/suresight/suresight-backend/internal/pkg/logger"
	"github.com/suresight/suresight-backend/internal/platform/gcs"
)

type memoryBucket struct {
	mu      sync.Mutex
	objects map[string]*gcs.Object
}

func newMemoryBucket() *memoryBucket {
	return &memoryBucket{objects: map[string]*gcs.Object{}}
}

func (b *memoryBucket) path(category gcs.BucketCategory, key string) string {
	return fmt.Sprintf("%s/%s", category, key)
}

func (b *memoryBucket) UploadFile(ctx context.Context, category gcs.BucketCategory, key string, contentType string, file io.Reader) error {
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[b.path(category, key)] = &gcs.Object{Data: data, ContentType: contentType}
	return nil
}

func (b *memoryBucket) FetchObject(ctx context.Context, category gcs.BucketCategory, key string) (*gcs.Object, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	obj, ok := b.objects[b.path(category, key)]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return obj, nil
}

func (b *memoryBucket) DeleteFile(ctx context.Context, category gcs.BucketCategory, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, b.path(category, key))
	return nil
}

func (b *memoryBucket) GetPublicURL(category gcs.BucketCategory, key string) string {
	return fmt.Sprintf("https://storage.example.com/%s", b.path(category, key))
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func TestEvidenceUpload_StoresUnderDatedKey(t *testing.T) {
	bucket := newMemoryBucket()
	es := NewEvidenceService(testLogger(t), bucket)

	key, err := es.Upload(context.Background(), "front.JPG", "", bytes.NewReader([]byte{0xFF, 0xD8}))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasSuffix(key, ".jpg") {
		t.Fatalf("key must keep the lowercased extension, got %q", key)
	}
	parts := strings.Split(key, "/")
	if len(parts) != 2 || len(parts[0]) != 8 {
		t.Fatalf("key must be day-bucketed, got %q", key)
	}

	obj, err := bucket.FetchObject(context.Background(), gcs.BucketCategoryEvidence, key)
	if err != nil {
		t.Fatalf("stored object missing: %v", err)
	}
	if obj.ContentType != "image/jpeg" {
		t.Fatalf("content type must be inferred from the extension, got %q", obj.ContentType)
	}
}

func TestEvidenceUpload_RejectsOversizeFiles(t *testing.T) {
	bucket := newMemoryBucket()
	es := NewEvidenceService(testLogger(t), bucket)

	_, err := es.Upload(context.Background(), "huge.jpg", "image/jpeg",
		bytes.NewReader(make([]byte, maxEvidenceBytes+1)))
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("oversize upload must be rejected, got %v", err)
	}
	if len(bucket.objects) != 0 {
		t.Fatalf("rejected upload must not be stored")
	}

	key, err := es.Upload(context.Background(), "atcap.jpg", "image/jpeg",
		bytes.NewReader(make([]byte, maxEvidenceBytes)))
	if err != nil {
		t.Fatalf("upload at the cap: %v", err)
	}
	obj, err := bucket.FetchObject(context.Background(), gcs.BucketCategoryEvidence, key)
	if err != nil {
		t.Fatalf("stored object missing: %v", err)
	}
	if len(obj.Data) != maxEvidenceBytes {
		t.Fatalf("stored %d of %d bytes", len(obj.Data), maxEvidenceBytes)
	}
}

func TestEvidenceUpload_RejectsUnsupportedTypes(t *testing.T) {
	es := NewEvidenceService(testLogger(t), newMemoryBucket())

	for _, name := range []string{"report.exe", "clip.mp4", "noextension"} {
		_, err := es.Upload(context.Background(), name, "", strings.NewReader("x"))
		if !apperr.IsKind(err, apperr.KindValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestResolveImages_PreservesKeyOrder(t *testing.T) {
	bucket := newMemoryBucket()
	es := NewEvidenceService(testLogger(t), bucket)

	keys := []string{"20240715/a.jpg", "20240715/b.png", "20240715/c.webp"}
	for _, k := range keys {
		err := bucket.UploadFile(context.Background(), gcs.BucketCategoryEvidence, k, "", bytes.NewReader([]byte(k)))
		if err != nil {
			t.Fatalf("seed %s: %v", k, err)
		}
	}

	images, err := es.ResolveImages(context.Background(), keys)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(images) != len(keys) {
		t.Fatalf("expected %d images, got %d", len(keys), len(images))
	}
	for i, k := range keys {
		if string(images[i].Data) != k {
			t.Fatalf("image %d out of order: got %q", i, string(images[i].Data))
		}
	}
	if images[1].MimeType != "image/png" {
		t.Fatalf("missing content type must be inferred from the key, got %q", images[1].MimeType)
	}
}

func TestResolveImages_MissingObjectIsValidation(t *testing.T) {
	es := NewEvidenceService(testLogger(t), newMemoryBucket())

	_, err := es.ResolveImages(context.Background(), []string{"20240715/gone.jpg"})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for missing evidence, got %v", err)
	}
}
