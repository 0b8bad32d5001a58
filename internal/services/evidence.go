package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/suresight/suresight-backend/internal/pkg/apperr"
	"github.com/suresight/suresight-backend/internal/pkg/logger"
	"github.com/suresight/suresight-backend/internal/platform/gcs"
	"github.com/suresight/suresight-backend/internal/platform/gemini"
)

// maxEvidenceBytes caps a single uploaded evidence file.
const maxEvidenceBytes = 15 << 20

type EvidenceService interface {
	// Upload stores an evidence file and returns its storage key.
	Upload(ctx context.Context, filename, contentType string, file io.Reader) (string, error)
	// ResolveImages fetches the stored objects behind keys concurrently and
	// returns them in key order, ready for the interpreter.
	ResolveImages(ctx context.Context, keys []string) ([]gemini.Image, error)
	PublicURL(key string) string
}

type evidenceService struct {
	log           *logger.Logger
	bucketService gcs.BucketService
}

func NewEvidenceService(log *logger.Logger, bucketService gcs.BucketService) EvidenceService {
	return &evidenceService{
		log:           log.With("service", "EvidenceService"),
		bucketService: bucketService,
	}
}

func (es *evidenceService) Upload(ctx context.Context, filename, contentType string, file io.Reader) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp", ".pdf":
	default:
		return "", apperr.New(apperr.KindValidation, "unsupported evidence file type %q", ext)
	}
	if contentType == "" {
		contentType = mimeForExt(ext)
	}

	// Read one byte past the cap so an oversize file is detected and
	// rejected rather than stored truncated.
	data, err := io.ReadAll(io.LimitReader(file, maxEvidenceBytes+1))
	if err != nil {
		return "", fmt.Errorf("read evidence: %w", err)
	}
	if len(data) > maxEvidenceBytes {
		return "", apperr.New(apperr.KindValidation, "evidence file exceeds %d bytes", maxEvidenceBytes)
	}

	key := fmt.Sprintf("%s/%s%s", time.Now().UTC().Format("20060102"), uuid.New().String(), ext)
	if err := es.bucketService.UploadFile(ctx, gcs.BucketCategoryEvidence, key, contentType, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("store evidence: %w", err)
	}
	es.log.Debug("Evidence stored", "key", key, "content_type", contentType)
	return key, nil
}

func (es *evidenceService) ResolveImages(ctx context.Context, keys []string) ([]gemini.Image, error) {
	images := make([]gemini.Image, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			obj, err := es.bucketService.FetchObject(gctx, gcs.BucketCategoryEvidence, key)
			if err != nil {
				return apperr.New(apperr.KindValidation, "evidence %q could not be resolved", key)
			}
			contentType := obj.ContentType
			if contentType == "" {
				contentType = mimeForExt(strings.ToLower(path.Ext(key)))
			}
			images[i] = gemini.Image{MimeType: contentType, Data: obj.Data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}

func (es *evidenceService) PublicURL(key string) string {
	return es.bucketService.GetPublicURL(gcs.BucketCategoryEvidence, key)
}

func mimeForExt(ext string) string {
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
