// Package visionhints runs claim damage images through Cloud Vision label
// detection and turns the top labels into short hint strings for the
// adjudication prompt. Hints are strictly advisory; any failure yields no
// hints and the adjudication proceeds without them.
package visionhints

import (
	"context"
	"fmt"
	"os"
	"strings"

	vision "cloud.google.com/go/vision/apiv1"
	visionpb "google.golang.org/genproto/googleapis/cloud/vision/v1"

	"github.com/suresight/suresight-backend/internal/pkg/logger"
)

const maxLabelsPerImage = 5

type Service interface {
	// Hints labels each image and returns one "label (score)" style hint per
	// prominent label, deduplicated across images.
	Hints(ctx context.Context, images [][]byte) []string
	Close() error
}

type service struct {
	log    *logger.Logger
	client *vision.ImageAnnotatorClient
}

// NewService returns a nil-safe no-op service when VISION_HINTS_ENABLED is
// not truthy, so callers never need to branch on configuration.
func NewService(ctx context.Context, log *logger.Logger) (Service, error) {
	serviceLog := log.With("service", "VisionHints")
	if !enabled() {
		serviceLog.Info("Vision hints disabled")
		return &service{log: serviceLog}, nil
	}
	client, err := vision.NewImageAnnotatorClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("init vision client: %w", err)
	}
	serviceLog.Info("Vision hints enabled")
	return &service{log: serviceLog, client: client}, nil
}

func enabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("VISION_HINTS_ENABLED")))
	return v == "1" || v == "true" || v == "yes"
}

func (s *service) Hints(ctx context.Context, images [][]byte) []string {
	if s.client == nil || len(images) == 0 {
		return nil
	}
	seen := make(map[string]bool)
	var hints []string
	for _, data := range images {
		res, err := s.client.DetectLabels(ctx, &visionpb.Image{Content: data}, nil, maxLabelsPerImage)
		if err != nil {
			s.log.Warn("Label detection failed, continuing without hints", "error", err)
			continue
		}
		for _, ann := range res {
			label := strings.ToLower(strings.TrimSpace(ann.GetDescription()))
			if label == "" || seen[label] {
				continue
			}
			seen[label] = true
			hints = append(hints, fmt.Sprintf("%s (%.2f)", label, ann.GetScore()))
		}
	}
	return hints
}

func (s *service) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
