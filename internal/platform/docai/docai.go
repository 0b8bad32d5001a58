// Package docai extracts text from claim attachment documents (repair
// estimates, police reports) with GCP Document AI. The extracted text is
// appended to the claim narrative before adjudication so the underwriter
// prompt sees everything the claimant submitted.
package docai

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"

	"github.com/suresight/suresight-backend/internal/pkg/logger"
)

type Service interface {
	// ExtractText runs the configured processor over the raw document and
	// returns its primary text. Returns "" without error when disabled.
	ExtractText(ctx context.Context, data []byte, mimeType string) (string, error)
	Close() error
}

type service struct {
	log       *logger.Logger
	client    *documentai.DocumentProcessorClient
	processor string
}

// NewService reads DOCAI_PROJECT_ID, DOCAI_LOCATION and DOCAI_PROCESSOR_ID.
// When the processor is unset the service is a no-op; attachment text is
// simply not folded into the narrative.
func NewService(log *logger.Logger) (Service, error) {
	serviceLog := log.With("service", "DocAI")

	projectID := strings.TrimSpace(os.Getenv("DOCAI_PROJECT_ID"))
	processorID := strings.TrimSpace(os.Getenv("DOCAI_PROCESSOR_ID"))
	if projectID == "" || processorID == "" {
		serviceLog.Info("Document AI disabled")
		return &service{log: serviceLog}, nil
	}
	location := strings.TrimSpace(os.Getenv("DOCAI_LOCATION"))
	if location == "" {
		location = "us"
	}

	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", location)
	client, err := documentai.NewDocumentProcessorClient(context.Background(), option.WithEndpoint(endpoint))
	if err != nil {
		return nil, fmt.Errorf("documentai client: %w", err)
	}

	serviceLog.Info("Document AI initialized", "endpoint", endpoint)
	return &service{
		log:       serviceLog,
		client:    client,
		processor: fmt.Sprintf("projects/%s/locations/%s/processors/%s", projectID, location, processorID),
	}, nil
}

func (s *service) ExtractText(ctx context.Context, data []byte, mimeType string) (string, error) {
	if s.client == nil || len(data) == 0 {
		return "", nil
	}
	if mimeType == "" {
		mimeType = "application/pdf"
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	resp, err := s.client.ProcessDocument(ctx, &documentaipb.ProcessRequest{
		Name: s.processor,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  data,
				MimeType: mimeType,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("documentai ProcessDocument: %w", err)
	}
	if resp == nil || resp.Document == nil {
		return "", nil
	}
	return strings.TrimSpace(resp.Document.GetText()), nil
}

func (s *service) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
