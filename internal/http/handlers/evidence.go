package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/suresight/suresight-backend/internal/pkg/apperr"
	"github.com/suresight/suresight-backend/internal/services"
)

type EvidenceHandler struct {
	evidenceService services.EvidenceService
}

func NewEvidenceHandler(evidenceService services.EvidenceService) *EvidenceHandler {
	return &EvidenceHandler{evidenceService: evidenceService}
}

// Upload accepts a multipart form with a single "file" field and returns the
// storage key to reference in policy or claim submissions.
func (eh *EvidenceHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, apperr.New(apperr.KindValidation, "missing file field"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		RespondError(c, apperr.Wrap(apperr.KindValidation, err))
		return
	}
	defer file.Close()

	key, err := eh.evidenceService.Upload(c.Request.Context(),
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"), file)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, gin.H{
		"key": key,
		"url": eh.evidenceService.PublicURL(key),
	})
}
