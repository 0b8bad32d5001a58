package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suresight/suresight-backend/internal/pkg/apperr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	// Extracted carries the interpreter's partial output on verification
	// failures so a reviewer can see what the evidence looked like.
	Extracted any `json:"extracted,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError maps a typed error onto its HTTP status and envelope.
func RespondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	msg := "internal error"
	if err != nil && kind != apperr.KindInternal {
		msg = err.Error()
	}
	c.JSON(apperr.HTTPStatus(kind), ErrorEnvelope{
		Error: APIError{
			Message:   msg,
			Code:      string(kind),
			Extracted: apperr.ExtractedOf(err),
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
