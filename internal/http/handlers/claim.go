package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/suresight/suresight-backend/internal/pkg/apperr"
	"github.com/suresight/suresight-backend/internal/services"
)

type ClaimHandler struct {
	claimService services.ClaimService
}

func NewClaimHandler(claimService services.ClaimService) *ClaimHandler {
	return &ClaimHandler{claimService: claimService}
}

func (ch *ClaimHandler) CreateClaim(c *gin.Context) {
	var req services.CreateClaimInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperr.Wrap(apperr.KindValidation, err))
		return
	}
	created, err := ch.claimService.CreateClaim(c.Request.Context(), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, gin.H{"claim": created})
}

func (ch *ClaimHandler) GetClaim(c *gin.Context) {
	claimID, err := parseIDParam(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	cl, err := ch.claimService.GetClaim(c.Request.Context(), claimID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"claim": cl})
}

func (ch *ClaimHandler) ListClaims(c *gin.Context) {
	claims, err := ch.claimService.ListClaims(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"claims": claims})
}

func (ch *ClaimHandler) ListByPolicy(c *gin.Context) {
	policyID, err := parseIDParam(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	claims, err := ch.claimService.ListByPolicy(c.Request.Context(), policyID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"claims": claims})
}

func (ch *ClaimHandler) DecideClaim(c *gin.Context) {
	claimID, err := parseIDParam(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	var req services.DecideClaimInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperr.Wrap(apperr.KindValidation, err))
		return
	}
	cl, err := ch.claimService.DecideClaim(c.Request.Context(), claimID, req)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"claim": cl})
}

func (ch *ClaimHandler) DeleteClaim(c *gin.Context) {
	claimID, err := parseIDParam(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	if err := ch.claimService.DeleteClaim(c.Request.Context(), claimID); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}
