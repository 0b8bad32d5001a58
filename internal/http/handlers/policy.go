package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/suresight/suresight-backend/internal/pkg/apperr"
	"github.com/suresight/suresight-backend/internal/services"

	types "github.com/suresight/suresight-backend/internal/domain"
)

type PolicyHandler struct {
	policyService services.PolicyService
}

func NewPolicyHandler(policyService services.PolicyService) *PolicyHandler {
	return &PolicyHandler{policyService: policyService}
}

func (ph *PolicyHandler) CreatePolicy(c *gin.Context) {
	var req services.CreatePolicyInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperr.Wrap(apperr.KindValidation, err))
		return
	}
	p, err := ph.policyService.CreatePolicy(c.Request.Context(), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, gin.H{"policy": p})
}

func (ph *PolicyHandler) GetPolicy(c *gin.Context) {
	policyID, err := parseIDParam(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	p, err := ph.policyService.GetPolicy(c.Request.Context(), policyID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"policy": p})
}

func (ph *PolicyHandler) ListPolicies(c *gin.Context) {
	policies, err := ph.policyService.ListPolicies(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"policies": policies})
}

func (ph *PolicyHandler) UpdatePolicy(c *gin.Context) {
	policyID, err := parseIDParam(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	var req services.UpdatePolicyInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperr.Wrap(apperr.KindValidation, err))
		return
	}
	p, err := ph.policyService.UpdatePolicy(c.Request.Context(), policyID, req)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"policy": p})
}

type setPolicyStatusRequest struct {
	Status string `json:"status"`
}

func (ph *PolicyHandler) SetPolicyStatus(c *gin.Context) {
	policyID, err := parseIDParam(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	var req setPolicyStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperr.Wrap(apperr.KindValidation, err))
		return
	}
	p, err := ph.policyService.SetPolicyStatus(c.Request.Context(), policyID, types.PolicyStatus(req.Status))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"policy": p})
}

func (ph *PolicyHandler) DeletePolicy(c *gin.Context) {
	policyID, err := parseIDParam(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	if err := ph.policyService.DeletePolicy(c.Request.Context(), policyID); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}
