package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/suresight/suresight-backend/internal/pkg/apperr"
	"github.com/suresight/suresight-backend/internal/services"
)

type InsurableHandler struct {
	insurableService services.InsurableService
}

func NewInsurableHandler(insurableService services.InsurableService) *InsurableHandler {
	return &InsurableHandler{insurableService: insurableService}
}

func (ih *InsurableHandler) AddVehicle(c *gin.Context) {
	var req services.AddVehicleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperr.Wrap(apperr.KindValidation, err))
		return
	}
	asset, err := ih.insurableService.AddVehicle(c.Request.Context(), req)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, gin.H{"insurable": asset})
}

func (ih *InsurableHandler) GetInsurable(c *gin.Context) {
	insurableID, err := parseIDParam(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	asset, err := ih.insurableService.GetInsurable(c.Request.Context(), insurableID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"insurable": asset})
}

func (ih *InsurableHandler) ListInsurables(c *gin.Context) {
	assets, err := ih.insurableService.ListInsurables(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"insurables": assets})
}

func (ih *InsurableHandler) ListByPolicy(c *gin.Context) {
	policyID, err := parseIDParam(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	assets, err := ih.insurableService.ListByPolicy(c.Request.Context(), policyID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"insurables": assets})
}

func (ih *InsurableHandler) UpdateVehicle(c *gin.Context) {
	insurableID, err := parseIDParam(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	var req services.UpdateVehicleInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperr.Wrap(apperr.KindValidation, err))
		return
	}
	asset, err := ih.insurableService.UpdateVehicle(c.Request.Context(), insurableID, req)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"insurable": asset})
}

func (ih *InsurableHandler) DeleteInsurable(c *gin.Context) {
	insurableID, err := parseIDParam(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	if err := ih.insurableService.DeleteInsurable(c.Request.Context(), insurableID); err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}
