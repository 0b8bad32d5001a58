package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/suresight/suresight-backend/internal/pkg/apperr"
	"github.com/suresight/suresight-backend/internal/requestdata"
	"github.com/suresight/suresight-backend/internal/services"

	types "github.com/suresight/suresight-backend/internal/domain"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func parseIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperr.New(apperr.KindValidation, "invalid %s", name)
	}
	return id, nil
}

func (uh *UserHandler) GetMe(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, apperr.New(apperr.KindUnauthorized, "no authenticated actor"))
		return
	}
	me, err := uh.userService.GetUser(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"user": me})
}

func (uh *UserHandler) GetUser(c *gin.Context) {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	u, err := uh.userService.GetUser(c.Request.Context(), userID)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"user": u})
}

func (uh *UserHandler) ListUsers(c *gin.Context) {
	users, err := uh.userService.ListUsers(c.Request.Context())
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"users": users})
}

func (uh *UserHandler) UpdateProfile(c *gin.Context) {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	var req services.UpdateProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperr.Wrap(apperr.KindValidation, err))
		return
	}
	u, err := uh.userService.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"user": u})
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

func (uh *UserHandler) ChangeRole(c *gin.Context) {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}
	var req changeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperr.Wrap(apperr.KindValidation, err))
		return
	}
	u, err := uh.userService.ChangeRole(c.Request.Context(), userID, types.Role(req.Role))
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{"user": u})
}
