package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/suresight/suresight-backend/internal/pkg/apperr"
	"github.com/suresight/suresight-backend/internal/services"

	types "github.com/suresight/suresight-backend/internal/domain"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type registerRequest struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	FirstName  string `json:"first_name"`
	MiddleName string `json:"middle_name"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
}

func (ah *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperr.Wrap(apperr.KindValidation, err))
		return
	}
	created, err := ah.authService.RegisterUser(c.Request.Context(), &types.User{
		Username:   req.Username,
		Email:      req.Email,
		Password:   req.Password,
		FirstName:  req.FirstName,
		MiddleName: req.MiddleName,
		LastName:   req.LastName,
		Phone:      req.Phone,
		Address:    req.Address,
	})
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondCreated(c, gin.H{"user": created})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, apperr.Wrap(apperr.KindValidation, err))
		return
	}
	token, u, err := ah.authService.LoginUser(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		RespondError(c, err)
		return
	}
	RespondOK(c, gin.H{
		"access_token": token,
		"expires_in":   int(ah.authService.GetAccessTTL().Seconds()),
		"user":         u,
	})
}
