package controller

import (
	"ctf_game_backend/internal/service"
	"ctf_game_backend/internal/util"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	AuthService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{AuthService: authService}
}

// RegisterRequest defines model for registration
// swagger:model RegisterRequest
type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email" binding:"required,email"`
	Username        string `json:"username" binding:"required,max=50"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
	IsAdmin         *bool  `json:"isAdmin,omitempty"`
}

// Register godoc
// @Summary Register a new account
// @Description Creates an unpaid player account
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   body body RegisterRequest true "Registration form"
// @Success 201 {object} util.Response{data=object} "Created"
// @Failure 400 {object} util.Response "Invalid form"
// @Failure 403 {object} util.Response "Reserved email"
// @Failure 500 {object} util.Response "Internal error"
// @Router /auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.AuthService.Register(service.RegisterInput{
		Name:            req.Name,
		Email:           req.Email,
		Username:        req.Username,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		IsAdmin:         req.IsAdmin,
	})
	if err != nil {
		switch {
		case errors.Is(err, util.ErrEmailReserved):
			util.Error(ctx, http.StatusForbidden, err.Error())
		case errors.Is(err, util.ErrInvalidRequest),
			errors.Is(err, util.ErrPasswordMismatch),
			errors.Is(err, util.ErrPasswordTooShort),
			errors.Is(err, util.ErrEmailRegistered),
			errors.Is(err, util.ErrUsernameTaken):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Created(ctx, gin.H{
		"id":       user.ID,
		"email":    user.Email,
		"username": user.Username,
		"name":     user.Name,
	})
}

// swagger:model LoginRequest
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login godoc
// @Summary Sign in
// @Description Checks credentials and returns a session token
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   body body LoginRequest true "Credentials"
// @Success 200 {object} util.Response{data=object} "Success"
// @Failure 400 {object} util.Response "Invalid request"
// @Failure 401 {object} util.Response "Invalid credentials"
// @Failure 403 {object} util.Response "Account blocked"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	token, user, err := c.AuthService.Login(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidCredentials):
			util.Error(ctx, http.StatusUnauthorized, err.Error())
		case errors.Is(err, util.ErrAccountBlocked):
			util.Error(ctx, http.StatusForbidden, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, gin.H{
		"token": token,
		"user":  user,
	})
}
