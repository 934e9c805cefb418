package controller

import (
	"ctf_game_backend/internal/service"
	"ctf_game_backend/internal/util"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{UserService: userService}
}

// GetProfile godoc
// @Summary Current user profile
// @Tags user
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.User} "Success"
// @Failure 401 {object} util.Response "Unauthorized"
// @Router /user/profile [get]
func (c *UserController) GetProfile(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	user, err := c.UserService.GetUserByID(claims.UserID)
	if err != nil {
		if errors.Is(err, util.ErrUserNotFound) {
			util.NotFound(ctx)
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	util.Success(ctx, user)
}

// swagger:model UpdateProfileRequest
type UpdateProfileRequest struct {
	Name  string `json:"name" binding:"required,max=100"`
	Phone string `json:"phone" binding:"max=30"`
}

// UpdateProfile godoc
// @Summary Update name and phone
// @Tags user
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body UpdateProfileRequest true "Profile fields"
// @Success 200 {object} util.Response{data=model.User} "Success"
// @Failure 400 {object} util.Response "Invalid request"
// @Router /user/profile [put]
func (c *UserController) UpdateProfile(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.UserService.UpdateProfile(claims.UserID, req.Name, req.Phone)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrNameRequired):
			util.BadRequest(ctx, err.Error())
		case errors.Is(err, util.ErrUserNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, user)
}

// UploadAvatar godoc
// @Summary Upload a profile picture
// @Description jpg, png, gif or webp up to 2 MB
// @Tags user
// @Accept  multipart/form-data
// @Produce  json
// @Security ApiKeyAuth
// @Param   avatar formData file true "Image"
// @Success 200 {object} util.Response{data=model.User} "Success"
// @Failure 400 {object} util.Response "Invalid file"
// @Router /user/avatar [post]
func (c *UserController) UploadAvatar(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	header, err := ctx.FormFile("avatar")
	if err != nil {
		util.BadRequest(ctx, "avatar file is required")
		return
	}

	file, err := header.Open()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	defer file.Close()

	user, err := c.UserService.UploadAvatar(ctx.Request.Context(), claims.UserID, header.Filename, header.Size, file)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrInvalidFileType):
			util.BadRequest(ctx, "avatar must be a jpg, png, gif or webp image")
		case errors.Is(err, util.ErrFileTooLarge):
			util.Error(ctx, http.StatusRequestEntityTooLarge, "avatar must be 2 MB or smaller")
		case errors.Is(err, util.ErrUserNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}

	util.Success(ctx, user)
}
