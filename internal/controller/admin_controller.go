package controller

import (
	"bytes"
	"ctf_game_backend/internal/service"
	"ctf_game_backend/internal/util"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type AdminController struct {
	AdminService *service.AdminService
}

func NewAdminController(adminService *service.AdminService) *AdminController {
	return &AdminController{AdminService: adminService}
}

func userIDParam(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil || id == 0 {
		util.BadRequest(ctx, "invalid user id")
		return 0, false
	}
	return uint(id), true
}

func (c *AdminController) fail(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrUserNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrAdminProtected):
		util.Error(ctx, http.StatusForbidden, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// ListUsers godoc
// @Summary All users with their progress
// @Tags admin
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.AdminUser} "Success"
// @Failure 403 {object} util.Response "Forbidden"
// @Router /admin/users [get]
func (c *AdminController) ListUsers(ctx *gin.Context) {
	users, err := c.AdminService.ListUsers(ctx.Request.Context())
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, users)
}

// swagger:model UpdateUserRequest
type UpdateUserRequest struct {
	IsBlocked *bool `json:"isBlocked"`
	IsPaid    *bool `json:"isPaid"`
}

// UpdateUser godoc
// @Summary Block, unblock or change the subscription of a user
// @Tags admin
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "User id"
// @Param   body body UpdateUserRequest true "Flags to change"
// @Success 200 {object} util.Response{data=model.User} "Success"
// @Failure 403 {object} util.Response "Admin accounts cannot be modified"
// @Failure 404 {object} util.Response "Unknown user"
// @Router /admin/users/{id} [patch]
func (c *AdminController) UpdateUser(ctx *gin.Context) {
	id, ok := userIDParam(ctx)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if req.IsBlocked == nil && req.IsPaid == nil {
		util.BadRequest(ctx, "nothing to update")
		return
	}

	var result interface{}
	if req.IsBlocked != nil {
		user, err := c.AdminService.SetBlocked(id, *req.IsBlocked)
		if err != nil {
			c.fail(ctx, err)
			return
		}
		result = user
	}
	if req.IsPaid != nil {
		user, err := c.AdminService.SetPaid(id, *req.IsPaid)
		if err != nil {
			c.fail(ctx, err)
			return
		}
		result = user
	}

	util.Success(ctx, result)
}

// DeleteUser godoc
// @Summary Delete a user and their progress
// @Tags admin
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path int true "User id"
// @Success 200 {object} util.Response "Deleted"
// @Failure 403 {object} util.Response "Admin accounts cannot be deleted"
// @Failure 404 {object} util.Response "Unknown user"
// @Router /admin/users/{id} [delete]
func (c *AdminController) DeleteUser(ctx *gin.Context) {
	id, ok := userIDParam(ctx)
	if !ok {
		return
	}

	if err := c.AdminService.DeleteUser(ctx.Request.Context(), id); err != nil {
		c.fail(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"id": id})
}

// Analytics godoc
// @Summary Signup and subscription figures
// @Tags admin
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.Analytics} "Success"
// @Router /admin/analytics [get]
func (c *AdminController) Analytics(ctx *gin.Context) {
	analytics, err := c.AdminService.Analytics()
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, analytics)
}

// ExportUsers godoc
// @Summary Download the user list as XLSX
// @Tags admin
// @Produce  application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security ApiKeyAuth
// @Success 200 {file} binary
// @Router /admin/users/export [get]
func (c *AdminController) ExportUsers(ctx *gin.Context) {
	var buf bytes.Buffer
	if err := c.AdminService.ExportUsers(ctx.Request.Context(), &buf); err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	filename := service.ExportFilename(time.Now())
	ctx.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	ctx.Data(http.StatusOK, service.XLSXContentType, buf.Bytes())
}
