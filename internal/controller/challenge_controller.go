package controller

import (
	"ctf_game_backend/internal/config"
	"ctf_game_backend/internal/service"
	"ctf_game_backend/internal/util"
	"errors"

	"github.com/gin-gonic/gin"
)

// ChallengeController exposes the interactive challenge actions under
// /challenges/:id/... Each action belongs to exactly one challenge.
type ChallengeController struct {
	Challenges *service.ChallengeService
}

func NewChallengeController(challenges *service.ChallengeService) *ChallengeController {
	return &ChallengeController{Challenges: challenges}
}

// expect answers 404 unless the route's :id is the challenge the action belongs to.
func expect(ctx *gin.Context, challengeID string) bool {
	if ctx.Param("id") != challengeID {
		util.NotFound(ctx)
		return false
	}
	return true
}

func (c *ChallengeController) fail(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrChallengeNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrEmptyFeedback), errors.Is(err, util.ErrMissingCredentials):
		util.BadRequest(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// swagger:model FeedbackRequest
type FeedbackRequest struct {
	Feedback string `json:"feedback"`
	Rating   int    `json:"rating" binding:"min=0,max=5"`
}

// SubmitFeedback godoc
// @Summary Submit the feedback form
// @Tags challenges
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "dom-xss-feedback"
// @Param   body body FeedbackRequest true "Feedback"
// @Success 200 {object} util.Response{data=model.FeedbackResult} "Success"
// @Failure 400 {object} util.Response "Empty feedback"
// @Router /challenges/{id}/feedback [post]
func (c *ChallengeController) SubmitFeedback(ctx *gin.Context) {
	if !expect(ctx, config.ChallengeDOMXSS) {
		return
	}
	owner, ok := ownerOf(ctx)
	if !ok {
		return
	}

	var req FeedbackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.Challenges.SubmitFeedback(ctx.Request.Context(), owner, req.Feedback, req.Rating)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// swagger:model AdminAccessRequest
type AdminAccessRequest struct {
	IsAdmin bool `json:"isAdmin"`
}

// AttemptAdminAccess godoc
// @Summary Open the mock admin panel
// @Description isAdmin mirrors the flag the client keeps in its own storage. The user is the signed-in account.
// @Tags challenges
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "auth-bypass-admin"
// @Param   body body AdminAccessRequest true "Client session"
// @Success 200 {object} util.Response{data=model.ChallengeResult} "Success"
// @Router /challenges/{id}/admin-access [post]
func (c *ChallengeController) AttemptAdminAccess(ctx *gin.Context) {
	if !expect(ctx, config.ChallengeAuthBypass) {
		return
	}
	owner, username, ok := sessionOf(ctx)
	if !ok {
		return
	}

	var req AdminAccessRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.Challenges.AttemptAdminAccess(ctx.Request.Context(), owner, username, req.IsAdmin)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// swagger:model IssueTokenRequest
type IssueTokenRequest struct {
	Username string `json:"username"`
}

// IssueToken godoc
// @Summary Sign in to the mock app and get a mock token
// @Tags challenges
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "jwt-manipulation"
// @Param   body body IssueTokenRequest false "Username, guest when empty"
// @Success 200 {object} util.Response{data=model.TokenResult} "Success"
// @Router /challenges/{id}/token [post]
func (c *ChallengeController) IssueToken(ctx *gin.Context) {
	if !expect(ctx, config.ChallengeJWT) {
		return
	}
	owner, ok := ownerOf(ctx)
	if !ok {
		return
	}

	var req IssueTokenRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}

	res, err := c.Challenges.IssueToken(ctx.Request.Context(), owner, req.Username)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// swagger:model EditTokenRequest
type EditTokenRequest struct {
	EditedToken string `json:"editedToken" binding:"required"`
}

// EditToken godoc
// @Summary Present an edited mock token
// @Description Compared against the token last issued to the signed-in user.
// @Tags challenges
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "jwt-manipulation"
// @Param   body body EditTokenRequest true "Tokens"
// @Success 200 {object} util.Response{data=model.TokenResult} "Success"
// @Router /challenges/{id}/token/edit [post]
func (c *ChallengeController) EditToken(ctx *gin.Context) {
	if !expect(ctx, config.ChallengeJWT) {
		return
	}
	owner, username, ok := sessionOf(ctx)
	if !ok {
		return
	}

	var req EditTokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.Challenges.EditToken(ctx.Request.Context(), owner, username, req.EditedToken)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// swagger:model RedirectLoginRequest
type RedirectLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Redirect string `json:"redirect"`
}

// Login godoc
// @Summary Mock login with a redirect target
// @Tags challenges
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "open-redirect-login"
// @Param   body body RedirectLoginRequest true "Credentials and redirect"
// @Success 200 {object} util.Response{data=model.RedirectResult} "Success"
// @Failure 400 {object} util.Response "Missing credentials"
// @Router /challenges/{id}/login [post]
func (c *ChallengeController) Login(ctx *gin.Context) {
	if !expect(ctx, config.ChallengeOpenRedirect) {
		return
	}
	owner, ok := ownerOf(ctx)
	if !ok {
		return
	}

	var req RedirectLoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if req.Redirect == "" {
		req.Redirect = ctx.Query("redirect")
	}

	res, err := c.Challenges.Login(ctx.Request.Context(), owner, req.Username, req.Password, req.Redirect, ctx.Request.Host)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// swagger:model FrameMessageRequest
type FrameMessageRequest struct {
	Origin         string `json:"origin" binding:"required"`
	ExpectedOrigin string `json:"expectedOrigin"`
	Type           string `json:"type" binding:"required"`
}

// ReceiveMessage godoc
// @Summary Relay a postMessage from the sandboxed frame
// @Tags challenges
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "iframe-sandbox-bypass"
// @Param   body body FrameMessageRequest true "Message envelope"
// @Success 200 {object} util.Response{data=model.ChallengeResult} "Success"
// @Router /challenges/{id}/message [post]
func (c *ChallengeController) ReceiveMessage(ctx *gin.Context) {
	if !expect(ctx, config.ChallengeIframe) {
		return
	}
	owner, ok := ownerOf(ctx)
	if !ok {
		return
	}

	var req FrameMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if req.ExpectedOrigin == "" {
		req.ExpectedOrigin = ctx.GetHeader("Origin")
	}

	res, err := c.Challenges.ReceiveMessage(ctx.Request.Context(), owner, req.Origin, req.ExpectedOrigin, req.Type)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// UseHint godoc
// @Summary Reveal the next hint
// @Description Each hint lowers the points a completion is worth.
// @Tags challenges
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Challenge id"
// @Success 200 {object} util.Response{data=model.HintResult} "Success"
// @Failure 404 {object} util.Response "Unknown challenge"
// @Router /challenges/{id}/hint [post]
func (c *ChallengeController) UseHint(ctx *gin.Context) {
	owner, ok := ownerOf(ctx)
	if !ok {
		return
	}

	res, err := c.Challenges.UseHint(ctx.Request.Context(), owner, ctx.Param("id"))
	if err != nil {
		c.fail(ctx, err)
		return
	}
	util.Success(ctx, res)
}

// swagger:model CompleteRequest
type CompleteRequest struct {
	HintsUsed *int `json:"hintsUsed" binding:"omitempty,min=0"`
}

// Complete godoc
// @Summary Mark a challenge complete
// @Description Awards points once. hintsUsed defaults to the hints revealed so far.
// @Tags challenges
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   id path string true "Challenge id"
// @Param   body body CompleteRequest false "Hints used"
// @Success 200 {object} util.Response{data=model.ChallengeResult} "Success"
// @Failure 404 {object} util.Response "Unknown challenge"
// @Router /challenges/{id}/complete [post]
func (c *ChallengeController) Complete(ctx *gin.Context) {
	owner, ok := ownerOf(ctx)
	if !ok {
		return
	}

	var req CompleteRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			util.BadRequest(ctx, err.Error())
			return
		}
	}

	res, err := c.Challenges.Complete(ctx.Request.Context(), owner, ctx.Param("id"), req.HintsUsed)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	util.Success(ctx, res)
}
