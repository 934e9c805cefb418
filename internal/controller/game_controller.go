package controller

import (
	"ctf_game_backend/internal/config"
	"ctf_game_backend/internal/model"
	"ctf_game_backend/internal/service"
	"ctf_game_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type GameController struct {
	Games   *service.GameService
	Catalog *config.Catalog
}

func NewGameController(games *service.GameService, catalog *config.Catalog) *GameController {
	return &GameController{Games: games, Catalog: catalog}
}

// storeFor resolves the signed-in user's progress store. It answers 401 and
// returns nil when there is no session.
func storeFor(ctx *gin.Context, games *service.GameService) *service.GameStore {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return nil
	}
	return games.For(util.OwnerKey(claims.UserID))
}

func ownerOf(ctx *gin.Context) (string, bool) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return "", false
	}
	return util.OwnerKey(claims.UserID), true
}

// sessionOf is ownerOf plus the signed-in username.
func sessionOf(ctx *gin.Context) (owner, username string, ok bool) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return "", "", false
	}
	return util.OwnerKey(claims.UserID), claims.Username, true
}

// ListChallenges godoc
// @Summary Challenge catalog
// @Tags challenges
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.Challenge} "Success"
// @Router /challenges [get]
func (c *GameController) ListChallenges(ctx *gin.Context) {
	util.Success(ctx, gin.H{
		"challenges": c.Catalog.All(),
		"categories": config.Categories,
	})
}

// GetChallenge godoc
// @Summary One catalog entry
// @Tags challenges
// @Produce  json
// @Param   id path string true "Challenge id"
// @Success 200 {object} util.Response{data=model.Challenge} "Success"
// @Failure 404 {object} util.Response "Unknown challenge"
// @Router /challenges/{id} [get]
func (c *GameController) GetChallenge(ctx *gin.Context) {
	ch, ok := c.Catalog.Get(ctx.Param("id"))
	if !ok {
		util.NotFound(ctx)
		return
	}
	util.Success(ctx, gin.H{
		"challenge": ch,
		"category":  config.Categories[ch.Category],
	})
}

// GetState godoc
// @Summary Current game state
// @Tags game
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.GameState} "Success"
// @Router /game/state [get]
func (c *GameController) GetState(ctx *gin.Context) {
	gs := storeFor(ctx, c.Games)
	if gs == nil {
		return
	}
	util.Success(ctx, gs.GetGameState(ctx.Request.Context()))
}

// swagger:model UpdateStateRequest
type UpdateStateRequest struct {
	CurrentLevel *int `json:"currentLevel" binding:"required,min=0"`
}

// UpdateState godoc
// @Summary Save client side game fields
// @Description Only currentLevel can be set by clients; scoring fields belong to the server.
// @Tags game
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body UpdateStateRequest true "Fields to merge"
// @Success 200 {object} util.Response{data=model.GameState} "Success"
// @Router /game/state [patch]
func (c *GameController) UpdateState(ctx *gin.Context) {
	gs := storeFor(ctx, c.Games)
	if gs == nil {
		return
	}

	var req UpdateStateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	state, err := gs.SaveGameState(ctx.Request.Context(), model.GameStatePatch{CurrentLevel: req.CurrentLevel})
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, state)
}

// GetSettings godoc
// @Summary Player settings
// @Tags game
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.GameSettings} "Success"
// @Router /game/settings [get]
func (c *GameController) GetSettings(ctx *gin.Context) {
	gs := storeFor(ctx, c.Games)
	if gs == nil {
		return
	}
	util.Success(ctx, gs.GetSettings(ctx.Request.Context()))
}

// UpdateSettings godoc
// @Summary Merge player settings
// @Tags game
// @Accept  json
// @Produce  json
// @Security ApiKeyAuth
// @Param   body body model.GameSettingsPatch true "Settings to merge"
// @Success 200 {object} util.Response{data=model.GameSettings} "Success"
// @Failure 400 {object} util.Response "Invalid theme"
// @Router /game/settings [put]
func (c *GameController) UpdateSettings(ctx *gin.Context) {
	gs := storeFor(ctx, c.Games)
	if gs == nil {
		return
	}

	var patch model.GameSettingsPatch
	if err := ctx.ShouldBindJSON(&patch); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}
	if patch.Theme != nil && !patch.Theme.IsValid() {
		util.BadRequest(ctx, "theme must be light, dark or hacker")
		return
	}

	settings, err := gs.SaveSettings(ctx.Request.Context(), patch)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, settings)
}

// GetChallenges godoc
// @Summary Catalog annotated with the player's progress
// @Tags game
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.ChallengeWithState} "Success"
// @Router /game/challenges [get]
func (c *GameController) GetChallenges(ctx *gin.Context) {
	gs := storeFor(ctx, c.Games)
	if gs == nil {
		return
	}
	util.Success(ctx, gs.GetChallengesWithState(ctx.Request.Context()))
}

// GetProgress godoc
// @Summary Completion summary
// @Tags game
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object} "Success"
// @Router /game/progress [get]
func (c *GameController) GetProgress(ctx *gin.Context) {
	gs := storeFor(ctx, c.Games)
	if gs == nil {
		return
	}

	reqCtx := ctx.Request.Context()
	state := gs.GetGameState(reqCtx)
	progress := gs.GetProgress(reqCtx)
	elapsed := state.LastSaveTime - state.StartTime
	if elapsed < 0 {
		elapsed = 0
	}

	util.Success(ctx, gin.H{
		"progress":       progress,
		"score":          state.TotalScore,
		"formattedScore": util.FormatScore(state.TotalScore),
		"badge":          util.AchievementBadge(progress.Completed, progress.Total),
		"elapsed":        util.FormatTime(elapsed),
	})
}

// GetExploits godoc
// @Summary Recent exploit attempts, oldest first
// @Tags game
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]model.ExploitAttempt} "Success"
// @Router /game/exploits [get]
func (c *GameController) GetExploits(ctx *gin.Context) {
	gs := storeFor(ctx, c.Games)
	if gs == nil {
		return
	}
	util.Success(ctx, gs.GetExploitAttempts(ctx.Request.Context()))
}

// Reset godoc
// @Summary Start over
// @Description Clears progress and the attempt log. Settings are kept.
// @Tags game
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=model.GameState} "Success"
// @Router /game/reset [post]
func (c *GameController) Reset(ctx *gin.Context) {
	gs := storeFor(ctx, c.Games)
	if gs == nil {
		return
	}

	reqCtx := ctx.Request.Context()
	if err := gs.ResetGame(reqCtx); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gs.GetGameState(reqCtx))
}
