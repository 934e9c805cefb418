package controller

import (
	"ctf_game_backend/internal/service"
	"ctf_game_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LeaderboardController struct {
	Leaderboard *service.LeaderboardService
}

func NewLeaderboardController(leaderboard *service.LeaderboardService) *LeaderboardController {
	return &LeaderboardController{Leaderboard: leaderboard}
}

// GetLeaderboard godoc
// @Summary Leaderboard with the caller's standing
// @Tags leaderboard
// @Produce  json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=object} "Success"
// @Router /leaderboard [get]
func (c *LeaderboardController) GetLeaderboard(ctx *gin.Context) {
	owner, ok := ownerOf(ctx)
	if !ok {
		return
	}

	standing := c.Leaderboard.Standing(ctx.Request.Context(), owner)
	util.Success(ctx, gin.H{
		"entries":        c.Leaderboard.Entries(),
		"you":            standing,
		"formattedScore": util.FormatScore(standing.Score),
	})
}
