package app

import (
	"ctf_game_backend/docs"
	"ctf_game_backend/internal/config"
	"ctf_game_backend/internal/middleware"
	"ctf_game_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	a.registerPublicRoutes(router, c)

	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg, repos.user))
	{
		a.registerPlayerRoutes(authGroup, c, repos)
	}

	a.registerAdminRoutes(router, c, repos, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
		public.POST("/auth/register", c.auth.Register)
		public.POST("/auth/login", c.auth.Login)
		public.GET("/challenges", c.game.ListChallenges)
		public.GET("/challenges/:id", c.game.GetChallenge)
	}
}

func (a *App) registerPlayerRoutes(group *gin.RouterGroup, c *controllers, repos *repositories) {
	user := group.Group("/user")
	{
		user.GET("/profile", c.user.GetProfile)
		user.PUT("/profile", c.user.UpdateProfile)
		user.POST("/avatar", c.user.UploadAvatar)
	}

	game := group.Group("/game")
	{
		game.GET("/state", c.game.GetState)
		game.PATCH("/state", c.game.UpdateState)
		game.GET("/settings", c.game.GetSettings)
		game.PUT("/settings", c.game.UpdateSettings)
		game.GET("/challenges", c.game.GetChallenges)
		game.GET("/progress", c.game.GetProgress)
		game.GET("/exploits", c.game.GetExploits)
		game.POST("/reset", c.game.Reset)
	}

	group.GET("/leaderboard", c.leaderboard.GetLeaderboard)

	challenges := group.Group("/challenges/:id")
	challenges.Use(middleware.PremiumChallenge(a.Catalog, repos.user))
	{
		challenges.POST("/hint", c.challenge.UseHint)
		challenges.POST("/complete", c.challenge.Complete)
		challenges.POST("/feedback", c.challenge.SubmitFeedback)
		challenges.POST("/admin-access", c.challenge.AttemptAdminAccess)
		challenges.POST("/token", c.challenge.IssueToken)
		challenges.POST("/token/edit", c.challenge.EditToken)
		challenges.POST("/login", c.challenge.Login)
		challenges.POST("/message", c.challenge.ReceiveMessage)
	}
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, repos *repositories, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg, repos.user), middleware.AdminOnly())
	{
		admin.GET("/users", c.admin.ListUsers)
		admin.GET("/users/export", c.admin.ExportUsers)
		admin.PATCH("/users/:id", c.admin.UpdateUser)
		admin.DELETE("/users/:id", c.admin.DeleteUser)
		admin.GET("/analytics", c.admin.Analytics)
	}
}
