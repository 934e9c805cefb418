package middleware

import (
	"ctf_game_backend/internal/config"
	"ctf_game_backend/internal/util"
	"ctf_game_backend/pkg/logger"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserStatusRepo reports whether an account may still use its session.
type UserStatusRepo interface {
	IsBlocked(userID uint) (bool, error)
}

// AuthMiddleware requires a valid session token in the Authorization header
// or the token query parameter. Blocked accounts are rejected even with a
// token that has not expired yet.
func AuthMiddleware(cfg *config.Config, users UserStatusRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, cfg.JWT.Secret)
		if err != nil {
			logger.Log.Debug("Rejected session token", zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		if users != nil {
			blocked, err := users.IsBlocked(claims.UserID)
			if err != nil {
				util.Unauthorized(c)
				c.Abort()
				return
			}
			if blocked {
				util.Error(c, 403, util.ErrAccountBlocked.Error())
				c.Abort()
				return
			}
		}

		c.Set(util.ContextUserKey, claims)
		c.Set("traceUser", claims.Username)
		c.Next()
	}
}

// AdminOnly must run after AuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}
		if !user.IsAdmin {
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}

// PaidStatusRepo reports the live subscription flag, so upgrades apply
// without a new session.
type PaidStatusRepo interface {
	IsPaid(userID uint) (bool, error)
}

// PremiumChallenge answers 402 when the challenge named by the :id param is
// premium and the caller has not paid. Admins always pass.
func PremiumChallenge(catalog *config.Catalog, users PaidStatusRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		challenge, ok := catalog.Get(c.Param("id"))
		if !ok || !challenge.IsPremium {
			c.Next()
			return
		}

		user := util.GetUserFromContext(c)
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}
		if user.IsAdmin || user.IsPaid {
			c.Next()
			return
		}

		if users != nil {
			paid, err := users.IsPaid(user.UserID)
			if err == nil && paid {
				c.Next()
				return
			}
		}

		util.PaymentRequired(c)
		c.Abort()
	}
}
