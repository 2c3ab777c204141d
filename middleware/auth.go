package middleware

import (
	"errors"
	"net/http"
	"strings"

	"quizadmin/models"
	"quizadmin/services"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// Auth resolves the bearer token to an account and attaches it, as the
// acting user, to both the gin context and the request context.
func Auth(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		user, err := authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, services.ErrAccountDisabled) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account is disabled"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		actor := user.Actor()
		c.Set(actorKey, actor)
		c.Set("user_id", actor.ID)
		c.Request = c.Request.WithContext(models.WithActor(c.Request.Context(), actor))
		c.Next()
	}
}

// RequirePermission rejects requests whose actor's role lacks p.
func RequirePermission(p models.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Actor(c).Can(p) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "permission denied"})
			return
		}
		c.Next()
	}
}

// Actor returns the acting user set by Auth, or nil.
func Actor(c *gin.Context) *models.Actor {
	v, ok := c.Get(actorKey)
	if !ok {
		return nil
	}
	actor, _ := v.(*models.Actor)
	return actor
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
