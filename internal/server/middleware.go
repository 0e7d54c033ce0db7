package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/resellops/backoffice/internal/actorctx"
	authdomain "github.com/resellops/backoffice/internal/auth/domain"
	"github.com/resellops/backoffice/internal/authorization"
	"github.com/resellops/backoffice/internal/ratelimit"
)

// AuthRequired resolves the bearer token to a live session and puts
// the actor on the request context.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			AbortWithError(c, authdomain.ErrUnauthorized)
			return
		}

		session, err := s.authSvc.Resolve(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(tokenContextKey, token)
		ctx := actorctx.WithActor(c.Request.Context(), session.Actor())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireRole rejects requests whose actor holds none of the roles.
func (s *Server) RequireRole(roles ...authorization.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorctx.FromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, authdomain.ErrUnauthorized)
			return
		}
		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}
		AbortWithError(c, authorization.ErrForbidden)
	}
}

// ThrottleLogin budgets credential attempts per client address. With no
// limiter configured it is a no-op.
func (s *Server) ThrottleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, retryAfter := s.limiter.Allow(c.Request.Context(), c.ClientIP())
		if !allowed {
			if retryAfter > 0 {
				seconds := int(retryAfter/time.Second) + 1
				c.Header("Retry-After", strconv.Itoa(seconds))
			}
			AbortWithError(c, ratelimit.ErrRateLimited)
			return
		}
		c.Next()
	}
}

const tokenContextKey = "session_token"

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	// The supplier console sends the token bare.
	if token := strings.TrimSpace(c.GetHeader("X-Token")); token != "" {
		return token
	}
	return ""
}

func requestToken(c *gin.Context) string {
	if token, ok := c.Get(tokenContextKey); ok {
		if s, ok := token.(string); ok {
			return s
		}
	}
	return bearerToken(c)
}
