package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/resellops/backoffice/internal/actorctx"
	authdomain "github.com/resellops/backoffice/internal/auth/domain"
	"github.com/resellops/backoffice/internal/menu"
)

// SimpleMenus returns the navigation tree visible to the actor's role.
func (s *Server) SimpleMenus(c *gin.Context) {
	actor, ok := actorctx.FromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, authdomain.ErrUnauthorized)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": menu.Visible(actor.Role)})
}
