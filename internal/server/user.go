package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/resellops/backoffice/internal/authorization"
	userdomain "github.com/resellops/backoffice/internal/user/domain"
)

func (s *Server) ListUsers(c *gin.Context) {
	var query userdomain.ListUserRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.userSvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetUser(c *gin.Context) {
	resp, err := s.userSvc.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateUser(c *gin.Context) {
	var req userdomain.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.userSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateUser(c *gin.Context) {
	var req userdomain.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = c.Param("id")

	resp, err := s.userSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type roleInfo struct {
	Role      authorization.Role `json:"role"`
	CanReview bool               `json:"can_review"`
}

func (s *Server) ListRoles(c *gin.Context) {
	roles := authorization.Roles()
	out := make([]roleInfo, 0, len(roles))
	for _, role := range roles {
		out = append(out, roleInfo{Role: role, CanReview: role.CanReview()})
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}
