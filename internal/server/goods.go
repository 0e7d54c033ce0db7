package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	goodsdomain "github.com/resellops/backoffice/internal/goods/domain"
)

func (s *Server) ListGoods(c *gin.Context) {
	var query goodsdomain.ListGoodsRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.goodsSvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetGoods(c *gin.Context) {
	resp, err := s.goodsSvc.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpsertGoods(c *gin.Context) {
	var req goodsdomain.UpsertGoodsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.goodsSvc.Upsert(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
