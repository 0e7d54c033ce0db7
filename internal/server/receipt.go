package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	receiptdomain "github.com/resellops/backoffice/internal/receipt/domain"
)

func (s *Server) ListReceipts(c *gin.Context) {
	var query receiptdomain.ListReceiptRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.receiptSvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetReceipt(c *gin.Context) {
	resp, err := s.receiptSvc.Detail(c.Request.Context(), receiptdomain.DetailReceiptRequest{ID: c.Param("id")})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// RecomputeReceipt rebuilds received_price from the approved payments
// on record, for operators reconciling drift.
func (s *Server) RecomputeReceipt(c *gin.Context) {
	resp, err := s.receiptSvc.RecomputeTotals(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteReceipt(c *gin.Context) {
	if err := s.receiptSvc.Tombstone(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"status": "ok"}})
}

// Supplier-facing views. The service scopes every read to the
// supplier's own account.

func (s *Server) SupplierReceipts(c *gin.Context) {
	var query receiptdomain.ListReceiptRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.receiptSvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SupplierReceiptDetail(c *gin.Context) {
	resp, err := s.receiptSvc.Detail(c.Request.Context(), receiptdomain.DetailReceiptRequest{ID: c.Query("id")})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
