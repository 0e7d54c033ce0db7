package server

import (
	"crypto/rand"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	paymentdomain "github.com/resellops/backoffice/internal/payment/domain"
)

func (s *Server) ListPayments(c *gin.Context) {
	var query paymentdomain.ListPaymentRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.paymentSvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPayment(c *gin.Context) {
	resp, err := s.paymentSvc.Detail(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type submitPaymentRequest struct {
	ReceiptID string `json:"receipt_id"`
	Amount    string `json:"amount"`
	ImageURL  string `json:"image_url"`
	Remark    string `json:"remark"`
}

func (s *Server) SubmitPayment(c *gin.Context) {
	var req submitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.paymentSvc.Submit(c.Request.Context(), paymentdomain.SubmitPaymentRequest{
		ReceiptID: req.ReceiptID,
		Amount:    req.Amount,
		ImageURL:  req.ImageURL,
		Remark:    req.Remark,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type approvePaymentRequest struct {
	PaidAmount string `json:"paid_amount"`
}

func (s *Server) ApprovePayment(c *gin.Context) {
	var req approvePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.paymentSvc.Approve(c.Request.Context(), paymentdomain.ApprovePaymentRequest{
		ID:         c.Param("id"),
		PaidAmount: req.PaidAmount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type rejectPaymentRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) RejectPayment(c *gin.Context) {
	var req rejectPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.paymentSvc.Reject(c.Request.Context(), paymentdomain.RejectPaymentRequest{
		ID:     c.Param("id"),
		Reason: req.Reason,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) PaymentLogs(c *gin.Context) {
	resp, err := s.paymentSvc.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ReceiptPaymentLogs(c *gin.Context) {
	resp, err := s.paymentSvc.ReceiptHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SupplierPayments(c *gin.Context) {
	var query paymentdomain.ListPaymentRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.paymentSvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// UploadTicket stores a payment proof image and returns the URL the
// supplier then submits on the claim.
// UploadTicket stores the payment proof and submits the pending
// payment in one request, so a supplier never holds an orphaned
// upload URL.
func (s *Server) UploadTicket(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	receiptID := strings.TrimSpace(c.PostForm("receipt_id"))
	amount := strings.TrimSpace(c.PostForm("amount"))
	if receiptID == "" {
		AbortWithError(c, newValidationError("receipt_id", "required", "receipt_id is required"))
		return
	}
	if amount == "" {
		AbortWithError(c, newValidationError("amount", "required", "amount is required"))
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp", ".pdf":
	default:
		AbortWithError(c, newValidationError("file", "unsupported_type", "unsupported file type"))
		return
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		AbortWithError(c, err)
		return
	}

	name := ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader).String() + ext
	dst := filepath.Join(s.cfg.UploadDir, name)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.paymentSvc.Submit(c.Request.Context(), paymentdomain.SubmitPaymentRequest{
		ReceiptID: receiptID,
		Amount:    amount,
		ImageURL:  "/uploads/" + name,
		Remark:    c.PostForm("remark"),
	})
	if err != nil {
		_ = os.Remove(dst)
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
