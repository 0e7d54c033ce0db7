package domain

import (
	"context"

	"github.com/resellops/backoffice/pkg/db/pagination"
)

type SubmitPaymentRequest struct {
	ReceiptID string `json:"receipt_id"`
	Amount    string `json:"amount"`
	ImageURL  string `json:"image_url"`
	Remark    string `json:"remark"`
}

type ApprovePaymentRequest struct {
	ID         string `json:"-"`
	PaidAmount string `json:"paid_amount"`
}

type RejectPaymentRequest struct {
	ID     string `json:"-"`
	Reason string `json:"reason"`
}

type ListPaymentRequest struct {
	pagination.Pagination
	ReceiptID string `form:"receipt_id"`
	AccountID string `form:"account_id"`
	Status    string `form:"status"`
}

type ListPaymentResponse struct {
	Total int64     `json:"total"`
	Data  []Payment `json:"data"`
}

type HistoryResponse struct {
	Total int64      `json:"total"`
	Data  []AuditLog `json:"data"`
}

type Service interface {
	Submit(ctx context.Context, req SubmitPaymentRequest) (Payment, error)
	Approve(ctx context.Context, req ApprovePaymentRequest) (Payment, error)
	Reject(ctx context.Context, req RejectPaymentRequest) (Payment, error)
	Detail(ctx context.Context, id string) (Payment, error)
	List(ctx context.Context, req ListPaymentRequest) (ListPaymentResponse, error)
	History(ctx context.Context, paymentID string) (HistoryResponse, error)
	ReceiptHistory(ctx context.Context, receiptID string) (HistoryResponse, error)
}
