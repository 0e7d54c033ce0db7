package domain

import (
	"context"
	"errors"

	"github.com/resellops/backoffice/pkg/db/pagination"
)

type ListReceiptRequest struct {
	pagination.Pagination
	AccountID string `form:"account_id"`
}

type ListReceiptResponse struct {
	Total int64     `json:"total"`
	Data  []Receipt `json:"data"`
}

type DetailReceiptRequest struct {
	ID string
}

type DetailReceiptResponse struct {
	Total int64         `json:"total"`
	Data  []ReceiptItem `json:"data"`
}

type Service interface {
	List(ctx context.Context, req ListReceiptRequest) (ListReceiptResponse, error)
	Detail(ctx context.Context, req DetailReceiptRequest) (DetailReceiptResponse, error)

	// RecomputeTotals re-derives received_price as the full sum of approved
	// paid amounts. It is the authoritative definition the incremental
	// approve path must agree with.
	RecomputeTotals(ctx context.Context, receiptID string) (Receipt, error)

	// Tombstone soft-deletes a receipt and its payment records. It refuses
	// to tombstone while pending payment records remain.
	Tombstone(ctx context.Context, receiptID string) error
}

var (
	ErrNotFound        = errors.New("not_found")
	ErrInvalidID       = errors.New("invalid_id")
	ErrPendingPayments = errors.New("pending_payments")
)
