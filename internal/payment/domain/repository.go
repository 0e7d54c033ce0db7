package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/resellops/backoffice/pkg/db/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ListFilter struct {
	ReceiptID snowflake.ID
	AccountID snowflake.ID
	Status    Status
	Page      pagination.Pagination
}

type StatusUpdate struct {
	ID             snowflake.ID
	Status         Status
	PaidAmount     decimal.Decimal
	RejectedReason string
	UpdatedAt      time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payment, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Payment, int64, error)

	// UpdateStatus applies a review decision guarded on the row still
	// being pending; it returns ErrAlreadyReviewed when the guard
	// matches no row.
	UpdateStatus(ctx context.Context, db *gorm.DB, update StatusUpdate) error

	InsertAuditLog(ctx context.Context, db *gorm.DB, log *AuditLog) error
	ListAuditLogsByPayment(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) ([]*AuditLog, error)
	ListAuditLogsByReceipt(ctx context.Context, db *gorm.DB, receiptID snowflake.ID) ([]*AuditLog, error)
}
