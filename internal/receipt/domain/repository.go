package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/resellops/backoffice/pkg/db/pagination"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, receipt *Receipt) error
	InsertItem(ctx context.Context, db *gorm.DB, item *ReceiptItem) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Receipt, error)
	FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Receipt, error)
	ListByAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID, page pagination.Pagination) ([]*Receipt, int64, error)
	ListItems(ctx context.Context, db *gorm.DB, receiptID snowflake.ID) ([]*ReceiptItem, error)
	SetReceivedPrice(ctx context.Context, db *gorm.DB, id snowflake.ID, value decimal.Decimal, now time.Time) error
	ApprovedPaidAmounts(ctx context.Context, db *gorm.DB, receiptID snowflake.ID) ([]decimal.Decimal, error)
	CountPaymentsByStatus(ctx context.Context, db *gorm.DB, receiptID snowflake.ID, status string) (int64, error)
	Tombstone(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) error
}
