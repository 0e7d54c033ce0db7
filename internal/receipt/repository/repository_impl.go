package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/resellops/backoffice/internal/receipt/domain"
	"github.com/resellops/backoffice/pkg/db/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, receipt *domain.Receipt) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO receipts (id, account_id, status, goods_total, total_price, received_price, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		receipt.ID,
		receipt.AccountID,
		receipt.Status,
		receipt.GoodsTotal,
		receipt.TotalPrice,
		receipt.ReceivedPrice,
		receipt.CreatedAt,
		receipt.UpdatedAt,
	).Error
}

func (r *repo) InsertItem(ctx context.Context, db *gorm.DB, item *domain.ReceiptItem) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO receipt_items (id, receipt_id, account_id, status, goods_id, price, num, received, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.ReceiptID,
		item.AccountID,
		item.Status,
		item.GoodsID,
		item.Price,
		item.Num,
		item.Received,
		item.CreatedAt,
		item.UpdatedAt,
	).Error
}

const receiptColumns = `id, account_id, status, goods_total, total_price, received_price, created_at, updated_at, deleted_at`

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Receipt, error) {
	return r.findByID(ctx, db, id, false)
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Receipt, error) {
	return r.findByID(ctx, db, id, true)
}

func (r *repo) findByID(ctx context.Context, db *gorm.DB, id snowflake.ID, lock bool) (*domain.Receipt, error) {
	query := `SELECT ` + receiptColumns + ` FROM receipts WHERE id = ? AND deleted_at IS NULL`
	if lock && db.Dialector.Name() != "sqlite" {
		query += " FOR UPDATE"
	}

	var receipt domain.Receipt
	if err := db.WithContext(ctx).Raw(query, id).Scan(&receipt).Error; err != nil {
		return nil, err
	}
	if receipt.ID == 0 {
		return nil, nil
	}
	return &receipt, nil
}

func (r *repo) ListByAccount(ctx context.Context, db *gorm.DB, accountID snowflake.ID, page pagination.Pagination) ([]*domain.Receipt, int64, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Receipt{}).
		Where("deleted_at IS NULL")
	if accountID != 0 {
		stmt = stmt.Where("account_id = ?", accountID)
	}

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var receipts []*domain.Receipt
	if err := page.Apply(stmt).
		Order("created_at desc, id desc").
		Find(&receipts).Error; err != nil {
		return nil, 0, err
	}
	return receipts, total, nil
}

func (r *repo) ListItems(ctx context.Context, db *gorm.DB, receiptID snowflake.ID) ([]*domain.ReceiptItem, error) {
	type row struct {
		domain.ReceiptItem
		GoodsRowID      snowflake.ID `gorm:"column:goods_row_id"`
		GoodsTitle      string       `gorm:"column:goods_title"`
		GoodsExternalID string       `gorm:"column:goods_external_id"`
		ProductID       string       `gorm:"column:product_id"`
		SkcID           string       `gorm:"column:skc_id"`
		SkuID           string       `gorm:"column:sku_id"`
		GoodsImage      string       `gorm:"column:goods_image"`
		GoodsCat        string       `gorm:"column:goods_cat"`
		SkuImage        string       `gorm:"column:sku_image"`
		GoodsPrice      string       `gorm:"column:goods_price"`
	}

	var rows []row
	err := db.WithContext(ctx).Raw(
		`SELECT ri.id, ri.receipt_id, ri.account_id, ri.status, ri.goods_id, ri.price, ri.num, ri.received,
		        ri.created_at, ri.updated_at, ri.deleted_at,
		        g.id AS goods_row_id, g.title AS goods_title, g.external_id AS goods_external_id, g.product_id,
		        g.skc_id, g.sku_id, g.image AS goods_image, g.category AS goods_cat, g.sku_image, g.price AS goods_price
		 FROM receipt_items ri
		 LEFT JOIN goods g ON g.id = ri.goods_id
		 WHERE ri.receipt_id = ? AND ri.deleted_at IS NULL
		 ORDER BY ri.created_at ASC, ri.id ASC`,
		receiptID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]*domain.ReceiptItem, 0, len(rows))
	for i := range rows {
		item := rows[i].ReceiptItem
		if rows[i].GoodsRowID != 0 {
			item.Goods = &domain.ReceiptGoods{
				ID:         rows[i].GoodsRowID,
				GoodsTitle: rows[i].GoodsTitle,
				GoodsID:    rows[i].GoodsExternalID,
				ProductID:  rows[i].ProductID,
				SkcID:      rows[i].SkcID,
				SkuID:      rows[i].SkuID,
				GoodsImage: rows[i].GoodsImage,
				GoodsCat:   rows[i].GoodsCat,
				SkuImage:   rows[i].SkuImage,
				Price:      rows[i].GoodsPrice,
			}
		}
		items = append(items, &item)
	}
	return items, nil
}

func (r *repo) SetReceivedPrice(ctx context.Context, db *gorm.DB, id snowflake.ID, value decimal.Decimal, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE receipts SET received_price = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		value,
		now,
		id,
	).Error
}

// ApprovedPaidAmounts returns the raw paid amounts so the caller can sum them
// with exact decimal arithmetic; SQL SUM would go through the engine's float
// coercion on some backends.
func (r *repo) ApprovedPaidAmounts(ctx context.Context, db *gorm.DB, receiptID snowflake.ID) ([]decimal.Decimal, error) {
	var raw []string
	err := db.WithContext(ctx).Raw(
		`SELECT paid_amount FROM payments
		 WHERE receipt_id = ? AND status = 'approved' AND paid_amount IS NOT NULL AND deleted_at IS NULL`,
		receiptID,
	).Scan(&raw).Error
	if err != nil {
		return nil, err
	}

	amounts := make([]decimal.Decimal, 0, len(raw))
	for _, value := range raw {
		amount, err := decimal.NewFromString(value)
		if err != nil {
			return nil, err
		}
		amounts = append(amounts, amount)
	}
	return amounts, nil
}

func (r *repo) CountPaymentsByStatus(ctx context.Context, db *gorm.DB, receiptID snowflake.ID, status string) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM payments WHERE receipt_id = ? AND status = ? AND deleted_at IS NULL`,
		receiptID,
		status,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Tombstone soft-deletes the receipt, its lines and its payment records.
// The audit log is untouched.
func (r *repo) Tombstone(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) error {
	if err := db.WithContext(ctx).Exec(
		`UPDATE receipts SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		now, now, id,
	).Error; err != nil {
		return err
	}
	if err := db.WithContext(ctx).Exec(
		`UPDATE receipt_items SET deleted_at = ?, updated_at = ? WHERE receipt_id = ? AND deleted_at IS NULL`,
		now, now, id,
	).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(
		`UPDATE payments SET deleted_at = ?, updated_at = ? WHERE receipt_id = ? AND deleted_at IS NULL`,
		now, now, id,
	).Error
}
