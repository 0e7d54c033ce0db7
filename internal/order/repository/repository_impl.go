package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/resellops/backoffice/internal/order/domain"
	"github.com/resellops/backoffice/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO orders (id, order_sn, goods_id, sku_id, goods_title, price, num, status, purchase_time, properties, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID,
		order.OrderSN,
		order.GoodsID,
		order.SkuID,
		order.GoodsTitle,
		order.Price,
		order.Num,
		order.Status,
		order.PurchaseTime,
		order.Properties,
		order.CreatedAt,
		order.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Exec(
		`UPDATE orders
		 SET goods_title = ?, price = ?, num = ?, status = ?, purchase_time = ?, properties = ?, updated_at = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		order.GoodsTitle,
		order.Price,
		order.Num,
		order.Status,
		order.PurchaseTime,
		order.Properties,
		order.UpdatedAt,
		order.ID,
	).Error
}

const orderColumns = `id, order_sn, goods_id, sku_id, goods_title, price, num, status, purchase_time, properties, created_at, updated_at, deleted_at`

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var order domain.Order
	if err := db.WithContext(ctx).Raw(
		`SELECT `+orderColumns+` FROM orders WHERE id = ? AND deleted_at IS NULL`,
		id,
	).Scan(&order).Error; err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

func (r *repo) FindBySN(ctx context.Context, db *gorm.DB, orderSN, skuID string) (*domain.Order, error) {
	var order domain.Order
	if err := db.WithContext(ctx).Raw(
		`SELECT `+orderColumns+` FROM orders WHERE order_sn = ? AND sku_id = ? AND deleted_at IS NULL`,
		orderSN,
		skuID,
	).Scan(&order).Error; err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, keyword, status string, page pagination.Pagination) ([]*domain.Order, int64, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("deleted_at IS NULL")
	if keyword != "" {
		like := "%" + keyword + "%"
		stmt = stmt.Where("order_sn LIKE ? OR goods_title LIKE ? OR sku_id LIKE ?", like, like, like)
	}
	if status != "" {
		stmt = stmt.Where("status = ?", status)
	}

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []*domain.Order
	if err := page.Apply(stmt).
		Order("created_at desc, id desc").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}
