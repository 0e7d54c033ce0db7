package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/resellops/backoffice/internal/goods/domain"
	"github.com/resellops/backoffice/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, goods *domain.Goods) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO goods (id, external_id, product_id, skc_id, sku_id, title, category, image, sku_image, price, sku_spec_list, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		goods.ID,
		goods.ExternalID,
		goods.ProductID,
		goods.SkcID,
		goods.SkuID,
		goods.Title,
		goods.Category,
		goods.Image,
		goods.SkuImage,
		goods.Price,
		goods.SKUSpecList,
		goods.CreatedAt,
		goods.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, goods *domain.Goods) error {
	return db.WithContext(ctx).Exec(
		`UPDATE goods
		 SET product_id = ?, skc_id = ?, title = ?, category = ?, image = ?, sku_image = ?, price = ?, sku_spec_list = ?, updated_at = ?
		 WHERE id = ? AND deleted_at IS NULL`,
		goods.ProductID,
		goods.SkcID,
		goods.Title,
		goods.Category,
		goods.Image,
		goods.SkuImage,
		goods.Price,
		goods.SKUSpecList,
		goods.UpdatedAt,
		goods.ID,
	).Error
}

const goodsColumns = `id, external_id, product_id, skc_id, sku_id, title, category, image, sku_image, price, sku_spec_list, created_at, updated_at, deleted_at`

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Goods, error) {
	var goods domain.Goods
	if err := db.WithContext(ctx).Raw(
		`SELECT `+goodsColumns+` FROM goods WHERE id = ? AND deleted_at IS NULL`,
		id,
	).Scan(&goods).Error; err != nil {
		return nil, err
	}
	if goods.ID == 0 {
		return nil, nil
	}
	return &goods, nil
}

func (r *repo) FindByExternalSKU(ctx context.Context, db *gorm.DB, externalID, skuID string) (*domain.Goods, error) {
	var goods domain.Goods
	if err := db.WithContext(ctx).Raw(
		`SELECT `+goodsColumns+` FROM goods WHERE external_id = ? AND sku_id = ? AND deleted_at IS NULL`,
		externalID,
		skuID,
	).Scan(&goods).Error; err != nil {
		return nil, err
	}
	if goods.ID == 0 {
		return nil, nil
	}
	return &goods, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, keyword, category string, page pagination.Pagination) ([]*domain.Goods, int64, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Goods{}).
		Where("deleted_at IS NULL")
	if keyword != "" {
		like := "%" + keyword + "%"
		stmt = stmt.Where("title LIKE ? OR external_id LIKE ? OR sku_id LIKE ?", like, like, like)
	}
	if category != "" {
		stmt = stmt.Where("category = ?", category)
	}

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var goods []*domain.Goods
	if err := page.Apply(stmt).
		Order("created_at desc, id desc").
		Find(&goods).Error; err != nil {
		return nil, 0, err
	}
	return goods, total, nil
}
