package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/resellops/backoffice/pkg/db/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Goods is one marketplace SKU mirrored from the upstream storefront
// export. ExternalID carries the storefront's own goods identifier;
// SKUSpecList holds the raw spec array exactly as exported.
type Goods struct {
	ID          snowflake.ID    `json:"id" gorm:"primaryKey"`
	ExternalID  string          `json:"goods_id" gorm:"column:external_id"`
	ProductID   string          `json:"product_id"`
	SkcID       string          `json:"skc_id"`
	SkuID       string          `json:"sku_id"`
	Title       string          `json:"goods_title" gorm:"column:title"`
	Category    string          `json:"goods_cat" gorm:"column:category"`
	Image       string          `json:"goods_image" gorm:"column:image"`
	SkuImage    string          `json:"sku_image"`
	Price       decimal.Decimal `json:"price" gorm:"type:numeric(18,2)"`
	SKUSpecList datatypes.JSON  `json:"sku_spec_list" gorm:"column:sku_spec_list"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   *time.Time      `json:"-"`
}

func (Goods) TableName() string { return "goods" }

var (
	ErrNotFound          = errors.New("not_found")
	ErrInvalidID         = errors.New("invalid_id")
	ErrInvalidExternalID = errors.New("invalid_external_id")
	ErrInvalidPrice      = errors.New("invalid_price")
)

type UpsertGoodsRequest struct {
	ExternalID  string         `json:"goods_id"`
	ProductID   string         `json:"product_id"`
	SkcID       string         `json:"skc_id"`
	SkuID       string         `json:"sku_id"`
	Title       string         `json:"goods_title"`
	Category    string         `json:"goods_cat"`
	Image       string         `json:"goods_image"`
	SkuImage    string         `json:"sku_image"`
	Price       string         `json:"price"`
	SKUSpecList datatypes.JSON `json:"sku_spec_list"`
}

type ListGoodsRequest struct {
	pagination.Pagination
	Keyword  string `form:"keyword"`
	Category string `form:"category"`
}

type ListGoodsResponse struct {
	Total int64   `json:"total"`
	Data  []Goods `json:"data"`
}

type Service interface {
	Upsert(ctx context.Context, req UpsertGoodsRequest) (Goods, error)
	Detail(ctx context.Context, id string) (Goods, error)
	List(ctx context.Context, req ListGoodsRequest) (ListGoodsResponse, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, goods *Goods) error
	Update(ctx context.Context, db *gorm.DB, goods *Goods) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Goods, error)
	FindByExternalSKU(ctx context.Context, db *gorm.DB, externalID, skuID string) (*Goods, error)
	List(ctx context.Context, db *gorm.DB, keyword, category string, page pagination.Pagination) ([]*Goods, int64, error)
}
