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

// Order is one storefront order line mirrored for fulfilment review.
// OrderSN is the storefront's order serial; Properties keeps the
// remaining export fields that have no dedicated column.
type Order struct {
	ID           snowflake.ID      `json:"id" gorm:"primaryKey"`
	OrderSN      string            `json:"order_sn" gorm:"column:order_sn"`
	GoodsID      string            `json:"goods_id"`
	SkuID        string            `json:"sku_id"`
	GoodsTitle   string            `json:"goods_title"`
	Price        decimal.Decimal   `json:"price" gorm:"type:numeric(18,2)"`
	Num          int               `json:"num"`
	Status       string            `json:"status"`
	PurchaseTime *time.Time        `json:"purchase_time"`
	Properties   datatypes.JSONMap `json:"properties"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	DeletedAt    *time.Time        `json:"-"`
}

func (Order) TableName() string { return "orders" }

var (
	ErrNotFound       = errors.New("not_found")
	ErrInvalidID      = errors.New("invalid_id")
	ErrInvalidOrderSN = errors.New("invalid_order_sn")
	ErrInvalidPrice   = errors.New("invalid_price")
)

type UpsertOrderRequest struct {
	OrderSN      string            `json:"order_sn"`
	GoodsID      string            `json:"goods_id"`
	SkuID        string            `json:"sku_id"`
	GoodsTitle   string            `json:"goods_title"`
	Price        string            `json:"price"`
	Num          int               `json:"num"`
	Status       string            `json:"status"`
	PurchaseTime *time.Time        `json:"purchase_time"`
	Properties   datatypes.JSONMap `json:"properties"`
}

type ListOrderRequest struct {
	pagination.Pagination
	Keyword string `form:"keyword"`
	Status  string `form:"status"`
}

type ListOrderResponse struct {
	Total int64   `json:"total"`
	Data  []Order `json:"data"`
}

type Service interface {
	Upsert(ctx context.Context, req UpsertOrderRequest) (Order, error)
	Detail(ctx context.Context, id string) (Order, error)
	List(ctx context.Context, req ListOrderRequest) (ListOrderResponse, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order) error
	Update(ctx context.Context, db *gorm.DB, order *Order) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	FindBySN(ctx context.Context, db *gorm.DB, orderSN, skuID string) (*Order, error)
	List(ctx context.Context, db *gorm.DB, keyword, status string, page pagination.Pagination) ([]*Order, int64, error)
}
