package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Receipt is a submission batch of purchased goods awaiting reimbursement.
// ReceivedPrice is the sum of paid amounts of approved payment records and
// never exceeds TotalPrice.
type Receipt struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	AccountID     snowflake.ID    `gorm:"not null;index" json:"account_id"`
	Status        string          `gorm:"type:text;not null" json:"status"`
	GoodsTotal    int             `gorm:"not null" json:"goods_total"`
	TotalPrice    decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"total_price"`
	ReceivedPrice decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"received_price"`
	CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null" json:"updated_at"`
	DeletedAt     *time.Time      `json:"deleted_at"`
}

func (Receipt) TableName() string { return "receipts" }

const (
	StatusOpen    = "open"
	StatusSettled = "settled"
)

// ReceiptItem is one goods line within a receipt. Read-mostly; it does not
// take part in the review workflow.
type ReceiptItem struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	ReceiptID snowflake.ID    `gorm:"not null;index" json:"receipt_id"`
	AccountID snowflake.ID    `gorm:"not null" json:"account_id"`
	Status    string          `gorm:"type:text;not null" json:"status"`
	GoodsID   snowflake.ID    `gorm:"not null" json:"goods_id"`
	Price     decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"price"`
	Num       int             `gorm:"not null" json:"num"`
	Received  decimal.Decimal `gorm:"type:numeric(18,2);not null" json:"received"`
	CreatedAt time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null" json:"updated_at"`
	DeletedAt *time.Time      `json:"deleted_at"`

	Goods *ReceiptGoods `gorm:"-" json:"goods,omitempty"`
}

func (ReceiptItem) TableName() string { return "receipt_items" }

// ReceiptGoods is the catalog view joined into a receipt line.
type ReceiptGoods struct {
	ID         snowflake.ID `json:"id"`
	GoodsTitle string       `json:"goods_title"`
	GoodsID    string       `json:"goods_id"`
	ProductID  string       `json:"product_id"`
	SkcID      string       `json:"skc_id"`
	SkuID      string       `json:"sku_id"`
	GoodsImage string       `json:"goods_image"`
	GoodsCat   string       `json:"goods_cat"`
	SkuImage   string       `json:"sku_image"`
	Price      string       `json:"price"`
}
