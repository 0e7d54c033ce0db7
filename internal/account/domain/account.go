package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/resellops/backoffice/pkg/db/pagination"
	"gorm.io/gorm"
)

// Account is a supplier identity. Suppliers authenticate with mobile
// number and password and only ever see their own receipts and
// payments.
type Account struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	Mobile       string       `json:"mobile"`
	Name         string       `json:"name"`
	PasswordHash string       `json:"-" gorm:"column:password_hash"`
	Status       string       `json:"status"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	DeletedAt    *time.Time   `json:"-"`
}

func (Account) TableName() string { return "accounts" }

const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

var (
	ErrNotFound        = errors.New("not_found")
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidMobile   = errors.New("invalid_mobile")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidPassword = errors.New("invalid_password")
	ErrMobileTaken     = errors.New("mobile_taken")
)

type CreateAccountRequest struct {
	Mobile   string `json:"mobile"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type UpdateAccountRequest struct {
	ID       string `json:"-"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Status   string `json:"status"`
}

type ListAccountRequest struct {
	pagination.Pagination
	Keyword string `form:"keyword"`
}

type ListAccountResponse struct {
	Total int64     `json:"total"`
	Data  []Account `json:"data"`
}

type Service interface {
	Create(ctx context.Context, req CreateAccountRequest) (Account, error)
	Update(ctx context.Context, req UpdateAccountRequest) (Account, error)
	Detail(ctx context.Context, id string) (Account, error)
	List(ctx context.Context, req ListAccountRequest) (ListAccountResponse, error)
	Disable(ctx context.Context, id string) error
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, account *Account) error
	Update(ctx context.Context, db *gorm.DB, account *Account) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Account, error)
	FindByMobile(ctx context.Context, db *gorm.DB, mobile string) (*Account, error)
	List(ctx context.Context, db *gorm.DB, keyword string, page pagination.Pagination) ([]*Account, int64, error)
}
