package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/resellops/backoffice/internal/authorization"
	"github.com/resellops/backoffice/pkg/db/pagination"
	"gorm.io/gorm"
)

// User is a back-office operator. Role decides what the review
// surface lets them do.
type User struct {
	ID           snowflake.ID       `json:"id" gorm:"primaryKey"`
	Username     string             `json:"username"`
	Nickname     string             `json:"nickname"`
	PasswordHash string             `json:"-" gorm:"column:password_hash"`
	Role         authorization.Role `json:"role"`
	Status       string             `json:"status"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
	DeletedAt    *time.Time         `json:"-"`
}

func (User) TableName() string { return "users" }

const (
	StatusActive   = "active"
	StatusDisabled = "disabled"
)

var (
	ErrNotFound        = errors.New("not_found")
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidUsername = errors.New("invalid_username")
	ErrInvalidPassword = errors.New("invalid_password")
	ErrInvalidRole     = errors.New("invalid_role")
	ErrUsernameTaken   = errors.New("username_taken")
)

type CreateUserRequest struct {
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type UpdateUserRequest struct {
	ID       string `json:"-"`
	Nickname string `json:"nickname"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

type ListUserRequest struct {
	pagination.Pagination
	Keyword string `form:"keyword"`
}

type ListUserResponse struct {
	Total int64  `json:"total"`
	Data  []User `json:"data"`
}

type Service interface {
	Create(ctx context.Context, req CreateUserRequest) (User, error)
	Update(ctx context.Context, req UpdateUserRequest) (User, error)
	Detail(ctx context.Context, id string) (User, error)
	List(ctx context.Context, req ListUserRequest) (ListUserResponse, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, user *User) error
	Update(ctx context.Context, db *gorm.DB, user *User) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*User, error)
	FindByUsername(ctx context.Context, db *gorm.DB, username string) (*User, error)
	List(ctx context.Context, db *gorm.DB, keyword string, page pagination.Pagination) ([]*User, int64, error)
}
