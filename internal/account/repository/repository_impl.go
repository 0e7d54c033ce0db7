package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/resellops/backoffice/internal/account/domain"
	"github.com/resellops/backoffice/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, account *domain.Account) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO accounts (id, mobile, name, password_hash, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		account.ID,
		account.Mobile,
		account.Name,
		account.PasswordHash,
		account.Status,
		account.CreatedAt,
		account.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, account *domain.Account) error {
	return db.WithContext(ctx).Exec(
		`UPDATE accounts SET name = ?, password_hash = ?, status = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		account.Name,
		account.PasswordHash,
		account.Status,
		account.UpdatedAt,
		account.ID,
	).Error
}

const accountColumns = `id, mobile, name, password_hash, status, created_at, updated_at, deleted_at`

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Account, error) {
	var account domain.Account
	if err := db.WithContext(ctx).Raw(
		`SELECT `+accountColumns+` FROM accounts WHERE id = ? AND deleted_at IS NULL`,
		id,
	).Scan(&account).Error; err != nil {
		return nil, err
	}
	if account.ID == 0 {
		return nil, nil
	}
	return &account, nil
}

func (r *repo) FindByMobile(ctx context.Context, db *gorm.DB, mobile string) (*domain.Account, error) {
	var account domain.Account
	if err := db.WithContext(ctx).Raw(
		`SELECT `+accountColumns+` FROM accounts WHERE mobile = ? AND deleted_at IS NULL`,
		mobile,
	).Scan(&account).Error; err != nil {
		return nil, err
	}
	if account.ID == 0 {
		return nil, nil
	}
	return &account, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, keyword string, page pagination.Pagination) ([]*domain.Account, int64, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Account{}).
		Where("deleted_at IS NULL")
	if keyword != "" {
		like := "%" + keyword + "%"
		stmt = stmt.Where("name LIKE ? OR mobile LIKE ?", like, like)
	}

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var accounts []*domain.Account
	if err := page.Apply(stmt).
		Order("created_at desc, id desc").
		Find(&accounts).Error; err != nil {
		return nil, 0, err
	}
	return accounts, total, nil
}
