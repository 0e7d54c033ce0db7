package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/resellops/backoffice/internal/user/domain"
	"github.com/resellops/backoffice/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, user *domain.User) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO users (id, username, nickname, password_hash, role, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Nickname,
		user.PasswordHash,
		user.Role,
		user.Status,
		user.CreatedAt,
		user.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, user *domain.User) error {
	return db.WithContext(ctx).Exec(
		`UPDATE users SET nickname = ?, password_hash = ?, role = ?, status = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		user.Nickname,
		user.PasswordHash,
		user.Role,
		user.Status,
		user.UpdatedAt,
		user.ID,
	).Error
}

const userColumns = `id, username, nickname, password_hash, role, status, created_at, updated_at, deleted_at`

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.User, error) {
	var user domain.User
	if err := db.WithContext(ctx).Raw(
		`SELECT `+userColumns+` FROM users WHERE id = ? AND deleted_at IS NULL`,
		id,
	).Scan(&user).Error; err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (r *repo) FindByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.User, error) {
	var user domain.User
	if err := db.WithContext(ctx).Raw(
		`SELECT `+userColumns+` FROM users WHERE username = ? AND deleted_at IS NULL`,
		username,
	).Scan(&user).Error; err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, keyword string, page pagination.Pagination) ([]*domain.User, int64, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("deleted_at IS NULL")
	if keyword != "" {
		like := "%" + keyword + "%"
		stmt = stmt.Where("username LIKE ? OR nickname LIKE ?", like, like)
	}

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []*domain.User
	if err := page.Apply(stmt).
		Order("created_at desc, id desc").
		Find(&users).Error; err != nil {
		return nil, 0, err
	}
	return users, total, nil
}
