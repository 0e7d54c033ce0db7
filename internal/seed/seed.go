package seed

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/resellops/backoffice/internal/authorization"
	userdomain "github.com/resellops/backoffice/internal/user/domain"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// EnsureSuperAdmin creates the bootstrap R_SUPER operator when no user
// with that username exists yet. Safe to call on every startup.
func EnsureSuperAdmin(db *gorm.DB, username, password string) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if username == "" || password == "" {
		return errors.New("seed admin credentials are required")
	}

	var existing userdomain.User
	if err := db.Raw(
		`SELECT id FROM users WHERE username = ? AND deleted_at IS NULL`,
		username,
	).Scan(&existing).Error; err != nil {
		return err
	}
	if existing.ID != 0 {
		return nil
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	return db.Exec(
		`INSERT INTO users (id, username, nickname, password_hash, role, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		node.Generate(),
		username,
		"Administrator",
		string(hash),
		authorization.RoleSuper,
		userdomain.StatusActive,
		now,
		now,
	).Error
}
