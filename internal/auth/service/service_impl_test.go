package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	accountrepository "github.com/resellops/backoffice/internal/account/repository"
	"github.com/resellops/backoffice/internal/auth/domain"
	"github.com/resellops/backoffice/internal/auth/session"
	"github.com/resellops/backoffice/internal/authorization"
	"github.com/resellops/backoffice/internal/config"
	userrepository "github.com/resellops/backoffice/internal/user/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupAuthService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	statements := []string{
		`CREATE TABLE users (
			id BIGINT PRIMARY KEY,
			username TEXT NOT NULL,
			nickname TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			deleted_at DATETIME
		)`,
		`CREATE TABLE accounts (
			id BIGINT PRIMARY KEY,
			mobile TEXT NOT NULL,
			name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			deleted_at DATETIME
		)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	svc := New(Params{
		Config:      config.Config{SessionTTL: time.Hour},
		DB:          db,
		Log:         zap.NewNop(),
		Store:       session.NewMemoryStore(),
		UserRepo:    userrepository.Provide(),
		AccountRepo: accountrepository.Provide(),
	})
	return svc, db, node
}

func seedUser(t *testing.T, db *gorm.DB, node *snowflake.Node, username, password, status string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	now := time.Now().UTC()
	if err := db.Exec(
		`INSERT INTO users (id, username, nickname, password_hash, role, status, created_at, updated_at)
		 VALUES (?, ?, 'Op', ?, ?, ?, ?, ?)`,
		node.Generate(), username, string(hash), authorization.RoleAdmin, status, now, now,
	).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func seedAccount(t *testing.T, db *gorm.DB, node *snowflake.Node, mobile, password string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	now := time.Now().UTC()
	if err := db.Exec(
		`INSERT INTO accounts (id, mobile, name, password_hash, status, created_at, updated_at)
		 VALUES (?, ?, 'Supplier Co', ?, 'active', ?, ?)`,
		node.Generate(), mobile, string(hash), now, now,
	).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
}

func TestLoginAndResolve(t *testing.T) {
	svc, db, node := setupAuthService(t)
	seedUser(t, db, node, "reviewer", "secret123", "active")
	ctx := context.Background()

	resp, err := svc.Login(ctx, domain.LoginRequest{Username: "reviewer", Password: "secret123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("empty token")
	}

	sess, err := svc.Resolve(ctx, resp.Token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if sess.Kind != domain.KindStaff || sess.Role != authorization.RoleAdmin {
		t.Fatalf("unexpected session %+v", sess)
	}

	actor := sess.Actor()
	if actor.AccountID != 0 {
		t.Fatal("staff sessions must not carry an account scope")
	}

	if err := svc.Logout(ctx, resp.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Resolve(ctx, resp.Token); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected unauthorized after logout, got %v", err)
	}
}

func TestLoginFailures(t *testing.T) {
	svc, db, node := setupAuthService(t)
	seedUser(t, db, node, "reviewer", "secret123", "active")
	seedUser(t, db, node, "parked", "secret123", "disabled")
	ctx := context.Background()

	if _, err := svc.Login(ctx, domain.LoginRequest{Username: "reviewer", Password: "wrong"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Login(ctx, domain.LoginRequest{Username: "ghost", Password: "secret123"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}
	if _, err := svc.Login(ctx, domain.LoginRequest{Username: "parked", Password: "secret123"}); !errors.Is(err, domain.ErrAccountDisabled) {
		t.Fatalf("expected disabled, got %v", err)
	}
}

func TestSupplierToken(t *testing.T) {
	svc, db, node := setupAuthService(t)
	seedAccount(t, db, node, "13800001111", "supplierpass")
	ctx := context.Background()

	resp, err := svc.SupplierToken(ctx, domain.SupplierTokenRequest{Mobile: "13800001111", Password: "supplierpass"})
	if err != nil {
		t.Fatalf("supplier token: %v", err)
	}

	sess, err := svc.Resolve(ctx, resp.Token)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if sess.Kind != domain.KindSupplier || sess.Role != authorization.RoleSupplier {
		t.Fatalf("unexpected session %+v", sess)
	}

	actor := sess.Actor()
	if actor.AccountID == 0 || actor.AccountID != sess.SubjectID {
		t.Fatal("supplier sessions must be scoped to their account")
	}
}
