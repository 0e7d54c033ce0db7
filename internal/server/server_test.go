package server

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	accountrepository "github.com/resellops/backoffice/internal/account/repository"
	accountservice "github.com/resellops/backoffice/internal/account/service"
	authservice "github.com/resellops/backoffice/internal/auth/service"
	"github.com/resellops/backoffice/internal/auth/session"
	"github.com/resellops/backoffice/internal/authorization"
	"github.com/resellops/backoffice/internal/config"
	goodsrepository "github.com/resellops/backoffice/internal/goods/repository"
	goodsservice "github.com/resellops/backoffice/internal/goods/service"
	orderrepository "github.com/resellops/backoffice/internal/order/repository"
	orderservice "github.com/resellops/backoffice/internal/order/service"
	paymentrepository "github.com/resellops/backoffice/internal/payment/repository"
	paymentservice "github.com/resellops/backoffice/internal/payment/service"
	receiptrepository "github.com/resellops/backoffice/internal/receipt/repository"
	receiptservice "github.com/resellops/backoffice/internal/receipt/service"
	userrepository "github.com/resellops/backoffice/internal/user/repository"
	userservice "github.com/resellops/backoffice/internal/user/service"
	"github.com/resellops/backoffice/pkg/client"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	ts        *httptest.Server
	db        *gorm.DB
	node      *snowflake.Node
	accountID snowflake.ID
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", strings.ReplaceAll(t.Name(), "/", "_"))
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
	_ = db.Exec("PRAGMA busy_timeout = 5000").Error
	prepareServerSchema(t, db)

	enforcer, err := authorization.NewEnforcer(db)
	if err != nil {
		t.Fatalf("enforcer: %v", err)
	}
	authzSvc := authorization.NewService(authorization.Params{Log: zap.NewNop(), Enforcer: enforcer})

	cfg := config.Config{
		ListenAddr: ":0",
		SessionTTL: time.Hour,
		UploadDir:  t.TempDir(),
	}
	log := zap.NewNop()

	userRepo := userrepository.Provide()
	accountRepo := accountrepository.Provide()
	receiptRepo := receiptrepository.Provide()

	authSvc := authservice.New(authservice.Params{
		Config:      cfg,
		DB:          db,
		Log:         log,
		Store:       session.NewMemoryStore(),
		UserRepo:    userRepo,
		AccountRepo: accountRepo,
	})
	accountSvc := accountservice.New(accountservice.Params{
		DB: db, Log: log, GenID: node, Repo: accountRepo, AuthzSvc: authzSvc,
	})
	goodsSvc := goodsservice.New(goodsservice.Params{
		DB: db, Log: log, GenID: node, Repo: goodsrepository.Provide(), AuthzSvc: authzSvc,
	})
	orderSvc := orderservice.New(orderservice.Params{
		DB: db, Log: log, GenID: node, Repo: orderrepository.Provide(), AuthzSvc: authzSvc,
	})
	receiptSvc := receiptservice.New(receiptservice.Params{
		DB: db, Log: log, GenID: node, Repo: receiptRepo, AuthzSvc: authzSvc,
	})
	paymentSvc := paymentservice.New(paymentservice.Params{
		DB: db, Log: log, GenID: node,
		Repo:        paymentrepository.Provide(),
		ReceiptRepo: receiptRepo,
		AuthzSvc:    authzSvc,
	})
	userSvc := userservice.New(userservice.Params{
		DB: db, Log: log, GenID: node, Repo: userRepo, AuthzSvc: authzSvc,
	})

	engine := NewEngine(nil)
	NewServer(ServerParams{
		Gin:        engine,
		Cfg:        cfg,
		DB:         db,
		GenID:      node,
		AuthSvc:    authSvc,
		AuthzSvc:   authzSvc,
		AccountSvc: accountSvc,
		GoodsSvc:   goodsSvc,
		OrderSvc:   orderSvc,
		ReceiptSvc: receiptSvc,
		PaymentSvc: paymentSvc,
		UserSvc:    userSvc,
	})

	ts := httptest.NewServer(engine)
	t.Cleanup(ts.Close)

	env := &testEnv{ts: ts, db: db, node: node}
	env.seedFixtures(t)
	return env
}

func prepareServerSchema(t *testing.T, db *gorm.DB) {
	t.Helper()
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
		`CREATE TABLE goods (
			id BIGINT PRIMARY KEY,
			external_id TEXT NOT NULL,
			product_id TEXT NOT NULL DEFAULT '',
			skc_id TEXT NOT NULL DEFAULT '',
			sku_id TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			image TEXT NOT NULL DEFAULT '',
			sku_image TEXT NOT NULL DEFAULT '',
			price NUMERIC(18,2) NOT NULL DEFAULT 0,
			sku_spec_list JSON,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			deleted_at DATETIME
		)`,
		`CREATE TABLE orders (
			id BIGINT PRIMARY KEY,
			order_sn TEXT NOT NULL,
			goods_id TEXT NOT NULL DEFAULT '',
			sku_id TEXT NOT NULL DEFAULT '',
			goods_title TEXT NOT NULL DEFAULT '',
			price NUMERIC(18,2) NOT NULL DEFAULT 0,
			num INT NOT NULL DEFAULT 0,
			status TEXT NOT NULL DEFAULT '',
			purchase_time DATETIME,
			properties JSON,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			deleted_at DATETIME
		)`,
		`CREATE TABLE receipts (
			id BIGINT PRIMARY KEY,
			account_id BIGINT NOT NULL,
			status TEXT NOT NULL DEFAULT 'open',
			goods_total INT NOT NULL DEFAULT 0,
			total_price NUMERIC(18,2) NOT NULL DEFAULT 0,
			received_price NUMERIC(18,2) NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			deleted_at DATETIME
		)`,
		`CREATE TABLE receipt_items (
			id BIGINT PRIMARY KEY,
			receipt_id BIGINT NOT NULL,
			account_id BIGINT NOT NULL,
			status TEXT NOT NULL DEFAULT '',
			goods_id BIGINT NOT NULL DEFAULT 0,
			price NUMERIC(18,2) NOT NULL DEFAULT 0,
			num INT NOT NULL DEFAULT 0,
			received INT NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			deleted_at DATETIME
		)`,
		`CREATE TABLE payments (
			id BIGINT PRIMARY KEY,
			receipt_id BIGINT NOT NULL,
			account_id BIGINT NOT NULL,
			amount NUMERIC(18,2) NOT NULL DEFAULT 0,
			paid_amount NUMERIC(18,2) NOT NULL DEFAULT 0,
			image_url TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			remark TEXT NOT NULL DEFAULT '',
			rejected_reason TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			deleted_at DATETIME
		)`,
		`CREATE TABLE payment_audit_logs (
			id BIGINT PRIMARY KEY,
			payment_id BIGINT NOT NULL,
			receipt_id BIGINT NOT NULL,
			status TEXT NOT NULL,
			operator_id BIGINT NOT NULL,
			operator_name TEXT NOT NULL DEFAULT '',
			reason TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
}

func (e *testEnv) seedFixtures(t *testing.T) {
	t.Helper()
	now := time.Now().UTC()

	adminHash, err := bcrypt.GenerateFromPassword([]byte("adminpass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := e.db.Exec(
		`INSERT INTO users (id, username, nickname, password_hash, role, status, created_at, updated_at)
		 VALUES (?, 'reviewer', 'Reviewer', ?, ?, 'active', ?, ?)`,
		e.node.Generate(), string(adminHash), authorization.RoleAdmin, now, now,
	).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	supplierHash, err := bcrypt.GenerateFromPassword([]byte("supplierpass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	e.accountID = e.node.Generate()
	if err := e.db.Exec(
		`INSERT INTO accounts (id, mobile, name, password_hash, status, created_at, updated_at)
		 VALUES (?, '13800001111', 'Supplier Co', ?, 'active', ?, ?)`,
		e.accountID, string(supplierHash), now, now,
	).Error; err != nil {
		t.Fatalf("seed account: %v", err)
	}
}

func (e *testEnv) seedReceipt(t *testing.T, total string) snowflake.ID {
	t.Helper()
	id := e.node.Generate()
	now := time.Now().UTC()
	if err := e.db.Exec(
		`INSERT INTO receipts (id, account_id, status, goods_total, total_price, received_price, created_at, updated_at)
		 VALUES (?, ?, 'open', 1, ?, '0', ?, ?)`,
		id, e.accountID, total, now, now,
	).Error; err != nil {
		t.Fatalf("seed receipt: %v", err)
	}
	return id
}

func (e *testEnv) adminClient(t *testing.T) *client.Client {
	t.Helper()
	c := client.New(e.ts.URL)
	var token struct {
		Token string `json:"token"`
	}
	if err := c.Post(context.Background(), "/auth/login", map[string]string{
		"username": "reviewer",
		"password": "adminpass",
	}, &token); err != nil {
		t.Fatalf("admin login: %v", err)
	}
	c.SetToken(token.Token)
	return c
}

func (e *testEnv) supplierClient(t *testing.T) *client.Client {
	t.Helper()
	c := client.New(e.ts.URL)
	var token struct {
		Token string `json:"token"`
	}
	if err := c.Post(context.Background(), "/api/customer/receipt/get_token", map[string]string{
		"mobile":   "13800001111",
		"password": "supplierpass",
	}, &token); err != nil {
		t.Fatalf("supplier token: %v", err)
	}
	c.SetToken(token.Token)
	return c
}

type paymentPayload struct {
	ID         string `json:"id"`
	ReceiptID  string `json:"receipt_id"`
	Amount     string `json:"amount"`
	PaidAmount string `json:"paid_amount"`
	ImageURL   string `json:"image_url"`
	Status     string `json:"status"`
	Remark     string `json:"remark"`
}

func TestPaymentReviewFlow(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	receiptID := env.seedReceipt(t, "100.00")

	supplier := env.supplierClient(t)
	admin := env.adminClient(t)

	var submitted paymentPayload
	if err := supplier.Post(ctx, "/api/customer/receipt/payment", map[string]string{
		"receipt_id": receiptID.String(),
		"amount":     "40.50",
		"remark":     "first delivery",
	}, &submitted); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if submitted.Status != "pending" {
		t.Fatalf("expected pending, got %s", submitted.Status)
	}
	// Money travels as a decimal string on the wire.
	if submitted.Amount != "40.5" {
		t.Fatalf("amount must be a decimal string, got %q", submitted.Amount)
	}

	var listed struct {
		Total int64            `json:"total"`
		Data  []paymentPayload `json:"data"`
	}
	if err := admin.Get(ctx, "/api/payments", url.Values{"status": {"pending"}}, &listed); err != nil {
		t.Fatalf("list payments: %v", err)
	}
	if listed.Total != 1 {
		t.Fatalf("expected 1 pending payment, got %d", listed.Total)
	}

	paymentID := submitted.ID
	var approved paymentPayload
	if err := admin.Post(ctx, "/api/payments/"+paymentID+"/approve", map[string]string{
		"paid_amount": "40.50",
	}, &approved); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != "approved" || approved.PaidAmount != "40.5" {
		t.Fatalf("unexpected approval payload %+v", approved)
	}

	// A second decision conflicts.
	err := admin.Post(ctx, "/api/payments/"+paymentID+"/approve", map[string]string{
		"paid_amount": "40.50",
	}, nil)
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 409 || apiErr.Type != "already_reviewed" {
		t.Fatalf("expected 409 already_reviewed, got %v", err)
	}

	// Over-reconciliation refuses with 422.
	var second paymentPayload
	if err := supplier.Post(ctx, "/api/customer/receipt/payment", map[string]string{
		"receipt_id": receiptID.String(),
		"amount":     "70.00",
	}, &second); err != nil {
		t.Fatalf("second submit: %v", err)
	}
	err = admin.Post(ctx, "/api/payments/"+second.ID+"/approve", map[string]string{
		"paid_amount": "70.00",
	}, nil)
	if !errors.As(err, &apiErr) || apiErr.Status != 422 || apiErr.Type != "over_reconciliation" {
		t.Fatalf("expected 422 over_reconciliation, got %v", err)
	}

	// Reject needs a reason.
	err = admin.Post(ctx, "/api/payments/"+second.ID+"/reject", map[string]string{}, nil)
	if !errors.As(err, &apiErr) || apiErr.Status != 400 {
		t.Fatalf("expected 400 for missing reason, got %v", err)
	}
	if err := admin.Post(ctx, "/api/payments/"+second.ID+"/reject", map[string]string{
		"reason": "amount exceeds remaining balance",
	}, nil); err != nil {
		t.Fatalf("reject: %v", err)
	}

	var history struct {
		Total int64 `json:"total"`
		Data  []struct {
			Status string `json:"status"`
			Reason string `json:"reason"`
		} `json:"data"`
	}
	if err := admin.Get(ctx, "/api/payments/"+second.ID+"/logs", nil, &history); err != nil {
		t.Fatalf("history: %v", err)
	}
	if history.Total != 1 {
		t.Fatalf("expected 1 log entry, got %d", history.Total)
	}
	if history.Data[0].Status != "rejected" || history.Data[0].Reason != "amount exceeds remaining balance" {
		t.Fatalf("unexpected decision log %+v", history.Data[0])
	}
}

func TestUploadTicketCreatesPendingPayment(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	receiptID := env.seedReceipt(t, "100.00")
	supplier := env.supplierClient(t)

	var created paymentPayload
	err := supplier.Upload(ctx, "/api/customer/receipt/ticket/upload", "proof.png",
		strings.NewReader("pngbytes"), map[string]string{
			"receipt_id": receiptID.String(),
			"amount":     "12.34",
			"remark":     "wire transfer",
		}, &created)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if created.Status != "pending" || created.Amount != "12.34" {
		t.Fatalf("unexpected payment %+v", created)
	}
	if created.Remark != "wire transfer" {
		t.Fatalf("remark not carried: %+v", created)
	}
	if !strings.HasPrefix(created.ImageURL, "/uploads/") || !strings.HasSuffix(created.ImageURL, ".png") {
		t.Fatalf("unexpected image url %q", created.ImageURL)
	}

	// The upload is the submission; the review queue sees it.
	admin := env.adminClient(t)
	var listed struct {
		Total int64            `json:"total"`
		Data  []paymentPayload `json:"data"`
	}
	if err := admin.Get(ctx, "/api/payments", url.Values{"status": {"pending"}}, &listed); err != nil {
		t.Fatalf("list payments: %v", err)
	}
	if listed.Total != 1 || listed.Data[0].ID != created.ID {
		t.Fatalf("uploaded payment missing from queue: %+v", listed)
	}

	// Without a receipt the upload is rejected outright.
	err = supplier.Upload(ctx, "/api/customer/receipt/ticket/upload", "proof.png",
		strings.NewReader("pngbytes"), map[string]string{"amount": "1.00"}, nil)
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 400 {
		t.Fatalf("expected 400 without receipt_id, got %v", err)
	}
}

func TestRouteAuthorization(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	receiptID := env.seedReceipt(t, "10.00")

	// No token at all.
	anon := client.New(env.ts.URL)
	err := anon.Get(ctx, "/api/payments", nil, nil)
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 401 {
		t.Fatalf("expected 401, got %v", err)
	}

	// Suppliers cannot reach the staff surface.
	supplier := env.supplierClient(t)
	err = supplier.Get(ctx, "/api/payments", nil, nil)
	if !errors.As(err, &apiErr) || apiErr.Status != 403 {
		t.Fatalf("expected 403 for supplier on staff route, got %v", err)
	}

	var submitted paymentPayload
	if err := supplier.Post(ctx, "/api/customer/receipt/payment", map[string]string{
		"receipt_id": receiptID.String(),
		"amount":     "5.00",
	}, &submitted); err != nil {
		t.Fatalf("submit: %v", err)
	}

	// Supplier payments view stays scoped to the supplier surface.
	var mine struct {
		Total int64 `json:"total"`
	}
	if err := supplier.Get(ctx, "/api/customer/receipt/payments", nil, &mine); err != nil {
		t.Fatalf("own payments: %v", err)
	}
	if mine.Total != 1 {
		t.Fatalf("expected 1 payment, got %d", mine.Total)
	}

	// Admins cannot manage users; supers can see the menu with users.
	admin := env.adminClient(t)
	err = admin.Post(ctx, "/api/users", map[string]string{
		"username": "newop", "password": "longenough", "role": "R_ADMIN",
	}, nil)
	if !errors.As(err, &apiErr) || apiErr.Status != 403 {
		t.Fatalf("expected 403 for admin creating users, got %v", err)
	}

	var menus []map[string]any
	if err := admin.Get(ctx, "/api/v3/system/menus/simple", nil, &menus); err != nil {
		t.Fatalf("menus: %v", err)
	}
	for _, entry := range menus {
		if entry["path"] == "/users" {
			t.Fatal("admin menu must not include user management")
		}
	}
}
