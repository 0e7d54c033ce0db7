package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/resellops/backoffice/internal/actorctx"
	"github.com/resellops/backoffice/internal/authorization"
	"github.com/resellops/backoffice/internal/receipt/domain"
	"github.com/resellops/backoffice/internal/receipt/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type allowAllAuthz struct{}

func (allowAllAuthz) Authorize(context.Context, authorization.Role, string, string) error {
	return nil
}

func mustNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return node
}

func setupReceiptService(t *testing.T, node *snowflake.Node) (domain.Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_loc=auto", t.Name())
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
	prepareReceiptSchema(t, db)

	svc := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Repo:     repository.Provide(),
		AuthzSvc: allowAllAuthz{},
	})
	return svc, db
}

func prepareReceiptSchema(t *testing.T, db *gorm.DB) {
	t.Helper()
	statements := []string{
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
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
}

func seedReceipt(t *testing.T, db *gorm.DB, node *snowflake.Node, accountID snowflake.ID, total, received string) snowflake.ID {
	t.Helper()
	id := node.Generate()
	now := time.Now().UTC()
	if err := db.Exec(
		`INSERT INTO receipts (id, account_id, status, goods_total, total_price, received_price, created_at, updated_at)
		 VALUES (?, ?, 'open', 1, ?, ?, ?, ?)`,
		id, accountID, total, received, now, now,
	).Error; err != nil {
		t.Fatalf("seed receipt: %v", err)
	}
	return id
}

func seedPayment(t *testing.T, db *gorm.DB, node *snowflake.Node, receiptID, accountID snowflake.ID, status, paid string) {
	t.Helper()
	now := time.Now().UTC()
	if err := db.Exec(
		`INSERT INTO payments (id, receipt_id, account_id, amount, paid_amount, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		node.Generate(), receiptID, accountID, paid, paid, status, now, now,
	).Error; err != nil {
		t.Fatalf("seed payment: %v", err)
	}
}

func seedGoods(t *testing.T, db *gorm.DB, node *snowflake.Node, externalID, title, category, image string) snowflake.ID {
	t.Helper()
	id := node.Generate()
	now := time.Now().UTC()
	if err := db.Exec(
		`INSERT INTO goods (id, external_id, sku_id, title, category, image, price, created_at, updated_at)
		 VALUES (?, ?, 'sku-1', ?, ?, ?, '9.99', ?, ?)`,
		id, externalID, title, category, image, now, now,
	).Error; err != nil {
		t.Fatalf("seed goods: %v", err)
	}
	return id
}

func seedReceiptItem(t *testing.T, db *gorm.DB, node *snowflake.Node, receiptID, accountID, goodsID snowflake.ID) {
	t.Helper()
	now := time.Now().UTC()
	if err := db.Exec(
		`INSERT INTO receipt_items (id, receipt_id, account_id, status, goods_id, price, num, received, created_at, updated_at)
		 VALUES (?, ?, ?, 'open', ?, '9.99', 2, 0, ?, ?)`,
		node.Generate(), receiptID, accountID, goodsID, now, now,
	).Error; err != nil {
		t.Fatalf("seed receipt item: %v", err)
	}
}

func adminCtx(node *snowflake.Node) context.Context {
	return actorctx.WithActor(context.Background(), actorctx.Actor{
		OperatorID: node.Generate(),
		Name:       "Reviewer",
		Role:       authorization.RoleAdmin,
	})
}

func supplierCtx(accountID snowflake.ID) context.Context {
	return actorctx.WithActor(context.Background(), actorctx.Actor{
		OperatorID: accountID,
		Name:       "Supplier",
		Role:       authorization.RoleSupplier,
		AccountID:  accountID,
	})
}

func TestRecomputeTotals(t *testing.T) {
	node := mustNode(t)
	svc, db := setupReceiptService(t, node)
	accountID := node.Generate()
	receiptID := seedReceipt(t, db, node, accountID, "100.00", "3.00")

	// Only approved payments count; the stale running total is
	// replaced, not added to.
	seedPayment(t, db, node, receiptID, accountID, "approved", "10.10")
	seedPayment(t, db, node, receiptID, accountID, "approved", "20.20")
	seedPayment(t, db, node, receiptID, accountID, "pending", "5.00")
	seedPayment(t, db, node, receiptID, accountID, "rejected", "7.00")

	receipt, err := svc.RecomputeTotals(adminCtx(node), receiptID.String())
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if !receipt.ReceivedPrice.Equal(decimal.RequireFromString("30.30")) {
		t.Fatalf("expected 30.30, got %s", receipt.ReceivedPrice)
	}

	var raw string
	if err := db.Raw(`SELECT received_price FROM receipts WHERE id = ?`, receiptID).Scan(&raw).Error; err != nil {
		t.Fatalf("read received_price: %v", err)
	}
	persisted, err := decimal.NewFromString(raw)
	if err != nil {
		t.Fatalf("parse received_price %q: %v", raw, err)
	}
	if !persisted.Equal(decimal.RequireFromString("30.30")) {
		t.Fatalf("persisted received_price %s", persisted)
	}
}

func TestDetailJoinsGoods(t *testing.T) {
	node := mustNode(t)
	svc, db := setupReceiptService(t, node)
	accountID := node.Generate()
	receiptID := seedReceipt(t, db, node, accountID, "100.00", "0")
	goodsID := seedGoods(t, db, node, "ext-42", "USB Hub", "electronics", "/img/hub.png")
	seedReceiptItem(t, db, node, receiptID, accountID, goodsID)
	// An item whose catalog row is gone still lists, without goods.
	seedReceiptItem(t, db, node, receiptID, accountID, node.Generate())

	resp, err := svc.Detail(adminCtx(node), domain.DetailReceiptRequest{ID: receiptID.String()})
	if err != nil {
		t.Fatalf("detail: %v", err)
	}
	if resp.Total != 2 {
		t.Fatalf("expected 2 items, got %d", resp.Total)
	}

	withGoods := resp.Data[0]
	if withGoods.Goods == nil {
		t.Fatal("expected joined goods on first item")
	}
	if withGoods.Goods.GoodsTitle != "USB Hub" || withGoods.Goods.GoodsID != "ext-42" {
		t.Fatalf("unexpected goods join %+v", withGoods.Goods)
	}
	if withGoods.Goods.GoodsCat != "electronics" || withGoods.Goods.GoodsImage != "/img/hub.png" {
		t.Fatalf("unexpected goods join %+v", withGoods.Goods)
	}

	if resp.Data[1].Goods != nil {
		t.Fatalf("orphaned item must not carry goods, got %+v", resp.Data[1].Goods)
	}
}

func TestTombstoneRefusesPendingPayments(t *testing.T) {
	node := mustNode(t)
	svc, db := setupReceiptService(t, node)
	accountID := node.Generate()
	receiptID := seedReceipt(t, db, node, accountID, "100.00", "0")
	seedPayment(t, db, node, receiptID, accountID, "pending", "5.00")

	if err := svc.Tombstone(adminCtx(node), receiptID.String()); !errors.Is(err, domain.ErrPendingPayments) {
		t.Fatalf("expected pending payments error, got %v", err)
	}

	// Receipt must still be readable.
	if _, err := svc.Detail(adminCtx(node), domain.DetailReceiptRequest{ID: receiptID.String()}); err != nil {
		t.Fatalf("detail after refused tombstone: %v", err)
	}
}

func TestTombstoneCascades(t *testing.T) {
	node := mustNode(t)
	svc, db := setupReceiptService(t, node)
	accountID := node.Generate()
	receiptID := seedReceipt(t, db, node, accountID, "100.00", "50.00")
	seedPayment(t, db, node, receiptID, accountID, "approved", "50.00")

	if err := svc.Tombstone(adminCtx(node), receiptID.String()); err != nil {
		t.Fatalf("tombstone: %v", err)
	}

	if _, err := svc.Detail(adminCtx(node), domain.DetailReceiptRequest{ID: receiptID.String()}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found after tombstone, got %v", err)
	}

	var live int64
	if err := db.Raw(`SELECT COUNT(*) FROM payments WHERE receipt_id = ? AND deleted_at IS NULL`, receiptID).Scan(&live).Error; err != nil {
		t.Fatalf("count payments: %v", err)
	}
	if live != 0 {
		t.Fatalf("payments must be tombstoned with the receipt, %d live", live)
	}
}

func TestSupplierListScopedToOwnReceipts(t *testing.T) {
	node := mustNode(t)
	svc, db := setupReceiptService(t, node)
	mine := node.Generate()
	theirs := node.Generate()
	seedReceipt(t, db, node, mine, "10.00", "0")
	foreign := seedReceipt(t, db, node, theirs, "20.00", "0")

	resp, err := svc.List(supplierCtx(mine), domain.ListReceiptRequest{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if resp.Total != 1 {
		t.Fatalf("expected 1 receipt, got %d", resp.Total)
	}
	if resp.Data[0].AccountID != mine {
		t.Fatalf("leaked foreign receipt")
	}

	if _, err := svc.Detail(supplierCtx(mine), domain.DetailReceiptRequest{ID: foreign.String()}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("foreign receipt must read as missing, got %v", err)
	}
}
