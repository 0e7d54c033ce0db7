package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/resellops/backoffice/internal/payment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (id, receipt_id, account_id, amount, paid_amount, image_url, status, remark, rejected_reason, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.ReceiptID,
		payment.AccountID,
		payment.Amount,
		payment.PaidAmount,
		payment.ImageURL,
		payment.Status,
		payment.Remark,
		payment.RejectedReason,
		payment.CreatedAt,
		payment.UpdatedAt,
	).Error
}

const paymentColumns = `id, receipt_id, account_id, amount, paid_amount, image_url, status, remark, rejected_reason, created_at, updated_at, deleted_at`

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Payment, error) {
	return r.findByID(ctx, db, id, false)
}

func (r *repo) FindByIDForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Payment, error) {
	return r.findByID(ctx, db, id, true)
}

func (r *repo) findByID(ctx context.Context, db *gorm.DB, id snowflake.ID, lock bool) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = ? AND deleted_at IS NULL`
	if lock && db.Dialector.Name() != "sqlite" {
		query += " FOR UPDATE"
	}

	var payment domain.Payment
	if err := db.WithContext(ctx).Raw(query, id).Scan(&payment).Error; err != nil {
		return nil, err
	}
	if payment.ID == 0 {
		return nil, nil
	}
	return &payment, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Payment, int64, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("deleted_at IS NULL")
	if filter.ReceiptID != 0 {
		stmt = stmt.Where("receipt_id = ?", filter.ReceiptID)
	}
	if filter.AccountID != 0 {
		stmt = stmt.Where("account_id = ?", filter.AccountID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var payments []*domain.Payment
	if err := filter.Page.Apply(stmt).
		Order("created_at desc, id desc").
		Find(&payments).Error; err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, update domain.StatusUpdate) error {
	// The status guard makes the review a compare-and-set: a claim
	// already decided by a concurrent reviewer matches zero rows.
	result := db.WithContext(ctx).Exec(
		`UPDATE payments
		 SET status = ?, paid_amount = ?, rejected_reason = ?, updated_at = ?
		 WHERE id = ? AND status = ? AND deleted_at IS NULL`,
		update.Status,
		update.PaidAmount,
		update.RejectedReason,
		update.UpdatedAt,
		update.ID,
		domain.StatusPending,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrAlreadyReviewed
	}
	return nil
}

func (r *repo) InsertAuditLog(ctx context.Context, db *gorm.DB, log *domain.AuditLog) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payment_audit_logs (id, payment_id, receipt_id, status, operator_id, operator_name, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ID,
		log.PaymentID,
		log.ReceiptID,
		log.Status,
		log.OperatorID,
		log.OperatorName,
		log.Reason,
		log.CreatedAt,
	).Error
}

const auditLogColumns = `id, payment_id, receipt_id, status, operator_id, operator_name, reason, created_at`

func (r *repo) ListAuditLogsByPayment(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) ([]*domain.AuditLog, error) {
	var logs []*domain.AuditLog
	if err := db.WithContext(ctx).Raw(
		`SELECT `+auditLogColumns+` FROM payment_audit_logs WHERE payment_id = ? ORDER BY created_at ASC, id ASC`,
		paymentID,
	).Scan(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *repo) ListAuditLogsByReceipt(ctx context.Context, db *gorm.DB, receiptID snowflake.ID) ([]*domain.AuditLog, error) {
	var logs []*domain.AuditLog
	if err := db.WithContext(ctx).Raw(
		`SELECT `+auditLogColumns+` FROM payment_audit_logs WHERE receipt_id = ? ORDER BY created_at ASC, id ASC`,
		receiptID,
	).Scan(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
