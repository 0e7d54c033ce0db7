package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Status is the review state of a payment claim. A claim starts
// pending and is reviewed exactly once: approved and rejected are
// terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Action is a review decision applied to a pending claim.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// Transition returns the successor state for a decision. Any decision
// against a non-pending claim fails with ErrAlreadyReviewed; the stored
// row is never touched on error.
func Transition(from Status, action Action) (Status, error) {
	if from != StatusPending {
		return from, ErrAlreadyReviewed
	}
	switch action {
	case ActionApprove:
		return StatusApproved, nil
	case ActionReject:
		return StatusRejected, nil
	default:
		return from, ErrInvalidAction
	}
}

// Payment is a supplier's claim for settlement against a receipt
// batch. Amount is the claimed figure; PaidAmount is the reviewer's
// confirmed figure, set only on approval.
type Payment struct {
	ID             snowflake.ID    `json:"id" gorm:"primaryKey"`
	ReceiptID      snowflake.ID    `json:"receipt_id"`
	AccountID      snowflake.ID    `json:"account_id"`
	Amount         decimal.Decimal `json:"amount" gorm:"type:numeric(18,2)"`
	PaidAmount     decimal.Decimal `json:"paid_amount" gorm:"type:numeric(18,2)"`
	ImageURL       string          `json:"image_url"`
	Status         Status          `json:"status"`
	Remark         string          `json:"remark"`
	RejectedReason string          `json:"rejected_reason"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      *time.Time      `json:"-"`
}

func (Payment) TableName() string { return "payments" }

// AuditLog is one append-only entry recording a lifecycle event on a
// payment. Rows are never updated or deleted; history replays in
// insertion order.
type AuditLog struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	PaymentID    snowflake.ID `json:"payment_id"`
	ReceiptID    snowflake.ID `json:"receipt_id"`
	Status       Status       `json:"status"`
	OperatorID   snowflake.ID `json:"operator_id"`
	OperatorName string       `json:"operator_name"`
	Reason       string       `json:"reason"`
	CreatedAt    time.Time    `json:"created_at"`
}

func (AuditLog) TableName() string { return "payment_audit_logs" }
