package domain

import "errors"

var (
	ErrNotFound           = errors.New("not_found")
	ErrInvalidID          = errors.New("invalid_id")
	ErrInvalidAction      = errors.New("invalid_action")
	ErrAlreadyReviewed    = errors.New("already_reviewed")
	ErrReasonRequired     = errors.New("reason_required")
	ErrInvalidAmount      = errors.New("invalid_amount")
	ErrOverReconciliation = errors.New("over_reconciliation")
	ErrReceiptNotFound    = errors.New("receipt_not_found")
)
