package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/resellops/backoffice/internal/actorctx"
	"github.com/resellops/backoffice/internal/authorization"
	"github.com/resellops/backoffice/internal/observability/metrics"
	"github.com/resellops/backoffice/internal/payment/domain"
	receiptdomain "github.com/resellops/backoffice/internal/receipt/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        domain.Repository
	ReceiptRepo receiptdomain.Repository
	AuthzSvc    authorization.Service
	Metrics     *metrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        domain.Repository
	receiptRepo receiptdomain.Repository
	authz       authorization.Service
	metrics     *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("payment.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		receiptRepo: p.ReceiptRepo,
		authz:       p.AuthzSvc,
		metrics:     p.Metrics,
	}
}

// Submit files a new claim against a receipt batch. The claim enters
// the workflow as pending and gets its first audit log entry.
func (s *Service) Submit(ctx context.Context, req domain.SubmitPaymentRequest) (domain.Payment, error) {
	actor, ok := actorctx.FromContext(ctx)
	if !ok {
		return domain.Payment{}, authorization.ErrForbidden
	}
	if err := s.authz.Authorize(ctx, actor.Role, authorization.ObjectPayment, authorization.ActionPaymentSubmit); err != nil {
		return domain.Payment{}, err
	}

	receiptID, err := parseID(req.ReceiptID)
	if err != nil {
		return domain.Payment{}, err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return domain.Payment{}, err
	}

	var payment domain.Payment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		receipt, err := s.receiptRepo.FindByID(ctx, tx, receiptID)
		if err != nil {
			return err
		}
		if receipt == nil {
			return domain.ErrReceiptNotFound
		}
		if actor.Role == authorization.RoleSupplier && receipt.AccountID != actor.AccountID {
			return domain.ErrReceiptNotFound
		}

		now := time.Now().UTC()
		payment = domain.Payment{
			ID:         s.genID.Generate(),
			ReceiptID:  receipt.ID,
			AccountID:  receipt.AccountID,
			Amount:     amount,
			PaidAmount: decimal.Zero,
			ImageURL:   strings.TrimSpace(req.ImageURL),
			Status:     domain.StatusPending,
			Remark:     strings.TrimSpace(req.Remark),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		// The audit log records review decisions only; a payment with no
		// entries is pending by definition.
		return s.repo.Insert(ctx, tx, &payment)
	})
	if err != nil {
		return domain.Payment{}, err
	}

	s.log.Info("payment submitted",
		zap.String("payment_id", payment.ID.String()),
		zap.String("receipt_id", payment.ReceiptID.String()),
		zap.String("amount", payment.Amount.String()),
	)
	return payment, nil
}

// Approve confirms a pending claim with the amount actually settled.
// The receipt's running received_price moves in the same transaction,
// and the claim is refused outright when the confirmed amount would
// push it past total_price.
func (s *Service) Approve(ctx context.Context, req domain.ApprovePaymentRequest) (domain.Payment, error) {
	actor, ok := actorctx.FromContext(ctx)
	if !ok {
		return domain.Payment{}, authorization.ErrForbidden
	}
	if err := s.authz.Authorize(ctx, actor.Role, authorization.ObjectPayment, authorization.ActionPaymentApprove); err != nil {
		return domain.Payment{}, err
	}

	id, err := parseID(req.ID)
	if err != nil {
		return domain.Payment{}, err
	}
	paidAmount, err := parseAmount(req.PaidAmount)
	if err != nil {
		return domain.Payment{}, err
	}

	var payment domain.Payment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}

		next, err := domain.Transition(current.Status, domain.ActionApprove)
		if err != nil {
			return err
		}

		receipt, err := s.receiptRepo.FindByIDForUpdate(ctx, tx, current.ReceiptID)
		if err != nil {
			return err
		}
		if receipt == nil {
			return domain.ErrReceiptNotFound
		}

		received := receipt.ReceivedPrice.Add(paidAmount)
		if received.GreaterThan(receipt.TotalPrice) {
			return domain.ErrOverReconciliation
		}

		now := time.Now().UTC()
		if err := s.repo.UpdateStatus(ctx, tx, domain.StatusUpdate{
			ID:         current.ID,
			Status:     next,
			PaidAmount: paidAmount,
			UpdatedAt:  now,
		}); err != nil {
			return err
		}
		if err := s.receiptRepo.SetReceivedPrice(ctx, tx, receipt.ID, received, now); err != nil {
			return err
		}

		payment = *current
		payment.Status = next
		payment.PaidAmount = paidAmount
		payment.UpdatedAt = now
		return s.appendLog(ctx, tx, &payment, actor, "", now)
	})
	if err != nil {
		return domain.Payment{}, err
	}

	s.recordDecision(payment.Status)
	s.log.Info("payment approved",
		zap.String("payment_id", payment.ID.String()),
		zap.String("paid_amount", payment.PaidAmount.String()),
		zap.String("operator_id", actor.OperatorID.String()),
	)
	return payment, nil
}

// Reject closes a pending claim without settlement. A human-readable
// reason is mandatory; it lands on the claim and in the audit log.
func (s *Service) Reject(ctx context.Context, req domain.RejectPaymentRequest) (domain.Payment, error) {
	actor, ok := actorctx.FromContext(ctx)
	if !ok {
		return domain.Payment{}, authorization.ErrForbidden
	}
	if err := s.authz.Authorize(ctx, actor.Role, authorization.ObjectPayment, authorization.ActionPaymentReject); err != nil {
		return domain.Payment{}, err
	}

	id, err := parseID(req.ID)
	if err != nil {
		return domain.Payment{}, err
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return domain.Payment{}, domain.ErrReasonRequired
	}

	var payment domain.Payment
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}

		next, err := domain.Transition(current.Status, domain.ActionReject)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := s.repo.UpdateStatus(ctx, tx, domain.StatusUpdate{
			ID:             current.ID,
			Status:         next,
			PaidAmount:     current.PaidAmount,
			RejectedReason: reason,
			UpdatedAt:      now,
		}); err != nil {
			return err
		}

		payment = *current
		payment.Status = next
		payment.RejectedReason = reason
		payment.UpdatedAt = now
		return s.appendLog(ctx, tx, &payment, actor, reason, now)
	})
	if err != nil {
		return domain.Payment{}, err
	}

	s.recordDecision(payment.Status)
	s.log.Info("payment rejected",
		zap.String("payment_id", payment.ID.String()),
		zap.String("reason", reason),
		zap.String("operator_id", actor.OperatorID.String()),
	)
	return payment, nil
}

func (s *Service) Detail(ctx context.Context, id string) (domain.Payment, error) {
	actor, ok := actorctx.FromContext(ctx)
	if !ok {
		return domain.Payment{}, authorization.ErrForbidden
	}
	if err := s.authz.Authorize(ctx, actor.Role, authorization.ObjectPayment, authorization.ActionPaymentView); err != nil {
		return domain.Payment{}, err
	}

	parsed, err := parseID(id)
	if err != nil {
		return domain.Payment{}, err
	}

	payment, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return domain.Payment{}, err
	}
	if payment == nil {
		return domain.Payment{}, domain.ErrNotFound
	}
	if actor.Role == authorization.RoleSupplier && payment.AccountID != actor.AccountID {
		return domain.Payment{}, domain.ErrNotFound
	}
	return *payment, nil
}

func (s *Service) List(ctx context.Context, req domain.ListPaymentRequest) (domain.ListPaymentResponse, error) {
	actor, ok := actorctx.FromContext(ctx)
	if !ok {
		return domain.ListPaymentResponse{}, authorization.ErrForbidden
	}
	if err := s.authz.Authorize(ctx, actor.Role, authorization.ObjectPayment, authorization.ActionPaymentView); err != nil {
		return domain.ListPaymentResponse{}, err
	}

	filter := domain.ListFilter{Page: req.Pagination, Status: domain.Status(strings.TrimSpace(req.Status))}
	if raw := strings.TrimSpace(req.ReceiptID); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return domain.ListPaymentResponse{}, err
		}
		filter.ReceiptID = id
	}
	if actor.Role == authorization.RoleSupplier {
		filter.AccountID = actor.AccountID
	} else if raw := strings.TrimSpace(req.AccountID); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return domain.ListPaymentResponse{}, err
		}
		filter.AccountID = id
	}

	payments, total, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListPaymentResponse{}, err
	}

	data := make([]domain.Payment, 0, len(payments))
	for _, payment := range payments {
		if payment == nil {
			continue
		}
		data = append(data, *payment)
	}
	return domain.ListPaymentResponse{Total: total, Data: data}, nil
}

// History replays the audit trail of one payment in insertion order.
func (s *Service) History(ctx context.Context, paymentID string) (domain.HistoryResponse, error) {
	actor, ok := actorctx.FromContext(ctx)
	if !ok {
		return domain.HistoryResponse{}, authorization.ErrForbidden
	}
	if err := s.authz.Authorize(ctx, actor.Role, authorization.ObjectAuditLog, authorization.ActionAuditLogView); err != nil {
		return domain.HistoryResponse{}, err
	}

	id, err := parseID(paymentID)
	if err != nil {
		return domain.HistoryResponse{}, err
	}

	payment, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.HistoryResponse{}, err
	}
	if payment == nil {
		return domain.HistoryResponse{}, domain.ErrNotFound
	}
	if actor.Role == authorization.RoleSupplier && payment.AccountID != actor.AccountID {
		return domain.HistoryResponse{}, domain.ErrNotFound
	}

	logs, err := s.repo.ListAuditLogsByPayment(ctx, s.db, id)
	if err != nil {
		return domain.HistoryResponse{}, err
	}
	return historyResponse(logs), nil
}

// ReceiptHistory replays every audit log entry across a receipt's
// payments, oldest first.
func (s *Service) ReceiptHistory(ctx context.Context, receiptID string) (domain.HistoryResponse, error) {
	actor, ok := actorctx.FromContext(ctx)
	if !ok {
		return domain.HistoryResponse{}, authorization.ErrForbidden
	}
	if err := s.authz.Authorize(ctx, actor.Role, authorization.ObjectAuditLog, authorization.ActionAuditLogView); err != nil {
		return domain.HistoryResponse{}, err
	}

	id, err := parseID(receiptID)
	if err != nil {
		return domain.HistoryResponse{}, err
	}

	receipt, err := s.receiptRepo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.HistoryResponse{}, err
	}
	if receipt == nil {
		return domain.HistoryResponse{}, domain.ErrNotFound
	}
	if actor.Role == authorization.RoleSupplier && receipt.AccountID != actor.AccountID {
		return domain.HistoryResponse{}, domain.ErrNotFound
	}

	logs, err := s.repo.ListAuditLogsByReceipt(ctx, s.db, id)
	if err != nil {
		return domain.HistoryResponse{}, err
	}
	return historyResponse(logs), nil
}

func (s *Service) appendLog(ctx context.Context, tx *gorm.DB, payment *domain.Payment, actor actorctx.Actor, reason string, now time.Time) error {
	return s.repo.InsertAuditLog(ctx, tx, &domain.AuditLog{
		ID:           s.genID.Generate(),
		PaymentID:    payment.ID,
		ReceiptID:    payment.ReceiptID,
		Status:       payment.Status,
		OperatorID:   actor.OperatorID,
		OperatorName: actor.Name,
		Reason:       reason,
		CreatedAt:    now,
	})
}

func (s *Service) recordDecision(status domain.Status) {
	if s.metrics == nil {
		return
	}
	s.metrics.ReviewDecisions.WithLabelValues(string(status)).Inc()
}

func historyResponse(logs []*domain.AuditLog) domain.HistoryResponse {
	data := make([]domain.AuditLog, 0, len(logs))
	for _, entry := range logs {
		if entry == nil {
			continue
		}
		data = append(data, *entry)
	}
	return domain.HistoryResponse{Total: int64(len(data)), Data: data}
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

// parseAmount accepts a positive decimal string with at most two
// fractional digits. Money never travels as a float.
func parseAmount(value string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Decimal{}, domain.ErrInvalidAmount
	}
	if !amount.IsPositive() {
		return decimal.Decimal{}, domain.ErrInvalidAmount
	}
	if amount.Exponent() < -2 {
		return decimal.Decimal{}, domain.ErrInvalidAmount
	}
	return amount, nil
}
