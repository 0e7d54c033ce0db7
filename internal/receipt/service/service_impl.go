package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/resellops/backoffice/internal/actorctx"
	"github.com/resellops/backoffice/internal/authorization"
	"github.com/resellops/backoffice/internal/receipt/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	AuthzSvc authorization.Service
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
	authz authorization.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("receipt.service"),
		genID: p.GenID,
		repo:  p.Repo,
		authz: p.AuthzSvc,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListReceiptRequest) (domain.ListReceiptResponse, error) {
	actor, ok := actorctx.FromContext(ctx)
	if !ok {
		return domain.ListReceiptResponse{}, authorization.ErrForbidden
	}

	accountID := snowflake.ID(0)
	if actor.Role == authorization.RoleSupplier {
		// Suppliers only ever see their own batches.
		if err := s.authz.Authorize(ctx, actor.Role, authorization.ObjectReceipt, authorization.ActionReceiptViewOwn); err != nil {
			return domain.ListReceiptResponse{}, err
		}
		accountID = actor.AccountID
	} else {
		if err := s.authz.Authorize(ctx, actor.Role, authorization.ObjectReceipt, authorization.ActionReceiptView); err != nil {
			return domain.ListReceiptResponse{}, err
		}
		if raw := strings.TrimSpace(req.AccountID); raw != "" {
			parsed, err := snowflake.ParseString(raw)
			if err != nil {
				return domain.ListReceiptResponse{}, domain.ErrInvalidID
			}
			accountID = parsed
		}
	}

	receipts, total, err := s.repo.ListByAccount(ctx, s.db, accountID, req.Pagination)
	if err != nil {
		return domain.ListReceiptResponse{}, err
	}

	data := make([]domain.Receipt, 0, len(receipts))
	for _, receipt := range receipts {
		if receipt == nil {
			continue
		}
		data = append(data, *receipt)
	}
	return domain.ListReceiptResponse{Total: total, Data: data}, nil
}

func (s *Service) Detail(ctx context.Context, req domain.DetailReceiptRequest) (domain.DetailReceiptResponse, error) {
	actor, ok := actorctx.FromContext(ctx)
	if !ok {
		return domain.DetailReceiptResponse{}, authorization.ErrForbidden
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.DetailReceiptResponse{}, err
	}

	receipt, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.DetailReceiptResponse{}, err
	}
	if receipt == nil {
		return domain.DetailReceiptResponse{}, domain.ErrNotFound
	}

	if actor.Role == authorization.RoleSupplier {
		if err := s.authz.Authorize(ctx, actor.Role, authorization.ObjectReceipt, authorization.ActionReceiptViewOwn); err != nil {
			return domain.DetailReceiptResponse{}, err
		}
		if receipt.AccountID != actor.AccountID {
			return domain.DetailReceiptResponse{}, domain.ErrNotFound
		}
	} else {
		if err := s.authz.Authorize(ctx, actor.Role, authorization.ObjectReceipt, authorization.ActionReceiptView); err != nil {
			return domain.DetailReceiptResponse{}, err
		}
	}

	items, err := s.repo.ListItems(ctx, s.db, id)
	if err != nil {
		return domain.DetailReceiptResponse{}, err
	}

	data := make([]domain.ReceiptItem, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		data = append(data, *item)
	}
	return domain.DetailReceiptResponse{Total: int64(len(data)), Data: data}, nil
}

func (s *Service) RecomputeTotals(ctx context.Context, receiptID string) (domain.Receipt, error) {
	actor, ok := actorctx.FromContext(ctx)
	if !ok {
		return domain.Receipt{}, authorization.ErrForbidden
	}
	if err := s.authz.Authorize(ctx, actor.Role, authorization.ObjectReceipt, authorization.ActionReceiptRecompute); err != nil {
		return domain.Receipt{}, err
	}

	id, err := s.parseID(receiptID)
	if err != nil {
		return domain.Receipt{}, err
	}

	var out domain.Receipt
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		receipt, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if receipt == nil {
			return domain.ErrNotFound
		}

		amounts, err := s.repo.ApprovedPaidAmounts(ctx, tx, id)
		if err != nil {
			return err
		}
		received := decimal.Zero
		for _, amount := range amounts {
			received = received.Add(amount)
		}

		now := time.Now().UTC()
		if err := s.repo.SetReceivedPrice(ctx, tx, id, received, now); err != nil {
			return err
		}

		receipt.ReceivedPrice = received
		receipt.UpdatedAt = now
		out = *receipt
		return nil
	})
	if err != nil {
		return domain.Receipt{}, err
	}

	s.log.Info("recomputed receipt totals",
		zap.String("receipt_id", out.ID.String()),
		zap.String("received_price", out.ReceivedPrice.String()),
	)
	return out, nil
}

func (s *Service) Tombstone(ctx context.Context, receiptID string) error {
	actor, ok := actorctx.FromContext(ctx)
	if !ok {
		return authorization.ErrForbidden
	}
	if err := s.authz.Authorize(ctx, actor.Role, authorization.ObjectReceipt, authorization.ActionReceiptTombstone); err != nil {
		return err
	}

	id, err := s.parseID(receiptID)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		receipt, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if receipt == nil {
			return domain.ErrNotFound
		}

		pending, err := s.repo.CountPaymentsByStatus(ctx, tx, id, "pending")
		if err != nil {
			return err
		}
		if pending > 0 {
			return domain.ErrPendingPayments
		}

		return s.repo.Tombstone(ctx, tx, id, time.Now().UTC())
	})
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
