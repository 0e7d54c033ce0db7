package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/resellops/backoffice/internal/actorctx"
	"github.com/resellops/backoffice/internal/authorization"
	"github.com/resellops/backoffice/internal/order/domain"
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
		log:   p.Log.Named("order.service"),
		genID: p.GenID,
		repo:  p.Repo,
		authz: p.AuthzSvc,
	}
}

// Upsert imports one order line, keyed on (order_sn, sku_id).
func (s *Service) Upsert(ctx context.Context, req domain.UpsertOrderRequest) (domain.Order, error) {
	if err := s.authorize(ctx); err != nil {
		return domain.Order{}, err
	}

	orderSN := strings.TrimSpace(req.OrderSN)
	if orderSN == "" {
		return domain.Order{}, domain.ErrInvalidOrderSN
	}
	price, err := decimal.NewFromString(strings.TrimSpace(req.Price))
	if err != nil || price.IsNegative() {
		return domain.Order{}, domain.ErrInvalidPrice
	}

	var order domain.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindBySN(ctx, tx, orderSN, strings.TrimSpace(req.SkuID))
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if existing != nil {
			existing.GoodsTitle = strings.TrimSpace(req.GoodsTitle)
			existing.Price = price
			existing.Num = req.Num
			existing.Status = strings.TrimSpace(req.Status)
			existing.PurchaseTime = req.PurchaseTime
			existing.Properties = req.Properties
			existing.UpdatedAt = now
			if err := s.repo.Update(ctx, tx, existing); err != nil {
				return err
			}
			order = *existing
			return nil
		}

		order = domain.Order{
			ID:           s.genID.Generate(),
			OrderSN:      orderSN,
			GoodsID:      strings.TrimSpace(req.GoodsID),
			SkuID:        strings.TrimSpace(req.SkuID),
			GoodsTitle:   strings.TrimSpace(req.GoodsTitle),
			Price:        price,
			Num:          req.Num,
			Status:       strings.TrimSpace(req.Status),
			PurchaseTime: req.PurchaseTime,
			Properties:   req.Properties,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return s.repo.Insert(ctx, tx, &order)
	})
	if err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (s *Service) Detail(ctx context.Context, id string) (domain.Order, error) {
	if err := s.authorize(ctx); err != nil {
		return domain.Order{}, err
	}

	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return domain.Order{}, domain.ErrInvalidID
	}

	order, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return domain.Order{}, err
	}
	if order == nil {
		return domain.Order{}, domain.ErrNotFound
	}
	return *order, nil
}

func (s *Service) List(ctx context.Context, req domain.ListOrderRequest) (domain.ListOrderResponse, error) {
	if err := s.authorize(ctx); err != nil {
		return domain.ListOrderResponse{}, err
	}

	orders, total, err := s.repo.List(ctx, s.db, strings.TrimSpace(req.Keyword), strings.TrimSpace(req.Status), req.Pagination)
	if err != nil {
		return domain.ListOrderResponse{}, err
	}

	data := make([]domain.Order, 0, len(orders))
	for _, order := range orders {
		if order == nil {
			continue
		}
		data = append(data, *order)
	}
	return domain.ListOrderResponse{Total: total, Data: data}, nil
}

func (s *Service) authorize(ctx context.Context) error {
	actor, ok := actorctx.FromContext(ctx)
	if !ok {
		return authorization.ErrForbidden
	}
	return s.authz.Authorize(ctx, actor.Role, authorization.ObjectOrder, authorization.ActionOrderView)
}
