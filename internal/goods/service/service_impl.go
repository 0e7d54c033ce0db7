package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/resellops/backoffice/internal/actorctx"
	"github.com/resellops/backoffice/internal/authorization"
	"github.com/resellops/backoffice/internal/goods/domain"
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
		log:   p.Log.Named("goods.service"),
		genID: p.GenID,
		repo:  p.Repo,
		authz: p.AuthzSvc,
	}
}

// Upsert imports one storefront SKU, keyed on (goods_id, sku_id).
// Re-importing an existing SKU refreshes its mutable fields.
func (s *Service) Upsert(ctx context.Context, req domain.UpsertGoodsRequest) (domain.Goods, error) {
	if err := s.authorize(ctx); err != nil {
		return domain.Goods{}, err
	}

	externalID := strings.TrimSpace(req.ExternalID)
	skuID := strings.TrimSpace(req.SkuID)
	if externalID == "" || skuID == "" {
		return domain.Goods{}, domain.ErrInvalidExternalID
	}
	price, err := decimal.NewFromString(strings.TrimSpace(req.Price))
	if err != nil || price.IsNegative() {
		return domain.Goods{}, domain.ErrInvalidPrice
	}

	var goods domain.Goods
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByExternalSKU(ctx, tx, externalID, skuID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if existing != nil {
			existing.ProductID = strings.TrimSpace(req.ProductID)
			existing.SkcID = strings.TrimSpace(req.SkcID)
			existing.Title = strings.TrimSpace(req.Title)
			existing.Category = strings.TrimSpace(req.Category)
			existing.Image = strings.TrimSpace(req.Image)
			existing.SkuImage = strings.TrimSpace(req.SkuImage)
			existing.Price = price
			existing.SKUSpecList = req.SKUSpecList
			existing.UpdatedAt = now
			if err := s.repo.Update(ctx, tx, existing); err != nil {
				return err
			}
			goods = *existing
			return nil
		}

		goods = domain.Goods{
			ID:          s.genID.Generate(),
			ExternalID:  externalID,
			ProductID:   strings.TrimSpace(req.ProductID),
			SkcID:       strings.TrimSpace(req.SkcID),
			SkuID:       skuID,
			Title:       strings.TrimSpace(req.Title),
			Category:    strings.TrimSpace(req.Category),
			Image:       strings.TrimSpace(req.Image),
			SkuImage:    strings.TrimSpace(req.SkuImage),
			Price:       price,
			SKUSpecList: req.SKUSpecList,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return s.repo.Insert(ctx, tx, &goods)
	})
	if err != nil {
		return domain.Goods{}, err
	}
	return goods, nil
}

func (s *Service) Detail(ctx context.Context, id string) (domain.Goods, error) {
	if err := s.authorize(ctx); err != nil {
		return domain.Goods{}, err
	}

	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return domain.Goods{}, domain.ErrInvalidID
	}

	goods, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return domain.Goods{}, err
	}
	if goods == nil {
		return domain.Goods{}, domain.ErrNotFound
	}
	return *goods, nil
}

func (s *Service) List(ctx context.Context, req domain.ListGoodsRequest) (domain.ListGoodsResponse, error) {
	if err := s.authorize(ctx); err != nil {
		return domain.ListGoodsResponse{}, err
	}

	goods, total, err := s.repo.List(ctx, s.db, strings.TrimSpace(req.Keyword), strings.TrimSpace(req.Category), req.Pagination)
	if err != nil {
		return domain.ListGoodsResponse{}, err
	}

	data := make([]domain.Goods, 0, len(goods))
	for _, item := range goods {
		if item == nil {
			continue
		}
		data = append(data, *item)
	}
	return domain.ListGoodsResponse{Total: total, Data: data}, nil
}

func (s *Service) authorize(ctx context.Context) error {
	actor, ok := actorctx.FromContext(ctx)
	if !ok {
		return authorization.ErrForbidden
	}
	return s.authz.Authorize(ctx, actor.Role, authorization.ObjectGoods, authorization.ActionGoodsView)
}
