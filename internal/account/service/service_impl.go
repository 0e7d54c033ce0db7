package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/resellops/backoffice/internal/account/domain"
	"github.com/resellops/backoffice/internal/actorctx"
	"github.com/resellops/backoffice/internal/authorization"
	"github.com/resellops/backoffice/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
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
		log:   p.Log.Named("account.service"),
		genID: p.GenID,
		repo:  p.Repo,
		authz: p.AuthzSvc,
	}
}

var mobilePattern = regexp.MustCompile(`^[0-9+\-]{6,20}$`)

func (s *Service) Create(ctx context.Context, req domain.CreateAccountRequest) (domain.Account, error) {
	if err := s.authorize(ctx, authorization.ActionAccountManage); err != nil {
		return domain.Account{}, err
	}

	mobile := strings.TrimSpace(req.Mobile)
	if !mobilePattern.MatchString(mobile) {
		return domain.Account{}, domain.ErrInvalidMobile
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Account{}, domain.ErrInvalidName
	}
	if len(req.Password) < 6 {
		return domain.Account{}, domain.ErrInvalidPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Account{}, err
	}

	var account domain.Account
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByMobile(ctx, tx, mobile)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrMobileTaken
		}

		now := time.Now().UTC()
		account = domain.Account{
			ID:           s.genID.Generate(),
			Mobile:       mobile,
			Name:         name,
			PasswordHash: string(hash),
			Status:       domain.StatusActive,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return s.repo.Insert(ctx, tx, &account)
	})
	if err != nil {
		// The pre-check races with concurrent creates; the unique index
		// on mobile is the real guard.
		if db.IsDuplicateKeyErr(err) {
			return domain.Account{}, domain.ErrMobileTaken
		}
		return domain.Account{}, err
	}

	s.log.Info("account created", zap.String("account_id", account.ID.String()))
	return account, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateAccountRequest) (domain.Account, error) {
	if err := s.authorize(ctx, authorization.ActionAccountManage); err != nil {
		return domain.Account{}, err
	}

	id, err := parseID(req.ID)
	if err != nil {
		return domain.Account{}, err
	}

	var account domain.Account
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrNotFound
		}

		if name := strings.TrimSpace(req.Name); name != "" {
			existing.Name = name
		}
		if req.Password != "" {
			if len(req.Password) < 6 {
				return domain.ErrInvalidPassword
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
			if err != nil {
				return err
			}
			existing.PasswordHash = string(hash)
		}
		switch req.Status {
		case "":
		case domain.StatusActive, domain.StatusDisabled:
			existing.Status = req.Status
		default:
			return domain.ErrInvalidID
		}

		existing.UpdatedAt = time.Now().UTC()
		if err := s.repo.Update(ctx, tx, existing); err != nil {
			return err
		}
		account = *existing
		return nil
	})
	if err != nil {
		return domain.Account{}, err
	}
	return account, nil
}

func (s *Service) Detail(ctx context.Context, id string) (domain.Account, error) {
	if err := s.authorize(ctx, authorization.ActionAccountView); err != nil {
		return domain.Account{}, err
	}

	parsed, err := parseID(id)
	if err != nil {
		return domain.Account{}, err
	}

	account, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return domain.Account{}, err
	}
	if account == nil {
		return domain.Account{}, domain.ErrNotFound
	}
	return *account, nil
}

func (s *Service) List(ctx context.Context, req domain.ListAccountRequest) (domain.ListAccountResponse, error) {
	if err := s.authorize(ctx, authorization.ActionAccountView); err != nil {
		return domain.ListAccountResponse{}, err
	}

	accounts, total, err := s.repo.List(ctx, s.db, strings.TrimSpace(req.Keyword), req.Pagination)
	if err != nil {
		return domain.ListAccountResponse{}, err
	}

	data := make([]domain.Account, 0, len(accounts))
	for _, account := range accounts {
		if account == nil {
			continue
		}
		data = append(data, *account)
	}
	return domain.ListAccountResponse{Total: total, Data: data}, nil
}

func (s *Service) Disable(ctx context.Context, id string) error {
	_, err := s.Update(ctx, domain.UpdateAccountRequest{ID: id, Status: domain.StatusDisabled})
	return err
}

func (s *Service) authorize(ctx context.Context, action string) error {
	actor, ok := actorctx.FromContext(ctx)
	if !ok {
		return authorization.ErrForbidden
	}
	return s.authz.Authorize(ctx, actor.Role, authorization.ObjectAccount, action)
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
