package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/resellops/backoffice/internal/actorctx"
	"github.com/resellops/backoffice/internal/authorization"
	"github.com/resellops/backoffice/internal/user/domain"
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
		log:   p.Log.Named("user.service"),
		genID: p.GenID,
		repo:  p.Repo,
		authz: p.AuthzSvc,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateUserRequest) (domain.User, error) {
	if err := s.authorize(ctx, authorization.ActionUserManage); err != nil {
		return domain.User{}, err
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		return domain.User{}, domain.ErrInvalidUsername
	}
	if len(req.Password) < 6 {
		return domain.User{}, domain.ErrInvalidPassword
	}
	role, err := staffRole(req.Role)
	if err != nil {
		return domain.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}

	var user domain.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByUsername(ctx, tx, username)
		if err != nil {
			return err
		}
		if existing != nil {
			return domain.ErrUsernameTaken
		}

		now := time.Now().UTC()
		user = domain.User{
			ID:           s.genID.Generate(),
			Username:     username,
			Nickname:     strings.TrimSpace(req.Nickname),
			PasswordHash: string(hash),
			Role:         role,
			Status:       domain.StatusActive,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return s.repo.Insert(ctx, tx, &user)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.User{}, domain.ErrUsernameTaken
		}
		return domain.User{}, err
	}

	s.log.Info("user created",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)),
	)
	return user, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateUserRequest) (domain.User, error) {
	if err := s.authorize(ctx, authorization.ActionUserManage); err != nil {
		return domain.User{}, err
	}

	id, err := parseID(req.ID)
	if err != nil {
		return domain.User{}, err
	}

	var user domain.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrNotFound
		}

		if nickname := strings.TrimSpace(req.Nickname); nickname != "" {
			existing.Nickname = nickname
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
		if req.Role != "" {
			role, err := staffRole(req.Role)
			if err != nil {
				return err
			}
			existing.Role = role
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
		user = *existing
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (s *Service) Detail(ctx context.Context, id string) (domain.User, error) {
	if err := s.authorize(ctx, authorization.ActionUserView); err != nil {
		return domain.User{}, err
	}

	parsed, err := parseID(id)
	if err != nil {
		return domain.User{}, err
	}

	user, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return domain.User{}, err
	}
	if user == nil {
		return domain.User{}, domain.ErrNotFound
	}
	return *user, nil
}

func (s *Service) List(ctx context.Context, req domain.ListUserRequest) (domain.ListUserResponse, error) {
	if err := s.authorize(ctx, authorization.ActionUserView); err != nil {
		return domain.ListUserResponse{}, err
	}

	users, total, err := s.repo.List(ctx, s.db, strings.TrimSpace(req.Keyword), req.Pagination)
	if err != nil {
		return domain.ListUserResponse{}, err
	}

	data := make([]domain.User, 0, len(users))
	for _, user := range users {
		if user == nil {
			continue
		}
		data = append(data, *user)
	}
	return domain.ListUserResponse{Total: total, Data: data}, nil
}

func (s *Service) authorize(ctx context.Context, action string) error {
	actor, ok := actorctx.FromContext(ctx)
	if !ok {
		return authorization.ErrForbidden
	}
	return s.authz.Authorize(ctx, actor.Role, authorization.ObjectUser, action)
}

// staffRole parses a role for an operator account; suppliers are not
// operators and cannot hold a back-office login.
func staffRole(value string) (authorization.Role, error) {
	role, err := authorization.ParseRole(value)
	if err != nil {
		return "", domain.ErrInvalidRole
	}
	if role == authorization.RoleSupplier {
		return "", domain.ErrInvalidRole
	}
	return role, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
