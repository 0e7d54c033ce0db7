package service

import (
	"context"
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	accountdomain "github.com/resellops/backoffice/internal/account/domain"
	"github.com/resellops/backoffice/internal/auth/domain"
	"github.com/resellops/backoffice/internal/authorization"
	"github.com/resellops/backoffice/internal/config"
	userdomain "github.com/resellops/backoffice/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Config      config.Config
	DB          *gorm.DB
	Log         *zap.Logger
	Store       domain.Store
	UserRepo    userdomain.Repository
	AccountRepo accountdomain.Repository
}

type Service struct {
	cfg         config.Config
	db          *gorm.DB
	log         *zap.Logger
	store       domain.Store
	userRepo    userdomain.Repository
	accountRepo accountdomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		cfg:         p.Config,
		db:          p.DB,
		log:         p.Log.Named("auth.service"),
		store:       p.Store,
		userRepo:    p.UserRepo,
		accountRepo: p.AccountRepo,
	}
}

// Login authenticates a back-office operator and issues a bearer token.
func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (domain.TokenResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return domain.TokenResponse{}, domain.ErrInvalidCredentials
	}

	user, err := s.userRepo.FindByUsername(ctx, s.db, username)
	if err != nil {
		return domain.TokenResponse{}, err
	}
	if user == nil {
		return domain.TokenResponse{}, domain.ErrInvalidCredentials
	}
	if user.Status != userdomain.StatusActive {
		return domain.TokenResponse{}, domain.ErrAccountDisabled
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return domain.TokenResponse{}, domain.ErrInvalidCredentials
	}

	name := user.Nickname
	if name == "" {
		name = user.Username
	}
	session := domain.Session{
		Token:     newToken(),
		Kind:      domain.KindStaff,
		SubjectID: user.ID,
		Name:      name,
		Role:      user.Role,
		ExpiresAt: time.Now().UTC().Add(s.cfg.SessionTTL),
	}
	if err := s.store.Save(ctx, session); err != nil {
		return domain.TokenResponse{}, err
	}

	s.log.Info("operator login", zap.String("user_id", user.ID.String()))
	return domain.TokenResponse{Token: session.Token, ExpiresAt: session.ExpiresAt}, nil
}

// SupplierToken authenticates a supplier by mobile number and issues a
// token scoped to their own account.
func (s *Service) SupplierToken(ctx context.Context, req domain.SupplierTokenRequest) (domain.TokenResponse, error) {
	mobile := strings.TrimSpace(req.Mobile)
	if mobile == "" || req.Password == "" {
		return domain.TokenResponse{}, domain.ErrInvalidCredentials
	}

	account, err := s.accountRepo.FindByMobile(ctx, s.db, mobile)
	if err != nil {
		return domain.TokenResponse{}, err
	}
	if account == nil {
		return domain.TokenResponse{}, domain.ErrInvalidCredentials
	}
	if account.Status != accountdomain.StatusActive {
		return domain.TokenResponse{}, domain.ErrAccountDisabled
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)) != nil {
		return domain.TokenResponse{}, domain.ErrInvalidCredentials
	}

	session := domain.Session{
		Token:     newToken(),
		Kind:      domain.KindSupplier,
		SubjectID: account.ID,
		Name:      account.Name,
		Role:      authorization.RoleSupplier,
		ExpiresAt: time.Now().UTC().Add(s.cfg.SessionTTL),
	}
	if err := s.store.Save(ctx, session); err != nil {
		return domain.TokenResponse{}, err
	}

	s.log.Info("supplier token issued", zap.String("account_id", account.ID.String()))
	return domain.TokenResponse{Token: session.Token, ExpiresAt: session.ExpiresAt}, nil
}

// Resolve looks up a live session for the bearer token.
func (s *Service) Resolve(ctx context.Context, token string) (*domain.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrUnauthorized
	}

	session, err := s.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil || session.Expired(time.Now().UTC()) {
		return nil, domain.ErrUnauthorized
	}
	return session, nil
}

func (s *Service) Me(ctx context.Context, token string) (domain.Identity, error) {
	session, err := s.Resolve(ctx, token)
	if err != nil {
		return domain.Identity{}, err
	}
	return domain.Identity{
		ID:   session.SubjectID,
		Name: session.Name,
		Role: session.Role,
		Kind: session.Kind,
	}, nil
}

func (s *Service) Logout(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return s.store.Delete(ctx, token)
}

func newToken() string {
	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), rand.Reader).String()
}
