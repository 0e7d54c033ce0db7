package authorization

import (
	"context"
	_ "embed"
	"errors"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ObjectPayment  = "payment"
	ObjectAuditLog = "audit_log"
	ObjectReceipt  = "receipt"
	ObjectAccount  = "account"
	ObjectGoods    = "goods"
	ObjectOrder    = "order"
	ObjectUser     = "user"
)

const (
	ActionPaymentSubmit  = "payment.submit"
	ActionPaymentApprove = "payment.approve"
	ActionPaymentReject  = "payment.reject"
	ActionPaymentView    = "payment.view"

	ActionAuditLogView = "audit_log.view"

	ActionReceiptView      = "receipt.view"
	ActionReceiptViewOwn   = "receipt.view_own"
	ActionReceiptTombstone = "receipt.tombstone"
	ActionReceiptRecompute = "receipt.recompute"

	ActionAccountManage = "account.manage"
	ActionAccountView   = "account.view"

	ActionGoodsView = "goods.view"
	ActionOrderView = "order.view"

	ActionUserManage = "user.manage"
	ActionUserView   = "user.view"
)

var (
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
)

// Service decides whether an actor role may perform an action. The check is
// made before any mutating resource is acquired, so a denial never holds a
// lock or leaves partial state.
type Service interface {
	Authorize(ctx context.Context, role Role, object string, action string) error
}

var Module = fx.Module("authorization.service",
	fx.Provide(NewEnforcer),
	fx.Provide(NewService),
)

type Params struct {
	fx.In

	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type ServiceImpl struct {
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, role Role, object string, action string) error {
	if _, err := ParseRole(string(role)); err != nil {
		return ErrForbidden
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	allowed, err := s.enforcer.Enforce(role.subject(), object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("authorization denied",
			zap.String("role", string(role)),
			zap.String("object", object),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		{"role:admin", ObjectPayment, ActionPaymentApprove},
		{"role:admin", ObjectPayment, ActionPaymentReject},
		{"role:admin", ObjectPayment, ActionPaymentView},
		{"role:admin", ObjectAuditLog, ActionAuditLogView},
		{"role:admin", ObjectReceipt, ActionReceiptView},
		{"role:admin", ObjectReceipt, ActionReceiptTombstone},
		{"role:admin", ObjectReceipt, ActionReceiptRecompute},
		{"role:admin", ObjectAccount, ActionAccountManage},
		{"role:admin", ObjectAccount, ActionAccountView},
		{"role:admin", ObjectGoods, ActionGoodsView},
		{"role:admin", ObjectOrder, ActionOrderView},
		{"role:admin", ObjectUser, ActionUserView},

		{"role:super", ObjectUser, ActionUserManage},

		{"role:supplier", ObjectPayment, ActionPaymentSubmit},
		{"role:supplier", ObjectPayment, ActionPaymentView},
		{"role:supplier", ObjectAuditLog, ActionAuditLogView},
		{"role:supplier", ObjectReceipt, ActionReceiptViewOwn},
	}

	for _, p := range policies {
		has, err := enforcer.HasPolicy(p[0], p[1], p[2])
		if err != nil {
			return err
		}
		if !has {
			if _, err := enforcer.AddPolicy(p[0], p[1], p[2]); err != nil {
				return err
			}
		}
	}

	// Super inherits everything admin can do.
	has, err := enforcer.HasGroupingPolicy("role:super", "role:admin")
	if err != nil {
		return err
	}
	if !has {
		if _, err := enforcer.AddGroupingPolicy("role:super", "role:admin"); err != nil {
			return err
		}
	}
	return nil
}
