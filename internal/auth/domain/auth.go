package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/resellops/backoffice/internal/actorctx"
	"github.com/resellops/backoffice/internal/authorization"
)

// SessionKind separates operator logins from supplier tokens. The two
// surfaces share the session store but never each other's routes.
type SessionKind string

const (
	KindStaff    SessionKind = "staff"
	KindSupplier SessionKind = "supplier"
)

// Session is one live bearer token. Token doubles as the store key.
type Session struct {
	Token     string             `json:"token"`
	Kind      SessionKind        `json:"kind"`
	SubjectID snowflake.ID       `json:"subject_id"`
	Name      string             `json:"name"`
	Role      authorization.Role `json:"role"`
	ExpiresAt time.Time          `json:"expires_at"`
}

func (s Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Actor maps the session onto the request actor. Supplier sessions
// carry their account id so reads stay scoped to their own data.
func (s Session) Actor() actorctx.Actor {
	actor := actorctx.Actor{
		OperatorID: s.SubjectID,
		Name:       s.Name,
		Role:       s.Role,
	}
	if s.Kind == KindSupplier {
		actor.AccountID = s.SubjectID
	}
	return actor
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrAccountDisabled    = errors.New("account_disabled")
)

// Store persists sessions keyed by token.
type Store interface {
	Save(ctx context.Context, session Session) error
	Get(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SupplierTokenRequest struct {
	Mobile   string `json:"mobile"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Identity struct {
	ID   snowflake.ID       `json:"id"`
	Name string             `json:"name"`
	Role authorization.Role `json:"role"`
	Kind SessionKind        `json:"kind"`
}

type Service interface {
	Login(ctx context.Context, req LoginRequest) (TokenResponse, error)
	SupplierToken(ctx context.Context, req SupplierTokenRequest) (TokenResponse, error)
	Resolve(ctx context.Context, token string) (*Session, error)
	Me(ctx context.Context, token string) (Identity, error)
	Logout(ctx context.Context, token string) error
}
