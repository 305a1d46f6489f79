package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dairyroute/realtime-service/internal/adapter/store"
	"github.com/dairyroute/realtime-service/internal/domain/model"
)

// Token scopes. The scope claim is the discriminant between the two
// session token kinds; minting is external, this service only verifies.
const (
	ScopeVendor = "vendor"
	ScopeAdmin  = "admin"
)

var (
	ErrTokenMissing      = errors.New("auth: token missing")
	ErrTokenInvalid      = errors.New("auth: token invalid")
	ErrTokenExpired      = errors.New("auth: token expired")
	ErrUnknownScope      = errors.New("auth: unknown token scope")
	ErrPrincipalNotFound = errors.New("auth: principal not found")
	ErrPrincipalInactive = errors.New("auth: principal inactive")
)

// Auther validates the bearer credential presented at connection time.
// Every failure is fatal to the connection attempt: no session is admitted
// and no event handler attaches. There is no re-auth mid-session; a token
// expiring after admission keeps its principal until reconnect.
type Auther interface {
	Authenticate(ctx context.Context, rawToken string) (model.Principal, error)
}

// Interface guard
var _ Auther = (*AuthService)(nil)

type AuthService struct {
	secret []byte
	store  store.Store
	logger *slog.Logger
}

func NewAuthService(secret []byte, st store.Store, logger *slog.Logger) *AuthService {
	return &AuthService{secret: secret, store: st, logger: logger}
}

type sessionClaims struct {
	Scope string `json:"scope"`
	jwt.RegisteredClaims
}

func (s *AuthService) Authenticate(ctx context.Context, rawToken string) (model.Principal, error) {
	if rawToken == "" {
		return nil, ErrTokenMissing
	}

	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(rawToken, claims,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	switch claims.Scope {
	case ScopeVendor:
		u, err := s.store.FindUser(ctx, claims.Subject)
		if err != nil {
			return nil, s.resolveErr(err, claims.Subject)
		}
		if !u.Active {
			return nil, ErrPrincipalInactive
		}
		return u, nil
	case ScopeAdmin:
		a, err := s.store.FindAdmin(ctx, claims.Subject)
		if err != nil {
			return nil, s.resolveErr(err, claims.Subject)
		}
		if !a.Active {
			return nil, ErrPrincipalInactive
		}
		return a, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScope, claims.Scope)
	}
}

func (s *AuthService) resolveErr(err error, subject string) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrPrincipalNotFound
	}
	s.logger.Warn("principal resolution failed", "subject", subject, "err", err)
	return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
}
