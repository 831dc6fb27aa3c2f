// Package auth implements the token-issuance protocol: registration, login,
// refresh rotation, logout and identity introspection for one principal
// kind. The same Service type runs the user and employee flows; the kind
// descriptor (directory, codec, default roles, kind tag) is the only thing
// that differs between the two instances.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/creditdesk/authd/internal/hash"
	"github.com/creditdesk/authd/internal/logging"
	"github.com/creditdesk/authd/internal/tokens"
)

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Profile is the public projection returned by Whoami.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"createdAt"`
}

type Service struct {
	Kind         string
	DefaultRoles []string
	Directory    Directory
	Tokens       *tokens.Codec
	Store        *RefreshTokenStore
}

func NewService(kind string, defaultRoles []string, dir Directory, codec *tokens.Codec, store *RefreshTokenStore) *Service {
	return &Service{
		Kind:         kind,
		DefaultRoles: defaultRoles,
		Directory:    dir,
		Tokens:       codec,
		Store:        store,
	}
}

func (s *Service) Register(ctx context.Context, email, password string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register", "kind", s.Kind)

	email = NormalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		l.Error("register_failed", "reason", "hash", "error", err)
		return nil, fmt.Errorf("hash password: %w", err)
	}

	p, err := s.Directory.Create(ctx, email, pwHash, s.DefaultRoles)
	if err != nil {
		if errors.Is(err, ErrConflict) {
			l.Warn("register_failed", "reason", "email_taken")
			return nil, ErrConflict
		}
		l.Error("register_failed", "reason", "store", "error", err)
		return nil, err
	}

	pair, err := s.issuePair(ctx, p)
	if err != nil {
		l.Error("register_failed", "reason", "issue", "error", err)
		return nil, err
	}

	l.Info("register_success", "subject", p.ID)
	return pair, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "kind", s.Kind)

	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrValidation
	}

	p, err := s.Directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			l.Warn("login_failed", "reason", "invalid_credentials")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !hash.CheckPassword(p.PasswordHash, password) {
		l.Warn("login_failed", "reason", "invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, p)
	if err != nil {
		l.Error("login_failed", "reason", "issue", "error", err)
		return nil, err
	}

	l.Info("login_success", "subject", p.ID)
	return pair, nil
}

// Refresh exchanges a live refresh token for a new pair. The old record is
// deleted before the new one is written; a token string can therefore be
// exchanged successfully at most once, and a replay always reports not
// found. Under a concurrent double exchange the delete's row count decides
// the winner.
func (s *Service) Refresh(ctx context.Context, raw string) (*TokenPair, error) {
	l := logging.FromContext(ctx).With("svc", "auth.refresh", "kind", s.Kind)

	if err := validateRefreshString(raw); err != nil {
		return nil, err
	}

	rec, err := s.Store.Find(ctx, s.Kind, raw)
	if err != nil {
		return nil, err
	}
	if rec.RevokedAt != nil {
		l.Warn("refresh_failed", "reason", "revoked")
		return nil, ErrTokenNotFound
	}
	if rec.ExpiresAt.Before(time.Now()) {
		if _, err := s.Store.Delete(ctx, s.Kind, raw); err != nil {
			return nil, err
		}
		l.Warn("refresh_failed", "reason", "record_expired")
		return nil, ErrTokenExpired
	}

	claims, err := s.Tokens.ParseRefresh(raw)
	if err != nil {
		if _, derr := s.Store.Delete(ctx, s.Kind, raw); derr != nil {
			return nil, derr
		}
		l.Warn("refresh_failed", "reason", "verify", "error", err)
		return nil, ErrInvalidToken
	}

	p, err := s.Directory.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrPrincipalNotFound) {
			if _, derr := s.Store.Delete(ctx, s.Kind, raw); derr != nil {
				return nil, derr
			}
			l.Warn("refresh_failed", "reason", "subject_gone")
			return nil, ErrPrincipalNotFound
		}
		return nil, err
	}

	n, err := s.Store.Delete(ctx, s.Kind, raw)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// A concurrent exchange of the same token got here first.
		l.Warn("refresh_failed", "reason", "lost_rotation_race")
		return nil, ErrTokenNotFound
	}

	pair, err := s.issuePair(ctx, p)
	if err != nil {
		l.Error("refresh_failed", "reason", "issue", "error", err)
		return nil, err
	}

	l.Info("refresh_success", "subject", p.ID)
	return pair, nil
}

func (s *Service) Logout(ctx context.Context, raw string) error {
	if raw == "" {
		return ErrValidation
	}
	// Deleting zero rows is still a successful logout.
	_, err := s.Store.Delete(ctx, s.Kind, raw)
	return err
}

func (s *Service) Whoami(ctx context.Context, subjectID string) (*Profile, error) {
	p, err := s.Directory.FindByID(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	return &Profile{
		ID:        p.ID,
		Email:     p.Email,
		Roles:     p.Roles,
		CreatedAt: p.CreatedAt,
	}, nil
}

// issuePair mints both tokens and persists the refresh record last, so a
// store fault never leaves a dangling record without a token. The stored
// expiry is read back out of the signed refresh token itself, keeping the
// persisted copy an exact mirror of the exp claim.
func (s *Service) issuePair(ctx context.Context, p *Principal) (*TokenPair, error) {
	access, err := s.Tokens.IssueAccess(p.ID, p.Email, p.Roles)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.Tokens.IssueRefresh(p.ID)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}

	claims, err := s.Tokens.ParseRefresh(refresh)
	if err != nil {
		return nil, fmt.Errorf("verify issued refresh token: %w", err)
	}
	if err := s.Store.Save(ctx, refresh, p.ID, s.Kind, claims.ExpiresAt.Time); err != nil {
		return nil, fmt.Errorf("persist refresh token: %w", err)
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
