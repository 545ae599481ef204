package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/taskapi/domain"
	"github.com/fastygo/taskapi/pkg/logger"
	"github.com/fastygo/taskapi/pkg/passwd"
	"github.com/fastygo/taskapi/pkg/token"
	"github.com/fastygo/taskapi/pkg/validation"
	"github.com/fastygo/taskapi/repository"
)

// RegisterInput is a decoded registration request.
type RegisterInput struct {
	Name      string
	Email     string
	Password  string
	UserAgent string
}

// LoginInput is a decoded login request.
type LoginInput struct {
	Email     string
	Password  string
	UserAgent string
}

// Result is what a successful register or login hands back to the client.
type Result struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// UseCase issues tokens and tracks the sessions behind them. With a nil
// SessionRepository tokens are stateless and logout is a no-op.
type UseCase struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	hasher   passwd.Hasher
	tokens   *token.Manager
	logger   *zap.Logger
	now      func() time.Time
}

func New(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	hasher passwd.Hasher,
	tokens *token.Manager,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		tokens:   tokens,
		logger:   logger,
		now:      time.Now,
	}
}

func (uc *UseCase) Register(ctx context.Context, in RegisterInput) (*Result, error) {
	if err := validation.Validate(registerRules, validation.Input{
		"name":     validation.Present(in.Name),
		"email":    validation.Present(strings.TrimSpace(in.Email)),
		"password": validation.Present(in.Password),
	}); err != nil {
		return nil, err
	}

	digest, err := uc.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	user, err := uc.users.Create(ctx, &domain.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        domain.NormalizeEmail(in.Email),
		PasswordHash: digest,
	})
	if errors.Is(err, domain.ErrEmailTaken) {
		return nil, domain.NewValidationError("email", domain.ErrEmailTaken.Message)
	}
	if err != nil {
		return nil, err
	}

	logger.WithContext(ctx, uc.logger).Info("user registered", zap.String("user_id", user.ID))
	return uc.issue(ctx, user, in.UserAgent)
}

// Login checks credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (uc *UseCase) Login(ctx context.Context, in LoginInput) (*Result, error) {
	if err := validation.Validate(loginRules, validation.Input{
		"email":    validation.Present(strings.TrimSpace(in.Email)),
		"password": validation.Present(in.Password),
	}); err != nil {
		return nil, err
	}

	user, err := uc.users.GetByEmail(ctx, domain.NormalizeEmail(in.Email))
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := uc.hasher.Verify(in.Password, user.PasswordHash); err != nil {
		if errors.Is(err, passwd.ErrMismatch) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	return uc.issue(ctx, user, in.UserAgent)
}

// Authenticate resolves a bearer token to its claims. A token whose session
// was revoked or has expired is rejected.
func (uc *UseCase) Authenticate(ctx context.Context, raw string) (*token.Claims, error) {
	claims, err := uc.tokens.Parse(raw)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeUnauthorized, domain.ErrUnauthorized.Message, err)
	}
	if uc.sessions == nil {
		return claims, nil
	}
	if claims.SessionID == "" {
		return nil, domain.ErrUnauthorized
	}

	session, err := uc.sessions.Get(ctx, claims.SessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if session.UserID != claims.UserID {
		return nil, domain.ErrUnauthorized
	}
	if session.IsExpired(uc.now()) {
		_ = uc.sessions.Delete(ctx, session.ID)
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

// Logout revokes the session behind a token.
func (uc *UseCase) Logout(ctx context.Context, sessionID string) error {
	if uc.sessions == nil || sessionID == "" {
		return nil
	}
	if err := uc.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	logger.WithContext(ctx, uc.logger).Debug("session revoked", zap.String("session_id", sessionID))
	return nil
}

func (uc *UseCase) issue(ctx context.Context, user *domain.User, userAgent string) (*Result, error) {
	sessionID := ""
	if uc.sessions != nil {
		sessionID = uuid.NewString()
	}

	signed, expires, err := uc.tokens.Issue(user.ID, sessionID)
	if err != nil {
		return nil, err
	}

	if uc.sessions != nil {
		session := &domain.Session{
			ID:        sessionID,
			UserID:    user.ID,
			UserAgent: userAgent,
			CreatedAt: uc.now(),
			ExpiresAt: expires,
		}
		if err := uc.sessions.Save(ctx, session); err != nil {
			return nil, err
		}
	}

	return &Result{Token: signed, ExpiresAt: expires, User: user}, nil
}
