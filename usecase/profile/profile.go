package profile

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fastygo/taskapi/domain"
	"github.com/fastygo/taskapi/pkg/logger"
	"github.com/fastygo/taskapi/pkg/optional"
	"github.com/fastygo/taskapi/pkg/passwd"
	"github.com/fastygo/taskapi/pkg/validation"
	"github.com/fastygo/taskapi/repository"
)

type UseCase struct {
	users  repository.UserRepository
	hasher passwd.Hasher
	logger *zap.Logger
}

func New(users repository.UserRepository, hasher passwd.Hasher, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:  users,
		hasher: hasher,
		logger: logger,
	}
}

func (uc *UseCase) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	return uc.users.GetByID(ctx, userID)
}

// UpdateProfile applies the present fields of patch. An email already held
// by another user is reported as a field error on "email".
func (uc *UseCase) UpdateProfile(ctx context.Context, userID string, patch domain.UserPatch) (*domain.User, error) {
	if err := validation.Validate(updateRules, validation.Input{
		"name":  validation.FromField(patch.Name),
		"email": validation.FromField(patch.Email),
	}); err != nil {
		return nil, err
	}
	if patch.Email.Set {
		patch.Email = optional.Of(domain.NormalizeEmail(patch.Email.Value))
	}

	user, err := uc.users.Update(ctx, userID, patch)
	if errors.Is(err, domain.ErrEmailTaken) {
		return nil, domain.NewValidationError("email", domain.ErrEmailTaken.Message)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ChangePassword replaces the stored digest once current has been verified.
// Existing sessions stay valid.
func (uc *UseCase) ChangePassword(ctx context.Context, userID, current, next string) error {
	if err := validation.Validate(passwordRules, validation.Input{
		"currentPassword": validation.Present(current),
		"newPassword":     validation.Present(next),
	}); err != nil {
		return err
	}

	user, err := uc.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := uc.hasher.Verify(current, user.PasswordHash); err != nil {
		if errors.Is(err, passwd.ErrMismatch) {
			return domain.ErrWrongPassword
		}
		return err
	}

	digest, err := uc.hasher.Hash(next)
	if err != nil {
		return err
	}
	if err := uc.users.SetPasswordHash(ctx, userID, digest); err != nil {
		return err
	}
	logger.WithContext(ctx, uc.logger).Info("password changed")
	return nil
}
