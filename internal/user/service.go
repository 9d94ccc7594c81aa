package user

import (
	"context"
	"errors"

	"marketplace-be/internal/logger"
	"marketplace-be/internal/utils"

	"go.uber.org/zap"
)

type Service interface {
	Register(ctx context.Context, email, password string) (*User, error)
	Login(ctx context.Context, email, password string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	CreateUser(ctx context.Context, email, password string, role Role) (*User, error)
	// AssignRole reports changed=false when the target already holds role.
	AssignRole(ctx context.Context, actor *User, targetID int64, role Role) (u *User, changed bool, err error)
	EnsureSuperadmin(ctx context.Context, email, password string) (*User, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Register(ctx context.Context, email, password string) (*User, error) {
	return s.CreateUser(ctx, email, password, RoleUser)
}

func (s *service) CreateUser(ctx context.Context, email, password string, role Role) (*User, error) {
	log := logger.FromCtx(ctx).With(zap.String("layer", "service"), zap.String("method", "CreateUser"))

	email = utils.NormalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	hashed, err := HashPassword(password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return nil, err
	}

	u, err := s.repo.Create(ctx, email, hashed, role)
	if err != nil {
		if !errors.Is(err, ErrEmailExists) {
			log.Error("failed to create user", zap.String("email", email), zap.Error(err))
		}
		return nil, err
	}

	log.Info("user created",
		zap.Int64("user_id", u.ID),
		zap.String("email", email),
		zap.String("role", string(role)),
	)
	return u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*User, error) {
	log := logger.FromCtx(ctx).With(zap.String("layer", "service"), zap.String("method", "Login"))

	u, err := s.repo.FindByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			log.Info("login rejected: email not found")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !CheckPasswordHash(password, u.PasswordHash) {
		log.Info("login rejected: password mismatch", zap.Int64("user_id", u.ID))
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrInactiveUser
	}

	return u, nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) ListUsers(ctx context.Context) ([]*User, error) {
	return s.repo.List(ctx)
}

func (s *service) AssignRole(ctx context.Context, actor *User, targetID int64, role Role) (*User, bool, error) {
	log := logger.FromCtx(ctx).With(zap.String("layer", "service"), zap.String("method", "AssignRole"))

	if err := RequireRole(actor, RoleSuperadmin); err != nil {
		return nil, false, err
	}
	if !role.Valid() {
		return nil, false, ErrInvalidRole
	}
	if role == RoleSuperadmin {
		return nil, false, ErrCannotAssignSuperuser
	}

	target, err := s.repo.FindByID(ctx, targetID)
	if err != nil {
		return nil, false, err
	}
	if target.Role == RoleSuperadmin {
		return nil, false, ErrCannotModifySuperuser
	}
	if target.Role == role {
		return target, false, nil
	}

	updated, err := s.repo.UpdateRole(ctx, targetID, role)
	if err != nil {
		return nil, false, err
	}

	log.Info("role assigned",
		zap.Int64("actor_id", actor.ID),
		zap.Int64("target_id", targetID),
		zap.String("from", string(target.Role)),
		zap.String("to", string(role)),
	)
	return updated, true, nil
}

// EnsureSuperadmin creates the bootstrap superadmin, or promotes the
// existing account with that email.
func (s *service) EnsureSuperadmin(ctx context.Context, email, password string) (*User, error) {
	log := logger.FromCtx(ctx).With(zap.String("layer", "service"), zap.String("method", "EnsureSuperadmin"))

	existing, err := s.repo.FindByEmail(ctx, utils.NormalizeEmail(email))
	switch {
	case err == nil:
		if existing.Role == RoleSuperadmin {
			return existing, nil
		}
		log.Info("promoting existing user to superadmin", zap.Int64("user_id", existing.ID))
		return s.repo.UpdateRole(ctx, existing.ID, RoleSuperadmin)
	case errors.Is(err, ErrUserNotFound):
		return s.CreateUser(ctx, email, password, RoleSuperadmin)
	default:
		return nil, err
	}
}
