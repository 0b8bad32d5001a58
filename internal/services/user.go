package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/suresight/suresight-backend/internal/authz"
	"github.com/suresight/suresight-backend/internal/data/repos/user"
	"github.com/suresight/suresight-backend/internal/pkg/apperr"
	"github.com/suresight/suresight-backend/internal/pkg/logger"
	"github.com/suresight/suresight-backend/internal/requestdata"

	types "github.com/suresight/suresight-backend/internal/domain"
)

type UpdateProfileInput struct {
	FirstName   *string    `json:"first_name,omitempty"`
	MiddleName  *string    `json:"middle_name,omitempty"`
	LastName    *string    `json:"last_name,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	Address     *string    `json:"address,omitempty"`
}

type UserService interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*types.User, error)
	ListUsers(ctx context.Context) ([]*types.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, in UpdateProfileInput) (*types.User, error)
	ChangeRole(ctx context.Context, userID uuid.UUID, role types.Role) (*types.User, error)
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo user.UserRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo user.UserRepo) UserService {
	return &userService{
		db:       db,
		log:      log.With("service", "UserService"),
		userRepo: userRepo,
	}
}

// actorFromContext pulls the authenticated actor or fails unauthorized. All
// services share it.
func actorFromContext(ctx context.Context) (*types.Actor, error) {
	actor := requestdata.GetRequestData(ctx).Actor()
	if actor == nil {
		return nil, apperr.New(apperr.KindUnauthorized, "no authenticated actor")
	}
	return actor, nil
}

// decisionError maps a gate denial onto its typed error. nil when allowed.
func decisionError(d authz.Decision, what string) error {
	switch d {
	case authz.Allow:
		return nil
	case authz.NotFound:
		return apperr.New(apperr.KindNotFound, "%s not found", what)
	default:
		return apperr.New(apperr.KindForbidden, "not allowed to access %s", what)
	}
}

func (us *userService) GetUser(ctx context.Context, userID uuid.UUID) (*types.User, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if dErr := decisionError(authz.Decide(actor, authz.OpRead, authz.Resource{Kind: authz.ResourceUser, OwnerID: userID}), "user"); dErr != nil {
		return nil, dErr
	}
	u, err := us.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "user not found")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

func (us *userService) ListUsers(ctx context.Context) ([]*types.User, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if !actor.Role.Privileged() {
		return nil, apperr.New(apperr.KindForbidden, "not allowed to list users")
	}
	return us.userRepo.List(ctx, nil)
}

func (us *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, in UpdateProfileInput) (*types.User, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if dErr := decisionError(authz.Decide(actor, authz.OpUpdate, authz.Resource{Kind: authz.ResourceUser, OwnerID: userID}), "user"); dErr != nil {
		return nil, dErr
	}

	fields := map[string]any{}
	if in.FirstName != nil {
		if strings.TrimSpace(*in.FirstName) == "" {
			return nil, apperr.New(apperr.KindValidation, "first name must not be empty")
		}
		fields["first_name"] = strings.TrimSpace(*in.FirstName)
	}
	if in.MiddleName != nil {
		fields["middle_name"] = strings.TrimSpace(*in.MiddleName)
	}
	if in.LastName != nil {
		if strings.TrimSpace(*in.LastName) == "" {
			return nil, apperr.New(apperr.KindValidation, "last name must not be empty")
		}
		fields["last_name"] = strings.TrimSpace(*in.LastName)
	}
	if in.DateOfBirth != nil {
		fields["date_of_birth"] = *in.DateOfBirth
	}
	if in.Phone != nil {
		fields["phone"] = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		fields["address"] = strings.TrimSpace(*in.Address)
	}

	if err := us.userRepo.UpdateProfile(ctx, nil, userID, fields); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return us.userRepo.GetByID(ctx, nil, userID)
}

func (us *userService) ChangeRole(ctx context.Context, userID uuid.UUID, role types.Role) (*types.User, error) {
	actor, err := actorFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if dErr := decisionError(authz.Decide(actor, authz.OpChangeRole, authz.Resource{Kind: authz.ResourceUser, OwnerID: userID}), "user"); dErr != nil {
		return nil, dErr
	}
	if !role.Valid() {
		return nil, apperr.New(apperr.KindValidation, "unknown role %q", role)
	}
	if actor.ID == userID {
		return nil, apperr.New(apperr.KindForbidden, "cannot change own role")
	}

	target, err := us.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.New(apperr.KindNotFound, "user not found")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := us.userRepo.UpdateRole(ctx, nil, userID, role); err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}
	us.log.Info("Role changed", "user_id", userID, "from", target.Role, "to", role, "by", actor.ID)
	target.Role = role
	return target, nil
}
