package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tekmak/kys-backend/internal/apierr"
	"github.com/tekmak/kys-backend/internal/logger"
	"github.com/tekmak/kys-backend/internal/repos"
	"github.com/tekmak/kys-backend/internal/requestdata"
	"github.com/tekmak/kys-backend/internal/types"
)

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
	ListWelders(ctx context.Context) ([]*types.User, error)
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) UserService {
	serviceLog := log.With("service", "UserService")
	return &userService{db: db, log: serviceLog, userRepo: userRepo}
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		us.log.Warn("Request data not set in context")
		return nil, fmt.Errorf("request data not set in context")
	}
	found, err := us.userRepo.GetByIDs(ctx, nil, []uuid.UUID{rd.UserID})
	if err != nil {
		return nil, apierr.Persistence("user_lookup_failed", err)
	}
	if len(found) == 0 || found[0] == nil {
		return nil, apierr.NotFound("user_not_found", fmt.Errorf("user %s does not exist", rd.UserID))
	}
	return found[0], nil
}

func (us *userService) ListWelders(ctx context.Context) ([]*types.User, error) {
	welders, err := us.userRepo.GetByRole(ctx, nil, types.UserRoleWelder)
	if err != nil {
		return nil, apierr.Persistence("user_lookup_failed", err)
	}
	if welders == nil {
		welders = []*types.User{}
	}
	return welders, nil
}
