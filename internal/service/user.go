package service

import (
	"context"
	"log/slog"

	"catalog-service/internal/domain"
	"catalog-service/internal/store"
)

// UserService - минимальный справочник пользователей.
type UserService struct {
	users  store.UserStore
	logger *slog.Logger
}

func NewUserService(users store.UserStore, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

func (s *UserService) Create(ctx context.Context, username string) (domain.User, error) {
	user, err := domain.NewUser(username)
	if err != nil {
		return domain.User{}, err
	}
	created, err := s.users.Create(ctx, user)
	if err != nil {
		return domain.User{}, err
	}
	s.logger.InfoContext(ctx, "User created", slog.Int64("userID", int64(created.ID())))
	return created, nil
}

func (s *UserService) Get(ctx context.Context, id domain.ID) (domain.User, error) {
	return s.users.GetByID(ctx, id)
}
