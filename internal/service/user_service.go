package service

import (
	"context"
	"strings"

	"sparks/internal/model"
	"sparks/internal/repository"
)

// UserService resolves the caller of an API or bot request to an active user.
type UserService struct {
	users *repository.UserRepository
}

func NewUserService(users *repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// ByTelegramID returns ErrUserNotFound or ErrUserInactive when the user
// cannot act.
func (s *UserService) ByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := s.users.FindByTelegramID(ctx, telegramID)
	return active(user, err)
}

// ByWallet resolves a user through a linked TON wallet address.
func (s *UserService) ByWallet(ctx context.Context, address string) (*model.User, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, ErrUserNotFound
	}
	user, err := s.users.FindByWalletAddress(ctx, address)
	return active(user, err)
}

// SyncProfile refreshes name fields from Telegram for a registered user.
func (s *UserService) SyncProfile(ctx context.Context, telegramID int64, firstName, lastName, username string) (*model.User, error) {
	user, err := s.users.SyncTelegramProfile(ctx, telegramID, firstName, lastName, username)
	return active(user, err)
}

// ListActive returns every user who can receive reminders.
func (s *UserService) ListActive(ctx context.Context) ([]model.User, error) {
	return s.users.ListActive(ctx)
}

func active(user *model.User, err error) (*model.User, error) {
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	return user, nil
}

// Balance returns the current sparks balance.
func (s *UserService) Balance(ctx context.Context, userID uint) (int64, error) {
	return s.users.Balance(ctx, userID)
}
