package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/akozyrev/shopcart-system/internal/model"
	"github.com/akozyrev/shopcart-system/internal/repository"
)

// RegisterUser регистрирует нового пользователя со стартовым кредитом кошелька.
// Занятый email — ErrEmailTaken; HTTP-слой сознательно отдаёт его со
// статусом успеха, чтобы не раскрывать наличие аккаунта.
func (s *Service) RegisterUser(ctx context.Context, email, name, password string) (*model.User, error) {
	email = normalizeEmail(email)

	existing, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		WalletCents:  s.defaultWalletCents,
	}

	if err := s.repo.CreateUser(ctx, u); err != nil {
		// Гонка двух одновременных регистраций: уникальный индекс по email
		// превращает её в тот же ответ, что и обычный дубль.
		if errors.Is(err, repository.ErrUserExists) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	return u, nil
}

// AuthenticateUser проверяет email и пароль пользователя.
func (s *Service) AuthenticateUser(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// GetUserByID возвращает пользователя по идентификатору, (nil, nil) если не найден.
func (s *Service) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// GetUserByEmail возвращает пользователя по email, (nil, nil) если не найден.
func (s *Service) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.repo.GetUserByEmail(ctx, normalizeEmail(email))
}

// SetAddress перезаписывает адрес доставки пользователя и возвращает сохранённый адрес.
func (s *Service) SetAddress(ctx context.Context, u *model.User, addr *model.Address) (*model.Address, error) {
	u.Address = addr
	if err := s.repo.SaveUser(ctx, u); err != nil {
		return nil, err
	}
	return u.Address, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
