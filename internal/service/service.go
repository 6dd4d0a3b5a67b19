// Package service реализует бизнес-логику сервиса корзины.
package service

import (
	"context"
	"errors"

	"github.com/akozyrev/shopcart-system/internal/model"
)

// Ошибки бизнес-логики. Тексты отдаются HTTP-слоем клиенту дословно.
var (
	// ErrEmailTaken возвращается при регистрации с уже занятым email.
	ErrEmailTaken = errors.New("user already exists, please login")
	// ErrInvalidCredentials возвращается при неверном email или пароле.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrCartNotFound возвращается, когда у пользователя ещё нет корзины.
	ErrCartNotFound = errors.New("cart not found")
	// ErrNoCart возвращается из операций изменения, требующих существующей корзины.
	ErrNoCart = errors.New("no cart")
	// ErrAlreadyInCart возвращается при повторном добавлении товара.
	ErrAlreadyInCart = errors.New("already in cart")
	// ErrNotInCart возвращается, если изменяемого товара нет в корзине.
	ErrNotInCart = errors.New("not in cart")
	// ErrUnknownProduct возвращается, если товара нет в каталоге.
	ErrUnknownProduct = errors.New("product not found")
	// ErrEmptyCart возвращается при оформлении пустой корзины.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrAddressNotSet возвращается при оформлении без адреса доставки.
	ErrAddressNotSet = errors.New("address not set")
	// ErrInsufficientFunds возвращается, когда стоимость корзины превышает баланс кошелька.
	ErrInsufficientFunds = errors.New("insufficient money")
	// ErrCartCreate возвращается, если ленивое создание корзины не удалось.
	ErrCartCreate = errors.New("failed to create cart")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
// Методы поиска возвращают (nil, nil), если документ отсутствует:
// отсутствие — допустимый результат, его интерпретирует вызывающий.
type Repository interface {
	Close() error
	CreateUser(ctx context.Context, u *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	SaveUser(ctx context.Context, u *model.User) error
	GetProductByID(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetCartByEmail(ctx context.Context, email string) (*model.Cart, error)
	CreateCart(ctx context.Context, c *model.Cart) error
	SaveCart(ctx context.Context, c *model.Cart) error
	Checkout(ctx context.Context, userID, email string, totalCents int64) error
}

// Service содержит бизнес-логику сервиса корзины.
type Service struct {
	repo                 Repository
	defaultWalletCents   int64
	defaultPaymentOption string
}

// NewService создаёт новый сервис. defaultWalletCents — стартовый кредит
// кошелька нового пользователя, defaultPaymentOption — способ оплаты,
// назначаемый новой корзине.
func NewService(repo Repository, defaultWalletCents int64, defaultPaymentOption string) *Service {
	return &Service{
		repo:                 repo,
		defaultWalletCents:   defaultWalletCents,
		defaultPaymentOption: defaultPaymentOption,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// ListProducts возвращает каталог товаров.
func (s *Service) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.repo.ListProducts(ctx)
}
