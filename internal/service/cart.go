package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/akozyrev/shopcart-system/internal/model"
	"github.com/akozyrev/shopcart-system/internal/repository"
)

// GetCartByUser возвращает корзину пользователя или ErrCartNotFound.
func (s *Service) GetCartByUser(ctx context.Context, u *model.User) (*model.Cart, error) {
	cart, err := s.repo.GetCartByEmail(ctx, u.Email)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrCartNotFound
	}
	return cart, nil
}

// AddProductToCart добавляет товар в корзину пользователя, создавая корзину
// при первом обращении. Операция строго вставляющая: повторное добавление
// того же товара не меняет количество, а завершается ErrAlreadyInCart.
func (s *Service) AddProductToCart(ctx context.Context, u *model.User, productID string, quantity int) (*model.Cart, error) {
	cart, err := s.repo.GetCartByEmail(ctx, u.Email)
	if err != nil {
		return nil, err
	}

	if cart == nil {
		cart = &model.Cart{
			UserEmail:     u.Email,
			PaymentOption: s.defaultPaymentOption,
			Items:         []model.CartItem{},
		}
		if err := s.repo.CreateCart(ctx, cart); err != nil {
			// Сюда попадает и гонка с параллельным создателем корзины.
			return nil, fmt.Errorf("%w: %v", ErrCartCreate, err)
		}
	}

	if cart.FindItem(productID) >= 0 {
		return nil, ErrAlreadyInCart
	}

	product, err := s.repo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrUnknownProduct
	}

	cart.Items = append(cart.Items, model.CartItem{
		Product:  *product,
		Quantity: quantity,
	})

	if err := s.repo.SaveCart(ctx, cart); err != nil {
		return nil, err
	}

	return cart, nil
}

// UpdateProductInCart заменяет количество товара в корзине. Требует уже
// существующей корзины и присутствующего в ней товара. Положительность
// количества проверяет HTTP-слой.
func (s *Service) UpdateProductInCart(ctx context.Context, u *model.User, productID string, quantity int) (*model.Cart, error) {
	cart, err := s.repo.GetCartByEmail(ctx, u.Email)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrNoCart
	}

	product, err := s.repo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrUnknownProduct
	}

	idx := cart.FindItem(productID)
	if idx < 0 {
		return nil, ErrNotInCart
	}

	cart.Items[idx].Quantity = quantity

	if err := s.repo.SaveCart(ctx, cart); err != nil {
		return nil, err
	}

	return cart, nil
}

// DeleteProductFromCart удаляет товар из корзины пользователя.
func (s *Service) DeleteProductFromCart(ctx context.Context, u *model.User, productID string) error {
	cart, err := s.repo.GetCartByEmail(ctx, u.Email)
	if err != nil {
		return err
	}
	if cart == nil {
		return ErrNoCart
	}

	idx := cart.FindItem(productID)
	if idx < 0 {
		return ErrNotInCart
	}

	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)

	return s.repo.SaveCart(ctx, cart)
}

// Checkout оформляет заказ: проверяет корзину, адрес и платёжеспособность,
// затем одной транзакцией списывает стоимость с кошелька и очищает корзину.
// Возвращает стоимость заказа и новый баланс кошелька в копейках.
func (s *Service) Checkout(ctx context.Context, u *model.User) (int64, int64, error) {
	cart, err := s.repo.GetCartByEmail(ctx, u.Email)
	if err != nil {
		return 0, 0, err
	}
	if cart == nil {
		return 0, 0, ErrCartNotFound
	}

	if len(cart.Items) == 0 {
		return 0, 0, ErrEmptyCart
	}

	if !u.HasAddress() {
		return 0, 0, ErrAddressNotSet
	}

	total := cart.TotalCents()
	if total > u.WalletCents {
		return 0, 0, ErrInsufficientFunds
	}

	if err := s.repo.Checkout(ctx, u.ID, u.Email, total); err != nil {
		// Баланс перепроверяется под блокировкой строки пользователя,
		// параллельное списание может успеть раньше.
		if errors.Is(err, repository.ErrInsufficientBalance) {
			return 0, 0, ErrInsufficientFunds
		}
		return 0, 0, err
	}

	u.WalletCents -= total
	cart.Items = []model.CartItem{}

	return total, u.WalletCents, nil
}
