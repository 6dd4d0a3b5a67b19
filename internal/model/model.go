// Package model содержит доменные сущности сервиса корзины.
package model

import "time"

// User представляет зарегистрированного пользователя магазина.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash []byte
	WalletCents  int64
	Address      *Address
	CreatedAt    time.Time
}

// HasAddress сообщает, указывал ли пользователь адрес доставки.
// Пока адрес не задан, оформление заказа невозможно.
func (u *User) HasAddress() bool {
	return u.Address != nil
}

// Address описывает адрес доставки пользователя.
type Address struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Product описывает товар каталога. Цена хранится в копейках.
type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CostCents   int64  `json:"cost"`
	ImageURL    string `json:"image_url"`
}

// Cart описывает корзину пользователя. Корзина привязана к email,
// на один email приходится не более одной корзины.
type Cart struct {
	UserEmail     string
	PaymentOption string
	Items         []CartItem
	CreatedAt     time.Time
}

// FindItem возвращает индекс позиции с указанным товаром или -1.
// Товары в корзине уникальны, поэтому совпадение не более одного.
func (c *Cart) FindItem(productID string) int {
	for i, item := range c.Items {
		if item.Product.ID == productID {
			return i
		}
	}
	return -1
}

// TotalCents возвращает полную стоимость корзины в копейках.
func (c *Cart) TotalCents() int64 {
	var total int64
	for _, item := range c.Items {
		total += item.Product.CostCents * int64(item.Quantity)
	}
	return total
}

// CartItem описывает позицию корзины: товар целиком (а не только
// идентификатор) и положительное количество.
type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}
