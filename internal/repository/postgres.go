// Package repository содержит реализацию доступа к данным в PostgreSQL.
//
// Корзина хранится как целый документ: одна строка на email пользователя,
// список позиций — в jsonb-колонке. SaveCart перезаписывает документ целиком,
// без токена версии: при конкурентных изменениях побеждает последняя запись.
package repository

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"

	"github.com/akozyrev/shopcart-system/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrUserExists возвращается при попытке создать пользователя с уже занятым email.
var (
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound возвращается, если пользователь не найден при списании.
	ErrUserNotFound = errors.New("user not found")
	// ErrCartExists возвращается, если корзина для email уже создана.
	ErrCartExists = errors.New("cart already exists")
	// ErrInsufficientBalance возвращается при попытке списания суммы, превышающей баланс кошелька.
	ErrInsufficientBalance = errors.New("insufficient balance")
)

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// При старте БД может быть ещё не готова, пингуем с паузами.
	if err := withRetry(ctx, func() error {
		return pool.Ping(ctx)
	}); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// withRetry повторяет операцию при временных ошибках: недоступности соединения,
// serialization failure и deadlock.
func withRetry(ctx context.Context, fn func() error) error {
	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(500*time.Millisecond))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.ConnectionFailure:
				return retry.RetryableError(err)
			}
			return err
		}

		var connErr *pgconn.ConnectError
		if errors.As(err, &connErr) {
			return retry.RetryableError(err)
		}

		return err
	})
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateUser создаёт нового пользователя.
func (r *PostgresRepository) CreateUser(ctx context.Context, u *model.User) error {
	address, err := marshalAddress(u.Address)
	if err != nil {
		return err
	}

	err = r.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, name, password_hash, wallet, address)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.WalletCents, address,
	).Scan(&u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%w: %s", ErrUserExists, u.Email)
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUserByEmail возвращает пользователя по email. Отсутствие пользователя —
// не ошибка: возвращается (nil, nil).
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getUser(ctx,
		`SELECT id, email, name, password_hash, wallet, address, created_at
		 FROM users WHERE email = $1`,
		email,
	)
}

// GetUserByID возвращает пользователя по идентификатору. Отсутствие — (nil, nil).
func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return r.getUser(ctx,
		`SELECT id, email, name, password_hash, wallet, address, created_at
		 FROM users WHERE id = $1`,
		id,
	)
}

func (r *PostgresRepository) getUser(ctx context.Context, query string, arg any) (*model.User, error) {
	var (
		u       model.User
		address []byte
	)
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.WalletCents, &address, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if address != nil {
		u.Address = &model.Address{}
		if err := json.Unmarshal(address, u.Address); err != nil {
			return nil, fmt.Errorf("unmarshal address: %w", err)
		}
	}

	return &u, nil
}

// SaveUser перезаписывает изменяемые поля пользователя целиком.
func (r *PostgresRepository) SaveUser(ctx context.Context, u *model.User) error {
	address, err := marshalAddress(u.Address)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx,
		`UPDATE users SET name = $2, wallet = $3, address = $4 WHERE id = $1`,
		u.ID, u.Name, u.WalletCents, address,
	)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func marshalAddress(a *model.Address) ([]byte, error) {
	if a == nil {
		return nil, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal address: %w", err)
	}
	return b, nil
}

// GetProductByID возвращает товар каталога. Отсутствие товара — (nil, nil).
func (r *PostgresRepository) GetProductByID(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, cost, image_url FROM products WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.CostCents, &p.ImageURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// ListProducts возвращает все товары каталога.
func (r *PostgresRepository) ListProducts(ctx context.Context) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, cost, image_url FROM products ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	var res []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CostCents, &p.ImageURL); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		res = append(res, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// GetCartByEmail возвращает корзину пользователя. Отсутствие корзины — (nil, nil).
func (r *PostgresRepository) GetCartByEmail(ctx context.Context, email string) (*model.Cart, error) {
	var (
		c     model.Cart
		items []byte
	)
	err := r.pool.QueryRow(ctx,
		`SELECT user_email, payment_option, items, created_at FROM carts WHERE user_email = $1`,
		email,
	).Scan(&c.UserEmail, &c.PaymentOption, &items, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	if err := json.Unmarshal(items, &c.Items); err != nil {
		return nil, fmt.Errorf("unmarshal cart items: %w", err)
	}

	return &c, nil
}

// CreateCart создаёт пустую корзину для email.
func (r *PostgresRepository) CreateCart(ctx context.Context, c *model.Cart) error {
	items, err := marshalItems(c.Items)
	if err != nil {
		return err
	}

	err = r.pool.QueryRow(ctx,
		`INSERT INTO carts (user_email, payment_option, items) VALUES ($1, $2, $3)
		 RETURNING created_at`,
		c.UserEmail, c.PaymentOption, items,
	).Scan(&c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%w: %s", ErrCartExists, c.UserEmail)
		}
		return fmt.Errorf("create cart: %w", err)
	}
	return nil
}

// SaveCart перезаписывает документ корзины целиком.
func (r *PostgresRepository) SaveCart(ctx context.Context, c *model.Cart) error {
	items, err := marshalItems(c.Items)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx,
		`UPDATE carts SET payment_option = $2, items = $3 WHERE user_email = $1`,
		c.UserEmail, c.PaymentOption, items,
	)
	if err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func marshalItems(items []model.CartItem) ([]byte, error) {
	if items == nil {
		items = []model.CartItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal cart items: %w", err)
	}
	return b, nil
}

// Checkout списывает сумму с кошелька и очищает корзину одной транзакцией.
// Строка пользователя блокируется, чтобы параллельные оформления не увели
// баланс в минус.
func (r *PostgresRepository) Checkout(ctx context.Context, userID, email string, totalCents int64) error {
	return withRetry(ctx, func() error {
		return r.checkoutTx(ctx, userID, email, totalCents)
	})
}

func (r *PostgresRepository) checkoutTx(ctx context.Context, userID, email string, totalCents int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var wallet int64
	err = tx.QueryRow(ctx, `SELECT wallet FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&wallet)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("lock user for update: %w", err)
	}

	if totalCents > wallet {
		return ErrInsufficientBalance
	}

	_, err = tx.Exec(ctx,
		`UPDATE users SET wallet = wallet - $2 WHERE id = $1`,
		userID, totalCents,
	)
	if err != nil {
		return fmt.Errorf("debit wallet: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE carts SET items = '[]'::jsonb WHERE user_email = $1`,
		email,
	)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}
