package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/shop/internal/domain"
)

const (
	opTimeout = 5 * time.Second
)

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository создаёт PostgreSQL-реализацию CartRepository.
func NewCartRepository(store *Store) domain.CartRepository {
	return &cartRepository{db: store.DB()}
}

func (r *cartRepository) Create(cart domain.Cart) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO carts (
			id, user_id, total, version, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6)
	`,
		cart.ID, cart.UserID, cart.Total, cart.Version, cart.CreatedAt, cart.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrCartAlreadyExists
		}
		return fmt.Errorf("insert cart: %w", err)
	}

	if err = insertCartItems(ctx, tx, cart.ID, cart.Items); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create cart: %w", err)
	}

	return nil
}

func (r *cartRepository) GetByID(id string) (domain.Cart, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.getCart(ctx, `WHERE id = $1`, id, domain.ErrCartNotFound)
}

func (r *cartRepository) GetByUserID(userID string) (domain.Cart, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	return r.getCart(ctx, `WHERE user_id = $1`, userID, domain.ErrUserHasNoCart)
}

func (r *cartRepository) getCart(ctx context.Context, where, arg string, notFound error) (domain.Cart, error) {
	var cart domain.Cart

	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, total, version, created_at, updated_at
		FROM carts
	`+where, arg).Scan(
		&cart.ID, &cart.UserID, &cart.Total, &cart.Version, &cart.CreatedAt, &cart.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Cart{}, notFound
		}
		return domain.Cart{}, fmt.Errorf("select cart: %w", err)
	}

	items, err := loadCartItems(ctx, r.db, cart.ID)
	if err != nil {
		return domain.Cart{}, err
	}
	cart.Items = items

	return cart, nil
}

// Save перезаписывает корзину вместе с позициями под optimistic locking:
// позиции удаляются и вставляются заново в одной транзакции.
func (r *cartRepository) Save(cart domain.Cart) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
		UPDATE carts
		SET total = $1,
		    version = version + 1,
		    updated_at = $2
		WHERE id = $3
		  AND version = $4
	`,
		cart.Total, cart.UpdatedAt, cart.ID, cart.Version,
	)
	if err != nil {
		return fmt.Errorf("update cart: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		exists, checkErr := cartExistsTx(ctx, tx, cart.ID)
		if checkErr != nil {
			err = checkErr
			return err
		}
		if !exists {
			err = domain.ErrCartNotFound
			return err
		}
		err = domain.ErrCartVersionConflict
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cart.ID); err != nil {
		return fmt.Errorf("delete cart items: %w", err)
	}
	if err = insertCartItems(ctx, tx, cart.ID, cart.Items); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save cart: %w", err)
	}

	return nil
}

// ClearItems удаляет позиции и обнуляет сумму одной транзакцией.
func (r *cartRepository) ClearItems(cartID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = clearCartTx(ctx, tx, cartID); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit clear cart: %w", err)
	}

	return nil
}

func clearCartTx(ctx context.Context, tx *sql.Tx, cartID string) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE carts
		SET total = 0,
		    version = version + 1,
		    updated_at = $1
		WHERE id = $2
	`, time.Now().UTC(), cartID)
	if err != nil {
		return fmt.Errorf("reset cart total: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrCartNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("delete cart items: %w", err)
	}

	return nil
}

func insertCartItems(ctx context.Context, tx *sql.Tx, cartID string, items []domain.CartItem) error {
	for idx := range items {
		item := items[idx]
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO cart_items (
				id, cart_id, product_id, product_name, quantity,
				unit_price, subtotal, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`,
			item.ID, cartID, item.ProductID, item.ProductName, item.Quantity,
			item.UnitPrice, item.Subtotal, item.CreatedAt, item.UpdatedAt,
		); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicateCartLine
			}
			return fmt.Errorf("insert cart item: %w", err)
		}
	}
	return nil
}

func loadCartItems(ctx context.Context, db *sql.DB, cartID string) ([]domain.CartItem, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, product_id, product_name, quantity, unit_price, subtotal, created_at, updated_at
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY created_at ASC, id ASC
	`, cartID)
	if err != nil {
		return nil, fmt.Errorf("load cart items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.CartItem, 0)
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(
			&item.ID, &item.ProductID, &item.ProductName, &item.Quantity,
			&item.UnitPrice, &item.Subtotal, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart items: %w", err)
	}

	return items, nil
}

func cartExistsTx(ctx context.Context, tx *sql.Tx, cartID string) (bool, error) {
	var id string
	err := tx.QueryRowContext(ctx, `SELECT id FROM carts WHERE id = $1`, cartID).Scan(&id)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check cart exists: %w", err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.CartRepository = (*cartRepository)(nil)
