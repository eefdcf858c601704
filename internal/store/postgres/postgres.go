package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/Chiragtaneja05/cafe-billing-system/internal/domain"
	"github.com/Chiragtaneja05/cafe-billing-system/internal/store"
	"github.com/Chiragtaneja05/cafe-billing-system/internal/xid"
)

//go:embed schema.sql
var schema string

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

const ownerColumns = `id, name, cafe_name, email, password_hash, address, phone, tax_id, currency_symbol, created_at, updated_at`

func scanOwner(row interface{ Scan(dest ...any) error }) (*domain.Owner, error) {
	var owner domain.Owner
	err := row.Scan(
		&owner.ID, &owner.Name, &owner.CafeName, &owner.Email, &owner.PasswordHash,
		&owner.Address, &owner.Phone, &owner.TaxID, &owner.CurrencySymbol,
		&owner.CreatedAt, &owner.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &owner, nil
}

func (s *Store) CreateOwner(ctx context.Context, owner domain.Owner) (*domain.Owner, error) {
	owner.Email = strings.ToLower(strings.TrimSpace(owner.Email))
	if owner.Email == "" || owner.PasswordHash == "" {
		return nil, store.ErrInvalidInput
	}
	if owner.CurrencySymbol == "" {
		owner.CurrencySymbol = domain.DefaultCurrencySymbol
	}
	owner.ID = xid.New()
	now := time.Now().UTC()
	owner.CreatedAt = now
	owner.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO owners (`+ownerColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, owner.ID, owner.Name, owner.CafeName, owner.Email, owner.PasswordHash,
		owner.Address, owner.Phone, owner.TaxID, owner.CurrencySymbol, owner.CreatedAt, owner.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: email already registered", store.ErrConflict)
		}
		return nil, err
	}
	return &owner, nil
}

func (s *Store) GetOwnerByID(ctx context.Context, id string) (*domain.Owner, error) {
	return scanOwner(s.db.QueryRowContext(ctx, `SELECT `+ownerColumns+` FROM owners WHERE id = $1`, id))
}

func (s *Store) GetOwnerByEmail(ctx context.Context, email string) (*domain.Owner, error) {
	return scanOwner(s.db.QueryRowContext(ctx, `SELECT `+ownerColumns+` FROM owners WHERE email = $1`, strings.ToLower(strings.TrimSpace(email))))
}

func (s *Store) UpdateOwner(ctx context.Context, owner domain.Owner) (*domain.Owner, error) {
	return scanOwner(s.db.QueryRowContext(ctx, `
		UPDATE owners
		SET name = $2, cafe_name = $3, address = $4, phone = $5, tax_id = $6, currency_symbol = $7, updated_at = now()
		WHERE id = $1
		RETURNING `+ownerColumns,
		owner.ID, owner.Name, owner.CafeName, owner.Address, owner.Phone, owner.TaxID, owner.CurrencySymbol))
}

const menuColumns = `id, owner_id, name, price, category, stock, created_at, updated_at`

func scanMenuItem(row interface{ Scan(dest ...any) error }) (*domain.MenuItem, error) {
	var item domain.MenuItem
	err := row.Scan(&item.ID, &item.Owner, &item.Name, &item.Price, &item.Category, &item.Stock, &item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListMenuItems(ctx context.Context, ownerID string) ([]domain.MenuItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+menuColumns+`
		FROM menu_items
		WHERE owner_id = $1
		ORDER BY category, name
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.MenuItem, 0, 32)
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CreateMenuItem(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error) {
	if item.Owner == "" || item.Name == "" || item.Price.IsNegative() {
		return nil, store.ErrInvalidInput
	}
	item.ID = xid.New()
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO menu_items (`+menuColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, item.ID, item.Owner, item.Name, item.Price, item.Category, item.Stock, item.CreatedAt, item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) GetMenuItem(ctx context.Context, ownerID string, id string) (*domain.MenuItem, error) {
	return scanMenuItem(s.db.QueryRowContext(ctx, `
		SELECT `+menuColumns+` FROM menu_items WHERE id = $1 AND owner_id = $2
	`, id, ownerID))
}

func (s *Store) UpdateMenuItem(ctx context.Context, item domain.MenuItem) (*domain.MenuItem, error) {
	if item.Name == "" || item.Price.IsNegative() {
		return nil, store.ErrInvalidInput
	}
	return scanMenuItem(s.db.QueryRowContext(ctx, `
		UPDATE menu_items
		SET name = $3, price = $4, category = $5, stock = $6, updated_at = now()
		WHERE id = $1 AND owner_id = $2
		RETURNING `+menuColumns,
		item.ID, item.Owner, item.Name, item.Price, item.Category, item.Stock))
}

func (s *Store) DeleteMenuItem(ctx context.Context, ownerID string, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM menu_items WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// DecrementStock is a single UPDATE, so concurrent sales of one item
// serialize on the row and never lose a decrement.
func (s *Store) DecrementStock(ctx context.Context, ownerID string, id string, qty int, floorAtZero bool) (int, error) {
	if qty < 1 {
		return 0, store.ErrInvalidInput
	}

	var stock int
	err := s.db.QueryRowContext(ctx, `
		UPDATE menu_items
		SET stock = CASE WHEN $4 THEN GREATEST(stock - $3, 0) ELSE stock - $3 END,
		    updated_at = now()
		WHERE id = $1 AND owner_id = $2
		RETURNING stock
	`, id, ownerID, qty, floorAtZero).Scan(&stock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, store.ErrNotFound
		}
		return 0, err
	}
	return stock, nil
}

func (s *Store) CreateBill(ctx context.Context, bill domain.Bill) (*domain.Bill, error) {
	if bill.Owner == "" || len(bill.Items) == 0 {
		return nil, store.ErrInvalidInput
	}
	bill.ID = xid.New()
	if bill.CreatedAt.IsZero() {
		bill.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO bills (id, owner_id, customer_name, customer_phone, total_amount, payment_method, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, bill.ID, bill.Owner, bill.CustomerName, bill.CustomerPhone, bill.TotalAmount, bill.PaymentMethod, bill.CreatedAt); err != nil {
		return nil, err
	}

	for i, line := range bill.Items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO bill_items (bill_id, line_no, menu_item_id, name, price, quantity)
			VALUES ($1,$2,$3,$4,$5,$6)
		`, bill.ID, i, line.MenuItemID, line.Name, line.Price, line.Quantity); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &bill, nil
}

func (s *Store) GetBill(ctx context.Context, ownerID string, id string) (*domain.Bill, error) {
	bills, err := s.queryBills(ctx, `b.owner_id = $1 AND b.id = $2`, ownerID, id)
	if err != nil {
		return nil, err
	}
	if len(bills) == 0 {
		return nil, store.ErrNotFound
	}
	return &bills[0], nil
}

func (s *Store) ListBills(ctx context.Context, ownerID string, from time.Time, to time.Time) ([]domain.Bill, error) {
	return s.queryBills(ctx, `
		b.owner_id = $1
		AND ($2::timestamptz IS NULL OR b.created_at >= $2)
		AND ($3::timestamptz IS NULL OR b.created_at <= $3)
	`, ownerID, nullableTime(from), nullableTime(to))
}

// queryBills joins bills with their lines and folds the rows back into
// bills, newest first.
func (s *Store) queryBills(ctx context.Context, where string, args ...any) ([]domain.Bill, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.owner_id, b.customer_name, b.customer_phone, b.total_amount, b.payment_method, b.created_at,
		       i.menu_item_id, i.name, i.price, i.quantity
		FROM bills b
		JOIN bill_items i ON i.bill_id = b.id
		WHERE `+where+`
		ORDER BY b.created_at DESC, b.id, i.line_no
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bills := make([]domain.Bill, 0, 32)
	for rows.Next() {
		var bill domain.Bill
		var line domain.BillLine
		if err := rows.Scan(
			&bill.ID, &bill.Owner, &bill.CustomerName, &bill.CustomerPhone, &bill.TotalAmount, &bill.PaymentMethod, &bill.CreatedAt,
			&line.MenuItemID, &line.Name, &line.Price, &line.Quantity,
		); err != nil {
			return nil, err
		}
		if n := len(bills); n > 0 && bills[n-1].ID == bill.ID {
			bills[n-1].Items = append(bills[n-1].Items, line)
			continue
		}
		bill.Items = []domain.BillLine{line}
		bills = append(bills, bill)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bills, nil
}

func (s *Store) CreateExpense(ctx context.Context, expense domain.Expense) (*domain.Expense, error) {
	if expense.Owner == "" || expense.Title == "" || expense.Amount.IsNegative() {
		return nil, store.ErrInvalidInput
	}
	expense.ID = xid.New()
	expense.CreatedAt = time.Now().UTC()
	if expense.Date.IsZero() {
		expense.Date = expense.CreatedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO expenses (id, owner_id, title, amount, category, date, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, expense.ID, expense.Owner, expense.Title, expense.Amount, expense.Category, expense.Date, expense.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

func (s *Store) ListExpenses(ctx context.Context, ownerID string, from time.Time, to time.Time) ([]domain.Expense, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, title, amount, category, date, created_at
		FROM expenses
		WHERE owner_id = $1
		  AND ($2::timestamptz IS NULL OR date >= $2)
		  AND ($3::timestamptz IS NULL OR date <= $3)
		ORDER BY date DESC, created_at DESC
	`, ownerID, nullableTime(from), nullableTime(to))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	expenses := make([]domain.Expense, 0, 32)
	for rows.Next() {
		var e domain.Expense
		if err := rows.Scan(&e.ID, &e.Owner, &e.Title, &e.Amount, &e.Category, &e.Date, &e.CreatedAt); err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return expenses, nil
}

func (s *Store) DeleteExpense(ctx context.Context, ownerID string, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
