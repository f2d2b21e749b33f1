// Package storage implements the durable SQLite store behind the finance
// state manager.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO

	"dompet/internal/core"
)

// SQLiteStore owns the database handle and all SQL the application runs.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at dbPath and applies
// migrations.
func Open(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping verifies the database connection is alive.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// parseTimestamp reads SQLite's CURRENT_TIMESTAMP format. A malformed value
// yields the zero time rather than failing the whole row.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Categories returns all categories ordered by id.
func (s *SQLiteStore) Categories(ctx context.Context) ([]core.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, icon, color, budget_limit_cents, type FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		var c core.Category
		var typ string
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &c.BudgetLimit.Cents, &typ); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Type = core.TransactionType(typ).Normalize()
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return cats, nil
}

// Category returns a single category by id.
func (s *SQLiteStore) Category(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	var typ string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, icon, color, budget_limit_cents, type FROM categories WHERE id = ?`,
		id,
	).Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &c.BudgetLimit.Cents, &typ)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, err)
	}
	c.Type = core.TransactionType(typ).Normalize()
	return c, nil
}

// InsertCategory inserts a category row and returns its generated id.
// An absent type is stored as expense, an absent budget limit as zero.
func (s *SQLiteStore) InsertCategory(ctx context.Context, c core.Category) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (name, icon, color, budget_limit_cents, type) VALUES (?, ?, ?, ?, ?)`,
		c.Name, c.Icon, c.Color, c.BudgetLimit.Cents, string(c.Type.Normalize()),
	)
	if err != nil {
		return 0, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("category id: %w", err)
	}
	return id, nil
}

// UpdateCategory overwrites name, icon, and color. Empty values leave the
// stored field unchanged; type and budget limit are immutable here.
func (s *SQLiteStore) UpdateCategory(ctx context.Context, id int64, name, icon, color string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE categories SET
		   name  = COALESCE(NULLIF(?, ''), name),
		   icon  = COALESCE(NULLIF(?, ''), icon),
		   color = COALESCE(NULLIF(?, ''), color)
		 WHERE id = ?`,
		name, icon, color, id,
	)
	if err != nil {
		return fmt.Errorf("update category %d: %w", id, err)
	}
	return nil
}

// DeleteCategory removes every transaction referencing the category, then the
// category row, in one transaction. There is no FK cascade in the schema.
func (s *SQLiteStore) DeleteCategory(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete category: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transactions WHERE category_id = ?`, id); err != nil {
		return fmt.Errorf("delete category transactions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete category: %w", err)
	}
	return nil
}

// InsertTransaction inserts a transaction row and returns its generated id.
func (s *SQLiteStore) InsertTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (category_id, amount_cents, date, note, type, image_ref)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.CategoryID, t.Amount.Cents, t.Date, t.Note, string(t.Type.Normalize()), t.ImageRef,
	)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction id: %w", err)
	}
	return id, nil
}

// DeleteTransaction deletes a transaction by id.
func (s *SQLiteStore) DeleteTransaction(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete transaction %d: %w", id, err)
	}
	return nil
}

// RecentTransactions returns the newest rows (date descending, id breaking
// ties) joined with their category's display fields.
func (s *SQLiteStore) RecentTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.category_id, t.amount_cents, t.date, t.note, t.type, t.image_ref, t.created_at,
		        COALESCE(c.name, ''), COALESCE(c.icon, ''), COALESCE(c.color, '')
		 FROM transactions t
		 LEFT JOIN categories c ON c.id = t.category_id
		 ORDER BY t.date DESC, t.id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent transactions: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var typ, createdAt string
		if err := rows.Scan(&t.ID, &t.CategoryID, &t.Amount.Cents, &t.Date, &t.Note, &typ,
			&t.ImageRef, &createdAt, &t.CategoryName, &t.CategoryIcon, &t.CategoryColor); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Type = core.TransactionType(typ).Normalize()
		t.CreatedAt = parseTimestamp(createdAt)
		txs = append(txs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return txs, nil
}

// CountTransactionsByCategory returns how many transactions reference a
// category. Used by the budget worker and by referential-integrity checks.
func (s *SQLiteStore) CountTransactionsByCategory(ctx context.Context, categoryID int64) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE category_id = ?`, categoryID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count transactions for category %d: %w", categoryID, err)
	}
	return n, nil
}

// MonthTotals sums the month's amounts by type. Rows whose type is not
// exactly "income" count as expense, so legacy rows with an absent type land
// on the expense side.
func (s *SQLiteStore) MonthTotals(ctx context.Context, month core.Month) (income, expense core.Money, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT
		   COALESCE(SUM(CASE WHEN type = 'income' THEN amount_cents ELSE 0 END), 0),
		   COALESCE(SUM(CASE WHEN type = 'income' THEN 0 ELSE amount_cents END), 0)
		 FROM transactions
		 WHERE substr(date, 1, 7) = ?`,
		month.String(),
	).Scan(&income.Cents, &expense.Cents)
	if err != nil {
		return core.Money{}, core.Money{}, fmt.Errorf("month totals %s: %w", month, err)
	}
	return income, expense, nil
}

// CategoryExpenseTotals groups the month's expense-type amounts by category.
func (s *SQLiteStore) CategoryExpenseTotals(ctx context.Context, month core.Month) (map[int64]core.Money, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT category_id, SUM(amount_cents)
		 FROM transactions
		 WHERE substr(date, 1, 7) = ? AND type <> 'income'
		 GROUP BY category_id`,
		month.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("category totals %s: %w", month, err)
	}
	defer rows.Close()

	totals := make(map[int64]core.Money)
	for rows.Next() {
		var id int64
		var cents int64
		if err := rows.Scan(&id, &cents); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		totals[id] = core.Money{Cents: cents}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category totals: %w", err)
	}
	return totals, nil
}

// InsertSplitBill inserts the bill and all its members in one transaction.
// Any failing member insert rolls back the whole bill.
func (s *SQLiteStore) InsertSplitBill(ctx context.Context, b core.SplitBill, members []core.SplitMember) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin split bill: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO split_bills (date, name, total_cents, image_ref) VALUES (?, ?, ?, ?)`,
		b.Date, b.Name, b.Total.Cents, b.ImageRef,
	)
	if err != nil {
		return 0, fmt.Errorf("insert split bill: %w", err)
	}
	billID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("split bill id: %w", err)
	}

	for _, m := range members {
		isMe := 0
		if m.IsMe {
			isMe = 1
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO split_bill_members (bill_id, name, share_cents, is_me) VALUES (?, ?, ?, ?)`,
			billID, m.Name, m.Share.Cents, isMe,
		); err != nil {
			return 0, fmt.Errorf("insert split member %q: %w", m.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit split bill: %w", err)
	}

	slog.InfoContext(ctx, "Split bill saved",
		"id", billID,
		"name", b.Name,
		"total_cents", b.Total.Cents,
		"members", len(members))
	return billID, nil
}

// SplitBills returns all bills ordered by date descending, id descending.
// Members are fetched separately via SplitMembers.
func (s *SQLiteStore) SplitBills(ctx context.Context) ([]core.SplitBill, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, date, name, total_cents, image_ref, created_at
		 FROM split_bills
		 ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query split bills: %w", err)
	}
	defer rows.Close()

	var bills []core.SplitBill
	for rows.Next() {
		var b core.SplitBill
		var createdAt string
		if err := rows.Scan(&b.ID, &b.Date, &b.Name, &b.Total.Cents, &b.ImageRef, &createdAt); err != nil {
			return nil, fmt.Errorf("scan split bill: %w", err)
		}
		b.CreatedAt = parseTimestamp(createdAt)
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate split bills: %w", err)
	}
	return bills, nil
}

// SplitMembers returns a bill's members in insertion order.
func (s *SQLiteStore) SplitMembers(ctx context.Context, billID int64) ([]core.SplitMember, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, bill_id, name, share_cents, is_me
		 FROM split_bill_members
		 WHERE bill_id = ?
		 ORDER BY id`,
		billID,
	)
	if err != nil {
		return nil, fmt.Errorf("query split members: %w", err)
	}
	defer rows.Close()

	var members []core.SplitMember
	for rows.Next() {
		var m core.SplitMember
		var isMe int
		if err := rows.Scan(&m.ID, &m.BillID, &m.Name, &m.Share.Cents, &isMe); err != nil {
			return nil, fmt.Errorf("scan split member: %w", err)
		}
		m.IsMe = isMe != 0
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate split members: %w", err)
	}
	return members, nil
}

// DeleteSplitBill removes the bill's members and then the bill row in one
// transaction. The cascade is explicit; nothing relies on driver behavior.
func (s *SQLiteStore) DeleteSplitBill(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete split bill: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM split_bill_members WHERE bill_id = ?`, id); err != nil {
		return fmt.Errorf("delete split members: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM split_bills WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete split bill %d: %w", id, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete split bill: %w", err)
	}
	return nil
}
