package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"

	"cashbook/internal/core"
	"cashbook/internal/sources"

	_ "modernc.org/sqlite"
)

const settingUseCreatedDate = "use_created_date"

// SQLiteRepository stores imported source records and serves them to the
// ledger service.
type SQLiteRepository struct {
	db *sql.DB
}

var (
	_ sources.Backend = (*SQLiteRepository)(nil)
	_ sources.Writer  = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
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

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const selectOrders = `SELECT id, order_number, status, payment_status, total, payment_method,
	store_code, customer_name, sales_channel, created_at, ordered_at, updated_at, paid_at
	FROM sales_orders`

// ListOrders implements sources.OrderReader
func (r *SQLiteRepository) ListOrders(ctx context.Context, store string) ([]core.SalesOrder, error) {
	query, args := selectOrders+` ORDER BY row_id`, []any{}
	if !sources.AllStores(store) {
		query, args = selectOrders+` WHERE store_code = ? ORDER BY row_id`, []any{store}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var out []core.SalesOrder
	for rows.Next() {
		var o core.SalesOrder
		var total, method string
		if err := rows.Scan(&o.ID, &o.OrderNumber, &o.Status, &o.PaymentStatus, &total, &method,
			&o.StoreCode, &o.CustomerName, &o.SalesChannel, &o.CreatedAt, &o.OrderedAt, &o.UpdatedAt, &o.PaidAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Total = core.Amount(total)
		o.PaymentMethod = core.PaymentField(method)
		out = append(out, o)
	}
	return out, rows.Err()
}

const selectReceipts = `SELECT id, receipt_number, is_paid, payment_amount, payment_method,
	store_code, supplier_id, purchase_date, created_at, updated_at
	FROM purchase_receipts`

// ListReceipts implements sources.ReceiptReader
func (r *SQLiteRepository) ListReceipts(ctx context.Context, store string) ([]core.PurchaseReceipt, error) {
	query, args := selectReceipts+` ORDER BY row_id`, []any{}
	if !sources.AllStores(store) {
		query, args = selectReceipts+` WHERE store_code = ? ORDER BY row_id`, []any{store}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	defer rows.Close()

	var out []core.PurchaseReceipt
	for rows.Next() {
		var p core.PurchaseReceipt
		var amount, method string
		if err := rows.Scan(&p.ID, &p.ReceiptNumber, &p.IsPaid, &amount, &method,
			&p.StoreCode, &p.SupplierID, &p.PurchaseDate, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		p.PaymentAmount = core.Amount(amount)
		p.PaymentMethod = core.PaymentField(method)
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListVouchers implements sources.VoucherReader
func (r *SQLiteRepository) ListVouchers(ctx context.Context, kind core.Kind) ([]core.Voucher, error) {
	if kind != core.Income && kind != core.Expense {
		return nil, core.ErrInvalidKind
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, voucher_number, date, amount, account,
		category, recipient, store_code, updated_at
		FROM vouchers WHERE kind = ? ORDER BY row_id`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list %s vouchers: %w", kind, err)
	}
	defer rows.Close()

	var out []core.Voucher
	for rows.Next() {
		var v core.Voucher
		var amount, account string
		if err := rows.Scan(&v.ID, &v.VoucherNumber, &v.Date, &amount, &account,
			&v.Category, &v.Recipient, &v.StoreCode, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan voucher: %w", err)
		}
		v.Amount = core.Amount(amount)
		v.Account = core.PaymentField(account)
		out = append(out, v)
	}
	return out, rows.Err()
}

// UseCreatedDate implements sources.SettingsReader
func (r *SQLiteRepository) UseCreatedDate(ctx context.Context) (bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, settingUseCreatedDate).Scan(&value)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read settings: %w", err)
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		slog.WarnContext(ctx, "Unreadable setting, using default", "key", settingUseCreatedDate, "value", value)
		return false, nil
	}
	return b, nil
}

func (r *SQLiteRepository) SetUseCreatedDate(ctx context.Context, v bool) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		settingUseCreatedDate, strconv.FormatBool(v))
	if err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// storageKey returns the unique record_key for a record key. Records without
// id or number get a random key, so every import of them adds a row.
func storageKey(key string) string {
	if key == "" {
		return "anon:" + uuid.NewString()
	}
	return key
}

// inTx runs fn inside a transaction, rolling back on error.
func (r *SQLiteRepository) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) UpsertOrders(ctx context.Context, orders []core.SalesOrder) (int, error) {
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO sales_orders (record_key, id, order_number, status, payment_status,
			total, payment_method, store_code, customer_name, sales_channel, created_at, ordered_at, updated_at, paid_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(record_key) DO UPDATE SET
				id = excluded.id, order_number = excluded.order_number, status = excluded.status,
				payment_status = excluded.payment_status, total = excluded.total,
				payment_method = excluded.payment_method, store_code = excluded.store_code,
				customer_name = excluded.customer_name, sales_channel = excluded.sales_channel,
				created_at = excluded.created_at, ordered_at = excluded.ordered_at,
				updated_at = excluded.updated_at, paid_at = excluded.paid_at,
				imported_at = CURRENT_TIMESTAMP`)
		if err != nil {
			return fmt.Errorf("prepare order upsert: %w", err)
		}
		defer stmt.Close()

		for _, o := range orders {
			if _, err := stmt.ExecContext(ctx, storageKey(o.Key()), o.ID, o.OrderNumber, o.Status, o.PaymentStatus,
				string(o.Total), o.PaymentMethod.String(), o.StoreCode, o.CustomerName, o.SalesChannel,
				o.CreatedAt, o.OrderedAt, o.UpdatedAt, o.PaidAt); err != nil {
				return fmt.Errorf("upsert order %s: %w", o.Reference(), err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "Orders saved to SQLite", "count", len(orders))
	return len(orders), nil
}

func (r *SQLiteRepository) UpsertReceipts(ctx context.Context, receipts []core.PurchaseReceipt) (int, error) {
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO purchase_receipts (record_key, id, receipt_number, is_paid,
			payment_amount, payment_method, store_code, supplier_id, purchase_date, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(record_key) DO UPDATE SET
				id = excluded.id, receipt_number = excluded.receipt_number, is_paid = excluded.is_paid,
				payment_amount = excluded.payment_amount, payment_method = excluded.payment_method,
				store_code = excluded.store_code, supplier_id = excluded.supplier_id,
				purchase_date = excluded.purchase_date, created_at = excluded.created_at,
				updated_at = excluded.updated_at, imported_at = CURRENT_TIMESTAMP`)
		if err != nil {
			return fmt.Errorf("prepare receipt upsert: %w", err)
		}
		defer stmt.Close()

		for _, p := range receipts {
			if _, err := stmt.ExecContext(ctx, storageKey(p.Key()), p.ID, p.ReceiptNumber, p.IsPaid, string(p.PaymentAmount),
				p.PaymentMethod.String(), p.StoreCode, p.SupplierID, p.PurchaseDate, p.CreatedAt, p.UpdatedAt); err != nil {
				return fmt.Errorf("upsert receipt %s: %w", p.Reference(), err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "Receipts saved to SQLite", "count", len(receipts))
	return len(receipts), nil
}

func (r *SQLiteRepository) UpsertVouchers(ctx context.Context, kind core.Kind, vouchers []core.Voucher) (int, error) {
	if kind != core.Income && kind != core.Expense {
		return 0, core.ErrInvalidKind
	}
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `INSERT INTO vouchers (kind, record_key, id, voucher_number, date, amount,
			account, category, recipient, store_code, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(kind, record_key) DO UPDATE SET
				id = excluded.id, voucher_number = excluded.voucher_number, date = excluded.date,
				amount = excluded.amount, account = excluded.account,
				category = excluded.category, recipient = excluded.recipient,
				store_code = excluded.store_code, updated_at = excluded.updated_at,
				imported_at = CURRENT_TIMESTAMP`)
		if err != nil {
			return fmt.Errorf("prepare voucher upsert: %w", err)
		}
		defer stmt.Close()

		for _, v := range vouchers {
			if _, err := stmt.ExecContext(ctx, string(kind), storageKey(v.Key()), v.ID, v.VoucherNumber, v.Date, string(v.Amount),
				v.Account.String(), v.Category, v.Recipient, v.StoreCode, v.UpdatedAt); err != nil {
				return fmt.Errorf("upsert %s voucher %s: %w", kind, v.Reference(), err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "Vouchers saved to SQLite", "kind", kind, "count", len(vouchers))
	return len(vouchers), nil
}
