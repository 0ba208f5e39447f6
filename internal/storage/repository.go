package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"controlepix/internal/core"
	applog "controlepix/internal/log"

	_ "modernc.org/sqlite"
)

const (
	insertTransaction  = `INSERT INTO transactions (type, month, amount, description) VALUES (?, ?, ?, ?)`
	selectTransactions = `SELECT id, type, month, amount, description FROM transactions ORDER BY id`
	deleteTransaction  = `DELETE FROM transactions WHERE id = ?`
)

// Store is the persistence layer for ledger rows. It owns one database
// handle; every operation borrows its own connection and returns it before
// the call ends.
type Store struct {
	db *sql.DB
}

// Open creates the database file if needed, ensures the schema and returns a
// ready Store.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer against one file.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := EnsureSchema(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return New(db), nil
}

// New wraps an already opened handle. The schema is assumed to exist.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping reports whether the store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func logger(ctx context.Context) *applog.Logger {
	return applog.FromContext(ctx).WithComponent(applog.ComponentStorage)
}

// withConn runs fn on a dedicated connection and releases it on every path.
func (s *Store) withConn(ctx context.Context, fn func(*sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()
	return fn(conn)
}

// Add appends one row and returns the identifier the store assigned.
func (s *Store) Add(ctx context.Context, t core.NewTransaction) (int64, error) {
	var id int64
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, insertTransaction,
			t.Kind, t.Month, t.Amount.InexactFloat64(), t.Description)
		if err != nil {
			return fmt.Errorf("insert transaction: %w", err)
		}
		id, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("read inserted id: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger(ctx).InfoContext(ctx, "Transaction saved to SQLite",
		applog.FieldTxID, id,
		applog.FieldTxKind, t.Kind,
		applog.FieldMonth, t.Month,
		applog.FieldAmount, t.Amount.String())

	return id, nil
}

// List returns every row in insertion order.
func (s *Store) List(ctx context.Context) ([]core.Transaction, error) {
	var out []core.Transaction
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, selectTransactions)
		if err != nil {
			return fmt.Errorf("query transactions: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var t core.Transaction
			var kind, month, amount, descr sql.NullString
			if err := rows.Scan(&t.ID, &kind, &month, &amount, &descr); err != nil {
				return fmt.Errorf("scan transaction: %w", err)
			}
			t.Kind = kind.String
			t.Month = month.String
			t.Amount = amount.String
			t.Description = descr.String
			out = append(out, t)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate transactions: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger(ctx).DebugContext(ctx, "Transactions loaded",
		applog.FieldOperation, applog.OpList,
		applog.FieldCount, len(out))
	return out, nil
}

// Delete removes the row with the given id. A missing id is not an error.
func (s *Store) Delete(ctx context.Context, id int64) error {
	var affected int64
	err := s.withConn(ctx, func(conn *sql.Conn) error {
		res, err := conn.ExecContext(ctx, deleteTransaction, id)
		if err != nil {
			return fmt.Errorf("delete transaction %d: %w", id, err)
		}
		affected, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("read affected rows: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if affected == 0 {
		logger(ctx).WarnContext(ctx, "Delete matched no transaction",
			applog.FieldTxID, id,
			applog.FieldOperation, applog.OpDelete)
		return nil
	}
	logger(ctx).InfoContext(ctx, "Transaction deleted from SQLite", applog.FieldTxID, id)
	return nil
}
