// Package storage persists user accounts and their transaction ledgers
// in an embedded sqlite database.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"financeflow/internal/models"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

const dateLayout = "2006-01-02"

// DB wraps a sql.DB connection.
type DB struct {
	conn *sql.DB
}

// NewDB opens a database connection and runs migrations. Use ":memory:"
// for an ephemeral database in tests.
func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// A single connection keeps writes serialized; with :memory: every
	// pooled connection would otherwise get its own empty store.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	if err := runMigrations(conn); err != nil {
		conn.Close()
		return nil, err
	}

	return &DB{conn: conn}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// CreateUser persists a new user with the given username and password
// hash. Returns models.ErrDuplicateUsername if the username is taken.
func (db *DB) CreateUser(ctx context.Context, username, passwordHash string) (*models.User, error) {
	result, err := db.conn.ExecContext(ctx,
		"INSERT INTO users (username, password_hash) VALUES (?, ?)",
		username, passwordHash,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, models.ErrDuplicateUsername
		}
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return db.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID. Returns models.ErrNotFound when
// no such user exists.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE id = ?",
		id,
	)
	return scanUser(row)
}

// GetUserByUsername retrieves a user by username. The lookup is
// case-sensitive. Returns models.ErrNotFound when no such user exists.
func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE username = ?",
		username,
	)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// UserCount returns the number of users in the database.
func (db *DB) UserCount(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// AddTransaction appends an immutable transaction record for the given
// owner. It returns models.ValidationError for an empty description,
// non-positive amount, or unknown category/kind, and
// models.ErrUnknownOwner when ownerID does not resolve to a user.
func (db *DB) AddTransaction(ctx context.Context, ownerID int64, date time.Time, description string, category models.Category, kind models.Kind, amount models.Cents) (*models.Transaction, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, models.ValidationError("Description must not be empty.")
	}
	if amount <= 0 {
		return nil, models.ErrInvalidAmount
	}
	if !category.Valid() {
		return nil, models.ValidationError("Unknown category.")
	}
	if !kind.Valid() {
		return nil, models.ValidationError("Unknown record type.")
	}

	if _, err := db.GetUserByID(ctx, ownerID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnknownOwner
		}
		return nil, err
	}

	result, err := db.conn.ExecContext(ctx,
		"INSERT INTO transactions (owner_id, date, description, category, kind, amount_cents) VALUES (?, ?, ?, ?, ?, ?)",
		ownerID, date.Format(dateLayout), description, string(category), string(kind), int64(amount),
	)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &models.Transaction{
		ID:          id,
		OwnerID:     ownerID,
		Date:        truncateToDate(date),
		Description: description,
		Category:    category,
		Kind:        kind,
		Amount:      amount,
	}, nil
}

// ListTransactions retrieves all transactions belonging to ownerID and
// never anyone else's. Rows come back ordered by date then id, but
// callers must not rely on store-level ordering.
func (db *DB) ListTransactions(ctx context.Context, ownerID int64) ([]models.Transaction, error) {
	rows, err := db.conn.QueryContext(ctx,
		"SELECT id, owner_id, date, description, category, kind, amount_cents FROM transactions WHERE owner_id = ? ORDER BY date, id",
		ownerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var t models.Transaction
		var date string
		if err := rows.Scan(&t.ID, &t.OwnerID, &date, &t.Description, &t.Category, &t.Kind, &t.Amount); err != nil {
			return nil, err
		}
		t.Date, err = time.Parse(dateLayout, date)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}

	return txs, rows.Err()
}

func truncateToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
