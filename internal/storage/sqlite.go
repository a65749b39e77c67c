// Package storage provides SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/osusume/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY,
		user_id INTEGER NOT NULL,
		name TEXT,
		description TEXT,
		price REAL,
		category TEXT,
		region TEXT,
		technique TEXT,
		material TEXT,
		color TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_products_user_id ON products(user_id);

	CREATE TABLE IF NOT EXISTS stores (
		id INTEGER PRIMARY KEY,
		user_id INTEGER NOT NULL,
		name TEXT,
		district TEXT,
		region TEXT,
		latitude REAL,
		longitude REAL
	);

	CREATE INDEX IF NOT EXISTS idx_stores_user_id ON stores(user_id);

	CREATE TABLE IF NOT EXISTS user_preferences (
		user_id INTEGER PRIMARY KEY,
		selected_preferences TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_id INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_customer_id ON transactions(customer_id);

	CREATE TABLE IF NOT EXISTS transaction_details (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		transaction_id INTEGER NOT NULL,
		product_id INTEGER,
		store_id INTEGER,
		FOREIGN KEY (transaction_id) REFERENCES transactions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_details_transaction_id ON transaction_details(transaction_id);

	CREATE TABLE IF NOT EXISTS import_batches (
		id TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		checksum TEXT NOT NULL DEFAULT '',
		products INTEGER NOT NULL,
		stores INTEGER NOT NULL,
		preferences INTEGER NOT NULL,
		transactions INTEGER NOT NULL,
		imported_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(schema)
	return err
}

// ListProducts returns every product ordered by ID.
func (s *SQLiteStorage) ListProducts(ctx context.Context) ([]*models.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, description, price, category, region, technique, material, color
		 FROM products ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]*models.Product, 0)
	for rows.Next() {
		var p models.Product
		var name, desc, category, region, technique, material, color sql.NullString
		var price sql.NullFloat64
		if err := rows.Scan(&p.ID, &p.UserID, &name, &desc, &price, &category, &region, &technique, &material, &color); err != nil {
			return nil, err
		}
		p.Name = nullString(name)
		p.Description = nullString(desc)
		p.Price = nullFloat(price)
		p.Category = nullString(category)
		p.Region = nullString(region)
		p.Technique = nullString(technique)
		p.Material = nullString(material)
		p.Color = nullString(color)
		products = append(products, &p)
	}
	return products, rows.Err()
}

// ListStores returns every store ordered by ID.
func (s *SQLiteStorage) ListStores(ctx context.Context) ([]*models.Store, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, district, region, latitude, longitude
		 FROM stores ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stores := make([]*models.Store, 0)
	for rows.Next() {
		var st models.Store
		var name, district, region sql.NullString
		var lat, lng sql.NullFloat64
		if err := rows.Scan(&st.ID, &st.UserID, &name, &district, &region, &lat, &lng); err != nil {
			return nil, err
		}
		st.Name = nullString(name)
		st.District = nullString(district)
		st.Region = nullString(region)
		st.Latitude = nullFloat(lat)
		st.Longitude = nullFloat(lng)
		stores = append(stores, &st)
	}
	return stores, rows.Err()
}

// GetUserPreferences returns the product IDs a user selected, in stored order.
// A payload that is not a JSON array of integers yields ErrMalformedPreferences.
func (s *SQLiteStorage) GetUserPreferences(ctx context.Context, userID int64) ([]int64, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT selected_preferences FROM user_preferences WHERE user_id = ?`, userID,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return []int64{}, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []int64
	if err := json.Unmarshal([]byte(payload), &ids); err != nil {
		return nil, fmt.Errorf("%w: user %d: %v", ErrMalformedPreferences, userID, err)
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}

// GetUserHistory returns the distinct products and stores from a customer's transactions,
// in order of first purchase.
func (s *SQLiteStorage) GetUserHistory(ctx context.Context, userID int64) (*models.History, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT dt.product_id, dt.store_id
		 FROM transactions t
		 JOIN transaction_details dt ON t.id = dt.transaction_id
		 WHERE t.customer_id = ?
		 ORDER BY t.id, dt.id`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := &models.History{Products: []int64{}, Stores: []int64{}}
	seenProducts := make(map[int64]bool)
	seenStores := make(map[int64]bool)
	for rows.Next() {
		var productID, storeID sql.NullInt64
		if err := rows.Scan(&productID, &storeID); err != nil {
			return nil, err
		}
		if productID.Valid && !seenProducts[productID.Int64] {
			seenProducts[productID.Int64] = true
			history.Products = append(history.Products, productID.Int64)
		}
		if storeID.Valid && !seenStores[storeID.Int64] {
			seenStores[storeID.Int64] = true
			history.Stores = append(history.Stores, storeID.Int64)
		}
	}
	return history, rows.Err()
}

// UpsertProducts inserts or replaces products in a transaction.
func (s *SQLiteStorage) UpsertProducts(ctx context.Context, products []*models.Product) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO products (id, user_id, name, description, price, category, region, technique, material, color)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range products {
		if _, err := stmt.ExecContext(ctx, p.ID, p.UserID, p.Name, p.Description, p.Price,
			p.Category, p.Region, p.Technique, p.Material, p.Color); err != nil {
			return fmt.Errorf("upsert product %d: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// UpsertStores inserts or replaces stores in a transaction.
func (s *SQLiteStorage) UpsertStores(ctx context.Context, stores []*models.Store) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO stores (id, user_id, name, district, region, latitude, longitude)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, st := range stores {
		if _, err := stmt.ExecContext(ctx, st.ID, st.UserID, st.Name, st.District, st.Region,
			st.Latitude, st.Longitude); err != nil {
			return fmt.Errorf("upsert store %d: %w", st.ID, err)
		}
	}
	return tx.Commit()
}

// SetUserPreferences replaces the preference list of a user.
func (s *SQLiteStorage) SetUserPreferences(ctx context.Context, userID int64, productIDs []int64) error {
	if productIDs == nil {
		productIDs = []int64{}
	}
	payload, err := json.Marshal(productIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO user_preferences (user_id, selected_preferences, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET selected_preferences = excluded.selected_preferences,
		 updated_at = excluded.updated_at`,
		userID, string(payload), time.Now(),
	)
	return err
}

// CreateTransaction inserts a transaction with its detail lines and sets t.ID. A transaction
// with a positive ID overwrites any stored transaction with the same ID.
func (s *SQLiteStorage) CreateTransaction(ctx context.Context, t *models.Transaction) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var res sql.Result
	if t.ID > 0 {
		// An explicit id replaces the earlier transaction and its lines.
		if _, err := tx.ExecContext(ctx, `DELETE FROM transaction_details WHERE transaction_id = ?`, t.ID); err != nil {
			return err
		}
		res, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO transactions (id, customer_id, created_at) VALUES (?, ?, ?)`,
			t.ID, t.CustomerID, time.Now())
	} else {
		res, err = tx.ExecContext(ctx, `INSERT INTO transactions (customer_id, created_at) VALUES (?, ?)`,
			t.CustomerID, time.Now())
	}
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = id

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO transaction_details (transaction_id, product_id, store_id) VALUES (?, ?, ?)`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, d := range t.Details {
		if _, err := stmt.ExecContext(ctx, t.ID, d.ProductID, d.StoreID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// RecordImport stores an import batch record.
func (s *SQLiteStorage) RecordImport(ctx context.Context, batch *models.ImportBatch) error {
	if batch.ImportedAt.IsZero() {
		batch.ImportedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO import_batches (id, path, checksum, products, stores, preferences, transactions, imported_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		batch.ID, batch.Path, batch.Checksum, batch.Products, batch.Stores, batch.Preferences, batch.Transactions, batch.ImportedAt,
	)
	return err
}

// LastImportChecksum returns the checksum of the most recent import of path, or "" when
// the path was never imported.
func (s *SQLiteStorage) LastImportChecksum(ctx context.Context, path string) (string, error) {
	var checksum string
	err := s.db.QueryRowContext(ctx,
		`SELECT checksum FROM import_batches WHERE path = ? ORDER BY imported_at DESC, rowid DESC LIMIT 1`, path,
	).Scan(&checksum)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return checksum, err
}

// CountProducts returns the total number of products.
func (s *SQLiteStorage) CountProducts(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count)
	return count, err
}

// CountStores returns the total number of stores.
func (s *SQLiteStorage) CountStores(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stores`).Scan(&count)
	return count, err
}

// CountUsersWithPreferences returns the number of users with a stored preference record.
func (s *SQLiteStorage) CountUsersWithPreferences(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_preferences`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func nullFloat(nf sql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	v := nf.Float64
	return &v
}
