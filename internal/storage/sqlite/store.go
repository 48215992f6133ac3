package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/tjfontaine/shopgate/internal/core/domain"
	"github.com/tjfontaine/shopgate/internal/core/ports"
)

// Store is a SQLite implementation of ports.StorageProvider
type Store struct {
	db *sql.DB
}

var _ ports.StorageProvider = (*Store)(nil)

// New creates a new SQLite store
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL; PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}

	// Initialize schema
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1,
			is_staff INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS apps (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS app_tokens (
			id TEXT PRIMARY KEY,
			app_id TEXT NOT NULL,
			name TEXT,
			token_hash TEXT NOT NULL UNIQUE,
			FOREIGN KEY (app_id) REFERENCES apps(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS channels (
			id TEXT PRIMARY KEY,
			slug TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			currency TEXT NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1
		)`,
		`CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			channel_slug TEXT NOT NULL,
			name TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS checkouts (
			id TEXT PRIMARY KEY,
			channel_slug TEXT NOT NULL,
			email TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_app_tokens_app ON app_tokens(app_id)`,
		`CREATE INDEX IF NOT EXISTS idx_products_channel ON products(channel_slug)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, is_active, is_staff, created_at FROM users WHERE id = ?`, id))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, is_active, is_staff, created_at FROM users WHERE email = ?`, email))
}

func (s *Store) scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsActive, &u.IsStaff, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = time.Now()

	query := `INSERT INTO users (id, email, password_hash, is_active, is_staff, created_at)
	          VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.IsActive, user.IsStaff, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (s *Store) FindActiveAppByTokenHash(ctx context.Context, tokenHash string) (*domain.App, error) {
	query := `SELECT a.id, a.name, a.is_active, a.created_at
	          FROM apps a JOIN app_tokens t ON t.app_id = a.id
	          WHERE t.token_hash = ? AND a.is_active = 1
	          ORDER BY a.created_at ASC
	          LIMIT 1`

	var app domain.App
	err := s.db.QueryRowContext(ctx, query, tokenHash).Scan(&app.ID, &app.Name, &app.IsActive, &app.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find app: %w", err)
	}

	return &app, nil
}

func (s *Store) CreateApp(ctx context.Context, app *domain.App) error {
	if app.ID == "" {
		app.ID = uuid.New().String()
	}
	app.CreatedAt = time.Now()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO apps (id, name, is_active, created_at) VALUES (?, ?, ?, ?)`,
		app.ID, app.Name, app.IsActive, app.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create app: %w", err)
	}

	return nil
}

func (s *Store) SetAppActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE apps SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("failed to update app: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update app: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("app %s: %w", id, ports.ErrNotFound)
	}
	return nil
}

func (s *Store) AddAppToken(ctx context.Context, token *domain.AppToken) error {
	if token.ID == "" {
		token.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO app_tokens (id, app_id, name, token_hash) VALUES (?, ?, ?, ?)`,
		token.ID, token.AppID, token.Name, token.TokenHash)
	if err != nil {
		return fmt.Errorf("failed to add app token: %w", err)
	}

	return nil
}

func (s *Store) ListChannels(ctx context.Context) ([]*domain.Channel, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, slug, name, currency, is_active FROM channels ORDER BY slug ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query channels: %w", err)
	}
	defer rows.Close()

	var channels []*domain.Channel
	for rows.Next() {
		var ch domain.Channel
		if err := rows.Scan(&ch.ID, &ch.Slug, &ch.Name, &ch.Currency, &ch.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		channels = append(channels, &ch)
	}

	return channels, rows.Err()
}

func (s *Store) GetChannelBySlug(ctx context.Context, slug string) (*domain.Channel, error) {
	var ch domain.Channel
	err := s.db.QueryRowContext(ctx,
		`SELECT id, slug, name, currency, is_active FROM channels WHERE slug = ?`, slug).
		Scan(&ch.ID, &ch.Slug, &ch.Name, &ch.Currency, &ch.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}

	return &ch, nil
}

func (s *Store) CountChannels(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM channels`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count channels: %w", err)
	}
	return n, nil
}

func (s *Store) CreateChannel(ctx context.Context, ch *domain.Channel) error {
	if ch.ID == "" {
		ch.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO channels (id, slug, name, currency, is_active) VALUES (?, ?, ?, ?, ?)`,
		ch.ID, ch.Slug, ch.Name, ch.Currency, ch.IsActive)
	if err != nil {
		return fmt.Errorf("failed to create channel: %w", err)
	}

	return nil
}

func (s *Store) ListProducts(ctx context.Context, channelSlug string) ([]*domain.Product, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, channel_slug, name, created_at FROM products
		 WHERE channel_slug = ? ORDER BY created_at ASC`, channelSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.ChannelSlug, &p.Name, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, &p)
	}

	return products, rows.Err()
}

func (s *Store) CreateProduct(ctx context.Context, p *domain.Product) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	p.CreatedAt = time.Now()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO products (id, channel_slug, name, created_at) VALUES (?, ?, ?, ?)`,
		p.ID, p.ChannelSlug, p.Name, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

func (s *Store) CreateCheckout(ctx context.Context, c *domain.Checkout) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.CreatedAt = time.Now()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO checkouts (id, channel_slug, email, created_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.ChannelSlug, c.Email, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create checkout: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
