package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	_ "modernc.org/sqlite"                               // Local SQLite driver

	"github.com/wadjakorntonsri/shortlink/pkg/core/domain"
	"github.com/wadjakorntonsri/shortlink/pkg/ports"
)

type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens dbURL with the local driver, or with the libsql
// driver for libsql:// and wss:// URLs, and creates the schema.
func NewSQLiteRepository(dbURL string) (*SQLiteRepository, error) {
	driverName := "sqlite"
	if strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://") {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}

	if driverName == "sqlite" {
		// One writer at a time; also keeps :memory: databases on one connection.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driverName, err)
	}

	if err := migrate(db, driverName); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func migrate(db *sql.DB, driverName string) error {
	if driverName == "sqlite" {
		if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
			return err
		}
	}

	query := `
	CREATE TABLE IF NOT EXISTS users (
		username TEXT PRIMARY KEY,
		id INTEGER NOT NULL,
		password_hash TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS links (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		token TEXT NOT NULL UNIQUE,
		target_url TEXT NOT NULL,
		domain TEXT NOT NULL DEFAULT '',
		clicks INTEGER NOT NULL DEFAULT 0 CHECK (clicks >= 0),
		owner TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(owner) REFERENCES users(username)
	);
	CREATE INDEX IF NOT EXISTS idx_links_owner ON links(owner, id);
	`
	_, err := db.Exec(query)
	return err
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, user *domain.User) error {
	query := `INSERT INTO users (username, id, password_hash, created_at) VALUES (?, ?, ?, ?)
			  ON CONFLICT(username) DO NOTHING`

	res, err := r.db.ExecContext(ctx, query, user.Username, user.ID, user.PasswordHash, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, username string) (*domain.User, error) {
	query := `SELECT username, id, password_hash, created_at FROM users WHERE username = ?`

	var user domain.User
	err := r.db.QueryRowContext(ctx, query, username).Scan(&user.Username, &user.ID, &user.PasswordHash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT token FROM links WHERE owner = ? ORDER BY id`, username)
	if err != nil {
		return nil, fmt.Errorf("select user links: %w", err)
	}
	defer rows.Close()

	user.CreatedLinks = []string{}
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		user.CreatedLinks = append(user.CreatedLinks, token)
	}
	return &user, rows.Err()
}

func (r *SQLiteRepository) CreateLink(ctx context.Context, link *domain.ShortLink) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// 1. Owner must exist
	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE username = ?`, link.Owner).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("select owner: %w", err)
	}

	// 2. Insert unless the token is taken
	query := `INSERT INTO links (token, target_url, domain, clicks, owner, created_at)
			  VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT(token) DO NOTHING`
	res, err := tx.ExecContext(ctx, query, link.Token, link.TargetURL, link.DomainTag, link.Clicks, link.Owner, link.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert link: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrConflict
	}

	return tx.Commit()
}

func (r *SQLiteRepository) GetLink(ctx context.Context, token string) (*domain.ShortLink, error) {
	return getLink(ctx, r.db, token)
}

func (r *SQLiteRepository) LinkExists(ctx context.Context, token string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM links WHERE token = ?)`, token).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("select link: %w", err)
	}
	return exists, nil
}

func (r *SQLiteRepository) IncrementClicks(ctx context.Context, token string) (*domain.ShortLink, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `UPDATE links SET clicks = clicks + 1 WHERE token = ?`, token)
	if err != nil {
		return nil, fmt.Errorf("increment clicks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, domain.ErrNotFound
	}

	link, err := getLink(ctx, tx, token)
	if err != nil {
		return nil, err
	}
	return link, tx.Commit()
}

func (r *SQLiteRepository) ListLinksByOwner(ctx context.Context, owner string) ([]domain.ShortLink, error) {
	query := `SELECT token, target_url, domain, clicks, owner, created_at
			  FROM links WHERE owner = ? ORDER BY id`
	return queryLinks(ctx, r.db, query, owner)
}

func (r *SQLiteRepository) Dump(ctx context.Context) ([]domain.User, []domain.ShortLink, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT username, id, password_hash, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.Username, &u.ID, &u.PasswordHash, &u.CreatedAt); err != nil {
			return nil, nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	rows.Close()

	links, err := queryLinks(ctx, r.db, `SELECT token, target_url, domain, clicks, owner, created_at FROM links ORDER BY id`)
	if err != nil {
		return nil, nil, err
	}

	byOwner := make(map[string][]string)
	for _, l := range links {
		byOwner[l.Owner] = append(byOwner[l.Owner], l.Token)
	}
	for i := range users {
		users[i].CreatedLinks = append([]string{}, byOwner[users[i].Username]...)
	}
	return users, links, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func getLink(ctx context.Context, q querier, token string) (*domain.ShortLink, error) {
	query := `SELECT token, target_url, domain, clicks, owner, created_at FROM links WHERE token = ?`

	var l domain.ShortLink
	err := q.QueryRowContext(ctx, query, token).Scan(&l.Token, &l.TargetURL, &l.DomainTag, &l.Clicks, &l.Owner, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select link: %w", err)
	}
	return &l, nil
}

func queryLinks(ctx context.Context, q querier, query string, args ...any) ([]domain.ShortLink, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	links := []domain.ShortLink{}
	for rows.Next() {
		var l domain.ShortLink
		if err := rows.Scan(&l.Token, &l.TargetURL, &l.DomainTag, &l.Clicks, &l.Owner, &l.CreatedAt); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// Ensure interface compliance
var _ ports.Repository = (*SQLiteRepository)(nil)
