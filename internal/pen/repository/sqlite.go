package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"pen-tool/internal/pen/document"

	"github.com/gofiber/fiber/v3/log"
)

// Drawing is the stored metadata of one document.
type Drawing struct {
	Name      string `json:"name"`
	Curves    int    `json:"curves"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ============================================================
// SQLite Repository
// ============================================================

type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Init applies every *.sql file of migrations in name order.
func (r *Repository) Init(ctx context.Context, migrations fs.FS) error {
	if err := r.runMigrations(ctx, migrations); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

// Put stores an encoded document, replacing any previous one of that name.
func (r *Repository) Put(ctx context.Context, name string, data []byte) error {
	var head struct {
		Curves []json.RawMessage `json:"curves"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return fmt.Errorf("put drawing %q: %w", name, err)
	}

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO drawings (name, document, curves)
        VALUES (?, ?, ?)
        ON CONFLICT(name) DO UPDATE SET
            document = excluded.document,
            curves = excluded.curves,
            updated_at = CURRENT_TIMESTAMP
    `, name, string(data), len(head.Curves))
	if err != nil {
		return fmt.Errorf("put drawing %q: %w", name, err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, name string) ([]byte, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT document
        FROM drawings
        WHERE name = ?
    `, name)

	var data string
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", document.ErrNotFound, name)
		}
		return nil, err
	}
	return []byte(data), nil
}

func (r *Repository) Info(ctx context.Context, name string) (*Drawing, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT name, curves, created_at, updated_at
        FROM drawings
        WHERE name = ?
    `, name)

	var d Drawing
	if err := row.Scan(&d.Name, &d.Curves, &d.CreatedAt, &d.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", document.ErrNotFound, name)
		}
		return nil, err
	}
	return &d, nil
}

// Drawings returns the metadata of every stored document by name.
func (r *Repository) Drawings(ctx context.Context) ([]Drawing, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT name, curves, created_at, updated_at
        FROM drawings
        ORDER BY name
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Drawing{}
	for rows.Next() {
		var d Drawing
		if err := rows.Scan(&d.Name, &d.Curves, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *Repository) List(ctx context.Context) ([]string, error) {
	drawings, err := r.Drawings(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(drawings))
	for _, d := range drawings {
		names = append(names, d.Name)
	}
	return names, nil
}

func (r *Repository) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM drawings WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete drawing %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", document.ErrNotFound, name)
	}
	return nil
}

// ============================================================
// Migrations
// ============================================================

func (r *Repository) runMigrations(ctx context.Context, migrations fs.FS) error {
	files, err := fs.Glob(migrations, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, name := range files {
		data, err := fs.ReadFile(migrations, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := r.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		log.Debugf("[REPO] applied %s", name)
	}
	return nil
}

// OpenSQLite opens the sqlite database at dbPath, creating its directory.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
