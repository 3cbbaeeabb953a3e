package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

var ErrNotFound = errors.New("repo: not found")

type Repository interface {
	CreateUser(ctx context.Context, login, email, password string) (int, error)
	GetBylogin(ctx context.Context, login string) (int, string, error)
	GetUser(ctx context.Context, id int) (User, error)
}

// MaterialRepository persists named ply materials. Constants are GPa.
type MaterialRepository interface {
	ListMaterials(ctx context.Context) ([]Material, error)
	GetMaterial(ctx context.Context, name string) (Material, error)
	UpsertMaterial(ctx context.Context, m Material) error
}

type User struct {
	ID    int    `json:"id"`
	Login string `json:"login"`
	Email string `json:"email"`
}

type Material struct {
	Name    string  `json:"name"`
	E1      float64 `json:"e1"`
	E2      float64 `json:"e2"`
	G12     float64 `json:"g12"`
	Nu12    float64 `json:"nu12"`
	OwnerID int     `json:"owner_id,omitempty"`
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id       SERIAL PRIMARY KEY,
	login    TEXT UNIQUE NOT NULL,
	email    TEXT NOT NULL,
	password TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS materials (
	name     TEXT PRIMARY KEY,
	e1       DOUBLE PRECISION NOT NULL,
	e2       DOUBLE PRECISION NOT NULL,
	g12      DOUBLE PRECISION NOT NULL,
	nu12     DOUBLE PRECISION NOT NULL,
	owner_id INTEGER REFERENCES users(id)
);`

// Open connects to Postgres, forcing sslmode=require when the DSN does not
// set a mode, and creates the tables if they are missing.
func Open(ctx context.Context, connStr string) (*sql.DB, error) {
	if !strings.Contains(connStr, "sslmode=") {
		if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
			if strings.Contains(connStr, "?") {
				connStr += "&sslmode=require"
			} else {
				connStr += "?sslmode=require"
			}
		} else {
			connStr += " sslmode=require"
		}
	}
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("repo: open: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("repo: ping: %w", err)
	}
	if _, err = db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("repo: migrate: %w", err)
	}
	return db, nil
}

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserDB(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func (r *PostgresUserRepository) CreateUser(ctx context.Context, login, email, password string) (int, error) {
	var id int
	query := "INSERT INTO users (login, email, password) VALUES ($1, $2, $3) RETURNING id"
	err := r.db.QueryRowContext(ctx, query, login, email, password).Scan(&id)
	return id, err
}

// GetBylogin returns a zero id and empty hash when the login is unknown.
func (r *PostgresUserRepository) GetBylogin(ctx context.Context, login string) (int, string, error) {
	var id int
	var hash string

	query := "SELECT id, password FROM users WHERE login=$1"

	err := r.db.QueryRowContext(ctx, query, login).Scan(&id, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, "", nil
		}
		return 0, "", err
	}
	return id, hash, nil
}

func (r *PostgresUserRepository) GetUser(ctx context.Context, id int) (User, error) {
	u := User{ID: id}
	query := "SELECT login, email FROM users WHERE id=$1"
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.Login, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, fmt.Errorf("%w: user %d", ErrNotFound, id)
	}
	return u, err
}

type PostgresMaterialRepository struct {
	db *sql.DB
}

func NewPostgresMaterialDB(db *sql.DB) *PostgresMaterialRepository {
	return &PostgresMaterialRepository{db: db}
}

func (r *PostgresMaterialRepository) ListMaterials(ctx context.Context) ([]Material, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT name, e1, e2, g12, nu12, COALESCE(owner_id, 0) FROM materials ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Material
	for rows.Next() {
		var m Material
		if err := rows.Scan(&m.Name, &m.E1, &m.E2, &m.G12, &m.Nu12, &m.OwnerID); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PostgresMaterialRepository) GetMaterial(ctx context.Context, name string) (Material, error) {
	m := Material{Name: name}
	query := "SELECT e1, e2, g12, nu12, COALESCE(owner_id, 0) FROM materials WHERE name=$1"
	err := r.db.QueryRowContext(ctx, query, name).Scan(&m.E1, &m.E2, &m.G12, &m.Nu12, &m.OwnerID)
	if errors.Is(err, sql.ErrNoRows) {
		return Material{}, fmt.Errorf("%w: material %q", ErrNotFound, name)
	}
	return m, err
}

func (r *PostgresMaterialRepository) UpsertMaterial(ctx context.Context, m Material) error {
	var owner sql.NullInt64
	if m.OwnerID != 0 {
		owner = sql.NullInt64{Int64: int64(m.OwnerID), Valid: true}
	}
	query := `INSERT INTO materials (name, e1, e2, g12, nu12, owner_id) VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (name) DO UPDATE SET e1=EXCLUDED.e1, e2=EXCLUDED.e2, g12=EXCLUDED.g12, nu12=EXCLUDED.nu12, owner_id=EXCLUDED.owner_id`
	_, err := r.db.ExecContext(ctx, query, m.Name, m.E1, m.E2, m.G12, m.Nu12, owner)
	return err
}
