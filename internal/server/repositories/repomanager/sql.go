package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophaccounts/internal/dbx"
	"github.com/dmitrijs2005/gophaccounts/internal/server/migrations"
	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// memoryDSN is what an empty DatabaseDSN resolves to.
const memoryDSN = ":memory:"

// SQLRepositoryManager serves repositories from one *sql.DB.
type SQLRepositoryManager struct {
	db      *sql.DB
	dialect users.Dialect
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// sqlOpen is a seam for testing sql.Open.
var sqlOpen = sql.Open

// Open picks a driver from dsn: postgres:// and postgresql:// URLs go to pgx,
// anything else (including "") is an SQLite path; "" is a private in-memory
// database.
func Open(dsn string) (*SQLRepositoryManager, error) {
	driver, dialect := "sqlite", users.SQLite
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver, dialect = "pgx", users.Postgres
	}
	if dsn == "" {
		dsn = memoryDSN
	}

	db, err := sqlOpen(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if dialect == users.SQLite {
		// every pooled connection would otherwise get its own :memory: database,
		// and SQLite allows a single writer anyway
		db.SetMaxOpenConns(1)
	}

	return NewSQLRepositoryManager(db, dialect), nil
}

func NewSQLRepositoryManager(db *sql.DB, dialect users.Dialect) *SQLRepositoryManager {
	return &SQLRepositoryManager{db: db, dialect: dialect}
}

func (m *SQLRepositoryManager) Users() users.Repository {
	return users.NewSQLRepository(m.db, m.dialect)
}

func (m *SQLRepositoryManager) InTx(ctx context.Context, fn func(ctx context.Context, users users.Repository) error) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, users.NewSQLRepository(tx, m.dialect))
	})
}

// RunMigrations sets up goose with the embedded migrations and applies them.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(m.gooseDialect()); err != nil {
		return err
	}
	return gooseUpContext(ctx, m.db, ".")
}

func (m *SQLRepositoryManager) Close() error {
	return m.db.Close()
}

func (m *SQLRepositoryManager) gooseDialect() string {
	if m.dialect == users.Postgres {
		return "pgx"
	}
	return "sqlite3"
}
