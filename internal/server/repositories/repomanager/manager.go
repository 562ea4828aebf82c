// Package repomanager vends repositories bound to a database handle or to
// a transaction, and runs the embedded goose migrations.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/gophaccounts/internal/server/repositories/users"
)

// RepositoryManager is the storage entry point used by services.
type RepositoryManager interface {
	// Users returns a repository bound to the pool.
	Users() users.Repository
	// InTx runs fn with repositories bound to a single transaction. fn's
	// error rolls everything back.
	InTx(ctx context.Context, fn func(ctx context.Context, users users.Repository) error) error
	RunMigrations(ctx context.Context) error
	Close() error
}
