// Package avatars turns an uploaded avatar file into the URL stored on the
// user record.
package avatars

import (
	"context"

	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
)

// Store persists an uploaded avatar for userID and returns its URL or path.
type Store interface {
	Save(ctx context.Context, userID string, file *models.FileRef) (string, error)
}

// LocalStore keeps the file where the upload left it.
type LocalStore struct{}

func NewLocalStore() *LocalStore { return &LocalStore{} }

func (LocalStore) Save(_ context.Context, _ string, file *models.FileRef) (string, error) {
	return file.Path, nil
}
