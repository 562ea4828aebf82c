// Package oauthstate issues and checks the anti-forgery state parameter that
// travels through the federated login redirect.
package oauthstate

import (
	"context"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
)

// Issuer produces a state value for an outgoing authorization request and
// later accepts it back exactly when it is one this service issued and has
// not expired.
type Issuer interface {
	Issue(ctx context.Context) (string, error)
	Consume(ctx context.Context, state string) error
}

var ErrInvalidState = common.Unauthorized("Invalid state")
