// Package client is the HTTP client of the accounts API. Failed calls come
// back as *common.Error values carrying the server's message, with the Kind
// recovered from the response status.
package client

import (
	"context"
)

type Profile struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Subscription string `json:"subscription"`
	AvatarURL    string `json:"avatarURL"`
}

type Session struct {
	Token string  `json:"token"`
	User  Profile `json:"user"`
}

type CurrentUser struct {
	Email        string `json:"email"`
	Subscription string `json:"subscription"`
}

// ProfileChanges lists the fields to change; nil leaves a field alone.
type ProfileChanges struct {
	Name         *string `json:"name,omitempty"`
	Email        *string `json:"email,omitempty"`
	Subscription *string `json:"subscription,omitempty"`
	Password     *string `json:"password,omitempty"`
}

type Client interface {
	Register(ctx context.Context, email, password, name, subscription string) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Current(ctx context.Context, token string) (*CurrentUser, error)
	Logout(ctx context.Context, token string) error
	UpdateAvatar(ctx context.Context, token, path string) (*Profile, error)
	UpdateProfile(ctx context.Context, token string, changes ProfileChanges) (*Profile, error)
}
