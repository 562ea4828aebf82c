package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophaccounts/internal/client/client"
)

var errNotLoggedIn = errors.New("not logged in")

func (a *App) Register(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword("Password", a.out)
	if err != nil {
		return err
	}
	name, err := GetSimpleText(a.reader, "Name (optional)", a.out)
	if err != nil {
		return err
	}
	plan, err := GetSimpleText(a.reader, "Subscription: starter, pro or business (optional)", a.out)
	if err != nil {
		return err
	}

	s, err := a.api.Register(ctx, email, password, name, plan)
	if err != nil {
		return a.fail(ctx, err)
	}
	a.startSession(ctx, s.Token, s.User.Email)
	a.println("Registered as", s.User.Email)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword("Password", a.out)
	if err != nil {
		return err
	}

	s, err := a.api.Login(ctx, email, password)
	if err != nil {
		return a.fail(ctx, err)
	}
	a.startSession(ctx, s.Token, s.User.Email)
	a.println("Logged in as", s.User.Email)
	return nil
}

func (a *App) Whoami(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.println("Not logged in")
		return errNotLoggedIn
	}

	u, err := a.api.Current(ctx, a.token)
	if err != nil {
		return a.failAuthed(ctx, err)
	}
	a.println(u.Email, "on", u.Subscription, "plan")
	return nil
}

// Logout always forgets the local session, even when the server call fails.
func (a *App) Logout(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.println("Not logged in")
		return errNotLoggedIn
	}

	err := a.api.Logout(ctx, a.token)
	a.dropSession(ctx)
	if err != nil {
		a.logger.Warn(ctx, "server logout failed", "error", err.Error())
	}
	a.println("Logged out")
	return nil
}

func (a *App) Avatar(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.println("Not logged in")
		return errNotLoggedIn
	}

	path, err := GetSimpleText(a.reader, "Path to image", a.out)
	if err != nil {
		return err
	}

	p, err := a.api.UpdateAvatar(ctx, a.token, path)
	if err != nil {
		return a.failAuthed(ctx, err)
	}
	a.println("Avatar:", p.AvatarURL)
	return nil
}

// Profile asks for each field; an empty answer keeps the current value.
func (a *App) Profile(ctx context.Context) error {
	if !a.isLoggedIn() {
		a.println("Not logged in")
		return errNotLoggedIn
	}

	var changes client.ProfileChanges
	prompts := []struct {
		text string
		dst  **string
	}{
		{"New name (empty to keep)", &changes.Name},
		{"New email (empty to keep)", &changes.Email},
		{"New subscription (empty to keep)", &changes.Subscription},
	}
	for _, p := range prompts {
		v, err := GetSimpleText(a.reader, p.text, a.out)
		if err != nil {
			return err
		}
		*p.dst = optional(v)
	}
	pw, err := GetPassword("New password (empty to keep)", a.out)
	if err != nil {
		return err
	}
	changes.Password = optional(pw)

	p, err := a.api.UpdateProfile(ctx, a.token, changes)
	if err != nil {
		return a.failAuthed(ctx, err)
	}

	if p.Email != a.email {
		a.startSession(ctx, a.token, p.Email)
	}
	a.println("Profile updated:", p.Name, p.Email, p.Subscription)
	return nil
}
