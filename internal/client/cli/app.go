package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophaccounts/internal/client/client"
	"github.com/dmitrijs2005/gophaccounts/internal/client/session"
	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/logging"
)

type App struct {
	api      client.Client
	sessions session.Store
	logger   logging.Logger
	reader   *bufio.Reader
	out      io.Writer

	token string
	email string
}

func NewApp(api client.Client, sessions session.Store, logger logging.Logger, in io.Reader, out io.Writer) *App {
	return &App{
		api:      api,
		sessions: sessions,
		logger:   logger,
		reader:   bufio.NewReader(in),
		out:      out,
	}
}

// Run restores a saved session, if any, and serves commands until EOF or
// "exit".
func (a *App) Run(ctx context.Context) {
	a.restore(ctx)
	a.println("Accounts CLI (type 'help' for commands)")
	runREPL(ctx, a, a.status, a.reader)
}

func (a *App) restore(ctx context.Context) {
	s, err := a.sessions.Load(ctx)
	if err != nil {
		a.logger.Warn(ctx, "session restore failed", "error", err.Error())
		return
	}
	if s != nil {
		a.token, a.email = s.Token, s.Email
	}
}

func (a *App) isLoggedIn() bool {
	return a.token != ""
}

func (a *App) status() string {
	if a.email == "" {
		return ""
	}
	return fmt.Sprintf("(%s)", a.email)
}

func (a *App) startSession(ctx context.Context, token, email string) {
	a.token, a.email = token, email
	if err := a.sessions.Save(ctx, session.Session{Token: token, Email: email}); err != nil {
		a.logger.Warn(ctx, "session not persisted", "error", err.Error())
	}
}

func (a *App) dropSession(ctx context.Context) {
	a.token, a.email = "", ""
	if err := a.sessions.Clear(ctx); err != nil {
		a.logger.Warn(ctx, "session not cleared", "error", err.Error())
	}
}

func (a *App) fail(ctx context.Context, err error) error {
	a.logger.Debug(ctx, "command failed", "error", err.Error())
	a.println("Error:", common.MessageOf(err))
	return err
}

// failAuthed is fail for calls made with the session token. Unauthorized
// there means the server no longer accepts the token, so the local session
// is dropped.
func (a *App) failAuthed(ctx context.Context, err error) error {
	if common.KindOf(err) != common.KindUnauthorized {
		return a.fail(ctx, err)
	}
	a.logger.Debug(ctx, "session rejected", "error", err.Error())
	a.dropSession(ctx)
	a.println("Session is no longer valid, please log in again.")
	return err
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}
