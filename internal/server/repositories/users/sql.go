package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/dmitrijs2005/gophaccounts/internal/dbx"
	"github.com/dmitrijs2005/gophaccounts/internal/server/models"
	"github.com/google/uuid"
)

const userColumns = `id, email, password_hash, name, subscription, avatar_url, token, created_at, updated_at`

// SQLRepository implements Repository over database/sql for PostgreSQL
// (pgx stdlib) and SQLite (modernc).
type SQLRepository struct {
	db      dbx.DBTX
	dialect Dialect
	now     func() time.Time
}

func NewSQLRepository(db dbx.DBTX, dialect Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect, now: func() time.Time { return time.Now().UTC() }}
}

func NewPostgresRepository(db dbx.DBTX) *SQLRepository {
	return NewSQLRepository(db, Postgres)
}

func NewSQLiteRepository(db dbx.DBTX) *SQLRepository {
	return NewSQLRepository(db, SQLite)
}

// Create inserts user, assigning ID and timestamps when they are unset.
func (r *SQLRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := r.now()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := r.dialect.rebind(
		`INSERT INTO users (id, email, password_hash, name, subscription, avatar_url, token, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Name, user.Subscription, user.AvatarURL,
		nullString(user.Token), user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrEmailTaken
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *SQLRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := r.dialect.rebind(`SELECT ` + userColumns + ` FROM users WHERE email = ?`)
	return r.scanOne(r.db.QueryRowContext(ctx, query, email))
}

func (r *SQLRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := r.dialect.rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// SetToken replaces the active token in a single UPDATE; last writer wins.
// A nil token clears the session.
func (r *SQLRepository) SetToken(ctx context.Context, id string, token *string) (*models.User, error) {
	query := r.dialect.rebind(`UPDATE users SET token = ?, updated_at = ? WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, query, nullString(token), r.now(), id)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

func (r *SQLRepository) SetAvatar(ctx context.Context, id string, avatarURL string) (*models.User, error) {
	query := r.dialect.rebind(`UPDATE users SET avatar_url = ?, updated_at = ? WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, query, avatarURL, r.now(), id)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// Update writes only the non-nil columns of cols in one statement. Token
// and avatar have their own setters and are never touched here.
func (r *SQLRepository) Update(ctx context.Context, id string, cols models.ProfileColumns) (*models.User, error) {
	var (
		set  []string
		args []any
	)
	for _, c := range []struct {
		name string
		val  *string
	}{
		{"email", cols.Email},
		{"password_hash", cols.PasswordHash},
		{"name", cols.Name},
		{"subscription", cols.Subscription},
	} {
		if c.val != nil {
			set = append(set, c.name+" = ?")
			args = append(args, *c.val)
		}
	}
	set = append(set, "updated_at = ?")
	args = append(args, r.now(), id)

	query := r.dialect.rebind(`UPDATE users SET ` + strings.Join(set, ", ") + ` WHERE id = ?`)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrEmailTaken
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := expectOneRow(res); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

func (r *SQLRepository) scanOne(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var token sql.NullString

	err := row.Scan(&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.Subscription,
		&user.AvatarURL, &token, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if token.Valid {
		user.Token = &token.String
	}
	return user, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
