package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"pizzeria-be/internal/db"
	"pizzeria-be/internal/logger"

	"go.uber.org/zap"
)

type Repository interface {
	Create(ctx context.Context, p CreateUserParams) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByLogin(ctx context.Context, emailOrUsername string) (*User, error)
	UpdateProfile(ctx context.Context, id int64, p UpdateProfileParams) (*User, error)
	SetAdmin(ctx context.Context, id int64, isAdmin bool) (*User, error)
	SetActive(ctx context.Context, id int64, isActive bool) (*User, error)
	List(ctx context.Context, f ListFilter) ([]*User, error)
	Stats(ctx context.Context) (*Stats, error)
}

type repository struct {
	conn db.DBTX
}

func NewRepository(conn db.DBTX) Repository {
	return &repository{conn: conn}
}

const userColumns = "id, username, email, hashed_password, is_active, is_admin, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsActive, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// mapWriteError turns unique violations into domain conflicts.
func mapWriteError(err error) error {
	if constraint, ok := db.UniqueViolation(err); ok {
		switch constraint {
		case constraintEmail:
			return ErrEmailExists
		case constraintUsername:
			return ErrUsernameExists
		}
	}
	return err
}

func (r *repository) Create(ctx context.Context, p CreateUserParams) (*User, error) {
	log := logger.FromCtx(ctx)

	u, err := scanUser(r.conn.QueryRowContext(ctx,
		`INSERT INTO users (username, email, hashed_password, is_active, is_admin)
		 VALUES ($1, $2, $3, TRUE, $4)
		 RETURNING `+userColumns,
		p.Username, p.Email, p.PasswordHash, p.IsAdmin,
	))
	if err != nil {
		log.Error("db: failed to insert user",
			zap.String("email", p.Email),
			zap.Error(err),
		)
		return nil, mapWriteError(err)
	}

	return u, nil
}

func (r *repository) FindByID(ctx context.Context, id int64) (*User, error) {
	u, err := scanUser(r.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (r *repository) FindByLogin(ctx context.Context, emailOrUsername string) (*User, error) {
	u, err := scanUser(r.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1 OR username = $1 LIMIT 1`,
		emailOrUsername,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (r *repository) UpdateProfile(ctx context.Context, id int64, p UpdateProfileParams) (*User, error) {
	sets := []string{}
	args := []any{}
	argPos := 1

	if p.Username != nil {
		sets = append(sets, fmt.Sprintf("username = $%d", argPos))
		args = append(args, *p.Username)
		argPos++
	}
	if p.Email != nil {
		sets = append(sets, fmt.Sprintf("email = $%d", argPos))
		args = append(args, *p.Email)
		argPos++
	}
	if len(sets) == 0 {
		return nil, ErrNothingToUpdate
	}

	query := fmt.Sprintf(
		`UPDATE users SET %s, updated_at = NOW() WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), argPos, userColumns,
	)
	args = append(args, id)

	u, err := scanUser(r.conn.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, mapWriteError(err)
	}
	return u, nil
}

func (r *repository) SetAdmin(ctx context.Context, id int64, isAdmin bool) (*User, error) {
	return r.setFlag(ctx, "is_admin", id, isAdmin)
}

func (r *repository) SetActive(ctx context.Context, id int64, isActive bool) (*User, error) {
	return r.setFlag(ctx, "is_active", id, isActive)
}

// column is always one of the two constants above, never user input.
func (r *repository) setFlag(ctx context.Context, column string, id int64, value bool) (*User, error) {
	u, err := scanUser(r.conn.QueryRowContext(ctx,
		`UPDATE users SET `+column+` = $1, updated_at = NOW() WHERE id = $2 RETURNING `+userColumns,
		value, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	return u, err
}

func (r *repository) List(ctx context.Context, f ListFilter) ([]*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE 1=1`
	args := []any{}
	argPos := 1

	if f.IsActive != nil {
		query += fmt.Sprintf(" AND is_active = $%d", argPos)
		args = append(args, *f.IsActive)
		argPos++
	}
	if f.IsAdmin != nil {
		query += fmt.Sprintf(" AND is_admin = $%d", argPos)
		args = append(args, *f.IsAdmin)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY id LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *repository) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	err := r.conn.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_active),
			COUNT(*) FILTER (WHERE is_admin)
		FROM users
	`).Scan(&s.Total, &s.Active, &s.Admins)
	if err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}

	s.Inactive = s.Total - s.Active
	s.Regular = s.Total - s.Admins
	return &s, nil
}
