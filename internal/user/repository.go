package user

import (
	"context"
	"database/sql"
	"errors"

	"marketplace-be/internal/logger"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

const uniqueViolation = "23505"

type Repository interface {
	Create(ctx context.Context, email, passwordHash string, role Role) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context) ([]*User, error)
	UpdateRole(ctx context.Context, id int64, role Role) (*User, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

const userColumns = "id, email, password_hash, is_active, role, created_at"

func scanUser(row interface{ Scan(...any) error }) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.IsActive, &u.Role, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repository) Create(ctx context.Context, email, passwordHash string, role Role) (*User, error) {
	log := logger.FromCtx(ctx)

	u, err := scanUser(r.db.QueryRowContext(ctx,
		"INSERT INTO users (email, password_hash, role) VALUES ($1, $2, $3) RETURNING "+userColumns,
		email, passwordHash, role,
	))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, ErrEmailExists
		}
		log.Error("db: failed to insert user",
			zap.String("email", email),
			zap.Error(err),
		)
		return nil, err
	}

	return u, nil
}

func (r *repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = $1",
		email,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to find user by email", zap.Error(err))
		return nil, err
	}
	return u, nil
}

func (r *repository) FindByID(ctx context.Context, id int64) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1",
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to find user by id", zap.Int64("user_id", id), zap.Error(err))
		return nil, err
	}
	return u, nil
}

func (r *repository) List(ctx context.Context) ([]*User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to list users", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	users := []*User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *repository) UpdateRole(ctx context.Context, id int64, role Role) (*User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"UPDATE users SET role = $1 WHERE id = $2 RETURNING "+userColumns,
		role, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		logger.FromCtx(ctx).Error("db: failed to update role",
			zap.Int64("user_id", id),
			zap.String("role", string(role)),
			zap.Error(err),
		)
		return nil, err
	}
	return u, nil
}
