package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/shift-service/internal/domain"
)

// UserRepository defines persistence access for store members.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// ListActiveByStore returns active users of the store holding any of roles.
	ListActiveByStore(ctx context.Context, storeID string, roles ...domain.Role) ([]domain.User, error)
	SetActive(ctx context.Context, id string, active bool) error
}

const userColumns = `id, name, email, password_hash, role, store_id, active, created_at, updated_at`

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, password_hash, role, store_id, active)
        VALUES ($1, lower($2), $3, $4, $5, $6)
        RETURNING id, email, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.StoreID,
		user.Active,
	).Scan(&user.ID, &user.Email, &user.CreatedAt, &user.UpdatedAt)
	return translate(err)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
	if err != nil {
		return nil, translate(err)
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=lower($1)`, email))
	if err != nil {
		return nil, translate(err)
	}
	return user, nil
}

func (r *userRepository) ListActiveByStore(ctx context.Context, storeID string, roles ...domain.Role) ([]domain.User, error) {
	args := []any{storeID}
	query := `SELECT ` + userColumns + ` FROM users WHERE store_id=$1 AND active = true`
	if len(roles) > 0 {
		placeholders := make([]string, len(roles))
		for i, role := range roles {
			args = append(args, role)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		query += fmt.Sprintf(" AND role IN (%s)", strings.Join(placeholders, ","))
	}
	query += ` ORDER BY name, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *user)
	}
	return result, rows.Err()
}

func (r *userRepository) SetActive(ctx context.Context, id string, active bool) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE users SET active=$1, updated_at=NOW() WHERE id=$2`, active, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.StoreID,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
