package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/shift-service/internal/domain"
)

// StoreRepository provides access to store policy.
type StoreRepository interface {
	Create(ctx context.Context, store *domain.Store) error
	GetByID(ctx context.Context, id string) (*domain.Store, error)
}

type storeRepository struct {
	pool *pgxpool.Pool
}

// NewStoreRepository instantiates repository.
func NewStoreRepository(pool *pgxpool.Pool) StoreRepository {
	return &storeRepository{pool: pool}
}

func (r *storeRepository) Create(ctx context.Context, store *domain.Store) error {
	const query = `
        INSERT INTO stores (name, approval_required)
        VALUES ($1, $2)
        RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, query, store.Name, store.ApprovalRequired).Scan(&store.ID, &store.CreatedAt)
	return translate(err)
}

func (r *storeRepository) GetByID(ctx context.Context, id string) (*domain.Store, error) {
	const query = `SELECT id, name, approval_required, created_at FROM stores WHERE id=$1`
	var store domain.Store
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&store.ID,
		&store.Name,
		&store.ApprovalRequired,
		&store.CreatedAt,
	); err != nil {
		return nil, translate(err)
	}
	return &store, nil
}
