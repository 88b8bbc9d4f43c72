package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/shift-service/internal/domain"
	"github.com/spec-kit/shift-service/internal/lifecycle"
)

// SwapFilter captures swap request listing parameters.
type SwapFilter struct {
	StoreID string
	// Participant restricts results to requests the user raised or was named in.
	Participant *string
	ShiftID     *string
	Statuses    []domain.SwapStatus
	Limit       int
}

// SwapRequestRepository encapsulates swap request persistence.
type SwapRequestRepository interface {
	Create(ctx context.Context, req *domain.SwapRequest) error
	GetByID(ctx context.Context, id string) (*domain.SwapRequest, error)
	List(ctx context.Context, filter SwapFilter) ([]domain.SwapRequest, error)
	HasPending(ctx context.Context, shiftID, fromUserID string) (bool, error)
	// Review stores the decision and, when shift is non-nil, the reassignment, atomically.
	Review(ctx context.Context, req *domain.SwapRequest, shift *domain.Shift, guard lifecycle.Guard) error
}

const swapColumns = `id, shift_id, store_id, from_user_id, to_user_id, status, message, reviewed_by, reviewed_at, created_at, updated_at`

type swapRequestRepository struct {
	pool *pgxpool.Pool
}

// NewSwapRequestRepository instantiates repository.
func NewSwapRequestRepository(pool *pgxpool.Pool) SwapRequestRepository {
	return &swapRequestRepository{pool: pool}
}

func (r *swapRequestRepository) Create(ctx context.Context, req *domain.SwapRequest) error {
	const query = `
        INSERT INTO swap_requests (shift_id, store_id, from_user_id, to_user_id, status, message)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		req.ShiftID,
		req.StoreID,
		req.FromUserID,
		req.ToUserID,
		req.Status,
		req.Message,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	return translate(err)
}

func (r *swapRequestRepository) GetByID(ctx context.Context, id string) (*domain.SwapRequest, error) {
	req, err := scanSwap(r.pool.QueryRow(ctx, `SELECT `+swapColumns+` FROM swap_requests WHERE id=$1`, id))
	if err != nil {
		return nil, translate(err)
	}
	return req, nil
}

func (r *swapRequestRepository) List(ctx context.Context, filter SwapFilter) ([]domain.SwapRequest, error) {
	clauses := []string{"store_id=$1"}
	args := []any{filter.StoreID}

	if filter.Participant != nil {
		args = append(args, *filter.Participant)
		p := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(from_user_id=%s OR to_user_id=%s)", p, p))
	}
	if filter.ShiftID != nil {
		args = append(args, *filter.ShiftID)
		clauses = append(clauses, fmt.Sprintf("shift_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	query := fmt.Sprintf(`SELECT %s FROM swap_requests WHERE %s ORDER BY created_at DESC LIMIT %d`,
		swapColumns, strings.Join(clauses, " AND "), limit)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.SwapRequest
	for rows.Next() {
		req, err := scanSwap(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *req)
	}
	return result, rows.Err()
}

func (r *swapRequestRepository) HasPending(ctx context.Context, shiftID, fromUserID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM swap_requests WHERE shift_id=$1 AND from_user_id=$2 AND status='pending')`,
		shiftID, fromUserID,
	).Scan(&exists)
	return exists, err
}

func (r *swapRequestRepository) Review(ctx context.Context, req *domain.SwapRequest, shift *domain.Shift, guard lifecycle.Guard) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
            UPDATE swap_requests SET status=$2, reviewed_by=$3, reviewed_at=$4, updated_at=NOW()
            WHERE id=$1 AND status='pending'
            RETURNING updated_at`
		err := tx.QueryRow(ctx, query, req.ID, req.Status, req.ReviewedBy, req.ReviewedAt).Scan(&req.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrStaleState
		}
		if err != nil {
			return err
		}
		if shift == nil {
			return nil
		}
		return transitionShift(ctx, tx, shift, guard)
	})
}

func scanSwap(row pgx.Row) (*domain.SwapRequest, error) {
	var req domain.SwapRequest
	if err := row.Scan(
		&req.ID,
		&req.ShiftID,
		&req.StoreID,
		&req.FromUserID,
		&req.ToUserID,
		&req.Status,
		&req.Message,
		&req.ReviewedBy,
		&req.ReviewedAt,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}
