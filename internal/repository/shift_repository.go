package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/shift-service/internal/domain"
	"github.com/spec-kit/shift-service/internal/lifecycle"
)

// ShiftFilter captures listing parameters. All listings are store-scoped.
type ShiftFilter struct {
	StoreID  string
	DateFrom *time.Time
	DateTo   *time.Time
	// VisibleTo restricts results to unassigned shifts plus those held by the user.
	VisibleTo *string
	Statuses  []domain.ShiftStatus
	Limit     int
}

// ShiftRepository encapsulates shift persistence.
type ShiftRepository interface {
	Create(ctx context.Context, shift *domain.Shift) error
	GetByID(ctx context.Context, id string) (*domain.Shift, error)
	List(ctx context.Context, filter ShiftFilter) ([]domain.Shift, error)
	ListHeldByUser(ctx context.Context, storeID, userID string, date time.Time) ([]domain.Shift, error)
	Update(ctx context.Context, shift *domain.Shift) error
	Delete(ctx context.Context, id string) error
	Transition(ctx context.Context, next *domain.Shift, guard lifecycle.Guard) error
}

const shiftColumns = `id, store_id, shift_date, start_time, end_time, assigned_user_id, claimed_by, approved_by,
    role_required, status, approval_required, waste_total, production_total, clock_in, clock_out,
    station, notes, event_flag, event_note, created_by, created_at, updated_at`

type shiftRepository struct {
	pool *pgxpool.Pool
}

// NewShiftRepository instantiates repository.
func NewShiftRepository(pool *pgxpool.Pool) ShiftRepository {
	return &shiftRepository{pool: pool}
}

func (r *shiftRepository) Create(ctx context.Context, shift *domain.Shift) error {
	const query = `
        INSERT INTO shifts (store_id, shift_date, start_time, end_time, role_required, status,
            approval_required, station, notes, event_flag, event_note, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		shift.StoreID,
		shift.Date,
		shift.StartTime,
		shift.EndTime,
		shift.RoleRequired,
		shift.Status,
		shift.ApprovalRequired,
		shift.Station,
		shift.Notes,
		shift.EventFlag,
		shift.EventNote,
		shift.CreatedBy,
	).Scan(&shift.ID, &shift.CreatedAt, &shift.UpdatedAt)
	return translate(err)
}

func (r *shiftRepository) GetByID(ctx context.Context, id string) (*domain.Shift, error) {
	return getShift(ctx, r.pool, id, false)
}

func getShift(ctx context.Context, q querier, id string, forUpdate bool) (*domain.Shift, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts WHERE id=$1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	shift, err := scanShift(q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translate(err)
	}
	return shift, nil
}

func (r *shiftRepository) List(ctx context.Context, filter ShiftFilter) ([]domain.Shift, error) {
	clauses := []string{"store_id=$1"}
	args := []any{filter.StoreID}

	if filter.DateFrom != nil {
		args = append(args, *filter.DateFrom)
		clauses = append(clauses, fmt.Sprintf("shift_date >= $%d", len(args)))
	}
	if filter.DateTo != nil {
		args = append(args, *filter.DateTo)
		clauses = append(clauses, fmt.Sprintf("shift_date <= $%d", len(args)))
	}
	if filter.VisibleTo != nil {
		args = append(args, *filter.VisibleTo)
		p := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(status='unassigned' OR assigned_user_id=%s OR claimed_by=%s)", p, p))
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
		limit = 500
	}

	query := fmt.Sprintf(`SELECT %s FROM shifts WHERE %s ORDER BY shift_date, start_time, id LIMIT %d`,
		shiftColumns, strings.Join(clauses, " AND "), limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanShifts(rows)
}

func (r *shiftRepository) ListHeldByUser(ctx context.Context, storeID, userID string, date time.Time) ([]domain.Shift, error) {
	query := `SELECT ` + shiftColumns + ` FROM shifts
        WHERE store_id=$1 AND shift_date=$2 AND status IN ('pending','approved')
          AND (assigned_user_id=$3 OR (status='pending' AND claimed_by=$3))
        ORDER BY start_time`
	rows, err := r.pool.Query(ctx, query, storeID, date, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanShifts(rows)
}

func (r *shiftRepository) Update(ctx context.Context, shift *domain.Shift) error {
	const query = `
        UPDATE shifts SET shift_date=$1, start_time=$2, end_time=$3, role_required=$4,
            station=$5, notes=$6, event_flag=$7, event_note=$8, updated_at=NOW()
        WHERE id=$9 AND status <> 'locked'
        RETURNING updated_at`
	err := r.pool.QueryRow(ctx, query,
		shift.Date,
		shift.StartTime,
		shift.EndTime,
		shift.RoleRequired,
		shift.Station,
		shift.Notes,
		shift.EventFlag,
		shift.EventNote,
		shift.ID,
	).Scan(&shift.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return lockedOrMissing(ctx, r.pool, shift.ID)
	}
	return translate(err)
}

func (r *shiftRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM shifts WHERE id=$1 AND status <> 'locked'`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return lockedOrMissing(ctx, r.pool, id)
	}
	return nil
}

func (r *shiftRepository) Transition(ctx context.Context, next *domain.Shift, guard lifecycle.Guard) error {
	return transitionShift(ctx, r.pool, next, guard)
}

// transitionShift writes the lifecycle fields only if the row still matches guard.
func transitionShift(ctx context.Context, q querier, next *domain.Shift, guard lifecycle.Guard) error {
	args := []any{next.ID, next.Status, next.AssignedUserID, next.ClaimedBy, next.ApprovedBy, next.ClockIn, next.ClockOut, guard.Status}
	clauses := []string{"id=$1", "status=$8"}
	if guard.AssignedUserID != "" {
		args = append(args, guard.AssignedUserID)
		clauses = append(clauses, fmt.Sprintf("assigned_user_id=$%d", len(args)))
	}
	if guard.RequireClockInUnset {
		clauses = append(clauses, "clock_in IS NULL")
	}
	if guard.RequireClockInSet {
		clauses = append(clauses, "clock_in IS NOT NULL")
	}
	if guard.RequireClockOutUnset {
		clauses = append(clauses, "clock_out IS NULL")
	}

	query := fmt.Sprintf(`
        UPDATE shifts SET status=$2, assigned_user_id=$3, claimed_by=$4, approved_by=$5,
            clock_in=$6, clock_out=$7, updated_at=NOW()
        WHERE %s
        RETURNING updated_at`, strings.Join(clauses, " AND "))

	err := q.QueryRow(ctx, query, args...).Scan(&next.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return lockedOrMissing(ctx, q, next.ID)
	}
	return err
}

func lockedOrMissing(ctx context.Context, q querier, id string) error {
	var status domain.ShiftStatus
	err := q.QueryRow(ctx, `SELECT status FROM shifts WHERE id=$1`, id).Scan(&status)
	if err != nil {
		return translate(err)
	}
	if status == domain.ShiftStatusLocked {
		return ErrShiftLocked
	}
	return ErrStaleState
}

func scanShift(row pgx.Row) (*domain.Shift, error) {
	var shift domain.Shift
	if err := row.Scan(
		&shift.ID,
		&shift.StoreID,
		&shift.Date,
		&shift.StartTime,
		&shift.EndTime,
		&shift.AssignedUserID,
		&shift.ClaimedBy,
		&shift.ApprovedBy,
		&shift.RoleRequired,
		&shift.Status,
		&shift.ApprovalRequired,
		&shift.WasteTotal,
		&shift.ProductionTotal,
		&shift.ClockIn,
		&shift.ClockOut,
		&shift.Station,
		&shift.Notes,
		&shift.EventFlag,
		&shift.EventNote,
		&shift.CreatedBy,
		&shift.CreatedAt,
		&shift.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &shift, nil
}

func scanShifts(rows pgx.Rows) ([]domain.Shift, error) {
	var result []domain.Shift
	for rows.Next() {
		shift, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *shift)
	}
	return result, rows.Err()
}
