package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/shift-service/internal/domain"
)

// LedgerRepository persists waste and production entries and keeps the shift totals in step.
type LedgerRepository interface {
	// Append inserts entry and returns the shift with recomputed totals.
	Append(ctx context.Context, entry *domain.LedgerEntry) (*domain.Shift, error)
	ListByShift(ctx context.Context, shiftID string, kind domain.LedgerKind) ([]domain.LedgerEntry, error)
}

type ledgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository instantiates repository.
func NewLedgerRepository(pool *pgxpool.Pool) LedgerRepository {
	return &ledgerRepository{pool: pool}
}

func ledgerTable(kind domain.LedgerKind) (table, totalColumn string, err error) {
	switch kind {
	case domain.LedgerWaste:
		return "waste_logs", "waste_total", nil
	case domain.LedgerProduction:
		return "production_logs", "production_total", nil
	default:
		return "", "", fmt.Errorf("unknown ledger kind %q", kind)
	}
}

func (r *ledgerRepository) Append(ctx context.Context, entry *domain.LedgerEntry) (*domain.Shift, error) {
	table, totalColumn, err := ledgerTable(entry.Kind)
	if err != nil {
		return nil, err
	}

	var updated *domain.Shift
	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		shift, err := getShift(ctx, tx, entry.ShiftID, true)
		if err != nil {
			return err
		}
		if shift.Status == domain.ShiftStatusLocked {
			return ErrShiftLocked
		}

		insert := fmt.Sprintf(`
            INSERT INTO %s (shift_id, item_name, quantity, unit, reason, logged_by)
            VALUES ($1,$2,$3,$4,$5,$6)
            RETURNING id, created_at`, table)
		if err := tx.QueryRow(ctx, insert,
			entry.ShiftID,
			entry.ItemName,
			entry.Quantity,
			entry.Unit,
			entry.Reason,
			entry.LoggedBy,
		).Scan(&entry.ID, &entry.CreatedAt); err != nil {
			return translate(err)
		}

		recompute := fmt.Sprintf(`
            UPDATE shifts SET %[1]s = (SELECT COALESCE(SUM(quantity), 0) FROM %[2]s WHERE shift_id=$1),
                updated_at=NOW()
            WHERE id=$1
            RETURNING waste_total, production_total, updated_at`, totalColumn, table)
		if err := tx.QueryRow(ctx, recompute, entry.ShiftID).Scan(
			&shift.WasteTotal,
			&shift.ProductionTotal,
			&shift.UpdatedAt,
		); err != nil {
			return err
		}
		updated = shift
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *ledgerRepository) ListByShift(ctx context.Context, shiftID string, kind domain.LedgerKind) ([]domain.LedgerEntry, error) {
	table, _, err := ledgerTable(kind)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT id, shift_id, item_name, quantity, unit, reason, logged_by, created_at
        FROM %s WHERE shift_id=$1 ORDER BY created_at, id`, table)
	rows, err := r.pool.Query(ctx, query, shiftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.LedgerEntry
	for rows.Next() {
		entry := domain.LedgerEntry{Kind: kind}
		if err := rows.Scan(
			&entry.ID,
			&entry.ShiftID,
			&entry.ItemName,
			&entry.Quantity,
			&entry.Unit,
			&entry.Reason,
			&entry.LoggedBy,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
