package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/shift-service/internal/auth"
	"github.com/spec-kit/shift-service/internal/domain"
	"github.com/spec-kit/shift-service/internal/lifecycle"
	"github.com/spec-kit/shift-service/internal/repository"
	apperrors "github.com/spec-kit/shift-service/pkg/util"
)

// LedgerService records waste and production against shifts.
type LedgerService struct {
	shifts repository.ShiftRepository
	ledger repository.LedgerRepository
	gate   *auth.Gate
	logger *zap.Logger
}

// LedgerDependencies bundles collaborators for the ledger service.
type LedgerDependencies struct {
	ShiftRepo  repository.ShiftRepository
	LedgerRepo repository.LedgerRepository
	Gate       *auth.Gate
	Logger     *zap.Logger
}

// NewLedgerService constructs the service.
func NewLedgerService(deps LedgerDependencies) *LedgerService {
	return &LedgerService{
		shifts: deps.ShiftRepo,
		ledger: deps.LedgerRepo,
		gate:   deps.Gate,
		logger: loggerOrNop(deps.Logger),
	}
}

// LedgerInput describes one waste or production measurement.
type LedgerInput struct {
	ShiftID  string
	Kind     domain.LedgerKind
	ItemName string
	Quantity float64
	Unit     string
	Reason   string
}

// List returns the entries of one kind for a shift.
func (s *LedgerService) List(ctx context.Context, actor domain.Identity, kind domain.LedgerKind, shiftID string) ([]domain.LedgerEntry, error) {
	if strings.TrimSpace(shiftID) == "" {
		return nil, apperrors.NewValidationError("shiftId is required", nil)
	}
	if _, err := s.shift(ctx, actor, shiftID, auth.OpLedgerList); err != nil {
		return nil, err
	}
	entries, err := s.ledger.ListByShift(ctx, shiftID, kind)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []domain.LedgerEntry{}
	}
	return entries, nil
}

// Append records an entry and returns it with the shift's recomputed totals.
func (s *LedgerService) Append(ctx context.Context, actor domain.Identity, input LedgerInput) (*domain.LedgerEntry, *domain.Shift, error) {
	if err := validateLedgerInput(input); err != nil {
		return nil, nil, err
	}
	shift, err := s.shift(ctx, actor, input.ShiftID, auth.OpLedgerAppend)
	if err != nil {
		return nil, nil, err
	}
	if err := lifecycle.Editable(shift); err != nil {
		return nil, nil, err
	}

	entry := &domain.LedgerEntry{
		ShiftID:  input.ShiftID,
		Kind:     input.Kind,
		ItemName: strings.TrimSpace(input.ItemName),
		Quantity: input.Quantity,
		Unit:     strings.TrimSpace(input.Unit),
		Reason:   strings.TrimSpace(input.Reason),
		LoggedBy: actor.UserID,
	}
	updated, err := s.ledger.Append(ctx, entry)
	if err != nil {
		return nil, nil, mapShiftError(err, input.ShiftID, staleWriteMessage)
	}

	s.logger.Info("ledger entry appended",
		zap.String("shift_id", entry.ShiftID),
		zap.String("kind", string(entry.Kind)),
		zap.Float64("quantity", entry.Quantity),
		zap.Float64("waste_total", updated.WasteTotal),
		zap.Float64("production_total", updated.ProductionTotal))
	return entry, updated, nil
}

func (s *LedgerService) shift(ctx context.Context, actor domain.Identity, shiftID string, op auth.Operation) (*domain.Shift, error) {
	if err := s.gate.Authorize(actor, op); err != nil {
		return nil, err
	}
	if err := requireID("shift", shiftID); err != nil {
		return nil, err
	}
	shift, err := s.shifts.GetByID(ctx, shiftID)
	if err != nil {
		return nil, notFound(err, "shift", shiftID)
	}
	if err := s.gate.AuthorizeShift(actor, op, shift); err != nil {
		return nil, err
	}
	return shift, nil
}

func validateLedgerInput(input LedgerInput) error {
	details := map[string]any{}
	if !input.Kind.Valid() {
		details["kind"] = "must be waste or production"
	}
	if strings.TrimSpace(input.ShiftID) == "" {
		details["shiftId"] = "is required"
	}
	if strings.TrimSpace(input.ItemName) == "" {
		details["itemName"] = "is required"
	}
	if input.Quantity <= 0 {
		details["quantity"] = "must be greater than zero"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid log entry", details)
	}
	return nil
}
