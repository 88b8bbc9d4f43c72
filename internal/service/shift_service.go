package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/shift-service/internal/auth"
	"github.com/spec-kit/shift-service/internal/domain"
	"github.com/spec-kit/shift-service/internal/events"
	"github.com/spec-kit/shift-service/internal/lifecycle"
	"github.com/spec-kit/shift-service/internal/observability"
	"github.com/spec-kit/shift-service/internal/repository"
	apperrors "github.com/spec-kit/shift-service/pkg/util"
)

const (
	staleClaimMessage = "shift is not available to claim"
	staleWriteMessage = "shift was modified by another request"
)

var transitionEvents = map[lifecycle.Transition]events.EventType{
	lifecycle.TransitionClaim:    events.EventShiftClaimed,
	lifecycle.TransitionApprove:  events.EventShiftApproved,
	lifecycle.TransitionDeny:     events.EventShiftDenied,
	lifecycle.TransitionClockIn:  events.EventShiftClockedIn,
	lifecycle.TransitionClockOut: events.EventShiftCompleted,
	lifecycle.TransitionLock:     events.EventShiftLocked,
}

// ShiftService coordinates shift scheduling and the lifecycle state machine.
type ShiftService struct {
	shifts     repository.ShiftRepository
	stores     repository.StoreRepository
	ledger     repository.LedgerRepository
	gate       *auth.Gate
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        Clock
}

// ShiftDependencies bundles collaborators for the shift service.
type ShiftDependencies struct {
	ShiftRepo  repository.ShiftRepository
	StoreRepo  repository.StoreRepository
	LedgerRepo repository.LedgerRepository
	Gate       *auth.Gate
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Clock      Clock
}

// NewShiftService constructs the service.
func NewShiftService(deps ShiftDependencies) *ShiftService {
	return &ShiftService{
		shifts:     deps.ShiftRepo,
		stores:     deps.StoreRepo,
		ledger:     deps.LedgerRepo,
		gate:       deps.Gate,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     loggerOrNop(deps.Logger),
		now:        clockOrDefault(deps.Clock),
	}
}

// ShiftListInput filters shift listings. Date wins over WeekStart.
type ShiftListInput struct {
	Date      *time.Time
	WeekStart *time.Time
	Statuses  []domain.ShiftStatus
}

// ShiftInput describes a new shift.
type ShiftInput struct {
	Date             string
	StartTime        string
	EndTime          string
	RoleRequired     *string
	ApprovalRequired *bool
	Station          string
	Notes            string
	EventFlag        bool
	EventNote        string
}

// ShiftUpdateInput carries the mutable fields; nil leaves a field unchanged.
type ShiftUpdateInput struct {
	Date         *string
	StartTime    *string
	EndTime      *string
	RoleRequired *string
	Station      *string
	Notes        *string
	EventFlag    *bool
	EventNote    *string
}

// ShiftDetail is a shift with its ledger.
type ShiftDetail struct {
	Shift          *domain.Shift
	WasteLogs      []domain.LedgerEntry
	ProductionLogs []domain.LedgerEntry
}

// List returns the store's shifts; employees see unassigned shifts and their own.
func (s *ShiftService) List(ctx context.Context, actor domain.Identity, input ShiftListInput) ([]domain.Shift, error) {
	if err := s.gate.Authorize(actor, auth.OpShiftList); err != nil {
		return nil, err
	}

	filter := repository.ShiftFilter{StoreID: actor.StoreID, Statuses: input.Statuses}
	switch {
	case input.Date != nil:
		day := truncateDay(*input.Date)
		filter.DateFrom, filter.DateTo = &day, &day
	case input.WeekStart != nil:
		from := truncateDay(*input.WeekStart)
		to := from.AddDate(0, 0, 6)
		filter.DateFrom, filter.DateTo = &from, &to
	}
	if actor.Role == domain.RoleEmployee {
		userID := actor.UserID
		filter.VisibleTo = &userID
	}

	shifts, err := s.shifts.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if shifts == nil {
		shifts = []domain.Shift{}
	}
	return shifts, nil
}

// Get returns a shift with its waste and production logs.
func (s *ShiftService) Get(ctx context.Context, actor domain.Identity, shiftID string) (*ShiftDetail, error) {
	shift, err := s.load(ctx, actor, shiftID, auth.OpShiftView)
	if err != nil {
		return nil, err
	}
	detail := &ShiftDetail{Shift: shift}
	if s.ledger == nil {
		return detail, nil
	}
	if detail.WasteLogs, err = s.ledger.ListByShift(ctx, shift.ID, domain.LedgerWaste); err != nil {
		return nil, err
	}
	if detail.ProductionLogs, err = s.ledger.ListByShift(ctx, shift.ID, domain.LedgerProduction); err != nil {
		return nil, err
	}
	return detail, nil
}

// Create schedules a new unassigned shift in the caller's store.
func (s *ShiftService) Create(ctx context.Context, actor domain.Identity, input ShiftInput) (*domain.Shift, error) {
	if err := s.gate.Authorize(actor, auth.OpShiftCreate); err != nil {
		return nil, err
	}

	date, err := parseDate(input.Date)
	if err != nil {
		return nil, err
	}
	start, end := strings.TrimSpace(input.StartTime), strings.TrimSpace(input.EndTime)
	if err := validateInterval(start, end); err != nil {
		return nil, err
	}
	role, err := parseRole(input.RoleRequired)
	if err != nil {
		return nil, err
	}

	approval, err := s.approvalPolicy(ctx, actor.StoreID, input.ApprovalRequired)
	if err != nil {
		return nil, err
	}

	creator := actor.UserID
	shift := &domain.Shift{
		StoreID:          actor.StoreID,
		Date:             date,
		StartTime:        start,
		EndTime:          end,
		RoleRequired:     role,
		Status:           domain.ShiftStatusUnassigned,
		ApprovalRequired: approval,
		Station:          strings.TrimSpace(input.Station),
		Notes:            strings.TrimSpace(input.Notes),
		EventFlag:        input.EventFlag,
		EventNote:        strings.TrimSpace(input.EventNote),
		CreatedBy:        &creator,
	}
	if err := s.shifts.Create(ctx, shift); err != nil {
		return nil, err
	}

	s.logger.Info("shift created",
		zap.String("shift_id", shift.ID),
		zap.String("store_id", shift.StoreID),
		zap.String("date", shift.DateKey()),
		zap.Bool("approval_required", shift.ApprovalRequired))
	return shift, nil
}

// Update edits the mutable fields of a shift that is not locked.
func (s *ShiftService) Update(ctx context.Context, actor domain.Identity, shiftID string, input ShiftUpdateInput) (*domain.Shift, error) {
	shift, err := s.load(ctx, actor, shiftID, auth.OpShiftUpdate)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.Editable(shift); err != nil {
		return nil, err
	}

	next := shift.Clone()
	if input.Date != nil {
		if next.Date, err = parseDate(*input.Date); err != nil {
			return nil, err
		}
	}
	if input.StartTime != nil {
		next.StartTime = strings.TrimSpace(*input.StartTime)
	}
	if input.EndTime != nil {
		next.EndTime = strings.TrimSpace(*input.EndTime)
	}
	if err := validateInterval(next.StartTime, next.EndTime); err != nil {
		return nil, err
	}
	if input.RoleRequired != nil {
		if next.RoleRequired, err = parseRole(input.RoleRequired); err != nil {
			return nil, err
		}
	}
	if input.Station != nil {
		next.Station = strings.TrimSpace(*input.Station)
	}
	if input.Notes != nil {
		next.Notes = strings.TrimSpace(*input.Notes)
	}
	if input.EventFlag != nil {
		next.EventFlag = *input.EventFlag
	}
	if input.EventNote != nil {
		next.EventNote = strings.TrimSpace(*input.EventNote)
	}

	if err := s.shifts.Update(ctx, &next); err != nil {
		return nil, mapShiftError(err, shiftID, staleWriteMessage)
	}
	return &next, nil
}

// Delete removes a shift that is not locked.
func (s *ShiftService) Delete(ctx context.Context, actor domain.Identity, shiftID string) error {
	shift, err := s.load(ctx, actor, shiftID, auth.OpShiftDelete)
	if err != nil {
		return err
	}
	if err := lifecycle.Editable(shift); err != nil {
		return err
	}
	if err := s.shifts.Delete(ctx, shiftID); err != nil {
		return mapShiftError(err, shiftID, staleWriteMessage)
	}
	s.logger.Info("shift deleted", zap.String("shift_id", shiftID), zap.String("actor_id", actor.UserID))
	return nil
}

// Claim takes an unassigned shift for the caller.
func (s *ShiftService) Claim(ctx context.Context, actor domain.Identity, shiftID string) (*domain.Shift, error) {
	return s.transition(ctx, actor, shiftID, auth.OpShiftClaim, lifecycle.TransitionClaim,
		func(shift domain.Shift) (lifecycle.Outcome, error) {
			held, err := s.shifts.ListHeldByUser(ctx, shift.StoreID, actor.UserID, shift.Date)
			if err != nil {
				return lifecycle.Outcome{}, err
			}
			return lifecycle.Claim(shift, actor, held, s.now())
		})
}

// Decide approves or denies a pending claim.
func (s *ShiftService) Decide(ctx context.Context, actor domain.Identity, shiftID string, approve bool) (*domain.Shift, error) {
	if approve {
		return s.transition(ctx, actor, shiftID, auth.OpShiftApprove, lifecycle.TransitionApprove,
			func(shift domain.Shift) (lifecycle.Outcome, error) {
				return lifecycle.Approve(shift, actor, s.now())
			})
	}
	return s.transition(ctx, actor, shiftID, auth.OpShiftApprove, lifecycle.TransitionDeny,
		func(shift domain.Shift) (lifecycle.Outcome, error) {
			return lifecycle.Deny(shift, actor, s.now())
		})
}

// Clock records a clock-in or clock-out for the caller.
func (s *ShiftService) Clock(ctx context.Context, actor domain.Identity, shiftID string, in bool) (*domain.Shift, error) {
	if in {
		return s.transition(ctx, actor, shiftID, auth.OpShiftClock, lifecycle.TransitionClockIn,
			func(shift domain.Shift) (lifecycle.Outcome, error) {
				return lifecycle.ClockIn(shift, actor, s.now())
			})
	}
	return s.transition(ctx, actor, shiftID, auth.OpShiftClock, lifecycle.TransitionClockOut,
		func(shift domain.Shift) (lifecycle.Outcome, error) {
			return lifecycle.ClockOut(shift, actor, s.now())
		})
}

// Lock freezes a completed shift.
func (s *ShiftService) Lock(ctx context.Context, actor domain.Identity, shiftID string) (*domain.Shift, error) {
	return s.transition(ctx, actor, shiftID, auth.OpShiftLock, lifecycle.TransitionLock,
		func(shift domain.Shift) (lifecycle.Outcome, error) {
			return lifecycle.Lock(shift, actor, s.now())
		})
}

func (s *ShiftService) transition(
	ctx context.Context,
	actor domain.Identity,
	shiftID string,
	op auth.Operation,
	name lifecycle.Transition,
	apply func(domain.Shift) (lifecycle.Outcome, error),
) (shift *domain.Shift, err error) {
	defer func() { s.metrics.RecordTransition(string(name), err) }()

	current, err := s.load(ctx, actor, shiftID, op)
	if err != nil {
		return nil, err
	}
	outcome, err := apply(*current)
	if err != nil {
		return nil, err
	}

	staleMessage := staleWriteMessage
	if name == lifecycle.TransitionClaim {
		staleMessage = staleClaimMessage
	}
	if err := s.shifts.Transition(ctx, &outcome.Shift, outcome.Guard); err != nil {
		return nil, mapShiftError(err, shiftID, staleMessage)
	}

	s.logger.Info("shift transition",
		zap.String("transition", string(name)),
		zap.String("shift_id", shiftID),
		zap.String("actor_id", actor.UserID),
		zap.String("from", string(outcome.Guard.Status)),
		zap.String("to", string(outcome.Shift.Status)))

	publish(ctx, s.dispatcher, s.logger,
		events.NewEvent(transitionEvents[name], actor, shiftID, s.now(), outcome.Intents))
	return &outcome.Shift, nil
}

func (s *ShiftService) load(ctx context.Context, actor domain.Identity, shiftID string, op auth.Operation) (*domain.Shift, error) {
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

func (s *ShiftService) approvalPolicy(ctx context.Context, storeID string, override *bool) (bool, error) {
	if override != nil {
		return *override, nil
	}
	if s.stores == nil {
		return true, nil
	}
	store, err := s.stores.GetByID(ctx, storeID)
	if errors.Is(err, repository.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return store.ApprovalRequired, nil
}

func parseDate(value string) (time.Time, error) {
	date, err := time.Parse(domain.DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("date must be formatted YYYY-MM-DD", map[string]any{"date": value})
	}
	return date, nil
}

func validateInterval(start, end string) error {
	if _, err := lifecycle.ParseInterval(start, end); err != nil {
		return apperrors.NewValidationError(err.Error(), map[string]any{"startTime": start, "endTime": end})
	}
	return nil
}

func parseRole(value *string) (*domain.Role, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	role := domain.Role(strings.ToLower(strings.TrimSpace(*value)))
	if !role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"roleRequired": *value})
	}
	return &role, nil
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
