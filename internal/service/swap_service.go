package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/shift-service/internal/auth"
	"github.com/spec-kit/shift-service/internal/domain"
	"github.com/spec-kit/shift-service/internal/events"
	"github.com/spec-kit/shift-service/internal/lifecycle"
	"github.com/spec-kit/shift-service/internal/repository"
	apperrors "github.com/spec-kit/shift-service/pkg/util"
)

// SwapService runs the shift swap workflow.
type SwapService struct {
	swaps      repository.SwapRequestRepository
	shifts     repository.ShiftRepository
	users      repository.UserRepository
	gate       *auth.Gate
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        Clock
}

// SwapDependencies bundles collaborators for the swap service.
type SwapDependencies struct {
	SwapRepo   repository.SwapRequestRepository
	ShiftRepo  repository.ShiftRepository
	UserRepo   repository.UserRepository
	Gate       *auth.Gate
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      Clock
}

// NewSwapService constructs the service.
func NewSwapService(deps SwapDependencies) *SwapService {
	return &SwapService{
		swaps:      deps.SwapRepo,
		shifts:     deps.ShiftRepo,
		users:      deps.UserRepo,
		gate:       deps.Gate,
		dispatcher: deps.Dispatcher,
		logger:     loggerOrNop(deps.Logger),
		now:        clockOrDefault(deps.Clock),
	}
}

// SwapListInput filters swap listings.
type SwapListInput struct {
	ShiftID *string
	Status  *domain.SwapStatus
}

// SwapCreateInput describes a new swap request.
type SwapCreateInput struct {
	ShiftID  string
	ToUserID *string
	Message  string
}

// List returns the store's swap requests; employees only see requests they are part of.
func (s *SwapService) List(ctx context.Context, actor domain.Identity, input SwapListInput) ([]domain.SwapRequest, error) {
	if err := s.gate.Authorize(actor, auth.OpSwapList); err != nil {
		return nil, err
	}
	filter := repository.SwapFilter{StoreID: actor.StoreID, ShiftID: input.ShiftID}
	if input.Status != nil {
		filter.Statuses = []domain.SwapStatus{*input.Status}
	}
	if actor.Role == domain.RoleEmployee {
		userID := actor.UserID
		filter.Participant = &userID
	}
	requests, err := s.swaps.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if requests == nil {
		requests = []domain.SwapRequest{}
	}
	return requests, nil
}

// Create opens a swap request for a shift the caller holds.
func (s *SwapService) Create(ctx context.Context, actor domain.Identity, input SwapCreateInput) (*domain.SwapRequest, error) {
	if err := s.gate.Authorize(actor, auth.OpSwapCreate); err != nil {
		return nil, err
	}
	if err := requireID("shift", input.ShiftID); err != nil {
		return nil, err
	}
	shift, err := s.shifts.GetByID(ctx, input.ShiftID)
	if err != nil {
		return nil, notFound(err, "shift", input.ShiftID)
	}
	if err := s.gate.AuthorizeStore(actor, auth.OpSwapCreate, shift.StoreID); err != nil {
		return nil, err
	}

	req, intents, err := lifecycle.OpenSwap(*shift, actor, input.ToUserID, input.Message, s.now())
	if err != nil {
		return nil, err
	}
	if req.ToUserID != nil {
		if err := s.requireRecipient(ctx, shift.StoreID, *req.ToUserID); err != nil {
			return nil, err
		}
	}

	pending, err := s.swaps.HasPending(ctx, shift.ID, actor.UserID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, duplicateSwap(shift.ID)
	}
	if err := s.swaps.Create(ctx, &req); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, duplicateSwap(shift.ID)
		}
		return nil, err
	}

	s.logger.Info("swap requested",
		zap.String("swap_request_id", req.ID),
		zap.String("shift_id", req.ShiftID),
		zap.String("from_user_id", req.FromUserID))

	event := events.NewEvent(events.EventSwapRequested, actor, shift.ID, s.now(), intents)
	event.SwapID = req.ID
	publish(ctx, s.dispatcher, s.logger, event)
	return &req, nil
}

// Review approves or denies a pending request; approval with a recipient reassigns the shift.
func (s *SwapService) Review(ctx context.Context, actor domain.Identity, swapID string, approve bool) (*domain.SwapRequest, *domain.Shift, error) {
	if err := s.gate.Authorize(actor, auth.OpSwapReview); err != nil {
		return nil, nil, err
	}
	if err := requireID("swap request", swapID); err != nil {
		return nil, nil, err
	}
	req, err := s.swaps.GetByID(ctx, swapID)
	if err != nil {
		return nil, nil, notFound(err, "swap request", swapID)
	}
	if err := s.gate.AuthorizeStore(actor, auth.OpSwapReview, req.StoreID); err != nil {
		return nil, nil, err
	}
	shift, err := s.shifts.GetByID(ctx, req.ShiftID)
	if err != nil {
		return nil, nil, notFound(err, "shift", req.ShiftID)
	}

	outcome, err := lifecycle.ReviewSwap(*req, *shift, actor, approve, s.now())
	if err != nil {
		return nil, nil, err
	}
	if outcome.Shift != nil {
		if err := s.requireRecipient(ctx, shift.StoreID, *req.ToUserID); err != nil {
			return nil, nil, err
		}
		if err := s.requireFreeRecipient(ctx, shift, *req.ToUserID); err != nil {
			return nil, nil, err
		}
	}

	if err := s.swaps.Review(ctx, &outcome.Request, outcome.Shift, outcome.ShiftGuard); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return nil, nil, apperrors.NewConflict("swap request or shift changed concurrently", map[string]any{
				"swap_request_id": swapID,
				"shift_id":        req.ShiftID,
			})
		}
		return nil, nil, mapShiftError(err, req.ShiftID, staleWriteMessage)
	}

	current := shift
	if outcome.Shift != nil {
		current = outcome.Shift
	}
	s.logger.Info("swap reviewed",
		zap.String("swap_request_id", swapID),
		zap.String("status", string(outcome.Request.Status)),
		zap.Bool("reassigned", outcome.Shift != nil))

	event := events.NewEvent(events.EventSwapReviewed, actor, req.ShiftID, s.now(), outcome.Intents)
	event.SwapID = swapID
	publish(ctx, s.dispatcher, s.logger, event)
	return &outcome.Request, current, nil
}

func (s *SwapService) requireRecipient(ctx context.Context, storeID, userID string) error {
	invalid := apperrors.NewValidationError("swap recipient must be an active member of the store", map[string]any{"toUserId": userID})
	if err := requireID("user", userID); err != nil {
		return invalid
	}
	user, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return invalid
	}
	if err != nil {
		return err
	}
	if !user.Active || user.StoreID != storeID {
		return invalid
	}
	return nil
}

// requireFreeRecipient rejects a reassignment that would double-book the recipient.
func (s *SwapService) requireFreeRecipient(ctx context.Context, shift *domain.Shift, userID string) error {
	held, err := s.shifts.ListHeldByUser(ctx, shift.StoreID, userID, shift.Date)
	if err != nil {
		return err
	}
	existing, err := lifecycle.FindOverlap(shift, held)
	if err != nil || existing == nil {
		return err
	}
	return apperrors.NewOverlap(
		fmt.Sprintf("swap recipient already holds the %s-%s shift on %s", existing.StartTime, existing.EndTime, existing.DateKey()),
		map[string]any{
			"shift_id":             shift.ID,
			"conflicting_shift_id": existing.ID,
			"user_id":              userID,
			"date":                 shift.DateKey(),
		},
	)
}

func duplicateSwap(shiftID string) error {
	return apperrors.NewConflict("a swap request for this shift is already pending", map[string]any{"shift_id": shiftID})
}
