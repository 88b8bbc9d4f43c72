package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/shift-service/internal/events"
	"github.com/spec-kit/shift-service/internal/lifecycle"
	"github.com/spec-kit/shift-service/internal/repository"
	apperrors "github.com/spec-kit/shift-service/pkg/util"
)

// Clock returns the current time; tests substitute a fixed one.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC()
}

func clockOrDefault(c Clock) Clock {
	if c == nil {
		return systemClock
	}
	return c
}

func loggerOrNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// requireID rejects ids that cannot exist so they never reach the database.
func requireID(resource, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return nil
}

// mapShiftError converts repository sentinels raised by shift writes.
func mapShiftError(err error, shiftID, staleMessage string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound("shift", map[string]any{"id": shiftID})
	case errors.Is(err, repository.ErrShiftLocked):
		return lifecycle.ErrLocked(shiftID)
	case errors.Is(err, repository.ErrStaleState):
		return apperrors.NewConflict(staleMessage, map[string]any{"shift_id": shiftID})
	default:
		return err
	}
}

func notFound(err error, resource, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(resource, map[string]any{"id": id})
	}
	return err
}

// publish hands committed changes to subscribers. Delivery failures are logged
// by the dispatcher and never reach the caller.
func publish(ctx context.Context, dispatcher events.Dispatcher, logger *zap.Logger, event events.Event) {
	if dispatcher == nil {
		return
	}
	if err := dispatcher.Publish(context.WithoutCancel(ctx), event); err != nil {
		logger.Debug("event published with handler errors",
			zap.String("event_type", string(event.Type)),
			zap.String("shift_id", event.ShiftID))
	}
}
