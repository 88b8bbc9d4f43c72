package service

import (
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/shift-service/internal/auth"
	"github.com/spec-kit/shift-service/internal/config"
	"github.com/spec-kit/shift-service/internal/domain"
	"github.com/spec-kit/shift-service/internal/events"
	"github.com/spec-kit/shift-service/internal/observability"
	"github.com/spec-kit/shift-service/internal/testfixtures"
)

var shiftDay = time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

type harness struct {
	mem       *testfixtures.Memory
	clock     *testfixtures.Clock
	publisher *testfixtures.Publisher
	logs      *observer.ObservedLogs

	shifts        *ShiftService
	swaps         *SwapService
	ledger        *LedgerService
	notifications *NotificationService
	auth          *AuthService

	store   domain.Store
	admin   domain.User
	manager domain.User
	alice   domain.User
	bob     domain.User
}

func newHarness(t *testing.T, approvalRequired bool) *harness {
	t.Helper()

	gate, err := auth.NewGate()
	if err != nil {
		t.Fatalf("NewGate: %v", err)
	}
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	clock := testfixtures.NewClock(time.Time{})
	mem := testfixtures.NewMemory(clock)
	publisher := &testfixtures.Publisher{}
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	h := &harness{mem: mem, clock: clock, publisher: publisher, logs: logs}
	h.store = mem.AddStore("Harbor St", approvalRequired)
	h.admin = mem.AddUser(h.store.ID, domain.RoleAdmin, "Ada Admin")
	h.manager = mem.AddUser(h.store.ID, domain.RoleManager, "Max Manager")
	h.alice = mem.AddUser(h.store.ID, domain.RoleEmployee, "Alice Baker")
	h.bob = mem.AddUser(h.store.ID, domain.RoleEmployee, "Bob Barista")

	h.shifts = NewShiftService(ShiftDependencies{
		ShiftRepo:  mem.Shifts(),
		StoreRepo:  mem.Stores(),
		LedgerRepo: mem.Ledger(),
		Gate:       gate,
		Dispatcher: dispatcher,
		Metrics:    metrics,
		Logger:     logger,
		Clock:      clock.Now,
	})
	h.swaps = NewSwapService(SwapDependencies{
		SwapRepo:   mem.Swaps(),
		ShiftRepo:  mem.Shifts(),
		UserRepo:   mem.Users(),
		Gate:       gate,
		Dispatcher: dispatcher,
		Logger:     logger,
		Clock:      clock.Now,
	})
	h.ledger = NewLedgerService(LedgerDependencies{
		ShiftRepo:  mem.Shifts(),
		LedgerRepo: mem.Ledger(),
		Gate:       gate,
		Logger:     logger,
	})
	h.notifications = NewNotificationService(NotificationDependencies{
		NotificationRepo: mem.Notifications(),
		UserRepo:         mem.Users(),
		Publisher:        publisher,
		Dispatcher:       dispatcher,
		Gate:             gate,
		Metrics:          metrics,
		Logger:           logger,
		Config:           config.NotificationConfig{ChannelPrefix: "shifts", RedisPublish: true},
	})
	h.notifications.RegisterHandlers()

	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 480, BcryptCost: 4}}
	h.auth = NewAuthService(cfg, AuthDependencies{
		UserRepo:  mem.Users(),
		StoreRepo: mem.Stores(),
		Logger:    logger,
	})
	return h
}

func (h *harness) openShift(start, end string) domain.Shift {
	return h.mem.AddShift(domain.Shift{
		StoreID:          h.store.ID,
		Date:             shiftDay,
		StartTime:        start,
		EndTime:          end,
		Status:           domain.ShiftStatusUnassigned,
		ApprovalRequired: h.store.ApprovalRequired,
	})
}

func (h *harness) assignedShift(user domain.User, start, end string) domain.Shift {
	owner := user.ID
	claimant := user.ID
	return h.mem.AddShift(domain.Shift{
		StoreID:          h.store.ID,
		Date:             shiftDay,
		StartTime:        start,
		EndTime:          end,
		Status:           domain.ShiftStatusApproved,
		AssignedUserID:   &owner,
		ClaimedBy:        &claimant,
		ApprovalRequired: h.store.ApprovalRequired,
	})
}

func notificationTypes(list []domain.Notification) []domain.NotificationType {
	out := make([]domain.NotificationType, len(list))
	for i, n := range list {
		out[i] = n.Type
	}
	return out
}

func hasType(list []domain.Notification, kind domain.NotificationType) bool {
	for _, n := range list {
		if n.Type == kind {
			return true
		}
	}
	return false
}

func strPtr(v string) *string { return &v }
