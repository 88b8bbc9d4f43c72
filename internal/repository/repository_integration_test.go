package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/spec-kit/shift-service/internal/domain"
	"github.com/spec-kit/shift-service/internal/lifecycle"
	"github.com/spec-kit/shift-service/internal/persistence"
	"github.com/spec-kit/shift-service/internal/repository"
)

var shiftDay = time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

type fixture struct {
	pool    *pgxpool.Pool
	shifts  repository.ShiftRepository
	swaps   repository.SwapRequestRepository
	ledger  repository.LedgerRepository
	notes   repository.NotificationRepository
	users   repository.UserRepository
	stores  repository.StoreRepository
	store   domain.Store
	manager domain.User
	alice   domain.User
	bob     domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres integration test skipped in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("shifts_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := persistence.RunMigrations(ctx, pool, zap.NewNop()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// a second run must be a no-op
	if err := persistence.RunMigrations(ctx, pool, zap.NewNop()); err != nil {
		t.Fatalf("re-migrate: %v", err)
	}

	f := &fixture{
		pool:   pool,
		shifts: repository.NewShiftRepository(pool),
		swaps:  repository.NewSwapRequestRepository(pool),
		ledger: repository.NewLedgerRepository(pool),
		notes:  repository.NewNotificationRepository(pool),
		users:  repository.NewUserRepository(pool),
		stores: repository.NewStoreRepository(pool),
	}
	f.store = domain.Store{Name: "Harbor St", ApprovalRequired: true}
	if err := f.stores.Create(ctx, &f.store); err != nil {
		t.Fatalf("create store: %v", err)
	}
	f.manager = f.user(t, domain.RoleManager, "max@example.com")
	f.alice = f.user(t, domain.RoleEmployee, "alice@example.com")
	f.bob = f.user(t, domain.RoleEmployee, "bob@example.com")
	return f
}

func (f *fixture) user(t *testing.T, role domain.Role, email string) domain.User {
	t.Helper()
	u := domain.User{Name: email, Email: email, PasswordHash: "x", Role: role, StoreID: f.store.ID, Active: true}
	if err := f.users.Create(context.Background(), &u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

func (f *fixture) shift(t *testing.T, start, end string) domain.Shift {
	t.Helper()
	s := domain.Shift{
		StoreID:          f.store.ID,
		Date:             shiftDay,
		StartTime:        start,
		EndTime:          end,
		Status:           domain.ShiftStatusUnassigned,
		ApprovalRequired: true,
	}
	if err := f.shifts.Create(context.Background(), &s); err != nil {
		t.Fatalf("create shift: %v", err)
	}
	return s
}

func TestPostgres_ClaimIsConditional(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shift := f.shift(t, "09:00", "17:00")

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
		errs []error
	)
	for _, user := range []domain.User{f.alice, f.bob} {
		wg.Add(1)
		go func(actor domain.Identity) {
			defer wg.Done()
			out, err := lifecycle.Claim(shift, actor, nil, time.Now())
			if err != nil {
				t.Errorf("claim precondition: %v", err)
				return
			}
			err = f.shifts.Transition(ctx, &out.Shift, out.Guard)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				wins++
				return
			}
			errs = append(errs, err)
		}(user.Identity())
	}
	wg.Wait()

	if wins != 1 || len(errs) != 1 || !errors.Is(errs[0], repository.ErrStaleState) {
		t.Fatalf("wins=%d errs=%v", wins, errs)
	}
	stored, err := f.shifts.GetByID(ctx, shift.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != domain.ShiftStatusPending || stored.ClaimedBy == nil {
		t.Fatalf("unexpected stored shift %+v", stored)
	}
}

func TestPostgres_LockedShiftRejectsWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shift := f.shift(t, "06:00", "10:00")

	if _, err := f.pool.Exec(ctx, `UPDATE shifts SET status='completed', assigned_user_id=$2,
        clock_in=NOW(), clock_out=NOW() WHERE id=$1`, shift.ID, f.alice.ID); err != nil {
		t.Fatalf("complete shift: %v", err)
	}
	completed, err := f.shifts.GetByID(ctx, shift.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	out, err := lifecycle.Lock(*completed, f.manager.Identity(), time.Now())
	if err != nil {
		t.Fatalf("lock precondition: %v", err)
	}
	if err := f.shifts.Transition(ctx, &out.Shift, out.Guard); err != nil {
		t.Fatalf("lock: %v", err)
	}

	claim, err := lifecycle.Claim(shift, f.alice.Identity(), nil, time.Now())
	if err != nil {
		t.Fatalf("claim precondition: %v", err)
	}
	if err := f.shifts.Transition(ctx, &claim.Shift, claim.Guard); !errors.Is(err, repository.ErrShiftLocked) {
		t.Fatalf("expected ErrShiftLocked, got %v", err)
	}
	if _, err := f.ledger.Append(ctx, &domain.LedgerEntry{
		ShiftID: shift.ID, Kind: domain.LedgerWaste, ItemName: "bagel", Quantity: 1, LoggedBy: f.alice.ID,
	}); !errors.Is(err, repository.ErrShiftLocked) {
		t.Fatalf("expected ErrShiftLocked on append, got %v", err)
	}
}

func TestPostgres_LedgerTotals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shift := f.shift(t, "06:00", "14:00")

	entries := []domain.LedgerEntry{
		{ShiftID: shift.ID, Kind: domain.LedgerWaste, ItemName: "croissant", Quantity: 2.5, Unit: "kg", LoggedBy: f.alice.ID},
		{ShiftID: shift.ID, Kind: domain.LedgerWaste, ItemName: "muffin", Quantity: 1.5, Unit: "kg", LoggedBy: f.alice.ID},
		{ShiftID: shift.ID, Kind: domain.LedgerProduction, ItemName: "baguette", Quantity: 40, Unit: "pcs", LoggedBy: f.alice.ID},
	}
	var updated *domain.Shift
	for i := range entries {
		var err error
		if updated, err = f.ledger.Append(ctx, &entries[i]); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	if updated.WasteTotal != 4 || updated.ProductionTotal != 40 {
		t.Fatalf("totals waste=%v production=%v", updated.WasteTotal, updated.ProductionTotal)
	}

	waste, err := f.ledger.ListByShift(ctx, shift.ID, domain.LedgerWaste)
	if err != nil || len(waste) != 2 {
		t.Fatalf("list waste: %v %d", err, len(waste))
	}
}

func TestPostgres_SwapReviewReassigns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	shift := f.shift(t, "12:00", "18:00")

	claim, _ := lifecycle.Claim(shift, f.alice.Identity(), nil, time.Now())
	if err := f.shifts.Transition(ctx, &claim.Shift, claim.Guard); err != nil {
		t.Fatalf("claim: %v", err)
	}
	approve, err := lifecycle.Approve(claim.Shift, f.manager.Identity(), time.Now())
	if err != nil {
		t.Fatalf("approve precondition: %v", err)
	}
	if err := f.shifts.Transition(ctx, &approve.Shift, approve.Guard); err != nil {
		t.Fatalf("approve: %v", err)
	}

	to := f.bob.ID
	req, _, err := lifecycle.OpenSwap(approve.Shift, f.alice.Identity(), &to, "exam", time.Now())
	if err != nil {
		t.Fatalf("open swap: %v", err)
	}
	if err := f.swaps.Create(ctx, &req); err != nil {
		t.Fatalf("create swap: %v", err)
	}
	dup := req
	if err := f.swaps.Create(ctx, &dup); !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for second pending swap, got %v", err)
	}
	if pending, err := f.swaps.HasPending(ctx, shift.ID, f.alice.ID); err != nil || !pending {
		t.Fatalf("HasPending = %v, %v", pending, err)
	}

	outcome, err := lifecycle.ReviewSwap(req, approve.Shift, f.manager.Identity(), true, time.Now())
	if err != nil {
		t.Fatalf("review precondition: %v", err)
	}
	if err := f.swaps.Review(ctx, &outcome.Request, outcome.Shift, outcome.ShiftGuard); err != nil {
		t.Fatalf("review: %v", err)
	}
	if err := f.swaps.Review(ctx, &outcome.Request, outcome.Shift, outcome.ShiftGuard); !errors.Is(err, repository.ErrStaleState) {
		t.Fatalf("second review should be stale, got %v", err)
	}

	stored, err := f.shifts.GetByID(ctx, shift.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !stored.IsAssignedTo(f.bob.ID) {
		t.Fatalf("shift not reassigned: %+v", stored)
	}
}

func TestPostgres_Notifications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	batch := []domain.Notification{
		{UserID: f.alice.ID, Type: domain.NotificationShiftApproved, Title: "Approved", Message: "see you"},
		{UserID: f.alice.ID, Type: domain.NotificationSwapApproved, Title: "Swap", Message: "done"},
		{UserID: f.bob.ID, Type: domain.NotificationSwapRequested, Title: "Swap", Message: "cover?"},
	}
	if err := f.notes.CreateMany(ctx, batch); err != nil {
		t.Fatalf("create many: %v", err)
	}
	for _, n := range batch {
		if n.ID == "" {
			t.Fatal("CreateMany must fill ids")
		}
	}

	list, err := f.notes.ListForUser(ctx, f.alice.ID, true, 0)
	if err != nil || len(list) != 2 {
		t.Fatalf("list: %v %d", err, len(list))
	}
	updated, err := f.notes.MarkAllRead(ctx, f.alice.ID)
	if err != nil || updated != 2 {
		t.Fatalf("mark read: %v %d", err, updated)
	}
	if list, _ = f.notes.ListForUser(ctx, f.alice.ID, true, 0); len(list) != 0 {
		t.Fatalf("expected no unread, got %d", len(list))
	}
	if list, _ = f.notes.ListForUser(ctx, f.bob.ID, true, 0); len(list) != 1 {
		t.Fatalf("bob should keep one unread, got %d", len(list))
	}
}
