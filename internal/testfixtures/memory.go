package testfixtures

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/shift-service/internal/domain"
	"github.com/spec-kit/shift-service/internal/lifecycle"
	"github.com/spec-kit/shift-service/internal/repository"
)

// Memory is an in-process stand-in for the Postgres repositories. Writes use
// the same guards as the SQL statements so races resolve identically.
type Memory struct {
	mu            sync.Mutex
	clock         *Clock
	stores        map[string]domain.Store
	users         map[string]domain.User
	shifts        map[string]domain.Shift
	swaps         map[string]domain.SwapRequest
	notifications []domain.Notification
	ledger        []domain.LedgerEntry

	// NotificationErr, when set, fails every notification insert.
	NotificationErr error
}

// NewMemory returns an empty store driven by clock.
func NewMemory(clock *Clock) *Memory {
	if clock == nil {
		clock = NewClock(time.Time{})
	}
	return &Memory{
		clock:  clock,
		stores: make(map[string]domain.Store),
		users:  make(map[string]domain.User),
		shifts: make(map[string]domain.Shift),
		swaps:  make(map[string]domain.SwapRequest),
	}
}

// Shifts returns the shift repository view.
func (m *Memory) Shifts() repository.ShiftRepository { return shiftRepo{m} }

// Swaps returns the swap request repository view.
func (m *Memory) Swaps() repository.SwapRequestRepository { return swapRepo{m} }

// Notifications returns the notification repository view.
func (m *Memory) Notifications() repository.NotificationRepository { return notificationRepo{m} }

// Ledger returns the ledger repository view.
func (m *Memory) Ledger() repository.LedgerRepository { return ledgerRepo{m} }

// Users returns the user repository view.
func (m *Memory) Users() repository.UserRepository { return userRepo{m} }

// Stores returns the store repository view.
func (m *Memory) Stores() repository.StoreRepository { return storeRepo{m} }

// AddStore seeds a store.
func (m *Memory) AddStore(name string, approvalRequired bool) domain.Store {
	store := domain.Store{ID: uuid.NewString(), Name: name, ApprovalRequired: approvalRequired, CreatedAt: m.clock.Now()}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores[store.ID] = store
	return store
}

// AddUser seeds an active user.
func (m *Memory) AddUser(storeID string, role domain.Role, name string) domain.User {
	id := uuid.NewString()
	user := domain.User{
		ID:        id,
		Name:      name,
		Email:     strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com",
		Role:      role,
		StoreID:   storeID,
		Active:    true,
		CreatedAt: m.clock.Now(),
		UpdatedAt: m.clock.Now(),
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id] = user
	return user
}

// AddShift seeds a shift; an empty ID or status is filled in.
func (m *Memory) AddShift(shift domain.Shift) domain.Shift {
	if shift.ID == "" {
		shift.ID = uuid.NewString()
	}
	if shift.Status == "" {
		shift.Status = domain.ShiftStatusUnassigned
	}
	shift.CreatedAt = m.clock.Now()
	shift.UpdatedAt = shift.CreatedAt
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shifts[shift.ID] = shift.Clone()
	return shift
}

// Shift returns a copy of the stored shift.
func (m *Memory) Shift(id string) (domain.Shift, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	shift, ok := m.shifts[id]
	return shift.Clone(), ok
}

// NotificationsFor returns the notifications stored for userID in insertion order.
func (m *Memory) NotificationsFor(userID string) []domain.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// NotificationCount returns the number of stored notifications.
func (m *Memory) NotificationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.notifications)
}

func guardMatches(current domain.Shift, guard lifecycle.Guard) bool {
	if current.Status != guard.Status {
		return false
	}
	if guard.AssignedUserID != "" && !current.IsAssignedTo(guard.AssignedUserID) {
		return false
	}
	if guard.RequireClockInUnset && current.ClockIn != nil {
		return false
	}
	if guard.RequireClockInSet && current.ClockIn == nil {
		return false
	}
	if guard.RequireClockOutUnset && current.ClockOut != nil {
		return false
	}
	return true
}

// applyTransition must be called with m.mu held.
func (m *Memory) applyTransition(next *domain.Shift, guard lifecycle.Guard) error {
	current, ok := m.shifts[next.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if !guardMatches(current, guard) {
		if current.Status == domain.ShiftStatusLocked {
			return repository.ErrShiftLocked
		}
		return repository.ErrStaleState
	}
	written := next.Clone()
	current.Status = written.Status
	current.AssignedUserID = written.AssignedUserID
	current.ClaimedBy = written.ClaimedBy
	current.ApprovedBy = written.ApprovedBy
	current.ClockIn = written.ClockIn
	current.ClockOut = written.ClockOut
	current.UpdatedAt = m.clock.Now()
	next.UpdatedAt = current.UpdatedAt
	m.shifts[next.ID] = current
	return nil
}

type shiftRepo struct{ m *Memory }

func (r shiftRepo) Create(_ context.Context, shift *domain.Shift) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	shift.ID = uuid.NewString()
	shift.CreatedAt = r.m.clock.Now()
	shift.UpdatedAt = shift.CreatedAt
	r.m.shifts[shift.ID] = shift.Clone()
	return nil
}

func (r shiftRepo) GetByID(_ context.Context, id string) (*domain.Shift, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	shift, ok := r.m.shifts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := shift.Clone()
	return &out, nil
}

func (r shiftRepo) List(_ context.Context, filter repository.ShiftFilter) ([]domain.Shift, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []domain.Shift
	for _, shift := range r.m.shifts {
		if shift.StoreID != filter.StoreID {
			continue
		}
		if filter.DateFrom != nil && shift.Date.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && shift.Date.After(*filter.DateTo) {
			continue
		}
		if filter.VisibleTo != nil {
			user := *filter.VisibleTo
			claimed := shift.ClaimedBy != nil && *shift.ClaimedBy == user
			if shift.Status != domain.ShiftStatusUnassigned && !shift.IsAssignedTo(user) && !claimed {
				continue
			}
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, shift.Status) {
			continue
		}
		out = append(out, shift.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r shiftRepo) ListHeldByUser(_ context.Context, storeID, userID string, date time.Time) ([]domain.Shift, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	day := date.Format(domain.DateLayout)
	var out []domain.Shift
	for _, shift := range r.m.shifts {
		if shift.StoreID != storeID || shift.DateKey() != day {
			continue
		}
		if shift.Status != domain.ShiftStatusPending && shift.Status != domain.ShiftStatusApproved {
			continue
		}
		if shift.HeldBy(userID) {
			out = append(out, shift.Clone())
		}
	}
	return out, nil
}

func (r shiftRepo) Update(_ context.Context, shift *domain.Shift) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	current, ok := r.m.shifts[shift.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if current.Status == domain.ShiftStatusLocked {
		return repository.ErrShiftLocked
	}
	next := shift.Clone()
	current.Date = next.Date
	current.StartTime = next.StartTime
	current.EndTime = next.EndTime
	current.RoleRequired = next.RoleRequired
	current.Station = next.Station
	current.Notes = next.Notes
	current.EventFlag = next.EventFlag
	current.EventNote = next.EventNote
	current.UpdatedAt = r.m.clock.Now()
	shift.UpdatedAt = current.UpdatedAt
	r.m.shifts[shift.ID] = current
	return nil
}

func (r shiftRepo) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	current, ok := r.m.shifts[id]
	if !ok {
		return repository.ErrNotFound
	}
	if current.Status == domain.ShiftStatusLocked {
		return repository.ErrShiftLocked
	}
	delete(r.m.shifts, id)
	return nil
}

func (r shiftRepo) Transition(_ context.Context, next *domain.Shift, guard lifecycle.Guard) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.applyTransition(next, guard)
}

type swapRepo struct{ m *Memory }

func (r swapRepo) Create(_ context.Context, req *domain.SwapRequest) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, existing := range r.m.swaps {
		if existing.ShiftID == req.ShiftID && existing.FromUserID == req.FromUserID && existing.Status == domain.SwapStatusPending {
			return repository.ErrDuplicate
		}
	}
	req.ID = uuid.NewString()
	req.CreatedAt = r.m.clock.Now()
	req.UpdatedAt = req.CreatedAt
	r.m.swaps[req.ID] = *req
	return nil
}

func (r swapRepo) GetByID(_ context.Context, id string) (*domain.SwapRequest, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	req, ok := r.m.swaps[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &req, nil
}

func (r swapRepo) List(_ context.Context, filter repository.SwapFilter) ([]domain.SwapRequest, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []domain.SwapRequest
	for _, req := range r.m.swaps {
		if req.StoreID != filter.StoreID {
			continue
		}
		if filter.Participant != nil {
			user := *filter.Participant
			if req.FromUserID != user && (req.ToUserID == nil || *req.ToUserID != user) {
				continue
			}
		}
		if filter.ShiftID != nil && req.ShiftID != *filter.ShiftID {
			continue
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, status := range filter.Statuses {
				match = match || req.Status == status
			}
			if !match {
				continue
			}
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r swapRepo) HasPending(_ context.Context, shiftID, fromUserID string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, req := range r.m.swaps {
		if req.ShiftID == shiftID && req.FromUserID == fromUserID && req.Status == domain.SwapStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (r swapRepo) Review(_ context.Context, req *domain.SwapRequest, shift *domain.Shift, guard lifecycle.Guard) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	current, ok := r.m.swaps[req.ID]
	if !ok || current.Status != domain.SwapStatusPending {
		return repository.ErrStaleState
	}
	if shift != nil {
		if err := r.m.applyTransition(shift, guard); err != nil {
			return err
		}
	}
	current.Status = req.Status
	current.ReviewedBy = req.ReviewedBy
	current.ReviewedAt = req.ReviewedAt
	current.UpdatedAt = r.m.clock.Now()
	req.UpdatedAt = current.UpdatedAt
	r.m.swaps[req.ID] = current
	return nil
}

type notificationRepo struct{ m *Memory }

func (r notificationRepo) CreateMany(_ context.Context, notifications []domain.Notification) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if r.m.NotificationErr != nil {
		return r.m.NotificationErr
	}
	for i := range notifications {
		notifications[i].ID = uuid.NewString()
		notifications[i].CreatedAt = r.m.clock.Now()
		r.m.notifications = append(r.m.notifications, notifications[i])
	}
	return nil
}

func (r notificationRepo) ListForUser(_ context.Context, userID string, unreadOnly bool, limit int) ([]domain.Notification, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	var out []domain.Notification
	for i := len(r.m.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		n := r.m.notifications[i]
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

func (r notificationRepo) MarkAllRead(_ context.Context, userID string) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var count int64
	for i := range r.m.notifications {
		if r.m.notifications[i].UserID == userID && !r.m.notifications[i].Read {
			r.m.notifications[i].Read = true
			count++
		}
	}
	return count, nil
}

type ledgerRepo struct{ m *Memory }

func (r ledgerRepo) Append(_ context.Context, entry *domain.LedgerEntry) (*domain.Shift, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	shift, ok := r.m.shifts[entry.ShiftID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if shift.Status == domain.ShiftStatusLocked {
		return nil, repository.ErrShiftLocked
	}
	if !entry.Kind.Valid() {
		return nil, errors.New("unknown ledger kind")
	}

	entry.ID = uuid.NewString()
	entry.CreatedAt = r.m.clock.Now()
	r.m.ledger = append(r.m.ledger, *entry)

	var total float64
	for _, e := range r.m.ledger {
		if e.ShiftID == entry.ShiftID && e.Kind == entry.Kind {
			total += e.Quantity
		}
	}
	if entry.Kind == domain.LedgerWaste {
		shift.WasteTotal = total
	} else {
		shift.ProductionTotal = total
	}
	shift.UpdatedAt = r.m.clock.Now()
	r.m.shifts[shift.ID] = shift
	out := shift.Clone()
	return &out, nil
}

func (r ledgerRepo) ListByShift(_ context.Context, shiftID string, kind domain.LedgerKind) ([]domain.LedgerEntry, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []domain.LedgerEntry
	for _, e := range r.m.ledger {
		if e.ShiftID == shiftID && e.Kind == kind {
			out = append(out, e)
		}
	}
	return out, nil
}

type userRepo struct{ m *Memory }

func (r userRepo) Create(_ context.Context, user *domain.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	user.Email = strings.ToLower(user.Email)
	for _, existing := range r.m.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = r.m.clock.Now()
	user.UpdatedAt = user.CreatedAt
	r.m.users[user.ID] = *user
	return nil
}

func (r userRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	user, ok := r.m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, user := range r.m.users {
		if user.Email == strings.ToLower(email) {
			return &user, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r userRepo) ListActiveByStore(_ context.Context, storeID string, roles ...domain.Role) ([]domain.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []domain.User
	for _, user := range r.m.users {
		if user.StoreID != storeID || !user.Active {
			continue
		}
		if len(roles) > 0 {
			match := false
			for _, role := range roles {
				match = match || user.Role == role
			}
			if !match {
				continue
			}
		}
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r userRepo) SetActive(_ context.Context, id string, active bool) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	user, ok := r.m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.Active = active
	r.m.users[id] = user
	return nil
}

type storeRepo struct{ m *Memory }

func (r storeRepo) Create(_ context.Context, store *domain.Store) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	store.ID = uuid.NewString()
	store.CreatedAt = r.m.clock.Now()
	r.m.stores[store.ID] = *store
	return nil
}

func (r storeRepo) GetByID(_ context.Context, id string) (*domain.Store, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	store, ok := r.m.stores[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &store, nil
}

func containsStatus(statuses []domain.ShiftStatus, status domain.ShiftStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// Message is a payload captured by Publisher.
type Message struct {
	Channel string
	Payload []byte
}

// Publisher records realtime publishes and can be told to fail.
type Publisher struct {
	mu       sync.Mutex
	Messages []Message
	Err      error
}

// Publish records the message or returns Err.
func (p *Publisher) Publish(_ context.Context, channel string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.Messages = append(p.Messages, Message{Channel: channel, Payload: append([]byte(nil), payload...)})
	return nil
}

// Channels returns the channels published to, in order.
func (p *Publisher) Channels() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.Messages))
	for i, msg := range p.Messages {
		out[i] = msg.Channel
	}
	return out
}
